package transaction

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chdeimos/moneyo/internal/http/respond"
	"github.com/chdeimos/moneyo/internal/ledger"
)

type Handler struct {
	rec *ledger.Reconciler
}

func NewHandler(rec *ledger.Reconciler) *Handler {
	return &Handler{rec: rec}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/bulk-update", h.bulkUpdate)
	r.Post("/bulk-delete", h.bulkDelete)
	r.Post("/bulk-import", h.bulkImport)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createTransactionRequest struct {
	Amount               decimal.Decimal `json:"amount"`
	Type                 ledger.Type     `json:"type"`
	AccountID            uuid.UUID       `json:"account_id"`
	OriginAccountID      *uuid.UUID      `json:"origin_account_id,omitempty"`
	DestinationAccountID *uuid.UUID      `json:"destination_account_id,omitempty"`
	CategoryID           *uuid.UUID      `json:"category_id,omitempty"`
	Description          string          `json:"description"`
	Date                 time.Time       `json:"date"`
	IsRecurring          bool            `json:"is_recurring"`
	IsVerified           bool            `json:"is_verified"`
}

func (req createTransactionRequest) params() ledger.CreateParams {
	return ledger.CreateParams{
		Amount:               req.Amount,
		Type:                 req.Type,
		AccountID:            req.AccountID,
		OriginAccountID:      req.OriginAccountID,
		DestinationAccountID: req.DestinationAccountID,
		CategoryID:           req.CategoryID,
		Description:          req.Description,
		Date:                 req.Date,
		IsRecurring:          req.IsRecurring,
		IsVerified:           req.IsVerified,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	tx, err := h.rec.Create(r.Context(), req.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(tx))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ledger.ListFilter{}
	q := r.URL.Query()

	if s := q.Get("account_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			respond.BadRequest(w, "invalid account_id")
			return
		}

		filter.AccountID = &id
	}

	if s := q.Get("start_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.StartDate = &t
		}
	}

	if s := q.Get("end_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.EndDate = &t
		}
	}

	txs, err := h.rec.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(txs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	tx, err := h.rec.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(tx))
}

type updateTransactionRequest struct {
	Amount               *decimal.Decimal `json:"amount,omitempty"`
	Type                 *ledger.Type     `json:"type,omitempty"`
	AccountID            *uuid.UUID       `json:"account_id,omitempty"`
	OriginAccountID      *uuid.UUID       `json:"origin_account_id,omitempty"`
	DestinationAccountID *uuid.UUID       `json:"destination_account_id,omitempty"`
	CategoryID           *uuid.UUID       `json:"category_id,omitempty"`
	Description          *string          `json:"description,omitempty"`
	Date                 *time.Time       `json:"date,omitempty"`
	IsRecurring          *bool            `json:"is_recurring,omitempty"`
	IsVerified           *bool            `json:"is_verified,omitempty"`
}

func (req updateTransactionRequest) params() ledger.UpdateParams {
	return ledger.UpdateParams{
		Amount:               req.Amount,
		Type:                 req.Type,
		AccountID:            req.AccountID,
		OriginAccountID:      req.OriginAccountID,
		DestinationAccountID: req.DestinationAccountID,
		CategoryID:           req.CategoryID,
		Description:          req.Description,
		Date:                 req.Date,
		IsRecurring:          req.IsRecurring,
		IsVerified:           req.IsVerified,
	}
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	tx, err := h.rec.Update(r.Context(), id, req.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(tx))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	if err := h.rec.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type bulkUpdateRequest struct {
	IDs   []uuid.UUID              `json:"ids"`
	Patch updateTransactionRequest `json:"patch"`
}

type bulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type bulkResponse struct {
	Requested int `json:"requested"`
	Affected  int `json:"affected"`
}

func (h *Handler) bulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	n, err := h.rec.BulkUpdate(r.Context(), req.IDs, req.Patch.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, bulkResponse{Requested: len(req.IDs), Affected: n})
}

func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	n, err := h.rec.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, bulkResponse{Requested: len(req.IDs), Affected: n})
}

type bulkImportRequest struct {
	Transactions []createTransactionRequest `json:"transactions"`
}

type importResponse struct {
	Imported     int                   `json:"imported"`
	Transactions []transactionResponse `json:"transactions"`
}

func (h *Handler) bulkImport(w http.ResponseWriter, r *http.Request) {
	var req bulkImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	params := make([]ledger.CreateParams, len(req.Transactions))
	for i, t := range req.Transactions {
		params[i] = t.params()
	}

	txs, err := h.rec.BulkImport(r.Context(), params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, importResponse{Imported: len(txs), Transactions: toResponseList(txs)})
}
