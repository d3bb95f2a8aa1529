package subscription

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
	svc *ledger.Subscriptions
}

func NewHandler(svc *ledger.Subscriptions) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/resume", h.resume)
}

type subscriptionResponse struct {
	ID                   uuid.UUID       `json:"id"`
	Description          string          `json:"description"`
	Amount               decimal.Decimal `json:"amount"`
	Type                 ledger.Type     `json:"type"`
	AccountID            uuid.UUID       `json:"account_id"`
	OriginAccountID      *uuid.UUID      `json:"origin_account_id,omitempty"`
	DestinationAccountID *uuid.UUID      `json:"destination_account_id,omitempty"`
	CategoryID           *uuid.UUID      `json:"category_id,omitempty"`
	RecurrencePeriod     ledger.Period   `json:"recurrence_period,omitempty"`
	FrequencyID          *uuid.UUID      `json:"frequency_id,omitempty"`
	RecurrenceInterval   *int            `json:"recurrence_interval"`
	NextExecutionDate    time.Time       `json:"next_execution_date"`
	LastExecutionDate    *time.Time      `json:"last_execution_date,omitempty"`
	IsPaused             bool            `json:"is_paused"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            *time.Time      `json:"updated_at,omitempty"`
}

func toResponse(s *ledger.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:                   s.ID,
		Description:          s.Description,
		Amount:               s.Amount,
		Type:                 s.Type,
		AccountID:            s.AccountID,
		OriginAccountID:      s.OriginAccountID,
		DestinationAccountID: s.DestinationAccountID,
		CategoryID:           s.CategoryID,
		RecurrencePeriod:     s.RecurrencePeriod,
		FrequencyID:          s.FrequencyID,
		RecurrenceInterval:   s.RecurrenceInterval,
		NextExecutionDate:    s.NextExecutionDate,
		LastExecutionDate:    s.LastExecutionDate,
		IsPaused:             s.IsPaused,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

type createSubscriptionRequest struct {
	Description          string          `json:"description"`
	Amount               decimal.Decimal `json:"amount"`
	Type                 ledger.Type     `json:"type"`
	AccountID            uuid.UUID       `json:"account_id"`
	OriginAccountID      *uuid.UUID      `json:"origin_account_id,omitempty"`
	DestinationAccountID *uuid.UUID      `json:"destination_account_id,omitempty"`
	CategoryID           *uuid.UUID      `json:"category_id,omitempty"`
	RecurrencePeriod     ledger.Period   `json:"recurrence_period,omitempty"`
	FrequencyID          *uuid.UUID      `json:"frequency_id,omitempty"`
	RecurrenceInterval   *int            `json:"recurrence_interval,omitempty"`
	NextExecutionDate    time.Time       `json:"next_execution_date"`
	IsPaused             bool            `json:"is_paused"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	s, err := h.svc.Create(r.Context(), ledger.SubscriptionParams{
		Description:          req.Description,
		Amount:               req.Amount,
		Type:                 req.Type,
		AccountID:            req.AccountID,
		OriginAccountID:      req.OriginAccountID,
		DestinationAccountID: req.DestinationAccountID,
		CategoryID:           req.CategoryID,
		RecurrencePeriod:     req.RecurrencePeriod,
		FrequencyID:          req.FrequencyID,
		RecurrenceInterval:   req.RecurrenceInterval,
		NextExecutionDate:    req.NextExecutionDate,
		IsPaused:             req.IsPaused,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(s))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.List(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]subscriptionResponse, len(subs))
	for i, s := range subs {
		resp[i] = toResponse(s)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	s, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(s))
}

type updateSubscriptionRequest struct {
	Description          *string          `json:"description,omitempty"`
	Amount               *decimal.Decimal `json:"amount,omitempty"`
	Type                 *ledger.Type     `json:"type,omitempty"`
	AccountID            *uuid.UUID       `json:"account_id,omitempty"`
	OriginAccountID      *uuid.UUID       `json:"origin_account_id,omitempty"`
	DestinationAccountID *uuid.UUID       `json:"destination_account_id,omitempty"`
	CategoryID           *uuid.UUID       `json:"category_id,omitempty"`
	RecurrencePeriod     *ledger.Period   `json:"recurrence_period,omitempty"`
	FrequencyID          *uuid.UUID       `json:"frequency_id,omitempty"`
	RecurrenceInterval   *int             `json:"recurrence_interval,omitempty"`
	NextExecutionDate    *time.Time       `json:"next_execution_date,omitempty"`
	IsPaused             *bool            `json:"is_paused,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	var req updateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	s, err := h.svc.Update(r.Context(), id, ledger.SubscriptionPatch{
		Description:          req.Description,
		Amount:               req.Amount,
		Type:                 req.Type,
		AccountID:            req.AccountID,
		OriginAccountID:      req.OriginAccountID,
		DestinationAccountID: req.DestinationAccountID,
		CategoryID:           req.CategoryID,
		RecurrencePeriod:     req.RecurrencePeriod,
		FrequencyID:          req.FrequencyID,
		RecurrenceInterval:   req.RecurrenceInterval,
		NextExecutionDate:    req.NextExecutionDate,
		IsPaused:             req.IsPaused,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(s))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type resumeRequest struct {
	Runs int `json:"runs"`
}

func (h *Handler) resume(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	var req resumeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadRequest(w, err.Error())
			return
		}
	}

	s, err := h.svc.Resume(r.Context(), id, req.Runs)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(s))
}
