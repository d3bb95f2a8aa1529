package account

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chdeimos/moneyo/internal/http/respond"
	"github.com/chdeimos/moneyo/internal/ledger"
)

type Handler struct {
	reader ledger.Reader
}

func NewHandler(reader ledger.Reader) *Handler {
	return &Handler{reader: reader}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/audit", h.audit)
	r.Get("/{id}", h.get)
}

type accountResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Balance        decimal.Decimal `json:"balance"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toResponse(a *ledger.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Balance:        a.Balance,
		InitialBalance: a.InitialBalance,
		CreatedAt:      a.CreatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.reader.ListAccounts(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		resp[i] = toResponse(a)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	a, err := h.reader.GetAccount(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(a))
}

type driftResponse struct {
	AccountID  uuid.UUID       `json:"account_id"`
	Name       string          `json:"name"`
	Cached     decimal.Decimal `json:"cached"`
	Expected   decimal.Decimal `json:"expected"`
	Difference decimal.Decimal `json:"difference"`
}

type auditResponse struct {
	Consistent bool            `json:"consistent"`
	Drifts     []driftResponse `json:"drifts"`
}

func (h *Handler) audit(w http.ResponseWriter, r *http.Request) {
	drifts, err := ledger.Audit(r.Context(), h.reader)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := auditResponse{
		Consistent: len(drifts) == 0,
		Drifts:     make([]driftResponse, len(drifts)),
	}
	for i, d := range drifts {
		resp.Drifts[i] = driftResponse{
			AccountID:  d.AccountID,
			Name:       d.Name,
			Cached:     d.Cached,
			Expected:   d.Expected,
			Difference: d.Difference(),
		}
	}

	respond.JSON(w, http.StatusOK, resp)
}
