package recurrence

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chdeimos/moneyo/internal/http/respond"
	"github.com/chdeimos/moneyo/internal/ledger"
)

type Checker interface {
	Check(ctx context.Context) (ledger.Result, error)
}

type Handler struct {
	checker Checker
}

func NewHandler(checker Checker) *Handler {
	return &Handler{checker: checker}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/check", h.check)
	r.Post("/check", h.check)
}

type checkResponse struct {
	CreatedCount int `json:"createdCount"`
	FailedCount  int `json:"failedCount,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	res, err := h.checker.Check(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if res.Created == 0 && res.Failed == 0 {
		respond.JSON(w, http.StatusOK, messageResponse{Message: "nothing due"})
		return
	}

	respond.JSON(w, http.StatusOK, checkResponse{CreatedCount: res.Created, FailedCount: res.Failed})
}
