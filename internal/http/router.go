package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/chdeimos/moneyo/internal/http/account"
	"github.com/chdeimos/moneyo/internal/http/categorize"
	"github.com/chdeimos/moneyo/internal/http/importcsv"
	"github.com/chdeimos/moneyo/internal/http/recurrence"
	"github.com/chdeimos/moneyo/internal/http/subscription"
	"github.com/chdeimos/moneyo/internal/http/transaction"
)

type Handlers struct {
	Recurrence    *recurrence.Handler
	Transactions  *transaction.Handler
	Subscriptions *subscription.Handler
	Accounts      *account.Handler
	Import        *importcsv.Handler
	Categories    *categorize.Handler
}

func New(h Handlers, allowedOrigins []string) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/recurrence", h.Recurrence.Routes)

		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Transactions.Routes(r)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Subscriptions.Routes(r)
		})

		r.Route("/accounts", h.Accounts.Routes)

		if h.Import != nil {
			r.Route("/import", h.Import.Routes)
		}

		if h.Categories != nil {
			r.Route("/categories/rules", h.Categories.Routes)
		}
	})

	return router
}
