package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	api "github.com/chdeimos/moneyo/internal/http"
	"github.com/chdeimos/moneyo/internal/http/account"
	"github.com/chdeimos/moneyo/internal/http/recurrence"
	"github.com/chdeimos/moneyo/internal/http/subscription"
	"github.com/chdeimos/moneyo/internal/http/transaction"
	"github.com/chdeimos/moneyo/internal/ledger"
	"github.com/chdeimos/moneyo/internal/ledger/memory"
)

func newRouter() http.Handler {
	store := memory.New()
	processor := ledger.NewProcessor(store, ledger.WithClock(func() time.Time {
		return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	}))

	return api.New(api.Handlers{
		Recurrence:    recurrence.NewHandler(processor),
		Transactions:  transaction.NewHandler(ledger.NewReconciler(store, store, nil, nil)),
		Subscriptions: subscription.NewHandler(ledger.NewSubscriptions(store, nil)),
		Accounts:      account.NewHandler(store),
	}, []string{"https://app.example.com"})
}

func TestRouter(t *testing.T) {
	router := newRouter()

	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		contentType string
		wantStatus  int
	}{
		{name: "RecurrenceCheck", method: http.MethodPost, path: "/api/v1/recurrence/check", wantStatus: http.StatusOK},
		{name: "ListTransactions", method: http.MethodGet, path: "/api/v1/transactions/", wantStatus: http.StatusOK},
		{name: "ListSubscriptions", method: http.MethodGet, path: "/api/v1/subscriptions/", wantStatus: http.StatusOK},
		{name: "Audit", method: http.MethodGet, path: "/api/v1/accounts/audit", wantStatus: http.StatusOK},
		{name: "RejectsNonJSONBody", method: http.MethodPost, path: "/api/v1/transactions/", body: "amount=1", contentType: "text/plain", wantStatus: http.StatusUnsupportedMediaType},
		{name: "ImportNotMounted", method: http.MethodPost, path: "/api/v1/import/", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_CORS(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/transactions/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil)
	req.Header.Set("Origin", "https://evil.example.com")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
