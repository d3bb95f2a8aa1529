package importcsv

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chdeimos/moneyo/internal/categorize"
	"github.com/chdeimos/moneyo/internal/encoding"
	"github.com/chdeimos/moneyo/internal/http/respond"
	"github.com/chdeimos/moneyo/internal/importer"
	"github.com/chdeimos/moneyo/internal/ledger"
)

type Handler struct {
	importSvc   *importer.Service
	rec         *ledger.Reconciler
	categorizer *categorize.Service
}

func NewHandler(importSvc *importer.Service, rec *ledger.Reconciler, categorizer *categorize.Service) *Handler {
	return &Handler{
		importSvc:   importSvc,
		rec:         rec,
		categorizer: categorizer,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type transactionResponse struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        ledger.Type     `json:"type"`
	AccountID   uuid.UUID       `json:"account_id"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

type importResponse struct {
	Imported     int                   `json:"imported"`
	Categorized  int                   `json:"categorized"`
	Profile      string                `json:"profile"`
	Charset      encoding.Charset      `json:"charset"`
	Transactions []transactionResponse `json:"transactions"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respond.BadRequest(w, "failed to parse form: "+err.Error())
		return
	}

	bank := importer.Bank(r.FormValue("bank"))
	if bank == "" {
		respond.BadRequest(w, "bank field is required")
		return
	}

	accountID, err := uuid.Parse(r.FormValue("account_id"))
	if err != nil {
		respond.BadRequest(w, "account_id field is required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	st, err := h.importSvc.Import(bank, accountID, file)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	categorized := 0
	if h.categorizer != nil {
		categorized, err = h.categorizer.Apply(r.Context(), st.Rows)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
	}

	txs, err := h.rec.BulkImport(r.Context(), st.Rows)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := importResponse{
		Imported:     len(txs),
		Categorized:  categorized,
		Profile:      st.Profile,
		Charset:      st.Charset,
		Transactions: make([]transactionResponse, 0, len(txs)),
	}
	for _, tx := range txs {
		resp.Transactions = append(resp.Transactions, transactionResponse{
			ID:          tx.ID,
			Amount:      tx.Amount,
			Type:        tx.Type,
			AccountID:   tx.AccountID,
			CategoryID:  tx.CategoryID,
			Description: tx.Description,
			Date:        tx.Date,
		})
	}

	respond.JSON(w, http.StatusCreated, resp)
}
