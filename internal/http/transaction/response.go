package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chdeimos/moneyo/internal/ledger"
)

type transactionResponse struct {
	ID                   uuid.UUID       `json:"id"`
	Amount               decimal.Decimal `json:"amount"`
	Type                 ledger.Type     `json:"type"`
	AccountID            uuid.UUID       `json:"account_id"`
	OriginAccountID      *uuid.UUID      `json:"origin_account_id,omitempty"`
	DestinationAccountID *uuid.UUID      `json:"destination_account_id,omitempty"`
	CategoryID           *uuid.UUID      `json:"category_id,omitempty"`
	SubscriptionID       *uuid.UUID      `json:"subscription_id,omitempty"`
	Description          string          `json:"description"`
	Date                 time.Time       `json:"date"`
	IsRecurring          bool            `json:"is_recurring"`
	IsVerified           bool            `json:"is_verified"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            *time.Time      `json:"updated_at,omitempty"`
}

func toResponse(tx *ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:                   tx.ID,
		Amount:               tx.Amount,
		Type:                 tx.Type,
		AccountID:            tx.AccountID,
		OriginAccountID:      tx.OriginAccountID,
		DestinationAccountID: tx.DestinationAccountID,
		CategoryID:           tx.CategoryID,
		SubscriptionID:       tx.SubscriptionID,
		Description:          tx.Description,
		Date:                 tx.Date,
		IsRecurring:          tx.IsRecurring,
		IsVerified:           tx.IsVerified,
		CreatedAt:            tx.CreatedAt,
		UpdatedAt:            tx.UpdatedAt,
	}
}

func toResponseList(txs []*ledger.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
