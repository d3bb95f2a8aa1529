package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/chdeimos/moneyo/internal/ledger"
)

// ExecutionMessage announces one committed recurring occurrence.
type ExecutionMessage struct {
	SubscriptionID    uuid.UUID `json:"subscriptionId"`
	TransactionID     uuid.UUID `json:"transactionId"`
	Amount            string    `json:"amount"`
	Type              string    `json:"type"`
	Date              string    `json:"date"`
	NextExecutionDate string    `json:"nextExecutionDate"`
	Remaining         *int      `json:"remaining,omitempty"`
	Paused            bool      `json:"paused"`
	Timestamp         time.Time `json:"timestamp"`
}

func NewExecutionMessage(e ledger.Execution, now time.Time) *ExecutionMessage {
	return &ExecutionMessage{
		SubscriptionID:    e.SubscriptionID,
		TransactionID:     e.TransactionID,
		Amount:            e.Amount,
		Type:              string(e.Type),
		Date:              e.Date.Format(time.DateOnly),
		NextExecutionDate: e.NextExecutionDate.Format(time.DateOnly),
		Remaining:         e.Remaining,
		Paused:            e.Paused,
		Timestamp:         now,
	}
}

func (m *ExecutionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExecutionMessageFromJSON(data []byte) (*ExecutionMessage, error) {
	var msg ExecutionMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}

	return &msg, nil
}
