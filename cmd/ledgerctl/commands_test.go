package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/chdeimos/moneyo/internal/ledger"
)

func TestPrintPlan(t *testing.T) {
	remaining := 2
	sub := &ledger.Subscription{
		ID:                 uuid.New(),
		Description:        "Gym",
		Amount:             decimal.RequireFromString("30.00"),
		Type:               ledger.TypeExpense,
		RecurrencePeriod:   ledger.PeriodWeekly,
		RecurrenceInterval: &remaining,
		NextExecutionDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	dates, after := ledger.Plan(*sub, ledger.EndOfDay(now, time.UTC), now, ledger.DefaultMaxCatchUp)

	var buf bytes.Buffer
	printPlan(&buf, sub, dates, after)

	assert.Equal(t, `Gym (EXPENSE 30)
  2025-06-01
  2025-06-08
next execution: 2025-06-15
remaining runs: 0
paused
`, buf.String())
}

func TestPrintDrifts(t *testing.T) {
	var buf bytes.Buffer
	printDrifts(&buf, []ledger.Drift{{
		Name:     "Checking",
		Cached:   decimal.NewFromInt(105),
		Expected: decimal.NewFromInt(100),
	}})

	assert.Contains(t, buf.String(), "Checking")
	assert.Contains(t, buf.String(), "5.00")
}
