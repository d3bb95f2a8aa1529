package logsink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresWriter inserts entries into the app_logs table.
type PostgresWriter struct {
	db *sql.DB
}

func NewPostgresWriter(db *sql.DB) *PostgresWriter {
	return &PostgresWriter{db: db}
}

func (w *PostgresWriter) WriteLog(ctx context.Context, e Entry) error {
	var payload []byte

	if e.Context != nil {
		b, err := json.Marshal(e.Context)
		if err != nil {
			return fmt.Errorf("marshaling log context: %w", err)
		}

		payload = b
	}

	query := `
		INSERT INTO app_logs (level, message, context, stack, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
	`

	if _, err := w.db.ExecContext(ctx, query, e.Level, e.Message, payload, e.Stack, e.CreatedAt); err != nil {
		return fmt.Errorf("inserting log entry: %w", err)
	}

	return nil
}
