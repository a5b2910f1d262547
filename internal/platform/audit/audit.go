// Package audit writes audit log entries inside the caller's transaction.
// An entry commits or rolls back together with the mutation it describes;
// its existence is the proof of a committed change.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/revcycle/revcycle/internal/platform/db"
)

// Actions recorded in the audit log.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
)

// Entry is a single audit log row: what changed, in which table, by whom,
// with before/after snapshots.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	TableName string    `json:"table_name"`
	RecordID  string    `json:"record_id"`
	Action    string    `json:"action"`
	OldValues any       `json:"old_values,omitempty"`
	NewValues any       `json:"new_values,omitempty"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Logger appends audit entries on a caller-supplied transaction handle.
type Logger struct {
	log zerolog.Logger
}

func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log}
}

// Append inserts the entry using q, which must be the handle of the
// transaction performing the audited mutation. Append failures propagate:
// an unauditable mutation must not commit.
func (l *Logger) Append(ctx context.Context, q db.Queryer, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	oldJSON, err := marshalSnapshot(e.OldValues)
	if err != nil {
		return fmt.Errorf("marshal old values: %w", err)
	}
	newJSON, err := marshalSnapshot(e.NewValues)
	if err != nil {
		return fmt.Errorf("marshal new values: %w", err)
	}

	// Typed-nil []byte would reach the driver as an empty jsonb value; keep
	// absent snapshots as SQL NULL.
	var oldArg, newArg any
	if oldJSON != nil {
		oldArg = oldJSON
	}
	if newJSON != nil {
		newArg = newJSON
	}

	_, err = q.Exec(ctx, `
		INSERT INTO audit_log (id, table_name, record_id, action, old_values, new_values, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.TableName, e.RecordID, e.Action, oldArg, newArg, e.UserID, e.CreatedAt)
	if err != nil {
		l.log.Error().Err(err).
			Str("table", e.TableName).
			Str("record_id", e.RecordID).
			Str("action", e.Action).
			Msg("audit append failed")
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func marshalSnapshot(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
