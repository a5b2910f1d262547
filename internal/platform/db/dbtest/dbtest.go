// Package dbtest provides in-memory stand-ins for the db transaction
// contracts so service tests can run without a database.
package dbtest

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/revcycle/revcycle/internal/platform/db"
)

// ExecCall records a single Exec issued against a handle.
type ExecCall struct {
	SQL  string
	Args []any
}

// Handle implements db.Handle and records everything done to it.
// Individual operations can be made to fail by setting the *Err fields.
type Handle struct {
	Execs       []ExecCall
	Savepoints  []string
	RollbackTos []string
	Locks       []string

	Committed  bool
	RolledBack bool
	Released   bool

	ExecErr     error
	CommitErr   error
	RollbackErr error
	LockErr     error
}

func (h *Handle) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	h.Execs = append(h.Execs, ExecCall{SQL: sql, Args: args})
	if h.ExecErr != nil {
		return pgconn.CommandTag{}, h.ExecErr
	}
	return pgconn.CommandTag{}, nil
}

func (h *Handle) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (h *Handle) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (h *Handle) Savepoint(ctx context.Context, name string) error {
	h.Savepoints = append(h.Savepoints, name)
	return nil
}

func (h *Handle) RollbackTo(ctx context.Context, name string) error {
	h.RollbackTos = append(h.RollbackTos, name)
	return nil
}

func (h *Handle) AcquireLock(ctx context.Context, key string, timeout time.Duration) error {
	if h.LockErr != nil {
		return h.LockErr
	}
	h.Locks = append(h.Locks, key)
	return nil
}

func (h *Handle) Commit(ctx context.Context) error {
	if h.CommitErr != nil {
		return h.CommitErr
	}
	h.Committed = true
	return nil
}

func (h *Handle) Rollback(ctx context.Context) error {
	if h.RollbackErr != nil {
		return h.RollbackErr
	}
	h.RolledBack = true
	return nil
}

func (h *Handle) Release() { h.Released = true }

// Beginner implements db.Beginner, handing out one Handle per Begin call.
// If Handles runs out, fresh zero-value Handles are appended so retry loops
// always get a usable handle.
type Beginner struct {
	Handles  []*Handle
	BeginErr error

	begun int
}

func (b *Beginner) Begin(ctx context.Context) (db.Handle, error) {
	if b.BeginErr != nil {
		return nil, b.BeginErr
	}
	if b.begun >= len(b.Handles) {
		b.Handles = append(b.Handles, &Handle{})
	}
	h := b.Handles[b.begun]
	b.begun++
	return h, nil
}

// Begun reports how many transactions were started.
func (b *Beginner) Begun() int { return b.begun }

// FastRetry returns retry options with no backoff, keeping tests quick.
func FastRetry() db.RetryOptions {
	return db.RetryOptions{MaxAttempts: 3, Backoff: []time.Duration{0}}
}
