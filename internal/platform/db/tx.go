package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queryer is the statement-execution subset shared by the connection pool
// and an open transaction handle. Repositories take a Queryer argument so a
// unit of work can pass its handle explicitly instead of stashing the
// transaction in a process-wide registry.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Handle is an open transaction bound to exactly one pooled connection.
// Release is idempotent and always returns the connection, regardless of how
// the transaction ended; a failed Rollback never prevents Release.
type Handle interface {
	Queryer
	Savepoint(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
	AcquireLock(ctx context.Context, key string, timeout time.Duration) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Release()
}

// Beginner opens transaction handles. *Manager is the pgx-backed
// implementation; tests substitute fakes.
type Beginner interface {
	Begin(ctx context.Context) (Handle, error)
}

// Manager acquires pooled connections and hands out transaction handles.
type Manager struct {
	pool *pgxpool.Pool
}

func NewManager(pool *pgxpool.Pool) *Manager {
	return &Manager{pool: pool}
}

// Begin acquires a connection from the pool and starts a transaction on it.
// Pool exhaustion fails fast with a connection-kind error and never opens a
// transaction.
func (m *Manager) Begin(ctx context.Context) (Handle, error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, WrapError(KindConnection, "pool_acquire", err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		conn.Release()
		return nil, classified(fmt.Errorf("begin transaction: %w", err))
	}

	return &txHandle{conn: conn, tx: tx}, nil
}

type txHandle struct {
	conn    *pgxpool.Conn
	tx      pgx.Tx
	release sync.Once
}

var savepointName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func (h *txHandle) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tag, err := h.tx.Exec(ctx, sql, args...)
	return tag, classified(err)
}

func (h *txHandle) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	rows, err := h.tx.Query(ctx, sql, args...)
	return rows, classified(err)
}

func (h *txHandle) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return h.tx.QueryRow(ctx, sql, args...)
}

// Savepoint creates a named savepoint. Names are restricted to identifier
// characters because savepoint names cannot be bound as parameters.
func (h *txHandle) Savepoint(ctx context.Context, name string) error {
	if !savepointName.MatchString(name) {
		return NewError(KindInternal, "bad_savepoint", fmt.Sprintf("invalid savepoint name %q", name))
	}
	_, err := h.tx.Exec(ctx, "SAVEPOINT "+name)
	return classified(err)
}

// RollbackTo rolls back to a named savepoint without aborting the
// enclosing transaction.
func (h *txHandle) RollbackTo(ctx context.Context, name string) error {
	if !savepointName.MatchString(name) {
		return NewError(KindInternal, "bad_savepoint", fmt.Sprintf("invalid savepoint name %q", name))
	}
	_, err := h.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+name)
	return classified(err)
}

// AcquireLock takes a transaction-scoped advisory lock on key, waiting at
// most timeout. The lock releases automatically at commit or rollback.
// Exceeding the wait surfaces as SQLSTATE 55P03, which classifies transient
// so the retry coordinator restarts the whole transaction.
func (h *txHandle) AcquireLock(ctx context.Context, key string, timeout time.Duration) error {
	ms := timeout.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	// lock_timeout only accepts a literal; SET LOCAL scopes it to this
	// transaction.
	if _, err := h.tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms)); err != nil {
		return classified(fmt.Errorf("set lock_timeout: %w", err))
	}
	if _, err := h.tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key); err != nil {
		return WrapError(Classify(err), "acquire_lock", fmt.Errorf("acquire lock %q: %w", key, err))
	}
	return nil
}

func (h *txHandle) Commit(ctx context.Context) error {
	return classified(h.tx.Commit(ctx))
}

// Rollback aborts the transaction. Rolling back a transaction that already
// finished (e.g. after a failed Commit) is not an error.
func (h *txHandle) Rollback(ctx context.Context) error {
	err := h.tx.Rollback(ctx)
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return classified(err)
}

func (h *txHandle) Release() {
	h.release.Do(func() {
		h.conn.Release()
	})
}
