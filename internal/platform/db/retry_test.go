package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// -- Fakes --

type fakeHandle struct {
	commitErr   error
	rollbackErr error

	commits     int
	rollbacks   int
	releases    int
	savepoints  []string
	rollbackTos []string
	locks       []string
}

func (f *fakeHandle) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeHandle) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, nil
}

func (f *fakeHandle) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row { return nil }

func (f *fakeHandle) Savepoint(_ context.Context, name string) error {
	f.savepoints = append(f.savepoints, name)
	return nil
}

func (f *fakeHandle) RollbackTo(_ context.Context, name string) error {
	f.rollbackTos = append(f.rollbackTos, name)
	return nil
}

func (f *fakeHandle) AcquireLock(_ context.Context, key string, _ time.Duration) error {
	f.locks = append(f.locks, key)
	return nil
}

func (f *fakeHandle) Commit(_ context.Context) error {
	f.commits++
	return f.commitErr
}

func (f *fakeHandle) Rollback(_ context.Context) error {
	f.rollbacks++
	return f.rollbackErr
}

func (f *fakeHandle) Release() { f.releases++ }

type fakeBeginner struct {
	handles  []*fakeHandle
	beginErr error
	begun    int
}

func (b *fakeBeginner) Begin(_ context.Context) (Handle, error) {
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	if b.begun >= len(b.handles) {
		b.handles = append(b.handles, &fakeHandle{})
	}
	h := b.handles[b.begun]
	b.begun++
	return h, nil
}

func fastOpts() RetryOptions {
	return RetryOptions{MaxAttempts: 3, Backoff: []time.Duration{time.Millisecond, time.Millisecond}}
}

var deadlock = &pgconn.PgError{Code: "40P01"}

// -- Tests --

func TestRunInTransaction_CommitsOnSuccess(t *testing.T) {
	b := &fakeBeginner{}
	err := RunInTransaction(context.Background(), zerolog.Nop(), b, fastOpts(), func(_ context.Context, _ Handle) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := b.handles[0]
	if h.commits != 1 || h.rollbacks != 0 || h.releases != 1 {
		t.Errorf("commits=%d rollbacks=%d releases=%d, want 1/0/1", h.commits, h.rollbacks, h.releases)
	}
}

func TestRunInTransaction_RetriesTransientOnFreshHandle(t *testing.T) {
	b := &fakeBeginner{}
	calls := 0
	err := RunInTransaction(context.Background(), zerolog.Nop(), b, fastOpts(), func(_ context.Context, _ Handle) error {
		calls++
		if calls == 1 {
			return deadlock
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("unit of work ran %d times, want 2", calls)
	}
	if b.begun != 2 {
		t.Fatalf("begun %d transactions, want a fresh one per attempt", b.begun)
	}

	first, second := b.handles[0], b.handles[1]
	if first.rollbacks != 1 || first.releases != 1 || first.commits != 0 {
		t.Errorf("first attempt: rollbacks=%d releases=%d commits=%d, want 1/1/0",
			first.rollbacks, first.releases, first.commits)
	}
	if second.commits != 1 || second.releases != 1 {
		t.Errorf("second attempt: commits=%d releases=%d, want 1/1", second.commits, second.releases)
	}
}

func TestRunInTransaction_ExhaustedRetries(t *testing.T) {
	b := &fakeBeginner{}
	err := RunInTransaction(context.Background(), zerolog.Nop(), b, fastOpts(), func(_ context.Context, _ Handle) error {
		return deadlock
	})
	if err == nil {
		t.Fatal("expected terminal error")
	}
	if CodeOf(err) != "max_retries_exceeded" {
		t.Errorf("code = %q, want max_retries_exceeded", CodeOf(err))
	}
	if !strings.Contains(err.Error(), "maximum retry attempts exceeded") {
		t.Errorf("message %q missing retry classification", err.Error())
	}
	if b.begun != 3 {
		t.Errorf("begun = %d, want 3 attempts", b.begun)
	}
	for i, h := range b.handles {
		if h.rollbacks != 1 || h.releases != 1 {
			t.Errorf("attempt %d: rollbacks=%d releases=%d, want 1/1", i+1, h.rollbacks, h.releases)
		}
	}
}

func TestRunInTransaction_NonTransientShortCircuits(t *testing.T) {
	b := &fakeBeginner{}
	want := NewError(KindValidation, "overpayment", "payment amount exceeds claim amount")
	err := RunInTransaction(context.Background(), zerolog.Nop(), b, fastOpts(), func(_ context.Context, _ Handle) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("got %v, want the validation error unchanged", err)
	}
	if b.begun != 1 {
		t.Errorf("begun = %d, validation errors must not retry", b.begun)
	}
	h := b.handles[0]
	if h.rollbacks != 1 || h.releases != 1 || h.commits != 0 {
		t.Errorf("rollbacks=%d releases=%d commits=%d, want 1/1/0", h.rollbacks, h.releases, h.commits)
	}
}

func TestRunInTransaction_BeginFailureFailsFast(t *testing.T) {
	want := NewError(KindConnection, "pool_acquire", "connection pool exhausted")
	b := &fakeBeginner{beginErr: want}
	calls := 0
	err := RunInTransaction(context.Background(), zerolog.Nop(), b, fastOpts(), func(_ context.Context, _ Handle) error {
		calls++
		return nil
	})
	if !errors.Is(err, want) {
		t.Fatalf("got %v, want pool error", err)
	}
	if calls != 0 {
		t.Error("unit of work must not run when no transaction was opened")
	}
}

func TestRunInTransaction_TransientCommitErrorRetries(t *testing.T) {
	b := &fakeBeginner{handles: []*fakeHandle{{commitErr: deadlock}, {}}}
	err := RunInTransaction(context.Background(), zerolog.Nop(), b, fastOpts(), func(_ context.Context, _ Handle) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.begun != 2 {
		t.Errorf("begun = %d, want commit failure to trigger a retry", b.begun)
	}
	if b.handles[1].commits != 1 {
		t.Error("second attempt should have committed")
	}
}

func TestRunInTransaction_RollbackFailureDoesNotMaskPrimary(t *testing.T) {
	primary := NewError(KindValidation, "insufficient_balance", "insufficient balance")
	b := &fakeBeginner{handles: []*fakeHandle{{rollbackErr: errors.New("rollback broke")}}}
	err := RunInTransaction(context.Background(), zerolog.Nop(), b, fastOpts(), func(_ context.Context, _ Handle) error {
		return primary
	})
	if !errors.Is(err, primary) {
		t.Fatalf("got %v, want the primary error", err)
	}
	if b.handles[0].releases != 1 {
		t.Error("connection must be released even when rollback fails")
	}
}

func TestRunInTransaction_CanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := &fakeBeginner{}
	opts := RetryOptions{MaxAttempts: 3, Backoff: []time.Duration{time.Minute}}
	errCh := make(chan error, 1)
	go func() {
		errCh <- RunInTransaction(ctx, zerolog.Nop(), b, opts, func(_ context.Context, _ Handle) error {
			return deadlock
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation did not abort the backoff wait")
	}
}

func TestBackoffFor(t *testing.T) {
	opts := RetryOptions{Backoff: []time.Duration{1, 2, 3}}
	for attempt, want := range map[int]time.Duration{1: 1, 2: 2, 3: 3, 4: 3, 9: 3} {
		if got := opts.backoffFor(attempt); got != want {
			t.Errorf("backoffFor(%d) = %v, want %v", attempt, got, want)
		}
	}
	empty := RetryOptions{}
	if got := empty.backoffFor(1); got != 100*time.Millisecond {
		t.Errorf("empty schedule backoff = %v, want 100ms", got)
	}
}
