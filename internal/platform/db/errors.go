package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Kind is the closed error classification the transaction coordinator acts
// on. Driver-specific SQLSTATEs are translated into a Kind exactly once, at
// this adapter boundary; retry and rollback logic depends only on the Kind.
type Kind int

const (
	KindInternal Kind = iota
	KindTransient
	KindValidation
	KindIntegrity
	KindNotFound
	KindConnection
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindValidation:
		return "validation"
	case KindIntegrity:
		return "integrity"
	case KindNotFound:
		return "not_found"
	case KindConnection:
		return "connection"
	default:
		return "internal"
	}
}

// Error is a classified error. Code is a stable machine-readable identifier
// surfaced in result envelopes; Msg is the user-facing reason.
type Error struct {
	Kind Kind
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg != "" {
		return e.Msg + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a classified error with a user-facing message.
func NewError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// WrapError classifies an underlying error under a stable code.
func WrapError(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

// Classify returns the Kind of err. Already-classified errors keep their
// Kind; pgconn errors are mapped by SQLSTATE; pgx.ErrNoRows maps to
// KindNotFound; anything else is internal.
func Classify(err error) Kind {
	if err == nil {
		return KindInternal
	}

	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return KindNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return KindTransient
		case "55P03": // lock_not_available (lock_timeout expired)
			return KindTransient
		}
		switch {
		case strings.HasPrefix(pgErr.Code, "23"):
			return KindIntegrity
		case strings.HasPrefix(pgErr.Code, "08"):
			return KindConnection
		}
		return KindInternal
	}

	return KindInternal
}

// classified wraps a raw driver error with its Kind unless it already
// carries one. Repositories and the transaction handle call it on every
// error path so callers above the adapter never see a bare SQLSTATE.
func classified(err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Kind: Classify(err), Err: err}
}

// CodeOf returns the stable code of a classified error, or "" if none.
func CodeOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func IsTransient(err error) bool  { return Classify(err) == KindTransient }
func IsValidation(err error) bool { return Classify(err) == KindValidation }
func IsNotFound(err error) bool {
	return Classify(err) == KindNotFound || errors.Is(err, pgx.ErrNoRows)
}
func IsIntegrity(err error) bool  { return Classify(err) == KindIntegrity }
func IsConnection(err error) bool { return Classify(err) == KindConnection }
