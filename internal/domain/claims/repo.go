package claims

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/revcycle/revcycle/internal/platform/db"
)

// Repository is the claims data access contract. Every method takes the
// caller's Queryer so a unit of work runs entirely on its own transaction
// handle.
type Repository interface {
	Create(ctx context.Context, q db.Queryer, c *Claim) error
	Get(ctx context.Context, q db.Queryer, id uuid.UUID) (*Claim, error)
	// GetForUpdate reads the claim under a row lock, serializing concurrent
	// postings against the same claim.
	GetForUpdate(ctx context.Context, q db.Queryer, id uuid.UUID) (*Claim, error)
	// UpdatePayment sets the claim's paid amount and status.
	UpdatePayment(ctx context.Context, q db.Queryer, id uuid.UUID, paid decimal.Decimal, status string) error
	// UpdateStatus updates status and optional notes, returning the number
	// of rows affected (zero means the claim does not exist).
	UpdateStatus(ctx context.Context, q db.Queryer, id uuid.UUID, status string, notes *string) (int64, error)
}
