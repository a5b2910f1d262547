package payments

import (
	"context"

	"github.com/google/uuid"

	"github.com/revcycle/revcycle/internal/platform/db"
)

// Repository is the payments data access contract. Methods take the caller's
// Queryer so every write lands on the caller's transaction handle.
type Repository interface {
	Create(ctx context.Context, q db.Queryer, p *Payment) error
	Get(ctx context.Context, q db.Queryer, id uuid.UUID) (*Payment, error)
	// GetForUpdate reads the payment under a row lock so a reversal cannot
	// race another reversal of the same payment.
	GetForUpdate(ctx context.Context, q db.Queryer, id uuid.UUID) (*Payment, error)
	// MarkReversed flips the payment to reversed, recording who did it.
	MarkReversed(ctx context.Context, q db.Queryer, id uuid.UUID, by string) error
}
