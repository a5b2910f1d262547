package remittance

import (
	"context"

	"github.com/google/uuid"

	"github.com/revcycle/revcycle/internal/platform/db"
)

// Repository persists ERA file records on the caller's transaction handle.
type Repository interface {
	CreateFile(ctx context.Context, q db.Queryer, f *ERAFile) error
	GetFile(ctx context.Context, q db.Queryer, id uuid.UUID) (*ERAFile, error)
}
