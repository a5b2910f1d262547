package accounts

import (
	"context"

	"github.com/google/uuid"

	"github.com/revcycle/revcycle/internal/platform/db"
)

// Repository is the patient account data access contract.
type Repository interface {
	Get(ctx context.Context, q db.Queryer, patientID uuid.UUID) (*PatientAccount, error)
	// GetForUpdate reads the account under a row lock. Callers transferring
	// between two accounts must take their advisory locks first, in
	// canonical order.
	GetForUpdate(ctx context.Context, q db.Queryer, patientID uuid.UUID) (*PatientAccount, error)
	// UpdateBalances writes the account's total and all four aging buckets.
	UpdateBalances(ctx context.Context, q db.Queryer, a *PatientAccount) error
	CreateTransfer(ctx context.Context, q db.Queryer, t *BalanceTransfer) error
}
