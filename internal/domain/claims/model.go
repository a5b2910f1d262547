package claims

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Claim statuses. A claim is fully paid only when its paid amount reaches
// the total amount; posting and reversal maintain the open/paid transition.
const (
	StatusOpen        = "open"
	StatusSubmitted   = "submitted"
	StatusPaid        = "paid"
	StatusDenied      = "denied"
	StatusUnderAppeal = "under-appeal"
	StatusWrittenOff  = "written-off"
)

var validStatuses = map[string]bool{
	StatusOpen: true, StatusSubmitted: true, StatusPaid: true,
	StatusDenied: true, StatusUnderAppeal: true, StatusWrittenOff: true,
}

// ValidStatus reports whether s is a recognized claim status.
func ValidStatus(s string) bool { return validStatuses[s] }

// Claim maps to the claims table. Invariant after every committed
// transaction: PaidAmount <= TotalAmount.
type Claim struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	PatientID   uuid.UUID       `db:"patient_id" json:"patient_id"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaidAmount  decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	Status      string          `db:"status" json:"status"`
	Notes       *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// RemainingBalance is the outstanding amount on the claim.
func (c *Claim) RemainingBalance() decimal.Decimal {
	return c.TotalAmount.Sub(c.PaidAmount)
}
