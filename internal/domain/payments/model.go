package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment statuses. A posted payment counts toward the claim's paid amount;
// reversing it backs the amount out again.
const (
	StatusPosted   = "posted"
	StatusReversed = "reversed"
)

// Payment methods accepted on posting.
const (
	MethodCheck      = "check"
	MethodEFT        = "eft"
	MethodCreditCard = "credit-card"
	MethodCash       = "cash"
)

var validMethods = map[string]bool{
	MethodCheck: true, MethodEFT: true, MethodCreditCard: true, MethodCash: true,
}

// ValidMethod reports whether m is a recognized payment method.
func ValidMethod(m string) bool { return validMethods[m] }

// Payment maps to the payments table.
type Payment struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	ClaimID    uuid.UUID       `db:"claim_id" json:"claim_id"`
	PatientID  uuid.UUID       `db:"patient_id" json:"patient_id"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Method     string          `db:"method" json:"method"`
	Status     string          `db:"status" json:"status"`
	PostedBy   string          `db:"posted_by" json:"posted_by"`
	PostedAt   time.Time       `db:"posted_at" json:"posted_at"`
	ReversedBy *string         `db:"reversed_by" json:"reversed_by,omitempty"`
	ReversedAt *time.Time      `db:"reversed_at" json:"reversed_at,omitempty"`
}
