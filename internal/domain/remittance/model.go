package remittance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ERAFile maps to the era_files table and records one processed
// electronic remittance advice file.
type ERAFile struct {
	ID          uuid.UUID `db:"id" json:"id"`
	FileName    string    `db:"file_name" json:"file_name"`
	PayerName   string    `db:"payer_name" json:"payer_name"`
	CheckNumber string    `db:"check_number" json:"check_number"`
	LineCount   int       `db:"line_count" json:"line_count"`
	AutoPosted  bool      `db:"auto_posted" json:"auto_posted"`
	ProcessedBy string    `db:"processed_by" json:"processed_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// LineItem is one remittance line: the payer's adjudication of a single
// claim.
type LineItem struct {
	ClaimID     uuid.UUID       `json:"claim_id"`
	PatientID   uuid.UUID       `json:"patient_id"`
	Date        time.Time       `json:"date"`
	Allowed     decimal.Decimal `json:"allowed"`
	Paid        decimal.Decimal `json:"paid"`
	Adjustment  decimal.Decimal `json:"adjustment"`
	ReasonCodes []string        `json:"reason_codes,omitempty"`
	CheckNumber string          `json:"check_number"`
	PayerName   string          `json:"payer_name"`
}
