package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PatientAccount maps to the patient_accounts table. TotalBalance always
// equals the sum of the four aging buckets.
type PatientAccount struct {
	PatientID    uuid.UUID       `db:"patient_id" json:"patient_id"`
	TotalBalance decimal.Decimal `db:"total_balance" json:"total_balance"`
	Aging0to30   decimal.Decimal `db:"aging_0_30" json:"aging_0_30"`
	Aging31to60  decimal.Decimal `db:"aging_31_60" json:"aging_31_60"`
	Aging61to90  decimal.Decimal `db:"aging_61_90" json:"aging_61_90"`
	Aging91Plus  decimal.Decimal `db:"aging_91_plus" json:"aging_91_plus"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// BalanceTransfer maps to the balance_transfers table and records a
// completed transfer between two patient accounts.
type BalanceTransfer struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	FromPatientID uuid.UUID       `db:"from_patient_id" json:"from_patient_id"`
	ToPatientID   uuid.UUID       `db:"to_patient_id" json:"to_patient_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Reason        string          `db:"reason" json:"reason"`
	InitiatedBy   string          `db:"initiated_by" json:"initiated_by"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
