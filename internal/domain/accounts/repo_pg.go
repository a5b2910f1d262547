package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revcycle/revcycle/internal/platform/db"
)

type repoPG struct{}

func NewRepoPG() Repository { return &repoPG{} }

const accountCols = `patient_id, total_balance, aging_0_30, aging_31_60, aging_61_90, aging_91_plus, updated_at`

func scanAccount(row pgx.Row) (*PatientAccount, error) {
	var a PatientAccount
	err := row.Scan(&a.PatientID, &a.TotalBalance, &a.Aging0to30,
		&a.Aging31to60, &a.Aging61to90, &a.Aging91Plus, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.NewError(db.KindNotFound, "account_not_found", "patient account not found")
		}
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Get(ctx context.Context, q db.Queryer, patientID uuid.UUID) (*PatientAccount, error) {
	return scanAccount(q.QueryRow(ctx,
		`SELECT `+accountCols+` FROM patient_accounts WHERE patient_id = $1`, patientID))
}

func (r *repoPG) GetForUpdate(ctx context.Context, q db.Queryer, patientID uuid.UUID) (*PatientAccount, error) {
	return scanAccount(q.QueryRow(ctx,
		`SELECT `+accountCols+` FROM patient_accounts WHERE patient_id = $1 FOR UPDATE`, patientID))
}

func (r *repoPG) UpdateBalances(ctx context.Context, q db.Queryer, a *PatientAccount) error {
	_, err := q.Exec(ctx, `
		UPDATE patient_accounts
		SET total_balance = $2, aging_0_30 = $3, aging_31_60 = $4,
		    aging_61_90 = $5, aging_91_plus = $6, updated_at = NOW()
		WHERE patient_id = $1`,
		a.PatientID, a.TotalBalance, a.Aging0to30, a.Aging31to60, a.Aging61to90, a.Aging91Plus)
	return err
}

func (r *repoPG) CreateTransfer(ctx context.Context, q db.Queryer, t *BalanceTransfer) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := q.Exec(ctx, `
		INSERT INTO balance_transfers (id, from_patient_id, to_patient_id, amount, reason, initiated_by)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.FromPatientID, t.ToPatientID, t.Amount, t.Reason, t.InitiatedBy)
	return err
}
