package claims

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/revcycle/revcycle/internal/platform/db"
)

type repoPG struct{}

func NewRepoPG() Repository { return &repoPG{} }

const claimCols = `id, patient_id, total_amount, paid_amount, status, notes, created_at, updated_at`

func scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	err := row.Scan(&c.ID, &c.PatientID, &c.TotalAmount, &c.PaidAmount,
		&c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.NewError(db.KindNotFound, "claim_not_found", "claim not found")
		}
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) Create(ctx context.Context, q db.Queryer, c *Claim) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = StatusOpen
	}
	_, err := q.Exec(ctx, `
		INSERT INTO claims (id, patient_id, total_amount, paid_amount, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.PatientID, c.TotalAmount, c.PaidAmount, c.Status, c.Notes)
	return err
}

func (r *repoPG) Get(ctx context.Context, q db.Queryer, id uuid.UUID) (*Claim, error) {
	return scanClaim(q.QueryRow(ctx, `SELECT `+claimCols+` FROM claims WHERE id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, q db.Queryer, id uuid.UUID) (*Claim, error) {
	return scanClaim(q.QueryRow(ctx, `SELECT `+claimCols+` FROM claims WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) UpdatePayment(ctx context.Context, q db.Queryer, id uuid.UUID, paid decimal.Decimal, status string) error {
	_, err := q.Exec(ctx, `
		UPDATE claims SET paid_amount = $2, status = $3, updated_at = NOW()
		WHERE id = $1`,
		id, paid, status)
	return err
}

func (r *repoPG) UpdateStatus(ctx context.Context, q db.Queryer, id uuid.UUID, status string, notes *string) (int64, error) {
	tag, err := q.Exec(ctx, `
		UPDATE claims SET status = $2, notes = COALESCE($3, notes), updated_at = NOW()
		WHERE id = $1`,
		id, status, notes)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
