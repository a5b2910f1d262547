package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revcycle/revcycle/internal/platform/db"
)

type repoPG struct{}

func NewRepoPG() Repository { return &repoPG{} }

const paymentCols = `id, claim_id, patient_id, amount, method, status, posted_by, posted_at, reversed_by, reversed_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.ClaimID, &p.PatientID, &p.Amount, &p.Method,
		&p.Status, &p.PostedBy, &p.PostedAt, &p.ReversedBy, &p.ReversedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.NewError(db.KindNotFound, "payment_not_found", "payment not found")
		}
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, q db.Queryer, p *Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = StatusPosted
	}
	_, err := q.Exec(ctx, `
		INSERT INTO payments (id, claim_id, patient_id, amount, method, status, posted_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.ClaimID, p.PatientID, p.Amount, p.Method, p.Status, p.PostedBy)
	return err
}

func (r *repoPG) Get(ctx context.Context, q db.Queryer, id uuid.UUID) (*Payment, error) {
	return scanPayment(q.QueryRow(ctx, `SELECT `+paymentCols+` FROM payments WHERE id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, q db.Queryer, id uuid.UUID) (*Payment, error) {
	return scanPayment(q.QueryRow(ctx, `SELECT `+paymentCols+` FROM payments WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) MarkReversed(ctx context.Context, q db.Queryer, id uuid.UUID, by string) error {
	_, err := q.Exec(ctx, `
		UPDATE payments SET status = $2, reversed_by = $3, reversed_at = NOW()
		WHERE id = $1`,
		id, StatusReversed, by)
	return err
}
