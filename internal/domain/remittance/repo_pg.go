package remittance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/revcycle/revcycle/internal/platform/db"
)

type repoPG struct{}

func NewRepoPG() Repository { return &repoPG{} }

func (r *repoPG) CreateFile(ctx context.Context, q db.Queryer, f *ERAFile) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	_, err := q.Exec(ctx, `
		INSERT INTO era_files (id, file_name, payer_name, check_number, line_count, auto_posted, processed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.FileName, f.PayerName, f.CheckNumber, f.LineCount, f.AutoPosted, f.ProcessedBy)
	return err
}

func (r *repoPG) GetFile(ctx context.Context, q db.Queryer, id uuid.UUID) (*ERAFile, error) {
	var f ERAFile
	err := q.QueryRow(ctx, `
		SELECT id, file_name, payer_name, check_number, line_count, auto_posted, processed_by, created_at
		FROM era_files WHERE id = $1`, id).
		Scan(&f.ID, &f.FileName, &f.PayerName, &f.CheckNumber, &f.LineCount,
			&f.AutoPosted, &f.ProcessedBy, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.NewError(db.KindNotFound, "era_file_not_found", "era file not found")
		}
		return nil, err
	}
	return &f, nil
}
