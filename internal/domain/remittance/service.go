package remittance

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/revcycle/revcycle/internal/domain/payments"
	"github.com/revcycle/revcycle/internal/platform/audit"
	"github.com/revcycle/revcycle/internal/platform/db"
)

// Poster posts a payment on a caller-owned transaction handle. Satisfied by
// *payments.Service.
type Poster interface {
	PostPaymentIn(ctx context.Context, h db.Handle, in payments.PostPaymentInput) (*payments.PostPaymentResult, error)
}

type Service struct {
	db     db.Beginner
	repo   Repository
	poster Poster
	audit  *audit.Logger
	log    zerolog.Logger
	retry  db.RetryOptions
}

func NewService(b db.Beginner, repo Repository, poster Poster, auditLog *audit.Logger, log zerolog.Logger, retry db.RetryOptions) *Service {
	return &Service{db: b, repo: repo, poster: poster, audit: auditLog, log: log, retry: retry}
}

// ProcessInput is one uploaded remittance file.
type ProcessInput struct {
	Data     []byte
	FileName string
	AutoPost bool
	UserID   string
}

// ProcessResult summarizes a processed file. SkippedCount counts zero-paid
// lines that auto-posting passed over (denials and zero allowances); they
// are recorded in the file's line count but post nothing.
type ProcessResult struct {
	FileID       uuid.UUID       `json:"file_id"`
	FileName     string          `json:"file_name"`
	LineCount    int             `json:"line_count"`
	PostedCount  int             `json:"posted_count"`
	SkippedCount int             `json:"skipped_count"`
	TotalPosted  decimal.Decimal `json:"total_posted"`
}

// ProcessFile parses a remittance file and records it. Parsing happens
// before any transaction opens; a malformed file never touches the
// database. With AutoPost set, every line's payment posts inside the same
// transaction as the file record, so one bad line rolls the whole file
// back.
func (s *Service) ProcessFile(ctx context.Context, in ProcessInput) (*ProcessResult, error) {
	items, err := Parse(bytes.NewReader(in.Data))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, db.NewError(db.KindValidation, "empty_file", "remittance file has no lines")
	}
	// One file, one check: the file record stores a single payer and check
	// number, so every line must agree.
	for i, item := range items[1:] {
		if item.PayerName != items[0].PayerName || item.CheckNumber != items[0].CheckNumber {
			return nil, db.NewError(db.KindValidation, "mixed_file",
				fmt.Sprintf("line item %d: payer/check %s/%s does not match the file's %s/%s",
					i+2, item.PayerName, item.CheckNumber, items[0].PayerName, items[0].CheckNumber))
		}
	}

	file := &ERAFile{
		FileName:    in.FileName,
		PayerName:   items[0].PayerName,
		CheckNumber: items[0].CheckNumber,
		LineCount:   len(items),
		AutoPosted:  in.AutoPost,
		ProcessedBy: in.UserID,
	}

	res := &ProcessResult{FileName: in.FileName, LineCount: len(items), TotalPosted: decimal.Zero}
	err = db.RunInTransaction(ctx, s.log, s.db, s.retry, func(ctx context.Context, h db.Handle) error {
		res.PostedCount, res.SkippedCount, res.TotalPosted = 0, 0, decimal.Zero

		if err := s.repo.CreateFile(ctx, h, file); err != nil {
			return err
		}
		if err := s.audit.Append(ctx, h, &audit.Entry{
			TableName: "era_files",
			RecordID:  file.ID.String(),
			Action:    audit.ActionCreate,
			NewValues: file,
			UserID:    in.UserID,
		}); err != nil {
			return err
		}

		if !in.AutoPost {
			return nil
		}
		for _, item := range items {
			if item.Paid.IsZero() {
				res.SkippedCount++
				continue
			}
			if _, err := s.poster.PostPaymentIn(ctx, h, payments.PostPaymentInput{
				ClaimID: item.ClaimID,
				Amount:  item.Paid,
				Method:  payments.MethodCheck,
				UserID:  in.UserID,
			}); err != nil {
				return err
			}
			res.PostedCount++
			res.TotalPosted = res.TotalPosted.Add(item.Paid)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.FileID = file.ID
	s.log.Info().
		Str("file_id", file.ID.String()).
		Str("file_name", in.FileName).
		Int("lines", res.LineCount).
		Int("posted", res.PostedCount).
		Msg("remittance file processed")
	return res, nil
}
