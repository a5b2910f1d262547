package claims

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/revcycle/revcycle/internal/platform/audit"
	"github.com/revcycle/revcycle/internal/platform/db"
)

type Service struct {
	db    db.Beginner
	repo  Repository
	audit *audit.Logger
	log   zerolog.Logger
	retry db.RetryOptions
}

func NewService(b db.Beginner, repo Repository, auditLog *audit.Logger, log zerolog.Logger, retry db.RetryOptions) *Service {
	return &Service{db: b, repo: repo, audit: auditLog, log: log, retry: retry}
}

// BulkStatusUpdate carries the new status applied to each claim in a batch.
type BulkStatusUpdate struct {
	Status string
	Notes  *string
	UserID string
}

// BulkStatusResult summarizes a batch: every id is either successful or in
// FailedIDs, so Successful+Failed == Total.
type BulkStatusResult struct {
	Total      int         `json:"total"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	FailedIDs  []uuid.UUID `json:"failed_ids,omitempty"`
}

// BulkUpdateStatus updates the status of every claim in ids inside one
// transaction. Each item runs under its own savepoint: an id that matches no
// claim rolls back to the savepoint and is recorded as failed without
// aborting the batch. Infrastructure errors abort the whole transaction;
// transient ones are retried from scratch by the coordinator.
func (s *Service) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, upd BulkStatusUpdate) (*BulkStatusResult, error) {
	if len(ids) == 0 {
		return nil, db.NewError(db.KindValidation, "empty_batch", "no claim ids provided")
	}
	if !ValidStatus(upd.Status) {
		return nil, db.NewError(db.KindValidation, "invalid_status", fmt.Sprintf("invalid claim status: %s", upd.Status))
	}

	res := &BulkStatusResult{Total: len(ids)}
	err := db.RunInTransaction(ctx, s.log, s.db, s.retry, func(ctx context.Context, h db.Handle) error {
		// A retried attempt starts over; reset the tallies.
		res.Successful, res.Failed, res.FailedIDs = 0, 0, nil

		for i, id := range ids {
			sp := fmt.Sprintf("bulk_%d", i)
			if err := h.Savepoint(ctx, sp); err != nil {
				return err
			}

			affected, err := s.repo.UpdateStatus(ctx, h, id, upd.Status, upd.Notes)
			if err != nil {
				// Anything beyond "row not found" is an infrastructure
				// failure; savepoints only isolate expected per-item misses.
				return err
			}
			if affected == 0 {
				if err := h.RollbackTo(ctx, sp); err != nil {
					return err
				}
				res.Failed++
				res.FailedIDs = append(res.FailedIDs, id)
				s.log.Warn().Str("claim_id", id.String()).Msg("bulk status update: claim not found")
				continue
			}

			if err := s.audit.Append(ctx, h, &audit.Entry{
				TableName: "claims",
				RecordID:  id.String(),
				Action:    audit.ActionUpdate,
				NewValues: map[string]any{"status": upd.Status, "notes": upd.Notes},
				UserID:    upd.UserID,
			}); err != nil {
				return err
			}
			res.Successful++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("total", res.Total).
		Int("successful", res.Successful).
		Int("failed", res.Failed).
		Msg("bulk claim status update committed")
	return res, nil
}
