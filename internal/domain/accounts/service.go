package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/revcycle/revcycle/internal/platform/audit"
	"github.com/revcycle/revcycle/internal/platform/db"
)

type Service struct {
	db          db.Beginner
	repo        Repository
	audit       *audit.Logger
	log         zerolog.Logger
	retry       db.RetryOptions
	lockTimeout time.Duration
}

func NewService(b db.Beginner, repo Repository, auditLog *audit.Logger, log zerolog.Logger, retry db.RetryOptions, lockTimeout time.Duration) *Service {
	return &Service{db: b, repo: repo, audit: auditLog, log: log, retry: retry, lockTimeout: lockTimeout}
}

// TransferInput describes a balance transfer between two patient accounts.
type TransferInput struct {
	FromPatientID uuid.UUID
	ToPatientID   uuid.UUID
	Amount        decimal.Decimal
	Reason        string
	UserID        string
}

// TransferResult reports the completed transfer and both resulting balances.
type TransferResult struct {
	TransferID  uuid.UUID       `json:"transfer_id"`
	FromBalance decimal.Decimal `json:"from_balance"`
	ToBalance   decimal.Decimal `json:"to_balance"`
}

func lockKey(patientID uuid.UUID) string {
	return "patient_account:" + patientID.String()
}

// TransferBalance moves amount from one patient account to another in a
// single retried transaction. Both accounts are locked through transaction
// scoped advisory locks taken in canonical (ascending key) order, so two
// opposing transfers cannot deadlock. The amount drains the source's aging
// buckets oldest first and lands in the destination's current bucket.
func (s *Service) TransferBalance(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if !in.Amount.IsPositive() {
		return nil, db.NewError(db.KindValidation, "invalid_amount", "transfer amount must be positive")
	}
	if in.FromPatientID == in.ToPatientID {
		return nil, db.NewError(db.KindValidation, "same_account", "cannot transfer to the same account")
	}

	var res *TransferResult
	err := db.RunInTransaction(ctx, s.log, s.db, s.retry, func(ctx context.Context, h db.Handle) error {
		first, second := lockKey(in.FromPatientID), lockKey(in.ToPatientID)
		if second < first {
			first, second = second, first
		}
		for _, key := range []string{first, second} {
			if err := h.AcquireLock(ctx, key, s.lockTimeout); err != nil {
				return fmt.Errorf("failed to acquire locks for balance transfer: %w", err)
			}
		}

		from, err := s.repo.GetForUpdate(ctx, h, in.FromPatientID)
		if err != nil {
			return err
		}
		to, err := s.repo.GetForUpdate(ctx, h, in.ToPatientID)
		if err != nil {
			return err
		}

		if from.TotalBalance.LessThan(in.Amount) {
			return db.NewError(db.KindValidation, "insufficient_balance", "insufficient balance")
		}

		oldFrom, oldTo := *from, *to
		drainOldestFirst(from, in.Amount)
		to.Aging0to30 = to.Aging0to30.Add(in.Amount)
		to.TotalBalance = to.TotalBalance.Add(in.Amount)

		if err := s.repo.UpdateBalances(ctx, h, from); err != nil {
			return err
		}
		if err := s.repo.UpdateBalances(ctx, h, to); err != nil {
			return err
		}

		transfer := &BalanceTransfer{
			FromPatientID: in.FromPatientID,
			ToPatientID:   in.ToPatientID,
			Amount:        in.Amount,
			Reason:        in.Reason,
			InitiatedBy:   in.UserID,
		}
		if err := s.repo.CreateTransfer(ctx, h, transfer); err != nil {
			return err
		}

		for _, pair := range []struct {
			old, new *PatientAccount
		}{{&oldFrom, from}, {&oldTo, to}} {
			if err := s.audit.Append(ctx, h, &audit.Entry{
				TableName: "patient_accounts",
				RecordID:  pair.new.PatientID.String(),
				Action:    audit.ActionUpdate,
				OldValues: pair.old,
				NewValues: pair.new,
				UserID:    in.UserID,
			}); err != nil {
				return err
			}
		}

		res = &TransferResult{
			TransferID:  transfer.ID,
			FromBalance: from.TotalBalance,
			ToBalance:   to.TotalBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("transfer_id", res.TransferID.String()).
		Str("from", in.FromPatientID.String()).
		Str("to", in.ToPatientID.String()).
		Str("amount", in.Amount.String()).
		Msg("balance transferred")
	return res, nil
}

// drainOldestFirst subtracts amount from a's aging buckets starting with the
// oldest, then recomputes the total. The caller has already checked that the
// total covers the amount.
func drainOldestFirst(a *PatientAccount, amount decimal.Decimal) {
	remaining := amount
	for _, bucket := range []*decimal.Decimal{&a.Aging91Plus, &a.Aging61to90, &a.Aging31to60, &a.Aging0to30} {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(*bucket, remaining)
		*bucket = bucket.Sub(take)
		remaining = remaining.Sub(take)
	}
	a.TotalBalance = a.Aging0to30.Add(a.Aging31to60).Add(a.Aging61to90).Add(a.Aging91Plus)
}
