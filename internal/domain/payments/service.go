package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/revcycle/revcycle/internal/domain/claims"
	"github.com/revcycle/revcycle/internal/platform/audit"
	"github.com/revcycle/revcycle/internal/platform/db"
)

type Service struct {
	db     db.Beginner
	repo   Repository
	claims claims.Repository
	audit  *audit.Logger
	log    zerolog.Logger
	retry  db.RetryOptions
}

func NewService(b db.Beginner, repo Repository, claimsRepo claims.Repository, auditLog *audit.Logger, log zerolog.Logger, retry db.RetryOptions) *Service {
	return &Service{db: b, repo: repo, claims: claimsRepo, audit: auditLog, log: log, retry: retry}
}

// PostPaymentInput describes a payment to apply against a claim.
type PostPaymentInput struct {
	ClaimID uuid.UUID
	Amount  decimal.Decimal
	Method  string
	UserID  string
}

// PostPaymentResult reports the posted payment and the claim balance left
// after it.
type PostPaymentResult struct {
	PaymentID        uuid.UUID       `json:"payment_id"`
	ClaimID          uuid.UUID       `json:"claim_id"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	ClaimStatus      string          `json:"claim_status"`
}

// PostPayment applies a payment to a claim in one retried transaction. The
// claim row is locked first, so concurrent postings against the same claim
// serialize and the paid amount can never exceed the total.
func (s *Service) PostPayment(ctx context.Context, in PostPaymentInput) (*PostPaymentResult, error) {
	if err := validatePosting(in); err != nil {
		return nil, err
	}

	var res *PostPaymentResult
	err := db.RunInTransaction(ctx, s.log, s.db, s.retry, func(ctx context.Context, h db.Handle) error {
		var err error
		res, err = s.PostPaymentIn(ctx, h, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("payment_id", res.PaymentID.String()).
		Str("claim_id", res.ClaimID.String()).
		Str("amount", in.Amount.String()).
		Msg("payment posted")
	return res, nil
}

// PostPaymentIn posts a payment on the caller's transaction handle. It is
// used directly by remittance processing, which posts many payments inside
// a single transaction; PostPayment wraps it for the standalone case.
func (s *Service) PostPaymentIn(ctx context.Context, h db.Handle, in PostPaymentInput) (*PostPaymentResult, error) {
	if err := validatePosting(in); err != nil {
		return nil, err
	}

	claim, err := s.claims.GetForUpdate(ctx, h, in.ClaimID)
	if err != nil {
		return nil, err
	}

	newPaid := claim.PaidAmount.Add(in.Amount)
	if newPaid.GreaterThan(claim.TotalAmount) {
		return nil, db.NewError(db.KindValidation, "overpayment", "payment amount exceeds claim amount")
	}

	p := &Payment{
		ClaimID:   claim.ID,
		PatientID: claim.PatientID,
		Amount:    in.Amount,
		Method:    in.Method,
		PostedBy:  in.UserID,
	}
	if err := s.repo.Create(ctx, h, p); err != nil {
		return nil, err
	}

	newStatus := claim.Status
	if newPaid.Equal(claim.TotalAmount) {
		newStatus = claims.StatusPaid
	}
	if err := s.claims.UpdatePayment(ctx, h, claim.ID, newPaid, newStatus); err != nil {
		return nil, err
	}

	if err := s.audit.Append(ctx, h, &audit.Entry{
		TableName: "payments",
		RecordID:  p.ID.String(),
		Action:    audit.ActionCreate,
		NewValues: map[string]any{"claim_id": claim.ID, "amount": in.Amount, "method": in.Method},
		UserID:    in.UserID,
	}); err != nil {
		return nil, err
	}
	if err := s.audit.Append(ctx, h, &audit.Entry{
		TableName: "claims",
		RecordID:  claim.ID.String(),
		Action:    audit.ActionUpdate,
		OldValues: map[string]any{"paid_amount": claim.PaidAmount, "status": claim.Status},
		NewValues: map[string]any{"paid_amount": newPaid, "status": newStatus},
		UserID:    in.UserID,
	}); err != nil {
		return nil, err
	}

	return &PostPaymentResult{
		PaymentID:        p.ID,
		ClaimID:          claim.ID,
		RemainingBalance: claim.TotalAmount.Sub(newPaid),
		ClaimStatus:      newStatus,
	}, nil
}

func validatePosting(in PostPaymentInput) error {
	if !in.Amount.IsPositive() {
		return db.NewError(db.KindValidation, "invalid_amount", "payment amount must be positive")
	}
	if !ValidMethod(in.Method) {
		return db.NewError(db.KindValidation, "invalid_method", "unrecognized payment method")
	}
	return nil
}

// ReversePayment backs a posted payment out of its claim. The payment and
// the claim are both locked before anything changes; reversing an already
// reversed payment is rejected.
func (s *Service) ReversePayment(ctx context.Context, paymentID uuid.UUID, userID string) (*PostPaymentResult, error) {
	var res *PostPaymentResult
	err := db.RunInTransaction(ctx, s.log, s.db, s.retry, func(ctx context.Context, h db.Handle) error {
		p, err := s.repo.GetForUpdate(ctx, h, paymentID)
		if err != nil {
			return err
		}
		if p.Status == StatusReversed {
			return db.NewError(db.KindValidation, "already_reversed", "payment has already been reversed")
		}

		claim, err := s.claims.GetForUpdate(ctx, h, p.ClaimID)
		if err != nil {
			return err
		}

		newPaid := claim.PaidAmount.Sub(p.Amount)
		if newPaid.IsNegative() {
			return db.NewError(db.KindIntegrity, "negative_paid", "reversal would drive paid amount below zero")
		}
		newStatus := claim.Status
		if claim.Status == claims.StatusPaid && newPaid.LessThan(claim.TotalAmount) {
			newStatus = claims.StatusOpen
		}

		if err := s.repo.MarkReversed(ctx, h, p.ID, userID); err != nil {
			return err
		}
		if err := s.claims.UpdatePayment(ctx, h, claim.ID, newPaid, newStatus); err != nil {
			return err
		}

		if err := s.audit.Append(ctx, h, &audit.Entry{
			TableName: "payments",
			RecordID:  p.ID.String(),
			Action:    audit.ActionUpdate,
			OldValues: map[string]any{"status": StatusPosted},
			NewValues: map[string]any{"status": StatusReversed},
			UserID:    userID,
		}); err != nil {
			return err
		}
		if err := s.audit.Append(ctx, h, &audit.Entry{
			TableName: "claims",
			RecordID:  claim.ID.String(),
			Action:    audit.ActionUpdate,
			OldValues: map[string]any{"paid_amount": claim.PaidAmount, "status": claim.Status},
			NewValues: map[string]any{"paid_amount": newPaid, "status": newStatus},
			UserID:    userID,
		}); err != nil {
			return err
		}

		res = &PostPaymentResult{
			PaymentID:        p.ID,
			ClaimID:          claim.ID,
			RemainingBalance: claim.TotalAmount.Sub(newPaid),
			ClaimStatus:      newStatus,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("payment_id", res.PaymentID.String()).
		Str("claim_id", res.ClaimID.String()).
		Msg("payment reversed")
	return res, nil
}
