package fee

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/notification"
	"github.com/trezcool/campusflow/core/user"
)

var (
	// errors
	ErrNotFound      = core.NewError(core.ErrNotFound, "fee record not found")
	ErrOverpayment   = core.NewError(core.ErrInvalidArgument, "payment amount exceeds remaining balance")
	ErrInvalidAmount = core.NewError(core.ErrInvalidArgument, "payment amount must be greater than 0")
	ErrAmountCents   = core.NewError(core.ErrInvalidArgument, "payment amount cannot have more than 2 decimal places")
)

type (
	Repository interface {
		// EnsureFee inserts the fee unless its User already has one, and returns the User's fee.
		EnsureFee(ctx context.Context, f Fee) (Fee, error)
		GetFeeByUserID(ctx context.Context, userID string) (Fee, error)
		// AddPayment atomically appends the transaction, adds its amount to the paid amount and
		// recomputes the remaining amount, provided the remaining amount covers it.
		// It fails with ErrNotFound or ErrOverpayment without writing anything.
		AddPayment(ctx context.Context, userID string, tx Transaction, now time.Time) (Fee, error)
	}

	Service struct {
		repo     Repository
		notifier notification.Notifier
	}
)

var _ user.Provisioner = (*Service)(nil)

func NewService(repo Repository, notifier notification.Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Provision creates the fee of a new User from the fixed Schedule.
func (svc *Service) Provision(ctx context.Context, usr user.User) error {
	_, err := svc.repo.EnsureFee(ctx, newFee(usr.ID, time.Now().UTC()))
	return err
}

// Get returns the User's fee, creating it if the account has none yet.
func (svc *Service) Get(ctx context.Context, userID string) (Fee, error) {
	f, err := svc.repo.GetFeeByUserID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		f, err = svc.repo.EnsureFee(ctx, newFee(userID, time.Now().UTC()))
	}
	if f.Structure == nil {
		f.Structure = Schedule
	}
	return f, errors.Wrap(err, "getting fee")
}

// Find returns the User's fee, or nil if they have none.
func (svc *Service) Find(ctx context.Context, userID string) (*Fee, error) {
	f, err := svc.repo.GetFeeByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "finding fee")
	}
	return &f, nil
}

// Pay records a payment against the User's fee.
func (svc *Service) Pay(ctx context.Context, userID string, p Payment) (Receipt, error) {
	p.Clean()
	if p.Amount <= 0 {
		return Receipt{}, ErrInvalidAmount
	}
	if amt := decimal.NewFromFloat(p.Amount); !amt.Equal(amt.Round(2)) {
		return Receipt{}, ErrAmountCents
	}

	now := time.Now().UTC()
	tx := newTransaction(p.Amount, p.PaymentMethod, now)
	f, err := svc.repo.AddPayment(ctx, userID, tx, now)
	if err != nil {
		return Receipt{}, errors.Wrap(err, "adding payment")
	}

	svc.notifier.Notify(ctx, notification.NewNotification{
		UserID:  userID,
		Title:   "Payment Received",
		Message: "Payment of ₹" + decimal.NewFromFloat(p.Amount).String() + " has been received successfully.",
		Type:    notification.TypeTaskCompletion,
		Link:    "/fees",
	})
	return Receipt{Message: "Payment successful", Transaction: tx, RemainingAmount: f.RemainingAmount}, nil
}

func (svc *Service) Transactions(ctx context.Context, userID string) ([]Transaction, error) {
	f, err := svc.Find(ctx, userID)
	if err != nil || f == nil || f.Transactions == nil {
		return []Transaction{}, err
	}
	return f.Transactions, nil
}
