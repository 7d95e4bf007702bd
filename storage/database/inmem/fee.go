package inmemdb

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/campusflow/core/fee"
)

type feeRepository struct {
	db *feeTable
}

var _ fee.Repository = (*feeRepository)(nil)

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db.fee}
}

func (repo *feeRepository) find(userID string) *fee.Fee {
	for _, f := range repo.db.rows {
		if f.UserID == userID {
			return f
		}
	}
	return nil
}

// clone copies the slices of a row so callers never share them with the table.
func clone(f *fee.Fee) fee.Fee {
	c := *f
	c.Structure = append([]fee.Item(nil), f.Structure...)
	c.Transactions = append(make([]fee.Transaction, 0, len(f.Transactions)), f.Transactions...)
	return c
}

func (repo *feeRepository) EnsureFee(_ context.Context, f fee.Fee) (fee.Fee, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if existing := repo.find(f.UserID); existing != nil {
		return clone(existing), nil
	}
	f.ID = newID()
	row := clone(&f)
	repo.db.rows = append(repo.db.rows, &row)
	return clone(&row), nil
}

func (repo *feeRepository) GetFeeByUserID(_ context.Context, userID string) (fee.Fee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if f := repo.find(userID); f != nil {
		return clone(f), nil
	}
	return fee.Fee{}, fee.ErrNotFound
}

func (repo *feeRepository) AddPayment(_ context.Context, userID string, tx fee.Transaction, now time.Time) (fee.Fee, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	f := repo.find(userID)
	if f == nil {
		return fee.Fee{}, fee.ErrNotFound
	}
	amount := decimal.NewFromFloat(tx.Amount)
	if amount.GreaterThan(decimal.NewFromFloat(f.RemainingAmount)) {
		return fee.Fee{}, fee.ErrOverpayment
	}
	paid := decimal.NewFromFloat(f.PaidAmount).Add(amount)
	f.PaidAmount = paid.InexactFloat64()
	f.RemainingAmount = decimal.NewFromFloat(f.TotalAmount).Sub(paid).InexactFloat64()
	f.Transactions = append(f.Transactions, tx)
	f.UpdatedAt = now
	return clone(f), nil
}
