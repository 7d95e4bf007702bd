package fee_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/fee"
	"github.com/trezcool/campusflow/tests"
)

func TestProvision(t *testing.T) {
	env := testutil.NewEnv(t)
	usr := env.RegisterStudent(t, "Jane Doe", "jane@example.com")

	f, err := env.Fees.Get(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 51000.0, f.TotalAmount)
	assert.Equal(t, 0.0, f.PaidAmount)
	assert.Equal(t, 51000.0, f.RemainingAmount)
	assert.Len(t, f.Structure, len(fee.Schedule))
	assert.Empty(t, f.Transactions)
	assert.False(t, f.IsPaid())
}

func TestGetCreatesMissingFee(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	f, err := env.Fees.Find(ctx, "legacy-user")
	require.NoError(t, err)
	assert.Nil(t, f)

	got, err := env.Fees.Get(ctx, "legacy-user")
	require.NoError(t, err)
	assert.Equal(t, 51000.0, got.RemainingAmount)

	again, err := env.Fees.Get(ctx, "legacy-user")
	require.NoError(t, err)
	assert.Equal(t, got.ID, again.ID)
}

func TestPay(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	usr := env.RegisterStudent(t, "Jane Doe", "jane@example.com")

	r := env.Pay(t, usr.ID, 25500)
	assert.Equal(t, "Payment successful", r.Message)
	assert.Equal(t, 25500.0, r.RemainingAmount)
	assert.Equal(t, 25500.0, r.Transaction.Amount)
	assert.Equal(t, "online", r.Transaction.PaymentMethod)
	assert.Equal(t, fee.TransactionCompleted, r.Transaction.Status)
	assert.Regexp(t, `^TXN\d{14}[0-9A-F]{8}$`, r.Transaction.TransactionID)

	f, err := env.Fees.Get(ctx, usr.ID)
	require.NoError(t, err)
	v := f.View()
	assert.Equal(t, 50.0, v.PaidPercentage)
	assert.False(t, v.IsPaid)

	txs, err := env.Fees.Transactions(ctx, usr.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	nn, err := env.Notifications.Query(ctx, usr.ID, false)
	require.NoError(t, err)
	require.Len(t, nn, 1)
	assert.Equal(t, "Payment Received", nn[0].Title)
	assert.Equal(t, "Payment of ₹25500 has been received successfully.", nn[0].Message)

	env.Pay(t, usr.ID, 25500)
	f, err = env.Fees.Get(ctx, usr.ID)
	require.NoError(t, err)
	assert.True(t, f.IsPaid())
	assert.Equal(t, 100.0, f.View().PaidPercentage)
}

func TestPayInvariant(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	usr := env.RegisterStudent(t, "Jane Doe", "jane@example.com")

	var lastPaid float64
	for _, amount := range []float64{0.1, 0.2, 1234.56, 999.99, 10000, 3.33} {
		env.Pay(t, usr.ID, amount)
		f, err := env.Fees.Get(ctx, usr.ID)
		require.NoError(t, err)
		assert.InDelta(t, f.TotalAmount, f.PaidAmount+f.RemainingAmount, 1e-9)
		assert.GreaterOrEqual(t, f.PaidAmount, lastPaid)
		lastPaid = f.PaidAmount
	}
}

func TestPayFailures(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	usr := env.RegisterStudent(t, "Jane Doe", "jane@example.com")
	env.Pay(t, usr.ID, 50000)

	tests := []struct {
		name    string
		userID  string
		amount  float64
		wantErr error
	}{
		{name: "overpayment", userID: usr.ID, amount: 1000.01, wantErr: fee.ErrOverpayment},
		{name: "overpayment below a cent", userID: usr.ID, amount: 1000.004, wantErr: core.ErrInvalidArgument},
		{name: "fraction of a cent", userID: usr.ID, amount: 10.005, wantErr: fee.ErrAmountCents},
		{name: "zero", userID: usr.ID, amount: 0, wantErr: fee.ErrInvalidAmount},
		{name: "negative", userID: usr.ID, amount: -5, wantErr: fee.ErrInvalidAmount},
		{name: "no fee", userID: "unknown", amount: 10, wantErr: fee.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Fees.Pay(ctx, tt.userID, fee.Payment{Amount: tt.amount})
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	_, err := env.Fees.Pay(ctx, usr.ID, fee.Payment{Amount: 1000.01})
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))

	f, err := env.Fees.Get(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, f.PaidAmount)
	assert.Len(t, f.Transactions, 1)
}

func TestPayConcurrently(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	usr := env.RegisterStudent(t, "Jane Doe", "jane@example.com")

	// 60 payments of 1000 against 51000: exactly 51 can succeed
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.Fees.Pay(ctx, usr.ID, fee.Payment{Amount: 1000}); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	f, err := env.Fees.Get(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 51, ok)
	assert.Equal(t, 51000.0, f.PaidAmount)
	assert.Equal(t, 0.0, f.RemainingAmount)
	assert.Len(t, f.Transactions, 51)
}
