package tests

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusflow/core/fee"
)

func Test_feeApi_view(t *testing.T) {
	app, env := setup(t)
	student := env.RegisterStudent(t, "Student", "student@example.com")
	env.Pay(t, student.ID, 12750)

	req, rec := newAuthRequest(http.MethodGet, "/api/fees", getToken(t, env.Conf, student))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var v fee.View
	unmarshalBody(t, rec, &v)
	assert.Equal(t, 51000.0, v.TotalAmount)
	assert.Equal(t, 12750.0, v.PaidAmount)
	assert.Equal(t, 38250.0, v.RemainingAmount)
	assert.Equal(t, 25.0, v.PaidPercentage)
	assert.False(t, v.IsPaid)
	assert.Equal(t, fee.Schedule, v.Structure)
	assert.Len(t, v.Transactions, 1)
}

func Test_feeApi_pay(t *testing.T) {
	app, env := setup(t)
	student := env.RegisterStudent(t, "Student", "student@example.com")
	token := getToken(t, env.Conf, student)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "no token",
			method:   http.MethodPost,
			path:     "/api/fees/pay",
			body:     []byte(`{"amount": 100}`),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "missing amount",
			method:   http.MethodPost,
			path:     "/api/fees/pay",
			body:     []byte(`{}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"amount": "this field is required"}),
		},
		{
			name:     "negative amount",
			method:   http.MethodPost,
			path:     "/api/fees/pay",
			body:     []byte(`{"amount": -10}`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "fraction of a cent",
			method:   http.MethodPost,
			path:     "/api/fees/pay",
			body:     []byte(`{"amount": 0.001}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "payment amount cannot have more than 2 decimal places"}),
		},
		{
			name:     "overpayment by a fraction of a cent",
			method:   http.MethodPost,
			path:     "/api/fees/pay",
			body:     []byte(`{"amount": 51000.004}`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "overpayment",
			method:   http.MethodPost,
			path:     "/api/fees/pay",
			body:     []byte(`{"amount": 51000.01}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "payment amount exceeds remaining balance"}),
		},
	})

	// amounts are never rounded into a different payment
	req, rec := newAuthRequest(http.MethodPost, "/api/fees/pay", token, []byte(`{"amount": 100.005}`))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, httpErr{Error: "payment amount cannot have more than 2 decimal places"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodPost, "/api/fees/pay", token, []byte(`{"amount": 100.01, "payment_method": " UPI "}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rcpt fee.Receipt
	unmarshalBody(t, rec, &rcpt)
	assert.Equal(t, "Payment successful", rcpt.Message)
	assert.Equal(t, 100.01, rcpt.Transaction.Amount)
	assert.Equal(t, "upi", rcpt.Transaction.PaymentMethod)
	assert.Equal(t, fee.TransactionCompleted, rcpt.Transaction.Status)
	assert.Regexp(t, `^TXN\d{14}[0-9A-F]{8}$`, rcpt.Transaction.TransactionID)
	assert.Equal(t, 50899.99, rcpt.RemainingAmount)

	// the exact remaining balance is accepted
	req, rec = newAuthRequest(http.MethodPost, "/api/fees/pay", token, []byte(`{"amount": 50899.99}`))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	unmarshalBody(t, rec, &rcpt)
	assert.Equal(t, 0.0, rcpt.RemainingAmount)

	req, rec = newAuthRequest(http.MethodGet, "/api/fees", token)
	app.ServeHTTP(rec, req)
	var v fee.View
	unmarshalBody(t, rec, &v)
	assert.True(t, v.IsPaid)
	assert.Equal(t, 100.0, v.PaidPercentage)
}

func Test_feeApi_concurrentPayments(t *testing.T) {
	app, env := setup(t)
	student := env.RegisterStudent(t, "Student", "student@example.com")
	token := getToken(t, env.Conf, student)

	// 60 payments of 1000 against a 51000 fee: exactly 51 may succeed
	var wg sync.WaitGroup
	codes := make(chan int, 60)
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, rec := newAuthRequest(http.MethodPost, "/api/fees/pay", token, []byte(`{"amount": 1000}`))
			app.ServeHTTP(rec, req)
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	var ok, rejected int
	for code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusBadRequest:
			rejected++
		}
	}
	assert.Equal(t, 51, ok)
	assert.Equal(t, 9, rejected)

	f, err := env.Fees.Get(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, 51000.0, f.PaidAmount)
	assert.Equal(t, 0.0, f.RemainingAmount)
	assert.Len(t, f.Transactions, 51)
}

func Test_feeApi_transactions(t *testing.T) {
	app, env := setup(t)
	student := env.RegisterStudent(t, "Student", "student@example.com")
	token := getToken(t, env.Conf, student)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "none yet",
			method:   http.MethodGet,
			path:     "/api/fees/transactions",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"transactions": []}`),
		},
	})

	r1 := env.Pay(t, student.ID, 1000)
	r2 := env.Pay(t, student.ID, 2000)

	req, rec := newAuthRequest(http.MethodGet, "/api/fees/transactions", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Transactions []fee.Transaction `json:"transactions"`
	}
	unmarshalBody(t, rec, &res)
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, r1.Transaction.ID, res.Transactions[0].ID)
	assert.Equal(t, r2.Transaction.ID, res.Transactions[1].ID)
}
