package fee

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trezcool/campusflow/core"
)

const (
	TransactionCompleted = "completed"

	defaultPaymentMethod = "online"
	defaultDescription   = "Semester fees breakdown"
)

type Item struct {
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// Schedule is the fixed fee structure every student starts with.
var Schedule = []Item{
	{Name: "Tuition Fee", Amount: 35000, Description: "Academic semester fees"},
	{Name: "Hostel Fee", Amount: 12000, Description: "Accommodation charges"},
	{Name: "Lab Fee", Amount: 2500, Description: "Laboratory and practical fees"},
	{Name: "Library Fee", Amount: 500, Description: "Library membership"},
	{Name: "Sports & Activities", Amount: 1000, Description: "Sports facility and extracurricular"},
}

// ScheduleTotal sums the amounts of the given items.
func ScheduleTotal(items []Item) float64 {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Amount))
	}
	return total.InexactFloat64()
}

// Transaction is an immutable payment record.
type Transaction struct {
	ID            string    `json:"id"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// newTransaction builds a completed Transaction; its external id is
// "TXN" + UTC yyyymmddHHMMSS + 8 upper hex chars.
func newTransaction(amount float64, method string, now time.Time) Transaction {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return Transaction{
		ID:            uuid.New().String(),
		Amount:        amount,
		PaymentMethod: method,
		TransactionID: fmt.Sprintf("TXN%s%s", now.UTC().Format("20060102150405"), strings.ToUpper(hex[:8])),
		Status:        TransactionCompleted,
		CreatedAt:     now.UTC(),
	}
}

// Fee invariant: RemainingAmount == TotalAmount - PaidAmount >= 0; PaidAmount never decreases.
type Fee struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	TotalAmount     float64       `json:"total_amount"`
	PaidAmount      float64       `json:"paid_amount"`
	RemainingAmount float64       `json:"remaining_amount"`
	Description     string        `json:"description"`
	Structure       []Item        `json:"fee_structure"`
	Transactions    []Transaction `json:"transactions"`
	CreatedAt       time.Time     `json:"created_at"` // UTC
	UpdatedAt       time.Time     `json:"updated_at"` // UTC
}

func newFee(userID string, now time.Time) Fee {
	total := ScheduleTotal(Schedule)
	return Fee{
		UserID:          userID,
		TotalAmount:     total,
		RemainingAmount: total,
		Description:     defaultDescription,
		Structure:       Schedule,
		Transactions:    []Transaction{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// PaidPercentage is PaidAmount / TotalAmount * 100, 0 when there is nothing to pay.
func (f *Fee) PaidPercentage() float64 {
	if f == nil {
		return 0
	}
	return core.Percentage(f.PaidAmount, f.TotalAmount)
}

func (f *Fee) IsPaid() bool {
	return f.RemainingAmount <= 0
}

// View is the fee as shown to its owner.
type View struct {
	Fee
	IsPaid         bool    `json:"is_paid"`
	PaidPercentage float64 `json:"paid_percentage"`
}

func (f Fee) View() View {
	return View{
		Fee:            f,
		IsPaid:         f.IsPaid(),
		PaidPercentage: core.Round(f.PaidPercentage(), 1),
	}
}

// Payment contains information needed to record a payment.
type Payment struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"omitempty,max=64"`
}

func (p *Payment) Clean() {
	if p.PaymentMethod = core.CleanString(p.PaymentMethod, true /* lower */); p.PaymentMethod == "" {
		p.PaymentMethod = defaultPaymentMethod
	}
}

type Receipt struct {
	Message         string      `json:"message"`
	Transaction     Transaction `json:"transaction"`
	RemainingAmount float64     `json:"remaining_amount"`
}
