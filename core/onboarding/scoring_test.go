package onboarding

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/campusflow/core/fee"
	"github.com/trezcool/campusflow/core/hostel"
)

func newFee(paid float64) *fee.Fee {
	return &fee.Fee{TotalAmount: 51000, PaidAmount: paid, RemainingAmount: 51000 - paid}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want Completion
	}{
		{
			name: "fresh student",
			snap: Snapshot{PendingDocuments: 5, Fee: newFee(0)},
			want: Completion{},
		},
		{
			name: "half fee paid",
			snap: Snapshot{Fee: newFee(25500)},
			want: Completion{Total: 12.5, Fees: 12.5},
		},
		{
			name: "every section complete",
			snap: Snapshot{
				VerifiedDocuments: 5,
				Fee:               newFee(51000),
				RegisteredCourses: 5,
				Hostel:            &hostel.Application{Status: hostel.StatusAllocated},
			},
			want: Completion{Total: 100, Documents: 25, Fees: 25, Courses: 25, Hostel: 25},
		},
		{
			name: "sections are capped",
			snap: Snapshot{VerifiedDocuments: 7, RegisteredCourses: 9},
			want: Completion{Total: 50, Documents: 25, Courses: 25},
		},
		{
			name: "pending hostel",
			snap: Snapshot{Hostel: &hostel.Application{Status: hostel.StatusPending}},
			want: Completion{Total: 10, Hostel: 10},
		},
		{
			name: "rejected hostel",
			snap: Snapshot{Hostel: &hostel.Application{Status: hostel.StatusRejected}},
			want: Completion{},
		},
		{
			name: "zero total fee",
			snap: Snapshot{Fee: &fee.Fee{}},
			want: Completion{},
		},
		{
			name: "sub-scores are rounded before summing",
			snap: Snapshot{VerifiedDocuments: 1, Fee: newFee(17000), RegisteredCourses: 1},
			want: Completion{Total: 18.33, Documents: 5, Fees: 8.33, Courses: 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.snap))
		})
	}
}

func TestScoreTotalIsRoundedSum(t *testing.T) {
	for verified := 0; verified <= 5; verified++ {
		for _, paid := range []float64{0, 1234.56, 17000, 25500, 33333.33, 51000} {
			for courses := 0; courses <= 6; courses++ {
				c := Score(Snapshot{VerifiedDocuments: verified, Fee: newFee(paid), RegisteredCourses: courses})
				sum := decimal.NewFromFloat(c.Documents).
					Add(decimal.NewFromFloat(c.Fees)).
					Add(decimal.NewFromFloat(c.Courses)).
					Add(decimal.NewFromFloat(c.Hostel)).
					Round(2).
					InexactFloat64()
				assert.Equal(t, sum, c.Total)
				for _, sec := range Sections {
					assert.GreaterOrEqual(t, c.Of(sec), 0.0)
					assert.LessOrEqual(t, c.Of(sec), float64(SectionWeight))
				}
			}
		}
	}
}

func TestHealthScore(t *testing.T) {
	assert.Equal(t, 0, HealthScore(Completion{}))
	assert.Equal(t, 25, HealthScore(Completion{Documents: 25, Fees: 24.99}))
	assert.Equal(t, 100, HealthScore(Completion{Documents: 25, Fees: 25, Courses: 25, Hostel: 25}))
}

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		feePct      float64
		pendingDocs int
		want        RiskLevel
	}{
		{feePct: 30, pendingDocs: 1, want: RiskHigh},
		{feePct: 30, pendingDocs: 0, want: RiskMedium},
		{feePct: 80, pendingDocs: 0, want: RiskLow},
		{feePct: 80, pendingDocs: 3, want: RiskMedium},
		{feePct: 80, pendingDocs: 2, want: RiskLow},
		{feePct: 50, pendingDocs: 1, want: RiskLow},
		{feePct: 49.99, pendingDocs: 5, want: RiskHigh},
	}
	for _, tt := range tests {
		got := ClassifyRisk(tt.feePct, tt.pendingDocs)
		assert.Equal(t, tt.want, got.Level, "fee=%v pending=%v", tt.feePct, tt.pendingDocs)
		assert.NotEmpty(t, got.Message)
	}
	assert.True(t, Risk{Level: RiskMedium}.AtRisk())
	assert.False(t, Risk{Level: RiskLow}.AtRisk())
}

func TestNextBestAction(t *testing.T) {
	tests := []struct {
		name string
		c    Completion
		want Section
		prio Priority
	}{
		{name: "nothing done", c: Completion{}, want: SectionDocuments, prio: PriorityHigh},
		{name: "documents done", c: Completion{Documents: 25, Fees: 12.5}, want: SectionFees, prio: PriorityHigh},
		{name: "fees done", c: Completion{Documents: 25, Fees: 25}, want: SectionCourses, prio: PriorityMedium},
		{name: "courses done", c: Completion{Documents: 25, Fees: 25, Courses: 25, Hostel: 10}, want: SectionHostel, prio: PriorityMedium},
		{name: "all done", c: Completion{Documents: 25, Fees: 25, Courses: 25, Hostel: 25}, want: SectionComplete, prio: PriorityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NextBestAction(tt.c)
			assert.Equal(t, tt.want, a.Section)
			assert.Equal(t, tt.prio, a.Priority)
		})
	}
	assert.Equal(t, "All onboarding steps completed!", NextBestAction(Completion{Documents: 25, Fees: 25, Courses: 25, Hostel: 25}).Action)
}
