package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/campusflow/core/fee"
	"github.com/trezcool/campusflow/core/hostel"
	"github.com/trezcool/campusflow/core/onboarding"
	"github.com/trezcool/campusflow/core/user"
)

func newContext(snap onboarding.Snapshot) Context {
	c := onboarding.Score(snap)
	return Context{
		User: user.User{FullName: "Jane Doe"},
		Status: onboarding.Status{
			Snapshot:   snap,
			Completion: c,
			Health:     onboarding.HealthScore(c),
			Risk:       onboarding.ClassifyRisk(snap.FeePercentage(), snap.PendingDocuments),
			NextAction: onboarding.NextBestAction(c),
		},
	}
}

func TestAnswer(t *testing.T) {
	f := &fee.Fee{TotalAmount: 51000, PaidAmount: 25500, RemainingAmount: 25500}
	base := newContext(onboarding.Snapshot{PendingDocuments: 3, VerifiedDocuments: 2, Fee: f, RegisteredCourses: 2})

	tests := []struct {
		question    string
		ctx         Context
		wantPrefix  string
		wantContain string
		suggestions []string
	}{
		{
			question:    "How do I UPLOAD my documents?",
			ctx:         base,
			wantPrefix:  "Based on your current status, you have 3 pending documents.",
			wantContain: "currently at 10.0%",
			suggestions: []string{"Upload ID Proof", "Upload Address Proof", "Upload Academic Transcript"},
		},
		{
			question:    "what is my balance",
			ctx:         base,
			wantPrefix:  "Your fee payment status: ₹25500 paid out of ₹51000 total. Remaining balance: ₹25500.",
			suggestions: []string{"Make Payment", "View Transaction History"},
		},
		{
			question:    "fees?",
			ctx:         newContext(onboarding.Snapshot{}),
			wantPrefix:  "Fee information not available. Please contact administration.",
			suggestions: []string{},
		},
		{
			question:    "can I register now",
			ctx:         base,
			wantPrefix:  "You have registered for 2 course(s). Course completion is at 10.0%.",
			suggestions: []string{"Browse Courses", "Register for More Courses"},
		},
		{
			question:    "where is my room",
			ctx:         base,
			wantPrefix:  "You haven't applied for hostel accommodation yet.",
			suggestions: []string{"Apply for Hostel"},
		},
		{
			question:    "hostel?",
			ctx:         newContext(onboarding.Snapshot{Hostel: &hostel.Application{Status: hostel.StatusPending}}),
			wantPrefix:  "Your hostel application is currently pending. Please wait for allocation.",
			suggestions: []string{},
		},
		{
			question: "mess",
			ctx: newContext(onboarding.Snapshot{Hostel: &hostel.Application{
				Status: hostel.StatusAllocated, AllocatedHostel: "North Hostel", AllocatedRoom: "A-1", MessRegistration: hostel.MessNotRegistered,
			}}),
			wantPrefix:  "Your hostel application status: allocated. Hostel: North Hostel, Room: A-1. Mess registration: not_registered.",
			suggestions: []string{"Register for Mess"},
		},
		{
			question: "accommodation",
			ctx: newContext(onboarding.Snapshot{Hostel: &hostel.Application{
				Status: hostel.StatusAllocated, MessRegistration: hostel.MessRegistered,
			}}),
			wantPrefix:  "Your hostel application status: allocated.",
			suggestions: []string{"View Hostel Details"},
		},
		{
			question:    "How am I doing?",
			ctx:         base,
			wantPrefix:  "Your overall onboarding completion is 32.5%. Here's the breakdown:\n- Documents: 10.0%\n- Fees: 12.5%",
			wantContain: "Risk Level: MEDIUM\nNext Action: Upload required documents",
			suggestions: []string{"View Dashboard", "Complete Pending Tasks"},
		},
		{
			question:    "hello there",
			ctx:         base,
			wantPrefix:  "Thank you for your question. Based on your current onboarding status (32.5% complete)",
			wantContain: "I recommend focusing on: Upload required documents. Your risk level is currently MEDIUM.",
			suggestions: []string{"View Dashboard", "Check Documents", "View Fees", "Browse Courses"},
		},
		{
			// rules are tried in order: "pay" wins over "course"
			question:    "do I have to pay before course registration?",
			ctx:         base,
			wantPrefix:  "Your fee payment status:",
			suggestions: []string{"Make Payment", "View Transaction History"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got := Answer(tt.question, tt.ctx)
			assert.True(t, strings.HasPrefix(got.Answer, tt.wantPrefix), "got %q", got.Answer)
			if tt.wantContain != "" {
				assert.Contains(t, got.Answer, tt.wantContain)
			}
			assert.Equal(t, tt.suggestions, got.Suggestions)
		})
	}
}

func TestSummary(t *testing.T) {
	c := newContext(onboarding.Snapshot{PendingDocuments: 5, Fee: &fee.Fee{TotalAmount: 51000}})
	s := summary(c)
	for _, want := range []string{
		"Student: Jane Doe\n",
		"Student ID: N/A\n",
		"Risk Level: HIGH\n",
		"- Documents: 0.0% (5 pending)\n",
		"- Fee Payment: 0.0% completed (₹0/₹51000)\n",
		"- Hostel: Not applied (0.0%)\n",
		"Next Best Action: Upload required documents\n",
	} {
		assert.Contains(t, s, want)
	}
}
