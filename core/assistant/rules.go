package assistant

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/trezcool/campusflow/core/hostel"
	"github.com/trezcool/campusflow/core/onboarding"
	"github.com/trezcool/campusflow/core/user"
)

// Context is what the assistant knows about the User asking.
type Context struct {
	User   user.User
	Status onboarding.Status
}

type Reply struct {
	Answer      string   `json:"answer"`
	Suggestions []string `json:"suggestions"`
}

// Rule answers questions containing any of its keywords.
type Rule struct {
	Name     string
	Keywords []string
	Respond  func(c Context) Reply
}

// Match reports whether the lower-cased question contains one of the rule keywords.
func (r Rule) Match(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range r.Keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// Rules are evaluated in order; the first match answers.
var Rules = []Rule{
	{Name: "documents", Keywords: []string{"document", "upload", "file"}, Respond: documentsReply},
	{Name: "fees", Keywords: []string{"fee", "payment", "pay", "balance"}, Respond: feesReply},
	{Name: "courses", Keywords: []string{"course", "register", "lms"}, Respond: coursesReply},
	{Name: "hostel", Keywords: []string{"hostel", "accommodation", "room", "mess"}, Respond: hostelReply},
	{Name: "progress", Keywords: []string{"status", "progress", "completion", "how am i"}, Respond: progressReply},
}

// Answer replies to a question with the first matching rule, or a generic recommendation.
func Answer(question string, c Context) Reply {
	for _, r := range Rules {
		if r.Match(question) {
			return r.Respond(c)
		}
	}
	return fallbackReply(c)
}

func money(f float64) string {
	return "₹" + decimal.NewFromFloat(f).String()
}

func documentsReply(c Context) Reply {
	return Reply{
		Answer: fmt.Sprintf("Based on your current status, you have %d pending documents. "+
			"Please upload the required documents to complete this section. "+
			"Your document completion is currently at %.1f%%.",
			c.Status.Snapshot.PendingDocuments, c.Status.Completion.Documents),
		Suggestions: []string{"Upload ID Proof", "Upload Address Proof", "Upload Academic Transcript"},
	}
}

func feesReply(c Context) Reply {
	f := c.Status.Snapshot.Fee
	if f == nil {
		return Reply{Answer: "Fee information not available. Please contact administration.", Suggestions: []string{}}
	}
	return Reply{
		Answer: fmt.Sprintf("Your fee payment status: %s paid out of %s total. Remaining balance: %s. "+
			"You need to complete at least 50%% payment to register for courses.",
			money(f.PaidAmount), money(f.TotalAmount), money(f.RemainingAmount)),
		Suggestions: []string{"Make Payment", "View Transaction History"},
	}
}

func coursesReply(c Context) Reply {
	return Reply{
		Answer: fmt.Sprintf("You have registered for %d course(s). Course completion is at %.1f%%. "+
			"Remember, you need at least 50%% fee payment to register for courses.",
			c.Status.Snapshot.RegisteredCourses, c.Status.Completion.Courses),
		Suggestions: []string{"Browse Courses", "Register for More Courses"},
	}
}

func hostelReply(c Context) Reply {
	app := c.Status.Snapshot.Hostel
	switch {
	case app == nil:
		return Reply{
			Answer:      "You haven't applied for hostel accommodation yet. Please submit your hostel application with your preferences.",
			Suggestions: []string{"Apply for Hostel"},
		}
	case app.Status == hostel.StatusAllocated:
		suggestion := "View Hostel Details"
		if app.MessRegistration != hostel.MessRegistered {
			suggestion = "Register for Mess"
		}
		return Reply{
			Answer: fmt.Sprintf("Your hostel application status: %s. Hostel: %s, Room: %s. Mess registration: %s.",
				app.Status, app.AllocatedHostel, app.AllocatedRoom, app.MessRegistration),
			Suggestions: []string{suggestion},
		}
	default:
		return Reply{
			Answer:      fmt.Sprintf("Your hostel application is currently %s. Please wait for allocation.", app.Status),
			Suggestions: []string{},
		}
	}
}

func progressReply(c Context) Reply {
	comp := c.Status.Completion
	return Reply{
		Answer: fmt.Sprintf("Your overall onboarding completion is %.1f%%. Here's the breakdown:\n"+
			"- Documents: %.1f%%\n- Fees: %.1f%%\n- Courses: %.1f%%\n- Hostel: %.1f%%\n\n"+
			"Risk Level: %s\nNext Action: %s",
			comp.Total, comp.Documents, comp.Fees, comp.Courses, comp.Hostel,
			c.Status.Risk.Level, c.Status.NextAction.Action),
		Suggestions: []string{"View Dashboard", "Complete Pending Tasks"},
	}
}

func fallbackReply(c Context) Reply {
	return Reply{
		Answer: fmt.Sprintf("Thank you for your question. Based on your current onboarding status (%.1f%% complete), "+
			"I recommend focusing on: %s. Your risk level is currently %s. How can I help you further?",
			c.Status.Completion.Total, c.Status.NextAction.Action, c.Status.Risk.Level),
		Suggestions: []string{"View Dashboard", "Check Documents", "View Fees", "Browse Courses"},
	}
}

// summary describes the User's onboarding state; it is stored alongside each conversation.
func summary(c Context) string {
	var b strings.Builder
	comp := c.Status.Completion
	studentID := c.User.StudentID
	if studentID == "" {
		studentID = "N/A"
	}
	hostelStatus := "Not applied"
	if app := c.Status.Snapshot.Hostel; app != nil {
		hostelStatus = string(app.Status)
	}

	fmt.Fprintf(&b, "Student: %s\n", c.User.FullName)
	fmt.Fprintf(&b, "Student ID: %s\n", studentID)
	fmt.Fprintf(&b, "Onboarding Completion: %.1f%%\n", comp.Total)
	fmt.Fprintf(&b, "Health Score: %d\n", c.Status.Health)
	fmt.Fprintf(&b, "Risk Level: %s\n\n", c.Status.Risk.Level)
	fmt.Fprintf(&b, "Current Status:\n")
	fmt.Fprintf(&b, "- Documents: %.1f%% (%d pending)\n", comp.Documents, c.Status.Snapshot.PendingDocuments)
	if f := c.Status.Snapshot.Fee; f != nil {
		fmt.Fprintf(&b, "- Fee Payment: %.1f%% completed (%s/%s)\n", f.PaidPercentage(), money(f.PaidAmount), money(f.TotalAmount))
	}
	fmt.Fprintf(&b, "- Courses: %d registered (%.1f%%)\n", c.Status.Snapshot.RegisteredCourses, comp.Courses)
	fmt.Fprintf(&b, "- Hostel: %s (%.1f%%)\n\n", hostelStatus, comp.Hostel)
	fmt.Fprintf(&b, "Next Best Action: %s\n", c.Status.NextAction.Action)
	return b.String()
}
