package onboarding

import (
	"github.com/shopspring/decimal"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/fee"
	"github.com/trezcool/campusflow/core/hostel"
)

const (
	// SectionWeight is the share of the completion score each section is worth.
	SectionWeight = 25

	requiredDocuments   = 5
	pointsPerCourse     = 5
	hostelPendingPoints = 10

	riskFeeThreshold  = 50
	riskPendingDocMax = 2
)

type Section string

const (
	SectionDocuments Section = "documents"
	SectionFees      Section = "fees"
	SectionCourses   Section = "courses"
	SectionHostel    Section = "hostel"
	SectionComplete  Section = "complete"
)

// Sections in priority order.
var Sections = []Section{SectionDocuments, SectionFees, SectionCourses, SectionHostel}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// Snapshot is the state of a User's sections that scoring depends on.
type Snapshot struct {
	VerifiedDocuments int
	PendingDocuments  int // pending or uploaded
	Fee               *fee.Fee
	RegisteredCourses int
	Hostel            *hostel.Application
}

// FeePercentage is paid/total*100, 0 without a fee or when the total is 0.
func (s Snapshot) FeePercentage() float64 {
	return s.Fee.PaidPercentage()
}

type Completion struct {
	Total     float64 `json:"total_completion"`
	Documents float64 `json:"documents"`
	Fees      float64 `json:"fees"`
	Courses   float64 `json:"courses"`
	Hostel    float64 `json:"hostel"`
}

// Score computes the completion of each section (0-25, rounded to 2 places)
// and their total, the rounded sum of the rounded section scores.
func Score(s Snapshot) Completion {
	c := Completion{
		Documents: core.Round(capped(float64(s.VerifiedDocuments)/requiredDocuments*SectionWeight), 2),
		Fees:      core.Round(feesScore(s.Fee), 2),
		Courses:   core.Round(capped(float64(s.RegisteredCourses*pointsPerCourse)), 2),
		Hostel:    core.Round(hostelScore(s.Hostel), 2),
	}
	total := decimal.NewFromFloat(c.Documents).
		Add(decimal.NewFromFloat(c.Fees)).
		Add(decimal.NewFromFloat(c.Courses)).
		Add(decimal.NewFromFloat(c.Hostel))
	c.Total = total.Round(2).InexactFloat64()
	return c
}

func capped(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > SectionWeight:
		return SectionWeight
	}
	return score
}

func feesScore(f *fee.Fee) float64 {
	if f == nil || f.TotalAmount <= 0 {
		return 0
	}
	return capped(decimal.NewFromFloat(f.PaidAmount).
		Div(decimal.NewFromFloat(f.TotalAmount)).
		Mul(decimal.NewFromInt(SectionWeight)).
		InexactFloat64())
}

func hostelScore(app *hostel.Application) float64 {
	if app == nil {
		return 0
	}
	switch app.Status {
	case hostel.StatusAllocated:
		return SectionWeight
	case hostel.StatusPending:
		return hostelPendingPoints
	case hostel.StatusRejected:
		return 0
	}
	return 0
}

// Of returns the score of a section.
func (c Completion) Of(sec Section) float64 {
	switch sec {
	case SectionDocuments:
		return c.Documents
	case SectionFees:
		return c.Fees
	case SectionCourses:
		return c.Courses
	case SectionHostel:
		return c.Hostel
	case SectionComplete:
		return c.Total
	}
	return 0
}

// IsComplete reports whether the section scored its full weight.
func (c Completion) IsComplete(sec Section) bool {
	return c.Of(sec) >= SectionWeight
}

// HealthScore is 100 minus 25 for each incomplete section.
func HealthScore(c Completion) int {
	score := 100
	for _, sec := range Sections {
		if !c.IsComplete(sec) {
			score -= SectionWeight
		}
	}
	return score
}

type Risk struct {
	Level   RiskLevel `json:"level"`
	Message string    `json:"message"`
}

// ClassifyRisk derives the risk level from the fee percentage and the pending document count.
func ClassifyRisk(feePct float64, pendingDocs int) Risk {
	switch {
	case feePct < riskFeeThreshold && pendingDocs > 0:
		return Risk{Level: RiskHigh, Message: "Fee payment incomplete and documents pending"}
	case feePct < riskFeeThreshold || pendingDocs > riskPendingDocMax:
		return Risk{Level: RiskMedium, Message: "One or more sections incomplete"}
	default:
		return Risk{Level: RiskLow, Message: "Onboarding progressing well"}
	}
}

func (r Risk) AtRisk() bool {
	return r.Level == RiskHigh || r.Level == RiskMedium
}

type Action struct {
	Section  Section  `json:"section"`
	Action   string   `json:"action"`
	Priority Priority `json:"priority"`
}

var actions = map[Section]Action{
	SectionDocuments: {Section: SectionDocuments, Action: "Upload required documents", Priority: PriorityHigh},
	SectionFees:      {Section: SectionFees, Action: "Complete fee payment", Priority: PriorityHigh},
	SectionCourses:   {Section: SectionCourses, Action: "Register for courses", Priority: PriorityMedium},
	SectionHostel:    {Section: SectionHostel, Action: "Apply for hostel accommodation", Priority: PriorityMedium},
	SectionComplete:  {Section: SectionComplete, Action: "All onboarding steps completed!", Priority: PriorityLow},
}

// NextBestAction picks the first incomplete section in priority order.
func NextBestAction(c Completion) Action {
	for _, sec := range Sections {
		if !c.IsComplete(sec) {
			return actions[sec]
		}
	}
	return actions[SectionComplete]
}
