package onboarding

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/fee"
	"github.com/trezcool/campusflow/core/hostel"
	"github.com/trezcool/campusflow/core/user"
)

const maxRiskStudents = 10

type (
	DocumentCounter interface {
		Counts(ctx context.Context, userID string) (verified, pending int, err error)
	}

	FeeFinder interface {
		Find(ctx context.Context, userID string) (*fee.Fee, error)
	}

	CourseCounter interface {
		RegisteredCount(ctx context.Context, userID string) (int, error)
	}

	ApplicationFinder interface {
		Find(ctx context.Context, userID string) (*hostel.Application, error)
	}

	UnreadCounter interface {
		UnreadCount(ctx context.Context, userID string) (int, error)
	}

	StudentQuerier interface {
		QueryStudents(ctx context.Context) ([]user.User, error)
	}

	// Service computes completion, risk & advice from the current state of the sections; nothing is cached.
	Service struct {
		students      StudentQuerier
		documents     DocumentCounter
		fees          FeeFinder
		courses       CourseCounter
		hostels       ApplicationFinder
		notifications UnreadCounter
	}
)

func NewService(
	students StudentQuerier,
	documents DocumentCounter,
	fees FeeFinder,
	courses CourseCounter,
	hostels ApplicationFinder,
	notifications UnreadCounter,
) *Service {
	return &Service{
		students:      students,
		documents:     documents,
		fees:          fees,
		courses:       courses,
		hostels:       hostels,
		notifications: notifications,
	}
}

// Snapshot reads the current state of the User's sections.
func (svc *Service) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	var (
		s   Snapshot
		err error
	)
	if s.VerifiedDocuments, s.PendingDocuments, err = svc.documents.Counts(ctx, userID); err != nil {
		return Snapshot{}, errors.Wrap(err, "counting documents")
	}
	if s.Fee, err = svc.fees.Find(ctx, userID); err != nil {
		return Snapshot{}, errors.Wrap(err, "finding fee")
	}
	if s.RegisteredCourses, err = svc.courses.RegisteredCount(ctx, userID); err != nil {
		return Snapshot{}, errors.Wrap(err, "counting courses")
	}
	if s.Hostel, err = svc.hostels.Find(ctx, userID); err != nil {
		return Snapshot{}, errors.Wrap(err, "finding hostel application")
	}
	return s, nil
}

// Status is the onboarding state of a User.
type Status struct {
	Snapshot   Snapshot   `json:"-"`
	Completion Completion `json:"completion"`
	Health     int        `json:"health_score"`
	Risk       Risk       `json:"risk"`
	NextAction Action     `json:"next_best_action"`
}

func (svc *Service) Status(ctx context.Context, userID string) (Status, error) {
	s, err := svc.Snapshot(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	c := Score(s)
	return Status{
		Snapshot:   s,
		Completion: c,
		Health:     HealthScore(c),
		Risk:       ClassifyRisk(s.FeePercentage(), s.PendingDocuments),
		NextAction: NextBestAction(c),
	}, nil
}

func (svc *Service) Score(ctx context.Context, userID string) (Completion, error) {
	s, err := svc.Snapshot(ctx, userID)
	if err != nil {
		return Completion{}, err
	}
	return Score(s), nil
}

type Overview struct {
	Status
	UnreadNotifications int `json:"unread_notifications"`
}

// Overview is the student dashboard.
func (svc *Service) Overview(ctx context.Context, userID string) (Overview, error) {
	st, err := svc.Status(ctx, userID)
	if err != nil {
		return Overview{}, err
	}
	unread, err := svc.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return Overview{}, errors.Wrap(err, "counting unread notifications")
	}
	return Overview{Status: st, UnreadNotifications: unread}, nil
}

type (
	StudentSummary struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Email       string  `json:"email"`
		StudentID   string  `json:"student_id,omitempty"`
		Completion  float64 `json:"completion"`
		HealthScore int     `json:"health_score"`
		Risk        Risk    `json:"risk"`

		sections Completion
	}

	SectionMetric struct {
		Complete int `json:"complete"`
		Pending  int `json:"pending"`
	}

	ChartData struct {
		Labels   []string `json:"labels"`
		Complete []int    `json:"complete"`
		Pending  []int    `json:"pending"`
	}

	AdminDashboard struct {
		TotalStudents     int                       `json:"total_students"`
		AverageCompletion float64                   `json:"average_completion"`
		RiskStudents      []StudentSummary          `json:"risk_students"`
		SectionMetrics    map[Section]SectionMetric `json:"section_metrics"`
		ChartData         ChartData                 `json:"chart_data"`
	}
)

// Students summarizes the onboarding of every student.
func (svc *Service) Students(ctx context.Context) ([]StudentSummary, error) {
	students, err := svc.students.QueryStudents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	summaries := make([]StudentSummary, 0, len(students))
	for _, usr := range students {
		st, err := svc.Status(ctx, usr.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, StudentSummary{
			ID:          usr.ID,
			Name:        usr.FullName,
			Email:       usr.Email,
			StudentID:   usr.StudentID,
			Completion:  st.Completion.Total,
			HealthScore: st.Health,
			Risk:        st.Risk,
			sections:    st.Completion,
		})
	}
	return summaries, nil
}

// AdminDashboard aggregates completion & risk over all students.
func (svc *Service) AdminDashboard(ctx context.Context) (AdminDashboard, error) {
	summaries, err := svc.Students(ctx)
	if err != nil {
		return AdminDashboard{}, err
	}

	dash := AdminDashboard{
		TotalStudents:  len(summaries),
		RiskStudents:   []StudentSummary{},
		SectionMetrics: make(map[Section]SectionMetric, len(Sections)),
		ChartData: ChartData{
			Labels:   []string{"Documents", "Fees", "Courses", "Hostel"},
			Complete: make([]int, len(Sections)),
			Pending:  make([]int, len(Sections)),
		},
	}

	sum := decimal.Zero
	for _, s := range summaries {
		sum = sum.Add(decimal.NewFromFloat(s.Completion))
		if s.Risk.AtRisk() && len(dash.RiskStudents) < maxRiskStudents {
			dash.RiskStudents = append(dash.RiskStudents, s)
		}
		for i, sec := range Sections {
			if s.sections.IsComplete(sec) {
				dash.ChartData.Complete[i]++
			} else {
				dash.ChartData.Pending[i]++
			}
		}
	}
	if len(summaries) > 0 {
		dash.AverageCompletion = core.Round(sum.Div(decimal.NewFromInt(int64(len(summaries)))).InexactFloat64(), 2)
	}
	for i, sec := range Sections {
		dash.SectionMetrics[sec] = SectionMetric{Complete: dash.ChartData.Complete[i], Pending: dash.ChartData.Pending[i]}
	}
	return dash, nil
}
