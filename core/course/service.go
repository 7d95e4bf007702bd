package course

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/fee"
	"github.com/trezcool/campusflow/core/notification"
	"github.com/trezcool/campusflow/core/user"
)

var (
	// errors
	ErrNotFound             = core.NewError(core.ErrNotFound, "course not found")
	ErrCodeExists           = core.NewError(core.ErrAlreadyExists, "a course with this code already exists")
	ErrAlreadyRegistered    = core.NewError(core.ErrAlreadyExists, "already registered for this course")
	ErrRegistrationNotFound = core.NewError(core.ErrNotFound, "course registration not found")
	ErrFeeGate              = core.NewError(core.ErrForbidden, "Please complete at least 50% fee payment to register for courses")

	link = "/courses"
)

type (
	Repository interface {
		// CreateCourse fails with ErrCodeExists if the code is taken.
		CreateCourse(ctx context.Context, c Course) (Course, error)
		QueryCourses(ctx context.Context) ([]Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		// CreateRegistration fails with ErrAlreadyRegistered if the User already registered for the Course.
		CreateRegistration(ctx context.Context, r Registration) (Registration, error)
		QueryRegistrations(ctx context.Context, userID string) ([]Registration, error)
		// ActivateLMS fails with ErrRegistrationNotFound.
		ActivateLMS(ctx context.Context, userID, courseID string) (Registration, error)
	}

	// FeeFinder gives access to the fee of a User (nil if none).
	FeeFinder interface {
		Find(ctx context.Context, userID string) (*fee.Fee, error)
	}

	Service struct {
		repo     Repository
		fees     FeeFinder
		notifier notification.Notifier
	}
)

func NewService(repo Repository, fees FeeFinder, notifier notification.Notifier) *Service {
	return &Service{repo: repo, fees: fees, notifier: notifier}
}

func (svc *Service) Query(ctx context.Context) ([]Course, error) {
	courses, err := svc.repo.QueryCourses(ctx)
	if courses == nil {
		courses = []Course{}
	}
	return courses, errors.Wrap(err, "querying courses")
}

// Create adds a Course to the catalog; admins only.
func (svc *Service) Create(ctx context.Context, actor user.User, nc NewCourse) (Course, error) {
	if !actor.IsAdmin() {
		return Course{}, core.NewError(core.ErrForbidden, "permission denied")
	}
	return svc.create(ctx, nc)
}

func (svc *Service) create(ctx context.Context, nc NewCourse) (Course, error) {
	c, err := svc.repo.CreateCourse(ctx, Course{
		Code:        nc.Code,
		Name:        nc.Name,
		Credits:     nc.Credits,
		Description: nc.Description,
		CreatedAt:   time.Now().UTC(),
	})
	return c, errors.Wrap(err, "creating course")
}

// Seed adds the given courses when the catalog is empty.
func (svc *Service) Seed(ctx context.Context, catalog []NewCourse) (int, error) {
	existing, err := svc.repo.QueryCourses(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying courses")
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, nc := range catalog {
		if _, err := svc.create(ctx, nc); err != nil {
			return i, err
		}
	}
	return len(catalog), nil
}

func (svc *Service) feePercentage(ctx context.Context, userID string) (float64, error) {
	f, err := svc.fees.Find(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "finding fee")
	}
	return f.PaidPercentage(), nil
}

// Register registers the User for the given courses.
// Unknown and already registered ids are skipped; the ids actually registered are returned.
func (svc *Service) Register(ctx context.Context, userID string, courseIDs []string) (RegisterResult, error) {
	pct, err := svc.feePercentage(ctx, userID)
	if err != nil {
		return RegisterResult{}, err
	}
	if pct < MinFeePercentage {
		return RegisterResult{}, ErrFeeGate
	}

	registered := make([]string, 0, len(courseIDs))
	for _, id := range courseIDs {
		if _, err := svc.repo.GetCourseByID(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return RegisterResult{}, errors.Wrap(err, "finding course by ID")
		}
		_, err := svc.repo.CreateRegistration(ctx, Registration{
			UserID:       userID,
			CourseID:     id,
			RegisteredAt: time.Now().UTC(),
		})
		if err != nil {
			if errors.Is(err, ErrAlreadyRegistered) {
				continue
			}
			return RegisterResult{}, errors.Wrap(err, "creating registration")
		}
		registered = append(registered, id)
	}

	if len(registered) > 0 {
		svc.notifier.Notify(ctx, notification.NewNotification{
			UserID:  userID,
			Title:   "Course Registration",
			Message: fmt.Sprintf("Successfully registered for %d course(s).", len(registered)),
			Type:    notification.TypeTaskCompletion,
			Link:    link,
		})
	}
	return RegisterResult{
		Message: fmt.Sprintf("Registered for %d course(s)", len(registered)),
		Courses: registered,
	}, nil
}

// MyCourses lists the User's registrations; locked until MinFeePercentage of the fee is paid.
func (svc *Service) MyCourses(ctx context.Context, userID string) (MyCourses, error) {
	pct, err := svc.feePercentage(ctx, userID)
	if err != nil {
		return MyCourses{}, err
	}
	if pct < MinFeePercentage {
		return MyCourses{
			Courses:       []Enrolment{},
			Locked:        true,
			Message:       ErrFeeGate.Message,
			FeePercentage: core.Round(pct, 1),
		}, nil
	}

	regs, err := svc.repo.QueryRegistrations(ctx, userID)
	if err != nil {
		return MyCourses{}, errors.Wrap(err, "querying registrations")
	}
	mc := MyCourses{Courses: make([]Enrolment, 0, len(regs))}
	for _, r := range regs {
		c, err := svc.repo.GetCourseByID(ctx, r.CourseID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return MyCourses{}, errors.Wrap(err, "finding course by ID")
		}
		mc.Courses = append(mc.Courses, Enrolment{Registration: r, Course: c})
	}
	return mc, nil
}

// RegisteredCount is the number of courses the User registered for.
func (svc *Service) RegisteredCount(ctx context.Context, userID string) (int, error) {
	regs, err := svc.repo.QueryRegistrations(ctx, userID)
	return len(regs), errors.Wrap(err, "querying registrations")
}

func (svc *Service) ActivateLMS(ctx context.Context, userID, courseID string) (Registration, error) {
	r, err := svc.repo.ActivateLMS(ctx, userID, courseID)
	if err != nil {
		return Registration{}, errors.Wrap(err, "activating LMS")
	}

	svc.notifier.Notify(ctx, notification.NewNotification{
		UserID:  userID,
		Title:   "LMS Activated",
		Message: "Your LMS access has been activated.",
		Type:    notification.TypeInfo,
		Link:    link,
	})
	return r, nil
}
