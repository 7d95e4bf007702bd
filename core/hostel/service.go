package hostel

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/notification"
	"github.com/trezcool/campusflow/core/user"
)

const (
	dateLayout      = "2006-01-02"
	attendanceLimit = 30
	recentDays      = 14
)

var (
	// errors
	ErrApplicationNotFound = core.NewError(core.ErrNotFound, "hostel application not found")
	ErrAlreadyApplied      = core.NewError(core.ErrAlreadyExists, "hostel application already submitted")
	ErrHostelExists        = core.NewError(core.ErrAlreadyExists, "a hostel with this name already exists")
	ErrNotPending          = core.NewError(core.ErrInvalidState, "hostel application already processed")
	ErrNotAllocated        = core.NewError(core.ErrInvalidState, "hostel not allocated yet")
	ErrNotHosteller        = core.NewError(core.ErrForbidden, "not a hosteller")

	// ErrMessRegistered is returned by a repeat RegisterMess: registration happens once.
	ErrMessRegistered = core.NewError(core.ErrInvalidState, "mess already registered")

	// ErrStateChanged is returned by the Repository when a conditional update matched nothing.
	ErrStateChanged = core.NewError(core.ErrInvalidState, "hostel application changed concurrently")

	link = "/hostel"
)

type (
	Repository interface {
		// CreateHostel fails with ErrHostelExists if the name is taken.
		CreateHostel(ctx context.Context, h Hostel) (Hostel, error)
		QueryHostels(ctx context.Context) ([]Hostel, error)

		// CreateApplication fails with ErrAlreadyApplied if the User already has an Application.
		CreateApplication(ctx context.Context, a Application) (Application, error)
		GetApplicationByID(ctx context.Context, id string) (Application, error)
		GetApplicationByUserID(ctx context.Context, userID string) (Application, error)
		QueryApplications(ctx context.Context, status Status) ([]Application, error)
		// DecideApplication moves a pending Application to `to` (allocated|rejected);
		// fails with ErrStateChanged if the Application is no longer pending.
		DecideApplication(ctx context.Context, id string, to Status, al Allocation, now time.Time) (Application, error)
		// RegisterMess flips the mess registration of an allocated Application;
		// fails with ErrStateChanged if it is not allocated or already registered.
		RegisterMess(ctx context.Context, userID string) (Application, error)

		// UpsertAttendance records the attendance of a User for a day, replacing any previous record.
		UpsertAttendance(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error)
		// QueryAttendance returns the User's records from `since` (YYYY-MM-DD, empty for all), latest first.
		QueryAttendance(ctx context.Context, userID, since string, limit int) ([]AttendanceRecord, error)
	}

	Service struct {
		repo     Repository
		notifier notification.Notifier
	}
)

func NewService(repo Repository, notifier notification.Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Catalog

func (svc *Service) QueryHostels(ctx context.Context) ([]Hostel, error) {
	hostels, err := svc.repo.QueryHostels(ctx)
	if hostels == nil {
		hostels = []Hostel{}
	}
	return hostels, errors.Wrap(err, "querying hostels")
}

// CreateHostel adds a Hostel to the catalog; admins only.
func (svc *Service) CreateHostel(ctx context.Context, actor user.User, nh NewHostel) (Hostel, error) {
	if !actor.IsAdmin() {
		return Hostel{}, core.NewError(core.ErrForbidden, "permission denied")
	}
	return svc.createHostel(ctx, nh)
}

func (svc *Service) createHostel(ctx context.Context, nh NewHostel) (Hostel, error) {
	h, err := svc.repo.CreateHostel(ctx, Hostel{
		Name:           nh.Name,
		Capacity:       nh.Capacity,
		AvailableRooms: nh.AvailableRooms,
		CreatedAt:      time.Now().UTC(),
	})
	return h, errors.Wrap(err, "creating hostel")
}

// Seed adds the given hostels when the catalog is empty.
func (svc *Service) Seed(ctx context.Context, catalog []NewHostel) (int, error) {
	existing, err := svc.repo.QueryHostels(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying hostels")
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, nh := range catalog {
		if _, err := svc.createHostel(ctx, nh); err != nil {
			return i, err
		}
	}
	return len(catalog), nil
}

// Applications

// Find returns the User's Application, or nil if they have not applied.
func (svc *Service) Find(ctx context.Context, userID string) (*Application, error) {
	app, err := svc.repo.GetApplicationByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrApplicationNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "finding hostel application")
	}
	return &app, nil
}

// View returns the User's application status & recent attendance.
func (svc *Service) View(ctx context.Context, userID string) (View, error) {
	v := View{Status: NotApplied, Attendance: []AttendanceRecord{}}
	app, err := svc.Find(ctx, userID)
	if err != nil || app == nil {
		return v, err
	}
	v.Application = app
	v.Status = string(app.Status)
	v.IsHosteller = app.IsHosteller()

	since := time.Now().UTC().AddDate(0, 0, -recentDays).Format(dateLayout)
	records, err := svc.repo.QueryAttendance(ctx, userID, since, recentDays)
	if err != nil {
		return View{}, errors.Wrap(err, "querying attendance")
	}
	if records != nil {
		v.Attendance = records
	}
	return v, nil
}

// Apply submits the User's hostel application.
func (svc *Service) Apply(ctx context.Context, userID string, prefs Preferences) (Application, error) {
	app, err := svc.repo.CreateApplication(ctx, Application{
		UserID:           userID,
		Preferences:      prefs,
		Status:           StatusPending,
		MessRegistration: MessNotRegistered,
		AppliedAt:        time.Now().UTC(),
	})
	if err != nil {
		return Application{}, errors.Wrap(err, "creating hostel application")
	}

	svc.notifier.Notify(ctx, notification.NewNotification{
		UserID:  userID,
		Title:   "Hostel Application Submitted",
		Message: "Your hostel application has been submitted successfully.",
		Type:    notification.TypeTaskCompletion,
		Link:    link,
	})
	return app, nil
}

// QueryApplications lists applications with the given status (all if empty); admins only.
func (svc *Service) QueryApplications(ctx context.Context, actor user.User, status Status) ([]Application, error) {
	if !actor.IsAdmin() {
		return nil, core.NewError(core.ErrForbidden, "permission denied")
	}
	if status != "" && !status.Valid() {
		return nil, core.NewError(core.ErrInvalidArgument, "invalid status")
	}
	apps, err := svc.repo.QueryApplications(ctx, status)
	if apps == nil {
		apps = []Application{}
	}
	return apps, errors.Wrap(err, "querying hostel applications")
}

// Allocate assigns a hostel & room to a pending application; admins only.
func (svc *Service) Allocate(ctx context.Context, actor user.User, id string, al Allocation) (Application, error) {
	app, err := svc.decide(ctx, actor, id, StatusAllocated, al)
	if err != nil {
		return Application{}, err
	}

	svc.notifier.Notify(ctx, notification.NewNotification{
		UserID:  app.UserID,
		Title:   "Hostel Allocated",
		Message: fmt.Sprintf("Your hostel application has been approved. Hostel: %s, Room: %s", al.HostelName, al.RoomNumber),
		Type:    notification.TypeTaskCompletion,
		Link:    link,
	})
	return app, nil
}

// Reject turns down a pending application; admins only.
func (svc *Service) Reject(ctx context.Context, actor user.User, id string) (Application, error) {
	app, err := svc.decide(ctx, actor, id, StatusRejected, Allocation{})
	if err != nil {
		return Application{}, err
	}

	svc.notifier.Notify(ctx, notification.NewNotification{
		UserID:  app.UserID,
		Title:   "Hostel Application Rejected",
		Message: "Your hostel application has been rejected. Please contact the hostel office.",
		Type:    notification.TypeRisk,
		Link:    link,
	})
	return app, nil
}

func (svc *Service) decide(ctx context.Context, actor user.User, id string, to Status, al Allocation) (Application, error) {
	if !actor.IsAdmin() {
		return Application{}, core.NewError(core.ErrForbidden, "permission denied")
	}
	app, err := svc.repo.GetApplicationByID(ctx, id)
	if err != nil {
		return Application{}, errors.Wrap(err, "finding hostel application by ID")
	}
	if !app.Status.CanDecide() {
		return Application{}, ErrNotPending
	}
	app, err = svc.repo.DecideApplication(ctx, id, to, al, time.Now().UTC())
	if err != nil {
		if errors.Is(err, ErrStateChanged) {
			return Application{}, ErrNotPending
		}
		return Application{}, errors.Wrap(err, "deciding hostel application")
	}
	return app, nil
}

// RegisterMess registers the User of an allocated application for the mess.
func (svc *Service) RegisterMess(ctx context.Context, userID string) (Application, error) {
	app, err := svc.repo.GetApplicationByUserID(ctx, userID)
	if err != nil {
		return Application{}, errors.Wrap(err, "finding hostel application")
	}
	switch {
	case app.Status != StatusAllocated:
		return Application{}, ErrNotAllocated
	case app.MessRegistration == MessRegistered:
		return Application{}, ErrMessRegistered
	}

	app, err = svc.repo.RegisterMess(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrStateChanged) {
			return Application{}, ErrMessRegistered
		}
		return Application{}, errors.Wrap(err, "registering mess")
	}

	svc.notifier.Notify(ctx, notification.NewNotification{
		UserID:  userID,
		Title:   "Mess Registration",
		Message: "Your mess registration is successful.",
		Type:    notification.TypeTaskCompletion,
		Link:    link,
	})
	return app, nil
}

// Attendance

func (svc *Service) requireHosteller(ctx context.Context, userID string) error {
	app, err := svc.Find(ctx, userID)
	if err != nil {
		return err
	}
	if !app.IsHosteller() {
		return ErrNotHosteller
	}
	return nil
}

// MarkAttendance records the User's attendance for a day; hostellers only.
func (svc *Service) MarkAttendance(ctx context.Context, userID string, ma MarkAttendance) (AttendanceRecord, error) {
	if err := ma.Clean(); err != nil {
		return AttendanceRecord{}, err
	}
	if err := svc.requireHosteller(ctx, userID); err != nil {
		return AttendanceRecord{}, err
	}
	rec, err := svc.repo.UpsertAttendance(ctx, AttendanceRecord{
		UserID:   userID,
		Date:     ma.Date,
		Status:   ma.Status,
		MarkedAt: time.Now().UTC(),
	})
	if err != nil {
		return AttendanceRecord{}, errors.Wrap(err, "marking attendance")
	}

	svc.notifier.Notify(ctx, notification.NewNotification{
		UserID:  userID,
		Title:   "Attendance Marked",
		Message: fmt.Sprintf("Your attendance for %s was marked %s.", rec.Date, rec.Status),
		Type:    notification.TypeInfo,
		Link:    link,
	})
	return rec, nil
}

// Attendance returns the User's latest attendance records; hostellers only.
func (svc *Service) Attendance(ctx context.Context, userID string) ([]AttendanceRecord, error) {
	if err := svc.requireHosteller(ctx, userID); err != nil {
		return nil, err
	}
	records, err := svc.repo.QueryAttendance(ctx, userID, "", attendanceLimit)
	if records == nil {
		records = []AttendanceRecord{}
	}
	return records, errors.Wrap(err, "querying attendance")
}
