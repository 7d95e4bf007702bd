package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	ut "github.com/go-playground/universal-translator"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/assistant"
	"github.com/trezcool/campusflow/core/course"
	"github.com/trezcool/campusflow/core/document"
	"github.com/trezcool/campusflow/core/fee"
	"github.com/trezcool/campusflow/core/hostel"
	"github.com/trezcool/campusflow/core/notification"
	"github.com/trezcool/campusflow/core/onboarding"
	"github.com/trezcool/campusflow/core/user"
	emailsvc "github.com/trezcool/campusflow/services/email"
	logsvc "github.com/trezcool/campusflow/services/logger"
	inmemdb "github.com/trezcool/campusflow/storage/database/inmem"
)

// Env is a complete set of services backed by in-memory storage.
type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	Mail       *emailsvc.ConsoleServiceMock
	Validate   *validator.Validate
	Translator ut.Translator

	UserRepo         user.Repository
	DocumentRepo     document.Repository
	FeeRepo          fee.Repository
	CourseRepo       course.Repository
	HostelRepo       hostel.Repository
	NotificationRepo notification.Repository

	Users         *user.Service
	Notifications *notification.Service
	Documents     *document.Service
	Fees          *fee.Service
	Courses       *course.Service
	Hostels       *hostel.Service
	Onboarding    *onboarding.Service
	Assistant     *assistant.Service
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	env := &Env{Conf: core.NewTestConfig(), Logger: logsvc.NewTestLogger()}
	env.Conf.UploadsDir = t.TempDir()
	env.Mail = emailsvc.NewConsoleServiceMock(env.Conf, env.Logger)
	env.Translator = core.NewTranslator()
	env.Validate = core.NewValidator(env.Translator)
	user.RegisterValidators(env.Validate, env.Translator)

	db := inmemdb.Open()
	env.UserRepo = inmemdb.NewUserRepository(db)
	env.DocumentRepo = inmemdb.NewDocumentRepository(db)
	env.FeeRepo = inmemdb.NewFeeRepository(db)
	env.CourseRepo = inmemdb.NewCourseRepository(db)
	env.HostelRepo = inmemdb.NewHostelRepository(db)
	env.NotificationRepo = inmemdb.NewNotificationRepository(db)

	// notifications are not mirrored by email: Mail only sees account emails
	env.Notifications = notification.NewService(env.NotificationRepo, env.UserRepo, nil, env.Logger)
	env.Documents = document.NewService(env.DocumentRepo, env.Notifications)
	env.Fees = fee.NewService(env.FeeRepo, env.Notifications)
	env.Courses = course.NewService(env.CourseRepo, env.Fees, env.Notifications)
	env.Hostels = hostel.NewService(env.HostelRepo, env.Notifications)
	env.Users = user.NewService(env.Conf, env.UserRepo, env.Mail, env.Documents, env.Fees)
	env.Onboarding = onboarding.NewService(env.Users, env.Documents, env.Fees, env.Courses, env.Hostels, env.Notifications)
	env.Assistant = assistant.NewService(inmemdb.NewConversationRepository(db), env.Onboarding)
	return env
}

// CreateUser stores a User directly, without provisioning.
func CreateUser(t *testing.T, repo user.Repository, name, email, pwd string, role user.Role, createdAt ...time.Time) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FullName:  name,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// RegisterStudent registers a student the way the API does, provisioning their documents & fee.
func (env *Env) RegisterStudent(t *testing.T, name, email string) user.User {
	t.Helper()

	usr, err := env.Users.Register(context.Background(), user.NewUser{
		Email:    email,
		Password: "Pa$$w0rd!",
		FullName: name,
	})
	if err != nil {
		t.Fatalf("registerStudent() failed: %v", err)
	}
	return usr
}

// CreateAdmin stores an admin User.
func (env *Env) CreateAdmin(t *testing.T) user.User {
	t.Helper()
	return CreateUser(t, env.UserRepo, "Admin", "admin@example.com", "Pa$$w0rd!", user.RoleAdmin)
}

// SeedCourses adds n courses to the catalog and returns them.
func (env *Env) SeedCourses(t *testing.T, n int) []course.Course {
	t.Helper()

	courses := make([]course.Course, 0, n)
	for i := 0; i < n; i++ {
		c, err := env.CourseRepo.CreateCourse(context.Background(), course.Course{
			Code:      "CS" + string(rune('A'+i)),
			Name:      "Course " + string(rune('A'+i)),
			Credits:   3,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("seedCourses() failed: %v", err)
		}
		courses = append(courses, c)
	}
	return courses
}

// Pay records a payment, failing the test on error.
func (env *Env) Pay(t *testing.T, userID string, amount float64) fee.Receipt {
	t.Helper()

	r, err := env.Fees.Pay(context.Background(), userID, fee.Payment{Amount: amount})
	if err != nil {
		t.Fatalf("pay() failed: %v", err)
	}
	return r
}
