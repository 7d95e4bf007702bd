package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/campusflow/apps/api/echo"
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
	filesvc "github.com/trezcool/campusflow/services/files"
	logsvc "github.com/trezcool/campusflow/services/logger"
	"github.com/trezcool/campusflow/storage/database/mongodb"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	serverParams struct {
		dig.In
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Files      *filesvc.LocalStore
		DB         *mongodb.DB
		Users      *user.Service
		Documents  *document.Service
		Fees       *fee.Service
		Courses    *course.Service
		Hostels    *hostel.Service
		Notifs     *notification.Service
		Onboarding *onboarding.Service
		Assistant  *assistant.Service
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *mongodb.DB {
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.ConnectTimeout)
	defer cancel()

	db, err := mongodb.Open(ctx, conf)
	if err == nil {
		err = db.EnsureIndexes(ctx)
	}
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := core.NewValidator(translator)
	user.RegisterValidators(validate, translator)
	return validate
}

func newNotifier(svc *notification.Service) notification.Notifier {
	return svc
}

func newCourseService(repo course.Repository, fees *fee.Service, notifier notification.Notifier) *course.Service {
	return course.NewService(repo, fees, notifier)
}

func newUserService(
	conf *core.Config,
	repo user.Repository,
	mailSvc core.EmailService,
	documents *document.Service,
	fees *fee.Service,
) *user.Service {
	return user.NewService(conf, repo, mailSvc, documents, fees)
}

func newOnboardingService(
	users *user.Service,
	documents *document.Service,
	fees *fee.Service,
	courses *course.Service,
	hostels *hostel.Service,
	notifs *notification.Service,
) *onboarding.Service {
	return onboarding.NewService(users, documents, fees, courses, hostels, notifs)
}

func newAssistantService(repo assistant.Repository, status *onboarding.Service) *assistant.Service {
	return assistant.NewService(repo, status)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Deps{
		Conf:            p.Conf,
		Logger:          p.Logger,
		Validate:        p.Validate,
		Translator:      p.Translator,
		Files:           p.Files,
		DB:              p.DB,
		UserSvc:         p.Users,
		DocumentSvc:     p.Documents,
		FeeSvc:          p.Fees,
		CourseSvc:       p.Courses,
		HostelSvc:       p.Hostels,
		NotificationSvc: p.Notifs,
		OnboardingSvc:   p.Onboarding,
		AssistantSvc:    p.Assistant,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(filesvc.NewLocalStore))

	// repositories
	must(c.Provide(mongodb.NewUserRepository))
	must(c.Provide(mongodb.NewDocumentRepository))
	must(c.Provide(mongodb.NewFeeRepository))
	must(c.Provide(mongodb.NewCourseRepository))
	must(c.Provide(mongodb.NewHostelRepository))
	must(c.Provide(mongodb.NewNotificationRepository))
	must(c.Provide(mongodb.NewConversationRepository))

	// services
	must(c.Provide(notification.NewService))
	must(c.Provide(newNotifier))
	must(c.Provide(document.NewService))
	must(c.Provide(fee.NewService))
	must(c.Provide(newCourseService))
	must(c.Provide(hostel.NewService))
	must(c.Provide(newUserService))
	must(c.Provide(newOnboardingService))
	must(c.Provide(newAssistantService))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
