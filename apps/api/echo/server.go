package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/assistant"
	"github.com/trezcool/campusflow/core/course"
	"github.com/trezcool/campusflow/core/document"
	"github.com/trezcool/campusflow/core/fee"
	"github.com/trezcool/campusflow/core/hostel"
	"github.com/trezcool/campusflow/core/notification"
	"github.com/trezcool/campusflow/core/onboarding"
	"github.com/trezcool/campusflow/core/user"
	filesvc "github.com/trezcool/campusflow/services/files"
)

type (
	// Pinger reports whether a backing service (eg. the database) is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	Deps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Files      *filesvc.LocalStore
		DB         Pinger // optional

		UserSvc         *user.Service
		DocumentSvc     *document.Service
		FeeSvc          *fee.Service
		CourseSvc       *course.Service
		HostelSvc       *hostel.Service
		NotificationSvc *notification.Service
		OnboardingSvc   *onboarding.Service
		AssistantSvc    *assistant.Service
	}

	Server struct {
		app      *echo.Echo
		deps     *Deps
		address  string
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(deps *Deps) *Server {
	s := &Server{
		app:      echo.New(),
		deps:     deps,
		address:  deps.Conf.Server.Address,
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     conf.Server.AllowedOrigins,
		AllowCredentials: true,
	}))
	// leave room for the multipart envelope around the largest allowed upload
	s.app.Use(middleware.BodyLimit(strconv.FormatInt(conf.MaxUploadSize/1024+1024, 10) + "K"))

	metrics := newMetrics()
	s.app.Use(metrics.middleware)

	s.app.GET("/", home)
	s.app.GET("/health", s.health)
	s.app.GET("/metrics", echo.WrapHandler(metrics.handler()))
	s.app.Static(filesvc.URLPrefix, s.deps.Files.Dir())

	api := s.app.Group("/api")
	auth := []echo.MiddlewareFunc{middleware.JWTWithConfig(jwtConfig(conf)), ctxUserMiddleware(s.deps.UserSvc)}

	registerAuthAPI(api, auth, s.deps)
	registerDashboardAPI(api, auth, s.deps)
	registerDocumentAPI(api, auth, s.deps)
	registerFeeAPI(api, auth, s.deps)
	registerCourseAPI(api, auth, s.deps)
	registerHostelAPI(api, auth, s.deps)
	registerNotificationAPI(api, auth, s.deps)
	registerAssistantAPI(api, auth, s.deps)
	registerProfileAPI(api, auth, s.deps)
	registerAdminAPI(api, auth, s.deps)
}

func (s *Server) Start() {
	s.deps.Logger.Info("API listening on " + s.address)
	if err := s.app.Start(s.address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the app to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"message": "CampusFlow API", "status": "running"})
}

func (s *Server) health(ctx echo.Context) error {
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(ctx.Request().Context()); err != nil {
			s.deps.Logger.Warn("health check failed", err)
			return ctx.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unhealthy"})
		}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": "healthy"})
}
