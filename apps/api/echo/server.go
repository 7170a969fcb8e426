package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/trezcool/ujenzi/core"
	"github.com/trezcool/ujenzi/core/crud"
	"github.com/trezcool/ujenzi/core/project"
	"github.com/trezcool/ujenzi/core/user"
)

// ServerDeps holds the dependencies of the API server.
type ServerDeps struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	UserSvc    user.Service
	ProjectSvc project.Service
	CrudSvc    *crud.Service
	Validate   *validator.Validate
	Translator ut.Translator
}

type Server struct {
	deps     ServerDeps
	app      *echo.Echo
	shutdown chan os.Signal
	errors   chan error
}

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.deps.Conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !s.deps.Conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.deps.Conf.Debug || s.deps.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.GET("/", s.home)

	jwt := newJWTMiddleware(s.deps.Conf)
	authed := userMiddleware(s.deps.UserSvc)

	registerUserAPI(s.app.Group(""), jwt, newOptionalJWTMiddleware(s.deps.Conf), authed, s.deps.Conf, s.deps.UserSvc, s.deps.Validate)
	registerCrudAPI(s.app.Group("/crud", jwt, authed), s.deps.CrudSvc)
	registerProjectAPI(s.app.Group("/api", jwt, authed), s.deps.ProjectSvc, s.deps.UserSvc, s.deps.Validate)
}

// Start listens on the configured address. Errors other than a closed server are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
