// Package server exposes the loan intake HTTP surface over echo.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"loan-intake/internal/common/config"
	"loan-intake/internal/common/dispatch"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/models"
	sendnotification "loan-intake/internal/workers/application/send-notification"
	storeloandocument "loan-intake/internal/workers/application/store-loan-document"
	validateapplicationdata "loan-intake/internal/workers/application/validate-application-data"
	adminsession "loan-intake/internal/workers/auth/admin-session"
	sendautoreply "loan-intake/internal/workers/communication/send-auto-reply"

	"github.com/labstack/echo/v4"
)

type applicationValidator interface {
	Execute(ctx context.Context, input *validateapplicationdata.Input) (*validateapplicationdata.Output, error)
}

type documentStore interface {
	Execute(ctx context.Context, input *storeloandocument.Input) (*models.UploadedFile, error)
	Remove(file *models.UploadedFile)
}

type notifier interface {
	Execute(ctx context.Context, input *sendnotification.Input) (*sendnotification.Output, error)
}

type autoReplier interface {
	Execute(ctx context.Context, input *sendautoreply.Input) (*sendautoreply.Output, error)
}

type sessionGuard interface {
	Login(w http.ResponseWriter, r *http.Request, password string) (*adminsession.LoginOutput, error)
	Logout(w http.ResponseWriter, r *http.Request) (*adminsession.LogoutOutput, error)
	IsAuthenticated(r *http.Request) bool
	LoginPath() string
}

type taskQueue interface {
	Enqueue(name string, fn dispatch.TaskFunc) error
}

// Dependencies are the collaborators the routes delegate to.
type Dependencies struct {
	Validator    applicationValidator
	Documents    documentStore
	Notifier     notifier
	AutoReplier  autoReplier
	Sessions     sessionGuard
	Queue        taskQueue
	HealthChecks []HealthCheck
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger logger.Logger

	validator   applicationValidator
	documents   documentStore
	notifier    notifier
	autoReplier autoReplier
	sessions    sessionGuard
	queue       taskQueue

	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, deps Dependencies, log logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		logger:       log.WithFields(map[string]interface{}{"component": "http"}),
		validator:    deps.Validator,
		documents:    deps.Documents,
		notifier:     deps.Notifier,
		autoReplier:  deps.AutoReplier,
		sessions:     deps.Sessions,
		queue:        deps.Queue,
		healthChecks: deps.HealthChecks,
		startTime:    time.Now(),
	}

	e.HTTPErrorHandler = srv.httpErrorHandler
	srv.registerRoutes()

	return srv
}

// ServeHTTP lets the server be driven directly by httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start() error {
	s.logger.Info("starting server", map[string]interface{}{"address": s.config.Server.Address()})
	if err := s.echo.Start(s.config.Server.Address()); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
