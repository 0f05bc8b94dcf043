//go:build wireinject
// +build wireinject

package di

import (
	"net/http"

	"github.com/google/wire"
	"go.uber.org/zap"

	"dreamlog-client/application/session"
	"dreamlog-client/infrastructure/config"
	"dreamlog-client/pkg/auth"
	apperrors "dreamlog-client/pkg/errors"
	"dreamlog-client/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *observability.Collector
	Sessions     *session.Manager
	Validator    *auth.Validator
	ErrorHandler *apperrors.ErrorHandler
	Handler      http.Handler
}

// SuperSet is the main provider set.
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideGateway,
	ProvideSessionManager,
	ProvideValidator,
	ProvideErrorHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container.
func InitializeContainer(cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
