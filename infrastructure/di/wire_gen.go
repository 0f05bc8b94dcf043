// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"dreamlog-client/application/session"
	"dreamlog-client/infrastructure/config"
	"dreamlog-client/pkg/auth"
	"dreamlog-client/pkg/errors"
	"dreamlog-client/pkg/observability"
	"github.com/google/wire"
	"go.uber.org/zap"
	"net/http"
)

// Injectors from wire.go:

// InitializeContainer creates a fully wired container.
func InitializeContainer(cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	collector := ProvideMetrics()
	remoteGateway, err := ProvideGateway(cfg, collector, logger)
	if err != nil {
		return nil, err
	}
	manager := ProvideSessionManager(cfg, remoteGateway, collector, logger)
	validator, err := ProvideValidator(cfg)
	if err != nil {
		return nil, err
	}
	errorHandler := ProvideErrorHandler(cfg, logger)
	handler := ProvideRouter(manager, validator, errorHandler, collector, cfg, logger)
	container := &Container{
		Config:       cfg,
		Logger:       logger,
		Metrics:      collector,
		Sessions:     manager,
		Validator:    validator,
		ErrorHandler: errorHandler,
		Handler:      handler,
	}
	return container, nil
}

// wire.go:

// Container holds all application dependencies.
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *observability.Collector
	Sessions     *session.Manager
	Validator    *auth.Validator
	ErrorHandler *errors.ErrorHandler
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
	ProvideRouter, wire.Struct(new(Container), "*"),
)
