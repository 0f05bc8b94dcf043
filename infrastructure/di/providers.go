// Package di assembles the application graph. Providers are plain
// constructors; wire generates the assembly in wire_gen.go.
package di

import (
	"net/http"

	"go.uber.org/zap"

	"dreamlog-client/application/ports"
	"dreamlog-client/application/session"
	"dreamlog-client/infrastructure/config"
	"dreamlog-client/infrastructure/gateway"
	"dreamlog-client/interfaces/http/rest"
	"dreamlog-client/pkg/auth"
	apperrors "dreamlog-client/pkg/errors"
	"dreamlog-client/pkg/observability"
)

// ProvideLogger creates the process logger.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideMetrics creates the metrics collector.
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("dreamlog")
}

// ProvideGateway builds the remote gateway chain: Supabase access wrapped
// in the circuit breaker and call metrics.
func ProvideGateway(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) (ports.RemoteGateway, error) {
	base, err := gateway.NewSupabaseGateway(cfg, logger)
	if err != nil {
		return nil, err
	}
	return gateway.NewResilientGateway(base, gateway.DefaultBreakerConfig(), metrics, logger), nil
}

// ProvideSessionManager creates the per-user session manager.
func ProvideSessionManager(
	cfg *config.Config,
	gw ports.RemoteGateway,
	metrics *observability.Collector,
	logger *zap.Logger,
) *session.Manager {
	return session.NewManager(gw, cfg.PollInterval, metrics, logger)
}

// ProvideValidator creates the access token validator.
func ProvideValidator(cfg *config.Config) (*auth.Validator, error) {
	return auth.NewValidator(cfg.JWTSecret)
}

// ProvideErrorHandler creates the HTTP error handler. Debug output is only
// on outside production.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger, cfg.Environment != "production")
}

// ProvideRouter builds the HTTP surface.
func ProvideRouter(
	sessions *session.Manager,
	validator *auth.Validator,
	errorHandler *apperrors.ErrorHandler,
	metrics *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) http.Handler {
	return rest.NewRouter(sessions, validator, errorHandler, metrics, cfg, logger).Setup()
}
