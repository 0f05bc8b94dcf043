package gateway

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"dreamlog-client/application/ports"
	"dreamlog-client/domain"
	apperrors "dreamlog-client/pkg/errors"
	"dreamlog-client/pkg/observability"
)

// BreakerConfig tunes the circuit breaker guarding the remote backend.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns settings tolerant enough that a single flaky
// call does not cut the whole session off the backend.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// ResilientGateway decorates another gateway with a circuit breaker and call
// metrics. Conflict, not-found and validation results are definitive answers
// from the backend, not failures, so they never trip the breaker.
type ResilientGateway struct {
	next    ports.RemoteGateway
	cb      *gobreaker.CircuitBreaker
	metrics *observability.Collector
	logger  *zap.Logger
}

var _ ports.RemoteGateway = (*ResilientGateway)(nil)

// NewResilientGateway wraps next with breaker and metrics instrumentation.
func NewResilientGateway(next ports.RemoteGateway, cfg BreakerConfig, metrics *observability.Collector, logger *zap.Logger) *ResilientGateway {
	log := logger.Named("breaker")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remote-gateway",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return apperrors.IsConflict(err) ||
				apperrors.IsNotFound(err) ||
				apperrors.IsValidation(err)
		},
	})

	return &ResilientGateway{
		next:    next,
		cb:      cb,
		metrics: metrics,
		logger:  log,
	}
}

// execute funnels one call through the breaker and records its outcome.
func (r *ResilientGateway) execute(operation string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()
	result, err := r.cb.Execute(fn)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		r.metrics.ObserveGatewayCall(operation, "ok", elapsed)
	case err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests:
		r.metrics.ObserveGatewayCall(operation, "rejected", elapsed)
		return nil, apperrors.NewUnavailableError("remote backend")
	case apperrors.IsConflict(err):
		r.metrics.ObserveGatewayCall(operation, "conflict", elapsed)
	case apperrors.IsNotFound(err):
		r.metrics.ObserveGatewayCall(operation, "not_found", elapsed)
	default:
		r.metrics.ObserveGatewayCall(operation, "error", elapsed)
	}
	return result, err
}

func (r *ResilientGateway) FetchOwnEntries(ctx context.Context, userID string) ([]domain.Entry, error) {
	result, err := r.execute("fetch_own_entries", func() (interface{}, error) {
		return r.next.FetchOwnEntries(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Entry), nil
}

func (r *ResilientGateway) FetchPublicEntries(ctx context.Context, userID string, filter ports.PublicFilter) ([]domain.Entry, error) {
	result, err := r.execute("fetch_public_entries", func() (interface{}, error) {
		return r.next.FetchPublicEntries(ctx, userID, filter)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Entry), nil
}

func (r *ResilientGateway) FetchEntryByID(ctx context.Context, entryID string) (*domain.Entry, error) {
	result, err := r.execute("fetch_entry", func() (interface{}, error) {
		return r.next.FetchEntryByID(ctx, entryID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Entry), nil
}

func (r *ResilientGateway) CreateEntry(ctx context.Context, userID string, input domain.EntryInput) (*domain.Entry, error) {
	result, err := r.execute("create_entry", func() (interface{}, error) {
		return r.next.CreateEntry(ctx, userID, input)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Entry), nil
}

func (r *ResilientGateway) UpdateEntry(ctx context.Context, entryID, userID string, input domain.EntryInput) (*domain.Entry, error) {
	result, err := r.execute("update_entry", func() (interface{}, error) {
		return r.next.UpdateEntry(ctx, entryID, userID, input)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Entry), nil
}

func (r *ResilientGateway) DeleteEntry(ctx context.Context, entryID, userID string) error {
	_, err := r.execute("delete_entry", func() (interface{}, error) {
		return nil, r.next.DeleteEntry(ctx, entryID, userID)
	})
	return err
}

func (r *ResilientGateway) SetVisibility(ctx context.Context, entryID, userID string, public bool) error {
	_, err := r.execute("set_visibility", func() (interface{}, error) {
		return nil, r.next.SetVisibility(ctx, entryID, userID, public)
	})
	return err
}

func (r *ResilientGateway) SearchEntries(ctx context.Context, userID, term string) ([]domain.Entry, error) {
	result, err := r.execute("search_entries", func() (interface{}, error) {
		return r.next.SearchEntries(ctx, userID, term)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Entry), nil
}

func (r *ResilientGateway) SetLike(ctx context.Context, entryID, userID string, liked bool) (*domain.LikeState, error) {
	result, err := r.execute("set_like", func() (interface{}, error) {
		return r.next.SetLike(ctx, entryID, userID, liked)
	})
	if err != nil {
		return nil, err
	}
	// A nil state is a valid "no correction" answer.
	state, _ := result.(*domain.LikeState)
	return state, nil
}

func (r *ResilientGateway) FetchLikeState(ctx context.Context, entryID, userID string) (*domain.LikeState, error) {
	result, err := r.execute("fetch_like_state", func() (interface{}, error) {
		return r.next.FetchLikeState(ctx, entryID, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.LikeState), nil
}

func (r *ResilientGateway) Follow(ctx context.Context, followerID, followeeID string) error {
	_, err := r.execute("follow", func() (interface{}, error) {
		return nil, r.next.Follow(ctx, followerID, followeeID)
	})
	return err
}

func (r *ResilientGateway) Unfollow(ctx context.Context, followerID, followeeID string) error {
	_, err := r.execute("unfollow", func() (interface{}, error) {
		return nil, r.next.Unfollow(ctx, followerID, followeeID)
	})
	return err
}

func (r *ResilientGateway) FetchFollowers(ctx context.Context, userID string) ([]domain.User, error) {
	result, err := r.execute("fetch_followers", func() (interface{}, error) {
		return r.next.FetchFollowers(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.User), nil
}

func (r *ResilientGateway) FetchFollowing(ctx context.Context, userID string) ([]domain.User, error) {
	result, err := r.execute("fetch_following", func() (interface{}, error) {
		return r.next.FetchFollowing(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.User), nil
}

func (r *ResilientGateway) IncrementView(ctx context.Context, entryID string) error {
	_, err := r.execute("increment_view", func() (interface{}, error) {
		return nil, r.next.IncrementView(ctx, entryID)
	})
	return err
}

func (r *ResilientGateway) ListComments(ctx context.Context, entryID string) ([]domain.Comment, error) {
	result, err := r.execute("list_comments", func() (interface{}, error) {
		return r.next.ListComments(ctx, entryID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Comment), nil
}

func (r *ResilientGateway) PostComment(ctx context.Context, authorID string, input domain.CommentInput) (*domain.Comment, error) {
	result, err := r.execute("post_comment", func() (interface{}, error) {
		return r.next.PostComment(ctx, authorID, input)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Comment), nil
}

func (r *ResilientGateway) DeleteComment(ctx context.Context, commentID, userID string) error {
	_, err := r.execute("delete_comment", func() (interface{}, error) {
		return nil, r.next.DeleteComment(ctx, commentID, userID)
	})
	return err
}

func (r *ResilientGateway) RequestInterpretation(ctx context.Context, entryID, body string) (*domain.Interpretation, error) {
	result, err := r.execute("request_interpretation", func() (interface{}, error) {
		return r.next.RequestInterpretation(ctx, entryID, body)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Interpretation), nil
}
