// Package social maintains the current user's follower/following sets so
// membership tests never need a remote round-trip on render.
package social

import (
	"context"
	"sync"

	"dreamlog-client/application/ports"
	"dreamlog-client/domain"
	apperrors "dreamlog-client/pkg/errors"

	"go.uber.org/zap"
)

// GraphCache holds the session's view of the social graph. Follow and
// unfollow mutate the local set optimistically and roll back on remote
// failure, mirroring the entry-store reconciliation discipline.
type GraphCache struct {
	userID  string
	gateway ports.RemoteGateway
	logger  *zap.Logger

	mu        sync.RWMutex
	following map[string]struct{}
	followers map[string]struct{}

	// Display-only counts of third-party users, fetched lazily and never
	// invalidated. Staleness is acceptable here.
	statsMu sync.Mutex
	stats   map[string]domain.SocialStats

	inFlightMu sync.Mutex
	inFlight   map[string]struct{}
}

// NewGraphCache creates an empty cache for the given session user.
func NewGraphCache(userID string, gateway ports.RemoteGateway, logger *zap.Logger) *GraphCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphCache{
		userID:    userID,
		gateway:   gateway,
		logger:    logger,
		following: make(map[string]struct{}),
		followers: make(map[string]struct{}),
		stats:     make(map[string]domain.SocialStats),
		inFlight:  make(map[string]struct{}),
	}
}

// Load fetches both sides of the graph and replaces the local sets.
func (c *GraphCache) Load(ctx context.Context) error {
	following, err := c.gateway.FetchFollowing(ctx, c.userID)
	if err != nil {
		return apperrors.Wrap(err, "loading following set")
	}
	followers, err := c.gateway.FetchFollowers(ctx, c.userID)
	if err != nil {
		return apperrors.Wrap(err, "loading follower set")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.following = make(map[string]struct{}, len(following))
	for _, user := range following {
		c.following[user.ID] = struct{}{}
	}
	c.followers = make(map[string]struct{}, len(followers))
	for _, user := range followers {
		c.followers[user.ID] = struct{}{}
	}
	return nil
}

// IsFollowing is a pure membership test against the local set.
func (c *GraphCache) IsFollowing(targetID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.following[targetID]
	return ok
}

// IsFollowedBy reports whether targetID follows the session user.
func (c *GraphCache) IsFollowedBy(targetID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.followers[targetID]
	return ok
}

// FollowingCount returns the size of the local following set.
func (c *GraphCache) FollowingCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.following)
}

// FollowerCount returns the size of the local follower set.
func (c *GraphCache) FollowerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.followers)
}

// Follow adds the edge optimistically, then confirms it remotely. A
// duplicate-edge conflict means the edge already exists, which is the
// desired end state, so it counts as success.
func (c *GraphCache) Follow(ctx context.Context, targetID string) error {
	if err := c.acquire(targetID); err != nil {
		return err
	}
	defer c.release(targetID)

	c.mu.Lock()
	_, existed := c.following[targetID]
	c.following[targetID] = struct{}{}
	c.mu.Unlock()

	err := c.gateway.Follow(ctx, c.userID, targetID)
	if err != nil && !apperrors.IsConflict(err) {
		c.mu.Lock()
		if !existed {
			delete(c.following, targetID)
		}
		c.mu.Unlock()
		c.logger.Warn("follow rolled back",
			zap.String("target_id", targetID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Unfollow removes the edge optimistically, restoring it on remote failure.
func (c *GraphCache) Unfollow(ctx context.Context, targetID string) error {
	if err := c.acquire(targetID); err != nil {
		return err
	}
	defer c.release(targetID)

	c.mu.Lock()
	_, existed := c.following[targetID]
	delete(c.following, targetID)
	c.mu.Unlock()

	err := c.gateway.Unfollow(ctx, c.userID, targetID)
	if err != nil && !apperrors.IsConflict(err) {
		c.mu.Lock()
		if existed {
			c.following[targetID] = struct{}{}
		}
		c.mu.Unlock()
		c.logger.Warn("unfollow rolled back",
			zap.String("target_id", targetID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// StatsFor returns the follower/following counts of a third-party user,
// fetching them on first use and caching them for the session.
func (c *GraphCache) StatsFor(ctx context.Context, userID string) (domain.SocialStats, error) {
	c.statsMu.Lock()
	if cached, ok := c.stats[userID]; ok {
		c.statsMu.Unlock()
		return cached, nil
	}
	c.statsMu.Unlock()

	followers, err := c.gateway.FetchFollowers(ctx, userID)
	if err != nil {
		return domain.SocialStats{}, apperrors.Wrap(err, "fetching follower stats")
	}
	following, err := c.gateway.FetchFollowing(ctx, userID)
	if err != nil {
		return domain.SocialStats{}, apperrors.Wrap(err, "fetching following stats")
	}

	stats := domain.SocialStats{
		Followers: len(followers),
		Following: len(following),
	}
	c.statsMu.Lock()
	c.stats[userID] = stats
	c.statsMu.Unlock()
	return stats, nil
}

// acquire serializes follow mutations per target, matching the engine's
// per-key discipline.
func (c *GraphCache) acquire(targetID string) error {
	c.inFlightMu.Lock()
	defer c.inFlightMu.Unlock()
	if _, busy := c.inFlight[targetID]; busy {
		return apperrors.NewInFlightError(c.userID + "/" + targetID)
	}
	c.inFlight[targetID] = struct{}{}
	return nil
}

func (c *GraphCache) release(targetID string) {
	c.inFlightMu.Lock()
	defer c.inFlightMu.Unlock()
	delete(c.inFlight, targetID)
}
