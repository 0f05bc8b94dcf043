package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dreamlog-client/domain"
	apperrors "dreamlog-client/pkg/errors"
	"dreamlog-client/tests/mocks"
)

func newTestCache(t *testing.T) (*GraphCache, *mocks.MockRemoteGateway) {
	t.Helper()
	gateway := new(mocks.MockRemoteGateway)
	return NewGraphCache("me", gateway, zap.NewNop()), gateway
}

func TestLoad_ReplacesBothSets(t *testing.T) {
	// Arrange
	cache, gateway := newTestCache(t)
	gateway.On("FetchFollowing", mock.Anything, "me").
		Return([]domain.User{{ID: "a"}, {ID: "b"}}, nil)
	gateway.On("FetchFollowers", mock.Anything, "me").
		Return([]domain.User{{ID: "c"}}, nil)

	// Act
	err := cache.Load(context.Background())

	// Assert
	require.NoError(t, err)
	assert.True(t, cache.IsFollowing("a"))
	assert.True(t, cache.IsFollowing("b"))
	assert.False(t, cache.IsFollowing("c"))
	assert.True(t, cache.IsFollowedBy("c"))
	assert.Equal(t, 2, cache.FollowingCount())
	assert.Equal(t, 1, cache.FollowerCount())
}

func TestLoad_PropagatesFetchFailure(t *testing.T) {
	// Arrange
	cache, gateway := newTestCache(t)
	gateway.On("FetchFollowing", mock.Anything, "me").
		Return(nil, apperrors.NewRemoteError("fetch following", assert.AnError))

	// Act
	err := cache.Load(context.Background())

	// Assert
	require.Error(t, err)
	assert.Equal(t, 0, cache.FollowingCount())
}

func TestFollow_AddsEdgeOptimistically(t *testing.T) {
	// Arrange
	cache, gateway := newTestCache(t)
	gateway.On("Follow", mock.Anything, "me", "target").Return(nil)

	// Act
	err := cache.Follow(context.Background(), "target")

	// Assert
	require.NoError(t, err)
	assert.True(t, cache.IsFollowing("target"))
	gateway.AssertExpectations(t)
}

func TestFollow_RollsBackOnRemoteFailure(t *testing.T) {
	// Arrange
	cache, gateway := newTestCache(t)
	gateway.On("Follow", mock.Anything, "me", "target").
		Return(apperrors.NewRemoteError("follow", assert.AnError))

	// Act
	err := cache.Follow(context.Background(), "target")

	// Assert
	require.Error(t, err)
	assert.False(t, cache.IsFollowing("target"))
}

func TestFollow_DuplicateEdgeConflictCountsAsSuccess(t *testing.T) {
	// Arrange: the edge already exists server-side, which is the desired end
	// state.
	cache, gateway := newTestCache(t)
	gateway.On("Follow", mock.Anything, "me", "target").
		Return(apperrors.NewConflictError("edge exists"))

	// Act
	err := cache.Follow(context.Background(), "target")

	// Assert
	require.NoError(t, err)
	assert.True(t, cache.IsFollowing("target"))
}

func TestUnfollow_RemovesEdgeOptimistically(t *testing.T) {
	// Arrange
	cache, gateway := newTestCache(t)
	gateway.On("FetchFollowing", mock.Anything, "me").
		Return([]domain.User{{ID: "target"}}, nil)
	gateway.On("FetchFollowers", mock.Anything, "me").
		Return([]domain.User{}, nil)
	require.NoError(t, cache.Load(context.Background()))
	gateway.On("Unfollow", mock.Anything, "me", "target").Return(nil)

	// Act
	err := cache.Unfollow(context.Background(), "target")

	// Assert
	require.NoError(t, err)
	assert.False(t, cache.IsFollowing("target"))
}

func TestUnfollow_RestoresEdgeOnRemoteFailure(t *testing.T) {
	// Arrange
	cache, gateway := newTestCache(t)
	gateway.On("FetchFollowing", mock.Anything, "me").
		Return([]domain.User{{ID: "target"}}, nil)
	gateway.On("FetchFollowers", mock.Anything, "me").
		Return([]domain.User{}, nil)
	require.NoError(t, cache.Load(context.Background()))
	gateway.On("Unfollow", mock.Anything, "me", "target").
		Return(apperrors.NewRemoteError("unfollow", assert.AnError))

	// Act
	err := cache.Unfollow(context.Background(), "target")

	// Assert
	require.Error(t, err)
	assert.True(t, cache.IsFollowing("target"), "failed unfollow restores the edge")
}

func TestUnfollow_AbsentEdgeFailureDoesNotInventOne(t *testing.T) {
	// Arrange: the edge was never in the local set, so the rollback must not
	// add it.
	cache, gateway := newTestCache(t)
	gateway.On("Unfollow", mock.Anything, "me", "target").
		Return(apperrors.NewRemoteError("unfollow", assert.AnError))

	// Act
	err := cache.Unfollow(context.Background(), "target")

	// Assert
	require.Error(t, err)
	assert.False(t, cache.IsFollowing("target"))
}

func TestStatsFor_FetchesOnceAndCaches(t *testing.T) {
	// Arrange
	cache, gateway := newTestCache(t)
	gateway.On("FetchFollowers", mock.Anything, "other").
		Return([]domain.User{{ID: "a"}, {ID: "b"}}, nil).Once()
	gateway.On("FetchFollowing", mock.Anything, "other").
		Return([]domain.User{{ID: "c"}}, nil).Once()

	// Act
	first, err := cache.StatsFor(context.Background(), "other")
	require.NoError(t, err)
	second, err := cache.StatsFor(context.Background(), "other")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.SocialStats{Followers: 2, Following: 1}, first)
	assert.Equal(t, first, second)
	gateway.AssertExpectations(t)
}
