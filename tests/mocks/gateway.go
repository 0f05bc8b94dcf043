// Package mocks provides test doubles shared across package tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dreamlog-client/application/ports"
	"dreamlog-client/domain"
)

// MockRemoteGateway is a testify mock of ports.RemoteGateway.
type MockRemoteGateway struct {
	mock.Mock
}

var _ ports.RemoteGateway = (*MockRemoteGateway)(nil)

func (m *MockRemoteGateway) FetchOwnEntries(ctx context.Context, userID string) ([]domain.Entry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Entry), args.Error(1)
}

func (m *MockRemoteGateway) FetchPublicEntries(ctx context.Context, userID string, filter ports.PublicFilter) ([]domain.Entry, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Entry), args.Error(1)
}

func (m *MockRemoteGateway) FetchEntryByID(ctx context.Context, entryID string) (*domain.Entry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

func (m *MockRemoteGateway) CreateEntry(ctx context.Context, userID string, input domain.EntryInput) (*domain.Entry, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

func (m *MockRemoteGateway) UpdateEntry(ctx context.Context, entryID, userID string, input domain.EntryInput) (*domain.Entry, error) {
	args := m.Called(ctx, entryID, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

func (m *MockRemoteGateway) DeleteEntry(ctx context.Context, entryID, userID string) error {
	args := m.Called(ctx, entryID, userID)
	return args.Error(0)
}

func (m *MockRemoteGateway) SetVisibility(ctx context.Context, entryID, userID string, public bool) error {
	args := m.Called(ctx, entryID, userID, public)
	return args.Error(0)
}

func (m *MockRemoteGateway) SearchEntries(ctx context.Context, userID, term string) ([]domain.Entry, error) {
	args := m.Called(ctx, userID, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Entry), args.Error(1)
}

func (m *MockRemoteGateway) SetLike(ctx context.Context, entryID, userID string, liked bool) (*domain.LikeState, error) {
	args := m.Called(ctx, entryID, userID, liked)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LikeState), args.Error(1)
}

func (m *MockRemoteGateway) FetchLikeState(ctx context.Context, entryID, userID string) (*domain.LikeState, error) {
	args := m.Called(ctx, entryID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LikeState), args.Error(1)
}

func (m *MockRemoteGateway) Follow(ctx context.Context, followerID, followeeID string) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

func (m *MockRemoteGateway) Unfollow(ctx context.Context, followerID, followeeID string) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

func (m *MockRemoteGateway) FetchFollowers(ctx context.Context, userID string) ([]domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRemoteGateway) FetchFollowing(ctx context.Context, userID string) ([]domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRemoteGateway) IncrementView(ctx context.Context, entryID string) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}

func (m *MockRemoteGateway) ListComments(ctx context.Context, entryID string) ([]domain.Comment, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Comment), args.Error(1)
}

func (m *MockRemoteGateway) PostComment(ctx context.Context, authorID string, input domain.CommentInput) (*domain.Comment, error) {
	args := m.Called(ctx, authorID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *MockRemoteGateway) DeleteComment(ctx context.Context, commentID, userID string) error {
	args := m.Called(ctx, commentID, userID)
	return args.Error(0)
}

func (m *MockRemoteGateway) RequestInterpretation(ctx context.Context, entryID, body string) (*domain.Interpretation, error) {
	args := m.Called(ctx, entryID, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Interpretation), args.Error(1)
}
