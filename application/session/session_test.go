package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dreamlog-client/application/feed"
	"dreamlog-client/application/poller"
	"dreamlog-client/application/ports"
	"dreamlog-client/domain"
	apperrors "dreamlog-client/pkg/errors"
	"dreamlog-client/pkg/observability"
	"dreamlog-client/tests/mocks"
)

func newTestSession(t *testing.T) (*Session, *mocks.MockRemoteGateway) {
	t.Helper()
	gateway := new(mocks.MockRemoteGateway)
	sess := New("me", gateway, time.Minute, observability.NewCollector("dreamlog"), zap.NewNop())
	t.Cleanup(sess.Close)
	return sess, gateway
}

func publicEntry(id, owner string) domain.Entry {
	return domain.Entry{
		ID:        id,
		OwnerID:   owner,
		Title:     "Entry " + id,
		Body:      "body",
		Public:    true,
		CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func stubGraphLoad(gateway *mocks.MockRemoteGateway) {
	gateway.On("FetchFollowing", mock.Anything, "me").Return([]domain.User{}, nil)
	gateway.On("FetchFollowers", mock.Anything, "me").Return([]domain.User{}, nil)
}

func TestRefresh_MergesOwnAndPublicEntries(t *testing.T) {
	// Arrange
	sess, gateway := newTestSession(t)
	ownPrivate := publicEntry("own-1", "me")
	ownPrivate.Public = false
	gateway.On("FetchOwnEntries", mock.Anything, "me").
		Return([]domain.Entry{ownPrivate}, nil)
	gateway.On("FetchPublicEntries", mock.Anything, "me", ports.FilterLatest).
		Return([]domain.Entry{publicEntry("pub-1", "other")}, nil)
	stubGraphLoad(gateway)

	// Act
	err := sess.Refresh(context.Background())

	// Assert
	require.NoError(t, err)
	_, ok := sess.Store().Get("own-1")
	assert.True(t, ok, "own private entries enter the store")
	_, ok = sess.Store().Get("pub-1")
	assert.True(t, ok)
}

func TestRefresh_DropsForeignPrivateEntries(t *testing.T) {
	// Arrange: a misbehaving backend hands us someone else's private entry.
	sess, gateway := newTestSession(t)
	leaked := publicEntry("leak-1", "other")
	leaked.Public = false
	gateway.On("FetchOwnEntries", mock.Anything, "me").
		Return([]domain.Entry{}, nil)
	gateway.On("FetchPublicEntries", mock.Anything, "me", ports.FilterLatest).
		Return([]domain.Entry{leaked}, nil)
	stubGraphLoad(gateway)

	// Act
	err := sess.Refresh(context.Background())

	// Assert
	require.NoError(t, err)
	_, ok := sess.Store().Get("leak-1")
	assert.False(t, ok)
}

func TestFeed_ExcludesOwnEntriesAndUsesGraphPredicate(t *testing.T) {
	// Arrange
	sess, _ := newTestSession(t)
	sess.Store().Upsert(publicEntry("own-1", "me"))
	sess.Store().Upsert(publicEntry("pub-1", "other"))

	// Act
	got := sess.Feed(feed.Options{Mode: feed.ModeLatest, Sort: feed.SortRecency})

	// Assert
	require.Len(t, got, 1)
	assert.Equal(t, "pub-1", got[0].ID)
}

func TestOwnEntries_NewestFirst(t *testing.T) {
	// Arrange
	sess, _ := newTestSession(t)
	older := publicEntry("own-1", "me")
	newer := publicEntry("own-2", "me")
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)
	sess.Store().Upsert(older)
	sess.Store().Upsert(newer)
	sess.Store().Upsert(publicEntry("pub-1", "other"))

	// Act
	own := sess.OwnEntries()

	// Assert
	require.Len(t, own, 2)
	assert.Equal(t, "own-2", own[0].ID)
	assert.Equal(t, "own-1", own[1].ID)
}

func TestCreateEntry_RejectsInvalidInputBeforeTheNetwork(t *testing.T) {
	// Arrange
	sess, gateway := newTestSession(t)

	// Act
	entry, err := sess.CreateEntry(context.Background(), domain.EntryInput{Title: "", Body: ""})

	// Assert
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Nil(t, entry)
	gateway.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateEntry_CachesServerRow(t *testing.T) {
	// Arrange
	sess, gateway := newTestSession(t)
	input := domain.EntryInput{Title: "Glass stairs", Body: "Every step hummed", Public: true}
	created := publicEntry("new-1", "me")
	gateway.On("CreateEntry", mock.Anything, "me", input).Return(&created, nil)

	// Act
	entry, err := sess.CreateEntry(context.Background(), input)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "new-1", entry.ID)
	_, ok := sess.Store().Get("new-1")
	assert.True(t, ok)
}

func TestUpdateEntry_NotFoundDropsStaleCacheEntry(t *testing.T) {
	// Arrange
	sess, gateway := newTestSession(t)
	sess.Store().Upsert(publicEntry("gone-1", "me"))
	input := domain.EntryInput{Title: "Edited", Body: "Edited body"}
	gateway.On("UpdateEntry", mock.Anything, "gone-1", "me", input).
		Return(nil, apperrors.NewNotFoundError("entry"))

	// Act
	_, err := sess.UpdateEntry(context.Background(), "gone-1", input)

	// Assert
	require.Error(t, err)
	_, ok := sess.Store().Get("gone-1")
	assert.False(t, ok)
}

func TestOpenEntry_CountsViewOncePerSession(t *testing.T) {
	// Arrange
	sess, gateway := newTestSession(t)
	remote := publicEntry("pub-1", "other")
	remote.Views = 10
	remote.AI = domain.Interpretation{Interpretation: "settled"}
	counted := remote
	counted.Views = 11
	gateway.On("FetchEntryByID", mock.Anything, "pub-1").Return(&remote, nil).Once()
	gateway.On("FetchEntryByID", mock.Anything, "pub-1").Return(&counted, nil).Once()
	gateway.On("FetchLikeState", mock.Anything, "pub-1", "me").
		Return(&domain.LikeState{Count: 3, IsLiked: false}, nil)
	gateway.On("IncrementView", mock.Anything, "pub-1").Return(nil).Once()

	// Act
	first, err := sess.OpenEntry(context.Background(), "pub-1", poller.TabInterpretation)
	require.NoError(t, err)
	second, err := sess.OpenEntry(context.Background(), "pub-1", poller.TabInterpretation)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 11, first.Views)
	assert.Equal(t, 11, second.Views, "second open must not count again")
	assert.Equal(t, 3, second.Likes, "like state readback overwrites the counter")
	gateway.AssertExpectations(t)
}

func TestOpenEntry_OwnerViewIsNeverCounted(t *testing.T) {
	// Arrange
	sess, gateway := newTestSession(t)
	remote := publicEntry("own-1", "me")
	remote.Views = 10
	remote.AI = domain.Interpretation{Interpretation: "settled"}
	gateway.On("FetchEntryByID", mock.Anything, "own-1").Return(&remote, nil)
	gateway.On("FetchLikeState", mock.Anything, "own-1", "me").
		Return(nil, apperrors.NewNotFoundError("like"))

	// Act
	opened, err := sess.OpenEntry(context.Background(), "own-1", poller.TabInterpretation)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 10, opened.Views)
	gateway.AssertNotCalled(t, "IncrementView", mock.Anything, mock.Anything)
}

func TestOpenEntry_PollLoopSurvivesRequestContextCancel(t *testing.T) {
	// Arrange: through the HTTP facade the fetch context is a request
	// context that dies when the handler returns. The poll loop must keep
	// running until the view closes or the session ends.
	gateway := new(mocks.MockRemoteGateway)
	sess := New("me", gateway, 10*time.Millisecond, observability.NewCollector("dreamlog"), zap.NewNop())
	t.Cleanup(sess.Close)

	remote := publicEntry("pub-1", "other")
	var fetches atomic.Int64
	gateway.On("FetchEntryByID", mock.Anything, "pub-1").
		Run(func(mock.Arguments) { fetches.Add(1) }).
		Return(&remote, nil)
	gateway.On("FetchLikeState", mock.Anything, "pub-1", "me").
		Return(&domain.LikeState{Count: 0, IsLiked: false}, nil)
	gateway.On("IncrementView", mock.Anything, "pub-1").Return(nil)

	reqCtx, cancelRequest := context.WithCancel(context.Background())
	_, err := sess.OpenEntry(reqCtx, "pub-1", poller.TabInterpretation)
	require.NoError(t, err)

	// Act
	cancelRequest()
	after := fetches.Load()

	// Assert
	assert.Eventually(t, func() bool { return fetches.Load() > after+2 },
		2*time.Second, 10*time.Millisecond,
		"poll loop must keep fetching after the request context is canceled")
}

func TestClose_StopsThePollLoop(t *testing.T) {
	// Arrange
	gateway := new(mocks.MockRemoteGateway)
	sess := New("me", gateway, 10*time.Millisecond, observability.NewCollector("dreamlog"), zap.NewNop())

	remote := publicEntry("pub-1", "other")
	var fetches atomic.Int64
	gateway.On("FetchEntryByID", mock.Anything, "pub-1").
		Run(func(mock.Arguments) { fetches.Add(1) }).
		Return(&remote, nil)
	gateway.On("FetchLikeState", mock.Anything, "pub-1", "me").
		Return(&domain.LikeState{Count: 0, IsLiked: false}, nil)
	gateway.On("IncrementView", mock.Anything, "pub-1").Return(nil)

	_, err := sess.OpenEntry(context.Background(), "pub-1", poller.TabInterpretation)
	require.NoError(t, err)

	// Act
	sess.Close()
	after := fetches.Load()
	time.Sleep(50 * time.Millisecond)

	// Assert
	assert.Equal(t, after, fetches.Load(), "no fetch may land after Close")
}

func TestOpenEntry_PreservesOwnerAndLikeStateOnRefetch(t *testing.T) {
	// Arrange: single fetches carry no joined owner row, and the like-state
	// readback can fail. Neither may erase what the cache already knows.
	sess, gateway := newTestSession(t)
	cached := publicEntry("pub-1", "other")
	cached.Owner = &domain.User{ID: "other", Handle: "dreamer"}
	cached.IsLiked = true
	cached.AI = domain.Interpretation{Interpretation: "settled"}
	sess.Store().Upsert(cached)

	refetched := publicEntry("pub-1", "other")
	refetched.AI = cached.AI
	gateway.On("FetchEntryByID", mock.Anything, "pub-1").Return(&refetched, nil)
	gateway.On("FetchLikeState", mock.Anything, "pub-1", "me").
		Return(nil, apperrors.NewRemoteError("fetch like state", assert.AnError))
	gateway.On("IncrementView", mock.Anything, "pub-1").Return(nil)

	// Act
	opened, err := sess.OpenEntry(context.Background(), "pub-1", poller.TabInterpretation)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, opened.Owner)
	assert.Equal(t, "dreamer", opened.Owner.Handle)
	assert.True(t, opened.IsLiked, "a failed readback keeps the cached like state")
}

func TestOpenEntry_NotFoundRemovesStaleRecord(t *testing.T) {
	// Arrange
	sess, gateway := newTestSession(t)
	sess.Store().Upsert(publicEntry("gone-1", "other"))
	gateway.On("FetchEntryByID", mock.Anything, "gone-1").
		Return(nil, apperrors.NewNotFoundError("entry"))

	// Act
	_, err := sess.OpenEntry(context.Background(), "gone-1", poller.TabInterpretation)

	// Assert
	require.Error(t, err)
	_, ok := sess.Store().Get("gone-1")
	assert.False(t, ok)
}

func TestPostComment_BumpsLocalCounter(t *testing.T) {
	// Arrange
	sess, gateway := newTestSession(t)
	cached := publicEntry("pub-1", "other")
	cached.Comments = 2
	sess.Store().Upsert(cached)
	input := domain.CommentInput{EntryID: "pub-1", Body: "Beautiful dream"}
	gateway.On("PostComment", mock.Anything, "me", input).
		Return(&domain.Comment{ID: "c-1", EntryID: "pub-1", AuthorID: "me", Body: "Beautiful dream"}, nil)

	// Act
	comment, err := sess.PostComment(context.Background(), input)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "c-1", comment.ID)
	entry, _ := sess.Store().Get("pub-1")
	assert.Equal(t, 3, entry.Comments)
}

func TestDeleteComment_DecrementsLocalCounter(t *testing.T) {
	// Arrange
	sess, gateway := newTestSession(t)
	cached := publicEntry("pub-1", "other")
	cached.Comments = 2
	sess.Store().Upsert(cached)
	gateway.On("DeleteComment", mock.Anything, "c-1", "me").Return(nil)

	// Act
	err := sess.DeleteComment(context.Background(), "c-1", "pub-1")

	// Assert
	require.NoError(t, err)
	entry, _ := sess.Store().Get("pub-1")
	assert.Equal(t, 1, entry.Comments)
}

func TestSearch_MergesPublicHitsIntoTheStore(t *testing.T) {
	// Arrange
	sess, gateway := newTestSession(t)
	private := publicEntry("priv-1", "other")
	private.Public = false
	gateway.On("SearchEntries", mock.Anything, "me", "glass").
		Return([]domain.Entry{publicEntry("hit-1", "other"), private}, nil)

	// Act
	hits, err := sess.Search(context.Background(), "glass")

	// Assert
	require.NoError(t, err)
	assert.Len(t, hits, 2, "the caller sees every hit")
	_, ok := sess.Store().Get("hit-1")
	assert.True(t, ok)
	_, ok = sess.Store().Get("priv-1")
	assert.False(t, ok, "foreign private hits are not cached")
}

func TestTotalLikesReceived_SumsOwnEntriesOnly(t *testing.T) {
	// Arrange
	sess, _ := newTestSession(t)
	own := publicEntry("own-1", "me")
	own.Likes = 4
	other := publicEntry("pub-1", "other")
	other.Likes = 9
	sess.Store().Upsert(own)
	sess.Store().Upsert(other)

	// Act
	total := sess.TotalLikesReceived()

	// Assert
	assert.Equal(t, 4, total)
}
