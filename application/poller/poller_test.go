package poller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dreamlog-client/application/store"
	"dreamlog-client/domain"
	apperrors "dreamlog-client/pkg/errors"
	"dreamlog-client/pkg/observability"
	"dreamlog-client/tests/mocks"
)

func newTestPoller(t *testing.T) (*Poller, *store.EntryStore, *mocks.MockRemoteGateway) {
	t.Helper()
	entryStore := store.NewEntryStore(zap.NewNop())
	gateway := new(mocks.MockRemoteGateway)
	p := NewPoller(gateway, entryStore, 10*time.Millisecond, observability.NewCollector("dreamlog"), zap.NewNop())
	return p, entryStore, gateway
}

func pendingEntry() domain.Entry {
	return domain.Entry{
		ID:      "entry-1",
		OwnerID: "owner-1",
		Title:   "Glass staircase",
		Body:    "Every step hummed",
		Public:  true,
	}
}

func TestStep_SettlesWhenInterpretationArrives(t *testing.T) {
	// Arrange
	p, entryStore, gateway := newTestPoller(t)
	entryStore.Upsert(pendingEntry())
	remote := pendingEntry()
	remote.AI = domain.Interpretation{Interpretation: "You fear stillness."}
	gateway.On("FetchEntryByID", mock.Anything, "entry-1").Return(&remote, nil)

	// Act
	done, err := p.Step(context.Background(), "entry-1", TabInterpretation)

	// Assert
	require.NoError(t, err)
	assert.True(t, done)
	cached, _ := entryStore.Get("entry-1")
	assert.Equal(t, "You fear stillness.", cached.AI.Interpretation)
}

func TestStep_NarrativeTabWaitsForNarrativeField(t *testing.T) {
	// Arrange: interpretation text alone does not settle the narrative tab.
	p, entryStore, gateway := newTestPoller(t)
	entryStore.Upsert(pendingEntry())
	remote := pendingEntry()
	remote.AI = domain.Interpretation{Interpretation: "You fear stillness."}
	gateway.On("FetchEntryByID", mock.Anything, "entry-1").Return(&remote, nil)

	// Act
	done, err := p.Step(context.Background(), "entry-1", TabNarrative)

	// Assert
	require.NoError(t, err)
	assert.False(t, done)
}

func TestStep_EmptyFieldsKeepPolling(t *testing.T) {
	// Arrange
	p, entryStore, gateway := newTestPoller(t)
	entryStore.Upsert(pendingEntry())
	remote := pendingEntry()
	gateway.On("FetchEntryByID", mock.Anything, "entry-1").Return(&remote, nil)

	// Act
	done, err := p.Step(context.Background(), "entry-1", TabInterpretation)

	// Assert
	require.NoError(t, err)
	assert.False(t, done)
}

func TestStep_NotFoundRemovesStaleEntryAndEndsLoop(t *testing.T) {
	// Arrange: the entry vanished server-side while the loop ran.
	p, entryStore, gateway := newTestPoller(t)
	entryStore.Upsert(pendingEntry())
	gateway.On("FetchEntryByID", mock.Anything, "entry-1").
		Return(nil, apperrors.NewNotFoundError("entry"))

	// Act
	done, err := p.Step(context.Background(), "entry-1", TabInterpretation)

	// Assert
	require.NoError(t, err)
	assert.True(t, done)
	_, ok := entryStore.Get("entry-1")
	assert.False(t, ok)
}

func TestStep_TransientErrorIsReturnedWithoutSettling(t *testing.T) {
	// Arrange
	p, _, gateway := newTestPoller(t)
	gateway.On("FetchEntryByID", mock.Anything, "entry-1").
		Return(nil, apperrors.NewRemoteError("fetch entry", assert.AnError))

	// Act
	done, err := p.Step(context.Background(), "entry-1", TabInterpretation)

	// Assert
	require.Error(t, err)
	assert.False(t, done)
}

func TestStart_AlreadySettledFieldSkipsTheLoop(t *testing.T) {
	// Arrange
	p, entryStore, gateway := newTestPoller(t)
	ready := pendingEntry()
	ready.AI = domain.Interpretation{Interpretation: "Done already."}
	entryStore.Upsert(ready)

	// Act
	handle := p.Start(context.Background(), "entry-1", TabInterpretation)

	// Assert
	assert.Equal(t, StateSettled, handle.State())
	select {
	case <-handle.Done():
	default:
		t.Fatal("settled handle must have a closed done channel")
	}
	gateway.AssertNotCalled(t, "FetchEntryByID", mock.Anything, mock.Anything)
}

func TestStartAndLoop_SettlesOnceContentArrives(t *testing.T) {
	// Arrange
	p, entryStore, gateway := newTestPoller(t)
	entryStore.Upsert(pendingEntry())
	remote := pendingEntry()
	remote.AI = domain.Interpretation{Interpretation: "The hum was yours."}
	gateway.On("FetchEntryByID", mock.Anything, "entry-1").Return(&remote, nil)

	// Act
	handle := p.Start(context.Background(), "entry-1", TabInterpretation)

	// Assert
	select {
	case <-handle.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poll loop did not settle in time")
	}
	assert.Equal(t, StateSettled, handle.State())
	cached, _ := entryStore.Get("entry-1")
	assert.Equal(t, "The hum was yours.", cached.AI.Interpretation)
}

func TestCancel_StopsTheLoopAndWaitsForExit(t *testing.T) {
	// Arrange: the remote never produces content, so only Cancel ends the loop.
	p, entryStore, gateway := newTestPoller(t)
	entryStore.Upsert(pendingEntry())
	remote := pendingEntry()
	gateway.On("FetchEntryByID", mock.Anything, "entry-1").Return(&remote, nil)
	handle := p.Start(context.Background(), "entry-1", TabInterpretation)

	// Act
	p.Cancel("entry-1")

	// Assert
	assert.Equal(t, StateCanceled, handle.State())
	select {
	case <-handle.Done():
	default:
		t.Fatal("Cancel must not return before the loop has exited")
	}
}

func TestStart_ReplacesExistingLoopForSameEntry(t *testing.T) {
	// Arrange
	p, entryStore, gateway := newTestPoller(t)
	entryStore.Upsert(pendingEntry())
	remote := pendingEntry()
	gateway.On("FetchEntryByID", mock.Anything, "entry-1").Return(&remote, nil)
	first := p.Start(context.Background(), "entry-1", TabInterpretation)

	// Act
	second := p.Start(context.Background(), "entry-1", TabNarrative)

	// Assert
	assert.Equal(t, StateCanceled, first.State())
	assert.Equal(t, StatePending, second.State())
	p.CancelAll()
	assert.Equal(t, StateCanceled, second.State())
}
