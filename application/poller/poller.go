// Package poller drives a per-entry state machine from "no AI content" to
// "AI content available" without blocking the caller. Generation runs
// asynchronously on the backend; the client re-fetches the entry until the
// awaited field arrives or the loop is canceled.
package poller

import (
	"context"
	"sync"
	"time"

	"dreamlog-client/application/ports"
	"dreamlog-client/application/store"
	"dreamlog-client/domain"
	apperrors "dreamlog-client/pkg/errors"
	"dreamlog-client/pkg/observability"

	"go.uber.org/zap"
)

// Tab names the AI field the open detail view is waiting on. Settling is
// judged against the active tab only: the interpretation tab settles as
// soon as interpretation text arrives even if the narrative is still
// pending, and vice versa.
type Tab string

const (
	TabInterpretation Tab = "interpretation"
	TabNarrative      Tab = "narrative"
)

// State is the lifecycle of one poll loop.
type State int

const (
	StateIdle State = iota
	StatePending
	StateSettled
	StateCanceled
)

// DefaultInterval is the poll period when configuration provides none.
const DefaultInterval = 2 * time.Second

// Poller owns at most one poll loop per entry. Re-entering a detail view
// restarts the loop cleanly instead of stacking a second one.
type Poller struct {
	gateway  ports.RemoteGateway
	store    *store.EntryStore
	interval time.Duration
	metrics  *observability.Collector
	logger   *zap.Logger

	mu     sync.Mutex
	active map[string]*Handle
}

// NewPoller creates a poller issuing one fetch per interval.
func NewPoller(
	gateway ports.RemoteGateway,
	entryStore *store.EntryStore,
	interval time.Duration,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		gateway:  gateway,
		store:    entryStore,
		interval: interval,
		metrics:  metrics,
		logger:   logger,
		active:   make(map[string]*Handle),
	}
}

// Handle is the cancellable resource behind one poll loop.
type Handle struct {
	entryID string
	tab     Tab
	cancel  context.CancelFunc
	done    chan struct{}

	mu    sync.Mutex
	state State
}

// State returns the loop's current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Done closes once the loop has fully stopped, whether settled or canceled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) setState(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// Settled and Canceled are terminal.
	if h.state == StateSettled || h.state == StateCanceled {
		return
	}
	h.state = s
}

// Start begins polling for the entry's AI content. If the field the tab
// needs is already populated the handle is returned settled and no loop
// runs. An existing loop for the same entry is canceled first.
func (p *Poller) Start(ctx context.Context, entryID string, tab Tab) *Handle {
	p.Cancel(entryID)

	handle := &Handle{
		entryID: entryID,
		tab:     tab,
		done:    make(chan struct{}),
	}

	if entry, ok := p.store.Get(entryID); ok && settled(entry, tab) {
		handle.state = StateSettled
		close(handle.done)
		return handle
	}

	loopCtx, cancel := context.WithCancel(ctx)
	handle.cancel = cancel
	handle.state = StatePending

	p.mu.Lock()
	p.active[entryID] = handle
	p.mu.Unlock()

	go p.loop(loopCtx, handle)
	return handle
}

// Cancel stops the loop for the entry, if any, and waits for it to exit so
// no further patch can land after this call returns.
func (p *Poller) Cancel(entryID string) {
	p.mu.Lock()
	handle, ok := p.active[entryID]
	if ok {
		delete(p.active, entryID)
	}
	p.mu.Unlock()

	if !ok {
		return
	}
	handle.setState(StateCanceled)
	handle.cancel()
	<-handle.done
	p.metrics.PollsCanceled.Inc()
}

// CancelAll stops every active loop. Session teardown calls this.
func (p *Poller) CancelAll() {
	p.mu.Lock()
	handles := make([]*Handle, 0, len(p.active))
	for id, handle := range p.active {
		handles = append(handles, handle)
		delete(p.active, id)
	}
	p.mu.Unlock()

	for _, handle := range handles {
		handle.setState(StateCanceled)
		handle.cancel()
		<-handle.done
		p.metrics.PollsCanceled.Inc()
	}
}

// loop re-fetches the entry once per interval until the awaited field
// arrives or the context is canceled.
func (p *Poller) loop(ctx context.Context, handle *Handle) {
	defer close(handle.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			done, err := p.Step(ctx, handle.entryID, handle.tab)
			if err != nil {
				// A transient fetch failure is not fatal to the loop;
				// the next tick tries again.
				p.logger.Debug("interpretation poll failed",
					zap.String("entry_id", handle.entryID),
					zap.Error(err),
				)
				continue
			}
			if done {
				handle.setState(StateSettled)
				p.metrics.PollsSettled.Inc()
				p.forget(handle.entryID, handle)
				return
			}
		}
	}
}

// Step performs a single poll: fetch the entry, patch the AI fields into
// the store, and report whether the tab's field has arrived. Exported so
// tests can drive the state machine without timers.
//
// A NotFound answer removes the stale local record and ends the loop; the
// entry vanished and there is nothing left to wait for.
func (p *Poller) Step(ctx context.Context, entryID string, tab Tab) (bool, error) {
	p.metrics.PollsIssued.Inc()

	entry, err := p.gateway.FetchEntryByID(ctx, entryID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			p.store.Remove(entryID)
			return true, nil
		}
		return false, err
	}

	if !entry.AI.IsEmpty() {
		ai := entry.AI
		p.store.Patch(entryID, store.EntryPatch{AI: &ai})
	}

	return settled(*entry, tab), nil
}

// forget drops the handle from the active map, but only if it is still the
// registered loop for the entry. A restart may have replaced it.
func (p *Poller) forget(entryID string, handle *Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.active[entryID]; ok && current == handle {
		delete(p.active, entryID)
	}
}

// settled reports whether the field the tab cares about is populated.
func settled(entry domain.Entry, tab Tab) bool {
	if tab == TabNarrative {
		return entry.HasNarrative()
	}
	return entry.HasInterpretation()
}
