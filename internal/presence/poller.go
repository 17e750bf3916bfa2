package presence

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// Config holds the poller's tuning parameters. One instance is shared by
// every poller so the timing policy has a single source of truth.
type Config struct {
	InitialDelay          time.Duration // delay before the first fetch after Start
	PollInterval          time.Duration // steady-state fetch cadence
	MinFetchGap           time.Duration // attempts inside this gap are dropped, not queued
	StaleThreshold        time.Duration // records older than this are treated as absent
	ErrorBackoffThreshold int           // consecutive errors before backoff kicks in
	BackoffStep           time.Duration // extra delay per consecutive error once backing off
	PageSize              int           // max records fetched per cycle
	CleanupStagger        time.Duration // gap between successive stale-record deletes
}

// DefaultConfig returns the platform timing policy.
func DefaultConfig() Config {
	return Config{
		InitialDelay:          3 * time.Second,
		PollInterval:          10 * time.Second,
		MinFetchGap:           5 * time.Second,
		StaleThreshold:        10 * time.Second,
		ErrorBackoffThreshold: 3,
		BackoffStep:           10 * time.Second,
		PageSize:              5,
		CleanupStagger:        1 * time.Second,
	}
}

// Poller maintains one room's locally-rendered typing set for one client.
// It periodically fetches typing records, drops stale and self entries,
// throttles itself under load or sustained failure, and guarantees that at
// most one fetch is in flight at a time: a newer fetch always supersedes an
// older one, and a superseded fetch's late result is discarded.
//
// Each open room runs its own Poller; there is no cross-room coordination.
// Duplicate stale-record cleanup across clients is tolerated because deletes
// are idempotent.
type Poller struct {
	cfg      Config
	store    Store
	roomID   string
	selfID   string
	onUpdate func([]TypingRecord) // optional, called with each new active set

	mu                sync.Mutex
	renderMu          sync.Mutex // serializes onUpdate delivery in view order
	view              []TypingRecord
	lastAttempt       time.Time
	nextAllowedAt     time.Time
	consecutiveErrors int
	fetchSeq          uint64
	inflightCancel    context.CancelFunc

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPoller creates a poller for one (room, client) pair. onUpdate may be nil;
// the current view is always available via Typing.
func NewPoller(store Store, roomID, selfID string, cfg Config, onUpdate func([]TypingRecord)) *Poller {
	return &Poller{
		cfg:      cfg,
		store:    store,
		roomID:   roomID,
		selfID:   selfID,
		onUpdate: onUpdate,
		done:     make(chan struct{}),
	}
}

// Start begins polling in a background goroutine. The first fetch happens
// after InitialDelay, then every PollInterval. Start must be called once.
func (p *Poller) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)
	go p.run()
}

// run owns the poller's timers. All of them stop when the context is
// canceled, so no fetch can fire after teardown.
func (p *Poller) run() {
	defer close(p.done)

	initial := time.NewTimer(p.cfg.InitialDelay)
	defer initial.Stop()
	select {
	case <-p.ctx.Done():
		return
	case <-initial.C:
	}
	p.pollOnce()

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

// pollOnce starts one fetch cycle. The attempt is dropped (not queued) when
// it falls inside the minimum gap since the last attempt or before the
// backoff-extended next-allowed time. Any still-in-flight fetch is canceled
// first so only one fetch per room is ever outstanding.
func (p *Poller) pollOnce() {
	p.mu.Lock()
	now := time.Now()
	if now.Sub(p.lastAttempt) < p.cfg.MinFetchGap || now.Before(p.nextAllowedAt) {
		p.mu.Unlock()
		return
	}
	if p.inflightCancel != nil {
		p.inflightCancel()
	}
	fetchCtx, cancel := context.WithCancel(p.ctx)
	p.inflightCancel = cancel
	p.fetchSeq++
	seq := p.fetchSeq
	p.lastAttempt = now
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		p.fetch(fetchCtx, seq)
	}()
}

// fetch performs one store read and applies the result, unless a newer fetch
// has started in the meantime.
func (p *Poller) fetch(ctx context.Context, seq uint64) {
	records, err := p.store.ListTyping(ctx, p.roomID, p.cfg.PageSize)
	now := time.Now()

	if err != nil {
		if ctx.Err() != nil {
			// Superseded or torn down. Expected, never counted as a failure.
			return
		}
		p.noteFailure(err, now)
		return
	}

	active, stale := Partition(records, p.selfID, now, p.cfg.StaleThreshold)

	p.mu.Lock()
	if seq != p.fetchSeq || p.ctx.Err() != nil {
		// A newer fetch exists or the poller stopped: this result must not
		// overwrite the newer view.
		p.mu.Unlock()
		return
	}
	p.view = active
	p.consecutiveErrors = 0
	cb := p.onUpdate
	p.mu.Unlock()

	if cb != nil {
		// Frames must reach the client in view order. A fetch superseded
		// between the view update above and delivery here re-checks under the
		// render lock and drops its frame instead of emitting it after the
		// newer fetch's frame.
		p.renderMu.Lock()
		p.mu.Lock()
		superseded := seq != p.fetchSeq || p.ctx.Err() != nil
		p.mu.Unlock()
		if !superseded {
			cb(active)
		}
		p.renderMu.Unlock()
	}

	if len(stale) > 0 {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.cleanupStale(stale)
		}()
	}
}

// noteFailure records a fetch error and extends the next-allowed-fetch time:
// immediately for a rate-limit signal, otherwise once the consecutive-error
// threshold is reached, by BackoffStep per consecutive error.
func (p *Poller) noteFailure(err error, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.consecutiveErrors++
	rateLimited := errors.Is(err, ErrRateLimited)
	if rateLimited || p.consecutiveErrors >= p.cfg.ErrorBackoffThreshold {
		p.nextAllowedAt = now.Add(p.cfg.BackoffStep * time.Duration(p.consecutiveErrors))
	}
	log.Printf("[presence] fetch failed room=%s errors=%d rate_limited=%v: %v",
		p.roomID, p.consecutiveErrors, rateLimited, err)
}

// cleanupStale deletes stale records one at a time, CleanupStagger apart, so
// many clients observing the same stale burst don't hammer the store at once.
// Failures are swallowed: another client deleting the record first is fine.
func (p *Poller) cleanupStale(stale []TypingRecord) {
	for i, rec := range stale {
		if i > 0 {
			timer := time.NewTimer(p.cfg.CleanupStagger)
			select {
			case <-p.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		if p.ctx.Err() != nil {
			return
		}
		if err := p.store.DeleteTyping(p.ctx, rec.RoomID, rec.UserID); err != nil && p.ctx.Err() == nil {
			log.Printf("[presence] stale cleanup room=%s user=%s: %v", rec.RoomID, rec.UserID, err)
		}
	}
}

// Typing returns a snapshot of the current active typing set.
func (p *Poller) Typing() []TypingRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]TypingRecord, len(p.view))
	copy(out, p.view)
	return out
}

// Stop tears the poller down: it cancels any in-flight fetch, stops every
// timer, waits for all goroutines to exit, and clears the rendered view.
// After Stop returns no fetch, cleanup, or callback runs. Stop is idempotent
// and safe to call from any goroutine.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel == nil {
			return
		}
		p.cancel()
		<-p.done
		p.wg.Wait()

		p.mu.Lock()
		p.view = nil
		p.inflightCancel = nil
		p.mu.Unlock()
	})
}
