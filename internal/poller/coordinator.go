// Package poller runs one coordinator per data domain. Each coordinator fans
// out to its adapters on a schedule or on demand, merges the outcomes and
// atomically publishes a new Snapshot. At most one pass per coordinator is in
// flight; readers never block and never see a partially written snapshot.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kjstillabower/mountain-weather-poller/internal/client"
	"github.com/kjstillabower/mountain-weather-poller/internal/merge"
	"github.com/kjstillabower/mountain-weather-poller/internal/models"
	"github.com/kjstillabower/mountain-weather-poller/internal/observability"
)

// ErrStopped is returned by Refresh once the coordinator has been stopped.
var ErrStopped = errors.New("poller: coordinator stopped")

// Adapter fetches one normalized record for a domain. Failures must be
// client.ProviderError values.
type Adapter[T any] interface {
	Name() string
	Fetch(ctx context.Context) (T, error)
}

// Config configures a Coordinator.
type Config[T any] struct {
	Domain   models.Domain
	Interval time.Duration
	Adapters []Adapter[T]
	Merge    merge.Func[T]
	Logger   *zap.Logger
	// OnPublish, if set, is called with every published snapshot from the pass goroutine.
	OnPublish func(View)
	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// Coordinator polls one domain.
type Coordinator[T any] struct {
	domain    models.Domain
	interval  time.Duration
	adapters  []Adapter[T]
	merge     merge.Func[T]
	logger    *zap.Logger
	onPublish func(View)
	now       func() time.Time

	snap  atomic.Pointer[Snapshot[T]]
	state atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running *pass // in flight
	pending *pass // runs right after running
	stopped bool
}

type pass struct {
	done    chan struct{}
	outcome Outcome
}

func newPass() *pass { return &pass{done: make(chan struct{})} }

// NewCoordinator validates cfg and publishes an empty snapshot.
func NewCoordinator[T any](cfg Config[T]) (*Coordinator[T], error) {
	if cfg.Domain == "" {
		return nil, errors.New("poller: domain is required")
	}
	if len(cfg.Adapters) == 0 {
		return nil, fmt.Errorf("poller: %s has no adapters", cfg.Domain)
	}
	if cfg.Merge == nil {
		return nil, fmt.Errorf("poller: %s has no merge function", cfg.Domain)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poller: %s interval must be positive", cfg.Domain)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator[T]{
		domain:    cfg.Domain,
		interval:  cfg.Interval,
		adapters:  append([]Adapter[T](nil), cfg.Adapters...),
		merge:     cfg.Merge,
		logger:    observability.DomainLogger(logger, string(cfg.Domain)),
		onPublish: cfg.OnPublish,
		now:       now,
		ctx:       ctx,
		cancel:    cancel,
	}
	c.snap.Store(&Snapshot[T]{Domain: cfg.Domain})
	return c, nil
}

func (c *Coordinator[T]) Domain() models.Domain { return c.domain }

func (c *Coordinator[T]) Interval() time.Duration { return c.interval }

// Snapshot returns the last published snapshot. It never blocks on a pass.
func (c *Coordinator[T]) Snapshot() Snapshot[T] {
	s := *c.snap.Load()
	s.State = State(c.state.Load())
	return s
}

// View returns Snapshot().View().
func (c *Coordinator[T]) View() View {
	return c.Snapshot().View()
}

// RequestRefresh asks for a pass without waiting for it.
func (c *Coordinator[T]) RequestRefresh() {
	c.trigger(false)
}

// Refresh requests a pass and waits until it is published. Requests made
// while a pass is in flight share one follow-up pass.
func (c *Coordinator[T]) Refresh(ctx context.Context) (Snapshot[T], error) {
	p := c.trigger(false)
	select {
	case <-p.done:
		if p.outcome == OutcomeAbandoned {
			return c.Snapshot(), ErrStopped
		}
		return c.Snapshot(), nil
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	}
}

// RefreshView is Refresh for callers that only hold a Poller.
func (c *Coordinator[T]) RefreshView(ctx context.Context) (View, error) {
	s, err := c.Refresh(ctx)
	return s.View(), err
}

// Tick runs a scheduled pass. A tick arriving while a pass is in flight is
// absorbed by that pass.
func (c *Coordinator[T]) Tick() {
	c.trigger(true)
}

// Start registers the coordinator with s; the first pass runs when s starts.
func (c *Coordinator[T]) Start(s *Scheduler) error {
	return s.Every(string(c.domain), c.interval, c.Tick)
}

// Stop cancels any in-flight pass, drops pending requests and waits for the
// pass goroutine to exit. A cancelled pass publishes nothing.
func (c *Coordinator[T]) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	c.cancel()
	if pending != nil {
		pending.outcome = OutcomeAbandoned
		close(pending.done)
	}
	c.wg.Wait()
}

func (c *Coordinator[T]) trigger(scheduled bool) *pass {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.stopped:
		p := newPass()
		p.outcome = OutcomeAbandoned
		close(p.done)
		return p
	case c.running == nil:
		p := newPass()
		c.running = p
		c.wg.Add(1)
		go c.loop(p)
		c.countRequest(scheduled, "started")
		return p
	case scheduled:
		c.countRequest(scheduled, "coalesced")
		return c.running
	case c.pending == nil:
		c.pending = newPass()
		c.countRequest(scheduled, "queued")
		return c.pending
	default:
		c.countRequest(scheduled, "coalesced")
		return c.pending
	}
}

func (c *Coordinator[T]) countRequest(scheduled bool, result string) {
	if scheduled {
		return
	}
	observability.RefreshRequestsTotal.WithLabelValues(string(c.domain), result).Inc()
}

func (c *Coordinator[T]) loop(p *pass) {
	defer c.wg.Done()
	for p != nil {
		p.outcome = c.runPass()
		close(p.done)

		c.mu.Lock()
		p = c.pending
		c.pending = nil
		c.running = p
		c.mu.Unlock()
	}
}

func (c *Coordinator[T]) setState(s State) {
	c.state.Store(int32(s))
}

// runPass performs one fetch and merge. A panic anywhere in the pass, adapter
// goroutines included, is recorded as a failure; the previous record is kept.
func (c *Coordinator[T]) runPass() (outcome Outcome) {
	passID := uuid.NewString()
	logger := c.logger.With(zap.String("pass_id", passID))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			c.setState(StateFailed)
			err := fmt.Errorf("%w: poll pass panicked: %v", client.ErrInternal, r)
			logger.Error("poll pass failed", zap.Any("panic", r), zap.Stack("stack"))
			c.publishFailure(err)
			outcome = OutcomeFailed
		}
		c.setState(StateIdle)
		observability.PollPassesTotal.WithLabelValues(string(c.domain), string(outcome)).Inc()
		observability.PollPassDuration.WithLabelValues(string(c.domain)).Observe(time.Since(start).Seconds())
	}()

	ctx := client.WithRequestID(c.ctx, passID)
	if ctx.Err() != nil {
		return OutcomeAbandoned
	}

	c.setState(StateFetching)
	logger.Debug("poll pass started", zap.Int("adapters", len(c.adapters)))
	outcomes := c.fetchAll(ctx)
	if ctx.Err() != nil {
		logger.Info("poll pass abandoned")
		return OutcomeAbandoned
	}

	c.setState(StateMerging)
	prev := c.snap.Load()
	res := c.merge(prev.Record, outcomes)

	outcome = OutcomeSuccess
	switch {
	case !res.Updated:
		outcome = OutcomeError
	case len(res.FailedParts) > 0:
		outcome = OutcomePartial
	}

	now := c.now()
	next := c.carry(prev)
	next.Record = res.Record
	next.FailedParts = res.FailedParts
	next.Stale = prev.Record != nil && !res.Full()
	next.LastOutcome = outcome
	if res.Updated {
		next.MergedAt = now
		next.LastSuccess = now
	}
	if res.Err != nil {
		next.LastFailure = now
		next.LastError = res.Err.Error()
		next.LastErrorKind = string(client.CategorizeError(res.Err))
		for _, o := range outcomes {
			if o.Err != nil {
				observability.ProviderErrorsTotal.WithLabelValues(providerOf(o), string(client.CategorizeError(o.Err))).Inc()
			}
		}
		logger.Warn("poll pass degraded",
			zap.String("outcome", string(outcome)),
			zap.Strings("failed_parts", res.FailedParts),
			zap.String("category", next.LastErrorKind),
			zap.Bool("available", res.Record != nil),
			zap.Error(res.Err),
		)
	} else {
		next.LastError = ""
		next.LastErrorKind = ""
		logger.Debug("poll pass complete", zap.Uint64("sequence", next.Sequence), zap.Duration("duration", time.Since(start)))
	}

	c.publish(next)
	return outcome
}

// carry starts the next snapshot from prev's history.
func (c *Coordinator[T]) carry(prev *Snapshot[T]) *Snapshot[T] {
	return &Snapshot[T]{
		Domain:        c.domain,
		Record:        prev.Record,
		Sequence:      prev.Sequence + 1,
		MergedAt:      prev.MergedAt,
		LastSuccess:   prev.LastSuccess,
		LastFailure:   prev.LastFailure,
		LastError:     prev.LastError,
		LastErrorKind: prev.LastErrorKind,
	}
}

func (c *Coordinator[T]) publishFailure(err error) {
	prev := c.snap.Load()
	now := c.now()
	next := c.carry(prev)
	next.FailedParts = prev.FailedParts
	next.Stale = prev.Record != nil
	next.LastOutcome = OutcomeFailed
	next.LastFailure = now
	next.LastError = err.Error()
	next.LastErrorKind = string(client.CategorizeError(err))
	c.publish(next)
}

func (c *Coordinator[T]) publish(next *Snapshot[T]) {
	c.snap.Store(next)

	d := string(c.domain)
	observability.SnapshotSequence.WithLabelValues(d).Set(float64(next.Sequence))
	if !next.LastSuccess.IsZero() {
		observability.SnapshotLastSuccess.WithLabelValues(d).Set(float64(next.LastSuccess.Unix()))
	}
	stale := 0.0
	if next.Stale {
		stale = 1
	}
	observability.SnapshotStale.WithLabelValues(d).Set(stale)

	if c.onPublish != nil {
		v := next.View()
		v.State = StateIdle
		c.notify(v)
	}
}

// notify runs the publish hook. A panicking hook is logged; the snapshot is
// already stored.
func (c *Coordinator[T]) notify(v View) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("publish hook panicked",
				zap.Uint64("sequence", v.Sequence),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()
	c.onPublish(v)
}

// fetchAll runs every adapter concurrently and waits for all of them.
// An adapter panic is re-raised here, after the join, so runPass records it.
func (c *Coordinator[T]) fetchAll(ctx context.Context) []merge.Outcome[T] {
	out := make([]merge.Outcome[T], len(c.adapters))
	panics := make([]any, len(c.adapters))

	var wg sync.WaitGroup
	for i, a := range c.adapters {
		wg.Add(1)
		go func(i int, a Adapter[T]) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panics[i] = fmt.Sprintf("adapter %s: %v", a.Name(), r)
				}
			}()
			v, err := a.Fetch(ctx)
			out[i] = merge.Outcome[T]{Name: a.Name(), Value: v, Err: err}
		}(i, a)
	}
	wg.Wait()

	for _, p := range panics {
		if p != nil {
			panic(p)
		}
	}
	return out
}

func providerOf[T any](o merge.Outcome[T]) string {
	var pe *client.ProviderError
	if errors.As(o.Err, &pe) && pe.Provider != "" {
		return pe.Provider
	}
	return o.Name
}
