// Package coordinator runs the polling cycle against an Adam controller:
// it merges the controller's partially-overlapping REST resources into
// one immutable snapshot per cycle, dispatches button events to
// registered listeners, and exposes the command facade.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/johnywind/HA-IoTiX/internal/adam"
	"github.com/johnywind/HA-IoTiX/internal/metrics"
)

// DefaultPollInterval is how often a cycle runs when not configured.
const DefaultPollInterval = 30 * time.Second

// RefreshError marks a failed cycle: the controller is presumed
// unreachable and no snapshot was published.
type RefreshError struct {
	cause error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("coordinator: refresh failed: %v", e.cause)
}

func (e *RefreshError) Unwrap() error {
	return e.cause
}

// SnapshotListener is notified after each published snapshot.
type SnapshotListener func(*Snapshot)

// Coordinator serializes polling cycles against one controller. Only one
// cycle runs at a time; commands may run concurrently and request a
// coalesced out-of-band refresh.
type Coordinator struct {
	client     adam.AdamClient
	logger     *zap.Logger
	reporter   *metrics.Reporter
	interval   time.Duration
	dispatcher *Dispatcher

	mu        sync.RWMutex
	snapshot  *Snapshot
	lastErr   error
	listeners []SnapshotListener

	// refreshCh is 1-buffered: a full channel means a refresh is already
	// pending, so close-together requests coalesce into a single cycle.
	refreshCh chan struct{}
}

// New creates a coordinator. reporter may be nil.
func New(client adam.AdamClient, logger *zap.Logger, reporter *metrics.Reporter, interval time.Duration) *Coordinator {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Coordinator{
		client:     client,
		logger:     logger,
		reporter:   reporter,
		interval:   interval,
		dispatcher: NewDispatcher(logger),
		refreshCh:  make(chan struct{}, 1),
	}
}

// RegisterButtonListener subscribes a handler to button events on one
// input pin.
func (c *Coordinator) RegisterButtonListener(pin int, handler ButtonEventHandler) {
	c.dispatcher.Register(pin, handler)
}

// OnButtonEvent registers an observer invoked for every button event on
// every pin, such as an outbound event feed.
func (c *Coordinator) OnButtonEvent(observer ButtonEventObserver) {
	c.dispatcher.Observe(observer)
}

// OnSnapshot registers a listener invoked after every published snapshot.
func (c *Coordinator) OnSnapshot(listener SnapshotListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}

// Snapshot returns the most recently published snapshot, or nil before
// the first successful cycle. The snapshot is immutable; callers must not
// modify it.
func (c *Coordinator) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Healthy reports whether the last cycle succeeded.
func (c *Coordinator) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr == nil && c.snapshot != nil
}

// LastError returns the failure of the last cycle, if any.
func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// RequestRefresh schedules an out-of-band cycle. Non-blocking; requests
// made while one is already pending coalesce.
func (c *Coordinator) RequestRefresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled. Cycles triggered by the timer and by
// RequestRefresh are serialized here.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("Coordinator started", zap.Duration("interval", c.interval))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Coordinator stopped")
			return
		case <-ticker.C:
		case <-c.refreshCh:
		}

		if err := c.Refresh(ctx); err != nil {
			c.logger.Error("Refresh cycle failed", zap.Error(err))
		}
	}
}

// Refresh runs one full cycle now and publishes the resulting snapshot.
// On a fatal failure (info or pin config unreachable) no snapshot is
// published and the previous one stays visible to readers.
func (c *Coordinator) Refresh(ctx context.Context) error {
	start := time.Now()

	snap, err := c.buildSnapshot(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		c.reporter.Incr("refresh.failure")
		return err
	}

	c.mu.Lock()
	c.snapshot = snap
	c.lastErr = nil
	listeners := append([]SnapshotListener(nil), c.listeners...)
	c.mu.Unlock()

	for _, listener := range listeners {
		listener(snap)
	}

	c.reporter.Incr("refresh.success")
	c.reporter.Timing("refresh.duration", time.Since(start))
	return nil
}

// buildSnapshot issues the cycle's requests in order and merges the
// responses. Device info and pin configuration are load-bearing; every
// other resource degrades to its empty default on failure.
func (c *Coordinator) buildSnapshot(ctx context.Context) (*Snapshot, error) {
	info, err := c.client.GetInfo(ctx)
	if err != nil {
		return nil, &RefreshError{cause: err}
	}

	pins, err := c.client.GetPinsConfig(ctx)
	if err != nil {
		return nil, &RefreshError{cause: err}
	}

	var soft error

	coverConfigs, err := c.client.GetCoversConfig(ctx)
	if err != nil {
		soft = multierr.Append(soft, err)
		coverConfigs = nil
	}

	merged := MergeCovers(pins, coverConfigs)

	pinStates := make(map[string]adam.PinState)
	for _, p := range merged {
		if p.Kind == adam.PinKindCover || p.Pin >= 100 {
			continue
		}
		isInput := p.IsInput || p.Kind == adam.PinKindBinarySensor
		state, err := c.client.GetPinState(ctx, p.Pin, isInput)
		if err != nil {
			// Absent from the map means "unknown", never "off".
			c.logger.Warn("Failed to fetch pin state",
				zap.Int("pin", p.Pin),
				zap.Bool("is_input", isInput),
				zap.Error(err))
			soft = multierr.Append(soft, err)
			continue
		}
		pinStates[StateKey(p.Pin, isInput)] = *state
	}

	coverStates := make(map[int]adam.CoverState)
	states, err := c.client.GetCoversState(ctx)
	if err != nil {
		soft = multierr.Append(soft, err)
	} else {
		for _, cs := range states {
			coverStates[cs.CoverID] = cs
		}
	}

	triggers, err := c.client.GetInputTriggers(ctx)
	if err != nil {
		soft = multierr.Append(soft, err)
		triggers = nil
	}

	events, err := c.client.GetButtonEvents(ctx)
	if err != nil {
		soft = multierr.Append(soft, err)
		events = nil
	}

	// Events are cycle-local: deliver them now, before the snapshot is
	// assembled, and never buffer them across cycles.
	c.dispatcher.Dispatch(events)

	modules, err := c.client.GetRelayModules(ctx)
	if err != nil {
		soft = multierr.Append(soft, err)
		modules = nil
	}

	if soft != nil {
		failures := multierr.Errors(soft)
		c.logger.Warn("Cycle completed with soft failures",
			zap.Int("count", len(failures)),
			zap.Error(soft))
		c.reporter.Gauge("refresh.soft_failures", float64(len(failures)))
	} else {
		c.reporter.Gauge("refresh.soft_failures", 0)
	}

	return &Snapshot{
		Device:       *info,
		Pins:         merged,
		PinStates:    pinStates,
		Triggers:     triggers,
		ButtonEvents: events,
		CoverStates:  coverStates,
		CoverConfigs: coverConfigs,
		RelayModules: modules,
	}, nil
}
