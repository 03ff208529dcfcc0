// Package cranker implements the off-chain payout daemon. Payouts are
// permissionless on chain; someone still has to send the transaction
// when an interval elapses. The cranker tracks active pools, listens to
// lifecycle events, and submits a crank for every due payout.
package cranker

import (
	"context"
	"log"
	"sync"
	"time"
)

// Config holds the cranker configuration
type Config struct {
	GatewayURL   string        // REST gateway base URL
	PollInterval time.Duration // How often to sweep for due payouts
	SyncInterval time.Duration // How often to resync the pool set
	EventBuffer  int           // Incoming event channel capacity
}

// DefaultConfig returns the default cranker configuration
func DefaultConfig() *Config {
	return &Config{
		GatewayURL:   "http://localhost:8080",
		PollInterval: 5 * time.Second,
		SyncInterval: time.Minute,
		EventBuffer:  1000,
	}
}

// PoolSource lists the pools the cranker should track
type PoolSource interface {
	ListActivePools(ctx context.Context) ([]*PoolState, error)
}

// Event is a pool lifecycle notification fed into the cranker
type Event struct {
	Type      string
	PoolID    string
	Timestamp time.Time
}

// Cranker is the payout crank daemon
type Cranker struct {
	config    *Config
	cache     *PoolCache
	source    PoolSource
	submitter PayoutSubmitter

	eventCh chan Event

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewCranker creates a new cranker instance
func NewCranker(config *Config, source PoolSource, submitter PayoutSubmitter) *Cranker {
	if config == nil {
		config = DefaultConfig()
	}
	if submitter == nil {
		submitter = NewMockSubmitter()
	}

	return &Cranker{
		config:    config,
		cache:     NewPoolCache(),
		source:    source,
		submitter: submitter,
		eventCh:   make(chan Event, config.EventBuffer),
		stopCh:    make(chan struct{}),
	}
}

// Start starts the cranker loops
func (c *Cranker) Start(ctx context.Context) error {
	log.Println("Starting payout cranker...")

	if err := c.syncPools(ctx); err != nil {
		log.Printf("Initial pool sync failed: %v", err)
	}

	c.wg.Add(1)
	go c.eventLoop(ctx)

	c.wg.Add(1)
	go c.pollLoop(ctx)

	log.Println("Payout cranker started")
	return nil
}

// Stop stops the cranker
func (c *Cranker) Stop() error {
	log.Println("Stopping payout cranker...")
	close(c.stopCh)
	c.wg.Wait()
	log.Println("Payout cranker stopped")
	return nil
}

// HandleEvent feeds a lifecycle event into the cranker. Non-blocking;
// events are dropped when the buffer is full (the periodic sync
// recovers any missed state).
func (c *Cranker) HandleEvent(event Event) {
	select {
	case c.eventCh <- event:
	default:
	}
}

// eventLoop processes incoming lifecycle events
func (c *Cranker) eventLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case event := <-c.eventCh:
			c.handleEvent(ctx, event)
		}
	}
}

// pollLoop sweeps for due payouts and periodically resyncs pools
func (c *Cranker) pollLoop(ctx context.Context) {
	defer c.wg.Done()

	pollTicker := time.NewTicker(c.config.PollInterval)
	defer pollTicker.Stop()
	syncTicker := time.NewTicker(c.config.SyncInterval)
	defer syncTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-pollTicker.C:
			c.crankDue(ctx)
		case <-syncTicker.C:
			if err := c.syncPools(ctx); err != nil {
				log.Printf("Pool sync failed: %v", err)
			}
		}
	}
}

// handleEvent reacts to one lifecycle event
func (c *Cranker) handleEvent(ctx context.Context, event Event) {
	switch event.Type {
	case "payout_due":
		// Direct liveness signal from the chain; crank immediately.
		if state, ok := c.cache.Get(event.PoolID); ok {
			c.crank(ctx, state)
		} else {
			c.trackPool(ctx, event.PoolID)
		}

	case "pool_started", "order_assigned":
		c.trackPool(ctx, event.PoolID)

	case "payout_sent", "participant_removed":
		// Schedule or roster changed; refresh the tracked state.
		c.trackPool(ctx, event.PoolID)

	case "pool_completed":
		c.cache.Delete(event.PoolID)
	}
}

// trackPool fetches one pool from the source and caches it
func (c *Cranker) trackPool(ctx context.Context, poolID string) {
	if c.source == nil {
		return
	}
	pools, err := c.source.ListActivePools(ctx)
	if err != nil {
		log.Printf("Failed to refresh pool %s: %v", poolID, err)
		return
	}
	for _, state := range pools {
		if state.PoolID == poolID {
			c.cache.Set(state)
			return
		}
	}
	// Not listed as active anymore.
	c.cache.Delete(poolID)
}

// syncPools replaces the tracked pool set from the source
func (c *Cranker) syncPools(ctx context.Context) error {
	if c.source == nil {
		return nil
	}
	pools, err := c.source.ListActivePools(ctx)
	if err != nil {
		return err
	}
	c.cache.Clear()
	for _, state := range pools {
		c.cache.Set(state)
	}
	log.Printf("Synced %d active pools", len(pools))
	return nil
}

// crankDue submits a crank for every pool whose interval has elapsed
func (c *Cranker) crankDue(ctx context.Context) {
	now := time.Now().Unix()
	for _, state := range c.cache.Due(now) {
		c.crank(ctx, state)
	}
}

// crank submits one payout crank
func (c *Cranker) crank(ctx context.Context, state *PoolState) {
	if err := c.submitter.SubmitPayout(ctx, state.PoolID); err != nil {
		log.Printf("Crank failed for %s: %v", state.PoolID, err)
		return
	}
	c.cache.BumpDue(state.PoolID, time.Now().Unix())
}

// Stats returns cranker statistics
type Stats struct {
	TrackedPools   int
	PendingEvents  int
	Submissions    int64
	FailedAttempts int64
}

// GetStats returns current cranker statistics
func (c *Cranker) GetStats() Stats {
	status := c.submitter.GetStatus()
	return Stats{
		TrackedPools:   c.cache.Len(),
		PendingEvents:  len(c.eventCh),
		Submissions:    status.TotalSubmissions,
		FailedAttempts: status.FailedSubmissions,
	}
}
