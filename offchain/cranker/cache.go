package cranker

import (
	"sync"
)

// PoolState is the cranker's view of one active pool
type PoolState struct {
	PoolID         string
	Status         string
	DueAt          int64 // unix seconds of the next payout
	PayoutInterval int64
	OrderAssigned  bool
	CurrentCycle   uint32
}

// PoolCache is a thread-safe cache of tracked pools
type PoolCache struct {
	pools map[string]*PoolState
	mu    sync.RWMutex
}

// NewPoolCache creates a new pool cache
func NewPoolCache() *PoolCache {
	return &PoolCache{
		pools: make(map[string]*PoolState),
	}
}

// Get retrieves a pool state from the cache
func (c *PoolCache) Get(poolID string) (*PoolState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, exists := c.pools[poolID]
	return state, exists
}

// Set stores a pool state in the cache
func (c *PoolCache) Set(state *PoolState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools[state.PoolID] = state
}

// Delete removes a pool from the cache
func (c *PoolCache) Delete(poolID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pools, poolID)
}

// Len returns the number of tracked pools
func (c *PoolCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pools)
}

// Clear removes all pools from the cache
func (c *PoolCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools = make(map[string]*PoolState)
}

// GetAll returns all tracked pools
func (c *PoolCache) GetAll() []*PoolState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pools := make([]*PoolState, 0, len(c.pools))
	for _, state := range c.pools {
		pools = append(pools, state)
	}
	return pools
}

// Due returns pools whose payout interval has elapsed at the given
// time. Only pools with an assigned order are crankable.
func (c *PoolCache) Due(now int64) []*PoolState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	due := make([]*PoolState, 0)
	for _, state := range c.pools {
		if state.Status == "active" && state.OrderAssigned && state.DueAt <= now {
			due = append(due, state)
		}
	}
	return due
}

// BumpDue pushes a pool's due time forward by its payout interval
// after a successful crank.
func (c *PoolCache) BumpDue(poolID string, now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if state, ok := c.pools[poolID]; ok {
		state.DueAt = now + state.PayoutInterval
		state.CurrentCycle++
	}
}
