package cranker

import (
	"context"
	"testing"
	"time"
)

type staticSource struct {
	pools []*PoolState
}

func (s *staticSource) ListActivePools(ctx context.Context) ([]*PoolState, error) {
	return s.pools, nil
}

func TestPoolCacheDue(t *testing.T) {
	cache := NewPoolCache()
	now := time.Now().Unix()

	cache.Set(&PoolState{PoolID: "tanda-1", Status: "active", OrderAssigned: true, DueAt: now - 10, PayoutInterval: 3600})
	cache.Set(&PoolState{PoolID: "tanda-2", Status: "active", OrderAssigned: true, DueAt: now + 3600, PayoutInterval: 3600})
	cache.Set(&PoolState{PoolID: "tanda-3", Status: "active", OrderAssigned: false, DueAt: now - 10, PayoutInterval: 3600})
	cache.Set(&PoolState{PoolID: "tanda-4", Status: "completed", OrderAssigned: true, DueAt: now - 10, PayoutInterval: 3600})

	due := cache.Due(now)
	if len(due) != 1 {
		t.Fatalf("expected 1 due pool, got %d", len(due))
	}
	if due[0].PoolID != "tanda-1" {
		t.Errorf("expected tanda-1 due, got %s", due[0].PoolID)
	}
}

func TestPoolCacheBumpDue(t *testing.T) {
	cache := NewPoolCache()
	now := time.Now().Unix()

	cache.Set(&PoolState{PoolID: "tanda-1", Status: "active", OrderAssigned: true, DueAt: now - 10, PayoutInterval: 3600, CurrentCycle: 1})
	cache.BumpDue("tanda-1", now)

	state, ok := cache.Get("tanda-1")
	if !ok {
		t.Fatal("pool missing after bump")
	}
	if state.DueAt != now+3600 {
		t.Errorf("expected due at %d, got %d", now+3600, state.DueAt)
	}
	if state.CurrentCycle != 2 {
		t.Errorf("expected cycle 2, got %d", state.CurrentCycle)
	}

	if len(cache.Due(now)) != 0 {
		t.Error("pool still due after bump")
	}
}

func TestCrankDue(t *testing.T) {
	now := time.Now().Unix()
	source := &staticSource{pools: []*PoolState{
		{PoolID: "tanda-1", Status: "active", OrderAssigned: true, DueAt: now - 5, PayoutInterval: 3600},
		{PoolID: "tanda-2", Status: "active", OrderAssigned: true, DueAt: now + 500, PayoutInterval: 3600},
	}}
	submitter := NewMockSubmitter()
	c := NewCranker(DefaultConfig(), source, submitter)

	ctx := context.Background()
	if err := c.syncPools(ctx); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if c.cache.Len() != 2 {
		t.Fatalf("expected 2 tracked pools, got %d", c.cache.Len())
	}

	c.crankDue(ctx)

	cranked := submitter.GetCranked()
	if len(cranked) != 1 {
		t.Fatalf("expected 1 crank, got %d", len(cranked))
	}
	if cranked[0] != "tanda-1" {
		t.Errorf("expected tanda-1 cranked, got %s", cranked[0])
	}

	// After the crank the due time is bumped; a second sweep is a no-op.
	c.crankDue(ctx)
	if len(submitter.GetCranked()) != 1 {
		t.Error("pool cranked twice in one interval")
	}
}

func TestCrankFailureKeepsDue(t *testing.T) {
	now := time.Now().Unix()
	source := &staticSource{pools: []*PoolState{
		{PoolID: "tanda-1", Status: "active", OrderAssigned: true, DueAt: now - 5, PayoutInterval: 3600},
	}}
	submitter := NewMockSubmitter()
	submitter.SetSimulateFailure(true)
	c := NewCranker(DefaultConfig(), source, submitter)

	ctx := context.Background()
	if err := c.syncPools(ctx); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	c.crankDue(ctx)

	// The failed crank must not advance the due time.
	if len(c.cache.Due(now)) != 1 {
		t.Error("failed crank advanced the due time")
	}

	submitter.SetSimulateFailure(false)
	c.crankDue(ctx)
	if len(submitter.GetCranked()) != 1 {
		t.Fatalf("expected crank after recovery, got %d", len(submitter.GetCranked()))
	}
}

func TestHandleEventCompleted(t *testing.T) {
	source := &staticSource{pools: []*PoolState{
		{PoolID: "tanda-1", Status: "active", OrderAssigned: true, DueAt: 0, PayoutInterval: 3600},
	}}
	c := NewCranker(DefaultConfig(), source, NewMockSubmitter())

	ctx := context.Background()
	if err := c.syncPools(ctx); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	c.handleEvent(ctx, Event{Type: "pool_completed", PoolID: "tanda-1"})
	if _, ok := c.cache.Get("tanda-1"); ok {
		t.Error("completed pool still tracked")
	}
}
