package keeper

import (
	"testing"
	"time"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

type recordingListener struct {
	events []types.PoolEvent
}

func (r *recordingListener) OnPoolEvent(event types.PoolEvent) {
	r.events = append(r.events, event)
}

func (r *recordingListener) byType(eventType string) []types.PoolEvent {
	var out []types.PoolEvent
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// TestDuePools tests the btree-backed schedule index
func TestDuePools(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 3)

	// Open pools are never due.
	if due := k.DuePools(ctx, ctx.BlockTime().Unix()+7200); len(due) != 0 {
		t.Errorf("open pool reported due: %v", due)
	}

	fillTestPool(t, k, ctx, pool)
	now := ctx.BlockTime().Unix()

	if due := k.DuePools(ctx, now+3599); len(due) != 0 {
		t.Errorf("pool due before interval elapsed: %v", due)
	}
	due := k.DuePools(ctx, now+3600)
	if len(due) != 1 || due[0] != pool.PoolID {
		t.Errorf("expected [%s], got %v", pool.PoolID, due)
	}

	// A payout pushes the due time forward.
	assignTestOrder(t, k, ctx, pool.PoolID, 42)
	ctx = ctx.WithBlockTime(ctx.BlockTime().Add(time.Hour))
	if _, err := k.TriggerPayout(ctx, pool.PoolID); err != nil {
		t.Fatalf("TriggerPayout failed: %v", err)
	}
	if due := k.DuePools(ctx, ctx.BlockTime().Unix()); len(due) != 0 {
		t.Errorf("pool still due right after payout: %v", due)
	}
	if due := k.DuePools(ctx, ctx.BlockTime().Unix()+3600); len(due) != 1 {
		t.Errorf("pool not due one interval after payout: %v", due)
	}
}

// TestDueIndexRebuild tests lazy reconstruction from the store, as
// after a process restart
func TestDueIndexRebuild(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 2)
	fillTestPool(t, k, ctx, pool)

	// Fresh keeper over the same store: index starts cold and must be
	// rebuilt from persisted pools on first use.
	k2 := NewKeeper(k.cdc, k.storeKey, bank, k.authority, k.logger)

	due := k2.DuePools(ctx, ctx.BlockTime().Unix()+3600)
	if len(due) != 1 {
		t.Errorf("expected one due pool, got %v", due)
	}
}

// TestEndBlocker tests due-event emission to the listener
func TestEndBlocker(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	listener := &recordingListener{}
	k.SetListener(listener)

	pool := createTestPool(t, k, ctx, 3)
	fillTestPool(t, k, ctx, pool)

	if err := k.EndBlocker(ctx); err != nil {
		t.Fatalf("EndBlocker failed: %v", err)
	}
	if len(listener.byType(types.EventPayoutDue)) != 0 {
		t.Error("payout_due emitted before the interval elapsed")
	}

	ctx = ctx.WithBlockTime(ctx.BlockTime().Add(time.Hour))
	if err := k.EndBlocker(ctx); err != nil {
		t.Fatalf("EndBlocker failed: %v", err)
	}
	dueEvents := listener.byType(types.EventPayoutDue)
	if len(dueEvents) != 1 || dueEvents[0].PoolID != pool.PoolID {
		t.Errorf("expected one payout_due for %s, got %v", pool.PoolID, dueEvents)
	}
}

// TestListenerLifecycleEvents tests the event stream across a full
// enrollment
func TestListenerLifecycleEvents(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	listener := &recordingListener{}
	k.SetListener(listener)

	pool := createTestPool(t, k, ctx, 2)
	fillTestPool(t, k, ctx, pool)
	assignTestOrder(t, k, ctx, pool.PoolID, 7)

	if n := len(listener.byType(types.EventPoolCreated)); n != 1 {
		t.Errorf("expected 1 pool_created, got %d", n)
	}
	if n := len(listener.byType(types.EventParticipantJoined)); n != 2 {
		t.Errorf("expected 2 participant_joined, got %d", n)
	}
	if n := len(listener.byType(types.EventPoolStarted)); n != 1 {
		t.Errorf("expected 1 pool_started, got %d", n)
	}
	if n := len(listener.byType(types.EventOrderAssigned)); n != 1 {
		t.Errorf("expected 1 order_assigned, got %d", n)
	}
}
