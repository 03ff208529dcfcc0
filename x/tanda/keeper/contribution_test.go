package keeper

import (
	"testing"

	"cosmossdk.io/math"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// TestContribute tests prepayment bookkeeping
func TestContribute(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 3)
	fillTestPool(t, k, ctx, pool)

	updated, err := k.Contribute(ctx, testAddr(1), pool.PoolID, 2)
	if err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}

	slot, _ := updated.LookupParticipant(testAddr(1))
	if updated.Participants[slot].PaidUntilCycle != 3 {
		t.Errorf("expected paid until cycle 3, got %d", updated.Participants[slot].PaidUntilCycle)
	}
	// 3 joins at 100 plus one 200 prepayment.
	if !updated.TotalFunds.Equal(math.NewInt(500)) {
		t.Errorf("expected total funds 500, got %s", updated.TotalFunds)
	}
	last := bank.debits[len(bank.debits)-1]
	if !last.amount[0].Amount.Equal(math.NewInt(200)) {
		t.Errorf("expected debit of 200, got %s", last.amount[0].Amount)
	}
}

// TestContributeRejections tests payment preconditions
func TestContributeRejections(t *testing.T) {
	k, ctx, bank := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 3)

	// Pool still open: no payments yet.
	if _, _, err := k.JoinPool(ctx, testAddr(1), pool.PoolID); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if _, err := k.Contribute(ctx, testAddr(1), pool.PoolID, 1); err != types.ErrPoolNotActive {
		t.Errorf("expected ErrPoolNotActive, got %v", err)
	}

	fillTestPool(t, k, ctx, k.GetPool(ctx, pool.PoolID))

	if _, err := k.Contribute(ctx, testAddr(99), pool.PoolID, 1); err != types.ErrNotParticipant {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}
	if _, err := k.Contribute(ctx, testAddr(1), pool.PoolID, 0); err != types.ErrInvalidCycleCount {
		t.Errorf("expected ErrInvalidCycleCount, got %v", err)
	}

	// Joining prepaid cycle 1 of 3; at most 2 more cycles fit.
	if _, err := k.Contribute(ctx, testAddr(1), pool.PoolID, 3); err != types.ErrExceedsRemainingCycles {
		t.Errorf("expected ErrExceedsRemainingCycles, got %v", err)
	}
	if _, err := k.Contribute(ctx, testAddr(1), pool.PoolID, 2); err != nil {
		t.Errorf("prepaying to the last cycle failed: %v", err)
	}
	if _, err := k.Contribute(ctx, testAddr(1), pool.PoolID, 1); err != types.ErrExceedsRemainingCycles {
		t.Errorf("expected ErrExceedsRemainingCycles once fully prepaid, got %v", err)
	}

	// Transfer failure leaves the ledger untouched.
	before := k.GetPool(ctx, pool.PoolID).TotalFunds
	bank.failDebit = true
	if _, err := k.Contribute(ctx, testAddr(2), pool.PoolID, 1); err != errTransferFailed {
		t.Errorf("expected transfer failure to propagate, got %v", err)
	}
	after := k.GetPool(ctx, pool.PoolID)
	if !after.TotalFunds.Equal(before) {
		t.Errorf("failed payment mutated funds: %s -> %s", before, after.TotalFunds)
	}
	slot, _ := after.LookupParticipant(testAddr(2))
	if after.Participants[slot].PaidUntilCycle != 1 {
		t.Errorf("failed payment advanced paidUntilCycle to %d", after.Participants[slot].PaidUntilCycle)
	}
}

// TestPaidUntilCycleMonotonic tests that successful payments only move
// the prepayment watermark forward
func TestPaidUntilCycleMonotonic(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 5)
	fillTestPool(t, k, ctx, pool)

	last := uint32(0)
	for i := 0; i < 4; i++ {
		updated, err := k.Contribute(ctx, testAddr(1), pool.PoolID, 1)
		if err != nil {
			t.Fatalf("Contribute %d failed: %v", i, err)
		}
		slot, _ := updated.LookupParticipant(testAddr(1))
		paid := updated.Participants[slot].PaidUntilCycle
		if paid <= last {
			t.Fatalf("paidUntilCycle not increasing: %d after %d", paid, last)
		}
		last = paid
	}
}

// TestContributeCycleCountOverflow tests that a cycle count large
// enough to wrap uint32 arithmetic is still rejected by the
// remaining-cycles cap
func TestContributeCycleCountOverflow(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 3)
	fillTestPool(t, k, ctx, pool)

	huge := ^uint32(0) // wraps 1+huge to 0 in 32-bit addition
	if _, err := k.Contribute(ctx, testAddr(1), pool.PoolID, huge); err != types.ErrExceedsRemainingCycles {
		t.Fatalf("expected ErrExceedsRemainingCycles, got %v", err)
	}

	after := k.GetPool(ctx, pool.PoolID)
	slot, _ := after.LookupParticipant(testAddr(1))
	if after.Participants[slot].PaidUntilCycle != 1 {
		t.Errorf("rejected payment moved paidUntilCycle to %d", after.Participants[slot].PaidUntilCycle)
	}
	if !after.TotalFunds.Equal(math.NewInt(300)) {
		t.Errorf("rejected payment mutated funds: %s", after.TotalFunds)
	}
}
