package keeper

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// setupActivePool builds a filled pool with the order assigned from
// seed 42 and the clock advanced past the first interval
func setupActivePool(t *testing.T, n int) (*Keeper, sdk.Context, *mockBankKeeper, *types.Pool) {
	t.Helper()
	k, ctx, bank := setupKeeper(t)
	pool := createTestPool(t, k, ctx, n)
	fillTestPool(t, k, ctx, pool)
	assignTestOrder(t, k, ctx, pool.PoolID, 42)
	ctx = ctx.WithBlockTime(ctx.BlockTime().Add(time.Hour))
	return k, ctx, bank, k.GetPool(ctx, pool.PoolID)
}

// TestTriggerPayout tests a full first-cycle payout with fee split
func TestTriggerPayout(t *testing.T) {
	k, ctx, bank, pool := setupActivePool(t, 3)

	// 3% creator fee, 2% treasury fee.
	params := k.GetParams(ctx)
	params.CreatorFeeBps = 300
	params.TreasuryFeeBps = 200
	params.TreasuryAddress = testAddr(210)
	if err := k.SetParams(ctx, params); err != nil {
		t.Fatalf("SetParams failed: %v", err)
	}

	result, err := k.TriggerPayout(ctx, pool.PoolID)
	if err != nil {
		t.Fatalf("TriggerPayout failed: %v", err)
	}

	// Seed 42 order is [1 0 2]: cycle 1 pays slot 1.
	if result.Recipient != testAddr(2) {
		t.Errorf("expected recipient %s, got %s", testAddr(2), result.Recipient)
	}
	if !result.CreatorFee.Equal(math.NewInt(9)) {
		t.Errorf("expected creator fee 9, got %s", result.CreatorFee)
	}
	if !result.TreasuryFee.Equal(math.NewInt(6)) {
		t.Errorf("expected treasury fee 6, got %s", result.TreasuryFee)
	}
	if !result.RecipientAmount.Equal(math.NewInt(285)) {
		t.Errorf("expected recipient amount 285, got %s", result.RecipientAmount)
	}

	if !bank.creditedTo(testAddr(2)).Equal(math.NewInt(285)) {
		t.Errorf("recipient credit mismatch: %s", bank.creditedTo(testAddr(2)))
	}
	if !bank.creditedTo(testAddr(200)).Equal(math.NewInt(9)) {
		t.Errorf("creator credit mismatch: %s", bank.creditedTo(testAddr(200)))
	}
	if !bank.creditedTo(testAddr(210)).Equal(math.NewInt(6)) {
		t.Errorf("treasury credit mismatch: %s", bank.creditedTo(testAddr(210)))
	}

	updated := k.GetPool(ctx, pool.PoolID)
	if updated.CurrentCycle != 2 {
		t.Errorf("expected cycle 2, got %d", updated.CurrentCycle)
	}
	if !updated.TotalFunds.IsZero() {
		t.Errorf("expected drained funds, got %s", updated.TotalFunds)
	}
	if updated.StartTimestamp != ctx.BlockTime().Unix() {
		t.Error("start timestamp not reset to payout time")
	}
}

// TestTriggerPayoutPreconditions tests every rejection path
func TestTriggerPayoutPreconditions(t *testing.T) {
	k, ctx, _ := setupKeeper(t)
	pool := createTestPool(t, k, ctx, 3)

	// Open pool.
	if _, err := k.TriggerPayout(ctx, pool.PoolID); err != types.ErrPoolNotActive {
		t.Errorf("expected ErrPoolNotActive, got %v", err)
	}
	if _, err := k.TriggerPayout(ctx, "no-such-pool"); err != types.ErrPoolNotFound {
		t.Errorf("expected ErrPoolNotFound, got %v", err)
	}

	fillTestPool(t, k, ctx, pool)

	// Interval not elapsed.
	if _, err := k.TriggerPayout(ctx, pool.PoolID); err != types.ErrPayoutNotDue {
		t.Errorf("expected ErrPayoutNotDue, got %v", err)
	}

	// Interval elapsed but order unassigned.
	ctx = ctx.WithBlockTime(ctx.BlockTime().Add(time.Hour))
	if _, err := k.TriggerPayout(ctx, pool.PoolID); err != types.ErrOrderNotAssigned {
		t.Errorf("expected ErrOrderNotAssigned, got %v", err)
	}

	assignTestOrder(t, k, ctx, pool.PoolID, 42)

	// First payout succeeds, then cycle 2 finds everyone unpaid.
	if _, err := k.TriggerPayout(ctx, pool.PoolID); err != nil {
		t.Fatalf("TriggerPayout failed: %v", err)
	}
	ctx = ctx.WithBlockTime(ctx.BlockTime().Add(time.Hour))
	if _, err := k.TriggerPayout(ctx, pool.PoolID); err != types.ErrParticipantsUnpaid {
		t.Errorf("expected ErrParticipantsUnpaid, got %v", err)
	}
}

// TestTriggerPayoutInsufficientFunds tests the balance gate
func TestTriggerPayoutInsufficientFunds(t *testing.T) {
	k, ctx, _, pool := setupActivePool(t, 3)

	// Drain the ledger below one payout total by force.
	pool.TotalFunds = math.NewInt(299)
	k.SetPool(ctx, pool)

	if _, err := k.TriggerPayout(ctx, pool.PoolID); err != types.ErrInsufficientPoolFunds {
		t.Errorf("expected ErrInsufficientPoolFunds, got %v", err)
	}
}

// TestPayoutCycleProgression tests k payouts leading to completion
func TestPayoutCycleProgression(t *testing.T) {
	k, ctx, bank, pool := setupActivePool(t, 3)

	// Prepay everyone through the final cycle.
	for _, addr := range pool.Whitelist {
		if _, err := k.Contribute(ctx, addr, pool.PoolID, 2); err != nil {
			t.Fatalf("Contribute failed: %v", err)
		}
	}

	paid := map[string]bool{}
	for cycle := uint32(1); cycle <= 3; cycle++ {
		result, err := k.TriggerPayout(ctx, pool.PoolID)
		if err != nil {
			t.Fatalf("TriggerPayout cycle %d failed: %v", cycle, err)
		}
		if result.Cycle != cycle {
			t.Errorf("expected cycle %d, got %d", cycle, result.Cycle)
		}
		if paid[result.Recipient] {
			t.Errorf("recipient %s paid twice", result.Recipient)
		}
		paid[result.Recipient] = true

		updated := k.GetPool(ctx, pool.PoolID)
		if updated.CurrentCycle != cycle+1 {
			t.Errorf("expected currentCycle %d after %d payouts, got %d", cycle+1, cycle, updated.CurrentCycle)
		}

		wantCompleted := cycle == 3
		if result.Completed != wantCompleted {
			t.Errorf("cycle %d: completed = %v", cycle, result.Completed)
		}
		if wantCompleted && updated.Status != types.PoolStatusCompleted {
			t.Errorf("pool not completed after final payout: %s", updated.Status)
		}
		if !wantCompleted && updated.Status != types.PoolStatusActive {
			t.Errorf("pool left active state early: %s", updated.Status)
		}

		ctx = ctx.WithBlockTime(ctx.BlockTime().Add(time.Hour))
	}

	if len(paid) != 3 {
		t.Errorf("expected 3 distinct recipients, got %d", len(paid))
	}

	// Completed pools accept no further triggers or payments.
	if _, err := k.TriggerPayout(ctx, pool.PoolID); err != types.ErrPoolNotActive {
		t.Errorf("expected ErrPoolNotActive after completion, got %v", err)
	}
	if _, err := k.Contribute(ctx, pool.Whitelist[0], pool.PoolID, 1); err != types.ErrPoolNotActive {
		t.Errorf("expected ErrPoolNotActive for payment after completion, got %v", err)
	}

	// Each member contributed 300 over the lifetime; with 1% creator
	// fee the three recipients received 297 each.
	total := math.ZeroInt()
	for _, tr := range bank.credits {
		total = total.Add(tr.amount[0].Amount)
	}
	if !total.Equal(math.NewInt(900)) {
		t.Errorf("expected 900 distributed in total, got %s", total)
	}
}

// TestTriggerPayoutReentrancy tests that a transfer calling back into
// the module cannot re-trigger the same payout
func TestTriggerPayoutReentrancy(t *testing.T) {
	k, ctx, bank, pool := setupActivePool(t, 3)

	var reentryErr error
	reentered := false
	bank.onCredit = func() {
		if reentered {
			return
		}
		reentered = true
		_, reentryErr = k.TriggerPayout(ctx, pool.PoolID)
	}

	if _, err := k.TriggerPayout(ctx, pool.PoolID); err != nil {
		t.Fatalf("TriggerPayout failed: %v", err)
	}
	if !reentered {
		t.Fatal("reentrancy hook never fired")
	}
	if reentryErr != types.ErrPayoutInProgress {
		t.Errorf("expected ErrPayoutInProgress for reentrant call, got %v", reentryErr)
	}

	// State advanced exactly once.
	updated := k.GetPool(ctx, pool.PoolID)
	if updated.CurrentCycle != 2 {
		t.Errorf("expected cycle 2 after reentrant attempt, got %d", updated.CurrentCycle)
	}
}

// TestFeeSettingsReadLive tests that a params change applies to the
// next payout, not retroactively
func TestFeeSettingsReadLive(t *testing.T) {
	k, ctx, _, pool := setupActivePool(t, 2)

	result, err := k.TriggerPayout(ctx, pool.PoolID)
	if err != nil {
		t.Fatalf("TriggerPayout failed: %v", err)
	}
	// Default params: 1% creator fee on 200 total.
	if !result.CreatorFee.Equal(math.NewInt(2)) {
		t.Errorf("expected creator fee 2, got %s", result.CreatorFee)
	}

	params := k.GetParams(ctx)
	params.CreatorFeeBps = 1000
	if err := k.SetParams(ctx, params); err != nil {
		t.Fatalf("SetParams failed: %v", err)
	}

	if _, err := k.Contribute(ctx, pool.Whitelist[0], pool.PoolID, 1); err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}
	if _, err := k.Contribute(ctx, pool.Whitelist[1], pool.PoolID, 1); err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}
	ctx = ctx.WithBlockTime(ctx.BlockTime().Add(time.Hour))

	result, err = k.TriggerPayout(ctx, pool.PoolID)
	if err != nil {
		t.Fatalf("second TriggerPayout failed: %v", err)
	}
	if !result.CreatorFee.Equal(math.NewInt(20)) {
		t.Errorf("expected updated creator fee 20, got %s", result.CreatorFee)
	}
}
