package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// PayoutResult reports the outcome of one released cycle.
type PayoutResult struct {
	Recipient       string
	RecipientAmount math.Int
	CreatorFee      math.Int
	TreasuryFee     math.Int
	Cycle           uint32
	Completed       bool
}

// TriggerPayout releases the current cycle's pooled funds to the
// participant at payoutOrder[currentCycle-1]. Permissionless: any
// caller may crank it once the interval has elapsed and every active
// participant is paid up.
//
// Ordering is checks, effects, interactions: all preconditions are
// verified first, the advanced state (cycle, clock, funds) is written
// to the store next, and only then do the three transfers run. A
// transfer that re-enters the module sees the already-advanced state
// and is additionally rejected by the in-flight guard.
func (k *Keeper) TriggerPayout(ctx sdk.Context, poolID string) (*PayoutResult, error) {
	k.payoutMu.Lock()
	if k.payoutInFlight[poolID] {
		k.payoutMu.Unlock()
		return nil, types.ErrPayoutInProgress
	}
	k.payoutInFlight[poolID] = true
	k.payoutMu.Unlock()
	defer func() {
		k.payoutMu.Lock()
		delete(k.payoutInFlight, poolID)
		k.payoutMu.Unlock()
	}()

	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound
	}

	// Checks.
	if err := pool.EnsureActive(); err != nil {
		return nil, err
	}
	now := ctx.BlockTime().Unix()
	if !pool.PayoutDue(now) {
		return nil, types.ErrPayoutNotDue
	}
	if !pool.AllParticipantsPaid() {
		return nil, types.ErrParticipantsUnpaid
	}
	if !pool.PayoutOrderAssigned {
		return nil, types.ErrOrderNotAssigned
	}
	total := pool.PayoutTotal()
	if pool.TotalFunds.LT(total) {
		return nil, types.ErrInsufficientPoolFunds
	}
	cycle := pool.CurrentCycle
	if int(cycle) > len(pool.PayoutOrder) {
		// Removals exhausted the schedule before this cycle.
		return nil, types.ErrPoolNotActive
	}

	// Fee settings are read live so updates apply to this payout
	// forward, never retroactively.
	params := k.GetParams(ctx)
	creatorFee, treasuryFee, recipientAmt := types.SplitPayout(total, params.CreatorFeeBps, params.TreasuryFeeBps)
	recipientSlot := pool.PayoutOrder[cycle-1]
	recipient := pool.Participants[recipientSlot].Address

	// Effects: commit advanced state before any transfer.
	pool.StartTimestamp = now
	pool.CurrentCycle++
	pool.TotalFunds = pool.TotalFunds.Sub(total)
	completed := pool.CurrentCycle > pool.ParticipantCount || int(pool.CurrentCycle) > len(pool.PayoutOrder)
	if completed {
		pool.Status = types.PoolStatusCompleted
	}
	k.SetPool(ctx, pool)

	// Interactions.
	if err := k.payOut(ctx, pool.Denom, pool.Creator, creatorFee); err != nil {
		return nil, err
	}
	if err := k.payOut(ctx, pool.Denom, params.TreasuryAddress, treasuryFee); err != nil {
		return nil, err
	}
	if err := k.payOut(ctx, pool.Denom, recipient, recipientAmt); err != nil {
		return nil, err
	}

	k.emitPoolEvent(ctx, types.EventPayoutSent, poolID, recipient, recipientAmt.String(), cycle)
	k.emitPoolEvent(ctx, types.EventFeesDistributed, poolID, pool.Creator, creatorFee.Add(treasuryFee).String(), cycle)
	if completed {
		k.emitPoolEvent(ctx, types.EventPoolCompleted, poolID, "", "", cycle)
	}

	k.logger.Info("payout released",
		"pool_id", poolID,
		"cycle", cycle,
		"recipient", recipient,
		"recipient_amount", recipientAmt.String(),
		"creator_fee", creatorFee.String(),
		"treasury_fee", treasuryFee.String(),
		"completed", completed,
	)

	return &PayoutResult{
		Recipient:       recipient,
		RecipientAmount: recipientAmt,
		CreatorFee:      creatorFee,
		TreasuryFee:     treasuryFee,
		Cycle:           cycle,
		Completed:       completed,
	}, nil
}

// payOut sends amount from the module account to addr. Zero amounts
// (a zero-bps fee, or an empty treasury address at genesis) are
// skipped rather than sent.
func (k *Keeper) payOut(ctx sdk.Context, denom, addr string, amount math.Int) error {
	if amount.IsZero() || addr == "" {
		return nil
	}
	accAddr, err := sdk.AccAddressFromBech32(addr)
	if err != nil {
		return types.ErrInvalidAddress
	}
	return k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, accAddr, sdk.NewCoins(sdk.NewCoin(denom, amount)))
}
