package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// Contribute prepays one or more cycles for an active participant.
// Prepaying arbitrarily far ahead is allowed, up to the association's
// total cycle count, giving participants slack against deadlines.
func (k *Keeper) Contribute(ctx sdk.Context, contributor, poolID string, cycles uint32) (*types.Pool, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound
	}
	if err := pool.EnsureActive(); err != nil {
		return nil, err
	}

	slot, ok := pool.LookupParticipant(contributor)
	if !ok {
		return nil, types.ErrNotParticipant
	}
	participant := &pool.Participants[slot]
	if !participant.IsActive {
		return nil, types.ErrParticipantInactive
	}

	if cycles < 1 {
		return nil, types.ErrInvalidCycleCount
	}
	// Widened so an enormous cycles value cannot wrap past the cap.
	if uint64(participant.PaidUntilCycle)+uint64(cycles) > uint64(pool.ParticipantCount) {
		return nil, types.ErrExceedsRemainingCycles
	}

	contributorAddr, err := sdk.AccAddressFromBech32(contributor)
	if err != nil {
		return nil, types.ErrInvalidAddress
	}
	total := pool.ContributionAmount.MulRaw(int64(cycles))
	coins := sdk.NewCoins(sdk.NewCoin(pool.Denom, total))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, contributorAddr, types.ModuleName, coins); err != nil {
		return nil, err
	}

	participant.PaidUntilCycle += cycles
	pool.TotalFunds = pool.TotalFunds.Add(total)
	k.SetPool(ctx, pool)

	k.emitPoolEvent(ctx, types.EventPaymentMade, poolID, contributor, total.String(), participant.PaidUntilCycle)

	k.logger.Debug("contribution received",
		"pool_id", poolID,
		"contributor", contributor,
		"cycles", cycles,
		"paid_until", participant.PaidUntilCycle,
		"amount", total.String(),
	)

	return pool, nil
}
