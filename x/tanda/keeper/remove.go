package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// RemoveParticipant evicts a delinquent participant from an active
// pool. Only the creator may evict, and only participants behind on
// contributions (paidUntilCycle < currentCycle) qualify. The target's
// prior contributions are forfeited to the pool; an EvictionRecord
// keeps the amount auditable. The participant list and, when already
// assigned, the payout order are compacted so slot indices stay
// contiguous.
func (k *Keeper) RemoveParticipant(ctx sdk.Context, creator, poolID, target string) (*types.EvictionRecord, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound
	}
	if creator != pool.Creator {
		return nil, types.ErrNotCreator
	}
	if err := pool.EnsureActive(); err != nil {
		return nil, err
	}

	slot, ok := pool.LookupParticipant(target)
	if !ok {
		return nil, types.ErrNotParticipant
	}
	participant := pool.Participants[slot]
	if !participant.IsActive {
		return nil, types.ErrParticipantInactive
	}
	if participant.PaidUntilCycle >= pool.CurrentCycle {
		return nil, types.ErrParticipantInGoodStanding
	}

	// Compact the participant list: shift later slots left and rebuild
	// the address index for the shifted entries.
	pool.Participants = append(pool.Participants[:slot], pool.Participants[slot+1:]...)
	delete(pool.ParticipantIndex, target)
	for addr, idx := range pool.ParticipantIndex {
		if idx > slot {
			pool.ParticipantIndex[addr] = idx - 1
		}
	}

	if pool.PayoutOrderAssigned {
		pool.PayoutOrder = types.CompactOrder(pool.PayoutOrder, slot)
		for pos, s := range pool.PayoutOrder {
			pool.Participants[s].OrderPosition = uint32(pos)
		}
		// Removals can exhaust the remaining schedule.
		if int(pool.CurrentCycle) > len(pool.PayoutOrder) {
			pool.Status = types.PoolStatusCompleted
		}
	}

	forfeited := pool.ContributionAmount.MulRaw(int64(participant.PaidUntilCycle))
	rec := &types.EvictionRecord{
		PoolID:          poolID,
		Address:         target,
		Slot:            slot,
		ForfeitedAmount: forfeited,
		Cycle:           pool.CurrentCycle,
		EvictedAt:       ctx.BlockTime().Unix(),
	}
	k.SetPool(ctx, pool)
	k.SetEvictionRecord(ctx, rec)

	k.emitPoolEvent(ctx, types.EventParticipantRemoved, poolID, target, forfeited.String(), pool.CurrentCycle)
	if pool.Status == types.PoolStatusCompleted {
		k.emitPoolEvent(ctx, types.EventPoolCompleted, poolID, "", "", pool.CurrentCycle)
	}

	k.logger.Info("participant removed",
		"pool_id", poolID,
		"target", target,
		"slot", slot,
		"forfeited", forfeited.String(),
		"cycle", pool.CurrentCycle,
	)

	return rec, nil
}
