package keeper

import (
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// FulfillRandomness resolves a pending request back to its pool and
// commits the payout order. The pending entry is deleted on success,
// so at most one fulfillment is ever accepted per pool; a second
// delivery fails with ErrRequestNotFound.
func (k *Keeper) FulfillRandomness(ctx sdk.Context, oracle, requestID string, randomValue uint64) (*types.Pool, error) {
	params := k.GetParams(ctx)
	if oracle != params.Oracle && oracle != k.authority {
		return nil, types.ErrUnauthorized
	}

	req := k.GetRandomnessRequest(ctx, requestID)
	if req == nil {
		return nil, types.ErrRequestNotFound
	}

	pool, err := k.AssignOrder(ctx, req.PoolID, randomValue)
	if err != nil {
		return nil, err
	}
	k.DeleteRandomnessRequest(ctx, requestID)

	k.logger.Info("randomness fulfilled",
		"request_id", requestID,
		"pool_id", req.PoolID,
	)
	return pool, nil
}

// AssignOrder commits the one-time payout permutation for a fully
// enrolled pool. Callable exactly once; a second call fails with
// ErrOrderAlreadyAssigned. The permutation is immutable afterwards
// except for removal-driven compaction.
func (k *Keeper) AssignOrder(ctx sdk.Context, poolID string, seed uint64) (*types.Pool, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound
	}
	if pool.PayoutOrderAssigned {
		return nil, types.ErrOrderAlreadyAssigned
	}
	if !pool.IsFull() {
		return nil, types.ErrEnrollmentIncomplete
	}

	order := types.ShufflePayoutOrder(seed, len(pool.Participants))
	for pos, slot := range order {
		pool.Participants[slot].OrderPosition = uint32(pos)
	}
	pool.PayoutOrder = order
	pool.PayoutOrderAssigned = true
	k.SetPool(ctx, pool)

	k.emitPoolEvent(ctx, types.EventOrderAssigned, poolID, "", "", 0)
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"tanda_order_detail",
			sdk.NewAttribute("pool_id", poolID),
			sdk.NewAttribute("seed", strconv.FormatUint(seed, 10)),
			sdk.NewAttribute("order", formatOrder(order)),
		),
	)

	k.logger.Info("payout order assigned",
		"pool_id", poolID,
		"order", formatOrder(order),
	)
	return pool, nil
}

func formatOrder(order []uint32) string {
	s := ""
	for i, slot := range order {
		if i > 0 {
			s += ","
		}
		s += strconv.FormatUint(uint64(slot), 10)
	}
	return s
}
