package keeper

import (
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// EndBlocker is called at the end of each block. It does not mutate
// pool state; payouts stay permissionless. It surfaces which pools are
// crankable (payout_due events for off-chain crankers) and flags pools
// stuck waiting on randomness.
func (k *Keeper) EndBlocker(ctx sdk.Context) error {
	blockHeight := ctx.BlockHeight()
	start := time.Now()
	now := ctx.BlockTime().Unix()

	// Phase 1: due-pool sweep over the in-memory schedule index.
	sweepStart := time.Now()
	due := k.DuePools(ctx, now)
	dueCount := 0
	for _, poolID := range due {
		pool := k.GetPool(ctx, poolID)
		if pool == nil || pool.Status != types.PoolStatusActive {
			continue
		}
		dueCount++
		k.emitPoolEvent(ctx, types.EventPayoutDue, poolID, "", "", pool.CurrentCycle)
	}
	sweepDuration := time.Since(sweepStart)

	// Phase 2: flag pools active but still unordered. There is no
	// timeout; the pool waits for the oracle indefinitely, so
	// operators need the signal.
	pending := k.GetPendingRandomnessRequests(ctx)
	for _, req := range pending {
		age := now - req.RequestedAt
		if age > 0 && age%600 == 0 {
			k.logger.Warn("pool awaiting randomness",
				"pool_id", req.PoolID,
				"request_id", req.RequestID,
				"age_s", age,
			)
		}
	}

	totalDuration := time.Since(start)
	k.logger.Debug("tanda EndBlocker completed",
		"block", blockHeight,
		"total_ms", totalDuration.Milliseconds(),
		"sweep_ms", sweepDuration.Milliseconds(),
		"pools_due", dueCount,
		"pending_randomness", len(pending),
	)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"tanda_endblock",
			sdk.NewAttribute("block_height", math.NewInt(blockHeight).String()),
			sdk.NewAttribute("pools_due", math.NewInt(int64(dueCount)).String()),
			sdk.NewAttribute("pending_randomness", math.NewInt(int64(len(pending))).String()),
		),
	)

	return nil
}
