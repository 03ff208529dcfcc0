package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// CreatePool validates the immutable config against live registry
// params and stores a new open pool. The whitelist length fixes the
// participant count and is never mutated afterwards.
func (k *Keeper) CreatePool(ctx sdk.Context, creator, denom string, contribution math.Int, payoutInterval int64, whitelist []string) (*types.Pool, error) {
	if !contribution.IsPositive() {
		return nil, types.ErrInvalidContribution
	}
	if payoutInterval <= 0 {
		return nil, types.ErrInvalidInterval
	}

	params := k.GetParams(ctx)
	if len(whitelist) < types.MinParticipantCount || uint32(len(whitelist)) > params.MaxParticipants {
		return nil, types.ErrInvalidParticipantCount
	}
	seen := make(map[string]bool, len(whitelist))
	for _, addr := range whitelist {
		if _, err := sdk.AccAddressFromBech32(addr); err != nil {
			return nil, types.ErrInvalidAddress
		}
		if seen[addr] {
			return nil, types.ErrDuplicateWhitelist
		}
		seen[addr] = true
	}

	poolID := k.NextPoolID(ctx)
	pool := types.NewPool(poolID, creator, denom, contribution, payoutInterval, whitelist, ctx.BlockTime().Unix())
	k.SetPool(ctx, pool)

	k.emitPoolEvent(ctx, types.EventPoolCreated, poolID, creator, contribution.String(), 0)

	k.logger.Info("pool created",
		"pool_id", poolID,
		"creator", creator,
		"denom", denom,
		"contribution", contribution.String(),
		"participants", len(whitelist),
		"interval_s", payoutInterval,
	)

	return pool, nil
}
