package keeper

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// JoinPool enrolls a whitelisted address into an open pool. Joining
// debits one contribution, which prepays the first cycle. The
// enrollment that fills the pool atomically activates it and files a
// randomness request for the payout-order shuffle.
func (k *Keeper) JoinPool(ctx sdk.Context, joiner, poolID string) (*types.Pool, uint32, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, 0, types.ErrPoolNotFound
	}
	if err := pool.EnsureOpen(); err != nil {
		return nil, 0, err
	}
	if !pool.IsWhitelisted(joiner) {
		return nil, 0, types.ErrNotWhitelisted
	}
	if _, enrolled := pool.LookupParticipant(joiner); enrolled {
		return nil, 0, types.ErrAlreadyJoined
	}

	joinerAddr, err := sdk.AccAddressFromBech32(joiner)
	if err != nil {
		return nil, 0, types.ErrInvalidAddress
	}
	amount := sdk.NewCoins(sdk.NewCoin(pool.Denom, pool.ContributionAmount))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, joinerAddr, types.ModuleName, amount); err != nil {
		return nil, 0, err
	}

	now := ctx.BlockTime().Unix()
	slot := uint32(len(pool.Participants))
	pool.Participants = append(pool.Participants, types.Participant{
		Address:        joiner,
		IsActive:       true,
		PaidUntilCycle: 1,
		JoinedAt:       now,
	})
	pool.ParticipantIndex[joiner] = slot
	pool.TotalFunds = pool.TotalFunds.Add(pool.ContributionAmount)

	activated := pool.IsFull()
	if activated {
		pool.Status = types.PoolStatusActive
		pool.StartTimestamp = now
		pool.CurrentCycle = 1
	}
	k.SetPool(ctx, pool)

	k.emitPoolEvent(ctx, types.EventParticipantJoined, poolID, joiner, pool.ContributionAmount.String(), 0)

	if activated {
		req := k.requestRandomness(ctx, pool)
		k.emitPoolEvent(ctx, types.EventPoolStarted, poolID, "", "", 1)
		k.logger.Info("pool activated",
			"pool_id", poolID,
			"participants", len(pool.Participants),
			"randomness_request", req.RequestID,
		)
	}

	return pool, slot, nil
}

// requestRandomness files a pending entry in the request-id to pool-id
// table and emits the request event for the off-chain oracle. The
// request id is derived deterministically so every node agrees on it.
func (k *Keeper) requestRandomness(ctx sdk.Context, pool *types.Pool) *types.RandomnessRequest {
	req := &types.RandomnessRequest{
		RequestID:   randomnessRequestID(pool.PoolID, ctx.BlockHeight()),
		PoolID:      pool.PoolID,
		RequestedAt: ctx.BlockTime().Unix(),
		Height:      ctx.BlockHeight(),
	}
	k.SetRandomnessRequest(ctx, req)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			"tanda_randomness_requested",
			sdk.NewAttribute("pool_id", pool.PoolID),
			sdk.NewAttribute("request_id", req.RequestID),
		),
	)
	return req
}

func randomnessRequestID(poolID string, height int64) string {
	var hbz [8]byte
	binary.BigEndian.PutUint64(hbz[:], uint64(height))
	sum := sha256.Sum256(append([]byte(poolID), hbz[:]...))
	return hex.EncodeToString(sum[:16])
}
