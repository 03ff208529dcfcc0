package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// QueryServer defines the tanda QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// Pool returns a pool by ID
func (q *QueryServer) Pool(ctx context.Context, poolID string) (*types.Pool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound
	}
	return pool, nil
}

// Pools returns all pools with pagination
func (q *QueryServer) Pools(ctx context.Context, offset, limit uint64) ([]*types.Pool, uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	allPools := q.keeper.GetAllPools(sdkCtx)

	total := uint64(len(allPools))
	if offset >= total {
		return []*types.Pool{}, total, nil
	}
	end := offset + limit
	if end > total || limit == 0 {
		end = total
	}
	return allPools[offset:end], total, nil
}

// PoolsByStatus returns pools filtered by lifecycle state
func (q *QueryServer) PoolsByStatus(ctx context.Context, status string) ([]*types.Pool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetPoolsByStatus(sdkCtx, status), nil
}

// Participant returns one pool member by address
func (q *QueryServer) Participant(ctx context.Context, poolID, address string) (*types.Participant, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound
	}
	slot, ok := pool.LookupParticipant(address)
	if !ok {
		return nil, types.ErrNotParticipant
	}
	p := pool.Participants[slot]
	return &p, nil
}

// PendingRandomness returns the unfulfilled randomness request for a
// pool, if any.
func (q *QueryServer) PendingRandomness(ctx context.Context, poolID string) (*types.RandomnessRequest, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	for _, req := range q.keeper.GetPendingRandomnessRequests(sdkCtx) {
		if req.PoolID == poolID {
			return req, nil
		}
	}
	return nil, types.ErrRequestNotFound
}

// Evictions returns the eviction records for a pool
func (q *QueryServer) Evictions(ctx context.Context, poolID string) ([]*types.EvictionRecord, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetEvictionRecords(sdkCtx, poolID), nil
}

// Params returns the registry-wide settings
func (q *QueryServer) Params(ctx context.Context) (types.Params, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.GetParams(sdkCtx), nil
}

// NextPayoutInfo describes the upcoming payout of an active pool.
type NextPayoutInfo struct {
	Recipient       string   `json:"recipient,omitempty"`
	DueAt           int64    `json:"due_at"`
	RecipientAmount math.Int `json:"recipient_amount"`
	Cycle           uint32   `json:"cycle"`
}

// NextPayout returns who receives the next payout, when it becomes
// triggerable and the net amount under current fee settings.
func (q *QueryServer) NextPayout(ctx context.Context, poolID string) (*NextPayoutInfo, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool := q.keeper.GetPool(sdkCtx, poolID)
	if pool == nil {
		return nil, types.ErrPoolNotFound
	}
	if err := pool.EnsureActive(); err != nil {
		return nil, err
	}

	params := q.keeper.GetParams(sdkCtx)
	_, _, recipientAmt := types.SplitPayout(pool.PayoutTotal(), params.CreatorFeeBps, params.TreasuryFeeBps)

	info := &NextPayoutInfo{
		DueAt:           pool.StartTimestamp + pool.PayoutInterval,
		RecipientAmount: recipientAmt,
		Cycle:           pool.CurrentCycle,
	}
	if pool.PayoutOrderAssigned && int(pool.CurrentCycle) <= len(pool.PayoutOrder) {
		info.Recipient = pool.Participants[pool.PayoutOrder[pool.CurrentCycle-1]].Address
	}
	return info, nil
}
