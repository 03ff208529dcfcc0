package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// MsgServer defines the tanda MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

// CreatePool handles MsgCreatePool
func (m *MsgServer) CreatePool(ctx context.Context, msg *types.MsgCreatePool) (*types.MsgCreatePoolResponse, error) {
	amount, ok := math.NewIntFromString(msg.ContributionAmount)
	if !ok {
		return nil, types.ErrInvalidContribution
	}

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool, err := m.keeper.CreatePool(sdkCtx, msg.Creator, msg.Denom, amount, msg.PayoutInterval, msg.Whitelist)
	if err != nil {
		return nil, err
	}

	return &types.MsgCreatePoolResponse{PoolID: pool.PoolID}, nil
}

// JoinPool handles MsgJoinPool
func (m *MsgServer) JoinPool(ctx context.Context, msg *types.MsgJoinPool) (*types.MsgJoinPoolResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool, slot, err := m.keeper.JoinPool(sdkCtx, msg.Joiner, msg.PoolID)
	if err != nil {
		return nil, err
	}

	return &types.MsgJoinPoolResponse{
		Slot:          slot,
		PoolActivated: pool.Status == types.PoolStatusActive,
	}, nil
}

// Contribute handles MsgContribute
func (m *MsgServer) Contribute(ctx context.Context, msg *types.MsgContribute) (*types.MsgContributeResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool, err := m.keeper.Contribute(sdkCtx, msg.Contributor, msg.PoolID, msg.Cycles)
	if err != nil {
		return nil, err
	}

	slot, _ := pool.LookupParticipant(msg.Contributor)
	return &types.MsgContributeResponse{
		PaidUntilCycle: pool.Participants[slot].PaidUntilCycle,
		AmountPaid:     pool.ContributionAmount.MulRaw(int64(msg.Cycles)).String(),
	}, nil
}

// TriggerPayout handles MsgTriggerPayout
func (m *MsgServer) TriggerPayout(ctx context.Context, msg *types.MsgTriggerPayout) (*types.MsgTriggerPayoutResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	result, err := m.keeper.TriggerPayout(sdkCtx, msg.PoolID)
	if err != nil {
		return nil, err
	}

	return &types.MsgTriggerPayoutResponse{
		Recipient:       result.Recipient,
		RecipientAmount: result.RecipientAmount.String(),
		CreatorFee:      result.CreatorFee.String(),
		TreasuryFee:     result.TreasuryFee.String(),
		Cycle:           result.Cycle,
		Completed:       result.Completed,
	}, nil
}

// RemoveParticipant handles MsgRemoveParticipant
func (m *MsgServer) RemoveParticipant(ctx context.Context, msg *types.MsgRemoveParticipant) (*types.MsgRemoveParticipantResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	rec, err := m.keeper.RemoveParticipant(sdkCtx, msg.Creator, msg.PoolID, msg.Target)
	if err != nil {
		return nil, err
	}

	return &types.MsgRemoveParticipantResponse{
		ForfeitedAmount: rec.ForfeitedAmount.String(),
	}, nil
}

// FulfillRandomness handles MsgFulfillRandomness
func (m *MsgServer) FulfillRandomness(ctx context.Context, msg *types.MsgFulfillRandomness) (*types.MsgFulfillRandomnessResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	pool, err := m.keeper.FulfillRandomness(sdkCtx, msg.Oracle, msg.RequestID, msg.RandomValue)
	if err != nil {
		return nil, err
	}

	return &types.MsgFulfillRandomnessResponse{
		PoolID:      pool.PoolID,
		PayoutOrder: pool.PayoutOrder,
	}, nil
}

// UpdateParams handles MsgUpdateParams
func (m *MsgServer) UpdateParams(ctx context.Context, msg *types.MsgUpdateParams) (*types.MsgUpdateParamsResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if err := m.keeper.UpdateParams(sdkCtx, msg.Authority, msg.Params); err != nil {
		return nil, err
	}
	return &types.MsgUpdateParamsResponse{}, nil
}
