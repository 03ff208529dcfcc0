package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xnevsweb/mitanda-chain/api/types"
	"github.com/0xnevsweb/mitanda-chain/x/tanda/keeper"
	tandatypes "github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// KeeperService implements TandaService against an embedded tanda
// keeper over an in-memory store. It is the standalone gateway mode:
// no running chain, balances tracked by a permissive in-memory bank.
type KeeperService struct {
	keeper *keeper.Keeper
	store  storetypes.CommitMultiStore
	bank   *memBank
	mu     sync.Mutex

	height int64
}

// memBank is an in-memory stand-in for the bank module. Every account
// starts with an unlimited balance; it only tracks what the module
// escrowed so the standalone gateway can report it.
type memBank struct {
	mu       sync.Mutex
	escrowed map[string]sdk.Coins // address -> net amount sent to the module
}

func newMemBank() *memBank {
	return &memBank{escrowed: make(map[string]sdk.Coins)}
}

func (b *memBank) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.escrowed[senderAddr.String()] = b.escrowed[senderAddr.String()].Add(amt...)
	return nil
}

func (b *memBank) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	return nil
}

// NewKeeperService creates a standalone service with an in-memory
// keeper
func NewKeeperService() (*KeeperService, error) {
	interfaceRegistry := codectypes.NewInterfaceRegistry()
	cdc := codec.NewProtoCodec(interfaceRegistry)

	storeKey := storetypes.NewKVStoreKey(tandatypes.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	bank := newMemBank()
	k := keeper.NewKeeper(cdc, storeKey, bank, "", log.NewNopLogger())

	return &KeeperService{
		keeper: k,
		store:  stateStore,
		bank:   bank,
		height: 1,
	}, nil
}

// Keeper exposes the embedded keeper so the server can attach the
// websocket listener.
func (s *KeeperService) Keeper() *keeper.Keeper {
	return s.keeper
}

// sdkCtx builds a context at the current wall clock, so payout due
// times pass naturally in standalone mode.
func (s *KeeperService) sdkCtx() sdk.Context {
	s.height++
	return sdk.NewContext(s.store, cmtproto.Header{
		Time:   time.Now(),
		Height: s.height,
	}, false, log.NewNopLogger())
}

// ============ Reads ============

func (s *KeeperService) ListPools(ctx context.Context, status string, offset, limit uint64) (*types.PoolListResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sctx := s.sdkCtx()

	var pools []*tandatypes.Pool
	if status != "" {
		pools = s.keeper.GetPoolsByStatus(sctx, status)
	} else {
		pools = s.keeper.GetAllPools(sctx)
	}

	total := uint64(len(pools))
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	out := make([]*types.PoolSummary, 0, end-offset)
	for _, p := range pools[offset:end] {
		out = append(out, poolSummary(p))
	}
	return &types.PoolListResponse{Pools: out, Total: total, Offset: offset, Limit: limit}, nil
}

func (s *KeeperService) GetPool(ctx context.Context, poolID string) (*types.PoolDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pool := s.keeper.GetPool(s.sdkCtx(), poolID)
	if pool == nil {
		return nil, tandatypes.ErrPoolNotFound
	}
	return poolDetail(pool), nil
}

func (s *KeeperService) GetParticipants(ctx context.Context, poolID string) ([]types.ParticipantInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pool := s.keeper.GetPool(s.sdkCtx(), poolID)
	if pool == nil {
		return nil, tandatypes.ErrPoolNotFound
	}
	return participantInfos(pool), nil
}

func (s *KeeperService) GetEvictions(ctx context.Context, poolID string) ([]types.EvictionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.keeper.GetEvictionRecords(s.sdkCtx(), poolID)
	out := make([]types.EvictionInfo, 0, len(recs))
	for _, rec := range recs {
		out = append(out, evictionInfo(rec))
	}
	return out, nil
}

func (s *KeeperService) GetNextPayout(ctx context.Context, poolID string) (*types.NextPayoutInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := keeper.NewQueryServerImpl(s.keeper)
	info, err := q.NextPayout(s.sdkCtx(), poolID)
	if err != nil {
		return nil, err
	}
	return &types.NextPayoutInfo{
		PoolID:          poolID,
		Recipient:       info.Recipient,
		DueAt:           info.DueAt,
		RecipientAmount: info.RecipientAmount.String(),
		Cycle:           info.Cycle,
	}, nil
}

func (s *KeeperService) GetPendingRandomness(ctx context.Context, poolID string) (*types.RandomnessInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.keeper.GetPendingRandomnessRequests(s.sdkCtx()) {
		if req.PoolID == poolID {
			return &types.RandomnessInfo{
				RequestID:   req.RequestID,
				PoolID:      req.PoolID,
				RequestedAt: req.RequestedAt,
				Height:      req.Height,
			}, nil
		}
	}
	return nil, tandatypes.ErrRequestNotFound
}

func (s *KeeperService) GetMemberPools(ctx context.Context, address string) ([]*types.PoolSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*types.PoolSummary
	for _, pool := range s.keeper.GetAllPools(s.sdkCtx()) {
		if _, ok := pool.LookupParticipant(address); ok {
			out = append(out, poolSummary(pool))
		}
	}
	return out, nil
}

func (s *KeeperService) GetParams(ctx context.Context) (*types.ParamsInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	params := s.keeper.GetParams(s.sdkCtx())
	return &types.ParamsInfo{
		CreatorFeeBps:   params.CreatorFeeBps,
		TreasuryFeeBps:  params.TreasuryFeeBps,
		TreasuryAddress: params.TreasuryAddress,
		MaxParticipants: params.MaxParticipants,
		Oracle:          params.Oracle,
	}, nil
}

// ============ Writes ============

func (s *KeeperService) CreatePool(ctx context.Context, req *types.CreatePoolRequest) (*types.PoolDetail, error) {
	amount, ok := math.NewIntFromString(req.ContributionAmount)
	if !ok {
		return nil, tandatypes.ErrInvalidContribution
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sctx := s.sdkCtx()
	pool, err := s.keeper.CreatePool(sctx, req.Creator, req.Denom, amount, req.PayoutInterval, req.Whitelist)
	if err != nil {
		return nil, err
	}
	s.store.Commit()
	return poolDetail(pool), nil
}

func (s *KeeperService) JoinPool(ctx context.Context, poolID, address string) (*types.JoinPoolResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sctx := s.sdkCtx()
	pool, slot, err := s.keeper.JoinPool(sctx, address, poolID)
	if err != nil {
		return nil, err
	}
	s.store.Commit()
	return &types.JoinPoolResponse{Pool: poolDetail(pool), Slot: slot}, nil
}

func (s *KeeperService) Contribute(ctx context.Context, poolID, address string, cycles uint32) (*types.PoolDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sctx := s.sdkCtx()
	pool, err := s.keeper.Contribute(sctx, address, poolID, cycles)
	if err != nil {
		return nil, err
	}
	s.store.Commit()
	return poolDetail(pool), nil
}

func (s *KeeperService) TriggerPayout(ctx context.Context, poolID string) (*types.PayoutResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sctx := s.sdkCtx()
	result, err := s.keeper.TriggerPayout(sctx, poolID)
	if err != nil {
		return nil, err
	}
	s.store.Commit()
	return &types.PayoutResponse{
		PoolID:          poolID,
		Recipient:       result.Recipient,
		RecipientAmount: result.RecipientAmount.String(),
		CreatorFee:      result.CreatorFee.String(),
		TreasuryFee:     result.TreasuryFee.String(),
		Cycle:           result.Cycle,
		Completed:       result.Completed,
	}, nil
}

func (s *KeeperService) RemoveParticipant(ctx context.Context, poolID, creator, address string) (*types.EvictionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sctx := s.sdkCtx()
	rec, err := s.keeper.RemoveParticipant(sctx, creator, poolID, address)
	if err != nil {
		return nil, err
	}
	s.store.Commit()
	info := evictionInfo(rec)
	return &info, nil
}

// FulfillRandomness lets the standalone gateway play oracle for a pool
// awaiting its payout order. Not part of TandaService; wired to a dev
// endpoint only.
func (s *KeeperService) FulfillRandomness(ctx context.Context, requestID string, value uint64) (*types.PoolDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sctx := s.sdkCtx()
	pool, err := s.keeper.FulfillRandomness(sctx, "", requestID, value)
	if err != nil {
		return nil, err
	}
	s.store.Commit()
	return poolDetail(pool), nil
}

// ============ DTO mapping ============

func poolSummary(p *tandatypes.Pool) *types.PoolSummary {
	return &types.PoolSummary{
		PoolID:             p.PoolID,
		Creator:            p.Creator,
		Denom:              p.Denom,
		ContributionAmount: p.ContributionAmount.String(),
		PayoutInterval:     p.PayoutInterval,
		ParticipantCount:   p.ParticipantCount,
		EnrolledCount:      uint32(len(p.Participants)),
		Status:             p.Status,
		CurrentCycle:       p.CurrentCycle,
		TotalFunds:         p.TotalFunds.String(),
		CreatedAt:          p.CreatedAt,
	}
}

func poolDetail(p *tandatypes.Pool) *types.PoolDetail {
	return &types.PoolDetail{
		PoolSummary:         *poolSummary(p),
		Whitelist:           p.Whitelist,
		StartTimestamp:      p.StartTimestamp,
		PayoutOrderAssigned: p.PayoutOrderAssigned,
		PayoutOrder:         p.PayoutOrder,
		Participants:        participantInfos(p),
	}
}

func participantInfos(p *tandatypes.Pool) []types.ParticipantInfo {
	out := make([]types.ParticipantInfo, 0, len(p.Participants))
	for _, member := range p.Participants {
		out = append(out, types.ParticipantInfo{
			Address:        member.Address,
			IsActive:       member.IsActive,
			PaidUntilCycle: member.PaidUntilCycle,
			OrderPosition:  member.OrderPosition,
			JoinedAt:       member.JoinedAt,
		})
	}
	return out
}

func evictionInfo(rec *tandatypes.EvictionRecord) types.EvictionInfo {
	return types.EvictionInfo{
		PoolID:          rec.PoolID,
		Address:         rec.Address,
		Slot:            rec.Slot,
		ForfeitedAmount: rec.ForfeitedAmount.String(),
		Cycle:           rec.Cycle,
		EvictedAt:       rec.EvictedAt,
	}
}
