package keeper

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/btree"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// Store key prefixes
var (
	PoolKeyPrefix       = []byte{0x01}
	ParamsKey           = []byte{0x02}
	PoolSequenceKey     = []byte{0x03}
	RandomnessKeyPrefix = []byte{0x04}
	EvictionKeyPrefix   = []byte{0x05}
)

// BankKeeper defines the expected interface for the bank module, the
// atomic debit/credit primitive behind enrollment, contributions and
// payouts.
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
}

// Keeper manages the tanda module state
type Keeper struct {
	cdc        codec.BinaryCodec
	storeKey   storetypes.StoreKey
	bankKeeper BankKeeper
	logger     log.Logger
	authority  string

	listener types.PoolListener

	// Per-pool reentrancy guard for TriggerPayout. The bank transfer
	// primitive may call back into the module; state is committed
	// before any transfer, and this guard rejects the re-entered call
	// outright.
	payoutMu       sync.Mutex
	payoutInFlight map[string]bool

	// In-memory index of active pools ordered by next payout due time,
	// used by the EndBlocker sweep. Rebuilt lazily from the store.
	dueMu     sync.Mutex
	dueIndex  *btree.BTreeG[dueEntry]
	dueByPool map[string]dueEntry
	dueInit   bool
}

// NewKeeper creates a new tanda keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper BankKeeper,
	authority string,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:            cdc,
		storeKey:       storeKey,
		bankKeeper:     bankKeeper,
		authority:      authority,
		logger:         logger.With("module", "x/tanda"),
		payoutInFlight: make(map[string]bool),
		dueIndex:       btree.NewG[dueEntry](8, lessDueEntry),
		dueByPool:      make(map[string]dueEntry),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetAuthority returns the governance authority address
func (k *Keeper) GetAuthority() string {
	return k.authority
}

// SetListener installs the off-chain lifecycle event listener. Nil
// disables delivery.
func (k *Keeper) SetListener(l types.PoolListener) {
	k.listener = l
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// ============ Pool Operations ============

// SetPool saves a pool to the store and refreshes its due-index entry.
func (k *Keeper) SetPool(ctx sdk.Context, pool *types.Pool) {
	store := k.GetStore(ctx)
	key := append(PoolKeyPrefix, []byte(pool.PoolID)...)
	bz, _ := json.Marshal(pool)
	store.Set(key, bz)
	k.reindexPool(pool)
}

// GetPool retrieves a pool from the store
func (k *Keeper) GetPool(ctx sdk.Context, poolID string) *types.Pool {
	store := k.GetStore(ctx)
	key := append(PoolKeyPrefix, []byte(poolID)...)
	bz := store.Get(key)
	if bz == nil {
		return nil
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return nil
	}
	return &pool
}

// GetAllPools returns all pools
func (k *Keeper) GetAllPools(ctx sdk.Context) []*types.Pool {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, PoolKeyPrefix)
	defer iterator.Close()

	var pools []*types.Pool
	for ; iterator.Valid(); iterator.Next() {
		var pool types.Pool
		if err := json.Unmarshal(iterator.Value(), &pool); err != nil {
			continue
		}
		pools = append(pools, &pool)
	}
	return pools
}

// GetPoolsByStatus returns all pools in the given lifecycle state.
func (k *Keeper) GetPoolsByStatus(ctx sdk.Context, status string) []*types.Pool {
	var pools []*types.Pool
	for _, pool := range k.GetAllPools(ctx) {
		if pool.Status == status {
			pools = append(pools, pool)
		}
	}
	return pools
}

// NextPoolID reserves the next pool identifier from the store-backed
// sequence.
func (k *Keeper) NextPoolID(ctx sdk.Context) string {
	store := k.GetStore(ctx)
	seq := uint64(1)
	if bz := store.Get(PoolSequenceKey); bz != nil {
		if v, err := strconv.ParseUint(string(bz), 10, 64); err == nil {
			seq = v + 1
		}
	}
	store.Set(PoolSequenceKey, []byte(strconv.FormatUint(seq, 10)))
	return "tanda-" + strconv.FormatUint(seq, 10)
}

// ============ Params ============

// GetParams returns the registry-wide settings, read fresh from the
// store at every use so updates apply to the next operation.
func (k *Keeper) GetParams(ctx sdk.Context) types.Params {
	store := k.GetStore(ctx)
	bz := store.Get(ParamsKey)
	if bz == nil {
		return types.DefaultParams()
	}
	var params types.Params
	if err := json.Unmarshal(bz, &params); err != nil {
		return types.DefaultParams()
	}
	return params
}

// SetParams stores the registry-wide settings.
func (k *Keeper) SetParams(ctx sdk.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	store := k.GetStore(ctx)
	bz, _ := json.Marshal(params)
	store.Set(ParamsKey, bz)
	return nil
}

// UpdateParams replaces the registry settings after an authority check.
func (k *Keeper) UpdateParams(ctx sdk.Context, authority string, params types.Params) error {
	if authority != k.authority {
		return types.ErrUnauthorized
	}
	if err := k.SetParams(ctx, params); err != nil {
		return err
	}
	k.logger.Info("params updated",
		"creator_fee_bps", params.CreatorFeeBps,
		"treasury_fee_bps", params.TreasuryFeeBps,
		"max_participants", params.MaxParticipants,
	)
	return nil
}

// ============ Randomness request table ============

// SetRandomnessRequest stores a pending request keyed by request id.
func (k *Keeper) SetRandomnessRequest(ctx sdk.Context, req *types.RandomnessRequest) {
	store := k.GetStore(ctx)
	key := append(RandomnessKeyPrefix, []byte(req.RequestID)...)
	bz, _ := json.Marshal(req)
	store.Set(key, bz)
}

// GetRandomnessRequest retrieves a pending request by request id.
func (k *Keeper) GetRandomnessRequest(ctx sdk.Context, requestID string) *types.RandomnessRequest {
	store := k.GetStore(ctx)
	key := append(RandomnessKeyPrefix, []byte(requestID)...)
	bz := store.Get(key)
	if bz == nil {
		return nil
	}
	var req types.RandomnessRequest
	if err := json.Unmarshal(bz, &req); err != nil {
		return nil
	}
	return &req
}

// DeleteRandomnessRequest removes a fulfilled request from the table.
func (k *Keeper) DeleteRandomnessRequest(ctx sdk.Context, requestID string) {
	store := k.GetStore(ctx)
	store.Delete(append(RandomnessKeyPrefix, []byte(requestID)...))
}

// GetPendingRandomnessRequests returns all unfulfilled requests.
func (k *Keeper) GetPendingRandomnessRequests(ctx sdk.Context) []*types.RandomnessRequest {
	store := k.GetStore(ctx)
	iterator := storetypes.KVStorePrefixIterator(store, RandomnessKeyPrefix)
	defer iterator.Close()

	var reqs []*types.RandomnessRequest
	for ; iterator.Valid(); iterator.Next() {
		var req types.RandomnessRequest
		if err := json.Unmarshal(iterator.Value(), &req); err != nil {
			continue
		}
		reqs = append(reqs, &req)
	}
	return reqs
}

// ============ Eviction records ============

// SetEvictionRecord stores the forfeiture audit entry for a removal.
func (k *Keeper) SetEvictionRecord(ctx sdk.Context, rec *types.EvictionRecord) {
	store := k.GetStore(ctx)
	key := append(EvictionKeyPrefix, []byte(rec.PoolID+"/"+rec.Address)...)
	bz, _ := json.Marshal(rec)
	store.Set(key, bz)
}

// GetEvictionRecords returns all eviction records for a pool.
func (k *Keeper) GetEvictionRecords(ctx sdk.Context, poolID string) []*types.EvictionRecord {
	store := k.GetStore(ctx)
	prefix := append(EvictionKeyPrefix, []byte(poolID+"/")...)
	iterator := storetypes.KVStorePrefixIterator(store, prefix)
	defer iterator.Close()

	var recs []*types.EvictionRecord
	for ; iterator.Valid(); iterator.Next() {
		var rec types.EvictionRecord
		if err := json.Unmarshal(iterator.Value(), &rec); err != nil {
			continue
		}
		recs = append(recs, &rec)
	}
	return recs
}

// ============ Event emission ============

// emitPoolEvent emits the on-chain event and forwards a copy to the
// off-chain listener, if installed. Called only after state for the
// operation has been committed to the store.
func (k *Keeper) emitPoolEvent(ctx sdk.Context, eventType, poolID, address, amount string, cycle uint32) {
	attrs := []sdk.Attribute{
		sdk.NewAttribute("pool_id", poolID),
	}
	if address != "" {
		attrs = append(attrs, sdk.NewAttribute("address", address))
	}
	if amount != "" {
		attrs = append(attrs, sdk.NewAttribute("amount", amount))
	}
	if cycle > 0 {
		attrs = append(attrs, sdk.NewAttribute("cycle", strconv.FormatUint(uint64(cycle), 10)))
	}
	ctx.EventManager().EmitEvent(sdk.NewEvent("tanda_"+eventType, attrs...))

	if k.listener != nil {
		k.listener.OnPoolEvent(types.PoolEvent{
			Type:      eventType,
			PoolID:    poolID,
			Address:   address,
			Amount:    amount,
			Cycle:     cycle,
			Timestamp: ctx.BlockTime().Unix(),
		})
	}
}
