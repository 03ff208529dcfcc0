package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// dueEntry is one node of the in-memory payout schedule index: active
// pools ordered by the time their next payout becomes triggerable.
type dueEntry struct {
	dueAt  int64
	poolID string
}

func lessDueEntry(a, b dueEntry) bool {
	if a.dueAt != b.dueAt {
		return a.dueAt < b.dueAt
	}
	return a.poolID < b.poolID
}

// reindexPool updates the due index after a pool write. Non-active
// pools are dropped from the index.
func (k *Keeper) reindexPool(pool *types.Pool) {
	k.dueMu.Lock()
	defer k.dueMu.Unlock()

	if old, ok := k.dueByPool[pool.PoolID]; ok {
		k.dueIndex.Delete(old)
		delete(k.dueByPool, pool.PoolID)
	}
	if pool.Status != types.PoolStatusActive {
		return
	}
	entry := dueEntry{dueAt: pool.StartTimestamp + pool.PayoutInterval, poolID: pool.PoolID}
	k.dueIndex.ReplaceOrInsert(entry)
	k.dueByPool[pool.PoolID] = entry
}

// ensureDueIndex rebuilds the index from the store on first use. The
// index is a process-local cache; the store is the source of truth.
func (k *Keeper) ensureDueIndex(ctx sdk.Context) {
	k.dueMu.Lock()
	initialized := k.dueInit
	k.dueInit = true
	k.dueMu.Unlock()
	if initialized {
		return
	}
	for _, pool := range k.GetPoolsByStatus(ctx, types.PoolStatusActive) {
		k.reindexPool(pool)
	}
}

// DuePools returns the ids of active pools whose payout interval has
// elapsed at the given time, cheapest-first.
func (k *Keeper) DuePools(ctx sdk.Context, now int64) []string {
	k.ensureDueIndex(ctx)

	k.dueMu.Lock()
	defer k.dueMu.Unlock()

	var due []string
	k.dueIndex.AscendLessThan(dueEntry{dueAt: now + 1}, func(e dueEntry) bool {
		due = append(due, e.poolID)
		return true
	})
	return due
}
