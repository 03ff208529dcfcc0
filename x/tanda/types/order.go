package types

import (
	"crypto/sha256"
	"encoding/binary"
)

// ShufflePayoutOrder builds the identity permutation [0..n-1] and
// applies a reverse Fisher-Yates shuffle seeded by the randomness
// value. Each step hashes the seed together with the loop index so
// swap positions are not correlated across steps:
//
//	j = be64(sha256(be64(seed) || be64(i))[:8]) mod (i+1)
//
// The result is deterministic for a given (seed, n) and always a
// permutation of [0..n-1].
func ShufflePayoutOrder(seed uint64, n int) []uint32 {
	order := make([]uint32, n)
	for i := range order {
		order[i] = uint32(i)
	}
	for i := n - 1; i >= 1; i-- {
		j := shuffleIndex(seed, uint64(i)) % uint64(i+1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func shuffleIndex(seed, i uint64) uint64 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], seed)
	binary.BigEndian.PutUint64(buf[8:], i)
	sum := sha256.Sum256(buf[:])
	return binary.BigEndian.Uint64(sum[:8])
}

// CompactOrder returns a copy of order with the entry for removedSlot
// excised (later entries shift down one position) and every remaining
// entry greater than removedSlot decremented, keeping the order a
// permutation of the contiguous indices over the shrunken participant
// list. Pure function; the input slice is not modified.
func CompactOrder(order []uint32, removedSlot uint32) []uint32 {
	out := make([]uint32, 0, len(order))
	for _, slot := range order {
		switch {
		case slot == removedSlot:
			continue
		case slot > removedSlot:
			out = append(out, slot-1)
		default:
			out = append(out, slot)
		}
	}
	return out
}
