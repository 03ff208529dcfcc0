package types

import (
	"testing"
)

// TestShufflePayoutOrderDeterministic tests known shuffle outcomes so
// the seeded permutation can be reproduced by external verifiers
func TestShufflePayoutOrderDeterministic(t *testing.T) {
	testCases := []struct {
		name     string
		seed     uint64
		n        int
		expected []uint32
	}{
		{"seed 42 three participants", 42, 3, []uint32{1, 0, 2}},
		{"seed 42 five participants", 42, 5, []uint32{1, 3, 2, 0, 4}},
		{"seed 7 three participants", 7, 3, []uint32{2, 0, 1}},
		{"seed 1 four participants", 1, 4, []uint32{2, 3, 1, 0}},
		{"seed 99 six participants", 99, 6, []uint32{2, 3, 1, 0, 5, 4}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ShufflePayoutOrder(tc.seed, tc.n)
			if len(got) != len(tc.expected) {
				t.Fatalf("expected length %d, got %d", len(tc.expected), len(got))
			}
			for i := range got {
				if got[i] != tc.expected[i] {
					t.Errorf("position %d: expected %d, got %d", i, tc.expected[i], got[i])
				}
			}
		})
	}
}

// TestShufflePayoutOrderIsPermutation tests the permutation property
// over a spread of seeds and sizes
func TestShufflePayoutOrderIsPermutation(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		for _, n := range []int{2, 3, 5, 10, 31} {
			order := ShufflePayoutOrder(seed, n)
			if len(order) != n {
				t.Fatalf("seed %d n %d: wrong length %d", seed, n, len(order))
			}
			seen := make(map[uint32]bool, n)
			for _, slot := range order {
				if slot >= uint32(n) {
					t.Fatalf("seed %d n %d: slot %d out of range", seed, n, slot)
				}
				if seen[slot] {
					t.Fatalf("seed %d n %d: duplicate slot %d", seed, n, slot)
				}
				seen[slot] = true
			}
		}
	}
}

// TestShuffleSeedSensitivity tests that different seeds produce
// different permutations often enough to rule out a constant output
func TestShuffleSeedSensitivity(t *testing.T) {
	base := ShufflePayoutOrder(0, 10)
	distinct := 0
	for seed := uint64(1); seed <= 20; seed++ {
		other := ShufflePayoutOrder(seed, 10)
		for i := range base {
			if base[i] != other[i] {
				distinct++
				break
			}
		}
	}
	if distinct < 15 {
		t.Errorf("only %d of 20 seeds produced a distinct permutation", distinct)
	}
}

// TestCompactOrder tests slot excision and index shifting
func TestCompactOrder(t *testing.T) {
	testCases := []struct {
		name     string
		order    []uint32
		removed  uint32
		expected []uint32
	}{
		{"remove middle slot", []uint32{2, 0, 1}, 1, []uint32{1, 0}},
		{"remove first slot", []uint32{2, 0, 1}, 0, []uint32{1, 0}},
		{"remove last slot", []uint32{2, 0, 1}, 2, []uint32{0, 1}},
		{"remove from larger order", []uint32{3, 1, 4, 0, 2}, 2, []uint32{2, 1, 3, 0}},
		{"remove leaves single entry", []uint32{0, 1}, 0, []uint32{0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CompactOrder(tc.order, tc.removed)
			if len(got) != len(tc.expected) {
				t.Fatalf("expected length %d, got %d", len(tc.expected), len(got))
			}
			for i := range got {
				if got[i] != tc.expected[i] {
					t.Errorf("position %d: expected %d, got %d", i, tc.expected[i], got[i])
				}
			}
		})
	}
}

// TestCompactOrderStaysPermutation tests that repeated removals keep
// the order a permutation of the shrunken index range
func TestCompactOrderStaysPermutation(t *testing.T) {
	order := ShufflePayoutOrder(12345, 8)
	for n := 8; n > 1; n-- {
		// Remove the slot at the front of the current order.
		order = CompactOrder(order, order[0])
		seen := make(map[uint32]bool)
		for _, slot := range order {
			if slot >= uint32(n-1) {
				t.Fatalf("n %d: slot %d out of range", n-1, slot)
			}
			if seen[slot] {
				t.Fatalf("n %d: duplicate slot %d", n-1, slot)
			}
			seen[slot] = true
		}
	}
}

// TestCompactOrderDoesNotMutateInput tests purity
func TestCompactOrderDoesNotMutateInput(t *testing.T) {
	order := []uint32{3, 1, 4, 0, 2}
	CompactOrder(order, 2)
	expected := []uint32{3, 1, 4, 0, 2}
	for i := range order {
		if order[i] != expected[i] {
			t.Errorf("input mutated at %d: %v", i, order)
		}
	}
}
