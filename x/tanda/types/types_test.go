package types

import (
	"testing"

	"cosmossdk.io/math"
)

// TestSplitPayoutSpecExample tests the documented reference split:
// 300 total, 300 bps creator, 200 bps treasury
func TestSplitPayoutSpecExample(t *testing.T) {
	total := math.NewInt(300)
	creator, treasury, recipient := SplitPayout(total, 300, 200)

	if !creator.Equal(math.NewInt(9)) {
		t.Errorf("expected creator fee 9, got %s", creator)
	}
	if !treasury.Equal(math.NewInt(6)) {
		t.Errorf("expected treasury fee 6, got %s", treasury)
	}
	if !recipient.Equal(math.NewInt(285)) {
		t.Errorf("expected recipient amount 285, got %s", recipient)
	}
	if !creator.Add(treasury).Add(recipient).Equal(total) {
		t.Errorf("split does not sum to total")
	}
}

// TestSplitPayoutExactness tests that the three parts always sum to
// the total for a sweep of fee pairs and participant counts
func TestSplitPayoutExactness(t *testing.T) {
	amounts := []int64{1, 7, 100, 999, 123456789}
	counts := []int64{2, 3, 10, 97}
	fees := []uint32{0, 1, 50, 300, 2500, 5000, 9999, 10000}

	for _, amount := range amounts {
		for _, count := range counts {
			total := math.NewInt(amount).MulRaw(count)
			for _, cBps := range fees {
				for _, tBps := range fees {
					if cBps+tBps > BpsDenominator {
						continue
					}
					creator, treasury, recipient := SplitPayout(total, cBps, tBps)
					if !creator.Add(treasury).Add(recipient).Equal(total) {
						t.Fatalf("amount %d count %d fees (%d,%d): parts do not sum to total",
							amount, count, cBps, tBps)
					}
					if recipient.IsNegative() {
						t.Fatalf("amount %d count %d fees (%d,%d): negative recipient",
							amount, count, cBps, tBps)
					}
				}
			}
		}
	}
}

// TestSplitPayoutZeroFees tests the no-fee path
func TestSplitPayoutZeroFees(t *testing.T) {
	total := math.NewInt(1000)
	creator, treasury, recipient := SplitPayout(total, 0, 0)
	if !creator.IsZero() || !treasury.IsZero() {
		t.Errorf("expected zero fees, got creator %s treasury %s", creator, treasury)
	}
	if !recipient.Equal(total) {
		t.Errorf("expected full amount to recipient, got %s", recipient)
	}
}

// TestNewPool tests initial pool state
func TestNewPool(t *testing.T) {
	whitelist := []string{"a", "b", "c"}
	pool := NewPool("tanda-1", "creator", "uusdc", math.NewInt(100), 3600, whitelist, 1700000000)

	if pool.Status != PoolStatusOpen {
		t.Errorf("expected open status, got %s", pool.Status)
	}
	if pool.ParticipantCount != 3 {
		t.Errorf("expected participant count 3, got %d", pool.ParticipantCount)
	}
	if pool.CurrentCycle != 0 {
		t.Errorf("expected cycle 0 before activation, got %d", pool.CurrentCycle)
	}
	if !pool.TotalFunds.IsZero() {
		t.Errorf("expected zero funds, got %s", pool.TotalFunds)
	}
	if pool.PayoutOrderAssigned {
		t.Error("expected payout order unassigned")
	}
	if len(pool.Participants) != 0 {
		t.Errorf("expected no participants, got %d", len(pool.Participants))
	}

	// Whitelist is copied, not aliased.
	whitelist[0] = "mutated"
	if pool.Whitelist[0] != "a" {
		t.Error("whitelist aliased to caller slice")
	}
}

// TestPoolGuards tests the lifecycle guard functions
func TestPoolGuards(t *testing.T) {
	pool := NewPool("tanda-1", "creator", "uusdc", math.NewInt(100), 3600, []string{"a", "b"}, 0)

	if err := pool.EnsureOpen(); err != nil {
		t.Errorf("open pool failed EnsureOpen: %v", err)
	}
	if err := pool.EnsureActive(); err != ErrPoolNotActive {
		t.Errorf("expected ErrPoolNotActive, got %v", err)
	}

	pool.Status = PoolStatusActive
	if err := pool.EnsureOpen(); err != ErrPoolNotOpen {
		t.Errorf("expected ErrPoolNotOpen, got %v", err)
	}
	if err := pool.EnsureActive(); err != nil {
		t.Errorf("active pool failed EnsureActive: %v", err)
	}

	pool.Status = PoolStatusCompleted
	if err := pool.EnsureActive(); err != ErrPoolNotActive {
		t.Errorf("expected ErrPoolNotActive for completed, got %v", err)
	}
}

// TestLookupParticipant tests the optional-index map semantics
func TestLookupParticipant(t *testing.T) {
	pool := NewPool("tanda-1", "creator", "uusdc", math.NewInt(100), 3600, []string{"a", "b"}, 0)

	if _, ok := pool.LookupParticipant("a"); ok {
		t.Error("expected absent mapping for whitelisted but unenrolled address")
	}

	pool.Participants = append(pool.Participants, Participant{Address: "a", IsActive: true, PaidUntilCycle: 1})
	pool.ParticipantIndex["a"] = 0

	slot, ok := pool.LookupParticipant("a")
	if !ok || slot != 0 {
		t.Errorf("expected slot 0, got %d ok=%v", slot, ok)
	}
}

// TestAllParticipantsPaid tests the delinquency scan
func TestAllParticipantsPaid(t *testing.T) {
	pool := NewPool("tanda-1", "creator", "uusdc", math.NewInt(100), 3600, []string{"a", "b", "c"}, 0)
	pool.Status = PoolStatusActive
	pool.CurrentCycle = 2
	pool.Participants = []Participant{
		{Address: "a", IsActive: true, PaidUntilCycle: 2},
		{Address: "b", IsActive: true, PaidUntilCycle: 1},
		{Address: "c", IsActive: false, PaidUntilCycle: 1},
	}

	if pool.AllParticipantsPaid() {
		t.Error("expected unpaid: b is behind")
	}

	pool.Participants[1].PaidUntilCycle = 2
	if !pool.AllParticipantsPaid() {
		t.Error("expected paid: inactive c must not count")
	}
}

// TestPayoutDue tests the interval gate
func TestPayoutDue(t *testing.T) {
	pool := NewPool("tanda-1", "creator", "uusdc", math.NewInt(100), 3600, []string{"a", "b"}, 0)
	pool.StartTimestamp = 1000

	if pool.PayoutDue(4599) {
		t.Error("payout due one second early")
	}
	if !pool.PayoutDue(4600) {
		t.Error("payout not due exactly at interval")
	}
}

// TestParamsValidate tests parameter bounds
func TestParamsValidate(t *testing.T) {
	testCases := []struct {
		name        string
		params      Params
		expectError bool
	}{
		{"default params", DefaultParams(), false},
		{"max fees with treasury", Params{CreatorFeeBps: 5000, TreasuryFeeBps: 5000, TreasuryAddress: "t", MaxParticipants: 10}, false},
		{"creator fee over 100%", Params{CreatorFeeBps: 10001, MaxParticipants: 10}, true},
		{"combined fees over 100%", Params{CreatorFeeBps: 6000, TreasuryFeeBps: 6000, TreasuryAddress: "t", MaxParticipants: 10}, true},
		{"treasury fee without address", Params{TreasuryFeeBps: 100, MaxParticipants: 10}, true},
		{"max participants too low", Params{MaxParticipants: 1}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestRemainingCycles tests the schedule arithmetic with and without
// removals
func TestRemainingCycles(t *testing.T) {
	pool := NewPool("tanda-1", "creator", "uusdc", math.NewInt(100), 3600, []string{"a", "b", "c"}, 0)
	if pool.RemainingCycles() != 0 {
		t.Errorf("expected 0 before activation, got %d", pool.RemainingCycles())
	}

	pool.Status = PoolStatusActive
	pool.CurrentCycle = 1
	if pool.RemainingCycles() != 3 {
		t.Errorf("expected 3 at cycle 1, got %d", pool.RemainingCycles())
	}

	pool.CurrentCycle = 3
	if pool.RemainingCycles() != 1 {
		t.Errorf("expected 1 at final cycle, got %d", pool.RemainingCycles())
	}

	// A removal shortens the schedule to the compacted order.
	pool.PayoutOrderAssigned = true
	pool.PayoutOrder = []uint32{1, 0}
	pool.CurrentCycle = 2
	if pool.RemainingCycles() != 1 {
		t.Errorf("expected 1 with shortened order, got %d", pool.RemainingCycles())
	}

	pool.CurrentCycle = 3
	if pool.RemainingCycles() != 0 {
		t.Errorf("expected 0 past shortened order, got %d", pool.RemainingCycles())
	}
}
