package types

import (
	"errors"

	"cosmossdk.io/math"
)

// Module name and store key
const (
	ModuleName = "tanda"
	StoreKey   = ModuleName
)

// Pool status
const (
	PoolStatusOpen      = "open"
	PoolStatusActive    = "active"
	PoolStatusCompleted = "completed"
)

// BpsDenominator is the basis-point scale: 10000 bps = 100%.
const BpsDenominator = 10000

// Pool limits
const (
	MinParticipantCount = 2
)

// Errors
var (
	ErrPoolNotFound              = errors.New("pool not found")
	ErrPoolNotOpen               = errors.New("pool is not open for enrollment")
	ErrPoolNotActive             = errors.New("pool is not active")
	ErrNotWhitelisted            = errors.New("address is not whitelisted for this pool")
	ErrAlreadyJoined             = errors.New("address already enrolled in this pool")
	ErrNotParticipant            = errors.New("address is not a participant")
	ErrParticipantInactive       = errors.New("participant is not active")
	ErrInvalidCycleCount         = errors.New("cycles to pay must be at least 1")
	ErrExceedsRemainingCycles    = errors.New("payment exceeds remaining cycles")
	ErrOrderAlreadyAssigned      = errors.New("payout order already assigned")
	ErrOrderNotAssigned          = errors.New("payout order not yet assigned")
	ErrEnrollmentIncomplete      = errors.New("enrollment is not complete")
	ErrPayoutNotDue              = errors.New("payout interval has not elapsed")
	ErrParticipantsUnpaid        = errors.New("one or more participants are behind on contributions")
	ErrInsufficientPoolFunds     = errors.New("pool funds below required payout total")
	ErrPayoutInProgress          = errors.New("payout already in progress for this pool")
	ErrNotCreator                = errors.New("caller is not the pool creator")
	ErrParticipantInGoodStanding = errors.New("participant is in good standing and cannot be removed")
	ErrUnauthorized              = errors.New("unauthorized")
	ErrRequestNotFound           = errors.New("randomness request not found")
	ErrInvalidContribution       = errors.New("contribution amount must be positive")
	ErrInvalidInterval           = errors.New("payout interval must be positive")
	ErrInvalidParticipantCount   = errors.New("invalid participant count")
	ErrWhitelistSize             = errors.New("whitelist length must equal participant count")
	ErrDuplicateWhitelist        = errors.New("whitelist contains duplicate addresses")
	ErrInvalidAddress            = errors.New("invalid address")
	ErrInvalidDenom              = errors.New("invalid denom")
	ErrInvalidFee                = errors.New("invalid fee basis points")
)

// Pool is one rotating savings association. Participants are stored
// slot-indexed; ParticipantIndex maps address to slot and an absent key
// means "not a participant".
type Pool struct {
	PoolID             string   `json:"pool_id"`
	Creator            string   `json:"creator"`
	Denom              string   `json:"denom"`
	ContributionAmount math.Int `json:"contribution_amount"`
	PayoutInterval     int64    `json:"payout_interval"` // seconds
	ParticipantCount   uint32   `json:"participant_count"`
	Whitelist          []string `json:"whitelist"`

	Status              string            `json:"status"`
	CurrentCycle        uint32            `json:"current_cycle"`
	TotalFunds          math.Int          `json:"total_funds"`
	StartTimestamp      int64             `json:"start_timestamp"`
	PayoutOrderAssigned bool              `json:"payout_order_assigned"`
	PayoutOrder         []uint32          `json:"payout_order,omitempty"`
	Participants        []Participant     `json:"participants"`
	ParticipantIndex    map[string]uint32 `json:"participant_index"`

	CreatedAt int64 `json:"created_at"`
}

// Participant is one enrolled member of a pool.
type Participant struct {
	Address        string `json:"address"`
	IsActive       bool   `json:"is_active"`
	PaidUntilCycle uint32 `json:"paid_until_cycle"`
	OrderPosition  uint32 `json:"order_position"`
	JoinedAt       int64  `json:"joined_at"`
}

// NewPool creates an open pool with immutable config and an empty
// participant set.
func NewPool(poolID, creator, denom string, contribution math.Int, payoutInterval int64, whitelist []string, createdAt int64) *Pool {
	return &Pool{
		PoolID:             poolID,
		Creator:            creator,
		Denom:              denom,
		ContributionAmount: contribution,
		PayoutInterval:     payoutInterval,
		ParticipantCount:   uint32(len(whitelist)),
		Whitelist:          append([]string(nil), whitelist...),
		Status:             PoolStatusOpen,
		CurrentCycle:       0,
		TotalFunds:         math.ZeroInt(),
		Participants:       []Participant{},
		ParticipantIndex:   map[string]uint32{},
		CreatedAt:          createdAt,
	}
}

// LookupParticipant resolves an address to its slot index. The second
// return is false when the address is not a participant.
func (p *Pool) LookupParticipant(addr string) (uint32, bool) {
	slot, ok := p.ParticipantIndex[addr]
	return slot, ok
}

// IsWhitelisted reports whether addr may enroll in this pool.
func (p *Pool) IsWhitelisted(addr string) bool {
	for _, w := range p.Whitelist {
		if w == addr {
			return true
		}
	}
	return false
}

// IsFull reports whether enrollment has reached the configured count.
func (p *Pool) IsFull() bool {
	return uint32(len(p.Participants)) >= p.ParticipantCount
}

// EnsureOpen guards operations valid only before activation.
func (p *Pool) EnsureOpen() error {
	if p.Status != PoolStatusOpen {
		return ErrPoolNotOpen
	}
	return nil
}

// EnsureActive guards operations valid only while the pool runs cycles.
func (p *Pool) EnsureActive() error {
	if p.Status != PoolStatusActive {
		return ErrPoolNotActive
	}
	return nil
}

// PayoutTotal is the gross amount released each cycle: the fixed
// contribution times the configured participant count, independent of
// later removals.
func (p *Pool) PayoutTotal() math.Int {
	return p.ContributionAmount.MulRaw(int64(p.ParticipantCount))
}

// PayoutDue reports whether the interval has elapsed since the last
// payout (or activation).
func (p *Pool) PayoutDue(now int64) bool {
	return now >= p.StartTimestamp+p.PayoutInterval
}

// AllParticipantsPaid reports whether every active participant has
// prepaid through the current cycle.
func (p *Pool) AllParticipantsPaid() bool {
	for i := range p.Participants {
		if !p.Participants[i].IsActive {
			continue
		}
		if p.Participants[i].PaidUntilCycle < p.CurrentCycle {
			return false
		}
	}
	return true
}

// RemainingCycles is how many payout slots are still unpaid. Removals
// shorten the schedule to the compacted order length.
func (p *Pool) RemainingCycles() uint32 {
	slots := p.ParticipantCount
	if p.PayoutOrderAssigned && uint32(len(p.PayoutOrder)) < slots {
		slots = uint32(len(p.PayoutOrder))
	}
	if p.CurrentCycle == 0 || p.CurrentCycle > slots {
		return 0
	}
	return slots - p.CurrentCycle + 1
}

// SplitPayout divides a gross payout into creator fee, treasury fee and
// recipient remainder using integer bps arithmetic. The three parts
// always sum exactly to total.
func SplitPayout(total math.Int, creatorFeeBps, treasuryFeeBps uint32) (creator, treasury, recipient math.Int) {
	creator = total.MulRaw(int64(creatorFeeBps)).QuoRaw(BpsDenominator)
	treasury = total.MulRaw(int64(treasuryFeeBps)).QuoRaw(BpsDenominator)
	recipient = total.Sub(creator).Sub(treasury)
	return creator, treasury, recipient
}

// Params is the registry-wide configuration. It is read fresh at each
// use so updates apply to the next payout, never retroactively.
type Params struct {
	CreatorFeeBps   uint32 `json:"creator_fee_bps"`
	TreasuryFeeBps  uint32 `json:"treasury_fee_bps"`
	TreasuryAddress string `json:"treasury_address"`
	MaxParticipants uint32 `json:"max_participants"`
	Oracle          string `json:"oracle"`
}

// DefaultParams returns the genesis parameter set.
func DefaultParams() Params {
	return Params{
		CreatorFeeBps:   100, // 1%
		TreasuryFeeBps:  0,   // none until a treasury address is set
		MaxParticipants: 100,
	}
}

// Validate checks parameter bounds.
func (p Params) Validate() error {
	if p.CreatorFeeBps > BpsDenominator || p.TreasuryFeeBps > BpsDenominator {
		return ErrInvalidFee
	}
	if p.CreatorFeeBps+p.TreasuryFeeBps > BpsDenominator {
		return ErrInvalidFee
	}
	if p.TreasuryFeeBps > 0 && p.TreasuryAddress == "" {
		return ErrInvalidFee
	}
	if p.MaxParticipants < MinParticipantCount {
		return ErrInvalidParticipantCount
	}
	return nil
}

// RandomnessRequest is one pending entry in the request-id to pool-id
// correlation table. At most one fulfillment is accepted per pool.
type RandomnessRequest struct {
	RequestID   string `json:"request_id"`
	PoolID      string `json:"pool_id"`
	RequestedAt int64  `json:"requested_at"`
	Height      int64  `json:"height"`
}

// EvictionRecord keeps the audit trail for a removed participant. The
// forfeited amount stays in the pool; there are no refunds.
type EvictionRecord struct {
	PoolID          string   `json:"pool_id"`
	Address         string   `json:"address"`
	Slot            uint32   `json:"slot"`
	ForfeitedAmount math.Int `json:"forfeited_amount"`
	Cycle           uint32   `json:"cycle"`
	EvictedAt       int64    `json:"evicted_at"`
}

// Pool lifecycle event types delivered to a PoolListener.
const (
	EventPoolCreated        = "pool_created"
	EventParticipantJoined  = "participant_joined"
	EventPoolStarted        = "pool_started"
	EventPaymentMade        = "payment_made"
	EventOrderAssigned      = "order_assigned"
	EventPayoutSent         = "payout_sent"
	EventFeesDistributed    = "fees_distributed"
	EventParticipantRemoved = "participant_removed"
	EventPoolCompleted      = "pool_completed"
	EventPayoutDue          = "payout_due"
)

// PoolEvent is the off-chain notification shape for pool lifecycle
// changes, consumed by the API gateway's websocket hub.
type PoolEvent struct {
	Type      string `json:"type"`
	PoolID    string `json:"pool_id"`
	Address   string `json:"address,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Cycle     uint32 `json:"cycle,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// PoolListener receives pool lifecycle events. Implementations must not
// block; the keeper calls them synchronously after state is committed.
type PoolListener interface {
	OnPoolEvent(event PoolEvent)
}
