package types

import (
	"context"
)

// PoolSummary represents a pool in list responses
type PoolSummary struct {
	PoolID             string `json:"pool_id"`
	Creator            string `json:"creator"`
	Denom              string `json:"denom"`
	ContributionAmount string `json:"contribution_amount"`
	PayoutInterval     int64  `json:"payout_interval"`
	ParticipantCount   uint32 `json:"participant_count"`
	EnrolledCount      uint32 `json:"enrolled_count"`
	Status             string `json:"status"`
	CurrentCycle       uint32 `json:"current_cycle"`
	TotalFunds         string `json:"total_funds"`
	CreatedAt          int64  `json:"created_at"`
}

// PoolDetail represents a single pool with full state
type PoolDetail struct {
	PoolSummary

	Whitelist           []string          `json:"whitelist"`
	StartTimestamp      int64             `json:"start_timestamp"`
	PayoutOrderAssigned bool              `json:"payout_order_assigned"`
	PayoutOrder         []uint32          `json:"payout_order,omitempty"`
	Participants        []ParticipantInfo `json:"participants"`
}

// ParticipantInfo represents one enrolled member
type ParticipantInfo struct {
	Address        string `json:"address"`
	IsActive       bool   `json:"is_active"`
	PaidUntilCycle uint32 `json:"paid_until_cycle"`
	OrderPosition  uint32 `json:"order_position"`
	JoinedAt       int64  `json:"joined_at"`
}

// EvictionInfo represents a removal audit record
type EvictionInfo struct {
	PoolID          string `json:"pool_id"`
	Address         string `json:"address"`
	Slot            uint32 `json:"slot"`
	ForfeitedAmount string `json:"forfeited_amount"`
	Cycle           uint32 `json:"cycle"`
	EvictedAt       int64  `json:"evicted_at"`
}

// NextPayoutInfo describes the upcoming payout of an active pool
type NextPayoutInfo struct {
	PoolID          string `json:"pool_id"`
	Recipient       string `json:"recipient,omitempty"`
	DueAt           int64  `json:"due_at"`
	RecipientAmount string `json:"recipient_amount"`
	Cycle           uint32 `json:"cycle"`
}

// ParamsInfo represents registry-wide settings
type ParamsInfo struct {
	CreatorFeeBps   uint32 `json:"creator_fee_bps"`
	TreasuryFeeBps  uint32 `json:"treasury_fee_bps"`
	TreasuryAddress string `json:"treasury_address,omitempty"`
	MaxParticipants uint32 `json:"max_participants"`
	Oracle          string `json:"oracle,omitempty"`
}

// RandomnessInfo represents a pending randomness request
type RandomnessInfo struct {
	RequestID   string `json:"request_id"`
	PoolID      string `json:"pool_id"`
	RequestedAt int64  `json:"requested_at"`
	Height      int64  `json:"height"`
}

// ============ Request types ============

// CreatePoolRequest is the body for POST /v1/pools
type CreatePoolRequest struct {
	Creator            string   `json:"creator"`
	Denom              string   `json:"denom"`
	ContributionAmount string   `json:"contribution_amount"`
	PayoutInterval     int64    `json:"payout_interval"`
	Whitelist          []string `json:"whitelist"`
}

// JoinPoolRequest is the body for POST /v1/pools/{id}/join
type JoinPoolRequest struct {
	Address string `json:"address"`
}

// ContributeRequest is the body for POST /v1/pools/{id}/contribute
type ContributeRequest struct {
	Address string `json:"address"`
	Cycles  uint32 `json:"cycles"`
}

// RemoveParticipantRequest is the body for POST /v1/pools/{id}/remove
type RemoveParticipantRequest struct {
	Creator string `json:"creator"`
	Address string `json:"address"`
}

// ============ Response types ============

// JoinPoolResponse reports the assigned slot
type JoinPoolResponse struct {
	Pool *PoolDetail `json:"pool"`
	Slot uint32      `json:"slot"`
}

// PayoutResponse reports a released cycle
type PayoutResponse struct {
	PoolID          string `json:"pool_id"`
	Recipient       string `json:"recipient"`
	RecipientAmount string `json:"recipient_amount"`
	CreatorFee      string `json:"creator_fee"`
	TreasuryFee     string `json:"treasury_fee"`
	Cycle           uint32 `json:"cycle"`
	Completed       bool   `json:"completed"`
}

// PoolListResponse wraps a paginated pool listing
type PoolListResponse struct {
	Pools  []*PoolSummary `json:"pools"`
	Total  uint64         `json:"total"`
	Offset uint64         `json:"offset"`
	Limit  uint64         `json:"limit"`
}

// ErrorResponse is the uniform error shape
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ============ Service interface ============

// TandaService provides pool registry access for the HTTP handlers.
// Read methods mirror the chain query surface; write methods exist for
// the standalone development gateway and act directly on an embedded
// keeper.
type TandaService interface {
	// Reads
	ListPools(ctx context.Context, status string, offset, limit uint64) (*PoolListResponse, error)
	GetPool(ctx context.Context, poolID string) (*PoolDetail, error)
	GetParticipants(ctx context.Context, poolID string) ([]ParticipantInfo, error)
	GetEvictions(ctx context.Context, poolID string) ([]EvictionInfo, error)
	GetNextPayout(ctx context.Context, poolID string) (*NextPayoutInfo, error)
	GetPendingRandomness(ctx context.Context, poolID string) (*RandomnessInfo, error)
	GetMemberPools(ctx context.Context, address string) ([]*PoolSummary, error)
	GetParams(ctx context.Context) (*ParamsInfo, error)

	// Writes (standalone gateway only)
	CreatePool(ctx context.Context, req *CreatePoolRequest) (*PoolDetail, error)
	JoinPool(ctx context.Context, poolID, address string) (*JoinPoolResponse, error)
	Contribute(ctx context.Context, poolID, address string, cycles uint32) (*PoolDetail, error)
	TriggerPayout(ctx context.Context, poolID string) (*PayoutResponse, error)
	RemoveParticipant(ctx context.Context, poolID, creator, address string) (*EvictionInfo, error)
}
