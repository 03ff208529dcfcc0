package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message types
const (
	TypeMsgCreatePool        = "create_pool"
	TypeMsgJoinPool          = "join_pool"
	TypeMsgContribute        = "contribute"
	TypeMsgTriggerPayout     = "trigger_payout"
	TypeMsgRemoveParticipant = "remove_participant"
	TypeMsgFulfillRandomness = "fulfill_randomness"
	TypeMsgUpdateParams      = "update_params"
)

// MsgCreatePool creates a new pool with immutable config and a
// whitelist whose length fixes the participant count.
type MsgCreatePool struct {
	Creator            string   `json:"creator"`
	Denom              string   `json:"denom"`
	ContributionAmount string   `json:"contribution_amount"`
	PayoutInterval     int64    `json:"payout_interval"`
	Whitelist          []string `json:"whitelist"`
}

// Route implements sdk.Msg
func (msg MsgCreatePool) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgCreatePool) Type() string { return TypeMsgCreatePool }

// ValidateBasic implements sdk.Msg
func (msg MsgCreatePool) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Creator); err != nil {
		return ErrInvalidAddress
	}
	if err := sdk.ValidateDenom(msg.Denom); err != nil {
		return ErrInvalidDenom
	}
	if msg.PayoutInterval <= 0 {
		return ErrInvalidInterval
	}
	if len(msg.Whitelist) < MinParticipantCount {
		return ErrInvalidParticipantCount
	}
	for _, addr := range msg.Whitelist {
		if _, err := sdk.AccAddressFromBech32(addr); err != nil {
			return ErrInvalidAddress
		}
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgCreatePool) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Creator)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgCreatePool) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgCreatePool) Reset() { *msg = MsgCreatePool{} }

// String implements proto.Message
func (msg MsgCreatePool) String() string {
	return fmt.Sprintf("MsgCreatePool{Creator: %s, Denom: %s, Amount: %s, Participants: %d}",
		msg.Creator, msg.Denom, msg.ContributionAmount, len(msg.Whitelist))
}

// MsgCreatePoolResponse is the response for MsgCreatePool
type MsgCreatePoolResponse struct {
	PoolID string `json:"pool_id"`
}

// MsgJoinPool enrolls a whitelisted address into an open pool. The
// first cycle is prepaid by the act of joining.
type MsgJoinPool struct {
	Joiner string `json:"joiner"`
	PoolID string `json:"pool_id"`
}

// Route implements sdk.Msg
func (msg MsgJoinPool) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgJoinPool) Type() string { return TypeMsgJoinPool }

// ValidateBasic implements sdk.Msg
func (msg MsgJoinPool) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Joiner); err != nil {
		return ErrInvalidAddress
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgJoinPool) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Joiner)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgJoinPool) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgJoinPool) Reset() { *msg = MsgJoinPool{} }

// String implements proto.Message
func (msg MsgJoinPool) String() string {
	return fmt.Sprintf("MsgJoinPool{Joiner: %s, PoolID: %s}", msg.Joiner, msg.PoolID)
}

// MsgJoinPoolResponse is the response for MsgJoinPool
type MsgJoinPoolResponse struct {
	Slot          uint32 `json:"slot"`
	PoolActivated bool   `json:"pool_activated"`
}

// MsgContribute prepays one or more future cycles for a participant.
type MsgContribute struct {
	Contributor string `json:"contributor"`
	PoolID      string `json:"pool_id"`
	Cycles      uint32 `json:"cycles"`
}

// Route implements sdk.Msg
func (msg MsgContribute) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgContribute) Type() string { return TypeMsgContribute }

// ValidateBasic implements sdk.Msg
func (msg MsgContribute) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Contributor); err != nil {
		return ErrInvalidAddress
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	if msg.Cycles < 1 {
		return ErrInvalidCycleCount
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgContribute) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Contributor)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgContribute) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgContribute) Reset() { *msg = MsgContribute{} }

// String implements proto.Message
func (msg MsgContribute) String() string {
	return fmt.Sprintf("MsgContribute{Contributor: %s, PoolID: %s, Cycles: %d}",
		msg.Contributor, msg.PoolID, msg.Cycles)
}

// MsgContributeResponse is the response for MsgContribute
type MsgContributeResponse struct {
	PaidUntilCycle uint32 `json:"paid_until_cycle"`
	AmountPaid     string `json:"amount_paid"`
}

// MsgTriggerPayout releases the current cycle's pooled funds. Callable
// by any account so payout liveness does not depend on the creator or
// participants being online.
type MsgTriggerPayout struct {
	Caller string `json:"caller"`
	PoolID string `json:"pool_id"`
}

// Route implements sdk.Msg
func (msg MsgTriggerPayout) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgTriggerPayout) Type() string { return TypeMsgTriggerPayout }

// ValidateBasic implements sdk.Msg
func (msg MsgTriggerPayout) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Caller); err != nil {
		return ErrInvalidAddress
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgTriggerPayout) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgTriggerPayout) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgTriggerPayout) Reset() { *msg = MsgTriggerPayout{} }

// String implements proto.Message
func (msg MsgTriggerPayout) String() string {
	return fmt.Sprintf("MsgTriggerPayout{Caller: %s, PoolID: %s}", msg.Caller, msg.PoolID)
}

// MsgTriggerPayoutResponse is the response for MsgTriggerPayout
type MsgTriggerPayoutResponse struct {
	Recipient       string `json:"recipient"`
	RecipientAmount string `json:"recipient_amount"`
	CreatorFee      string `json:"creator_fee"`
	TreasuryFee     string `json:"treasury_fee"`
	Cycle           uint32 `json:"cycle"`
	Completed       bool   `json:"completed"`
}

// MsgRemoveParticipant evicts a delinquent participant. Creator only;
// prior contributions are forfeited to the pool.
type MsgRemoveParticipant struct {
	Creator string `json:"creator"`
	PoolID  string `json:"pool_id"`
	Target  string `json:"target"`
}

// Route implements sdk.Msg
func (msg MsgRemoveParticipant) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgRemoveParticipant) Type() string { return TypeMsgRemoveParticipant }

// ValidateBasic implements sdk.Msg
func (msg MsgRemoveParticipant) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Creator); err != nil {
		return ErrInvalidAddress
	}
	if _, err := sdk.AccAddressFromBech32(msg.Target); err != nil {
		return ErrInvalidAddress
	}
	if msg.PoolID == "" {
		return ErrPoolNotFound
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgRemoveParticipant) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Creator)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgRemoveParticipant) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgRemoveParticipant) Reset() { *msg = MsgRemoveParticipant{} }

// String implements proto.Message
func (msg MsgRemoveParticipant) String() string {
	return fmt.Sprintf("MsgRemoveParticipant{Creator: %s, PoolID: %s, Target: %s}",
		msg.Creator, msg.PoolID, msg.Target)
}

// MsgRemoveParticipantResponse is the response for MsgRemoveParticipant
type MsgRemoveParticipantResponse struct {
	ForfeitedAmount string `json:"forfeited_amount"`
}

// MsgFulfillRandomness delivers the randomness result for a pending
// request. Oracle only; the request id correlates the value back to
// the pool that asked for it.
type MsgFulfillRandomness struct {
	Oracle      string `json:"oracle"`
	RequestID   string `json:"request_id"`
	RandomValue uint64 `json:"random_value"`
}

// Route implements sdk.Msg
func (msg MsgFulfillRandomness) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgFulfillRandomness) Type() string { return TypeMsgFulfillRandomness }

// ValidateBasic implements sdk.Msg
func (msg MsgFulfillRandomness) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Oracle); err != nil {
		return ErrInvalidAddress
	}
	if msg.RequestID == "" {
		return ErrRequestNotFound
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgFulfillRandomness) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Oracle)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgFulfillRandomness) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgFulfillRandomness) Reset() { *msg = MsgFulfillRandomness{} }

// String implements proto.Message
func (msg MsgFulfillRandomness) String() string {
	return fmt.Sprintf("MsgFulfillRandomness{Oracle: %s, RequestID: %s}", msg.Oracle, msg.RequestID)
}

// MsgFulfillRandomnessResponse is the response for MsgFulfillRandomness
type MsgFulfillRandomnessResponse struct {
	PoolID      string   `json:"pool_id"`
	PayoutOrder []uint32 `json:"payout_order"`
}

// MsgUpdateParams updates the registry-wide fee and limit settings.
// Authority only; new settings apply from the next payout.
type MsgUpdateParams struct {
	Authority string `json:"authority"`
	Params    Params `json:"params"`
}

// Route implements sdk.Msg
func (msg MsgUpdateParams) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgUpdateParams) Type() string { return TypeMsgUpdateParams }

// ValidateBasic implements sdk.Msg
func (msg MsgUpdateParams) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Authority); err != nil {
		return ErrInvalidAddress
	}
	return msg.Params.Validate()
}

// GetSigners implements sdk.Msg
func (msg MsgUpdateParams) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Authority)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgUpdateParams) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgUpdateParams) Reset() { *msg = MsgUpdateParams{} }

// String implements proto.Message
func (msg MsgUpdateParams) String() string {
	return fmt.Sprintf("MsgUpdateParams{Authority: %s}", msg.Authority)
}

// MsgUpdateParamsResponse is the response for MsgUpdateParams
type MsgUpdateParamsResponse struct{}
