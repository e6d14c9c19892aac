package intent

import (
	"errors"
	"strings"

	"github.com/handlepay/handlepay/internal/domain/history"
)

// FlowKind names one of the user flows driven by the engine.
type FlowKind string

const (
	FlowSend       FlowKind = "SEND"
	FlowRegister   FlowKind = "REGISTER"
	FlowCreatePool FlowKind = "CREATE_POOL"
	FlowClaim      FlowKind = "CLAIM"
)

var ErrUnknownFlow = errors.New("unknown flow kind")

// ParseFlowKind accepts the wire names ("send", "createPool", ...) as well as
// the constant values.
func ParseFlowKind(s string) (FlowKind, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "send":
		return FlowSend, nil
	case "register":
		return FlowRegister, nil
	case "createpool":
		return FlowCreatePool, nil
	case "claim":
		return FlowClaim, nil
	default:
		return "", ErrUnknownFlow
	}
}

// TargetRule says how a flow's target field is checked.
type TargetRule string

const (
	TargetNone         TargetRule = "NONE"
	TargetAccount      TargetRule = "ACCOUNT"
	TargetRegistration TargetRule = "REGISTRATION"
)

// Spender names the contract that must hold an allowance before the action.
type Spender string

const (
	SpenderNone          Spender = ""
	SpenderPaymentRouter Spender = "PAYMENT_ROUTER"
	SpenderGiveaway      Spender = "GIVEAWAY"
)

// FlowSpec is the static description of a flow.
type FlowSpec struct {
	Kind           FlowKind          `json:"kind"`
	Target         TargetRule        `json:"target"`
	ForbidSelf     bool              `json:"forbidSelf"`
	AmountRequired bool              `json:"amountRequired"`
	Spender        Spender           `json:"spender,omitempty"`
	Direction      history.Direction `json:"direction"`
}

func (s FlowSpec) HasTarget() bool {
	return s.Target != TargetNone
}

func (s FlowSpec) TakesAmount() bool {
	return s.AmountRequired
}

func (s FlowSpec) NeedsApproval() bool {
	return s.Spender != SpenderNone
}

var flowSpecs = map[FlowKind]FlowSpec{
	FlowSend: {
		Kind:           FlowSend,
		Target:         TargetAccount,
		ForbidSelf:     true,
		AmountRequired: true,
		Spender:        SpenderPaymentRouter,
		Direction:      history.DirectionSent,
	},
	FlowRegister: {
		Kind:      FlowRegister,
		Target:    TargetRegistration,
		Direction: history.DirectionRegistered,
	},
	FlowCreatePool: {
		Kind:           FlowCreatePool,
		Target:         TargetNone,
		AmountRequired: true,
		Spender:        SpenderGiveaway,
		Direction:      history.DirectionPoolCreated,
	},
	FlowClaim: {
		Kind:      FlowClaim,
		Target:    TargetAccount,
		Direction: history.DirectionClaimed,
	},
}

// SpecFor returns the FlowSpec of kind.
func SpecFor(kind FlowKind) (FlowSpec, error) {
	spec, ok := flowSpecs[kind]
	if !ok {
		return FlowSpec{}, ErrUnknownFlow
	}
	return spec, nil
}
