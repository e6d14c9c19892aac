package intent

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/amount"
	"github.com/handlepay/handlepay/internal/domain/identity"
	domainIntent "github.com/handlepay/handlepay/internal/domain/intent"
	"github.com/handlepay/handlepay/internal/domain/ledger"
)

// MaxSlots bounds the number of claim slots of a pool.
const MaxSlots = 10_000

var (
	ErrSlotsRequired = errors.New("slots must be between 1 and 10000")
	ErrNoContract    = errors.New("contract address is not configured")
)

// Params are flow-specific options fixed when the flow is opened.
type Params struct {
	Slots int `json:"slots,omitempty"`
}

// Validate checks params against the flow kind.
func (p Params) Validate(kind domainIntent.FlowKind) error {
	if kind == domainIntent.FlowCreatePool && (p.Slots < 1 || p.Slots > MaxSlots) {
		return ErrSlotsRequired
	}
	return nil
}

// Inputs are the resolved values an action is built from. Raw user input
// never reaches a builder.
type Inputs struct {
	Caller account.Account
	Target identity.Resolution
	Amount amount.Amount
	Params Params
}

// DisplayIdentity is how the counterparty is shown in history.
func (in Inputs) DisplayIdentity() string {
	if in.Target.Status == "" {
		return in.Caller.Hex()
	}
	return in.Target.DisplayIdentity()
}

// ActionBuilder turns resolved inputs into the flow's ledger call.
type ActionBuilder func(Inputs) (ledger.ActionRequest, error)

// Contracts are the ledger contracts the flows talk to.
type Contracts struct {
	PaymentRouter account.Account
	Giveaway      account.Account
	Registry      account.Account
}

// Spender returns the contract that must be approved for s.
func (c Contracts) Spender(s domainIntent.Spender) account.Account {
	switch s {
	case domainIntent.SpenderPaymentRouter:
		return c.PaymentRouter
	case domainIntent.SpenderGiveaway:
		return c.Giveaway
	default:
		return account.Zero
	}
}

// Builders returns the action builder of every flow.
func Builders(c Contracts) map[domainIntent.FlowKind]ActionBuilder {
	return map[domainIntent.FlowKind]ActionBuilder{
		domainIntent.FlowSend:       sendBuilder(c),
		domainIntent.FlowRegister:   registerBuilder(c),
		domainIntent.FlowCreatePool: createPoolBuilder(c),
		domainIntent.FlowClaim:      claimBuilder(c),
	}
}

func sendBuilder(c Contracts) ActionBuilder {
	return func(in Inputs) (ledger.ActionRequest, error) {
		if c.PaymentRouter.IsZero() {
			return ledger.ActionRequest{}, fmt.Errorf("payment router: %w", ErrNoContract)
		}
		if !in.Target.IsResolved() || !in.Amount.IsPositive() {
			return ledger.ActionRequest{}, domainIntent.ErrNotReady
		}
		args := map[string]string{
			"to":     in.Target.Account.Hex(),
			"amount": in.Amount.UnitsString(),
		}
		if in.Target.Kind == identity.KindHandle {
			args["handle"] = in.Target.Identifier.Handle
		}
		return ledger.ActionRequest{
			Flow:     string(domainIntent.FlowSend),
			Contract: c.PaymentRouter,
			Method:   "send",
			Args:     args,
		}, nil
	}
}

func registerBuilder(c Contracts) ActionBuilder {
	return func(in Inputs) (ledger.ActionRequest, error) {
		if c.Registry.IsZero() {
			return ledger.ActionRequest{}, fmt.Errorf("registry: %w", ErrNoContract)
		}
		handle := in.Target.Identifier.Handle
		if handle == "" || in.Target.Kind != identity.KindHandle {
			return ledger.ActionRequest{}, domainIntent.ErrNotReady
		}
		return ledger.ActionRequest{
			Flow:     string(domainIntent.FlowRegister),
			Contract: c.Registry,
			Method:   "register",
			Args:     map[string]string{"handle": handle},
		}, nil
	}
}

func createPoolBuilder(c Contracts) ActionBuilder {
	return func(in Inputs) (ledger.ActionRequest, error) {
		if c.Giveaway.IsZero() {
			return ledger.ActionRequest{}, fmt.Errorf("giveaway: %w", ErrNoContract)
		}
		if err := in.Params.Validate(domainIntent.FlowCreatePool); err != nil {
			return ledger.ActionRequest{}, err
		}
		if !in.Amount.IsPositive() {
			return ledger.ActionRequest{}, domainIntent.ErrNotReady
		}
		return ledger.ActionRequest{
			Flow:     string(domainIntent.FlowCreatePool),
			Contract: c.Giveaway,
			Method:   "createGiveaway",
			Args: map[string]string{
				"amount": in.Amount.UnitsString(),
				"slots":  strconv.Itoa(in.Params.Slots),
			},
		}, nil
	}
}

func claimBuilder(c Contracts) ActionBuilder {
	return func(in Inputs) (ledger.ActionRequest, error) {
		if c.Giveaway.IsZero() {
			return ledger.ActionRequest{}, fmt.Errorf("giveaway: %w", ErrNoContract)
		}
		if !in.Target.IsResolved() {
			return ledger.ActionRequest{}, domainIntent.ErrNotReady
		}
		return ledger.ActionRequest{
			Flow:     string(domainIntent.FlowClaim),
			Contract: c.Giveaway,
			Method:   "claim",
			Args:     map[string]string{"creator": in.Target.Account.Hex()},
		}, nil
	}
}
