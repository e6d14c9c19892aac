package approval

import (
	"errors"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/amount"
)

// Status represents approval status.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
	StatusFailed    Status = "FAILED"
)

var (
	ErrInvalidTransition = errors.New("invalid approval status transition")
	ErrZeroAmount        = errors.New("approval amount must be positive")
	ErrNoSpender         = errors.New("approval spender is required")
)

// AllowanceState is the ledger-reported spending permission of owner for
// spender at the time of the check.
type AllowanceState struct {
	Owner     account.Account `json:"owner"`
	Spender   account.Account `json:"spender"`
	Amount    amount.Amount   `json:"amount"`
	Required  amount.Amount   `json:"required"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// NewAllowanceState wraps a raw allowance in base units.
func NewAllowanceState(owner, spender account.Account, units *big.Int, required amount.Amount) AllowanceState {
	return AllowanceState{
		Owner:     owner,
		Spender:   spender,
		Amount:    amount.FromUnits(units),
		Required:  required,
		CheckedAt: time.Now().UTC(),
	}
}

// IsSufficientFor compares base units. A zero requirement is always met.
func (s AllowanceState) IsSufficientFor(required amount.Amount) bool {
	return s.Amount.Cmp(required) >= 0
}

// Sufficient reports sufficiency for the amount the state was checked against.
func (s AllowanceState) Sufficient() bool {
	return s.IsSufficientFor(s.Required)
}

// Approval represents a spending-permission request submitted to the ledger.
type Approval struct {
	ApprovalID  uuid.UUID       `json:"approvalId"`
	Owner       account.Account `json:"owner"`
	Spender     account.Account `json:"spender"`
	Amount      amount.Amount   `json:"amount"`
	TxRef       string          `json:"txRef,omitempty"`
	Status      Status          `json:"status"`
	Error       *string         `json:"error,omitempty"`
	RequestedAt time.Time       `json:"requestedAt"`
	DecidedAt   *time.Time      `json:"decidedAt,omitempty"`
}

// NewApproval creates a pending approval for exactly amt.
func NewApproval(owner, spender account.Account, amt amount.Amount) (*Approval, error) {
	if spender.IsZero() {
		return nil, ErrNoSpender
	}
	if !amt.IsPositive() {
		return nil, ErrZeroAmount
	}
	return &Approval{
		ApprovalID:  uuid.New(),
		Owner:       owner,
		Spender:     spender,
		Amount:      amt,
		Status:      StatusPending,
		RequestedAt: time.Now().UTC(),
	}, nil
}

// CanTransitionTo validates approval status transition.
func (a *Approval) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPending:   {StatusConfirmed, StatusRejected, StatusFailed},
		StatusConfirmed: {},
		StatusRejected:  {},
		StatusFailed:    {},
	}
	for _, s := range transitions[a.Status] {
		if s == target {
			return true
		}
	}
	return false
}

func (a *Approval) decide(target Status, errMsg *string) error {
	if !a.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	now := time.Now().UTC()
	a.Status = target
	a.DecidedAt = &now
	a.Error = errMsg
	return nil
}

// MarkConfirmed marks the approval final on the ledger.
func (a *Approval) MarkConfirmed() error {
	return a.decide(StatusConfirmed, nil)
}

// MarkRejected marks the approval declined by the signer.
func (a *Approval) MarkRejected() error {
	msg := "rejected by signer"
	return a.decide(StatusRejected, &msg)
}

// MarkFailed marks the approval failed for any other reason.
func (a *Approval) MarkFailed(errMsg string) error {
	return a.decide(StatusFailed, &errMsg)
}
