package intent

import (
	"github.com/google/uuid"

	"github.com/handlepay/handlepay/internal/application/validator"
	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/amount"
	"github.com/handlepay/handlepay/internal/domain/identity"
	domainIntent "github.com/handlepay/handlepay/internal/domain/intent"
)

// FieldView is the display state of one input field.
type FieldView struct {
	Input string              `json:"input"`
	Phase validator.Phase     `json:"phase"`
	Error *domainIntent.Error `json:"error,omitempty"`
}

// AllowanceView is the display state of the spending approval.
type AllowanceView struct {
	Phase      validator.Phase `json:"phase"`
	Spender    account.Account `json:"spender"`
	Amount     *amount.Amount  `json:"amount,omitempty"`
	Sufficient bool            `json:"sufficient"`
	// Current is false while the allowance was checked for another amount.
	Current bool `json:"current"`
}

// Snapshot is the observable state of a flow instance.
type Snapshot struct {
	FlowID     uuid.UUID               `json:"flowId"`
	FlowKind   domainIntent.FlowKind   `json:"flowKind"`
	Owner      account.Account         `json:"owner"`
	Params     Params                  `json:"params"`
	Target     *FieldView              `json:"target,omitempty"`
	Resolution *identity.Resolution    `json:"resolution,omitempty"`
	Amount     *FieldView              `json:"amount,omitempty"`
	Allowance  *AllowanceView          `json:"allowance,omitempty"`
	Execution  *domainIntent.Execution `json:"execution"`
	LastError  *domainIntent.Error     `json:"lastError,omitempty"`
}

// Status is the execution status of the snapshot.
func (s Snapshot) Status() domainIntent.Status {
	if s.Execution == nil {
		return domainIntent.StatusIdle
	}
	return s.Execution.Status
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		FlowID:    c.id,
		FlowKind:  c.spec.Kind,
		Owner:     c.owner(),
		Params:    c.params,
		Execution: c.exec.Clone(),
		LastError: c.lastErr,
	}

	if c.target != nil {
		st := c.target.State()
		snap.Target = &FieldView{Input: st.Input, Phase: st.Phase, Error: fieldError(st.Err)}
		if st.Phase == validator.PhaseReady || st.Phase == validator.PhaseInvalid {
			res := st.Value
			if res.Status != "" {
				snap.Resolution = &res
			}
		}
	}

	if c.spec.TakesAmount() {
		view := &FieldView{Input: c.amountInput, Phase: validator.PhaseEmpty, Error: c.amountErr}
		switch c.amountReadinessLocked() {
		case domainIntent.ReadinessReady:
			view.Phase = validator.PhaseReady
		case domainIntent.ReadinessInvalid:
			view.Phase = validator.PhaseInvalid
		}
		snap.Amount = view
	}

	if c.allowance != nil {
		st := c.allowance.State()
		view := &AllowanceView{
			Phase:   st.Phase,
			Spender: c.spender,
			Current: st.Normalized != "" && st.Normalized == c.allowanceKeyLocked(),
		}
		if st.Phase == validator.PhaseReady {
			a := st.Value.Amount
			view.Amount = &a
			view.Sufficient = view.Current && st.Value.IsSufficientFor(c.amountVal)
		}
		snap.Allowance = view
	}
	return snap
}
