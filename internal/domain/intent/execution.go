package intent

import (
	"time"

	"github.com/google/uuid"
)

// Status represents execution status.
type Status string

const (
	StatusIdle                 Status = "IDLE"
	StatusValidating           Status = "VALIDATING"
	StatusReadyToApprove       Status = "READY_TO_APPROVE"
	StatusApproving            Status = "APPROVING"
	StatusReadyToSubmit        Status = "READY_TO_SUBMIT"
	StatusSubmitting           Status = "SUBMITTING"
	StatusAwaitingConfirmation Status = "AWAITING_CONFIRMATION"
	StatusConfirmed            Status = "CONFIRMED"
	StatusFailed               Status = "FAILED"
)

// IsGate reports whether the status is derived from field state alone.
func (s Status) IsGate() bool {
	switch s {
	case StatusIdle, StatusValidating, StatusReadyToApprove, StatusReadyToSubmit:
		return true
	default:
		return false
	}
}

// Execution is the unit of work for one user action on a flow instance.
type Execution struct {
	ExecutionID   uuid.UUID  `json:"executionId"`
	FlowID        uuid.UUID  `json:"flowId"`
	FlowKind      FlowKind   `json:"flowKind"`
	Status        Status     `json:"status"`
	ApprovalTxRef *string    `json:"approvalTxRef,omitempty"`
	ActionTxRef   *string    `json:"actionTxRef,omitempty"`
	Error         *Error     `json:"error,omitempty"`
	Recoverable   bool       `json:"recoverable"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// NewExecution creates an idle execution.
func NewExecution(flowID uuid.UUID, kind FlowKind) *Execution {
	now := time.Now().UTC()
	return &Execution{
		ExecutionID: uuid.New(),
		FlowID:      flowID,
		FlowKind:    kind,
		Status:      StatusIdle,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

var gateStatuses = []Status{StatusIdle, StatusValidating, StatusReadyToApprove, StatusReadyToSubmit}

// CanTransitionTo validates execution status transition.
func (e *Execution) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusIdle:                 gateStatuses,
		StatusValidating:           gateStatuses,
		StatusReadyToApprove:       append([]Status{StatusApproving}, gateStatuses...),
		StatusReadyToSubmit:        append([]Status{StatusSubmitting, StatusFailed}, gateStatuses...),
		StatusApproving:            append([]Status{StatusFailed}, gateStatuses...),
		StatusSubmitting:           {StatusAwaitingConfirmation, StatusFailed},
		StatusAwaitingConfirmation: {StatusConfirmed, StatusFailed},
		StatusConfirmed:            {},
		StatusFailed:               gateStatuses,
	}
	for _, s := range transitions[e.Status] {
		if s == target {
			return true
		}
	}
	return false
}

func (e *Execution) transition(target Status) error {
	if !e.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	if e.Status == StatusFailed && !e.Recoverable {
		return ErrNotRecoverable
	}
	e.Status = target
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// Gate moves between the field-derived statuses. A failed execution only
// leaves through Retry.
func (e *Execution) Gate(target Status) error {
	if !target.IsGate() || e.Status == StatusFailed {
		return ErrInvalidTransition
	}
	if e.Status == target {
		return nil
	}
	return e.transition(target)
}

// StartApproval moves a ready execution into Approving.
func (e *Execution) StartApproval() error {
	if e.Status != StatusReadyToApprove {
		return ErrNotReady
	}
	return e.transition(StatusApproving)
}

// ApprovalConfirmed records the approval tx and applies the re-checked gate.
func (e *Execution) ApprovalConfirmed(txRef string, next Status) error {
	if e.Status != StatusApproving || !next.IsGate() {
		return ErrInvalidTransition
	}
	e.ApprovalTxRef = &txRef
	return e.transition(next)
}

// StartSubmission moves a ready execution into Submitting.
func (e *Execution) StartSubmission() error {
	if e.Status != StatusReadyToSubmit {
		return ErrNotReady
	}
	return e.transition(StatusSubmitting)
}

// Accepted records the action tx once the network accepted it.
func (e *Execution) Accepted(txRef string) error {
	if err := e.transition(StatusAwaitingConfirmation); err != nil {
		return err
	}
	e.ActionTxRef = &txRef
	return nil
}

// Confirm marks the action final on the ledger.
func (e *Execution) Confirm() error {
	if err := e.transition(StatusConfirmed); err != nil {
		return err
	}
	e.Error = nil
	e.Recoverable = false
	e.completed()
	return nil
}

// Interrupt records that waiting for an accepted action's confirmation
// stopped before the ledger settled it. The action may still confirm, so the
// execution stays in AwaitingConfirmation and can only resume waiting.
func (e *Execution) Interrupt(err *Error) error {
	if e.Status != StatusAwaitingConfirmation || e.ActionTxRef == nil {
		return ErrInvalidTransition
	}
	if err == nil {
		err = Network("", nil)
	}
	e.Error = err
	e.Recoverable = true
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// Resume clears an interruption before waiting on the same action again.
func (e *Execution) Resume() error {
	if !e.Stalled() {
		return ErrInvalidTransition
	}
	e.Error = nil
	e.Recoverable = false
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// Stalled is true when an accepted action's confirmation wait was
// interrupted.
func (e *Execution) Stalled() bool {
	return e.Status == StatusAwaitingConfirmation && e.Error != nil
}

// Fail records an execution-phase error. Recoverability follows the error.
// Once the network accepted the action only a revert may fail it.
func (e *Execution) Fail(err *Error) error {
	if err == nil {
		err = Network("", nil)
	}
	if e.Status == StatusAwaitingConfirmation && err.Kind != KindLedgerRejected {
		return ErrInvalidTransition
	}
	if err := e.transition(StatusFailed); err != nil {
		return err
	}
	e.Error = err
	e.Recoverable = err.Recoverable()
	e.completed()
	return nil
}

// Retry leaves a recoverable failure for the given gate status without
// re-resolving anything.
func (e *Execution) Retry(next Status) error {
	if e.Status != StatusFailed {
		return ErrInvalidTransition
	}
	if !e.Recoverable || e.ActionTxRef != nil {
		return ErrNotRecoverable
	}
	if !next.IsGate() {
		return ErrInvalidTransition
	}
	if err := e.transition(next); err != nil {
		return err
	}
	e.Error = nil
	e.Recoverable = false
	e.CompletedAt = nil
	return nil
}

func (e *Execution) completed() {
	now := time.Now().UTC()
	e.CompletedAt = &now
}

// IsTerminal is true for Confirmed and for failures that cannot be retried.
func (e *Execution) IsTerminal() bool {
	return e.Status == StatusConfirmed || (e.Status == StatusFailed && !e.Recoverable)
}

// InFlight is true while an action tx is being submitted or confirmed.
func (e *Execution) InFlight() bool {
	return e.Status == StatusSubmitting || e.Status == StatusAwaitingConfirmation
}

// Busy is true while any ledger write is outstanding.
func (e *Execution) Busy() bool {
	return e.Status == StatusApproving || e.InFlight()
}

// Clone returns a copy safe to hand outside the controller lock.
func (e *Execution) Clone() *Execution {
	if e == nil {
		return nil
	}
	c := *e
	if e.ApprovalTxRef != nil {
		v := *e.ApprovalTxRef
		c.ApprovalTxRef = &v
	}
	if e.ActionTxRef != nil {
		v := *e.ActionTxRef
		c.ActionTxRef = &v
	}
	if e.Error != nil {
		v := *e.Error
		c.Error = &v
	}
	if e.CompletedAt != nil {
		v := *e.CompletedAt
		c.CompletedAt = &v
	}
	return &c
}
