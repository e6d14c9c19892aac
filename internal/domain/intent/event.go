package intent

import (
	"time"

	"github.com/google/uuid"

	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/notification"
)

// EventType names a lifecycle event.
type EventType string

const (
	EventValidating        EventType = "validating"
	EventApprovalRequested EventType = "approval_requested"
	EventApprovalConfirmed EventType = "approval_confirmed"
	EventSubmitted         EventType = "submitted"
	EventConfirmed         EventType = "confirmed"
	EventFailed            EventType = "failed"
)

// Event is a discrete lifecycle event of an execution.
type Event struct {
	EventID     uuid.UUID          `json:"eventId"`
	Type        EventType          `json:"type"`
	Level       notification.Level `json:"level"`
	FlowID      uuid.UUID          `json:"flowId"`
	ExecutionID uuid.UUID          `json:"executionId"`
	FlowKind    FlowKind           `json:"flowKind"`
	Owner       account.Account    `json:"owner"`
	TxRef       string             `json:"txRef,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	Error       *Error             `json:"error,omitempty"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

// NewEvent creates an event for exec.
func NewEvent(typ EventType, exec *Execution, owner account.Account) *Event {
	return &Event{
		EventID:     uuid.New(),
		Type:        typ,
		Level:       levelFor(typ),
		FlowID:      exec.FlowID,
		ExecutionID: exec.ExecutionID,
		FlowKind:    exec.FlowKind,
		Owner:       owner,
		OccurredAt:  time.Now().UTC(),
	}
}

// NewFailedEvent creates a failed event carrying err. A user rejection is a
// warning rather than an error.
func NewFailedEvent(exec *Execution, owner account.Account, err *Error) *Event {
	ev := NewEvent(EventFailed, exec, owner)
	ev.Error = err
	if err != nil {
		ev.Reason = err.Reason
		if ev.Reason == "" {
			ev.Reason = string(err.Kind)
		}
		if err.Kind == KindUserRejected {
			ev.Level = notification.LevelWarning
		}
	}
	return ev
}

func levelFor(typ EventType) notification.Level {
	switch typ {
	case EventApprovalConfirmed, EventConfirmed:
		return notification.LevelSuccess
	case EventFailed:
		return notification.LevelError
	default:
		return notification.LevelInfo
	}
}
