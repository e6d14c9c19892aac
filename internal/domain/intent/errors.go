package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/handlepay/handlepay/internal/domain/ledger"
)

// Kind classifies an engine error.
type Kind string

const (
	KindMalformedInput Kind = "MALFORMED_INPUT"
	KindNotFound       Kind = "NOT_FOUND"
	KindConflict       Kind = "CONFLICT"
	KindSelfReference  Kind = "SELF_REFERENCE"
	KindNetwork        Kind = "NETWORK_ERROR"
	KindUserRejected   Kind = "USER_REJECTED"
	KindLedgerRejected Kind = "LEDGER_REJECTED"
)

// ExecutionPhase reports whether errors of this kind interrupt an execution.
// Those are raised as notifications; the rest stay on the field.
func (k Kind) ExecutionPhase() bool {
	switch k {
	case KindNetwork, KindUserRejected, KindLedgerRejected:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidTransition     = errors.New("invalid execution status transition")
	ErrExecutionInProgress   = errors.New("an execution is already in progress for this flow")
	ErrNotReady              = errors.New("flow is not ready for this operation")
	ErrNotRecoverable        = errors.New("execution failure is not recoverable")
	ErrAllowanceInsufficient = errors.New("allowance is insufficient for the current amount")
	ErrInputChanged          = errors.New("input changed while the submission was being prepared")
	ErrAmountNotAccepted     = errors.New("this flow does not take an amount")
	ErrClosed                = errors.New("flow is closed")
)

// Error is the engine's error taxonomy.
type Error struct {
	Kind    Kind   `json:"kind"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
	// Cause is the re-classified kind for ledger rejections, when known.
	Cause Kind  `json:"cause,omitempty"`
	Err   error `json:"-"`
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Recoverable is false only for ledger reverts, which end the attempt.
func (e *Error) Recoverable() bool {
	return e.Kind != KindLedgerRejected
}

func Malformed(reason, message string) *Error {
	return &Error{Kind: KindMalformedInput, Reason: reason, Message: message}
}

func NotFound(identifier string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s is not registered", identifier)}
}

// Conflict names every failing condition.
func Conflict(reasons ...string) *Error {
	msgs := make([]string, 0, len(reasons))
	for _, r := range reasons {
		msgs = append(msgs, conflictMessage(r))
	}
	return &Error{Kind: KindConflict, Reason: strings.Join(reasons, ","), Message: strings.Join(msgs, "; ")}
}

func SelfReference() *Error {
	return &Error{Kind: KindSelfReference, Reason: "self", Message: "you cannot send to your own account"}
}

func Network(reason string, err error) *Error {
	msg := "could not reach the ledger"
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &Error{Kind: KindNetwork, Reason: reason, Message: msg, Err: err}
}

func UserRejected(err error) *Error {
	return &Error{Kind: KindUserRejected, Message: "the request was declined in the wallet", Err: err}
}

// LedgerRejected maps a ledger revert reason to a message and, when the
// reason is known, to a cause kind. Unknown reasons are shown verbatim.
func LedgerRejected(reason string, err error) *Error {
	e := &Error{Kind: KindLedgerRejected, Reason: reason, Err: err}
	if info, ok := revertReasons[reason]; ok {
		e.Cause = info.cause
		e.Message = info.message
		return e
	}
	if reason == "" {
		e.Message = "the ledger rejected the transaction"
		return e
	}
	e.Message = reason
	return e
}

type revertInfo struct {
	cause   Kind
	message string
}

var revertReasons = map[string]revertInfo{
	"already_claimed":        {cause: KindConflict, message: "you have already claimed from this giveaway"},
	"expired":                {cause: KindConflict, message: "this giveaway has expired"},
	"pool_empty":             {cause: KindConflict, message: "this giveaway has no slots left"},
	"name_taken":             {cause: KindConflict, message: "this username is already taken"},
	"already_registered":     {cause: KindConflict, message: "this account already owns a username"},
	"insufficient_allowance": {cause: KindLedgerRejected, message: "the spending approval is too small for this amount"},
	"insufficient_balance":   {cause: KindLedgerRejected, message: "your balance is too low for this amount"},
	"unknown_identifier":     {cause: KindNotFound, message: "the recipient is not registered"},
	"self_transfer":          {cause: KindSelfReference, message: "you cannot send to your own account"},
}

func conflictMessage(reason string) string {
	switch reason {
	case "identifier_taken":
		return "this username is already taken"
	case "caller_already_registered":
		return "your account already owns a username"
	default:
		return reason
	}
}

// Classify converts any ledger-side error into the taxonomy.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ie *Error
	if errors.As(err, &ie) {
		return ie
	}
	if errors.Is(err, ledger.ErrUserRejected) {
		return UserRejected(err)
	}
	var rev *ledger.RevertError
	if errors.As(err, &rev) {
		return LedgerRejected(rev.Reason, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Network("timeout", err)
	}
	return Network("", err)
}
