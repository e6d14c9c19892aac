package identity

import (
	"github.com/handlepay/handlepay/internal/domain/account"
)

// Status is the tag of a Resolution.
type Status string

const (
	StatusResolved Status = "RESOLVED"
	StatusNotFound Status = "NOT_FOUND"
	StatusInvalid  Status = "INVALID"
	StatusPending  Status = "PENDING"
)

// ReasonSelf marks a recipient that resolved to the caller's own account.
const ReasonSelf = "self"

// Resolution is the outcome of resolving an identifier.
type Resolution struct {
	Status     Status          `json:"status"`
	Identifier Identifier      `json:"identifier"`
	Account    account.Account `json:"account"`
	Kind       Kind            `json:"kind,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

func Resolved(id Identifier, acct account.Account) Resolution {
	return Resolution{Status: StatusResolved, Identifier: id, Account: acct, Kind: id.Kind}
}

func NotFound(id Identifier) Resolution {
	return Resolution{Status: StatusNotFound, Identifier: id, Kind: id.Kind}
}

func Invalid(id Identifier, reason string) Resolution {
	return Resolution{Status: StatusInvalid, Identifier: id, Kind: id.Kind, Reason: reason}
}

func Pending(id Identifier) Resolution {
	return Resolution{Status: StatusPending, Identifier: id, Kind: id.Kind}
}

func (r Resolution) IsResolved() bool {
	return r.Status == StatusResolved
}

// DisplayIdentity is how the resolved counterparty is shown and recorded.
func (r Resolution) DisplayIdentity() string {
	if r.Kind == KindHandle && r.Identifier.Handle != "" {
		return "@" + r.Identifier.Handle
	}
	if !r.Account.IsZero() {
		return r.Account.Hex()
	}
	return r.Identifier.Display()
}

// Conflict reasons reported by a registration check.
const (
	ConflictIdentifierTaken         = "identifier_taken"
	ConflictCallerAlreadyRegistered = "caller_already_registered"
)

// Availability is the combined result of the two independent registration
// checks: the handle is unclaimed and the caller owns no identity yet.
type Availability struct {
	Handle         string          `json:"handle"`
	Available      bool            `json:"available"`
	TakenBy        account.Account `json:"takenBy,omitempty"`
	CallerIdentity string          `json:"callerIdentity,omitempty"`
}

// CallerRegistered reports whether the caller already owns an identity.
func (a Availability) CallerRegistered() bool {
	return a.CallerIdentity != ""
}

// Ok is true only when both conditions hold.
func (a Availability) Ok() bool {
	return a.Available && !a.CallerRegistered()
}

// Conflicts names every failing condition.
func (a Availability) Conflicts() []string {
	var out []string
	if !a.Available {
		out = append(out, ConflictIdentifierTaken)
	}
	if a.CallerRegistered() {
		out = append(out, ConflictCallerAlreadyRegistered)
	}
	return out
}
