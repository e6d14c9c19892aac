package history

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/amount"
)

// Direction describes what a confirmed action did from the owner's view.
type Direction string

const (
	DirectionSent        Direction = "sent"
	DirectionRegistered  Direction = "registered"
	DirectionPoolCreated Direction = "pool_created"
	DirectionClaimed     Direction = "claimed"
)

var (
	ErrDuplicateExecution = errors.New("history entry already recorded for execution")
	ErrMissingIdentity    = errors.New("history entry requires a display identity")
)

// Entry is one confirmed action in the owner's transaction history.
type Entry struct {
	ID              int64           `json:"id"`
	EntryID         uuid.UUID       `json:"entryId"`
	ExecutionID     uuid.UUID       `json:"executionId"`
	FlowID          uuid.UUID       `json:"flowId"`
	FlowKind        string          `json:"flowKind"`
	Owner           account.Account `json:"owner"`
	DisplayIdentity string          `json:"displayIdentity"`
	Counterparty    account.Account `json:"counterparty"`
	Amount          amount.Amount   `json:"amount"`
	Direction       Direction       `json:"direction"`
	TxRef           string          `json:"txRef"`
	BlockNumber     uint64          `json:"blockNumber"`
	TimestampRef    time.Time       `json:"timestampRef"`
	Signature       []byte          `json:"signature,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Record holds what the engine knows about a confirmed action.
type Record struct {
	ExecutionID     uuid.UUID
	FlowID          uuid.UUID
	FlowKind        string
	Owner           account.Account
	DisplayIdentity string
	Counterparty    account.Account
	Amount          amount.Amount
	Direction       Direction
	TxRef           string
	BlockNumber     uint64
}

// NewEntry builds an entry stamped with the current time.
func NewEntry(rec Record) (*Entry, error) {
	if rec.DisplayIdentity == "" {
		return nil, ErrMissingIdentity
	}
	now := time.Now().UTC()
	return &Entry{
		EntryID:         uuid.New(),
		ExecutionID:     rec.ExecutionID,
		FlowID:          rec.FlowID,
		FlowKind:        rec.FlowKind,
		Owner:           rec.Owner,
		DisplayIdentity: rec.DisplayIdentity,
		Counterparty:    rec.Counterparty,
		Amount:          rec.Amount,
		Direction:       rec.Direction,
		TxRef:           rec.TxRef,
		BlockNumber:     rec.BlockNumber,
		TimestampRef:    now,
		CreatedAt:       now,
	}, nil
}

// Filter controls history listing.
type Filter struct {
	Owner     account.Account
	Direction *Direction
	Since     *time.Time
}
