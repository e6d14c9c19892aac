package ledger

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_ledger.go -package=mocks . Client,TxHandle

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/handlepay/handlepay/internal/domain/account"
)

var (
	// ErrUserRejected is returned when the signer declines a request.
	ErrUserRejected = errors.New("user rejected the request")
	ErrNoAccount    = errors.New("no connected account")
)

// ActionRequest is the flow-specific payload submitted to the ledger. The
// executor treats it as opaque.
type ActionRequest struct {
	Flow     string            `json:"flow"`
	Contract account.Account   `json:"contract"`
	Method   string            `json:"method"`
	Args     map[string]string `json:"args"`
}

// ReceiptStatus is the final ledger outcome of a submitted transaction.
type ReceiptStatus string

const (
	ReceiptConfirmed ReceiptStatus = "CONFIRMED"
	ReceiptReverted  ReceiptStatus = "REVERTED"
)

// Receipt describes a confirmed transaction.
type Receipt struct {
	TxRef       string        `json:"txRef"`
	Status      ReceiptStatus `json:"status"`
	BlockNumber uint64        `json:"blockNumber"`
	// Amount is set when the action moved a ledger-determined value, e.g. a claim.
	Amount *big.Int `json:"amount,omitempty"`
}

// RevertError carries the ledger's reason code for a refused action.
type RevertError struct {
	TxRef  string
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("transaction %s reverted", e.TxRef)
	}
	return fmt.Sprintf("transaction %s reverted: %s", e.TxRef, e.Reason)
}

// TxHandle tracks a submitted transaction until the ledger settles it.
type TxHandle interface {
	Ref() string
	// AwaitConfirmation blocks until the transaction is final. A revert is
	// reported as *RevertError.
	AwaitConfirmation(ctx context.Context) (*Receipt, error)
}

// Client is the ledger collaborator consumed by the engine.
type Client interface {
	// ResolveIdentifier returns the zero account when name is unregistered.
	ResolveIdentifier(ctx context.Context, name string) (account.Account, error)
	// ResolveOwnerIdentifier returns "" when owner has no identity.
	ResolveOwnerIdentifier(ctx context.Context, owner account.Account) (string, error)
	GetAllowance(ctx context.Context, owner, spender account.Account) (*big.Int, error)
	RequestApproval(ctx context.Context, spender account.Account, amount *big.Int) (TxHandle, error)
	SubmitAction(ctx context.Context, req ActionRequest) (TxHandle, error)
}

// Session is the connected account plus its ledger access. It is built once
// and shared by every flow; the engine never mutates it.
type Session struct {
	Account account.Account
	Client  Client
}

// NewSession validates and builds a session.
func NewSession(acct account.Account, client Client) (*Session, error) {
	if acct.IsZero() {
		return nil, ErrNoAccount
	}
	if client == nil {
		return nil, errors.New("ledger client is required")
	}
	return &Session{Account: acct, Client: client}, nil
}
