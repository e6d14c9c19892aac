package intent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/handlepay/handlepay/internal/domain/ledger"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		kind        Kind
		cause       Kind
		recoverable bool
	}{
		{name: "user rejected", err: fmt.Errorf("sign: %w", ledger.ErrUserRejected), kind: KindUserRejected, recoverable: true},
		{name: "already claimed", err: &ledger.RevertError{TxRef: "0x1", Reason: "already_claimed"}, kind: KindLedgerRejected, cause: KindConflict},
		{name: "unknown revert", err: &ledger.RevertError{TxRef: "0x1", Reason: "paused"}, kind: KindLedgerRejected},
		{name: "deadline", err: context.DeadlineExceeded, kind: KindNetwork, recoverable: true},
		{name: "other", err: errors.New("connection refused"), kind: KindNetwork, recoverable: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Classify(tt.err)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.cause, e.Cause)
			assert.Equal(t, tt.recoverable, e.Recoverable())
			assert.ErrorIs(t, e, tt.err)
		})
	}
	assert.Nil(t, Classify(nil))
}

func TestClassify_KeepsTaxonomyErrors(t *testing.T) {
	orig := Network("confirmation_timeout", context.DeadlineExceeded)
	assert.Same(t, orig, Classify(fmt.Errorf("wrap: %w", orig)))
}

func TestLedgerRejected_Messages(t *testing.T) {
	assert.Equal(t, "you have already claimed from this giveaway", LedgerRejected("already_claimed", nil).Message)
	assert.Equal(t, "paused", LedgerRejected("paused", nil).Message)
	assert.Equal(t, "the ledger rejected the transaction", LedgerRejected("", nil).Message)
}

func TestConflict_NamesEveryCondition(t *testing.T) {
	e := Conflict("identifier_taken", "caller_already_registered")
	assert.Equal(t, KindConflict, e.Kind)
	assert.Equal(t, "identifier_taken,caller_already_registered", e.Reason)
	assert.Contains(t, e.Message, "already taken")
	assert.Contains(t, e.Message, "already owns")
}

func TestKind_ExecutionPhase(t *testing.T) {
	assert.True(t, KindNetwork.ExecutionPhase())
	assert.True(t, KindUserRejected.ExecutionPhase())
	assert.True(t, KindLedgerRejected.ExecutionPhase())
	assert.False(t, KindMalformedInput.ExecutionPhase())
	assert.False(t, KindNotFound.ExecutionPhase())
	assert.False(t, KindConflict.ExecutionPhase())
	assert.False(t, KindSelfReference.ExecutionPhase())
}
