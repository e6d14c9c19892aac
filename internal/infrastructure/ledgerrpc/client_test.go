package ledgerrpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/ledger"
)

var (
	owner   = account.MustParse("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	spender = account.MustParse("0x1111111111111111111111111111111111111111")
)

type rpcHandler func(method string, params gjson.Result) (any, *rpcErr)

type rpcErr struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func newTestClient(t *testing.T, handle rpcHandler) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		req := gjson.ParseBytes(body)
		result, e := handle(req.Get("method").String(), req.Get("params"))
		resp := map[string]any{"jsonrpc": "2.0", "id": req.Get("id").Int()}
		if e != nil {
			resp["error"] = e
		} else {
			resp["result"] = result
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{URL: server.URL, PollInterval: time.Millisecond}, nil, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{}, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestClient_Account(t *testing.T) {
	client := newTestClient(t, func(method string, _ gjson.Result) (any, *rpcErr) {
		assert.Equal(t, MethodAccount, method)
		return owner.Hex(), nil
	})

	acct, err := client.Account(context.Background())
	require.NoError(t, err)
	assert.True(t, acct.Equal(owner))
}

func TestClient_ResolveIdentifier(t *testing.T) {
	client := newTestClient(t, func(method string, params gjson.Result) (any, *rpcErr) {
		assert.Equal(t, MethodResolve, method)
		if params.Get("0").String() == "alice" {
			return owner.Hex(), nil
		}
		return "0x0000000000000000000000000000000000000000", nil
	})

	acct, err := client.ResolveIdentifier(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, acct.Equal(owner))

	acct, err = client.ResolveIdentifier(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, acct.IsZero())
}

func TestClient_ResolveOwnerIdentifier(t *testing.T) {
	client := newTestClient(t, func(method string, params gjson.Result) (any, *rpcErr) {
		assert.Equal(t, MethodReverse, method)
		assert.Equal(t, owner.Hex(), params.Get("0").String())
		return "alice", nil
	})

	name, err := client.ResolveOwnerIdentifier(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
}

func TestClient_GetAllowance(t *testing.T) {
	client := newTestClient(t, func(method string, params gjson.Result) (any, *rpcErr) {
		assert.Equal(t, MethodAllowance, method)
		assert.Equal(t, spender.Hex(), params.Get("1").String())
		return "50000000", nil
	})

	units, err := client.GetAllowance(context.Background(), owner, spender)
	require.NoError(t, err)
	assert.Zero(t, units.Cmp(big.NewInt(50_000_000)))
}

func TestClient_UserRejected(t *testing.T) {
	client := newTestClient(t, func(string, gjson.Result) (any, *rpcErr) {
		return nil, &rpcErr{Code: codeUserRejected, Message: "User rejected the request."}
	})

	_, err := client.RequestApproval(context.Background(), spender, big.NewInt(1))
	assert.ErrorIs(t, err, ledger.ErrUserRejected)
}

func TestClient_SubmitRevertedAtEstimate(t *testing.T) {
	client := newTestClient(t, func(string, gjson.Result) (any, *rpcErr) {
		return nil, &rpcErr{Code: codeExecutionReverted, Message: "execution reverted", Data: map[string]any{"reason": "pool_empty"}}
	})

	_, err := client.SubmitAction(context.Background(), ledger.ActionRequest{Method: "claim"})
	var rev *ledger.RevertError
	require.ErrorAs(t, err, &rev)
	assert.Equal(t, "pool_empty", rev.Reason)
}

func TestClient_OtherRPCError(t *testing.T) {
	client := newTestClient(t, func(string, gjson.Result) (any, *rpcErr) {
		return nil, &rpcErr{Code: -32000, Message: "nonce too low"}
	})

	_, err := client.GetAllowance(context.Background(), owner, spender)
	var rpcError *RPCError
	require.ErrorAs(t, err, &rpcError)
	assert.EqualValues(t, -32000, rpcError.Code)
}

func TestClient_SubmitAndAwaitConfirmation(t *testing.T) {
	var polls atomic.Int32
	client := newTestClient(t, func(method string, params gjson.Result) (any, *rpcErr) {
		switch method {
		case MethodSubmit:
			assert.Equal(t, "claim", params.Get("0.method").String())
			assert.Equal(t, spender.Hex(), params.Get("0.contract").String())
			return map[string]any{"txRef": "0xabc"}, nil
		case MethodReceipt:
			if polls.Add(1) < 3 {
				return nil, nil
			}
			return map[string]any{"status": "confirmed", "blockNumber": 7, "amount": "1500000"}, nil
		}
		t.Errorf("unexpected method %s", method)
		return nil, nil
	})

	tx, err := client.SubmitAction(context.Background(), ledger.ActionRequest{
		Flow:     "CLAIM",
		Contract: spender,
		Method:   "claim",
		Args:     map[string]string{"creator": owner.Hex()},
	})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", tx.Ref())

	receipt, err := tx.AwaitConfirmation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ledger.ReceiptConfirmed, receipt.Status)
	assert.Equal(t, uint64(7), receipt.BlockNumber)
	assert.Zero(t, receipt.Amount.Cmp(big.NewInt(1_500_000)))
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestClient_AwaitReverted(t *testing.T) {
	client := newTestClient(t, func(method string, _ gjson.Result) (any, *rpcErr) {
		if method == MethodApprove {
			return "0xdef", nil
		}
		return map[string]any{"status": "REVERTED", "blockNumber": 9, "reason": "already_claimed"}, nil
	})

	tx, err := client.RequestApproval(context.Background(), spender, big.NewInt(5))
	require.NoError(t, err)

	receipt, err := tx.AwaitConfirmation(context.Background())
	var rev *ledger.RevertError
	require.ErrorAs(t, err, &rev)
	assert.Equal(t, "already_claimed", rev.Reason)
	assert.Equal(t, "0xdef", rev.TxRef)
	require.NotNil(t, receipt)
	assert.Equal(t, ledger.ReceiptReverted, receipt.Status)
}

func TestClient_AwaitHonoursContext(t *testing.T) {
	client := newTestClient(t, func(method string, _ gjson.Result) (any, *rpcErr) {
		if method == MethodSubmit {
			return "0x1", nil
		}
		return nil, nil
	})

	tx, err := client.SubmitAction(context.Background(), ledger.ActionRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = tx.AwaitConfirmation(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestClient_HTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{URL: server.URL}, nil, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.ResolveIdentifier(context.Background(), "alice")
	assert.Error(t, err)
}
