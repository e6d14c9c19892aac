// Package ledgerrpc talks to the ledger gateway over JSON-RPC 2.0.
package ledgerrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/ledger"
	"github.com/handlepay/handlepay/internal/infrastructure/metrics"
)

// Gateway methods.
const (
	MethodAccount         = "wallet_account"
	MethodResolve         = "registry_resolve"
	MethodReverse         = "registry_reverse"
	MethodAllowance       = "token_allowance"
	MethodApprove         = "token_approve"
	MethodSubmit          = "action_submit"
	MethodReceipt         = "tx_receipt"
	codeUserRejected      = 4001
	codeExecutionReverted = 3
)

var ErrEmptyResult = errors.New("ledger gateway returned an empty result")

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int64
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Config holds client configuration.
type Config struct {
	URL          string
	Rate         float64
	Burst        int
	PollInterval time.Duration
	Timeout      time.Duration
}

// Client implements ledger.Client against a JSON-RPC gateway.
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	poll       time.Duration
	metrics    *metrics.Collector
	logger     zerolog.Logger
	nextID     atomic.Uint64
}

var _ ledger.Client = (*Client)(nil)

// NewClient creates a gateway client.
func NewClient(cfg Config, m *metrics.Collector, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("ledger RPC URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = time.Second
	}
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		poll:       poll,
		metrics:    m,
		logger:     logger.With().Str("service", "ledgerrpc").Logger(),
	}, nil
}

// Account returns the account the gateway signs for.
func (c *Client) Account(ctx context.Context) (account.Account, error) {
	res, err := c.call(ctx, MethodAccount)
	if err != nil {
		return account.Zero, err
	}
	acct, err := account.Parse(res.String())
	if err != nil {
		return account.Zero, fmt.Errorf("parse wallet account: %w", err)
	}
	return acct, nil
}

func (c *Client) ResolveIdentifier(ctx context.Context, name string) (account.Account, error) {
	res, err := c.call(ctx, MethodResolve, name)
	if err != nil {
		return account.Zero, err
	}
	return parseOptionalAccount(res)
}

func (c *Client) ResolveOwnerIdentifier(ctx context.Context, owner account.Account) (string, error) {
	res, err := c.call(ctx, MethodReverse, owner.Hex())
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

func (c *Client) GetAllowance(ctx context.Context, owner, spender account.Account) (*big.Int, error) {
	res, err := c.call(ctx, MethodAllowance, owner.Hex(), spender.Hex())
	if err != nil {
		return nil, err
	}
	return parseUnits(res)
}

func (c *Client) RequestApproval(ctx context.Context, spender account.Account, units *big.Int) (ledger.TxHandle, error) {
	res, err := c.call(ctx, MethodApprove, spender.Hex(), units.String())
	if err != nil {
		return nil, err
	}
	return c.handle(res)
}

func (c *Client) SubmitAction(ctx context.Context, req ledger.ActionRequest) (ledger.TxHandle, error) {
	res, err := c.call(ctx, MethodSubmit, req)
	if err != nil {
		return nil, err
	}
	return c.handle(res)
}

func (c *Client) handle(res gjson.Result) (ledger.TxHandle, error) {
	ref := res.String()
	if res.IsObject() {
		ref = res.Get("txRef").String()
	}
	if ref == "" {
		return nil, ErrEmptyResult
	}
	return &txHandle{client: c, ref: ref}, nil
}

// receipt returns nil while the transaction is still pending.
func (c *Client) receipt(ctx context.Context, ref string) (*ledger.Receipt, error) {
	res, err := c.call(ctx, MethodReceipt, ref)
	if err != nil {
		return nil, err
	}
	if !res.Exists() || res.Type == gjson.Null {
		return nil, nil
	}

	receipt := &ledger.Receipt{
		TxRef:       ref,
		Status:      ledger.ReceiptStatus(strings.ToUpper(res.Get("status").String())),
		BlockNumber: res.Get("blockNumber").Uint(),
	}
	if v := res.Get("amount"); v.Exists() && v.String() != "" {
		units, err := parseUnits(v)
		if err != nil {
			return nil, err
		}
		receipt.Amount = units
	}
	switch receipt.Status {
	case ledger.ReceiptConfirmed:
		return receipt, nil
	case ledger.ReceiptReverted:
		return receipt, &ledger.RevertError{TxRef: ref, Reason: res.Get("reason").String()}
	default:
		return nil, nil
	}
}

func (c *Client) call(ctx context.Context, method string, params ...any) (gjson.Result, error) {
	start := time.Now()
	res, err := c.do(ctx, method, params)
	c.metrics.RecordLedgerCall(method, time.Since(start), err)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Msg("ledger call failed")
	}
	return res, err
}

func (c *Client) do(ctx context.Context, method string, params []any) (gjson.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, err
	}
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      c.nextID.Add(1),
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("send %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("%s failed: %s - %s", method, resp.Status, string(respBody))
	}
	if !gjson.ValidBytes(respBody) {
		return gjson.Result{}, fmt.Errorf("%s: invalid JSON response", method)
	}

	parsed := gjson.ParseBytes(respBody)
	if e := parsed.Get("error"); e.Exists() && e.Type != gjson.Null {
		return gjson.Result{}, rpcError(e)
	}
	return parsed.Get("result"), nil
}

// rpcError maps gateway errors onto the ledger error contract: 4001 is a
// signer refusal and 3 carries a revert reason.
func rpcError(e gjson.Result) error {
	rpcErr := &RPCError{Code: e.Get("code").Int(), Message: e.Get("message").String()}
	switch rpcErr.Code {
	case codeUserRejected:
		return fmt.Errorf("%w: %s", ledger.ErrUserRejected, rpcErr.Message)
	case codeExecutionReverted:
		return &ledger.RevertError{Reason: e.Get("data.reason").String()}
	default:
		return rpcErr
	}
}

func parseOptionalAccount(res gjson.Result) (account.Account, error) {
	s := res.String()
	if s == "" {
		return account.Zero, nil
	}
	acct, err := account.Parse(s)
	if err != nil {
		return account.Zero, fmt.Errorf("parse account %q: %w", s, err)
	}
	return acct, nil
}

func parseUnits(res gjson.Result) (*big.Int, error) {
	s := res.String()
	if res.Type == gjson.Number {
		s = res.Raw
	}
	units, ok := new(big.Int).SetString(s, 0)
	if !ok || units.Sign() < 0 {
		return nil, fmt.Errorf("malformed amount %q", s)
	}
	return units, nil
}

type txHandle struct {
	client *Client
	ref    string
}

func (t *txHandle) Ref() string {
	return t.ref
}

// AwaitConfirmation polls for the receipt until the transaction settles or
// ctx ends.
func (t *txHandle) AwaitConfirmation(ctx context.Context) (*ledger.Receipt, error) {
	ticker := time.NewTicker(t.client.poll)
	defer ticker.Stop()

	for {
		receipt, err := t.client.receipt(ctx, t.ref)
		if err != nil || receipt != nil {
			return receipt, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
