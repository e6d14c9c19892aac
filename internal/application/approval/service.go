package approval

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/amount"
	domainApproval "github.com/handlepay/handlepay/internal/domain/approval"
	"github.com/handlepay/handlepay/internal/domain/ledger"
)

// Service queries and requests spending allowances.
type Service struct {
	ledger ledger.Client
	logger zerolog.Logger
}

// NewService creates an approval service.
func NewService(client ledger.Client, logger zerolog.Logger) *Service {
	return &Service{
		ledger: client,
		logger: logger.With().Str("service", "approval").Logger(),
	}
}

// CheckAllowance reads the current allowance of owner for spender. It is
// read-only; sufficiency is only authoritative after an approval confirmed.
func (s *Service) CheckAllowance(ctx context.Context, owner, spender account.Account, required amount.Amount) (domainApproval.AllowanceState, error) {
	units, err := s.ledger.GetAllowance(ctx, owner, spender)
	if err != nil {
		return domainApproval.AllowanceState{}, fmt.Errorf("get allowance: %w", err)
	}
	return domainApproval.NewAllowanceState(owner, spender, units, required), nil
}

// RequestApproval submits an approval for exactly amt. A signer rejection is
// returned as is and never retried.
func (s *Service) RequestApproval(ctx context.Context, owner, spender account.Account, amt amount.Amount) (*Handle, error) {
	ap, err := domainApproval.NewApproval(owner, spender, amt)
	if err != nil {
		return nil, err
	}

	tx, err := s.ledger.RequestApproval(ctx, spender, amt.Units())
	if err != nil {
		markFailure(ap, err)
		s.logger.Info().Err(err).
			Str("spender", spender.Hex()).
			Str("amount", amt.String()).
			Msg("approval request not submitted")
		return nil, fmt.Errorf("request approval: %w", err)
	}
	ap.TxRef = tx.Ref()

	s.logger.Info().
		Str("approvalId", ap.ApprovalID.String()).
		Str("spender", spender.Hex()).
		Str("amount", amt.String()).
		Str("txRef", ap.TxRef).
		Msg("approval submitted")

	return &Handle{approval: ap, tx: tx, logger: s.logger}, nil
}

// Handle tracks a submitted approval until the ledger settles it.
type Handle struct {
	mu       sync.Mutex
	approval *domainApproval.Approval
	tx       ledger.TxHandle
	logger   zerolog.Logger
}

// TxRef is the approval transaction reference.
func (h *Handle) TxRef() string {
	return h.tx.Ref()
}

// Approval returns a copy of the approval record.
func (h *Handle) Approval() domainApproval.Approval {
	h.mu.Lock()
	defer h.mu.Unlock()
	return *h.approval
}

// Wait blocks until the approval is confirmed or fails.
func (h *Handle) Wait(ctx context.Context) error {
	receipt, err := h.tx.AwaitConfirmation(ctx)
	if err == nil && receipt != nil && receipt.Status == ledger.ReceiptReverted {
		err = &ledger.RevertError{TxRef: receipt.TxRef}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		markFailure(h.approval, err)
		h.logger.Warn().Err(err).Str("txRef", h.approval.TxRef).Msg("approval failed")
		return fmt.Errorf("await approval: %w", err)
	}
	if err := h.approval.MarkConfirmed(); err != nil {
		return err
	}
	h.logger.Info().Str("txRef", h.approval.TxRef).Msg("approval confirmed")
	return nil
}

func markFailure(ap *domainApproval.Approval, err error) {
	if errors.Is(err, ledger.ErrUserRejected) {
		_ = ap.MarkRejected()
		return
	}
	_ = ap.MarkFailed(err.Error())
}
