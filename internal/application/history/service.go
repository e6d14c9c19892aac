package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/history"
	"github.com/handlepay/handlepay/internal/infrastructure/metrics"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Service appends and lists transaction history.
type Service struct {
	repo    history.Repository
	signKey []byte
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// NewService creates a history service. Entries are signed when signKey is set.
func NewService(repo history.Repository, logger zerolog.Logger, signKey []byte, m *metrics.Collector) *Service {
	return &Service{
		repo:    repo,
		signKey: signKey,
		metrics: m,
		logger:  logger.With().Str("service", "history").Logger(),
	}
}

// Record appends the entry for a confirmed execution. Recording the same
// execution twice returns the stored entry.
func (s *Service) Record(ctx context.Context, rec history.Record) (*history.Entry, error) {
	entry, err := history.NewEntry(rec)
	if err != nil {
		return nil, err
	}

	if len(s.signKey) > 0 {
		sig, err := history.SignEntry(entry, s.signKey)
		if err != nil {
			return nil, fmt.Errorf("failed to sign history entry: %w", err)
		}
		entry.Signature = sig
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		if errors.Is(err, history.ErrDuplicateExecution) {
			s.logger.Warn().Str("executionId", rec.ExecutionID.String()).Msg("history entry already recorded")
			return s.repo.GetByExecutionID(ctx, rec.ExecutionID)
		}
		return nil, fmt.Errorf("failed to save history entry: %w", err)
	}

	s.metrics.RecordHistory(string(entry.Direction))
	s.logger.Info().
		Str("entryId", entry.EntryID.String()).
		Str("executionId", entry.ExecutionID.String()).
		Str("direction", string(entry.Direction)).
		Str("identity", entry.DisplayIdentity).
		Str("amount", entry.Amount.String()).
		Msg("history entry recorded")
	return entry, nil
}

// List returns the owner's entries, newest first.
func (s *Service) List(ctx context.Context, owner account.Account, limit, offset int) ([]*history.Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, history.Filter{Owner: owner}, limit, offset)
}

// GetByExecutionID returns the entry of an execution, or nil.
func (s *Service) GetByExecutionID(ctx context.Context, executionID uuid.UUID) (*history.Entry, error) {
	return s.repo.GetByExecutionID(ctx, executionID)
}

// Verify checks an entry's signature. Without a key nothing verifies.
func (s *Service) Verify(entry *history.Entry) (bool, error) {
	if len(s.signKey) == 0 {
		return false, nil
	}
	return history.VerifyEntrySignature(entry, s.signKey)
}
