package resolver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/identity"
	"github.com/handlepay/handlepay/internal/domain/ledger"
)

// Options tune a single resolution.
type Options struct {
	Caller     account.Account
	ForbidSelf bool
}

// Service maps identifiers to accounts. It holds no per-call state.
type Service struct {
	ledger ledger.Client
	logger zerolog.Logger
}

// NewService creates a resolver service.
func NewService(client ledger.Client, logger zerolog.Logger) *Service {
	return &Service{
		ledger: client,
		logger: logger.With().Str("service", "resolver").Logger(),
	}
}

// Resolve parses input and resolves it. Format-invalid input yields an
// Invalid resolution without touching the ledger. A ledger failure is
// returned as an error, never as NotFound.
func (s *Service) Resolve(ctx context.Context, input string, opts Options) (identity.Resolution, error) {
	id, err := identity.Parse(input)
	if err != nil {
		return identity.Invalid(identity.Identifier{}, identity.Reason(err)), nil
	}
	return s.ResolveIdentifier(ctx, id, opts)
}

// ResolveIdentifier resolves an already parsed identifier.
func (s *Service) ResolveIdentifier(ctx context.Context, id identity.Identifier, opts Options) (identity.Resolution, error) {
	acct := id.Account
	if id.Kind == identity.KindHandle {
		resolved, err := s.ledger.ResolveIdentifier(ctx, id.Handle)
		if err != nil {
			return identity.Resolution{}, fmt.Errorf("resolve %s: %w", id.Display(), err)
		}
		if resolved.IsZero() {
			return identity.NotFound(id), nil
		}
		acct = resolved
	}

	if opts.ForbidSelf && !opts.Caller.IsZero() && acct.Equal(opts.Caller) {
		res := identity.Invalid(id, identity.ReasonSelf)
		res.Account = acct
		return res, nil
	}

	s.logger.Debug().
		Str("identifier", id.Display()).
		Str("account", acct.Hex()).
		Msg("identifier resolved")
	return identity.Resolved(id, acct), nil
}

// ResolveOwnerOf returns the handle owned by acct, or "" when it has none.
func (s *Service) ResolveOwnerOf(ctx context.Context, acct account.Account) (string, error) {
	name, err := s.ledger.ResolveOwnerIdentifier(ctx, acct)
	if err != nil {
		return "", fmt.Errorf("reverse resolve %s: %w", acct.Short(), err)
	}
	return identity.NormalizeHandle(name), nil
}

// CheckRegistration runs the availability lookup and the caller ownership
// lookup concurrently. Both always run to completion so the result names
// every failing condition.
func (s *Service) CheckRegistration(ctx context.Context, handle string, caller account.Account) (identity.Availability, error) {
	id, err := identity.ParseHandle(handle)
	if err != nil {
		return identity.Availability{}, err
	}

	var (
		owner    account.Account
		existing string
		g        errgroup.Group
	)
	g.Go(func() error {
		a, err := s.ledger.ResolveIdentifier(ctx, id.Handle)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", id.Display(), err)
		}
		owner = a
		return nil
	})
	g.Go(func() error {
		name, err := s.ResolveOwnerOf(ctx, caller)
		if err != nil {
			return err
		}
		existing = name
		return nil
	})
	if err := g.Wait(); err != nil {
		return identity.Availability{}, err
	}

	avail := identity.Availability{
		Handle:         id.Handle,
		Available:      owner.IsZero(),
		TakenBy:        owner,
		CallerIdentity: existing,
	}
	if !avail.Ok() {
		s.logger.Debug().
			Str("handle", id.Handle).
			Strs("conflicts", avail.Conflicts()).
			Msg("registration unavailable")
	}
	return avail, nil
}
