package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appApproval "github.com/handlepay/handlepay/internal/application/approval"
	"github.com/handlepay/handlepay/internal/application/resolver"
	"github.com/handlepay/handlepay/internal/application/validator"
	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/amount"
	domainApproval "github.com/handlepay/handlepay/internal/domain/approval"
	"github.com/handlepay/handlepay/internal/domain/history"
	"github.com/handlepay/handlepay/internal/domain/identity"
	domainIntent "github.com/handlepay/handlepay/internal/domain/intent"
	"github.com/handlepay/handlepay/internal/domain/ledger"
	"github.com/handlepay/handlepay/internal/infrastructure/metrics"
)

var (
	ErrTargetNotAccepted = errors.New("this flow does not take a target")
	ErrMissingBuilder    = errors.New("no action builder for flow")
	ErrMissingSpender    = errors.New("approval spender is not configured")
)

// Sink receives lifecycle events and state snapshots.
type Sink interface {
	Emit(ev *domainIntent.Event)
	PublishState(owner account.Account, flowID uuid.UUID, snapshot any)
}

// Recorder appends confirmed actions to the transaction history.
type Recorder interface {
	Record(ctx context.Context, rec history.Record) (*history.Entry, error)
}

// Config holds the engine timings.
type Config struct {
	ResolveDebounce   time.Duration
	AllowanceDebounce time.Duration
	// ValidationTimeout and ConfirmationTimeout are disabled when zero.
	ValidationTimeout   time.Duration
	ConfirmationTimeout time.Duration
}

// Deps are the collaborators shared by every controller.
type Deps struct {
	Session   *ledger.Session
	Resolver  *resolver.Service
	Approvals *appApproval.Service
	History   Recorder
	Sink      Sink
	Contracts Contracts
	Builders  map[domainIntent.FlowKind]ActionBuilder
	Config    Config
	Metrics   *metrics.Collector
	Logger    zerolog.Logger
}

// Controller drives one flow instance through resolve, validate, approve,
// submit and confirm. It owns exactly one active Execution.
type Controller struct {
	id      uuid.UUID
	spec    domainIntent.FlowSpec
	params  Params
	deps    Deps
	build   ActionBuilder
	spender account.Account
	logger  zerolog.Logger

	base context.Context
	stop context.CancelFunc

	target    *validator.Field[identity.Resolution]
	allowance *validator.Field[domainApproval.AllowanceState]

	// editMu serializes edits so the allowance key always follows the
	// latest amount.
	editMu sync.Mutex

	mu          sync.Mutex
	exec        *domainIntent.Execution
	amountInput string
	amountVal   amount.Amount
	amountErr   *domainIntent.Error
	busy        bool
	lastErr     *domainIntent.Error
	closed      bool
	// pending is the accepted action of the current execution, kept so an
	// interrupted confirmation wait resumes on the same tx.
	pending *pendingAction
}

type pendingAction struct {
	tx     ledger.TxHandle
	inputs Inputs
}

// NewController opens a flow instance.
func NewController(kind domainIntent.FlowKind, params Params, deps Deps) (*Controller, error) {
	spec, err := domainIntent.SpecFor(kind)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(kind); err != nil {
		return nil, err
	}
	if deps.Session == nil {
		return nil, ledger.ErrNoAccount
	}
	builders := deps.Builders
	if builders == nil {
		builders = Builders(deps.Contracts)
	}
	build, ok := builders[kind]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrMissingBuilder, kind)
	}
	spender := deps.Contracts.Spender(spec.Spender)
	if spec.NeedsApproval() && spender.IsZero() {
		return nil, ErrMissingSpender
	}

	id := uuid.New()
	base, stop := context.WithCancel(context.Background())
	c := &Controller{
		id:      id,
		spec:    spec,
		params:  params,
		deps:    deps,
		build:   build,
		spender: spender,
		base:    base,
		stop:    stop,
		exec:    domainIntent.NewExecution(id, kind),
		logger: deps.Logger.With().
			Str("service", "intent").
			Str("flowId", id.String()).
			Str("flow", string(kind)).
			Logger(),
	}

	if spec.HasTarget() {
		c.target = validator.NewField(validator.Options[identity.Resolution]{
			Name:      "target",
			Quiet:     deps.Config.ResolveDebounce,
			Timeout:   deps.Config.ValidationTimeout,
			Normalize: c.normalizeTarget,
			Check:     c.checkTarget,
			Cache:     true,
			OnChange:  func(validator.State[identity.Resolution]) { c.refresh() },
			Metrics:   deps.Metrics,
			Logger:    c.logger,
		})
	}
	if spec.NeedsApproval() {
		c.allowance = validator.NewField(validator.Options[domainApproval.AllowanceState]{
			Name:     "allowance",
			Quiet:    deps.Config.AllowanceDebounce,
			Timeout:  deps.Config.ValidationTimeout,
			Check:    c.checkAllowance,
			OnChange: func(validator.State[domainApproval.AllowanceState]) { c.refresh() },
			Metrics:  deps.Metrics,
			Logger:   c.logger,
		})
	}

	deps.Metrics.RecordFlowOpened()
	c.logger.Info().Msg("flow opened")
	return c, nil
}

// ID is the flow instance ID.
func (c *Controller) ID() uuid.UUID {
	return c.id
}

// Kind is the flow kind.
func (c *Controller) Kind() domainIntent.FlowKind {
	return c.spec.Kind
}

// SetTarget updates the target identifier.
func (c *Controller) SetTarget(input string) error {
	if c.target == nil {
		if strings.TrimSpace(input) == "" {
			return nil
		}
		return ErrTargetNotAccepted
	}
	c.editMu.Lock()
	defer c.editMu.Unlock()
	if err := c.beginEdit(); err != nil {
		return err
	}
	c.target.Set(input)
	c.refresh()
	return nil
}

// SetAmount updates the amount. Parsing is local; the allowance check for
// the new amount is scheduled and any previous allowance result is
// invalidated.
func (c *Controller) SetAmount(input string) error {
	if !c.spec.TakesAmount() {
		if strings.TrimSpace(input) == "" {
			return nil
		}
		return domainIntent.ErrAmountNotAccepted
	}
	c.editMu.Lock()
	defer c.editMu.Unlock()
	if err := c.beginEdit(); err != nil {
		return err
	}

	c.mu.Lock()
	c.amountInput = input
	c.amountVal = amount.Amount{}
	c.amountErr = nil
	if strings.TrimSpace(input) != "" {
		a, err := amount.ParsePositive(input)
		if err != nil {
			c.amountErr = domainIntent.Malformed("amount", err.Error())
		} else {
			c.amountVal = a
		}
	}
	key := c.allowanceKeyLocked()
	c.mu.Unlock()

	if c.allowance != nil {
		if key == "" {
			c.allowance.Clear()
		} else {
			c.allowance.Set(key)
		}
	}
	c.refresh()
	return nil
}

// beginEdit rejects edits while an action is in flight and starts a fresh
// execution after a finished one.
func (c *Controller) beginEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domainIntent.ErrClosed
	}
	if c.exec.InFlight() {
		return domainIntent.ErrExecutionInProgress
	}
	if !c.busy && (c.exec.Status == domainIntent.StatusConfirmed || c.exec.Status == domainIntent.StatusFailed) {
		c.newExecutionLocked()
	}
	return nil
}

// Approve requests the spending approval for the current amount and waits
// for it to confirm. The allowance is re-read afterwards before the flow may
// become ready to submit.
func (c *Controller) Approve(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guardLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if !c.spec.NeedsApproval() {
		c.mu.Unlock()
		return domainIntent.ErrNotReady
	}
	c.regateLocked()
	if err := c.exec.StartApproval(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.busy = true
	exec := c.exec
	amt := c.amountVal
	c.recordTransitionLocked()
	ev := domainIntent.NewEvent(domainIntent.EventApprovalRequested, exec, c.owner())
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap, ev)

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	handle, err := c.deps.Approvals.RequestApproval(ctx, c.owner(), c.spender, amt)
	if err == nil {
		err = handle.Wait(ctx)
	}
	if err != nil {
		return c.fail(exec, domainIntent.Classify(err))
	}

	_, rerr := c.allowance.Resolve(ctx)
	if rerr != nil && !errors.Is(rerr, validator.ErrSuperseded) {
		c.logger.Warn().Err(rerr).Msg("allowance re-check after approval failed")
	}

	c.mu.Lock()
	c.busy = false
	next := domainIntent.Gate(c.spec, c.gateInputLocked())
	if err := exec.ApprovalConfirmed(handle.TxRef(), next); err != nil {
		c.mu.Unlock()
		return err
	}
	c.recordTransitionLocked()
	ev = domainIntent.NewEvent(domainIntent.EventApprovalConfirmed, exec, c.owner())
	ev.TxRef = handle.TxRef()
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap, ev)

	c.logger.Info().Str("txRef", handle.TxRef()).Str("status", string(next)).Msg("approval confirmed")
	return nil
}

// Submit re-checks the allowance, submits the flow's action and waits for
// the ledger to confirm it. A recoverable failure is retried in place. When
// an earlier wait for confirmation was interrupted, Submit resumes waiting on
// the already accepted action and never sends it again.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guardLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.exec.Stalled() {
		return c.resumeLocked(ctx)
	}
	if c.exec.Status == domainIntent.StatusFailed {
		if err := c.retryLocked(); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.regateLocked()
	if c.exec.Status != domainIntent.StatusReadyToSubmit {
		c.mu.Unlock()
		return domainIntent.ErrNotReady
	}
	c.busy = true
	exec := c.exec
	key := c.allowanceKeyLocked()
	c.mu.Unlock()

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	if c.allowance != nil {
		st, err := c.allowance.Resolve(ctx)
		if err := c.checkFreshAllowance(exec, st, err, key); err != nil {
			return err
		}
	}

	c.mu.Lock()
	if c.allowanceKeyLocked() != key || domainIntent.Gate(c.spec, c.gateInputLocked()) != domainIntent.StatusReadyToSubmit {
		c.abandonLocked()
		c.mu.Unlock()
		c.refresh()
		return domainIntent.ErrInputChanged
	}
	inputs := c.inputsLocked()
	req, err := c.build(inputs)
	if err != nil {
		c.abandonLocked()
		c.mu.Unlock()
		c.refresh()
		return err
	}
	if err := exec.StartSubmission(); err != nil {
		c.abandonLocked()
		c.mu.Unlock()
		return err
	}
	c.recordTransitionLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap, nil)

	tx, err := c.deps.Session.Client.SubmitAction(ctx, req)
	if err != nil {
		return c.fail(exec, domainIntent.Classify(err))
	}

	c.mu.Lock()
	if err := exec.Accepted(tx.Ref()); err != nil {
		c.busy = false
		c.mu.Unlock()
		return err
	}
	pending := &pendingAction{tx: tx, inputs: inputs}
	c.pending = pending
	c.recordTransitionLocked()
	ev := domainIntent.NewEvent(domainIntent.EventSubmitted, exec, c.owner())
	ev.TxRef = tx.Ref()
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap, ev)
	c.logger.Info().Str("txRef", tx.Ref()).Str("method", req.Method).Msg("action submitted")

	return c.confirm(ctx, exec, pending)
}

// resumeLocked waits again on the accepted action of a stalled execution.
// It is called with c.mu held and releases it.
func (c *Controller) resumeLocked(ctx context.Context) error {
	exec := c.exec
	pending := c.pending
	if pending == nil {
		c.mu.Unlock()
		return domainIntent.ErrNotRecoverable
	}
	if err := exec.Resume(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.busy = true
	c.lastErr = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap, nil)
	c.logger.Info().Str("txRef", pending.tx.Ref()).Msg("resuming confirmation wait")

	ctx, cancel := c.callContext(ctx)
	defer cancel()
	return c.confirm(ctx, exec, pending)
}

// confirm waits for an accepted action to settle and records its history.
func (c *Controller) confirm(ctx context.Context, exec *domainIntent.Execution, pending *pendingAction) error {
	tx := pending.tx
	receipt, ierr := c.awaitConfirmation(ctx, tx)
	if ierr != nil {
		if ierr.Kind == domainIntent.KindLedgerRejected {
			return c.fail(exec, ierr)
		}
		return c.interrupt(exec, ierr)
	}

	c.mu.Lock()
	if err := exec.Confirm(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.busy = false
	c.pending = nil
	c.recordTransitionLocked()
	c.mu.Unlock()

	// Exactly one history entry per confirmed execution, built from the
	// submitted inputs rather than the fields, which may have changed since.
	rec := c.historyRecord(exec, pending.inputs, tx.Ref(), receipt)
	var recErr error
	if c.deps.History != nil {
		if _, recErr = c.deps.History.Record(ctx, rec); recErr != nil {
			c.logger.Error().Err(recErr).Str("txRef", tx.Ref()).Msg("failed to record history")
		}
	}

	c.mu.Lock()
	ev := domainIntent.NewEvent(domainIntent.EventConfirmed, exec, c.owner())
	ev.TxRef = tx.Ref()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap, ev)
	c.deps.Metrics.RecordExecution(string(c.spec.Kind), "confirmed")
	c.logger.Info().Str("txRef", tx.Ref()).Msg("action confirmed")

	if recErr != nil {
		return fmt.Errorf("action confirmed but history not recorded: %w", recErr)
	}
	return nil
}

// checkFreshAllowance validates the synchronous pre-submission re-check.
// A failed ledger read fails the execution; any other negative result
// returns the flow to the gate.
func (c *Controller) checkFreshAllowance(exec *domainIntent.Execution, st validator.State[domainApproval.AllowanceState], err error, key string) error {
	c.mu.Lock()
	var (
		result error
		failed *domainIntent.Error
	)
	switch {
	case errors.Is(err, validator.ErrSuperseded) || c.allowanceKeyLocked() != key:
		result = domainIntent.ErrInputChanged
	case errors.Is(err, validator.ErrClosed):
		result = domainIntent.ErrClosed
	case err != nil:
		failed = domainIntent.Classify(err)
	case st.Phase == validator.PhaseError:
		failed = fieldError(st.Err)
		if failed == nil {
			failed = domainIntent.Network("allowance", nil)
		}
	case st.Phase != validator.PhaseReady:
		ie := fieldError(st.Err)
		if ie == nil {
			ie = domainIntent.Network("allowance", nil)
		}
		c.lastErr = ie
		result = ie
	case !st.Value.IsSufficientFor(c.amountVal):
		result = domainIntent.ErrAllowanceInsufficient
	}
	if failed != nil {
		c.mu.Unlock()
		return c.fail(exec, failed)
	}
	if result != nil {
		c.abandonLocked()
	}
	c.mu.Unlock()

	if result != nil {
		c.refresh()
	}
	return result
}

func (c *Controller) awaitConfirmation(ctx context.Context, tx ledger.TxHandle) (*ledger.Receipt, *domainIntent.Error) {
	waitCtx := ctx
	if c.deps.Config.ConfirmationTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.deps.Config.ConfirmationTimeout)
		defer cancel()
	}

	receipt, err := tx.AwaitConfirmation(waitCtx)
	if err == nil && receipt != nil && receipt.Status == ledger.ReceiptReverted {
		err = &ledger.RevertError{TxRef: receipt.TxRef}
	}
	if err == nil {
		return receipt, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, domainIntent.Network("confirmation_timeout", err)
	}
	return nil, domainIntent.Classify(err)
}

// Retry leaves a recoverable failure without re-resolving anything, or
// re-runs field checks that failed on the network. A stalled confirmation
// is left as is; Submit resumes it.
func (c *Controller) Retry() error {
	c.mu.Lock()
	if err := c.guardLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.exec.Stalled() {
		c.mu.Unlock()
		return nil
	}
	if c.exec.Status == domainIntent.StatusFailed {
		err := c.retryLocked()
		snap := c.snapshotLocked()
		c.mu.Unlock()
		if err == nil {
			c.publish(snap, nil)
		}
		return err
	}
	c.mu.Unlock()

	if c.target != nil && c.target.State().Phase == validator.PhaseError {
		c.target.Revalidate()
	}
	if c.allowance != nil && c.allowance.State().Phase == validator.PhaseError {
		c.allowance.Revalidate()
	}
	return nil
}

// Reset discards the current execution and starts a new one. Field state is
// kept.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if err := c.guardLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.exec.InFlight() {
		c.mu.Unlock()
		return domainIntent.ErrExecutionInProgress
	}
	c.newExecutionLocked()
	c.mu.Unlock()
	c.refresh()
	return nil
}

// Close tears the flow down. Outstanding checks are cancelled and their
// results dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.stop()
	if c.target != nil {
		c.target.Close()
	}
	if c.allowance != nil {
		c.allowance.Close()
	}
	c.deps.Metrics.RecordFlowClosed()
	c.logger.Info().Msg("flow closed")
}

// Snapshot returns the current controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) guardLocked() error {
	if c.closed {
		return domainIntent.ErrClosed
	}
	if c.busy {
		return domainIntent.ErrExecutionInProgress
	}
	return nil
}

func (c *Controller) retryLocked() error {
	next := domainIntent.Gate(c.spec, c.gateInputLocked())
	if err := c.exec.Retry(next); err != nil {
		return err
	}
	c.lastErr = nil
	c.recordTransitionLocked()
	c.logger.Info().Str("status", string(next)).Msg("execution retried")
	return nil
}

func (c *Controller) newExecutionLocked() {
	c.exec = domainIntent.NewExecution(c.id, c.spec.Kind)
	c.pending = nil
	c.lastErr = nil
	c.regateLocked()
}

// abandonLocked returns a submission that never reached the ledger to the
// gate.
func (c *Controller) abandonLocked() {
	c.busy = false
	c.regateLocked()
}

// regateLocked applies the gate to a field-derived status. It reports
// whether the flow just entered Validating.
func (c *Controller) regateLocked() bool {
	if c.busy || !c.exec.Status.IsGate() {
		return false
	}
	prev := c.exec.Status
	next := domainIntent.Gate(c.spec, c.gateInputLocked())
	if next == prev {
		return false
	}
	if err := c.exec.Gate(next); err != nil {
		return false
	}
	c.recordTransitionLocked()
	return next == domainIntent.StatusValidating
}

// refresh re-gates after any field change and publishes the new state.
func (c *Controller) refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	var ev *domainIntent.Event
	if c.regateLocked() {
		ev = domainIntent.NewEvent(domainIntent.EventValidating, c.exec, c.owner())
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap, ev)
}

func (c *Controller) fail(exec *domainIntent.Execution, ie *domainIntent.Error) error {
	c.mu.Lock()
	c.busy = false
	if err := exec.Fail(ie); err != nil {
		c.mu.Unlock()
		return err
	}
	c.lastErr = ie
	c.recordTransitionLocked()
	ev := domainIntent.NewFailedEvent(exec, c.owner(), ie)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap, ev)

	c.deps.Metrics.RecordExecution(string(c.spec.Kind), "failed")
	c.logger.Warn().
		Str("kind", string(ie.Kind)).
		Str("reason", ie.Reason).
		Bool("recoverable", ie.Recoverable()).
		Msg("execution failed")
	return ie
}

// interrupt records a confirmation wait that ended before the ledger settled
// the accepted action. The execution stays in AwaitingConfirmation.
func (c *Controller) interrupt(exec *domainIntent.Execution, ie *domainIntent.Error) error {
	c.mu.Lock()
	c.busy = false
	if err := exec.Interrupt(ie); err != nil {
		c.mu.Unlock()
		return err
	}
	c.lastErr = ie
	ev := domainIntent.NewFailedEvent(exec, c.owner(), ie)
	ev.TxRef = *exec.ActionTxRef
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap, ev)

	c.deps.Metrics.RecordExecution(string(c.spec.Kind), "interrupted")
	c.logger.Warn().
		Str("kind", string(ie.Kind)).
		Str("reason", ie.Reason).
		Str("txRef", *exec.ActionTxRef).
		Msg("confirmation wait interrupted; action may still confirm")
	return ie
}

func (c *Controller) publish(snap Snapshot, ev *domainIntent.Event) {
	if c.deps.Sink == nil {
		return
	}
	if ev != nil {
		c.deps.Sink.Emit(ev)
	}
	c.deps.Sink.PublishState(c.owner(), c.id, snap)
}

func (c *Controller) recordTransitionLocked() {
	c.deps.Metrics.RecordTransition(string(c.spec.Kind), string(c.exec.Status))
}

func (c *Controller) owner() account.Account {
	return c.deps.Session.Account
}

// callContext derives a context that also ends when the flow is closed.
func (c *Controller) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(c.base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// allowanceKeyLocked identifies the allowance check for the current amount
// and spender. It is empty while the amount is not valid.
func (c *Controller) allowanceKeyLocked() string {
	if c.allowance == nil || !c.amountVal.IsPositive() {
		return ""
	}
	return c.spender.Hex() + ":" + c.amountVal.UnitsString()
}

func (c *Controller) amountReadinessLocked() domainIntent.Readiness {
	switch {
	case c.amountErr != nil:
		return domainIntent.ReadinessInvalid
	case c.amountVal.IsPositive():
		return domainIntent.ReadinessReady
	default:
		return domainIntent.ReadinessEmpty
	}
}

func (c *Controller) gateInputLocked() domainIntent.GateInput {
	in := domainIntent.GateInput{
		Target:    domainIntent.ReadinessEmpty,
		Amount:    c.amountReadinessLocked(),
		Allowance: domainIntent.ReadinessEmpty,
	}
	if c.target != nil {
		in.Target = readiness(c.target.State().Phase)
	}
	if c.allowance != nil {
		st := c.allowance.State()
		key := c.allowanceKeyLocked()
		switch {
		case key == "":
			in.Allowance = domainIntent.ReadinessEmpty
		case st.Normalized != key:
			// Not yet checked for this amount; the previous result is void.
			in.Allowance = domainIntent.ReadinessPending
		default:
			in.Allowance = readiness(st.Phase)
			in.AllowanceSufficient = st.Phase == validator.PhaseReady && st.Value.IsSufficientFor(c.amountVal)
		}
	}
	return in
}

func (c *Controller) inputsLocked() Inputs {
	in := Inputs{
		Caller: c.owner(),
		Amount: c.amountVal,
		Params: c.params,
	}
	if c.target != nil {
		in.Target = c.target.State().Value
	}
	return in
}

func (c *Controller) historyRecord(exec *domainIntent.Execution, in Inputs, txRef string, receipt *ledger.Receipt) history.Record {
	rec := history.Record{
		ExecutionID:     exec.ExecutionID,
		FlowID:          c.id,
		FlowKind:        string(c.spec.Kind),
		Owner:           c.owner(),
		DisplayIdentity: in.DisplayIdentity(),
		Counterparty:    in.Target.Account,
		Amount:          in.Amount,
		Direction:       c.spec.Direction,
		TxRef:           txRef,
	}
	if receipt != nil {
		rec.BlockNumber = receipt.BlockNumber
		if receipt.Amount != nil && !c.spec.TakesAmount() {
			rec.Amount = amount.FromUnits(receipt.Amount)
		}
	}
	return rec
}

func (c *Controller) normalizeTarget(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", nil
	}
	parse := identity.Parse
	if c.spec.Target == domainIntent.TargetRegistration {
		parse = identity.ParseHandle
	}
	id, err := parse(input)
	if err != nil {
		return "", domainIntent.Malformed(identity.Reason(err), err.Error())
	}
	return id.Normalized(), nil
}

func (c *Controller) checkTarget(ctx context.Context, key string) (identity.Resolution, error) {
	if c.spec.Target == domainIntent.TargetRegistration {
		return c.checkRegistration(ctx, key)
	}

	res, err := c.deps.Resolver.Resolve(ctx, key, resolver.Options{
		Caller:     c.owner(),
		ForbidSelf: c.spec.ForbidSelf,
	})
	if err != nil {
		return identity.Resolution{}, domainIntent.Network("resolve", err)
	}
	switch res.Status {
	case identity.StatusResolved:
		return res, nil
	case identity.StatusNotFound:
		return res, validator.Reject(domainIntent.NotFound(res.Identifier.Display()))
	default:
		if res.Reason == identity.ReasonSelf {
			return res, validator.Reject(domainIntent.SelfReference())
		}
		return res, validator.Reject(domainIntent.Malformed(res.Reason, "identifier is malformed"))
	}
}

func (c *Controller) checkRegistration(ctx context.Context, handle string) (identity.Resolution, error) {
	id, err := identity.ParseHandle(handle)
	if err != nil {
		return identity.Resolution{}, validator.Reject(domainIntent.Malformed(identity.Reason(err), err.Error()))
	}
	avail, err := c.deps.Resolver.CheckRegistration(ctx, handle, c.owner())
	if err != nil {
		return identity.Resolution{}, domainIntent.Network("registration_check", err)
	}
	res := identity.NotFound(id)
	if !avail.Ok() {
		return res, validator.Reject(domainIntent.Conflict(avail.Conflicts()...))
	}
	return res, nil
}

func (c *Controller) checkAllowance(ctx context.Context, key string) (domainApproval.AllowanceState, error) {
	_, units, ok := strings.Cut(key, ":")
	if !ok {
		return domainApproval.AllowanceState{}, validator.Reject(domainIntent.Malformed("allowance_key", key))
	}
	required, err := amount.ParseUnits(units)
	if err != nil {
		return domainApproval.AllowanceState{}, validator.Reject(domainIntent.Malformed("allowance_key", key))
	}
	state, err := c.deps.Approvals.CheckAllowance(ctx, c.owner(), c.spender, required)
	if err != nil {
		return domainApproval.AllowanceState{}, domainIntent.Network("allowance", err)
	}
	return state, nil
}

func readiness(p validator.Phase) domainIntent.Readiness {
	switch p {
	case validator.PhasePending:
		return domainIntent.ReadinessPending
	case validator.PhaseReady:
		return domainIntent.ReadinessReady
	case validator.PhaseInvalid:
		return domainIntent.ReadinessInvalid
	case validator.PhaseError:
		return domainIntent.ReadinessError
	default:
		return domainIntent.ReadinessEmpty
	}
}

// fieldError extracts the taxonomy error of a field.
func fieldError(err error) *domainIntent.Error {
	if err == nil {
		return nil
	}
	var ie *domainIntent.Error
	if errors.As(err, &ie) {
		return ie
	}
	return domainIntent.Classify(err)
}
