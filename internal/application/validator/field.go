// Package validator runs debounced, cancellable field checks where only the
// most recently issued check may change field state.
package validator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/handlepay/handlepay/internal/infrastructure/metrics"
)

// Phase is the validation state of a field.
type Phase string

const (
	PhaseEmpty   Phase = "EMPTY"
	PhasePending Phase = "PENDING"
	PhaseReady   Phase = "READY"
	PhaseInvalid Phase = "INVALID"
	PhaseError   Phase = "ERROR"
)

var (
	ErrClosed     = errors.New("field is closed")
	ErrSuperseded = errors.New("validation superseded by newer input")
)

// State is a snapshot of a field.
type State[T any] struct {
	Input      string `json:"input"`
	Normalized string `json:"normalized,omitempty"`
	Phase      Phase  `json:"phase"`
	Value      T      `json:"value"`
	Err        error  `json:"-"`
	Generation uint64 `json:"generation"`
}

// NormalizeFunc turns raw input into a lookup key. An error marks the input
// invalid without any check; an empty key marks the field empty.
type NormalizeFunc func(input string) (string, error)

// CheckFunc validates a normalized key. Return Reject(err) for a definitive
// negative answer; any other error is treated as a retryable failure.
type CheckFunc[T any] func(ctx context.Context, key string) (T, error)

// Options configure a Field.
type Options[T any] struct {
	Name      string
	Quiet     time.Duration
	Timeout   time.Duration
	Normalize NormalizeFunc
	Check     CheckFunc[T]
	Cache     bool
	// OnChange receives every applied state. It is called without any field
	// lock held and may be called concurrently.
	OnChange func(State[T])
	Metrics  *metrics.Collector
	Logger   zerolog.Logger
}

type cacheEntry[T any] struct {
	value T
	err   error
}

// Field is one logical input field with debounced validation.
type Field[T any] struct {
	opts   Options[T]
	logger zerolog.Logger

	base context.Context
	stop context.CancelFunc

	mu     sync.Mutex
	state  State[T]
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	cache  map[string]cacheEntry[T]
	closed bool
}

// NewField creates an empty field.
func NewField[T any](opts Options[T]) *Field[T] {
	if opts.Normalize == nil {
		opts.Normalize = func(input string) (string, error) { return input, nil }
	}
	base, stop := context.WithCancel(context.Background())
	f := &Field[T]{
		opts:   opts,
		logger: opts.Logger.With().Str("field", opts.Name).Logger(),
		base:   base,
		stop:   stop,
		state:  State[T]{Phase: PhaseEmpty},
	}
	if opts.Cache {
		f.cache = make(map[string]cacheEntry[T])
	}
	return f
}

// Set applies new input. Locally malformed input and cache hits are applied
// immediately; everything else is checked after the quiet period.
func (f *Field[T]) Set(input string) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	st, key, run := f.beginLocked(input, true)
	if run {
		gen := st.Generation
		f.timer = time.AfterFunc(f.opts.Quiet, func() { f.run(gen, key) })
	}
	f.mu.Unlock()
	f.notify(st)
}

// Revalidate re-runs the check for the current input without debounce or
// cache.
func (f *Field[T]) Revalidate() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	st, key, run := f.beginLocked(f.state.Input, false)
	if run {
		gen := st.Generation
		go f.run(gen, key)
	}
	f.mu.Unlock()
	f.notify(st)
}

// Resolve synchronously re-checks the current input, bypassing debounce and
// cache, and returns the applied state. It returns ErrSuperseded when newer
// input arrived while the check ran.
func (f *Field[T]) Resolve(ctx context.Context) (State[T], error) {
	f.mu.Lock()
	if f.closed {
		st := f.state
		f.mu.Unlock()
		return st, ErrClosed
	}
	st, key, run := f.beginLocked(f.state.Input, false)
	if !run {
		f.mu.Unlock()
		f.notify(st)
		return st, nil
	}
	callCtx, cancel := f.callContext(ctx)
	f.cancel = cancel
	f.mu.Unlock()
	f.notify(st)

	applied, ok := f.check(callCtx, cancel, st.Generation, key)
	if !ok {
		return f.State(), ErrSuperseded
	}
	return applied, nil
}

// Clear empties the field and drops any outstanding check.
func (f *Field[T]) Clear() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.gen++
	f.stopPendingLocked()
	f.state = State[T]{Phase: PhaseEmpty, Generation: f.gen}
	st := f.state
	f.mu.Unlock()
	f.notify(st)
}

// State returns the current state.
func (f *Field[T]) State() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Close cancels outstanding work. Later results are dropped.
func (f *Field[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.gen++
	f.stopPendingLocked()
	f.stop()
}

// beginLocked issues a new generation for input and reports whether a check
// must run.
func (f *Field[T]) beginLocked(input string, useCache bool) (State[T], string, bool) {
	f.gen++
	f.stopPendingLocked()

	st := State[T]{Input: input, Generation: f.gen}
	key, err := f.opts.Normalize(input)
	switch {
	case err != nil:
		st.Phase = PhaseInvalid
		st.Err = err
	case key == "":
		st.Phase = PhaseEmpty
	default:
		st.Normalized = key
		if useCache && f.cache != nil {
			if hit, ok := f.cache[key]; ok {
				st.Value = hit.value
				st.Err = hit.err
				st.Phase = phaseFor(hit.err)
				break
			}
		}
		st.Phase = PhasePending
	}
	f.state = st
	return st, key, st.Phase == PhasePending
}

func (f *Field[T]) stopPendingLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *Field[T]) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(f.base, cancel)
	if f.opts.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, f.opts.Timeout)
		return ctx, func() {
			cancelTimeout()
			stop()
			cancel()
		}
	}
	return ctx, func() {
		stop()
		cancel()
	}
}

func (f *Field[T]) run(gen uint64, key string) {
	f.mu.Lock()
	if f.closed || f.gen != gen {
		f.mu.Unlock()
		return
	}
	f.timer = nil
	ctx, cancel := f.callContext(f.base)
	f.cancel = cancel
	f.mu.Unlock()

	f.check(ctx, cancel, gen, key)
}

func (f *Field[T]) check(ctx context.Context, cancel context.CancelFunc, gen uint64, key string) (State[T], bool) {
	start := time.Now()
	value, err := f.opts.Check(ctx, key)
	cancel()
	return f.apply(gen, key, value, err, time.Since(start))
}

func (f *Field[T]) apply(gen uint64, key string, value T, err error, took time.Duration) (State[T], bool) {
	f.mu.Lock()
	if f.closed || f.gen != gen {
		f.mu.Unlock()
		f.opts.Metrics.RecordStale(f.opts.Name)
		f.logger.Debug().Uint64("generation", gen).Str("key", key).Msg("dropped stale validation result")
		return State[T]{}, false
	}
	f.cancel = nil
	st := f.state
	st.Value = value
	st.Err = err
	st.Phase = phaseFor(err)
	f.state = st
	if f.cache != nil && st.Phase != PhaseError {
		f.cache[key] = cacheEntry[T]{value: value, err: err}
	}
	f.mu.Unlock()

	f.opts.Metrics.RecordValidation(f.opts.Name, string(st.Phase), took)
	if st.Phase == PhaseError {
		f.logger.Warn().Err(err).Str("key", key).Msg("validation failed")
	}
	f.notify(st)
	return st, true
}

func (f *Field[T]) notify(st State[T]) {
	if f.opts.OnChange != nil {
		f.opts.OnChange(st)
	}
}

func phaseFor(err error) Phase {
	switch {
	case err == nil:
		return PhaseReady
	case IsRejected(err):
		return PhaseInvalid
	default:
		return PhaseError
	}
}

type rejection struct {
	err error
}

func (r *rejection) Error() string { return r.err.Error() }
func (r *rejection) Unwrap() error { return r.err }

// Reject marks err as a definitive negative answer rather than a failure.
func Reject(err error) error {
	if err == nil {
		return nil
	}
	return &rejection{err: err}
}

// IsRejected reports whether err was produced by Reject.
func IsRejected(err error) bool {
	var r *rejection
	return errors.As(err, &r)
}
