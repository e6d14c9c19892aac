package validator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTaken = errors.New("taken")

// gated is a check whose calls block until released per key. It ignores
// cancellation so superseded calls still complete.
type gated struct {
	mu      sync.Mutex
	calls   []string
	release map[string]chan struct{}
	started chan string
}

func newGated() *gated {
	return &gated{
		release: make(map[string]chan struct{}),
		started: make(chan string, 256),
	}
}

func (g *gated) gate(key string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.release[key]
	if !ok {
		ch = make(chan struct{}, 1)
		g.release[key] = ch
	}
	return ch
}

func (g *gated) Release(key string) {
	g.gate(key) <- struct{}{}
}

func (g *gated) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *gated) check(_ context.Context, key string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, key)
	g.mu.Unlock()
	g.started <- key
	<-g.gate(key)
	return "v:" + key, nil
}

func (g *gated) waitStarted(t *testing.T, key string) {
	t.Helper()
	select {
	case got := <-g.started:
		require.Equal(t, key, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("check for %q never started", key)
	}
}

func lowerNormalize(input string) (string, error) {
	s := strings.TrimSpace(input)
	if strings.ContainsAny(s, "!") {
		return "", errors.New("malformed")
	}
	return strings.ToLower(s), nil
}

func instant(_ context.Context, key string) (string, error) {
	if key == "taken" {
		return "", Reject(errTaken)
	}
	if key == "down" {
		return "", errors.New("connection refused")
	}
	return "v:" + key, nil
}

func TestField_EmptyAndMalformedApplyImmediately(t *testing.T) {
	calls := 0
	f := NewField(Options[string]{
		Name:      "target",
		Normalize: lowerNormalize,
		Check: func(ctx context.Context, key string) (string, error) {
			calls++
			return key, nil
		},
		Logger: zerolog.Nop(),
	})
	defer f.Close()

	f.Set("bad!")
	st := f.State()
	assert.Equal(t, PhaseInvalid, st.Phase)
	assert.Error(t, st.Err)

	f.Set("   ")
	assert.Equal(t, PhaseEmpty, f.State().Phase)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, calls)
}

func TestField_Phases(t *testing.T) {
	f := NewField(Options[string]{Name: "target", Normalize: lowerNormalize, Check: instant, Logger: zerolog.Nop()})
	defer f.Close()

	f.Set("Alice")
	require.Eventually(t, func() bool { return f.State().Phase == PhaseReady }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "v:alice", f.State().Value)
	assert.Equal(t, "alice", f.State().Normalized)

	f.Set("taken")
	require.Eventually(t, func() bool { return f.State().Phase == PhaseInvalid }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, f.State().Err, errTaken)

	f.Set("down")
	require.Eventually(t, func() bool { return f.State().Phase == PhaseError }, time.Second, 5*time.Millisecond)
	assert.False(t, IsRejected(f.State().Err))
}

func TestField_DebounceCoalescesRapidInput(t *testing.T) {
	g := newGated()
	f := NewField(Options[string]{Name: "target", Quiet: 50 * time.Millisecond, Check: g.check, Logger: zerolog.Nop()})
	defer f.Close()

	f.Set("a")
	f.Set("ab")
	f.Set("abc")
	g.waitStarted(t, "abc")
	g.Release("abc")

	require.Eventually(t, func() bool { return f.State().Phase == PhaseReady }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"abc"}, g.Calls())
	assert.Equal(t, "v:abc", f.State().Value)
}

func TestField_LaterIssuedWinsOverLaterCompleted(t *testing.T) {
	g := newGated()
	var (
		mu   sync.Mutex
		seen []string
	)
	f := NewField(Options[string]{
		Name:  "target",
		Check: g.check,
		OnChange: func(st State[string]) {
			if st.Phase == PhaseReady {
				mu.Lock()
				seen = append(seen, st.Value)
				mu.Unlock()
			}
		},
		Logger: zerolog.Nop(),
	})
	defer f.Close()

	f.Set("first")
	g.waitStarted(t, "first")
	f.Set("second")
	g.waitStarted(t, "second")

	g.Release("second")
	require.Eventually(t, func() bool { return f.State().Phase == PhaseReady }, time.Second, 5*time.Millisecond)
	g.Release("first")
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, "v:second", f.State().Value)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"v:second"}, seen)
}

func TestField_Cache(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	f := NewField(Options[string]{
		Name:  "target",
		Cache: true,
		Check: func(ctx context.Context, key string) (string, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return instant(ctx, key)
		},
		Logger: zerolog.Nop(),
	})
	defer f.Close()

	f.Set("a")
	require.Eventually(t, func() bool { return f.State().Phase == PhaseReady }, time.Second, 5*time.Millisecond)
	f.Set("b")
	require.Eventually(t, func() bool { return f.State().Value == "v:b" }, time.Second, 5*time.Millisecond)

	f.Set("a")
	st := f.State()
	assert.Equal(t, PhaseReady, st.Phase, "cache hit applies immediately")
	assert.Equal(t, "v:a", st.Value)

	mu.Lock()
	assert.Equal(t, 2, calls)
	mu.Unlock()

	_, err := f.Resolve(context.Background())
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, 3, calls, "Resolve bypasses the cache")
	mu.Unlock()
}

func TestField_ResolveIsSynchronous(t *testing.T) {
	f := NewField(Options[string]{Name: "allowance", Quiet: time.Hour, Check: instant, Logger: zerolog.Nop()})
	defer f.Close()

	f.Set("x")
	assert.Equal(t, PhasePending, f.State().Phase)

	st, err := f.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseReady, st.Phase)
	assert.Equal(t, "v:x", st.Value)
}

func TestField_ResolveSuperseded(t *testing.T) {
	g := newGated()
	f := NewField(Options[string]{Name: "allowance", Quiet: time.Hour, Check: g.check, Logger: zerolog.Nop()})
	defer f.Close()

	f.Set("old")
	errCh := make(chan error, 1)
	go func() {
		_, err := f.Resolve(context.Background())
		errCh <- err
	}()
	g.waitStarted(t, "old")

	f.Set("new")
	g.Release("old")

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve did not return")
	}
	assert.Equal(t, "new", f.State().Input)
	assert.Equal(t, PhasePending, f.State().Phase)
}

func TestField_Revalidate(t *testing.T) {
	down := true
	var mu sync.Mutex
	f := NewField(Options[string]{
		Name: "target",
		Check: func(ctx context.Context, key string) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			if down {
				return "", errors.New("connection refused")
			}
			return "v:" + key, nil
		},
		Logger: zerolog.Nop(),
	})
	defer f.Close()

	f.Set("a")
	require.Eventually(t, func() bool { return f.State().Phase == PhaseError }, time.Second, 5*time.Millisecond)

	mu.Lock()
	down = false
	mu.Unlock()
	f.Revalidate()
	require.Eventually(t, func() bool { return f.State().Phase == PhaseReady }, time.Second, 5*time.Millisecond)
}

func TestField_TimeoutIsError(t *testing.T) {
	f := NewField(Options[string]{
		Name:    "target",
		Timeout: 10 * time.Millisecond,
		Check: func(ctx context.Context, key string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
		Logger: zerolog.Nop(),
	})
	defer f.Close()

	st, err := f.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseEmpty, st.Phase)

	f.Set("slow")
	require.Eventually(t, func() bool { return f.State().Phase == PhaseError }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, f.State().Err, context.DeadlineExceeded)
}

func TestField_CloseCancelsInFlight(t *testing.T) {
	cancelled := make(chan struct{})
	started := make(chan struct{})
	f := NewField(Options[string]{
		Name: "target",
		Check: func(ctx context.Context, key string) (string, error) {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return "", ctx.Err()
		},
		Logger: zerolog.Nop(),
	})

	f.Set("a")
	<-started
	f.Close()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("check was not cancelled")
	}
	assert.Equal(t, PhasePending, f.State().Phase, "results after close are dropped")

	f.Set("b")
	assert.Equal(t, "a", f.State().Input)
	_, err := f.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestField_Clear(t *testing.T) {
	g := newGated()
	f := NewField(Options[string]{Name: "target", Check: g.check, Logger: zerolog.Nop()})
	defer f.Close()

	f.Set("a")
	g.waitStarted(t, "a")
	f.Clear()
	g.Release("a")
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, PhaseEmpty, f.State().Phase)
	assert.Empty(t, f.State().Input)
}
