package validator

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
)

// TestLastIssuedWins verifies stale-result suppression.
// Property: for any completion order, only the last-issued input is applied.
func TestLastIssuedWins(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("applied result follows issuance order", prop.ForAll(
		func(priorities []int) bool {
			g := newGated()
			var (
				mu      sync.Mutex
				applied []string
			)
			f := NewField(Options[string]{
				Name:  "target",
				Check: g.check,
				OnChange: func(st State[string]) {
					if st.Phase == PhaseReady {
						mu.Lock()
						applied = append(applied, st.Value)
						mu.Unlock()
					}
				},
				Logger: zerolog.Nop(),
			})
			defer f.Close()

			inputs := make([]string, len(priorities))
			for i := range priorities {
				inputs[i] = fmt.Sprintf("in-%d", i)
				f.Set(inputs[i])
				select {
				case <-g.started:
				case <-time.After(time.Second):
					return false
				}
			}

			order := make([]int, len(priorities))
			for i := range order {
				order[i] = i
			}
			sort.SliceStable(order, func(a, b int) bool { return priorities[order[a]] < priorities[order[b]] })
			for _, i := range order {
				g.Release(inputs[i])
			}

			last := "v:" + inputs[len(inputs)-1]
			deadline := time.Now().Add(time.Second)
			for f.State().Phase != PhaseReady && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			defer mu.Unlock()
			if f.State().Value != last || len(applied) != 1 {
				return false
			}
			return applied[0] == last
		},
		gen.SliceOfN(6, gen.IntRange(0, 100)).SuchThat(func(v []int) bool { return len(v) > 0 }),
	))

	properties.TestingRun(t)
}
