package intent

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainIntent "github.com/handlepay/handlepay/internal/domain/intent"
)

func TestManager_Lifecycle(t *testing.T) {
	h := newHarness(t)
	m := NewManager(h.deps)

	c, err := m.Open(domainIntent.FlowClaim, Params{})
	require.NoError(t, err)
	_, err = m.Open(domainIntent.FlowCreatePool, Params{Slots: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Count())
	assert.Len(t, m.List(), 2)

	got, err := m.Get(c.ID())
	require.NoError(t, err)
	assert.Same(t, c, got)

	require.NoError(t, m.Close(c.ID()))
	_, err = m.Get(c.ID())
	assert.ErrorIs(t, err, ErrFlowNotFound)
	assert.ErrorIs(t, c.SetTarget("alice"), domainIntent.ErrClosed)
	assert.ErrorIs(t, m.Close(c.ID()), ErrFlowNotFound)

	m.CloseAll()
	assert.Zero(t, m.Count())
}

func TestManager_OpenRejectsBadParams(t *testing.T) {
	h := newHarness(t)
	m := NewManager(h.deps)

	_, err := m.Open(domainIntent.FlowCreatePool, Params{Slots: MaxSlots + 1})
	assert.ErrorIs(t, err, ErrSlotsRequired)
	assert.Zero(t, m.Count())

	_, err = m.Get(uuid.New())
	assert.ErrorIs(t, err, ErrFlowNotFound)
}
