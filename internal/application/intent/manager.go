package intent

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	domainIntent "github.com/handlepay/handlepay/internal/domain/intent"
)

var ErrFlowNotFound = errors.New("flow not found")

// Manager keeps the open flow instances of one session.
type Manager struct {
	deps   Deps
	logger zerolog.Logger

	mu    sync.RWMutex
	flows map[uuid.UUID]*Controller
}

// NewManager creates a manager sharing deps across every flow it opens.
func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:   deps,
		logger: deps.Logger.With().Str("service", "intent-manager").Logger(),
		flows:  make(map[uuid.UUID]*Controller),
	}
}

// Open starts a new flow instance.
func (m *Manager) Open(kind domainIntent.FlowKind, params Params) (*Controller, error) {
	c, err := NewController(kind, params, m.deps)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.flows[c.ID()] = c
	m.mu.Unlock()
	return c, nil
}

// Get returns an open flow.
func (m *Manager) Get(id uuid.UUID) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.flows[id]
	if !ok {
		return nil, ErrFlowNotFound
	}
	return c, nil
}

// List returns snapshots of every open flow.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	flows := make([]*Controller, 0, len(m.flows))
	for _, c := range m.flows {
		flows = append(flows, c)
	}
	m.mu.RUnlock()

	out := make([]Snapshot, 0, len(flows))
	for _, c := range flows {
		out = append(out, c.Snapshot())
	}
	return out
}

// Close tears down one flow.
func (m *Manager) Close(id uuid.UUID) error {
	m.mu.Lock()
	c, ok := m.flows[id]
	delete(m.flows, id)
	m.mu.Unlock()
	if !ok {
		return ErrFlowNotFound
	}
	c.Close()
	return nil
}

// CloseAll tears down every open flow.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	flows := m.flows
	m.flows = make(map[uuid.UUID]*Controller)
	m.mu.Unlock()

	for _, c := range flows {
		c.Close()
	}
	if len(flows) > 0 {
		m.logger.Info().Int("count", len(flows)).Msg("closed open flows")
	}
}

// Count is the number of open flows.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.flows)
}
