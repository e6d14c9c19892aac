package sse

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/handlepay/handlepay/internal/domain/notification"
)

// EventHeartbeat keeps idle streams open through proxies.
const EventHeartbeat = "heartbeat"

// Hub manages SSE clients.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]*notification.SSEClient
	heartbeat time.Duration
	logger    zerolog.Logger
	stopOnce  sync.Once
	done      chan struct{}
}

var _ notification.SSEHub = (*Hub)(nil)

// NewHub creates a hub. A zero heartbeat disables keep-alive messages.
func NewHub(heartbeat time.Duration, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:   make(map[string]*notification.SSEClient),
		heartbeat: heartbeat,
		logger:    logger.With().Str("service", "sse").Logger(),
		done:      make(chan struct{}),
	}
}

func (h *Hub) Register(client *notification.SSEClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ClientID] = client
	h.logger.Debug().Str("clientId", client.ClientID).Int("clients", len(h.clients)).Msg("client registered")
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		c.Close()
		delete(h.clients, clientID)
	}
}

func (h *Hub) GetClient(clientID string) *notification.SSEClient {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[clientID]
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) BroadcastToAll(message *notification.SSEMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.send(c, message)
	}
}

// BroadcastToAccount delivers to clients of account that follow flowID.
// Clients without an account filter receive everything.
func (h *Hub) BroadcastToAccount(account string, flowID string, message *notification.SSEMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.Account != nil && !strings.EqualFold(*c.Account, account) {
			continue
		}
		if !c.Wants(flowID) {
			continue
		}
		h.send(c, message)
	}
}

func (h *Hub) SendToClient(clientID string, message *notification.SSEMessage) error {
	h.mu.RLock()
	c := h.clients[clientID]
	h.mu.RUnlock()
	if c == nil {
		return notification.ErrClientNotFound
	}
	if !trySend(c, message) {
		return notification.ErrChannelFull
	}
	return nil
}

// Start sends heartbeats until ctx ends or the hub stops.
func (h *Hub) Start(ctx context.Context) {
	if h.heartbeat <= 0 {
		return
	}
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			h.BroadcastToAll(notification.NewSSEMessage(EventHeartbeat, []byte(`{}`)))
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
	}
}

func (h *Hub) send(c *notification.SSEClient, msg *notification.SSEMessage) {
	if !trySend(c, msg) {
		h.logger.Warn().Str("clientId", c.ClientID).Str("event", msg.Event).Msg("dropped SSE message for slow client")
	}
}

func trySend(c *notification.SSEClient, msg *notification.SSEMessage) bool {
	select {
	case c.MessageChan <- msg:
		return true
	default:
		return false
	}
}
