package notification

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Level is the display severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// SSE event names.
const (
	EventLifecycle = "lifecycle"
	EventState     = "state"
)

var (
	ErrClientNotFound = errors.New("SSE client not found")
	ErrChannelFull    = errors.New("SSE message channel full")
)

// Notification is a one-way lifecycle message for display.
type Notification struct {
	NotificationID uuid.UUID       `json:"notificationId"`
	Event          string          `json:"event"`
	Level          Level           `json:"level"`
	Title          string          `json:"title"`
	Body           string          `json:"body,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Account        *string         `json:"account,omitempty"`
	FlowID         *uuid.UUID      `json:"flowId,omitempty"`
	ExecutionID    *uuid.UUID      `json:"executionId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// NewNotification creates a new notification
func NewNotification(event string, level Level, title, body string, payload json.RawMessage) *Notification {
	return &Notification{
		NotificationID: uuid.New(),
		Event:          event,
		Level:          level,
		Title:          title,
		Body:           body,
		Payload:        payload,
		CreatedAt:      time.Now().UTC(),
	}
}

// SetTarget scopes the notification to an account.
func (n *Notification) SetTarget(account string) {
	n.Account = &account
}

// SetFlow links the notification to a flow instance and execution.
func (n *Notification) SetFlow(flowID, executionID uuid.UUID) {
	n.FlowID = &flowID
	n.ExecutionID = &executionID
}

// SSEClient represents an active SSE connection
type SSEClient struct {
	ClientID    string
	Account     *string
	FlowIDs     []string
	ConnectedAt time.Time
	LastEventAt *time.Time
	MessageChan chan *SSEMessage
}

// NewSSEClient creates a new SSE client
func NewSSEClient(clientID string, account *string, flowIDs []string) *SSEClient {
	return &SSEClient{
		ClientID:    clientID,
		Account:     account,
		FlowIDs:     flowIDs,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *SSEMessage, 100),
	}
}

// Wants reports whether the client subscribed to the flow. No filter means all flows.
func (c *SSEClient) Wants(flowID string) bool {
	if len(c.FlowIDs) == 0 {
		return true
	}
	for _, id := range c.FlowIDs {
		if id == flowID {
			return true
		}
	}
	return false
}

// Close closes the client's message channel
func (c *SSEClient) Close() {
	close(c.MessageChan)
}

// SSEMessage represents a message to be sent via SSE
type SSEMessage struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Retry     *int            `json:"retry,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSSEMessage creates a new SSE message
func NewSSEMessage(event string, data json.RawMessage) *SSEMessage {
	return &SSEMessage{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}
