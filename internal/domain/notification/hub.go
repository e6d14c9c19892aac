package notification

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_hub.go -package=mocks . SSEHub

import (
	"context"
)

// SSEHub defines the interface for managing SSE connections
type SSEHub interface {
	// Client management
	Register(client *SSEClient)
	Unregister(clientID string)
	GetClient(clientID string) *SSEClient
	GetClientCount() int

	// Broadcasting
	BroadcastToAll(message *SSEMessage)
	BroadcastToAccount(account string, flowID string, message *SSEMessage)
	SendToClient(clientID string, message *SSEMessage) error

	// Lifecycle
	Start(ctx context.Context)
	Stop()
}
