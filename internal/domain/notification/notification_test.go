package notification

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotification(t *testing.T) {
	payload := json.RawMessage(`{"key": "value"}`)

	n := NewNotification("confirmed", LevelSuccess, "Payment sent", "50 to @alice", payload)

	require.NotNil(t, n)
	assert.NotEqual(t, uuid.Nil, n.NotificationID)
	assert.Equal(t, "confirmed", n.Event)
	assert.Equal(t, LevelSuccess, n.Level)
	assert.Equal(t, "Payment sent", n.Title)
	assert.Equal(t, payload, n.Payload)
	assert.False(t, n.CreatedAt.IsZero())
	assert.Nil(t, n.Account)
	assert.Nil(t, n.FlowID)
}

func TestNotification_SetTargetAndFlow(t *testing.T) {
	n := NewNotification("submitted", LevelInfo, "Submitted", "", nil)
	flowID, execID := uuid.New(), uuid.New()

	n.SetTarget("0xabc")
	n.SetFlow(flowID, execID)

	require.NotNil(t, n.Account)
	assert.Equal(t, "0xabc", *n.Account)
	require.NotNil(t, n.FlowID)
	assert.Equal(t, flowID, *n.FlowID)
	assert.Equal(t, execID, *n.ExecutionID)
}

func TestSSEClient_Wants(t *testing.T) {
	t.Run("no filter", func(t *testing.T) {
		c := NewSSEClient("c1", nil, nil)
		assert.True(t, c.Wants("any"))
	})

	t.Run("filtered", func(t *testing.T) {
		c := NewSSEClient("c1", nil, []string{"f1", "f2"})
		assert.True(t, c.Wants("f2"))
		assert.False(t, c.Wants("f3"))
	})
}

func TestSSEClient_Close(t *testing.T) {
	c := NewSSEClient("c1", nil, nil)
	c.Close()
	_, ok := <-c.MessageChan
	assert.False(t, ok)
}

func TestNewSSEMessage(t *testing.T) {
	msg := NewSSEMessage(EventLifecycle, json.RawMessage(`{}`))
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, EventLifecycle, msg.Event)
	assert.False(t, msg.Timestamp.IsZero())
}
