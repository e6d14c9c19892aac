package notification

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/intent"
	"github.com/handlepay/handlepay/internal/domain/notification"
)

// Service turns lifecycle events into notifications and pushes them to SSE
// subscribers of the owning account.
type Service struct {
	hub    notification.SSEHub
	logger zerolog.Logger
}

// NewService creates a notification service.
func NewService(hub notification.SSEHub, logger zerolog.Logger) *Service {
	return &Service{
		hub:    hub,
		logger: logger.With().Str("service", "notification").Logger(),
	}
}

// Emit publishes a lifecycle event. It never blocks on slow subscribers.
func (s *Service) Emit(ev *intent.Event) {
	if ev == nil {
		return
	}
	title, body := describe(ev)
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error().Err(err).Str("event", string(ev.Type)).Msg("failed to encode event")
		return
	}
	n := notification.NewNotification(string(ev.Type), ev.Level, title, body, payload)
	n.SetTarget(ev.Owner.Hex())
	n.SetFlow(ev.FlowID, ev.ExecutionID)

	s.publish(notification.EventLifecycle, ev.Owner, ev.FlowID, n)

	evt := s.logger.Info()
	if ev.Level == notification.LevelError {
		evt = s.logger.Warn()
	}
	evt.Str("event", string(ev.Type)).
		Str("flowId", ev.FlowID.String()).
		Str("executionId", ev.ExecutionID.String()).
		Str("reason", ev.Reason).
		Msg(title)
}

// PublishState pushes a flow snapshot to subscribers.
func (s *Service) PublishState(owner account.Account, flowID uuid.UUID, snapshot any) {
	s.publish(notification.EventState, owner, flowID, snapshot)
}

func (s *Service) publish(event string, owner account.Account, flowID uuid.UUID, v any) {
	if s.hub == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("failed to encode SSE message")
		return
	}
	s.hub.BroadcastToAccount(owner.Hex(), flowID.String(), notification.NewSSEMessage(event, data))
}

var confirmedTitles = map[intent.FlowKind]string{
	intent.FlowSend:       "Payment sent",
	intent.FlowRegister:   "Username registered",
	intent.FlowCreatePool: "Giveaway created",
	intent.FlowClaim:      "Giveaway claimed",
}

func describe(ev *intent.Event) (string, string) {
	switch ev.Type {
	case intent.EventValidating:
		return "Checking details", ""
	case intent.EventApprovalRequested:
		return "Approve spending in your wallet", ""
	case intent.EventApprovalConfirmed:
		return "Spending approved", ev.TxRef
	case intent.EventSubmitted:
		return "Transaction submitted", ev.TxRef
	case intent.EventConfirmed:
		title, ok := confirmedTitles[ev.FlowKind]
		if !ok {
			title = "Transaction confirmed"
		}
		return title, ev.TxRef
	case intent.EventFailed:
		if ev.Error != nil {
			if ev.Error.Kind == intent.KindUserRejected {
				return "Request declined", ev.Error.Message
			}
			return "Transaction failed", ev.Error.Message
		}
		return "Transaction failed", ev.Reason
	default:
		return string(ev.Type), ""
	}
}
