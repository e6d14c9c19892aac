package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/handlepay/handlepay/internal/domain/notification"
)

// sseEndpoint streams flow state and notifications for the session account.
// ?flows=<id,id> narrows the stream to specific flows.
func (s *Server) sseEndpoint(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}
	if s.sseHub.GetClient(clientID) != nil {
		respondError(w, http.StatusConflict, "CLIENT_EXISTS", "client_id already connected")
		return
	}
	owner := s.session.Account.Hex()
	client := notification.NewSSEClient(clientID, &owner, splitCSV(r.URL.Query().Get("flows")))
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(clientID)

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	s.logger.Debug().Str("clientId", clientID).Msg("event stream opened")
	ctx := r.Context()
	for {
		select {
		case msg := <-client.MessageChan:
			if msg == nil {
				return
			}
			payload, _ := json.Marshal(msg)
			_, _ = w.Write([]byte("event: " + msg.Event + "\n"))
			_, _ = w.Write([]byte("id: " + msg.ID + "\n"))
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			s.logger.Debug().Str("clientId", clientID).Msg("event stream closed")
			return
		}
	}
}
