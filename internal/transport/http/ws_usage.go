package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-link-service/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type usageMessage struct {
	Type    string           `json:"type"`
	Payload domain.LinkUsage `json:"payload"`
}

// watchLink streams seat-usage snapshots for a link over a one-way
// websocket, starting with the current state. Admins use it to watch seats
// fill while a quiz is running.
func (h *Handler) watchLink(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	updates, cancel, err := h.service.WatchLink(r.Context(), token)
	if err != nil {
		writeDomainError(w, err, domain.LinkUsage{})
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// The read pump only detects the peer going away; inbound frames are
	// discarded.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case usage, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(usageMessage{Type: "usage", Payload: usage}); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
