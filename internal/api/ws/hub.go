package ws

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jpd-dfo/spacos/internal/guard"
	redisstore "github.com/jpd-dfo/spacos/internal/store/redis"
)

// Hub streams an organization's activity feed over WebSocket, backed by
// Redis pub/sub so events reach clients regardless of which API instance
// recorded them.
type Hub struct {
	pubsub *redisstore.PubSub
	guard  *guard.Guard
}

func NewHub(pubsub *redisstore.PubSub, g *guard.Guard) *Hub {
	return &Hub{pubsub: pubsub, guard: g}
}

// ServeActivity handles WebSocket connections for an organization's
// activity feed. The caller's membership is checked before the upgrade,
// same as any other organization-scoped operation.
func (h *Hub) ServeActivity(w http.ResponseWriter, r *http.Request) {
	orgIDStr := chi.URLParam(r, "organizationID")
	orgID, err := uuid.Parse(orgIDStr)
	if err != nil {
		http.Error(w, "invalid organization id", http.StatusBadRequest)
		return
	}

	if _, err := h.guard.Require(r.Context(), orgID); err != nil {
		http.Error(w, "Access denied", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	messages, cleanup, err := h.pubsub.SubscribeActivity(ctx, orgID)
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
