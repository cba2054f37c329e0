package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/simsmaster/sims-backend/internal/config"
	ws "github.com/simsmaster/sims-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live seat counters to catalog pages.
type WSHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SeatStream godoc
// WS /ws/v1/classes/seats
// Forwards every committed seat change. A "watch" action narrows the stream
// to specific classes; "ping" is answered with "pong".
func (h *WSHandler) SeatStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.SeatUpdatesChannel())
	defer pubsub.Close()
	updates := pubsub.Channel()

	ws.KeepAlive(conn)

	// Only this goroutine writes to conn; the reader hands requests over.
	requests := make(chan ws.RequestPayload)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var msg ws.RequestPayload
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			select {
			case requests <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	pingTicker := time.NewTicker(ws.PingPeriod)
	defer pingTicker.Stop()

	h.log.Debug().Msg("Seat stream client connected")

	var watching map[uuid.UUID]struct{}
	for {
		select {
		case <-ctx.Done():
			return

		case <-readerDone:
			h.log.Debug().Msg("Seat stream client disconnected")
			return

		case msg, ok := <-updates:
			if !ok {
				return
			}
			if !seatMatches(watching, msg.Payload) {
				continue
			}
			if err := ws.WriteTyped(conn, ws.SeatsEvent{Event: ws.EventSeats, Seats: json.RawMessage(msg.Payload)}); err != nil {
				return
			}

		case req := <-requests:
			switch req.Action {
			case ws.ActionPing:
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionWatch:
				filter, err := parseWatchList(req.ClassIDs)
				if err != nil {
					_ = ws.WriteError(conn, "class_ids must be UUIDs")
					continue
				}
				watching = filter
				ids := req.ClassIDs
				if ids == nil {
					ids = []string{}
				}
				_ = ws.WriteTyped(conn, ws.WatchingResponse{Event: ws.EventWatching, ClassIDs: ids})
			default:
				_ = ws.WriteError(conn, "unknown action: "+string(req.Action))
			}

		case <-pingTicker.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}

// parseWatchList returns nil (watch everything) for an empty list.
func parseWatchList(raw []string) (map[uuid.UUID]struct{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filter := make(map[uuid.UUID]struct{}, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		filter[id] = struct{}{}
	}
	return filter, nil
}

func seatMatches(watching map[uuid.UUID]struct{}, payload string) bool {
	if watching == nil {
		return true
	}
	var seat struct {
		ClassID uuid.UUID `json:"class_id"`
	}
	if err := json.Unmarshal([]byte(payload), &seat); err != nil {
		return false
	}
	_, ok := watching[seat.ClassID]
	return ok
}
