package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
	// ActionWatch narrows the stream to the listed classes. An empty list
	// watches every class.
	ActionWatch Action = "watch"
)

// RequestPayload is every message a seat-feed client may send.
type RequestPayload struct {
	Action   Action   `json:"action"`
	ClassIDs []string `json:"class_ids,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSeats    Event = "seats"
	EventWatching Event = "watching"
	EventPong     Event = "pong"
	EventError    Event = "error"
)

// SeatsEvent forwards one class's counters as published after a commit.
type SeatsEvent struct {
	Event Event           `json:"event"`
	Seats json.RawMessage `json:"seats"`
}

// WatchingResponse confirms the active class filter.
type WatchingResponse struct {
	Event    Event    `json:"event"`
	ClassIDs []string `json:"class_ids"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
