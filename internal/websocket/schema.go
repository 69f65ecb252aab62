package websocket

import "github.com/sihmvp/dropout-monitor/internal/model"

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	// EventReady is sent once the server is subscribed to roster changes.
	EventReady  Event = "ready"
	EventRoster Event = "roster"
	EventError  Event = "error"
)

// Frame is every message on the /ws/roster stream.
type Frame struct {
	Event  Event              `json:"event"`
	Roster *model.RosterEvent `json:"roster,omitempty"`
	Error  string             `json:"error,omitempty"`
}
