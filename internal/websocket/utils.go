package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/sihmvp/dropout-monitor/internal/model"
)

const (
	WriteWait  = 10 * time.Second
	PongWait   = 60 * time.Second
	PingPeriod = PongWait * 9 / 10
)

// WriteTyped sends a frame over the WebSocket.
func WriteTyped(conn *websocket.Conn, v Frame) error {
	conn.SetWriteDeadline(time.Now().Add(WriteWait))
	return conn.WriteJSON(v)
}

// WriteError sends an error frame.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, Frame{Event: EventError, Error: errMsg})
}

// WriteRoster sends a roster change frame.
func WriteRoster(conn *websocket.Conn, ev model.RosterEvent) error {
	return WriteTyped(conn, Frame{Event: EventRoster, Roster: &ev})
}

// WritePing sends a control ping.
func WritePing(conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WriteWait))
}

// ReadFrame reads and decodes the next frame, waiting at most PongWait.
func ReadFrame(conn *websocket.Conn) (Frame, error) {
	var f Frame
	conn.SetReadDeadline(time.Now().Add(PongWait))
	err := conn.ReadJSON(&f)
	return f, err
}
