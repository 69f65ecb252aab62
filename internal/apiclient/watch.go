package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sihmvp/dropout-monitor/internal/model"
	ws "github.com/sihmvp/dropout-monitor/internal/websocket"
)

// WatchRoster streams roster change events to fn until ctx ends or the
// connection drops. ready, if non-nil, runs once the server has subscribed.
// It returns nil when ctx is cancelled.
func (c *Client) WatchRoster(ctx context.Context, ready func(), fn func(model.RosterEvent)) error {
	u, err := url.Parse(c.baseURL + "/ws/roster")
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	q := u.Query()
	q.Set("token", c.Token())
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return decodeError(resp)
		}
		return fmt.Errorf("dial roster stream: %w", err)
	}
	defer conn.Close()

	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(ws.PongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(ws.WriteWait))
	})

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(ws.WriteWait))
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		frame, err := ws.ReadFrame(conn)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read roster stream: %w", err)
		}

		switch frame.Event {
		case ws.EventReady:
			if ready != nil {
				ready()
			}
		case ws.EventRoster:
			if frame.Roster != nil {
				fn(*frame.Roster)
			}
		case ws.EventError:
			return errors.New("roster stream: " + frame.Error)
		}
	}
}
