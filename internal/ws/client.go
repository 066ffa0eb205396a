package ws

import (
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

// Client is one live websocket session. A user may hold several at once; all
// share the same userID tag and are otherwise independent.
type Client struct {
	conn   *websocket.Conn
	userID string
	connID string
	send   chan OutEvent
}

func NewClient(conn *websocket.Conn, userID, connID string) *Client {
	return &Client{
		conn:   conn,
		userID: userID,
		connID: connID,
		send:   make(chan OutEvent, sendBuffer),
	}
}

func (c *Client) UserID() string { return c.userID }

// Send queues an event for the write pump; a slow consumer gets events
// dropped rather than stalling the broadcaster.
func (c *Client) Send(ev OutEvent) {
	select {
	case c.send <- ev:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			b, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
