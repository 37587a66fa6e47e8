// internal/app/system/hub/client.go
package hub

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients are same-origin behind the session cookie; mobile
	// clients authenticate with a bearer token before upgrading.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one subscriber connection with its visibility scope.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan Event
	companyKey string
	department string // sanitized department; empty subscribes company-wide
	closed     bool
}

// wants applies the visibility partition: events for the client's
// company, and department-scoped events only when the client watches
// that department or the whole company.
func (c *Client) wants(ev Event) bool {
	if ev.CompanyKey != c.companyKey {
		return false
	}
	if ev.Department == "" {
		return true
	}
	return c.department == "" || c.department == ev.Department
}

func (c *Client) closeSend() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ServeWS upgrades the request and registers the connection with the
// hub. The caller has already authenticated the user and derived the
// company/department scope.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, companyKey, department string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan Event, sendBuffer),
		companyKey: companyKey,
		department: department,
	}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

// readPump discards inbound frames (the stream is one-way) and tears
// the client down when the peer goes away.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
