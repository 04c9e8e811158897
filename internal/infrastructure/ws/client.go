package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/huddle/internal/infrastructure/logging"
)

type Client struct {
	conn    *connWrapper
	Message chan *WSMessage
	ID      string `json:"id"`
}

func NewClient(conn *websocket.Conn, id string, cfg Config) *Client {
	return &Client{
		conn:    newConnWrapper(conn, cfg.WriteWait),
		Message: make(chan *WSMessage, cfg.SendBuffer), // buffered to avoid dead-locks on slow clients
		ID:      id,
	}
}

// ReadMessage pumps frames from the socket into core until the connection
// fails or closes.
func (c *Client) ReadMessage(core *Core) {
	cfg := core.cfg

	c.conn.conn.SetReadLimit(cfg.MaxMessageBytes)
	_ = c.conn.conn.SetReadDeadline(time.Now().Add(cfg.PingTimeout))
	c.conn.conn.SetPongHandler(func(string) error {
		return c.conn.conn.SetReadDeadline(time.Now().Add(cfg.PingTimeout))
	})

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				core.logger.Warn(logging.Socket, logging.Disconnect, "websocket read error", map[logging.ExtraKey]any{
					logging.ConnectionID: c.ID,
					logging.ErrorMessage: err.Error(),
				})
			}
			return
		}

		var frame InboundMessage
		if err := json.Unmarshal(raw, &frame); err != nil {
			core.reply(c, NewError("", "malformed frame"))
			continue
		}

		core.handle(c, frame)
	}
}

// WriteMessage drains the outbound queue and keeps the connection alive with
// pings. It returns once the queue is closed or a write fails.
func (c *Client) WriteMessage(core *Core) {
	ticker := time.NewTicker(core.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Message:
			if !ok {
				_ = c.conn.CloseGracefully()
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				core.logger.Warn(logging.Socket, logging.Write, "websocket write error", map[logging.ExtraKey]any{
					logging.ConnectionID: c.ID,
					logging.ErrorMessage: err.Error(),
				})
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(); err != nil {
				return
			}
		}
	}
}
