package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// connWrapper serializes writes; gorilla connections allow one concurrent
// writer.
type connWrapper struct {
	conn      *websocket.Conn
	writeWait time.Duration
	mutex     sync.Mutex
}

func newConnWrapper(c *websocket.Conn, writeWait time.Duration) *connWrapper {
	return &connWrapper{conn: c, writeWait: writeWait}
}

func (w *connWrapper) WriteJSON(v any) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeWait))
	return w.conn.WriteJSON(v)
}

func (w *connWrapper) Ping() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeWait))
	return w.conn.WriteMessage(websocket.PingMessage, nil)
}

// CloseGracefully sends a close frame before the connection is torn down.
func (w *connWrapper) CloseGracefully() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(w.writeWait),
	)
}

func (w *connWrapper) Close() error {
	return w.conn.Close()
}
