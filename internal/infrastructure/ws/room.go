package ws

import (
	"sync"

	"github.com/hilthontt/huddle/internal/infrastructure/logging"
)

// RoomManager tracks the live clients by connection ID and fans messages out
// to them. Room membership itself lives in the coordinator; RoomManager only
// knows which sockets are open.
type RoomManager struct {
	clients map[string]*Client // connection ID -> Client
	logger  logging.Logger
	mu      sync.RWMutex
}

func NewRoomManager(logger logging.Logger) *RoomManager {
	return &RoomManager{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

func (rm *RoomManager) AddClient(cl *Client) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.clients[cl.ID] = cl
}

// RemoveClient forgets the client and closes its outbound queue. It reports
// whether the client was present.
func (rm *RoomManager) RemoveClient(cl *Client) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if current, ok := rm.clients[cl.ID]; !ok || current != cl {
		return false
	}
	delete(rm.clients, cl.ID)
	close(cl.Message)
	return true
}

func (rm *RoomManager) Len() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.clients)
}

// Deliver queues msg for every listed connection, skipping except. A client
// whose buffer is full misses the message.
func (rm *RoomManager) Deliver(recipients []string, except string, msg *WSMessage) int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	delivered := 0
	for _, id := range recipients {
		if id == except {
			continue
		}
		cl, ok := rm.clients[id]
		if !ok {
			continue
		}

		select {
		case cl.Message <- msg:
			delivered++
		default:
			rm.logger.Warn(logging.Socket, logging.Write, "client buffer full, dropping message", map[logging.ExtraKey]any{
				logging.ConnectionID: id,
				logging.RoomID:       msg.RoomID,
				logging.EventType:    msg.Type,
			})
		}
	}
	return delivered
}

// CloseAll sends a close frame to every client. The read loops then unwind
// through the normal disconnect path.
func (rm *RoomManager) CloseAll() {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	for _, cl := range rm.clients {
		_ = cl.conn.CloseGracefully()
		_ = cl.conn.Close()
	}
}
