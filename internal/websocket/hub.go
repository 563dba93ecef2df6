package websocket

import (
	"sync"

	"github.com/google/uuid"

	"carepathiq-be/internal/pkg/logger"
)

// Hub fans already-produced stream events out to the clients watching one
// pathway session. It never touches the session itself, which keeps the
// session single-writer. Single process only; there is no cross-instance
// delivery.
type Hub struct {
	// Registered clients map: SessionID -> List of Clients (multi-tab)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.SessionID]) == 0 {
					delete(h.clients, client.SessionID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"session_id": client.SessionID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Send delivers one serialized event to every client watching the session.
// A client whose buffer is full is dropped rather than blocking the sender.
func (h *Hub) Send(sessionID uuid.UUID, data []byte) {
	h.mu.RLock()
	clients := h.clients[sessionID]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"session_id": sessionID})
			h.unregister <- client
		}
	}
}
