package websocket

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"storedesk/internal/domain/entity"
	"storedesk/pkg/logger"
)

// Client is one connected UI session.
type Client struct {
	UserID string
	Role   entity.Role
	Conn   *websocket.Conn
	Send   chan []byte
}

// Manager tracks connected clients. Delivery is always per-user: live
// snapshots are masked per viewer, so there is no shared broadcast payload.
type Manager struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the registration loop until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				logger.Info("Client registered: %s (%s)", client.UserID, client.Role)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if _, ok := m.clients[client.UserID]; ok {
					delete(m.clients, client.UserID)
					close(client.Send)
				}
				m.mutex.Unlock()
				logger.Info("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// SendToUser delivers a payload to one connected user. Slow clients are
// dropped rather than allowed to block the engine.
//
// The non-blocking send happens under the read lock: unregistration closes
// Send under the write lock, so a client found in the map cannot have its
// channel closed mid-send.
func (m *Manager) SendToUser(userID string, message []byte) {
	m.mutex.RLock()
	client, ok := m.clients[userID]
	if !ok {
		m.mutex.RUnlock()
		return
	}

	select {
	case client.Send <- message:
		m.mutex.RUnlock()
	default:
		m.mutex.RUnlock()
		logger.Warn("Dropping slow client %s", userID)
		m.Unregister <- client
	}
}

// ConnectedUsers snapshots the ids of all connected clients.
func (m *Manager) ConnectedUsers() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	ids := make([]string, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	return ids
}

// ReadPump reads client frames until the connection drops, handing each
// frame to handle. It unregisters the client on exit.
func (c *Client) ReadPump(m *Manager, handle func(payload []byte)) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("websocket read: %v", err)
			}
			break
		}
		if handle != nil {
			handle(message)
		}
	}
}

// WritePump drains the send channel into the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Error("websocket write: %v", err)
			return
		}
	}
}
