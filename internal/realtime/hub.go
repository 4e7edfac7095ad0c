package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/souschef-app/souschef-api/internal/logger"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. The feed is server-to-client;
	// inbound traffic is limited to control frames and small acks.
	maxMessageSize = 1024
)

// Client represents a single WebSocket connection subscribed to a user's
// recipe feed.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uint
}

// Hub maintains active feed subscribers and fans events out to them. A user
// may hold several connections at once (phone and tablet); every connection
// receives every event for that user.
type Hub struct {
	subscribers map[uint]map[*Client]bool // userID -> set of clients
	Register    chan *Client
	Unregister  chan *Client
	events      chan *userEvent
	mu          sync.RWMutex
}

// userEvent carries a serialized feed event destined for one user.
type userEvent struct {
	UserID  uint
	Message []byte
}

// NewHub creates and returns a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uint]map[*Client]bool),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		events:      make(chan *userEvent, 64),
	}
}

// Run handles register, unregister, and event fan-out. It should be
// launched as a goroutine.
func (h *Hub) Run() {
	log := logger.Get()

	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.subscribers[client.UserID] == nil {
				h.subscribers[client.UserID] = make(map[*Client]bool)
			}
			h.subscribers[client.UserID][client] = true
			h.mu.Unlock()

			log.Info("feed subscriber connected", zap.Uint("user_id", client.UserID))

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.subscribers[client.UserID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.subscribers, client.UserID)
					}
				}
			}
			h.mu.Unlock()

			log.Info("feed subscriber disconnected", zap.Uint("user_id", client.UserID))

		case evt := <-h.events:
			h.mu.RLock()
			clients := h.subscribers[evt.UserID]
			stale := make([]*Client, 0)
			for client := range clients {
				select {
				case client.Send <- evt.Message:
				default:
					// Client's send buffer is full; disconnect it.
					stale = append(stale, client)
				}
			}
			h.mu.RUnlock()

			if len(stale) > 0 {
				h.mu.Lock()
				for _, client := range stale {
					if _, exists := h.subscribers[evt.UserID][client]; exists {
						delete(h.subscribers[evt.UserID], client)
						close(client.Send)
					}
				}
				if len(h.subscribers[evt.UserID]) == 0 {
					delete(h.subscribers, evt.UserID)
				}
				h.mu.Unlock()
			}
		}
	}
}

// publish queues an event for fan-out. Never blocks: if the hub's event
// buffer is full the event is dropped and the client reconciles on its next
// full fetch.
func (h *Hub) publish(userID uint, message []byte) {
	select {
	case h.events <- &userEvent{UserID: userID, Message: message}:
	default:
		logger.Get().Warn("feed event dropped, hub buffer full", zap.Uint("user_id", userID))
	}
}

// ReadPump consumes messages from the WebSocket connection so control
// frames are processed. Inbound data messages are ignored. It is intended
// to be run in a per-client goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
			) {
				logger.Get().Warn("unexpected websocket close",
					zap.Uint("user_id", c.UserID),
					zap.Error(err),
				)
			}
			break
		}
	}
}

// WritePump sends messages from the Send channel to the WebSocket connection.
// It also sends periodic pings to keep the connection alive. It is intended to
// be run in a per-client goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
