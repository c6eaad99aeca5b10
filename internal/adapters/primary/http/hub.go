package http

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/ports"
)

const (
	broadcastBuffer = 256
	clientBuffer    = 64
)

// Connection is one websocket subscriber
type Connection struct {
	ID   string
	Send chan ports.UpdateEvent
}

// Hub fans events out to every websocket subscriber. It implements
// ports.ProgressPublisher so export jobs and carousel mutations can publish
// without knowing about websockets.
type Hub struct {
	connections map[string]*Connection
	broadcast   chan ports.UpdateEvent
	register    chan *Connection
	unregister  chan string
	mu          sync.Mutex
	done        chan struct{}
	stopOnce    sync.Once
	logger      *zap.Logger
}

// NewHub creates a hub; call Run to start delivering
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		connections: make(map[string]*Connection),
		broadcast:   make(chan ports.UpdateEvent, broadcastBuffer),
		register:    make(chan *Connection),
		unregister:  make(chan string),
		done:        make(chan struct{}),
		logger:      logger.Named("hub"),
	}
}

// Run delivers events until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			h.CloseAll()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			h.mu.Unlock()
			h.logger.Debug("Client connected", zap.String("client", conn.ID))

		case id := <-h.unregister:
			h.drop(id)

		case event := <-h.broadcast:
			h.mu.Lock()
			for id, conn := range h.connections {
				select {
				case conn.Send <- event:
				default:
					h.logger.Warn("Dropping slow client", zap.String("client", id))
					close(conn.Send)
					delete(h.connections, id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a subscriber
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a subscriber
func (h *Hub) Unregister(id string) {
	select {
	case h.unregister <- id:
	case <-h.done:
	}
}

// Publish implements ports.ProgressPublisher. Events are dropped rather than
// blocking the publisher when the hub is backed up or stopped.
func (h *Hub) Publish(event ports.UpdateEvent) {
	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Event dropped", zap.String("type", event.Type))
	}
}

// Count returns the number of registered subscribers
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// CloseAll disconnects every subscriber
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.connections {
		close(conn.Send)
		delete(h.connections, id)
	}
}

func (h *Hub) drop(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.connections[id]; ok {
		delete(h.connections, id)
		close(conn.Send)
	}
}

var _ ports.ProgressPublisher = (*Hub)(nil)
