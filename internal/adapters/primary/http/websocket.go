package http

import (
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fredcamaral/carousel/internal/domain/ports"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames
	maxMessageSize = 512
)

// EventTypeConnected greets a freshly connected client
const EventTypeConnected = "connected"

// wsClient pumps hub events to one websocket connection
type wsClient struct {
	id     string
	conn   *websocket.Conn
	send   chan ports.UpdateEvent
	hub    *Hub
	logger *zap.Logger
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.isValidOrigin,
	}
}

// handleWebSocket upgrades the request and subscribes it to the hub
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan ports.UpdateEvent, clientBuffer),
		hub:    s.hub,
		logger: s.logger,
	}

	// Queue the greeting before registering so it is the first frame
	client.send <- ports.UpdateEvent{
		Type:      EventTypeConnected,
		Timestamp: time.Now(),
		Data:      map[string]string{"client": client.id},
	}
	s.hub.Register(&Connection{ID: client.id, Send: client.send})
	s.metrics().RecordConnection()

	go client.writePump()
	go client.readPump()
}

// readPump drains control frames and detects disconnects
func (c *wsClient) readPump() {
	defer func() {
		c.hub.Unregister(c.id)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket connection error", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
	}
}

// writePump writes queued events and keepalive pings
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// isValidOrigin accepts same-origin requests, configured CORS origins and,
// in development, loopback and private network hosts.
func (s *Server) isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		s.logger.Warn("WebSocket connection rejected: invalid origin", zap.String("origin", origin))
		return false
	}

	if originURL.Host == r.Host {
		return true
	}

	if s.config.IsDevelopment() && isLocalHost(originURL.Hostname()) {
		return true
	}

	for _, allowed := range s.config.GetCORSOrigins() {
		if allowed == "*" || allowed == origin {
			return true
		}
		if domain, ok := strings.CutPrefix(allowed, "*."); ok && strings.HasSuffix(originURL.Hostname(), "."+domain) {
			return true
		}
	}

	s.logger.Warn("WebSocket connection rejected: origin not allowed",
		zap.String("origin", origin),
		zap.Strings("allowed", s.config.GetCORSOrigins()))
	return false
}

// isLocalHost reports loopback and private network hosts
func isLocalHost(hostname string) bool {
	if slices.Contains([]string{"localhost", "127.0.0.1", "::1", "0.0.0.0"}, hostname) {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && (ip.IsLoopback() || ip.IsPrivate())
}
