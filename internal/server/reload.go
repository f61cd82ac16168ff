package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/liveserve-dev/liveserve/internal/middleware"
)

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	// ReloadTypeFull asks the browser to reload the page.
	ReloadTypeFull ReloadMessageType = "reload"

	// ReloadTypeCSS asks the browser to refresh stylesheets in place.
	ReloadTypeCSS ReloadMessageType = "css"
)

// ReloadMessage is sent to connected browsers over the websocket.
type ReloadMessage struct {
	Type ReloadMessageType `json:"type"`
	File string            `json:"file,omitempty"`
}

// writeWait is the time allowed to push one message to a client.
const writeWait = 10 * time.Second

// ReloadClient is the registration handle for one connected browser.
type ReloadClient struct {
	conn   *websocket.Conn
	remote string

	// Gorilla connections do not support concurrent writers.
	writeMu sync.Mutex
}

func (c *ReloadClient) send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ReloadServer manages the set of websocket subscribers and pushes reload
// messages to them.
type ReloadServer struct {
	mu      sync.RWMutex
	clients map[*ReloadClient]struct{}

	// broadcastMu serializes broadcasts so every subscriber observes
	// triggers in the order they were fired.
	broadcastMu sync.Mutex

	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewReloadServer creates a reload server with no subscribers.
func NewReloadServer(log *slog.Logger) *ReloadServer {
	if log == nil {
		log = slog.Default()
	}

	return &ReloadServer{
		clients: make(map[*ReloadClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local development server
			},
		},
		log: log,
	}
}

// Register adds a connection to the subscriber set and returns its handle.
func (s *ReloadServer) Register(conn *websocket.Conn) *ReloadClient {
	c := &ReloadClient{conn: conn, remote: conn.RemoteAddr().String()}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	middleware.RecordClientConnect()
	s.log.Debug("reload client registered", "remote", c.remote)
	return c
}

// Unregister removes a client from the subscriber set. Removing a client
// that is not registered is a no-op.
func (s *ReloadServer) Unregister(c *ReloadClient) {
	if c == nil {
		return
	}

	s.mu.Lock()
	_, ok := s.clients[c]
	if ok {
		delete(s.clients, c)
	}
	s.mu.Unlock()

	if ok {
		middleware.RecordClientDisconnect()
		s.log.Debug("reload client unregistered", "remote", c.remote)
	}
}

// ClientCount returns the number of connected clients.
func (s *ReloadServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// HandleWebSocket serves the reload endpoint: upgrade the connection,
// register it, and hold it open until the browser goes away.
func (s *ReloadServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an error response.
		s.log.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := s.Register(conn)

	// The channel is one-way: discard anything the client sends and use
	// the read loop only to detect disconnection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.Unregister(c)
	conn.Close()
}

// NotifyReload broadcasts a full page reload and returns the number of
// clients reached.
func (s *ReloadServer) NotifyReload() int {
	return s.broadcast(ReloadMessage{Type: ReloadTypeFull})
}

// NotifyCSS broadcasts a stylesheet refresh and returns the number of
// clients reached.
func (s *ReloadServer) NotifyCSS(file string) int {
	return s.broadcast(ReloadMessage{Type: ReloadTypeCSS, File: file})
}

// broadcast pushes one message to a snapshot of the subscriber set. A
// failed delivery drops that client only; the rest still receive the
// message. Returns the number of successful deliveries.
func (s *ReloadServer) broadcast(msg ReloadMessage) int {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("failed to encode reload message", "error", err)
		return 0
	}

	s.broadcastMu.Lock()
	defer s.broadcastMu.Unlock()

	s.mu.RLock()
	clients := make([]*ReloadClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	middleware.RecordBroadcast()

	delivered := 0
	for _, c := range clients {
		if err := c.send(data); err != nil {
			s.log.Debug("reload delivery failed", "remote", c.remote, "error", err)
			middleware.RecordDeliveryError()
			s.Unregister(c)
			c.conn.Close()
			continue
		}
		delivered++
	}

	s.log.Debug("reload broadcast", "type", string(msg.Type), "delivered", delivered)
	return delivered
}

// Close disconnects all clients and empties the subscriber set.
func (s *ReloadServer) Close() {
	s.mu.Lock()
	clients := make([]*ReloadClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
		delete(s.clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
		middleware.RecordClientDisconnect()
	}
}
