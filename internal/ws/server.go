package ws

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
)

// ServerConfig holds the WebSocket server configuration.
type ServerConfig struct {
	ListenAddr        string        // address to listen on, e.g. ":8080"
	MaxConnections    int           // maximum concurrent connections
	HeartbeatInterval time.Duration // how often to ping idle connections
	IdleTimeout       time.Duration // drop connections idle longer than this
	ShutdownTimeout   time.Duration // grace period for HTTP shutdown
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:        ":8080",
		MaxConnections:    10000,
		HeartbeatInterval: 30 * time.Second,
		IdleTimeout:       90 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// MessageHandler is called for each complete text message read from a client.
type MessageHandler func(conn *Connection, data []byte)

// DisconnectHandler is called after a connection has been removed from the
// registry, with the ID it had.
type DisconnectHandler func(connID string)

// Server is a WebSocket server that upgrades HTTP requests and runs one
// reader goroutine per connection.
type Server struct {
	config       ServerConfig
	conns        *ConnectionManager
	onMessage    MessageHandler
	onDisconnect DisconnectHandler
	httpServer   *http.Server
	mux          *http.ServeMux
	done         chan struct{}
}

// NewServer creates a WebSocket server with the given configuration and
// message handler.
func NewServer(config ServerConfig, onMessage MessageHandler) *Server {
	s := &Server{
		config:    config,
		conns:     NewConnectionManager(),
		onMessage: onMessage,
		mux:       http.NewServeMux(),
		done:      make(chan struct{}),
	}
	s.mux.HandleFunc("/ws", s.handleUpgrade)
	s.mux.HandleFunc("/health", s.handleHealth)
	return s
}

// SetOnDisconnect registers a handler invoked whenever a connection is
// removed. Must be called before Start.
func (s *Server) SetOnDisconnect(handler DisconnectHandler) {
	s.onDisconnect = handler
}

// Handle mounts an extra HTTP handler on the server mux, e.g. a metrics
// endpoint. Must be called before Start.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Start begins listening for connections. Blocks until the server is shut
// down or fails.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.config.ListenAddr,
		Handler: s.mux,
	}

	go s.heartbeatLoop()

	log.Printf("[ws] listening on %s", s.config.ListenAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ws: server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server: stops the heartbeat loop, closes all
// connections, and shuts down the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.done)

	for _, conn := range s.conns.All() {
		s.removeConnection(conn.ID)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Connections exposes the connection registry.
func (s *Server) Connections() *ConnectionManager {
	return s.conns
}

// SendMessage sends a text message to the connection with the given ID.
// Returns an error if the connection does not exist or the write fails.
func (s *Server) SendMessage(connID string, data []byte) error {
	conn := s.conns.Get(connID)
	if conn == nil {
		return fmt.Errorf("ws: connection %s not found", connID)
	}
	if err := conn.WriteMessage(data); err != nil {
		s.removeConnection(connID)
		return fmt.Errorf("ws: write to %s failed: %w", connID, err)
	}
	return nil
}

// RemoveConnection removes and closes a connection by ID.
func (s *Server) RemoveConnection(connID string) {
	s.removeConnection(connID)
}

func (s *Server) removeConnection(connID string) {
	if !s.conns.Remove(connID) {
		return
	}
	if s.onDisconnect != nil {
		s.onDisconnect(connID)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","connections":%d}`, s.conns.Count())
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if s.conns.Count() >= s.config.MaxConnections {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	netConn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	now := time.Now()
	conn := &Connection{
		ID:        uuid.New().String(),
		Conn:      netConn,
		CreatedAt: now,
		lastPing:  now,
	}
	s.conns.Add(conn)
	log.Printf("[ws] connection %s established (%d active)", conn.ID, s.conns.Count())

	go s.readLoop(conn)
}

// readLoop reads messages from a single connection until it closes or
// errors. wsutil.ReadClientData transparently answers protocol-level ping
// and close frames.
func (s *Server) readLoop(conn *Connection) {
	defer s.removeConnection(conn.ID)

	for {
		data, op, err := wsutil.ReadClientData(conn.Conn)
		if err != nil {
			return
		}
		conn.Touch()
		if op != ws.OpText {
			continue
		}
		if s.onMessage != nil {
			s.onMessage(conn, data)
		}
	}
}
