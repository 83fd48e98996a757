// Package api exposes the bridge's host-facing HTTP surface: health and
// snapshot endpoints plus a websocket feed that pushes every published
// snapshot and button event.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/johnywind/HA-IoTiX/internal/adam"
	"github.com/johnywind/HA-IoTiX/internal/coordinator"
	"github.com/johnywind/HA-IoTiX/internal/projection"
)

const writeWait = 10 * time.Second

// Server provides the HTTP and websocket API for the bridge.
type Server struct {
	coord    *coordinator.Coordinator
	logger   *zap.Logger
	server   *http.Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan wsMessage
}

// NewServer creates the API server on the given port.
func NewServer(coord *coordinator.Coordinator, logger *zap.Logger, port int) *Server {
	s := &Server{
		coord:   coord,
		logger:  logger,
		clients: make(map[*websocket.Conn]chan wsMessage),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/entities", s.handleEntities)
	mux.HandleFunc("/ws", s.handleWebsocket)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// wsMessage is one framed push to a websocket client.
type wsMessage struct {
	Type    string      `json:"type"` // "snapshot" or "button_event"
	Payload interface{} `json:"payload"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	LastError string `json:"lastError,omitempty"`
}

// EntitiesResponse is the body of GET /api/entities.
type EntitiesResponse struct {
	Lights        []projection.Light        `json:"lights"`
	Switches      []projection.Switch       `json:"switches"`
	BinarySensors []projection.BinarySensor `json:"binarySensors"`
	Covers        []projection.Cover        `json:"covers"`
	Relays        []projection.RelaySwitch  `json:"relays"`
}

// handleHealth reports whether the last polling cycle succeeded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK
	if !s.coord.Healthy() {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
		if err := s.coord.LastError(); err != nil {
			resp.LastError = err.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// handleSnapshot serves the latest raw snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.coord.Snapshot()
	if snap == nil {
		http.Error(w, "No snapshot available yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Error("Failed to encode snapshot", zap.Error(err))
	}
}

// handleEntities serves the projected entity views.
func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.coord.Snapshot()
	if snap == nil {
		http.Error(w, "No snapshot available yet", http.StatusServiceUnavailable)
		return
	}

	resp := EntitiesResponse{
		Lights:        projection.Lights(snap),
		Switches:      projection.Switches(snap),
		BinarySensors: projection.BinarySensors(snap),
		Covers:        projection.Covers(snap),
		Relays:        projection.RelaySwitches(snap),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("Failed to encode entities", zap.Error(err))
	}
}

// handleWebsocket upgrades the connection and streams snapshots and
// button events until the client goes away.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Websocket upgrade failed", zap.Error(err))
		return
	}

	send := make(chan wsMessage, 16)
	s.mu.Lock()
	s.clients[conn] = send
	s.mu.Unlock()

	s.logger.Info("Websocket client connected", zap.String("remote_addr", r.RemoteAddr))

	// Send the current snapshot immediately so the client does not have
	// to wait a full poll cycle.
	if snap := s.coord.Snapshot(); snap != nil {
		select {
		case send <- wsMessage{Type: "snapshot", Payload: snap}:
		default:
		}
	}

	go s.writeLoop(conn, send)
	s.readLoop(conn, r.RemoteAddr)
}

// writeLoop drains the client's send channel onto the wire.
func (s *Server) writeLoop(conn *websocket.Conn, send chan wsMessage) {
	for msg := range send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Debug("Websocket write failed", zap.Error(err))
			conn.Close()
			return
		}
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	conn.Close()
}

// readLoop discards client frames and unregisters on disconnect.
func (s *Server) readLoop(conn *websocket.Conn, remoteAddr string) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	if send, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		close(send)
	}
	s.mu.Unlock()

	s.logger.Info("Websocket client disconnected", zap.String("remote_addr", remoteAddr))
}

// broadcast queues a message to every connected client. A client that
// cannot keep up has the message dropped rather than blocking the rest.
func (s *Server) broadcast(msg wsMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, send := range s.clients {
		select {
		case send <- msg:
		default:
			s.logger.Warn("Dropping websocket message for slow client",
				zap.String("remote_addr", conn.RemoteAddr().String()))
		}
	}
}

// BroadcastSnapshot pushes a snapshot to all websocket clients. Register
// it with the coordinator via OnSnapshot.
func (s *Server) BroadcastSnapshot(snap *coordinator.Snapshot) {
	s.broadcast(wsMessage{Type: "snapshot", Payload: snap})
}

// BroadcastButtonEvent pushes a button event to all websocket clients.
func (s *Server) BroadcastButtonEvent(event adam.ButtonEvent) {
	s.broadcast(wsMessage{Type: "button_event", Payload: event})
}

// Start begins serving in the background.
func (s *Server) Start() {
	s.logger.Info("Starting HTTP API server", zap.String("addr", s.server.Addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server and closes websocket clients.
func (s *Server) Stop() error {
	s.logger.Info("Stopping HTTP API server")

	s.mu.Lock()
	for conn, send := range s.clients {
		delete(s.clients, conn)
		close(send)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
