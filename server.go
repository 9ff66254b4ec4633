package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// BridgeServerSettings configures the WebSocket bridge.
type BridgeServerSettings struct {
	Host string
	Port int
	// LegacyEcho keeps the backward-compatible raw-text fallback: a frame
	// that is not a JSON command envelope is answered with an echo instead
	// of an error.
	LegacyEcho bool
	// RestartDelay is the pause before the single restart attempt after a
	// serve-loop failure.
	RestartDelay time.Duration
}

// DefaultBridgeServerSettings returns the standard local-bridge settings.
func DefaultBridgeServerSettings() *BridgeServerSettings {
	return &BridgeServerSettings{
		Host:         DefaultBridgeHost,
		Port:         DefaultBridgePort,
		LegacyEcho:   true,
		RestartDelay: 2 * time.Second,
	}
}

// bridgeConn is one client connection. Gorilla permits one concurrent
// writer, so responses and broadcast events share a write mutex.
type bridgeConn struct {
	ws  *websocket.Conn
	wmu sync.Mutex
}

func (c *bridgeConn) write(data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// BridgeServer owns the listening socket, accepts client connections,
// frames messages and forwards decoded commands to the Dispatcher. Each
// connection is served by one goroutine that fully handles a request before
// reading the next, so responses come back in request order.
type BridgeServer struct {
	dispatcher *Dispatcher
	registry   *DocumentRegistry
	settings   *BridgeServerSettings
	logger     *log.Logger
	upgrader   websocket.Upgrader

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
	conns      map[*bridgeConn]bool
	restarted  bool
	stopped    bool
}

// NewBridgeServer creates a bridge over the given dispatcher. The registry
// is needed to clear per-session targeting state on disconnect.
func NewBridgeServer(dispatcher *Dispatcher, registry *DocumentRegistry, settings *BridgeServerSettings, logger *log.Logger) *BridgeServer {
	if settings == nil {
		settings = DefaultBridgeServerSettings()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &BridgeServer{
		dispatcher: dispatcher,
		registry:   registry,
		settings:   settings,
		logger:     logger,
		upgrader: websocket.Upgrader{
			// The bridge serves local tooling; origin checks don't apply.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: map[*bridgeConn]bool{},
	}
}

func (s *BridgeServer) addr() string {
	return fmt.Sprintf("%s:%d", s.settings.Host, s.settings.Port)
}

// Addr returns the bound address, once started.
func (s *BridgeServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start binds the listening socket and begins serving. A port that is
// already bound is a startup error surfaced to the user; the bridge never
// silently moves to a different port.
func (s *BridgeServer) Start() error {
	listener, err := net.Listen("tcp", s.addr())
	if err != nil {
		return fmt.Errorf("failed to start bridge on %s (is another instance using the port?): %w",
			s.addr(), err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)

	s.mu.Lock()
	s.listener = listener
	s.httpServer = &http.Server{Handler: mux}
	s.mu.Unlock()

	go s.serve(listener)
	s.logger.Printf("Debrief bridge listening on ws://%s", listener.Addr())
	return nil
}

// serve runs the accept loop. A runtime failure triggers one delayed
// restart attempt; a second failure is surfaced and the server stays down.
func (s *BridgeServer) serve(listener net.Listener) {
	err := s.httpServer.Serve(listener)
	if err == http.ErrServerClosed || s.isStopped() {
		return
	}
	s.logger.Printf("Warning: bridge server failed: %v", err)

	s.mu.Lock()
	already := s.restarted
	s.restarted = true
	s.mu.Unlock()
	if already {
		s.logger.Printf("Bridge server failed again after restart; giving up")
		return
	}

	time.Sleep(s.settings.RestartDelay)
	next, err := net.Listen("tcp", s.addr())
	if err != nil {
		s.logger.Printf("Bridge restart failed: %v", err)
		return
	}
	s.mu.Lock()
	s.listener = next
	s.mu.Unlock()
	s.logger.Printf("Bridge restarted on ws://%s", next.Addr())
	s.serve(next)
}

// Stop closes the listener and every open connection.
func (s *BridgeServer) Stop() error {
	s.mu.Lock()
	s.stopped = true
	server := s.httpServer
	conns := make([]*bridgeConn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.ws.Close()
	}
	if server != nil {
		return server.Close()
	}
	return nil
}

func (s *BridgeServer) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// handleWS upgrades one client connection and runs its read loop.
func (s *BridgeServer) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("Warning: websocket upgrade failed: %v", err)
		return
	}
	conn := &bridgeConn{ws: ws}

	s.mu.Lock()
	s.conns[conn] = true
	s.mu.Unlock()

	// Welcome acknowledgement on open.
	conn.write(encodeResponse(CommandResponse{Result: WelcomeResult}))

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			break
		}
		if err := conn.write(s.handleMessage(msg)); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	ws.Close()

	// The next connection must not inherit this session's targeting state.
	s.registry.ClearCachedTarget()
}

// handleMessage decodes one frame and dispatches it. A frame that is not a
// JSON command envelope gets the legacy echo fallback rather than a hard
// close, unless the compatibility flag is off.
func (s *BridgeServer) handleMessage(msg []byte) []byte {
	var req CommandRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		if s.settings.LegacyEcho {
			return encodeResponse(CommandResponse{Result: EchoPrefix + string(msg)})
		}
		return encodeResponse(ErrorResponse{
			Error: InvalidInputError("Message is not a JSON command envelope: %v", err).Wire(),
		})
	}
	return s.dispatcher.Dispatch(req)
}

// broadcast pushes one UI event to every connected client, fire-and-forget.
func (s *BridgeServer) broadcast(event UIEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.mu.Lock()
	conns := make([]*bridgeConn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		if err := conn.write(data); err != nil {
			s.logger.Printf("Warning: failed to push %s event: %v", event.Type, err)
		}
	}
}

// BroadcastNotifier fans UI events out to every bridge client. Attach binds
// it to the server once both sides exist.
type BroadcastNotifier struct {
	mu     sync.RWMutex
	server *BridgeServer
}

// NewBroadcastNotifier creates an unbound notifier; events are dropped
// until Attach.
func NewBroadcastNotifier() *BroadcastNotifier {
	return &BroadcastNotifier{}
}

// Attach binds the notifier to a running server.
func (n *BroadcastNotifier) Attach(server *BridgeServer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.server = server
}

func (n *BroadcastNotifier) push(event UIEvent) {
	n.mu.RLock()
	server := n.server
	n.mu.RUnlock()
	if server != nil {
		server.broadcast(event)
	}
}

func (n *BroadcastNotifier) RefreshSelection(filename string, ids []string) {
	n.push(UIEvent{Type: "refreshSelection", Filename: filename, IDs: ids})
}

func (n *BroadcastNotifier) ZoomToSelection(filename string, ids []string) {
	n.push(UIEvent{Type: "zoomToSelection", Filename: filename, IDs: ids})
}

func (n *BroadcastNotifier) SetSelectionByIDs(filename string, ids []string) {
	n.push(UIEvent{Type: "setSelectionByIds", Filename: filename, IDs: ids})
}

func (n *BroadcastNotifier) ShowMessage(message string) {
	n.push(UIEvent{Type: "showMessage", Message: message})
}
