// Package server exposes a factory over a websocket so that browsers and
// tools can construct controllers and trigger events remotely. Every
// connected client also hears about blueprint registrations.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/fab/internal/config"
	"github.com/conneroisu/fab/internal/controller"
	fabErrors "github.com/conneroisu/fab/internal/errors"
	"github.com/conneroisu/fab/internal/logging"
	"github.com/conneroisu/fab/internal/registry"
	"github.com/conneroisu/fab/internal/version"
)

// Server bridges websocket clients to a controller factory.
type Server struct {
	config  *config.ServerConfig
	factory *controller.Factory
	logger  logging.Logger
	errors  *fabErrors.ErrorHandler

	httpServer  *http.Server
	serverMutex sync.RWMutex

	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *Client

	// registry events are subscribed at construction so that nothing
	// registered before Run is missed
	blueprints <-chan registry.Event

	// construction and dispatch run one at a time
	dispatchMutex sync.Mutex

	done         chan struct{}
	shutdownOnce sync.Once
}

// New creates a server for f. A nil logger discards output.
func New(cfg *config.ServerConfig, f *controller.Factory, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	logger = logger.WithComponent("server")

	return &Server{
		config:     cfg,
		factory:    f,
		logger:     logger,
		errors:     fabErrors.NewErrorHandler(logger),
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		blueprints: f.Registry().Watch(),
		done:       make(chan struct{}),
	}
}

// Handler returns the HTTP routes wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return s.addMiddleware(mux)
}

// Run drives the client hub and relays registry events until ctx is
// cancelled or the server shuts down.
func (s *Server) Run(ctx context.Context) {
	go s.relayBlueprints(ctx)
	s.runHub(ctx)
}

// Start serves on host:port and blocks until the server stops.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.Run(ctx)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Server listening", "addr", ln.Addr().String())
	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and disconnects every client.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")
		close(s.done)
		s.factory.Registry().UnWatch(s.blueprints)

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()
		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

func (s *Server) relayBlueprints(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case ev, ok := <-s.blueprints:
			if !ok {
				return
			}
			s.broadcastMessage(ctx, Message{
				Type:      TypeBlueprint,
				Name:      ev.Name,
				Event:     ev.Type.String(),
				Timestamp: ev.Timestamp,
			})
		}
	}
}

func (s *Server) broadcastMessage(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to marshal message", "type", msg.Type)
		return
	}

	select {
	case s.broadcast <- data:
	case <-s.done:
	case <-ctx.Done():
	}
}

func (s *Server) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// isAllowedOrigin reports whether origin is listed in allowed_origins.
func (s *Server) isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range s.config.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// originPatterns lists the hosts websocket.Accept should let through in
// addition to same-origin requests.
func (s *Server) originPatterns() []string {
	port := s.config.Port
	patterns := []string{
		net.JoinHostPort("localhost", fmt.Sprint(port)),
		net.JoinHostPort("127.0.0.1", fmt.Sprint(port)),
	}
	if s.config.Host != "" {
		patterns = append(patterns, net.JoinHostPort(s.config.Host, fmt.Sprint(port)))
	}
	for _, origin := range s.config.AllowedOrigins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return patterns
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]any{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"version":    version.GetShortVersion(),
		"build_info": version.GetBuildInfo(),
		"blueprints": s.factory.Registry().Count(),
		"clients":    s.ClientCount(),
	}
	if t := s.factory.Tracker(); t != nil {
		health["constructed"] = t.Total()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode health response")
	}
}
