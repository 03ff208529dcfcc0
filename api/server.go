package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/0xnevsweb/mitanda-chain/api/handlers"
	"github.com/0xnevsweb/mitanda-chain/api/middleware"
	"github.com/0xnevsweb/mitanda-chain/api/types"
	"github.com/0xnevsweb/mitanda-chain/api/websocket"
	"github.com/0xnevsweb/mitanda-chain/metrics"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	wsServer   *websocket.Server
	config     *Config

	service     types.TandaService
	poolHandler *handlers.PoolHandler
	rateLimiter *middleware.RateLimiter

	// Set only in standalone keeper mode; enables the dev oracle
	// endpoint.
	keeperService *KeeperService
}

// Config contains server configuration
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	DisableRateLimit bool // For testing purposes
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// NewServer creates an API server backed by an embedded pool keeper
// over an in-memory store.
func NewServer(config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}

	service, err := NewKeeperService()
	if err != nil {
		return nil, fmt.Errorf("failed to create keeper service: %w", err)
	}

	return newServerWithKeeperService(config, service), nil
}

// NewServerWithService creates an API server with a custom service
// implementation.
func NewServerWithService(config *Config, service types.TandaService) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	wsConfig := websocket.DefaultServerConfig()
	wsConfig.Port = config.Port

	s := &Server{
		config:      config,
		wsServer:    websocket.NewServer(wsConfig),
		service:     service,
		rateLimiter: middleware.NewRateLimiter(middleware.DefaultRateLimitConfig()),
	}
	s.poolHandler = handlers.NewPoolHandler(s.service)
	return s
}

func newServerWithKeeperService(config *Config, service *KeeperService) *Server {
	s := NewServerWithService(config, service)

	s.keeperService = service

	// Forward keeper lifecycle events to WebSocket subscribers.
	listener := NewEventListener(s.wsServer.GetHub())
	service.Keeper().SetListener(listener)

	return s
}

// Start starts the API server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Health check (support both /health and /v1/health for compatibility)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/health", s.handleHealth)

	// Pool listing and creation
	mux.HandleFunc("/v1/pools", s.instrument("/v1/pools", s.poolHandler.HandlePools))
	mux.HandleFunc("/v1/pools/", s.instrument("/v1/pools/{id}", s.handlePoolRoutes))

	// Member-specific endpoints
	mux.HandleFunc("/v1/members/", s.instrument("/v1/members/{addr}", s.handleMemberRoutes))

	// Module parameters
	mux.HandleFunc("/v1/params", s.instrument("/v1/params", s.poolHandler.GetParams))

	// WebSocket
	mux.HandleFunc("/ws", s.wsServer.GetHub().ServeWS)

	// Prometheus metrics
	mux.Handle("/metrics", metrics.GetCollector().Handler())

	// Rate limiter stats
	mux.HandleFunc("/v1/ratelimit/stats", s.handleRateLimitStats)

	// Apply middleware chain: CORS -> RateLimit -> Handler
	var handler http.Handler
	if s.config.DisableRateLimit {
		handler = corsMiddleware(mux)
	} else {
		handler = corsMiddleware(
			middleware.RateLimitMiddleware(s.rateLimiter)(mux),
		)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	// Start WebSocket hub
	go s.wsServer.GetHub().Run()

	log.Printf("API server starting on %s", addr)
	if s.config.DisableRateLimit {
		log.Printf("Rate limiting DISABLED (for testing)")
	}
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.httpServer.Shutdown(ctx)
}

// Service returns the underlying pool service
func (s *Server) Service() types.TandaService {
	return s.service
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"warning":   "This API uses in-memory storage. For production, connect to a running chain node.",
	})
}

// handleRateLimitStats handles rate limiter statistics requests
func (s *Server) handleRateLimitStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.rateLimiter.GetStats())
}

// handleFulfillRandomness plays oracle for the embedded keeper so the
// standalone gateway can move a pool past the shuffle without a chain.
// Unavailable when the server fronts a real service.
func (s *Server) handleFulfillRandomness(w http.ResponseWriter, r *http.Request) {
	if s.keeperService == nil {
		writeError(w, http.StatusNotFound, "Endpoint not found")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		RequestID string `json:"request_id"`
		Value     uint64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The request id can be omitted; resolve it from the pool's
	// pending entry.
	if req.RequestID == "" {
		info, err := s.keeperService.GetPendingRandomness(r.Context(), r.Header.Get("X-Pool-ID"))
		if err != nil {
			writeError(w, http.StatusNotFound, "No pending randomness request")
			return
		}
		req.RequestID = info.RequestID
	}

	pool, err := s.keeperService.FulfillRandomness(r.Context(), req.RequestID, req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

// handlePoolRoutes handles /v1/pools/{poolId}/* endpoints
func (s *Server) handlePoolRoutes(w http.ResponseWriter, r *http.Request) {
	// Parse path: /v1/pools/{poolId} or /v1/pools/{poolId}/{endpoint}
	path := r.URL.Path[len("/v1/pools/"):]

	poolID := path
	endpoint := ""
	for i, c := range path {
		if c == '/' {
			poolID = path[:i]
			endpoint = path[i+1:]
			break
		}
	}

	if poolID == "" {
		writeError(w, http.StatusBadRequest, "Pool ID required")
		return
	}

	// Set pool ID in request for handler
	r.Header.Set("X-Pool-ID", poolID)

	switch endpoint {
	case "":
		s.poolHandler.GetPool(w, r)
	case "participants":
		s.poolHandler.GetParticipants(w, r)
	case "evictions":
		s.poolHandler.GetEvictions(w, r)
	case "next-payout":
		s.poolHandler.GetNextPayout(w, r)
	case "randomness":
		s.poolHandler.GetPendingRandomness(w, r)
	case "join":
		s.txLimited(s.poolHandler.JoinPool)(w, r)
	case "contribute":
		s.txLimited(s.poolHandler.Contribute)(w, r)
	case "payout":
		s.txLimited(s.poolHandler.TriggerPayout)(w, r)
	case "remove":
		s.txLimited(s.poolHandler.RemoveParticipant)(w, r)
	case "fulfill-randomness":
		s.txLimited(s.handleFulfillRandomness)(w, r)
	default:
		writeError(w, http.StatusNotFound, "Endpoint not found")
	}
}

// handleMemberRoutes handles /v1/members/{address}/* endpoints
func (s *Server) handleMemberRoutes(w http.ResponseWriter, r *http.Request) {
	// Parse path: /v1/members/{address}/{endpoint}
	path := r.URL.Path[len("/v1/members/"):]

	address := path
	endpoint := ""
	for i, c := range path {
		if c == '/' {
			address = path[:i]
			endpoint = path[i+1:]
			break
		}
	}

	if address == "" {
		writeError(w, http.StatusBadRequest, "Member address required")
		return
	}

	// Set address in request for handler
	r.Header.Set("X-Member-Address", address)

	switch endpoint {
	case "", "pools":
		s.poolHandler.GetMemberPools(w, r)
	default:
		writeError(w, http.StatusNotFound, "Endpoint not found")
	}
}

// txLimited wraps a write handler with the stricter transaction rate
// limit.
func (s *Server) txLimited(h http.HandlerFunc) http.HandlerFunc {
	if s.config.DisableRateLimit {
		return h
	}
	limited := middleware.TxRateLimitMiddleware(s.rateLimiter)(h)
	return limited.ServeHTTP
}

// instrument records request counts and latency for an endpoint.
func (s *Server) instrument(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer(endpoint, r.Method)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		timer.ObserveDuration()
		metrics.GetCollector().RecordAPIRequest(endpoint, r.Method, fmt.Sprintf("%d", rec.status))
		if rec.status >= 400 {
			metrics.GetCollector().RecordAPIError(endpoint, fmt.Sprintf("%d", rec.status))
		}
	}
}

// statusRecorder captures the response status for metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Member-Address")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
