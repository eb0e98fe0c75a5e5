package api

import (
	"net/http"

	"github.com/teamvault/teamvault/internal/auth"
	"github.com/teamvault/teamvault/internal/db"
)

// Server holds all dependencies for the HTTP API.
type Server struct {
	db         *db.DB
	auth       *auth.Auth
	zkHandlers *ZKHandlers
	mux        *http.ServeMux
	rl         *rateLimiter
}

// NewServer creates a new API server with all routes configured.
func NewServer(database *db.DB, authSvc *auth.Auth, zkHandlers *ZKHandlers) *Server {
	s := &Server{
		db:         database,
		auth:       authSvc,
		zkHandlers: zkHandlers,
		mux:        http.NewServeMux(),
		rl:         newRateLimiter(100, 200), // 100 req/s per IP, burst 200
	}

	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	// Chain middleware: CORS → request ID → rate limiting → logging → routes.
	// Responses are not passed through redactingResponseWriter, and
	// securityHeadersMiddleware is not part of this chain.
	var handler http.Handler = s.mux
	handler = s.loggingMiddleware(handler)
	handler = rateLimitMiddleware(s.rl)(handler)
	handler = requestIDMiddleware(handler)
	handler = corsMiddleware(handler)
	return handler
}

// DB returns the database for use by health checks.
func (s *Server) DB() *db.DB {
	return s.db
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no auth required)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ready", s.handleReady)

	// Auth endpoints (no auth required)
	s.mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	// Auth-required endpoints
	s.mux.Handle("GET /api/v1/auth/me", s.authMiddleware(http.HandlerFunc(s.handleMe)))

	// ZK (Zero-Knowledge) credential issuance and verification
	s.mux.Handle("POST /api/v1/auth/zk/credential", s.authMiddleware(http.HandlerFunc(s.handleZKCredential)))
	s.mux.HandleFunc("POST /api/v1/auth/zk/verify", s.handleZKVerify) // No auth required for verification
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
