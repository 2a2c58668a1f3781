// ABOUTME: Streamable HTTP transport for the MCP server.
// ABOUTME: Session lifecycle, protocol version checks, body caps.

package mcp

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// session tracks one active MCP client.
type session struct {
	id              string
	protocolVersion string
	createdAt       time.Time
}

// sessionStore manages active sessions in memory.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

func (s *sessionStore) create(protocolVersion string) *session {
	sess := &session{
		id:              uuid.New().String(),
		protocolVersion: protocolVersion,
		createdAt:       time.Now(),
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess
}

func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	return sess, ok
}

func (s *sessionStore) delete(id string) bool {
	s.mu.Lock()
	_, existed := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	return existed
}

// ServerConfig holds configuration for the HTTP transport.
type ServerConfig struct {
	Handler *Handler
	Logger  *slog.Logger
	// Metrics, when set, is served at /metrics.
	Metrics *Metrics
	Version string
}

// Server serves MCP over the Streamable HTTP transport: a single /mcp
// endpoint taking JSON-RPC POSTs and session DELETEs, plus /health and
// /info.
type Server struct {
	handler  *Handler
	logger   *slog.Logger
	metrics  *Metrics
	version  string
	sessions *sessionStore
}

// NewServer creates the HTTP transport around a protocol handler.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Handler == nil {
		return nil, errors.New("handler is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	return &Server{
		handler:  cfg.Handler,
		logger:   logger,
		metrics:  cfg.Metrics,
		version:  version,
		sessions: newSessionStore(),
	}, nil
}

// RegisterRoutes registers the MCP endpoint and the sidecar endpoints
// on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/mcp", s.handleMCP)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/info", s.handleInfo)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"name":            "dremio-mcp",
		"version":         s.version,
		"protocolVersion": latestProtocolVersion,
	})
}

// handleMCP is the single MCP endpoint supporting POST and DELETE per
// the Streamable HTTP transport spec.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		// Server-initiated SSE streams are not supported.
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleDelete terminates a session.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		http.Error(w, "Bad Request: missing Mcp-Session-Id", http.StatusBadRequest)
		return
	}
	if !s.sessions.delete(sessionID) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	s.logger.Info("MCP session terminated", "session_id", sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// handlePost processes JSON-RPC messages sent via HTTP POST.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	protoVersion := r.Header.Get("Mcp-Protocol-Version")

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.writeResponse(w, errorResponse(nil, JSONRPCParseError, "failed to read request body", nil))
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		s.writeResponse(w, errorResponse(nil, JSONRPCInvalidRequest, "request body too large", nil))
		return
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeResponse(w, errorResponse(nil, JSONRPCParseError, "invalid JSON", nil))
		return
	}

	isInitialize := req.Method == "initialize"

	// Per spec the assumed version on a missing header is the oldest
	// supported one; anything explicit must be recognized.
	if !isInitialize && protoVersion != "" && !supportedProtocolVersions[protoVersion] {
		http.Error(w, "Bad Request: unsupported MCP-Protocol-Version", http.StatusBadRequest)
		return
	}

	if isInitialize {
		// Malformed or absent params fall back to the latest version.
		var params InitializeParams
		if len(req.Params) > 0 {
			_ = json.Unmarshal(req.Params, &params)
		}
		sess := s.sessions.create(negotiateProtocolVersion(params.ProtocolVersion))
		s.logger.Info("MCP session created",
			"session_id", sess.id,
			"protocol_version", sess.protocolVersion,
		)
		w.Header().Set("Mcp-Session-Id", sess.id)
	} else {
		if sessionID == "" {
			http.Error(w, "Bad Request: missing Mcp-Session-Id", http.StatusBadRequest)
			return
		}
		if _, ok := s.sessions.get(sessionID); !ok {
			// Session expired or invalid; the client must re-initialize.
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
	}

	s.logger.Debug("MCP request",
		"method", req.Method,
		"session_id", sessionID,
	)

	resp := s.handler.Handle(r.Context(), &req)
	if resp == nil {
		// Notification: accepted, no body.
		w.WriteHeader(http.StatusAccepted)
		return
	}
	s.writeResponse(w, resp)
}

func (s *Server) writeResponse(w http.ResponseWriter, resp *JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC response", "error", err)
	}
}
