package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"launchpad/core"
	"launchpad/observability"
	"launchpad/observability/logging"
)

const (
	maxRequestBytes   = 1 << 20 // 1 MiB
	readHeaderTimeout = 5 * time.Second
	requestIDHeader   = "X-Request-Id"
)

// ServerConfig controls authentication and throttling of the JSON-RPC
// endpoint. An empty AuthToken disables every state-changing method.
// State-changing requests must also carry a secp256k1 signature by their
// caller unless AllowUnsigned is set.
type ServerConfig struct {
	AuthToken         string
	AllowUnsigned     bool
	RequestsPerMinute float64
	Burst             int
}

type requestIDKey struct{}

// Server exposes the launchpad node over JSON-RPC 2.0.
type Server struct {
	node    *core.Node
	cfg     ServerConfig
	limiter *rateLimiter
	logger  *slog.Logger

	serverMu   sync.Mutex
	httpServer *http.Server
}

func NewServer(node *core.Node, cfg ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.AuthToken = strings.TrimSpace(cfg.AuthToken)
	return &Server{
		node:    node,
		cfg:     cfg,
		limiter: newRateLimiter(cfg.RequestsPerMinute, cfg.Burst),
		logger:  logger,
	}
}

// Handler returns the HTTP routes served by the node.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	r.Post("/rpc", s.handle)
	return r
}

// Serve accepts connections on listener until Shutdown is called.
func (s *Server) Serve(listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.serverMu.Lock()
	s.httpServer = srv
	s.serverMu.Unlock()
	s.logger.Info("json-rpc server listening", slog.String("addr", listener.Addr().String()))
	err := srv.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.serverMu.Lock()
	srv := s.httpServer
	s.serverMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	w.Header().Set("Content-Type", "application/json")

	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	status := s.dispatch(w, r, req)
	module := moduleOf(req.Method)
	observability.ModuleMetrics().Observe(module, req.Method, status, time.Since(start))
	s.logger.Debug("rpc request",
		slog.String("requestid", requestIDFrom(r.Context())),
		slog.String("method", req.Method),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)))
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) int {
	m, ok := methods[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return http.StatusNotFound
	}
	if !s.limiter.allow(clientSource(r)) {
		observability.ModuleMetrics().RecordThrottle(moduleOf(req.Method), "rate_limit")
		writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "rate limit exceeded", nil)
		return http.StatusTooManyRequests
	}
	if m.mutates {
		if authErr := s.requireAuth(r); authErr != nil {
			s.logger.Warn("rpc authentication failed",
				slog.String("requestid", requestIDFrom(r.Context())),
				slog.String("method", req.Method),
				logging.MaskField("authorization", r.Header.Get("Authorization")),
				slog.String("reason", authErr.Message))
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return http.StatusUnauthorized
		}
		if status, sigErr := s.verifyCaller(r, req); sigErr != nil {
			s.logger.Warn("rpc signature rejected",
				slog.String("requestid", requestIDFrom(r.Context())),
				slog.String("method", req.Method),
				logging.MaskField("signature", r.Header.Get(signatureHeader)),
				slog.String("reason", sigErr.Message))
			writeError(w, status, req.ID, sigErr.Code, sigErr.Message, sigErr.Data)
			return status
		}
	}
	result, err := m.handle(s, req)
	if err != nil {
		status, code, message, data := classify(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("rpc handler failed",
				slog.String("requestid", requestIDFrom(r.Context())),
				slog.String("method", req.Method),
				slog.String("error", err.Error()))
		}
		writeError(w, status, req.ID, code, message, data)
		return status
	}
	writeResult(w, req.ID, result)
	return http.StatusOK
}

func clientSource(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
