package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gramkit/gramreply/internal/signature"
)

// Config holds webhook server configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string

	// VerifyToken must match hub.verify_token during the subscribe
	// handshake.
	VerifyToken string

	// StatusMessage is returned by GET /.
	StatusMessage string

	// MaxBodySize is the maximum allowed request body size in bytes
	// (default: 1MB).
	MaxBodySize int64
}

// Server is the webhook HTTP server.
type Server struct {
	config     Config
	verifier   *signature.Verifier
	dispatcher *Dispatcher
	logger     *slog.Logger
	server     *http.Server
}

// New creates a new webhook server instance.
func New(config Config, verifier *signature.Verifier, dispatcher *Dispatcher, logger *slog.Logger) *Server {
	if config.MaxBodySize == 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	if config.StatusMessage == "" {
		config.StatusMessage = "gramreply is running"
	}

	return &Server{
		config:     config,
		verifier:   verifier,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Start starts the webhook HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:    s.config.Listen,
		Handler: router,
		// Write timeout must cover two sequential 30s outbound calls;
		// dispatch runs before the response is written.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHome)
	r.Get("/webhook", s.handleVerify)
	r.Post("/webhook", s.handleDeliver)

	return r
}

// loggingMiddleware logs HTTP requests (excludes payload bodies).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// handleHome reports liveness.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "online",
		"message": s.config.StatusMessage,
	})
}

// handleVerify answers the Meta subscribe handshake: echo hub.challenge
// when the mode and token match, 403 otherwise. Idempotent, no state.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token == s.config.VerifyToken {
		s.logger.Info("webhook subscription verified")
		s.respondText(w, http.StatusOK, challenge)
		return
	}

	s.logger.Warn("webhook verification failed", "mode", mode)
	s.respondText(w, http.StatusForbidden, "Forbidden")
}

// handleDeliver receives comment notifications. Once the signature
// checks out the response is always OK/200: the platform flags
// subscriptions that see non-2xx responses, so processing failures must
// not surface here.
func (s *Server) handleDeliver(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodySize+1))
	if err != nil || int64(len(body)) > s.config.MaxBodySize {
		s.logger.Warn("webhook body rejected", "error", err, "size", len(body))
		s.respondText(w, http.StatusForbidden, "Invalid signature")
		return
	}

	if !s.verifier.Verify(body, r.Header.Get(SignatureHeader)) {
		s.logger.Warn("webhook signature verification failed")
		s.respondText(w, http.StatusForbidden, "Invalid signature")
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.logger.Error("webhook payload is not valid JSON", "error", err)
	} else {
		s.dispatcher.Dispatch(r.Context(), payload)
	}

	s.respondText(w, http.StatusOK, "OK")
}

// respondText sends a plaintext response.
func (s *Server) respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, body)
}
