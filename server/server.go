// Package server is the thin network boundary in front of the processing
// core: it turns an HTTP request into a job, blocks on that job's completion
// signal, and writes the result back. Every accepted image yields exactly one
// response; degraded results are communicated through the text and code
// fields, never through a failed request.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/wudi/ocrkit/pool"
)

// DefaultMaxBodyBytes caps an uploaded image at 32 MiB.
const DefaultMaxBodyBytes = 32 << 20

// Config holds server configuration.
type Config struct {
	// Addr is the listen address, default ":8080".
	Addr string
	// MaxConns caps concurrently accepted connections; 0 means unlimited.
	MaxConns int
	// MaxBodyBytes caps the request body, default DefaultMaxBodyBytes.
	MaxBodyBytes int64
	Logger       *zap.Logger
}

// Server exposes the processing pool over HTTP.
type Server struct {
	pool *pool.Pool
	cfg  Config
	log  *zap.Logger
	http *http.Server
}

// New builds a Server around a running pool.
func New(p *pool.Pool, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{pool: p, cfg: cfg, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/ocr", s.handleOCR)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the route mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// ListenAndServe blocks serving requests until Shutdown. The listener is
// capped at MaxConns concurrent connections when configured.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	if s.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConns)
	}
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting new requests and waits for in-flight handlers.
// The pool is shut down separately by the caller once the server is quiet.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
