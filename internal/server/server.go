package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hello-world-aws/internal/render"
)

const (
	DefaultAddr = ":8080"

	shutdownTimeout = 10 * time.Second
)

// Server serves the rendered page over plain HTTP for local previews, shaping each
// request the way a Lambda Function URL would before handing it to the renderer.
type Server struct {
	renderer   *render.Renderer
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
	listener   net.Listener
}

// New returns a Server with its routes registered. Call Start to listen.
func New(renderer *render.Renderer, logger *slog.Logger) *Server {
	s := &Server{
		renderer: renderer,
		logger:   logger,
		router:   chi.NewRouter(),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	// Function URLs have no routing; every path and method gets the page.
	r.Handle("/*", http.HandlerFunc(s.handlePage))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on addr and serves in the background.
func (s *Server) Start(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.listener = l
	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("Running preview server", "addr", l.Addr().String())

	go func() {
		if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Preview server stopped", "error", err)
		}
	}()

	return nil
}

// Addr reports the address the server is listening on, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops the server, waiting up to shutdownTimeout for open requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	resp := s.renderer.Render(Envelope(r))

	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(resp.StatusCode)
	if r.Method != http.MethodHead {
		w.Write([]byte(resp.Body))
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("Request handled",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(started),
		)
	})
}

// Envelope builds the request envelope a Function URL would deliver for r. Header
// names are lower-cased and repeated values joined with commas.
func Envelope(r *http.Request) map[string]any {
	headers := make(map[string]any, len(r.Header))
	for name, values := range r.Header {
		headers[strings.ToLower(name)] = strings.Join(values, ",")
	}

	desc := map[string]any{
		"method":   r.Method,
		"path":     r.URL.Path,
		"protocol": r.Proto,
	}
	if ip := sourceIP(r.RemoteAddr); ip != "" {
		desc["sourceIp"] = ip
	}

	return map[string]any{
		"rawPath":        r.URL.Path,
		"requestContext": map[string]any{"http": desc},
		"headers":        headers,
	}
}

func sourceIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
