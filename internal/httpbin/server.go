// Package httpbin is the mock web server scenarios load pages from. It serves
// test data and a handful of httpbin-style endpoints and records every
// request it gets.
package httpbin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/axs221/qutebrowser/internal/config"
	"github.com/axs221/qutebrowser/internal/logbook"
	"github.com/axs221/qutebrowser/pkg/logging"
)

const subsystem = "httpbin"

// Server is the mock HTTP server.
type Server struct {
	cfg      config.HTTPBinConfig
	requests *logbook.Book[Request]
	router   chi.Router

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	done       chan struct{}
}

// New creates a Server. Call Start to begin listening.
func New(cfg config.HTTPBinConfig) *Server {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	s := &Server{
		cfg:      cfg,
		requests: logbook.New[Request](),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Get("/", s.handleIndex)
	r.Get("/data/*", s.handleData)
	r.Get("/headers", handleHeaders)
	r.Get("/user-agent", handleUserAgent)
	r.Get("/ip", handleIP)
	r.Get("/get", handleGet)
	r.HandleFunc("/status/{code}", handleStatus)
	r.Get("/redirect/{n}", handleRedirect)
	r.Get("/redirect-to", handleRedirectTo)
	r.Get("/cookies", handleCookies)
	r.Get("/cookies/set", handleSetCookies)
	r.Get("/basic-auth/{user}/{passwd}", handleBasicAuth)
	r.Get("/html", handleHTML)
	return r
}

// record stores every request once the handler wrote its response.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		req := Request{Verb: r.Method, Path: r.URL.Path, Status: status}
		logging.Debug(subsystem, "%s", req)
		s.requests.Append(req)
	})
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return fmt.Errorf("httpbin server already started")
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(subsystem, err, "HTTP server error")
		}
	}()

	s.httpServer = srv
	s.listener = ln
	s.done = done
	logging.Info(subsystem, "Serving %s on http://%s", s.cfg.DataDir, ln.Addr())
	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	done := s.done
	s.httpServer = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	<-done
	if err != nil {
		return fmt.Errorf("failed to stop httpbin server: %w", err)
	}
	return nil
}

// Port returns the port the server listens on, or 0 before Start.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Requests returns all requests recorded since the last Clear.
func (s *Server) Requests() []Request {
	return s.requests.Values()
}

// Clear forgets the recorded requests.
func (s *Server) Clear() {
	s.requests.Clear()
}

// WaitFor blocks until a request with verb and path is recorded that was not
// waited for before.
func (s *Server) WaitFor(ctx context.Context, verb, path string) (Request, error) {
	want := ExpectedRequest{Verb: verb, Path: normalizePath(path)}
	e, err := s.requests.WaitFor(ctx, func(r Request) bool { return r.Expected() == want }, false)
	if err != nil {
		return Request{}, fmt.Errorf("waiting for request %s: %w", want, err)
	}
	return e.Value, nil
}

// ExpectNewRequest runs action and blocks until at least one more request is
// recorded.
func (s *Server) ExpectNewRequest(ctx context.Context, action func() error) (Request, error) {
	before := s.requests.Len()
	if err := action(); err != nil {
		return Request{}, err
	}
	if err := s.requests.WaitForCount(ctx, before+1); err != nil {
		return Request{}, fmt.Errorf("waiting for a new request: %w", err)
	}
	return s.requests.Values()[before], nil
}
