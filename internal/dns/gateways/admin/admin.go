package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haukened/rr-hostblock/internal/dns/common/log"
	"github.com/haukened/rr-hostblock/internal/dns/common/utils"
	"github.com/haukened/rr-hostblock/internal/dns/domain"
	"github.com/haukened/rr-hostblock/internal/dns/services/filter"
)

const (
	requestTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Checker answers lookups and reports counters. *filter.Service implements it.
type Checker interface {
	Check(name string) domain.BlockDecision
	Stats() filter.Stats
}

// Trigger requests an asynchronous rebuild. *refresher.Refresher implements it.
type Trigger interface {
	Trigger()
}

// Options configures the admin API. Checker is required.
type Options struct {
	Checker  Checker
	Trigger  Trigger
	Gatherer prometheus.Gatherer
	Logger   log.Logger
}

type api struct {
	checker Checker
	trigger Trigger
	logger  log.Logger
}

// checkResponse is the body of GET /v1/check/{host}.
type checkResponse struct {
	Host        string `json:"host"`
	Apex        string `json:"apex"`
	Blocked     bool   `json:"blocked"`
	MatchedRule string `json:"matched_rule,omitempty"`
	Depth       int    `json:"depth"`
	Generation  uint64 `json:"generation"`
}

// NewRouter builds the admin routes.
func NewRouter(opts Options) *chi.Mux {
	a := &api{checker: opts.Checker, trigger: opts.Trigger, logger: opts.Logger}
	if a.logger == nil {
		a.logger = log.NewNoopLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Timeout(requestTimeout))

	r.Get("/healthz", a.health)
	r.Get("/v1/check/{host}", a.check)
	r.Post("/v1/rebuild", a.rebuild)
	r.Get("/v1/stats", a.stats)
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *api) check(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")
	d := a.checker.Check(host)
	writeJSON(w, http.StatusOK, checkResponse{
		Host:        host,
		Apex:        utils.GetApexDomain(host),
		Blocked:     d.Blocked,
		MatchedRule: d.MatchedRule,
		Depth:       d.Depth,
		Generation:  d.Generation,
	})
}

func (a *api) rebuild(w http.ResponseWriter, r *http.Request) {
	if a.trigger == nil {
		http.Error(w, "rebuilds are not scheduled by this process", http.StatusServiceUnavailable)
		return
	}
	a.trigger.Trigger()
	a.logger.Info(map[string]any{"request_id": middleware.GetReqID(r.Context()), "remote": r.RemoteAddr}, "rebuild_requested")
	writeJSON(w, http.StatusAccepted, map[string]any{"queued": true})
}

func (a *api) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.checker.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Server serves an admin router on a TCP address.
type Server struct {
	addr   string
	srv    *http.Server
	logger log.Logger
}

// NewServer wraps handler in an http.Server listening on addr.
func NewServer(addr string, handler http.Handler, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Server{
		addr:   addr,
		srv:    &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: requestTimeout},
		logger: logger,
	}
}

// Run listens and serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("admin listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info(map[string]any{"addr": ln.Addr().String()}, "admin_listening")
	errc := make(chan error, 1)
	go func() { errc <- s.srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("admin shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info(nil, "admin_stopped")
	return nil
}
