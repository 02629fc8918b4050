// Package admin serves metrics and health endpoints while an exchange is running.
package admin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srediag/plugin-mq/api"
	"github.com/srediag/plugin-mq/internal/logging"
)

const maxGoroutines = 100

// Server exposes /metrics, /live and /ready.
type Server struct {
	addr   string
	health healthcheck.Handler
	srv    *http.Server
	ln     net.Listener
	log    *logging.Logger
}

// New builds a server for addr. Nothing listens until Start.
func New(addr string, gatherer prometheus.Gatherer, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(maxGoroutines))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/live", health.LiveEndpoint)
	mux.HandleFunc("/ready", health.ReadyEndpoint)

	return &Server{
		addr:   addr,
		health: health,
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// AddReadiness makes /ready fail while p is not ready.
func (s *Server) AddReadiness(name string, p api.Probe) {
	s.health.AddReadinessCheck(name, p.Ready)
}

// Start listens and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("admin server: %v", err)
		}
	}()
	s.log.Infof("admin server listening on %s", ln.Addr())
	return nil
}

// Addr is the bound address once started.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.addr
	}
	return s.ln.Addr().String()
}

// Shutdown stops the server, waiting for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.ln == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
