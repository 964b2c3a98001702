package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akashsiripuram/Nexus/internal/config"
	"github.com/akashsiripuram/Nexus/internal/relay"
)

const shutdownTimeout = 5 * time.Second

// Server ties the relay loop to its HTTP listener.
type Server struct {
	cfg   *config.Config
	log   *zap.Logger
	relay *relay.Relay
	http  *http.Server
}

// New wires a relay, its metrics and the HTTP routes.
func New(cfg *config.Config, log *zap.Logger) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rl := relay.New(
		relay.WithLogger(log.Named("relay")),
		relay.WithMetrics(relay.NewMetrics(reg)),
	)

	return &Server{
		cfg:   cfg,
		log:   log,
		relay: rl,
		http: &http.Server{
			Handler:           Routes(rl, cfg, reg, log.Named("http")),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the routes, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Relay returns the server's relay.
func (s *Server) Relay() *relay.Relay {
	return s.relay
}

// ListenAndServe binds cfg's address and serves until ctx is cancelled.
// A bind failure is returned immediately.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the relay loop and the HTTP server on ln until ctx is
// cancelled or either of them fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.relay.Run(gctx)
	})

	g.Go(func() error {
		s.log.Info("chat relay listening", zap.String("addr", ln.Addr().String()))
		if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

func (s *Server) shutdown() error {
	s.log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.http.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		err = multierr.Append(err, s.http.Close())
	}
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
