package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openmohaa/fourthdown-api/internal/config"
	"github.com/openmohaa/fourthdown-api/internal/handlers"
	"github.com/openmohaa/fourthdown-api/internal/logic"
	"github.com/openmohaa/fourthdown-api/internal/lookup"
	"github.com/openmohaa/fourthdown-api/internal/worker"
)

// Server runs the HTTP API and, when enabled, the lookup file watcher.
type Server struct {
	cfg     *config.Config
	store   *lookup.Store
	logger  *zap.Logger
	pool    *worker.Pool
	httpSrv *http.Server
}

// New wires the handlers and starts the batch worker pool. The pool is
// stopped when Serve returns.
func New(cfg *config.Config, store *lookup.Store, logger *zap.Logger) *Server {
	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount: cfg.BatchWorkers,
		QueueSize:   cfg.BatchQueueSize,
		Logger:      logger,
	})
	pool.Start(context.Background())

	h := handlers.New(handlers.Config{
		Decisions:    logic.NewDecisionService(store),
		Lookups:      store,
		Batches:      pool,
		Logger:       logger,
		MaxBatchRows: cfg.MaxBatchRows,
	})

	router := NewRouter(h, RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	return &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
		pool:   pool,
		httpSrv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			// Leave headroom for the handler timeout middleware to respond
			WriteTimeout: cfg.RequestTimeout + 5*time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run serves until ctx is cancelled or a component fails, then shuts the
// HTTP server down gracefully. The worker pool is stopped on every return path.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		s.pool.Stop()
		return fmt.Errorf("listen on %s: %w", s.httpSrv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := s.logger.Sugar()
	defer s.pool.Stop()

	var watcher *lookup.Watcher
	if s.cfg.LookupsWatch {
		w, err := lookup.NewWatcher(s.store, s.cfg.LookupsPath, s.cfg.LookupsWatchDebounce, s.logger)
		if err != nil {
			ln.Close()
			return err
		}
		watcher = w
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infow("HTTP server listening", "addr", ln.Addr().String(), "env", s.cfg.Env)
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
