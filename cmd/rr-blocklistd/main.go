package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/haukened/rr-blocklist/internal/dns/common/clock"
	"github.com/haukened/rr-blocklist/internal/dns/common/log"
	"github.com/haukened/rr-blocklist/internal/dns/config"
	"github.com/haukened/rr-blocklist/internal/dns/gateways/feed"
	"github.com/haukened/rr-blocklist/internal/dns/gateways/httpapi"
	"github.com/haukened/rr-blocklist/internal/dns/repos/blocklist"
	"github.com/haukened/rr-blocklist/internal/dns/repos/blocklist/bloom"
	"github.com/haukened/rr-blocklist/internal/dns/repos/blocklist/lru"
	"github.com/haukened/rr-blocklist/internal/dns/repos/blocklist/parsers"
	"github.com/haukened/rr-blocklist/internal/dns/repos/listsource"
	"github.com/haukened/rr-blocklist/internal/dns/services/refresh"
)

const (
	appName = "rr-blocklistd"

	defaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

// Application holds all the components of the blocklist daemon.
type Application struct {
	config  *config.AppConfig
	repo    blocklist.Repository
	refresh *refresh.Service
	handler http.Handler
	logger  log.Logger

	// shutdownTimeout bounds the wait for the server and an in-flight rebuild.
	shutdownTimeout time.Duration

	// ready is closed once the HTTP listener is bound; addr is valid after.
	ready chan struct{}
	addr  net.Addr
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":          config.Version,
		"env":              cfg.Env,
		"log_level":        cfg.LogLevel,
		"listen":           cfg.Listen,
		"cache_dir":        cfg.CacheDir,
		"sources":          cfg.Sources,
		"restore_on_start": cfg.RestoreOnStart,
	}, "starting_"+appName)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := buildApplication(cfg, reg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "build_application_failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	if err := app.Run(ctx, hup); err != nil {
		log.Fatal(map[string]any{"error": err}, "daemon_failed")
	}

	log.Info(nil, "daemon_stopped")
}

// buildApplication constructs all components and wires them together.
// Metrics are registered on reg, which also backs /metrics.
func buildApplication(cfg *config.AppConfig, reg *prometheus.Registry) (*Application, error) {
	logger := log.GetLogger()

	sources, err := cfg.ParsedSources()
	if err != nil {
		return nil, fmt.Errorf("failed to parse sources: %w", err)
	}

	client := feed.New(feed.Options{
		Timeout:   cfg.FetchTimeout,
		MaxBytes:  cfg.MaxListBytes,
		UserAgent: cfg.UserAgent,
	})

	resolver, err := listsource.New(listsource.Options{
		CacheDir: cfg.CacheDir,
		Fetcher:  client,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create list source resolver: %w", err)
	}

	clk := clock.RealClock{}
	repo, err := blocklist.NewRepository(blocklist.Options{
		Resolver:  resolver,
		Parser:    parsers.New(logger, clk),
		Bloom:     bloom.NewFactory(),
		FPRate:    cfg.BloomFPRate,
		Cache:     lru.New,
		CacheSize: cfg.DecisionCacheSize,
		Clock:     clk,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blocklist repository: %w", err)
	}
	blocklist.RegisterMetrics(reg)

	svc := refresh.New(refresh.Options{Repository: repo, Sources: sources, Logger: logger})

	return &Application{
		config:  cfg,
		repo:    repo,
		refresh: svc,
		logger:  logger,
		ready:   make(chan struct{}),
		handler: newRouter(repo, svc, reg, logger),

		shutdownTimeout: defaultShutdownTimeout,
	}, nil
}

func newRouter(repo blocklist.Repository, svc *refresh.Service, reg *prometheus.Registry, logger log.Logger) http.Handler {
	r := chi.NewRouter()
	httpapi.BindRoutes(r, httpapi.Options{
		Blocklist: repo,
		Refresher: svc,
		Gatherer:  reg,
		Logger:    logger,
	})
	return r
}

// Run builds the first snapshot, serves the HTTP API and rebuilds on every
// value received from hup. It returns once ctx is cancelled and the server
// has shut down.
func (app *Application) Run(ctx context.Context, hup <-chan os.Signal) error {
	ln, err := net.Listen("tcp", app.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.config.Listen, err)
	}
	app.addr = ln.Addr()
	close(app.ready)

	server := &http.Server{
		Handler:           app.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		app.rebuild(ctx, app.config.RestoreOnStart)
		for {
			select {
			case <-ctx.Done():
				return nil
			case sig := <-hup:
				app.logger.Info(map[string]any{"signal": sig.String()}, "rebuild_signal_received")
				app.rebuild(ctx, false)
			}
		}
	})

	group.Go(func() error {
		app.logger.Info(map[string]any{"addr": app.addr.String()}, "http_server_starting")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		app.logger.Warn(nil, "http_server_shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// rebuild runs one update. Once ctx is cancelled the update gets at most
// shutdownTimeout to finish; after that it is left to the process exit.
func (app *Application) rebuild(ctx context.Context, restoreFromCache bool) {
	done := make(chan uint64, 1)
	go func() {
		n, _ := app.refresh.Run(ctx, restoreFromCache)
		done <- n
	}()

	select {
	case n := <-done:
		app.logger.Info(map[string]any{"domains": n, "restore": restoreFromCache}, "rebuild_done")
		return
	case <-ctx.Done():
	}

	select {
	case <-done:
	case <-time.After(app.shutdownTimeout):
		app.logger.Warn(map[string]any{"timeout": app.shutdownTimeout.String()}, "rebuild_abandoned")
	}
}
