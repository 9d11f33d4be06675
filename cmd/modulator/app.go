package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/modulator/config"
	"github.com/c360studio/modulator/modulation"
	pathfinder "github.com/c360studio/modulator/processor/path-finder"
	"github.com/c360studio/modulator/storage"
)

// App wires the engine to NATS, the progression store and the metrics
// endpoint for the serve command.
type App struct {
	cfg    *config.Config
	engine *modulation.Engine
	logger *slog.Logger

	// NATS
	embeddedServer *server.Server
	storeDir       string
	natsConn       *nats.Conn
	js             jetstream.JetStream

	// Storage
	store *storage.Store

	finder *pathfinder.Component

	metricsServer *http.Server
	metricsAddr   string
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, engine *modulation.Engine, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{cfg: cfg, engine: engine, logger: logger}
}

// Start initializes and starts all components.
func (a *App) Start(ctx context.Context) error {
	if err := a.startNATS(); err != nil {
		return fmt.Errorf("start NATS: %w", err)
	}

	var opts []pathfinder.Option
	opts = append(opts, pathfinder.WithLogger(a.logger))

	if bucket := a.cfg.NATS.ProgressionBucket; bucket != "" && bucket != "none" {
		store, err := storage.NewStore(ctx, a.js, bucket)
		if err != nil {
			return fmt.Errorf("initialize storage: %w", err)
		}
		a.store = store
		opts = append(opts, pathfinder.WithRecorder(store, a.engine.Graph().Fingerprint()))
		a.logger.Debug("Progression store ready", "bucket", bucket)
	}

	finderCfg := pathfinder.DefaultConfig()
	finderCfg.RequestSubject = a.cfg.NATS.RequestSubject
	finderCfg.IssuedSubject = a.cfg.NATS.IssuedSubject
	finderCfg.QueueGroup = a.cfg.NATS.QueueGroup

	finder, err := pathfinder.NewComponent(finderCfg, a.engine, a.natsConn, opts...)
	if err != nil {
		return fmt.Errorf("create path finder: %w", err)
	}
	if err := finder.Start(ctx); err != nil {
		return fmt.Errorf("start path finder: %w", err)
	}
	a.finder = finder

	if err := a.natsConn.Flush(); err != nil {
		return fmt.Errorf("flush subscriptions: %w", err)
	}

	if a.cfg.Metrics.Addr != "" {
		if err := a.startMetrics(); err != nil {
			return fmt.Errorf("start metrics: %w", err)
		}
	}

	return nil
}

func (a *App) startNATS() error {
	url := a.cfg.NATS.URL

	if a.cfg.NATS.Embedded {
		dir, err := os.MkdirTemp("", "modulator-nats-*")
		if err != nil {
			return fmt.Errorf("create JetStream store dir: %w", err)
		}
		a.storeDir = dir

		a.logger.Info("Starting embedded NATS server")
		ns, err := server.NewServer(&server.Options{
			Host:      "127.0.0.1",
			Port:      -1, // Random available port
			JetStream: true,
			StoreDir:  dir,
			NoLog:     true,
			NoSigs:    true,
		})
		if err != nil {
			return fmt.Errorf("create embedded NATS server: %w", err)
		}

		go ns.Start()

		if !ns.ReadyForConnections(5 * time.Second) {
			ns.Shutdown()
			return fmt.Errorf("embedded NATS server failed to start")
		}
		a.embeddedServer = ns
		url = ns.ClientURL()
	}

	a.logger.Info("Connecting to NATS", "url", url)
	conn, err := nats.Connect(url,
		nats.Name(appName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return wrapNATSError(err, url)
	}
	a.natsConn = conn

	js, err := jetstream.New(conn)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	a.js = js

	return nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

Start a server, point nats.url at one, or set nats.embedded: true.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

func (a *App) startMetrics() error {
	ln, err := net.Listen("tcp", a.cfg.Metrics.Addr)
	if err != nil {
		return err
	}
	a.metricsAddr = ln.Addr().String()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", a.handleHealth)

	a.metricsServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := a.metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()

	a.logger.Info("Metrics listening", "addr", a.metricsAddr)
	return nil
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	var health pathfinder.HealthStatus
	if a.finder != nil {
		health = a.finder.Health()
	}
	w.Header().Set("Content-Type", "application/json")
	if !health.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(health)
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown(timeout time.Duration) {
	a.logger.Info("Shutting down")

	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Warn("Metrics server shutdown", "error", err)
		}
		cancel()
	}

	if a.finder != nil {
		if err := a.finder.Stop(timeout); err != nil {
			a.logger.Warn("Path finder stop", "error", err)
		}
	}

	if a.natsConn != nil {
		_ = a.natsConn.Drain()
		a.natsConn.Close()
	}

	if a.embeddedServer != nil {
		a.embeddedServer.Shutdown()
		a.embeddedServer.WaitForShutdown()
	}

	if a.storeDir != "" {
		_ = os.RemoveAll(a.storeDir)
	}
}
