// Package main implements the entry point for the Lumino message service:
// the inbound-message processing core of a payment-channel network node.
// The chain, transport, and pathfinding collaborators are external; this
// shell wires the dispatch core against the configured durable log and
// runs until signaled.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/santicomp2014/lumino/config"
	"github.com/santicomp2014/lumino/handler"
	"github.com/santicomp2014/lumino/health"
	"github.com/santicomp2014/lumino/message"
	"github.com/santicomp2014/lumino/metric"
	"github.com/santicomp2014/lumino/natsclient"
	"github.com/santicomp2014/lumino/routing"
	"github.com/santicomp2014/lumino/service"
	"github.com/santicomp2014/lumino/transfer"
	"github.com/santicomp2014/lumino/wal"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
)

func main() {
	cli := parseFlags()
	if cli.ShowVersion {
		printVersion()
		return
	}

	cfg, err := config.Load(cli.ConfigPath)
	if err != nil {
		slog.Error("configuration error", "path", cli.ConfigPath, "error", err)
		os.Exit(1)
	}
	if cli.Validate {
		slog.Info("configuration valid", "path", cli.ConfigPath)
		return
	}

	// CLI flags override file settings.
	logLevel := cfg.Log.Level
	if cli.LogLevel != "" {
		logLevel = cli.LogLevel
	}
	logFormat := cfg.Log.Format
	if cli.LogFormat != "" {
		logFormat = cli.LogFormat
	}
	logger := setupLogger(logLevel, logFormat)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("node exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	address, err := cfg.NodeAddress()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	var metrics *metric.Metrics
	if cfg.Metrics.Enabled {
		metrics, err = metric.NewMetrics(registry)
		if err != nil {
			return err
		}
	}

	monitor := health.NewMonitor("lumino")

	log, closeLog, err := openLog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLog()
	if cfg.Storage.Backend == config.StorageKV {
		monitor.SetHealthy("nats", "connected")
	}
	monitor.SetHealthy("wal", cfg.Storage.Backend+" backend open")

	svc, err := service.New(service.Options{
		Address:        address,
		SecretRegistry: unregisteredSecrets{logger: logger},
		Flows:          loggingFlows{logger: logger},
		Routes: routing.NewResolver(emptyPathFinder{}, routing.Config{
			MaxPaths: cfg.Routing.MaxPaths,
		}),
		Log:           log,
		Logger:        logger,
		Metrics:       metrics,
		InboundBuffer: 128,
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		monitor.SetHealthy("service", "running")
		defer monitor.SetUnhealthy("service", "stopped")
		return svc.Run(ctx)
	})

	if cfg.Metrics.Enabled {
		g.Go(func() error { return serveMetrics(ctx, cfg.Metrics.Addr, registry, monitor, logger) })
	}

	logger.Info("lumino message service running",
		"address", address.Hex(),
		"storage", cfg.Storage.Backend)
	return g.Wait()
}

func openLog(ctx context.Context, cfg config.Config, logger *slog.Logger) (wal.Log, func(), error) {
	if cfg.Storage.Backend == config.StorageMemory {
		return wal.NewMemoryLog(), func() {}, nil
	}

	client, err := natsclient.New(cfg.NATS.URL,
		natsclient.WithLogger(logger),
		natsclient.WithTimeout(cfg.NATS.Timeout.Std()),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait.Std()),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
	)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, nil, err
	}
	kv, err := client.KeyValue(ctx, cfg.Storage.Bucket)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return wal.NewKVLog(kv), client.Close, nil
}

func serveMetrics(
	ctx context.Context, addr string, reg *prometheus.Registry,
	monitor *health.Monitor, logger *slog.Logger,
) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", monitor.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// unregisteredSecrets stands in for the on-chain secret registry until the
// shell is embedded in a full node with a chain reader. It reports every
// secret as unregistered and warns once per query at debug level.
type unregisteredSecrets struct {
	logger *slog.Logger
}

func (r unregisteredSecrets) IsSecretRegistered(
	_ context.Context, h transfer.SecretHash, tag transfer.BlockTag,
) (bool, error) {
	r.logger.Debug("secret registry not wired, treating secret as unregistered",
		"secrethash", h.Hex(), "block", string(tag))
	return false, nil
}

// loggingFlows stands in for the target and mediation flows.
type loggingFlows struct {
	logger *slog.Logger
}

func (f loggingFlows) Target(_ context.Context, msg *message.LockedTransfer) error {
	f.logger.Info("target flow not wired, dropping transfer",
		"payment_identifier", uint64(msg.PaymentID))
	return nil
}

func (f loggingFlows) Mediate(_ context.Context, msg *message.LockedTransfer) error {
	f.logger.Info("mediation flow not wired, dropping transfer",
		"payment_identifier", uint64(msg.PaymentID))
	return nil
}

// emptyPathFinder resolves no routes; refunds degrade to empty candidate
// lists until a pathfinding collaborator is wired.
type emptyPathFinder struct{}

func (emptyPathFinder) FindPaths(
	_ context.Context, _ *transfer.ChainState, _ transfer.TokenNetworkAddress,
	_, _ transfer.Address, _ transfer.TokenAmount,
) ([]transfer.RouteState, routing.Diagnostics, error) {
	return nil, routing.Diagnostics{}, nil
}

var _ handler.RouteResolver = (*routing.Resolver)(nil)
