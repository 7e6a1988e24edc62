package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/code-payments/iap-sandwich/channel"
	"github.com/code-payments/iap-sandwich/channel/rpc"
	"github.com/code-payments/iap-sandwich/sandwich"
	memory_sdk "github.com/code-payments/iap-sandwich/sdk/memory"
	"github.com/code-payments/iap-sandwich/settings"
	cache_settings "github.com/code-payments/iap-sandwich/settings/cache"
	memory_settings "github.com/code-payments/iap-sandwich/settings/memory"
	postgres_settings "github.com/code-payments/iap-sandwich/settings/postgres"
)

const metricsShutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the bridge over gRPC",
	Long:  `Serve the method channel and event stream over gRPC, backed by the in-memory SDK with its default catalog`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig()
		if err != nil {
			return err
		}
		if err := cfg.applyFlags(cmd); err != nil {
			return err
		}

		log, err := cfg.Logger()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, log, cfg)
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.String("listen", defaultListenAddr, "gRPC listen address (env "+envListenAddr+")")
	flags.String("metrics", defaultMetricsAddr, "metrics listen address, empty to disable (env "+envMetricsAddr+")")
	flags.String("log-level", defaultLogLevel, "log level (env "+envLogLevel+")")
	flags.String("database-url", "", "Postgres url for settings, in-memory if empty (env "+envDatabaseURL+")")
	flags.Duration("settings-cache-ttl", defaultSettingsCacheTTL, "settings cache ttl (env "+envSettingsCacheTTL+")")
}

func serve(ctx context.Context, log *zap.Logger, cfg *Config) error {
	store, closeStore, err := openSettings(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	bus := channel.NewBus()
	qonversion := memory_sdk.New(log.Named("sdk"), memory_sdk.DefaultCatalog())
	s := sandwich.New(log.Named("sandwich"), qonversion, store, channel.NewEventSink(log.Named("events"), bus))
	dispatcher := channel.NewDispatcher(log.Named("channel"), s)

	server := grpc.NewServer(rpc.ServerOptions(log.Named("grpc"))...)
	rpc.RegisterBridgeServer(server, rpc.NewServer(log.Named("rpc"), dispatcher, bus))

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", cfg.ListenAddr)
	}

	if cfg.MetricsAddr != "" {
		startMetricsServer(ctx, log, cfg.MetricsAddr)
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		server.GracefulStop()
	}()

	log.Info("Serving bridge", zap.String("addr", lis.Addr().String()))
	if err := server.Serve(lis); err != nil {
		return errors.Wrap(err, "failed to serve")
	}
	return nil
}

// openSettings returns the settings store for cfg behind a read-through
// cache, and a func releasing its resources.
func openSettings(ctx context.Context, log *zap.Logger, cfg *Config) (settings.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info("Using in-memory settings")
		return cache_settings.NewInCache(memory_settings.NewInMemory(), cfg.SettingsCacheTTL), func() {}, nil
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open database")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := postgres_settings.ApplySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	log.Info("Using postgres settings")
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close database", zap.Error(err))
		}
	}
	return cache_settings.NewInCache(postgres_settings.NewInPostgres(db), cfg.SettingsCacheTTL), closeDB, nil
}

func startMetricsServer(ctx context.Context, log *zap.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			log.Warn("Failed to shut down metrics server cleanly", zap.Error(err))
		}
	}()

	go func() {
		log.Info("Metrics endpoint listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("Metrics server stopped unexpectedly", zap.Error(err))
		}
	}()
}
