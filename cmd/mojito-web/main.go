// Command mojito-web serves the Mojito page workflows as JSON endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrEthical07/mojito"
	"github.com/MrEthical07/mojito/httpapi"
	"github.com/MrEthical07/mojito/internal/logging"
	"github.com/MrEthical07/mojito/locale"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "mojito-web: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	fileCfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: fileCfg.Log.Level, Format: fileCfg.Log.Format})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := fileCfg.EngineConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	builder := mojito.New().
		WithConfig(cfg).
		WithLogger(logger.Named("engine")).
		WithAuditSink(mojito.NewZapSink(logger.Named("audit")))

	if cfg.Store.Backend == mojito.StoreRedis {
		client, closeRedis, err := openRedis(fileCfg.Redis, logger)
		if err != nil {
			return err
		}
		defer closeRedis()
		builder.WithRedis(client)
	}

	if fileCfg.Engine.CatalogFile != "" {
		data, err := os.ReadFile(filepath.Clean(fileCfg.Engine.CatalogFile))
		if err != nil {
			return fmt.Errorf("read catalog: %w", err)
		}
		catalog, err := locale.Load(data)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		builder.WithCatalog(catalog)
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = engine.Ping(pingCtx)
	cancelPing()
	if err != nil {
		return fmt.Errorf("stores not ready: %w", err)
	}

	report := engine.SecurityReport()
	if len(report.Warnings) > 0 {
		logger.Warn("insecure settings", zap.Strings("warnings", report.Warnings))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Store.Backend == mojito.StoreMemory {
		go sweep(ctx, engine, fileCfg.Engine.SweepInterval, logger)
	}

	srv := &http.Server{
		Addr: fileCfg.Server.Addr,
		Handler: httpapi.New(engine, httpapi.Options{
			Logger:       logger.Named("http"),
			TrustProxy:   fileCfg.Server.TrustProxy,
			SecureCookie: fileCfg.Server.SecureCookie,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       fileCfg.Server.ReadTimeout,
		WriteTimeout:      fileCfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("store", string(cfg.Store.Backend)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), fileCfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openRedis(cfg RedisConfig, logger *zap.Logger) (redis.UniversalClient, func(), error) {
	if cfg.Addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		logger.Warn("no redis address configured, using in-process miniredis", zap.String("addr", mr.Addr()))
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

func sweep(ctx context.Context, engine *mojito.Engine, every time.Duration, logger *zap.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := engine.Sweep(); n > 0 {
				logger.Debug("swept expired workflows", zap.Int("count", n))
			}
		}
	}
}
