package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/normienation/normie/internal/api"
	"github.com/normienation/normie/internal/configs"
	"github.com/normienation/normie/internal/data"
	collectorData "github.com/normienation/normie/internal/data/collector"
	"github.com/normienation/normie/internal/data/collector/dexscreener"
	"github.com/normienation/normie/internal/data/collector/solana"
	"github.com/normienation/normie/internal/data/storage"
	"github.com/normienation/normie/internal/logger"
	"github.com/normienation/normie/internal/metrics"
	"github.com/normienation/normie/internal/models"
)

var flagconf string

func init() {
	flag.StringVar(&flagconf, "conf", "./configs", "config directory containing config.yaml, eg: -conf ./configs")
}

func main() {
	flag.Parse()

	config, err := configs.Load(flagconf)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logg, err := logger.New(config.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	os.Exit(exit(logg, run(config, logg)))
}

// exit logs err, flushes the logger and returns the process exit code.
// os.Exit skips deferred calls, so the flush cannot be deferred.
func exit(logg *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logg.Error("server exited", zap.Error(err))
		code = 1
	}
	_ = logg.Sync()
	return code
}

func run(config *configs.Config, logg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token := models.NormieToken

	// 初始化各个组件
	prices := collectorData.NewMultiSourceCollector([]data.PriceSource{
		dexscreener.NewDexScreenerDataSource(
			config.Upstream.DexScreenerURL,
			token.Address,
			config.Upstream.Timeout,
			config.Upstream.RetryCount,
		),
	}, logg.Named("collector"))

	holders := solana.NewHolderCounter(config.Upstream.SolanaRPCURL, token.Address, nil)

	cache := metrics.NewCache(prices, holders, metrics.WithLogger(logg.Named("metrics")))
	logg.Debug("init cache", zap.Int("seed_points", len(cache.PriceHistory())))

	var archive data.PriceArchive
	if config.Database.ConnStr != "" {
		pg, err := storage.NewPostgresStorage(config.Database.ConnStr, token.Symbol)
		if err != nil {
			return err
		}
		defer pg.Close()
		archive = pg
		logg.Info("price archive enabled")
	}

	hub := api.NewHub(cache, logg.Named("stream"))
	server := api.NewServer(cache, token, hub, config.Upstream.Timeout, logg.Named("api"))

	poller := metrics.NewPoller(metrics.PollerConfig{
		Interval: config.RefreshInterval,
		Timeout:  config.Upstream.Timeout,
	}, cache, archive, logg.Named("poller"), hub)
	if err := poller.Start(ctx); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              config.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("http server listening", zap.String("addr", config.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logg.Info("shutting down")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	hub.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("http shutdown", zap.Error(err))
	}
	if err := poller.Stop(shutdownCtx); err != nil {
		logg.Error("poller shutdown", zap.Error(err))
	}

	return serveErr
}
