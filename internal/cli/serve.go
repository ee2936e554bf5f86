package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fbvideodl/internal/api"
	"fbvideodl/internal/extractor"
	"fbvideodl/internal/httputil"
	"fbvideodl/internal/metrics"
	"fbvideodl/internal/ratelimit"
	"fbvideodl/internal/resolver"
	"fbvideodl/internal/service"
	"fbvideodl/internal/ytdl"
)

const redisKeyPrefix = "fbvideodl:ratelimit:"

func (a *app) newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
	}

	cmd.Flags().Int("port", 0, "Server port (overrides PORT)")
	cmd.Flags().String("host", "", "Bind address (overrides HOST)")

	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	ytdlPath, err := a.ytdlBinary(ctx)
	if err != nil {
		return err
	}

	engine := ytdl.NewEngine(ytdl.EngineOptions{
		Path:        ytdlPath,
		CookiesFile: cfg.YtdlCookiesFile,
		ExtraArgs:   cfg.ExtraArgs(),
	}, logger)

	if version, err := engine.Version(ctx); err != nil {
		logger.Warn("yt-dlp is not runnable, extraction requests will fail",
			zap.String("path", engine.Path()),
			zap.Error(err),
		)
	} else {
		logger.Info("using yt-dlp", zap.String("path", engine.Path()), zap.String("version", version))
	}

	pool := extractor.NewPool(engine, cfg.ExtractWorkers, cfg.ExtractQueueSize, m, logger)
	ext := extractor.NewExtractor(pool, cfg.ExtractTimeout(), m, logger)
	svc := service.NewVideoService(resolver.NewResolver(cfg.ResolveTimeout(), logger), ext, m, logger)

	ledger, closeLedger, err := a.newLedger(ctx)
	if err != nil {
		return err
	}
	defer closeLedger()

	limiter := ratelimit.NewLimiter(ledger, cfg.RateLimitRequests, cfg.RateLimitWindowDuration(), logger)

	server := api.NewServer(cfg, api.Options{
		Service:      svc,
		Limiter:      limiter,
		Worker:       pool,
		StreamClient: httputil.NewClient(0),
		Metrics:      m,
		Logger:       logger,
	})

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// ytdlBinary returns the yt-dlp executable, installing it first when
// auto-install is enabled
func (a *app) ytdlBinary(ctx context.Context) (string, error) {
	if !a.cfg.YtdlAutoInstall {
		return a.cfg.YtdlPath, nil
	}

	manager := ytdl.NewManager(a.cfg.YtdlUtilsDir, a.logger)
	path, err := manager.EnsureInstalled(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return path, nil
}

// newLedger picks the shared Redis ledger when REDIS_ADDR is set, and the
// in-process ledger otherwise
func (a *app) newLedger(ctx context.Context) (ratelimit.Ledger, func(), error) {
	if a.cfg.RedisAddr == "" {
		a.logger.Info("using in-memory rate limit ledger")
		return ratelimit.NewMemoryLedger(), func() {}, nil
	}

	client, err := ratelimit.NewRedisClient(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}

	a.logger.Info("using redis rate limit ledger", zap.String("addr", a.cfg.RedisAddr))
	return ratelimit.NewRedisLedger(client, redisKeyPrefix), func() {
		if err := client.Close(); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}, nil
}
