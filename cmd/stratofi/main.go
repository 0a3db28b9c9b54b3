package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitos/stratofi/internal/config"
	"github.com/vitos/stratofi/internal/domain"
	"github.com/vitos/stratofi/internal/infrastructure/logger"
	"github.com/vitos/stratofi/internal/infrastructure/oracle"
	"github.com/vitos/stratofi/internal/poller"
	"github.com/vitos/stratofi/internal/usecase"
	"github.com/vitos/stratofi/internal/web"
)

const pollRequestTimeout = 10 * time.Second

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "stratofi",
		Short: "StratoFi vault and platform statistics service",
		Long: `stratofi aggregates live market prices into vault and platform statistics,
serves them over HTTP and a websocket stream, and can poll a running instance.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to the YAML config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll a running server and log vault and platform updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(configPath)
		},
	}

	rootCmd.AddCommand(serveCmd, watchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func runServe(path string) error {
	cfg, log, err := setup(path)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	priceOracle := oracle.NewCoinGeckoOracle(oracle.Options{
		BaseURL:   cfg.Oracle.BaseURL,
		APIKey:    cfg.Oracle.APIKey,
		UserAgent: cfg.Oracle.UserAgent,
		Timeout:   cfg.Oracle.RequestTimeout,
	}, log)
	svc := usecase.NewAggregationService(priceOracle, domain.DefaultCatalog, cfg.Oracle.FanoutTimeout, log)
	server := web.NewServer(cfg.Server, svc, log)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server failed", zap.Error(err))
			return err
		}
		return nil
	case <-stop:
	}

	log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

func runWatch(path string) error {
	cfg, log, err := setup(path)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := cfg.ValidatePoller(); err != nil {
		return err
	}

	p := poller.NewPoller(cfg.Poller, poller.NewClient(cfg.Poller.BaseURL, pollRequestTimeout), log)

	p.Vaults.OnChange(func(s poller.State[[]domain.VaultEntry]) {
		switch s.Status {
		case poller.StatusSuccess:
			for _, v := range s.Data {
				log.Info("Vault",
					zap.String("symbol", v.Symbol),
					zap.Float64("apy", v.AnnualYieldPct),
					zap.Float64("tvl", v.TotalValueLockedUSD),
					zap.String("network", v.Network),
				)
			}
		case poller.StatusError:
			log.Warn("Vaults unavailable", zap.Int("cached", len(s.Data)), zap.Error(s.Err))
		}
	})
	p.Stats.OnChange(func(s poller.State[domain.PlatformSnapshot]) {
		switch s.Status {
		case poller.StatusSuccess:
			log.Info("Platform",
				zap.String("tvl", s.Data.TotalValueLocked),
				zap.Int("active_users", s.Data.ActiveUsers),
				zap.String("transactions", s.Data.TransactionsProcessed),
			)
		case poller.StatusError:
			log.Warn("Platform stats unavailable", zap.Bool("cached", s.HasData), zap.Error(s.Err))
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p.Start(ctx)

	readLatest(ctx, p, log)

	log.Info("Shutting down...")
	p.Stop()
	return nil
}

// readLatest reads the cached data every p.ReadInterval until ctx is done.
// Reading through Latest triggers a refetch of whatever has gone stale.
func readLatest(ctx context.Context, p *poller.Poller, log *zap.Logger) {
	ticker := time.NewTicker(p.ReadInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			vaults, stats := p.Latest(ctx)
			log.Debug("Cached data",
				zap.Int("vaults", len(vaults.Data)),
				zap.Time("vaults_updated_at", vaults.UpdatedAt),
				zap.Bool("stats_cached", stats.HasData),
				zap.Time("stats_updated_at", stats.UpdatedAt),
			)
		}
	}
}
