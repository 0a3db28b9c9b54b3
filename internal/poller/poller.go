package poller

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vitos/stratofi/internal/config"
	"github.com/vitos/stratofi/internal/domain"
)

// Source provides the polled resources. *Client is the production source.
type Source interface {
	Vaults(ctx context.Context) ([]domain.VaultEntry, error)
	Stats(ctx context.Context) (domain.PlatformSnapshot, error)
}

// Poller refreshes the vault list and the platform snapshot on independent
// schedules. A tick that fires while the previous fetch of the same kind is
// running is skipped.
type Poller struct {
	Vaults *Query[[]domain.VaultEntry]
	Stats  *Query[domain.PlatformSnapshot]

	cfg    config.PollerConfig
	cron   *cron.Cron
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewPoller(cfg config.PollerConfig, source Source, logger *zap.Logger) *Poller {
	cl := cronLogger{logger: logger.Sugar()}
	return &Poller{
		Vaults: NewQuery[[]domain.VaultEntry]("vaults", source.Vaults, cfg.Vaults.StaleTime, logger),
		Stats:  NewQuery[domain.PlatformSnapshot]("stats", source.Stats, cfg.Stats.StaleTime, logger),
		cfg:    cfg,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Start fetches both resources once and schedules the refetches.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)

	p.cron.Schedule(cron.Every(p.cfg.Vaults.RefetchInterval), cron.FuncJob(func() { p.Vaults.Refetch(ctx) }))
	p.cron.Schedule(cron.Every(p.cfg.Stats.RefetchInterval), cron.FuncJob(func() { p.Stats.Refetch(ctx) }))

	go p.Vaults.Refetch(ctx)
	go p.Stats.Refetch(ctx)

	p.cron.Start()
	p.logger.Info("Poller started",
		zap.Duration("vaults_interval", p.cfg.Vaults.RefetchInterval),
		zap.Duration("stats_interval", p.cfg.Stats.RefetchInterval),
	)
}

// Latest reads both resources through Query.Get, so a stale resource is
// refetched in the background while its cached value is returned.
func (p *Poller) Latest(ctx context.Context) (State[[]domain.VaultEntry], State[domain.PlatformSnapshot]) {
	return p.Vaults.Get(ctx), p.Stats.Get(ctx)
}

// ReadInterval is how often a consumer should call Latest to notice stale data.
func (p *Poller) ReadInterval() time.Duration {
	d := min(p.cfg.Vaults.StaleTime, p.cfg.Stats.StaleTime)
	if d <= 0 {
		d = min(p.cfg.Vaults.RefetchInterval, p.cfg.Stats.RefetchInterval)
	}
	return d
}

// Stop halts scheduling, cancels in-flight fetches and waits for running jobs.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel == nil {
		return
	}

	done := p.cron.Stop()
	cancel()
	<-done.Done()
	p.logger.Info("Poller stopped")
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
