package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vitos/stratofi/internal/domain"
	"github.com/vitos/stratofi/internal/infrastructure/metrics"
)

const (
	MinYieldPct    = 1.0
	YieldJitterPct = 0.15

	BaseActiveUsers   = 24891
	ActiveUsersJitter = 100

	TransactionsProcessedLabel = "1.2M+"
	NetworksSupported          = 5
	SecurityScore              = 98.7

	DefaultFanoutTimeout = 8 * time.Second
)

// ErrOrchestration marks failures of the aggregation itself, as opposed to a
// single failed quote.
var ErrOrchestration = errors.New("aggregation failed")

var million = decimal.NewFromInt(1_000_000)

// AggregationService derives vault and platform statistics from live quotes.
// Nothing is cached between calls.
type AggregationService struct {
	oracle        domain.PriceOracle
	catalog       domain.Catalog
	fanoutTimeout time.Duration
	logger        *zap.Logger

	// For testing
	randFloat func() float64 // [0, 1)
	randIntN  func(n int) int
	timeNow   func() time.Time
}

func NewAggregationService(oracle domain.PriceOracle, catalog domain.Catalog, fanoutTimeout time.Duration, logger *zap.Logger) *AggregationService {
	if fanoutTimeout <= 0 {
		fanoutTimeout = DefaultFanoutTimeout
	}
	return &AggregationService{
		oracle:        oracle,
		catalog:       catalog,
		fanoutTimeout: fanoutTimeout,
		logger:        logger,
		randFloat:     rand.Float64,
		randIntN:      rand.IntN,
		timeNow:       time.Now,
	}
}

// FetchVaultEntries returns one entry per catalog vault. It never fails: a
// failed quote falls back per asset, a failed aggregation falls back to the
// static vault list.
func (s *AggregationService) FetchVaultEntries(ctx context.Context) []domain.VaultEntry {
	vaults, err := s.collectVaults(ctx)
	if err != nil {
		s.logger.Error("Failed to aggregate vault data, serving fallback", zap.Error(err))
		metrics.RecordFallback(metrics.TierBatch)
		return FallbackVaults()
	}
	return vaults
}

// FetchPlatformSnapshot composes platform statistics from a fresh vault
// aggregation. Any failure replaces the whole snapshot.
func (s *AggregationService) FetchPlatformSnapshot(ctx context.Context) domain.PlatformSnapshot {
	_, stats := s.cycle(ctx)
	return stats
}

// FetchDashboard returns vaults and stats computed from the same quotes.
func (s *AggregationService) FetchDashboard(ctx context.Context) domain.Dashboard {
	vaults, stats := s.cycle(ctx)
	return domain.Dashboard{
		Vaults:      vaults,
		Stats:       stats,
		GeneratedAt: s.timeNow().UTC(),
	}
}

// FetchSingleQuote performs one oracle call. Callers own the fallback.
func (s *AggregationService) FetchSingleQuote(ctx context.Context, assetID string) (domain.AssetQuote, error) {
	quote, err := s.oracle.Quote(ctx, assetID)
	if err != nil {
		return domain.AssetQuote{}, fmt.Errorf("failed to fetch price for %s: %w", assetID, err)
	}
	return quote, nil
}

func (s *AggregationService) cycle(ctx context.Context) ([]domain.VaultEntry, domain.PlatformSnapshot) {
	vaults, err := s.collectVaults(ctx)
	if err != nil {
		s.logger.Error("Failed to aggregate vault data, serving fallback snapshot", zap.Error(err))
		metrics.RecordFallback(metrics.TierBatch)
		metrics.RecordFallback(metrics.TierSnapshot)
		return FallbackVaults(), FallbackPlatformSnapshot()
	}

	stats, err := s.composeSnapshot(vaults)
	if err != nil {
		s.logger.Error("Failed to compose platform snapshot, serving fallback", zap.Error(err))
		metrics.RecordFallback(metrics.TierSnapshot)
		return vaults, FallbackPlatformSnapshot()
	}
	return vaults, stats
}

func (s *AggregationService) collectVaults(ctx context.Context) ([]domain.VaultEntry, error) {
	if err := s.catalog.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrchestration, err)
	}

	// The fan-out outlives the caller: a caller that goes away discards the
	// result, it does not abort the upstream calls.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fanoutTimeout)
	defer cancel()

	prices := make([]float64, len(s.catalog))
	var g errgroup.Group
	for i, spec := range s.catalog {
		if spec.Pegged {
			prices[i] = spec.PegPriceUSD
			continue
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: quote %s panicked: %v", ErrOrchestration, spec.AssetID, r)
				}
			}()
			prices[i] = s.resolvePrice(ctx, spec.AssetID, spec.Holdings)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	vaults := make([]domain.VaultEntry, 0, len(s.catalog))
	for i, spec := range s.catalog {
		vaults = append(vaults, domain.VaultEntry{
			Symbol:              spec.Symbol,
			AnnualYieldPct:      s.annualYield(spec.BaseYieldPct),
			AvailableAmount:     spec.AvailableLabel,
			TotalValueLockedUSD: prices[i] * spec.Holdings,
			Network:             spec.Network,
		})
	}
	return vaults, nil
}

// resolvePrice returns the live price, or the batch fallback when the quote
// failed or its value for holdings is not a finite number. A missing asset
// keeps its zero price.
func (s *AggregationService) resolvePrice(ctx context.Context, assetID string, holdings float64) float64 {
	quote, err := s.oracle.Quote(ctx, assetID)
	if err == nil {
		switch {
		case quote.PriceUSD < 0 || math.IsNaN(quote.PriceUSD) || math.IsInf(quote.PriceUSD, 0):
			err = fmt.Errorf("invalid price %v: %w", quote.PriceUSD, domain.ErrNegativePrice)
		case math.IsInf(quote.PriceUSD*holdings, 0):
			err = fmt.Errorf("value of %v at price %v overflows", holdings, quote.PriceUSD)
		}
	}
	if err != nil {
		fallback := batchFallbackPrice(assetID)
		s.logger.Warn("Price quote failed, using fallback",
			zap.String("asset", assetID),
			zap.Float64("fallback", fallback),
			zap.Error(err),
		)
		metrics.RecordFallback(metrics.TierPerAsset)
		return fallback
	}
	if !quote.Found {
		s.logger.Warn("Oracle has no price for asset", zap.String("asset", assetID))
	}
	return quote.PriceUSD
}

// annualYield perturbs base by up to ±YieldJitterPct, floored at MinYieldPct.
// The perturbation is a display effect and carries no market signal.
func (s *AggregationService) annualYield(base float64) float64 {
	jitter := (s.randFloat()*2 - 1) * YieldJitterPct
	return math.Max(base+jitter, MinYieldPct)
}

func (s *AggregationService) activeUsers() int {
	return BaseActiveUsers + s.randIntN(2*ActiveUsersJitter+1) - ActiveUsersJitter
}

func (s *AggregationService) composeSnapshot(vaults []domain.VaultEntry) (stats domain.PlatformSnapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrOrchestration, r)
		}
	}()

	total := SumTVL(vaults)
	if total.IsNegative() {
		return domain.PlatformSnapshot{}, fmt.Errorf("%w: negative total value locked %s", ErrOrchestration, total)
	}

	return domain.PlatformSnapshot{
		TotalValueLocked:      FormatMillions(total),
		ActiveUsers:           s.activeUsers(),
		TransactionsProcessed: TransactionsProcessedLabel,
		NetworksSupported:     NetworksSupported,
		SecurityScore:         SecurityScore,
	}, nil
}

// SumTVL adds up vault TVLs. It panics on NaN or infinite values.
func SumTVL(vaults []domain.VaultEntry) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vaults {
		total = total.Add(decimal.NewFromFloat(v.TotalValueLockedUSD))
	}
	return total
}

// FormatMillions renders a USD amount as "$X.XM".
func FormatMillions(amount decimal.Decimal) string {
	return "$" + amount.Div(million).StringFixed(1) + "M"
}
