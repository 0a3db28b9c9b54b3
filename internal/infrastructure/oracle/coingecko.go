package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/vitos/stratofi/internal/domain"
	"github.com/vitos/stratofi/internal/infrastructure/metrics"
)

const (
	CoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

	apiKeyHeader = "x-cg-demo-api-key"
)

type Options struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
}

// CoinGeckoOracle quotes assets through the /simple/price endpoint.
type CoinGeckoOracle struct {
	client *resty.Client
	logger *zap.Logger
}

func NewCoinGeckoOracle(opts Options, logger *zap.Logger) *CoinGeckoOracle {
	if opts.BaseURL == "" {
		opts.BaseURL = CoinGeckoBaseURL
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.APIKey != "" {
		client.SetHeader(apiKeyHeader, opts.APIKey)
	}

	return &CoinGeckoOracle{
		client: client,
		logger: logger,
	}
}

// Quote implements domain.PriceOracle.
func (o *CoinGeckoOracle) Quote(ctx context.Context, assetID string) (domain.AssetQuote, error) {
	start := time.Now()
	quote, err := o.quote(ctx, assetID)

	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case !quote.Found:
		outcome = metrics.OutcomeMissing
	}
	metrics.RecordOracleRequest(assetID, outcome, time.Since(start))

	return quote, err
}

func (o *CoinGeckoOracle) quote(ctx context.Context, assetID string) (domain.AssetQuote, error) {
	resp, err := o.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":           assetID,
			"vs_currencies": "usd",
		}).
		Get("/simple/price")
	if err != nil {
		return domain.AssetQuote{}, &domain.UpstreamError{AssetID: assetID, Err: err}
	}

	o.logger.Debug("Oracle response",
		zap.String("asset", assetID),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)

	if !resp.IsSuccess() {
		return domain.AssetQuote{}, &domain.UpstreamError{
			AssetID:    assetID,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("unexpected status code: %d", resp.StatusCode()),
		}
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return domain.AssetQuote{}, &domain.UpstreamError{AssetID: assetID, Err: fmt.Errorf("failed to decode response")}
	}

	price := gjson.GetBytes(body, gjson.Escape(assetID)+".usd")
	if !price.Exists() {
		return domain.AssetQuote{AssetID: assetID}, nil
	}
	if price.Type != gjson.Number {
		return domain.AssetQuote{}, &domain.UpstreamError{AssetID: assetID, Err: fmt.Errorf("price is not a number: %s", price.Raw)}
	}
	if price.Float() < 0 {
		return domain.AssetQuote{}, &domain.UpstreamError{AssetID: assetID, Err: domain.ErrNegativePrice}
	}

	return domain.AssetQuote{
		AssetID:  assetID,
		PriceUSD: price.Float(),
		Found:    true,
	}, nil
}
