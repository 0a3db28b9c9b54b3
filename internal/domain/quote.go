package domain

import (
	"errors"
	"fmt"
)

// AssetQuote is a single USD price for an oracle asset id.
type AssetQuote struct {
	AssetID  string  `json:"asset_id"`
	PriceUSD float64 `json:"price_usd"`
	// Found is false when the oracle answered but had no entry for the asset.
	Found bool `json:"found"`
}

var ErrNegativePrice = errors.New("negative price")

// UpstreamError is returned by a PriceOracle when a quote could not be obtained.
type UpstreamError struct {
	AssetID    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("price oracle error for %s: status %d", e.AssetID, e.StatusCode)
	}
	return fmt.Sprintf("price oracle error for %s: %v", e.AssetID, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
