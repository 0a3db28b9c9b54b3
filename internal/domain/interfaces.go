package domain

import "context"

// PriceOracle quotes assets against USD.
type PriceOracle interface {
	// Quote fetches the price of one asset. A missing asset is not an error:
	// the returned quote has Found == false and a zero price.
	Quote(ctx context.Context, assetID string) (AssetQuote, error)
}
