package domain

import (
	"errors"
	"fmt"
)

// VaultEntry is the per-asset view served on /api/vaults.
type VaultEntry struct {
	Symbol              string  `json:"symbol"`
	AnnualYieldPct      float64 `json:"apy"`
	AvailableAmount     string  `json:"available"`
	TotalValueLockedUSD float64 `json:"tvl"`
	Network             string  `json:"network"`
}

// VaultSpec is the static configuration behind one VaultEntry.
type VaultSpec struct {
	Symbol         string
	AssetID        string
	Network        string
	AvailableLabel string
	Holdings       float64 // nominal units held, not a live balance
	BaseYieldPct   float64
	Pegged         bool // priced at PegPriceUSD, never sent to the oracle
	PegPriceUSD    float64
}

type Catalog []VaultSpec

var ErrInvalidCatalog = errors.New("invalid vault catalog")

// DefaultCatalog lists the vaults served by the platform, in display order.
var DefaultCatalog = Catalog{
	{Symbol: "SOL", AssetID: "solana", Network: "Solana", AvailableLabel: "1,245 SOL", Holdings: 1245, BaseYieldPct: 17.4},
	{Symbol: "BTC", AssetID: "bitcoin", Network: "Bitcoin", AvailableLabel: "23.5 BTC", Holdings: 23.5, BaseYieldPct: 14.1},
	{Symbol: "USDC", AssetID: "usd-coin", Network: "Multi-chain", AvailableLabel: "$456,789", Holdings: 456789, BaseYieldPct: 13.6, Pegged: true, PegPriceUSD: 1},
	{Symbol: "ETH", AssetID: "ethereum", Network: "Ethereum", AvailableLabel: "789.5 ETH", Holdings: 789.5, BaseYieldPct: 15.2},
}

func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: no vaults", ErrInvalidCatalog)
	}
	seen := make(map[string]bool, len(c))
	for _, v := range c {
		if v.Symbol == "" {
			return fmt.Errorf("%w: empty symbol", ErrInvalidCatalog)
		}
		if seen[v.Symbol] {
			return fmt.Errorf("%w: duplicate symbol %s", ErrInvalidCatalog, v.Symbol)
		}
		seen[v.Symbol] = true
		if !v.Pegged && v.AssetID == "" {
			return fmt.Errorf("%w: %s has no asset id", ErrInvalidCatalog, v.Symbol)
		}
		if v.Holdings < 0 {
			return fmt.Errorf("%w: %s has negative holdings", ErrInvalidCatalog, v.Symbol)
		}
	}
	return nil
}

// QuotedAssets returns the asset ids that need an oracle call.
func (c Catalog) QuotedAssets() []string {
	var ids []string
	for _, v := range c {
		if !v.Pegged {
			ids = append(ids, v.AssetID)
		}
	}
	return ids
}
