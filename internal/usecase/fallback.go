package usecase

import "github.com/vitos/stratofi/internal/domain"

// Two price tables exist on purpose. BatchFallbackPrices backs the vault
// aggregation, LastKnownPrices backs the single-quote proxy. They are not
// kept in sync.

// BatchFallbackPrices replaces a failed per-asset quote during aggregation.
var BatchFallbackPrices = map[string]float64{
	"ethereum": 3000,
	"solana":   150,
	"bitcoin":  65000,
	"usd-coin": 1,
}

// LastKnownPrices replaces a failed quote on /api/crypto-price.
var LastKnownPrices = map[string]float64{
	"ethereum":      3420,
	"bitcoin":       97800,
	"solana":        186,
	"usd-coin":      1.00,
	"binancecoin":   525,
	"matic-network": 0.67,
}

// LastKnownPrice returns the proxy fallback for assetID, or 0 when unknown.
func LastKnownPrice(assetID string) float64 {
	return LastKnownPrices[assetID]
}

func batchFallbackPrice(assetID string) float64 {
	return BatchFallbackPrices[assetID]
}

// FallbackVaults is served when the aggregation itself fails.
func FallbackVaults() []domain.VaultEntry {
	return []domain.VaultEntry{
		{Symbol: "SOL", AnnualYieldPct: 17.4, AvailableAmount: "1,245 SOL", TotalValueLockedUSD: 186750, Network: "Solana"},
		{Symbol: "BTC", AnnualYieldPct: 14.1, AvailableAmount: "23.5 BTC", TotalValueLockedUSD: 1527500, Network: "Bitcoin"},
		{Symbol: "USDC", AnnualYieldPct: 13.6, AvailableAmount: "$456,789", TotalValueLockedUSD: 456789, Network: "Multi-chain"},
		{Symbol: "ETH", AnnualYieldPct: 15.2, AvailableAmount: "789.5 ETH", TotalValueLockedUSD: 2368500, Network: "Ethereum"},
	}
}

// FallbackPlatformSnapshot is served when the platform snapshot cannot be composed.
func FallbackPlatformSnapshot() domain.PlatformSnapshot {
	return domain.PlatformSnapshot{
		TotalValueLocked:      "$127.5M",
		ActiveUsers:           BaseActiveUsers,
		TransactionsProcessed: TransactionsProcessedLabel,
		NetworksSupported:     NetworksSupported,
		SecurityScore:         SecurityScore,
	}
}
