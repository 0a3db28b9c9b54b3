package domain

import "time"

// PlatformSnapshot is the platform-wide view served on /api/stats.
type PlatformSnapshot struct {
	TotalValueLocked      string  `json:"totalValueLocked"`
	ActiveUsers           int     `json:"activeUsers"`
	TransactionsProcessed string  `json:"transactionsProcessed"`
	NetworksSupported     int     `json:"networksSupported"`
	SecurityScore         float64 `json:"securityScore"`
}

// Dashboard pairs the vaults and the platform snapshot of one aggregation cycle.
type Dashboard struct {
	Vaults      []VaultEntry     `json:"vaults"`
	Stats       PlatformSnapshot `json:"stats"`
	GeneratedAt time.Time        `json:"generatedAt"`
}
