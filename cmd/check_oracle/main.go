package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/vitos/stratofi/internal/config"
	"github.com/vitos/stratofi/internal/domain"
	"github.com/vitos/stratofi/internal/infrastructure/oracle"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. Load Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Testing price oracle...\n")
	fmt.Printf("Endpoint: %s\n", cfg.Oracle.BaseURL)
	if cfg.Oracle.APIKey != "" {
		fmt.Printf("API Key: %s...\n", cfg.Oracle.APIKey[:min(4, len(cfg.Oracle.APIKey))])
	}

	o := oracle.NewCoinGeckoOracle(oracle.Options{
		BaseURL:   cfg.Oracle.BaseURL,
		APIKey:    cfg.Oracle.APIKey,
		UserAgent: cfg.Oracle.UserAgent,
		Timeout:   cfg.Oracle.RequestTimeout,
	}, zap.NewNop())
	ctx := context.Background()

	// 2. Quote every catalog asset
	failed := false
	for _, assetID := range domain.DefaultCatalog.QuotedAssets() {
		q, err := o.Quote(ctx, assetID)
		switch {
		case err != nil:
			failed = true
			fmt.Printf("❌ %s: %v\n", assetID, err)
		case !q.Found:
			failed = true
			fmt.Printf("❌ %s: not listed by the oracle\n", assetID)
		default:
			fmt.Printf("✅ %s: $%.2f\n", assetID, q.PriceUSD)
		}
	}

	if failed {
		os.Exit(1)
	}
}
