package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	require.NoError(t, DefaultCatalog.Validate())
	assert.Equal(t, []string{"solana", "bitcoin", "ethereum"}, DefaultCatalog.QuotedAssets())
}

func TestCatalog_Validate(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
	}{
		{name: "empty", catalog: Catalog{}},
		{name: "empty symbol", catalog: Catalog{{AssetID: "bitcoin"}}},
		{name: "duplicate", catalog: Catalog{
			{Symbol: "BTC", AssetID: "bitcoin"},
			{Symbol: "BTC", AssetID: "bitcoin"},
		}},
		{name: "missing asset id", catalog: Catalog{{Symbol: "BTC"}}},
		{name: "negative holdings", catalog: Catalog{{Symbol: "BTC", AssetID: "bitcoin", Holdings: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.catalog.Validate(), ErrInvalidCatalog)
		})
	}
}

func TestCatalog_PeggedNeedsNoAssetID(t *testing.T) {
	c := Catalog{{Symbol: "USDC", Pegged: true, PegPriceUSD: 1}}
	assert.NoError(t, c.Validate())
	assert.Empty(t, c.QuotedAssets())
}
