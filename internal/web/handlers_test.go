package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/stratofi/internal/config"
	"github.com/vitos/stratofi/internal/domain"
	"github.com/vitos/stratofi/internal/infrastructure/oracle"
	"github.com/vitos/stratofi/internal/usecase"
)

// upstream fakes the price oracle. Assets listed in failing answer 503.
type upstream struct {
	prices  map[string]float64
	failing map[string]bool
	calls   atomic.Int32
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.calls.Add(1)
	id := r.URL.Query().Get("ids")
	if u.failing[id] {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	body := map[string]map[string]float64{}
	if p, ok := u.prices[id]; ok {
		body[id] = map[string]float64{"usd": p}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Port:           8080,
		StreamInterval: 50 * time.Millisecond,
	}
}

func setupServer(t *testing.T, up *upstream, cfg config.ServerConfig) *httptest.Server {
	t.Helper()
	oracleSrv := httptest.NewServer(up)
	t.Cleanup(oracleSrv.Close)

	o := oracle.NewCoinGeckoOracle(oracle.Options{BaseURL: oracleSrv.URL, Timeout: time.Second}, zap.NewNop())
	svc := usecase.NewAggregationService(o, domain.DefaultCatalog, 2*time.Second, zap.NewNop())
	s := NewServer(cfg, svc, zap.NewNop())

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

var defaultPrices = map[string]float64{"bitcoin": 60000, "ethereum": 2000, "solana": 100}

func TestHandleVaults(t *testing.T) {
	srv := setupServer(t, &upstream{prices: defaultPrices}, testServerConfig())

	var vaults []map[string]interface{}
	resp := getJSON(t, srv.URL+"/api/vaults", &vaults)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.Len(t, vaults, 4)
	assert.Equal(t, "SOL", vaults[0]["symbol"])
	assert.Equal(t, "1,245 SOL", vaults[0]["available"])
	assert.Equal(t, 124500.0, vaults[0]["tvl"])
	assert.Contains(t, vaults[0], "apy")
	assert.Equal(t, "Solana", vaults[0]["network"])
}

func TestHandleVaults_UpstreamFailureIsolated(t *testing.T) {
	srv := setupServer(t, &upstream{prices: defaultPrices, failing: map[string]bool{"ethereum": true}}, testServerConfig())

	var vaults []domain.VaultEntry
	resp := getJSON(t, srv.URL+"/api/vaults", &vaults)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got := map[string]float64{}
	for _, v := range vaults {
		got[v.Symbol] = v.TotalValueLockedUSD
	}
	assert.Equal(t, 3000*789.5, got["ETH"])
	assert.Equal(t, 60000*23.5, got["BTC"])
}

func TestHandleVaults_HugePriceStillEncodes(t *testing.T) {
	up := &upstream{prices: map[string]float64{"solana": 1e308, "bitcoin": 60000, "ethereum": 2000}}
	srv := setupServer(t, up, testServerConfig())

	var vaults []domain.VaultEntry
	resp := getJSON(t, srv.URL+"/api/vaults", &vaults)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, vaults, 4)
	assert.Equal(t, 150*1245.0, bySymbol(vaults)["SOL"])

	var stats domain.PlatformSnapshot
	getJSON(t, srv.URL+"/api/stats", &stats)
	assert.Equal(t, "$3.6M", stats.TotalValueLocked)
}

func bySymbol(vaults []domain.VaultEntry) map[string]float64 {
	out := make(map[string]float64, len(vaults))
	for _, v := range vaults {
		out[v.Symbol] = v.TotalValueLockedUSD
	}
	return out
}

func TestHandleStats(t *testing.T) {
	srv := setupServer(t, &upstream{prices: defaultPrices}, testServerConfig())

	var stats domain.PlatformSnapshot
	resp := getJSON(t, srv.URL+"/api/stats", &stats)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "$3.6M", stats.TotalValueLocked)
	assert.Equal(t, "1.2M+", stats.TransactionsProcessed)
	assert.Equal(t, 5, stats.NetworksSupported)
	assert.Equal(t, 98.7, stats.SecurityScore)
	assert.InDelta(t, usecase.BaseActiveUsers, stats.ActiveUsers, usecase.ActiveUsersJitter)
}

func TestHandleCryptoPrice_Live(t *testing.T) {
	srv := setupServer(t, &upstream{prices: defaultPrices}, testServerConfig())

	var body map[string]interface{}
	resp := getJSON(t, srv.URL+"/api/crypto-price/bitcoin", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 60000.0, body["price"])
	assert.Equal(t, "bitcoin", body["tokenId"])
	assert.NotContains(t, body, "source")

	ts, err := time.Parse(time.RFC3339Nano, body["timestamp"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestHandleCryptoPrice_UpstreamUnavailable(t *testing.T) {
	srv := setupServer(t, &upstream{prices: defaultPrices, failing: map[string]bool{"ethereum": true}}, testServerConfig())

	var body priceResponse
	resp := getJSON(t, srv.URL+"/api/crypto-price/ethereum", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, SourceCurrentMarket, body.Source)
	assert.Equal(t, 3420.0, body.Price)
	assert.Equal(t, "ethereum", body.TokenID)
}

func TestHandleCryptoPrice_UnknownTokenFallback(t *testing.T) {
	srv := setupServer(t, &upstream{failing: map[string]bool{"dogecoin": true}}, testServerConfig())

	var body priceResponse
	getJSON(t, srv.URL+"/api/crypto-price/dogecoin", &body)

	assert.Equal(t, SourceCurrentMarket, body.Source)
	assert.Zero(t, body.Price)
}

func TestHandleCryptoPrice_MissingKey(t *testing.T) {
	srv := setupServer(t, &upstream{prices: defaultPrices}, testServerConfig())

	var body priceResponse
	resp := getJSON(t, srv.URL+"/api/crypto-price/not-listed", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, body.Price)
	assert.Empty(t, body.Source)
}

func TestHandleCryptoPrice_MalformedToken(t *testing.T) {
	up := &upstream{prices: defaultPrices}
	srv := setupServer(t, up, testServerConfig())

	var body errorResponse
	resp := getJSON(t, srv.URL+"/api/crypto-price/%24%7Bbad%7D", &body)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to fetch price", body.Error)
	assert.NotEmpty(t, body.Message)
	assert.Zero(t, up.calls.Load())
}

func TestHandleHealth(t *testing.T) {
	up := &upstream{failing: map[string]bool{"bitcoin": true, "ethereum": true, "solana": true}}
	srv := setupServer(t, up, testServerConfig())

	var body healthResponse
	resp := getJSON(t, srv.URL+"/api/health", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "operational", body.Status)
	assert.Equal(t, healthServices{Blockchain: "operational", Database: "operational", APIs: "operational"}, body.Services)
	assert.NotEmpty(t, body.Timestamp)
	assert.Zero(t, up.calls.Load())
}

// panickingService fails past every internal fallback.
type panickingService struct{}

func (panickingService) FetchVaultEntries(context.Context) []domain.VaultEntry { panic("boom") }
func (panickingService) FetchPlatformSnapshot(context.Context) domain.PlatformSnapshot {
	panic("boom")
}
func (panickingService) FetchDashboard(context.Context) domain.Dashboard { panic("boom") }
func (panickingService) FetchSingleQuote(context.Context, string) (domain.AssetQuote, error) {
	panic("boom")
}

func TestHandlers_InternalErrorShape(t *testing.T) {
	s := NewServer(testServerConfig(), panickingService{}, zap.NewNop())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	tests := []struct {
		path string
		msg  string
	}{
		{"/api/vaults", "Failed to fetch vault data"},
		{"/api/stats", "Failed to fetch platform statistics"},
		{"/api/crypto-price/bitcoin", "Failed to fetch price"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var body errorResponse
			resp := getJSON(t, srv.URL+tt.path, &body)
			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			assert.Equal(t, tt.msg, body.Error)
			assert.Equal(t, "boom", body.Message)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := setupServer(t, &upstream{prices: defaultPrices}, testServerConfig())

	getJSON(t, srv.URL+"/api/health", nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `stratofi_http_requests_total{method="GET",path="GET /api/health",status="200"}`)
}
