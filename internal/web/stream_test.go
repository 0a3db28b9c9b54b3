package web

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitos/stratofi/internal/domain"
)

func TestHandleStream_PushesDashboards(t *testing.T) {
	srv := setupServer(t, &upstream{prices: defaultPrices}, testServerConfig())

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	for i := 0; i < 2; i++ {
		var dash domain.Dashboard
		require.NoError(t, conn.ReadJSON(&dash))
		assert.Len(t, dash.Vaults, 4)
		assert.Equal(t, "$3.6M", dash.Stats.TotalValueLocked)
		assert.False(t, dash.GeneratedAt.IsZero())
	}
}

func TestHandleStream_RejectsForeignOrigin(t *testing.T) {
	cfg := testServerConfig()
	cfg.AllowedOrigins = []string{"https://app.stratofi.io"}
	srv := setupServer(t, &upstream{prices: defaultPrices}, cfg)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
