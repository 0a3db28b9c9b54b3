package web

import (
	"fmt"
	"net/http"
	"regexp"

	"go.uber.org/zap"

	"github.com/vitos/stratofi/internal/infrastructure/metrics"
	"github.com/vitos/stratofi/internal/usecase"
)

const (
	// SourceCurrentMarket marks a price served from the last-known table.
	SourceCurrentMarket = "current_market"

	statusOperational = "operational"

	// JavaScript Date.toISOString layout.
	isoTimestamp = "2006-01-02T15:04:05.000Z07:00"
)

var tokenIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,99}$`)

type priceResponse struct {
	Price     float64 `json:"price"`
	TokenID   string  `json:"tokenId"`
	Timestamp string  `json:"timestamp"`
	Source    string  `json:"source,omitempty"`
}

type healthServices struct {
	Blockchain string `json:"blockchain"`
	Database   string `json:"database"`
	APIs       string `json:"apis"`
}

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

func (s *Server) handleVaults(w http.ResponseWriter, r *http.Request) {
	defer s.recoverJSON(w, r, "Failed to fetch vault data")

	vaults := s.service.FetchVaultEntries(r.Context())
	s.writeJSON(w, http.StatusOK, vaults)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	defer s.recoverJSON(w, r, "Failed to fetch platform statistics")

	stats := s.service.FetchPlatformSnapshot(r.Context())
	s.writeJSON(w, http.StatusOK, stats)
}

// handleCryptoPrice proxies a single quote. Upstream failures are answered
// with the last-known price, never with an error status.
func (s *Server) handleCryptoPrice(w http.ResponseWriter, r *http.Request) {
	defer s.recoverJSON(w, r, "Failed to fetch price")

	tokenID := r.PathValue("tokenId")
	if !tokenIDPattern.MatchString(tokenID) {
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch price", fmt.Errorf("invalid token id %q", tokenID))
		return
	}

	resp := priceResponse{
		TokenID:   tokenID,
		Timestamp: s.timeNow().UTC().Format(isoTimestamp),
	}

	quote, err := s.service.FetchSingleQuote(r.Context(), tokenID)
	if err != nil {
		s.logger.Warn("Price proxy serving last known price", zap.String("token", tokenID), zap.Error(err))
		metrics.RecordFallback(metrics.TierSingleQuote)
		resp.Price = usecase.LastKnownPrice(tokenID)
		resp.Source = SourceCurrentMarket
	} else {
		resp.Price = quote.PriceUSD
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleHealth is a static liveness report; it checks no dependency.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:    statusOperational,
		Timestamp: s.timeNow().UTC().Format(isoTimestamp),
		Services: healthServices{
			Blockchain: statusOperational,
			Database:   statusOperational,
			APIs:       statusOperational,
		},
	})
}
