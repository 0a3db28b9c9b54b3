package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vitos/stratofi/internal/domain"
)

// Client reads the aggregated endpoints of a running stats server.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

func (c *Client) Vaults(ctx context.Context) ([]domain.VaultEntry, error) {
	var vaults []domain.VaultEntry
	if err := c.get(ctx, "/api/vaults", &vaults); err != nil {
		return nil, err
	}
	return vaults, nil
}

func (c *Client) Stats(ctx context.Context) (domain.PlatformSnapshot, error) {
	var stats domain.PlatformSnapshot
	if err := c.get(ctx, "/api/stats", &stats); err != nil {
		return domain.PlatformSnapshot{}, err
	}
	return stats, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode())
	}
	return nil
}
