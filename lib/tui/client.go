package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakisthb/ads-pro-win-sub002/lib/web"
)

// HealthSnapshot is the daemon's health report as served by /api/health.
type HealthSnapshot = web.HealthResponse

// apiClient talks to the daemon's status HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) (*apiClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", baseURL)
	}

	return &apiClient{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}, nil
}

// Health fetches the current pool health. The endpoint answers 503 when
// the pool is degraded but still carries the full body, so both status
// codes are treated as success here.
func (c *apiClient) Health() (*HealthSnapshot, error) {
	resp, err := c.http.Get(c.baseURL + "/api/health")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, fmt.Errorf("status API answered %s", resp.Status)
	}

	var snapshot HealthSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decoding health response: %w", err)
	}
	return &snapshot, nil
}
