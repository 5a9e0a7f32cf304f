package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"nextbus-api/config"

	gocache "github.com/patrickmn/go-cache"
)

const distanceProvider = "distance-matrix"

// distanceMemoTTL bounds how long a resolved origin/destination distance is
// reused. Road distance between fixed points barely changes, but the
// provider's duration-in-traffic does, so the TTL stays short.
const distanceMemoTTL = time.Minute

// DistanceClient wraps the distance-matrix HTTP provider. Origins and
// destinations may be "lat,lng" pairs or free-text addresses; the provider
// resolves both.
type DistanceClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	memo       *gocache.Cache
}

func NewDistanceClient(cfg config.ProviderConfig) *DistanceClient {
	return &DistanceClient{
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL:    cfg.DistanceMatrixURL,
		apiKey:     cfg.DistanceMatrixKey,
		memo:       gocache.New(distanceMemoTTL, 5*time.Minute),
	}
}

// Matrix responses carry a status at two levels: the top-level status
// covers auth/quota/billing, the per-element status covers routability of
// the specific pair. Both must be "OK" before the distance is trusted.
type distanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
		} `json:"elements"`
	} `json:"rows"`
}

// DistanceMeters returns the driving distance from origin to destination.
// Every failure mode comes back as *ProviderError; the Status field tells
// an operator whether to look at credentials (top-level failure) or at the
// coordinates (element failure).
func (c *DistanceClient) DistanceMeters(ctx context.Context, origin, destination string) (int, error) {
	memoKey := origin + "|" + destination
	if v, ok := c.memo.Get(memoKey); ok {
		return v.(int), nil
	}

	q := url.Values{}
	q.Set("origins", origin)
	q.Set("destinations", destination)
	q.Set("mode", "driving")
	q.Set("departure_time", "now")
	q.Set("key", c.apiKey)
	reqURL := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, &ProviderError{Provider: distanceProvider, URL: c.baseURL, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &ProviderError{Provider: distanceProvider, URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &ProviderError{Provider: distanceProvider, URL: c.baseURL, Err: err}
	}

	var parsed distanceMatrixResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, &ProviderError{Provider: distanceProvider, URL: c.baseURL,
			Err: fmt.Errorf("malformed response: %w", err)}
	}

	if parsed.Status != "OK" || len(parsed.Rows) == 0 || len(parsed.Rows[0].Elements) == 0 {
		return 0, &ProviderError{
			Provider: distanceProvider,
			Status:   fmt.Sprintf("API status %s - check API key or billing", parsed.Status),
			URL:      c.baseURL,
		}
	}

	element := parsed.Rows[0].Elements[0]
	if element.Status != "OK" {
		return 0, &ProviderError{
			Provider: distanceProvider,
			Status:   fmt.Sprintf("routing status %s - check origin/destination coordinates", element.Status),
			URL:      c.baseURL,
		}
	}

	c.memo.Set(memoKey, element.Distance.Value, gocache.DefaultExpiration)
	return element.Distance.Value, nil
}
