// Package weather fetches and caches current conditions from a bureau JSON
// endpoint. Only temperature, a short condition string, and a
// rain-expected flag are consumed, decoded directly into the small
// bureauResponse struct via httpClient + json.Decoder rather than pulling in a weather
// SDK for three fields.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"commuterdash/internal/cache"
	"commuterdash/internal/config"
)

// Conditions is the normalized subset of the bureau response the renderer
// needs.
type Conditions struct {
	TemperatureC  int
	ShortText     string
	RainExpected  bool
}

// Client fetches current conditions, caching per 0.1°-bucketed coordinate.
type Client struct {
	httpClient *http.Client
	endpoint   string
	cache      *cache.TTLCache
}

// NewClient builds a weather client against a bureau endpoint (BOM-style
// JSON API). endpoint is a format string taking lat,lon.
func NewClient(endpoint string, c *cache.TTLCache) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: config.WeatherDeadline},
		endpoint:   endpoint,
		cache:      c,
	}
}

func bucketKey(lat, lon float64) string {
	b := func(v float64) float64 { return math.Round(v*10) / 10 }
	return fmt.Sprintf("weather:%.1f,%.1f", b(lat), b(lon))
}

// Get returns current conditions for a coordinate, degrading to a cached
// value (even if stale) or a zero-value Conditions on total failure. The
// Engine/Renderer never see an error from this layer: weather is an
// ambient display element, not something that can fail a request.
func (c *Client) Get(ctx context.Context, lat, lon float64) Conditions {
	key := bucketKey(lat, lon)
	if e, fresh := c.cache.Get(key, config.WeatherCacheTTL); fresh {
		return e.Value.(Conditions)
	}

	v, err, _ := c.cache.Refresh(key, func() (any, error) {
		return c.fetch(ctx, lat, lon)
	})
	if err != nil {
		if e, ok := c.cache.Peek(key); ok {
			return e.Value.(Conditions)
		}
		return Conditions{}
	}
	cond := v.(Conditions)
	c.cache.Set(key, cond)
	return cond
}

type bureauResponse struct {
	Data []struct {
		AirTemp    float64 `json:"air_temp"`
		CloudDesc  string  `json:"cloud_type_desc"`
		RainSince9 float64 `json:"rain_trace"`
	} `json:"data"`
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (Conditions, error) {
	url := fmt.Sprintf(c.endpoint, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Conditions{}, fmt.Errorf("build weather request: %w", err)
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("weather request after %s: %w", time.Since(start), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Conditions{}, fmt.Errorf("weather status %d", resp.StatusCode)
	}

	var parsed bureauResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Conditions{}, fmt.Errorf("decode weather response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return Conditions{}, fmt.Errorf("weather response had zero observations")
	}
	latest := parsed.Data[0]
	return Conditions{
		TemperatureC: int(math.Round(latest.AirTemp)),
		ShortText:    latest.CloudDesc,
		RainExpected: latest.RainSince9 > 0,
	}, nil
}
