// Package geocode resolves a free-text address into a geo.Location, trying
// Google Places autocomplete first and falling back to OSM Nominatim.
// Results are cached permanently per address: populated once on first
// lookup, never expires.
package geocode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"commuterdash/internal/geo"
	"commuterdash/internal/kvstore"
)

const nominatimUA = "commuterdash/1.0 (self-hosted commuter dashboard)"

// Resolver geocodes addresses, caching permanently in the shared KV store.
type Resolver struct {
	httpClient   *http.Client
	kv           kvstore.Store
	placesAPIKey string
}

// NewResolver builds a geocoder. placesAPIKey may be empty, in which case
// Resolve always falls back directly to Nominatim.
func NewResolver(kv kvstore.Store, placesAPIKey string) *Resolver {
	return &Resolver{
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		kv:           kv,
		placesAPIKey: placesAPIKey,
	}
}

func cacheKey(address string) string { return "geocode:" + address }

// Resolve returns a Location for address, permanently caching the result.
func (r *Resolver) Resolve(ctx context.Context, address string) (geo.Location, error) {
	if raw, err := r.kv.Get(ctx, cacheKey(address)); err == nil {
		var loc geo.Location
		if err := json.Unmarshal(raw, &loc); err == nil {
			return loc, nil
		}
	}

	loc, err := r.resolveUpstream(ctx, address)
	if err != nil {
		return geo.Location{}, err
	}

	if raw, err := json.Marshal(loc); err == nil {
		_ = r.kv.Set(ctx, cacheKey(address), raw, 0)
	}
	return loc, nil
}

func (r *Resolver) resolveUpstream(ctx context.Context, address string) (geo.Location, error) {
	if r.placesAPIKey != "" {
		if loc, err := r.viaPlaces(ctx, address); err == nil {
			return loc, nil
		}
	}
	return r.viaNominatim(ctx, address)
}

type placesRequest struct {
	Input string `json:"input"`
}

type placesResponse struct {
	Suggestions []struct {
		PlacePrediction struct {
			Text struct {
				Text string `json:"text"`
			} `json:"text"`
			Place struct {
				Location struct {
					Latitude  float64 `json:"latitude"`
					Longitude float64 `json:"longitude"`
				} `json:"location"`
			} `json:"place"`
		} `json:"placePrediction"`
	} `json:"suggestions"`
}

func (r *Resolver) viaPlaces(ctx context.Context, address string) (geo.Location, error) {
	body, err := json.Marshal(placesRequest{Input: address})
	if err != nil {
		return geo.Location{}, fmt.Errorf("encode places request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://places.googleapis.com/v1/places:autocomplete", bytes.NewReader(body))
	if err != nil {
		return geo.Location{}, fmt.Errorf("build places request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", r.placesAPIKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return geo.Location{}, fmt.Errorf("places request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return geo.Location{}, fmt.Errorf("places status %d", resp.StatusCode)
	}

	var parsed placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return geo.Location{}, fmt.Errorf("decode places response: %w", err)
	}
	if len(parsed.Suggestions) == 0 {
		return geo.Location{}, fmt.Errorf("places returned no suggestions")
	}
	best := parsed.Suggestions[0].PlacePrediction
	return geo.Location{
		FormattedAddress: best.Text.Text,
		Latitude:         best.Place.Location.Latitude,
		Longitude:        best.Place.Location.Longitude,
	}, nil
}

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (r *Resolver) viaNominatim(ctx context.Context, address string) (geo.Location, error) {
	u := "https://nominatim.openstreetmap.org/search?format=json&limit=1&q=" + url.QueryEscape(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return geo.Location{}, fmt.Errorf("build nominatim request: %w", err)
	}
	req.Header.Set("User-Agent", nominatimUA)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return geo.Location{}, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return geo.Location{}, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return geo.Location{}, fmt.Errorf("decode nominatim response: %w", err)
	}
	if len(results) == 0 {
		return geo.Location{}, fmt.Errorf("nominatim returned no results for %q", address)
	}

	var lat, lon float64
	fmt.Sscanf(results[0].Lat, "%f", &lat)
	fmt.Sscanf(results[0].Lon, "%f", &lon)
	return geo.Location{
		FormattedAddress: results[0].DisplayName,
		Latitude:         lat,
		Longitude:        lon,
	}, nil
}
