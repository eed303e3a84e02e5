// Package token implements the ConfigToken: a base64url-encoded, short-keyed
// JSON blob that is the entire user configuration. There is no
// server-side row for a user — the token IS the config.
package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"commuterdash/internal/geo"
)

// ErrBadToken is returned for any malformed token.
var ErrBadToken = errors.New("bad_token")

// MaxTokenBytes bounds the accepted encoded token size to 4 KiB.
const MaxTokenBytes = 4096

// APIMode records the user's cached/live feed preference. Neither the Engine
// nor gtfsrt.Client changes behaviour on it.
type APIMode string

const (
	APIModeCached APIMode = "cached"
	APIModeLive   APIMode = "live"
)

// JourneyConfig is the user's full configuration — the payload of a token.
type JourneyConfig struct {
	Home           geo.Location `json:"home"`
	Work           geo.Location `json:"work"`
	Cafe           *geo.Location `json:"cafe,omitempty"`
	ArrivalTimeLocal string      `json:"arrivalTimeLocal"`
	CoffeeEnabled  bool         `json:"coffeeEnabled"`
	APIMode        APIMode      `json:"apiMode"`
	State          geo.AuState  `json:"state"`
	TransitAPIKey  string       `json:"transitApiKey,omitempty"`
	PlacesAPIKey   string       `json:"placesApiKey,omitempty"`

	// Extensions carries forward-compatible, server-ignored fields so a
	// token produced by a newer wizard never fails to decode here.
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
}

// wireConfig is the short-key JSON shape exchanged on the wire:
// {a:{home,work,cafe}, t, c, k, g, s, m}.
type wireConfig struct {
	A struct {
		Home geo.Location  `json:"home"`
		Work geo.Location  `json:"work"`
		Cafe *geo.Location `json:"cafe,omitempty"`
	} `json:"a"`
	T string      `json:"t"`
	C bool        `json:"c"`
	K string      `json:"k,omitempty"`
	G string      `json:"g,omitempty"`
	S geo.AuState `json:"s"`
	M APIMode     `json:"m"`

	Extensions map[string]json.RawMessage `json:"x,omitempty"`
}

// Encode converts a JourneyConfig into a base64url (no padding) token.
func Encode(cfg JourneyConfig) (string, error) {
	var w wireConfig
	w.A.Home = cfg.Home
	w.A.Work = cfg.Work
	w.A.Cafe = cfg.Cafe
	w.T = cfg.ArrivalTimeLocal
	w.C = cfg.CoffeeEnabled
	w.K = cfg.TransitAPIKey
	w.G = cfg.PlacesAPIKey
	w.S = cfg.State
	w.M = cfg.APIMode
	w.Extensions = cfg.Extensions

	raw, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	if len(encoded) > MaxTokenBytes {
		return "", fmt.Errorf("encode token: %d bytes exceeds %d byte limit", len(encoded), MaxTokenBytes)
	}
	return encoded, nil
}

// Decode parses a token back into a JourneyConfig. Any base64 or JSON parse
// failure, or a token exceeding MaxTokenBytes, yields ErrBadToken — the
// request-level handler translates that to HTTP 400 with no detail about
// what the token decoded to.
func Decode(encoded string) (JourneyConfig, error) {
	if len(encoded) == 0 || len(encoded) > MaxTokenBytes {
		return JourneyConfig{}, ErrBadToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return JourneyConfig{}, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	var w wireConfig
	if err := json.Unmarshal(raw, &w); err != nil {
		return JourneyConfig{}, fmt.Errorf("%w: %v", ErrBadToken, err)
	}

	cfg := JourneyConfig{
		Home:             w.A.Home,
		Work:             w.A.Work,
		Cafe:             w.A.Cafe,
		ArrivalTimeLocal: w.T,
		CoffeeEnabled:    w.C,
		APIMode:          w.M,
		State:            w.S,
		TransitAPIKey:    w.K,
		PlacesAPIKey:     w.G,
		Extensions:       w.Extensions,
	}
	return cfg, nil
}
