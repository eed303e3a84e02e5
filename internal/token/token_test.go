package token

import (
	"encoding/json"
	"strings"
	"testing"

	"commuterdash/internal/geo"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  JourneyConfig
	}{
		{
			name: "full config with cafe",
			cfg: JourneyConfig{
				Home:             geo.Location{FormattedAddress: "100 Example St", Latitude: -37.81, Longitude: 144.96, State: geo.VIC},
				Work:             geo.Location{FormattedAddress: "200 Sample Ave", Latitude: -37.82, Longitude: 144.95, State: geo.VIC},
				Cafe:             &geo.Location{FormattedAddress: "Corner Cafe", Latitude: -37.815, Longitude: 144.955},
				ArrivalTimeLocal: "09:00",
				CoffeeEnabled:    true,
				APIMode:          APIModeLive,
				State:            geo.VIC,
				TransitAPIKey:    "secret-key",
			},
		},
		{
			name: "minimal config, no cafe, cached mode",
			cfg: JourneyConfig{
				Home:    geo.Location{Latitude: -33.86, Longitude: 151.2, State: geo.NSW},
				Work:    geo.Location{Latitude: -33.87, Longitude: 151.21, State: geo.NSW},
				APIMode: APIModeCached,
				State:   geo.NSW,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.cfg)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if strings.ContainsAny(encoded, "+/=") {
				t.Errorf("Encode() produced non-URL-safe characters: %q", encoded)
			}

			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if decoded.Home != tt.cfg.Home {
				t.Errorf("Home = %+v, want %+v", decoded.Home, tt.cfg.Home)
			}
			if decoded.Work != tt.cfg.Work {
				t.Errorf("Work = %+v, want %+v", decoded.Work, tt.cfg.Work)
			}
			if decoded.CoffeeEnabled != tt.cfg.CoffeeEnabled {
				t.Errorf("CoffeeEnabled = %v, want %v", decoded.CoffeeEnabled, tt.cfg.CoffeeEnabled)
			}
			if decoded.APIMode != tt.cfg.APIMode {
				t.Errorf("APIMode = %v, want %v", decoded.APIMode, tt.cfg.APIMode)
			}
			if (decoded.Cafe == nil) != (tt.cfg.Cafe == nil) {
				t.Errorf("Cafe presence mismatch: got %v, want %v", decoded.Cafe, tt.cfg.Cafe)
			}
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"empty string", ""},
		{"not base64url", "!!!not-valid-base64!!!"},
		{"valid base64 but not JSON", "bm90anNvbg"},
		{"oversized token", strings.Repeat("A", MaxTokenBytes+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.encoded); err == nil {
				t.Errorf("Decode(%q) succeeded, want error", tt.encoded)
			}
		})
	}
}

func TestEncodeForwardCompatibleExtensions(t *testing.T) {
	cfg := JourneyConfig{
		Home: geo.Location{State: geo.VIC},
		Work: geo.Location{State: geo.VIC},
		State: geo.VIC,
		// Simulate a newer wizard adding a field this server does not know.
		Extensions: map[string]json.RawMessage{"newerWizardField": json.RawMessage(`{"v":2}`)},
	}
	encoded, err := Encode(cfg)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	// A token with unrecognized extensions must still decode.
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() of a currently-valid token unexpectedly failed: %v", err)
	}
	if decoded.State != geo.VIC {
		t.Errorf("State = %v, want %v", decoded.State, geo.VIC)
	}
}
