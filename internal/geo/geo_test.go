package geo

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestDistanceMetresKnownPair(t *testing.T) {
	flindersSt := orb.Point{144.9671, -37.8183}
	southernCross := orb.Point{144.9525, -37.8183}

	d := DistanceMetres(flindersSt, southernCross)
	if d < 1000 || d > 1600 {
		t.Errorf("DistanceMetres() = %.1f, want roughly 1000-1600m for two Melbourne CBD stations", d)
	}
}

func TestDistanceMetresSamePointIsZero(t *testing.T) {
	p := orb.Point{144.9631, -37.8136}
	if d := DistanceMetres(p, p); d != 0 {
		t.Errorf("DistanceMetres(p, p) = %v, want 0", d)
	}
}

func TestWalkMinutes(t *testing.T) {
	tests := []struct {
		name   string
		metres float64
		want   int
	}{
		{"zero distance", 0, 0},
		{"negative distance", -5, 0},
		{"exact multiple of pace", 150, 2},
		{"rounds up a partial minute", 76, 2},
		{"one full minute exactly", 75, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WalkMinutes(tt.metres); got != tt.want {
				t.Errorf("WalkMinutes(%v) = %d, want %d", tt.metres, got, tt.want)
			}
		})
	}
}

func TestInferState(t *testing.T) {
	tests := []struct {
		name     string
		postcode string
		want     AuState
	}{
		{"melbourne", "3000", VIC},
		{"sydney", "2000", NSW},
		{"brisbane", "4000", QLD},
		{"adelaide", "5000", SA},
		{"perth", "6000", WA},
		{"hobart", "7000", TAS},
		{"darwin", "0800", NT},
		{"canberra act carve-out low range", "2601", ACT},
		{"canberra act carve-out high range", "2905", ACT},
		{"nsw just below act carve-out", "2599", NSW},
		{"nsw just above first act carve-out", "2619", NSW},
		{"malformed postcode defaults to nsw", "not-a-number", NSW},
		{"out of range defaults to nsw", "99999", NSW},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferState(tt.postcode); got != tt.want {
				t.Errorf("InferState(%q) = %v, want %v", tt.postcode, got, tt.want)
			}
		})
	}
}

func TestLocationPoint(t *testing.T) {
	loc := Location{Latitude: -37.8136, Longitude: 144.9631}
	p := loc.Point()
	if p[0] != loc.Longitude || p[1] != loc.Latitude {
		t.Errorf("Point() = %v, want (lon=%v, lat=%v)", p, loc.Longitude, loc.Latitude)
	}
}

func TestStateTimezonesCoversEveryState(t *testing.T) {
	for _, s := range []AuState{VIC, NSW, QLD, SA, WA, TAS, ACT, NT} {
		if _, ok := StateTimezones[s]; !ok {
			t.Errorf("StateTimezones missing entry for %v", s)
		}
	}
}
