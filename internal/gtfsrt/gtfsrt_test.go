package gtfsrt

import (
	"context"
	"testing"
	"time"

	"commuterdash/internal/cache"
	"commuterdash/internal/geo"
)

func TestIsCityLoopStop(t *testing.T) {
	a := MelbourneAuthority("")

	tests := []struct {
		name   string
		stopID string
		want   bool
	}{
		{"prefix match", "26001", true},
		{"explicit id", "12204", true},
		{"explicit id second", "12205", true},
		{"regular suburban stop", "19866", false},
		{"empty id", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.IsCityLoopStop(tt.stopID); got != tt.want {
				t.Errorf("IsCityLoopStop(%q) = %v, want %v", tt.stopID, got, tt.want)
			}
		})
	}
}

func TestLineNameMapsCodeToDisplayName(t *testing.T) {
	c := &Client{authority: MelbourneAuthority("")}

	tests := []struct {
		name    string
		routeID string
		want    string
	}{
		{"known code", "vic-02-PKM", "Pakenham"},
		{"unknown but matching code", "vic-02-ZZZ", "ZZZ"},
		{"pattern does not match at all", "not-a-vic-route", "not-a-vic-route"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.lineName(tt.routeID); got != tt.want {
				t.Errorf("lineName(%q) = %q, want %q", tt.routeID, got, tt.want)
			}
		})
	}
}

func TestLineDisplayCityboundOverridesLineName(t *testing.T) {
	c := &Client{authority: MelbourneAuthority("")}

	if got := c.lineDisplay("vic-02-PKM", true); got != "City Loop" {
		t.Errorf("lineDisplay(citybound=true) = %q, want %q", got, "City Loop")
	}
	if got := c.lineDisplay("vic-02-PKM", false); got != "Pakenham" {
		t.Errorf("lineDisplay(citybound=false) = %q, want %q", got, "Pakenham")
	}
}

func TestMinutesUntil(t *testing.T) {
	now := time.Date(2026, 8, 3, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		predicted time.Time
		want      int
	}{
		{"five minutes ahead", now.Add(5 * time.Minute), 5},
		{"already departed", now.Add(-2 * time.Minute), 0},
		{"right now", now, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := minutesUntil(tt.predicted, now); got != tt.want {
				t.Errorf("minutesUntil() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSeverityFromEffect(t *testing.T) {
	tests := []struct {
		effect string
		want   Severity
	}{
		{"NO_SERVICE", SeverityDisruption},
		{"DETOUR", SeverityDisruption},
		{"REDUCED_SERVICE", SeverityMajor},
		{"SIGNIFICANT_DELAYS", SeverityMajor},
		{"MODIFIED_SERVICE", SeverityMinor},
		{"UNKNOWN_EFFECT", SeverityInfo},
		{"", SeverityInfo},
	}
	for _, tt := range tests {
		t.Run(tt.effect, func(t *testing.T) {
			if got := severityFromEffect(tt.effect); got != tt.want {
				t.Errorf("severityFromEffect(%q) = %v, want %v", tt.effect, got, tt.want)
			}
		})
	}
}

func TestActiveAlertsFiltersByWindow(t *testing.T) {
	now := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	alerts := []ServiceAlert{
		{AlertID: "past", EffectFrom: now.Add(-4 * time.Hour), EffectTo: now.Add(-2 * time.Hour)},
		{AlertID: "current", EffectFrom: now.Add(-1 * time.Hour), EffectTo: now.Add(1 * time.Hour)},
		{AlertID: "future", EffectFrom: now.Add(2 * time.Hour), EffectTo: now.Add(4 * time.Hour)},
		{AlertID: "boundary-start", EffectFrom: now, EffectTo: now.Add(time.Hour)},
	}

	active := activeAlerts(alerts, now)
	if len(active) != 2 {
		t.Fatalf("activeAlerts() = %d alerts, want 2", len(active))
	}
	ids := map[string]bool{}
	for _, a := range active {
		ids[a.AlertID] = true
	}
	if !ids["current"] || !ids["boundary-start"] {
		t.Errorf("activeAlerts() = %v, want current and boundary-start", active)
	}
}

func TestGetDeparturesEmptyStopIDReturnsNil(t *testing.T) {
	c := NewClient(MelbourneAuthority(""), "", cache.NewTTLCache(16), nil)
	deps := c.GetDepartures(context.Background(), "", geo.ModeTrain, GetDeparturesOptions{})
	if deps != nil {
		t.Errorf("GetDepartures(empty stop id) = %v, want nil", deps)
	}
}

func TestGetDeparturesNoAPIKeyNoFallbackReturnsNil(t *testing.T) {
	c := NewClient(MelbourneAuthority(""), "", cache.NewTTLCache(16), nil)
	deps := c.GetDepartures(context.Background(), "stop-1", geo.ModeTrain, GetDeparturesOptions{})
	if deps != nil {
		t.Errorf("GetDepartures() with no api key and no fallback = %v, want nil", deps)
	}
}

func TestDepartureIsDelayedInvariant(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    bool
	}{
		{"under a minute late", 59, false},
		{"exactly a minute late", 60, true},
		{"on time", 0, false},
		{"early", -30, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Departure{DelaySeconds: tt.seconds}
			if got := d.IsDelayed(); got != tt.want {
				t.Errorf("IsDelayed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServiceAlertAffectsRoute(t *testing.T) {
	a := ServiceAlert{RouteIDs: []string{"R1", "R2"}}
	if !a.AffectsRoute("R1") {
		t.Error("AffectsRoute(R1) = false, want true")
	}
	if a.AffectsRoute("R3") {
		t.Error("AffectsRoute(R3) = true, want false")
	}
}
