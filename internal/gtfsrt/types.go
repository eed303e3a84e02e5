package gtfsrt

import (
	"time"

	"commuterdash/internal/geo"
)

// Departure is the normalized GTFS-RT (or fallback) result.
type Departure struct {
	StopID             string
	RouteID            string
	LineName           string
	ScheduledTimeUTC   time.Time
	PredictedTimeUTC   time.Time
	DelaySeconds       int
	MinutesUntil       int
	DestinationDisplay string
	IsCitybound        bool
	IsLive             bool
	Platform           string
	TripID             string
	TerminusStopID     string
}

// IsDelayed reports the invariant delaySeconds >= 60.
func (d Departure) IsDelayed() bool { return d.DelaySeconds >= 60 }

// Severity is a ServiceAlert's impact level.
type Severity string

const (
	SeverityInfo       Severity = "info"
	SeverityMinor      Severity = "minor"
	SeverityMajor      Severity = "major"
	SeverityDisruption Severity = "disruption"
)

// ServiceAlert is a normalized GTFS-RT Alert entity.
type ServiceAlert struct {
	AlertID         string
	RouteIDs        []string
	StopIDs         []string
	Severity        Severity
	EffectFrom      time.Time
	EffectTo        time.Time
	HeaderText      string
	DescriptionText string
	Mode            geo.ModeType
}

// AffectsRoute reports whether the alert names routeID.
func (a ServiceAlert) AffectsRoute(routeID string) bool {
	for _, r := range a.RouteIDs {
		if r == routeID {
			return true
		}
	}
	return false
}
