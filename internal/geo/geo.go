// Package geo holds Location, Stop, and Route data-model types for
// geography, plus the distance/walking-time math the Engine and Coffee
// Decision share. Points use github.com/paulmach/orb so distances compose
// with the rest of the stop graph rather than hand-rolled trig at every call
// site.
package geo

import (
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// AuState is an Australian state or territory.
type AuState string

const (
	VIC AuState = "VIC"
	NSW AuState = "NSW"
	QLD AuState = "QLD"
	SA  AuState = "SA"
	WA  AuState = "WA"
	TAS AuState = "TAS"
	ACT AuState = "ACT"
	NT  AuState = "NT"
)

// StateTimezones backs the "FRIDAY TREAT" day-of-week decision in the Coffee
// Decision sub-engine, resolved against the user's state-derived timezone
// rather than server-local time or UTC.
var StateTimezones = map[AuState]string{
	VIC: "Australia/Melbourne",
	NSW: "Australia/Sydney",
	QLD: "Australia/Brisbane",
	SA:  "Australia/Adelaide",
	WA:  "Australia/Perth",
	TAS: "Australia/Hobart",
	ACT: "Australia/Sydney",
	NT:  "Australia/Darwin",
}

// Location is a geocoded address.
type Location struct {
	FormattedAddress string  `json:"formattedAddress"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	State            AuState `json:"state"`
}

// Point returns the location as an orb.Point (lon, lat).
func (l Location) Point() orb.Point {
	return orb.Point{l.Longitude, l.Latitude}
}

// actPostcodeRanges are postcode ranges where ACT overrides the NSW inference.
var actPostcodeRanges = [][2]int{{2600, 2618}, {2900, 2920}}

// InferState derives a state from a postcode, defaulting to NSW outside the
// ACT carve-out. An explicit user-provided state always wins; this is only
// used to fill a blank field at geocode time.
func InferState(postcode string) AuState {
	n, err := strconv.Atoi(postcode)
	if err != nil {
		return NSW
	}
	for _, r := range actPostcodeRanges {
		if n >= r[0] && n <= r[1] {
			return ACT
		}
	}
	switch {
	case n >= 2000 && n <= 2999:
		return NSW
	case n >= 3000 && n <= 3999:
		return VIC
	case n >= 4000 && n <= 4999:
		return QLD
	case n >= 5000 && n <= 5999:
		return SA
	case n >= 6000 && n <= 6999:
		return WA
	case n >= 7000 && n <= 7999:
		return TAS
	case n >= 800 && n <= 999:
		return NT
	default:
		return NSW
	}
}

// ModeType is a transit mode.
type ModeType string

const (
	ModeTrain     ModeType = "train"
	ModeTram      ModeType = "tram"
	ModeBus       ModeType = "bus"
	ModeLightRail ModeType = "lightRail"
	ModeFerry     ModeType = "ferry"
	ModeVLine     ModeType = "vline"
)

// Stop is one platform/direction of a station: two platforms of one station
// are two stops with different ids.
type Stop struct {
	ID            string
	Name          string
	ModeType      ModeType
	Latitude      float64
	Longitude     float64
	RouteID       string
	IsInterchange bool
}

// Point returns the stop's coordinate as an orb.Point (lon, lat).
func (s Stop) Point() orb.Point {
	return orb.Point{s.Longitude, s.Latitude}
}

// Route describes one transit line.
type Route struct {
	RouteID     string
	LineName    string
	ModeType    ModeType
	TerminusIDs []string
}

// DistanceMetres returns the great-circle distance between two points using
// orb/geo (WGS84 haversine), replacing ad-hoc per-call trig.
func DistanceMetres(a, b orb.Point) float64 {
	return geo.Distance(a, b)
}

// WalkMinutes converts a distance to a whole-minute walking time at a
// constant commuter pace (4.5 km/h ≈ 75 m/min), rounded up.
func WalkMinutes(metres float64) int {
	if metres <= 0 {
		return 0
	}
	mins := metres / WalkPaceMetresPerMinute
	whole := int(mins)
	if float64(whole) < mins {
		whole++
	}
	return whole
}

// WalkPaceMetresPerMinute is the constant commuter pace used throughout the
// Engine and Coffee Decision.
const WalkPaceMetresPerMinute = 75.0
