// Package render is the Zone Renderer: it turns an
// engine.Journey plus current weather into either a 1-bit BMP (e-ink
// devices) or an 8-bit PNG (tablets), and exposes named zones so a device
// can request only the part of the screen it needs to redraw.
package render

import (
	"commuterdash/internal/config"
)

// Zone is one named rectangle of the canonical 800x480 layout.
type Zone struct {
	ID     string
	X, Y   int
	Width  int
	Height int
}

// canonicalWidth/Height is the layout's design resolution; device profiles
// with a different Width/Height are reflowed proportionally.
const (
	canonicalWidth  = 800
	canonicalHeight = 480
)

// canonicalZones is the fixed screen layout every device profile reflows
// from. The header is split into six independently-refreshable sub-zones so
// a device can redraw, say, just the clock without touching the weather
// panel next to it.
var canonicalZones = []Zone{
	{ID: "header.location", X: 0, Y: 0, Width: 380, Height: 20},
	{ID: "header.time", X: 0, Y: 20, Width: 380, Height: 74},
	{ID: "header.dayDate", X: 140, Y: 20, Width: 240, Height: 74},
	{ID: "header.statusBadges", X: 140, Y: 40, Width: 240, Height: 54},
	{ID: "header.coffeeBox", X: 380, Y: 4, Width: 240, Height: 86},
	{ID: "header.weather", X: 620, Y: 4, Width: 180, Height: 86},
	{ID: "status", X: 0, Y: 96, Width: 800, Height: 28},
	{ID: "legs", X: 0, Y: 132, Width: 800, Height: 308},
	{ID: "footer", X: 0, Y: 448, Width: 800, Height: 32},
}

// ListZones returns the canonical zone layout, independent of device
// profile — callers reflow individually via zoneFor.
func ListZones() []Zone {
	out := make([]Zone, len(canonicalZones))
	copy(out, canonicalZones)
	return out
}

// ZonesForProfile returns every zone reflowed onto profile — the rectangles
// a device should use to map zone ids onto its own screen coordinates.
func ZonesForProfile(profile config.DeviceProfile) []Zone {
	out := make([]Zone, len(canonicalZones))
	for i, z := range canonicalZones {
		out[i] = reflow(z, profile)
	}
	return out
}

// zoneFor returns the named zone reflowed onto profile's Width/Height,
// preserving relative position and proportion.
func zoneFor(id string, profile config.DeviceProfile) (Zone, bool) {
	for _, z := range canonicalZones {
		if z.ID != id {
			continue
		}
		return reflow(z, profile), true
	}
	return Zone{}, false
}

func reflow(z Zone, profile config.DeviceProfile) Zone {
	sx := float64(profile.Width) / float64(canonicalWidth)
	sy := float64(profile.Height) / float64(canonicalHeight)
	return Zone{
		ID:     z.ID,
		X:      int(float64(z.X) * sx),
		Y:      int(float64(z.Y) * sy),
		Width:  int(float64(z.Width) * sx),
		Height: int(float64(z.Height) * sy),
	}
}
