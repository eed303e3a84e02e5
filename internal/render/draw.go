package render

import (
	"fmt"
	"strings"

	"github.com/fogleman/gg"

	"commuterdash/internal/engine"
	"commuterdash/internal/weather"
)

var (
	colorBlack = [3]float64{0, 0, 0}
	colorGray  = [3]float64{0.45, 0.45, 0.45}
	colorWhite = [3]float64{1, 1, 1}
)

func setColor(dc *gg.Context, c [3]float64) {
	dc.SetRGB(c[0], c[1], c[2])
}

func modeGlyph(l engine.Leg) string {
	if l.Kind != engine.LegTransit {
		return "W"
	}
	switch l.Transit.ModeType {
	case "train":
		return "T"
	case "tram":
		return "M"
	case "bus":
		return "B"
	case "ferry":
		return "F"
	case "vline":
		return "V"
	default:
		return "?"
	}
}

// homeLabel returns the first walk leg's origin label, the closest thing a
// Journey carries to a home address.
func homeLabel(j engine.Journey) string {
	for _, l := range j.Legs {
		if l.Kind == engine.LegWalk && l.Walk.IsFirst {
			return l.Walk.FromLabel
		}
	}
	return ""
}

// drawHeaderLocation renders the uppercased home address.
func drawHeaderLocation(dc *gg.Context, fonts *FontSet, z Zone, j engine.Journey) {
	setColor(dc, colorGray)
	fonts.apply(dc, "regular", float64(z.Height)*0.7)
	dc.DrawStringAnchored(strings.ToUpper(homeLabel(j)), float64(z.X+12), float64(z.Y+z.Height/2), 0, 0.5)
}

// drawHeaderTime renders the 12-hour clock + am/pm, lower-case, derived from
// the journey's arrival time.
func drawHeaderTime(dc *gg.Context, fonts *FontSet, z Zone, j engine.Journey) {
	setColor(dc, colorBlack)
	fonts.apply(dc, "bold", float64(z.Height)*0.45)
	dc.DrawStringAnchored(j.ArrivalTimeLocal.Format("3:04pm"), float64(z.X+12), float64(z.Y+z.Height*2/5), 0, 0.5)
}

// drawHeaderDayDate renders the day name and date.
func drawHeaderDayDate(dc *gg.Context, fonts *FontSet, z Zone, j engine.Journey) {
	setColor(dc, colorGray)
	fonts.apply(dc, "regular", float64(z.Height)*0.18)
	dc.DrawStringAnchored(j.ArrivalTimeLocal.Format("Monday, 2 Jan"), float64(z.X+12), float64(z.Y+z.Height*4/5), 0, 0.5)
}

// drawHeaderStatusBadges renders the two fixed-size (115x16) status badges:
// services-ok/disruption and live/timetable-fallback.
func drawHeaderStatusBadges(dc *gg.Context, fonts *FontSet, z Zone, j engine.Journey) {
	serviceLabel := "SERVICES OK"
	if j.StatusKind != engine.StatusLeaveNow {
		serviceLabel = strings.ToUpper(string(j.StatusKind))
	}
	sourceLabel := "LIVE"
	if j.DataSource == engine.DataSourceFallback {
		sourceLabel = "TIMETABLE FALLBACK"
	}

	drawBadge(dc, fonts, float64(z.X), float64(z.Y), serviceLabel)
	drawBadge(dc, fonts, float64(z.X), float64(z.Y+20), sourceLabel)
}

func drawBadge(dc *gg.Context, fonts *FontSet, x, y float64, label string) {
	const w, h = 115.0, 16.0
	setColor(dc, colorBlack)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x, y, w, h, 3)
	dc.Stroke()
	fonts.apply(dc, "regular", h*0.6)
	dc.DrawStringAnchored(label, x+w/2, y+h/2, 0.5, 0.5)
}

// drawStatus renders the headline status line in zone.
func drawStatus(dc *gg.Context, fonts *FontSet, z Zone, j engine.Journey) {
	fonts.apply(dc, "bold", float64(z.Height)*0.4)
	setColor(dc, colorBlack)
	dc.DrawStringAnchored(j.StatusMessage(), float64(z.X+16), float64(z.Y+z.Height/2), 0, 0.5)
}

// drawLegs renders each Leg as a numbered card stacked vertically in zone.
func drawLegs(dc *gg.Context, fonts *FontSet, z Zone, j engine.Journey) {
	if len(j.Legs) == 0 {
		fonts.apply(dc, "regular", 18)
		setColor(dc, colorGray)
		dc.DrawStringAnchored("No journey available", float64(z.X+16), float64(z.Y+z.Height/2), 0, 0.5)
		return
	}

	rowHeight := z.Height / len(j.Legs)
	if rowHeight < 1 {
		rowHeight = 1
	}

	for i, leg := range j.Legs {
		y := z.Y + i*rowHeight
		drawLegCard(dc, fonts, z.X, y, z.Width, rowHeight, i+1, leg)
	}
}

func drawLegCard(dc *gg.Context, fonts *FontSet, x, y, w, h, number int, leg engine.Leg) {
	cx, cy := float64(x+h/2), float64(y+h/2)
	radius := float64(h) * 0.3

	borderWidth := 1.5
	if leg.Kind == engine.LegTransit && (leg.Transit.IsDelayed || leg.Transit.IsSuspended) {
		borderWidth = 3.0
	}

	setColor(dc, colorBlack)
	dc.SetLineWidth(borderWidth)
	dc.DrawCircle(cx, cy, radius)
	dc.Stroke()

	fonts.apply(dc, "bold", radius)
	dc.DrawStringAnchored(fmt.Sprintf("%d", number), cx, cy, 0.5, 0.5)

	glyphX := cx + radius*2.2
	fonts.apply(dc, "bold", radius*0.9)
	dc.DrawStringAnchored(modeGlyph(leg), glyphX, cy, 0.5, 0.5)

	labelX := glyphX + radius*1.6
	fonts.apply(dc, "regular", float64(h)*0.22)
	setColor(dc, colorBlack)
	dc.DrawStringAnchored(legLabel(leg), float64(labelX), cy-float64(h)*0.12, 0, 0.5)
	setColor(dc, colorGray)
	dc.DrawStringAnchored(legSubLabel(leg), float64(labelX), cy+float64(h)*0.18, 0, 0.5)

	durationBoxW := float64(w) * 0.14
	durationX := float64(x+w) - durationBoxW - 8
	drawDurationBox(dc, durationX, float64(y)+float64(h)*0.2, durationBoxW, float64(h)*0.6, leg)
}

func drawDurationBox(dc *gg.Context, x, y, w, h float64, leg engine.Leg) {
	setColor(dc, colorBlack)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x, y, w, h, 4)
	dc.Stroke()
	dc.DrawStringAnchored(fmt.Sprintf("%d min", leg.Minutes()), x+w/2, y+h/2, 0.5, 0.5)
}

func legLabel(leg engine.Leg) string {
	switch leg.Kind {
	case engine.LegWalk:
		return "Walk " + leg.Walk.FromLabel + " → " + leg.Walk.ToLabel
	case engine.LegTransit:
		return leg.Transit.LineName
	case engine.LegCoffee:
		if leg.Coffee.CanGet {
			return "Coffee: " + leg.Coffee.CafeName
		}
		return "Coffee skipped"
	default:
		return ""
	}
}

func legSubLabel(leg engine.Leg) string {
	switch leg.Kind {
	case engine.LegTransit:
		if leg.Transit.IsSuspended {
			return "Suspended"
		}
		if leg.Transit.IsDiverted {
			return "Diverted"
		}
		if leg.Transit.IsDelayed {
			return fmt.Sprintf("+%d min delay", leg.Transit.DelayMinutes)
		}
		return "On time"
	case engine.LegCoffee:
		return string(leg.Coffee.Reason)
	default:
		return ""
	}
}

// drawWeather renders current conditions in zone.
func drawWeather(dc *gg.Context, fonts *FontSet, z Zone, w weather.Conditions) {
	setColor(dc, colorBlack)
	fonts.apply(dc, "bold", float64(z.Height)*0.3)
	dc.DrawStringAnchored(fmt.Sprintf("%d°C", w.TemperatureC), float64(z.X+12), float64(z.Y+z.Height/3), 0, 0.5)
	fonts.apply(dc, "regular", float64(z.Height)*0.16)
	dc.DrawStringAnchored(w.ShortText, float64(z.X+12), float64(z.Y+2*z.Height/3), 0, 0.5)
	if w.RainExpected {
		setColor(dc, colorGray)
		dc.DrawStringAnchored("Rain expected", float64(z.X+12), float64(z.Y+z.Height-14), 0, 0.5)
	}
}

// drawFooter renders the data-source/refresh indicator.
func drawFooter(dc *gg.Context, fonts *FontSet, z Zone, j engine.Journey) {
	setColor(dc, colorGray)
	fonts.apply(dc, "regular", float64(z.Height)*0.5)
	label := "Live data"
	if j.DataSource == engine.DataSourceFallback {
		label = "Static timetable"
	}
	dc.DrawStringAnchored(label, float64(z.X+12), float64(z.Y+z.Height/2), 0, 0.5)
}
