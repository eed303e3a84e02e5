package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/png"

	"github.com/fogleman/gg"

	"commuterdash/internal/config"
	"commuterdash/internal/engine"
	"commuterdash/internal/weather"
)

// Renderer draws journeys onto device-profile-sized canvases and encodes
// them to the profile's wire format.
type Renderer struct {
	fonts *FontSet
}

// New builds a Renderer that loads fonts from dir (see FontSet).
func New(fontDir string) *Renderer {
	return &Renderer{fonts: NewFontSet(fontDir)}
}

// Output is an encoded screen image plus the content-type a handler should
// set on the HTTP response.
type Output struct {
	Bytes       []byte
	ContentType string
	ETag        string
}

// RenderFull draws the entire canonical layout reflowed to profile and
// encodes it per profile.Format.
func (r *Renderer) RenderFull(profile config.DeviceProfile, j engine.Journey, w weather.Conditions) Output {
	dc := gg.NewContext(profile.Width, profile.Height)
	setColor(dc, colorWhite)
	dc.Clear()

	for _, z := range ListZones() {
		rz := mustReflow(z, profile)
		r.drawZoneContent(dc, rz, j, w)
	}

	return r.encode(dc.Image(), profile)
}

// RenderZone draws a single named zone, sized
// to the zone's reflowed rectangle rather than the full device canvas — used
// for devices doing a partial redraw of just one region.
func (r *Renderer) RenderZone(id string, profile config.DeviceProfile, j engine.Journey, w weather.Conditions) (Output, bool) {
	z, ok := zoneFor(id, profile)
	if !ok {
		return Output{}, false
	}

	dc := gg.NewContext(z.Width, z.Height)
	setColor(dc, colorWhite)
	dc.Clear()

	local := Zone{ID: z.ID, X: 0, Y: 0, Width: z.Width, Height: z.Height}
	r.drawZoneContent(dc, local, j, w)

	zoneProfile := profile
	zoneProfile.Width, zoneProfile.Height = z.Width, z.Height
	return r.encode(dc.Image(), zoneProfile), true
}

func (r *Renderer) drawZoneContent(dc *gg.Context, z Zone, j engine.Journey, w weather.Conditions) {
	switch z.ID {
	case "header.location":
		drawHeaderLocation(dc, r.fonts, z, j)
	case "header.time":
		drawHeaderTime(dc, r.fonts, z, j)
	case "header.dayDate":
		drawHeaderDayDate(dc, r.fonts, z, j)
	case "header.statusBadges":
		drawHeaderStatusBadges(dc, r.fonts, z, j)
	case "header.coffeeBox":
		drawCoffeeZone(dc, r.fonts, z, j)
	case "header.weather":
		drawWeather(dc, r.fonts, z, w)
	case "status":
		drawStatus(dc, r.fonts, z, j)
	case "legs":
		drawLegs(dc, r.fonts, z, j)
	case "footer":
		drawFooter(dc, r.fonts, z, j)
	}
}

func drawCoffeeZone(dc *gg.Context, fonts *FontSet, z Zone, j engine.Journey) {
	for _, leg := range j.Legs {
		if leg.Kind != engine.LegCoffee {
			continue
		}
		setColor(dc, colorBlack)
		fonts.apply(dc, "bold", float64(z.Height)*0.18)
		title := "No coffee stop"
		if leg.Coffee.CanGet {
			title = leg.Coffee.CafeName
		}
		dc.DrawStringAnchored(title, float64(z.X+12), float64(z.Y+24), 0, 0.5)

		setColor(dc, colorGray)
		fonts.apply(dc, "regular", float64(z.Height)*0.14)
		dc.DrawStringAnchored(string(leg.Coffee.Reason), float64(z.X+12), float64(z.Y+48), 0, 0.5)
		return
	}
}

func mustReflow(z Zone, profile config.DeviceProfile) Zone {
	rz, ok := zoneFor(z.ID, profile)
	if !ok {
		return z
	}
	return rz
}

func (r *Renderer) encode(img image.Image, profile config.DeviceProfile) Output {
	var raw []byte
	contentType := "image/png"

	if profile.Format == config.FormatBMP {
		raw = encodeBMP1Bit(img)
		contentType = "image/bmp"
	} else {
		var buf bytes.Buffer
		_ = png.Encode(&buf, img)
		raw = buf.Bytes()
	}

	return Output{Bytes: raw, ContentType: contentType, ETag: Hash(raw)}
}

// Hash returns a hex SHA-256 digest used as the screen's ETag/cache key, so
// a device can skip re-fetching an unchanged frame.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
