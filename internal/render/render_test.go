package render

import (
	"image"
	"image/color"
	"testing"

	"commuterdash/internal/config"
)

func TestEncodeBMP1BitByteExactSize(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"8x8 aligned", 8, 8},
		{"odd width", 13, 8},
		{"odd height", 8, 13},
		{"both odd", 17, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			buf := encodeBMP1Bit(img)

			stride := (tt.w + 31) / 32 * 4
			want := 54 + 8 + stride*tt.h
			if len(buf) != want {
				t.Errorf("encodeBMP1Bit(%dx%d) produced %d bytes, want %d", tt.w, tt.h, len(buf), want)
			}
		})
	}
}

func TestEncodeBMP1BitHeaderFields(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	buf := encodeBMP1Bit(img)

	if buf[0] != 'B' || buf[1] != 'M' {
		t.Fatalf("BMP magic = %q, want \"BM\"", buf[0:2])
	}
	if len(buf) < 54 {
		t.Fatalf("buffer too short for BITMAPFILEHEADER+BITMAPINFOHEADER: %d bytes", len(buf))
	}
}

func TestIsWhitePixelThreshold(t *testing.T) {
	tests := []struct {
		name string
		c    color.Color
		want bool
	}{
		{"pure white", color.White, true},
		{"pure black", color.Black, false},
		{"light gray", color.Gray{Y: 220}, true},
		{"dark gray", color.Gray{Y: 40}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isWhitePixel(tt.c); got != tt.want {
				t.Errorf("isWhitePixel(%v) = %v, want %v", tt.c, got, tt.want)
			}
		})
	}
}

func TestReflowPreservesCanonicalAtCanonicalSize(t *testing.T) {
	profile := config.DeviceProfile{Width: canonicalWidth, Height: canonicalHeight}
	for _, z := range canonicalZones {
		rz := reflow(z, profile)
		if rz != z {
			t.Errorf("reflow(%q) at canonical size = %+v, want unchanged %+v", z.ID, rz, z)
		}
	}
}

func TestReflowScalesProportionally(t *testing.T) {
	profile := config.DeviceProfile{Width: 400, Height: 240} // half canonical size
	status := canonicalZones[0]
	rz := reflow(status, profile)

	if rz.Width != status.Width/2 {
		t.Errorf("Width = %d, want %d", rz.Width, status.Width/2)
	}
	if rz.Height != status.Height/2 {
		t.Errorf("Height = %d, want %d", rz.Height, status.Height/2)
	}
}

func TestZoneForUnknownID(t *testing.T) {
	profile := config.DeviceProfile{Width: canonicalWidth, Height: canonicalHeight}
	if _, ok := zoneFor("nonexistent", profile); ok {
		t.Error("zoneFor(nonexistent) = true, want false")
	}
}

func TestHashIsDeterministic(t *testing.T) {
	data := []byte("some encoded frame bytes")
	h1 := Hash(data)
	h2 := Hash(data)
	if h1 != h2 {
		t.Errorf("Hash() not deterministic: %q != %q", h1, h2)
	}
}

func TestHashDiffersOnChange(t *testing.T) {
	h1 := Hash([]byte("frame A"))
	h2 := Hash([]byte("frame B"))
	if h1 == h2 {
		t.Error("Hash() produced identical digests for different inputs")
	}
}
