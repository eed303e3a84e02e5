package render

import (
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// FontSet records the font directory the Zone Renderer draws with (the first
// existing entry of config.FontDirs). Faces are not cached: every apply call
// loads the TTF from disk again.
type FontSet struct {
	dir string
}

// NewFontSet records the directory to search for a TTF at render time. A
// missing or unreadable font degrades to the basicfont bitmap face
// (golang.org/x/image/font/basicfont) rather than failing the request —
// e-ink devices still need *something* drawn even with no fonts/ directory
// deployed alongside the binary.
func NewFontSet(dir string) *FontSet {
	return &FontSet{dir: dir}
}

// apply sets dc's active face to the named style at pt size, trying a TTF
// in fs.dir first (via fogleman/gg, itself backed by golang/freetype) and
// falling back to basicfont on any error.
func (fs *FontSet) apply(dc *gg.Context, face string, pt float64) {
	if fs != nil && fs.dir != "" {
		if err := dc.LoadFontFace(fs.dir+face+".ttf", pt); err == nil {
			return
		}
	}
	dc.SetFontFace(basicfont.Face7x13)
}
