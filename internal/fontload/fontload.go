// Package fontload loads font binaries for the loader facade and for tests.
// The parsed reference view comes from golang.org/x/image/font/sfnt, which
// is handy for cross-checking and for name-table access; outline decoding
// is not its job.
package fontload

import (
	"os"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
)

// ScalableFont is a loaded scalable font with original bytes and SFNT view.
type ScalableFont struct {
	Fontname string
	Binary   []byte
	SFNT     *sfnt.Font
}

// LoadOpenTypeFont loads an OpenType font (TTF or OTF) from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	return ParseOpenTypeFont(bytez)
}

// ParseOpenTypeFont loads an OpenType font (TTF or OTF) from memory.
func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, err
	}
	f.Fontname, err = f.SFNT.Name(nil, sfnt.NameIDFull)
	return f, nil
}

// GoRegular returns the embedded Go Regular font, a TrueType font with glyf
// outlines. Tests use it as a known-good real-world fixture.
func GoRegular() []byte {
	return goregular.TTF
}

// GoBold returns the embedded Go Bold font, a second fixture with different
// metrics and outlines than Go Regular.
func GoBold() []byte {
	return gobold.TTF
}
