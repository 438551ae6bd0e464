/*
Package glyf parses binary font container files (TrueType/OpenType "sfnt"
structure) and extracts glyph outline geometry and character-to-glyph
mappings, for use by text-rendering, editing, or subsetting tools.

There is a certain confusion with the nomenclature of typesetting. We will
stick to the following definitions:

▪︎ A "typeface" is a family of fonts. An example is "Helvetica".
This corresponds to a TrueType "collection" (*.ttc).

▪︎ A "scalable font" is a font, i.e. a variant of a typeface with a
certain weight, slant, etc.  An example is "Helvetica regular".

Please note that Go (Golang) does use the terms "font" and "face"
differently–actually more or less in an opposite manner.

The heavy lifting is done by package sfnt, which owns the byte-level
parsing and the glyph outline decoder; package query answers metadata
queries on top of it. This root package bundles them behind a small
loading facade.

# Status

Does not yet contain methods for font collections (*.ttc), e.g.,
/System/Library/Fonts/Helvetica.ttc on Mac OS.

# Links

OpenType explained:
https://docs.microsoft.com/en-us/typography/opentype/

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package glyf

import (
	"os"

	"github.com/npillmayer/glyf/query"
	"github.com/npillmayer/glyf/sfnt"
	"github.com/npillmayer/schuko/tracing"
	xsfnt "golang.org/x/image/font/sfnt"
)

// tracer writes to trace with key 'font.glyf'
func tracer() tracing.Trace {
	return tracing.Select("font.glyf")
}

// ScalableFont is a loaded outline-font of type TTF or OTF: the raw bytes
// together with the decoded sfnt view. The binary data must not change
// after parsing for the font to be usable.
type ScalableFont struct {
	Fontname string
	Filepath string     // file path, empty for fonts parsed from memory
	Binary   []byte     // raw data
	Font     *sfnt.Font // the font's decoded container
}

// LoadFont loads an OpenType font (TTF or OTF) from a file.
func LoadFont(fontfile string, opts ...sfnt.Option) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	f, err := ParseFont(bytez, opts...)
	if err != nil {
		return nil, err
	}
	f.Filepath = fontfile
	return f, nil
}

// ParseFont loads an OpenType font (TTF or OTF) from memory.
func ParseFont(fbytes []byte, opts ...sfnt.Option) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.Font, err = sfnt.Parse(f.Binary, opts...)
	if err != nil {
		return nil, err
	}
	if full, ok := query.NameInfo(f.Font)["full"]; ok {
		f.Fontname = full
		tracer().Debugf("loaded and parsed SFNT %s", f.Fontname)
	}
	return
}

// FromBinary parses raw OpenType bytes and returns the decoded font.
//
// The input is expected to contain a complete single-font SFNT stream.
// It must not change after parsing for the font to be usable.
func FromBinary(data []byte, opts ...sfnt.Option) (*sfnt.Font, error) {
	return sfnt.Parse(data, opts...)
}

// FamilyName extracts family and subfamily names from a font's `name` table.
//
// Returned values are empty if no matching records exist or if records cannot be
// decoded by the current name-table reader.
func FamilyName(f *sfnt.Font) (family, subfamily string) {
	for nameId, stringValue := range query.NamesRange(f) {
		switch nameId {
		case xsfnt.NameIDFamily:
			family = stringValue
		case xsfnt.NameIDSubfamily:
			subfamily = stringValue
		}
	}
	return
}
