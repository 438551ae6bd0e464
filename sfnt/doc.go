/*
Package sfnt parses the binary container structure shared by TrueType and
OpenType fonts and decodes TrueType glyph outlines. Intended audience for this
package are:

▪︎ glyph rasterizers and path extractors

▪︎ font subsetting and inspection tools

▪︎ any application needing character-to-glyph mapping and raw outline geometry
from a font file held in memory

Package `sfnt` deliberately stops below text shaping and rendering: it exposes
the table directory, verifies checksums, maps codepoints to glyph indices
(cmap formats 0, 4, 6 and 12), and decodes `glyf` outline programs — both
simple contour sets and composite glyphs with nested component transforms.
Hinting instructions, layout tables (GSUB/GPOS), color glyph formats, and
compressed containers (WOFF/WOFF2) are out of scope; their raw table bytes
remain accessible through Font.TableBytes for collaborating packages.

A Font needs ongoing access to the font's byte-data after Parse returns. All
derived views are windows into that single buffer and are immutable once
published; the buffer is never copied and never written to. Decoding distinct
glyphs is safe from concurrent goroutines — the per-font caches guarantee
at-most-once decoding per glyph index.

Fonts in the wild lie. Every count, offset and length read from the binary is
checked against the owning buffer before use; a malformed font yields an
error, never an out-of-bounds read, an unbounded allocation, or an infinite
composite-glyph recursion.

# Status

Font collections (*.ttc) and variable fonts are not supported yet.
CFF (PostScript) outlines are recognized but not interpreted.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package sfnt

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.sfnt'
func tracer() tracing.Trace {
	return tracing.Select("font.sfnt")
}
