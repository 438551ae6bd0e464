package query

import (
	"github.com/npillmayer/glyf/sfnt"
	xsfnt "golang.org/x/image/font/sfnt"
)

// --- Font Information -------------------------------------------------

// FontType returns a short name for the container flavour of a font, e.g.
// "TrueType" or "OpenType/CFF".
func FontType(otf *sfnt.Font) string {
	if otf == nil || otf.Header == nil {
		return ""
	}
	switch otf.Header.FontType {
	case 0x00010000, 0x74727565: // 0x00010000 and 'true'
		return "TrueType"
	case 0x4f54544f: // 'OTTO'
		return "OpenType/CFF"
	case 0x74797031: // 'typ1'
		return "Type1"
	}
	return "unknown"
}

// FontMetrics retrieves selected metrics of a font.
func FontMetrics(otf *sfnt.Font) FontMetricsInfo {
	metrics := FontMetricsInfo{}
	if otf == nil {
		return metrics
	}
	if table := otf.Table(sfnt.T("hhea")); table != nil {
		if hhea := table.Self().AsHHea(); hhea != nil {
			metrics.Ascent = xsfnt.Units(hhea.Ascender)
			metrics.Descent = xsfnt.Units(hhea.Descender)
			metrics.LineGap = xsfnt.Units(hhea.LineGap)
			metrics.MaxAdvance = xsfnt.Units(hhea.AdvanceWidthMax)
		}
	}
	metrics.UnitsPerEm = xsfnt.Units(otf.UnitsPerEm())
	return metrics
}

// --- Glyph Routines --------------------------------------------------------

// GlyphIndex returns the glyph index for a given code-point.
// If the code-point cannot be found, 0 is returned.
//
// From the OpenType specification: character codes that do not correspond to any glyph in
// the font should be mapped to glyph index 0. The glyph at this location must be a special
// glyph representing a missing character, commonly known as '.notdef'.
func GlyphIndex(otf *sfnt.Font, codepoint rune) sfnt.GlyphIndex {
	gid, err := otf.GlyphIndexForRune(codepoint)
	if err != nil {
		tracer().Infof("glyph index lookup: %v", err)
		return 0
	}
	return gid
}

// CodePointForGlyph returns the code-point for a given glyph index.
//
// This is an inefficient operation: code-points contained in the font's cmap
// are checked sequentially if they produce the given glyph.
// If the glyph index does not correspond to a code-point, 0 is returned.
func CodePointForGlyph(otf *sfnt.Font, gid sfnt.GlyphIndex) rune {
	if gid == 0 {
		return 0
	}
	table := otf.Table(sfnt.T("cmap"))
	if table == nil {
		return 0
	}
	cmap := table.Self().AsCMap()
	if cmap == nil {
		return 0
	}
	return cmap.GlyphIndexMap.ReverseLookup(gid)
}

// GlyphMetrics retrieves metrics for a given glyph.
func GlyphMetrics(otf *sfnt.Font, gid sfnt.GlyphIndex) GlyphMetricsInfo {
	metrics := GlyphMetricsInfo{}
	if aw, ok := otf.AdvanceWidth(gid); ok {
		metrics.Advance = xsfnt.Units(aw)
	}
	if lsb, ok := otf.LeftSideBearing(gid); ok {
		metrics.LSB = xsfnt.Units(lsb)
	}
	// bounding box from the decoded glyph header
	if g, err := otf.Glyph(gid); err == nil && g.Kind != sfnt.GlyphEmpty {
		metrics.BBox = BoundingBox{
			MinX: xsfnt.Units(g.XMin),
			MinY: xsfnt.Units(g.YMin),
			MaxX: xsfnt.Units(g.XMax),
			MaxY: xsfnt.Units(g.YMax),
		}
	}
	// RSB calculation: rsb = aw - (lsb + xMax - xMin)
	// From the spec:
	// If a glyph has no contours, xMax/xMin are not defined. The left side bearing indicated
	// in the 'hmtx' table for such glyphs should be zero.
	if !metrics.BBox.Empty() { // leave RSB for empty bboxes
		metrics.RSB = metrics.Advance - (metrics.LSB + metrics.BBox.Dx())
	}
	return metrics
}
