package query

import xsfnt "golang.org/x/image/font/sfnt"

// FontMetricsInfo contains selected metric information for a font.
type FontMetricsInfo struct {
	UnitsPerEm      xsfnt.Units // design units per em
	Ascent, Descent xsfnt.Units // ascender and descender
	MaxAdvance      xsfnt.Units // maximum advance width value in 'hmtx' table
	LineGap         xsfnt.Units // typographic line gap
}

// GlyphMetricsInfo contains all metric information for a glyph.
type GlyphMetricsInfo struct {
	Advance  xsfnt.Units // advance width
	LSB, RSB xsfnt.Units // side bearings
	BBox     BoundingBox // bounding box
}

// BoundingBox describes the bounding box of a glyph.
type BoundingBox struct {
	MinX, MinY xsfnt.Units
	MaxX, MaxY xsfnt.Units
}

// Empty reports whether this box has zero area.
func (bbox BoundingBox) Empty() bool {
	return bbox.MaxX-bbox.MinX == 0 || bbox.MaxY-bbox.MinY == 0
}

// Dx returns the horizontal extent of this box.
func (bbox BoundingBox) Dx() xsfnt.Units {
	return bbox.MaxX - bbox.MinX
}

// Dy returns the vertical extent of this box.
func (bbox BoundingBox) Dy() xsfnt.Units {
	return bbox.MaxY - bbox.MinY
}
