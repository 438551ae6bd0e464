package sfnt

// Facade operations over the typed tables. Each operation materializes
// exactly the tables it needs, at the point of use; a font missing a table
// stays open and fails only the dependent operations.

// NumGlyphs returns the number of glyphs in the font, or 0 if the font has
// no usable maxp table.
func (otf *Font) NumGlyphs() int {
	maxp, err := otf.maxp()
	if err != nil {
		tracer().Infof("cannot read glyph count: %v", err)
		return 0
	}
	return maxp.NumGlyphs
}

// UnitsPerEm returns the font's design grid resolution in units per em.
// A return value of 0 means the head table is missing or malformed.
func (otf *Font) UnitsPerEm() uint16 {
	head, err := otf.head()
	if err != nil {
		tracer().Infof("cannot read units per em: %v", err)
		return 0
	}
	return head.UnitsPerEm
}

// GlyphIndexForRune maps a code-point to a glyph index through the font's
// character map. An unmapped code-point maps to glyph 0 (".notdef"); this
// is the expected outcome for characters the font does not cover, not an
// error. An error means the font has no usable cmap table at all.
func (otf *Font) GlyphIndexForRune(r rune) (GlyphIndex, error) {
	cmap, err := otf.cmap()
	if err != nil {
		return 0, err
	}
	return cmap.GlyphIndexMap.Lookup(r), nil
}

// AdvanceWidth returns the horizontal advance of a glyph in font units.
// ok is false for out-of-range glyph ids and for fonts without horizontal
// metrics tables.
func (otf *Font) AdvanceWidth(gid GlyphIndex) (aw uint16, ok bool) {
	hmtx, err := otf.hmtx()
	if err != nil {
		tracer().Infof("cannot read horizontal metrics: %v", err)
		return 0, false
	}
	aw, _, ok = hmtx.HMetrics(gid)
	return aw, ok
}

// LeftSideBearing returns a glyph's left side bearing in font units.
func (otf *Font) LeftSideBearing(gid GlyphIndex) (lsb int16, ok bool) {
	hmtx, err := otf.hmtx()
	if err != nil {
		return 0, false
	}
	_, lsb, ok = hmtx.HMetrics(gid)
	return lsb, ok
}

// FontBBox returns the font-wide bounding box from the head table.
func (otf *Font) FontBBox() (xmin, ymin, xmax, ymax int16, err error) {
	head, err := otf.head()
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return head.XMin, head.YMin, head.XMax, head.YMax, nil
}
