package sfnt

// Helpers to assemble synthetic sfnt fonts in memory. The builder produces
// structurally valid fonts: sorted table directory, 4-byte aligned tables,
// correct searchRange fields, correct table checksums and a correct
// whole-file checksum adjustment in head. Tests corrupt the result on
// purpose where they need a malformed font.

func putU16(b []byte, at int, v uint16) {
	b[at] = byte(v >> 8)
	b[at+1] = byte(v)
}

func putU32(b []byte, at int, v uint32) {
	b[at] = byte(v >> 24)
	b[at+1] = byte(v >> 16)
	b[at+2] = byte(v >> 8)
	b[at+3] = byte(v)
}

func putI16(b []byte, at int, v int16) {
	putU16(b, at, uint16(v))
}

type synthTable struct {
	tag  string
	data []byte
}

// buildSFNT assembles a font from tables, in any order.
func buildSFNT(tables []synthTable) []byte {
	sorted := make([]synthTable, len(tables))
	copy(sorted, tables)
	for i := 1; i < len(sorted); i++ { // insertion sort by tag
		for j := i; j > 0 && T(sorted[j].tag) < T(sorted[j-1].tag); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	n := len(sorted)
	maxPow2, entrySelector := 1, uint16(0)
	for maxPow2*2 <= n {
		maxPow2 *= 2
		entrySelector++
	}
	searchRange := uint16(maxPow2 * 16)

	font := make([]byte, 12+16*n)
	putU32(font, 0, fontTypeTrueType)
	putU16(font, 4, uint16(n))
	putU16(font, 6, searchRange)
	putU16(font, 8, entrySelector)
	putU16(font, 10, uint16(n)*16-searchRange)

	headOffset := -1
	for i, tb := range sorted {
		offset := len(font)
		if tb.tag == "head" {
			headOffset = offset
		}
		rec := 12 + 16*i
		copy(font[rec:rec+4], []byte(tb.tag))
		putU32(font, rec+4, Checksum(tb.data))
		putU32(font, rec+8, uint32(offset))
		putU32(font, rec+12, uint32(len(tb.data)))
		font = append(font, tb.data...)
		for len(font)%4 != 0 {
			font = append(font, 0)
		}
	}
	if headOffset >= 0 {
		putU32(font, headOffset+8, checksumMagic-Checksum(font))
	}
	return font
}

func synthHead(indexToLocFormat uint16) []byte {
	b := make([]byte, 54)
	putU32(b, 0, 0x00010000) // version
	putU32(b, 4, 0x00010000) // font revision
	putU32(b, 8, 0)          // checkSumAdjustment, patched by buildSFNT
	putU32(b, 12, headMagic)
	putU16(b, 16, 0x0003) // flags
	putU16(b, 18, 2048)   // unitsPerEm
	putI16(b, 36, -120)   // xMin
	putI16(b, 38, -250)   // yMin
	putI16(b, 40, 1100)   // xMax
	putI16(b, 42, 1900)   // yMax
	putU16(b, 50, indexToLocFormat)
	return b
}

func synthMaxp(numGlyphs uint16) []byte {
	b := make([]byte, 32)
	putU32(b, 0, 0x00010000)
	putU16(b, 4, numGlyphs)
	return b
}

func synthHhea(numberOfHMetrics uint16) []byte {
	b := make([]byte, 36)
	putU32(b, 0, 0x00010000)
	putI16(b, 4, 1900)  // ascender
	putI16(b, 6, -500)  // descender
	putI16(b, 8, 0)     // line gap
	putU16(b, 10, 1200) // advanceWidthMax
	putU16(b, 34, numberOfHMetrics)
	return b
}

// synthHmtx writes one long metric record per entry of aws/lsbs, then bare
// left side bearings for the remaining glyphs.
func synthHmtx(aws []uint16, lsbs []int16, bareLsbs []int16) []byte {
	b := make([]byte, len(aws)*4+len(bareLsbs)*2)
	for i := range aws {
		putU16(b, i*4, aws[i])
		putI16(b, i*4+2, lsbs[i])
	}
	base := len(aws) * 4
	for i := range bareLsbs {
		putI16(b, base+i*2, bareLsbs[i])
	}
	return b
}

// buildGlyfLoca concatenates per-glyph data into a glyf table, padding each
// glyph to a 4-byte boundary, and derives the matching loca table. A nil or
// empty glyph slot yields loca[i] == loca[i+1], an empty glyph.
func buildGlyfLoca(glyphs [][]byte, longFormat bool) (glyf []byte, loca []byte) {
	offsets := make([]uint32, len(glyphs)+1)
	for i, g := range glyphs {
		glyf = append(glyf, g...)
		for len(glyf)%4 != 0 {
			glyf = append(glyf, 0)
		}
		offsets[i+1] = uint32(len(glyf))
	}
	if longFormat {
		loca = make([]byte, len(offsets)*4)
		for i, off := range offsets {
			putU32(loca, i*4, off)
		}
	} else {
		loca = make([]byte, len(offsets)*2)
		for i, off := range offsets {
			putU16(loca, i*2, uint16(off/2))
		}
	}
	return glyf, loca
}

type synthPoint struct {
	x, y    int16
	onCurve bool
}

// simpleGlyphData encodes contours as a simple glyph, using uncompressed
// flags and 16-bit deltas throughout. Short and repeated encodings are
// exercised by hand-built byte streams in the decoder tests.
func simpleGlyphData(contours [][]synthPoint) []byte {
	xmin, ymin := int16(32767), int16(32767)
	xmax, ymax := int16(-32768), int16(-32768)
	var flat []synthPoint
	var ends []int
	for _, c := range contours {
		flat = append(flat, c...)
		ends = append(ends, len(flat)-1)
	}
	for _, p := range flat {
		if p.x < xmin {
			xmin = p.x
		}
		if p.x > xmax {
			xmax = p.x
		}
		if p.y < ymin {
			ymin = p.y
		}
		if p.y > ymax {
			ymax = p.y
		}
	}
	b := make([]byte, 10)
	putI16(b, 0, int16(len(contours)))
	putI16(b, 2, xmin)
	putI16(b, 4, ymin)
	putI16(b, 6, xmax)
	putI16(b, 8, ymax)
	for _, e := range ends {
		end := make([]byte, 2)
		putU16(end, 0, uint16(e))
		b = append(b, end...)
	}
	b = append(b, 0, 0) // instructionLength
	for _, p := range flat {
		var f byte
		if p.onCurve {
			f = flagOnCurve
		}
		b = append(b, f)
	}
	prev := int16(0)
	for _, p := range flat {
		d := make([]byte, 2)
		putI16(d, 0, p.x-prev)
		b = append(b, d...)
		prev = p.x
	}
	prev = 0
	for _, p := range flat {
		d := make([]byte, 2)
		putI16(d, 0, p.y-prev)
		b = append(b, d...)
		prev = p.y
	}
	return b
}

type synthComponent struct {
	gid    uint16
	dx, dy int16
	flags  CompositeFlag // word/xy/more bits are set by compositeGlyphData
}

// compositeGlyphData encodes components with 16-bit explicit offsets.
func compositeGlyphData(components []synthComponent) []byte {
	b := make([]byte, 10)
	putI16(b, 0, -1)
	for i, c := range components {
		flags := c.flags | Arg1And2AreWords | ArgsAreXYValues
		if i+1 < len(components) {
			flags |= MoreComponents
		}
		comp := make([]byte, 8)
		putU16(comp, 0, uint16(flags))
		putU16(comp, 2, c.gid)
		putI16(comp, 4, c.dx)
		putI16(comp, 6, c.dy)
		b = append(b, comp...)
	}
	return b
}

// --- cmap builders ---------------------------------------------------------

// synthCmap wraps subtables into a cmap table with one Windows Unicode BMP
// encoding record per subtable.
func synthCmap(subtables ...[]byte) []byte {
	n := len(subtables)
	b := make([]byte, 4+8*n)
	putU16(b, 0, 0) // version
	putU16(b, 2, uint16(n))
	offset := len(b)
	for i := range subtables {
		putU16(b, 4+8*i, platformWindows)
		putU16(b, 4+8*i+2, 1) // Unicode BMP
		putU32(b, 4+8*i+4, uint32(offset+lenSum(subtables[:i])))
	}
	for _, sub := range subtables {
		b = append(b, sub...)
	}
	return b
}

func lenSum(bs [][]byte) int {
	n := 0
	for _, b := range bs {
		n += len(b)
	}
	return n
}

type cmap4Segment struct {
	start, end    uint16
	idDelta       uint16
	useRangeArray bool     // address glyphs through the trailing id array
	glyphIDs      []uint16 // one per code-point in [start,end], array mode only
}

// cmapFormat4 encodes segments into a format 4 subtable. Segments must be
// given in ascending order; a terminal 0xFFFF segment is the caller's choice.
func cmapFormat4(segments []cmap4Segment) []byte {
	segCount := len(segments)
	var idArray []uint16
	rangeOffsets := make([]uint16, segCount)
	for i, seg := range segments {
		if !seg.useRangeArray {
			continue
		}
		// byte distance from &idRangeOffset[i] to the segment's slice of
		// glyphIdArray: remaining offset entries plus ids already emitted
		rangeOffsets[i] = uint16((segCount-i)*2 + len(idArray)*2)
		idArray = append(idArray, seg.glyphIDs...)
	}
	length := 16 + segCount*8 + len(idArray)*2
	b := make([]byte, length)
	putU16(b, 0, 4)
	putU16(b, 2, uint16(length))
	putU16(b, 6, uint16(segCount*2))
	// searchRange block, unused by the decoder but kept plausible
	putU16(b, 8, 2)
	for i, seg := range segments {
		putU16(b, 14+i*2, seg.end)
		putU16(b, 14+segCount*2+2+i*2, seg.start)
		putU16(b, 14+segCount*4+2+i*2, seg.idDelta)
		putU16(b, 14+segCount*6+2+i*2, rangeOffsets[i])
	}
	base := 16 + segCount*8
	for i, g := range idArray {
		putU16(b, base+i*2, g)
	}
	return b
}

type cmap12Group struct {
	start, end uint32
	startGlyph uint32
}

func cmapFormat12(groups []cmap12Group) []byte {
	length := 16 + len(groups)*12
	b := make([]byte, length)
	putU16(b, 0, 12)
	putU32(b, 4, uint32(length))
	putU32(b, 12, uint32(len(groups)))
	for i, g := range groups {
		putU32(b, 16+i*12, g.start)
		putU32(b, 16+i*12+4, g.end)
		putU32(b, 16+i*12+8, g.startGlyph)
	}
	return b
}

func cmapFormat0(glyphIDs [256]byte) []byte {
	b := make([]byte, 262)
	putU16(b, 0, 0)
	putU16(b, 2, 262)
	copy(b[6:], glyphIDs[:])
	return b
}

func cmapFormat6(firstCode uint16, glyphIDs []uint16) []byte {
	b := make([]byte, 10+len(glyphIDs)*2)
	putU16(b, 0, 6)
	putU16(b, 2, uint16(len(b)))
	putU16(b, 6, firstCode)
	putU16(b, 8, uint16(len(glyphIDs)))
	for i, g := range glyphIDs {
		putU16(b, 10+i*2, g)
	}
	return b
}

// --- Complete fixture ------------------------------------------------------

// synthFontTables returns the table set of a small TrueType font: glyph 0
// is empty, glyph 1 is a square, glyph 2 references glyph 1 twice. cmap maps
// 'A'..'Z' starting at glyph 1.
func synthFontTables() []synthTable {
	square := simpleGlyphData([][]synthPoint{{
		{100, 100, true}, {500, 100, true}, {500, 500, true}, {100, 500, true},
	}})
	composite := compositeGlyphData([]synthComponent{
		{gid: 1, dx: 0, dy: 0},
		{gid: 1, dx: 600, dy: 0},
	})
	glyf, loca := buildGlyfLoca([][]byte{nil, square, composite}, false)
	cmap := synthCmap(cmapFormat4([]cmap4Segment{
		{start: 'A', end: 'Z', idDelta: 0xFFC0}, // 1 - 'A' mod 65536, maps 'A' to glyph 1
		{start: 0xFFFF, end: 0xFFFF, idDelta: 1},
	}))
	return []synthTable{
		{"head", synthHead(0)},
		{"maxp", synthMaxp(3)},
		{"hhea", synthHhea(3)},
		{"hmtx", synthHmtx([]uint16{600, 650, 1250}, []int16{0, 100, 100}, nil)},
		{"loca", loca},
		{"glyf", glyf},
		{"cmap", cmap},
	}
}

func synthFont() []byte {
	return buildSFNT(synthFontTables())
}
