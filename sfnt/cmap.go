package sfnt

import (
	"fmt"
	"sort"
)

// CMapTable contains the character-to-glyph mapping of a font.
//
// A font may carry the mapping redundantly in several subtables, each in one
// of a number of wire formats, targeted at different platforms. This package
// interprets the Unicode-capable subset (formats 0, 4, 6 and 12) and selects
// a single subtable at parse time; lookups go through GlyphIndexMap.
type CMapTable struct {
	tableBase
	GlyphIndexMap CMapGlyphIndex
}

func newCMapTable(tag Tag, b binarySegm, offset, size uint32) *CMapTable {
	t := &CMapTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// CMapGlyphIndex maps a code-point to a glyph index. An unmapped code-point
// maps to glyph 0, the ".notdef" placeholder, which is not an error.
//
// ReverseLookup finds a code-point producing a given glyph index, or 0 if
// the glyph is not reachable through the subtable. Where several code-points
// map to the glyph, the lowest one wins.
type CMapGlyphIndex interface {
	Lookup(rune) GlyphIndex
	ReverseLookup(GlyphIndex) rune
	Format() int
}

// Platform IDs from the cmap encoding records. Unicode-capable records live
// under platform 0 (any encoding) and platform 3 (encodings 1 and 10).
const (
	platformUnicode   = 0
	platformMacintosh = 1
	platformWindows   = 3
)

type encodingRecord struct {
	platformID uint16
	encodingID uint16
	offset     uint32 // from the beginning of the cmap table
	format     uint16
}

// formatRank orders subtable formats by expressiveness: a sparse 32-bit
// format 12 wins over a segmented format 4, which wins over the trimmed
// format 6 and the byte-table format 0.
func formatRank(format uint16) int {
	switch format {
	case 12:
		return 4
	case 4:
		return 3
	case 6:
		return 2
	case 0:
		return 1
	}
	return 0
}

// platformRank breaks ties between equal formats: Unicode platforms first.
func platformRank(rec encodingRecord) int {
	switch rec.platformID {
	case platformUnicode:
		return 3
	case platformWindows:
		if rec.encodingID == 1 || rec.encodingID == 10 {
			return 2
		}
		return 1
	case platformMacintosh:
		return 1
	}
	return 0
}

// "The cmap table version number remains at 0x0000 for fonts that make use
// of the newer subtable formats."
func parseCMap(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 4 {
		return nil, errFontFormat("cmap table too small")
	}
	n, _ := b.u16(2)
	records := make([]encodingRecord, 0, n)
	for i := 0; i < int(n); i++ {
		const headerSize, entrySize = 4, 8
		rec := encodingRecord{}
		var err error
		if rec.platformID, err = b.u16(headerSize + entrySize*i); err != nil {
			return nil, errFontFormat("cmap: encoding records exceed table size")
		}
		rec.encodingID, _ = b.u16(headerSize + entrySize*i + 2)
		if rec.offset, err = b.u32(headerSize + entrySize*i + 4); err != nil {
			return nil, errFontFormat("cmap: encoding records exceed table size")
		}
		if f, err := b.u16(int(rec.offset)); err == nil {
			rec.format = f
		}
		records = append(records, rec)
	}
	// Stable sort keeps file order among records the ranking cannot tell
	// apart, then we take the first record that decodes.
	sort.SliceStable(records, func(i, j int) bool {
		if formatRank(records[i].format) != formatRank(records[j].format) {
			return formatRank(records[i].format) > formatRank(records[j].format)
		}
		return platformRank(records[i]) > platformRank(records[j])
	})
	t := newCMapTable(tag, b, offset, size)
	var lastErr error
	for _, rec := range records {
		if formatRank(rec.format) == 0 {
			continue
		}
		gi, err := makeGlyphIndex(b, rec)
		if err != nil {
			tracer().Infof("cmap subtable (platform %d, encoding %d, format %d) unusable: %v",
				rec.platformID, rec.encodingID, rec.format, err)
			lastErr = err
			continue
		}
		tracer().Debugf("cmap: selected subtable with format %d (platform %d, encoding %d)",
			rec.format, rec.platformID, rec.encodingID)
		t.GlyphIndexMap = gi
		return t, nil
	}
	if lastErr != nil {
		return nil, errFontFormat(fmt.Sprintf("cmap: no usable subtable: %v", lastErr))
	}
	// A cmap with only uninterpreted subtable formats is not broken, it just
	// maps nothing for us: every lookup resolves to glyph 0.
	tracer().Infof("cmap carries no supported subtable format, all lookups map to glyph 0")
	t.GlyphIndexMap = glyphIndexUnmapped{}
	return t, nil
}

// glyphIndexUnmapped stands in for a cmap whose subtable formats this package
// does not interpret. Lookups resolve every code-point to glyph 0.
type glyphIndexUnmapped struct{}

func (glyphIndexUnmapped) Format() int                   { return -1 }
func (glyphIndexUnmapped) Lookup(rune) GlyphIndex        { return 0 }
func (glyphIndexUnmapped) ReverseLookup(GlyphIndex) rune { return 0 }

// makeGlyphIndex decodes the subtable an encoding record points to.
func makeGlyphIndex(b binarySegm, rec encodingRecord) (CMapGlyphIndex, error) {
	if _, err := b.view(int(rec.offset), 2); err != nil {
		return nil, errFontFormat("cmap: subtable offset out of bounds")
	}
	switch rec.format {
	case 0:
		return makeGlyphIndexFormat0(b, rec.offset)
	case 4:
		return makeGlyphIndexFormat4(b, rec.offset)
	case 6:
		return makeGlyphIndexFormat6(b, rec.offset)
	case 12:
		return makeGlyphIndexFormat12(b, rec.offset)
	}
	return nil, errFontFormat(fmt.Sprintf("unsupported cmap subtable format %d", rec.format))
}

// --- Format 0: byte encoding table -----------------------------------------

type glyphIndexFormat0 struct {
	glyphIDs binarySegm // 256 single-byte glyph ids
}

func makeGlyphIndexFormat0(b binarySegm, offset uint32) (CMapGlyphIndex, error) {
	// fixed layout: format, length, language, then glyphIdArray[256]
	ids, err := b.view(int(offset)+6, 256)
	if err != nil {
		return nil, errFontFormat("cmap format 0 subtable too small")
	}
	return &glyphIndexFormat0{glyphIDs: ids}, nil
}

func (gi *glyphIndexFormat0) Format() int { return 0 }

func (gi *glyphIndexFormat0) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 0xFF {
		return 0
	}
	return GlyphIndex(gi.glyphIDs[r])
}

func (gi *glyphIndexFormat0) ReverseLookup(g GlyphIndex) rune {
	if g == 0 || g > 0xFF {
		return 0
	}
	for c, id := range gi.glyphIDs {
		if GlyphIndex(id) == g {
			return rune(c)
		}
	}
	return 0
}

// --- Format 4: segment mapping to delta values ------------------------------

// Format 4 splits the 16-bit code space into segments of consecutive
// code-points. Per segment, glyph ids are derived either arithmetically
// (idDelta, modulo 65536) or through a slice of the trailing glyphIdArray
// addressed via idRangeOffset. The idRangeOffset values are byte distances
// from the idRangeOffset entry itself into glyphIdArray, a famously awkward
// encoding kept here exactly as the format defines it.
type glyphIndexFormat4 struct {
	endCodes       []uint16
	startCodes     []uint16
	idDeltas       []uint16
	idRangeOffsets []uint16
	glyphIDArray   binarySegm
}

func makeGlyphIndexFormat4(b binarySegm, offset uint32) (CMapGlyphIndex, error) {
	segCountX2, err := b.u16(int(offset) + 6)
	if err != nil || segCountX2 == 0 || segCountX2&1 != 0 {
		return nil, errFontFormat("cmap format 4: invalid segCountX2")
	}
	segCount := int(segCountX2 / 2)
	// endCodes, pad, startCodes, idDeltas, idRangeOffsets
	arrays, err := b.view(int(offset)+14, segCount*8+2)
	if err != nil {
		return nil, errFontFormat("cmap format 4 subtable too small")
	}
	gi := &glyphIndexFormat4{
		endCodes:       make([]uint16, segCount),
		startCodes:     make([]uint16, segCount),
		idDeltas:       make([]uint16, segCount),
		idRangeOffsets: make([]uint16, segCount),
	}
	for i := 0; i < segCount; i++ {
		gi.endCodes[i], _ = arrays.u16(i * 2)
		gi.startCodes[i], _ = arrays.u16(segCount*2 + 2 + i*2)
		gi.idDeltas[i], _ = arrays.u16(segCount*4 + 2 + i*2)
		gi.idRangeOffsets[i], _ = arrays.u16(segCount*6 + 2 + i*2)
		if gi.startCodes[i] > gi.endCodes[i] {
			return nil, errFontFormat(fmt.Sprintf("cmap format 4: segment %d not ascending", i))
		}
		// segments must be sorted by endCode or the binary search breaks
		if i > 0 && gi.endCodes[i] <= gi.endCodes[i-1] {
			return nil, errFontFormat(fmt.Sprintf("cmap format 4: segment %d out of order", i))
		}
	}
	// glyphIdArray runs from the end of idRangeOffsets to the end of the table.
	// Range-offset lookups are bounds-checked against this view at query time.
	idArrayStart := int(offset) + 16 + segCount*8
	if idArrayStart < len(b) {
		gi.glyphIDArray = b[idArrayStart:]
	}
	return gi, nil
}

func (gi *glyphIndexFormat4) Format() int { return 4 }

func (gi *glyphIndexFormat4) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 0xFFFF {
		return 0
	}
	c := uint16(r)
	// binary search for the first segment with endCode >= c
	lo, hi := 0, len(gi.endCodes)
	for lo < hi {
		mid := (lo + hi) / 2
		if gi.endCodes[mid] < c {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == len(gi.endCodes) || gi.startCodes[lo] > c {
		return 0
	}
	if gi.idRangeOffsets[lo] == 0 {
		return GlyphIndex(c + gi.idDeltas[lo]) // mod 65536 by uint16 arithmetic
	}
	// byte distance from &idRangeOffsets[lo] into glyphIdArray:
	// subtract the remaining idRangeOffset entries in front of the array
	index := int(gi.idRangeOffsets[lo]/2) + int(c-gi.startCodes[lo]) - (len(gi.idRangeOffsets) - lo)
	g, err := gi.glyphIDArray.u16(index * 2)
	if err != nil || g == 0 {
		return 0
	}
	return GlyphIndex(g + gi.idDeltas[lo])
}

func (gi *glyphIndexFormat4) ReverseLookup(g GlyphIndex) rune {
	if g == 0 {
		return 0
	}
	for i, start := range gi.startCodes {
		for c := uint32(start); c <= uint32(gi.endCodes[i]); c++ {
			if gi.Lookup(rune(c)) == g {
				return rune(c)
			}
		}
	}
	return 0
}

// --- Format 6: trimmed table mapping ---------------------------------------

type glyphIndexFormat6 struct {
	firstCode uint16
	glyphIDs  binarySegm
}

func makeGlyphIndexFormat6(b binarySegm, offset uint32) (CMapGlyphIndex, error) {
	firstCode, err := b.u16(int(offset) + 6)
	if err != nil {
		return nil, errFontFormat("cmap format 6 subtable too small")
	}
	entryCount, err := b.u16(int(offset) + 8)
	if err != nil {
		return nil, errFontFormat("cmap format 6 subtable too small")
	}
	ids, err := b.view(int(offset)+10, int(entryCount)*2)
	if err != nil {
		return nil, errFontFormat("cmap format 6: entry count exceeds table size")
	}
	return &glyphIndexFormat6{firstCode: firstCode, glyphIDs: ids}, nil
}

func (gi *glyphIndexFormat6) Format() int { return 6 }

func (gi *glyphIndexFormat6) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 0xFFFF {
		return 0
	}
	i := int(uint16(r)) - int(gi.firstCode)
	if i < 0 || i*2 >= len(gi.glyphIDs) {
		return 0
	}
	g, _ := gi.glyphIDs.u16(i * 2)
	return GlyphIndex(g)
}

func (gi *glyphIndexFormat6) ReverseLookup(g GlyphIndex) rune {
	if g == 0 {
		return 0
	}
	for i := 0; i*2 < len(gi.glyphIDs); i++ {
		if id, _ := gi.glyphIDs.u16(i * 2); GlyphIndex(id) == g {
			return rune(int(gi.firstCode) + i)
		}
	}
	return 0
}

// --- Format 12: segmented coverage -----------------------------------------

// Format 12 covers the full Unicode range with sequential map groups, each
// mapping a run of consecutive code-points onto consecutive glyph ids.
// Groups must be sorted by ascending startCharCode.
type glyphIndexFormat12 struct {
	groups binarySegm // numGroups * 12 bytes
	count  int
}

func makeGlyphIndexFormat12(b binarySegm, offset uint32) (CMapGlyphIndex, error) {
	numGroups, err := b.u32(int(offset) + 12)
	if err != nil {
		return nil, errFontFormat("cmap format 12 subtable too small")
	}
	size, err := checkedMulInt(int(numGroups), 12)
	if err != nil {
		return nil, errFontFormat("cmap format 12: group count overflow")
	}
	groups, err := b.view(int(offset)+16, size)
	if err != nil {
		return nil, errFontFormat("cmap format 12: group count exceeds table size")
	}
	gi := &glyphIndexFormat12{groups: groups, count: int(numGroups)}
	prevEnd := int64(-1)
	for i := 0; i < gi.count; i++ {
		start, _ := groups.u32(i * 12)
		end, _ := groups.u32(i*12 + 4)
		if int64(start) <= prevEnd || end < start {
			return nil, errFontFormat(fmt.Sprintf("cmap format 12: group %d not ascending", i))
		}
		prevEnd = int64(end)
	}
	return gi, nil
}

func (gi *glyphIndexFormat12) Format() int { return 12 }

func (gi *glyphIndexFormat12) Lookup(r rune) GlyphIndex {
	if r < 0 {
		return 0
	}
	c := uint32(r)
	lo, hi := 0, gi.count
	for lo < hi {
		mid := (lo + hi) / 2
		end, _ := gi.groups.u32(mid*12 + 4)
		if end < c {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == gi.count {
		return 0
	}
	start, _ := gi.groups.u32(lo * 12)
	if c < start {
		return 0
	}
	startGlyph, _ := gi.groups.u32(lo*12 + 8)
	return GlyphIndex(startGlyph + (c - start))
}

func (gi *glyphIndexFormat12) ReverseLookup(g GlyphIndex) rune {
	if g == 0 {
		return 0
	}
	for i := 0; i < gi.count; i++ {
		start, _ := gi.groups.u32(i * 12)
		end, _ := gi.groups.u32(i*12 + 4)
		startGlyph, _ := gi.groups.u32(i*12 + 8)
		if uint32(g) >= startGlyph && uint32(g) <= startGlyph+(end-start) {
			return rune(start + (uint32(g) - startGlyph))
		}
	}
	return 0
}
