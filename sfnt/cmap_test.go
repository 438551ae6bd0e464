package sfnt

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// cmapOnlyFont wraps subtables into a font carrying nothing but a cmap.
func cmapOnlyFont(t *testing.T, subtables ...[]byte) *Font {
	t.Helper()
	otf, err := Parse(buildSFNT([]synthTable{{"cmap", synthCmap(subtables...)}}))
	if err != nil {
		t.Fatalf("cannot parse cmap-only font: %v", err)
	}
	return otf
}

func lookup(t *testing.T, otf *Font, r rune) GlyphIndex {
	t.Helper()
	gid, err := otf.GlyphIndexForRune(r)
	if err != nil {
		t.Fatalf("lookup of %#x failed: %v", r, err)
	}
	return gid
}

func TestCmapFormat4DirectDelta(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.sfnt")
	defer teardown()
	//
	otf := parseSynthFont(t) // maps 'A'..'Z' to glyphs starting at 1
	cases := []struct {
		r    rune
		want GlyphIndex
	}{
		{'A', 1},
		{'B', 2},
		{'Z', 26},
		{'a', 0},      // below no segment
		{0x2603, 0},   // snowman, unmapped
		{0x10FFFF, 0}, // beyond the 16-bit code space of format 4
	}
	for _, c := range cases {
		if gid := lookup(t, otf, c.r); gid != c.want {
			t.Errorf("expected %#x to map to glyph %d, have %d", c.r, c.want, gid)
		}
	}
}

func TestCmapFormat4RangeArray(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.sfnt")
	defer teardown()
	//
	// segment 'A'..'Z' with idDelta 0 and an explicit glyph id array 10,11,…
	ids := make([]uint16, 26)
	for i := range ids {
		ids[i] = uint16(10 + i)
	}
	otf := cmapOnlyFont(t, cmapFormat4([]cmap4Segment{
		{start: 0x41, end: 0x5A, idDelta: 0, useRangeArray: true, glyphIDs: ids},
		{start: 0xFFFF, end: 0xFFFF, idDelta: 1},
	}))
	if gid := lookup(t, otf, 0x42); gid != 11 { // 'B' hits the second array entry
		t.Errorf("expected 0x42 to map to glyph 11, have %d", gid)
	}
	if gid := lookup(t, otf, 'A'); gid != 10 {
		t.Errorf("expected 'A' to map to glyph 10, have %d", gid)
	}
	if gid := lookup(t, otf, 'Z'); gid != 35 {
		t.Errorf("expected 'Z' to map to glyph 35, have %d", gid)
	}
	if gid := lookup(t, otf, '@'); gid != 0 {
		t.Errorf("expected '@' to be unmapped, have %d", gid)
	}
}

func TestCmapFormat0(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.sfnt")
	defer teardown()
	//
	var ids [256]byte
	ids['A'] = 5
	ids[0xFF] = 9
	otf := cmapOnlyFont(t, cmapFormat0(ids))
	if gid := lookup(t, otf, 'A'); gid != 5 {
		t.Errorf("expected 'A' to map to glyph 5, have %d", gid)
	}
	if gid := lookup(t, otf, 0xFF); gid != 9 {
		t.Errorf("expected 0xFF to map to glyph 9, have %d", gid)
	}
	if gid := lookup(t, otf, 0x100); gid != 0 {
		t.Errorf("expected 0x100 to be unmapped in a byte table, have %d", gid)
	}
}

func TestCmapFormat6(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.sfnt")
	defer teardown()
	//
	otf := cmapOnlyFont(t, cmapFormat6(0x41, []uint16{7, 8, 9}))
	cases := []struct {
		r    rune
		want GlyphIndex
	}{
		{'A', 7},
		{'B', 8},
		{'C', 9},
		{'@', 0}, // below the trimmed range
		{'D', 0}, // above it
	}
	for _, c := range cases {
		if gid := lookup(t, otf, c.r); gid != c.want {
			t.Errorf("expected %q to map to glyph %d, have %d", c.r, c.want, gid)
		}
	}
}

func TestCmapFormat12(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.sfnt")
	defer teardown()
	//
	otf := cmapOnlyFont(t, cmapFormat12([]cmap12Group{
		{start: 0x41, end: 0x5A, startGlyph: 1},
		{start: 0x1F600, end: 0x1F64F, startGlyph: 100},
	}))
	cases := []struct {
		r    rune
		want GlyphIndex
	}{
		{'B', 2},
		{0x1F600, 100},
		{0x1F601, 101},
		{0x20, 0},
		{0x1F650, 0},
	}
	for _, c := range cases {
		if gid := lookup(t, otf, c.r); gid != c.want {
			t.Errorf("expected %#x to map to glyph %d, have %d", c.r, c.want, gid)
		}
	}
}

func TestCmapSubtablePreference(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.sfnt")
	defer teardown()
	//
	var byteIDs [256]byte
	byteIDs['A'] = 99
	t.Run("Format12OverFormat0", func(t *testing.T) {
		otf := cmapOnlyFont(t,
			cmapFormat0(byteIDs),
			cmapFormat12([]cmap12Group{{start: 'A', end: 'Z', startGlyph: 1}}),
		)
		cm, err := otf.cmap()
		if err != nil {
			t.Fatal(err)
		}
		if cm.GlyphIndexMap.Format() != 12 {
			t.Errorf("expected format 12 to win, chosen format %d", cm.GlyphIndexMap.Format())
		}
		if gid := lookup(t, otf, 'A'); gid != 1 {
			t.Errorf("expected the format 12 mapping, have glyph %d", gid)
		}
	})
	t.Run("Format4OverFormat6", func(t *testing.T) {
		otf := cmapOnlyFont(t,
			cmapFormat6('A', []uint16{99}),
			cmapFormat4([]cmap4Segment{
				{start: 'A', end: 'Z', idDelta: 0xFFC0},
				{start: 0xFFFF, end: 0xFFFF, idDelta: 1},
			}),
		)
		cm, err := otf.cmap()
		if err != nil {
			t.Fatal(err)
		}
		if cm.GlyphIndexMap.Format() != 4 {
			t.Errorf("expected format 4 to win, chosen format %d", cm.GlyphIndexMap.Format())
		}
	})
}

// Encode one mapping both as format 4 segments and format 12 groups and
// brute-force compare the lookups over the whole 16-bit code space.
func TestCmapFormat4Format12Agreement(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.sfnt")
	defer teardown()
	//
	// '0'..'9' -> 20.., 'A'..'Z' -> 1.., 0x100..0x1FF -> 0x80..
	sub4 := cmapFormat4([]cmap4Segment{
		{start: 0x30, end: 0x39, idDelta: 0xFFE4}, // 20 - 0x30 mod 65536
		{start: 0x41, end: 0x5A, idDelta: 0xFFC0},
		{start: 0x100, end: 0x1FF, idDelta: 0xFF80},
		{start: 0xFFFF, end: 0xFFFF, idDelta: 1},
	})
	sub12 := cmapFormat12([]cmap12Group{
		{start: 0x30, end: 0x39, startGlyph: 20},
		{start: 0x41, end: 0x5A, startGlyph: 1},
		{start: 0x100, end: 0x1FF, startGlyph: 0x80},
	})
	gi4, err := makeGlyphIndexFormat4(binarySegm(sub4), 0)
	if err != nil {
		t.Fatal(err)
	}
	gi12, err := makeGlyphIndexFormat12(binarySegm(sub12), 0)
	if err != nil {
		t.Fatal(err)
	}
	for r := rune(0); r <= 0xFFFE; r++ {
		if g4, g12 := gi4.Lookup(r), gi12.Lookup(r); g4 != g12 {
			t.Fatalf("formats disagree at %#x: format 4 has %d, format 12 has %d", r, g4, g12)
		}
	}
	// 0xFFFF: the format 4 terminal segment maps it to 0 via wraparound,
	// format 12 has no group for it
	if g := gi4.Lookup(0xFFFF); g != 0 {
		t.Errorf("expected the terminal segment to map 0xFFFF to 0, have %d", g)
	}
}

func TestCmapUnsupportedOnly(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.sfnt")
	defer teardown()
	//
	// a single format 2 subtable: recognized as present, not interpreted
	sub := make([]byte, 8)
	putU16(sub, 0, 2)
	otf, err := Parse(buildSFNT([]synthTable{{"cmap", synthCmap(sub)}}))
	if err != nil {
		t.Fatalf("unsupported cmap formats must not fail the parse: %v", err)
	}
	// the font legitimately maps nothing for us: lookups resolve to glyph 0,
	// they do not error
	if otf.Table(T("cmap")) == nil {
		t.Fatal("expected the cmap table to materialize without a usable subtable")
	}
	gid, err := otf.GlyphIndexForRune('A')
	if err != nil {
		t.Fatalf("lookup without a usable subtable must not error: %v", err)
	}
	if gid != 0 {
		t.Errorf("expected 'A' to be unmapped, have glyph %d", gid)
	}
	cm, err := otf.cmap()
	if err != nil {
		t.Fatal(err)
	}
	if r := cm.GlyphIndexMap.ReverseLookup(1); r != 0 {
		t.Errorf("expected no code-point to reach glyph 1, have %#x", r)
	}
}

func TestCmapRecordOffsetOutOfBounds(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.sfnt")
	defer teardown()
	//
	// an encoding record whose offset field lies past the record block must
	// not decay to offset 0 and misread the table header as a subtable
	cmap := synthCmap(cmapFormat0([256]byte{}))
	cmap = cmap[:10] // cut the record's offset field short
	otf, err := Parse(buildSFNT([]synthTable{{"cmap", cmap}}))
	if err != nil {
		t.Fatalf("a broken cmap must not fail the parse: %v", err)
	}
	if otf.Table(T("cmap")) != nil {
		t.Error("expected a truncated encoding record to fail cmap materialization")
	}
}

func TestCmapFormat4SegmentsOutOfOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.sfnt")
	defer teardown()
	//
	// unsorted segments would break the binary search; the subtable is rejected
	sub := cmapFormat4([]cmap4Segment{
		{start: 0x61, end: 0x7A, idDelta: 0xFFA0},
		{start: 0x41, end: 0x5A, idDelta: 0xFFC0},
		{start: 0xFFFF, end: 0xFFFF, idDelta: 1},
	})
	if _, err := makeGlyphIndexFormat4(binarySegm(sub), 0); err == nil {
		t.Error("expected out-of-order segments to be rejected")
	}
}

func TestCmapMissing(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.sfnt")
	defer teardown()
	//
	otf, err := Parse(buildSFNT([]synthTable{{"maxp", synthMaxp(1)}}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := otf.GlyphIndexForRune('A'); err == nil {
		t.Error("expected an error for a font without cmap")
	}
}
