package sfnt

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Code comments often cite passages from the OpenType specification
// version 1.8.4; see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// Maximum reasonable counts for sfnt structures. These limits prevent
// malicious fonts from claiming unreasonably large counts that could lead
// to excessive memory allocation or out-of-bounds reads.
const (
	MaxTableCount = 256   // tables per font: typically < 30
	MaxGlyphCount = 65536 // maximum glyph index (uint16)
)

// Container signatures this package recognizes. Only raw sfnt flavours are
// parsed here; compressed containers are the business of a collaborating
// decompression layer which hands the inflated sfnt payload back to Parse.
const (
	fontTypeTrueType  = 0x00010000 // TrueType outlines
	fontTypeAppleTrue = 0x74727565 // 'true', Apple TrueType
	fontTypeType1     = 0x74797031 // 'typ1', legacy Type 1 in sfnt wrapper
	fontTypeOpenType  = 0x4f54544f // 'OTTO', CFF outlines
	fontTypeWOFF      = 0x774f4646 // 'wOFF'
	fontTypeWOFF2     = 0x774f4632 // 'wOF2'
)

// Parse parses an sfnt font (TrueType or OpenType) from a byte slice.
//
// Parse reads the table directory, verifies its structural invariants, and
// recomputes checksums; it does not eagerly decode glyphs or materialize
// typed tables. A Font needs ongoing access to the font's byte-data after
// Parse returns, and treats it as immutable while the Font remains in use.
//
// Missing tables are not an error at parse time — a font usable only for
// metadata parses fine; the error surfaces at the operation that needs the
// absent table.
func Parse(font []byte, opts ...Option) (*Font, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	// The Offset Table is 12 bytes, followed immediately by the table
	// record entries.
	r := bytes.NewReader(font)
	h := FontHeader{}
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, errFontFormat("offset table too short")
	}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())

	ec := &errorCollector{}

	switch h.FontType {
	case fontTypeTrueType, fontTypeAppleTrue, fontTypeType1, fontTypeOpenType:
		// raw sfnt, proceed
	case fontTypeWOFF, fontTypeWOFF2:
		return nil, errFontFormat("compressed container (WOFF/WOFF2) must be inflated before parsing")
	default:
		return nil, errFontFormat(fmt.Sprintf("font type not supported: %x", h.FontType))
	}
	if h.TableCount > MaxTableCount {
		return nil, errFontFormat(fmt.Sprintf("unreasonable table count %d", h.TableCount))
	}

	otf := &Font{
		Header: &h,
		data:   binarySegm(font),
		dir:    make(map[Tag]TableRecord, h.TableCount),
		cfg:    cfg,
	}

	// "The Offset Table is followed immediately by the Table Record entries
	// … sorted in ascending order by tag", 16 bytes each.
	recordsSize, err := checkedMulInt(16, int(h.TableCount))
	if err != nil {
		return nil, errFontFormat(fmt.Sprintf("table count too large: %v", err))
	}
	buf, err := otf.data.view(12, recordsSize)
	if err != nil {
		return nil, errFontFormat("table record entries exceed font size")
	}
	for b, first, prevTag := buf, true, Tag(0); len(b) > 0; b = b[16:] {
		tag := MakeTag(b)
		if !first && tag == prevTag {
			return nil, errFontFormat(fmt.Sprintf("duplicate table tag %s", tag))
		}
		if !first && tag < prevTag {
			return nil, errFontFormat("table directory not in ascending tag order")
		}
		first, prevTag = false, tag
		rec := TableRecord{
			Tag:      tag,
			Checksum: u32(b[4:8]),
			Offset:   u32(b[8:12]),
			Length:   u32(b[12:16]),
		}
		// "All tables must begin on four byte boundries."
		if rec.Offset&3 != 0 {
			return nil, errFontFormat(fmt.Sprintf("table %s: invalid table offset %d", tag, rec.Offset))
		}
		tableEnd, err := checkedAddUint32(rec.Offset, rec.Length)
		if err != nil {
			return nil, errFontFormat(fmt.Sprintf("table %s: extent overflow: %v", tag, err))
		}
		if uint64(tableEnd) > uint64(len(otf.data)) {
			return nil, errFontFormat(fmt.Sprintf("table %s: bounds [%d:%d] exceed font size %d",
				tag, rec.Offset, tableEnd, len(otf.data)))
		}
		otf.dir[tag] = rec
		otf.tags = append(otf.tags, tag)
	}

	// Checksums are recomputed once, at parse time. Mismatches attach to the
	// Font as warnings; strict mode turns any mismatch into a parse error.
	otf.checksumWarnings = otf.validateChecksums()
	for _, m := range otf.checksumWarnings {
		ec.addWarning(m.Table, m.String(), m.Offset)
	}
	if cfg.strictChecksums && len(otf.checksumWarnings) > 0 {
		return nil, errFontFormat("checksum validation failed: " + otf.checksumWarnings[0].String())
	}

	otf.parseErrors = ec.errors
	otf.parseWarnings = ec.warnings
	return otf, nil
}

// RequiredGlyphTables lists the tables glyph outline decoding depends on.
// Their absence is surfaced by the operation that needs them, not by Parse.
var RequiredGlyphTables = []string{
	"head", "maxp", "loca", "glyf", "cmap", "hhea", "hmtx",
}

// materializeTable builds the typed view of one table. Dependencies between
// tables (loca needs head and maxp, hmtx needs hhea and maxp) are resolved
// through the table cache, so each prerequisite is itself parsed only once.
func (otf *Font) materializeTable(rec TableRecord) (Table, error) {
	b := binarySegm(otf.data[rec.Offset : rec.Offset+rec.Length])
	switch rec.Tag {
	case T("head"):
		return parseHead(rec.Tag, b, rec.Offset, rec.Length)
	case T("maxp"):
		return parseMaxP(rec.Tag, b, rec.Offset, rec.Length)
	case T("hhea"):
		return parseHHea(rec.Tag, b, rec.Offset, rec.Length)
	case T("hmtx"):
		return otf.parseHMtx(rec.Tag, b, rec.Offset, rec.Length)
	case T("loca"):
		return otf.parseLoca(rec.Tag, b, rec.Offset, rec.Length)
	case T("cmap"):
		return parseCMap(rec.Tag, b, rec.Offset, rec.Length)
	case T("glyf"):
		return newGlyfTable(rec.Tag, b, rec.Offset, rec.Length), nil
	}
	tracer().Debugf("font table (%s) will not be interpreted", rec.Tag)
	return newTable(rec.Tag, b, rec.Offset, rec.Length), nil
}

// --- Head table ------------------------------------------------------------

// headMagic is the fixed magicNumber field every head table must carry.
const headMagic = 0x5F0F3CF5

func parseHead(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 54 {
		return nil, errFontFormat(fmt.Sprintf("head table too small: %d bytes (need 54)", size))
	}
	if magic, _ := b.u32(12); magic != headMagic {
		return nil, errFontFormat(fmt.Sprintf("head table magic number %#08x", magic))
	}
	t := newHeadTable(tag, b, offset, size)
	t.CheckSumAdjustment, _ = b.u32(8)
	t.Flags, _ = b.u16(16)
	t.UnitsPerEm, _ = b.u16(18)
	t.XMin, _ = b.i16(36)
	t.YMin, _ = b.i16(38)
	t.XMax, _ = b.i16(40)
	t.YMax, _ = b.i16(42)
	// IndexToLocFormat is needed to interpret the loca table:
	// 0 for short offsets, 1 for long
	t.IndexToLocFormat, _ = b.u16(50)
	if t.IndexToLocFormat > 1 {
		return nil, errFontFormat(fmt.Sprintf("invalid head.indexToLocFormat: %d (must be 0 or 1)",
			t.IndexToLocFormat))
	}
	return t, nil
}

// --- MaxP table ------------------------------------------------------------

// The 'maxp' table establishes the memory requirements for this font. Fonts
// with CFF data use version 0.5 of this table, specifying only the numGlyphs
// field; fonts with TrueType outlines use version 1.0, where all data is
// required.
func parseMaxP(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 6 {
		return nil, errFontFormat(fmt.Sprintf("maxp table too small: %d bytes (need 6)", size))
	}
	t := newMaxPTable(tag, b, offset, size)
	n, _ := b.u16(4)
	t.NumGlyphs = int(n)
	return t, nil
}

// --- HHea table ------------------------------------------------------------

func parseHHea(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 36 {
		return nil, errFontFormat(fmt.Sprintf("hhea table too small: %d bytes (need 36)", size))
	}
	t := newHHeaTable(tag, b, offset, size)
	t.Ascender, _ = b.i16(4)
	t.Descender, _ = b.i16(6)
	t.LineGap, _ = b.i16(8)
	t.AdvanceWidthMax, _ = b.u16(10)
	n, _ := b.u16(34)
	t.NumberOfHMetrics = int(n)
	return t, nil
}

// --- HMtx table ------------------------------------------------------------

// Dependencies (taken from the Apple Developer page about TrueType): the
// value of numOfLongHorMetrics is found in the 'hhea' table; fonts that lack
// an 'hhea' table must not have an 'hmtx' table.
func (otf *Font) parseHMtx(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	hhea, err := otf.hhea()
	if err != nil {
		return nil, fmt.Errorf("hmtx requires hhea: %w", err)
	}
	maxp, err := otf.maxp()
	if err != nil {
		return nil, fmt.Errorf("hmtx requires maxp: %w", err)
	}
	t := newHMtxTable(tag, b, offset, size)
	if err := t.parseAll(maxp.NumGlyphs, hhea.NumberOfHMetrics); err != nil {
		return nil, errFontFormat(err.Error())
	}
	return t, nil
}

// --- Typed table getters ---------------------------------------------------

// The getters below materialize a table through the cache and report a
// missing or malformed table as an error naming the tag. Operations that
// depend on a table call these at the point of use.

func (otf *Font) head() (*HeadTable, error) {
	t, err := otf.table(T("head"))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errFontFormat("font has no head table")
	}
	return t.Self().AsHead(), nil
}

func (otf *Font) maxp() (*MaxPTable, error) {
	t, err := otf.table(T("maxp"))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errFontFormat("font has no maxp table")
	}
	return t.Self().AsMaxP(), nil
}

func (otf *Font) hhea() (*HHeaTable, error) {
	t, err := otf.table(T("hhea"))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errFontFormat("font has no hhea table")
	}
	return t.Self().AsHHea(), nil
}

func (otf *Font) hmtx() (*HMtxTable, error) {
	t, err := otf.table(T("hmtx"))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errFontFormat("font has no hmtx table")
	}
	return t.Self().AsHMtx(), nil
}

func (otf *Font) loca() (*LocaTable, error) {
	t, err := otf.table(T("loca"))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errFontFormat("font has no loca table")
	}
	return t.Self().AsLoca(), nil
}

func (otf *Font) glyf() (*GlyfTable, error) {
	t, err := otf.table(T("glyf"))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errFontFormat("font has no glyf table")
	}
	return t.Self().AsGlyf(), nil
}

func (otf *Font) cmap() (*CMapTable, error) {
	t, err := otf.table(T("cmap"))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errFontFormat("font has no cmap table")
	}
	return t.Self().AsCMap(), nil
}

// --- Loca table ------------------------------------------------------------

// The size of entries in the 'loca' table must be appropriate for the value
// of the indexToLocFormat field of the 'head' table. The number of entries
// must be one more than the numGlyphs field of the 'maxp' table, so that
// each glyph's extent in 'glyf' is delimited by a pair of entries.
func (otf *Font) parseLoca(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	head, err := otf.head()
	if err != nil {
		return nil, fmt.Errorf("loca requires head: %w", err)
	}
	maxp, err := otf.maxp()
	if err != nil {
		return nil, fmt.Errorf("loca requires maxp: %w", err)
	}
	t := newLocaTable(tag, b, offset, size)
	t.longFormat = head.IndexToLocFormat == 1
	t.glyphCount = maxp.NumGlyphs
	entrySize := 2
	if t.longFormat {
		entrySize = 4
	}
	required, err := checkedMulInt(maxp.NumGlyphs+1, entrySize)
	if err != nil {
		return nil, errFontFormat(fmt.Sprintf("loca size calculation overflow: %v", err))
	}
	if int(size) < required {
		return nil, errFontFormat(fmt.Sprintf(
			"loca table size (%d) insufficient for %d glyphs (need %d)",
			size, maxp.NumGlyphs, required))
	}
	return t, nil
}
