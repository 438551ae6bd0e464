package sfnt

import (
	"fmt"
	"sync"
)

// Font represents the internal structure of an sfnt-packaged font.
// It exclusively owns the raw byte buffer; every table and every decoded
// glyph is either a window into that buffer or derived from it. A Font and
// all views obtained from it are immutable after Parse returns, so a single
// Font may be shared freely across goroutines.
type Font struct {
	Header *FontHeader
	data   binarySegm

	dir  map[Tag]TableRecord // table directory, keyed by tag
	tags []Tag               // directory tags in file order (ascending)

	cfg config

	tables tableCache // typed tables, materialized at most once per tag
	glyphs glyphCache // decoded outlines, decoded at most once per glyph id

	checksumWarnings []ChecksumMismatch
	parseErrors      []FontError
	parseWarnings    []FontWarning
}

// FontHeader is the fixed-size block at byte 0 of an sfnt font file,
// immediately followed by TableCount table records.
//
// Fonts with TrueType outlines use 0x00010000 for the FontType, fonts with
// CFF data use 0x4F54544F ('OTTO'). The Apple specification additionally
// allows 'true' and 'typ1'.
type FontHeader struct {
	FontType      uint32
	TableCount    uint16
	SearchRange   uint16
	EntrySelector uint16
	RangeShift    uint16
}

// TableRecord is one entry of the table directory: a 4-byte tag plus the
// checksum, offset and length of the table's data. Offsets are absolute from
// the start of the font buffer.
type TableRecord struct {
	Tag      Tag
	Checksum uint32
	Offset   uint32
	Length   uint32
}

// GlyphIndex is a glyph index in a font. Index 0 is the conventional
// ".notdef" placeholder for missing characters and must always resolve.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is an array of four uint8s (length = 32 bits) used to identify a table.
type Tag uint32

// MakeTag creates a Tag from 4 bytes, e.g.,
//
//	MakeTag([]byte("cmap"))
//
// If b is shorter or longer, it will be silently extended or cut as appropriate.
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append([]byte{0, 0, 0, 0}[:4-len(b)], b...)
	}
	return Tag(u32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate.
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// --- Directory access ------------------------------------------------------

// TableTags returns the tags of all tables contained in the font, in the
// order they appear in the table directory.
func (otf *Font) TableTags() []Tag {
	tags := make([]Tag, len(otf.tags))
	copy(tags, otf.tags)
	return tags
}

// HasTable reports whether the table directory contains an entry for tag.
func (otf *Font) HasTable(tag Tag) bool {
	_, ok := otf.dir[tag]
	return ok
}

// TableRecord returns the directory record for a tag, if present.
func (otf *Font) TableRecord(tag Tag) (TableRecord, bool) {
	rec, ok := otf.dir[tag]
	return rec, ok
}

// TableBytes returns the raw bytes of a table as a read-only window into the
// font's buffer, or nil if the font has no such table. This is the access
// path for collaborators handling tables this package does not interpret
// (COLR, SVG, hinting programs).
func (otf *Font) TableBytes(tag Tag) []byte {
	rec, ok := otf.dir[tag]
	if !ok {
		return nil
	}
	return otf.data[rec.Offset : rec.Offset+rec.Length]
}

// Table returns the font table for a given tag. If a table for a tag cannot
// be found in the font, or the table's data is malformed, nil is returned.
//
// Table tag names are case-sensitive, following the names in the OpenType
// specification. Tables this package interprets get a concrete type
// (reachable through Self()); every other table is returned as a generic
// byte window.
//
// For example, to receive the `loca` table, clients may call
//
//	loca := otf.Table(sfnt.T("loca")).Self().AsLoca()
func (otf *Font) Table(tag Tag) Table {
	t, err := otf.table(tag)
	if err != nil {
		tracer().Infof("table %s unusable: %v", tag, err)
		return nil
	}
	return t
}

// table materializes the typed view of a table, computing it at most once
// per font instance. A nil table with nil error means the tag is absent.
func (otf *Font) table(tag Tag) (Table, error) {
	rec, ok := otf.dir[tag]
	if !ok {
		return nil, nil
	}
	e := otf.tables.entry(tag)
	e.once.Do(func() {
		e.t, e.err = otf.materializeTable(rec)
	})
	return e.t, e.err
}

// Errors returns all errors encountered during font parsing. These represent
// issues that were found but did not prevent parsing from completing.
func (otf *Font) Errors() []FontError {
	if otf.parseErrors == nil {
		return []FontError{}
	}
	return otf.parseErrors
}

// Warnings returns all warnings encountered during font parsing.
func (otf *Font) Warnings() []FontWarning {
	if otf.parseWarnings == nil {
		return []FontWarning{}
	}
	return otf.parseWarnings
}

// ChecksumWarnings returns the checksum mismatches found at parse time.
// The slice is empty for a font whose checksums all verify.
func (otf *Font) ChecksumWarnings() []ChecksumMismatch {
	if otf.checksumWarnings == nil {
		return []ChecksumMismatch{}
	}
	return otf.checksumWarnings
}

// --- Table cache -----------------------------------------------------------

// tableCache guarantees at-most-once materialization of typed tables under
// concurrent access: the first caller computes and publishes, concurrent
// callers for the same tag receive the same published result.
type tableCacheEntry struct {
	once sync.Once
	t    Table
	err  error
}

type tableCache struct {
	mu sync.Mutex
	m  map[Tag]*tableCacheEntry
}

func (c *tableCache) entry(tag Tag) *tableCacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = make(map[Tag]*tableCacheEntry)
	}
	e, ok := c.m[tag]
	if !ok {
		e = &tableCacheEntry{}
		c.m[tag] = e
	}
	return e
}

// --- Table -----------------------------------------------------------------

// Table represents one of the various sfnt font tables.
//
// Tables interpreted by this package: 'head', 'maxp', 'hhea', 'hmtx', 'loca',
// 'glyf', 'cmap'. All other tables are carried as generic byte windows and
// can be reached through Font.TableBytes as well.
type Table interface {
	Extent() (uint32, uint32) // offset and byte size within the font's binary data
	Binary() []byte           // the bytes of this table; should be treated as read-only by clients
	Self() TableSelf          // reference to itself, for conversion to a concrete table type
}

func newTable(tag Tag, b binarySegm, offset, size uint32) *genericTable {
	t := &genericTable{tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}}
	t.self = t
	return t
}

type genericTable struct {
	tableBase
}

// tableBase is a common parent for all kinds of sfnt tables.
type tableBase struct {
	data   binarySegm // a table is a slice of font data
	name   Tag        // 4-byte name as an integer
	offset uint32     // from offset
	length uint32     // to offset + length
	self   any
}

// Extent returns offset and byte size of this table within the font.
func (tb *tableBase) Extent() (uint32, uint32) {
	return tb.offset, tb.length
}

// Binary returns the bytes of this table. Should be treated as read-only by
// clients, as it is a view into the original data.
func (tb *tableBase) Binary() []byte {
	return tb.data
}

func (tb *tableBase) Self() TableSelf {
	return TableSelf{tableBase: tb}
}

// TableSelf is a reference to a table. Its primary use is for converting a
// generic table to a concrete table flavour, and for reproducing the name
// tag of a table.
type TableSelf struct {
	tableBase *tableBase
}

// NameTag returns the 4-letter name of a table.
func (tself TableSelf) NameTag() Tag {
	return tself.tableBase.name
}

func safeSelf(tself TableSelf) any {
	if tself.tableBase == nil || tself.tableBase.self == nil {
		return TableSelf{}
	}
	return tself.tableBase.self
}

// AsHead returns this table as a head table, or nil.
func (tself TableSelf) AsHead() *HeadTable {
	if k, ok := safeSelf(tself).(*HeadTable); ok {
		return k
	}
	return nil
}

// AsMaxP returns this table as a maxp table, or nil.
func (tself TableSelf) AsMaxP() *MaxPTable {
	if k, ok := safeSelf(tself).(*MaxPTable); ok {
		return k
	}
	return nil
}

// AsLoca returns this table as a loca table, or nil.
func (tself TableSelf) AsLoca() *LocaTable {
	if k, ok := safeSelf(tself).(*LocaTable); ok {
		return k
	}
	return nil
}

// AsGlyf returns this table as a glyf table, or nil.
func (tself TableSelf) AsGlyf() *GlyfTable {
	if k, ok := safeSelf(tself).(*GlyfTable); ok {
		return k
	}
	return nil
}

// AsHHea returns this table as a hhea table, or nil.
func (tself TableSelf) AsHHea() *HHeaTable {
	if k, ok := safeSelf(tself).(*HHeaTable); ok {
		return k
	}
	return nil
}

// AsHMtx returns this table as a hmtx table, or nil.
func (tself TableSelf) AsHMtx() *HMtxTable {
	if k, ok := safeSelf(tself).(*HMtxTable); ok {
		return k
	}
	return nil
}

// AsCMap returns this table as a cmap table, or nil.
func (tself TableSelf) AsCMap() *CMapTable {
	if k, ok := safeSelf(tself).(*CMapTable); ok {
		return k
	}
	return nil
}

// --- Concrete table implementations ----------------------------------------

// HeadTable gives global information about the font: the units-per-em
// scaling basis, the font bounding box, and the loca entry width.
type HeadTable struct {
	tableBase
	Flags              uint16
	UnitsPerEm         uint16 // values 16 … 16384 are valid
	IndexToLocFormat   uint16 // needed to interpret the loca table: 0 short, 1 long
	CheckSumAdjustment uint32 // whole-file checksum adjustment, see checksum.go
	XMin, YMin         int16  // font bounding box
	XMax, YMax         int16
}

func newHeadTable(tag Tag, b binarySegm, offset, size uint32) *HeadTable {
	t := &HeadTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// MaxPTable establishes the memory requirements for this font. The 'maxp'
// table contains a count for the number of glyphs in the font; every table
// indexed by glyph id depends on it.
type MaxPTable struct {
	tableBase
	NumGlyphs int
}

func newMaxPTable(tag Tag, b binarySegm, offset, size uint32) *MaxPTable {
	t := &MaxPTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// LocaTable stores the offsets to the locations of the glyphs in the font,
// relative to the beginning of the glyph data table. By definition, index
// zero points to the "missing character".
//
// Entries are 16-bit half-offsets or 32-bit offsets, selected by
// head.indexToLocFormat; the table holds numGlyphs+1 entries so each glyph's
// extent is delimited by a pair of consecutive entries.
type LocaTable struct {
	tableBase
	longFormat bool // 32-bit entries; 16-bit half-offsets otherwise
	glyphCount int  // entry count is glyphCount+1
}

func newLocaTable(tag Tag, b binarySegm, offset, size uint32) *LocaTable {
	t := &LocaTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// GlyphCount returns the number of glyphs this loca table is sized for.
func (t *LocaTable) GlyphCount() int {
	if t == nil {
		return 0
	}
	return t.glyphCount
}

// entry returns loca entry i as a byte offset into the glyf table.
func (t *LocaTable) entry(i int) (uint32, error) {
	if i < 0 || i > t.glyphCount {
		return 0, errBufferBounds
	}
	if t.longFormat {
		return t.data.u32(i * 4)
	}
	half, err := t.data.u16(i * 2)
	if err != nil {
		return 0, err
	}
	return uint32(half) * 2, nil
}

// GlyphRange returns the extent [start,end) of a glyph's data within the
// glyf table. start == end marks an empty glyph (no outline), which is a
// valid state, not an error.
func (t *LocaTable) GlyphRange(gid GlyphIndex) (start, end uint32, err error) {
	if t == nil || int(gid) >= t.glyphCount {
		return 0, 0, GlyphError{GID: gid, Offset: -1, Err: ErrGlyphIndexOutOfRange}
	}
	if start, err = t.entry(int(gid)); err != nil {
		return 0, 0, glyphError(gid, -1, ErrTruncatedGlyph)
	}
	if end, err = t.entry(int(gid) + 1); err != nil {
		return 0, 0, glyphError(gid, -1, ErrTruncatedGlyph)
	}
	if end < start {
		return 0, 0, glyphError(gid, -1, ErrTruncatedGlyph)
	}
	return start, end, nil
}

// GlyfTable carries the raw glyph outline data. Individual glyph ranges
// within it are delimited by the loca table; see Font.Glyph for decoding.
type GlyfTable struct {
	tableBase
}

func newGlyfTable(tag Tag, b binarySegm, offset, size uint32) *GlyfTable {
	t := &GlyfTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// HHeaTable contains information for horizontal layout.
type HHeaTable struct {
	tableBase
	Ascender         int16
	Descender        int16
	LineGap          int16
	AdvanceWidthMax  uint16
	NumberOfHMetrics int
}

func newHHeaTable(tag Tag, b binarySegm, offset, size uint32) *HHeaTable {
	t := &HHeaTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

// HMtxTable contains metric information for the horizontal layout of each
// glyph in the font. Each element of the hMetrics array has two parts: the
// advance width and the left side bearing. Optionally, an array of bare left
// side bearings follows; glyphs beyond the hMetrics array share the advance
// width of the last hMetrics entry. This is how monospaced fonts avoid
// repeating a constant advance for every glyph.
type HMtxTable struct {
	tableBase
	NumberOfHMetrics int
	numGlyphs        int
	longMetrics      []HMetricRecord
	leftSideBearings []int16
}

// HMetricRecord is one long horizontal metric record from table hmtx.
type HMetricRecord struct {
	AdvanceWidth    uint16
	LeftSideBearing int16
}

func newHMtxTable(tag Tag, b binarySegm, offset, size uint32) *HMtxTable {
	t := &HMtxTable{}
	t.tableBase = tableBase{data: b, name: tag, offset: offset, length: size}
	t.self = t
	return t
}

func (t *HMtxTable) parseAll(numGlyphs, numberOfHMetrics int) error {
	if t == nil {
		return nil
	}
	if numGlyphs < 0 {
		return fmt.Errorf("invalid glyph count %d", numGlyphs)
	}
	if numberOfHMetrics < 0 || numberOfHMetrics > numGlyphs {
		return fmt.Errorf("invalid numberOfHMetrics %d (numGlyphs=%d)", numberOfHMetrics, numGlyphs)
	}
	required := numberOfHMetrics*4 + (numGlyphs-numberOfHMetrics)*2
	if required > len(t.data) {
		return fmt.Errorf("hmtx table too small: need %d bytes, have %d", required, len(t.data))
	}
	longMetrics := make([]HMetricRecord, numberOfHMetrics)
	for i := 0; i < numberOfHMetrics; i++ {
		aw, err := t.data.u16(i * 4)
		if err != nil {
			return fmt.Errorf("cannot parse hmtx long metric %d: %w", i, err)
		}
		lsb, err := t.data.i16(i*4 + 2)
		if err != nil {
			return fmt.Errorf("cannot parse hmtx long metric lsb %d: %w", i, err)
		}
		longMetrics[i] = HMetricRecord{AdvanceWidth: aw, LeftSideBearing: lsb}
	}
	lsbCount := numGlyphs - numberOfHMetrics
	leftSideBearings := make([]int16, lsbCount)
	base := numberOfHMetrics * 4
	for i := 0; i < lsbCount; i++ {
		lsb, err := t.data.i16(base + i*2)
		if err != nil {
			return fmt.Errorf("cannot parse hmtx lsb %d: %w", i, err)
		}
		leftSideBearings[i] = lsb
	}
	t.NumberOfHMetrics = numberOfHMetrics
	t.numGlyphs = numGlyphs
	t.longMetrics = longMetrics
	t.leftSideBearings = leftSideBearings
	return nil
}

// GlyphCount returns the glyph count used when decoding this hmtx table.
func (t *HMtxTable) GlyphCount() int {
	if t == nil {
		return 0
	}
	return t.numGlyphs
}

// HMetrics returns the advance width and left side bearing for a glyph.
func (t *HMtxTable) HMetrics(g GlyphIndex) (uint16, int16, bool) {
	if t == nil || t.numGlyphs == 0 || int(g) >= t.numGlyphs {
		return 0, 0, false
	}
	if int(g) < len(t.longMetrics) {
		m := t.longMetrics[int(g)]
		return m.AdvanceWidth, m.LeftSideBearing, true
	}
	if len(t.longMetrics) == 0 {
		return 0, 0, false
	}
	i := int(g) - len(t.longMetrics)
	if i < 0 || i >= len(t.leftSideBearings) {
		return 0, 0, false
	}
	return t.longMetrics[len(t.longMetrics)-1].AdvanceWidth, t.leftSideBearings[i], true
}
