package sfnt

import (
	"errors"
	"fmt"
)

// errFontFormat produces user level errors for structural font defects:
// a malformed table directory, a bad version tag, overflowing offsets.
// Structural errors are fatal to Parse, or to the specific table access
// that triggered them; they never arise from decoding a single glyph.
func errFontFormat(message string) error {
	return fmt.Errorf("sfnt font format: %s", message)
}

// Sentinel errors for per-glyph decode failures. Failures local to one glyph
// never invalidate the Font; the same Font instance keeps serving other
// glyph indices.
var (
	// ErrGlyphIndexOutOfRange flags a glyph index >= maxp.numGlyphs.
	ErrGlyphIndexOutOfRange = errors.New("glyph index out of range")

	// ErrTruncatedGlyph flags glyph data that ends before decoding completes.
	ErrTruncatedGlyph = errors.New("glyph data truncated")

	// ErrCompositeCycle flags a composite glyph whose component chain
	// revisits a glyph already being decoded.
	ErrCompositeCycle = errors.New("cycle in composite glyph components")

	// ErrCompositeDepth flags composite nesting beyond the configured limit.
	ErrCompositeDepth = errors.New("composite glyph nesting too deep")
)

// GlyphError wraps a sentinel decode error with the glyph index and the
// offset into the glyf table where decoding failed. Callers match the cause
// with errors.Is.
type GlyphError struct {
	GID    GlyphIndex // glyph that was being decoded
	Offset int        // byte offset within the glyph's data, -1 if not applicable
	Err    error
}

func (e GlyphError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("glyph %d at offset %d: %v", e.GID, e.Offset, e.Err)
	}
	return fmt.Sprintf("glyph %d: %v", e.GID, e.Err)
}

func (e GlyphError) Unwrap() error {
	return e.Err
}

func glyphError(gid GlyphIndex, offset int, err error) error {
	return GlyphError{GID: gid, Offset: offset, Err: err}
}

// ErrorSeverity represents the severity level of a font parsing error.
type ErrorSeverity int

const (
	// SeverityCritical indicates a severe error that makes the font unusable or unreliable.
	SeverityCritical ErrorSeverity = iota
	// SeverityMajor indicates a significant error that may affect functionality but doesn't prevent usage.
	SeverityMajor
	// SeverityMinor indicates a minor issue that can be safely ignored in most cases.
	SeverityMinor
)

// String returns a human-readable representation of the error severity.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityMajor:
		return "MAJOR"
	case SeverityMinor:
		return "MINOR"
	default:
		return "UNKNOWN"
	}
}

// FontError represents an error encountered during font parsing.
// Errors are accumulated during initial parsing and can be inspected after
// parsing completes.
type FontError struct {
	Table    Tag           // table where the error occurred (zero tag for the directory)
	Section  string        // specific section within the table (e.g. "Header", "Bounds")
	Issue    string        // human-readable description of the issue
	Severity ErrorSeverity // severity level of the error
	Offset   uint32        // byte offset in the font file where the error occurred (0 if unknown)
}

// Error implements the error interface.
func (e FontError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("[%s] %s/%s at offset %d: %s", e.Severity, e.Table, e.Section, e.Offset, e.Issue)
	}
	return fmt.Sprintf("[%s] %s/%s: %s", e.Severity, e.Table, e.Section, e.Issue)
}

// FontWarning represents a non-critical issue encountered during font parsing.
// Warnings indicate potential problems but do not prevent font usage.
type FontWarning struct {
	Table  Tag    // table where the warning occurred
	Issue  string // human-readable description of the warning
	Offset uint32 // byte offset in the font file where the warning occurred (0 if unknown)
}

// String returns a human-readable representation of the warning.
func (w FontWarning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("[WARNING] %s at offset %d: %s", w.Table, w.Offset, w.Issue)
	}
	return fmt.Sprintf("[WARNING] %s: %s", w.Table, w.Issue)
}

// ChecksumMismatch reports a table whose recomputed checksum differs from the
// value declared in the table directory. Mismatches are warnings unless
// StrictChecksums was requested at parse time.
type ChecksumMismatch struct {
	Table    Tag    // mismatching table; zero tag for the whole-file adjustment
	Offset   uint32 // file offset of the table data
	Declared uint32 // checksum from the table record (or head.checkSumAdjustment)
	Computed uint32 // checksum recomputed over the table bytes
}

func (m ChecksumMismatch) String() string {
	if m.Table == 0 {
		return fmt.Sprintf("file checksum adjustment: declared %#08x, computed %#08x",
			m.Declared, m.Computed)
	}
	return fmt.Sprintf("table %s at offset %d: declared checksum %#08x, computed %#08x",
		m.Table, m.Offset, m.Declared, m.Computed)
}

// errorCollector accumulates errors and warnings during font parsing.
// This is an internal helper used by the parser to collect issues as they
// are discovered.
type errorCollector struct {
	errors   []FontError
	warnings []FontWarning
}

// addError records a parsing error.
func (ec *errorCollector) addError(table Tag, section string, issue string, severity ErrorSeverity, offset uint32) {
	ec.errors = append(ec.errors, FontError{
		Table:    table,
		Section:  section,
		Issue:    issue,
		Severity: severity,
		Offset:   offset,
	})
}

// addWarning records a parsing warning.
func (ec *errorCollector) addWarning(table Tag, issue string, offset uint32) {
	ec.warnings = append(ec.warnings, FontWarning{
		Table:  table,
		Issue:  issue,
		Offset: offset,
	})
}

// hasErrors returns true if any errors have been recorded.
func (ec *errorCollector) hasErrors() bool {
	return len(ec.errors) > 0
}

// criticalErrors returns all errors with critical severity.
func (ec *errorCollector) criticalErrors() []FontError {
	critical := make([]FontError, 0)
	for _, err := range ec.errors {
		if err.Severity == SeverityCritical {
			critical = append(critical, err)
		}
	}
	return critical
}
