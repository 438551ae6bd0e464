package sfnt

import (
	"errors"
	"strings"
	"testing"
)

// TestErrorSeverity verifies the ErrorSeverity String() method.
func TestErrorSeverity(t *testing.T) {
	tests := []struct {
		severity ErrorSeverity
		expected string
	}{
		{SeverityCritical, "CRITICAL"},
		{SeverityMajor, "MAJOR"},
		{SeverityMinor, "MINOR"},
		{ErrorSeverity(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		result := tt.severity.String()
		if result != tt.expected {
			t.Errorf("ErrorSeverity(%d).String() = %q; want %q", tt.severity, result, tt.expected)
		}
	}
}

// TestFontError verifies FontError creation and formatting.
func TestFontError(t *testing.T) {
	tests := []struct {
		name     string
		err      FontError
		expected string
	}{
		{
			name: "Error with offset",
			err: FontError{
				Table:    T("glyf"),
				Section:  "SimpleGlyph",
				Issue:    "buffer too small",
				Severity: SeverityCritical,
				Offset:   1234,
			},
			expected: "[CRITICAL] glyf/SimpleGlyph at offset 1234: buffer too small",
		},
		{
			name: "Error without offset",
			err: FontError{
				Table:    T("cmap"),
				Section:  "Format4",
				Issue:    "segment count is zero",
				Severity: SeverityMajor,
			},
			expected: "[MAJOR] cmap/Format4: segment count is zero",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.err.Error(); result != tt.expected {
				t.Errorf("FontError.Error() = %q; want %q", result, tt.expected)
			}
		})
	}
}

func TestGlyphErrorUnwrap(t *testing.T) {
	err := glyphError(42, 17, ErrTruncatedGlyph)
	if !errors.Is(err, ErrTruncatedGlyph) {
		t.Error("expected glyphError to wrap its sentinel")
	}
	var gerr GlyphError
	if !errors.As(err, &gerr) {
		t.Fatal("expected a GlyphError")
	}
	if gerr.GID != 42 || gerr.Offset != 17 {
		t.Errorf("expected glyph 42 at offset 17, have glyph %d at %d", gerr.GID, gerr.Offset)
	}
}

func TestGlyphErrorFormatting(t *testing.T) {
	withOffset := glyphError(7, 12, ErrTruncatedGlyph).Error()
	if withOffset != "glyph 7 at offset 12: glyph data truncated" {
		t.Errorf("unexpected message %q", withOffset)
	}
	withoutOffset := glyphError(7, -1, ErrGlyphIndexOutOfRange).Error()
	if withoutOffset != "glyph 7: glyph index out of range" {
		t.Errorf("unexpected message %q", withoutOffset)
	}
}

func TestChecksumMismatchString(t *testing.T) {
	m := ChecksumMismatch{Table: T("glyf"), Offset: 128, Declared: 0x11, Computed: 0x22}
	if s := m.String(); !strings.Contains(s, "glyf") {
		t.Errorf("expected the description to name the table, have %q", s)
	}
	fileLevel := ChecksumMismatch{Declared: 0x11, Computed: 0x22}
	if s := fileLevel.String(); !strings.Contains(s, "file") {
		t.Errorf("expected a file-level description, have %q", s)
	}
}

func TestErrorCollector(t *testing.T) {
	ec := &errorCollector{}
	ec.addError(T("head"), "Header", "bad magic", SeverityCritical, 12)
	ec.addWarning(T("glyf"), "checksum mismatch", 0)
	if len(ec.errors) != 1 || len(ec.warnings) != 1 {
		t.Fatalf("expected 1 error and 1 warning, have %d/%d", len(ec.errors), len(ec.warnings))
	}
	if ec.errors[0].Severity != SeverityCritical {
		t.Error("expected the collected error to keep its severity")
	}
}
