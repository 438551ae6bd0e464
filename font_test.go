package glyf

import (
	"testing"

	"github.com/npillmayer/glyf/internal/fontload"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
)

func TestParseFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.glyf")
	defer teardown()
	//
	f, err := ParseFont(fontload.GoRegular())
	assert.NoError(t, err, "cannot parse Go Regular")
	assert.NotNil(t, f.Font, "expected a decoded font container")
	assert.Contains(t, f.Fontname, "Go", "expected the full name to mention Go")
	assert.Empty(t, f.Filepath, "fonts parsed from memory carry no file path")
}

func TestFamilyName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.glyf")
	defer teardown()
	//
	otf, err := FromBinary(fontload.GoRegular())
	assert.NoError(t, err)
	family, subfamily := FamilyName(otf)
	assert.Contains(t, family, "Go", "unexpected family name")
	assert.NotEmpty(t, subfamily, "expected a subfamily entry")
}

func TestLoadFontMissingFile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.glyf")
	defer teardown()
	//
	_, err := LoadFont("testdata/no-such-font.ttf")
	assert.Error(t, err, "expected an error for a missing font file")
}
