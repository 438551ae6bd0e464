package query

import (
	"testing"

	"github.com/npillmayer/glyf/internal/fontload"
	"github.com/npillmayer/glyf/sfnt"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Preparation ------------------------------------------------

type InfoTestEnviron struct {
	suite.Suite
	otf *sfnt.Font
}

// listen for 'go test' command --> run test methods
func TestInfoFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.query")
	defer teardown()
	suite.Run(t, new(InfoTestEnviron))
}

// run once, before test suite methods
func (env *InfoTestEnviron) SetupSuite() {
	env.T().Log("Setting up test suite")
	tracing.Select("font.query").SetTraceLevel(tracing.LevelError)
	otf, err := sfnt.Parse(fontload.GoRegular())
	env.Require().NoError(err, "cannot parse Go Regular test font")
	env.otf = otf
	tracing.Select("font.query").SetTraceLevel(tracing.LevelInfo)
}

// run once, after test suite methods
func (env *InfoTestEnviron) TearDownSuite() {
	env.T().Log("Tearing down test suite")
}

// --- Tests -----------------------------------------------------------------

func (env *InfoTestEnviron) TestFontTypeInfo() {
	fti := FontType(env.otf)
	env.Equal("TrueType", fti, "expected font type of test font to be TrueType")
}

func (env *InfoTestEnviron) TestGeneralInfo() {
	info := NameInfo(env.otf)
	env.T().Logf("info = %v", info)
	fam, ok := info["family"]
	env.Require().True(ok, "font family identifier not found in font info")
	env.Contains(fam, "Go", "expected the family name to mention Go")
}

func (env *InfoTestEnviron) TestFontMetrics() {
	metrics := FontMetrics(env.otf)
	env.NotZero(metrics.UnitsPerEm, "expected a units-per-em value")
	env.Greater(int(metrics.Ascent), 0, "expected a positive ascender")
	env.Less(int(metrics.Descent), 0, "expected a negative descender")
	env.Greater(int(metrics.MaxAdvance), 0, "expected a maximum advance width")
}

func (env *InfoTestEnviron) TestGlyphMetrics() {
	gid := GlyphIndex(env.otf, 'A')
	env.Require().NotZero(gid, "expected 'A' to be mapped")
	metrics := GlyphMetrics(env.otf, gid)
	env.Greater(int(metrics.Advance), 0, "expected a positive advance width")
	env.False(metrics.BBox.Empty(), "expected a non-empty bounding box for 'A'")
	env.Equal(metrics.Advance-(metrics.LSB+metrics.BBox.Dx()), metrics.RSB,
		"right side bearing inconsistent with advance and bbox")
}

func (env *InfoTestEnviron) TestGlyphMetricsEmptyGlyph() {
	gid := GlyphIndex(env.otf, ' ')
	env.Require().NotZero(gid, "expected the space character to be mapped")
	metrics := GlyphMetrics(env.otf, gid)
	env.Greater(int(metrics.Advance), 0, "expected the space to have an advance width")
	env.True(metrics.BBox.Empty(), "expected an empty bounding box for the space glyph")
	env.Zero(metrics.RSB, "expected RSB to stay unset for an empty bbox")
}

func (env *InfoTestEnviron) TestCodePointRoundTrip() {
	gid := GlyphIndex(env.otf, 'A')
	env.Require().NotZero(gid)
	env.Equal('A', CodePointForGlyph(env.otf, gid),
		"expected the reverse lookup to find 'A' again")
}

func (env *InfoTestEnviron) TestHeadInfo() {
	info, ok := HeadInfo(env.otf)
	env.Require().True(ok, "expected a decodable head table")
	env.EqualValues(0x5F0F3CF5, info.MagicNumber, "head magic number")
	env.EqualValues(env.otf.UnitsPerEm(), info.UnitsPerEm)
}

func (env *InfoTestEnviron) TestMaxPInfo() {
	info, ok := MaxPInfo(env.otf)
	env.Require().True(ok, "expected a decodable maxp table")
	env.EqualValues(env.otf.NumGlyphs(), info.NumGlyphs)
	env.True(info.HasExtendedProfile, "expected a version 1.0 maxp in a TrueType font")
}
