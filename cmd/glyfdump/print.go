package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/npillmayer/glyf/query"
	"github.com/npillmayer/glyf/sfnt"
	"github.com/pterm/pterm"
)

var ERR_NO_FONT = errors.New("no font loaded")

func (intp *Intp) checkFont() error {
	if intp.font == nil {
		return ERR_NO_FONT
	}
	return nil
}

func tablesOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkFont(); err != nil {
		return
	}
	data := [][]string{
		{"Tag", "Offset", "Length", "Checksum"},
	}
	for _, tag := range intp.font.TableTags() {
		rec, _ := intp.font.TableRecord(tag)
		data = append(data, []string{
			tag.String(),
			fmt.Sprintf("%d", rec.Offset),
			fmt.Sprintf("%d", rec.Length),
			fmt.Sprintf("0x%08X", rec.Checksum),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return
}

func tableOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkFont(); err != nil {
		return
	}
	arg, ok := op.hasArg()
	if !ok {
		return errors.New("usage: table:<tag>"), false
	}
	tag := sfnt.T(arg)
	rec, found := intp.font.TableRecord(tag)
	if !found {
		return fmt.Errorf("font has no %s table", tag), false
	}
	pterm.Printf("table %s: offset=%d length=%d checksum=0x%08X\n",
		tag, rec.Offset, rec.Length, rec.Checksum)
	table := intp.font.Table(tag)
	if table == nil {
		pterm.Error.Printf("%s table present but not decodable\n", tag)
		return
	}
	b := table.Binary()
	pterm.Printf("first bytes: % X\n", b[:min(16, len(b))])
	return
}

func checksumsOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkFont(); err != nil {
		return
	}
	mismatches := intp.font.ChecksumWarnings()
	if len(mismatches) == 0 {
		pterm.Info.Println("all checksums verified")
		return
	}
	data := [][]string{
		{"Table", "Offset", "Declared", "Computed"},
	}
	for _, m := range mismatches {
		table := "(file)"
		if m.Table != 0 {
			table = m.Table.String()
		}
		data = append(data, []string{
			table,
			fmt.Sprintf("%d", m.Offset),
			fmt.Sprintf("0x%08X", m.Declared),
			fmt.Sprintf("0x%08X", m.Computed),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return
}

func infoOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkFont(); err != nil {
		return
	}
	pterm.Printf("font type:    %s\n", query.FontType(intp.font))
	pterm.Printf("glyph count:  %d\n", intp.font.NumGlyphs())
	metrics := query.FontMetrics(intp.font)
	pterm.Printf("units per em: %d\n", metrics.UnitsPerEm)
	pterm.Printf("ascent:       %d\n", metrics.Ascent)
	pterm.Printf("descent:      %d\n", metrics.Descent)
	pterm.Printf("line gap:     %d\n", metrics.LineGap)
	pterm.Printf("max advance:  %d\n", metrics.MaxAdvance)
	if head, ok := query.HeadInfo(intp.font); ok {
		pterm.Printf("font bbox:    (%d,%d)-(%d,%d)\n", head.XMin, head.YMin, head.XMax, head.YMax)
		pterm.Printf("loca format:  %d\n", head.IndexToLocFormat)
	}
	if maxp, ok := query.MaxPInfo(intp.font); ok && maxp.HasExtendedProfile {
		pterm.Printf("max points:   %d (contours %d)\n", maxp.MaxPoints, maxp.MaxContours)
		pterm.Printf("max depth:    %d\n", maxp.MaxComponentDepth)
	}
	return
}

func namesOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkFont(); err != nil {
		return
	}
	data := [][]string{
		{"ID", "Value"},
	}
	for id, value := range query.NamesRange(intp.font) {
		data = append(data, []string{
			fmt.Sprintf("%d", id),
			value,
		})
	}
	if len(data) == 1 {
		return errors.New("font carries no readable name entries"), false
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return
}

func glyphOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkFont(); err != nil {
		return
	}
	arg, ok := op.hasArg()
	if !ok {
		return errors.New("usage: glyph:<gid>"), false
	}
	gid, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("glyph index not numeric: %v", arg), false
	}
	printGlyph(intp.font, sfnt.GlyphIndex(gid))
	return nil, false
}

func charOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkFont(); err != nil {
		return
	}
	arg, ok := op.hasArg()
	if !ok {
		return errors.New("usage: char:<c> or char:0x<hex>"), false
	}
	r, err := parseRune(arg)
	if err != nil {
		return err, false
	}
	gid, err := intp.font.GlyphIndexForRune(r)
	if err != nil {
		return err, false
	}
	pterm.Printf("%q (U+%04X) maps to glyph %d\n", r, r, gid)
	if gid == 0 {
		pterm.Info.Println("codepoint is not covered by this font")
		return nil, false
	}
	printGlyph(intp.font, gid)
	return nil, false
}

func metricsOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkFont(); err != nil {
		return
	}
	arg, ok := op.hasArg()
	if !ok {
		return errors.New("usage: metrics:<gid>"), false
	}
	gid, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("glyph index not numeric: %v", arg), false
	}
	m := query.GlyphMetrics(intp.font, sfnt.GlyphIndex(gid))
	pterm.Printf("glyph %d: advance=%d lsb=%d rsb=%d\n", gid, m.Advance, m.LSB, m.RSB)
	if m.BBox.Empty() {
		pterm.Printf("glyph %d has an empty bounding box\n", gid)
	} else {
		pterm.Printf("bbox (%d,%d)-(%d,%d), %d x %d\n",
			m.BBox.MinX, m.BBox.MinY, m.BBox.MaxX, m.BBox.MaxY, m.BBox.Dx(), m.BBox.Dy())
	}
	return nil, false
}

func printGlyph(otf *sfnt.Font, gid sfnt.GlyphIndex) {
	g, err := otf.Glyph(gid)
	if err != nil {
		pterm.Error.Println(err)
		return
	}
	pterm.Printf("glyph %d: %s\n", g.GID, g.Kind)
	if aw, ok := otf.AdvanceWidth(gid); ok {
		pterm.Printf("advance: %d\n", aw)
	}
	switch g.Kind {
	case sfnt.GlyphEmpty:
		pterm.Println("glyph has no outline")
	case sfnt.GlyphSimple:
		pterm.Printf("bbox (%d,%d)-(%d,%d)\n", g.XMin, g.YMin, g.XMax, g.YMax)
		pterm.Printf("%d contours, %d points, %d instruction bytes\n",
			len(g.Simple.Contours), g.Simple.PointCount(), len(g.Simple.Instructions))
		for i, contour := range g.Simple.Contours {
			pterm.Printf("contour %d: %s\n", i, formatContour(contour))
		}
	case sfnt.GlyphComposite:
		pterm.Printf("bbox (%d,%d)-(%d,%d)\n", g.XMin, g.YMin, g.XMax, g.YMax)
		printComponents(g.Components)
		if len(g.Instructions) > 0 {
			pterm.Printf("%d instruction bytes\n", len(g.Instructions))
		}
	}
}

func printComponents(components []sfnt.CompositeComponent) {
	data := [][]string{
		{"Child", "Offset", "Transform"},
	}
	for _, c := range components {
		offset := "point match"
		if c.HasExplicitOffset() {
			offset = fmt.Sprintf("(%d,%d)", c.DX, c.DY)
		}
		xx, xy, yx, yy := c.Transform()
		transform := "identity"
		if xx != 1 || xy != 0 || yx != 0 || yy != 1 {
			transform = fmt.Sprintf("[%g %g %g %g]", xx, xy, yx, yy)
		}
		data = append(data, []string{
			fmt.Sprintf("%d", c.GlyphID),
			offset,
			transform,
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func formatContour(contour sfnt.Contour) string {
	sb := strings.Builder{}
	for i, p := range contour {
		if i > 0 {
			sb.WriteString(" ")
		}
		if p.OnCurve {
			sb.WriteString(fmt.Sprintf("(%d,%d)", p.X, p.Y))
		} else {
			sb.WriteString(fmt.Sprintf("[%d,%d]", p.X, p.Y))
		}
	}
	return sb.String()
}

func parseRune(arg string) (rune, error) {
	if strings.HasPrefix(arg, "0x") || strings.HasPrefix(arg, "0X") || strings.HasPrefix(arg, "U+") {
		n, err := strconv.ParseUint(arg[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid codepoint: %v", arg)
		}
		return rune(n), nil
	}
	r, size := utf8.DecodeRuneInString(arg)
	if r == utf8.RuneError || size != len(arg) {
		return 0, fmt.Errorf("expected a single character, got %q", arg)
	}
	return r, nil
}
