package main

import (
	"strings"

	"github.com/pterm/pterm"
)

func helpOp(intp *Intp, op *Op) (error, bool) {
	help(op.arg)
	return nil, false
}

func help(topic string) {
	tracer().Infof("help %v", topic)
	t := strings.ToLower(topic)
	switch t {
	case "glyph", "glyf":
		pterm.Info.Println("glyph:<gid>")
		pterm.Println(`
	Decodes the outline of a glyph and prints it.
	Simple glyphs list their contours as sequences of points:
	(x,y) is an on-curve point, [x,y] an off-curve control point.
	Composite glyphs list their child components with offset and
	transform. Glyph 0 is the '.notdef' placeholder.
	`)
	case "char":
		pterm.Info.Println("char:<c>")
		pterm.Println(`
	Looks up the glyph for a character in the font's 'cmap' table
	and prints it. The argument is a literal character (char:A) or
	a hexadecimal codepoint (char:0x20AC, char:U+20AC).
	A codepoint the font does not cover maps to glyph 0.
	`)
	case "checksum", "checksums":
		pterm.Info.Println("checksums")
		pterm.Println(`
	Reports the checksum mismatches found while parsing the font.
	Each table record declares a checksum over its table bytes, and
	the 'head' table declares an adjustment covering the whole file.
	Mismatches are warnings; start with -strict to reject such fonts.
	`)
	case "table", "tables":
		pterm.Info.Println("tables / table:<tag>")
		pterm.Println(`
	'tables' lists all table records of the font's directory:
	+-----+--------+--------+----------+
	| Tag | Offset | Length | Checksum |
	+-----+--------+--------+----------+
	'table:<tag>' shows a single record plus the leading bytes of
	the table's data.
	`)
	case "render":
		pterm.Info.Println("render:<gid> / render:<gid>:<file.png>")
		pterm.Println(`
	Rasterizes a glyph outline into a PNG image. Composites are
	flattened through their component transforms. The output file
	defaults to glyph-<gid>.png in the current directory.
	`)
	case "metrics":
		pterm.Info.Println("metrics:<gid>")
		pterm.Println(`
	Prints advance width, side bearings and bounding box of a glyph.
	Metrics come from 'hmtx', the bounding box from the decoded
	outline.
	`)
	default:
		pterm.Info.Println("Commands")
		pterm.Println(`
	tables          list the font's table directory
	table:<tag>     show a single table record
	checksums       report checksum mismatches
	info            general font information
	names           entries of the 'name' table
	glyph:<gid>     decode and print a glyph outline
	char:<c>        look up a character and print its glyph
	metrics:<gid>   metrics of a glyph
	render:<gid>    rasterize a glyph into a PNG file
	help:<command>  detailed help
	quit            leave (or <ctrl>D)
	`)
	}
}
