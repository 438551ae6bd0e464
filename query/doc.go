/*
Package query provides font metadata queries on top of package sfnt.

The queries in this package are read-only convenience views: font and glyph
metrics, name table entries, and typed decodings of the 'head' and 'maxp'
tables. They operate on a parsed sfnt.Font and never mutate it.

# Status

This package does not query the advanced layout tables (GSUB, GPOS); it is
restricted to the tables the core parser interprets, plus 'name'.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2024 Norbert Pillmayer <norbert@pillmayer.com>
*/
package query

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'font.query'.
func tracer() tracing.Trace {
	return tracing.Select("font.query")
}
