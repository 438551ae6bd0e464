package sfnt

// Options to guide the parsing process and subsequent glyph decoding.
// They are recognized by Parse and are fixed for the lifetime of the Font.

// DefaultMaxCompositeDepth bounds the nesting of composite glyph components
// unless overridden with MaxCompositeDepth. Real-world fonts rarely nest
// deeper than 2 or 3 levels.
const DefaultMaxCompositeDepth = 8

// Option configures a Font during Parse.
type Option func(*config)

type config struct {
	strictChecksums   bool
	maxCompositeDepth int
	parallel          bool
}

func defaultConfig() config {
	return config{
		maxCompositeDepth: DefaultMaxCompositeDepth,
	}
}

// StrictChecksums turns checksum mismatches from warnings into a hard error
// at parse time. Without it, mismatches are collected and are available
// through Font.ChecksumWarnings.
func StrictChecksums() Option {
	return func(cfg *config) {
		cfg.strictChecksums = true
	}
}

// MaxCompositeDepth overrides the composite glyph nesting limit. Values
// below 1 are ignored. Note that cycle detection is independent of this
// limit: a component chain revisiting a glyph fails with ErrCompositeCycle
// no matter how generous the depth budget is.
func MaxCompositeDepth(n int) Option {
	return func(cfg *config) {
		if n >= 1 {
			cfg.maxCompositeDepth = n
		}
	}
}

// ParallelDecode lets Font.Glyphs and checksum validation fan out over
// worker goroutines. Decoding distinct glyph ids touches disjoint byte
// ranges, so no synchronization beyond the publish-once caches is needed.
func ParallelDecode() Option {
	return func(cfg *config) {
		cfg.parallel = true
	}
}
