package sfnt

import (
	"fmt"
	"runtime"
	"sync"
)

// --- Decoded glyph model ---------------------------------------------------

// GlyphKind discriminates the three states a decoded glyph can be in.
// The set is closed by the file format; clients dispatch with a switch.
type GlyphKind int

const (
	// GlyphEmpty is a glyph without outline data (loca[i] == loca[i+1]).
	// Whitespace glyphs look like this; it is a valid state, not an error.
	GlyphEmpty GlyphKind = iota
	// GlyphSimple is a glyph defined by its own quadratic contours.
	GlyphSimple
	// GlyphComposite is a glyph assembled from transformed child glyphs.
	GlyphComposite
)

func (k GlyphKind) String() string {
	switch k {
	case GlyphEmpty:
		return "Empty"
	case GlyphSimple:
		return "Simple"
	case GlyphComposite:
		return "Composite"
	}
	return fmt.Sprintf("GlyphKind(%d)", int(k))
}

// Point is one outline point in font units. On-curve points are contour
// vertices; off-curve points are quadratic Bézier control points.
type Point struct {
	X, Y    int16
	OnCurve bool
}

// Contour is a closed outline loop. Consecutive off-curve points have
// already been resolved by an inserted on-curve midpoint, so a contour
// alternates at most one control point between vertices.
type Contour []Point

// SimpleGlyph holds the decoded contours of a non-composite glyph.
type SimpleGlyph struct {
	Contours     []Contour
	Instructions []byte // raw hinting program, not interpreted here
}

// PointCount returns the total number of points over all contours,
// including inserted midpoints.
func (sg *SimpleGlyph) PointCount() int {
	if sg == nil {
		return 0
	}
	n := 0
	for _, c := range sg.Contours {
		n += len(c)
	}
	return n
}

// CompositeComponent is one child reference of a composite glyph: which
// glyph to place, where, and under which affine transform.
//
// Positioning is either an explicit (DX, DY) offset in font units or
// point-matching, where an anchor point of the assembled parent is aligned
// with a point of the child. Point-matching placement is recorded but not
// resolved to an offset, as it needs the assembled geometry of both sides.
type CompositeComponent struct {
	GlyphID GlyphIndex
	Flags   CompositeFlag

	DX, DY int16 // explicit offset, valid when Flags has ArgsAreXYValues

	ParentPoint uint16 // anchor point indices otherwise
	ChildPoint  uint16

	// 2x2 transform in row-major order, applied to the child's points:
	//   x' = XScale*x + Scale10*y
	//   y' = Scale01*x + YScale*y
	XScale, Scale01, Scale10, YScale float64
}

// Transform reports the component's 2x2 matrix.
func (c CompositeComponent) Transform() (xx, xy, yx, yy float64) {
	return c.XScale, c.Scale01, c.Scale10, c.YScale
}

// HasExplicitOffset reports whether the component is positioned by a
// (DX, DY) translation rather than by point-matching.
func (c CompositeComponent) HasExplicitOffset() bool {
	return c.Flags&ArgsAreXYValues != 0
}

// CompositeFlag is the per-component flag word of a composite glyph.
type CompositeFlag uint16

// Composite glyph component flags.
const (
	Arg1And2AreWords     CompositeFlag = 0x0001 // args are 16-bit, bytes otherwise
	ArgsAreXYValues      CompositeFlag = 0x0002 // args are an offset, point indices otherwise
	RoundXYToGrid        CompositeFlag = 0x0004
	WeHaveAScale         CompositeFlag = 0x0008 // uniform scale follows
	MoreComponents       CompositeFlag = 0x0020 // at least one more component after this one
	WeHaveAnXAndYScale   CompositeFlag = 0x0040 // independent x and y scale follow
	WeHaveATwoByTwo      CompositeFlag = 0x0080 // full 2x2 matrix follows
	WeHaveInstructions   CompositeFlag = 0x0100 // hinting program trails the component list
	UseMyMetrics         CompositeFlag = 0x0200
	OverlapCompound      CompositeFlag = 0x0400
	ScaledComponentOff   CompositeFlag = 0x0800
	UnscaledComponentOff CompositeFlag = 0x1000
)

// Glyph is a decoded glyph outline. Exactly one of the variants applies,
// selected by Kind: an empty glyph carries neither contours nor components,
// a simple glyph carries Simple, a composite carries Components.
//
// Glyphs are immutable once published and may be shared across goroutines.
type Glyph struct {
	GID  GlyphIndex
	Kind GlyphKind

	XMin, YMin int16 // bounding box as declared in the glyph header
	XMax, YMax int16

	Simple     *SimpleGlyph         // Kind == GlyphSimple
	Components []CompositeComponent // Kind == GlyphComposite

	Instructions []byte // composite-level hinting program, if present
}

// --- Glyph cache -----------------------------------------------------------

// glyphCache guarantees at-most-once decoding per glyph id under concurrent
// access, mirroring tableCache. Composite child resolution deliberately does
// not go through the cache: a decode running inside a once-guarded entry must
// not wait on another entry, or two glyphs referencing each other would
// deadlock before cycle detection ever sees them.
type glyphCacheEntry struct {
	once sync.Once
	g    *Glyph
	err  error
}

type glyphCache struct {
	mu sync.Mutex
	m  map[GlyphIndex]*glyphCacheEntry
}

func (c *glyphCache) entry(gid GlyphIndex) *glyphCacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = make(map[GlyphIndex]*glyphCacheEntry)
	}
	e, ok := c.m[gid]
	if !ok {
		e = &glyphCacheEntry{}
		c.m[gid] = e
	}
	return e
}

// --- Decoding facade -------------------------------------------------------

// Glyph decodes the outline of a glyph, at most once per glyph id; repeated
// and concurrent calls for the same id receive the same published result.
//
// Errors are local to the glyph: an out-of-range id, truncated data or a
// cyclic composite fails this call only and leaves the font usable.
func (otf *Font) Glyph(gid GlyphIndex) (*Glyph, error) {
	e := otf.glyphs.entry(gid)
	e.once.Do(func() {
		dec, err := otf.newGlyphDecoder()
		if err != nil {
			e.err = err
			return
		}
		e.g, e.err = dec.decode(gid, 0)
	})
	return e.g, e.err
}

// Glyphs decodes a batch of glyph ids. With ParallelDecode configured the
// decodes run concurrently on a bounded worker pool; distinct glyph ids
// touch disjoint byte ranges, so the only shared state is the cache.
// Results are returned in input order; the first error per slot is kept.
func (otf *Font) Glyphs(gids []GlyphIndex) ([]*Glyph, []error) {
	glyphs := make([]*Glyph, len(gids))
	errs := make([]error, len(gids))
	if !otf.cfg.parallel || len(gids) < 2 {
		for i, gid := range gids {
			glyphs[i], errs[i] = otf.Glyph(gid)
		}
		return glyphs, errs
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > len(gids) {
		workers = len(gids)
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				glyphs[i], errs[i] = otf.Glyph(gids[i])
			}
		}()
	}
	for i := range gids {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return glyphs, errs
}

// --- Decoder ---------------------------------------------------------------

// glyphDecoder carries the table views and recursion state of one decode
// call chain. Cycle detection is explicit state: the set of glyph ids on
// the active resolution stack, not a depth counter alone, since a depth
// limit can miss a short cycle revisited within the limit.
type glyphDecoder struct {
	loca     *LocaTable
	glyf     *GlyfTable
	maxDepth int
	active   map[GlyphIndex]bool // glyph ids on the current decode stack
}

func (otf *Font) newGlyphDecoder() (*glyphDecoder, error) {
	loca, err := otf.loca()
	if err != nil {
		return nil, err
	}
	glyf, err := otf.glyf()
	if err != nil {
		return nil, err
	}
	return &glyphDecoder{
		loca:     loca,
		glyf:     glyf,
		maxDepth: otf.cfg.maxCompositeDepth,
		active:   make(map[GlyphIndex]bool),
	}, nil
}

func (dec *glyphDecoder) decode(gid GlyphIndex, depth int) (*Glyph, error) {
	start, end, err := dec.loca.GlyphRange(gid)
	if err != nil {
		return nil, err
	}
	if start == end {
		return &Glyph{GID: gid, Kind: GlyphEmpty}, nil
	}
	b, err := dec.glyf.data.view(int(start), int(end-start))
	if err != nil {
		return nil, glyphError(gid, int(start), ErrTruncatedGlyph)
	}
	g := &Glyph{GID: gid}
	nContours, err := b.i16(0)
	if err != nil {
		return nil, glyphError(gid, 0, ErrTruncatedGlyph)
	}
	if g.XMin, err = b.i16(2); err != nil {
		return nil, glyphError(gid, 2, ErrTruncatedGlyph)
	}
	g.YMin, _ = b.i16(4)
	g.XMax, _ = b.i16(6)
	g.YMax, _ = b.i16(8)
	if nContours >= 0 {
		g.Kind = GlyphSimple
		g.Simple, err = decodeSimple(gid, b, int(nContours))
		return g, err
	}
	g.Kind = GlyphComposite
	dec.active[gid] = true
	defer delete(dec.active, gid)
	g.Components, g.Instructions, err = dec.decodeComposite(gid, b, depth)
	return g, err
}

// --- Simple glyphs ---------------------------------------------------------

// Flags of the per-point flag stream of a simple glyph.
const (
	flagOnCurve         = 0x01
	flagXShort          = 0x02 // x delta is a single byte
	flagYShort          = 0x04
	flagRepeat          = 0x08 // next byte repeats this flag
	flagXSameOrPositive = 0x10 // short: positive sign; long: delta omitted
	flagYSameOrPositive = 0x20
)

func decodeSimple(gid GlyphIndex, b binarySegm, nContours int) (*SimpleGlyph, error) {
	sg := &SimpleGlyph{}
	if nContours == 0 {
		return sg, nil
	}
	// end-point indices, one per contour, must be ascending
	off := 10
	ends := make([]int, nContours)
	for i := 0; i < nContours; i++ {
		e, err := b.u16(off)
		if err != nil {
			return nil, glyphError(gid, off, ErrTruncatedGlyph)
		}
		if i > 0 && int(e) < ends[i-1] {
			return nil, glyphError(gid, off, errFontFormat("contour end points not ascending"))
		}
		ends[i] = int(e)
		off += 2
	}
	nPoints := ends[nContours-1] + 1

	instrLen, err := b.u16(off)
	if err != nil {
		return nil, glyphError(gid, off, ErrTruncatedGlyph)
	}
	off += 2
	if sg.Instructions, err = b.view(off, int(instrLen)); err != nil {
		return nil, glyphError(gid, off, ErrTruncatedGlyph)
	}
	off += int(instrLen)

	// flag stream, run-length compressed via the repeat flag
	flags := make([]uint8, nPoints)
	for i := 0; i < nPoints; {
		f, err := b.byteAt(off)
		if err != nil {
			return nil, glyphError(gid, off, ErrTruncatedGlyph)
		}
		off++
		flags[i] = f
		i++
		if f&flagRepeat != 0 {
			n, err := b.byteAt(off)
			if err != nil {
				return nil, glyphError(gid, off, ErrTruncatedGlyph)
			}
			off++
			for ; n > 0 && i < nPoints; n-- {
				flags[i] = f
				i++
			}
		}
	}

	// coordinate streams: deltas accumulate into absolute positions
	xs := make([]int16, nPoints)
	off, err = decodeCoords(b, off, flags, xs, flagXShort, flagXSameOrPositive)
	if err != nil {
		return nil, glyphError(gid, off, err)
	}
	ys := make([]int16, nPoints)
	if off, err = decodeCoords(b, off, flags, ys, flagYShort, flagYSameOrPositive); err != nil {
		return nil, glyphError(gid, off, err)
	}

	prevEnd := 0
	sg.Contours = make([]Contour, 0, nContours)
	for _, e := range ends {
		contour := make(Contour, 0, e-prevEnd+1)
		for i := prevEnd; i <= e; i++ {
			contour = append(contour, Point{X: xs[i], Y: ys[i], OnCurve: flags[i]&flagOnCurve != 0})
		}
		sg.Contours = append(sg.Contours, insertImpliedPoints(contour))
		prevEnd = e + 1
	}
	return sg, nil
}

func decodeCoords(b binarySegm, off int, flags []uint8, coords []int16, shortBit, sameBit uint8) (int, error) {
	v := int16(0)
	for i, f := range flags {
		switch {
		case f&shortBit != 0:
			d, err := b.byteAt(off)
			if err != nil {
				return off, ErrTruncatedGlyph
			}
			off++
			if f&sameBit != 0 {
				v += int16(d)
			} else {
				v -= int16(d)
			}
		case f&sameBit == 0:
			d, err := b.i16(off)
			if err != nil {
				return off, ErrTruncatedGlyph
			}
			off += 2
			v += d
		}
		// sameBit set with shortBit clear: delta is zero
		coords[i] = v
	}
	return off, nil
}

// insertImpliedPoints resolves each pair of consecutive off-curve points,
// wrapping around the contour end, by inserting an on-curve point at their
// arithmetic midpoint. The result alternates control points and vertices
// the way the quadratic spline convention expects.
func insertImpliedPoints(contour Contour) Contour {
	n := len(contour)
	if n == 0 {
		return contour
	}
	out := make(Contour, 0, n)
	for i := 0; i < n; i++ {
		p, q := contour[i], contour[(i+1)%n]
		out = append(out, p)
		if !p.OnCurve && !q.OnCurve {
			out = append(out, Point{
				X:       int16((int(p.X) + int(q.X)) / 2),
				Y:       int16((int(p.Y) + int(q.Y)) / 2),
				OnCurve: true,
			})
		}
	}
	return out
}

// --- Composite glyphs ------------------------------------------------------

// decodeComposite reads the component list and resolves every child through
// the locator, so that a cyclic or overly deep composition fails closed here
// instead of looping at render time. Child decodes run on this decoder's
// recursion state and never touch the glyph cache.
func (dec *glyphDecoder) decodeComposite(gid GlyphIndex, b binarySegm, depth int) ([]CompositeComponent, []byte, error) {
	var components []CompositeComponent
	var haveInstructions bool
	off := 10
	for {
		rawFlags, err := b.u16(off)
		if err != nil {
			return nil, nil, glyphError(gid, off, ErrTruncatedGlyph)
		}
		flags := CompositeFlag(rawFlags)
		child, err := b.u16(off + 2)
		if err != nil {
			return nil, nil, glyphError(gid, off+2, ErrTruncatedGlyph)
		}
		off += 4
		comp := CompositeComponent{
			GlyphID: GlyphIndex(child),
			Flags:   flags,
			XScale:  1, YScale: 1,
		}
		if off, err = comp.readArgs(b, off); err != nil {
			return nil, nil, glyphError(gid, off, err)
		}
		if off, err = comp.readTransform(b, off); err != nil {
			return nil, nil, glyphError(gid, off, err)
		}
		if dec.active[comp.GlyphID] {
			return nil, nil, glyphError(gid, off, ErrCompositeCycle)
		}
		if depth+1 > dec.maxDepth {
			return nil, nil, glyphError(gid, off, ErrCompositeDepth)
		}
		if _, err = dec.decode(comp.GlyphID, depth+1); err != nil {
			return nil, nil, err
		}
		components = append(components, comp)
		haveInstructions = haveInstructions || flags&WeHaveInstructions != 0
		if flags&MoreComponents == 0 {
			break
		}
	}
	var instructions []byte
	if haveInstructions {
		n, err := b.u16(off)
		if err != nil {
			return nil, nil, glyphError(gid, off, ErrTruncatedGlyph)
		}
		off += 2
		if instructions, err = b.view(off, int(n)); err != nil {
			return nil, nil, glyphError(gid, off, ErrTruncatedGlyph)
		}
	}
	return components, instructions, nil
}

func (c *CompositeComponent) readArgs(b binarySegm, off int) (int, error) {
	if c.Flags&Arg1And2AreWords != 0 {
		a1, err := b.i16(off)
		if err != nil {
			return off, ErrTruncatedGlyph
		}
		a2, err := b.i16(off + 2)
		if err != nil {
			return off, ErrTruncatedGlyph
		}
		off += 4
		if c.Flags&ArgsAreXYValues != 0 {
			c.DX, c.DY = a1, a2
		} else {
			c.ParentPoint, c.ChildPoint = uint16(a1), uint16(a2)
		}
		return off, nil
	}
	a1, err := b.byteAt(off)
	if err != nil {
		return off, ErrTruncatedGlyph
	}
	a2, err := b.byteAt(off + 1)
	if err != nil {
		return off, ErrTruncatedGlyph
	}
	off += 2
	if c.Flags&ArgsAreXYValues != 0 {
		c.DX, c.DY = int16(int8(a1)), int16(int8(a2))
	} else {
		c.ParentPoint, c.ChildPoint = uint16(a1), uint16(a2)
	}
	return off, nil
}

func (c *CompositeComponent) readTransform(b binarySegm, off int) (int, error) {
	f2dot14 := func(at int) (float64, error) {
		v, err := b.i16(at)
		if err != nil {
			return 0, ErrTruncatedGlyph
		}
		return float64(v) / 16384, nil
	}
	var err error
	switch {
	case c.Flags&WeHaveAScale != 0:
		if c.XScale, err = f2dot14(off); err != nil {
			return off, err
		}
		c.YScale = c.XScale
		off += 2
	case c.Flags&WeHaveAnXAndYScale != 0:
		if c.XScale, err = f2dot14(off); err != nil {
			return off, err
		}
		if c.YScale, err = f2dot14(off + 2); err != nil {
			return off, err
		}
		off += 4
	case c.Flags&WeHaveATwoByTwo != 0:
		if c.XScale, err = f2dot14(off); err != nil {
			return off, err
		}
		if c.Scale01, err = f2dot14(off + 2); err != nil {
			return off, err
		}
		if c.Scale10, err = f2dot14(off + 4); err != nil {
			return off, err
		}
		if c.YScale, err = f2dot14(off + 6); err != nil {
			return off, err
		}
		off += 8
	}
	return off, nil
}
