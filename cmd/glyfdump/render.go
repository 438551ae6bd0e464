package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/npillmayer/glyf/sfnt"
	"github.com/pterm/pterm"
	"golang.org/x/image/vector"
)

const renderSize = 256   // canvas is square
const renderMargin = 16  // pixels around the glyph
const renderMaxDepth = 8 // composite nesting cap while flattening

func renderOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkFont(); err != nil {
		return
	}
	arg, ok := op.hasArg()
	if !ok {
		return errors.New("usage: render:<gid> or render:<gid>:<file.png>"), false
	}
	gid, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("glyph index not numeric: %v", arg), false
	}
	g, err := intp.font.Glyph(sfnt.GlyphIndex(gid))
	if err != nil {
		return err, false
	}
	if g.Kind == sfnt.GlyphEmpty {
		return fmt.Errorf("glyph %d has no outline", gid), false
	}
	outPath := op.format
	if outPath == "" {
		outPath = fmt.Sprintf("glyph-%d.png", gid)
	}
	if err = renderGlyphPNG(intp.font, g, outPath); err != nil {
		return err, false
	}
	pterm.Printf("wrote %s (glyph %d)\n", outPath, gid)
	return nil, false
}

func renderGlyphPNG(otf *sfnt.Font, g *sfnt.Glyph, outPath string) error {
	width, height := renderSize, renderSize
	dx, dy := float32(g.XMax-g.XMin), float32(g.YMax-g.YMin)
	if dx <= 0 || dy <= 0 {
		return errors.New("glyph has an empty bounding box")
	}
	extent := dx
	if dy > extent {
		extent = dy
	}
	scale := float32(renderSize-2*renderMargin) / extent
	// center the glyph bbox; image Y grows downward
	tx := float32(width)/2 - scale*(float32(g.XMin)+dx/2)
	ty := float32(height)/2 + scale*(float32(g.YMin)+dy/2)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{255, 255, 255, 255}), image.Point{}, draw.Src)

	rast := vector.NewRasterizer(width, height)
	rast.DrawOp = draw.Over
	base := affine{xx: scale, yy: -scale, dx: tx, dy: ty}
	if err := emitGlyph(rast, otf, g, base, 0); err != nil {
		return err
	}
	rast.Draw(img, img.Bounds(), image.Black, image.Point{})

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("cannot encode png: %w", err)
	}
	return nil
}

// affine maps glyph coordinates to canvas coordinates.
type affine struct {
	xx, xy, yx, yy float32
	dx, dy         float32
}

func (a affine) apply(x, y int16) (float32, float32) {
	fx, fy := float32(x), float32(y)
	return a.xx*fx + a.yx*fy + a.dx, a.xy*fx + a.yy*fy + a.dy
}

// compose returns a transform equivalent to applying c first, then a.
func (a affine) compose(c affine) affine {
	return affine{
		xx: a.xx*c.xx + a.yx*c.xy,
		xy: a.xy*c.xx + a.yy*c.xy,
		yx: a.xx*c.yx + a.yx*c.yy,
		yy: a.xy*c.yx + a.yy*c.yy,
		dx: a.xx*c.dx + a.yx*c.dy + a.dx,
		dy: a.xy*c.dx + a.yy*c.dy + a.dy,
	}
}

func emitGlyph(rast *vector.Rasterizer, otf *sfnt.Font, g *sfnt.Glyph, a affine, depth int) error {
	switch g.Kind {
	case sfnt.GlyphSimple:
		for _, contour := range g.Simple.Contours {
			emitContour(rast, contour, a)
		}
	case sfnt.GlyphComposite:
		if depth >= renderMaxDepth {
			return fmt.Errorf("glyph %d: composite nesting too deep to render", g.GID)
		}
		for _, c := range g.Components {
			xx, xy, yx, yy := c.Transform()
			child := a.compose(affine{
				xx: float32(xx), xy: float32(xy),
				yx: float32(yx), yy: float32(yy),
				dx: float32(c.DX), dy: float32(c.DY),
			})
			cg, err := otf.Glyph(c.GlyphID)
			if err != nil {
				return err
			}
			if err := emitGlyph(rast, otf, cg, child, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func emitContour(rast *vector.Rasterizer, contour sfnt.Contour, a affine) {
	n := len(contour)
	if n < 2 {
		return
	}
	s := -1
	for i, p := range contour {
		if p.OnCurve {
			s = i
			break
		}
	}
	if s < 0 {
		return
	}
	sx, sy := a.apply(contour[s].X, contour[s].Y)
	rast.MoveTo(sx, sy)
	var cx, cy float32
	hasCtrl := false
	for i := 1; i < n; i++ {
		p := contour[(s+i)%n]
		px, py := a.apply(p.X, p.Y)
		if p.OnCurve {
			if hasCtrl {
				rast.QuadTo(cx, cy, px, py)
				hasCtrl = false
			} else {
				rast.LineTo(px, py)
			}
		} else {
			// decoded contours never hold two adjacent off-curve points
			cx, cy = px, py
			hasCtrl = true
		}
	}
	if hasCtrl {
		rast.QuadTo(cx, cy, sx, sy)
	} else {
		rast.ClosePath()
	}
}
