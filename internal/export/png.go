/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"redline/internal/domain"
	"redline/internal/render"
	"redline/internal/storage"
	"redline/internal/vector"
)

// PNGOptions controls raster export behavior.
// - DPI: output resolution; default 150
// - Pages: 0-indexed page selection; if empty, export all annotated pages
// - Transparent: skip the white background so the overlay can be composited
type PNGOptions struct {
	PageWidthPt  float64 // default US Letter 612
	PageHeightPt float64 // default US Letter 792
	DPI          int
	Pages        []int
	Transparent  bool
}

// bezierSteps is the flattening resolution for curve segments.
const bezierSteps = 16

// ExportPNGPages rasterizes each annotated page into a separate PNG file
// under outDir, named <document>-page-<n>.png with a 1-indexed page number.
func ExportPNGPages(h *storage.SetHandle, outDir string, opt PNGOptions) error {
	if h == nil {
		return fmt.Errorf("annotation set handle is nil")
	}
	if opt.PageWidthPt <= 0 {
		opt.PageWidthPt = 612
	}
	if opt.PageHeightPt <= 0 {
		opt.PageHeightPt = 792
	}
	dpi := opt.DPI
	if dpi <= 0 {
		dpi = 150
	}
	scale := float64(dpi) / 72.0
	pixW := int(math.Round(opt.PageWidthPt * scale))
	pixH := int(math.Round(opt.PageHeightPt * scale))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(h.DocumentPath), filepath.Ext(h.DocumentPath))

	vp := vector.Viewport{PageWidth: opt.PageWidthPt, PageHeight: opt.PageHeightPt, Zoom: scale}
	for _, pidx := range exportPages(h, opt.Pages) {
		img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
		if !opt.Transparent {
			draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)
		}
		for _, m := range h.Set.Markups {
			if m.PageIndex != pidx {
				continue
			}
			frame := render.Render(m, vp, render.Flags{})
			rasterFrame(img, frame)
		}

		name := filepath.Join(outDir, fmt.Sprintf("%s-page-%d.png", base, pidx+1))
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create png: %w", err)
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode png: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close png: %w", err)
		}
	}
	return nil
}

func rasterFrame(img *image.RGBA, frame render.Frame) {
	for _, ins := range frame.Shapes {
		subs := flattenPath(ins.Path)
		if ins.Fill != nil {
			fc := toRGBA(*ins.Fill, ins.FillOpacity)
			for _, sub := range subs {
				fillPolygon(img, sub, fc)
			}
		}
		if ins.StrokeWidth > 0 {
			sc := toRGBA(ins.Stroke, ins.StrokeOpacity)
			// Dash patterns are kept in the vector surfaces; the raster
			// overlay draws solid strokes.
			for _, sub := range subs {
				strokePolyline(img, sub, ins.StrokeWidth, sc)
			}
		}
	}
	// Text runs are not rasterized; raster export is a geometry overlay and
	// text stays legible in the vector PDF surface.
}

// flattenPath converts path commands into polyline subpaths, subdividing
// bezier segments.
func flattenPath(p vector.Path) [][]vector.Pt {
	var subs [][]vector.Pt
	var cur []vector.Pt
	var start vector.Pt
	pos := vector.Pt{}
	flush := func() {
		if len(cur) > 1 {
			subs = append(subs, cur)
		}
		cur = nil
	}
	for _, c := range p.Cmds {
		switch c.Op {
		case vector.MoveTo:
			flush()
			pos = vector.Pt{X: c.Data[0], Y: c.Data[1]}
			start = pos
			cur = []vector.Pt{pos}
		case vector.LineTo:
			pos = vector.Pt{X: c.Data[0], Y: c.Data[1]}
			cur = append(cur, pos)
		case vector.QuadTo:
			ctrl := vector.Pt{X: c.Data[0], Y: c.Data[1]}
			end := vector.Pt{X: c.Data[2], Y: c.Data[3]}
			for i := 1; i <= bezierSteps; i++ {
				t := float64(i) / bezierSteps
				u := 1 - t
				cur = append(cur, vector.Pt{
					X: u*u*pos.X + 2*u*t*ctrl.X + t*t*end.X,
					Y: u*u*pos.Y + 2*u*t*ctrl.Y + t*t*end.Y,
				})
			}
			pos = end
		case vector.CubicTo:
			c1 := vector.Pt{X: c.Data[0], Y: c.Data[1]}
			c2 := vector.Pt{X: c.Data[2], Y: c.Data[3]}
			end := vector.Pt{X: c.Data[4], Y: c.Data[5]}
			for i := 1; i <= bezierSteps; i++ {
				t := float64(i) / bezierSteps
				u := 1 - t
				cur = append(cur, vector.Pt{
					X: u*u*u*pos.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*end.X,
					Y: u*u*u*pos.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*end.Y,
				})
			}
			pos = end
		case vector.Close:
			cur = append(cur, start)
			pos = start
		}
	}
	flush()
	return subs
}

func toRGBA(c domain.Color, opacity float64) color.RGBA {
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	a := float64(c.A) * opacity
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(a))}
}

// blend draws col over the pixel with source-over alpha.
func blend(img *image.RGBA, x, y int, col color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	if col.A == 255 {
		img.SetRGBA(x, y, col)
		return
	}
	dst := img.RGBAAt(x, y)
	sa := float64(col.A) / 255
	da := float64(dst.A) / 255
	outA := sa + da*(1-sa)
	if outA == 0 {
		img.SetRGBA(x, y, color.RGBA{})
		return
	}
	mix := func(s, d uint8) uint8 {
		v := (float64(s)*sa + float64(d)*da*(1-sa)) / outA
		return uint8(math.Round(v))
	}
	img.SetRGBA(x, y, color.RGBA{
		R: mix(col.R, dst.R),
		G: mix(col.G, dst.G),
		B: mix(col.B, dst.B),
		A: uint8(math.Round(outA * 255)),
	})
}

// strokePolyline draws each segment with a square brush of the stroke width.
func strokePolyline(img *image.RGBA, pts []vector.Pt, width float64, col color.RGBA) {
	r := int(math.Max(0, math.Round(width/2-0.5)))
	stamp := func(cx, cy int) {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				blend(img, cx+dx, cy+dy, col)
			}
		}
	}
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
		if steps == 0 {
			stamp(int(math.Round(a.X)), int(math.Round(a.Y)))
			continue
		}
		for s := 0; s <= steps; s++ {
			t := float64(s) / float64(steps)
			stamp(int(math.Round(a.X+(b.X-a.X)*t)), int(math.Round(a.Y+(b.Y-a.Y)*t)))
		}
	}
}

// fillPolygon fills a closed polygon with even-odd scanline coverage.
func fillPolygon(img *image.RGBA, pts []vector.Pt, col color.RGBA) {
	if len(pts) < 3 {
		return
	}
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	y0 := int(math.Floor(minY))
	y1 := int(math.Ceil(maxY))
	for y := y0; y <= y1; y++ {
		fy := float64(y) + 0.5
		var xs []float64
		for i := 0; i < len(pts); i++ {
			a := pts[i]
			b := pts[(i+1)%len(pts)]
			if (a.Y <= fy && b.Y > fy) || (b.Y <= fy && a.Y > fy) {
				t := (fy - a.Y) / (b.Y - a.Y)
				xs = append(xs, a.X+(b.X-a.X)*t)
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			for x := int(math.Ceil(xs[i] - 0.5)); float64(x)+0.5 <= xs[i+1]; x++ {
				blend(img, x, y, col)
			}
		}
	}
}
