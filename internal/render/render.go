/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"math"

	"redline/internal/domain"
	"redline/internal/vector"
)

const (
	// NoteGlyphPx is the edge length of the note/caret anchor glyph.
	NoteGlyphPx = 18
	// kappa approximates a quarter circle with one cubic bezier.
	kappa = 0.5522847498
	// defaultCloudArc is the scallop chord length as a fraction of page width.
	defaultCloudArc = 0.02

	highlighterOpacity = 0.4
	textSizeFactor     = 12.0 // px at zoom 1
	textInsetPx        = 4
)

// Render produces the draw instructions for one markup at the given
// viewport. Malformed markups yield an empty frame.
func Render(m domain.Markup, vp vector.Viewport, flags Flags) Frame {
	var f Frame
	if !m.Valid() {
		return f
	}
	toPix := displayMapper(m, vp)

	switch g := m.Geometry.(type) {
	case domain.Box:
		renderBox(&f, m, g, vp, toPix)
	case domain.LineSeg:
		renderLineSeg(&f, m, g, vp, toPix)
	case domain.Arc:
		renderArc(&f, m, g, vp, toPix)
	case domain.PointSeq:
		renderPointSeq(&f, m, g, vp, toPix)
	case domain.SinglePoint:
		renderAnchor(&f, m, g, toPix)
	}

	if flags.Selected {
		renderSelection(&f, m, vp, flags.HandlePoints)
	}
	return f
}

// displayMapper composes shape-local rotation (applied in the unrotated
// pixel frame so it stays conformal on non-square pages) with the viewport's
// display rotation and zoom.
func displayMapper(m domain.Markup, vp vector.Viewport) func(vector.Pt) vector.Pt {
	rot := m.Style.Rotation
	if rot == 0 {
		return vp.ToPixel
	}
	c := vp.PagePixel(m.Bounds().Center())
	return func(p vector.Pt) vector.Pt {
		q := vector.RotatePointAround(vp.PagePixel(p), c, rot)
		return vp.ToPixel(vp.PageNormalized(q))
	}
}

func (f *Frame) add(i Instruction) { f.Shapes = append(f.Shapes, i) }

// stroke builds the stroke attributes shared by all shape kinds.
func stroke(m domain.Markup, vp vector.Viewport) Instruction {
	w := m.Style.StrokeWidth
	if w <= 0 {
		w = 1
	}
	op := m.Style.StrokeOpacity
	if op <= 0 || op > 1 {
		op = 1
	}
	ins := Instruction{
		Stroke:        domain.ParseColor(m.Style.Color, domain.Red),
		StrokeWidth:   w * vp.Zoom,
		StrokeOpacity: op,
	}
	if dash := m.Style.LineStyle.DashPattern(); dash != nil {
		scaled := make([]float64, len(dash))
		for i, d := range dash {
			scaled[i] = d * ins.StrokeWidth
		}
		ins.Dash = scaled
	}
	if m.Style.Filled() {
		c := domain.ParseColor(m.Style.FillColor, domain.Black)
		ins.Fill = &c
		ins.FillOpacity = m.Style.FillOpacity
		if ins.FillOpacity <= 0 || ins.FillOpacity > 1 {
			ins.FillOpacity = 1
		}
	}
	return ins
}

func renderBox(f *Frame, m domain.Markup, g domain.Box, vp vector.Viewport, toPix func(vector.Pt) vector.Pt) {
	r := g.Rect()
	tl := toPix(vector.Pt{X: r.X, Y: r.Y})
	tr := toPix(vector.Pt{X: r.X + r.W, Y: r.Y})
	br := toPix(vector.Pt{X: r.X + r.W, Y: r.Y + r.H})
	bl := toPix(vector.Pt{X: r.X, Y: r.Y + r.H})

	if g.Leader != nil {
		lead := stroke(m, vp)
		lead.Fill = nil
		a := toPix(*g.Leader)
		b := toPix(r.Center())
		lead.Path.MoveTo(a.X, a.Y)
		lead.Path.LineTo(b.X, b.Y)
		f.add(lead)
	}

	ins := stroke(m, vp)
	if m.Kind == domain.KindCircle {
		ellipsePath(&ins.Path, tl, tr, br, bl)
	} else {
		ins.Path.MoveTo(tl.X, tl.Y)
		ins.Path.LineTo(tr.X, tr.Y)
		ins.Path.LineTo(br.X, br.Y)
		ins.Path.LineTo(bl.X, bl.Y)
		ins.Path.Close()
	}
	f.add(ins)

	if m.Kind.TextCapable() && m.Text != "" {
		f.Texts = append(f.Texts, Text{
			Pos:      vector.Pt{X: tl.X + textInsetPx, Y: tl.Y + textInsetPx},
			MaxWidth: math.Abs(tr.X-tl.X) - 2*textInsetPx,
			Content:  m.Text,
			Color:    domain.ParseColor(m.Style.Color, domain.Black),
			SizePx:   textSizeFactor * vp.Zoom,
		})
	}
}

// ellipsePath approximates the inscribed ellipse of the (possibly rotated)
// box with four cubic beziers.
func ellipsePath(p *vector.Path, tl, tr, br, bl vector.Pt) {
	c := vector.Pt{X: (tl.X + br.X) / 2, Y: (tl.Y + br.Y) / 2}
	// half-axis vectors along the box edges
	ux, uy := (tr.X-tl.X)/2, (tr.Y-tl.Y)/2
	vx, vy := (bl.X-tl.X)/2, (bl.Y-tl.Y)/2

	right := vector.Pt{X: c.X + ux, Y: c.Y + uy}
	bottom := vector.Pt{X: c.X + vx, Y: c.Y + vy}
	left := vector.Pt{X: c.X - ux, Y: c.Y - uy}
	top := vector.Pt{X: c.X - vx, Y: c.Y - vy}

	p.MoveTo(right.X, right.Y)
	p.CubicTo(right.X+kappa*vx, right.Y+kappa*vy, bottom.X+kappa*ux, bottom.Y+kappa*uy, bottom.X, bottom.Y)
	p.CubicTo(bottom.X-kappa*ux, bottom.Y-kappa*uy, left.X+kappa*vx, left.Y+kappa*vy, left.X, left.Y)
	p.CubicTo(left.X-kappa*vx, left.Y-kappa*vy, top.X-kappa*ux, top.Y-kappa*uy, top.X, top.Y)
	p.CubicTo(top.X+kappa*ux, top.Y+kappa*uy, right.X-kappa*vx, right.Y-kappa*vy, right.X, right.Y)
	p.Close()
}

func renderLineSeg(f *Frame, m domain.Markup, g domain.LineSeg, vp vector.Viewport, toPix func(vector.Pt) vector.Pt) {
	a, b := toPix(g.Start), toPix(g.End)
	ins := stroke(m, vp)
	ins.Fill = nil
	ins.Path.MoveTo(a.X, a.Y)
	ins.Path.LineTo(b.X, b.Y)
	f.add(ins)

	if m.Kind == domain.KindArrow {
		f.add(arrowHead(m, vp, a, b, g.ArrowHeadSize))
	}
}

// arrowHead builds the filled wing triangle at b for a shaft arriving from a,
// both in display pixels.
func arrowHead(m domain.Markup, vp vector.Viewport, a, b vector.Pt, size float64) Instruction {
	if size <= 0 {
		size = domain.DefaultArrowHeadSize
	}
	wing := size * vp.PageWidth * vp.Zoom
	l, r := vector.ArrowWings(a, b, wing)
	head := stroke(m, vp)
	c := head.Stroke
	head.Fill = &c
	head.FillOpacity = head.StrokeOpacity
	head.Dash = nil
	head.Path.MoveTo(b.X, b.Y)
	head.Path.LineTo(l.X, l.Y)
	head.Path.LineTo(r.X, r.Y)
	head.Path.Close()
	return head
}

// renderArc draws the bulged arc as a quadratic bezier whose control point
// is chosen so the curve passes through the apex at its midpoint.
func renderArc(f *Frame, m domain.Markup, g domain.Arc, vp vector.Viewport, toPix func(vector.Pt) vector.Pt) {
	p1, p2, apex := toPix(g.P1), toPix(g.P2), toPix(g.Apex())
	cx := 2*apex.X - (p1.X+p2.X)/2
	cy := 2*apex.Y - (p1.Y+p2.Y)/2
	ins := stroke(m, vp)
	ins.Fill = nil
	ins.Path.MoveTo(p1.X, p1.Y)
	ins.Path.QuadTo(cx, cy, p2.X, p2.Y)
	f.add(ins)
}

func renderPointSeq(f *Frame, m domain.Markup, g domain.PointSeq, vp vector.Viewport, toPix func(vector.Pt) vector.Pt) {
	pts := make([]vector.Pt, len(g.Points))
	for i, p := range g.Points {
		pts[i] = toPix(p)
	}

	switch m.Kind {
	case domain.KindCloud, domain.KindCloudPolyline:
		f.add(cloudPath(m, g, vp, pts))
		return
	}

	ins := stroke(m, vp)
	if m.Kind == domain.KindHighlighter {
		ins.StrokeOpacity = highlighterOpacity
	}
	if !g.Closed {
		ins.Fill = nil
	}
	ins.Path.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		ins.Path.LineTo(p.X, p.Y)
	}
	if g.Closed {
		ins.Path.Close()
	}
	f.add(ins)

	if m.Kind == domain.KindPolylineArrow && len(pts) >= 2 {
		f.add(arrowHead(m, vp, pts[len(pts)-2], pts[len(pts)-1], 0))
	}
}

// cloudPath replaces every outline segment with a run of scalloped arcs. The
// arc chord length comes from ArcSize (fraction of page width), the bulge
// from Intensity, and Inverted flips the scallops to point inward.
func cloudPath(m domain.Markup, g domain.PointSeq, vp vector.Viewport, pts []vector.Pt) Instruction {
	ins := stroke(m, vp)

	arcLen := g.ArcSize
	if arcLen <= 0 {
		arcLen = defaultCloudArc
	}
	chord := arcLen * vp.PageWidth * vp.Zoom
	intensity := g.Intensity
	if intensity <= 0 {
		intensity = 1
	}
	bulge := chord / 2 * intensity
	if g.Inverted {
		bulge = -bulge
	}

	ins.Path.MoveTo(pts[0].X, pts[0].Y)
	n := len(pts)
	segs := n - 1
	if g.Closed {
		segs = n
	}
	for i := 0; i < segs; i++ {
		a, b := pts[i], pts[(i+1)%n]
		scallopSegment(&ins.Path, a, b, chord, bulge)
	}
	if g.Closed {
		ins.Path.Close()
	}
	return ins
}

// scallopSegment splits a-b into whole scallops and emits one quadratic
// bezier per scallop, bulging left of the travel direction.
func scallopSegment(p *vector.Path, a, b vector.Pt, chord, bulge float64) {
	total := vector.Dist(a, b)
	if total == 0 {
		return
	}
	count := int(math.Ceil(total / chord))
	if count < 1 {
		count = 1
	}
	dx, dy := (b.X-a.X)/float64(count), (b.Y-a.Y)/float64(count)
	// left normal of the travel direction
	nx, ny := dy/total*float64(count), -dx/total*float64(count)
	for i := 0; i < count; i++ {
		sx, sy := a.X+float64(i)*dx, a.Y+float64(i)*dy
		ex, ey := sx+dx, sy+dy
		cx := (sx+ex)/2 + nx*bulge
		cy := (sy+ey)/2 + ny*bulge
		p.QuadTo(cx, cy, ex, ey)
	}
}

// renderAnchor draws the note/caret glyph: a filled square with the stroke
// color for notes, a small triangle for carets.
func renderAnchor(f *Frame, m domain.Markup, g domain.SinglePoint, toPix func(vector.Pt) vector.Pt) {
	c := toPix(g.P)
	h := float64(NoteGlyphPx) / 2
	ins := Instruction{
		Stroke:        domain.ParseColor(m.Style.Color, domain.Red),
		StrokeWidth:   1,
		StrokeOpacity: 1,
	}
	fill := ins.Stroke
	ins.Fill = &fill
	ins.FillOpacity = 0.9

	if m.Kind == domain.KindCaret {
		ins.Path.MoveTo(c.X, c.Y)
		ins.Path.LineTo(c.X-h, c.Y+2*h)
		ins.Path.LineTo(c.X+h, c.Y+2*h)
		ins.Path.Close()
	} else {
		ins.Path.MoveTo(c.X-h, c.Y-h)
		ins.Path.LineTo(c.X+h, c.Y-h)
		ins.Path.LineTo(c.X+h, c.Y+h)
		ins.Path.LineTo(c.X-h, c.Y+h)
		ins.Path.Close()
	}
	f.add(ins)
}

var selectionBlue = domain.Color{R: 20, G: 110, B: 220, A: 255}

// renderSelection appends the dashed selection outline and the caller's
// handle grips.
func renderSelection(f *Frame, m domain.Markup, vp vector.Viewport, handles []vector.Pt) {
	b := m.Bounds()
	corners := [4]vector.Pt{
		{X: b.X, Y: b.Y},
		{X: b.X + b.W, Y: b.Y},
		{X: b.X + b.W, Y: b.Y + b.H},
		{X: b.X, Y: b.Y + b.H},
	}
	toPix := displayMapper(m, vp)
	outline := Instruction{
		Stroke:        selectionBlue,
		StrokeWidth:   1,
		StrokeOpacity: 1,
		Dash:          []float64{4, 3},
	}
	p0 := toPix(corners[0])
	outline.Path.MoveTo(p0.X, p0.Y)
	for _, c := range corners[1:] {
		q := toPix(c)
		outline.Path.LineTo(q.X, q.Y)
	}
	outline.Path.Close()
	f.add(outline)

	for _, hp := range handles {
		grip := Instruction{
			Stroke:        selectionBlue,
			StrokeWidth:   1,
			StrokeOpacity: 1,
		}
		white := domain.Color{R: 255, G: 255, B: 255, A: 255}
		grip.Fill = &white
		grip.FillOpacity = 1
		s := float64(HandleSizePx) / 2
		grip.Path.MoveTo(hp.X-s, hp.Y-s)
		grip.Path.LineTo(hp.X+s, hp.Y-s)
		grip.Path.LineTo(hp.X+s, hp.Y+s)
		grip.Path.LineTo(hp.X-s, hp.Y+s)
		grip.Path.Close()
		f.add(grip)
	}
}
