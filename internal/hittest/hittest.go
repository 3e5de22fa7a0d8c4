/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package hittest decides which markup, if any, sits under a pointer
// position. All tests run in the unrotated pixel frame of the page so that
// tolerances are isotropic screen distances; the page aspect ratio and
// display rotation cannot skew them. Callers convert pointer input to
// normalized space first (vector.Viewport.ToNormalized), which also folds
// out the display rotation.
package hittest

import (
	"math"

	"redline/internal/domain"
	"redline/internal/vector"
)

// Options tunes proximity thresholds. Zero values fall back to the defaults
// below, so hittest.Options{} is usable as-is.
type Options struct {
	// TolerancePx is the base pick distance in screen pixels.
	TolerancePx float64
	// PointRadiusPx is the pick radius around note and caret anchors.
	PointRadiusPx float64
}

const (
	DefaultTolerancePx   = 6
	DefaultPointRadiusPx = 10
)

func (o Options) normalized() Options {
	if o.TolerancePx <= 0 {
		o.TolerancePx = DefaultTolerancePx
	}
	if o.PointRadiusPx <= 0 {
		o.PointRadiusPx = DefaultPointRadiusPx
	}
	return o
}

// Hit returns the index of the topmost markup under the normalized point p,
// or -1 when nothing is hit. Later slice entries draw above earlier ones, so
// the scan runs back to front. Markups on other pages or with malformed
// geometry never match.
func Hit(p vector.Pt, markups []domain.Markup, pageIndex int, vp vector.Viewport, opt Options) int {
	for i := len(markups) - 1; i >= 0; i-- {
		if markups[i].PageIndex != pageIndex {
			continue
		}
		if HitMarkup(p, markups[i], vp, opt) {
			return i
		}
	}
	return -1
}

// HitMarkup reports whether the normalized point p picks the markup.
func HitMarkup(p vector.Pt, m domain.Markup, vp vector.Viewport, opt Options) bool {
	if !m.Valid() {
		return false
	}
	opt = opt.normalized()
	q := vp.PagePixel(p)

	// Shape-local rotation is visual only; instead of rotating the geometry
	// we counter-rotate the query point around the shape's pixel center.
	if rot := m.Style.Rotation; rot != 0 {
		c := pixelCenter(m, vp)
		q = vector.RotatePointAround(q, c, -rot)
	}

	tol := opt.TolerancePx
	if sw := m.Style.StrokeWidth * vp.Zoom; sw > tol {
		tol = sw
	}

	switch g := m.Geometry.(type) {
	case domain.Box:
		return hitBox(q, m, g, vp, tol)
	case domain.LineSeg:
		return hitLine(q, m, g, vp, tol)
	case domain.Arc:
		return hitArc(q, g, vp, tol)
	case domain.PointSeq:
		return hitPointSeq(q, m, g, vp, tol)
	case domain.SinglePoint:
		return vector.Dist(q, vp.PagePixel(g.P)) <= opt.PointRadiusPx
	default:
		return false
	}
}

// InBounds reports whether the markup's bounding box intersects the
// normalized rectangle. Rubber-band selection uses this; it intentionally
// over-approximates non-rectangular shapes by their bounds.
func InBounds(r vector.Rect, m domain.Markup) bool {
	if !m.Valid() {
		return false
	}
	return r.Intersects(m.Bounds())
}

func pixelCenter(m domain.Markup, vp vector.Viewport) vector.Pt {
	c := m.Bounds().Center()
	return vp.PagePixel(c)
}

// solidBody lists the box kinds whose interior always picks, regardless of
// fill: they render opaque content inside the box.
func solidBody(k domain.Kind) bool {
	switch k {
	case domain.KindText, domain.KindCallout, domain.KindImage, domain.KindSymbol, domain.KindStamp:
		return true
	}
	return false
}

func hitBox(q vector.Pt, m domain.Markup, g domain.Box, vp vector.Viewport, tol float64) bool {
	r := g.Rect()
	pmin := vp.PagePixel(vector.Pt{X: r.X, Y: r.Y})
	pmax := vp.PagePixel(vector.Pt{X: r.X + r.W, Y: r.Y + r.H})

	if g.Leader != nil {
		// The leader attaches to the box center; a hit anywhere along it
		// selects the callout.
		c := vector.Pt{X: (pmin.X + pmax.X) / 2, Y: (pmin.Y + pmax.Y) / 2}
		if vector.DistToSegment(q, vp.PagePixel(*g.Leader), c) <= tol {
			return true
		}
	}

	if m.Kind == domain.KindCircle {
		return hitEllipse(q, pmin, pmax, m.Style.Filled(), tol)
	}

	inside := q.X >= pmin.X && q.X <= pmax.X && q.Y >= pmin.Y && q.Y <= pmax.Y
	if inside && (m.Style.Filled() || solidBody(m.Kind)) {
		return true
	}

	// Border pick: perpendicular distance to each edge, accepted only when
	// the foot falls within the edge span so corner bands do not leak past
	// the rectangle.
	corners := [4]vector.Pt{
		pmin,
		{X: pmax.X, Y: pmin.Y},
		pmax,
		{X: pmin.X, Y: pmax.Y},
	}
	for i := 0; i < 4; i++ {
		d, inSpan := vector.PerpDistToSegment(q, corners[i], corners[(i+1)%4])
		if inSpan && d <= tol {
			return true
		}
	}
	// Degenerate or corner cases: fall back to corner proximity.
	for _, c := range corners {
		if vector.Dist(q, c) <= tol {
			return true
		}
	}
	return false
}

func hitEllipse(q, pmin, pmax vector.Pt, filled bool, tol float64) bool {
	cx, cy := (pmin.X+pmax.X)/2, (pmin.Y+pmax.Y)/2
	rx, ry := (pmax.X-pmin.X)/2, (pmax.Y-pmin.Y)/2
	if rx <= 0 || ry <= 0 {
		return vector.Dist(q, vector.Pt{X: cx, Y: cy}) <= tol
	}
	// Scaled radial distance: 1 on the ellipse. Converting the deviation back
	// through the smaller radius gives an approximate pixel distance to the
	// rim, good enough at pick tolerances.
	v := math.Hypot((q.X-cx)/rx, (q.Y-cy)/ry)
	if filled && v <= 1 {
		return true
	}
	return math.Abs(v-1)*math.Min(rx, ry) <= tol
}

func hitLine(q vector.Pt, m domain.Markup, g domain.LineSeg, vp vector.Viewport, tol float64) bool {
	a, b := vp.PagePixel(g.Start), vp.PagePixel(g.End)
	if vector.DistToSegment(q, a, b) <= tol {
		return true
	}
	if m.Kind == domain.KindArrow {
		size := g.ArrowHeadSize
		if size <= 0 {
			size = domain.DefaultArrowHeadSize
		}
		wing := size * vp.PageWidth * vp.Zoom
		l, r := vector.ArrowWings(a, b, wing)
		if vector.DistToSegment(q, b, l) <= tol || vector.DistToSegment(q, b, r) <= tol {
			return true
		}
	}
	return false
}

// hitArc approximates the arc by its two chord-to-apex segments. At pick
// tolerances the approximation error stays well under the tolerance for any
// bulge the tools can produce.
func hitArc(q vector.Pt, g domain.Arc, vp vector.Viewport, tol float64) bool {
	p1, p2 := vp.PagePixel(g.P1), vp.PagePixel(g.P2)
	apex := vp.PagePixel(g.Apex())
	return vector.DistToSegment(q, p1, apex) <= tol || vector.DistToSegment(q, apex, p2) <= tol
}

func hitPointSeq(q vector.Pt, m domain.Markup, g domain.PointSeq, vp vector.Viewport, tol float64) bool {
	pts := make([]vector.Pt, len(g.Points))
	for i, p := range g.Points {
		pts[i] = vp.PagePixel(p)
	}
	if g.Closed && m.Style.Filled() && vector.PointInPolygon(q, pts) {
		return true
	}
	if m.Kind == domain.KindHighlighter {
		// Highlighter strokes are wide bands; half the stroke width picks.
		if hw := m.Style.StrokeWidth * vp.Zoom / 2; hw > tol {
			tol = hw
		}
	}
	return vector.MinDistToPolyline(q, pts, g.Closed) <= tol
}
