/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"redline/internal/vector"
)

// Geometry is the family-specific payload of a markup. Implementations are
// value types; Map returns a transformed copy so interactions can build
// previews without mutating the committed model.
type Geometry interface {
	Family() Family
	Bounds() vector.Rect
	Clone() Geometry
	// Map applies f to every stored coordinate and returns the new geometry.
	// Drag, resize and symbol instancing are all coordinate maps.
	Map(f func(vector.Pt) vector.Pt) Geometry

	valid() bool
}

// Box is a two-point box: rectangle, circle, text, callout, image, symbol
// instance, stamp. Start/End are opposite corners with no ordering invariant;
// consumers normalize via vector.RectFromCorners.
type Box struct {
	Start vector.Pt
	End   vector.Pt
	// Leader is the optional callout leader anchor pointing at the subject.
	Leader *vector.Pt
}

func (b Box) Family() Family { return FamilyBox }

func (b Box) Rect() vector.Rect { return vector.RectFromCorners(b.Start, b.End) }

func (b Box) Bounds() vector.Rect {
	r := b.Rect()
	if b.Leader != nil {
		r = r.Union(vector.Rect{X: b.Leader.X, Y: b.Leader.Y})
	}
	return r
}

func (b Box) Clone() Geometry {
	c := b
	if b.Leader != nil {
		l := *b.Leader
		c.Leader = &l
	}
	return c
}

func (b Box) Map(f func(vector.Pt) vector.Pt) Geometry {
	c := Box{Start: f(b.Start), End: f(b.End)}
	if b.Leader != nil {
		l := f(*b.Leader)
		c.Leader = &l
	}
	return c
}

func (b Box) valid() bool { return true }

// DefaultArrowHeadSize is the arrowhead wing length used when a line's
// ArrowHeadSize is unset, as a fraction of the unrotated page width.
const DefaultArrowHeadSize = 0.02

// LineSeg is a two-point line or arrow.
type LineSeg struct {
	Start vector.Pt
	End   vector.Pt
	// ArrowHeadSize is the wing length as a fraction of the unrotated page
	// width; zero means the kind's default.
	ArrowHeadSize float64
}

func (l LineSeg) Family() Family { return FamilyLine }

func (l LineSeg) Bounds() vector.Rect {
	return vector.BoundsOf([]vector.Pt{l.Start, l.End})
}

func (l LineSeg) Clone() Geometry { return l }

func (l LineSeg) Map(f func(vector.Pt) vector.Pt) Geometry {
	return LineSeg{Start: f(l.Start), End: f(l.End), ArrowHeadSize: l.ArrowHeadSize}
}

func (l LineSeg) valid() bool { return true }

// Arc is a three-point arc: two chord endpoints plus a bulge factor. The
// apex lies on the chord's midpoint perpendicular, offset by
// bulge*|chord|/2.
type Arc struct {
	P1    vector.Pt
	P2    vector.Pt
	Bulge float64
}

func (a Arc) Family() Family { return FamilyArc }

func (a Arc) Apex() vector.Pt { return vector.ArcApex(a.P1, a.P2, a.Bulge) }

func (a Arc) Bounds() vector.Rect {
	return vector.BoundsOf([]vector.Pt{a.P1, a.P2, a.Apex()})
}

func (a Arc) Clone() Geometry { return a }

func (a Arc) Map(f func(vector.Pt) vector.Pt) Geometry {
	return Arc{P1: f(a.P1), P2: f(a.P2), Bulge: a.Bulge}
}

func (a Arc) valid() bool { return true }

// PointSeq is a freeform point sequence: pen and highlighter strokes,
// polylines (optionally closed), polygons and clouds. Cloud kinds use the
// Arc* fields to synthesize the scalloped border.
type PointSeq struct {
	Points []vector.Pt
	Closed bool

	// Cloud border parameters; meaningful for cloud kinds only.
	ArcSize   float64
	Intensity float64
	Inverted  bool
}

func (s PointSeq) Family() Family { return FamilyPoints }

func (s PointSeq) Bounds() vector.Rect { return vector.BoundsOf(s.Points) }

func (s PointSeq) Clone() Geometry {
	c := s
	c.Points = append([]vector.Pt(nil), s.Points...)
	return c
}

func (s PointSeq) Map(f func(vector.Pt) vector.Pt) Geometry {
	c := s
	c.Points = make([]vector.Pt, len(s.Points))
	for i, p := range s.Points {
		c.Points[i] = f(p)
	}
	return c
}

func (s PointSeq) valid() bool { return len(s.Points) >= 2 }

// SinglePoint anchors note and caret markups.
type SinglePoint struct {
	P vector.Pt
}

func (s SinglePoint) Family() Family { return FamilyPoint }

func (s SinglePoint) Bounds() vector.Rect { return vector.Rect{X: s.P.X, Y: s.P.Y} }

func (s SinglePoint) Clone() Geometry { return s }

func (s SinglePoint) Map(f func(vector.Pt) vector.Pt) Geometry {
	return SinglePoint{P: f(s.P)}
}

func (s SinglePoint) valid() bool { return true }
