/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"testing"
)

func TestRectFromCornersNormalizes(t *testing.T) {
	r := RectFromCorners(Pt{0.8, 0.2}, Pt{0.3, 0.7})
	if r.X != 0.3 || r.Y != 0.2 {
		t.Fatalf("unexpected min corner: %+v", r)
	}
	if math.Abs(r.W-0.5) > 1e-12 || math.Abs(r.H-0.5) > 1e-12 {
		t.Fatalf("unexpected size: %+v", r)
	}
}

func TestRectContainsAndInset(t *testing.T) {
	r := R(0.1, 0.2, 0.5, 0.3)
	if !r.Contains(Pt{0.1, 0.2}) || !r.Contains(Pt{0.6, 0.5}) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inset(0.05, 0.05)
	if math.Abs(in.X-0.15) > 1e-12 || math.Abs(in.W-0.4) > 1e-12 {
		t.Fatalf("unexpected inset: %+v", in)
	}
}

func TestAffineBasic(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 { // (1*2+10, 1*3+5)
		t.Fatalf("unexpected transform result: %+v", p)
	}
	inv := Invert(m)
	q := inv.Apply(p)
	if math.Abs(q.X-1) > 1e-12 || math.Abs(q.Y-1) > 1e-12 {
		t.Fatalf("inverse did not recover point: %+v", q)
	}
}

func TestRotateStepPermutation(t *testing.T) {
	p := Pt{0.2, 0.6}
	q := RotateStep(p, 90)
	if math.Abs(q.X-0.4) > 1e-12 || math.Abs(q.Y-0.2) > 1e-12 {
		t.Fatalf("90° step wrong: %+v", q)
	}
	for _, deg := range []int{0, 90, 180, 270} {
		r := InverseRotateStep(RotateStep(p, deg), deg)
		if math.Abs(r.X-p.X) > 1e-12 || math.Abs(r.Y-p.Y) > 1e-12 {
			t.Fatalf("rotation %d not inverted: %+v", deg, r)
		}
	}
}

func TestViewportRoundTrip(t *testing.T) {
	vps := []Viewport{
		{PageWidth: 800, PageHeight: 600, Zoom: 1, Rotation: 0},
		{PageWidth: 800, PageHeight: 600, Zoom: 2.5, Rotation: 90},
		{PageWidth: 612, PageHeight: 792, Zoom: 0.33, Rotation: 180},
		{PageWidth: 612, PageHeight: 792, Zoom: 4, Rotation: 270},
	}
	pts := []Pt{{0, 0}, {1, 1}, {0.25, 0.75}, {0.5, 0.5}}
	for _, vp := range vps {
		for _, p := range pts {
			pix := vp.ToPixel(p)
			back := vp.ToNormalized(pix)
			if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
				t.Fatalf("round trip failed vp=%+v p=%+v got %+v", vp, p, back)
			}
		}
	}
}

func TestViewportScaledSizeSwapsAxes(t *testing.T) {
	vp := Viewport{PageWidth: 800, PageHeight: 600, Zoom: 2, Rotation: 90}
	s := vp.ScaledSize()
	if s.W != 1200 || s.H != 1600 {
		t.Fatalf("expected swapped axes, got %+v", s)
	}
}

func TestDistToSegmentClamped(t *testing.T) {
	a, b := Pt{0, 0}, Pt{10, 0}
	if d := DistToSegment(Pt{5, 3}, a, b); math.Abs(d-3) > 1e-12 {
		t.Fatalf("perpendicular distance wrong: %v", d)
	}
	if d := DistToSegment(Pt{14, 3}, a, b); math.Abs(d-5) > 1e-12 {
		t.Fatalf("endpoint clamp distance wrong: %v", d)
	}
}

func TestPerpDistInSpan(t *testing.T) {
	a, b := Pt{0, 0}, Pt{10, 0}
	if _, ok := PerpDistToSegment(Pt{5, 2}, a, b); !ok {
		t.Fatalf("foot at x=5 should be in span")
	}
	if _, ok := PerpDistToSegment(Pt{12, 2}, a, b); ok {
		t.Fatalf("foot at x=12 should be out of span")
	}
}

func TestPointInPolygonEvenOdd(t *testing.T) {
	poly := []Pt{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	if !PointInPolygon(Pt{0.5, 0.5}, poly) {
		t.Fatalf("center should be inside")
	}
	if PointInPolygon(Pt{1.5, 0.5}, poly) {
		t.Fatalf("outside point reported inside")
	}
	// concave: C shape
	c := []Pt{{0, 0}, {3, 0}, {3, 1}, {1, 1}, {1, 2}, {3, 2}, {3, 3}, {0, 3}}
	if PointInPolygon(Pt{2, 1.5}, c) {
		t.Fatalf("notch point should be outside concave polygon")
	}
}

func TestSnapAnglePreservesDistance(t *testing.T) {
	prev := Pt{0, 0}
	p := Pt{1, 0.1}
	s := SnapAngle(prev, p, 45)
	if math.Abs(s.Y) > 1e-12 {
		t.Fatalf("expected snap to horizontal, got %+v", s)
	}
	if math.Abs(Dist(prev, s)-Dist(prev, p)) > 1e-12 {
		t.Fatalf("distance not preserved: %v vs %v", Dist(prev, s), Dist(prev, p))
	}
}

func TestArcApexPerpendicular(t *testing.T) {
	p1, p2 := Pt{0, 0}, Pt{10, 0}
	apex := ArcApex(p1, p2, 0.5)
	if math.Abs(apex.X-5) > 1e-12 {
		t.Fatalf("apex not above midpoint: %+v", apex)
	}
	// sagitta = 0.5 * 10 / 2 = 2.5, left normal of +x is +y
	if math.Abs(apex.Y-2.5) > 1e-12 {
		t.Fatalf("unexpected sagitta: %+v", apex)
	}
}

func TestArrowWingsSymmetric(t *testing.T) {
	l, r := ArrowWings(Pt{0, 0}, Pt{10, 0}, 2)
	if math.Abs(l.Y+r.Y) > 1e-12 {
		t.Fatalf("wings not symmetric about shaft: %+v %+v", l, r)
	}
	if l.X <= 10-2 || l.X >= 10 {
		t.Fatalf("wing should fold back along shaft: %+v", l)
	}
}

func TestPathBounds(t *testing.T) {
	var p Path
	p.MoveTo(0.1, 0.1)
	p.LineTo(0.4, 0.3)
	p.QuadTo(0.5, 0.9, 0.2, 0.2)
	b := p.Bounds()
	if b.X != 0.1 || b.Y != 0.1 {
		t.Fatalf("unexpected min: %+v", b)
	}
	if math.Abs(b.W-0.4) > 1e-12 || math.Abs(b.H-0.8) > 1e-12 {
		t.Fatalf("unexpected size: %+v", b)
	}
}
