/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Proximity and snapping primitives shared by hit-testing and the
// interaction tools. All functions are deterministic and unit-agnostic;
// callers pick the frame (normalized or pixel) and matching tolerances.

import "math"

func Dist(a, b Pt) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// DistToSegment returns the distance from p to the segment a-b, clamping the
// projection to the segment's endpoints.
func DistToSegment(p, a, b Pt) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Dist(p, a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return Dist(p, Pt{X: a.X + t*dx, Y: a.Y + t*dy})
}

// PerpDistToSegment returns the perpendicular distance from p to the infinite
// line through a-b and whether the perpendicular foot falls within the
// segment span. Edge tests on unfilled boxes only accept in-span hits, which
// prevents corner false-positives where two edge bands overlap.
func PerpDistToSegment(p, a, b Pt) (float64, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Dist(p, a), false
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	foot := Pt{X: a.X + t*dx, Y: a.Y + t*dy}
	return Dist(p, foot), t >= 0 && t <= 1
}

// PointInPolygon runs an even-odd crossing test. The polygon is implicitly
// closed between the last and first vertex.
func PointInPolygon(p Pt, poly []Pt) bool {
	if len(poly) < 3 {
		return false
	}
	inside := false
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := a.X + (p.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if p.X < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// MinDistToPolyline returns the smallest distance from p to any consecutive
// segment of the path; closed additionally tests the wrap-around segment.
func MinDistToPolyline(p Pt, pts []Pt, closed bool) float64 {
	if len(pts) == 0 {
		return math.Inf(1)
	}
	if len(pts) == 1 {
		return Dist(p, pts[0])
	}
	best := math.Inf(1)
	for i := 0; i < len(pts)-1; i++ {
		if d := DistToSegment(p, pts[i], pts[i+1]); d < best {
			best = d
		}
	}
	if closed {
		if d := DistToSegment(p, pts[len(pts)-1], pts[0]); d < best {
			best = d
		}
	}
	return best
}

// SnapAngle snaps the segment prev->p to the nearest multiple of stepDeg,
// preserving the segment length. Used for shift-constrained drawing (45°)
// and rotation snapping (15°).
func SnapAngle(prev, p Pt, stepDeg float64) Pt {
	if stepDeg <= 0 {
		return p
	}
	dx, dy := p.X-prev.X, p.Y-prev.Y
	r := math.Hypot(dx, dy)
	if r == 0 {
		return p
	}
	step := stepDeg * math.Pi / 180
	ang := math.Round(math.Atan2(dy, dx)/step) * step
	return Pt{X: prev.X + r*math.Cos(ang), Y: prev.Y + r*math.Sin(ang)}
}

// ArrowWings returns the two wing endpoints of an arrowhead at "to", with the
// shaft arriving from "from". size is the wing length in the caller's units.
func ArrowWings(from, to Pt, size float64) (Pt, Pt) {
	dx, dy := from.X-to.X, from.Y-to.Y
	r := math.Hypot(dx, dy)
	if r == 0 || size <= 0 {
		return to, to
	}
	ang := math.Atan2(dy, dx)
	const spread = math.Pi / 6 // 30° off the shaft
	left := Pt{X: to.X + size*math.Cos(ang+spread), Y: to.Y + size*math.Sin(ang+spread)}
	right := Pt{X: to.X + size*math.Cos(ang-spread), Y: to.Y + size*math.Sin(ang-spread)}
	return left, right
}

// ArcApex derives the apex of a bulged arc from its chord endpoints. The apex
// sits on the chord's perpendicular at the midpoint, offset by the sagitta
// bulge*|chord|/2. Hit-testing approximates the arc by the two chord-to-apex
// segments.
func ArcApex(p1, p2 Pt, bulge float64) Pt {
	mid := Pt{X: (p1.X + p2.X) / 2, Y: (p1.Y + p2.Y) / 2}
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	chord := math.Hypot(dx, dy)
	if chord == 0 {
		return mid
	}
	// unit normal, left of the chord direction
	nx, ny := -dy/chord, dx/chord
	sagitta := bulge * chord / 2
	return Pt{X: mid.X + nx*sagitta, Y: mid.Y + ny*sagitta}
}
