/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Viewport maps between normalized unrotated document space and the rotated,
// zoomed pixel space of the display surface. The stored model never changes
// when the viewport rotates or zooms; only this boundary does.

// Viewport carries the unrotated page size (points at zoom 1), the current
// zoom factor and the display rotation in 90° steps.
type Viewport struct {
	PageWidth  float64
	PageHeight float64
	Zoom       float64
	Rotation   int // 0, 90, 180 or 270 degrees clockwise
}

// normalized returns a copy with zoom and rotation clamped to sane values.
func (v Viewport) normalized() Viewport {
	if v.Zoom <= 0 {
		v.Zoom = 1
	}
	v.Rotation = NormalizeStep(v.Rotation)
	return v
}

// NormalizeStep clamps an arbitrary rotation to the nearest legal 90° step in [0,360).
func NormalizeStep(deg int) int {
	d := deg % 360
	if d < 0 {
		d += 360
	}
	// round to the nearest multiple of 90
	return ((d + 45) / 90 % 4) * 90
}

// ScaledSize returns the display size in pixels after rotation and zoom.
// Rotations of 90 and 270 swap the page axes.
func (v Viewport) ScaledSize() Size {
	v = v.normalized()
	w, h := v.PageWidth*v.Zoom, v.PageHeight*v.Zoom
	if v.Rotation == 90 || v.Rotation == 270 {
		return Size{W: h, H: w}
	}
	return Size{W: w, H: h}
}

// RotateStep applies the display rotation to a normalized point.
// 90° maps (x,y) -> (1-y, x).
func RotateStep(p Pt, deg int) Pt {
	switch NormalizeStep(deg) {
	case 90:
		return Pt{X: 1 - p.Y, Y: p.X}
	case 180:
		return Pt{X: 1 - p.X, Y: 1 - p.Y}
	case 270:
		return Pt{X: p.Y, Y: 1 - p.X}
	default:
		return p
	}
}

// InverseRotateStep recovers the unrotated normalized point.
func InverseRotateStep(p Pt, deg int) Pt {
	return RotateStep(p, 360-NormalizeStep(deg))
}

// ToPixel converts a stored (unrotated, normalized) point to display pixels.
func (v Viewport) ToPixel(p Pt) Pt {
	v = v.normalized()
	q := RotateStep(p, v.Rotation)
	s := v.ScaledSize()
	return Pt{X: q.X * s.W, Y: q.Y * s.H}
}

// ToNormalized converts a display pixel position to the stored unrotated
// normalized space. All pointer input passes through here so the model
// invariant holds regardless of the current display rotation.
func (v Viewport) ToNormalized(pix Pt) Pt {
	v = v.normalized()
	s := v.ScaledSize()
	if s.W == 0 || s.H == 0 {
		return Pt{}
	}
	q := Pt{X: pix.X / s.W, Y: pix.Y / s.H}
	return InverseRotateStep(q, v.Rotation)
}

// PagePixel maps a normalized point into the unrotated pixel frame at the
// current zoom. Proximity tests run in this frame so that tolerances are
// isotropic screen distances and the page aspect ratio cannot skew them.
func (v Viewport) PagePixel(p Pt) Pt {
	v = v.normalized()
	return Pt{X: p.X * v.PageWidth * v.Zoom, Y: p.Y * v.PageHeight * v.Zoom}
}

// PageNormalized is the inverse of PagePixel.
func (v Viewport) PageNormalized(pix Pt) Pt {
	v = v.normalized()
	w, h := v.PageWidth*v.Zoom, v.PageHeight*v.Zoom
	if w == 0 || h == 0 {
		return Pt{}
	}
	return Pt{X: pix.X / w, Y: pix.Y / h}
}

// Aspect returns height/width of the unrotated page. Shape-local rotation is
// applied in pixel space, so inverse transforms in normalized space must
// un-skew by this factor.
func (v Viewport) Aspect() float64 {
	if v.PageWidth == 0 {
		return 1
	}
	return v.PageHeight / v.PageWidth
}
