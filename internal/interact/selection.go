/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

// Selection handles and the markup clipboard.

import (
	"math"

	"redline/internal/domain"
	"redline/internal/undo"
	"redline/internal/vector"
)

const pasteOffsetPx = 12

// handleRef is one grip of a selected markup in display pixels.
type handleRef struct {
	id     string
	handle Handle
	vertex int
	pix    vector.Pt
}

// displayPt maps a normalized point to display pixels through the markup's
// own rotation, matching what the renderer shows.
func displayPt(m domain.Markup, vp vector.Viewport, p vector.Pt) vector.Pt {
	q := vp.PagePixel(p)
	if rot := m.Style.Rotation; rot != 0 {
		c := vp.PagePixel(m.Bounds().Center())
		q = vector.RotatePointAround(q, c, rot)
	}
	return vp.ToPixel(vp.PageNormalized(q))
}

func handlesFor(m domain.Markup, vp vector.Viewport) []handleRef {
	if !m.Valid() || m.ReadOnly {
		return nil
	}
	var out []handleRef
	add := func(h Handle, vtx int, p vector.Pt) {
		out = append(out, handleRef{id: m.ID, handle: h, vertex: vtx, pix: displayPt(m, vp, p)})
	}

	switch g := m.Geometry.(type) {
	case domain.Box:
		r := g.Rect()
		minX, minY := r.X, r.Y
		maxX, maxY := r.X+r.W, r.Y+r.H
		midX, midY := r.X+r.W/2, r.Y+r.H/2
		pts := [8]vector.Pt{
			{X: minX, Y: minY}, {X: midX, Y: minY}, {X: maxX, Y: minY}, {X: maxX, Y: midY},
			{X: maxX, Y: maxY}, {X: midX, Y: maxY}, {X: minX, Y: maxY}, {X: minX, Y: midY},
		}
		for i, h := range boxHandles {
			add(h, -1, pts[i])
		}
		// rotate grip: offset outward from the top-center grip in pixels
		n := displayPt(m, vp, pts[1])
		c := displayPt(m, vp, vector.Pt{X: midX, Y: midY})
		d := vector.Dist(n, c)
		if d > 0 {
			ux, uy := (n.X-c.X)/d, (n.Y-c.Y)/d
			out = append(out, handleRef{
				id: m.ID, handle: HandleRotate, vertex: -1,
				pix: vector.Pt{X: n.X + ux*rotateHandleOffsetPx, Y: n.Y + uy*rotateHandleOffsetPx},
			})
		}
		if g.Leader != nil {
			add(HandleLeader, -1, *g.Leader)
		}
	case domain.LineSeg:
		add(HandleStart, -1, g.Start)
		add(HandleEnd, -1, g.End)
	case domain.Arc:
		add(HandleStart, -1, g.P1)
		add(HandleEnd, -1, g.P2)
		add(HandleApex, -1, g.Apex())
	case domain.PointSeq:
		for i, p := range g.Points {
			add(HandleVertex, i, p)
		}
	case domain.SinglePoint:
		// moved by body drag; no grips
	}
	return out
}

// HandlePoints returns the grip positions of a markup in display pixels, in
// a stable order, for the renderer's selection overlay.
func (e *Editor) HandlePoints(id string) []vector.Pt {
	i := e.find(id)
	if i < 0 {
		return nil
	}
	refs := handlesFor(e.markups[i], e.vp)
	pts := make([]vector.Pt, len(refs))
	for j, r := range refs {
		pts[j] = r.pix
	}
	return pts
}

// handleAt resolves a pixel position to a grip on any selected markup.
func (e *Editor) handleAt(pix vector.Pt) (id string, h Handle, vertex int, ok bool) {
	for _, sid := range e.sel {
		i := e.find(sid)
		if i < 0 || e.markups[i].PageIndex != e.page {
			continue
		}
		for _, ref := range handlesFor(e.markups[i], e.vp) {
			if vector.Dist(pix, ref.pix) <= handleRadiusPx {
				return ref.id, ref.handle, ref.vertex, true
			}
		}
	}
	return "", HandleNone, -1, false
}

// --- clipboard -------------------------------------------------------------

// Copy stores deep copies of the selected markups.
func (e *Editor) Copy() int {
	e.clip = e.clip[:0]
	for _, id := range e.sel {
		if i := e.find(id); i >= 0 {
			e.clip = append(e.clip, e.markups[i].Clone())
		}
	}
	return len(e.clip)
}

// Cut copies then deletes the selection.
func (e *Editor) Cut() int {
	n := e.Copy()
	if n > 0 {
		e.Delete()
	}
	return n
}

// Paste inserts the clipboard content onto the current page with fresh ids,
// offset slightly so the copies are visible next to their sources. The new
// markups become the selection.
func (e *Editor) Paste() int {
	if len(e.clip) == 0 {
		return 0
	}
	d := e.vp.PageNormalized(vector.Pt{X: pasteOffsetPx, Y: pasteOffsetPx})
	e.history.Push(undo.Capture(e.page, e.pageMarkups()))
	e.sel = e.sel[:0]
	for _, src := range e.clip {
		m := src.Clone()
		m.ID = domain.NewID()
		m.PageIndex = e.page
		m.Document = e.doc
		m.ReadOnly = false
		m.External = false
		m.Modified = true
		if m.Geometry != nil {
			m.Geometry = m.Geometry.Map(func(p vector.Pt) vector.Pt {
				return vector.Pt{X: clamp01(p.X + d.X), Y: clamp01(p.Y + d.Y)}
			})
		}
		e.markups = append(e.markups, m)
		e.sel = append(e.sel, m.ID)
	}
	return len(e.clip)
}

func clamp01(v float64) float64 { return math.Min(1, math.Max(0, v)) }
