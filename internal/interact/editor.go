/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"log/slog"
	"math"

	"redline/internal/config"
	"redline/internal/domain"
	"redline/internal/hittest"
	"redline/internal/log"
	"redline/internal/undo"
	"redline/internal/vector"
)

const (
	// dragSlopPx separates a click from a drag.
	dragSlopPx = 3
	// defaultArcBulge is the bulge a freshly drawn arc starts with; the apex
	// grip adjusts it afterwards.
	defaultArcBulge = 0.5
	// rotateHandleOffsetPx lifts the rotate grip above the top edge.
	rotateHandleOffsetPx = 20
	// handleRadiusPx is the pick radius around a grip.
	handleRadiusPx = 6
	// angleSnapDeg constrains shift-drawn segments.
	angleSnapDeg = 45
)

// Editor is the interaction engine for one open document. It owns the live
// markup list, the selection and the gesture state; the host feeds it pointer
// and key events in display pixels and renders Markups() plus Preview().
//
// Editor is intended for a single goroutine (the event loop).
type Editor struct {
	cfg    config.InteractionConfig
	logger *slog.Logger

	vp     vector.Viewport
	tool   Tool
	page   int
	doc    string
	author string
	style  domain.Style

	markups []domain.Markup
	history *undo.Manager

	sel  []string
	clip []domain.Markup

	st state
	// pre is the page state captured when a mutating gesture started; it
	// becomes the undo entry on commit and the restore target on abort.
	pre *undo.Snapshot
}

func NewEditor(cfg config.InteractionConfig, history *undo.Manager) *Editor {
	def := config.Defaults().Interaction
	if cfg.HitTolerancePx <= 0 {
		cfg.HitTolerancePx = def.HitTolerancePx
	}
	if cfg.ClosingThresholdPx <= 0 {
		cfg.ClosingThresholdPx = def.ClosingThresholdPx
	}
	if cfg.MinDrawSizePx <= 0 {
		cfg.MinDrawSizePx = def.MinDrawSizePx
	}
	if cfg.RotationSnapDeg <= 0 {
		cfg.RotationSnapDeg = def.RotationSnapDeg
	}
	if history == nil {
		history = undo.NewManager(undo.Config{})
	}
	return &Editor{
		cfg:     cfg,
		logger:  log.WithComponent("interact"),
		vp:      vector.Viewport{PageWidth: 1, PageHeight: 1, Zoom: 1},
		tool:    ToolSelect,
		history: history,
		st:      idleState{},
	}
}

// --- host wiring -----------------------------------------------------------

// SetDocument resets the editor onto a document.
func (e *Editor) SetDocument(identifier string, markups []domain.Markup) {
	e.abortGesture()
	e.doc = identifier
	e.markups = markups
	e.sel = nil
	e.page = 0
}

// SetMarkups replaces the markup list, e.g. after an external reconcile.
// Selected ids that no longer exist are dropped so no gesture can operate on
// a stale markup.
func (e *Editor) SetMarkups(markups []domain.Markup) {
	e.abortGesture()
	e.markups = markups
	e.pruneSelection()
}

func (e *Editor) SetPage(index int) {
	if index == e.page {
		return
	}
	e.abortGesture()
	e.page = index
	e.sel = nil
}

// SetViewport aborts any in-flight gesture: the pixel anchor of a half-done
// gesture is meaningless under a new zoom or rotation.
func (e *Editor) SetViewport(vp vector.Viewport) {
	e.abortGesture()
	e.vp = vp
}

func (e *Editor) SetTool(t Tool) {
	e.abortGesture()
	e.tool = t
	if t != ToolSelect {
		e.sel = nil
	}
}

func (e *Editor) SetStyle(s domain.Style) { e.style = s }
func (e *Editor) SetAuthor(name string)   { e.author = name }

func (e *Editor) Tool() Tool                { return e.tool }
func (e *Editor) Page() int                 { return e.page }
func (e *Editor) Markups() []domain.Markup  { return e.markups }
func (e *Editor) Selection() []string       { return append([]string(nil), e.sel...) }
func (e *Editor) Viewport() vector.Viewport { return e.vp }

// --- pointer events --------------------------------------------------------

func (e *Editor) PointerDown(pix vector.Pt, mods Modifiers) {
	p := e.vp.ToNormalized(pix)

	if ts, ok := e.st.(textState); ok {
		// a pointer press outside the session commits it as-is
		e.endTextEdit(ts, e.textOf(ts.id))
	}

	if e.tool == ToolSelect {
		e.downSelect(pix, p, mods)
		return
	}

	kind := e.tool.Kind()
	switch {
	case kind == domain.KindNote || kind == domain.KindCaret:
		m := e.newMarkup(kind)
		m.Geometry = domain.SinglePoint{P: p}
		e.commitNew(m)

	case kind == domain.KindPen || kind == domain.KindHighlighter:
		e.beginGesture()
		e.st = strokeState{kind: kind, points: []vector.Pt{p}}

	case kind.Closable() || kind == domain.KindPolygon:
		e.downPoly(kind, p, mods)

	default:
		e.beginGesture()
		e.st = drawState{kind: kind, anchor: p, cur: p}
	}
}

func (e *Editor) PointerMove(pix vector.Pt, mods Modifiers) {
	p := e.vp.ToNormalized(pix)
	switch st := e.st.(type) {
	case drawState:
		cur := p
		if mods.Shift {
			cur = e.snapAngle(st.anchor, p)
		}
		st.cur = cur
		e.st = st
	case strokeState:
		st.points = append(st.points, p)
		e.st = st
	case polyState:
		cur := p
		if mods.Shift && len(st.points) > 0 {
			cur = e.snapAngle(st.points[len(st.points)-1], p)
		}
		st.cur = cur
		e.st = st
	case dragState:
		if e.pixDist(st.start, p) > dragSlopPx {
			st.moved = true
		}
		dx, dy := p.X-st.start.X, p.Y-st.start.Y
		for id, orig := range st.origs {
			if i := e.find(id); i >= 0 {
				e.markups[i] = orig.Translate(dx, dy)
			}
		}
		e.st = st
	case adjustState:
		st.moved = true
		e.applyAdjust(&st, p, mods)
		e.st = st
	case rotateState:
		st.moved = true
		e.applyRotate(st, p, mods)
		e.st = st
	case bandState:
		st.cur = p
		e.st = st
	}
}

func (e *Editor) PointerUp(pix vector.Pt, mods Modifiers) {
	p := e.vp.ToNormalized(pix)
	switch st := e.st.(type) {
	case drawState:
		e.upDraw(st, p, mods)
	case strokeState:
		e.upStroke(st)
	case dragState:
		if st.moved {
			e.commitGesture("drag")
		} else {
			// sub-slop wiggle still translated the selection on every move;
			// restore the pre-gesture state before treating this as a click
			e.abortGesture()
			if !mods.Ctrl && st.wasSelected {
				// motionless click on an already-selected markup toggles it out
				e.toggleSelect(st.grabbed)
			}
		}
	case adjustState:
		if st.moved {
			e.commitGesture("adjust")
		} else {
			e.abortGesture()
		}
	case rotateState:
		if st.moved {
			e.commitGesture("rotate")
		} else {
			e.abortGesture()
		}
	case bandState:
		e.upBand(st)
	}
}

// DoubleClick commits an open polyline (the second click of the pair added a
// duplicate vertex, which is dropped) and opens text editing on text-capable
// markups under the select tool.
func (e *Editor) DoubleClick(pix vector.Pt, mods Modifiers) {
	p := e.vp.ToNormalized(pix)

	if st, ok := e.st.(polyState); ok {
		pts := st.points
		if n := len(pts); n >= 2 && e.pixDist(pts[n-1], p) <= e.cfg.ClosingThresholdPx {
			pts = pts[:n-1]
		}
		e.commitPoly(st.kind, pts, st.kind == domain.KindPolygon)
		return
	}

	if e.tool != ToolSelect {
		return
	}
	i := hittest.Hit(p, e.markups, e.page, e.vp, e.hitOpts())
	if i < 0 {
		return
	}
	m := e.markups[i]
	if !m.Kind.TextCapable() || m.ReadOnly {
		return
	}
	e.sel = []string{m.ID}
	e.beginGesture()
	e.st = textState{id: m.ID, previous: m.Text}
}

// Escape aborts the in-flight gesture; when idle it clears the selection.
func (e *Editor) Escape() {
	switch st := e.st.(type) {
	case idleState:
		e.sel = nil
	case textState:
		e.endTextEdit(st, st.previous)
	default:
		e.abortGesture()
	}
}

// --- select tool -----------------------------------------------------------

func (e *Editor) downSelect(pix, p vector.Pt, mods Modifiers) {
	if id, h, vtx, ok := e.handleAt(pix); ok {
		e.beginHandleGesture(id, h, vtx, p)
		return
	}

	i := hittest.Hit(p, e.markups, e.page, e.vp, e.hitOpts())
	if i < 0 {
		e.st = bandState{start: p, cur: p, keep: mods.Ctrl}
		return
	}
	m := e.markups[i]
	if mods.Ctrl {
		e.toggleSelect(m.ID)
		return
	}
	wasSelected := e.isSelected(m.ID)
	if !wasSelected {
		e.sel = []string{m.ID}
	}
	origs := make(map[string]domain.Markup, len(e.sel))
	for _, id := range e.sel {
		if j := e.find(id); j >= 0 {
			origs[id] = e.markups[j].Clone()
		}
	}
	e.beginGesture()
	e.st = dragState{grabbed: m.ID, wasSelected: wasSelected, origs: origs, start: p}
}

func (e *Editor) upBand(st bandState) {
	r := vector.RectFromCorners(st.start, st.cur)
	var picked []string
	for _, m := range e.markups {
		if m.PageIndex != e.page {
			continue
		}
		if hittest.InBounds(r, m) {
			picked = append(picked, m.ID)
		}
	}
	if st.keep {
		for _, id := range picked {
			if !e.isSelected(id) {
				e.sel = append(e.sel, id)
			}
		}
	} else {
		e.sel = picked
	}
	e.st = idleState{}
}

// --- drawing ---------------------------------------------------------------

func (e *Editor) upDraw(st drawState, p vector.Pt, mods Modifiers) {
	cur := p
	if mods.Shift {
		cur = e.snapAngle(st.anchor, p)
	}

	a, b := e.vp.PagePixel(st.anchor), e.vp.PagePixel(cur)
	w, h := math.Abs(b.X-a.X), math.Abs(b.Y-a.Y)
	min := e.cfg.MinDrawSizePx
	tooSmall := false
	switch st.kind.Family() {
	case domain.FamilyLine, domain.FamilyArc:
		tooSmall = vector.Dist(a, b) < min
	default:
		tooSmall = w < min && h < min
	}
	if tooSmall {
		e.abortGesture()
		return
	}

	m := e.newMarkup(st.kind)
	switch st.kind {
	case domain.KindLine, domain.KindArrow:
		m.Geometry = domain.LineSeg{Start: st.anchor, End: cur}
	case domain.KindArc:
		m.Geometry = domain.Arc{P1: st.anchor, P2: cur, Bulge: defaultArcBulge}
	case domain.KindCloud:
		r := vector.RectFromCorners(st.anchor, cur)
		m.Geometry = domain.PointSeq{
			Points: []vector.Pt{
				{X: r.X, Y: r.Y},
				{X: r.X + r.W, Y: r.Y},
				{X: r.X + r.W, Y: r.Y + r.H},
				{X: r.X, Y: r.Y + r.H},
			},
			Closed: true,
		}
	case domain.KindCallout:
		r := vector.RectFromCorners(st.anchor, cur)
		leader := vector.Pt{X: math.Max(0, r.X-0.05), Y: r.Y + r.H/2}
		m.Geometry = domain.Box{Start: st.anchor, End: cur, Leader: &leader}
	default:
		m.Geometry = domain.Box{Start: st.anchor, End: cur}
	}
	e.commitNewInGesture(m)

	if m.Kind.TextCapable() {
		e.st = textState{id: m.ID, previous: ""}
	}
}

func (e *Editor) upStroke(st strokeState) {
	b := vector.BoundsOf(st.points)
	sz := e.vp.PagePixel(vector.Pt{X: b.W, Y: b.H})
	if len(st.points) < 2 || (sz.X < e.cfg.MinDrawSizePx && sz.Y < e.cfg.MinDrawSizePx) {
		e.abortGesture()
		return
	}
	m := e.newMarkup(st.kind)
	m.Geometry = domain.PointSeq{Points: st.points}
	e.commitNewInGesture(m)
}

func (e *Editor) downPoly(kind domain.Kind, p vector.Pt, mods Modifiers) {
	st, ok := e.st.(polyState)
	if !ok {
		e.beginGesture()
		e.st = polyState{kind: kind, points: []vector.Pt{p}, cur: p}
		return
	}
	pt := p
	if mods.Shift {
		pt = e.snapAngle(st.points[len(st.points)-1], p)
	}
	if len(st.points) >= 3 && e.pixDist(st.points[0], pt) <= e.cfg.ClosingThresholdPx {
		e.commitPoly(st.kind, st.points, true)
		return
	}
	st.points = append(st.points, pt)
	st.cur = pt
	e.st = st
}

func (e *Editor) commitPoly(kind domain.Kind, pts []vector.Pt, closed bool) {
	if len(pts) < 2 || (closed && len(pts) < 3) {
		e.abortGesture()
		return
	}
	m := e.newMarkup(kind)
	m.Geometry = domain.PointSeq{Points: pts, Closed: closed}
	e.commitNewInGesture(m)
}

// --- handle gestures -------------------------------------------------------

func (e *Editor) beginHandleGesture(id string, h Handle, vtx int, p vector.Pt) {
	i := e.find(id)
	if i < 0 {
		return
	}
	m := e.markups[i]
	if m.ReadOnly {
		return
	}
	e.beginGesture()
	if h == HandleRotate {
		c := e.vp.PagePixel(m.Bounds().Center())
		q := e.vp.PagePixel(p)
		e.st = rotateState{
			id:         id,
			orig:       m.Clone(),
			startAngle: math.Atan2(q.Y-c.Y, q.X-c.X) * 180 / math.Pi,
		}
		return
	}
	e.st = adjustState{id: id, handle: h, vertex: vtx, orig: m.Clone()}
}

func (e *Editor) applyAdjust(st *adjustState, p vector.Pt, mods Modifiers) {
	i := e.find(st.id)
	if i < 0 {
		return
	}
	m := st.orig.Clone()
	local := e.unrotate(p, st.orig)

	switch g := m.Geometry.(type) {
	case domain.Box:
		if st.handle == HandleLeader {
			l := p
			g.Leader = &l
			m.Geometry = g
		} else {
			r := g.Rect()
			minX, minY := r.X, r.Y
			maxX, maxY := r.X+r.W, r.Y+r.H
			midX, midY := r.X+r.W/2, r.Y+r.H/2
			// the grip opposite the dragged one is the resize anchor; its
			// local coordinates never change, so capture it per handle
			var anchor vector.Pt
			switch st.handle {
			case HandleNW:
				anchor = vector.Pt{X: maxX, Y: maxY}
				minX, minY = local.X, local.Y
			case HandleN:
				anchor = vector.Pt{X: midX, Y: maxY}
				minY = local.Y
			case HandleNE:
				anchor = vector.Pt{X: minX, Y: maxY}
				maxX, minY = local.X, local.Y
			case HandleE:
				anchor = vector.Pt{X: minX, Y: midY}
				maxX = local.X
			case HandleSE:
				anchor = vector.Pt{X: minX, Y: minY}
				maxX, maxY = local.X, local.Y
			case HandleS:
				anchor = vector.Pt{X: midX, Y: minY}
				maxY = local.Y
			case HandleSW:
				anchor = vector.Pt{X: maxX, Y: minY}
				minX, maxY = local.X, local.Y
			case HandleW:
				anchor = vector.Pt{X: maxX, Y: midY}
				minX = local.X
			}
			g.Start = vector.Pt{X: minX, Y: minY}
			g.End = vector.Pt{X: maxX, Y: maxY}
			m.Geometry = g
			m = e.pinAnchor(m, st.orig, anchor)
		}
	case domain.LineSeg:
		switch st.handle {
		case HandleStart:
			pt := p
			if mods.Shift {
				pt = e.snapAngle(g.End, p)
			}
			g.Start = pt
		case HandleEnd:
			pt := p
			if mods.Shift {
				pt = e.snapAngle(g.Start, p)
			}
			g.End = pt
		}
		m.Geometry = g
	case domain.Arc:
		switch st.handle {
		case HandleStart:
			g.P1 = p
		case HandleEnd:
			g.P2 = p
		case HandleApex:
			g.Bulge = bulgeFor(g.P1, g.P2, p)
		}
		m.Geometry = g
	case domain.PointSeq:
		if st.handle == HandleVertex && st.vertex >= 0 && st.vertex < len(g.Points) {
			pts := append([]vector.Pt(nil), g.Points...)
			pts[st.vertex] = p
			g.Points = pts
		}
		m.Geometry = g
	case domain.SinglePoint:
		g.P = p
		m.Geometry = g
	}
	m.Modified = true
	e.markups[i] = m
}

// bulgeFor inverts the apex construction: the signed distance from the chord
// to the dragged point, doubled and divided by the chord length.
func bulgeFor(p1, p2, apex vector.Pt) float64 {
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	chord := math.Hypot(dx, dy)
	if chord == 0 {
		return 0
	}
	nx, ny := -dy/chord, dx/chord
	mid := vector.Pt{X: (p1.X + p2.X) / 2, Y: (p1.Y + p2.Y) / 2}
	sagitta := (apex.X-mid.X)*nx + (apex.Y-mid.Y)*ny
	return 2 * sagitta / chord
}

func (e *Editor) applyRotate(st rotateState, p vector.Pt, mods Modifiers) {
	i := e.find(st.id)
	if i < 0 {
		return
	}
	c := e.vp.PagePixel(st.orig.Bounds().Center())
	q := e.vp.PagePixel(p)
	cur := math.Atan2(q.Y-c.Y, q.X-c.X) * 180 / math.Pi
	rot := vector.NormalizeDegrees(st.orig.Style.Rotation + cur - st.startAngle)
	if mods.Shift && e.cfg.RotationSnapDeg > 0 {
		rot = vector.NormalizeDegrees(math.Round(rot/e.cfg.RotationSnapDeg) * e.cfg.RotationSnapDeg)
	}
	m := st.orig.Clone()
	m.Style.Rotation = rot
	m.Modified = true
	e.markups[i] = m
}

// pinAnchor translates a resized markup so the anchor grip keeps its
// pre-resize position in world space. Shape rotation is applied around the
// bounds center, and a resize moves that center; without the compensation the
// whole shape swings around the new center while the user holds the opposite
// grip still.
func (e *Editor) pinAnchor(m, orig domain.Markup, anchor vector.Pt) domain.Markup {
	rot := orig.Style.Rotation
	if rot == 0 {
		return m
	}
	a := e.vp.PagePixel(anchor)
	before := vector.RotatePointAround(a, e.vp.PagePixel(orig.Bounds().Center()), rot)
	after := vector.RotatePointAround(a, e.vp.PagePixel(m.Bounds().Center()), rot)
	d := e.vp.PageNormalized(vector.Pt{X: before.X - after.X, Y: before.Y - after.Y})
	return m.Translate(d.X, d.Y)
}

// unrotate maps a normalized pointer position into the markup's unrotated
// local frame, rotating in pixel space around the original bounds center so
// the transform stays conformal on non-square pages.
func (e *Editor) unrotate(p vector.Pt, m domain.Markup) vector.Pt {
	rot := m.Style.Rotation
	if rot == 0 {
		return p
	}
	c := e.vp.PagePixel(m.Bounds().Center())
	q := vector.RotatePointAround(e.vp.PagePixel(p), c, -rot)
	return e.vp.PageNormalized(q)
}

// --- edit operations -------------------------------------------------------

// Delete removes the selected markups. Read-only markups survive.
func (e *Editor) Delete() {
	if len(e.sel) == 0 {
		return
	}
	e.history.Push(undo.Capture(e.page, e.pageMarkups()))
	kept := e.markups[:0]
	removed := 0
	for _, m := range e.markups {
		if e.isSelected(m.ID) && m.PageIndex == e.page && !m.ReadOnly {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	e.markups = kept
	e.sel = nil
	e.logger.Debug("markups deleted", slog.Int("count", removed), slog.Int("page", e.page))
}

// ApplyStyle restyles the selected markups on the current page. Read-only
// markups are skipped; each markup keeps its own rotation, which lives in the
// style but is a placement property, not an appearance one.
func (e *Editor) ApplyStyle(s domain.Style) {
	if len(e.sel) == 0 {
		return
	}
	var idx []int
	for i, m := range e.markups {
		if e.isSelected(m.ID) && m.PageIndex == e.page && !m.ReadOnly {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return
	}
	e.history.Push(undo.Capture(e.page, e.pageMarkups()))
	for _, i := range idx {
		m := e.markups[i].Clone()
		ns := s
		ns.Rotation = m.Style.Rotation
		m.Style = ns
		m.Modified = true
		e.markups[i] = m
	}
	e.logger.Debug("style applied", slog.Int("count", len(idx)), slog.Int("page", e.page))
}

// CommitText ends the text session with the given content.
func (e *Editor) CommitText(text string) {
	if st, ok := e.st.(textState); ok {
		e.endTextEdit(st, text)
	}
}

// TextEditing returns the markup id of the open text session, if any.
func (e *Editor) TextEditing() (string, bool) {
	st, ok := e.st.(textState)
	return st.id, ok
}

func (e *Editor) endTextEdit(st textState, text string) {
	i := e.find(st.id)
	if i >= 0 && text != st.previous {
		e.markups[i].Text = text
		e.markups[i].Modified = true
		e.commitGesture("text")
		return
	}
	e.pre = nil
	e.st = idleState{}
}

func (e *Editor) textOf(id string) string {
	if i := e.find(id); i >= 0 {
		return e.markups[i].Text
	}
	return ""
}

// Undo restores the previous page state.
func (e *Editor) Undo() bool {
	e.abortGesture()
	s, ok := e.history.Undo(e.page, e.pageMarkups())
	if ok {
		e.replacePage(s.Markups)
	}
	return ok
}

// Redo reapplies the next page state.
func (e *Editor) Redo() bool {
	e.abortGesture()
	s, ok := e.history.Redo(e.page, e.pageMarkups())
	if ok {
		e.replacePage(s.Markups)
	}
	return ok
}

// --- gesture bookkeeping ---------------------------------------------------

func (e *Editor) beginGesture() {
	s := undo.Capture(e.page, e.pageMarkups())
	e.pre = &s
}

// commitGesture pushes the pre-gesture state onto the history and returns to
// idle. The live list already holds the result.
func (e *Editor) commitGesture(op string) {
	if e.pre != nil {
		e.history.Push(*e.pre)
		e.pre = nil
	}
	e.st = idleState{}
	e.logger.Debug("gesture committed", slog.String("op", op), slog.Int("page", e.page))
}

// abortGesture restores the pre-gesture page state and returns to idle.
func (e *Editor) abortGesture() {
	if e.pre != nil {
		e.replacePage(e.pre.Markups)
		e.pre = nil
	}
	e.st = idleState{}
}

func (e *Editor) newMarkup(kind domain.Kind) domain.Markup {
	m := domain.New(kind, e.page, e.doc)
	m.Author = e.author
	m.Style = e.style
	return m
}

// commitNew appends a markup outside of any gesture (single-click kinds).
func (e *Editor) commitNew(m domain.Markup) {
	e.history.Push(undo.Capture(e.page, e.pageMarkups()))
	e.markups = append(e.markups, m)
	e.sel = []string{m.ID}
	e.logger.Debug("markup created", slog.String("kind", string(m.Kind)), slog.String("id", m.ID))
}

// commitNewInGesture appends the drawn markup and closes the open gesture.
func (e *Editor) commitNewInGesture(m domain.Markup) {
	e.markups = append(e.markups, m)
	e.sel = []string{m.ID}
	e.commitGesture("draw " + string(m.Kind))
	e.logger.Debug("markup created", slog.String("kind", string(m.Kind)), slog.String("id", m.ID))
}

// --- queries ---------------------------------------------------------------

// Preview returns the ephemeral markup of an in-flight drawing gesture, for
// rendering only.
func (e *Editor) Preview() (domain.Markup, bool) {
	switch st := e.st.(type) {
	case drawState:
		m := e.newMarkup(st.kind)
		m.ID = "preview"
		switch st.kind {
		case domain.KindLine, domain.KindArrow:
			m.Geometry = domain.LineSeg{Start: st.anchor, End: st.cur}
		case domain.KindArc:
			m.Geometry = domain.Arc{P1: st.anchor, P2: st.cur, Bulge: defaultArcBulge}
		default:
			m.Geometry = domain.Box{Start: st.anchor, End: st.cur}
		}
		return m, true
	case strokeState:
		m := e.newMarkup(st.kind)
		m.ID = "preview"
		m.Geometry = domain.PointSeq{Points: st.points}
		return m, true
	case polyState:
		m := e.newMarkup(st.kind)
		m.ID = "preview"
		m.Geometry = domain.PointSeq{Points: append(append([]vector.Pt(nil), st.points...), st.cur)}
		return m, true
	}
	return domain.Markup{}, false
}

func (e *Editor) hitOpts() hittest.Options {
	return hittest.Options{TolerancePx: e.cfg.HitTolerancePx}
}

func (e *Editor) pixDist(a, b vector.Pt) float64 {
	return vector.Dist(e.vp.PagePixel(a), e.vp.PagePixel(b))
}

// snapAngle constrains p to 45° increments around anchor. The snap runs in
// the page-pixel frame: on a non-square page the normalized axes have
// different scales and a snap taken there would skew the angles on screen.
func (e *Editor) snapAngle(anchor, p vector.Pt) vector.Pt {
	return e.vp.PageNormalized(vector.SnapAngle(e.vp.PagePixel(anchor), e.vp.PagePixel(p), angleSnapDeg))
}

func (e *Editor) find(id string) int {
	for i := range e.markups {
		if e.markups[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) isSelected(id string) bool {
	for _, s := range e.sel {
		if s == id {
			return true
		}
	}
	return false
}

func (e *Editor) toggleSelect(id string) {
	for i, s := range e.sel {
		if s == id {
			e.sel = append(e.sel[:i], e.sel[i+1:]...)
			return
		}
	}
	e.sel = append(e.sel, id)
}

func (e *Editor) pruneSelection() {
	kept := e.sel[:0]
	for _, id := range e.sel {
		if e.find(id) >= 0 {
			kept = append(kept, id)
		}
	}
	e.sel = kept
}

func (e *Editor) pageMarkups() []domain.Markup {
	var out []domain.Markup
	for _, m := range e.markups {
		if m.PageIndex == e.page {
			out = append(out, m)
		}
	}
	return out
}

// replacePage swaps the current page's markups for the given set, leaving
// other pages untouched.
func (e *Editor) replacePage(ms []domain.Markup) {
	var out []domain.Markup
	for _, m := range e.markups {
		if m.PageIndex != e.page {
			out = append(out, m)
		}
	}
	out = append(out, domain.ClonePage(ms)...)
	e.markups = out
	e.pruneSelection()
}
