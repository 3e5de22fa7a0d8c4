/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"math"
	"testing"
	"time"

	"redline/internal/config"
	"redline/internal/domain"
	"redline/internal/undo"
	"redline/internal/vector"
)

func newTestEditor() *Editor {
	e := NewEditor(config.InteractionConfig{}, undo.NewManager(undo.Config{MinInterval: time.Nanosecond}))
	e.SetViewport(vector.Viewport{PageWidth: 1000, PageHeight: 1000, Zoom: 1})
	return e
}

func pt(x, y float64) vector.Pt { return vector.Pt{X: x, Y: y} }

func click(e *Editor, x, y float64) {
	e.PointerDown(pt(x, y), Modifiers{})
	e.PointerUp(pt(x, y), Modifiers{})
}

func drag(e *Editor, x0, y0, x1, y1 float64) {
	e.PointerDown(pt(x0, y0), Modifiers{})
	e.PointerMove(pt(x1, y1), Modifiers{})
	e.PointerUp(pt(x1, y1), Modifiers{})
}

func filledRect(id string, x0, y0, x1, y1 float64) domain.Markup {
	return domain.Markup{
		ID:       id,
		Kind:     domain.KindRect,
		Style:    domain.Style{FillColor: "#aabbcc"},
		Geometry: domain.Box{Start: pt(x0, y0), End: pt(x1, y1)},
	}
}

func TestDrawRectangle(t *testing.T) {
	e := newTestEditor()
	e.SetDocument("plan.pdf", nil)
	e.SetAuthor("kai")
	e.SetTool(ToolRect)
	drag(e, 100, 100, 300, 300)

	ms := e.Markups()
	if len(ms) != 1 {
		t.Fatalf("expected one markup, got %d", len(ms))
	}
	m := ms[0]
	if m.Kind != domain.KindRect || m.ID == "" || m.Document != "plan.pdf" || m.Author != "kai" || m.CreatedAt.IsZero() {
		t.Fatalf("envelope wrong: %+v", m)
	}
	g := m.Geometry.(domain.Box)
	if g.Start != pt(0.1, 0.1) || g.End != pt(0.3, 0.3) {
		t.Fatalf("geometry wrong: %+v", g)
	}
	if len(e.Selection()) != 1 || e.Selection()[0] != m.ID {
		t.Fatalf("drawn markup should be selected")
	}
	if !e.Undo() || len(e.Markups()) != 0 {
		t.Fatalf("undo should remove the drawn markup")
	}
	if !e.Redo() || len(e.Markups()) != 1 {
		t.Fatalf("redo should restore it")
	}
}

func TestTinyDrawDiscarded(t *testing.T) {
	e := newTestEditor()
	e.SetTool(ToolRect)
	drag(e, 200, 200, 202, 202)
	if len(e.Markups()) != 0 {
		t.Fatalf("a sub-threshold drag must not create a markup")
	}
	if e.Undo() {
		t.Fatalf("no history entry for a discarded draw")
	}
}

func TestNotePlacedOnSingleClick(t *testing.T) {
	e := newTestEditor()
	e.SetTool(ToolNote)
	click(e, 500, 400)
	ms := e.Markups()
	if len(ms) != 1 || ms[0].Kind != domain.KindNote {
		t.Fatalf("expected a note, got %+v", ms)
	}
	if g := ms[0].Geometry.(domain.SinglePoint); g.P != pt(0.5, 0.4) {
		t.Fatalf("anchor wrong: %+v", g.P)
	}
}

func TestPenStroke(t *testing.T) {
	e := newTestEditor()
	e.SetTool(ToolPen)
	e.PointerDown(pt(100, 100), Modifiers{})
	e.PointerMove(pt(150, 120), Modifiers{})
	e.PointerMove(pt(200, 180), Modifiers{})
	e.PointerUp(pt(200, 180), Modifiers{})

	ms := e.Markups()
	if len(ms) != 1 {
		t.Fatalf("expected one stroke, got %d", len(ms))
	}
	g := ms[0].Geometry.(domain.PointSeq)
	if len(g.Points) != 3 || g.Closed {
		t.Fatalf("stroke wrong: %+v", g)
	}
}

func TestShiftSnapsLineAngle(t *testing.T) {
	e := newTestEditor()
	e.SetTool(ToolLine)
	e.PointerDown(pt(100, 100), Modifiers{})
	e.PointerMove(pt(300, 110), Modifiers{Shift: true})
	e.PointerUp(pt(300, 110), Modifiers{Shift: true})

	g := e.Markups()[0].Geometry.(domain.LineSeg)
	if math.Abs(g.End.Y-0.1) > 1e-9 {
		t.Fatalf("shift should snap to the horizontal, got %+v", g.End)
	}
}

func TestPolylineClosesNearFirstVertex(t *testing.T) {
	e := newTestEditor()
	e.SetTool(ToolPolyline)
	click(e, 100, 100)
	click(e, 300, 100)
	click(e, 300, 300)
	click(e, 105, 105) // within the 15px closing threshold of the first vertex

	ms := e.Markups()
	if len(ms) != 1 {
		t.Fatalf("expected a committed polyline, got %d markups", len(ms))
	}
	g := ms[0].Geometry.(domain.PointSeq)
	if !g.Closed || len(g.Points) != 3 {
		t.Fatalf("expected a closed 3-vertex outline, got %+v", g)
	}
}

func TestPolylineDoubleClickCommitsOpen(t *testing.T) {
	e := newTestEditor()
	e.SetTool(ToolPolyline)
	click(e, 100, 100)
	click(e, 300, 100)
	click(e, 300, 300)
	// the second press of the double-click lands as a duplicate vertex
	click(e, 300, 300)
	e.DoubleClick(pt(300, 300), Modifiers{})

	ms := e.Markups()
	if len(ms) != 1 {
		t.Fatalf("expected a committed polyline, got %d markups", len(ms))
	}
	g := ms[0].Geometry.(domain.PointSeq)
	if g.Closed || len(g.Points) != 3 {
		t.Fatalf("expected an open 3-vertex polyline, got %+v", g)
	}
}

func TestEscapeAbortsPolyline(t *testing.T) {
	e := newTestEditor()
	e.SetTool(ToolPolyline)
	click(e, 100, 100)
	click(e, 300, 100)
	e.Escape()
	if len(e.Markups()) != 0 {
		t.Fatalf("escape must discard the unfinished polyline")
	}
}

func TestClickSelectsThenDragMoves(t *testing.T) {
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{filledRect("r1", 0.1, 0.1, 0.3, 0.3)})
	click(e, 200, 200)
	if sel := e.Selection(); len(sel) != 1 || sel[0] != "r1" {
		t.Fatalf("click should select, got %v", sel)
	}

	drag(e, 200, 200, 250, 260)
	g := e.Markups()[0].Geometry.(domain.Box)
	if math.Abs(g.Start.X-0.15) > 1e-9 || math.Abs(g.Start.Y-0.16) > 1e-9 {
		t.Fatalf("drag delta wrong: %+v", g)
	}
	if !e.Markups()[0].Modified {
		t.Fatalf("moved markup must be flagged modified")
	}
	if !e.Undo() {
		t.Fatalf("drag must be undoable")
	}
	g = e.Markups()[0].Geometry.(domain.Box)
	if g.Start != pt(0.1, 0.1) {
		t.Fatalf("undo should restore the original position, got %+v", g)
	}
}

func TestMotionlessClickTogglesOffSelected(t *testing.T) {
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{filledRect("r1", 0.1, 0.1, 0.3, 0.3)})
	click(e, 200, 200)
	click(e, 200, 200)
	if sel := e.Selection(); len(sel) != 0 {
		t.Fatalf("second motionless click should deselect, got %v", sel)
	}
}

func TestCtrlClickExtendsSelection(t *testing.T) {
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{
		filledRect("a", 0.1, 0.1, 0.2, 0.2),
		filledRect("b", 0.5, 0.5, 0.6, 0.6),
	})
	click(e, 150, 150)
	e.PointerDown(pt(550, 550), Modifiers{Ctrl: true})
	e.PointerUp(pt(550, 550), Modifiers{Ctrl: true})
	if sel := e.Selection(); len(sel) != 2 {
		t.Fatalf("ctrl-click should extend the selection, got %v", sel)
	}
}

func TestRubberBandSelectsByBounds(t *testing.T) {
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{
		filledRect("a", 0.1, 0.1, 0.2, 0.2),
		filledRect("b", 0.15, 0.15, 0.25, 0.25),
		filledRect("c", 0.7, 0.7, 0.8, 0.8),
	})
	drag(e, 50, 50, 300, 300)
	if sel := e.Selection(); len(sel) != 2 {
		t.Fatalf("band should select the two overlapping rects, got %v", sel)
	}
}

func TestResizeEastHandle(t *testing.T) {
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{filledRect("r1", 0.1, 0.1, 0.3, 0.3)})
	click(e, 200, 200)
	// east grip sits at the right-edge midpoint (300,200)
	drag(e, 300, 200, 400, 200)

	g := e.Markups()[0].Geometry.(domain.Box)
	r := g.Rect()
	if math.Abs(r.X+r.W-0.4) > 1e-9 || math.Abs(r.X-0.1) > 1e-9 {
		t.Fatalf("east resize wrong: %+v", r)
	}
}

func TestResizeRotatedRectKeepsAnchorFixed(t *testing.T) {
	m := filledRect("r1", 0.2, 0.2, 0.6, 0.4)
	m.Style.Rotation = 30
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{m})
	click(e, 400, 300) // bounds center, inside however the shape is rotated

	vp := e.Viewport()
	c := vp.PagePixel(pt(0.4, 0.3))
	se := vector.RotatePointAround(vp.PagePixel(pt(0.6, 0.4)), c, 30)
	nwBefore := vector.RotatePointAround(vp.PagePixel(pt(0.2, 0.2)), c, 30)

	drag(e, se.X, se.Y, se.X+80, se.Y+50)

	got := e.Markups()[0]
	r := got.Geometry.(domain.Box).Rect()
	c2 := vp.PagePixel(got.Bounds().Center())
	nwAfter := vector.RotatePointAround(vp.PagePixel(pt(r.X, r.Y)), c2, 30)
	if math.Abs(nwAfter.X-nwBefore.X) > 1e-6 || math.Abs(nwAfter.Y-nwBefore.Y) > 1e-6 {
		t.Fatalf("opposite corner drifted during rotated resize: %+v -> %+v", nwBefore, nwAfter)
	}
	if r.W <= 0.4 {
		t.Fatalf("south-east drag should have grown the rect, got %+v", r)
	}
}

func TestSubSlopWiggleIsAClick(t *testing.T) {
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{filledRect("r1", 0.2, 0.2, 0.4, 0.4)})
	click(e, 300, 300)

	// 2px of motion stays under the drag slop; this is still a click
	e.PointerDown(pt(300, 300), Modifiers{})
	e.PointerMove(pt(302, 300), Modifiers{})
	e.PointerUp(pt(302, 300), Modifiers{})

	got := e.Markups()[0]
	if g := got.Geometry.(domain.Box); g.Start != pt(0.2, 0.2) {
		t.Fatalf("sub-slop wiggle must not move the markup, got %+v", g)
	}
	if got.Modified {
		t.Fatalf("sub-slop wiggle must not flag the markup modified")
	}
	if sel := e.Selection(); len(sel) != 0 {
		t.Fatalf("motionless click on a selected markup should deselect, got %v", sel)
	}
	if e.Undo() {
		t.Fatalf("a click must not leave a history entry")
	}
}

func TestShiftSnapIsScreenTrueOnNonSquarePage(t *testing.T) {
	e := newTestEditor()
	e.SetViewport(vector.Viewport{PageWidth: 612, PageHeight: 792, Zoom: 1})
	e.SetTool(ToolLine)
	// toward screen-diagonal on a page whose axes scale differently
	e.PointerDown(pt(100, 100), Modifiers{})
	e.PointerMove(pt(300, 310), Modifiers{Shift: true})
	e.PointerUp(pt(300, 310), Modifiers{Shift: true})

	g := e.Markups()[0].Geometry.(domain.LineSeg)
	a := e.Viewport().PagePixel(g.Start)
	b := e.Viewport().PagePixel(g.End)
	dx, dy := b.X-a.X, b.Y-a.Y
	if dx <= 0 || dy <= 0 || math.Abs(dx-dy) > 1e-6 {
		t.Fatalf("shift should snap to 45° on screen, got pixel delta (%g,%g)", dx, dy)
	}
}

func TestRotateHandle(t *testing.T) {
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{filledRect("r1", 0.1, 0.1, 0.3, 0.3)})
	click(e, 200, 200)
	// rotate grip sits 20px above the top-center grip (200,100)
	drag(e, 200, 80, 320, 200)

	rot := e.Markups()[0].Style.Rotation
	if math.Abs(rot-90) > 1e-6 {
		t.Fatalf("expected 90° rotation, got %g", rot)
	}
}

func TestVertexEdit(t *testing.T) {
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{{
		ID:       "p1",
		Kind:     domain.KindPolyline,
		Geometry: domain.PointSeq{Points: []vector.Pt{pt(0.1, 0.1), pt(0.3, 0.1), pt(0.3, 0.3)}},
	}})
	click(e, 200, 100) // on the first segment
	drag(e, 100, 100, 150, 150)

	g := e.Markups()[0].Geometry.(domain.PointSeq)
	if g.Points[0] != pt(0.15, 0.15) {
		t.Fatalf("vertex not moved: %+v", g.Points)
	}
}

func TestArcApexAdjustsBulge(t *testing.T) {
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{{
		ID:       "a1",
		Kind:     domain.KindArc,
		Geometry: domain.Arc{P1: pt(0.2, 0.5), P2: pt(0.6, 0.5), Bulge: 0.5},
	}})
	click(e, 400, 550) // on the arc body
	// apex grip at (400,600); drag it to the other side of the chord
	drag(e, 400, 600, 400, 400)

	g := e.Markups()[0].Geometry.(domain.Arc)
	if math.Abs(g.Bulge+0.5) > 1e-9 {
		t.Fatalf("expected bulge -0.5, got %g", g.Bulge)
	}
}

func TestEscapeAbortsDrag(t *testing.T) {
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{filledRect("r1", 0.1, 0.1, 0.3, 0.3)})
	click(e, 200, 200)
	e.PointerDown(pt(200, 200), Modifiers{})
	e.PointerMove(pt(300, 300), Modifiers{})
	e.Escape()

	g := e.Markups()[0].Geometry.(domain.Box)
	if g.Start != pt(0.1, 0.1) {
		t.Fatalf("escape must restore the pre-drag geometry, got %+v", g)
	}
	if e.Undo() {
		t.Fatalf("an aborted gesture must not leave a history entry")
	}
}

func TestReadOnlyMarkupsKeepPosition(t *testing.T) {
	ro := filledRect("ext", 0.1, 0.1, 0.3, 0.3)
	ro.ReadOnly = true
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{ro})
	click(e, 200, 200)
	drag(e, 200, 200, 300, 300)
	if g := e.Markups()[0].Geometry.(domain.Box); g.Start != pt(0.1, 0.1) {
		t.Fatalf("read-only markup must not move, got %+v", g)
	}

	e.Delete()
	if len(e.Markups()) != 1 {
		t.Fatalf("read-only markup must survive delete")
	}
}

func TestDeleteSelection(t *testing.T) {
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{
		filledRect("a", 0.1, 0.1, 0.2, 0.2),
		filledRect("b", 0.5, 0.5, 0.6, 0.6),
	})
	click(e, 150, 150)
	e.Delete()
	ms := e.Markups()
	if len(ms) != 1 || ms[0].ID != "b" {
		t.Fatalf("delete wrong: %+v", ms)
	}
	if !e.Undo() || len(e.Markups()) != 2 {
		t.Fatalf("delete must be undoable")
	}
}

func TestApplyStyleRestylesSelection(t *testing.T) {
	a := filledRect("a", 0.1, 0.1, 0.2, 0.2)
	a.Style.Rotation = 30
	ro := filledRect("ext", 0.5, 0.5, 0.6, 0.6)
	ro.ReadOnly = true
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{a, ro})
	click(e, 150, 150)
	e.PointerDown(pt(550, 550), Modifiers{Ctrl: true})
	e.PointerUp(pt(550, 550), Modifiers{Ctrl: true})
	if len(e.Selection()) != 2 {
		t.Fatalf("both markups should be selected")
	}

	e.ApplyStyle(domain.Style{Color: "#00ff00", StrokeWidth: 3, FillColor: "none"})

	got := e.Markups()[0]
	if got.Style.Color != "#00ff00" || got.Style.StrokeWidth != 3 || !got.Modified {
		t.Fatalf("style not applied: %+v", got.Style)
	}
	if got.Style.Rotation != 30 {
		t.Fatalf("restyling must keep the markup's rotation, got %g", got.Style.Rotation)
	}
	if e.Markups()[1].Style.FillColor != "#aabbcc" {
		t.Fatalf("read-only markup must keep its style: %+v", e.Markups()[1].Style)
	}
	if !e.Undo() || e.Markups()[0].Style.FillColor != "#aabbcc" {
		t.Fatalf("style edit must be undoable, got %+v", e.Markups()[0].Style)
	}
}

func TestTextEditing(t *testing.T) {
	e := newTestEditor()
	tm := domain.Markup{
		ID:       "t1",
		Kind:     domain.KindText,
		Text:     "before",
		Geometry: domain.Box{Start: pt(0.1, 0.1), End: pt(0.4, 0.2)},
	}
	e.SetMarkups([]domain.Markup{tm})

	e.DoubleClick(pt(200, 150), Modifiers{})
	if id, ok := e.TextEditing(); !ok || id != "t1" {
		t.Fatalf("double-click should open a text session, got %q %v", id, ok)
	}
	e.CommitText("after")
	if e.Markups()[0].Text != "after" {
		t.Fatalf("commit did not apply")
	}
	if !e.Undo() || e.Markups()[0].Text != "before" {
		t.Fatalf("text edit must be undoable")
	}
}

func TestTextEscapeRestores(t *testing.T) {
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{{
		ID:       "t1",
		Kind:     domain.KindText,
		Text:     "keep",
		Geometry: domain.Box{Start: pt(0.1, 0.1), End: pt(0.4, 0.2)},
	}})
	e.DoubleClick(pt(200, 150), Modifiers{})
	e.Escape()
	if _, ok := e.TextEditing(); ok {
		t.Fatalf("escape should close the session")
	}
	if e.Markups()[0].Text != "keep" {
		t.Fatalf("escape must not change the text")
	}
}

func TestCopyPaste(t *testing.T) {
	e := newTestEditor()
	e.SetDocument("plan.pdf", []domain.Markup{filledRect("a", 0.1, 0.1, 0.2, 0.2)})
	click(e, 150, 150)
	if n := e.Copy(); n != 1 {
		t.Fatalf("copy count %d", n)
	}
	if n := e.Paste(); n != 1 {
		t.Fatalf("paste count %d", n)
	}
	ms := e.Markups()
	if len(ms) != 2 {
		t.Fatalf("expected 2 markups, got %d", len(ms))
	}
	cp := ms[1]
	if cp.ID == "a" || cp.ID == "" {
		t.Fatalf("paste must mint a fresh id, got %q", cp.ID)
	}
	g := cp.Geometry.(domain.Box)
	if math.Abs(g.Start.X-0.112) > 1e-9 {
		t.Fatalf("paste offset wrong: %+v", g.Start)
	}
	if sel := e.Selection(); len(sel) != 1 || sel[0] != cp.ID {
		t.Fatalf("pasted markup should be selected, got %v", sel)
	}
}

func TestViewportChangeAbortsGesture(t *testing.T) {
	e := newTestEditor()
	e.SetTool(ToolRect)
	e.PointerDown(pt(100, 100), Modifiers{})
	e.PointerMove(pt(300, 300), Modifiers{})
	e.SetViewport(vector.Viewport{PageWidth: 1000, PageHeight: 1000, Zoom: 2})
	e.PointerUp(pt(300, 300), Modifiers{})
	if len(e.Markups()) != 0 {
		t.Fatalf("zoom change mid-gesture must abort the draw")
	}
}

func TestSetMarkupsPrunesStaleSelection(t *testing.T) {
	e := newTestEditor()
	e.SetMarkups([]domain.Markup{filledRect("a", 0.1, 0.1, 0.2, 0.2)})
	click(e, 150, 150)
	e.SetMarkups([]domain.Markup{filledRect("b", 0.5, 0.5, 0.6, 0.6)})
	if sel := e.Selection(); len(sel) != 0 {
		t.Fatalf("selection must drop ids that no longer exist, got %v", sel)
	}
}

func TestDrawOnRotatedViewport(t *testing.T) {
	e := newTestEditor()
	e.SetViewport(vector.Viewport{PageWidth: 1000, PageHeight: 1000, Zoom: 1, Rotation: 90})
	e.SetTool(ToolRect)
	// display (700,100)-(900,300) maps back to stored corners (0.1,0.3)/(0.3,0.1)
	drag(e, 700, 100, 900, 300)
	g := e.Markups()[0].Geometry.(domain.Box)
	r := g.Rect()
	want := vector.Rect{X: 0.1, Y: 0.1, W: 0.2, H: 0.2}
	if math.Abs(r.X-want.X) > 1e-9 || math.Abs(r.Y-want.Y) > 1e-9 || math.Abs(r.W-want.W) > 1e-9 {
		t.Fatalf("stored geometry %+v, want %+v", r, want)
	}
}
