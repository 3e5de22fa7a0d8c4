/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package interact runs the pointer interaction state machine: tool-driven
// drawing, selection, dragging, handle-based resize/rotate, vertex and text
// editing. The machine is an explicit tagged union of gesture states; every
// pointer event either stays in the current state or moves to exactly one
// other, so no gesture can observe half of another gesture's bookkeeping.
//
// All pointer input arrives in display pixels and is converted once at the
// boundary; everything the machine stores is normalized unrotated document
// space.
package interact

import (
	"redline/internal/domain"
	"redline/internal/vector"
)

// Tool is the active drawing or selection mode.
type Tool string

const (
	ToolSelect        Tool = "select"
	ToolPen           Tool = "pen"
	ToolHighlighter   Tool = "highlighter"
	ToolLine          Tool = "line"
	ToolArrow         Tool = "arrow"
	ToolRect          Tool = "rectangle"
	ToolCircle        Tool = "circle"
	ToolArc           Tool = "arc"
	ToolCloud         Tool = "cloud"
	ToolPolyline      Tool = "polyline"
	ToolPolylineArrow Tool = "polylineArrow"
	ToolCloudPolyline Tool = "cloudPolyline"
	ToolPolygon       Tool = "polygon"
	ToolText          Tool = "text"
	ToolCallout       Tool = "callout"
	ToolNote          Tool = "note"
	ToolCaret         Tool = "caret"
)

// Kind returns the markup kind the tool produces, or "" for the select tool.
func (t Tool) Kind() domain.Kind {
	switch t {
	case ToolPen:
		return domain.KindPen
	case ToolHighlighter:
		return domain.KindHighlighter
	case ToolLine:
		return domain.KindLine
	case ToolArrow:
		return domain.KindArrow
	case ToolRect:
		return domain.KindRect
	case ToolCircle:
		return domain.KindCircle
	case ToolArc:
		return domain.KindArc
	case ToolCloud:
		return domain.KindCloud
	case ToolPolyline:
		return domain.KindPolyline
	case ToolPolylineArrow:
		return domain.KindPolylineArrow
	case ToolCloudPolyline:
		return domain.KindCloudPolyline
	case ToolPolygon:
		return domain.KindPolygon
	case ToolText:
		return domain.KindText
	case ToolCallout:
		return domain.KindCallout
	case ToolNote:
		return domain.KindNote
	case ToolCaret:
		return domain.KindCaret
	default:
		return ""
	}
}

// Modifiers are the keyboard modifiers active during a pointer event.
type Modifiers struct {
	Shift bool
	Ctrl  bool
}

// Handle identifies a grip on a selected markup.
type Handle uint8

const (
	HandleNone Handle = iota
	HandleBody
	HandleNW
	HandleN
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
	HandleStart // line/arc first endpoint
	HandleEnd   // line/arc second endpoint
	HandleApex  // arc bulge grip
	HandleVertex
	HandleRotate
	HandleLeader // callout leader anchor
)

// boxHandles in clockwise order from the top-left corner.
var boxHandles = [8]Handle{HandleNW, HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW}

// state is the gesture tagged union. Exactly one concrete state is live at a
// time; Editor.state never holds nil, the quiet state is idleState.
type state interface{ isState() }

type idleState struct{}

// drawState covers all press-drag-release shapes: boxes, lines, arcs, clouds.
type drawState struct {
	kind   domain.Kind
	anchor vector.Pt // normalized press position
	cur    vector.Pt
}

// strokeState accumulates freehand pen/highlighter points while the button
// is held.
type strokeState struct {
	kind   domain.Kind
	points []vector.Pt
}

// polyState accumulates click-placed polyline vertices across multiple
// press/release pairs until the outline closes or a double-click commits it.
type polyState struct {
	kind   domain.Kind
	points []vector.Pt
	cur    vector.Pt
}

// dragState moves the whole selection. Geometry is recomputed from the
// pre-gesture originals plus the cumulative delta on every move, so pixel
// rounding cannot accumulate drift.
type dragState struct {
	grabbed string // id under the pointer at press
	// wasSelected records whether the grabbed markup was already selected at
	// press time; only then does a motionless click toggle it out.
	wasSelected bool
	origs       map[string]domain.Markup
	start       vector.Pt
	moved       bool
}

// adjustState covers every single-markup handle gesture: resize, endpoint
// and apex moves, vertex edits and the leader grip.
type adjustState struct {
	id     string
	handle Handle
	vertex int // meaningful for HandleVertex
	orig   domain.Markup
	moved  bool
}

// rotateState spins a markup around its bounds center.
type rotateState struct {
	id         string
	orig       domain.Markup
	startAngle float64 // pointer angle at press, degrees
	moved      bool
}

// bandState rubber-band selects by bounds intersection.
type bandState struct {
	start vector.Pt
	cur   vector.Pt
	keep  bool // additive (ctrl held at press)
}

// textState is an open inline text editing session.
type textState struct {
	id       string
	previous string
}

func (idleState) isState()   {}
func (drawState) isState()   {}
func (strokeState) isState() {}
func (polyState) isState()   {}
func (dragState) isState()   {}
func (adjustState) isState() {}
func (rotateState) isState() {}
func (bandState) isState()   {}
func (textState) isState()   {}
