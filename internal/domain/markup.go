/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the markup data model: one persisted annotation instance
// overlaid on a rendered document page. All geometry is stored in normalized
// unrotated document space — each coordinate is a fraction in [0,1] of the
// page's unrotated width/height. Viewport rotation and zoom are applied only
// at the rendering/hit-testing boundary; the stored model never mutates when
// the display changes.

import (
	"time"

	"github.com/google/uuid"

	"redline/internal/vector"
)

// Kind is the markup type discriminant. The set is closed; every consumer
// (hit-test, render, transform) switches exhaustively over the geometry
// family derived from it.
type Kind string

const (
	KindPen           Kind = "pen"
	KindHighlighter   Kind = "highlighter"
	KindLine          Kind = "line"
	KindArrow         Kind = "arrow"
	KindRect          Kind = "rectangle"
	KindCircle        Kind = "circle"
	KindArc           Kind = "arc"
	KindCloud         Kind = "cloud"
	KindPolyline      Kind = "polyline"
	KindPolylineArrow Kind = "polylineArrow"
	KindCloudPolyline Kind = "cloudPolyline"
	KindPolygon       Kind = "polygon"
	KindText          Kind = "text"
	KindCallout       Kind = "callout"
	KindNote          Kind = "note"
	KindCaret         Kind = "caret"
	KindImage         Kind = "image"
	KindSymbol        Kind = "symbol"
	KindStamp         Kind = "stamp"
)

// Family groups kinds by geometry payload shape.
type Family uint8

const (
	FamilyNone   Family = iota
	FamilyBox           // two-point box: rectangle, circle, text, callout, image, symbol, stamp
	FamilyLine          // two-point line: line, arrow
	FamilyArc           // three-point arc: chord + bulge
	FamilyPoints        // point sequence: pen, highlighter, polylines, clouds, polygon
	FamilyPoint         // single point: note, caret
)

// Family returns the geometry family for the kind, or FamilyNone for an
// unknown discriminant (externally authored types we cannot edit).
func (k Kind) Family() Family {
	switch k {
	case KindRect, KindCircle, KindText, KindCallout, KindImage, KindSymbol, KindStamp:
		return FamilyBox
	case KindLine, KindArrow:
		return FamilyLine
	case KindArc:
		return FamilyArc
	case KindPen, KindHighlighter, KindCloud, KindPolyline, KindPolylineArrow, KindCloudPolyline, KindPolygon:
		return FamilyPoints
	case KindNote, KindCaret:
		return FamilyPoint
	default:
		return FamilyNone
	}
}

// Closable reports whether the kind participates in the polyline
// accumulate-and-close interaction.
func (k Kind) Closable() bool {
	return k == KindPolyline || k == KindPolylineArrow || k == KindCloudPolyline
}

// TextCapable reports whether double-click opens inline text editing.
func (k Kind) TextCapable() bool {
	return k == KindText || k == KindCallout || k == KindNote
}

// Markup is one annotation instance. Base envelope plus a family-specific
// geometry payload and optional stroke/appearance attributes.
type Markup struct {
	ID        string
	Kind      Kind
	PageIndex int
	Document  string
	CreatedAt time.Time
	Author    string

	// External marks annotations originally authored outside this engine
	// (imported from the document or a detector). They become editable only
	// after adoption.
	External bool
	Modified bool
	ReadOnly bool

	Text  string // content for text-capable kinds
	Style Style

	// Geometry is nil for malformed markups; such markups never hit and
	// render to nothing rather than failing.
	Geometry Geometry
}

// NewID returns a fresh opaque markup identifier.
func NewID() string { return uuid.NewString() }

// New creates a markup envelope with a fresh id and creation timestamp.
func New(kind Kind, pageIndex int, document string) Markup {
	return Markup{
		ID:        NewID(),
		Kind:      kind,
		PageIndex: pageIndex,
		Document:  document,
		CreatedAt: time.Now().UTC(),
	}
}

// Valid reports whether the markup carries a geometry payload matching its
// kind's family. Consumers treat invalid markups as a no-match.
func (m Markup) Valid() bool {
	if m.Geometry == nil {
		return false
	}
	if m.Kind.Family() != m.Geometry.Family() {
		return false
	}
	return m.Geometry.valid()
}

// Bounds returns the unrotated normalized bounding box, or the zero rect for
// malformed geometry.
func (m Markup) Bounds() vector.Rect {
	if m.Geometry == nil {
		return vector.Rect{}
	}
	return m.Geometry.Bounds()
}

// Clone returns a deep copy.
func (m Markup) Clone() Markup {
	c := m
	if m.Geometry != nil {
		c.Geometry = m.Geometry.Clone()
	}
	return c
}

// Translate returns a copy moved by (dx,dy) in normalized space and flagged
// modified. Read-only markups are returned unchanged.
func (m Markup) Translate(dx, dy float64) Markup {
	if m.ReadOnly || m.Geometry == nil {
		return m
	}
	c := m
	c.Geometry = m.Geometry.Map(func(p vector.Pt) vector.Pt {
		return vector.Pt{X: p.X + dx, Y: p.Y + dy}
	})
	c.Modified = true
	return c
}

// ClonePage deep-copies a page collection; the undo history snapshots
// through this.
func ClonePage(markups []Markup) []Markup {
	if markups == nil {
		return nil
	}
	out := make([]Markup, len(markups))
	for i, m := range markups {
		out[i] = m.Clone()
	}
	return out
}
