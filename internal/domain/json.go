/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Persistence contract: markups serialize to a flat JSON object with a "type"
// discriminant and the geometry fields of the kind's family. Unmarshalling is
// lenient — a markup missing required coordinates for its type decodes with a
// nil geometry and simply never hits or renders.

import (
	"encoding/json"
	"time"

	"redline/internal/vector"
)

// flatMarkup is the wire form. Pointers distinguish absent fields from valid
// zero coordinates.
type flatMarkup struct {
	ID        string    `json:"id"`
	Type      Kind      `json:"type"`
	PageIndex int       `json:"pageIndex"`
	Document  string    `json:"documentIdentifier,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	Author    string    `json:"author,omitempty"`
	External  bool      `json:"fromExternalSource,omitempty"`
	Modified  bool      `json:"modified,omitempty"`
	ReadOnly  bool      `json:"readOnly,omitempty"`
	Text      string    `json:"text,omitempty"`

	Color         string    `json:"color,omitempty"`
	StrokeWidth   float64   `json:"strokeWidth,omitempty"`
	StrokeOpacity float64   `json:"strokeOpacity,omitempty"`
	FillColor     string    `json:"fillColor,omitempty"`
	FillOpacity   float64   `json:"fillOpacity,omitempty"`
	LineStyle     LineStyle `json:"lineStyle,omitempty"`
	Rotation      float64   `json:"rotationDegrees,omitempty"`

	// two-point box / two-point line
	StartX *float64 `json:"startX,omitempty"`
	StartY *float64 `json:"startY,omitempty"`
	EndX   *float64 `json:"endX,omitempty"`
	EndY   *float64 `json:"endY,omitempty"`

	ArrowHeadSize float64  `json:"arrowHeadSize,omitempty"`
	LeaderX       *float64 `json:"leaderX,omitempty"`
	LeaderY       *float64 `json:"leaderY,omitempty"`

	// three-point arc
	Point1X  *float64 `json:"point1X,omitempty"`
	Point1Y  *float64 `json:"point1Y,omitempty"`
	Point2X  *float64 `json:"point2X,omitempty"`
	Point2Y  *float64 `json:"point2Y,omitempty"`
	ArcBulge *float64 `json:"arcBulge,omitempty"`

	// point sequence
	Points    []vector.Pt `json:"points,omitempty"`
	Closed    bool        `json:"closed,omitempty"`
	ArcSize   float64     `json:"arcSize,omitempty"`
	Intensity float64     `json:"intensity,omitempty"`
	Inverted  bool        `json:"inverted,omitempty"`

	// single point
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

func fptr(v float64) *float64 { return &v }

// MarshalJSON flattens the envelope, style and geometry payload.
func (m Markup) MarshalJSON() ([]byte, error) {
	f := flatMarkup{
		ID:        m.ID,
		Type:      m.Kind,
		PageIndex: m.PageIndex,
		Document:  m.Document,
		CreatedAt: m.CreatedAt,
		Author:    m.Author,
		External:  m.External,
		Modified:  m.Modified,
		ReadOnly:  m.ReadOnly,
		Text:      m.Text,

		Color:         m.Style.Color,
		StrokeWidth:   m.Style.StrokeWidth,
		StrokeOpacity: m.Style.StrokeOpacity,
		FillColor:     m.Style.FillColor,
		FillOpacity:   m.Style.FillOpacity,
		LineStyle:     m.Style.LineStyle,
		Rotation:      m.Style.Rotation,
	}
	switch g := m.Geometry.(type) {
	case Box:
		f.StartX, f.StartY = fptr(g.Start.X), fptr(g.Start.Y)
		f.EndX, f.EndY = fptr(g.End.X), fptr(g.End.Y)
		if g.Leader != nil {
			f.LeaderX, f.LeaderY = fptr(g.Leader.X), fptr(g.Leader.Y)
		}
	case LineSeg:
		f.StartX, f.StartY = fptr(g.Start.X), fptr(g.Start.Y)
		f.EndX, f.EndY = fptr(g.End.X), fptr(g.End.Y)
		f.ArrowHeadSize = g.ArrowHeadSize
	case Arc:
		f.Point1X, f.Point1Y = fptr(g.P1.X), fptr(g.P1.Y)
		f.Point2X, f.Point2Y = fptr(g.P2.X), fptr(g.P2.Y)
		f.ArcBulge = fptr(g.Bulge)
	case PointSeq:
		f.Points = g.Points
		f.Closed = g.Closed
		f.ArcSize = g.ArcSize
		f.Intensity = g.Intensity
		f.Inverted = g.Inverted
	case SinglePoint:
		f.X, f.Y = fptr(g.P.X), fptr(g.P.Y)
	case nil:
		// malformed markup round-trips without geometry fields
	}
	return json.Marshal(f)
}

// UnmarshalJSON rebuilds the tagged union from the flat wire form.
func (m *Markup) UnmarshalJSON(data []byte) error {
	var f flatMarkup
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*m = Markup{
		ID:        f.ID,
		Kind:      f.Type,
		PageIndex: f.PageIndex,
		Document:  f.Document,
		CreatedAt: f.CreatedAt,
		Author:    f.Author,
		External:  f.External,
		Modified:  f.Modified,
		ReadOnly:  f.ReadOnly,
		Text:      f.Text,
		Style: Style{
			Color:         f.Color,
			StrokeWidth:   f.StrokeWidth,
			StrokeOpacity: f.StrokeOpacity,
			FillColor:     f.FillColor,
			FillOpacity:   f.FillOpacity,
			LineStyle:     f.LineStyle,
			Rotation:      f.Rotation,
		},
	}
	m.Geometry = f.geometry()
	return nil
}

// geometry assembles the payload for the declared type, or nil when required
// fields are missing.
func (f *flatMarkup) geometry() Geometry {
	switch f.Type.Family() {
	case FamilyBox:
		if f.StartX == nil || f.StartY == nil || f.EndX == nil || f.EndY == nil {
			return nil
		}
		b := Box{
			Start: vector.Pt{X: *f.StartX, Y: *f.StartY},
			End:   vector.Pt{X: *f.EndX, Y: *f.EndY},
		}
		if f.LeaderX != nil && f.LeaderY != nil {
			b.Leader = &vector.Pt{X: *f.LeaderX, Y: *f.LeaderY}
		}
		return b
	case FamilyLine:
		if f.StartX == nil || f.StartY == nil || f.EndX == nil || f.EndY == nil {
			return nil
		}
		return LineSeg{
			Start:         vector.Pt{X: *f.StartX, Y: *f.StartY},
			End:           vector.Pt{X: *f.EndX, Y: *f.EndY},
			ArrowHeadSize: f.ArrowHeadSize,
		}
	case FamilyArc:
		if f.Point1X == nil || f.Point1Y == nil || f.Point2X == nil || f.Point2Y == nil || f.ArcBulge == nil {
			return nil
		}
		return Arc{
			P1:    vector.Pt{X: *f.Point1X, Y: *f.Point1Y},
			P2:    vector.Pt{X: *f.Point2X, Y: *f.Point2Y},
			Bulge: *f.ArcBulge,
		}
	case FamilyPoints:
		if len(f.Points) < 2 {
			return nil
		}
		return PointSeq{
			Points:    append([]vector.Pt(nil), f.Points...),
			Closed:    f.Closed,
			ArcSize:   f.ArcSize,
			Intensity: f.Intensity,
			Inverted:  f.Inverted,
		}
	case FamilyPoint:
		if f.X == nil || f.Y == nil {
			return nil
		}
		return SinglePoint{P: vector.Pt{X: *f.X, Y: *f.Y}}
	default:
		return nil
	}
}
