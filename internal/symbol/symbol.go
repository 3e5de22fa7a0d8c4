/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package symbol turns groups of markups into reusable templates and stamps
// template instances back onto pages. A template stores its markups in its
// own [0,1]x[0,1] space; capture normalizes out of page coordinates, place
// re-expands around a target center. Chaining capture and place across
// documents and page sizes is lossless up to float rounding.
package symbol

import (
	"errors"
	"time"

	"redline/internal/domain"
	"redline/internal/vector"
)

// minCaptureExtent guards the normalization divide; captures smaller than
// this along an axis degrade to unit scale on that axis.
const minCaptureExtent = 1e-9

// DefaultPlaceWidth is the instance width when the caller passes none, as a
// fraction of the page width.
const DefaultPlaceWidth = 0.1

// Template is a named, reusable group of markups in template-local space.
type Template struct {
	Name     string
	Category string
	// Aspect is the height/width ratio of the captured region, used to
	// derive the instance height when only a width is given.
	Aspect  float64
	Markups []domain.Markup
}

var ErrEmptyCapture = errors.New("symbol: no geometry to capture")

// Capture builds a template from the given markups. The union bounding box
// becomes the template's unit square; page and document identity are
// stripped, since a template belongs to no page.
func Capture(name, category string, markups []domain.Markup) (Template, error) {
	var src []domain.Markup
	bounds := vector.Rect{}
	first := true
	for _, m := range markups {
		if !m.Valid() {
			continue
		}
		src = append(src, m)
		if first {
			bounds = m.Bounds()
			first = false
		} else {
			bounds = bounds.Union(m.Bounds())
		}
	}
	if len(src) == 0 {
		return Template{}, ErrEmptyCapture
	}

	w, h := bounds.W, bounds.H
	if w < minCaptureExtent {
		w = 1
	}
	if h < minCaptureExtent {
		h = 1
	}

	t := Template{Name: name, Category: category, Aspect: h / w}
	for _, m := range src {
		c := m.Clone()
		c.PageIndex = 0
		c.Document = ""
		c.External = false
		c.Modified = false
		c.ReadOnly = false
		c.Geometry = c.Geometry.Map(func(p vector.Pt) vector.Pt {
			return vector.Pt{X: (p.X - bounds.X) / w, Y: (p.Y - bounds.Y) / h}
		})
		t.Markups = append(t.Markups, c)
	}
	return t, nil
}

// Place stamps an instance of the template onto a page. width is the
// instance width as a fraction of the page; zero or negative picks
// DefaultPlaceWidth. Every placed markup gets a fresh id and creation time
// so instances never collide with their source or each other.
func (t Template) Place(pageIndex int, document string, center vector.Pt, width float64) []domain.Markup {
	if width <= 0 {
		width = DefaultPlaceWidth
	}
	height := width * t.Aspect
	origin := vector.Pt{X: center.X - width/2, Y: center.Y - height/2}

	out := make([]domain.Markup, 0, len(t.Markups))
	now := time.Now().UTC()
	for _, m := range t.Markups {
		c := m.Clone()
		c.ID = domain.NewID()
		c.PageIndex = pageIndex
		c.Document = document
		c.CreatedAt = now
		c.Geometry = c.Geometry.Map(func(p vector.Pt) vector.Pt {
			return vector.Pt{X: origin.X + p.X*width, Y: origin.Y + p.Y*height}
		})
		out = append(out, c)
	}
	return out
}

// Bounds returns the union bounding box an instance would cover when placed
// with the given center and width.
func (t Template) Bounds(center vector.Pt, width float64) vector.Rect {
	if width <= 0 {
		width = DefaultPlaceWidth
	}
	h := width * t.Aspect
	return vector.Rect{X: center.X - width/2, Y: center.Y - h/2, W: width, H: h}
}
