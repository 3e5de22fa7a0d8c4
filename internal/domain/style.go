/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"strings"
)

// FillNone is the sentinel fill color for unfilled shapes.
const FillNone = "none"

// LineStyle names the stroke dash pattern.
type LineStyle string

const (
	LineSolid   LineStyle = "solid"
	LineDashed  LineStyle = "dashed"
	LineDotted  LineStyle = "dotted"
	LineDashDot LineStyle = "dashdot"
)

// DashPattern returns on/off run lengths in stroke-width multiples; nil means
// a solid stroke.
func (l LineStyle) DashPattern() []float64 {
	switch l {
	case LineDashed:
		return []float64{4, 2}
	case LineDotted:
		return []float64{1, 2}
	case LineDashDot:
		return []float64{4, 2, 1, 2}
	default:
		return nil
	}
}

// Style carries the optional stroke/appearance attributes of a markup.
// StrokeWidth is in page points at 100% zoom. Rotation is the shape's own
// rotation in degrees, applied in pixel space around the shape center.
type Style struct {
	Color         string
	StrokeWidth   float64
	StrokeOpacity float64
	FillColor     string
	FillOpacity   float64
	LineStyle     LineStyle
	Rotation      float64
}

// Filled reports whether the shape has an interior fill. An empty FillColor
// and the "none" sentinel both mean unfilled.
func (s Style) Filled() bool {
	return s.FillColor != "" && !strings.EqualFold(s.FillColor, FillNone)
}

// Color is an 8-bit RGBA color.
type Color struct{ R, G, B, A uint8 }

var (
	Black = Color{0, 0, 0, 255}
	Red   = Color{255, 0, 0, 255}
)

// ParseColor parses "#rgb", "#rrggbb" or "#rrggbbaa" hex notation. Unknown
// strings fall back to def.
func ParseColor(s string, def Color) Color {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		return def
	}
	hexStr := s[1:]
	var r, g, b, a uint8 = 0, 0, 0, 255
	switch len(hexStr) {
	case 3:
		if n, err := fmt.Sscanf(hexStr, "%1x%1x%1x", &r, &g, &b); n != 3 || err != nil {
			return def
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		if n, err := fmt.Sscanf(hexStr, "%02x%02x%02x", &r, &g, &b); n != 3 || err != nil {
			return def
		}
	case 8:
		if n, err := fmt.Sscanf(hexStr, "%02x%02x%02x%02x", &r, &g, &b, &a); n != 4 || err != nil {
			return def
		}
	default:
		return def
	}
	return Color{R: r, G: g, B: b, A: a}
}

// Hex renders the color in #rrggbb (or #rrggbbaa when translucent) notation.
func (c Color) Hex() string {
	if c.A != 255 {
		return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
