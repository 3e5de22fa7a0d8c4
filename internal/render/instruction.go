/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render turns markups into backend-neutral draw instructions in
// display pixel coordinates. The same instruction stream feeds the screen
// canvas, the PNG rasterizer and the PDF flattener, so every surface shows
// identical geometry. Render never mutates the model and produces nothing
// for malformed markups.
package render

import (
	"redline/internal/domain"
	"redline/internal/vector"
)

// Instruction is one filled and/or stroked path in display pixels.
type Instruction struct {
	Path vector.Path

	Stroke        domain.Color
	StrokeWidth   float64 // pixels at the current zoom
	StrokeOpacity float64 // 0..1
	Dash          []float64

	// Fill is nil for stroke-only paths.
	Fill        *domain.Color
	FillOpacity float64
}

// Text is one text run anchored at a display pixel position.
type Text struct {
	Pos      vector.Pt
	MaxWidth float64 // wrap width in pixels, 0 for unconstrained
	Content  string
	Color    domain.Color
	SizePx   float64
}

// Frame is the full draw output for one markup.
type Frame struct {
	Shapes []Instruction
	Texts  []Text
}

// Flags select optional overlays.
type Flags struct {
	// Selected adds the selection outline around the markup bounds.
	Selected bool
	// HandlePoints are drawn as square grips (display pixels). The caller
	// owns handle placement; rendering only draws what it is given.
	HandlePoints []vector.Pt
}

// HandleSizePx is the edge length of a selection grip square.
const HandleSizePx = 8
