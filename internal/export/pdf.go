/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"redline/internal/render"
	"redline/internal/storage"
	"redline/internal/vector"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt). At zoom 1 the renderer's display pixels map 1:1 to
// PDF points, so the flattened output matches the on-screen geometry exactly.
// We rely on built-in Helvetica for portability; font embedding can be added
// later using TTFs.
type PDFOptions struct {
	PageWidthPt  float64 // default US Letter 612
	PageHeightPt float64 // default US Letter 792
	Pages        []int   // 0-indexed; if empty, export all annotated pages
	Title        string
	Author       string
}

// ExportPDF flattens the annotation set into a multi-page vector PDF at outPath.
func ExportPDF(h *storage.SetHandle, outPath string, opt PDFOptions) error {
	if h == nil {
		return fmt.Errorf("annotation set handle is nil")
	}
	if opt.PageWidthPt <= 0 {
		opt.PageWidthPt = 612
	}
	if opt.PageHeightPt <= 0 {
		opt.PageHeightPt = 792
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: opt.PageWidthPt, Ht: opt.PageHeightPt},
		OrientationStr: "",
	})
	title := opt.Title
	if title == "" {
		title = h.Set.Document
	}
	pdf.SetTitle(title, false)
	if opt.Author != "" {
		pdf.SetAuthor(opt.Author, false)
	}
	pdf.SetFont("Helvetica", "", 12)

	vp := vector.Viewport{PageWidth: opt.PageWidthPt, PageHeight: opt.PageHeightPt, Zoom: 1}
	for _, pidx := range exportPages(h, opt.Pages) {
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: opt.PageWidthPt, Ht: opt.PageHeightPt})
		for _, m := range h.Set.Markups {
			if m.PageIndex != pidx {
				continue
			}
			frame := render.Render(m, vp, render.Flags{})
			drawFrame(pdf, frame)
		}
	}

	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// exportPages returns the sorted page list to emit: either the explicit page
// selection or every page up to the highest annotated index.
func exportPages(h *storage.SetHandle, specific []int) []int {
	if len(specific) > 0 {
		return specific
	}
	max := -1
	for _, m := range h.Set.Markups {
		if m.PageIndex > max {
			max = m.PageIndex
		}
	}
	out := make([]int, 0, max+1)
	for i := 0; i <= max; i++ {
		out = append(out, i)
	}
	return out
}

func drawFrame(pdf *gofpdf.Fpdf, frame render.Frame) {
	for _, ins := range frame.Shapes {
		if ins.Fill != nil {
			pdf.SetFillColor(int(ins.Fill.R), int(ins.Fill.G), int(ins.Fill.B))
			pdf.SetAlpha(ins.FillOpacity, "Normal")
			tracePath(pdf, ins.Path)
			pdf.DrawPath("F")
		}
		if ins.StrokeWidth > 0 {
			pdf.SetDrawColor(int(ins.Stroke.R), int(ins.Stroke.G), int(ins.Stroke.B))
			pdf.SetLineWidth(ins.StrokeWidth)
			pdf.SetAlpha(ins.StrokeOpacity, "Normal")
			if len(ins.Dash) > 0 {
				pdf.SetDashPattern(ins.Dash, 0)
			} else {
				pdf.SetDashPattern(nil, 0)
			}
			tracePath(pdf, ins.Path)
			pdf.DrawPath("D")
		}
	}
	pdf.SetAlpha(1, "Normal")
	pdf.SetDashPattern(nil, 0)
	for _, t := range frame.Texts {
		size := t.SizePx
		if size <= 0 {
			size = 12
		}
		pdf.SetFont("Helvetica", "", size)
		pdf.SetTextColor(int(t.Color.R), int(t.Color.G), int(t.Color.B))
		if t.MaxWidth > 0 {
			pdf.SetXY(t.Pos.X, t.Pos.Y)
			pdf.MultiCell(t.MaxWidth, size*1.2, t.Content, "", "L", false)
		} else {
			pdf.Text(t.Pos.X, t.Pos.Y+size, t.Content)
		}
	}
}

func tracePath(pdf *gofpdf.Fpdf, p vector.Path) {
	for _, c := range p.Cmds {
		switch c.Op {
		case vector.MoveTo:
			pdf.MoveTo(c.Data[0], c.Data[1])
		case vector.LineTo:
			pdf.LineTo(c.Data[0], c.Data[1])
		case vector.QuadTo:
			pdf.CurveTo(c.Data[0], c.Data[1], c.Data[2], c.Data[3])
		case vector.CubicTo:
			pdf.CurveBezierCubicTo(c.Data[0], c.Data[1], c.Data[2], c.Data[3], c.Data[4], c.Data[5])
		case vector.Close:
			pdf.ClosePath()
		}
	}
}
