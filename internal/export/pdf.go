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
	"image/color"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"layerlab/internal/domain"
)

// PDFOptions controls PDF proof sheet behavior.
// Units are points (pt). One layout per page; PageW defines the canvas width
// in points and the height follows the layout aspect.
// Vector text uses built-in Helvetica for portability.
//
//nolint:revive // keep options grouped and explicit for clarity
type PDFOptions struct {
	IncludeGuides bool
	PageW         float64
	Aspect        float64 // height/width; defaults to 9/16
}

// ExportLayoutsPDF writes all layouts into a single multi-page PDF at outPath.
func ExportLayoutsPDF(layouts []Layout, outPath string, opt PDFOptions) error {
	if len(layouts) == 0 {
		return fmt.Errorf("no layouts to export")
	}
	pageW := opt.PageW
	if pageW <= 0 {
		pageW = 720
	}
	aspect := opt.Aspect
	if aspect <= 0 {
		aspect = 9.0 / 16.0
	}
	pageH := pageW * aspect

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pageW, Ht: pageH},
		OrientationStr: "",
	})
	pdf.SetTitle("Placement proof sheets", false)
	pdf.SetFont("Helvetica", "", 10)

	for _, l := range layouts {
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: pageW, Ht: pageH})
		drawLayoutPDF(pdf, l, pageW, pageH, opt)
	}

	if !filepath.IsAbs(outPath) {
		outPath, _ = filepath.Abs(outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawLayoutPDF(pdf *gofpdf.Fpdf, l Layout, pageW, pageH float64, opt PDFOptions) {
	// Canvas border
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.75)
	pdf.Rect(0, 0, pageW, pageH, "D")

	toX := func(v float64) float64 { return v * pageW }
	toY := func(v float64) float64 { return v * pageH }

	drawBox := func(b Box, style string) {
		x, y := toX(b.Left), toY(b.Top)
		w, h := toX(b.Width), toY(b.Height)
		if b.RotateDeg != 0 {
			pdf.TransformBegin()
			pdf.TransformRotate(-b.RotateDeg, toX(b.CenterX()), toY(b.CenterY()))
			pdf.Rect(x, y, w, h, style)
			pdf.TransformEnd()
			return
		}
		pdf.Rect(x, y, w, h, style)
	}
	drawEllipse := func(b Box, style string) {
		cx, cy := toX(b.CenterX()), toY(b.CenterY())
		rx, ry := toX(b.Width)/2, toY(b.Height)/2
		if b.RotateDeg != 0 {
			pdf.TransformBegin()
			pdf.TransformRotate(-b.RotateDeg, cx, cy)
			pdf.Ellipse(cx, cy, rx, ry, 0, style)
			pdf.TransformEnd()
			return
		}
		pdf.Ellipse(cx, cy, rx, ry, 0, style)
	}

	drawElem := func(e domain.Element) {
		fill := parseHexColor(e.Fill, color.RGBA{R: 204, G: 204, B: 204, A: 255})
		pdf.SetFillColor(int(fill.R), int(fill.G), int(fill.B))
		pdf.SetDrawColor(51, 51, 51)
		pdf.SetLineWidth(0.5)
		alpha := e.Opacity
		if alpha <= 0 || alpha > 1 {
			alpha = 1
		}
		pdf.SetAlpha(alpha, "Normal")
		b := ElementDrawBox(e)
		if e.Kind == domain.ElementCircle {
			drawEllipse(b, "FD")
		} else {
			drawBox(b, "FD")
		}
		pdf.SetAlpha(1, "Normal")
	}

	below, above := elementsByPaint(l)
	for _, e := range below {
		drawElem(e)
	}
	if l.HasPortrait && !l.PortraitBox.IsEmpty() {
		pdf.SetFillColor(221, 221, 221)
		pdf.SetDrawColor(102, 102, 102)
		pdf.SetLineWidth(0.5)
		drawBox(Box{Left: l.PortraitBox.Left, Top: l.PortraitBox.Top, Width: l.PortraitBox.Width, Height: l.PortraitBox.Height}, "FD")
	}
	for _, e := range above {
		drawElem(e)
	}

	for _, name := range slotNames(l) {
		anchor := l.Slots[name]
		if opt.IncludeGuides {
			pdf.SetDrawColor(255, 0, 0)
			pdf.SetLineWidth(0.25)
			drawBox(Box{Left: anchor.Left, Top: anchor.Top, Width: anchor.Width, Height: anchor.Height}, "D")
		}
		b := SlotDrawBox(anchor, l.Lines[name])
		pdf.SetDrawColor(0, 102, 204)
		pdf.SetLineWidth(0.75)
		drawBox(b, "D")
		pdf.SetTextColor(0, 0, 0)
		pdf.Text(toX(b.Left)+2, toY(b.Top)+10, name)
	}

	// Caption
	pdf.SetTextColor(85, 85, 85)
	pdf.Text(4, pageH-4, sheetTitle(l))
}
