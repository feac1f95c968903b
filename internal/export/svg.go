/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// SVGOptions controls SVG proof sheet behavior.
// - CanvasW/CanvasH set the pixel viewport; the viewBox stays normalized 0..1
//   horizontally with the aspect carried by the height.
// - IncludeGuides draws slot anchors and center hairlines in the guide color.
//
//nolint:revive // clarity is preferred
type SVGOptions struct {
	IncludeGuides bool
	CanvasW       int
	CanvasH       int
	GuideColor    string
	SlotStroke    string
	PortraitFill  string
}

// ExportLayoutSVG writes one layout as a single SVG proof sheet at outPath.
// Relative paths are resolved under outDir semantics of the caller.
func ExportLayoutSVG(l Layout, outPath string, opt SVGOptions) error {
	data, err := RenderLayoutSVG(l, opt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// RenderLayoutSVG builds the SVG document in memory.
func RenderLayoutSVG(l Layout, opt SVGOptions) ([]byte, error) {
	w, h := opt.CanvasW, opt.CanvasH
	if w <= 0 {
		w = 1280
	}
	if h <= 0 {
		h = w * 9 / 16
	}
	guide := opt.GuideColor
	if guide == "" {
		guide = "#ff0000"
	}
	slotStroke := opt.SlotStroke
	if slotStroke == "" {
		slotStroke = "#0066cc"
	}
	portraitFill := opt.PortraitFill
	if portraitFill == "" {
		portraitFill = "#dddddd"
	}
	aspect := float64(h) / float64(w)

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%dpx\" height=\"%dpx\" viewBox=\"0 0 1 %g\">\n", w, h, aspect)
	// Background canvas
	wf("  <rect x=\"0\" y=\"0\" width=\"1\" height=\"%g\" fill=\"#ffffff\" stroke=\"#000000\" stroke-width=\"0.002\"/>\n", aspect)

	// toY maps normalized vertical units into the aspect-scaled viewBox.
	toY := func(v float64) float64 { return v * aspect }

	drawBox := func(b Box, fill, stroke string, opacity float64) {
		x, y := b.Left, toY(b.Top)
		bw, bh := b.Width, toY(b.Height)
		transform := ""
		if b.RotateDeg != 0 {
			transform = fmt.Sprintf(" transform=\"rotate(%g %g %g)\"", b.RotateDeg, b.CenterX(), toY(b.CenterY()))
		}
		wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"0.002\" opacity=\"%g\"%s/>\n",
			x, y, bw, bh, fill, stroke, opacity, transform)
	}
	drawEllipse := func(b Box, fill, stroke string, opacity float64) {
		cx, cy := b.CenterX(), toY(b.CenterY())
		rx, ry := b.Width/2, toY(b.Height)/2
		transform := ""
		if b.RotateDeg != 0 {
			transform = fmt.Sprintf(" transform=\"rotate(%g %g %g)\"", b.RotateDeg, cx, cy)
		}
		wf("  <ellipse cx=\"%g\" cy=\"%g\" rx=\"%g\" ry=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"0.002\" opacity=\"%g\"%s/>\n",
			cx, cy, rx, ry, fill, stroke, opacity, transform)
	}
	drawElement := func(e Box, kind, fill string, opacity float64) {
		if fill == "" {
			fill = "#cccccc"
		}
		if opacity <= 0 {
			opacity = 1
		}
		if kind == "circle" {
			drawEllipse(e, fill, "#333333", opacity)
		} else {
			drawBox(e, fill, "#333333", opacity)
		}
	}

	below, above := elementsByPaint(l)
	for _, e := range below {
		drawElement(ElementDrawBox(e), string(e.Kind), e.Fill, e.Opacity)
	}

	if l.HasPortrait && !l.PortraitBox.IsEmpty() {
		pb := Box{Left: l.PortraitBox.Left, Top: l.PortraitBox.Top, Width: l.PortraitBox.Width, Height: l.PortraitBox.Height}
		drawBox(pb, portraitFill, "#666666", 1)
	}

	for _, e := range above {
		drawElement(ElementDrawBox(e), string(e.Kind), e.Fill, e.Opacity)
	}

	for _, name := range slotNames(l) {
		anchor := l.Slots[name]
		if opt.IncludeGuides {
			ab := Box{Left: anchor.Left, Top: anchor.Top, Width: anchor.Width, Height: anchor.Height}
			drawBox(ab, "none", guide, 1)
		}
		b := SlotDrawBox(anchor, l.Lines[name])
		drawBox(b, "none", slotStroke, 1)
		wf("  <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"0.02\" fill=\"#000\">%s</text>\n",
			b.Left+0.005, toY(b.Top)+0.022, escText(name))
	}

	// Caption
	wf("  <text x=\"0.005\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"0.018\" fill=\"#555\">%s</text>\n",
		aspect-0.01, escText(sheetTitle(l)))
	wf("</svg>\n")

	if werr != nil {
		return nil, fmt.Errorf("build svg: %w", werr)
	}
	return buf.Bytes(), nil
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
