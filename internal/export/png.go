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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"layerlab/internal/domain"
)

// PNGOptions controls PNG proof sheet behavior. Rotation is ignored in the
// raster proof; the axis-aligned bounding box is drawn instead.
//
//nolint:revive // clarity is preferred
type PNGOptions struct {
	IncludeGuides bool
	CanvasW       int
	CanvasH       int
	GuideColor    color.RGBA
	SlotStroke    color.RGBA
	PortraitFill  color.RGBA
}

// ExportLayoutPNG writes one layout as a single PNG proof sheet at outPath.
func ExportLayoutPNG(l Layout, outPath string, opt PNGOptions) error {
	data, err := RenderLayoutPNG(l, opt)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// RenderLayoutPNG rasters the proof sheet in memory.
func RenderLayoutPNG(l Layout, opt PNGOptions) ([]byte, error) {
	w, h := opt.CanvasW, opt.CanvasH
	if w <= 0 {
		w = 1280
	}
	if h <= 0 {
		h = w * 9 / 16
	}
	guide := opt.GuideColor
	if guide == (color.RGBA{}) {
		guide = color.RGBA{R: 255, A: 255}
	}
	slotStroke := opt.SlotStroke
	if slotStroke == (color.RGBA{}) {
		slotStroke = color.RGBA{B: 204, G: 102, A: 255}
	}
	portraitFill := opt.PortraitFill
	if portraitFill == (color.RGBA{}) {
		portraitFill = color.RGBA{R: 221, G: 221, B: 221, A: 255}
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)
	strokeRect(img, 0, 0, w-1, h-1, color.RGBA{A: 255})

	px := func(b Box) (x0, y0, x1, y1 int) {
		x0 = int(math.Round(b.Left * float64(w)))
		y0 = int(math.Round(b.Top * float64(h)))
		x1 = x0 + int(math.Round(b.Width*float64(w))) - 1
		y1 = y0 + int(math.Round(b.Height*float64(h))) - 1
		return x0, y0, x1, y1
	}

	drawElem := func(e domain.Element) {
		x0, y0, x1, y1 := px(ElementDrawBox(e))
		fill := parseHexColor(e.Fill, color.RGBA{R: 204, G: 204, B: 204, A: 255})
		if e.Opacity < 1 {
			fill.A = uint8(math.Round(255 * math.Max(e.Opacity, 0)))
		}
		fillRect(img, x0, y0, x1, y1, fill)
		strokeRect(img, x0, y0, x1, y1, color.RGBA{R: 51, G: 51, B: 51, A: 255})
	}

	below, above := elementsByPaint(l)
	for _, e := range below {
		drawElem(e)
	}
	if l.HasPortrait && !l.PortraitBox.IsEmpty() {
		x0, y0, x1, y1 := px(Box{Left: l.PortraitBox.Left, Top: l.PortraitBox.Top, Width: l.PortraitBox.Width, Height: l.PortraitBox.Height})
		fillRect(img, x0, y0, x1, y1, portraitFill)
		strokeRect(img, x0, y0, x1, y1, color.RGBA{R: 102, G: 102, B: 102, A: 255})
	}
	for _, e := range above {
		drawElem(e)
	}

	for _, name := range slotNames(l) {
		anchor := l.Slots[name]
		if opt.IncludeGuides {
			x0, y0, x1, y1 := px(Box{Left: anchor.Left, Top: anchor.Top, Width: anchor.Width, Height: anchor.Height})
			strokeRect(img, x0, y0, x1, y1, guide)
		}
		x0, y0, x1, y1 := px(SlotDrawBox(anchor, l.Lines[name]))
		strokeRect(img, x0, y0, x1, y1, slotStroke)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// parseHexColor reads #rgb or #rrggbb, falling back to def on any problem.
func parseHexColor(s string, def color.RGBA) color.RGBA {
	if len(s) == 0 || s[0] != '#' {
		return def
	}
	hex := s[1:]
	digit := func(c byte) (uint8, bool) {
		switch {
		case c >= '0' && c <= '9':
			return c - '0', true
		case c >= 'a' && c <= 'f':
			return c - 'a' + 10, true
		case c >= 'A' && c <= 'F':
			return c - 'A' + 10, true
		}
		return 0, false
	}
	byteAt := func(i int) (uint8, bool) {
		hi, ok1 := digit(hex[i])
		lo, ok2 := digit(hex[i+1])
		if !ok1 || !ok2 {
			return 0, false
		}
		return hi<<4 | lo, true
	}
	switch len(hex) {
	case 3:
		r, ok1 := digit(hex[0])
		g, ok2 := digit(hex[1])
		b, ok3 := digit(hex[2])
		if !ok1 || !ok2 || !ok3 {
			return def
		}
		return color.RGBA{R: r * 17, G: g * 17, B: b * 17, A: 255}
	case 6:
		r, ok1 := byteAt(0)
		g, ok2 := byteAt(2)
		b, ok3 := byteAt(4)
		if !ok1 || !ok2 || !ok3 {
			return def
		}
		return color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return def
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}
