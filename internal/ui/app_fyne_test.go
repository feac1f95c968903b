//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"math"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"layerlab/internal/domain"
	"layerlab/internal/placement"
	"layerlab/internal/vector"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-3 }

func newTestCanvas() *PlacementCanvas {
	test.NewApp()
	ed := placement.NewEditor(nil, nil)
	return NewPlacementCanvas(ed)
}

func TestCanvasRectLetterboxesWideWidget(t *testing.T) {
	pc := newTestCanvas()
	pc.Resize(fyne.NewSize(1000, 400))

	x, y, w, h := pc.canvasRect()
	if !almostEqual(float64(h), 400) {
		t.Fatalf("height should fill the widget, got %v", h)
	}
	wantW := 400 / canvasAspect
	if !almostEqual(float64(w), wantW) {
		t.Fatalf("width = %v, want %v", w, wantW)
	}
	if !almostEqual(float64(x), (1000-wantW)/2) {
		t.Fatalf("canvas not centered horizontally, x = %v", x)
	}
	if !almostEqual(float64(y), 0) {
		t.Fatalf("y = %v, want 0", y)
	}
}

func TestCanvasRectLetterboxesTallWidget(t *testing.T) {
	pc := newTestCanvas()
	pc.Resize(fyne.NewSize(640, 900))

	x, y, w, h := pc.canvasRect()
	if !almostEqual(float64(w), 640) {
		t.Fatalf("width should fill the widget, got %v", w)
	}
	if !almostEqual(float64(h), 640*canvasAspect) {
		t.Fatalf("height = %v, want %v", h, 640*canvasAspect)
	}
	if !almostEqual(float64(x), 0) {
		t.Fatalf("x = %v, want 0", x)
	}
	if !almostEqual(float64(y), (900-640*canvasAspect)/2) {
		t.Fatalf("canvas not centered vertically, y = %v", y)
	}
}

func TestToCanvasNormalizesInsideLetterbox(t *testing.T) {
	pc := newTestCanvas()
	pc.Resize(fyne.NewSize(1000, 400))

	x, y, w, h := pc.canvasRect()
	center := fyne.NewPos(x+w/2, y+h/2)
	px, py, norm := pc.toCanvas(center)
	if !almostEqual(px, float64(w)/2) || !almostEqual(py, float64(h)/2) {
		t.Fatalf("device point = (%v, %v)", px, py)
	}
	if !almostEqual(norm.X, 0.5) || !almostEqual(norm.Y, 0.5) {
		t.Fatalf("normalized point = %+v, want (0.5, 0.5)", norm)
	}
}

func TestNormHit(t *testing.T) {
	b := domain.SlotBox{Left: 0.2, Top: 0.3, Width: 0.4, Height: 0.2}
	if !normHit(b, vector.Pt{X: 0.4, Y: 0.4}) {
		t.Fatal("point inside box should hit")
	}
	if normHit(b, vector.Pt{X: 0.1, Y: 0.4}) {
		t.Fatal("point left of box should miss")
	}
	if normHit(b, vector.Pt{X: 0.4, Y: 0.55}) {
		t.Fatal("point below box should miss")
	}
}

func TestElementBoxIsCenterBased(t *testing.T) {
	e := domain.Element{X: 0.5, Y: 0.5, W: 0.2, H: 0.1}
	b := elementBox(e)
	if !almostEqual(b.Left, 0.4) || !almostEqual(b.Top, 0.45) {
		t.Fatalf("box origin = (%v, %v)", b.Left, b.Top)
	}
	if !almostEqual(b.Width, 0.2) || !almostEqual(b.Height, 0.1) {
		t.Fatalf("box size = (%v, %v)", b.Width, b.Height)
	}
}

func TestSlotHandleHit(t *testing.T) {
	b := domain.SlotBox{Left: 0.25, Top: 0.25, Width: 0.5, Height: 0.5}
	const w, h = 1000.0, 562.5
	// Top-left corner sits at (250, 140.625)
	if got := slotHandleHit(b, 250, 140.6, w, h); got != slotHitCorner {
		t.Fatalf("corner hit = %v, want slotHitCorner", got)
	}
	// Rotation knob floats 24px above the top center
	if got := slotHandleHit(b, 500, 140.6-24, w, h); got != slotHitKnob {
		t.Fatalf("knob hit = %v, want slotHitKnob", got)
	}
	// Box interior is not a handle
	if got := slotHandleHit(b, 500, 280, w, h); got != slotHitNone {
		t.Fatalf("interior hit = %v, want slotHitNone", got)
	}
}

func TestPaintRankAbovePortraitWins(t *testing.T) {
	below := domain.Element{Layer: domain.LayerBelowPortrait, Z: 99}
	above := domain.Element{Layer: domain.LayerAbovePortrait, Z: 0}
	if paintRank(above) <= paintRank(below) {
		t.Fatal("above-portrait elements must outrank below-portrait ones")
	}
	a0 := domain.Element{Layer: domain.LayerAbovePortrait, Z: 0}
	a1 := domain.Element{Layer: domain.LayerAbovePortrait, Z: 1}
	if paintRank(a1) <= paintRank(a0) {
		t.Fatal("higher z must outrank lower z within a layer")
	}
}
