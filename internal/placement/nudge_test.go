/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package placement

import (
	"math"
	"testing"

	"layerlab/internal/domain"
)

func TestNudgeStepPx(t *testing.T) {
	if NudgeStepPx(false, false) != 4 {
		t.Fatalf("default step wrong")
	}
	if NudgeStepPx(true, false) != 12 {
		t.Fatalf("coarse step wrong")
	}
	if NudgeStepPx(false, true) != 1 {
		t.Fatalf("fine step wrong")
	}
	if NudgeStepPx(true, true) != 12 {
		t.Fatalf("coarse must win over fine")
	}
}

func TestNudgeSelectedElement(t *testing.T) {
	ctrl, _, _, els := newTestController()
	e := els.Add(domain.ElementRect, domain.LayerAbovePortrait)

	if !ctrl.Nudge(1, 0, false, false) {
		t.Fatalf("nudge with a selection should apply")
	}
	got, _ := els.Get(e.ID)
	if math.Abs(got.X-0.504) > 1e-9 {
		t.Fatalf("x = %v, want 0.504", got.X)
	}

	ctrl.Nudge(0, -1, true, false)
	got, _ = els.Get(e.ID)
	if math.Abs(got.Y-0.488) > 1e-9 {
		t.Fatalf("y = %v, want 0.488", got.Y)
	}
}

func TestNudgeActiveLineWhenNoSelection(t *testing.T) {
	ctrl, _, lines, _ := newTestController()
	lines.SetActive("title")

	if !ctrl.Nudge(-1, 0, false, true) {
		t.Fatalf("nudge with an active slot should apply")
	}
	p := lines.Get("title")
	if math.Abs(p.OffsetX-(-0.001)) > 1e-9 {
		t.Fatalf("offset_x = %v, want -0.001", p.OffsetX)
	}
}

func TestNudgeWithoutTarget(t *testing.T) {
	ctrl, _, _, _ := newTestController()
	if ctrl.Nudge(1, 0, false, false) {
		t.Fatalf("nudge without a target should report false")
	}
}

func TestDeleteSelected(t *testing.T) {
	ctrl, _, _, els := newTestController()
	e := els.Add(domain.ElementRect, domain.LayerAbovePortrait)
	if !ctrl.DeleteSelected() {
		t.Fatalf("delete failed")
	}
	if _, ok := els.Get(e.ID); ok {
		t.Fatalf("element still present after delete")
	}
	if ctrl.DeleteSelected() {
		t.Fatalf("delete without a selection should report false")
	}
}

func TestAlignSelected(t *testing.T) {
	ctrl, _, _, els := newTestController()
	e := els.Add(domain.ElementRect, domain.LayerAbovePortrait)

	ctrl.AlignSelected(AlignLeft)
	got, _ := els.Get(e.ID)
	if math.Abs(got.X-0.1) > 1e-9 {
		t.Fatalf("x = %v, want 0.1 (half width from the left edge)", got.X)
	}

	ctrl.AlignSelected(AlignBottom)
	got, _ = els.Get(e.ID)
	if math.Abs(got.Y-0.9) > 1e-9 {
		t.Fatalf("y = %v, want 0.9", got.Y)
	}
}

func TestAlignActiveLine(t *testing.T) {
	ctrl, _, lines, _ := newTestController()
	lines.SetActive("title")
	lines.Set("title", domain.LineParams{OffsetX: 0.2, OffsetY: -0.1, Scale: 1})
	// Frame centered at (0.5, 0.75); center alignment zeroes the x offset.
	box := domain.SlotBox{Left: 0.1, Top: 0.7, Width: 0.8, Height: 0.1}

	if !ctrl.AlignActiveLine(AlignCenter, box) {
		t.Fatalf("align with an active slot should apply")
	}
	p := lines.Get("title")
	if math.Abs(p.OffsetX) > 1e-9 {
		t.Fatalf("offset_x = %v, want 0", p.OffsetX)
	}
	if math.Abs(p.OffsetY-(-0.1)) > 1e-9 {
		t.Fatalf("offset_y must be untouched by a horizontal align, got %v", p.OffsetY)
	}

	// Bottom alignment puts the frame's lower edge on the canvas edge:
	// center_y = 1 - 0.05, offset = center_y - frame center 0.75.
	ctrl.AlignActiveLine(AlignBottom, box)
	p = lines.Get("title")
	if math.Abs(p.OffsetY-0.2) > 1e-9 {
		t.Fatalf("offset_y = %v, want 0.2", p.OffsetY)
	}

	lines.SetActive("")
	if ctrl.AlignActiveLine(AlignCenter, box) {
		t.Fatalf("align without an active slot should report false")
	}
	lines.SetActive("title")
	if ctrl.AlignActiveLine(AlignCenter, domain.SlotBox{}) {
		t.Fatalf("align without a frame should report false")
	}
}
