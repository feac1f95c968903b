/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package placement

import (
	"testing"

	"layerlab/internal/vector"
)

func TestSnapBoxToCenterWithinThreshold(t *testing.T) {
	canvas := vector.Canvas{W: 1000, H: 1000}
	// threshold 10px on a 1000px canvas is 0.01 normalized
	opts := SnapOptions{ThresholdPx: 10, SnapToCenter: true, SnapToEdges: true}

	b, guides := SnapBox(Box{CX: 0.503, CY: 0.8, HalfW: 0.1, HalfH: 0.1}, canvas, opts)
	if b.CX != 0.5 {
		t.Fatalf("expected CX snapped to 0.5, got %v", b.CX)
	}
	if b.CY != 0.8 {
		t.Fatalf("CY should pass through unchanged, got %v", b.CY)
	}
	if len(guides) != 1 || guides[0].Orientation != "vertical" || guides[0].Kind != "center" {
		t.Fatalf("expected one vertical center guide, got %+v", guides)
	}
}

func TestSnapBoxOutsideThresholdPassesThrough(t *testing.T) {
	canvas := vector.Canvas{W: 1000, H: 1000}
	opts := SnapOptions{ThresholdPx: 10, SnapToCenter: true, SnapToEdges: true}

	b, guides := SnapBox(Box{CX: 0.6, CY: 0.6, HalfW: 0.1, HalfH: 0.1}, canvas, opts)
	if b.CX != 0.6 || b.CY != 0.6 {
		t.Fatalf("expected pass-through, got %+v", b)
	}
	if len(guides) != 0 {
		t.Fatalf("expected no guides, got %+v", guides)
	}
}

func TestSnapBoxToEdgesUsesHalfExtents(t *testing.T) {
	canvas := vector.Canvas{W: 1000, H: 500}
	opts := SnapOptions{ThresholdPx: 8, SnapToEdges: true}

	// Left edge of the box (CX-HalfW = 0.005) is within 0.008 of x=0.
	b, _ := SnapBox(Box{CX: 0.105, CY: 0.25, HalfW: 0.1, HalfH: 0.05}, canvas, opts)
	if b.CX != 0.1 {
		t.Fatalf("expected CX snapped so left edge hits 0, got %v", b.CX)
	}
	// Bottom edge: CY+HalfH = 0.995, threshold on Y is 8/500 = 0.016.
	b2, _ := SnapBox(Box{CX: 0.3, CY: 0.945, HalfW: 0.1, HalfH: 0.05}, canvas, opts)
	if b2.CY != 0.95 {
		t.Fatalf("expected CY snapped so bottom edge hits 1, got %v", b2.CY)
	}
}

func TestSnapBoxNearestCandidateWins(t *testing.T) {
	canvas := vector.Canvas{W: 100, H: 100}
	// Huge threshold: both center and edges qualify; nearest must win.
	opts := SnapOptions{ThresholdPx: 60, SnapToCenter: true, SnapToEdges: true}
	b, _ := SnapBox(Box{CX: 0.45, CY: 0.5, HalfW: 0.05, HalfH: 0.05}, canvas, opts)
	if b.CX != 0.5 {
		t.Fatalf("center (0.05 away) should beat left edge (0.4 away), got %v", b.CX)
	}
}

func TestSnapBoxNotReadyCanvas(t *testing.T) {
	b := Box{CX: 0.501, CY: 0.5, HalfW: 0.1, HalfH: 0.1}
	got, guides := SnapBox(b, vector.Canvas{}, DefaultSnapOptions())
	if got != b || guides != nil {
		t.Fatalf("unready canvas must pass through, got %+v", got)
	}
}

func TestAlignBox(t *testing.T) {
	b := Box{CX: 0.7, CY: 0.3, HalfW: 0.1, HalfH: 0.2}
	if v := AlignBox(b, AlignLeft).CX; v != 0.1 {
		t.Fatalf("left align = %v", v)
	}
	if v := AlignBox(b, AlignCenter).CX; v != 0.5 {
		t.Fatalf("center align = %v", v)
	}
	if v := AlignBox(b, AlignRight).CX; v != 0.9 {
		t.Fatalf("right align = %v", v)
	}
	if v := AlignBox(b, AlignTop).CY; v != 0.2 {
		t.Fatalf("top align = %v", v)
	}
	if v := AlignBox(b, AlignMiddle).CY; v != 0.5 {
		t.Fatalf("middle align = %v", v)
	}
	if v := AlignBox(b, AlignBottom).CY; v != 0.8 {
		t.Fatalf("bottom align = %v", v)
	}
}

func TestSnapAngle(t *testing.T) {
	if v := SnapAngle(22, 15); v != 15 {
		t.Fatalf("SnapAngle(22) = %v", v)
	}
	if v := SnapAngle(23, 15); v != 30 {
		t.Fatalf("SnapAngle(23) = %v", v)
	}
	if v := SnapAngle(-7, 15); v != 0 {
		t.Fatalf("SnapAngle(-7) = %v", v)
	}
	if v := SnapAngle(37, 0); v != 37 {
		t.Fatalf("zero step must pass through, got %v", v)
	}
}
