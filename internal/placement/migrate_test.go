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
	"layerlab/internal/override"
)

func TestAbsorbLegacyTextParams(t *testing.T) {
	ov := override.NewStore(nil)
	ov.SetLeaf(PathLegacyTextOffsetX, 0.1)
	ov.SetLeaf(PathLegacyTextScale, 1.2)

	lines := NewLines()
	lines.Set("title", domain.LineParams{OffsetX: 0.05, Scale: 1})

	if !AbsorbLegacyTextParams(ov, lines, []string{"title", "subtitle"}) {
		t.Fatalf("migration should report work done")
	}

	title := lines.Get("title")
	if math.Abs(title.OffsetX-0.15) > 1e-9 {
		t.Fatalf("title offset_x = %v, want 0.15", title.OffsetX)
	}
	if math.Abs(title.Scale-1.2) > 1e-9 {
		t.Fatalf("title scale = %v, want 1.2", title.Scale)
	}

	sub := lines.Get("subtitle")
	if math.Abs(sub.OffsetX-0.1) > 1e-9 || math.Abs(sub.Scale-1.2) > 1e-9 {
		t.Fatalf("subtitle did not absorb legacy transform: %+v", sub)
	}

	if ov.IsOverridden(PathLegacyTextOffsetX) || ov.IsOverridden(PathLegacyTextScale) {
		t.Fatalf("legacy leaves must be deleted after absorption")
	}
}

func TestAbsorbLegacyTextParamsIdempotent(t *testing.T) {
	ov := override.NewStore(nil)
	ov.SetLeaf(PathLegacyTextOffsetY, -0.2)
	lines := NewLines()

	if !AbsorbLegacyTextParams(ov, lines, []string{"title"}) {
		t.Fatalf("first run should migrate")
	}
	first := lines.Get("title")

	if AbsorbLegacyTextParams(ov, lines, []string{"title"}) {
		t.Fatalf("second run must be a no-op")
	}
	if lines.Get("title") != first {
		t.Fatalf("second run changed slot params")
	}
}

func TestAbsorberRunsOncePerPair(t *testing.T) {
	ov := override.NewStore(nil)
	ov.SetLeaf(PathLegacyTextOffsetY, -0.2)
	lines := NewLines()
	a := NewAbsorber()

	if !a.Absorb("alice", "a", ov, lines, []string{"title"}) {
		t.Fatalf("first run should migrate")
	}
	first := lines.Get("title")

	// Even with the legacy leaf re-presented, the guarded pair stays done.
	ov.SetLeaf(PathLegacyTextOffsetY, -0.2)
	if a.Absorb("alice", "a", ov, lines, []string{"title"}) {
		t.Fatalf("second run for the same pair must be a no-op")
	}
	if lines.Get("title") != first {
		t.Fatalf("guarded run changed slot params")
	}

	// A different pair migrates independently.
	lines2 := NewLines()
	if !a.Absorb("alice", "b", ov, lines2, []string{"title"}) {
		t.Fatalf("a fresh pair should migrate")
	}
}

func TestAbsorbCoversStoredSlotsOutsideTemplate(t *testing.T) {
	ov := override.NewStore(nil)
	ov.SetLeaf(PathLegacyTextOffsetX, 0.1)
	lines := NewLines()
	lines.Set("extra", domain.LineParams{OffsetY: 0.3, Scale: 1})

	AbsorbLegacyTextParams(ov, lines, []string{"title"})

	extra := lines.Get("extra")
	if math.Abs(extra.OffsetX-0.1) > 1e-9 || math.Abs(extra.OffsetY-0.3) > 1e-9 {
		t.Fatalf("stored slot outside the template list missed the legacy transform: %+v", extra)
	}
}

func TestCaptureAndRestoreLegacy(t *testing.T) {
	ov := override.NewStore(nil)
	ov.SetLeaf(PathLegacyTextScale, 1.5)
	lines := NewLines()
	lines.Set("title", domain.LineParams{OffsetX: 0.05, Scale: 1})

	snap := CaptureLegacy(ov, lines)
	AbsorbLegacyTextParams(ov, lines, []string{"title"})
	RestoreLegacy(ov, lines, snap)

	if got := ov.ResolveFloat(PathLegacyTextScale, 0); got != 1.5 {
		t.Fatalf("legacy scale = %v after restore, want 1.5", got)
	}
	p := lines.Get("title")
	if p.OffsetX != 0.05 || p.Scale != 1 {
		t.Fatalf("slot params not restored: %+v", p)
	}
}
