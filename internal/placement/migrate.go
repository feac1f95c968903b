/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package placement

import (
	"sync"

	"layerlab/internal/domain"
	"layerlab/internal/override"
)

// AbsorbLegacyTextParams folds the old whole-group text override leaves
// (text_offset_x, text_offset_y, text_scale) into the per-slot line store
// and deletes them. Offsets combine additively, scale multiplicatively, so a
// slot that already carries its own adjustment keeps it on top of the legacy
// one. slots is the active template's slot list; every listed slot absorbs
// the legacy transform even when it had no entry before.
//
// The operation is idempotent: once the legacy leaves are gone it does
// nothing, so running it on every load is safe. It reports whether anything
// was migrated.
func AbsorbLegacyTextParams(ov *override.Store, lines *Lines, slots []string) bool {
	if ov == nil || lines == nil {
		return false
	}
	hasOff := ov.IsOverridden(PathLegacyTextOffsetX) || ov.IsOverridden(PathLegacyTextOffsetY)
	hasScale := ov.IsOverridden(PathLegacyTextScale)
	if !hasOff && !hasScale {
		return false
	}

	offX := ov.ResolveFloat(PathLegacyTextOffsetX, 0)
	offY := ov.ResolveFloat(PathLegacyTextOffsetY, 0)
	scale := ov.ResolveFloat(PathLegacyTextScale, 1)
	if scale == 0 {
		scale = 1
	}

	// Slots already adjusted but not in the template list absorb too, so no
	// stored adjustment is silently re-based.
	seen := map[string]bool{}
	for _, s := range slots {
		seen[s] = true
	}
	for _, s := range lines.Slots() {
		if !seen[s] {
			slots = append(slots, s)
			seen[s] = true
		}
	}

	for _, slot := range slots {
		p := lines.Get(slot)
		p.OffsetX += offX
		p.OffsetY += offY
		p.Scale *= scale
		lines.Set(slot, p.Clamped())
	}

	ov.SetLeaf(PathLegacyTextOffsetX, nil)
	ov.SetLeaf(PathLegacyTextOffsetY, nil)
	ov.SetLeaf(PathLegacyTextScale, nil)
	return true
}

// Absorber guards AbsorbLegacyTextParams with a per-(subject, variant)
// flag so the migration runs at most once per pair per session, even when a
// later fetch re-presents legacy-looking leaves.
type Absorber struct {
	mu   sync.Mutex
	done map[string]bool
}

// NewAbsorber creates an empty guard map.
func NewAbsorber() *Absorber { return &Absorber{done: map[string]bool{}} }

// Absorb runs the legacy migration for one (subject, variant) pair. Repeat
// calls for a pair already handled this session do nothing.
func (a *Absorber) Absorb(subject, variant string, ov *override.Store, lines *Lines, slots []string) bool {
	key := subject + "\x00" + variant
	a.mu.Lock()
	if a.done[key] {
		a.mu.Unlock()
		return false
	}
	a.done[key] = true
	a.mu.Unlock()
	return AbsorbLegacyTextParams(ov, lines, slots)
}

// LegacySnapshot captures the legacy leaves before absorption so an undo
// step can put them back.
type LegacySnapshot struct {
	OffsetX, OffsetY any
	Scale            any
	Lines            map[string]domain.LineParams
}

// CaptureLegacy snapshots the state AbsorbLegacyTextParams is about to
// rewrite.
func CaptureLegacy(ov *override.Store, lines *Lines) LegacySnapshot {
	return LegacySnapshot{
		OffsetX: ov.Resolve(PathLegacyTextOffsetX, nil),
		OffsetY: ov.Resolve(PathLegacyTextOffsetY, nil),
		Scale:   ov.Resolve(PathLegacyTextScale, nil),
		Lines:   lines.All(),
	}
}

// RestoreLegacy undoes an absorption using a snapshot taken beforehand.
func RestoreLegacy(ov *override.Store, lines *Lines, snap LegacySnapshot) {
	ov.SetLeaf(PathLegacyTextOffsetX, snap.OffsetX)
	ov.SetLeaf(PathLegacyTextOffsetY, snap.OffsetY)
	ov.SetLeaf(PathLegacyTextScale, snap.Scale)
	lines.Restore(snap.Lines)
}
