/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders placement layouts as proof sheets: schematic
// SVG/PNG/PDF drawings of the canvas with all slot boxes, the portrait frame
// and every freeform element in place. Proof sheets are review artifacts, not
// final renders; the final raster is produced server-side.
package export

import (
	"fmt"
	"sort"

	"layerlab/internal/domain"
)

// Layout is one variant's placement state flattened for drawing.
type Layout struct {
	Title       string
	Subject     string
	Video       string
	Variant     string
	Slots       map[string]domain.SlotBox
	Lines       map[string]domain.LineParams
	Elements    []domain.Element
	PortraitBox domain.SlotBox
	HasPortrait bool
}

// LayoutFromDraft flattens a parked draft and its template into a drawable
// layout.
func LayoutFromDraft(d domain.Draft, tpl domain.TemplateOption, portrait domain.SlotBox, hasPortrait bool) Layout {
	return Layout{
		Subject:     d.Subject,
		Video:       d.Video,
		Variant:     d.Variant,
		Slots:       tpl.Slots,
		Lines:       d.Lines,
		Elements:    d.Elements,
		PortraitBox: portrait,
		HasPortrait: hasPortrait,
	}
}

// Box is an axis-aligned frame in normalized canvas units plus an optional
// rotation about its center.
type Box struct {
	Left, Top, Width, Height float64
	RotateDeg                float64
}

// CenterX returns the rotation pivot X.
func (b Box) CenterX() float64 { return b.Left + b.Width/2 }

// CenterY returns the rotation pivot Y.
func (b Box) CenterY() float64 { return b.Top + b.Height/2 }

// SlotDrawBox applies a slot's line adjustments to its template anchor box:
// translation by the offsets, uniform scale about the shifted center, and
// rotation carried through for the renderer's transform.
func SlotDrawBox(anchor domain.SlotBox, p domain.LineParams) Box {
	s := p.Scale
	if s <= 0 {
		s = 1
	}
	cx := anchor.CenterX() + p.OffsetX
	cy := anchor.CenterY() + p.OffsetY
	w := anchor.Width * s
	h := anchor.Height * s
	return Box{
		Left:      cx - w/2,
		Top:       cy - h/2,
		Width:     w,
		Height:    h,
		RotateDeg: p.RotateDeg,
	}
}

// ElementDrawBox converts an element's center-based geometry to a draw box.
func ElementDrawBox(e domain.Element) Box {
	return Box{
		Left:      e.X - e.W/2,
		Top:       e.Y - e.H/2,
		Width:     e.W,
		Height:    e.H,
		RotateDeg: e.RotationDeg,
	}
}

// slotNames returns the layout's slot names sorted for stable output.
func slotNames(l Layout) []string {
	names := make([]string, 0, len(l.Slots))
	for n := range l.Slots {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// elementsByPaint returns the elements split by layer, each group ordered by
// ascending Z so later entries paint on top.
func elementsByPaint(l Layout) (below, above []domain.Element) {
	for _, e := range l.Elements {
		if e.Layer == domain.LayerBelowPortrait {
			below = append(below, e)
		} else {
			above = append(above, e)
		}
	}
	byZ := func(list []domain.Element) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Z < list[j].Z })
	}
	byZ(below)
	byZ(above)
	return below, above
}

// sheetTitle builds the caption line printed on proofs.
func sheetTitle(l Layout) string {
	if l.Title != "" {
		return l.Title
	}
	return fmt.Sprintf("%s / %s / %s", l.Subject, l.Video, l.Variant)
}
