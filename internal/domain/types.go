/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for the LayerLab placement engine:
// the normalized, serializable parameters an operator produces by arranging
// the layers of a composited image. All positions, offsets and extents are
// fractions of canvas width/height so the external renderer can replay them
// at any output resolution; zoom and scale values are unitless multipliers.

// Parameter ranges. Every value written by a gesture is clamped into its
// declared range before it reaches a store.
const (
	OffsetMin = -5.0
	OffsetMax = 5.0

	BackgroundZoomMin = 1.0
	BackgroundZoomMax = 6.0

	PortraitZoomMin = 0.5
	PortraitZoomMax = 2.0

	LineScaleMin = 0.25
	LineScaleMax = 4.0

	RotateMin = -180.0
	RotateMax = 180.0

	// Element centers may sit off-canvas; extents stay strictly positive.
	ElementPosMin  = -5.0
	ElementPosMax  = 6.0
	ElementSizeMin = 0.01
	ElementSizeMax = 4.0
)

// LineParams is the per-slot transform of one text block relative to its
// template slot box: normalized offset, unitless scale, rotation in degrees.
type LineParams struct {
	OffsetX   float64 `json:"offset_x"`
	OffsetY   float64 `json:"offset_y"`
	Scale     float64 `json:"scale"`
	RotateDeg float64 `json:"rotate_deg"`
}

// DefaultLineParams is the identity transform a fresh slot starts from.
func DefaultLineParams() LineParams { return LineParams{Scale: 1} }

// Clamped returns a copy with every field forced into its valid range.
func (p LineParams) Clamped() LineParams {
	return LineParams{
		OffsetX:   Clamp(p.OffsetX, OffsetMin, OffsetMax),
		OffsetY:   Clamp(p.OffsetY, OffsetMin, OffsetMax),
		Scale:     Clamp(p.Scale, LineScaleMin, LineScaleMax),
		RotateDeg: Clamp(p.RotateDeg, RotateMin, RotateMax),
	}
}

// IsDefault reports whether the params equal the identity transform.
func (p LineParams) IsDefault() bool {
	return p.OffsetX == 0 && p.OffsetY == 0 && p.Scale == 1 && p.RotateDeg == 0
}

// TextLineSpec is the persisted per-slot parameter map for one
// (subject, video, variant).
type TextLineSpec struct {
	Lines map[string]LineParams `json:"lines"`
}

// SlotBox is the read-only anchor frame of a text slot supplied by the active
// template: [left, top, width, height] in normalized units.
type SlotBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CenterX returns the horizontal center of the box in normalized units.
func (b SlotBox) CenterX() float64 { return b.Left + b.Width/2 }

// CenterY returns the vertical center of the box in normalized units.
func (b SlotBox) CenterY() float64 { return b.Top + b.Height/2 }

// IsEmpty reports whether the box has no usable extent.
func (b SlotBox) IsEmpty() bool { return b.Width <= 0 || b.Height <= 0 }

// ElementKind enumerates the freeform element shapes.
type ElementKind string

const (
	ElementRect   ElementKind = "rect"
	ElementCircle ElementKind = "circle"
	ElementImage  ElementKind = "image"
)

// ElementLayer places an element relative to the portrait layer.
type ElementLayer string

const (
	LayerAbovePortrait ElementLayer = "above_portrait"
	LayerBelowPortrait ElementLayer = "below_portrait"
)

// Element is one freeform vector or image element. X,Y are the element's
// center in normalized canvas units; W,H are normalized extents. Z is only
// required to be totally ordered within the same Layer group.
type Element struct {
	ID          string       `json:"id"`
	Kind        ElementKind  `json:"kind"`
	Layer       ElementLayer `json:"layer"`
	Z           int          `json:"z"`
	X           float64      `json:"x"`
	Y           float64      `json:"y"`
	W           float64      `json:"w"`
	H           float64      `json:"h"`
	RotationDeg float64      `json:"rotation_deg"`
	Opacity     float64      `json:"opacity"`
	Fill        string       `json:"fill,omitempty"`
	Stroke      string       `json:"stroke,omitempty"`
	StrokeWidth float64      `json:"stroke_width,omitempty"`
	SrcPath     string       `json:"src_path,omitempty"`
}

// Clamped returns a copy with geometry forced into the valid ranges.
func (e Element) Clamped() Element {
	e.X = Clamp(e.X, ElementPosMin, ElementPosMax)
	e.Y = Clamp(e.Y, ElementPosMin, ElementPosMax)
	e.W = Clamp(e.W, ElementSizeMin, ElementSizeMax)
	e.H = Clamp(e.H, ElementSizeMin, ElementSizeMax)
	e.RotationDeg = NormalizeDeg(e.RotationDeg)
	e.Opacity = Clamp(e.Opacity, 0, 1)
	return e
}

// ElementsSpec is the persisted element collection for one
// (subject, video, variant).
type ElementsSpec struct {
	Elements []Element `json:"elements"`
}

// TemplateOption describes one selectable composition template and the slot
// boxes it defines.
type TemplateOption struct {
	ID    string             `json:"id"`
	Name  string             `json:"name"`
	Slots map[string]SlotBox `json:"slots"`
}

// EditorContext is everything the placement dialog needs on open, supplied
// by the data layer. DefaultsLeaf shares the dotted-path namespace of the
// override leaf map.
type EditorContext struct {
	DefaultsLeaf      map[string]any   `json:"defaults_leaf"`
	Overrides         map[string]any   `json:"overrides"`
	TemplateOptions   []TemplateOption `json:"template_options"`
	ActiveTemplate    string           `json:"active_template"`
	PortraitAvailable bool             `json:"portrait_available"`
	PortraitBox       SlotBox          `json:"portrait_box"`
	BackgroundURL     string           `json:"background_url,omitempty"`
	PortraitURL       string           `json:"portrait_url,omitempty"`
}

// Draft bundles the unsaved working state of one placement dialog so it can
// be parked on disk between sessions or rescued by the crash handler.
type Draft struct {
	Subject   string                `json:"subject"`
	Video     string                `json:"video"`
	Variant   string                `json:"variant"`
	Overrides map[string]any        `json:"overrides"`
	Lines     map[string]LineParams `json:"lines"`
	Elements  []Element             `json:"elements"`
}

// Clamp forces v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NormalizeDeg wraps an angle into [-180, 180].
func NormalizeDeg(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg < -180 {
		deg += 360
	}
	return deg
}
