/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package placement

// Snapping helpers for interactive placement. These are UI-agnostic and
// deterministic to enable unit testing and reuse across frontends: given a
// candidate normalized box they propose corrected coordinates when within a
// pixel threshold of the canvas center or edges, and otherwise pass the
// candidate through unchanged.

import (
	"math"

	"layerlab/internal/vector"
)

// SnapOptions controls which guide candidates are considered and the
// threshold. ThresholdPx is in device pixels and is converted per axis using
// the live canvas rect. Typical UI values are 6-10 pixels.
type SnapOptions struct {
	ThresholdPx  float64
	SnapToCenter bool
	SnapToEdges  bool
}

// DefaultSnapOptions are the options used by drag gestures unless snapping
// is suppressed by a modifier or the global toggle.
func DefaultSnapOptions() SnapOptions {
	return SnapOptions{ThresholdPx: 8, SnapToCenter: true, SnapToEdges: true}
}

// Box is a candidate normalized placement: center plus half extents.
type Box struct {
	CX, CY       float64
	HalfW, HalfH float64
}

// Guide describes a canvas guide that matched during snapping, for visual
// feedback. Orientation is "vertical" or "horizontal"; Kind is "center" or
// "edge"; Position is the normalized coordinate of the guide line.
type Guide struct {
	Orientation string
	Kind        string
	Position    float64
}

// SnapBox snaps b against the canvas center lines and the four canvas edges.
// Snapping happens independently in X and Y; the nearest candidate within
// threshold wins on each axis. Returns the (possibly corrected) box and any
// guides to render.
func SnapBox(b Box, canvas vector.Canvas, opts SnapOptions) (Box, []Guide) {
	if !canvas.Ready() || opts.ThresholdPx <= 0 {
		return b, nil
	}
	thX := opts.ThresholdPx / canvas.W
	thY := opts.ThresholdPx / canvas.H

	var guides []Guide

	// X axis candidates: canvas vertical center, left edge, right edge.
	bestX, bestXDist := b.CX, math.Inf(1)
	var bestXGuide Guide
	considerAxis := func(cand, cur, th float64, g Guide, best *float64, bestDist *float64, bestGuide *Guide) {
		d := math.Abs(cur - cand)
		if d <= th && d < *bestDist {
			*best = cand
			*bestDist = d
			*bestGuide = g
		}
	}
	if opts.SnapToCenter {
		considerAxis(0.5, b.CX, thX, Guide{"vertical", "center", 0.5}, &bestX, &bestXDist, &bestXGuide)
	}
	if opts.SnapToEdges {
		considerAxis(b.HalfW, b.CX, thX, Guide{"vertical", "edge", 0}, &bestX, &bestXDist, &bestXGuide)
		considerAxis(1-b.HalfW, b.CX, thX, Guide{"vertical", "edge", 1}, &bestX, &bestXDist, &bestXGuide)
	}

	// Y axis: canvas horizontal center, top edge, bottom edge.
	bestY, bestYDist := b.CY, math.Inf(1)
	var bestYGuide Guide
	if opts.SnapToCenter {
		considerAxis(0.5, b.CY, thY, Guide{"horizontal", "center", 0.5}, &bestY, &bestYDist, &bestYGuide)
	}
	if opts.SnapToEdges {
		considerAxis(b.HalfH, b.CY, thY, Guide{"horizontal", "edge", 0}, &bestY, &bestYDist, &bestYGuide)
		considerAxis(1-b.HalfH, b.CY, thY, Guide{"horizontal", "edge", 1}, &bestY, &bestYDist, &bestYGuide)
	}

	snapped := b
	if !math.IsInf(bestXDist, 1) {
		snapped.CX = vector.FloatRound(bestX, 6)
		guides = append(guides, bestXGuide)
	}
	if !math.IsInf(bestYDist, 1) {
		snapped.CY = vector.FloatRound(bestY, 6)
		guides = append(guides, bestYGuide)
	}
	return snapped, guides
}

// Alignment names the six explicit alignment actions that set a coordinate
// directly without requiring a drag.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
	AlignTop    Alignment = "top"
	AlignMiddle Alignment = "middle"
	AlignBottom Alignment = "bottom"
)

// AlignBox returns b with the coordinate addressed by a set to its exact
// aligned value against the canvas.
func AlignBox(b Box, a Alignment) Box {
	switch a {
	case AlignLeft:
		b.CX = b.HalfW
	case AlignCenter:
		b.CX = 0.5
	case AlignRight:
		b.CX = 1 - b.HalfW
	case AlignTop:
		b.CY = b.HalfH
	case AlignMiddle:
		b.CY = 0.5
	case AlignBottom:
		b.CY = 1 - b.HalfH
	}
	return b
}

// SnapAngle rounds deg to the nearest multiple of step (typically 15).
func SnapAngle(deg, step float64) float64 {
	if step <= 0 {
		return deg
	}
	return math.Round(deg/step) * step
}
