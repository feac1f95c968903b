/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package placement

// Pure transform functions, one per manipulable target. Each maps a
// gesture's pointer delta plus the session's start snapshot to a new
// parameter set, clamped to the entity's declared valid range before it is
// written anywhere.

import (
	"math"

	"layerlab/internal/domain"
	"layerlab/internal/vector"
)

// BackgroundStart is the background pan/zoom snapshot taken at gesture
// start.
type BackgroundStart struct {
	PanX, PanY float64
	Zoom       float64
}

// BackgroundPan converts a pixel drag delta into new pan values. While
// zoomed in, only the overflowing half of the image can pan, so the delta is
// divided by dimension*(zoom-1)/2; at zoom 1 the divisor is dimension/2. The
// image follows the pointer, which moves the pan origin the opposite way.
func BackgroundPan(start BackgroundStart, dxPx, dyPx float64, c vector.Canvas) (panX, panY float64) {
	divX := c.W / 2
	divY := c.H / 2
	if start.Zoom > 1 {
		divX = c.W * (start.Zoom - 1) / 2
		divY = c.H * (start.Zoom - 1) / 2
	}
	panX = domain.Clamp(start.PanX-dxPx/divX, domain.OffsetMin, domain.OffsetMax)
	panY = domain.Clamp(start.PanY-dyPx/divY, domain.OffsetMin, domain.OffsetMax)
	return panX, panY
}

// WheelZoom applies a wheel delta to the background zoom multiplicatively.
func WheelZoom(zoom, wheelDelta float64) float64 {
	return domain.Clamp(zoom*math.Exp(-wheelDelta*0.001), domain.BackgroundZoomMin, domain.BackgroundZoomMax)
}

// PortraitStart is the portrait offset snapshot taken at gesture start.
type PortraitStart struct {
	OffsetX, OffsetY float64
}

// PortraitMove pans the portrait by the normalized delta; the portrait pans
// by delta/dimension regardless of its zoom.
func PortraitMove(start PortraitStart, dxPx, dyPx float64, c vector.Canvas) (offX, offY float64) {
	nx, ny := c.Normalize(dxPx, dyPx)
	offX = domain.Clamp(start.OffsetX+nx, domain.OffsetMin, domain.OffsetMax)
	offY = domain.Clamp(start.OffsetY+ny, domain.OffsetMin, domain.OffsetMax)
	return offX, offY
}

// DistanceScale multiplies startScale by the ratio of the pointer's current
// distance from center to its distance at gesture start, clamped to
// [min,max]. ok is false when the start distance is degenerate; callers
// treat that as "gesture never started".
func DistanceScale(startScale float64, center, startPt, curPt vector.Pt, min, max float64) (scale float64, ok bool) {
	d0 := vector.Dist(center, startPt)
	if d0 <= 0 {
		return startScale, false
	}
	d1 := vector.Dist(center, curPt)
	return domain.Clamp(startScale*d1/d0, min, max), true
}

// PortraitScale resizes the portrait from a corner drag.
func PortraitScale(startZoom float64, center, startPt, curPt vector.Pt) (zoom float64, ok bool) {
	return DistanceScale(startZoom, center, startPt, curPt, domain.PortraitZoomMin, domain.PortraitZoomMax)
}

// LineMove offsets a text slot by the normalized delta from its
// session-start offset. Snapping is applied by the caller before clamping so
// the snapped position survives the clamp.
func LineMove(start domain.LineParams, dxPx, dyPx float64, c vector.Canvas) (offX, offY float64) {
	nx, ny := c.Normalize(dxPx, dyPx)
	offX = start.OffsetX + nx
	offY = start.OffsetY + ny
	return offX, offY
}

// LineScale resizes a text slot by pointer distance ratio around the slot
// box's live center.
func LineScale(startScale float64, center, startPt, curPt vector.Pt) (scale float64, ok bool) {
	return DistanceScale(startScale, center, startPt, curPt, domain.LineScaleMin, domain.LineScaleMax)
}

// LineRotate rotates a text slot by the pointer angle delta around the slot
// box's live center. snap15 rounds the result to 15 degree steps.
func LineRotate(startRotate float64, center, startPt, curPt vector.Pt, snap15 bool) float64 {
	delta := vector.AngleDeg(center, curPt) - vector.AngleDeg(center, startPt)
	deg := domain.NormalizeDeg(startRotate + delta)
	if snap15 {
		deg = domain.NormalizeDeg(SnapAngle(deg, 15))
	}
	return domain.Clamp(deg, domain.RotateMin, domain.RotateMax)
}

// ElementMove produces the candidate new center for an element; the caller
// runs it through snapping and clamps via domain.Element.Clamped.
func ElementMove(startX, startY, dxPx, dyPx float64, c vector.Canvas) (x, y float64) {
	nx, ny := c.Normalize(dxPx, dyPx)
	return startX + nx, startY + ny
}

// Handle names one of the eight resize handles.
type Handle string

const (
	HandleN  Handle = "n"
	HandleNE Handle = "ne"
	HandleE  Handle = "e"
	HandleSE Handle = "se"
	HandleS  Handle = "s"
	HandleSW Handle = "sw"
	HandleW  Handle = "w"
	HandleNW Handle = "nw"
)

// axes returns the sign each local axis contributes for the handle: +1 when
// dragging along positive local x/y grows the element, -1 when negative
// does, 0 when the axis is inert.
func (h Handle) axes() (sx, sy float64) {
	switch h {
	case HandleE:
		return 1, 0
	case HandleW:
		return -1, 0
	case HandleS:
		return 0, 1
	case HandleN:
		return 0, -1
	case HandleSE:
		return 1, 1
	case HandleNE:
		return 1, -1
	case HandleSW:
		return -1, 1
	case HandleNW:
		return -1, -1
	}
	return 0, 0
}

// ResizeModifiers alter an element resize gesture.
type ResizeModifiers struct {
	// FromCenter doubles the size change and keeps the center fixed.
	FromCenter bool
	// Proportional preserves the start aspect ratio using whichever axis
	// moved further.
	Proportional bool
}

// ElementResize applies a pixel drag on one of the eight handles of a
// (possibly rotated) element. The screen delta is rotated into the element's
// local axis system, the active axes receive the local delta, and any center
// shift is rotated back into screen space. Width/height are clamped to their
// range; the center is clamped by Element.Clamped on write.
func ElementResize(start domain.Element, h Handle, dxPx, dyPx float64, c vector.Canvas, mods ResizeModifiers) (x, y, w, hgt float64) {
	sx, sy := h.axes()
	ldx, ldy := vector.ToLocal(dxPx, dyPx, start.RotationDeg)

	// Signed local growth in normalized units.
	growW := sx * ldx / c.W
	growH := sy * ldy / c.H
	if mods.FromCenter {
		growW *= 2
		growH *= 2
	}

	w = start.W + growW
	hgt = start.H + growH

	if mods.Proportional {
		// The dominant axis (larger pixel movement among active axes) wins.
		ax := math.Abs(ldx) * math.Abs(sx)
		ay := math.Abs(ldy) * math.Abs(sy)
		aspect := start.W / start.H
		if ax >= ay && sx != 0 {
			hgt = w / aspect
		} else if sy != 0 {
			w = hgt * aspect
		}
	}

	w = domain.Clamp(w, domain.ElementSizeMin, domain.ElementSizeMax)
	hgt = domain.Clamp(hgt, domain.ElementSizeMin, domain.ElementSizeMax)

	x, y = start.X, start.Y
	if !mods.FromCenter {
		// The dragged edge moves, the opposite edge stays: the center shifts
		// by half the local delta on each active axis, back in screen space.
		shiftLX, shiftLY := 0.0, 0.0
		if sx != 0 {
			shiftLX = ldx / 2
		}
		if sy != 0 {
			shiftLY = ldy / 2
		}
		sdx, sdy := vector.ToScreen(shiftLX, shiftLY, start.RotationDeg)
		x = start.X + sdx/c.W
		y = start.Y + sdy/c.H
	}
	return x, y, w, hgt
}

// ElementRotate rotates an element by the pointer angle delta about its
// screen-space center.
func ElementRotate(startRotation float64, center, startPt, curPt vector.Pt, snap15 bool) float64 {
	delta := vector.AngleDeg(center, curPt) - vector.AngleDeg(center, startPt)
	deg := domain.NormalizeDeg(startRotation + delta)
	if snap15 {
		deg = domain.NormalizeDeg(SnapAngle(deg, 15))
	}
	return deg
}
