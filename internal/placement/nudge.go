/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package placement

import "layerlab/internal/domain"

// Arrow-key step sizes in device pixels.
const (
	nudgeStepPx       = 4
	nudgeStepCoarsePx = 12
	nudgeStepFinePx   = 1
)

// NudgeStepPx returns the arrow-key step in device pixels. coarse wins when
// both modifiers are held.
func NudgeStepPx(coarse, fine bool) float64 {
	switch {
	case coarse:
		return nudgeStepCoarsePx
	case fine:
		return nudgeStepFinePx
	default:
		return nudgeStepPx
	}
}

// Nudge moves the current keyboard target by one arrow-key step. dirX and
// dirY are -1, 0 or 1. The selected element wins over the active text slot;
// with neither there is no target and Nudge reports false. Nudges are
// applied synchronously, not frame-batched, so each key press lands.
func (c *Controller) Nudge(dirX, dirY int, coarse, fine bool) bool {
	c.mu.Lock()
	cv := c.canvas
	c.mu.Unlock()
	if !cv.Ready() || (dirX == 0 && dirY == 0) {
		return false
	}
	step := NudgeStepPx(coarse, fine)
	dx := float64(dirX) * step / cv.W
	dy := float64(dirY) * step / cv.H

	if id := c.elements.Selected(); id != "" {
		el, ok := c.elements.Get(id)
		if !ok {
			return false
		}
		el.X += dx
		el.Y += dy
		c.elements.Update(el)
		return true
	}

	slot := c.lines.Active()
	if slot == "" {
		return false
	}
	p := c.lines.Get(slot)
	p.OffsetX += dx
	p.OffsetY += dy
	c.lines.Set(slot, p.Clamped())
	return true
}

// DeleteSelected removes the selected element, if any. A running gesture on
// that element is ended first so no pending frame write resurrects it.
func (c *Controller) DeleteSelected() bool {
	id := c.elements.Selected()
	if id == "" {
		return false
	}
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s != nil && s.element.ID == id {
		c.End(s.pointer)
	}
	return c.elements.Delete(id)
}

// AlignSelected aligns the selected element against the canvas without a
// drag.
func (c *Controller) AlignSelected(a Alignment) bool {
	id := c.elements.Selected()
	if id == "" {
		return false
	}
	el, ok := c.elements.Get(id)
	if !ok {
		return false
	}
	b := AlignBox(Box{CX: el.X, CY: el.Y, HalfW: el.W / 2, HalfH: el.H / 2}, a)
	el.X, el.Y = b.CX, b.CY
	return c.elements.Update(el)
}

// AlignActiveLine aligns the active text slot against the canvas without a
// drag. box is the slot's template frame; as in snapping, the aligned box is
// the frame shifted by the offset, and the aligned position lands as a new
// offset.
func (c *Controller) AlignActiveLine(a Alignment, box domain.SlotBox) bool {
	slot := c.lines.Active()
	if slot == "" || box.IsEmpty() {
		return false
	}
	p := c.lines.Get(slot)
	b := Box{
		CX:    box.CenterX() + p.OffsetX,
		CY:    box.CenterY() + p.OffsetY,
		HalfW: box.Width / 2,
		HalfH: box.Height / 2,
	}
	b = AlignBox(b, a)
	p.OffsetX = b.CX - box.CenterX()
	p.OffsetY = b.CY - box.CenterY()
	c.lines.Set(slot, p.Clamped())
	return true
}

// ResetSelectedRotation clears the rotation of the selected element.
func (c *Controller) ResetSelectedRotation() bool {
	id := c.elements.Selected()
	if id == "" {
		return false
	}
	el, ok := c.elements.Get(id)
	if !ok {
		return false
	}
	el.RotationDeg = 0
	return c.elements.Update(el)
}
