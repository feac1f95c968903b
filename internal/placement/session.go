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
	"layerlab/internal/vector"
)

// Kind names the gesture a drag session is performing.
type Kind string

const (
	KindBackgroundPan Kind = "background_pan"
	KindPortraitMove  Kind = "portrait_move"
	KindPortraitScale Kind = "portrait_scale"
	KindLineMove      Kind = "line_move"
	KindLineScale     Kind = "line_scale"
	KindLineRotate    Kind = "line_rotate"
	KindElementMove   Kind = "element_move"
	KindElementResize Kind = "element_resize"
	KindElementRotate Kind = "element_rotate"
)

// Modifiers carries the keyboard state relevant to an in-flight gesture.
// The caller passes the live state on every Move, so holding or releasing a
// key mid-drag takes effect immediately.
type Modifiers struct {
	FromCenter   bool // resize keeps the center pinned
	Proportional bool // resize preserves the start aspect ratio
	SnapAngle    bool // rotation snaps to 15 degree steps
	DisableSnap  bool // suppresses guide snapping for moves
}

// session is the start-of-gesture snapshot. All deltas during the gesture
// are computed against it, never against the previous frame, so pointer
// noise cannot accumulate.
type session struct {
	kind    Kind
	pointer int
	start   vector.Pt
	center  vector.Pt

	bg       BackgroundStart
	portrait PortraitStart
	zoom     float64

	slot     string
	slotBox  domain.SlotBox
	line     domain.LineParams

	element domain.Element
	handle  Handle
}

// Controller owns the single drag session slot and routes pointer events to
// the stores. At most one gesture is active at a time: a Begin while another
// gesture is running ends the running one first, and Move/End events whose
// pointer id does not match the owning gesture are ignored. All writes go
// through the frame scheduler so at most one store mutation lands per frame.
type Controller struct {
	mu       sync.Mutex
	canvas   vector.Canvas
	ov       *override.Store
	lines    *Lines
	elements *Elements
	sched    *Scheduler
	snap     SnapOptions
	guideFn  func([]Guide)
	sess     *session
}

// NewController wires a controller to its stores and scheduler.
func NewController(ov *override.Store, lines *Lines, elements *Elements, sched *Scheduler) *Controller {
	return &Controller{
		ov:       ov,
		lines:    lines,
		elements: elements,
		sched:    sched,
		snap:     DefaultSnapOptions(),
	}
}

// SetCanvas records the current canvas device size. A canvas that is not
// ready (zero area) rejects every Begin.
func (c *Controller) SetCanvas(cv vector.Canvas) {
	c.mu.Lock()
	c.canvas = cv
	c.mu.Unlock()
}

// SetSnapOptions replaces the snapping configuration for element and line
// moves.
func (c *Controller) SetSnapOptions(opts SnapOptions) {
	c.mu.Lock()
	c.snap = opts
	c.mu.Unlock()
}

// OnGuides registers the sink for guide feedback during snapped moves. It
// receives nil when no guide is active.
func (c *Controller) OnGuides(fn func([]Guide)) {
	c.mu.Lock()
	c.guideFn = fn
	c.mu.Unlock()
}

// Active returns the kind of the running gesture, if any.
func (c *Controller) Active() (Kind, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return "", false
	}
	return c.sess.kind, true
}

// BeginBackgroundPan starts a background drag, snapshotting the current pan
// and zoom.
func (c *Controller) BeginBackgroundPan(pointer int, x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canvas.Ready() {
		return false
	}
	c.takeSlotLocked()
	c.sess = &session{
		kind:    KindBackgroundPan,
		pointer: pointer,
		start:   vector.Pt{X: x, Y: y},
		bg: BackgroundStart{
			PanX: c.ov.ResolveFloat(PathBGPanX, 0),
			PanY: c.ov.ResolveFloat(PathBGPanY, 0),
			Zoom: c.ov.ResolveFloat(PathBGZoom, 1),
		},
	}
	return true
}

// BeginPortraitMove starts a portrait drag.
func (c *Controller) BeginPortraitMove(pointer int, x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canvas.Ready() {
		return false
	}
	c.takeSlotLocked()
	c.sess = &session{
		kind:    KindPortraitMove,
		pointer: pointer,
		start:   vector.Pt{X: x, Y: y},
		portrait: PortraitStart{
			OffsetX: c.ov.ResolveFloat(PathPortraitOffsetX, 0),
			OffsetY: c.ov.ResolveFloat(PathPortraitOffsetY, 0),
		},
	}
	return true
}

// BeginPortraitScale starts a distance-ratio zoom of the portrait around
// center (device px).
func (c *Controller) BeginPortraitScale(pointer int, center vector.Pt, x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canvas.Ready() {
		return false
	}
	if vector.Dist(center, vector.Pt{X: x, Y: y}) == 0 {
		return false
	}
	c.takeSlotLocked()
	c.sess = &session{
		kind:    KindPortraitScale,
		pointer: pointer,
		start:   vector.Pt{X: x, Y: y},
		center:  center,
		zoom:    c.ov.ResolveFloat(PathPortraitZoom, 1),
	}
	return true
}

// BeginLineMove starts a text block drag. box is the slot's template frame,
// used for guide snapping.
func (c *Controller) BeginLineMove(pointer int, slot string, box domain.SlotBox, x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canvas.Ready() || slot == "" {
		return false
	}
	c.takeSlotLocked()
	c.sess = &session{
		kind:    KindLineMove,
		pointer: pointer,
		start:   vector.Pt{X: x, Y: y},
		slot:    slot,
		slotBox: box,
		line:    c.lines.Get(slot),
	}
	c.lines.SetActive(slot)
	return true
}

// BeginLineScale starts a distance-ratio scale of a text block around
// center (device px).
func (c *Controller) BeginLineScale(pointer int, slot string, center vector.Pt, x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canvas.Ready() || slot == "" {
		return false
	}
	if vector.Dist(center, vector.Pt{X: x, Y: y}) == 0 {
		return false
	}
	c.takeSlotLocked()
	c.sess = &session{
		kind:    KindLineScale,
		pointer: pointer,
		start:   vector.Pt{X: x, Y: y},
		center:  center,
		slot:    slot,
		line:    c.lines.Get(slot),
	}
	c.lines.SetActive(slot)
	return true
}

// BeginLineRotate starts an angular rotation of a text block around center
// (device px).
func (c *Controller) BeginLineRotate(pointer int, slot string, center vector.Pt, x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canvas.Ready() || slot == "" {
		return false
	}
	c.takeSlotLocked()
	c.sess = &session{
		kind:    KindLineRotate,
		pointer: pointer,
		start:   vector.Pt{X: x, Y: y},
		center:  center,
		slot:    slot,
		line:    c.lines.Get(slot),
	}
	c.lines.SetActive(slot)
	return true
}

// BeginElementMove starts dragging an element and selects it.
func (c *Controller) BeginElementMove(pointer int, id string, x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canvas.Ready() {
		return false
	}
	el, ok := c.elements.Get(id)
	if !ok {
		return false
	}
	c.takeSlotLocked()
	c.sess = &session{
		kind:    KindElementMove,
		pointer: pointer,
		start:   vector.Pt{X: x, Y: y},
		element: el,
	}
	c.elements.Select(id)
	return true
}

// BeginElementResize starts a handle resize of an element.
func (c *Controller) BeginElementResize(pointer int, id string, h Handle, x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canvas.Ready() {
		return false
	}
	el, ok := c.elements.Get(id)
	if !ok {
		return false
	}
	c.takeSlotLocked()
	c.sess = &session{
		kind:    KindElementResize,
		pointer: pointer,
		start:   vector.Pt{X: x, Y: y},
		element: el,
		handle:  h,
	}
	c.elements.Select(id)
	return true
}

// BeginElementRotate starts an angular rotation of an element around center
// (device px).
func (c *Controller) BeginElementRotate(pointer int, id string, center vector.Pt, x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.canvas.Ready() {
		return false
	}
	el, ok := c.elements.Get(id)
	if !ok {
		return false
	}
	c.takeSlotLocked()
	c.sess = &session{
		kind:    KindElementRotate,
		pointer: pointer,
		start:   vector.Pt{X: x, Y: y},
		center:  center,
		element: el,
	}
	c.elements.Select(id)
	return true
}

// Move routes a pointer move to the active gesture. Moves from a pointer
// that does not own the session slot are ignored.
func (c *Controller) Move(pointer int, x, y float64, mods Modifiers) bool {
	c.mu.Lock()
	s := c.sess
	cv := c.canvas
	snap := c.snap
	guideFn := c.guideFn
	c.mu.Unlock()
	if s == nil || s.pointer != pointer {
		return false
	}
	dx := x - s.start.X
	dy := y - s.start.Y
	cur := vector.Pt{X: x, Y: y}

	var guides []Guide
	switch s.kind {
	case KindBackgroundPan:
		panX, panY := BackgroundPan(s.bg, dx, dy, cv)
		c.sched.Push(func() {
			c.ov.SetLeaf(PathBGPanX, panX)
			c.ov.SetLeaf(PathBGPanY, panY)
		})

	case KindPortraitMove:
		offX, offY := PortraitMove(s.portrait, dx, dy, cv)
		c.sched.Push(func() {
			c.ov.SetLeaf(PathPortraitOffsetX, offX)
			c.ov.SetLeaf(PathPortraitOffsetY, offY)
		})

	case KindPortraitScale:
		zoom, ok := PortraitScale(s.zoom, s.center, s.start, cur)
		if !ok {
			return true
		}
		c.sched.Push(func() { c.ov.SetLeaf(PathPortraitZoom, zoom) })

	case KindLineMove:
		offX, offY := LineMove(s.line, dx, dy, cv)
		if !mods.DisableSnap {
			offX, offY, guides = c.snapLine(s, offX, offY, cv, snap)
		}
		p := s.line
		p.OffsetX = offX
		p.OffsetY = offY
		p = p.Clamped()
		slot := s.slot
		c.sched.Push(func() { c.lines.Set(slot, p) })

	case KindLineScale:
		scale, ok := LineScale(s.line.Scale, s.center, s.start, cur)
		if !ok {
			return true
		}
		p := s.line
		p.Scale = scale
		slot := s.slot
		c.sched.Push(func() { c.lines.Set(slot, p) })

	case KindLineRotate:
		deg := LineRotate(s.line.RotateDeg, s.center, s.start, cur, mods.SnapAngle)
		p := s.line
		p.RotateDeg = deg
		slot := s.slot
		c.sched.Push(func() { c.lines.Set(slot, p) })

	case KindElementMove:
		ex, ey := ElementMove(s.element.X, s.element.Y, dx, dy, cv)
		if !mods.DisableSnap {
			b := Box{CX: ex, CY: ey, HalfW: s.element.W / 2, HalfH: s.element.H / 2}
			b, guides = SnapBox(b, cv, snap)
			ex, ey = b.CX, b.CY
		}
		el := s.element
		el.X = ex
		el.Y = ey
		c.sched.Push(func() { c.elements.Update(el) })

	case KindElementResize:
		rm := ResizeModifiers{FromCenter: mods.FromCenter, Proportional: mods.Proportional}
		ex, ey, w, h := ElementResize(s.element, s.handle, dx, dy, cv, rm)
		el := s.element
		el.X, el.Y, el.W, el.H = ex, ey, w, h
		c.sched.Push(func() { c.elements.Update(el) })

	case KindElementRotate:
		deg := ElementRotate(s.element.RotationDeg, s.center, s.start, cur, mods.SnapAngle)
		el := s.element
		el.RotationDeg = deg
		c.sched.Push(func() { c.elements.Update(el) })
	}

	if guideFn != nil {
		guideFn(guides)
	}
	return true
}

// End finishes the gesture owned by pointer, flushing any pending frame
// write so the final state lands synchronously.
func (c *Controller) End(pointer int) bool {
	c.mu.Lock()
	if c.sess == nil || c.sess.pointer != pointer {
		c.mu.Unlock()
		return false
	}
	c.sess = nil
	guideFn := c.guideFn
	c.mu.Unlock()
	c.sched.Flush()
	if guideFn != nil {
		guideFn(nil)
	}
	return true
}

// Cancel finishes the gesture owned by pointer. A cancelled gesture is
// committed exactly like an ended one: the last applied values stand, there
// is no revert to the start-of-gesture snapshot.
func (c *Controller) Cancel(pointer int) bool {
	return c.End(pointer)
}

// Wheel applies a zoom step to the background. Wheel events do not open a
// session; each step reads the live zoom so consecutive steps compound.
func (c *Controller) Wheel(delta float64) {
	c.mu.Lock()
	ready := c.canvas.Ready()
	c.mu.Unlock()
	if !ready {
		return
	}
	c.sched.Push(func() {
		zoom := WheelZoom(c.ov.ResolveFloat(PathBGZoom, 1), delta)
		c.ov.SetLeaf(PathBGZoom, zoom)
	})
}

// takeSlotLocked evicts a running gesture before a new Begin claims the
// slot. The evicted gesture keeps whatever it last applied.
func (c *Controller) takeSlotLocked() {
	if c.sess != nil {
		c.sess = nil
		c.sched.Flush()
	}
}

// snapLine snaps the dragged text block against the canvas guides. The
// block's box is the slot frame shifted by the candidate offset.
func (c *Controller) snapLine(s *session, offX, offY float64, cv vector.Canvas, snap SnapOptions) (float64, float64, []Guide) {
	if s.slotBox.IsEmpty() {
		return offX, offY, nil
	}
	b := Box{
		CX:    s.slotBox.CenterX() + offX,
		CY:    s.slotBox.CenterY() + offY,
		HalfW: s.slotBox.Width / 2,
		HalfH: s.slotBox.Height / 2,
	}
	b, guides := SnapBox(b, cv, snap)
	return b.CX - s.slotBox.CenterX(), b.CY - s.slotBox.CenterY(), guides
}
