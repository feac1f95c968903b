//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"layerlab/internal/backend"
	"layerlab/internal/config"
	"layerlab/internal/crash"
	"layerlab/internal/domain"
	"layerlab/internal/export"
	applog "layerlab/internal/log"
	"layerlab/internal/placement"
	"layerlab/internal/storage"
	"layerlab/internal/telemetry"
	"layerlab/internal/vector"
)

// canvasAspect is the fixed height/width ratio of the composition canvas.
const canvasAspect = 9.0 / 16.0

// Run starts the Fyne-based placement editor for one variant.
func Run(subject, video, variant string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithScope(applog.WithComponent("ui"), subject, video, variant)
	l.Info("starting UI")

	telemetry.InitDefault()
	telemetry.Event("editor.open", nil)

	cfg, token, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client := backend.NewClient(cfg.Backend.BaseURL, token)

	var ws *storage.WorkspaceHandle
	if h, err := storage.InitWorkspace(storage.DefaultWorkspaceRoot()); err != nil {
		l.Warn("workspace unavailable, drafts disabled", slog.Any("err", err))
	} else {
		ws = h
	}

	// Fyne delivers pointer events on the main loop, so batched moves can
	// apply inline.
	ed := placement.NewEditor(client, nil)
	defer crash.Recover(ws, func() (domain.Draft, bool) {
		if ed == nil {
			return domain.Draft{}, false
		}
		return ed.DraftState(), true
	})

	ed.Controller().SetSnapOptions(placement.SnapOptions{
		ThresholdPx:  cfg.Editor.SnapThresholdPx,
		SnapToCenter: cfg.Editor.SnapToCenter,
		SnapToEdges:  cfg.Editor.SnapToEdges,
	})

	fyneApp := app.NewWithID("layerlab")
	w := fyneApp.NewWindow("LayerLab")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Opening…")
	pc := NewPlacementCanvas(ed)

	ed.OnError(func(msg string) {
		status.SetText(msg)
	})
	ed.OnPreviews(func(map[string]string) {
		status.SetText("Previews updated")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := ed.Open(ctx, subject, video, variant); err != nil {
		return fmt.Errorf("open editor: %w", err)
	}
	status.SetText(fmt.Sprintf("Editing %s / %s / %s", subject, video, variant))
	pc.ReloadScene()

	// Template picker
	ec := ed.Context()
	tplIDs := make([]string, 0, len(ec.TemplateOptions))
	for _, t := range ec.TemplateOptions {
		tplIDs = append(tplIDs, t.ID)
	}
	tplSelect := widget.NewSelect(tplIDs, func(id string) {
		ed.SetTemplate(id)
		pc.ReloadScene()
		status.SetText("Template: " + id)
	})
	tplSelect.SetSelected(ed.ActiveTemplate())

	presetSelect := widget.NewSelect(placement.LinePresetNames(), func(name string) {
		slot := ed.Lines().Active()
		if slot == "" {
			status.SetText("Select a text line first")
			return
		}
		if ed.ApplyLinePreset(slot, name) {
			pc.Refresh()
			status.SetText(fmt.Sprintf("Preset %q on %s", name, slot))
		}
	})
	presetSelect.PlaceHolder = "Line preset…"

	addRect := widget.NewButton("+ Rect", func() {
		ed.AddElement(domain.ElementRect, domain.LayerAbovePortrait)
		pc.Refresh()
	})
	addCircle := widget.NewButton("+ Circle", func() {
		ed.AddElement(domain.ElementCircle, domain.LayerAbovePortrait)
		pc.Refresh()
	})
	dupBtn := widget.NewButton("Duplicate", func() {
		if ed.DuplicateSelected() {
			pc.Refresh()
		}
	})
	frontBtn := widget.NewButton("To Front", func() {
		if ed.ReorderSelected(placement.ToFront) {
			pc.Refresh()
		}
	})
	undoBtn := widget.NewButton("Undo", func() {
		if ed.Undo() {
			pc.ReloadScene()
			status.SetText("Undo")
		}
	})
	redoBtn := widget.NewButton("Redo", func() {
		if ed.Redo() {
			pc.ReloadScene()
			status.SetText("Redo")
		}
	})
	saveBtn := widget.NewButton("Save", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := ed.Save(ctx, false); err != nil {
			status.SetText("Save failed: " + err.Error())
			return
		}
		telemetry.Event("editor.save", nil)
		status.SetText("Saved")
	})
	renderBtn := widget.NewButton("Save + Render", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if err := ed.Save(ctx, true); err != nil {
			status.SetText("Save failed: " + err.Error())
			return
		}
		telemetry.Event("editor.save", map[string]any{"render": true})
		status.SetText("Saved, render queued")
	})
	parkBtn := widget.NewButton("Park Draft", func() {
		if ws == nil {
			status.SetText("No workspace available")
			return
		}
		if err := ws.SaveDraft(ed.DraftState()); err != nil {
			status.SetText("Park failed: " + err.Error())
			return
		}
		status.SetText("Draft parked")
	})
	resumeBtn := widget.NewButton("Resume Draft", func() {
		if ws == nil {
			status.SetText("No workspace available")
			return
		}
		d, err := ws.LoadDraft(subject, video, variant)
		if err != nil {
			status.SetText("No parked draft")
			return
		}
		ed.RestoreDraft(*d)
		pc.ReloadScene()
		status.SetText("Draft resumed")
	})
	proofBtn := widget.NewButton("Proof Sheet", func() {
		tpl := activeTemplateOption(ed)
		layout := export.LayoutFromDraft(ed.DraftState(), tpl, ec.PortraitBox, ec.PortraitAvailable)
		out := fmt.Sprintf("proof-%s-%s-%s.pdf", subject, video, variant)
		if err := export.ExportLayoutsPDF([]export.Layout{layout}, out, export.PDFOptions{IncludeGuides: true}); err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Proof sheet written: " + out)
	})

	toolbar := container.NewHBox(
		tplSelect, presetSelect,
		addRect, addCircle, dupBtn, frontBtn,
		undoBtn, redoBtn,
		saveBtn, renderBtn, parkBtn, resumeBtn, proofBtn,
	)

	w.SetContent(container.NewBorder(toolbar, status, nil, nil, pc))

	// Modifier tracking and keyboard placement commands.
	coarse, fine := false, false
	applyMods := func() {
		pc.SetModifiers(placement.Modifiers{
			Proportional: coarse, // Shift keeps aspect during resizes
			SnapAngle:    coarse, // and snaps rotation to 15 degree steps
			FromCenter:   fine,   // Alt resizes about the center
			DisableSnap:  fine,   // and suppresses guide snapping
		})
	}
	if dc, ok := w.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(ev *fyne.KeyEvent) {
			switch ev.Name {
			case desktop.KeyShiftLeft, desktop.KeyShiftRight:
				coarse = true
			case desktop.KeyAltLeft, desktop.KeyAltRight:
				fine = true
			}
			applyMods()
		})
		dc.SetOnKeyUp(func(ev *fyne.KeyEvent) {
			switch ev.Name {
			case desktop.KeyShiftLeft, desktop.KeyShiftRight:
				coarse = false
			case desktop.KeyAltLeft, desktop.KeyAltRight:
				fine = false
			}
			applyMods()
		})
	}
	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		dx, dy := 0, 0
		switch ev.Name {
		case fyne.KeyLeft:
			dx = -1
		case fyne.KeyRight:
			dx = 1
		case fyne.KeyUp:
			dy = -1
		case fyne.KeyDown:
			dy = 1
		case fyne.KeyDelete, fyne.KeyBackspace:
			if ed.DeleteSelected() {
				pc.Refresh()
			}
			return
		case fyne.KeyEscape:
			pc.CancelDrag()
			pc.ReloadScene()
			status.SetText("Gesture cancelled")
			return
		default:
			return
		}
		if ed.Nudge(dx, dy, coarse, fine) {
			pc.Refresh()
		}
	})

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	w.ShowAndRun()
	return nil
}

func activeTemplateOption(ed *placement.Editor) domain.TemplateOption {
	ec := ed.Context()
	id := ed.ActiveTemplate()
	for _, t := range ec.TemplateOptions {
		if t.ID == id {
			return t
		}
	}
	if len(ec.TemplateOptions) > 0 {
		return ec.TemplateOptions[0]
	}
	return domain.TemplateOption{}
}

// dragKind represents the gesture the current drag resolved to.
type dragKind int

const (
	dragNone dragKind = iota
	dragBackground
	dragPortrait
	dragPortraitScale
	dragLine
	dragLineScale
	dragLineRotate
	dragElement
	dragElementResize
	dragElementRotate
)

// PlacementCanvas renders the composition scene and maps pointer gestures to
// the placement controller. All geometry lives in normalized canvas units;
// the widget letterboxes a fixed-aspect canvas into its bounds.
type PlacementCanvas struct {
	widget.BaseWidget

	ed   *placement.Editor
	mods placement.Modifiers

	// drag state
	mode       dragKind
	pointerSeq int
	pointer    int
	dragStart  time.Time

	// snap guides published by the controller
	guides []placement.Guide
}

func NewPlacementCanvas(ed *placement.Editor) *PlacementCanvas {
	pc := &PlacementCanvas{ed: ed, mode: dragNone}
	ed.Controller().OnGuides(func(gs []placement.Guide) {
		pc.guides = gs
		pc.Refresh()
	})
	pc.ExtendBaseWidget(pc)
	return pc
}

// PreferredSize sets a decent default size for the widget.
func (p *PlacementCanvas) PreferredSize() fyne.Size { return fyne.NewSize(960, 540) }

// SetModifiers records the live modifier state passed with every move.
func (p *PlacementCanvas) SetModifiers(m placement.Modifiers) { p.mods = m }

// ReloadScene re-reads editor state after template changes, undo or restore.
func (p *PlacementCanvas) ReloadScene() {
	p.guides = nil
	p.syncCanvasRect()
	p.Refresh()
}

// canvasRect letterboxes the fixed-aspect canvas into the widget bounds.
// Returns origin and size in device pixels.
func (p *PlacementCanvas) canvasRect() (x, y, w, h float32) {
	size := p.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return 0, 0, 0, 0
	}
	w = size.Width
	h = w * canvasAspect
	if h > size.Height {
		h = size.Height
		w = h / canvasAspect
	}
	x = (size.Width - w) / 2
	y = (size.Height - h) / 2
	return x, y, w, h
}

func (p *PlacementCanvas) syncCanvasRect() {
	_, _, w, h := p.canvasRect()
	p.ed.Controller().SetCanvas(vector.Canvas{W: float64(w), H: float64(h)})
}

// toCanvas converts a widget position to device pixels relative to the canvas
// origin, plus the normalized point.
func (p *PlacementCanvas) toCanvas(pos fyne.Position) (px, py float64, norm vector.Pt) {
	x, y, w, h := p.canvasRect()
	px = float64(pos.X - x)
	py = float64(pos.Y - y)
	if w > 0 && h > 0 {
		norm = vector.Pt{X: px / float64(w), Y: py / float64(h)}
	}
	return px, py, norm
}

// slotDrawBox returns the adjusted normalized frame of a slot.
func (p *PlacementCanvas) slotDrawBox(slot string) (domain.SlotBox, bool) {
	anchor, ok := p.ed.SlotBox(slot)
	if !ok {
		return domain.SlotBox{}, false
	}
	lp := p.ed.Lines().Get(slot)
	s := lp.Scale
	if s <= 0 {
		s = 1
	}
	cx := anchor.CenterX() + lp.OffsetX
	cy := anchor.CenterY() + lp.OffsetY
	w := anchor.Width * s
	h := anchor.Height * s
	return domain.SlotBox{Left: cx - w/2, Top: cy - h/2, Width: w, Height: h}, true
}

func normHit(b domain.SlotBox, pt vector.Pt) bool {
	return pt.X >= b.Left && pt.X <= b.Left+b.Width && pt.Y >= b.Top && pt.Y <= b.Top+b.Height
}

func elementBox(e domain.Element) domain.SlotBox {
	return domain.SlotBox{Left: e.X - e.W/2, Top: e.Y - e.H/2, Width: e.W, Height: e.H}
}

// hitElement returns the topmost element under pt. Rotation is ignored for
// hit testing; the axis-aligned frame is close enough for manipulation.
func (p *PlacementCanvas) hitElement(pt vector.Pt) (domain.Element, bool) {
	list := p.ed.Elements().List()
	best := -1
	for i, e := range list {
		if !normHit(elementBox(e), pt) {
			continue
		}
		if best < 0 || paintRank(list[i]) >= paintRank(list[best]) {
			best = i
		}
	}
	if best < 0 {
		return domain.Element{}, false
	}
	return list[best], true
}

// paintRank orders layers for hit testing: above-portrait wins over below.
func paintRank(e domain.Element) int {
	if e.Layer == domain.LayerAbovePortrait {
		return 1<<20 + e.Z
	}
	return e.Z
}

type slotHit int

const (
	slotHitNone slotHit = iota
	slotHitCorner
	slotHitKnob
)

// slotHandleHit pixel-tests the four corners and the rotation knob of a
// slot's draw box.
func slotHandleHit(b domain.SlotBox, px, py, w, h float64) slotHit {
	x0, y0 := b.Left*w, b.Top*h
	x1, y1 := (b.Left+b.Width)*w, (b.Top+b.Height)*h
	const grab = 7.0
	within := func(hx, hy float64) bool {
		return px >= hx-grab && px <= hx+grab && py >= hy-grab && py <= hy+grab
	}
	if within((x0+x1)/2, y0-24) {
		return slotHitKnob
	}
	for _, c := range [4][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}} {
		if within(c[0], c[1]) {
			return slotHitCorner
		}
	}
	return slotHitNone
}

// handleHit pixel-tests the selection handles of the selected element.
// Returns the resize handle name, or rotate=true for the rotation knob.
func (p *PlacementCanvas) handleHit(px, py float64) (placement.Handle, bool, bool) {
	id := p.ed.Elements().Selected()
	if id == "" {
		return "", false, false
	}
	el, ok := p.ed.Elements().Get(id)
	if !ok {
		return "", false, false
	}
	_, _, w, h := p.canvasRect()
	b := elementBox(el)
	x0, y0 := b.Left*float64(w), b.Top*float64(h)
	x1, y1 := (b.Left+b.Width)*float64(w), (b.Top+b.Height)*float64(h)
	cx, cy := (x0+x1)/2, (y0+y1)/2
	const grab = 7.0
	within := func(hx, hy float64) bool {
		return px >= hx-grab && px <= hx+grab && py >= hy-grab && py <= hy+grab
	}
	// Rotation knob floats above the top center
	if within(cx, y0-24) {
		return "", true, true
	}
	handles := []struct {
		name placement.Handle
		x, y float64
	}{
		{placement.HandleNW, x0, y0}, {placement.HandleN, cx, y0}, {placement.HandleNE, x1, y0},
		{placement.HandleE, x1, cy}, {placement.HandleSE, x1, y1}, {placement.HandleS, cx, y1},
		{placement.HandleSW, x0, y1}, {placement.HandleW, x0, cy},
	}
	for _, hd := range handles {
		if within(hd.x, hd.y) {
			return hd.name, false, true
		}
	}
	return "", false, false
}

// Tapped selects the element or text line under the cursor.
func (p *PlacementCanvas) Tapped(e *fyne.PointEvent) {
	_, _, pt := p.toCanvas(e.Position)
	if el, ok := p.hitElement(pt); ok {
		p.ed.Elements().Select(el.ID)
		p.ed.Lines().SetActive("")
		p.Refresh()
		return
	}
	for _, slot := range p.slotNames() {
		if b, ok := p.slotDrawBox(slot); ok && normHit(b, pt) {
			p.ed.Lines().SetActive(slot)
			p.ed.Elements().Select("")
			p.Refresh()
			return
		}
	}
	p.ed.Elements().Select("")
	p.ed.Lines().SetActive("")
	p.Refresh()
}

func (p *PlacementCanvas) slotNames() []string {
	tpl := activeTemplateOption(p.ed)
	names := make([]string, 0, len(tpl.Slots))
	for n := range tpl.Slots {
		names = append(names, n)
	}
	return names
}

// Dragged resolves the gesture target on the first event and streams moves
// to the controller afterwards.
func (p *PlacementCanvas) Dragged(e *fyne.DragEvent) {
	px, py, pt := p.toCanvas(e.Position)
	ctrl := p.ed.Controller()

	if p.mode == dragNone {
		p.syncCanvasRect()
		p.pointerSeq++
		p.pointer = p.pointerSeq
		p.dragStart = time.Now()
		_, _, w, h := p.canvasRect()

		// Selection handles first
		if hd, rotate, ok := p.handleHit(px, py); ok {
			id := p.ed.Elements().Selected()
			if el, found := p.ed.Elements().Get(id); found {
				if rotate {
					center := vector.Pt{X: el.X * float64(w), Y: el.Y * float64(h)}
					if ctrl.BeginElementRotate(p.pointer, id, center, px, py) {
						p.mode = dragElementRotate
					}
				} else if ctrl.BeginElementResize(p.pointer, id, hd, px, py) {
					p.mode = dragElementResize
				}
			}
		}

		if p.mode == dragNone {
			if el, ok := p.hitElement(pt); ok {
				if ctrl.BeginElementMove(p.pointer, el.ID, px, py) {
					p.mode = dragElement
				}
			}
		}

		// Corner and knob of the active slot scale or rotate the line
		if p.mode == dragNone {
			if slot := p.ed.Lines().Active(); slot != "" {
				if b, ok := p.slotDrawBox(slot); ok {
					center := vector.Pt{X: (b.Left + b.Width/2) * float64(w), Y: (b.Top + b.Height/2) * float64(h)}
					switch slotHandleHit(b, px, py, float64(w), float64(h)) {
					case slotHitCorner:
						if ctrl.BeginLineScale(p.pointer, slot, center, px, py) {
							p.mode = dragLineScale
						}
					case slotHitKnob:
						if ctrl.BeginLineRotate(p.pointer, slot, center, px, py) {
							p.mode = dragLineRotate
						}
					}
				}
			}
		}

		if p.mode == dragNone {
			for _, slot := range p.slotNames() {
				b, ok := p.slotDrawBox(slot)
				if !ok || !normHit(b, pt) {
					continue
				}
				anchor, _ := p.ed.SlotBox(slot)
				if ctrl.BeginLineMove(p.pointer, slot, anchor, px, py) {
					p.mode = dragLine
				}
				break
			}
		}

		if p.mode == dragNone {
			ec := p.ed.Context()
			if ec.PortraitAvailable && !ec.PortraitBox.IsEmpty() {
				pb := ec.PortraitBox
				center := vector.Pt{X: pb.CenterX() * float64(w), Y: pb.CenterY() * float64(h)}
				if slotHandleHit(pb, px, py, float64(w), float64(h)) == slotHitCorner {
					if ctrl.BeginPortraitScale(p.pointer, center, px, py) {
						p.mode = dragPortraitScale
					}
				} else if normHit(pb, pt) {
					if ctrl.BeginPortraitMove(p.pointer, px, py) {
						p.mode = dragPortrait
					}
				}
			}
		}

		if p.mode == dragNone {
			if ctrl.BeginBackgroundPan(p.pointer, px, py) {
				p.mode = dragBackground
			}
		}
		if p.mode == dragNone {
			return
		}
	}

	ctrl.Move(p.pointer, px, py, p.mods)
	p.Refresh()
}

// CancelDrag routes a cancel event for the in-flight drag. Cancel commits
// like DragEnd; the values already applied stand.
func (p *PlacementCanvas) CancelDrag() {
	if p.mode == dragNone {
		return
	}
	p.mode = dragNone
	p.ed.CancelGesture(p.pointer)
	p.guides = nil
	p.Refresh()
}

// DragEnd commits the gesture as one undo step.
func (p *PlacementCanvas) DragEnd() {
	if p.mode == dragNone {
		return
	}
	kind := p.mode
	p.mode = dragNone
	p.ed.EndGesture(p.pointer)
	p.guides = nil
	telemetry.Gesture(gestureName(kind), time.Since(p.dragStart))
	p.Refresh()
}

func gestureName(k dragKind) string {
	switch k {
	case dragBackground:
		return "background.pan"
	case dragPortrait:
		return "portrait.move"
	case dragPortraitScale:
		return "portrait.scale"
	case dragLine:
		return "line.move"
	case dragLineScale:
		return "line.scale"
	case dragLineRotate:
		return "line.rotate"
	case dragElement:
		return "element.move"
	case dragElementResize:
		return "element.resize"
	case dragElementRotate:
		return "element.rotate"
	}
	return "unknown"
}

// Scrolled zooms the background; positive wheel steps zoom in.
func (p *PlacementCanvas) Scrolled(e *fyne.ScrollEvent) {
	p.syncCanvasRect()
	p.ed.Controller().Wheel(-float64(e.Scrolled.DY))
	p.Refresh()
}

// CreateRenderer builds the scene visuals positioned manually each layout.
func (p *PlacementCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})

	frame := canvas.NewRectangle(color.White)
	frame.StrokeColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	frame.StrokeWidth = 2

	portrait := canvas.NewRectangle(color.RGBA{R: 210, G: 210, B: 210, A: 255})
	portrait.StrokeColor = color.RGBA{R: 102, G: 102, B: 102, A: 255}
	portrait.StrokeWidth = 1

	bbox := canvas.NewRectangle(color.RGBA{})
	bbox.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	bbox.StrokeWidth = 1
	bbox.Hide()

	handles := make([]*canvas.Rectangle, 8)
	for i := range handles {
		handles[i] = canvas.NewRectangle(color.RGBA{R: 0, G: 170, B: 255, A: 255})
		handles[i].Hide()
	}
	rot := canvas.NewCircle(color.RGBA{R: 255, G: 170, B: 0, A: 255})
	rot.Hide()

	objs := []fyne.CanvasObject{bg, frame, portrait, bbox}
	for _, h := range handles {
		objs = append(objs, h)
	}
	objs = append(objs, rot)

	return &placementRenderer{
		pc:       p,
		objects:  objs,
		bg:       bg,
		frame:    frame,
		portrait: portrait,
		bbox:     bbox,
		handles:  handles,
		rot:      rot,
	}
}

type placementRenderer struct {
	pc       *PlacementCanvas
	objects  []fyne.CanvasObject
	bg       *canvas.Rectangle
	frame    *canvas.Rectangle
	portrait *canvas.Rectangle

	slotRects  []*canvas.Rectangle
	elemRects  []*canvas.Rectangle
	guideLines []*canvas.Line

	bbox    *canvas.Rectangle
	handles []*canvas.Rectangle
	rot     *canvas.Circle
}

func (r *placementRenderer) Destroy()                     {}
func (r *placementRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *placementRenderer) MinSize() fyne.Size           { return fyne.NewSize(640, 360) }
func (r *placementRenderer) Refresh()                     { r.Layout(r.pc.Size()); canvas.Refresh(r.pc) }

// insertBefore grows a visual pool, keeping the selection overlay on top.
func (r *placementRenderer) insertBefore(anchor fyne.CanvasObject, obj fyne.CanvasObject) {
	ins := len(r.objects)
	for i, o := range r.objects {
		if o == anchor {
			ins = i
			break
		}
	}
	objs := make([]fyne.CanvasObject, 0, len(r.objects)+1)
	objs = append(objs, r.objects[:ins]...)
	objs = append(objs, obj)
	objs = append(objs, r.objects[ins:]...)
	r.objects = objs
}

func (r *placementRenderer) Layout(size fyne.Size) {
	p := r.pc
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	x, y, w, h := p.canvasRect()
	r.frame.Resize(fyne.NewSize(w, h))
	r.frame.Move(fyne.NewPos(x, y))

	place := func(rc *canvas.Rectangle, b domain.SlotBox) {
		rc.Resize(fyne.NewSize(float32(b.Width)*w, float32(b.Height)*h))
		rc.Move(fyne.NewPos(x+float32(b.Left)*w, y+float32(b.Top)*h))
	}

	ec := p.ed.Context()
	if ec.PortraitAvailable && !ec.PortraitBox.IsEmpty() {
		r.portrait.Show()
		place(r.portrait, ec.PortraitBox)
	} else {
		r.portrait.Hide()
	}

	// Elements, painted below-portrait first then above
	list := p.ed.Elements().List()
	for len(r.elemRects) < len(list) {
		er := canvas.NewRectangle(color.RGBA{R: 204, G: 204, B: 204, A: 255})
		er.StrokeColor = color.RGBA{R: 51, G: 51, B: 51, A: 255}
		er.StrokeWidth = 1
		r.insertBefore(r.bbox, er)
		r.elemRects = append(r.elemRects, er)
	}
	for i, e := range list {
		er := r.elemRects[i]
		er.Show()
		place(er, elementBox(e))
	}
	for j := len(list); j < len(r.elemRects); j++ {
		r.elemRects[j].Hide()
	}

	// Slot frames
	slots := p.slotNames()
	for len(r.slotRects) < len(slots) {
		sr := canvas.NewRectangle(color.RGBA{})
		sr.StrokeColor = color.RGBA{R: 0, G: 102, B: 204, A: 255}
		sr.StrokeWidth = 1
		r.insertBefore(r.bbox, sr)
		r.slotRects = append(r.slotRects, sr)
	}
	active := p.ed.Lines().Active()
	for i, slot := range slots {
		sr := r.slotRects[i]
		b, ok := p.slotDrawBox(slot)
		if !ok {
			sr.Hide()
			continue
		}
		if slot == active {
			sr.StrokeColor = color.RGBA{R: 255, G: 170, B: 0, A: 255}
			sr.StrokeWidth = 2
		} else {
			sr.StrokeColor = color.RGBA{R: 0, G: 102, B: 204, A: 255}
			sr.StrokeWidth = 1
		}
		sr.Show()
		place(sr, b)
	}
	for j := len(slots); j < len(r.slotRects); j++ {
		r.slotRects[j].Hide()
	}

	// Snap guides
	for len(r.guideLines) < len(p.guides) {
		gl := canvas.NewLine(color.RGBA{R: 255, G: 0, B: 128, A: 255})
		gl.StrokeWidth = 1
		r.insertBefore(r.bbox, gl)
		r.guideLines = append(r.guideLines, gl)
	}
	for i, g := range p.guides {
		gl := r.guideLines[i]
		gl.Show()
		if g.Orientation == "vertical" {
			gx := x + float32(g.Position)*w
			gl.Position1 = fyne.NewPos(gx, y)
			gl.Position2 = fyne.NewPos(gx, y+h)
		} else {
			gy := y + float32(g.Position)*h
			gl.Position1 = fyne.NewPos(x, gy)
			gl.Position2 = fyne.NewPos(x+w, gy)
		}
		gl.Refresh()
	}
	for j := len(p.guides); j < len(r.guideLines); j++ {
		r.guideLines[j].Hide()
	}

	// Selection overlay
	id := p.ed.Elements().Selected()
	el, ok := p.ed.Elements().Get(id)
	if id != "" && ok {
		b := elementBox(el)
		x0 := x + float32(b.Left)*w
		y0 := y + float32(b.Top)*h
		bw := float32(b.Width) * w
		bh := float32(b.Height) * h
		r.bbox.Show()
		r.bbox.Resize(fyne.NewSize(bw, bh))
		r.bbox.Move(fyne.NewPos(x0, y0))
		const hs = 8
		pos := [8][2]float32{
			{x0, y0}, {x0 + bw/2, y0}, {x0 + bw, y0},
			{x0 + bw, y0 + bh/2}, {x0 + bw, y0 + bh}, {x0 + bw/2, y0 + bh},
			{x0, y0 + bh}, {x0, y0 + bh/2},
		}
		for i, hd := range r.handles {
			hd.Show()
			hd.Resize(fyne.NewSize(hs, hs))
			hd.Move(fyne.NewPos(pos[i][0]-hs/2, pos[i][1]-hs/2))
		}
		r.rot.Show()
		r.rot.Resize(fyne.NewSize(12, 12))
		r.rot.Move(fyne.NewPos(x0+bw/2-6, y0-30))
	} else {
		r.bbox.Hide()
		for _, hd := range r.handles {
			hd.Hide()
		}
		r.rot.Hide()
	}
}
