/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package placement

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"layerlab/internal/backend"
	"layerlab/internal/domain"
	applog "layerlab/internal/log"
	"layerlab/internal/override"
	"layerlab/internal/undo"
)

// previewDebounce is how long after the last parameter change a slot
// preview request fires.
const previewDebounce = 180 * time.Millisecond

// DataClient is the slice of the dashboard data layer the editor consumes.
// *backend.Client implements it; tests substitute fakes.
type DataClient interface {
	FetchEditorContext(ctx context.Context, subject, video, variant string) (*domain.EditorContext, error)
	FetchTextLineSpec(ctx context.Context, subject, video, variant string) (*domain.TextLineSpec, error)
	SaveTextLineSpec(ctx context.Context, subject, video, variant string, spec domain.TextLineSpec) error
	FetchElementsSpec(ctx context.Context, subject, video, variant string) (*domain.ElementsSpec, error)
	SaveElementsSpec(ctx context.Context, subject, video, variant string, spec domain.ElementsSpec) error
	SaveOverrides(ctx context.Context, subject, video, variant string, overrides map[string]any, render bool) error
	PreviewTextSlots(ctx context.Context, subject, video, variant string, overrides map[string]any, lines map[string]domain.LineParams) (*backend.PreviewResult, error)
	ReplaceAsset(ctx context.Context, subject, video, slot, filename string, r io.Reader) (*backend.AssetResult, error)
}

// Scope identifies one editing target.
type Scope struct {
	Subject string
	Video   string
	Variant string
}

// Key serializes the scope for use as an undo-stack key.
func (s Scope) Key() string { return s.Subject + "/" + s.Video + "/" + s.Variant }

// editorState is the undo/draft serialization of everything the editor can
// change.
type editorState struct {
	Overrides map[string]any               `json:"overrides"`
	Lines     map[string]domain.LineParams `json:"lines"`
	Elements  []domain.Element             `json:"elements"`
}

// Editor is the façade the hosting UI talks to: it owns the stores, the
// drag controller, the frame scheduler, undo history and the data-layer
// client for one open placement dialog. Methods are safe to call from the
// UI event thread; network work happens on background goroutines and is
// fenced by request ids so a stale response never overwrites newer state.
type Editor struct {
	client   DataClient
	log      *slog.Logger
	ov       *override.Store
	lines    *Lines
	els      *Elements
	sched    *Scheduler
	ctrl     *Controller
	history  *undo.Manager
	absorber *Absorber

	mu       sync.Mutex
	scope    Scope
	ectx     domain.EditorContext
	opened   bool
	previews map[string]string

	suppress atomic.Bool // mutes preview scheduling during restores

	openReq    atomic.Uint64
	previewReq atomic.Uint64
	pvTimerMu  sync.Mutex
	pvTimer    *time.Timer

	onError    func(msg string)
	onPreviews func(map[string]string)
}

// NewEditor builds an editor around a data client. frame schedules a
// callback before the next render pass; nil applies moves immediately.
func NewEditor(client DataClient, frame FrameFunc) *Editor {
	e := &Editor{
		client:   client,
		log:      applog.WithComponent("placement"),
		ov:       override.NewStore(nil),
		lines:    NewLines(),
		els:      NewElements(),
		sched:    NewScheduler(frame),
		history:  undo.NewManager(undo.Config{MaxPerScope: 100, MinInterval: time.Nanosecond}),
		absorber: NewAbsorber(),
		previews: map[string]string{},
	}
	e.ctrl = NewController(e.ov, e.lines, e.els, e.sched)
	e.lines.OnChange(func(string) {
		if !e.suppress.Load() {
			e.SchedulePreview()
		}
	})
	return e
}

// Controller exposes the gesture entry points for the canvas widget.
func (e *Editor) Controller() *Controller { return e.ctrl }

// Overrides exposes the override store for read access and the inspector.
func (e *Editor) Overrides() *override.Store { return e.ov }

// Lines exposes the per-slot text parameter store.
func (e *Editor) Lines() *Lines { return e.lines }

// Elements exposes the freeform element collection.
func (e *Editor) Elements() *Elements { return e.els }

// OnError registers the sink for user-visible failure messages.
func (e *Editor) OnError(fn func(msg string)) { e.onError = fn }

// OnPreviews registers the sink for refreshed slot preview URLs.
func (e *Editor) OnPreviews(fn func(map[string]string)) { e.onPreviews = fn }

func (e *Editor) fail(op string, err error) {
	e.mu.Lock()
	sc := e.scope
	e.mu.Unlock()
	e.log.Error(op+" failed", "subject", sc.Subject, "video", sc.Video, "variant", sc.Variant, "err", err)
	if e.onError != nil {
		e.onError(fmt.Sprintf("%s failed: %v", op, err))
	}
}

// Open loads the editor context and both parameter specs for a scope and
// resets the working state to them. It absorbs legacy whole-group text
// overrides into per-slot entries before the first interaction. A concurrent
// newer Open supersedes this one; the superseded result is dropped.
func (e *Editor) Open(ctx context.Context, subject, video, variant string) error {
	id := e.openReq.Add(1)
	sc := Scope{Subject: subject, Video: video, Variant: variant}

	ec, err := e.client.FetchEditorContext(ctx, subject, video, variant)
	if err != nil {
		e.fail("loading context", err)
		return err
	}
	lineSpec, err := e.client.FetchTextLineSpec(ctx, subject, video, variant)
	if err != nil {
		e.fail("loading text lines", err)
		return err
	}
	elSpec, err := e.client.FetchElementsSpec(ctx, subject, video, variant)
	if err != nil {
		e.fail("loading elements", err)
		return err
	}
	if id != e.openReq.Load() {
		// A newer Open raced this one; drop the result.
		return nil
	}

	e.suppress.Store(true)
	defer e.suppress.Store(false)

	e.mu.Lock()
	e.scope = sc
	e.ectx = *ec
	e.opened = true
	e.previews = map[string]string{}
	e.mu.Unlock()

	e.ov.SetDefaults(ec.DefaultsLeaf)
	e.ov.Restore(ec.Overrides)
	e.lines.Restore(lineSpec.Lines)
	e.els.Restore(elSpec.Elements)

	e.absorber.Absorb(subject, variant, e.ov, e.lines, e.templateSlots())

	e.history.ClearScope(sc.Key())
	e.commit()
	e.log.Info("editor opened", "subject", subject, "video", video, "variant", variant,
		"lines", len(lineSpec.Lines), "elements", len(elSpec.Elements))
	return nil
}

// Context returns the loaded editor context.
func (e *Editor) Context() domain.EditorContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ectx
}

// CurrentScope returns the currently open editing target.
func (e *Editor) CurrentScope() Scope {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scope
}

// ActiveTemplate resolves the effective template id, override first.
func (e *Editor) ActiveTemplate() string {
	e.mu.Lock()
	def := e.ectx.ActiveTemplate
	e.mu.Unlock()
	return e.ov.ResolveString(PathTemplate, def)
}

// SetTemplate switches the composition template.
func (e *Editor) SetTemplate(id string) {
	e.ov.SetLeaf(PathTemplate, id)
	e.commit()
	e.SchedulePreview()
}

// templateSlots returns the slot keys of the active template.
func (e *Editor) templateSlots() []string {
	active := e.ActiveTemplate()
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, opt := range e.ectx.TemplateOptions {
		if opt.ID == active {
			keys := make([]string, 0, len(opt.Slots))
			for k := range opt.Slots {
				keys = append(keys, k)
			}
			return keys
		}
	}
	return nil
}

// SlotBox returns the template frame of a slot in the active template.
func (e *Editor) SlotBox(slot string) (domain.SlotBox, bool) {
	active := e.ActiveTemplate()
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, opt := range e.ectx.TemplateOptions {
		if opt.ID == active {
			box, ok := opt.Slots[slot]
			return box, ok
		}
	}
	return domain.SlotBox{}, false
}

// ApplyLinePreset applies a named preset to a slot.
func (e *Editor) ApplyLinePreset(slot, preset string) bool {
	p, ok := LinePreset(preset)
	if !ok || slot == "" {
		return false
	}
	e.lines.Set(slot, p)
	e.commit()
	return true
}

// AddElement creates a fresh element and records an undo step.
func (e *Editor) AddElement(kind domain.ElementKind, layer domain.ElementLayer) domain.Element {
	el := e.els.Add(kind, layer)
	e.commit()
	return el
}

// DuplicateSelected clones the selected element.
func (e *Editor) DuplicateSelected() bool {
	id := e.els.Selected()
	if id == "" {
		return false
	}
	if _, ok := e.els.Duplicate(id); !ok {
		return false
	}
	e.commit()
	return true
}

// DeleteSelected removes the selected element.
func (e *Editor) DeleteSelected() bool {
	if !e.ctrl.DeleteSelected() {
		return false
	}
	e.commit()
	return true
}

// ReorderSelected moves the selected element within its layer group.
func (e *Editor) ReorderSelected(dir ReorderDirection) bool {
	id := e.els.Selected()
	if id == "" || !e.els.Reorder(id, dir) {
		return false
	}
	e.commit()
	return true
}

// AlignSelected aligns the selected element against the canvas. With no
// element selected it aligns the active text slot instead, deriving a fresh
// offset from its template frame.
func (e *Editor) AlignSelected(a Alignment) bool {
	if e.ctrl.AlignSelected(a) {
		e.commit()
		return true
	}
	slot := e.lines.Active()
	if slot == "" {
		return false
	}
	box, ok := e.SlotBox(slot)
	if !ok || !e.ctrl.AlignActiveLine(a, box) {
		return false
	}
	e.commit()
	return true
}

// Nudge moves the keyboard target one arrow-key step. Consecutive presses
// coalesce into a single undo step.
func (e *Editor) Nudge(dirX, dirY int, coarse, fine bool) bool {
	if !e.ctrl.Nudge(dirX, dirY, coarse, fine) {
		return false
	}
	e.commit()
	return true
}

// EndGesture finishes a drag, records an undo step and refreshes previews.
func (e *Editor) EndGesture(pointer int) bool {
	if !e.ctrl.End(pointer) {
		return false
	}
	e.commit()
	e.SchedulePreview()
	return true
}

// CancelGesture handles a cancel event for a drag. Cancel commits exactly
// like EndGesture: the last applied values stand.
func (e *Editor) CancelGesture(pointer int) bool {
	if !e.ctrl.Cancel(pointer) {
		return false
	}
	e.commit()
	e.SchedulePreview()
	return true
}

// serialize captures the full mutable state as an undo/draft blob.
func (e *Editor) serialize() []byte {
	st := editorState{
		Overrides: e.ov.Snapshot(),
		Lines:     e.lines.All(),
		Elements:  e.els.List(),
	}
	buf, _ := json.Marshal(st)
	return buf
}

// commit pushes the current state onto the undo stack. The stack's top is
// always the current committed state; Open seeds it with the baseline.
func (e *Editor) commit() {
	e.mu.Lock()
	opened := e.opened
	key := e.scope.Key()
	e.mu.Unlock()
	if !opened {
		return
	}
	e.sched.Flush()
	e.history.PushSnapshot(undo.Snapshot{Scope: key, Blob: e.serialize(), TS: time.Now()})
}

func (e *Editor) restore(blob []byte) {
	var st editorState
	if err := json.Unmarshal(blob, &st); err != nil {
		e.log.Error("undo blob corrupt", "err", err)
		return
	}
	e.suppress.Store(true)
	e.ov.Restore(st.Overrides)
	e.lines.Restore(st.Lines)
	e.els.Restore(st.Elements)
	e.suppress.Store(false)
	e.SchedulePreview()
}

// Undo steps the open scope back one committed state.
func (e *Editor) Undo() bool {
	key := e.CurrentScope().Key()
	if e.history.Depth(key) < 2 {
		return false
	}
	if _, ok := e.history.Undo(key); !ok {
		return false
	}
	prev, ok := e.history.Peek(key)
	if !ok {
		return false
	}
	e.restore(prev.Blob)
	return true
}

// Redo reapplies the most recently undone state.
func (e *Editor) Redo() bool {
	key := e.CurrentScope().Key()
	s, ok := e.history.Redo(key)
	if !ok {
		return false
	}
	e.restore(s.Blob)
	return true
}

// Save persists overrides, text lines and elements. render additionally
// triggers a re-render of the composited image. A failed save surfaces an
// error and leaves the in-memory state untouched.
func (e *Editor) Save(ctx context.Context, render bool) error {
	e.sched.Flush()
	sc := e.CurrentScope()

	if err := e.client.SaveOverrides(ctx, sc.Subject, sc.Video, sc.Variant, e.overridesTree(), render); err != nil {
		e.fail("saving overrides", err)
		return err
	}
	if err := e.client.SaveTextLineSpec(ctx, sc.Subject, sc.Video, sc.Variant, domain.TextLineSpec{Lines: e.lines.All()}); err != nil {
		e.fail("saving text lines", err)
		return err
	}
	if err := e.client.SaveElementsSpec(ctx, sc.Subject, sc.Video, sc.Variant, domain.ElementsSpec{Elements: e.els.List()}); err != nil {
		e.fail("saving elements", err)
		return err
	}
	e.log.Info("saved", "subject", sc.Subject, "video", sc.Video, "variant", sc.Variant, "render", render)
	return nil
}

// overridesTree returns the nested override tree the save and preview
// endpoints expect: the subtree under the shared "overrides." path prefix.
func (e *Editor) overridesTree() map[string]any {
	tree := e.ov.Tree()
	if sub, ok := tree["overrides"].(map[string]any); ok {
		return sub
	}
	return tree
}

// SchedulePreview (re)arms the debounced slot preview request. The request
// fires previewDebounce after the last call and its response is fenced: a
// stale response is dropped, never applied.
func (e *Editor) SchedulePreview() {
	e.mu.Lock()
	opened := e.opened
	e.mu.Unlock()
	if !opened {
		return
	}
	e.pvTimerMu.Lock()
	defer e.pvTimerMu.Unlock()
	if e.pvTimer != nil {
		e.pvTimer.Stop()
	}
	e.pvTimer = time.AfterFunc(previewDebounce, e.firePreview)
}

func (e *Editor) firePreview() {
	id := e.previewReq.Add(1)
	sc := e.CurrentScope()
	e.sched.Flush()
	tree := e.overridesTree()
	lines := e.lines.All()

	res, err := e.client.PreviewTextSlots(context.Background(), sc.Subject, sc.Video, sc.Variant, tree, lines)
	if err != nil {
		// Previews are best effort; log and keep the stale images.
		e.log.Warn("slot preview failed", "err", err)
		return
	}
	if id != e.previewReq.Load() {
		return
	}
	e.mu.Lock()
	for slot, u := range res.Images {
		if u == "" {
			// The renderer could not produce this slot; drop its cache.
			delete(e.previews, slot)
			continue
		}
		e.previews[slot] = u
	}
	imgs := make(map[string]string, len(e.previews))
	for k, v := range e.previews {
		imgs[k] = v
	}
	e.mu.Unlock()
	if e.onPreviews != nil {
		e.onPreviews(imgs)
	}
}

// Previews returns the current slot preview URLs.
func (e *Editor) Previews() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.previews))
	for k, v := range e.previews {
		out[k] = v
	}
	return out
}

// ReplaceAsset uploads a replacement image for a slot and refreshes the
// context URL it backs.
func (e *Editor) ReplaceAsset(ctx context.Context, slot, filename string, r io.Reader) (string, error) {
	sc := e.CurrentScope()
	res, err := e.client.ReplaceAsset(ctx, sc.Subject, sc.Video, slot, filename, r)
	if err != nil {
		e.fail("replacing asset", err)
		return "", err
	}
	e.mu.Lock()
	switch slot {
	case "portrait":
		e.ectx.PortraitURL = res.PublicURL
		e.ectx.PortraitAvailable = true
	case "background":
		e.ectx.BackgroundURL = res.PublicURL
	}
	e.mu.Unlock()
	e.SchedulePreview()
	return res.PublicURL, nil
}

// DraftState captures the unsaved working state for parking on disk.
func (e *Editor) DraftState() domain.Draft {
	e.sched.Flush()
	sc := e.CurrentScope()
	return domain.Draft{
		Subject:   sc.Subject,
		Video:     sc.Video,
		Variant:   sc.Variant,
		Overrides: e.ov.Snapshot(),
		Lines:     e.lines.All(),
		Elements:  e.els.List(),
	}
}

// RestoreDraft replaces the working state with a parked draft and records
// it as an undo step.
func (e *Editor) RestoreDraft(d domain.Draft) {
	e.suppress.Store(true)
	e.ov.Restore(d.Overrides)
	e.lines.Restore(d.Lines)
	e.els.Restore(d.Elements)
	e.suppress.Store(false)
	e.commit()
	e.SchedulePreview()
}
