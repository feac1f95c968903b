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
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"layerlab/internal/backend"
	"layerlab/internal/domain"
	"layerlab/internal/vector"
)

type fakeClient struct {
	mu sync.Mutex

	ectx  domain.EditorContext
	lines domain.TextLineSpec
	els   domain.ElementsSpec

	saveErr        error
	savedOverrides map[string]any
	savedRender    bool
	savedLines     map[string]domain.LineParams
	savedElements  []domain.Element

	// elsGate parks the next FetchElementsSpec until it is closed;
	// elsStarted reports that the parked call has begun.
	elsGate    chan struct{}
	elsStarted chan struct{}

	previewCalls int
	previewCh    chan struct{}
	previewGate  chan struct{}
	previewURL   string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		ectx: domain.EditorContext{
			DefaultsLeaf:   map[string]any{"overrides.bg_pan_zoom.zoom": 1.0},
			ActiveTemplate: "classic",
			TemplateOptions: []domain.TemplateOption{{
				ID:   "classic",
				Name: "Classic",
				Slots: map[string]domain.SlotBox{
					"title": {Left: 0.1, Top: 0.7, Width: 0.8, Height: 0.1},
				},
			}},
		},
		lines:     domain.TextLineSpec{Lines: map[string]domain.LineParams{}},
		els:       domain.ElementsSpec{},
		previewCh: make(chan struct{}, 16),
	}
}

func (f *fakeClient) FetchEditorContext(_ context.Context, _, _, _ string) (*domain.EditorContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ec := f.ectx
	return &ec, nil
}

func (f *fakeClient) FetchTextLineSpec(_ context.Context, _, _, _ string) (*domain.TextLineSpec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.lines
	return &s, nil
}

func (f *fakeClient) SaveTextLineSpec(_ context.Context, _, _, _ string, spec domain.TextLineSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedLines = spec.Lines
	return nil
}

func (f *fakeClient) FetchElementsSpec(_ context.Context, _, _, _ string) (*domain.ElementsSpec, error) {
	f.mu.Lock()
	s := f.els
	gate := f.elsGate
	started := f.elsStarted
	f.elsGate = nil
	f.mu.Unlock()
	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}
	return &s, nil
}

func (f *fakeClient) SaveElementsSpec(_ context.Context, _, _, _ string, spec domain.ElementsSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedElements = spec.Elements
	return nil
}

func (f *fakeClient) SaveOverrides(_ context.Context, _, _, _ string, overrides map[string]any, render bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedOverrides = overrides
	f.savedRender = render
	return nil
}

func (f *fakeClient) PreviewTextSlots(_ context.Context, _, _, _ string, _ map[string]any, _ map[string]domain.LineParams) (*backend.PreviewResult, error) {
	f.mu.Lock()
	f.previewCalls++
	gate := f.previewGate
	f.previewGate = nil
	u := f.previewURL
	f.mu.Unlock()
	if u == "" {
		u = "https://cdn/title.png"
	}
	if gate != nil {
		<-gate
	}
	select {
	case f.previewCh <- struct{}{}:
	default:
	}
	return &backend.PreviewResult{Images: map[string]string{"title": u}}, nil
}

func (f *fakeClient) ReplaceAsset(_ context.Context, _, _, _, _ string, _ io.Reader) (*backend.AssetResult, error) {
	return &backend.AssetResult{PublicURL: "https://cdn/new.png"}, nil
}

func (f *fakeClient) previews() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.previewCalls
}

func openTestEditor(t *testing.T, f *fakeClient) *Editor {
	t.Helper()
	e := NewEditor(f, nil)
	if err := e.Open(context.Background(), "alice", "v1", "a"); err != nil {
		t.Fatalf("open: %v", err)
	}
	e.Controller().SetCanvas(canvas1000())
	return e
}

func TestEditorOpenLoadsState(t *testing.T) {
	f := newFakeClient()
	f.lines.Lines = map[string]domain.LineParams{"title": {OffsetX: 0.1, Scale: 1}}
	f.els.Elements = []domain.Element{{ID: "e1", Kind: domain.ElementRect, Layer: domain.LayerAbovePortrait, W: 0.2, H: 0.2, X: 0.5, Y: 0.5, Opacity: 1}}

	e := openTestEditor(t, f)
	if got := e.Lines().Get("title").OffsetX; got != 0.1 {
		t.Fatalf("title offset_x = %v, want 0.1", got)
	}
	if len(e.Elements().List()) != 1 {
		t.Fatalf("elements not loaded")
	}
	if e.ActiveTemplate() != "classic" {
		t.Fatalf("active template = %q", e.ActiveTemplate())
	}
	if _, ok := e.SlotBox("title"); !ok {
		t.Fatalf("slot box lookup failed")
	}
}

func TestEditorOpenAbsorbsLegacyOverrides(t *testing.T) {
	f := newFakeClient()
	f.ectx.Overrides = map[string]any{
		PathLegacyTextOffsetX: 0.1,
		PathLegacyTextScale:   1.5,
	}

	e := openTestEditor(t, f)
	if e.Overrides().IsOverridden(PathLegacyTextOffsetX) {
		t.Fatalf("legacy leaf survived open")
	}
	p := e.Lines().Get("title")
	if p.OffsetX != 0.1 || p.Scale != 1.5 {
		t.Fatalf("legacy transform not absorbed into the template slot: %+v", p)
	}
}

func TestEditorSaveForwardsStateAndRenderFlag(t *testing.T) {
	f := newFakeClient()
	e := openTestEditor(t, f)
	e.Overrides().SetLeaf(PathBGPanX, -0.2)
	e.Lines().Set("title", domain.LineParams{OffsetY: -0.05, Scale: 1})

	if err := e.Save(context.Background(), true); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.savedRender {
		t.Fatalf("render flag not forwarded")
	}
	if _, ok := f.savedOverrides["bg_pan_zoom"].(map[string]any); !ok {
		t.Fatalf("override tree missing bg_pan_zoom: %+v", f.savedOverrides)
	}
	if f.savedLines["title"].OffsetY != -0.05 {
		t.Fatalf("lines not saved: %+v", f.savedLines)
	}
}

func TestEditorFailedSaveLeavesStateIntact(t *testing.T) {
	f := newFakeClient()
	e := openTestEditor(t, f)
	e.Lines().Set("title", domain.LineParams{OffsetX: 0.3, Scale: 1})

	var msg string
	e.OnError(func(m string) { msg = m })
	f.mu.Lock()
	f.saveErr = errors.New("gateway timeout")
	f.mu.Unlock()

	if err := e.Save(context.Background(), false); err == nil {
		t.Fatalf("expected save error")
	}
	if msg == "" {
		t.Fatalf("error should surface to the UI")
	}
	if got := e.Lines().Get("title").OffsetX; got != 0.3 {
		t.Fatalf("failed save changed in-memory state: %v", got)
	}
}

func TestEditorUndoRedo(t *testing.T) {
	f := newFakeClient()
	e := openTestEditor(t, f)

	e.ApplyLinePreset("title", "raise")
	if e.Lines().Get("title").OffsetY != -0.06 {
		t.Fatalf("preset did not apply")
	}

	if !e.Undo() {
		t.Fatalf("undo failed")
	}
	if !e.Lines().Get("title").IsDefault() {
		t.Fatalf("undo did not restore the baseline")
	}
	if e.Undo() {
		t.Fatalf("undo past the baseline must report false")
	}

	if !e.Redo() {
		t.Fatalf("redo failed")
	}
	if e.Lines().Get("title").OffsetY != -0.06 {
		t.Fatalf("redo did not reapply the preset")
	}
}

func TestEditorGestureCommitsUndoStep(t *testing.T) {
	f := newFakeClient()
	e := openTestEditor(t, f)
	ctrl := e.Controller()

	box, _ := e.SlotBox("title")
	ctrl.BeginLineMove(1, "title", box, 400, 400)
	ctrl.Move(1, 400, 300, Modifiers{DisableSnap: true})
	e.EndGesture(1)

	if e.Lines().Get("title").OffsetY != -0.1 {
		t.Fatalf("drag result missing: %+v", e.Lines().Get("title"))
	}
	if !e.Undo() {
		t.Fatalf("gesture end should have committed an undo step")
	}
	if !e.Lines().Get("title").IsDefault() {
		t.Fatalf("undo after gesture did not restore")
	}
}

func TestEditorPreviewDebounce(t *testing.T) {
	f := newFakeClient()
	e := openTestEditor(t, f)

	// A burst of changes coalesces into one preview request.
	for i := 0; i < 5; i++ {
		e.Lines().Set("title", domain.LineParams{OffsetX: float64(i+1) * 0.01, Scale: 1})
	}
	select {
	case <-f.previewCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("preview request never fired")
	}
	// Allow any straggler to land before counting.
	time.Sleep(300 * time.Millisecond)
	if got := f.previews(); got != 1 {
		t.Fatalf("preview calls = %d, want 1", got)
	}
	if e.Previews()["title"] == "" {
		t.Fatalf("preview result not cached")
	}
}

func TestEditorOpenDropsSupersededResult(t *testing.T) {
	f := newFakeClient()
	f.ectx.TemplateOptions = append(f.ectx.TemplateOptions, domain.TemplateOption{ID: "bold", Name: "Bold"})
	gate := make(chan struct{})
	f.elsGate = gate
	f.elsStarted = make(chan struct{}, 1)

	e := NewEditor(f, nil)
	done := make(chan error, 1)
	go func() { done <- e.Open(context.Background(), "alice", "v1", "a") }()
	<-f.elsStarted

	// The first Open is parked mid-fetch holding the old context; a newer
	// Open lands in the meantime.
	f.mu.Lock()
	f.ectx.ActiveTemplate = "bold"
	f.mu.Unlock()
	if err := e.Open(context.Background(), "alice", "v1", "a"); err != nil {
		t.Fatalf("second open: %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("superseded open: %v", err)
	}
	if got := e.ActiveTemplate(); got != "bold" {
		t.Fatalf("superseded open overwrote the newer context: template = %q", got)
	}
}

func TestEditorPreviewDropsStaleResponse(t *testing.T) {
	f := newFakeClient()
	e := openTestEditor(t, f)

	gate := make(chan struct{})
	f.mu.Lock()
	f.previewGate = gate
	f.previewURL = "https://cdn/stale.png"
	f.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.firePreview() // parks in the fake until the gate opens
	}()
	waitFor(t, func() bool { return f.previews() == 1 })

	f.mu.Lock()
	f.previewURL = "https://cdn/fresh.png"
	f.mu.Unlock()
	e.firePreview() // the newer request lands first

	close(gate)
	wg.Wait()
	if got := e.Previews()["title"]; got != "https://cdn/fresh.png" {
		t.Fatalf("stale preview response applied: %q", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

func canvas1000() vector.Canvas { return vector.Canvas{W: 1000, H: 1000} }
