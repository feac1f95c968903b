/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package placement

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"layerlab/internal/domain"
)

// Elements is the ordered collection of freeform elements plus the current
// selection. IDs are unique within the collection; z-order is only
// meaningful within the same layer group. It is safe for concurrent use.
type Elements struct {
	mu       sync.Mutex
	list     []domain.Element
	selected string
	watchers []func()
}

// NewElements creates an empty collection.
func NewElements() *Elements { return &Elements{} }

// OnChange registers fn to run after every mutation.
func (es *Elements) OnChange(fn func()) {
	es.mu.Lock()
	es.watchers = append(es.watchers, fn)
	es.mu.Unlock()
}

func (es *Elements) notify() {
	es.mu.Lock()
	ws := append([]func(){}, es.watchers...)
	es.mu.Unlock()
	for _, fn := range ws {
		fn()
	}
}

// List returns a copy of the collection in storage order.
func (es *Elements) List() []domain.Element {
	es.mu.Lock()
	defer es.mu.Unlock()
	return append([]domain.Element(nil), es.list...)
}

// Get returns the element with the given id.
func (es *Elements) Get(id string) (domain.Element, bool) {
	es.mu.Lock()
	defer es.mu.Unlock()
	for _, e := range es.list {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Element{}, false
}

// Add creates a fresh element with default geometry at the canvas center,
// selects it, and returns it. The new element lands on top of its layer
// group.
func (es *Elements) Add(kind domain.ElementKind, layer domain.ElementLayer) domain.Element {
	es.mu.Lock()
	e := domain.Element{
		ID:      uuid.NewString(),
		Kind:    kind,
		Layer:   layer,
		Z:       es.topZLocked(layer) + 1,
		X:       0.5,
		Y:       0.5,
		W:       0.2,
		H:       0.2,
		Opacity: 1,
		Fill:    "#ffffff",
	}
	es.list = append(es.list, e)
	es.selected = e.ID
	es.mu.Unlock()
	es.notify()
	return e
}

// Duplicate clones the element with the given id, nudging the copy slightly
// so it is visible, and selects the copy.
func (es *Elements) Duplicate(id string) (domain.Element, bool) {
	es.mu.Lock()
	var src *domain.Element
	for i := range es.list {
		if es.list[i].ID == id {
			src = &es.list[i]
			break
		}
	}
	if src == nil {
		es.mu.Unlock()
		return domain.Element{}, false
	}
	cp := *src
	cp.ID = uuid.NewString()
	cp.Z = es.topZLocked(cp.Layer) + 1
	cp.X = domain.Clamp(cp.X+0.02, domain.ElementPosMin, domain.ElementPosMax)
	cp.Y = domain.Clamp(cp.Y+0.02, domain.ElementPosMin, domain.ElementPosMax)
	es.list = append(es.list, cp)
	es.selected = cp.ID
	es.mu.Unlock()
	es.notify()
	return cp, true
}

// Delete removes the element with the given id. A deleted selection becomes
// empty.
func (es *Elements) Delete(id string) bool {
	es.mu.Lock()
	idx := -1
	for i, e := range es.list {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		es.mu.Unlock()
		return false
	}
	es.list = append(es.list[:idx], es.list[idx+1:]...)
	if es.selected == id {
		es.selected = ""
	}
	es.mu.Unlock()
	es.notify()
	return true
}

// Update replaces the element matching el.ID with the clamped el.
func (es *Elements) Update(el domain.Element) bool {
	es.mu.Lock()
	for i := range es.list {
		if es.list[i].ID == el.ID {
			es.list[i] = el.Clamped()
			es.mu.Unlock()
			es.notify()
			return true
		}
	}
	es.mu.Unlock()
	return false
}

// ReorderDirection names a z-order move within an element's layer group.
type ReorderDirection string

const (
	ToFront  ReorderDirection = "front"
	ToBack   ReorderDirection = "back"
	Forward  ReorderDirection = "forward"
	Backward ReorderDirection = "backward"
)

// Reorder moves the element within its layer group. Other layers are
// untouched; z values inside the group are renumbered densely afterwards.
func (es *Elements) Reorder(id string, dir ReorderDirection) bool {
	es.mu.Lock()
	target, ok := es.findLocked(id)
	if !ok {
		es.mu.Unlock()
		return false
	}
	// Collect the layer group sorted by z ascending.
	group := make([]*domain.Element, 0, len(es.list))
	for i := range es.list {
		if es.list[i].Layer == target.Layer {
			group = append(group, &es.list[i])
		}
	}
	sort.SliceStable(group, func(i, j int) bool { return group[i].Z < group[j].Z })
	pos := -1
	for i, e := range group {
		if e.ID == id {
			pos = i
			break
		}
	}
	next := pos
	switch dir {
	case ToFront:
		next = len(group) - 1
	case ToBack:
		next = 0
	case Forward:
		if pos < len(group)-1 {
			next = pos + 1
		}
	case Backward:
		if pos > 0 {
			next = pos - 1
		}
	}
	if next != pos {
		moved := group[pos]
		group = append(group[:pos], group[pos+1:]...)
		group = append(group[:next], append([]*domain.Element{moved}, group[next:]...)...)
	}
	for i, e := range group {
		e.Z = i
	}
	es.mu.Unlock()
	es.notify()
	return true
}

// Select marks an element as the current selection; an empty id clears it.
func (es *Elements) Select(id string) {
	es.mu.Lock()
	if id != "" {
		if _, ok := es.findLocked(id); !ok {
			es.mu.Unlock()
			return
		}
	}
	es.selected = id
	es.mu.Unlock()
	es.notify()
}

// Selected returns the current selection id, empty when nothing is
// selected.
func (es *Elements) Selected() string {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.selected
}

// Restore replaces the collection wholesale (spec load, undo, draft).
// Geometry is clamped on the way in; the selection is cleared if its element
// is gone.
func (es *Elements) Restore(list []domain.Element) {
	es.mu.Lock()
	es.list = make([]domain.Element, 0, len(list))
	for _, e := range list {
		es.list = append(es.list, e.Clamped())
	}
	if es.selected != "" {
		if _, ok := es.findLocked(es.selected); !ok {
			es.selected = ""
		}
	}
	es.mu.Unlock()
	es.notify()
}

func (es *Elements) findLocked(id string) (domain.Element, bool) {
	for _, e := range es.list {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Element{}, false
}

func (es *Elements) topZLocked(layer domain.ElementLayer) int {
	top := -1
	for _, e := range es.list {
		if e.Layer == layer && e.Z > top {
			top = e.Z
		}
	}
	return top
}
