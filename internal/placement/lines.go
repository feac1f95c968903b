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

	"layerlab/internal/domain"
)

// Lines holds per-slot text placement parameters. A slot without an entry
// resolves to identity defaults, and setting a slot back to defaults removes
// the entry so serialized output stays sparse. It is safe for concurrent
// use.
type Lines struct {
	mu       sync.Mutex
	params   map[string]domain.LineParams
	active   string
	watchers []func(slot string)
}

// NewLines creates an empty per-slot store.
func NewLines() *Lines {
	return &Lines{params: map[string]domain.LineParams{}}
}

// OnChange registers fn to run after a slot changes. fn receives the slot
// name, or "" for a wholesale restore.
func (ls *Lines) OnChange(fn func(slot string)) {
	ls.mu.Lock()
	ls.watchers = append(ls.watchers, fn)
	ls.mu.Unlock()
}

func (ls *Lines) notify(slot string) {
	ls.mu.Lock()
	ws := append([]func(string){}, ls.watchers...)
	ls.mu.Unlock()
	for _, fn := range ws {
		fn(slot)
	}
}

// Get resolves the parameters for a slot, falling back to identity
// defaults.
func (ls *Lines) Get(slot string) domain.LineParams {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if p, ok := ls.params[slot]; ok {
		return p
	}
	return domain.DefaultLineParams()
}

// IsAdjusted reports whether the slot carries non-default parameters.
func (ls *Lines) IsAdjusted(slot string) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	p, ok := ls.params[slot]
	return ok && !p.IsDefault()
}

// Set stores clamped parameters for a slot. Identity parameters delete the
// entry.
func (ls *Lines) Set(slot string, p domain.LineParams) {
	p = p.Clamped()
	ls.mu.Lock()
	if p.IsDefault() {
		delete(ls.params, slot)
	} else {
		ls.params[slot] = p
	}
	ls.mu.Unlock()
	ls.notify(slot)
}

// Reset returns a slot to identity defaults.
func (ls *Lines) Reset(slot string) {
	ls.Set(slot, domain.DefaultLineParams())
}

// ResetAll clears every adjusted slot.
func (ls *Lines) ResetAll() {
	ls.mu.Lock()
	ls.params = map[string]domain.LineParams{}
	ls.mu.Unlock()
	ls.notify("")
}

// All returns a copy of every adjusted slot keyed by name.
func (ls *Lines) All() map[string]domain.LineParams {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	out := make(map[string]domain.LineParams, len(ls.params))
	for k, v := range ls.params {
		out[k] = v
	}
	return out
}

// Slots returns the adjusted slot names in sorted order.
func (ls *Lines) Slots() []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	out := make([]string, 0, len(ls.params))
	for k := range ls.params {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Restore replaces the store wholesale, clamping on the way in and dropping
// identity entries.
func (ls *Lines) Restore(params map[string]domain.LineParams) {
	ls.mu.Lock()
	ls.params = make(map[string]domain.LineParams, len(params))
	for k, v := range params {
		v = v.Clamped()
		if !v.IsDefault() {
			ls.params[k] = v
		}
	}
	ls.mu.Unlock()
	ls.notify("")
}

// SetActive records which slot the editor currently targets for keyboard
// nudges and gesture begins. An unknown or empty slot clears the target.
func (ls *Lines) SetActive(slot string) {
	ls.mu.Lock()
	ls.active = slot
	ls.mu.Unlock()
}

// Active returns the currently targeted slot, empty when none.
func (ls *Lines) Active() string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.active
}
