/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package override implements the sparse leaf override store: a map from
// dotted parameter path (e.g. "overrides.bg_pan_zoom.zoom") to a scalar,
// array or string value, resolved against a read-only defaults map supplied
// by the editor context. Absence of a key means "use default".
package override

import (
	"encoding/json"
	"strings"
	"sync"
)

// Store holds sparse leaf overrides over a defaults map. All mutations go
// through SetLeaf/MergePatch so callers never touch the raw map. It is safe
// for concurrent use.
type Store struct {
	mu       sync.RWMutex
	leaves   map[string]any
	defaults map[string]any
	watchers []func()
}

// NewStore creates a store over the given defaults map. The defaults map is
// not copied; it is treated as read-only.
func NewStore(defaults map[string]any) *Store {
	if defaults == nil {
		defaults = map[string]any{}
	}
	return &Store{leaves: make(map[string]any), defaults: defaults}
}

// SetDefaults replaces the defaults map (a fresh context fetch).
func (s *Store) SetDefaults(defaults map[string]any) {
	s.mu.Lock()
	if defaults == nil {
		defaults = map[string]any{}
	}
	s.defaults = defaults
	s.mu.Unlock()
	s.notify()
}

// isEmptyValue reports values that must never be stored: storing one of
// these deletes the key instead.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if str, ok := v.(string); ok && str == "" {
		return true
	}
	return false
}

// Resolve returns the value at path: leaf override first, then defaults,
// then the caller-supplied fallback constant.
func (s *Store) Resolve(path string, fallback any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.leaves[path]; ok {
		return v
	}
	if v, ok := s.defaults[path]; ok && !isEmptyValue(v) {
		return v
	}
	return fallback
}

// ResolveFloat resolves path to a float64, tolerating the numeric types a
// JSON decode can produce. Unparseable values fall back.
func (s *Store) ResolveFloat(path string, fallback float64) float64 {
	switch v := s.Resolve(path, fallback).(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return fallback
		}
		return f
	default:
		return fallback
	}
}

// ResolveString resolves path to a string.
func (s *Store) ResolveString(path, fallback string) string {
	if v, ok := s.Resolve(path, fallback).(string); ok {
		return v
	}
	return fallback
}

// IsOverridden reports whether path has an explicit leaf override.
func (s *Store) IsOverridden(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.leaves[path]
	return ok
}

// SetLeaf writes a single leaf. nil or empty-string values delete the key.
func (s *Store) SetLeaf(path string, value any) {
	s.mu.Lock()
	if isEmptyValue(value) {
		delete(s.leaves, path)
	} else {
		s.leaves[path] = value
	}
	s.mu.Unlock()
	s.notify()
}

// MergePatch applies many leaves atomically. When reset is true the whole
// leaf map is cleared first. Empty values delete their keys, as in SetLeaf.
func (s *Store) MergePatch(patch map[string]any, reset bool) {
	s.mu.Lock()
	if reset {
		s.leaves = make(map[string]any)
	}
	for path, v := range patch {
		if isEmptyValue(v) {
			delete(s.leaves, path)
		} else {
			s.leaves[path] = v
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Snapshot returns a copy of the current leaf map.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.leaves))
	for k, v := range s.leaves {
		out[k] = v
	}
	return out
}

// Len returns the number of leaf overrides.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.leaves)
}

// Restore replaces the leaf map wholesale (undo, draft load). Empty values
// are skipped so the no-nil invariant holds for data from disk too.
func (s *Store) Restore(leaves map[string]any) {
	s.mu.Lock()
	s.leaves = make(map[string]any, len(leaves))
	for k, v := range leaves {
		if !isEmptyValue(v) {
			s.leaves[k] = v
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Tree converts the dotted-path leaf map into a nested map for the save
// endpoint, which expects a JSON overrides tree.
func (s *Store) Tree() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	root := make(map[string]any)
	for path, v := range s.leaves {
		parts := strings.Split(path, ".")
		node := root
		for i, part := range parts {
			if i == len(parts)-1 {
				node[part] = v
				break
			}
			child, ok := node[part].(map[string]any)
			if !ok {
				// A scalar in the way loses to the deeper path.
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
	}
	return root
}

// OnChange registers fn to run after every mutation. Registration order is
// preserved; callbacks run synchronously on the mutating goroutine.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	ws := append([]func(){}, s.watchers...)
	s.mu.RUnlock()
	for _, fn := range ws {
		fn()
	}
}
