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

	"layerlab/internal/domain"
)

// linePresets are the named one-click transforms offered next to each text
// slot. "reset" is the identity and clears the slot's entry.
var linePresets = map[string]domain.LineParams{
	"reset":     {Scale: 1},
	"raise":     {OffsetY: -0.06, Scale: 1},
	"lower":     {OffsetY: 0.06, Scale: 1},
	"emphasize": {Scale: 1.25},
	"compact":   {Scale: 0.8},
	"tilt":      {RotateDeg: -4, Scale: 1},
}

// LinePresetNames returns the available preset names in sorted order.
func LinePresetNames() []string {
	out := make([]string, 0, len(linePresets))
	for k := range linePresets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LinePreset resolves a named preset.
func LinePreset(name string) (domain.LineParams, bool) {
	p, ok := linePresets[name]
	return p, ok
}
