/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package placement

// Dotted leaf paths shared between the override store, the defaults map from
// the editor context, and the renderer. The namespace is flat: one leaf per
// scalar parameter.
const (
	PathBGPanX = "overrides.bg_pan_zoom.pan_x"
	PathBGPanY = "overrides.bg_pan_zoom.pan_y"
	PathBGZoom = "overrides.bg_pan_zoom.zoom"

	PathPortraitOffsetX = "overrides.portrait.offset_x"
	PathPortraitOffsetY = "overrides.portrait.offset_y"
	PathPortraitZoom    = "overrides.portrait.zoom"

	PathTemplate = "overrides.template"

	// Deprecated single-global text parameters, absorbed into per-slot
	// line params by the legacy migration and then deleted.
	PathLegacyTextOffsetX = "overrides.text_offset_x"
	PathLegacyTextOffsetY = "overrides.text_offset_y"
	PathLegacyTextScale   = "overrides.text_scale"
)
