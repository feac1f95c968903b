/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package placement is the interactive layer placement engine: it owns the
// drag session state machine, the pure per-kind transform math, snapping,
// per-frame update batching, the per-slot text parameter store, the freeform
// element collection, and the one-shot migration of legacy global text
// parameters. Pointer and keyboard gestures come in; normalized, clamped,
// serializable parameters come out.
//
// The engine is single-threaded and event-driven: all mutation happens
// synchronously on the goroutine delivering pointer/keyboard/frame events.
// Network loads and saves are the only suspension points and are fenced by
// request counters so a stale response never overwrites newer state.
package placement
