/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package placement

import "sync"

// FrameFunc schedules fn to run on the next rendering frame. The Fyne
// frontend supplies a frame-synchronized primitive; tests pump manually.
type FrameFunc func(fn func())

// Scheduler coalesces high-frequency move events into at most one committed
// store update per rendering frame. It holds a single pending patch; each
// move overwrites it and schedules (if not already scheduled) one next-frame
// callback that applies the patch. Flush applies any pending patch
// synchronously and cancels the scheduled callback, so no move is ever
// silently dropped on gesture end or before save.
type Scheduler struct {
	mu        sync.Mutex
	frame     FrameFunc
	pending   func()
	scheduled bool
}

// NewScheduler creates a scheduler over the given frame primitive. A nil
// frame primitive applies patches immediately (unbatched), which keeps
// headless callers correct.
func NewScheduler(frame FrameFunc) *Scheduler {
	return &Scheduler{frame: frame}
}

// Push replaces the pending patch with apply and arms the frame callback if
// one is not already armed.
func (s *Scheduler) Push(apply func()) {
	s.mu.Lock()
	if s.frame == nil {
		s.mu.Unlock()
		apply()
		return
	}
	s.pending = apply
	if s.scheduled {
		s.mu.Unlock()
		return
	}
	s.scheduled = true
	s.mu.Unlock()
	s.frame(s.fire)
}

// fire runs on the next frame and applies whatever patch is still pending.
// A Flush in between leaves nothing to do.
func (s *Scheduler) fire() {
	s.mu.Lock()
	apply := s.pending
	s.pending = nil
	s.scheduled = false
	s.mu.Unlock()
	if apply != nil {
		apply()
	}
}

// Flush applies any pending patch synchronously and disarms the frame
// callback. Calling Flush with nothing pending is a no-op, so back-to-back
// flushes apply the patch exactly once.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	apply := s.pending
	s.pending = nil
	s.scheduled = false
	s.mu.Unlock()
	if apply != nil {
		apply()
	}
}

// Pending reports whether a patch is waiting for the next frame.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}
