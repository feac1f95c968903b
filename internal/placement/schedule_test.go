/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package placement

import "testing"

// framePump is a manual frame primitive for tests: callbacks queue until
// Step is called.
type framePump struct {
	queue []func()
}

func (p *framePump) Frame(fn func()) { p.queue = append(p.queue, fn) }

func (p *framePump) Step() {
	q := p.queue
	p.queue = nil
	for _, fn := range q {
		fn()
	}
}

func TestSchedulerCoalescesMoves(t *testing.T) {
	pump := &framePump{}
	s := NewScheduler(pump.Frame)

	applied := 0
	var last int
	for i := 1; i <= 5; i++ {
		i := i
		s.Push(func() { applied++; last = i })
	}
	if applied != 0 {
		t.Fatalf("nothing should apply before the frame fires")
	}
	if len(pump.queue) != 1 {
		t.Fatalf("expected exactly one armed frame callback, got %d", len(pump.queue))
	}
	pump.Step()
	if applied != 1 || last != 5 {
		t.Fatalf("expected one application of the last patch, applied=%d last=%d", applied, last)
	}
}

func TestSchedulerFlushIdempotent(t *testing.T) {
	pump := &framePump{}
	s := NewScheduler(pump.Frame)

	applied := 0
	s.Push(func() { applied++ })
	s.Flush()
	s.Flush()
	if applied != 1 {
		t.Fatalf("expected exactly one application, got %d", applied)
	}
	// The armed frame callback fires later but must find nothing.
	pump.Step()
	if applied != 1 {
		t.Fatalf("cancelled frame callback applied the patch again, got %d", applied)
	}
}

func TestSchedulerRearmsAfterFire(t *testing.T) {
	pump := &framePump{}
	s := NewScheduler(pump.Frame)

	applied := 0
	s.Push(func() { applied++ })
	pump.Step()
	s.Push(func() { applied++ })
	pump.Step()
	if applied != 2 {
		t.Fatalf("scheduler must re-arm after a frame, got %d", applied)
	}
}

func TestSchedulerNilFrameAppliesImmediately(t *testing.T) {
	s := NewScheduler(nil)
	applied := 0
	s.Push(func() { applied++ })
	if applied != 1 {
		t.Fatalf("nil frame primitive should apply immediately, got %d", applied)
	}
	if s.Pending() {
		t.Fatalf("nothing should be pending")
	}
}
