/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
)

func TestLineParamsClamped(t *testing.T) {
	p := LineParams{OffsetX: -9, OffsetY: 7, Scale: 10, RotateDeg: 200}.Clamped()
	if p.OffsetX != OffsetMin || p.OffsetY != OffsetMax {
		t.Fatalf("offsets not clamped: %+v", p)
	}
	if p.Scale != LineScaleMax {
		t.Fatalf("scale not clamped: %v", p.Scale)
	}
	if p.RotateDeg != RotateMax {
		t.Fatalf("rotation not clamped: %v", p.RotateDeg)
	}
}

func TestLineParamsIsDefault(t *testing.T) {
	if !DefaultLineParams().IsDefault() {
		t.Fatalf("DefaultLineParams should be the identity transform")
	}
	if (LineParams{Scale: 1.01}).IsDefault() {
		t.Fatalf("scaled params must not be default")
	}
}

func TestElementClamped(t *testing.T) {
	e := Element{X: 12, Y: -12, W: 0, H: 99, RotationDeg: 540, Opacity: 3}.Clamped()
	if e.X != ElementPosMax || e.Y != ElementPosMin {
		t.Fatalf("position not clamped: %+v", e)
	}
	if e.W != ElementSizeMin || e.H != ElementSizeMax {
		t.Fatalf("size not clamped: %+v", e)
	}
	if e.RotationDeg != 180 {
		t.Fatalf("rotation not normalized: %v", e.RotationDeg)
	}
	if e.Opacity != 1 {
		t.Fatalf("opacity not clamped: %v", e.Opacity)
	}
}

func TestNormalizeDeg(t *testing.T) {
	// Both boundary values stay put: 180 and -180 are already in range.
	cases := map[float64]float64{0: 0, 190: -170, -190: 170, 360: 0, 540: 180, -540: -180}
	for in, want := range cases {
		if got := NormalizeDeg(in); got != want {
			t.Fatalf("NormalizeDeg(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestElementJSONFieldNames(t *testing.T) {
	e := Element{ID: "el1", Kind: ElementRect, Layer: LayerBelowPortrait, X: 0.5, Y: 0.5, W: 0.2, H: 0.2, Opacity: 1}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"id"`, `"kind"`, `"layer"`, `"rotation_deg"`, `"opacity"`} {
		if !bytes.Contains(b, []byte(key)) {
			t.Fatalf("marshaled element missing %s: %s", key, b)
		}
	}
}

func TestSlotBoxCenter(t *testing.T) {
	b := SlotBox{Left: 0.1, Top: 0.6, Width: 0.4, Height: 0.2}
	if got := b.CenterX(); math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("CenterX = %v", got)
	}
	if got := b.CenterY(); math.Abs(got-0.7) > 1e-9 {
		t.Fatalf("CenterY = %v", got)
	}
	if b.IsEmpty() {
		t.Fatalf("box with extent must not be empty")
	}
	if !(SlotBox{Width: 0, Height: 0.2}).IsEmpty() {
		t.Fatalf("zero-width box must be empty")
	}
}
