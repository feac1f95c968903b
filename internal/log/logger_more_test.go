/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestFromEnvAndGetenv(t *testing.T) {
	t.Setenv("LLB_LOG_LEVEL", "warn")
	t.Setenv("LLB_LOG_FORMAT", "json")
	t.Setenv("LLB_LOG_SOURCE", "true")
	// LLB_LOG_FILE intentionally unset

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}

	if v := getenv("SOME_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestPrettyTextHandler_Behavior(t *testing.T) {
	var buf bytes.Buffer
	h := &prettyTextHandler{opts: prettyOpts{Level: slog.LevelWarn}, w: &buf}

	// Enabled should filter below WARN
	if h.Enabled(nil, slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(nil, slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("drag", "element_move")}).(*prettyTextHandler)
	rec := slog.Record{Level: slog.LevelWarn, Message: "clamped"}
	rec.AddAttrs(slog.Float64("zoom", 6))
	if err := h2.Handle(nil, rec); err != nil {
		t.Fatalf("handle: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "WRN clamped") || !strings.Contains(out, "drag=element_move") || !strings.Contains(out, "zoom=6") {
		t.Fatalf("unexpected pretty output: %q", out)
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if parseLevel("bogus") != slog.LevelInfo {
		t.Fatalf("unknown level should default to info")
	}
	if parseLevel("DEBUG") != slog.LevelDebug {
		t.Fatalf("level parsing should be case-insensitive")
	}
}
