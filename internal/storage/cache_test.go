/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package storage

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"
)

func TestPreviewPutGetRoundTrip(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	blob := []byte("png-bytes-here")
	if err := PutPreview(ctx, root, "alice", "v1", "a", "title", 640, 360, blob); err != nil {
		t.Fatalf("PutPreview: %v", err)
	}
	got, err := GetPreview(ctx, root, "alice", "v1", "a", "title", 640, 360)
	if err != nil {
		t.Fatalf("GetPreview: %v", err)
	}
	if !bytes.Equal(got, blob) {
		t.Fatalf("preview round trip mismatch: got %d bytes", len(got))
	}
	// Miss on a different size
	miss, err := GetPreview(ctx, root, "alice", "v1", "a", "title", 320, 180)
	if err != nil {
		t.Fatalf("GetPreview miss: %v", err)
	}
	if miss != nil {
		t.Fatalf("expected cache miss for unseen size, got %d bytes", len(miss))
	}
}

func TestPreviewEvictionRespectsCap(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	os.Setenv("LLB_PREVIEWS_MAX_BYTES", "64")
	defer os.Unsetenv("LLB_PREVIEWS_MAX_BYTES")

	blob := make([]byte, 40)
	slots := []string{"title", "subtitle", "footer"}
	for _, s := range slots {
		if err := PutPreview(ctx, root, "bob", "v2", "a", s, 100, 100, blob); err != nil {
			t.Fatalf("put %s: %v", s, err)
		}
		time.Sleep(10 * time.Millisecond) // distinct access times
	}
	total, err := TotalPreviewBytes(ctx, root)
	if err != nil {
		t.Fatalf("TotalPreviewBytes: %v", err)
	}
	if total > 64 {
		t.Fatalf("expected eviction to <=64 bytes, got %d", total)
	}
	// The most recently inserted slot must survive
	got, err := GetPreview(ctx, root, "bob", "v2", "a", "footer", 100, 100)
	if err != nil {
		t.Fatalf("GetPreview footer: %v", err)
	}
	if got == nil {
		t.Fatalf("expected most recent preview to survive eviction")
	}
}

func TestMaxPreviewsBytesFromEnv(t *testing.T) {
	defer os.Unsetenv("LLB_PREVIEWS_MAX_BYTES")

	os.Unsetenv("LLB_PREVIEWS_MAX_BYTES")
	if got := MaxPreviewsBytesFromEnv(); got != 64*1024*1024 {
		t.Fatalf("unset default = %d, want 64 MiB", got)
	}
	os.Setenv("LLB_PREVIEWS_MAX_BYTES", "1024")
	if got := MaxPreviewsBytesFromEnv(); got != 1024 {
		t.Fatalf("explicit cap = %d, want 1024", got)
	}
	// 0 disables eviction, it is not the "use the default" value.
	os.Setenv("LLB_PREVIEWS_MAX_BYTES", "0")
	if got := MaxPreviewsBytesFromEnv(); got != 0 {
		t.Fatalf("zero cap = %d, want 0 (eviction off)", got)
	}
	os.Setenv("LLB_PREVIEWS_MAX_BYTES", "banana")
	if got := MaxPreviewsBytesFromEnv(); got != 64*1024*1024 {
		t.Fatalf("malformed cap = %d, want the default", got)
	}
}

func TestGetOrCreatePreviewGeneratesOnce(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	calls := 0
	gen := func(context.Context) ([]byte, error) {
		calls++
		return []byte("generated"), nil
	}
	for i := 0; i < 2; i++ {
		got, err := GetOrCreatePreview(ctx, root, "carol", "v3", "a", "title", 200, 100, gen)
		if err != nil {
			t.Fatalf("GetOrCreatePreview #%d: %v", i, err)
		}
		if string(got) != "generated" {
			t.Fatalf("unexpected preview bytes %q", got)
		}
	}
	if calls != 1 {
		t.Fatalf("expected generator to run once, ran %d times", calls)
	}
}

func TestInvalidateScopeDropsOnlyThatScope(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	blob := []byte("x")
	if err := PutPreview(ctx, root, "dave", "v1", "a", "title", 100, 100, blob); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if err := PutPreview(ctx, root, "dave", "v1", "b", "title", 100, 100, blob); err != nil {
		t.Fatalf("put b: %v", err)
	}
	if err := InvalidateScope(ctx, root, "dave", "v1", "a"); err != nil {
		t.Fatalf("InvalidateScope: %v", err)
	}
	gone, err := GetPreview(ctx, root, "dave", "v1", "a", "title", 100, 100)
	if err != nil {
		t.Fatalf("get invalidated: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected variant a previews to be dropped")
	}
	kept, err := GetPreview(ctx, root, "dave", "v1", "b", "title", 100, 100)
	if err != nil {
		t.Fatalf("get kept: %v", err)
	}
	if kept == nil {
		t.Fatalf("expected variant b previews to survive")
	}
}
