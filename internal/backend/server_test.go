/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package backend

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenSignVerifyRoundTrip(t *testing.T) {
	tok, err := signToken("s3cret", "alice", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	sub, err := verifyToken("s3cret", tok)
	if err != nil {
		t.Fatalf("verifyToken: %v", err)
	}
	if sub != "alice" {
		t.Fatalf("subject mismatch: got %q", sub)
	}
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	tok, err := signToken("s3cret", "alice", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	if _, err := verifyToken("other-secret", tok); err == nil {
		t.Fatalf("expected wrong-secret verification to fail")
	}
	if _, err := verifyToken("s3cret", tok+"x"); err == nil {
		t.Fatalf("expected tampered token to fail")
	}
	expired, err := signToken("s3cret", "alice", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("signToken expired: %v", err)
	}
	if _, err := verifyToken("s3cret", expired); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestWithAuthRequiresBearer(t *testing.T) {
	handler := withAuth("s3cret", func(w http.ResponseWriter, r *http.Request, subject string) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(subject))
	})

	// No token
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/subjects/a/videos/b/variants/c/context", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	// Valid token
	tok, err := signToken("s3cret", "bob", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/subjects/a/videos/b/variants/c/context", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", rec.Code)
	}
	if rec.Body.String() != "bob" {
		t.Fatalf("expected subject to flow through, got %q", rec.Body.String())
	}
}

func TestParseMigrationVersion(t *testing.T) {
	v, err := parseMigrationVersion("0001_init.sql")
	if err != nil {
		t.Fatalf("parseMigrationVersion: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected version 1, got %d", v)
	}
	if _, err := parseMigrationVersion("abc.sql"); err == nil {
		t.Fatalf("expected error for non-numeric prefix")
	}
}
