/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry is a strictly opt-in usage event sender with optional
// crash uploads. Events are buffered and posted in small batches so heavy
// editor interaction never produces a request per gesture.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	applog "layerlab/internal/log"
	"layerlab/internal/version"
)

// Config holds runtime configuration for telemetry and crash uploads.
// Everything is disabled by default.
//
// Environment variables (read by FromEnv):
// - LLB_TELEMETRY_OPT_IN: "1", "true", "yes" to enable metrics
// - LLB_TELEMETRY_URL: base URL to POST JSON event batches to
// - LLB_CRASH_UPLOAD_URL: URL to POST crash reports to
// - LLB_TELEMETRY_TIMEOUT_MS: optional request timeout, default 1500ms
// - LLB_TELEMETRY_DEBUG: if set, logs send attempts
//
// If no URLs are set, events are dropped even when opt-in is true.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("LLB_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("LLB_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("LLB_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("LLB_TELEMETRY_DEBUG") != "",
	}
	if ms := strings.TrimSpace(os.Getenv("LLB_TELEMETRY_TIMEOUT_MS")); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// batchInterval is how long buffered events may wait before a send.
const batchInterval = 2 * time.Second

// maxBuffered bounds the in-memory event buffer; overflow drops oldest first.
const maxBuffered = 256

// Client buffers events and ships them in batches. It never blocks the
// caller and drops silently on any error.
type Client struct {
	cfg Config
	log *slog.Logger
	cli *http.Client

	mu  sync.Mutex
	buf []map[string]any

	kick   chan struct{}
	closed chan struct{}
	once   sync.Once
}

var defaultClient *Client
var defaultOnce sync.Once

// InitDefault initializes the package-level default client from env when first used.
func InitDefault() {
	defaultOnce.Do(func() {
		NewDefault(FromEnv())
	})
}

// NewDefault creates and installs the default client with cfg.
func NewDefault(cfg Config) {
	defaultClient = New(cfg)
}

// New constructs a client and starts its batching loop.
func New(cfg Config) *Client {
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		kick:   make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether telemetry is opted in and an endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Enabled reports whether telemetry is enabled using the default client.
func Enabled() bool {
	InitDefault()
	return defaultClient.Enabled()
}

// Event buffers a small JSON event if enabled. Safe to call from anywhere.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		// props must be non-PII
		payload[k] = v
	}
	c.mu.Lock()
	if len(c.buf) >= maxBuffered {
		c.buf = c.buf[1:]
	}
	c.buf = append(c.buf, payload)
	c.mu.Unlock()
}

// Event using default client.
func Event(name string, props map[string]any) { InitDefault(); defaultClient.Event(name, props) }

// Gesture records a completed manipulation gesture with its duration.
func (c *Client) Gesture(kind string, d time.Duration) {
	c.Event("gesture", map[string]any{"kind": kind, "ms": d.Milliseconds()})
}

// Gesture using default client.
func Gesture(kind string, d time.Duration) { InitDefault(); defaultClient.Gesture(kind, d) }

// Flush sends any buffered events now and waits briefly for the buffer to
// drain. A nil context is accepted.
func (c *Client) Flush(ctx context.Context) {
	select {
	case c.kick <- struct{}{}:
	default:
	}
	deadline := time.Now().Add(500 * time.Millisecond)
	for {
		c.mu.Lock()
		empty := len(c.buf) == 0
		c.mu.Unlock()
		if empty || time.Now().After(deadline) {
			return
		}
		if ctx != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(25 * time.Millisecond):
			}
		} else {
			time.Sleep(25 * time.Millisecond)
		}
	}
}

// Close stops the batching loop after a final send attempt.
func (c *Client) Close() {
	c.once.Do(func() { close(c.closed) })
}

func (c *Client) loop() {
	t := time.NewTicker(batchInterval)
	defer t.Stop()
	for {
		select {
		case <-c.closed:
			c.sendBatch()
			return
		case <-c.kick:
			c.sendBatch()
		case <-t.C:
			c.sendBatch()
		}
	}
}

// sendBatch posts the whole buffer as one JSON array. On failure the batch
// is dropped, not retried.
func (c *Client) sendBatch() {
	c.mu.Lock()
	if len(c.buf) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.buf
	c.buf = nil
	c.mu.Unlock()

	buf, err := json.Marshal(batch)
	if err != nil {
		return
	}
	req, err := http.NewRequest(http.MethodPost, c.cfg.EventsURL, bytes.NewReader(buf))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry batch failed", slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry batch sent", slog.Int("events", len(batch)))
	}
}

// UploadCrash posts an already-serialized crash report to the configured
// crash URL if opted in. Runs asynchronously.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	go func(b []byte) {
		req, err := http.NewRequest(http.MethodPost, c.cfg.CrashURL, bytes.NewReader(b))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
		resp, err := c.cli.Do(req)
		if err != nil {
			if c.cfg.DebugLogging {
				c.log.Debug("crash upload failed", slog.Any("err", err))
			}
			return
		}
		_ = resp.Body.Close()
		if c.cfg.DebugLogging {
			c.log.Debug("crash report uploaded")
		}
	}(append([]byte(nil), report...))
}

// UploadCrash using default client.
func UploadCrash(report []byte) { InitDefault(); defaultClient.UploadCrash(report) }
