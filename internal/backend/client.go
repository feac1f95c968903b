/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"layerlab/internal/domain"
)

// Client is the HTTP client for the dashboard data layer. The placement
// editor only talks to the dashboard through it: context and spec fetches,
// saves, slot previews and asset replacement.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new data-layer client. baseURL may include a trailing
// slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// httpClient returns the configured transport, falling back to a default
// one so a Client built as a struct literal still works.
func (c *Client) httpClient() *http.Client {
	if c.client != nil {
		return c.client
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

func variantPath(subject, video, variant string) string {
	return fmt.Sprintf("/api/subjects/%s/videos/%s/variants/%s",
		url.PathEscape(subject), url.PathEscape(video), url.PathEscape(variant))
}

// FetchEditorContext loads the editor context for one variant: defaults,
// template options, portrait availability and asset URLs.
func (c *Client) FetchEditorContext(ctx context.Context, subject, video, variant string) (*domain.EditorContext, error) {
	var ec domain.EditorContext
	if err := c.doJSON(ctx, http.MethodGet, variantPath(subject, video, variant)+"/context", nil, &ec); err != nil {
		return nil, err
	}
	return &ec, nil
}

// FetchTextLineSpec loads the per-slot text line parameters for one variant.
func (c *Client) FetchTextLineSpec(ctx context.Context, subject, video, variant string) (*domain.TextLineSpec, error) {
	var spec domain.TextLineSpec
	if err := c.doJSON(ctx, http.MethodGet, variantPath(subject, video, variant)+"/lines", nil, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// SaveTextLineSpec stores the per-slot text line parameters for one variant.
func (c *Client) SaveTextLineSpec(ctx context.Context, subject, video, variant string, spec domain.TextLineSpec) error {
	return c.doJSON(ctx, http.MethodPut, variantPath(subject, video, variant)+"/lines", spec, nil)
}

// FetchElementsSpec loads the freeform element collection for one variant.
func (c *Client) FetchElementsSpec(ctx context.Context, subject, video, variant string) (*domain.ElementsSpec, error) {
	var spec domain.ElementsSpec
	if err := c.doJSON(ctx, http.MethodGet, variantPath(subject, video, variant)+"/elements", nil, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// SaveElementsSpec stores the freeform element collection for one variant.
func (c *Client) SaveElementsSpec(ctx context.Context, subject, video, variant string, spec domain.ElementsSpec) error {
	return c.doJSON(ctx, http.MethodPut, variantPath(subject, video, variant)+"/elements", spec, nil)
}

// saveOverridesBody is the wire payload of an override save.
type saveOverridesBody struct {
	Overrides map[string]any `json:"overrides"`
	Render    bool           `json:"render"`
}

// SaveOverrides stores the nested override tree for one variant. render
// requests a re-render of the composited image after the save; a
// settings-only save passes false.
func (c *Client) SaveOverrides(ctx context.Context, subject, video, variant string, overrides map[string]any, render bool) error {
	body := saveOverridesBody{Overrides: overrides, Render: render}
	return c.doJSON(ctx, http.MethodPut, variantPath(subject, video, variant)+"/overrides", body, nil)
}

// previewBody is the wire payload of a slot preview request.
type previewBody struct {
	Overrides map[string]any               `json:"overrides"`
	Lines     map[string]domain.LineParams `json:"lines,omitempty"`
}

// PreviewResult maps slot keys to rendered preview image URLs.
type PreviewResult struct {
	Images map[string]string `json:"images"`
}

// PreviewTextSlots asks the renderer for per-slot preview images of the
// given uncommitted state. Best effort; callers debounce and drop stale
// responses.
func (c *Client) PreviewTextSlots(ctx context.Context, subject, video, variant string, overrides map[string]any, lines map[string]domain.LineParams) (*PreviewResult, error) {
	var res PreviewResult
	body := previewBody{Overrides: overrides, Lines: lines}
	if err := c.doJSON(ctx, http.MethodPost, variantPath(subject, video, variant)+"/preview", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AssetResult is the response of an asset replacement.
type AssetResult struct {
	PublicURL string `json:"public_url"`
}

// ReplaceAsset uploads a replacement image for a slot as a multipart form
// and returns its public URL.
func (c *Client) ReplaceAsset(ctx context.Context, subject, video, slot, filename string, r io.Reader) (*AssetResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, err
	}
	if err := mw.WriteField("slot", slot); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	u := c.BaseURL + fmt.Sprintf("/api/subjects/%s/videos/%s/assets",
		url.PathEscape(subject), url.PathEscape(video))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("server POST %s: %s", req.URL.Path, resp.Status)
	}
	var res AssetResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}
