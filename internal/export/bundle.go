/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BundleOptions controls the review bundle: a ZIP of proof sheet PNG/SVG
// renders for a set of layouts plus a manifest.json describing them.
//
//nolint:revive // clarity
type BundleOptions struct {
	IncludeGuides bool
	CanvasW       int
	CanvasH       int
	Formats       []string // allowed: png, svg; empty means both
}

type bundleManifest struct {
	GeneratedAt string              `json:"generated_at"`
	Sheets      []bundleSheetRecord `json:"sheets"`
}

type bundleSheetRecord struct {
	Subject string   `json:"subject"`
	Video   string   `json:"video"`
	Variant string   `json:"variant"`
	Files   []string `json:"files"`
}

// ExportBundle packages proof sheets for all layouts into a single ZIP at
// outPath, one file per layout per format, with a manifest.json at the root.
func ExportBundle(layouts []Layout, outPath string, opt BundleOptions) error {
	if len(layouts) == 0 {
		return fmt.Errorf("no layouts to export")
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = []string{"png", "svg"}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}
	zw := zip.NewWriter(f)

	fail := func(err error) error {
		_ = zw.Close()
		_ = f.Close()
		_ = os.Remove(outPath)
		return err
	}

	manifest := bundleManifest{GeneratedAt: time.Now().UTC().Format(time.RFC3339)}
	for _, l := range layouts {
		base := fmt.Sprintf("%s--%s--%s", l.Subject, l.Video, l.Variant)
		rec := bundleSheetRecord{Subject: l.Subject, Video: l.Video, Variant: l.Variant}
		for _, format := range formats {
			var (
				data []byte
				name string
			)
			switch format {
			case "png":
				data, err = RenderLayoutPNG(l, PNGOptions{IncludeGuides: opt.IncludeGuides, CanvasW: opt.CanvasW, CanvasH: opt.CanvasH})
				name = base + ".png"
			case "svg":
				data, err = RenderLayoutSVG(l, SVGOptions{IncludeGuides: opt.IncludeGuides, CanvasW: opt.CanvasW, CanvasH: opt.CanvasH})
				name = base + ".svg"
			default:
				return fail(fmt.Errorf("unknown bundle format: %s", format))
			}
			if err != nil {
				return fail(fmt.Errorf("render %s %s: %w", base, format, err))
			}
			w, err := zw.Create(name)
			if err != nil {
				return fail(fmt.Errorf("zip entry %s: %w", name, err))
			}
			if _, err := w.Write(data); err != nil {
				return fail(fmt.Errorf("zip write %s: %w", name, err))
			}
			rec.Files = append(rec.Files, name)
		}
		manifest.Sheets = append(manifest.Sheets, rec)
	}

	mb, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fail(fmt.Errorf("marshal manifest: %w", err))
	}
	mw, err := zw.Create("manifest.json")
	if err != nil {
		return fail(fmt.Errorf("zip manifest entry: %w", err))
	}
	if _, err := mw.Write(mb); err != nil {
		return fail(fmt.Errorf("zip manifest write: %w", err))
	}

	if err := zw.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("close zip: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close bundle: %w", err)
	}
	return nil
}
