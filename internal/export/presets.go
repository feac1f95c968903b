/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetReview PresetName = "review"
	PresetPrint  PresetName = "print"
)

// BatchOptions controls batch export across multiple formats and layouts.
//
// Path semantics:
//   - If OutDir is empty or relative, it is created relative to the working
//     directory under exports/<preset>/.
//   - PDF and bundle outputs are single files proofs.pdf / proofs.zip in OutDir.
//   - PNG/SVG per-layout outputs live in subfolders png/ or svg/ inside OutDir,
//     named <subject>--<video>--<variant>.(png|svg).
//
//nolint:revive // keep fields explicit for clarity
type BatchOptions struct {
	Preset        PresetName
	Formats       []string // allowed: pdf, png, svg, bundle; empty means preset defaults
	CanvasW       int
	CanvasH       int
	IncludeGuides *bool  // when set, overrides preset's default for guides
	OutDir        string // base directory for outputs (created per preset if relative)
}

// BatchExport runs exports for the given layouts according to the preset.
func BatchExport(layouts []Layout, opt BatchOptions) error {
	if len(layouts) == 0 {
		return fmt.Errorf("no layouts to export")
	}

	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	for i := range formats {
		formats[i] = strings.ToLower(strings.TrimSpace(formats[i]))
	}

	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(opt.Preset)
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join("exports", baseOut)
	}

	guides := presetIncludeGuides(opt.Preset)
	if opt.IncludeGuides != nil {
		guides = *opt.IncludeGuides
	}

	for _, f := range formats {
		switch f {
		case "pdf":
			out := filepath.Join(baseOut, "proofs.pdf")
			if err := ExportLayoutsPDF(layouts, out, PDFOptions{IncludeGuides: guides}); err != nil {
				return fmt.Errorf("pdf: %w", err)
			}
		case "bundle":
			out := filepath.Join(baseOut, "proofs.zip")
			bo := BundleOptions{IncludeGuides: guides, CanvasW: opt.CanvasW, CanvasH: opt.CanvasH}
			if err := ExportBundle(layouts, out, bo); err != nil {
				return fmt.Errorf("bundle: %w", err)
			}
		case "png":
			for _, l := range layouts {
				out := filepath.Join(baseOut, "png", layoutFileName(l, "png"))
				po := PNGOptions{IncludeGuides: guides, CanvasW: opt.CanvasW, CanvasH: opt.CanvasH}
				if err := ExportLayoutPNG(l, out, po); err != nil {
					return fmt.Errorf("png %s: %w", layoutFileName(l, "png"), err)
				}
			}
		case "svg":
			for _, l := range layouts {
				out := filepath.Join(baseOut, "svg", layoutFileName(l, "svg"))
				so := SVGOptions{IncludeGuides: guides, CanvasW: opt.CanvasW, CanvasH: opt.CanvasH}
				if err := ExportLayoutSVG(l, out, so); err != nil {
					return fmt.Errorf("svg %s: %w", layoutFileName(l, "svg"), err)
				}
			}
		default:
			return fmt.Errorf("unknown format: %s", f)
		}
	}
	return nil
}

func layoutFileName(l Layout, ext string) string {
	return fmt.Sprintf("%s--%s--%s.%s", l.Subject, l.Video, l.Variant, ext)
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetReview:
		return []string{"png", "svg", "bundle"}
	case PresetPrint:
		return []string{"pdf"}
	default:
		return []string{"pdf"}
	}
}

func presetIncludeGuides(p PresetName) bool {
	switch p {
	case PresetReview:
		return false
	case PresetPrint:
		return true
	default:
		return true
	}
}
