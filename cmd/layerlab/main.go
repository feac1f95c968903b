/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"layerlab/internal/backend"
	"layerlab/internal/config"
	"layerlab/internal/crash"
	"layerlab/internal/domain"
	"layerlab/internal/draftpack"
	"layerlab/internal/export"
	applog "layerlab/internal/log"
	"layerlab/internal/placement"
	"layerlab/internal/storage"
	"layerlab/internal/ui"
	"layerlab/internal/version"
)

func usage() {
	fmt.Println("LayerLab — layer placement editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  layerlab version|-v|--version                  Show version")
	fmt.Println("  layerlab serve                                  Run the backend API server")
	fmt.Println("  layerlab ui <subject> <video> <variant>         Launch the placement editor (build with -tags fyne)")
	fmt.Println("  layerlab open <subject> <video> <variant>       Print the parked draft for a variant")
	fmt.Println("  layerlab drafts                                 List parked drafts in the workspace")
	fmt.Println("  layerlab export <review|print> [out-dir]        Export proof sheets for all parked drafts")
	fmt.Println("  layerlab pack export <zip>                      Archive parked drafts into a portable pack")
	fmt.Println("  layerlab pack install <zip>                     Install drafts from a pack (existing kept)")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer func() { crash.Recover(nil, nil) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("LayerLab — layer placement editor")
			fmt.Println(version.String())
			return
		case "serve":
			l.Info("starting backend server")
			if err := backend.StartServer(); err != nil {
				l.Error("server failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "ui":
			if len(args) < 5 {
				fmt.Println("ui requires <subject> <video> <variant>")
				usage()
				os.Exit(2)
			}
			if err := ui.Run(args[2], args[3], args[4]); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "open":
			if len(args) < 5 {
				fmt.Println("open requires <subject> <video> <variant>")
				usage()
				os.Exit(2)
			}
			ws, err := storage.InitWorkspace(storage.DefaultWorkspaceRoot())
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			l.Info("open draft", slog.String("subject", args[2]), slog.String("video", args[3]), slog.String("variant", args[4]))
			d, err := ws.LoadDraft(args[2], args[3], args[4])
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Printf("Draft: %s / %s / %s\n", d.Subject, d.Video, d.Variant)
			fmt.Printf("Overrides: %d leaves\n", len(d.Overrides))
			fmt.Printf("Text lines: %d\n", len(d.Lines))
			fmt.Printf("Elements: %d\n", len(d.Elements))
			return
		case "drafts":
			ws, err := storage.InitWorkspace(storage.DefaultWorkspaceRoot())
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			drafts, err := ws.ListDrafts()
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if len(drafts) == 0 {
				fmt.Println("No parked drafts.")
				return
			}
			for _, d := range drafts {
				fmt.Printf("%s / %s / %s  (%d lines, %d elements)\n",
					d.Subject, d.Video, d.Variant, len(d.Lines), len(d.Elements))
			}
			return
		case "export":
			if len(args) < 3 {
				fmt.Println("export requires a preset: review or print")
				usage()
				os.Exit(2)
			}
			outDir := ""
			if len(args) >= 4 {
				outDir = args[3]
			}
			if err := exportDrafts(export.PresetName(args[2]), outDir, l); err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "pack":
			if len(args) < 4 {
				fmt.Println("pack requires an action (export|install) and a zip path")
				usage()
				os.Exit(2)
			}
			ws, err := storage.InitWorkspace(storage.DefaultWorkspaceRoot())
			if err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			switch args[2] {
			case "export":
				if err := draftpack.ExportPack(ws, args[3]); err != nil {
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				fmt.Println("Draft pack written to", args[3])
			case "install":
				n, err := draftpack.InstallPack(ws, args[3])
				if err != nil {
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				fmt.Printf("Installed %d draft(s)\n", n)
			default:
				usage()
				os.Exit(2)
			}
			return
		}
	}

	usage()
}

// exportDrafts renders proof sheets for every parked draft. Slot anchors and
// portrait boxes come from the backend, so a reachable server is required.
func exportDrafts(preset export.PresetName, outDir string, l *slog.Logger) error {
	cfg, token, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client := backend.NewClient(cfg.Backend.BaseURL, token)

	ws, err := storage.InitWorkspace(storage.DefaultWorkspaceRoot())
	if err != nil {
		return err
	}
	drafts, err := ws.ListDrafts()
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		return fmt.Errorf("no parked drafts to export")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	layouts := make([]export.Layout, 0, len(drafts))
	for _, d := range drafts {
		ec, err := client.FetchEditorContext(ctx, d.Subject, d.Video, d.Variant)
		if err != nil {
			l.Warn("skipping draft, context fetch failed",
				slog.String("subject", d.Subject), slog.String("video", d.Video),
				slog.String("variant", d.Variant), slog.Any("err", err))
			continue
		}
		tpl := pickTemplate(ec, d)
		layouts = append(layouts, export.LayoutFromDraft(d, tpl, ec.PortraitBox, ec.PortraitAvailable))
	}
	if len(layouts) == 0 {
		return fmt.Errorf("no drafts could be resolved against the backend")
	}

	if err := export.BatchExport(layouts, export.BatchOptions{Preset: preset, OutDir: outDir}); err != nil {
		return err
	}
	fmt.Printf("Exported %d proof sheet(s) with preset %q\n", len(layouts), preset)
	return nil
}

// pickTemplate resolves a draft's template choice against the available
// options, falling back to the context's active template.
func pickTemplate(ec *domain.EditorContext, d domain.Draft) domain.TemplateOption {
	want := ec.ActiveTemplate
	if v, ok := d.Overrides[placement.PathTemplate].(string); ok && v != "" {
		want = v
	}
	for _, opt := range ec.TemplateOptions {
		if opt.ID == want {
			return opt
		}
	}
	if len(ec.TemplateOptions) > 0 {
		return ec.TemplateOptions[0]
	}
	return domain.TemplateOption{}
}
