/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

// Package draftpack archives workspace drafts into a portable .zip so a set
// of parked placements can be moved between machines or shared for review.
package draftpack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "layerlab/internal/log"
	"layerlab/internal/storage"
)

const manifestName = "draftpack.manifest.txt"

// ExportPack zips the workspace drafts directory into a single .zip file.
// The archive preserves the directory structure and adds a small manifest
// file at the root for quick human inspection. An empty drafts directory
// still produces an archive with only the manifest.
func ExportPack(ws *storage.WorkspaceHandle, destZipPath string) error {
	if ws == nil || ws.Root == "" {
		return errors.New("workspace is required")
	}
	l := applog.WithOperation(applog.WithComponent("draftpack"), "export").With(slog.String("workspace", ws.Root))
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	draftsDir := filepath.Join(ws.Root, storage.DraftsDirName)
	if _, err := os.Stat(draftsDir); os.IsNotExist(err) {
		if err := os.MkdirAll(draftsDir, 0o755); err != nil {
			return fmt.Errorf("ensure drafts dir: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)
	defer func() { _ = zw.Close() }()

	manifest := fmt.Sprintf("LayerLab Draft Pack\nCreated: %s\nWorkspace: %s\n\nContents mirror the workspace's /drafts directory.\n",
		time.Now().Format(time.RFC3339), ws.Root)
	w, err := zw.Create(manifestName)
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	added := 0
	err = filepath.Walk(draftsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(ws.Root, path)
		if err != nil {
			return err
		}
		// Forward slashes inside the archive
		fw, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if _, err := io.Copy(fw, f); err != nil {
			return err
		}
		added++
		return nil
	})
	if err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	l.Info("draft pack exported", slog.Int("files", added), slog.String("zip", destZipPath))
	return nil
}

// InstallPack extracts the given .zip pack into the workspace drafts
// directory. Existing drafts are not overwritten; they are skipped.
// Returns the count of files installed (skipped files are not counted).
func InstallPack(ws *storage.WorkspaceHandle, packZipPath string) (int, error) {
	if ws == nil || ws.Root == "" {
		return 0, errors.New("workspace is required")
	}
	l := applog.WithOperation(applog.WithComponent("draftpack"), "install").With(slog.String("workspace", ws.Root))
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("packZipPath is required")
	}
	draftsDir := filepath.Join(ws.Root, storage.DraftsDirName)
	if err := os.MkdirAll(draftsDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure drafts dir: %w", err)
	}

	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		name := f.Name
		if name == manifestName {
			continue
		}
		// Entries may carry the drafts/ prefix already or be bare file names.
		targetRel := name
		if !strings.HasPrefix(targetRel, storage.DraftsDirName+"/") {
			targetRel = filepath.ToSlash(filepath.Join(storage.DraftsDirName, targetRel))
		}
		// Reject entries that would escape the workspace
		if strings.Contains(targetRel, "..") {
			l.Warn("skip suspicious entry", slog.String("name", name))
			continue
		}
		targetPath := filepath.Join(ws.Root, filepath.FromSlash(targetRel))
		if _, err := os.Stat(targetPath); err == nil {
			l.Warn("skip existing draft", slog.String("path", targetPath))
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				return installed, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return installed, err
		}
		rc, err := f.Open()
		if err != nil {
			return installed, err
		}
		out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			_ = rc.Close()
			return installed, err
		}
		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			_ = rc.Close()
			return installed, err
		}
		_ = out.Close()
		_ = rc.Close()
		installed++
	}
	l.Info("draft pack installed", slog.Int("files", installed))
	return installed, nil
}
