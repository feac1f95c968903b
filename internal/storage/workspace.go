/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"layerlab/internal/domain"
)

const (
	DraftsDirName  = "drafts"
	BackupsDirName = "backups"
)

var standardSubDirs = []string{
	DraftsDirName,
	BackupsDirName,
}

// WorkspaceHandle tracks the local workspace directory holding parked
// drafts, their backups and the preview cache.
type WorkspaceHandle struct {
	Root string
}

// InitWorkspace creates the workspace directory at root (creating it if it
// doesn't exist) and scaffolds the standard subfolders.
func InitWorkspace(root string) (*WorkspaceHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	return &WorkspaceHandle{Root: root}, nil
}

// DefaultWorkspaceRoot resolves the per-user workspace directory.
func DefaultWorkspaceRoot() string {
	if v := os.Getenv("LLB_WORKSPACE"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "layerlab")
	}
	return filepath.Join(home, ".local", "share", "layerlab")
}

// draftFileName flattens a scope triple into one safe file name. Path
// separators and dots in the identifiers must not escape the drafts dir.
func draftFileName(subject, video, variant string) string {
	clean := func(s string) string {
		s = strings.Map(func(r rune) rune {
			switch r {
			case '/', '\\', ':', '.', ' ':
				return '_'
			}
			return r
		}, s)
		if s == "" {
			s = "_"
		}
		return s
	}
	return fmt.Sprintf("%s--%s--%s.json", clean(subject), clean(video), clean(variant))
}

// DraftPath returns the on-disk path of a scope's draft file.
func (ws *WorkspaceHandle) DraftPath(subject, video, variant string) string {
	return filepath.Join(ws.Root, DraftsDirName, draftFileName(subject, video, variant))
}

// SaveDraft writes a draft to disk with transactional semantics and a
// timestamped backup of the previous draft (if present).
func (ws *WorkspaceHandle) SaveDraft(d domain.Draft) error {
	if ws == nil || ws.Root == "" {
		return errors.New("invalid WorkspaceHandle: missing root")
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	data = append(data, '\n')

	path := ws.DraftPath(d.Subject, d.Video, d.Variant)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure drafts dir: %w", err)
	}
	bdir := filepath.Join(ws.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// If a current draft exists, copy it to a timestamped backup before replacing
	if _, statErr := os.Stat(path); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bname := fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp)
		if cerr := copyFile(path, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current draft: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp draft: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace draft: %w", rerr)
	}
	return nil
}

// LoadDraft reads a scope's draft. If the current file cannot be read or
// parsed it falls back to the latest timestamped backup.
func (ws *WorkspaceHandle) LoadDraft(subject, video, variant string) (*domain.Draft, error) {
	path := ws.DraftPath(subject, video, variant)
	b, err := os.ReadFile(path)
	if err != nil {
		d, berr := ws.loadFromLatestBackup(subject, video, variant)
		if berr != nil {
			return nil, fmt.Errorf("open draft: %w; backup attempt: %v", err, berr)
		}
		return d, nil
	}
	var d domain.Draft
	if uerr := json.Unmarshal(b, &d); uerr != nil {
		bd, berr := ws.loadFromLatestBackup(subject, video, variant)
		if berr != nil {
			return nil, fmt.Errorf("parse draft: %w; backup attempt: %v", uerr, berr)
		}
		return bd, nil
	}
	return &d, nil
}

// DeleteDraft removes a scope's draft file; backups stay.
func (ws *WorkspaceHandle) DeleteDraft(subject, video, variant string) error {
	err := os.Remove(ws.DraftPath(subject, video, variant))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ListDrafts returns the scopes of every parked draft.
func (ws *WorkspaceHandle) ListDrafts() ([]domain.Draft, error) {
	dir := filepath.Join(ws.Root, DraftsDirName)
	ents, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []domain.Draft
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		var d domain.Draft
		if json.Unmarshal(b, &d) == nil {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		if out[i].Video != out[j].Video {
			return out[i].Video < out[j].Video
		}
		return out[i].Variant < out[j].Variant
	})
	return out, nil
}

func (ws *WorkspaceHandle) loadFromLatestBackup(subject, video, variant string) (*domain.Draft, error) {
	bdir := filepath.Join(ws.Root, BackupsDirName)
	base := draftFileName(subject, video, variant)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, base+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	var d domain.Draft
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return &d, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	if err := df.Sync(); err != nil {
		return err
	}
	return nil
}
