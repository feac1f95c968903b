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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "layerlab/internal/log"

	"layerlab/internal/domain"
)

// AutosaveCrashDraft writes the in-flight draft into the workspace backups
// directory so a crash never loses unsaved placement work. It returns the
// path of the written snapshot. The write is best-effort and must not panic.
func AutosaveCrashDraft(ws *WorkspaceHandle, d domain.Draft) (string, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "crash_autosave")
	if ws == nil || strings.TrimSpace(ws.Root) == "" {
		return "", fmt.Errorf("workspace handle is required")
	}
	dir := filepath.Join(ws.Root, BackupsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backups dir: %w", err)
	}
	base := strings.TrimSuffix(draftFileName(d.Subject, d.Video, d.Variant), ".json")
	stamp := time.Now().UTC().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("%s.crash-%s.json", base, stamp))
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal draft: %w", err)
	}
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	l.Info("crash snapshot written", slog.String("path", path))
	return path, nil
}
