/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	applog "layerlab/internal/log"
	"layerlab/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// CacheDirName stores all ephemeral cache data under the workspace root.
	CacheDirName  = ".llb"
	CacheFileName = "cache.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded cache.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 1
)

// CachePath returns the full path to the workspace's embedded cache database file.
func CachePath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, CacheDirName, CacheFileName)
}

// InitOrOpenCache ensures that the per-workspace SQLite cache exists at
// .llb/cache.sqlite, opens the database, enables WAL mode, and ensures the
// meta/version/previews tables exist. The returned *sql.DB is ready for use.
// Callers may close it when no longer needed.
func InitOrOpenCache(workspaceRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "cache_init").With(
		slog.String("root", workspaceRoot),
	)
	if strings.TrimSpace(workspaceRoot) == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(filepath.Join(workspaceRoot, CacheDirName), 0o755); err != nil {
		l.Error("create .llb dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .llb dir: %w", err)
	}

	path := CachePath(workspaceRoot)
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	uriPath := filepath.ToSlash(path)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Set reasonable connection pool limits for embedded usage.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := ensureCacheSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure cache schema failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("cache ready", slog.String("path", path))
	return db, nil
}

func ensureCacheSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id     INTEGER PRIMARY KEY CHECK(id=1),
			schema INTEGER NOT NULL,
			app    TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS previews (
			id          INTEGER PRIMARY KEY,
			subject     TEXT NOT NULL,
			video       TEXT NOT NULL,
			variant     TEXT NOT NULL,
			slot        TEXT NOT NULL,
			w           INTEGER NOT NULL DEFAULT 0,
			h           INTEGER NOT NULL DEFAULT 0,
			blob        BLOB,
			size        INTEGER NOT NULL DEFAULT 0,
			updated_at  TEXT NOT NULL,
			last_access TEXT
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_previews_key ON previews(subject, video, variant, slot, w, h);`,
		`CREATE INDEX IF NOT EXISTS idx_previews_access ON previews(last_access);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure cache schema: %w", err)
		}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO version(id, schema, app) VALUES(1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET schema=excluded.schema, app=excluded.app`,
		schemaVersion, version.String())
	return err
}

// GetPreview returns the cached image bytes for a slot preview and touches
// its last_access, or nil when the key is absent.
func GetPreview(ctx context.Context, workspaceRoot, subject, video, variant, slot string, w, h int) ([]byte, error) {
	db, err := InitOrOpenCache(workspaceRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	var blob []byte
	err = db.QueryRowContext(ctx,
		`SELECT blob FROM previews WHERE subject=? AND video=? AND variant=? AND slot=? AND w=? AND h=?`,
		subject, video, variant, slot, w, h).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preview: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, _ = db.ExecContext(ctx,
		`UPDATE previews SET last_access=? WHERE subject=? AND video=? AND variant=? AND slot=? AND w=? AND h=?`,
		now, subject, video, variant, slot, w, h)
	return blob, nil
}

// PutPreview upserts a slot preview image and enforces the cache size cap
// via LRU eviction.
func PutPreview(ctx context.Context, workspaceRoot, subject, video, variant, slot string, w, h int, blob []byte) error {
	db, err := InitOrOpenCache(workspaceRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = db.ExecContext(ctx,
		`INSERT INTO previews(subject,video,variant,slot,w,h,blob,size,updated_at,last_access)
		 VALUES(?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(subject,video,variant,slot,w,h) DO UPDATE SET blob=excluded.blob, size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		subject, video, variant, slot, w, h, blob, len(blob), now, now)
	if err != nil {
		return fmt.Errorf("upsert preview: %w", err)
	}
	capBytes := MaxPreviewsBytesFromEnv()
	if capBytes > 0 {
		if err := EvictPreviewsToFit(ctx, db, capBytes); err != nil {
			return err
		}
	}
	return nil
}

// GetOrCreatePreview fetches a cached preview or generates and stores it
// using the provided generator.
func GetOrCreatePreview(ctx context.Context, workspaceRoot, subject, video, variant, slot string, w, h int, gen func(context.Context) ([]byte, error)) ([]byte, error) {
	if b, err := GetPreview(ctx, workspaceRoot, subject, video, variant, slot, w, h); err != nil {
		return nil, err
	} else if b != nil {
		return b, nil
	}
	if gen == nil {
		return nil, nil
	}
	data, err := gen(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	if err := PutPreview(ctx, workspaceRoot, subject, video, variant, slot, w, h, data); err != nil {
		return nil, err
	}
	return data, nil
}

// InvalidateScope drops every cached preview of one (subject, video,
// variant), e.g. after a save that triggers a re-render.
func InvalidateScope(ctx context.Context, workspaceRoot, subject, video, variant string) error {
	db, err := InitOrOpenCache(workspaceRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `DELETE FROM previews WHERE subject=? AND video=? AND variant=?`,
		subject, video, variant)
	return err
}

// EvictPreviewsToFit deletes least-recently-used rows until total size <= capBytes.
func EvictPreviewsToFit(ctx context.Context, db *sql.DB, capBytes int64) error {
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return fmt.Errorf("sum previews size: %w", err)
	}
	if total <= capBytes {
		return nil
	}
	// Select victim ids ordered by last_access asc (oldest first), NULLs first
	rows, err := db.QueryContext(ctx, `SELECT id, size FROM previews ORDER BY
		CASE WHEN last_access IS NULL THEN 0 ELSE 1 END ASC, last_access ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	toDelete := make([]int64, 0, 32)
	cur := total
	for rows.Next() {
		var id, sz int64
		if err := rows.Scan(&id, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		toDelete = append(toDelete, id)
		cur -= sz
		if cur <= capBytes {
			break
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// Important: close the rows cursor before attempting to write
	if err := rows.Close(); err != nil {
		return err
	}
	if len(toDelete) == 0 {
		return nil
	}
	sqlBase := `DELETE FROM previews WHERE id IN (`
	for i := range toDelete {
		if i > 0 {
			sqlBase += ","
		}
		sqlBase += "?"
	}
	sqlBase += ")"
	args := make([]any, len(toDelete))
	for i, v := range toDelete {
		args[i] = v
	}
	if _, err := db.ExecContext(ctx, sqlBase, args...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	return nil
}

// TotalPreviewBytes returns total bytes tracked by previews.size
func TotalPreviewBytes(ctx context.Context, workspaceRoot string) (int64, error) {
	db, err := InitOrOpenCache(workspaceRoot)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM previews`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// MaxPreviewsBytesFromEnv reads LLB_PREVIEWS_MAX_BYTES. Unset or malformed
// values default to 64 MiB; an explicit 0 disables eviction.
func MaxPreviewsBytesFromEnv() int64 {
	v := os.Getenv("LLB_PREVIEWS_MAX_BYTES")
	if v == "" {
		return 64 * 1024 * 1024 // 64MB
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 64 * 1024 * 1024
	}
	return n
}
