/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"redline/internal/domain"
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(document, page, ts, blob) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT ts, blob FROM snapshots WHERE document = ? AND page = ? ORDER BY ts DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT ts, blob FROM snapshots WHERE document = ? AND page = ? ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE document = ? AND page = ? AND id NOT IN (
	SELECT id FROM snapshots WHERE document = ? AND page = ? ORDER BY ts DESC LIMIT ?
)`

// PageSnapshot is one autosaved page state row.
type PageSnapshot struct {
	TS   time.Time
	Blob []byte
}

// EncodePage serializes a page's markups for snapshot storage.
func EncodePage(markups []domain.Markup) ([]byte, error) {
	return json.Marshal(markups)
}

// DecodePage restores a page's markups from a snapshot blob.
func DecodePage(blob []byte) ([]domain.Markup, error) {
	var out []domain.Markup
	if err := json.Unmarshal(blob, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveSnapshot persists an autosave blob for one document page with a timestamp.
// It opens the workspace's index database if needed and inserts the record.
func SaveSnapshot(ctx context.Context, workspaceRoot, document string, pageIndex int, blob []byte, ts time.Time) error {
	if document == "" {
		return errors.New("document is required")
	}
	db, err := InitOrOpenIndex(workspaceRoot)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertSnapshotSQL, document, pageIndex, ts.UTC().Format(time.RFC3339Nano), blob)
	return err
}

// GetLatestSnapshot returns the latest autosave blob for a page or nil if none.
func GetLatestSnapshot(ctx context.Context, workspaceRoot, document string, pageIndex int) ([]byte, time.Time, error) {
	if document == "" {
		return nil, time.Time{}, errors.New("document is required")
	}
	db, err := InitOrOpenIndex(workspaceRoot)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var blob []byte
	err = db.QueryRowContext(ctx, selectLatestSnapshotSQL, document, pageIndex).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return blob, time.Time{}, nil // return blob even if ts parse fails
	}
	return blob, ts, nil
}

// ListSnapshots returns up to limit most recent autosaves for a page.
func ListSnapshots(ctx context.Context, workspaceRoot, document string, pageIndex, limit int) ([]PageSnapshot, error) {
	if document == "" {
		return nil, errors.New("document is required")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(workspaceRoot)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listSnapshotsSQL, document, pageIndex, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []PageSnapshot
	for rows.Next() {
		var tsStr string
		var blob []byte
		if err := rows.Scan(&tsStr, &blob); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, PageSnapshot{TS: ts, Blob: blob})
	}
	return out, rows.Err()
}

// PruneOldSnapshots keeps at most keepLast autosaves for the page and deletes older ones.
func PruneOldSnapshots(ctx context.Context, workspaceRoot, document string, pageIndex, keepLast int) (int64, error) {
	if document == "" {
		return 0, errors.New("document is required")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(workspaceRoot)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneOldSnapshotsSQL, document, pageIndex, document, pageIndex, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
