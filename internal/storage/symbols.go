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
	"fmt"
	"time"

	"redline/internal/symbol"
)

// language=SQL
// dialect=SQLite
const upsertSymbolSQL = `INSERT INTO symbols(name, category, aspect, payload, thumb_blob, updated_at) VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(category, name) DO UPDATE SET aspect=excluded.aspect, payload=excluded.payload, thumb_blob=excluded.thumb_blob, updated_at=excluded.updated_at`

// language=SQL
// dialect=SQLite
const selectSymbolSQL = `SELECT aspect, payload, thumb_blob FROM symbols WHERE category = ? AND name = ?`

// language=SQL
// dialect=SQLite
const listSymbolsSQL = `SELECT name, category, aspect, updated_at FROM symbols WHERE category = ? OR ? = '' ORDER BY category, name`

// language=SQL
// dialect=SQLite
const deleteSymbolSQL = `DELETE FROM symbols WHERE category = ? AND name = ?`

// SymbolInfo summarizes one stored library template without its payload.
type SymbolInfo struct {
	Name      string
	Category  string
	Aspect    float64
	UpdatedAt time.Time
}

// SaveSymbol stores or replaces a captured template in the workspace symbol
// library, keyed by category+name. thumb may be nil.
func SaveSymbol(ctx context.Context, workspaceRoot string, tpl symbol.Template, thumb []byte) error {
	if tpl.Name == "" {
		return errors.New("symbol name is required")
	}
	payload, err := json.Marshal(tpl.Markups)
	if err != nil {
		return fmt.Errorf("marshal symbol payload: %w", err)
	}
	db, err := InitOrOpenIndex(workspaceRoot)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, upsertSymbolSQL, tpl.Name, tpl.Category, tpl.Aspect, payload, thumb, time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetSymbol loads one template and its thumbnail from the library.
// Returns (nil, nil, nil) when no such symbol exists.
func GetSymbol(ctx context.Context, workspaceRoot, category, name string) (*symbol.Template, []byte, error) {
	db, err := InitOrOpenIndex(workspaceRoot)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = db.Close() }()
	var (
		aspect  float64
		payload []byte
		thumb   []byte
	)
	err = db.QueryRowContext(ctx, selectSymbolSQL, category, name).Scan(&aspect, &payload, &thumb)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	tpl := symbol.Template{Name: name, Category: category, Aspect: aspect}
	if err := json.Unmarshal(payload, &tpl.Markups); err != nil {
		return nil, nil, fmt.Errorf("parse symbol payload: %w", err)
	}
	return &tpl, thumb, nil
}

// ListSymbols returns the library contents, optionally filtered by category
// (empty category lists everything).
func ListSymbols(ctx context.Context, workspaceRoot, category string) ([]SymbolInfo, error) {
	db, err := InitOrOpenIndex(workspaceRoot)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listSymbolsSQL, category, category)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []SymbolInfo
	for rows.Next() {
		var (
			info  SymbolInfo
			tsStr string
		)
		if err := rows.Scan(&info.Name, &info.Category, &info.Aspect, &tsStr); err != nil {
			return nil, err
		}
		info.UpdatedAt, _ = time.Parse(time.RFC3339, tsStr)
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteSymbol removes one template; it reports whether a row was deleted.
func DeleteSymbol(ctx context.Context, workspaceRoot, category, name string) (bool, error) {
	db, err := InitOrOpenIndex(workspaceRoot)
	if err != nil {
		return false, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, deleteSymbolSQL, category, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
