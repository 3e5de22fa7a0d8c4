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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"redline/internal/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// SharedStore is the optional team-review markup store backed by Postgres.
// It mirrors each pushed markup as a JSONB payload keyed by id, so several
// reviewers can exchange annotation sets for the same drawing.
type SharedStore struct {
	db *sql.DB
}

// OpenShared connects to the shared Postgres store and ensures its schema.
func OpenShared(ctx context.Context, dsn string) (*SharedStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := ensureSharedSchema(pctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SharedStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SharedStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureSharedSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS markups (
			id         TEXT PRIMARY KEY,
			document   TEXT NOT NULL,
			page       INTEGER NOT NULL,
			author     TEXT,
			payload    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_markups_document_page ON markups(document, page);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure shared schema: %w", err)
		}
	}
	return nil
}

// PushMarkups upserts the given markups into the shared store.
func (s *SharedStore) PushMarkups(ctx context.Context, markups []domain.Markup) error {
	if len(markups) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	const q = `INSERT INTO markups(id, document, page, author, payload, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET document=EXCLUDED.document, page=EXCLUDED.page, author=EXCLUDED.author, payload=EXCLUDED.payload, updated_at=now()`
	for _, m := range markups {
		if m.ID == "" {
			_ = tx.Rollback()
			return errors.New("markup without id")
		}
		payload, err := json.Marshal(m)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal markup %s: %w", m.ID, err)
		}
		if _, err := tx.ExecContext(ctx, q, m.ID, m.Document, m.PageIndex, m.Author, payload); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert markup %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FetchMarkups returns the shared markups of one document; pass a negative
// pageIndex to fetch every page.
func (s *SharedStore) FetchMarkups(ctx context.Context, document string, pageIndex int) ([]domain.Markup, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if pageIndex < 0 {
		rows, err = s.db.QueryContext(ctx, `SELECT payload FROM markups WHERE document = $1 ORDER BY page, updated_at`, document)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT payload FROM markups WHERE document = $1 AND page = $2 ORDER BY updated_at`, document, pageIndex)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Markup
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var m domain.Markup
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("parse shared markup: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteMarkup removes one markup from the shared store; it reports whether
// a row was deleted.
func (s *SharedStore) DeleteMarkup(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM markups WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
