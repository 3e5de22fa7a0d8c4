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
	"os"
	"path/filepath"
	"testing"

	"redline/internal/domain"
	"redline/internal/vector"
)

func testMarkup(page int, doc string) domain.Markup {
	m := domain.New(domain.KindRect, page, doc)
	m.Author = "qa"
	m.Style.Color = "#ff0000"
	m.Style.StrokeWidth = 2
	m.Geometry = domain.Box{Start: vector.Pt{X: 0.1, Y: 0.2}, End: vector.Pt{X: 0.4, Y: 0.5}}
	return m
}

func TestSidecarPath(t *testing.T) {
	if got := SidecarPath(filepath.Join("plans", "site.pdf")); got != filepath.Join("plans", "site.redline.json") {
		t.Fatalf("SidecarPath(site.pdf) = %q", got)
	}
	if got := SidecarPath("site"); got != "site"+SidecarSuffix {
		t.Fatalf("SidecarPath(site) = %q", got)
	}
}

func TestInitSaveOpenRoundTrip(t *testing.T) {
	root := t.TempDir()
	doc := filepath.Join(root, "site.pdf")
	h, err := InitSet(doc)
	if err != nil {
		t.Fatalf("InitSet error: %v", err)
	}
	if h.SidecarPath != filepath.Join(root, "site.redline.json") {
		t.Fatalf("unexpected sidecar path %q", h.SidecarPath)
	}
	m := testMarkup(0, "site.pdf")
	h.Set.Markups = append(h.Set.Markups, m)
	if err := SaveSet(h); err != nil {
		t.Fatalf("SaveSet error: %v", err)
	}

	re, err := OpenSet(doc)
	if err != nil {
		t.Fatalf("OpenSet error: %v", err)
	}
	if re.Set.SchemaVersion != SetSchemaVersion {
		t.Fatalf("schema version = %d", re.Set.SchemaVersion)
	}
	if len(re.Set.Markups) != 1 {
		t.Fatalf("expected 1 markup, got %d", len(re.Set.Markups))
	}
	got := re.Set.Markups[0]
	if got.ID != m.ID || got.Kind != domain.KindRect || got.Author != "qa" {
		t.Fatalf("round trip envelope mismatch: %+v", got)
	}
	if !got.Valid() || got.Bounds() != m.Bounds() {
		t.Fatalf("round trip geometry mismatch: %+v", got.Geometry)
	}
}

func TestOpenMissingSidecarFails(t *testing.T) {
	root := t.TempDir()
	if _, err := OpenSet(filepath.Join(root, "nothere.pdf")); err == nil {
		t.Fatalf("expected error for missing sidecar")
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	root := t.TempDir()
	doc := filepath.Join(root, "site.pdf")
	h, err := InitSet(doc)
	if err != nil {
		t.Fatalf("InitSet error: %v", err)
	}
	// Second save should back up the first sidecar
	h.Set.Markups = append(h.Set.Markups, testMarkup(0, "site.pdf"))
	if err := SaveSet(h); err != nil {
		t.Fatalf("SaveSet error: %v", err)
	}
	bdir := filepath.Join(root, IndexDirName, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	if len(ents) == 0 {
		t.Fatalf("expected backup file in %s", bdir)
	}
}

func TestOpenRecoversFromLatestBackup(t *testing.T) {
	root := t.TempDir()
	doc := filepath.Join(root, "site.pdf")
	h, err := InitSet(doc)
	if err != nil {
		t.Fatalf("InitSet error: %v", err)
	}
	kept := testMarkup(0, "site.pdf")
	h.Set.Markups = append(h.Set.Markups, kept)
	if err := SaveSet(h); err != nil {
		t.Fatalf("SaveSet 1: %v", err)
	}
	// Third save so the latest backup holds the one-markup state
	h.Set.Markups = append(h.Set.Markups, testMarkup(1, "site.pdf"))
	if err := SaveSet(h); err != nil {
		t.Fatalf("SaveSet 2: %v", err)
	}

	// Corrupt the sidecar
	if err := os.WriteFile(h.SidecarPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt sidecar: %v", err)
	}
	re, err := OpenSet(doc)
	if err != nil {
		t.Fatalf("OpenSet after corruption: %v", err)
	}
	if len(re.Set.Markups) != 1 || re.Set.Markups[0].ID != kept.ID {
		t.Fatalf("expected recovery of backed-up state, got %d markups", len(re.Set.Markups))
	}

	// Deleting the sidecar entirely also recovers from backup
	if err := os.Remove(h.SidecarPath); err != nil {
		t.Fatalf("remove sidecar: %v", err)
	}
	re, err = OpenSet(doc)
	if err != nil {
		t.Fatalf("OpenSet after delete: %v", err)
	}
	if len(re.Set.Markups) != 1 {
		t.Fatalf("expected 1 markup from backup, got %d", len(re.Set.Markups))
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	doc := filepath.Join(root, "site.pdf")
	h, err := InitSet(doc)
	if err != nil {
		t.Fatalf("InitSet error: %v", err)
	}
	if err := SaveSet(h); err != nil {
		t.Fatalf("SaveSet error: %v", err)
	}
	ents, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	for _, e := range ents {
		name := e.Name()
		if name != "site.redline.json" && name != IndexDirName {
			t.Fatalf("unexpected leftover file %q", name)
		}
	}
}
