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

func TestSidecarConformsToSchema(t *testing.T) {
	root := t.TempDir()
	doc := filepath.Join(root, "site.pdf")
	h, err := InitSet(doc)
	if err != nil {
		t.Fatalf("InitSet error: %v", err)
	}
	pen := domain.New(domain.KindPen, 0, "site.pdf")
	pen.Geometry = domain.PointSeq{Points: []vector.Pt{{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.15}, {X: 0.3, Y: 0.1}}}
	h.Set.Markups = append(h.Set.Markups, testMarkup(0, "site.pdf"), pen)
	if err := SaveSet(h); err != nil {
		t.Fatalf("SaveSet error: %v", err)
	}

	data, err := os.ReadFile(h.SidecarPath)
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if err := ValidateSetJSON(data); err != nil {
		t.Fatalf("sidecar does not conform to schema: %v", err)
	}
}

func TestDecodeSetRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"not an object":   `[1,2,3]`,
		"missing version": `{"markups":[]}`,
		"markup sans id":  `{"schemaVersion":1,"markups":[{"type":"rectangle","pageIndex":0}]}`,
		"bad page index":  `{"schemaVersion":1,"markups":[{"id":"x","type":"line","pageIndex":-1}]}`,
	}
	for name, raw := range cases {
		if _, err := DecodeSet([]byte(raw)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestDecodeSetAcceptsValidImport(t *testing.T) {
	raw := `{
		"schemaVersion": 1,
		"documentIdentifier": "site.pdf",
		"markups": [
			{"id": "ext-1", "type": "rectangle", "pageIndex": 0, "startX": 0.1, "startY": 0.1, "endX": 0.3, "endY": 0.2},
			{"id": "ext-2", "type": "note", "pageIndex": 1, "x": 0.5, "y": 0.5, "text": "check flange"}
		]
	}`
	s, err := DecodeSet([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeSet: %v", err)
	}
	if len(s.Markups) != 2 {
		t.Fatalf("expected 2 markups, got %d", len(s.Markups))
	}
	if !s.Markups[0].Valid() || s.Markups[0].Kind != domain.KindRect {
		t.Fatalf("first markup mis-decoded: %+v", s.Markups[0])
	}
}

func TestReconcileMarksExternalAndSkipsKnownIDs(t *testing.T) {
	local := testMarkup(0, "site.pdf")
	local.ID = "local-1"

	imp1 := testMarkup(0, "site.pdf")
	imp1.ID = "local-1" // already adopted locally; must not clobber
	imp1.Text = "imported edit"
	imp2 := testMarkup(0, "site.pdf")
	imp2.ID = "ext-9"

	out := Reconcile([]domain.Markup{local}, []domain.Markup{imp1, imp2})
	if len(out) != 2 {
		t.Fatalf("expected 2 markups, got %d", len(out))
	}
	if out[0].ID != "local-1" || out[0].Text == "imported edit" {
		t.Fatalf("local markup was clobbered: %+v", out[0])
	}
	got := out[1]
	if got.ID != "ext-9" {
		t.Fatalf("expected ext-9, got %q", got.ID)
	}
	if !got.External || !got.ReadOnly || got.Modified {
		t.Fatalf("import flags wrong: external=%v readOnly=%v modified=%v", got.External, got.ReadOnly, got.Modified)
	}

	// Re-importing the same set is a no-op
	again := Reconcile(out, []domain.Markup{imp1, imp2})
	if len(again) != 2 {
		t.Fatalf("re-import duplicated markups: %d", len(again))
	}
}

func TestReconcileAssignsMissingIDs(t *testing.T) {
	imp := testMarkup(0, "site.pdf")
	imp.ID = ""
	out := Reconcile(nil, []domain.Markup{imp})
	if len(out) != 1 || out[0].ID == "" {
		t.Fatalf("expected generated id, got %+v", out)
	}
}

func TestAdoptClearsReadOnly(t *testing.T) {
	m := testMarkup(0, "site.pdf")
	m.External = true
	m.ReadOnly = true
	a := Adopt(m)
	if a.ReadOnly {
		t.Fatalf("adopt did not clear read-only")
	}
	if !a.External {
		t.Fatalf("adopt must keep provenance flag")
	}
}
