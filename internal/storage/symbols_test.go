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
	"testing"

	"redline/internal/domain"
	"redline/internal/symbol"
	"redline/internal/vector"
)

func testTemplate(t *testing.T, name, category string) symbol.Template {
	t.Helper()
	m := domain.New(domain.KindCircle, 0, "")
	m.Geometry = domain.Box{Start: vector.Pt{X: 0.2, Y: 0.2}, End: vector.Pt{X: 0.4, Y: 0.4}}
	tpl, err := symbol.Capture(name, category, []domain.Markup{m})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	return tpl
}

func TestSymbolLibraryCRUD(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	tpl := testTemplate(t, "weld-seam", "welding")
	thumb := []byte{0x89, 'P', 'N', 'G'}
	if err := SaveSymbol(ctx, root, tpl, thumb); err != nil {
		t.Fatalf("SaveSymbol: %v", err)
	}

	got, gotThumb, err := GetSymbol(ctx, root, "welding", "weld-seam")
	if err != nil {
		t.Fatalf("GetSymbol: %v", err)
	}
	if got == nil {
		t.Fatalf("expected stored symbol")
	}
	if got.Aspect != tpl.Aspect || len(got.Markups) != len(tpl.Markups) {
		t.Fatalf("template mismatch: %+v", got)
	}
	if !got.Markups[0].Valid() {
		t.Fatalf("payload geometry did not survive")
	}
	if string(gotThumb) != string(thumb) {
		t.Fatalf("thumbnail mismatch")
	}

	// Upsert replaces in place
	tpl.Aspect = 0.5
	if err := SaveSymbol(ctx, root, tpl, nil); err != nil {
		t.Fatalf("SaveSymbol upsert: %v", err)
	}
	got, _, err = GetSymbol(ctx, root, "welding", "weld-seam")
	if err != nil || got == nil {
		t.Fatalf("GetSymbol after upsert: %v", err)
	}
	if got.Aspect != 0.5 {
		t.Fatalf("upsert did not replace, aspect = %v", got.Aspect)
	}

	other := testTemplate(t, "valve", "piping")
	if err := SaveSymbol(ctx, root, other, nil); err != nil {
		t.Fatalf("SaveSymbol other: %v", err)
	}

	all, err := ListSymbols(ctx, root, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("ListSymbols all got %d err %v", len(all), err)
	}
	welding, err := ListSymbols(ctx, root, "welding")
	if err != nil || len(welding) != 1 || welding[0].Name != "weld-seam" {
		t.Fatalf("ListSymbols welding got %+v err %v", welding, err)
	}

	deleted, err := DeleteSymbol(ctx, root, "welding", "weld-seam")
	if err != nil || !deleted {
		t.Fatalf("DeleteSymbol: deleted=%v err %v", deleted, err)
	}
	got, _, err = GetSymbol(ctx, root, "welding", "weld-seam")
	if err != nil {
		t.Fatalf("GetSymbol after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("symbol still present after delete")
	}
	deleted, err = DeleteSymbol(ctx, root, "welding", "weld-seam")
	if err != nil || deleted {
		t.Fatalf("second delete should be a no-op, deleted=%v err %v", deleted, err)
	}
}

func TestSaveSymbolRequiresName(t *testing.T) {
	root := t.TempDir()
	if err := SaveSymbol(context.Background(), root, symbol.Template{}, nil); err == nil {
		t.Fatalf("expected error for unnamed symbol")
	}
}
