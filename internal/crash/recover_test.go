/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"redline/internal/domain"
	"redline/internal/storage"
	"redline/internal/vector"
)

// TestRecoverWritesReportAndAutosave ensures Recover handles a panic, writes a
// report, autosaves the open set, and does not terminate the test process due
// to the injected exitFn.
func TestRecoverWritesReportAndAutosave(t *testing.T) {
	// Capture stderr temporarily to avoid noisy test logs
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r) // drain pipe
	}()

	// Override exitFn to avoid os.Exit during test and to assert it was called
	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	dir := t.TempDir()
	doc := filepath.Join(dir, "site-plan.pdf")
	h, err := storage.InitSet(doc)
	if err != nil {
		t.Fatalf("InitSet: %v", err)
	}
	m := domain.New(domain.KindNote, 0, doc)
	m.Text = "check flange rating"
	m.Geometry = domain.SinglePoint{P: vector.Pt{X: 0.3, Y: 0.4}}
	h.Set.Markups = append(h.Set.Markups, m)

	// Trigger a panic that Recover will catch
	func() {
		defer Recover(h)
		panic("boom")
	}()

	// Allow time for filesystem writes
	time.Sleep(50 * time.Millisecond)

	bdir := filepath.Join(dir, storage.IndexDirName, storage.BackupsDirName)
	files, _ := os.ReadDir(bdir)
	var report, autosave string
	for _, f := range files {
		switch {
		case strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log"):
			report = filepath.Join(bdir, f.Name())
		case strings.Contains(f.Name(), ".crash-") && strings.HasSuffix(f.Name(), ".json"):
			autosave = filepath.Join(bdir, f.Name())
		}
	}
	if report == "" {
		t.Fatalf("expected crash report file under backups dir")
	}
	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic: %s", string(b))
	}

	if autosave == "" {
		t.Fatalf("expected autosave crash snapshot under backups dir")
	}
	sb, err := os.ReadFile(autosave)
	if err != nil {
		t.Fatalf("read autosave: %v", err)
	}
	set, err := storage.DecodeSet(sb)
	if err != nil {
		t.Fatalf("decode autosave: %v", err)
	}
	if len(set.Markups) != 1 || set.Markups[0].Text != "check flange rating" {
		t.Fatalf("autosave lost markup state: %+v", set.Markups)
	}

	// Ensure exit was attempted with code 2 (but intercepted)
	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
}
