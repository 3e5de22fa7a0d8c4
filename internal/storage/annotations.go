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

	"redline/internal/domain"
)

const (
	// SidecarSuffix is the extension of the annotation sidecar written next
	// to the source document: drawing.pdf -> drawing.redline.json.
	SidecarSuffix = ".redline.json"

	BackupsDirName = "backups"

	// SetSchemaVersion tracks the sidecar JSON format.
	SetSchemaVersion = 1
)

// AnnotationSet is the persisted form of one document's markups.
type AnnotationSet struct {
	SchemaVersion int             `json:"schemaVersion"`
	Document      string          `json:"documentIdentifier,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt,omitzero"`
	Markups       []domain.Markup `json:"markups"`
}

// SetHandle keeps track of an annotation set loaded/saved from disk.
// DocumentPath points at the source document; SidecarPath at the JSON file
// next to it.
type SetHandle struct {
	DocumentPath string
	SidecarPath  string
	Set          AnnotationSet
}

// SidecarPath derives the sidecar file path for a document path by replacing
// its extension.
func SidecarPath(documentPath string) string {
	ext := filepath.Ext(documentPath)
	return strings.TrimSuffix(documentPath, ext) + SidecarSuffix
}

// InitSet creates a fresh, empty annotation set for the given document and
// writes its sidecar transactionally.
func InitSet(documentPath string) (*SetHandle, error) {
	if strings.TrimSpace(documentPath) == "" {
		return nil, errors.New("document path is required")
	}
	h := &SetHandle{
		DocumentPath: documentPath,
		SidecarPath:  SidecarPath(documentPath),
		Set: AnnotationSet{
			SchemaVersion: SetSchemaVersion,
			Document:      filepath.Base(documentPath),
			Markups:       []domain.Markup{},
		},
	}
	if err := SaveSet(h); err != nil {
		return nil, err
	}
	return h, nil
}

// OpenSet loads the annotation set for an existing document.
// If the current sidecar cannot be read or parsed, it will attempt the last backup.
func OpenSet(documentPath string) (*SetHandle, error) {
	spath := SidecarPath(documentPath)
	b, err := os.ReadFile(spath)
	if err != nil {
		// try backup
		set, berr := openFromLatestBackup(documentPath)
		if berr != nil {
			return nil, fmt.Errorf("open sidecar: %w; backup attempt: %v", err, berr)
		}
		return &SetHandle{DocumentPath: documentPath, SidecarPath: spath, Set: *set}, nil
	}
	var s AnnotationSet
	if uerr := json.Unmarshal(b, &s); uerr != nil {
		set, berr := openFromLatestBackup(documentPath)
		if berr != nil {
			return nil, fmt.Errorf("parse sidecar: %w; backup attempt: %v", uerr, berr)
		}
		return &SetHandle{DocumentPath: documentPath, SidecarPath: spath, Set: *set}, nil
	}
	return &SetHandle{DocumentPath: documentPath, SidecarPath: spath, Set: s}, nil
}

// SaveSet writes the current SetHandle.Set to disk with transactional
// semantics and a timestamped backup of the previous sidecar (if present).
func SaveSet(h *SetHandle) error {
	if h == nil {
		return errors.New("nil SetHandle")
	}
	if h.DocumentPath == "" || h.SidecarPath == "" {
		return errors.New("invalid SetHandle: missing paths")
	}
	h.Set.SchemaVersion = SetSchemaVersion
	h.Set.UpdatedAt = time.Now().UTC()
	// Marshal in human-readable form
	data, err := json.MarshalIndent(h.Set, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal annotation set: %w", err)
	}
	data = append(data, '\n')

	// Ensure backups dir exists
	bdir := backupsDir(h.DocumentPath)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// If a current sidecar exists, copy it to a timestamped backup before replacing
	if _, statErr := os.Stat(h.SidecarPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bname := fmt.Sprintf("%s.%s.bak", filepath.Base(h.SidecarPath), stamp)
		bpath := filepath.Join(bdir, bname)
		if cerr := copyFile(h.SidecarPath, bpath); cerr != nil {
			return fmt.Errorf("backup current sidecar: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	dir := filepath.Dir(h.SidecarPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(h.SidecarPath), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp sidecar: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(h.SidecarPath); err == nil {
		_ = os.Remove(h.SidecarPath)
	}
	if rerr := os.Rename(temp, h.SidecarPath); rerr != nil {
		// attempt cleanup temp
		_ = os.Remove(temp)
		return fmt.Errorf("replace sidecar: %w", rerr)
	}
	return nil
}

// AutosaveCrashSnapshot writes the in-memory annotation set to a timestamped
// crash snapshot next to the regular backups, bypassing the normal save path
// so a panic handler can call it with minimal machinery.
func AutosaveCrashSnapshot(h *SetHandle) (string, error) {
	if h == nil {
		return "", errors.New("nil SetHandle")
	}
	data, err := json.MarshalIndent(h.Set, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal annotation set: %w", err)
	}
	data = append(data, '\n')
	bdir := backupsDir(h.DocumentPath)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", filepath.Base(h.SidecarPath), stamp))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write crash snapshot: %w", err)
	}
	return path, nil
}

// backupsDir returns the backup directory for a document's sidecar, kept under
// the workspace index dir so backups never clutter the drawing folder itself.
func backupsDir(documentPath string) string {
	return filepath.Join(filepath.Dir(documentPath), IndexDirName, BackupsDirName)
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

// openFromLatestBackup tries to open the latest timestamped backup.
func openFromLatestBackup(documentPath string) (*AnnotationSet, error) {
	bdir := backupsDir(documentPath)
	base := filepath.Base(SidecarPath(documentPath))
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
	var s AnnotationSet
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return &s, nil
}
