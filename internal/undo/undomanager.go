/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"

	"redline/internal/domain"
)

// Snapshot is the full markup state of one page at a point in time. Undo and
// redo restore whole-page states rather than replaying individual edits, so
// a restore can never leave the page half-applied.
type Snapshot struct {
	PageIndex int
	Markups   []domain.Markup
	TS        time.Time
}

// Capture deep-copies the page state into a snapshot stamped with the
// current time.
func Capture(pageIndex int, markups []domain.Markup) Snapshot {
	return Snapshot{PageIndex: pageIndex, Markups: domain.ClonePage(markups), TS: time.Now()}
}

// approxCost estimates the memory footprint of a snapshot for the global
// cap. Exact sizes do not matter; the cap only needs to track growth.
func approxCost(s Snapshot) int {
	cost := 64
	for _, m := range s.Markups {
		cost += 160 + len(m.Text)
		if ps, ok := m.Geometry.(domain.PointSeq); ok {
			cost += 16 * len(ps.Points)
		}
	}
	return cost
}

// Config controls depth, memory caps and coalescing.
type Config struct {
	// MaxBytes is a soft cap on estimated snapshot memory; oldest entries
	// across all pages are pruned when exceeded.
	MaxBytes int
	// MaxPerPage limits the undo depth kept per page.
	MaxPerPage int
	// MinInterval coalesces snapshots captured within the interval for the
	// same page, replacing the previous one instead of pushing a new entry.
	// Continuous gestures (pen strokes, drags) collapse into one undo step.
	MinInterval time.Duration
}

// Manager keeps an in-memory undo/redo stack per page. It is safe for
// concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex

	undo map[int][]Snapshot
	redo map[int][]Snapshot

	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MaxPerPage <= 0 {
		cfg.MaxPerPage = 50
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, undo: make(map[int][]Snapshot), redo: make(map[int][]Snapshot)}
}

// Push records the page state that an upcoming edit is about to replace.
// Pushes within MinInterval on the same page replace the previous entry.
// Any push clears the page's redo stack.
func (m *Manager) Push(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[s.PageIndex]
	if n := len(stack); n > 0 {
		last := stack[n-1]
		if s.TS.Sub(last.TS) < m.cfg.MinInterval {
			m.totalBytes -= approxCost(last)
			m.totalBytes += approxCost(s)
			stack[n-1] = s
			m.undo[s.PageIndex] = stack
			m.redo[s.PageIndex] = nil
			m.enforceCapsLocked(s.PageIndex)
			return
		}
	}
	stack = append(stack, s)
	m.undo[s.PageIndex] = stack
	m.totalBytes += approxCost(s)
	m.redo[s.PageIndex] = nil
	m.enforceCapsLocked(s.PageIndex)
}

// Undo restores the most recent snapshot for the page. The caller passes the
// live page state, which is captured onto the redo stack so the step can be
// reversed.
func (m *Manager) Undo(pageIndex int, current []domain.Markup) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.undoLocked(pageIndex, current)
}

func (m *Manager) undoLocked(pageIndex int, current []domain.Markup) (Snapshot, bool) {
	stack := m.undo[pageIndex]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[pageIndex] = stack[:len(stack)-1]
	m.totalBytes -= approxCost(s)
	cur := Capture(pageIndex, current)
	m.redo[pageIndex] = append(m.redo[pageIndex], cur)
	return s, true
}

// Redo reapplies the most recently undone snapshot, capturing the live state
// back onto the undo stack.
func (m *Manager) Redo(pageIndex int, current []domain.Markup) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.redoLocked(pageIndex, current)
}

func (m *Manager) redoLocked(pageIndex int, current []domain.Markup) (Snapshot, bool) {
	r := m.redo[pageIndex]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[pageIndex] = r[:len(r)-1]
	cur := Capture(pageIndex, current)
	m.undo[pageIndex] = append(m.undo[pageIndex], cur)
	m.totalBytes += approxCost(cur)
	m.enforceCapsLocked(pageIndex)
	return s, true
}

// JumpTo walks the page to the given undo depth, applying as many undo or
// redo steps as needed, and returns the final state. depth equal to the
// current undo depth is a no-op.
func (m *Manager) JumpTo(pageIndex, depth int, current []domain.Markup) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := current
	moved := false
	var last Snapshot
	for len(m.undo[pageIndex]) > depth {
		s, ok := m.undoLocked(pageIndex, cur)
		if !ok {
			break
		}
		cur, last, moved = s.Markups, s, true
	}
	for len(m.undo[pageIndex]) < depth {
		s, ok := m.redoLocked(pageIndex, cur)
		if !ok {
			break
		}
		cur, last, moved = s.Markups, s, true
	}
	return last, moved
}

// Depth returns the undo and redo stack depths for a page.
func (m *Manager) Depth(pageIndex int) (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[pageIndex]), len(m.redo[pageIndex])
}

// ClearPage drops both stacks for a page to free memory.
func (m *Manager) ClearPage(pageIndex int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[pageIndex] {
		m.totalBytes -= approxCost(s)
	}
	delete(m.undo, pageIndex)
	delete(m.redo, pageIndex)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, pages int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pages = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, pages, totalSnapshots
}

func (m *Manager) enforceCapsLocked(pageIndex int) {
	if m.cfg.MaxPerPage > 0 {
		stack := m.undo[pageIndex]
		if len(stack) > m.cfg.MaxPerPage {
			toDrop := len(stack) - m.cfg.MaxPerPage
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= approxCost(stack[i])
			}
			m.undo[pageIndex] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest across all pages.
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldestPage := 0
		oldestIdx := -1
		var oldestTS time.Time
		for page, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if oldestIdx == -1 || stack[0].TS.Before(oldestTS) {
				oldestPage = page
				oldestIdx = 0
				oldestTS = stack[0].TS
			}
		}
		if oldestIdx == -1 {
			break
		}
		stack := m.undo[oldestPage]
		m.totalBytes -= approxCost(stack[0])
		m.undo[oldestPage] = stack[1:]
		if len(m.undo[oldestPage]) == 0 {
			delete(m.undo, oldestPage)
		}
	}
}
