/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"redline/internal/domain"
)

//go:embed annotationset.schema.json
var setSchemaJSON []byte

// ValidateSetJSON checks raw sidecar bytes against the embedded annotation
// set schema. A nil error means the document conforms.
func ValidateSetJSON(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(setSchemaJSON)
	docLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("annotation set does not conform to schema: %s", strings.Join(msgs, "; "))
}

// DecodeSet validates and parses raw sidecar bytes from an external source.
func DecodeSet(data []byte) (*AnnotationSet, error) {
	if err := ValidateSetJSON(data); err != nil {
		return nil, err
	}
	var s AnnotationSet
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse annotation set: %w", err)
	}
	return &s, nil
}

// Reconcile merges imported markups into an existing page collection.
// Imported markups are flagged as external and read-only until adopted;
// ids already present locally are skipped so a re-import never duplicates
// or clobbers annotations the user has adopted or edited.
func Reconcile(existing, imported []domain.Markup) []domain.Markup {
	seen := make(map[string]struct{}, len(existing))
	for _, m := range existing {
		seen[m.ID] = struct{}{}
	}
	out := make([]domain.Markup, 0, len(existing)+len(imported))
	out = append(out, existing...)
	for _, m := range imported {
		if m.ID == "" {
			m.ID = domain.NewID()
		}
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		c := m.Clone()
		c.External = true
		c.ReadOnly = true
		c.Modified = false
		out = append(out, c)
	}
	return out
}

// Adopt clears the read-only flag of an external markup so it becomes
// editable; the external origin flag is kept for provenance.
func Adopt(m domain.Markup) domain.Markup {
	m.ReadOnly = false
	return m
}
