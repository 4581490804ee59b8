// Copyright 2026 Cellvc Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sheet holds the normalized workbook document-state model: cells,
// sheet metadata, and the whole-document invariants in spec §3. Normalize
// is total and never fails (spec §4.1); it accepts legacy v0 payloads,
// partial v1 payloads, and arbitrary object graphs, and always returns a
// value satisfying every documented invariant.
package sheet

import "sort"

// CellMap is a sparse per-sheet mapping from A1 address to cell. Absence of
// a key means the cell is empty.
type CellMap map[string]Cell

// SheetMeta is the per-sheet metadata record (spec §3). DisplayName is
// nullable (an explicitly untitled sheet); Visibility and TabColor are
// optional/nullable metadata fields processed with the same
// never-fail sanitization as the view (spec §4.1).
type SheetMeta struct {
	ID          string
	DisplayName *string
	View        SheetView
	Visibility  *Visibility
	TabColor    NullableString
}

func cloneMeta(m SheetMeta) SheetMeta {
	out := m
	if m.DisplayName != nil {
		name := *m.DisplayName
		out.DisplayName = &name
	}
	out.View = CloneView(m.View)
	if m.Visibility != nil {
		v := *m.Visibility
		out.Visibility = &v
	}
	return out
}

// SheetsCollection is the ordered set of sheets in a document, satisfying
// set(Order) = keys(MetaByID) with no duplicates in Order (spec §3).
type SheetsCollection struct {
	Order    []string
	MetaByID map[string]SheetMeta
}

// DocumentState is the whole normalized workbook (spec §3). Metadata,
// NamedRanges, and Comments are opaque keyed maps: the core never
// interprets their values beyond equality/clone (spec §9's "dynamic JSON
// objects" re-architecting note).
type DocumentState struct {
	SchemaVersion int
	Sheets        SheetsCollection
	Cells         map[string]CellMap
	Metadata      map[string]JSONValue
	NamedRanges   map[string]JSONValue
	Comments      map[string]JSONValue
}

// CloneState deep-copies an already-normalized DocumentState.
func CloneState(s DocumentState) DocumentState {
	out := DocumentState{SchemaVersion: s.SchemaVersion}
	out.Sheets.Order = append([]string(nil), s.Sheets.Order...)
	out.Sheets.MetaByID = make(map[string]SheetMeta, len(s.Sheets.MetaByID))
	for id, meta := range s.Sheets.MetaByID {
		out.Sheets.MetaByID[id] = cloneMeta(meta)
	}
	out.Cells = make(map[string]CellMap, len(s.Cells))
	for id, cm := range s.Cells {
		cloned := make(CellMap, len(cm))
		for addr, c := range cm {
			cloned[addr] = CloneCell(c)
		}
		out.Cells[id] = cloned
	}
	out.Metadata = cloneKeyedMap(s.Metadata)
	out.NamedRanges = cloneKeyedMap(s.NamedRanges)
	out.Comments = cloneKeyedMap(s.Comments)
	return out
}

func cloneKeyedMap(m map[string]JSONValue) map[string]JSONValue {
	out := make(map[string]JSONValue, len(m))
	for k, v := range m {
		out[k] = CloneJSON(v)
	}
	return out
}

// Empty returns the canonical empty document state: one empty sheet set,
// schema version 1, and empty keyed maps. It is the base state diffed
// against to produce a root commit's patch (spec §3's commit lifecycle).
func Empty() DocumentState {
	return DocumentState{
		SchemaVersion: 1,
		Sheets:        SheetsCollection{Order: []string{}, MetaByID: map[string]SheetMeta{}},
		Cells:         map[string]CellMap{},
		Metadata:      map[string]JSONValue{},
		NamedRanges:   map[string]JSONValue{},
		Comments:      map[string]JSONValue{},
	}
}

// Normalize accepts legacy v0 (`{sheets: {sheetId: cellMap}}`), valid or
// partial v1, or an arbitrary object graph, and returns a canonical
// DocumentState satisfying every spec §3 invariant. It never fails (spec
// §4.1).
func Normalize(input interface{}) DocumentState {
	switch v := input.(type) {
	case DocumentState:
		// Re-normalizing an already-normalized state must be a fixpoint
		// (testable property: normalization idempotence). Typed fields are
		// already sanitized; this pass only re-establishes the sheets/cells
		// invariant and re-derives order, rather than re-running the
		// untyped-input sanitization rules.
		return normalizeState(v)
	case map[string]interface{}:
		if isLegacyV0(v) {
			return normalizeLegacyV0(v)
		}
		return normalizeV1(v)
	default:
		return Empty()
	}
}

// normalizeState re-establishes the §3 invariants on an already-typed
// DocumentState: every sheet id in MetaByID has a (possibly empty) Cells
// entry, Cells has no keys outside MetaByID, and Order is exactly the
// deduplicated set of known ids.
func normalizeState(s DocumentState) DocumentState {
	cloned := CloneState(s)
	cloned.SchemaVersion = 1

	ids := map[string]bool{}
	for id := range cloned.Sheets.MetaByID {
		ids[id] = true
	}
	for id := range cloned.Cells {
		ids[id] = true
	}
	for id := range ids {
		if _, ok := cloned.Sheets.MetaByID[id]; !ok {
			cloned.Sheets.MetaByID[id] = defaultMeta(id)
		}
		cm, ok := cloned.Cells[id]
		if !ok {
			cm = CellMap{}
		}
		for addr, c := range cm {
			if c.IsAbsent() {
				delete(cm, addr)
			}
		}
		cloned.Cells[id] = cm
	}
	for id := range cloned.Cells {
		if !ids[id] {
			delete(cloned.Cells, id)
		}
	}

	cloned.Sheets.Order = computeOrderFromTyped(cloned.Sheets.Order, ids)

	if cloned.Metadata == nil {
		cloned.Metadata = map[string]JSONValue{}
	}
	if cloned.NamedRanges == nil {
		cloned.NamedRanges = map[string]JSONValue{}
	}
	if cloned.Comments == nil {
		cloned.Comments = map[string]JSONValue{}
	}
	return cloned
}

func computeOrderFromTyped(order []string, ids map[string]bool) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(ids))
	for _, id := range order {
		if !ids[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	var remaining []string
	for id := range ids {
		if !seen[id] {
			remaining = append(remaining, id)
		}
	}
	sort.Strings(remaining)
	out = append(out, remaining...)
	return out
}

func isLegacyV0(m map[string]interface{}) bool {
	if _, hasCells := m["cells"]; hasCells {
		return false
	}
	_, hasSheets := m["sheets"]
	return hasSheets
}

func normalizeLegacyV0(m map[string]interface{}) DocumentState {
	rawSheets, _ := m["sheets"].(map[string]interface{})
	cells := map[string]CellMap{}
	order := make([]string, 0, len(rawSheets))
	metaByID := map[string]SheetMeta{}
	for id, rawCellMap := range rawSheets {
		order = append(order, id)
		cells[id] = normalizeCellMap(rawCellMap)
		metaByID[id] = defaultMeta(id)
	}
	sort.Strings(order) // legacy payloads carry no ordering; pick a stable one.

	return DocumentState{
		SchemaVersion: 1,
		Sheets:        SheetsCollection{Order: order, MetaByID: metaByID},
		Cells:         cells,
		Metadata:      normalizeKeyedMap(m["metadata"]),
		NamedRanges:   normalizeKeyedMap(m["namedRanges"]),
		Comments:      normalizeKeyedMap(m["comments"]),
	}
}

func normalizeV1(m map[string]interface{}) DocumentState {
	rawCells, _ := m["cells"].(map[string]interface{})
	rawSheets, _ := m["sheets"].(map[string]interface{})
	rawMetaByID, _ := rawSheets["metaById"].(map[string]interface{})

	ids := map[string]bool{}
	for id := range rawCells {
		ids[id] = true
	}
	for id := range rawMetaByID {
		ids[id] = true
	}

	cells := map[string]CellMap{}
	metaByID := map[string]SheetMeta{}
	for id := range ids {
		cells[id] = normalizeCellMap(rawCells[id])
		if rawMeta, ok := rawMetaByID[id]; ok {
			metaByID[id] = normalizeMeta(id, rawMeta)
		} else {
			metaByID[id] = defaultMeta(id)
		}
	}

	order := computeOrder(rawSheets["order"], ids, rawMetaByID)

	return DocumentState{
		SchemaVersion: 1,
		Sheets:        SheetsCollection{Order: order, MetaByID: metaByID},
		Cells:         cells,
		Metadata:      normalizeKeyedMap(m["metadata"]),
		NamedRanges:   normalizeKeyedMap(m["namedRanges"]),
		Comments:      normalizeKeyedMap(m["comments"]),
	}
}

// computeOrder takes original order entries referencing known ids
// (deduplicated), then appends the remaining ids in lexicographic order: a
// decoded JSON map keeps no insertion order, so metaById's key order is not
// available and rawMetaByID is not consulted.
func computeOrder(rawOrder interface{}, ids map[string]bool, rawMetaByID map[string]interface{}) []string {
	seen := map[string]bool{}
	var order []string

	if list, ok := rawOrder.([]interface{}); ok {
		for _, entry := range list {
			id, ok := entry.(string)
			if !ok || !ids[id] || seen[id] {
				continue
			}
			seen[id] = true
			order = append(order, id)
		}
	}

	var remaining []string
	for id := range ids {
		if !seen[id] {
			remaining = append(remaining, id)
		}
	}
	sort.Strings(remaining)
	order = append(order, remaining...)

	if order == nil {
		order = []string{}
	}
	return order
}

func defaultMeta(id string) SheetMeta {
	name := id
	return SheetMeta{ID: id, DisplayName: &name, View: SheetView{}}
}

func normalizeMeta(id string, raw interface{}) SheetMeta {
	m, _ := raw.(map[string]interface{})
	meta := SheetMeta{ID: id}
	if name, ok := m["displayName"]; ok {
		if s, ok := name.(string); ok {
			meta.DisplayName = &s
		} else if name == nil {
			meta.DisplayName = nil
		} else {
			def := id
			meta.DisplayName = &def
		}
	} else {
		def := id
		meta.DisplayName = &def
	}
	meta.View = NormalizeView(m["view"])
	meta.Visibility = sanitizeVisibility(rawField(m, "visibility"))
	meta.TabColor = sanitizeTabColor(rawField(m, "tabColor"))
	return meta
}

func normalizeCellMap(raw interface{}) CellMap {
	m, _ := raw.(map[string]interface{})
	out := CellMap{}
	for addr, rawCell := range m {
		c := decodeCell(rawCell)
		if !c.IsAbsent() {
			out[addr] = c
		}
	}
	return out
}

// decodeCell interprets a raw, possibly legacy or malformed, per-cell
// object. It is tolerant: any shape that doesn't look like a cell decodes
// to the absent cell.
func decodeCell(raw interface{}) Cell {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return Cell{}
	}
	c := Cell{}
	if marker, ok := m["encrypted"].(string); ok && marker != "" {
		blob, _ := m["blob"].(string)
		c.Kind = KindEncrypted
		c.Encrypted = &EncryptedPayload{Marker: marker, Blob: []byte(blob)}
	} else if formula, ok := m["formula"].(string); ok && formula != "" {
		c.Kind = KindFormula
		c.Formula = formula
	} else if value, ok := m["value"]; ok && value != nil {
		c.Kind = KindValue
		c.Value = value
	}
	c.Format = m["format"]
	return NormalizeCell(c)
}

func normalizeKeyedMap(raw interface{}) map[string]JSONValue {
	m, _ := raw.(map[string]interface{})
	out := make(map[string]JSONValue, len(m))
	for k, v := range m {
		out[k] = CloneJSON(v)
	}
	return out
}
