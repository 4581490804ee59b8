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

// Package patch implements the sparse cell-level patch codec (spec §4.4):
// Diff produces a minimal overlay between two normalized document states,
// and Apply replays that overlay onto a state. Workbook-metadata deltas are
// not represented here; the store materializes full/snapshot state for
// those, per spec §3's Patch definition.
package patch

import "github.com/wilson-anysphere/cellvc/sheet"

// Patch is a sparse per-sheet overlay of cells: a nil Cell pointer means
// deletion.
type Patch struct {
	Sheets map[string]map[string]*sheet.Cell
}

// Diff computes the minimal cell patch between two already-normalized
// states: Apply(base, Diff(base, next)) has next's cells. Sheet metadata,
// sheet order and the keyed maps of next are not carried by the patch.
func Diff(base, next sheet.DocumentState) Patch {
	p := Patch{Sheets: map[string]map[string]*sheet.Cell{}}

	sheetIDs := unionKeys(base.Cells, next.Cells)
	for _, sheetID := range sheetIDs {
		baseCells := base.Cells[sheetID]
		nextCells := next.Cells[sheetID]

		var overlay map[string]*sheet.Cell
		addrs := unionCellKeys(baseCells, nextCells)
		for _, addr := range addrs {
			bc, bok := baseCells[addr]
			nc, nok := nextCells[addr]
			bAbsent := !bok || bc.IsAbsent()
			nAbsent := !nok || nc.IsAbsent()

			if bAbsent && nAbsent {
				continue
			}
			if !bAbsent && nAbsent {
				if overlay == nil {
					overlay = map[string]*sheet.Cell{}
				}
				overlay[addr] = nil
				continue
			}
			if bAbsent || !sheet.EqualFull(bc, nc) {
				normalized := sheet.NormalizeCell(nc)
				if overlay == nil {
					overlay = map[string]*sheet.Cell{}
				}
				overlay[addr] = &normalized
			}
		}
		if overlay != nil {
			p.Sheets[sheetID] = overlay
		}
	}
	return p
}

// Apply deep-copies state and replays patch onto it, assigning or deleting
// per the overlay.
func Apply(state sheet.DocumentState, p Patch) sheet.DocumentState {
	out := sheet.CloneState(state)
	for sheetID, overlay := range p.Sheets {
		cm, ok := out.Cells[sheetID]
		if !ok {
			cm = sheet.CellMap{}
		}
		for addr, c := range overlay {
			if c == nil {
				delete(cm, addr)
				continue
			}
			normalized := sheet.NormalizeCell(*c)
			if normalized.IsAbsent() {
				delete(cm, addr)
			} else {
				cm[addr] = normalized
			}
		}
		out.Cells[sheetID] = cm
	}
	return sheet.Normalize(out)
}

func unionKeys(a, b map[string]sheet.CellMap) []string {
	set := map[string]bool{}
	for k := range a {
		set[k] = true
	}
	for k := range b {
		set[k] = true
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func unionCellKeys(a, b sheet.CellMap) []string {
	set := map[string]bool{}
	for k := range a {
		set[k] = true
	}
	for k := range b {
		set[k] = true
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
