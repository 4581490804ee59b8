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

package merge

import (
	"reflect"
	"sort"

	"github.com/wilson-anysphere/cellvc/sheet"
)

// mergeSheetSet implements spec §4.5.2: sheet presence/rename/ordering
// across the whole workbook, delegating each surviving sheet's view and
// cells to mergeSheetMeta.
func mergeSheetSet(base, ours, theirs sheet.DocumentState) (sheet.SheetsCollection, map[string]sheet.CellMap, []Conflict) {
	baseMeta, oursMeta, theirsMeta := base.Sheets.MetaByID, ours.Sheets.MetaByID, theirs.Sheets.MetaByID

	allIDs := map[string]bool{}
	for id := range baseMeta {
		allIDs[id] = true
	}
	for id := range oursMeta {
		allIDs[id] = true
	}
	for id := range theirsMeta {
		allIDs[id] = true
	}

	survivingMeta := map[string]sheet.SheetMeta{}
	survivingCells := map[string]sheet.CellMap{}
	var conflicts []Conflict

	for id := range allIDs {
		inBase := presentIn(baseMeta, id)
		inOurs := presentIn(oursMeta, id)
		inTheirs := presentIn(theirsMeta, id)

		switch {
		case !inBase && inOurs && !inTheirs:
			survivingMeta[id] = oursMeta[id]
			survivingCells[id] = ours.Cells[id]

		case !inBase && inTheirs && !inOurs:
			survivingMeta[id] = theirsMeta[id]
			survivingCells[id] = theirs.Cells[id]

		case !inBase && inOurs && inTheirs:
			zero := sheet.SheetMeta{ID: id, View: sheet.SheetView{}}
			m, c, cs := mergeSheetMeta(id, zero, oursMeta[id], theirsMeta[id], sheet.CellMap{}, ours.Cells[id], theirs.Cells[id])
			survivingMeta[id] = m
			survivingCells[id] = c
			conflicts = append(conflicts, cs...)

		case inBase && !inOurs && !inTheirs:
			// Both sides dropped the sheet: a consistent deletion, nothing to
			// report.

		case inBase && !inOurs:
			// ours deleted; theirs kept (possibly modified) it.
			if sheetUnchanged(baseMeta[id], theirsMeta[id], base.Cells[id], theirs.Cells[id]) {
				// accept the deletion
			} else {
				conflicts = append(conflicts, Conflict{
					Kind: ConflictSheetPresence, SheetID: id,
					Ours: nil, Theirs: SheetSnapshot{Meta: theirsMeta[id], Cells: theirs.Cells[id]},
					Detail: "ours deleted the sheet while theirs modified it",
				})
				// default to ours: the sheet stays deleted.
			}

		case inBase && !inTheirs:
			// theirs deleted; ours kept (possibly modified) it.
			if sheetUnchanged(baseMeta[id], oursMeta[id], base.Cells[id], ours.Cells[id]) {
				// accept the deletion
			} else {
				conflicts = append(conflicts, Conflict{
					Kind: ConflictSheetPresence, SheetID: id,
					Ours: SheetSnapshot{Meta: oursMeta[id], Cells: ours.Cells[id]}, Theirs: nil,
					Detail: "theirs deleted the sheet while ours modified it",
				})
				survivingMeta[id] = oursMeta[id] // default to ours: keep it
				survivingCells[id] = ours.Cells[id]
			}

		default: // present on all three sides
			m, c, cs := mergeSheetMeta(id, baseMeta[id], oursMeta[id], theirsMeta[id], base.Cells[id], ours.Cells[id], theirs.Cells[id])
			survivingMeta[id] = m
			survivingCells[id] = c
			conflicts = append(conflicts, cs...)
		}
	}

	filterOrder := func(order []string) []string {
		var out []string
		for _, id := range order {
			if _, ok := survivingMeta[id]; ok {
				out = append(out, id)
			}
		}
		return out
	}
	baseOrderF := filterOrder(base.Sheets.Order)
	oursOrderF := filterOrder(ours.Sheets.Order)
	theirsOrderF := filterOrder(theirs.Sheets.Order)

	order, orderConflict := mergeOrder(baseOrderF, oursOrderF, theirsOrderF)

	present := map[string]bool{}
	for _, id := range order {
		present[id] = true
	}
	var missing []string
	for id := range survivingMeta {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	order = append(order, missing...)

	if orderConflict {
		conflicts = append(conflicts, Conflict{
			Kind: ConflictSheetOrder, Ours: oursOrderF, Theirs: theirsOrderF,
			Detail: "sheet ordering could not be reconciled without ambiguity",
		})
	}

	return sheet.SheetsCollection{Order: order, MetaByID: survivingMeta}, survivingCells, conflicts
}

// mergeSheetMeta three-way-merges one sheet's metadata (name, visibility,
// tab color, view) and its cells (spec §4.5.2-4.5.5). Name diverging emits a
// rename conflict; visibility/tabColor/view never do (they fold into the
// view's "always resolve to ours" rule).
func mergeSheetMeta(id string, baseMeta, oursMeta, theirsMeta sheet.SheetMeta, baseCells, oursCells, theirsCells sheet.CellMap) (sheet.SheetMeta, sheet.CellMap, []Conflict) {
	var conflicts []Conflict

	meta := sheet.SheetMeta{ID: id}
	name, renameConflict := threeWayString(baseMeta.DisplayName, oursMeta.DisplayName, theirsMeta.DisplayName)
	meta.DisplayName = name
	if renameConflict {
		conflicts = append(conflicts, Conflict{
			Kind: ConflictSheetRename, SheetID: id,
			Base: strOrNil(baseMeta.DisplayName), Ours: strOrNil(oursMeta.DisplayName), Theirs: strOrNil(theirsMeta.DisplayName),
			Detail: "both sides renamed the sheet differently",
		})
	}

	meta.Visibility, _ = threeWayVisibility(baseMeta.Visibility, oursMeta.Visibility, theirsMeta.Visibility)
	meta.TabColor, _ = threeWayNullableString(baseMeta.TabColor, oursMeta.TabColor, theirsMeta.TabColor)
	meta.View = mergeView(baseMeta.View, oursMeta.View, theirsMeta.View)

	cells, cellConflicts := mergeCells(id, baseCells, oursCells, theirsCells)
	conflicts = append(conflicts, cellConflicts...)

	return meta, cells, conflicts
}

func presentIn(m map[string]sheet.SheetMeta, id string) bool {
	_, ok := m[id]
	return ok
}

func strOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

// sheetUnchanged reports whether otherMeta/otherCells are identical to
// baseMeta/baseCells, used to distinguish a clean one-sided deletion from a
// delete-vs-modify conflict (spec §4.5.2).
func sheetUnchanged(baseMeta, otherMeta sheet.SheetMeta, baseCells, otherCells sheet.CellMap) bool {
	if !reflect.DeepEqual(baseMeta, otherMeta) {
		return false
	}
	return cellMapEqual(baseCells, otherCells)
}

func cellMapEqual(a, b sheet.CellMap) bool {
	keys := map[string]bool{}
	for k := range a {
		keys[k] = true
	}
	for k := range b {
		keys[k] = true
	}
	for k := range keys {
		if !sheet.EqualFull(cellAt(a, k), cellAt(b, k)) {
			return false
		}
	}
	return true
}
