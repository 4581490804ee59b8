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
	"sort"

	"github.com/wilson-anysphere/cellvc/sheet"
)

// mergeCells implements spec §4.5.4-4.5.5 for one sheet: move detection,
// conflict-aware move combination, relocation into a shared coordinate
// system, and per-address cell merge.
func mergeCells(sheetID string, baseCells, oursCells, theirsCells sheet.CellMap) (sheet.CellMap, []Conflict) {
	oursMoves := sheet.DetectMoves(baseCells, oursCells)
	theirsMoves := sheet.DetectMoves(baseCells, theirsCells)

	var conflicts []Conflict
	combined := map[string]string{}
	for from, to := range theirsMoves {
		combined[from] = to
	}
	loserDestinations := map[string]string{}
	for from, oursTo := range oursMoves {
		if theirsTo, ok := theirsMoves[from]; ok && theirsTo != oursTo {
			conflicts = append(conflicts, Conflict{
				Kind: ConflictMove, SheetID: sheetID, Address: from,
				Ours: oursTo, Theirs: theirsTo,
				Detail: "both sides relocated the same cell to different destinations",
			})
			loserDestinations[theirsTo] = oursTo
		}
		combined[from] = oursTo // ours always wins the "from" key, conflict or not.
	}

	baseEff := relocateUnconditional(baseCells, combined)
	oursEff := relocateGuarded(oursCells, baseCells, combined)
	theirsEff := relocateGuarded(theirsCells, baseCells, combined)
	// theirs's copy at its losing destination is carried over to ours's
	// destination (unless theirs edited that address itself), so the moved
	// cell ends up only at ours's destination.
	for theirsTo, oursTo := range loserDestinations {
		c, ok := theirsEff[theirsTo]
		delete(theirsEff, theirsTo)
		if ok && sheet.EqualFull(cellAt(theirsCells, oursTo), cellAt(baseCells, oursTo)) {
			theirsEff[oursTo] = c
		}
	}

	addrs := unionCellKeys3(baseEff, oursEff, theirsEff)
	out := sheet.CellMap{}
	for _, addr := range addrs {
		bc := cellAt(baseEff, addr)
		oc := cellAt(oursEff, addr)
		tc := cellAt(theirsEff, addr)
		merged, cs := mergeCellValue(sheetID, addr, bc, oc, tc)
		conflicts = append(conflicts, cs...)
		if !merged.IsAbsent() {
			out[addr] = merged
		}
	}
	return out, conflicts
}

func relocateUnconditional(m sheet.CellMap, moves map[string]string) sheet.CellMap {
	out := make(sheet.CellMap, len(m))
	for addr, c := range m {
		out[addr] = c
	}
	for from, to := range moves {
		if c, ok := out[from]; ok {
			delete(out, from)
			out[to] = c
		}
	}
	return out
}

// relocateGuarded relocates side's content at a move's source into its
// destination only when side's own content at the destination is still
// unchanged from base (spec §4.5.4): otherwise side made an independent
// edit at the destination and relocating would clobber it.
func relocateGuarded(side, base sheet.CellMap, moves map[string]string) sheet.CellMap {
	out := make(sheet.CellMap, len(side))
	for addr, c := range side {
		out[addr] = c
	}
	for from, to := range moves {
		if !sheet.EqualFull(cellAt(side, to), cellAt(base, to)) {
			continue
		}
		if fromCell := cellAt(side, from); !fromCell.IsAbsent() {
			out[to] = fromCell
		}
		delete(out, from)
	}
	return out
}

func cellAt(m sheet.CellMap, addr string) sheet.Cell {
	if c, ok := m[addr]; ok {
		return c
	}
	return sheet.Cell{}
}

func unionCellKeys3(a, b, c sheet.CellMap) []string {
	set := map[string]bool{}
	for k := range a {
		set[k] = true
	}
	for k := range b {
		set[k] = true
	}
	for k := range c {
		set[k] = true
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// mergeCellValue implements the per-cell three-way merge (spec §4.5.5).
func mergeCellValue(sheetID, address string, base, ours, theirs sheet.Cell) (sheet.Cell, []Conflict) {
	nb := sheet.NormalizeCell(base)
	no := sheet.NormalizeCell(ours)
	nt := sheet.NormalizeCell(theirs)

	if sheet.EqualFull(no, nt) {
		return no, nil
	}
	if sheet.EqualFull(nb, no) {
		return nt, nil
	}
	if sheet.EqualFull(nb, nt) {
		return no, nil
	}

	if !nb.IsAbsent() && no.IsAbsent() != nt.IsAbsent() {
		otherSide, otherIsOurs := nt, false
		if nt.IsAbsent() {
			otherSide, otherIsOurs = no, true
		}
		if !sheet.EqualContent(nb, otherSide) {
			_ = otherIsOurs
			return no, []Conflict{{
				Kind: ConflictDeleteVsEdit, SheetID: sheetID, Address: address,
				Base: nb, Ours: no, Theirs: nt,
				Detail: "one side deleted the cell while the other edited its content",
			}}
		}
	}

	oursChanged := !sheet.EqualContent(nb, no)
	theirsChanged := !sheet.EqualContent(nb, nt)

	var contentSrc sheet.Cell
	contentConflict := false
	switch {
	case !oursChanged && !theirsChanged:
		contentSrc = no
	case oursChanged && !theirsChanged:
		contentSrc = no
	case !oursChanged && theirsChanged:
		contentSrc = nt
	default:
		if sheet.EqualSemanticContent(no, nt) {
			contentSrc = no
		} else {
			contentSrc = no
			contentConflict = true
		}
	}

	formatMerged, formatConflict := mergeFormat(nb.Format, no.Format, nt.Format)

	var conflicts []Conflict
	switch {
	case contentConflict:
		conflicts = append(conflicts, Conflict{
			Kind: ConflictCellContent, SheetID: sheetID, Address: address,
			Base: nb, Ours: no, Theirs: nt,
			Detail: "both sides changed the cell's content and the edits are not semantically equivalent",
		})
	case formatConflict:
		conflicts = append(conflicts, Conflict{
			Kind: ConflictCellFormat, SheetID: sheetID, Address: address,
			Base: nb.Format, Ours: no.Format, Theirs: nt.Format,
			Detail: "both sides changed the cell's format on overlapping keys",
		})
	}

	result := sheet.NormalizeCell(sheet.Cell{
		Kind:      contentSrc.Kind,
		Value:     contentSrc.Value,
		Formula:   contentSrc.Formula,
		Encrypted: contentSrc.Encrypted,
		Format:    formatMerged,
	})
	return result, conflicts
}

// mergeFormat resolves a cell's format object: per-key three-way when both
// sides look like JSON objects, else a single whole-value three-way.
func mergeFormat(base, ours, theirs sheet.JSONValue) (sheet.JSONValue, bool) {
	bm, bok := base.(map[string]interface{})
	om, ook := ours.(map[string]interface{})
	tm, tok := theirs.(map[string]interface{})
	if (base != nil && !bok) || (ours != nil && !ook) || (theirs != nil && !tok) {
		return threeWayJSON(base, ours, theirs)
	}

	keys := map[string]bool{}
	for k := range bm {
		keys[k] = true
	}
	for k := range om {
		keys[k] = true
	}
	for k := range tm {
		keys[k] = true
	}
	sortedKeys := make([]string, 0, len(keys))
	for k := range keys {
		sortedKeys = append(sortedKeys, k)
	}
	sort.Strings(sortedKeys)

	out := map[string]interface{}{}
	anyConflict := false
	for _, k := range sortedKeys {
		merged, c := threeWayJSON(bm[k], om[k], tm[k])
		if c {
			anyConflict = true
		}
		if !sheet.JSONIsEmpty(merged) {
			out[k] = merged
		}
	}
	if len(out) == 0 {
		return nil, anyConflict
	}
	return out, anyConflict
}
