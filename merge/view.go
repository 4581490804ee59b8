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

// mergeView implements spec §4.5.3. View fields are local UI state: unlike
// cell/metadata merges, divergence is never reported as a Conflict, it
// silently prefers ours.
func mergeView(base, ours, theirs sheet.SheetView) sheet.SheetView {
	out := sheet.SheetView{}
	out.FrozenRows, _ = threeWayInt(base.FrozenRows, ours.FrozenRows, theirs.FrozenRows)
	out.FrozenCols, _ = threeWayInt(base.FrozenCols, ours.FrozenCols, theirs.FrozenCols)
	out.BackgroundImageID, _ = threeWayNullableString(base.BackgroundImageID, ours.BackgroundImageID, theirs.BackgroundImageID)
	out.ColWidths = mergeSparseFloatMap(base.ColWidths, ours.ColWidths, theirs.ColWidths)
	out.RowHeights = mergeSparseFloatMap(base.RowHeights, ours.RowHeights, theirs.RowHeights)
	out.MergedRanges = mergeMergedRanges(base.MergedRanges, ours.MergedRanges, theirs.MergedRanges)
	out.Drawings = mergeDrawings(base.Drawings, ours.Drawings, theirs.Drawings)
	out.DefaultFormat, _ = threeWayJSON(base.DefaultFormat, ours.DefaultFormat, theirs.DefaultFormat)
	out.RowFormats = mergeSparseFormatMap(base.RowFormats, ours.RowFormats, theirs.RowFormats)
	out.ColFormats = mergeSparseFormatMap(base.ColFormats, ours.ColFormats, theirs.ColFormats)
	out.FormatRunsByCol = mergeFormatRunsByCol(base.FormatRunsByCol, ours.FormatRunsByCol, theirs.FormatRunsByCol)
	return out
}

func mergeSparseFloatMap(base, ours, theirs map[string]float64) map[string]float64 {
	keys := unionStringKeysF(base, ours, theirs)
	out := map[string]float64{}
	for _, k := range keys {
		bv, bok := base[k]
		ov, ook := ours[k]
		tv, tok := theirs[k]

		present, value := threeWayOptFloat(bok, bv, ook, ov, tok, tv)
		if present {
			out[k] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func threeWayOptFloat(bok bool, bv float64, ook bool, ov float64, tok bool, tv float64) (bool, float64) {
	eq := func(xok bool, xv float64, yok bool, yv float64) bool {
		if xok != yok {
			return false
		}
		return !xok || xv == yv
	}
	if eq(ook, ov, tok, tv) {
		return ook, ov
	}
	if eq(bok, bv, ook, ov) {
		return tok, tv
	}
	if eq(bok, bv, tok, tv) {
		return ook, ov
	}
	return ook, ov
}

func mergeSparseFormatMap(base, ours, theirs map[string]sheet.JSONValue) map[string]sheet.JSONValue {
	keys := unionStringKeysJ(base, ours, theirs)
	out := map[string]sheet.JSONValue{}
	for _, k := range keys {
		merged, _ := threeWayJSON(base[k], ours[k], theirs[k])
		if !sheet.JSONIsEmpty(merged) {
			out[k] = merged
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mergeFormatRunsByCol(base, ours, theirs map[string][]sheet.FormatRun) map[string][]sheet.FormatRun {
	keys := map[string]bool{}
	for k := range base {
		keys[k] = true
	}
	for k := range ours {
		keys[k] = true
	}
	for k := range theirs {
		keys[k] = true
	}

	out := map[string][]sheet.FormatRun{}
	for k := range keys {
		bv, bok := base[k]
		ov, ook := ours[k]
		tv, tok := theirs[k]

		eq := func(xok bool, x []sheet.FormatRun, yok bool, y []sheet.FormatRun) bool {
			if xok != yok {
				return false
			}
			return !xok || runListEqual(x, y)
		}
		var present bool
		var value []sheet.FormatRun
		switch {
		case eq(ook, ov, tok, tv):
			present, value = ook, ov
		case eq(bok, bv, ook, ov):
			present, value = tok, tv
		case eq(bok, bv, tok, tv):
			present, value = ook, ov
		default:
			present, value = ook, ov
		}
		if present {
			out[k] = value // explicit empty lists (non-nil, len 0) are preserved
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func runListEqual(a, b []sheet.FormatRun) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].StartRow != b[i].StartRow || a[i].EndRowExclusive != b[i].EndRowExclusive {
			return false
		}
		if !sheet.JSONEqual(a[i].Format, b[i].Format) {
			return false
		}
	}
	return true
}

func unionStringKeysF(maps ...map[string]float64) []string {
	set := map[string]bool{}
	for _, m := range maps {
		for k := range m {
			set[k] = true
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func unionStringKeysJ(maps ...map[string]sheet.JSONValue) []string {
	set := map[string]bool{}
	for _, m := range maps {
		for k := range m {
			set[k] = true
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// mergeMergedRanges implements spec §4.5.3's provenance-weighted rectangle
// merge: base rectangles weigh 0, theirs-only additions weigh 1, and
// ours-style rectangles (ours additions, or base rectangles whose
// presence diverged between the two sides) weigh 2. Candidates are
// accepted in ascending-weight (then lexicographic) order, each accepted
// rectangle evicting any previously accepted rectangle it overlaps, so a
// later (heavier-weighted) candidate always wins an overlap.
func mergeMergedRanges(base, ours, theirs []sheet.Rectangle) []sheet.Rectangle {
	baseSet := rectSet(base)
	oursSet := rectSet(ours)
	theirsSet := rectSet(theirs)

	all := map[sheet.Rectangle]bool{}
	for r := range baseSet {
		all[r] = true
	}
	for r := range oursSet {
		all[r] = true
	}
	for r := range theirsSet {
		all[r] = true
	}

	type weighted struct {
		r sheet.Rectangle
		w int
	}
	var candidates []weighted
	for r := range all {
		inBase, inOurs, inTheirs := baseSet[r], oursSet[r], theirsSet[r]
		var present bool
		var weight int
		switch {
		case inOurs == inTheirs:
			present = inOurs
			if present && !inBase {
				weight = 2
			}
		case inBase:
			present = inOurs
			weight = 2
		default:
			if inOurs {
				present, weight = true, 2
			} else {
				present, weight = true, 1
			}
		}
		if present {
			candidates = append(candidates, weighted{r, weight})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].w != candidates[j].w {
			return candidates[i].w < candidates[j].w
		}
		return candidates[i].r.Less(candidates[j].r)
	})

	var accepted []sheet.Rectangle
	for _, c := range candidates {
		kept := accepted[:0:0]
		for _, a := range accepted {
			if !a.Overlaps(c.r) {
				kept = append(kept, a)
			}
		}
		accepted = append(kept, c.r)
	}
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Less(accepted[j]) })
	if len(accepted) == 0 {
		return nil
	}
	return accepted
}

func rectSet(rects []sheet.Rectangle) map[sheet.Rectangle]bool {
	out := map[sheet.Rectangle]bool{}
	for _, r := range rects {
		out[r] = true
	}
	return out
}

// mergeDrawings implements spec §4.5.3's per-id three-way merge with a
// (zOrder, id) re-sort.
func mergeDrawings(base, ours, theirs []sheet.Drawing) []sheet.Drawing {
	baseByID := drawingsByID(base)
	oursByID := drawingsByID(ours)
	theirsByID := drawingsByID(theirs)

	ids := map[string]bool{}
	for id := range baseByID {
		ids[id] = true
	}
	for id := range oursByID {
		ids[id] = true
	}
	for id := range theirsByID {
		ids[id] = true
	}

	var out []sheet.Drawing
	for id := range ids {
		b, o, t := baseByID[id], oursByID[id], theirsByID[id]
		merged := threeWayDrawing(b, o, t)
		if merged != nil {
			out = append(out, *merged)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ZOrder != out[j].ZOrder {
			return out[i].ZOrder < out[j].ZOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func drawingsByID(ds []sheet.Drawing) map[string]*sheet.Drawing {
	out := map[string]*sheet.Drawing{}
	for i := range ds {
		d := ds[i]
		out[d.ID] = &d
	}
	return out
}

func drawingEqual(a, b *sheet.Drawing) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ZOrder == b.ZOrder && sheet.JSONEqual(a.Payload, b.Payload)
}

func threeWayDrawing(base, ours, theirs *sheet.Drawing) *sheet.Drawing {
	if drawingEqual(ours, theirs) {
		return ours
	}
	if drawingEqual(base, ours) {
		return theirs
	}
	if drawingEqual(base, theirs) {
		return ours
	}
	return ours
}
