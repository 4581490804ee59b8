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

// mergeOrder implements spec §4.5.2's ordering merge. baseOrder, oursOrder,
// theirsOrder are the three sides' sheet orders restricted to the set of
// surviving sheet ids. Sheets that exist in one side's order but not in base
// at all (fresh additions, oursNew/theirsNew below) are handled last.
func mergeOrder(baseOrder, oursOrder, theirsOrder []string) ([]string, bool) {
	if equalOrder(oursOrder, theirsOrder) {
		return append([]string(nil), oursOrder...), false
	}

	baseSurvivingOurs := restrict(oursOrder, toSet(baseOrder))
	baseSurvivingTheirs := restrict(theirsOrder, toSet(baseOrder))
	baseRestricted := restrict(baseOrder, toSet(oursOrder).union(toSet(theirsOrder)))

	// Note: unlike a naive reading of "if one side equals base, take the
	// other", this deliberately does not early-return theirsOrder/oursOrder
	// verbatim even when a side left the base-surviving ids untouched: that
	// side may still carry its own additions, which only the general
	// moved-set + insertByNeighbors sweep below (including the addition
	// passes) accounts for. The general path already reduces to the same
	// result when a side's moved set is empty, so no special case is needed.

	oursMoved := movedSet(baseRestricted, baseSurvivingOurs)
	theirsMoved := movedSet(baseRestricted, baseSurvivingTheirs)

	for id := range oursMoved {
		if theirsMoved[id] {
			return append([]string(nil), oursOrder...), true
		}
	}

	current := append([]string(nil), baseRestricted...)

	var ok bool
	current, ok = insertByNeighbors(current, oursOrder, oursMoved)
	if !ok {
		return append([]string(nil), oursOrder...), true
	}
	current, ok = insertByNeighbors(current, theirsOrder, theirsMoved)
	if !ok {
		return append([]string(nil), oursOrder...), true
	}

	oursNew := newIDs(oursOrder, baseOrder, toSet(current))
	current, ok = insertByNeighbors(current, oursOrder, oursNew)
	if !ok {
		return append([]string(nil), oursOrder...), true
	}
	theirsNew := newIDs(theirsOrder, baseOrder, toSet(current))
	current, ok = insertByNeighbors(current, theirsOrder, theirsNew)
	if !ok {
		return append([]string(nil), oursOrder...), true
	}

	return current, false
}

type stringSet map[string]bool

func (s stringSet) union(o stringSet) stringSet {
	out := stringSet{}
	for k := range s {
		out[k] = true
	}
	for k := range o {
		out[k] = true
	}
	return out
}

func toSet(ids []string) stringSet {
	out := stringSet{}
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func restrict(order []string, allow stringSet) []string {
	var out []string
	for _, id := range order {
		if allow[id] {
			out = append(out, id)
		}
	}
	return out
}

func equalOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// movedSet returns the ids whose relative order changed between baseOrder
// and sideOrder (both already restricted to the same id set): two ids are
// each "moved" whenever sideOrder presents them in the reverse of their
// baseOrder relative order. This set contains, and can be larger than, spec
// §4.5.2's "minimal sheet ids whose relative position changed vs. base".
//
// A complement-of-a-single-longest-increasing-subsequence formulation is
// tempting but under-determined: when positions admit more than one maximum
// chain (e.g. sideOrder swaps exactly two adjacent ids), picking one
// arbitrary chain blames only one of the two transposed ids, which then
// fails to line up with the *other* side's blamed id for the same
// transposition (spec §8 scenario S6: ours and theirs each transpose s1
// against a different neighbor, and both must be seen as having moved s1
// for the two moved-sets to overlap and trigger the required conflict).
// Flagging every id that participates in any pairwise inversion against
// base is the tie-free account of "relative position changed vs. base":
// it is symmetric in the two ids of a transposition. It flags more ids than
// an LIS complement whenever one id jumps past several others: for base
// [a,b,c,d] and side [b,c,d,a] all four ids are flagged, not just a.
func movedSet(baseOrder, sideOrder []string) map[string]bool {
	basePos := map[string]int{}
	for i, id := range baseOrder {
		basePos[id] = i
	}
	moved := map[string]bool{}
	for i := 0; i < len(sideOrder); i++ {
		pi, oki := basePos[sideOrder[i]]
		if !oki {
			continue
		}
		for j := i + 1; j < len(sideOrder); j++ {
			pj, okj := basePos[sideOrder[j]]
			if !okj {
				continue
			}
			if pi > pj {
				moved[sideOrder[i]] = true
				moved[sideOrder[j]] = true
			}
		}
	}
	return moved
}

// insertByNeighbors inserts each id in toInsert into current, positioned
// between the nearest already-placed predecessor and successor of that id
// within desired's order. It fails (ok=false) if desired's constraints are
// inconsistent with the ids already in current (spec §4.5.2's "any
// constraint conflict").
func insertByNeighbors(current []string, desired []string, toInsert map[string]bool) ([]string, bool) {
	if len(toInsert) == 0 {
		return current, true
	}

	// current (baseRestricted, or an earlier step's output) may still carry
	// each id-to-insert at its stale base position: strip those out first so
	// the ids are genuinely relocated rather than left untouched because
	// they were already present somewhere.
	for id := range toInsert {
		if idx := indexOf(current, id); idx >= 0 {
			current = append(current[:idx], current[idx+1:]...)
		}
	}

	desiredPos := map[string]int{}
	for i, id := range desired {
		desiredPos[id] = i
	}
	var ordered []string
	for _, id := range desired {
		if toInsert[id] {
			ordered = append(ordered, id)
		}
	}

	for _, id := range ordered {
		pos := indexOf(current, id)
		if pos >= 0 {
			continue // already placed by an earlier step (e.g. ours's pass)
		}
		dp := desiredPos[id]

		maxBeforeIdx := -1
		for _, c := range current {
			if cp, ok := desiredPos[c]; ok && cp < dp {
				if i := indexOf(current, c); i > maxBeforeIdx {
					maxBeforeIdx = i
				}
			}
		}
		minAfterIdx := len(current)
		for i, c := range current {
			if cp, ok := desiredPos[c]; ok && cp > dp {
				if i < minAfterIdx {
					minAfterIdx = i
				}
			}
		}
		if maxBeforeIdx+1 > minAfterIdx {
			return current, false
		}
		insertAt := maxBeforeIdx + 1
		current = append(current[:insertAt], append([]string{id}, current[insertAt:]...)...)
	}
	return current, true
}

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

func newIDs(sideOrder, baseOrder []string, already stringSet) map[string]bool {
	inBase := toSet(baseOrder)
	out := map[string]bool{}
	for _, id := range sideOrder {
		if !inBase[id] && !already[id] {
			out[id] = true
		}
	}
	return out
}
