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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wilson-anysphere/cellvc/sheet"
)

func threeSheetDoc(order []string) sheet.DocumentState {
	metaByID := map[string]sheet.SheetMeta{}
	cells := map[string]sheet.CellMap{}
	for _, id := range order {
		name := id
		metaByID[id] = sheet.SheetMeta{ID: id, DisplayName: &name}
		cells[id] = sheet.CellMap{}
	}
	return sheet.Normalize(sheet.DocumentState{
		SchemaVersion: 1,
		Sheets:        sheet.SheetsCollection{Order: append([]string(nil), order...), MetaByID: metaByID},
		Cells:         cells,
	})
}

// Spec §8 property 9: when only ours reorders, the merged order equals
// ours's order.
func TestMergeOrderingPreservationOnlyOursReorders(t *testing.T) {
	base := threeSheetDoc([]string{"s1", "s2", "s3"})
	ours := threeSheetDoc([]string{"s3", "s1", "s2"})
	theirs := threeSheetDoc([]string{"s1", "s2", "s3"})

	result := Merge(base, ours, theirs)
	require.Empty(t, result.Conflicts)
	require.Equal(t, []string{"s3", "s1", "s2"}, result.Merged.Sheets.Order)
}

// Spec §8 scenario S6: base [S1,S2,S3]; ours -> [S2,S1,S3]; theirs ->
// [S3,S1,S2]. Both sides move S1 relative to the other two, so the merge
// cannot reconcile the order unambiguously: a sheet/order conflict is
// recorded and the merged order defaults to ours's.
func TestMergeOrderConflictDefaultsToOurs(t *testing.T) {
	base := threeSheetDoc([]string{"s1", "s2", "s3"})
	ours := threeSheetDoc([]string{"s2", "s1", "s3"})
	theirs := threeSheetDoc([]string{"s3", "s1", "s2"})

	result := Merge(base, ours, theirs)
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, ConflictSheetOrder, result.Conflicts[0].Kind)
	require.Equal(t, []string{"s2", "s1", "s3"}, result.Merged.Sheets.Order)
}

// mergeOrder's direct unit tests: additions on both sides, interleaved
// with each side's own moves, still produce a deterministic total order
// without a spurious conflict, as long as no single sheet id moved on
// both sides relative to the others.
func TestMergeOrderHandlesAdditionsOnBothSides(t *testing.T) {
	base := []string{"s1", "s2"}
	ours := []string{"s1", "s2", "ours-new"}
	theirs := []string{"s1", "s2", "theirs-new"}

	order, conflict := mergeOrder(base, ours, theirs)
	require.False(t, conflict)
	require.ElementsMatch(t, []string{"s1", "s2", "ours-new", "theirs-new"}, order)
	// base-relative order of surviving ids is preserved.
	require.Less(t, indexOf(order, "s1"), indexOf(order, "s2"))
}

func TestMergeOrderTrivialSidesEqualBase(t *testing.T) {
	base := []string{"s1", "s2", "s3"}

	order, conflict := mergeOrder(base, base, []string{"s3", "s1", "s2"})
	require.False(t, conflict)
	require.Equal(t, []string{"s3", "s1", "s2"}, order)

	order, conflict = mergeOrder(base, []string{"s2", "s3", "s1"}, base)
	require.False(t, conflict)
	require.Equal(t, []string{"s2", "s3", "s1"}, order)
}
