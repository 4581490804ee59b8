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

func oneSheetDoc(sheetID string, cells sheet.CellMap) sheet.DocumentState {
	name := sheetID
	return sheet.Normalize(sheet.DocumentState{
		SchemaVersion: 1,
		Sheets: sheet.SheetsCollection{
			Order:    []string{sheetID},
			MetaByID: map[string]sheet.SheetMeta{sheetID: {ID: sheetID, DisplayName: &name}},
		},
		Cells: map[string]sheet.CellMap{sheetID: cells},
	})
}

func value(v interface{}) sheet.Cell { return sheet.Cell{Kind: sheet.KindValue, Value: v} }
func formula(f string) sheet.Cell   { return sheet.Cell{Kind: sheet.KindFormula, Formula: f} }

// Spec §8 property 4: merging a state against itself on both sides is a
// no-op with no conflicts.
func TestMergeIdentity(t *testing.T) {
	base := oneSheetDoc("s1", sheet.CellMap{"A1": value("x")})

	result := Merge(base, base, base)
	require.Empty(t, result.Conflicts)
	require.True(t, sheet.EqualFull(base.Cells["s1"]["A1"], result.Merged.Cells["s1"]["A1"]))
}

// Spec §8 property 5: merging an unmodified side against a modified one
// just takes the modified side, with no conflicts, regardless of which
// side changed.
func TestMergeTrivialSides(t *testing.T) {
	base := oneSheetDoc("s1", sheet.CellMap{"A1": value("x")})
	theirs := oneSheetDoc("s1", sheet.CellMap{"A1": value("theirs-edit")})
	ours := oneSheetDoc("s1", sheet.CellMap{"A1": value("ours-edit")})

	r1 := Merge(base, base, theirs)
	require.Empty(t, r1.Conflicts)
	require.Equal(t, "theirs-edit", r1.Merged.Cells["s1"]["A1"].Value)

	r2 := Merge(base, ours, base)
	require.Empty(t, r2.Conflicts)
	require.Equal(t, "ours-edit", r2.Merged.Cells["s1"]["A1"].Value)
}

func TestMergeIndependentEditsNoConflict(t *testing.T) {
	base := oneSheetDoc("s1", sheet.CellMap{"A1": value("x")})
	ours := oneSheetDoc("s1", sheet.CellMap{"A1": value("x"), "B1": value("ours")})
	theirs := oneSheetDoc("s1", sheet.CellMap{"A1": value("x"), "C1": value("theirs")})

	result := Merge(base, ours, theirs)
	require.Empty(t, result.Conflicts)
	require.Equal(t, "ours", result.Merged.Cells["s1"]["B1"].Value)
	require.Equal(t, "theirs", result.Merged.Cells["s1"]["C1"].Value)
}

func TestMergeIdenticalEditBothSidesNoConflict(t *testing.T) {
	base := oneSheetDoc("s1", sheet.CellMap{"A1": value("x")})
	ours := oneSheetDoc("s1", sheet.CellMap{"A1": value("y")})
	theirs := oneSheetDoc("s1", sheet.CellMap{"A1": value("y")})

	result := Merge(base, ours, theirs)
	require.Empty(t, result.Conflicts)
	require.Equal(t, "y", result.Merged.Cells["s1"]["A1"].Value)
}

func TestMergeContentConflictDefaultsToOurs(t *testing.T) {
	base := oneSheetDoc("s1", sheet.CellMap{"A1": value("x")})
	ours := oneSheetDoc("s1", sheet.CellMap{"A1": value("ours-edit")})
	theirs := oneSheetDoc("s1", sheet.CellMap{"A1": value("theirs-edit")})

	result := Merge(base, ours, theirs)
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, ConflictCellContent, result.Conflicts[0].Kind)
	require.Equal(t, "ours-edit", result.Merged.Cells["s1"]["A1"].Value)
}

func TestMergeSemanticallyEquivalentFormulasNoConflict(t *testing.T) {
	base := oneSheetDoc("s1", sheet.CellMap{"A1": formula("=SUM(A2:A3)")})
	ours := oneSheetDoc("s1", sheet.CellMap{"A1": formula("=SUM(A2:A3)   ")})
	theirs := oneSheetDoc("s1", sheet.CellMap{"A1": formula("= sum(A2:A3)")})

	result := Merge(base, ours, theirs)
	require.Empty(t, result.Conflicts)
}

func TestMergeDeleteVsEditConflict(t *testing.T) {
	base := oneSheetDoc("s1", sheet.CellMap{"A1": value("x")})
	ours := oneSheetDoc("s1", sheet.CellMap{})
	theirs := oneSheetDoc("s1", sheet.CellMap{"A1": value("edited")})

	result := Merge(base, ours, theirs)
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, ConflictDeleteVsEdit, result.Conflicts[0].Kind)
	_, present := result.Merged.Cells["s1"]["A1"]
	require.False(t, present) // defaults to ours (deleted)
}

func TestMergeMoveVsEditNoConflict(t *testing.T) {
	// ours moves A1 -> B2 (content unchanged); theirs edits A1 in place.
	base := oneSheetDoc("s1", sheet.CellMap{"A1": value("x")})
	ours := oneSheetDoc("s1", sheet.CellMap{"B2": value("x")})
	theirs := oneSheetDoc("s1", sheet.CellMap{"A1": sheet.Cell{Kind: sheet.KindValue, Value: "x", Format: map[string]interface{}{"bold": true}}})

	result := Merge(base, ours, theirs)
	require.Empty(t, result.Conflicts)
	b2 := result.Merged.Cells["s1"]["B2"]
	require.Equal(t, "x", b2.Value)
	require.Equal(t, true, b2.Format.(map[string]interface{})["bold"])
	_, stillAtA1 := result.Merged.Cells["s1"]["A1"]
	require.False(t, stillAtA1)
}

func TestMergeMoveVsMoveConflictKeepsOursDestination(t *testing.T) {
	base := oneSheetDoc("s1", sheet.CellMap{"A1": value("x")})
	ours := oneSheetDoc("s1", sheet.CellMap{"B2": value("x")})
	theirs := oneSheetDoc("s1", sheet.CellMap{"C3": value("x")})

	result := Merge(base, ours, theirs)
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, ConflictMove, result.Conflicts[0].Kind)

	require.Equal(t, "x", result.Merged.Cells["s1"]["B2"].Value)
	_, atTheirsDest := result.Merged.Cells["s1"]["C3"]
	require.False(t, atTheirsDest, "the losing destination must not retain a duplicate copy of the moved value")
}

func TestMergeMetadataKeyedMapConflict(t *testing.T) {
	base := sheet.Normalize(sheet.DocumentState{SchemaVersion: 1, Metadata: map[string]sheet.JSONValue{"title": "base"}})
	ours := sheet.Normalize(sheet.DocumentState{SchemaVersion: 1, Metadata: map[string]sheet.JSONValue{"title": "ours"}})
	theirs := sheet.Normalize(sheet.DocumentState{SchemaVersion: 1, Metadata: map[string]sheet.JSONValue{"title": "theirs"}})

	result := Merge(base, ours, theirs)
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, ConflictMetadata, result.Conflicts[0].Kind)
	require.Equal(t, "ours", result.Merged.Metadata["title"])
}

func TestMergeSheetDeleteVsModifyConflictDefaultsToOurs(t *testing.T) {
	name := "Sheet1"
	base := sheet.Normalize(sheet.DocumentState{
		SchemaVersion: 1,
		Sheets: sheet.SheetsCollection{
			Order:    []string{"s1"},
			MetaByID: map[string]sheet.SheetMeta{"s1": {ID: "s1", DisplayName: &name}},
		},
		Cells: map[string]sheet.CellMap{"s1": {"A1": value("x")}},
	})
	ours := sheet.Normalize(sheet.DocumentState{SchemaVersion: 1}) // ours deleted the sheet
	theirs := oneSheetDoc("s1", sheet.CellMap{"A1": value("modified")})

	result := Merge(base, ours, theirs)
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, ConflictSheetPresence, result.Conflicts[0].Kind)
	_, present := result.Merged.Sheets.MetaByID["s1"]
	require.False(t, present, "ours's deletion wins by default")
}
