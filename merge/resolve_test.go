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

	"github.com/wilson-anysphere/cellvc/internal/cvcerr"
	"github.com/wilson-anysphere/cellvc/sheet"
)

func TestApplyResolutionsChoiceTheirsOverridesDefault(t *testing.T) {
	base := oneSheetDoc("s1", sheet.CellMap{"A1": value("x")})
	ours := oneSheetDoc("s1", sheet.CellMap{"A1": value("ours-edit")})
	theirs := oneSheetDoc("s1", sheet.CellMap{"A1": value("theirs-edit")})

	result := Merge(base, ours, theirs)
	require.Len(t, result.Conflicts, 1)

	final, err := ApplyResolutions(result, []Resolution{{ConflictIndex: 0, Choice: ChoiceTheirs}})
	require.NoError(t, err)
	require.Equal(t, "theirs-edit", final.Cells["s1"]["A1"].Value)
}

func TestApplyResolutionsFirstWinsOnDuplicateIndex(t *testing.T) {
	base := oneSheetDoc("s1", sheet.CellMap{"A1": value("x")})
	ours := oneSheetDoc("s1", sheet.CellMap{"A1": value("ours-edit")})
	theirs := oneSheetDoc("s1", sheet.CellMap{"A1": value("theirs-edit")})

	result := Merge(base, ours, theirs)
	require.Len(t, result.Conflicts, 1)

	final, err := ApplyResolutions(result, []Resolution{
		{ConflictIndex: 0, Choice: ChoiceTheirs},
		{ConflictIndex: 0, Choice: ChoiceOurs},
	})
	require.NoError(t, err)
	require.Equal(t, "theirs-edit", final.Cells["s1"]["A1"].Value, "the first resolution for a conflict index must win")
}

func TestApplyResolutionsUnknownIndexErrors(t *testing.T) {
	base := oneSheetDoc("s1", sheet.CellMap{"A1": value("x")})
	ours := oneSheetDoc("s1", sheet.CellMap{"A1": value("a")})
	theirs := oneSheetDoc("s1", sheet.CellMap{"A1": value("b")})
	result := Merge(base, ours, theirs)

	_, err := ApplyResolutions(result, []Resolution{{ConflictIndex: 99, Choice: ChoiceOurs}})
	require.Error(t, err)
	kind, ok := cvcerr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, cvcerr.MergeUnknownConflictIndex, kind)
}

func TestApplyResolutionsManualCellContent(t *testing.T) {
	base := oneSheetDoc("s1", sheet.CellMap{"A1": value("x")})
	ours := oneSheetDoc("s1", sheet.CellMap{"A1": value("a")})
	theirs := oneSheetDoc("s1", sheet.CellMap{"A1": value("b")})
	result := Merge(base, ours, theirs)

	manualCell := sheet.Cell{Kind: sheet.KindValue, Value: "manual-choice"}
	final, err := ApplyResolutions(result, []Resolution{
		{ConflictIndex: 0, Choice: ChoiceManual, Manual: manualCell},
	})
	require.NoError(t, err)
	require.Equal(t, "manual-choice", final.Cells["s1"]["A1"].Value)
}

func TestApplyResolutionsMovePreviewTheirsDestination(t *testing.T) {
	base := oneSheetDoc("s1", sheet.CellMap{"A1": value("x")})
	ours := oneSheetDoc("s1", sheet.CellMap{"B2": value("x")})
	theirs := oneSheetDoc("s1", sheet.CellMap{"C3": value("x")})
	result := Merge(base, ours, theirs)
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, ConflictMove, result.Conflicts[0].Kind)

	final, err := ApplyResolutions(result, []Resolution{{ConflictIndex: 0, Choice: ChoiceTheirs}})
	require.NoError(t, err)
	require.Equal(t, "x", final.Cells["s1"]["C3"].Value)
	_, atOursDest := final.Cells["s1"]["B2"]
	require.False(t, atOursDest)
}

func TestApplyResolutionsSheetPresenceTheirsRestoresSheet(t *testing.T) {
	name := "Sheet1"
	base := sheet.Normalize(sheet.DocumentState{
		SchemaVersion: 1,
		Sheets: sheet.SheetsCollection{
			Order:    []string{"s1"},
			MetaByID: map[string]sheet.SheetMeta{"s1": {ID: "s1", DisplayName: &name}},
		},
		Cells: map[string]sheet.CellMap{"s1": {"A1": value("x")}},
	})
	ours := sheet.Normalize(sheet.DocumentState{SchemaVersion: 1})
	theirs := oneSheetDoc("s1", sheet.CellMap{"A1": value("modified")})

	result := Merge(base, ours, theirs)
	require.Len(t, result.Conflicts, 1)

	final, err := ApplyResolutions(result, []Resolution{{ConflictIndex: 0, Choice: ChoiceTheirs}})
	require.NoError(t, err)
	_, present := final.Sheets.MetaByID["s1"]
	require.True(t, present)
	require.Equal(t, "modified", final.Cells["s1"]["A1"].Value)
}
