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

package patch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wilson-anysphere/cellvc/sheet"
)

func withCell(state sheet.DocumentState, sheetID, addr string, c sheet.Cell) sheet.DocumentState {
	out := sheet.CloneState(state)
	if out.Sheets.MetaByID[sheetID].ID == "" {
		name := sheetID
		out.Sheets.MetaByID[sheetID] = sheet.SheetMeta{ID: sheetID, DisplayName: &name}
		out.Sheets.Order = append(out.Sheets.Order, sheetID)
	}
	if out.Cells[sheetID] == nil {
		out.Cells[sheetID] = sheet.CellMap{}
	}
	out.Cells[sheetID][addr] = c
	return sheet.Normalize(out)
}

func TestDiffApplyRoundTrip(t *testing.T) {
	base := sheet.Empty()
	next := withCell(base, "s1", "A1", sheet.Cell{Kind: sheet.KindValue, Value: "x"})

	p := Diff(base, next)
	got := Apply(base, p)
	require.Equal(t, next, got)
}

func TestDiffOmitsUnchangedCells(t *testing.T) {
	base := withCell(sheet.Empty(), "s1", "A1", sheet.Cell{Kind: sheet.KindValue, Value: "x"})
	next := withCell(base, "s1", "B1", sheet.Cell{Kind: sheet.KindValue, Value: "y"})

	p := Diff(base, next)
	_, touched := p.Sheets["s1"]["A1"]
	require.False(t, touched)
}

func TestDiffRecordsDeletionAsNilEntry(t *testing.T) {
	base := withCell(sheet.Empty(), "s1", "A1", sheet.Cell{Kind: sheet.KindValue, Value: "x"})
	next := sheet.Normalize(base)
	delete(next.Cells["s1"], "A1")
	next = sheet.Normalize(next)

	p := Diff(base, next)
	entry, ok := p.Sheets["s1"]["A1"]
	require.True(t, ok)
	require.Nil(t, entry)

	got := Apply(base, p)
	_, present := got.Cells["s1"]["A1"]
	require.False(t, present)
}

func TestDiffOfEqualStatesIsEmpty(t *testing.T) {
	base := withCell(sheet.Empty(), "s1", "A1", sheet.Cell{Kind: sheet.KindValue, Value: "x"})
	p := Diff(base, base)
	require.Empty(t, p.Sheets)
}

func TestApplyOnRootIsIdempotentWithEmptyBase(t *testing.T) {
	next := withCell(sheet.Empty(), "s1", "A1", sheet.Cell{Kind: sheet.KindValue, Value: "x"})
	p := Diff(sheet.Empty(), next)
	got := Apply(sheet.Empty(), p)
	require.Equal(t, next, got)
}
