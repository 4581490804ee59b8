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
	"fmt"

	"github.com/wilson-anysphere/cellvc/internal/cvcerr"
	"github.com/wilson-anysphere/cellvc/sheet"
)

// Choice is a user's pick for one recorded Conflict (spec §4.6).
type Choice string

const (
	ChoiceOurs   Choice = "ours"
	ChoiceTheirs Choice = "theirs"
	ChoiceManual Choice = "manual"
)

// Resolution resolves one conflict by its index into Result.Conflicts.
// Manual's required shape depends on the conflict's Kind: sheet.Cell for
// cell/content and delete-vs-edit, a JSON value for cell/format and the
// workbook-level keyed maps, a string (or nil, to clear the name) for
// sheet/rename, a []string for
// sheet/order, an address string for move, and a SheetSnapshot (or nil, to
// mean "deleted") for sheet/presence.
type Resolution struct {
	ConflictIndex int
	Choice        Choice
	Manual        interface{}
}

// ApplyResolutions re-derives the merged document state from mergeResult by
// applying each Resolution in order, falling through to each conflict's
// already-applied "ours" default when a conflict is left unresolved. Callers
// (the branch service, per spec §4.9/4.10) are responsible for rejecting a
// merge with conflicts the caller considers still-unresolved; this function
// itself never requires every conflict to be addressed.
//
// If the same ConflictIndex is resolved more than once, the first Resolution
// for it wins and later ones are ignored (spec §9 leaves the choice between
// first-wins and reject-duplicates to the implementer; first-wins keeps
// ApplyResolutions total rather than making it a validation function).
func ApplyResolutions(mergeResult Result, resolutions []Resolution) (sheet.DocumentState, error) {
	state := sheet.CloneState(mergeResult.Merged)
	seen := make(map[int]bool, len(resolutions))
	for _, r := range resolutions {
		if r.ConflictIndex < 0 || r.ConflictIndex >= len(mergeResult.Conflicts) {
			return sheet.DocumentState{}, cvcerr.Newf(cvcerr.MergeUnknownConflictIndex, fmt.Sprint(r.ConflictIndex),
				"no conflict at index %d", r.ConflictIndex)
		}
		if seen[r.ConflictIndex] {
			continue
		}
		seen[r.ConflictIndex] = true
		conflict := mergeResult.Conflicts[r.ConflictIndex]
		if err := applyOne(&state, conflict, r); err != nil {
			return sheet.DocumentState{}, err
		}
	}
	return sheet.Normalize(state), nil
}

func applyOne(state *sheet.DocumentState, conflict Conflict, r Resolution) error {
	switch conflict.Kind {
	case ConflictMetadata, ConflictNamedRange, ConflictComment:
		target := keyedMapFor(state, conflict.Kind)
		val, err := resolvedJSON(conflict, r)
		if err != nil {
			return err
		}
		if sheet.JSONIsEmpty(val) {
			delete(target, conflict.Key)
		} else {
			target[conflict.Key] = val
		}

	case ConflictSheetRename:
		meta, ok := state.Sheets.MetaByID[conflict.SheetID]
		if !ok {
			return nil // a later/earlier presence resolution already dropped the sheet
		}
		name, err := resolvedStringPtr(conflict, r)
		if err != nil {
			return err
		}
		meta.DisplayName = name
		state.Sheets.MetaByID[conflict.SheetID] = meta

	case ConflictSheetPresence:
		return applyPresence(state, conflict, r)

	case ConflictSheetOrder:
		order, err := resolvedOrder(conflict, r)
		if err != nil {
			return err
		}
		state.Sheets.Order = order

	case ConflictMove:
		return applyMove(state, conflict, r)

	case ConflictCellContent, ConflictDeleteVsEdit:
		cell, err := resolvedCell(conflict, r)
		if err != nil {
			return err
		}
		setCell(state, conflict.SheetID, conflict.Address, cell)

	case ConflictCellFormat:
		format, err := resolvedJSON(conflict, r)
		if err != nil {
			return err
		}
		cm := state.Cells[conflict.SheetID]
		if cm == nil {
			cm = sheet.CellMap{}
		}
		c := cm[conflict.Address]
		c.Format = format
		cm[conflict.Address] = sheet.NormalizeCell(c)
		state.Cells[conflict.SheetID] = cm

	default:
		return cvcerr.Newf(cvcerr.InvalidInput, string(conflict.Kind), "unrecognized conflict kind %q", conflict.Kind)
	}
	return nil
}

func resolvedJSON(conflict Conflict, r Resolution) (sheet.JSONValue, error) {
	switch r.Choice {
	case ChoiceOurs:
		return conflict.Ours, nil
	case ChoiceTheirs:
		return conflict.Theirs, nil
	case ChoiceManual:
		return r.Manual, nil
	}
	return nil, invalidChoice(r)
}

func resolvedStringPtr(conflict Conflict, r Resolution) (*string, error) {
	switch r.Choice {
	case ChoiceOurs:
		return strPtrFromAny(conflict.Ours), nil
	case ChoiceTheirs:
		return strPtrFromAny(conflict.Theirs), nil
	case ChoiceManual:
		if r.Manual == nil {
			return nil, nil
		}
		s, ok := r.Manual.(string)
		if !ok {
			return nil, cvcerr.Newf(cvcerr.MergeInvalidManualPayload, "sheet/rename", "manual display name must be a string")
		}
		return &s, nil
	}
	return nil, invalidChoice(r)
}

func strPtrFromAny(v interface{}) *string {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func resolvedOrder(conflict Conflict, r Resolution) ([]string, error) {
	switch r.Choice {
	case ChoiceOurs:
		return orderFromAny(conflict.Ours), nil
	case ChoiceTheirs:
		return orderFromAny(conflict.Theirs), nil
	case ChoiceManual:
		order, ok := r.Manual.([]string)
		if !ok {
			return nil, cvcerr.New(cvcerr.MergeInvalidManualPayload, "manual sheet order must be a []string")
		}
		return append([]string(nil), order...), nil
	}
	return nil, invalidChoice(r)
}

func orderFromAny(v interface{}) []string {
	if o, ok := v.([]string); ok {
		return append([]string(nil), o...)
	}
	return nil
}

func resolvedCell(conflict Conflict, r Resolution) (sheet.Cell, error) {
	switch r.Choice {
	case ChoiceOurs:
		return cellFromAny(conflict.Ours), nil
	case ChoiceTheirs:
		return cellFromAny(conflict.Theirs), nil
	case ChoiceManual:
		c, ok := r.Manual.(sheet.Cell)
		if !ok {
			return sheet.Cell{}, cvcerr.Newf(cvcerr.MergeInvalidManualPayload, conflict.Address, "manual cell resolution must be a sheet.Cell")
		}
		return sheet.NormalizeCell(c), nil
	}
	return sheet.Cell{}, invalidChoice(r)
}

func cellFromAny(v interface{}) sheet.Cell {
	if c, ok := v.(sheet.Cell); ok {
		return c
	}
	return sheet.Cell{}
}

func setCell(state *sheet.DocumentState, sheetID, address string, c sheet.Cell) {
	cm, ok := state.Cells[sheetID]
	if !ok {
		cm = sheet.CellMap{}
	}
	if c.IsAbsent() {
		delete(cm, address)
	} else {
		cm[address] = c
	}
	state.Cells[sheetID] = cm
}

func applyPresence(state *sheet.DocumentState, conflict Conflict, r Resolution) error {
	switch r.Choice {
	case ChoiceOurs:
		return applyPresenceSnapshot(state, conflict.SheetID, conflict.Ours)
	case ChoiceTheirs:
		return applyPresenceSnapshot(state, conflict.SheetID, conflict.Theirs)
	case ChoiceManual:
		if r.Manual == nil {
			return applyPresenceSnapshot(state, conflict.SheetID, nil)
		}
		if _, ok := r.Manual.(SheetSnapshot); ok {
			return applyPresenceSnapshot(state, conflict.SheetID, r.Manual)
		}
		return cvcerr.Newf(cvcerr.MergeInvalidManualPayload, conflict.SheetID, "manual sheet-presence resolution must be a SheetSnapshot or nil")
	}
	return invalidChoice(r)
}

func applyPresenceSnapshot(state *sheet.DocumentState, sheetID string, v interface{}) error {
	if v == nil {
		delete(state.Sheets.MetaByID, sheetID)
		delete(state.Cells, sheetID)
		return nil
	}
	snap, ok := v.(SheetSnapshot)
	if !ok {
		return cvcerr.Newf(cvcerr.MergeInvalidManualPayload, sheetID, "expected a SheetSnapshot")
	}
	state.Sheets.MetaByID[sheetID] = snap.Meta
	state.Cells[sheetID] = snap.Cells
	return nil
}

// applyMove relocates the merged cell currently sitting at the conflict's
// ours-destination (the merge's default) over to the chosen destination.
func applyMove(state *sheet.DocumentState, conflict Conflict, r Resolution) error {
	if r.Choice == ChoiceOurs {
		return nil // already where the merge's default put it
	}
	var dest string
	switch r.Choice {
	case ChoiceTheirs:
		d, ok := conflict.Theirs.(string)
		if !ok {
			return nil
		}
		dest = d
	case ChoiceManual:
		d, ok := r.Manual.(string)
		if !ok {
			return cvcerr.Newf(cvcerr.MergeInvalidManualPayload, conflict.Address, "manual move resolution must be a destination address string")
		}
		dest = d
	default:
		return invalidChoice(r)
	}
	oursDest, _ := conflict.Ours.(string)
	cm := state.Cells[conflict.SheetID]
	if cm == nil {
		return nil
	}
	if c, ok := cm[oursDest]; ok {
		delete(cm, oursDest)
		cm[dest] = c
	}
	state.Cells[conflict.SheetID] = cm
	return nil
}

func keyedMapFor(state *sheet.DocumentState, kind ConflictKind) map[string]sheet.JSONValue {
	switch kind {
	case ConflictMetadata:
		return state.Metadata
	case ConflictNamedRange:
		return state.NamedRanges
	case ConflictComment:
		return state.Comments
	}
	return nil
}

func invalidChoice(r Resolution) error {
	return cvcerr.Newf(cvcerr.InvalidInput, fmt.Sprint(r.ConflictIndex), "unrecognized resolution choice %q", r.Choice)
}
