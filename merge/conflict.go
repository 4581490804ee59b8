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

// Package merge implements the three-way semantic merge engine (spec
// §4.5): it never fails, and reports ambiguity as an ordered Conflict list
// instead.
package merge

import "github.com/wilson-anysphere/cellvc/sheet"

// ConflictKind names a specific divergence the three-way rule could not
// reconcile.
type ConflictKind string

const (
	ConflictMetadata      ConflictKind = "metadata"
	ConflictNamedRange    ConflictKind = "namedRange"
	ConflictComment       ConflictKind = "comment"
	ConflictSheetRename   ConflictKind = "sheet/rename"
	ConflictSheetPresence ConflictKind = "sheet/presence"
	ConflictSheetOrder    ConflictKind = "sheet/order"
	ConflictMove          ConflictKind = "move"
	ConflictCellContent   ConflictKind = "cell/content"
	ConflictCellFormat    ConflictKind = "cell/format"
	ConflictDeleteVsEdit  ConflictKind = "delete-vs-edit"
)

// Conflict is one recorded divergence (spec glossary). SheetID/Address/Key
// identify what diverged; Base/Ours/Theirs carry the three candidate
// values so a caller (or the resolver) can present and resolve it. Which of
// these fields is populated depends on Kind; see SPEC_FULL.md / spec §4.6
// for the manual-payload shape each kind expects.
type Conflict struct {
	Kind    ConflictKind
	SheetID string
	Address string
	Key     string
	Detail  string

	Base, Ours, Theirs interface{}
}

// Result is the merge engine's output: a best-effort merged state plus the
// ordered list of conflicts it could not resolve unambiguously.
type Result struct {
	Merged    sheet.DocumentState
	Conflicts []Conflict
}

// SheetSnapshot carries a whole sheet's surviving state (metadata plus
// cells) as the Ours/Theirs payload of a ConflictSheetPresence conflict, so
// the resolver can reinstate the deleted side without re-deriving it.
type SheetSnapshot struct {
	Meta  sheet.SheetMeta
	Cells sheet.CellMap
}
