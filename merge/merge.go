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

import "github.com/wilson-anysphere/cellvc/sheet"

// Merge computes the three-way semantic merge of ours and theirs against
// their common ancestor base (spec §4.5). It never fails: every divergence
// the per-field rules can't resolve unambiguously is recorded as a Conflict
// and defaulted to ours, so Result.Merged is always a complete, normalized
// DocumentState.
func Merge(base, ours, theirs sheet.DocumentState) Result {
	nb := sheet.Normalize(base)
	no := sheet.Normalize(ours)
	nt := sheet.Normalize(theirs)

	var conflicts []Conflict

	metadata, c := mergeKeyedMap(ConflictMetadata, nb.Metadata, no.Metadata, nt.Metadata)
	conflicts = append(conflicts, c...)
	namedRanges, c := mergeKeyedMap(ConflictNamedRange, nb.NamedRanges, no.NamedRanges, nt.NamedRanges)
	conflicts = append(conflicts, c...)
	comments, c := mergeKeyedMap(ConflictComment, nb.Comments, no.Comments, nt.Comments)
	conflicts = append(conflicts, c...)

	sheets, cells, c := mergeSheetSet(nb, no, nt)
	conflicts = append(conflicts, c...)

	merged := sheet.Normalize(sheet.DocumentState{
		SchemaVersion: 1,
		Sheets:        sheets,
		Cells:         cells,
		Metadata:      metadata,
		NamedRanges:   namedRanges,
		Comments:      comments,
	})

	return Result{Merged: merged, Conflicts: conflicts}
}
