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

// mergeKeyedMap implements spec §4.5.1 for one workbook-level keyed map
// (metadata, namedRanges, or comments): per-key three-way rule, default to
// ours and record a conflict of kind on divergence.
func mergeKeyedMap(kind ConflictKind, base, ours, theirs map[string]sheet.JSONValue) (map[string]sheet.JSONValue, []Conflict) {
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

	sortedKeys := make([]string, 0, len(keys))
	for k := range keys {
		sortedKeys = append(sortedKeys, k)
	}
	sort.Strings(sortedKeys)

	out := map[string]sheet.JSONValue{}
	var conflicts []Conflict
	for _, k := range sortedKeys {
		b, o, t := base[k], ours[k], theirs[k]
		merged, conflict := threeWayJSON(b, o, t)
		if conflict {
			conflicts = append(conflicts, Conflict{
				Kind: kind, Key: k, Base: b, Ours: o, Theirs: t,
				Detail: "workbook-level keyed map entry diverged on all three sides",
			})
		}
		if sheet.JSONIsEmpty(merged) {
			continue
		}
		out[k] = merged
	}
	return out, conflicts
}
