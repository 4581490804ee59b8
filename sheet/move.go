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

package sheet

import "sort"

// DetectMoves finds conservative 1:1 cell relocations between base and
// next: addresses deleted in next that are fingerprint-equal to an address
// added in next (spec §4.3). It never pairs more than one deletion with
// one addition, and resolves fingerprint collisions by taking, for each
// deletion in lexicographic order, the lexicographically first still-unused
// addition with a matching fingerprint.
func DetectMoves(base, next CellMap) map[string]string {
	additionsByFP := map[Fingerprint][]string{}
	for addr, c := range next {
		if _, inBase := base[addr]; inBase {
			continue
		}
		if c.IsAbsent() {
			continue
		}
		fp := CellFingerprint(c)
		additionsByFP[fp] = append(additionsByFP[fp], addr)
	}
	for fp := range additionsByFP {
		sort.Strings(additionsByFP[fp])
	}

	var deletions []string
	for addr, c := range base {
		if c.IsAbsent() {
			continue
		}
		if nc, stillThere := next[addr]; stillThere && !nc.IsAbsent() {
			continue
		}
		deletions = append(deletions, addr)
	}
	sort.Strings(deletions)

	used := map[string]bool{}
	moves := map[string]string{}
	for _, from := range deletions {
		fp := CellFingerprint(base[from])
		for _, to := range additionsByFP[fp] {
			if used[to] {
				continue
			}
			used[to] = true
			moves[from] = to
			break
		}
	}
	return moves
}
