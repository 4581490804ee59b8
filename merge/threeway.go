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

// threeWayJSON applies the universal three-way rule from spec §4.5.1 to a
// JSON-ish value: ours==theirs wins outright; else whichever side alone
// changed from base wins; else it's ambiguous (caller records a conflict)
// and ours is the default.
func threeWayJSON(base, ours, theirs sheet.JSONValue) (merged sheet.JSONValue, conflict bool) {
	if sheet.JSONEqual(ours, theirs) {
		return ours, false
	}
	if sheet.JSONEqual(base, ours) {
		return theirs, false
	}
	if sheet.JSONEqual(base, theirs) {
		return ours, false
	}
	return ours, true
}

func threeWayString(base, ours, theirs *string) (merged *string, conflict bool) {
	eq := func(a, b *string) bool {
		if a == nil || b == nil {
			return a == b
		}
		return *a == *b
	}
	if eq(ours, theirs) {
		return ours, false
	}
	if eq(base, ours) {
		return theirs, false
	}
	if eq(base, theirs) {
		return ours, false
	}
	return ours, true
}

func threeWayNullableString(base, ours, theirs sheet.NullableString) (merged sheet.NullableString, conflict bool) {
	eq := func(a, b sheet.NullableString) bool {
		if a.Set != b.Set {
			return false
		}
		if !a.Set {
			return true
		}
		if a.Value == nil || b.Value == nil {
			return a.Value == b.Value
		}
		return *a.Value == *b.Value
	}
	// A side that never mentioned the field inherits base's value, so it
	// never looks like a "change" relative to base (spec §4.5.3).
	effOurs, effTheirs := ours, theirs
	if !ours.Set {
		effOurs = base
	}
	if !theirs.Set {
		effTheirs = base
	}
	if eq(effOurs, effTheirs) {
		return effOurs, false
	}
	if eq(base, effOurs) {
		return effTheirs, false
	}
	if eq(base, effTheirs) {
		return effOurs, false
	}
	return effOurs, true
}

func threeWayInt(base, ours, theirs int) (merged int, conflict bool) {
	if ours == theirs {
		return ours, false
	}
	if base == ours {
		return theirs, false
	}
	if base == theirs {
		return ours, false
	}
	return ours, true
}

func threeWayVisibility(base, ours, theirs *Visibility) (merged *Visibility, conflict bool) {
	eq := func(a, b *Visibility) bool {
		if a == nil || b == nil {
			return a == b
		}
		return *a == *b
	}
	if eq(ours, theirs) {
		return ours, false
	}
	if eq(base, ours) {
		return theirs, false
	}
	if eq(base, theirs) {
		return ours, false
	}
	return ours, true
}

// Visibility is a local alias so this file doesn't need to import sheet
// twice under two names; kept distinct from sheet.Visibility only in name.
type Visibility = sheet.Visibility
