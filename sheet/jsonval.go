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

// JSONValue is an opaque, already-decoded JSON value (the result of
// encoding/json's default unmarshal into interface{}: nil, bool, float64,
// string, []interface{}, or map[string]interface{}). The core never
// interprets the shape of a format/metadata/namedRange/comment value beyond
// equality and deep-clone; it is a tagged leaf, not a typed schema.
type JSONValue = interface{}

// JSONEqual reports whether two decoded JSON values are structurally equal.
func JSONEqual(a, b JSONValue) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, aval := range av {
			bval, ok := bv[k]
			if !ok || !JSONEqual(aval, bval) {
				return false
			}
		}
		return true
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !JSONEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// JSONIsEmpty reports whether v is nil or an empty object/array: the
// normalizer treats these as "no value" for format-like fields.
func JSONIsEmpty(v JSONValue) bool {
	switch tv := v.(type) {
	case nil:
		return true
	case map[string]interface{}:
		return len(tv) == 0
	case []interface{}:
		return len(tv) == 0
	default:
		return false
	}
}

// CloneJSON deep-copies a decoded JSON value.
func CloneJSON(v JSONValue) JSONValue {
	switch tv := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(tv))
		for k, val := range tv {
			out[k] = CloneJSON(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, val := range tv {
			out[i] = CloneJSON(val)
		}
		return out
	default:
		return tv
	}
}
