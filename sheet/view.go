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

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Visibility is a sheet's tab visibility state.
type Visibility string

const (
	VisibilityVisible    Visibility = "visible"
	VisibilityHidden     Visibility = "hidden"
	VisibilityVeryHidden Visibility = "veryHidden"
)

func validVisibility(v string) bool {
	switch Visibility(v) {
	case VisibilityVisible, VisibilityHidden, VisibilityVeryHidden:
		return true
	}
	return false
}

// NullableString is a tri-state optional field: Set=false means the field
// was never mentioned (no change, inherit whatever it already was); Set=true
// with Value==nil means it was explicitly cleared; Set=true with Value!=nil
// carries the value. Used for backgroundImageId and tabColor, the two
// fields spec §3 calls out as "nullable to represent explicit clear".
type NullableString struct {
	Set   bool
	Value *string
}

func (n NullableString) equal(o NullableString) bool {
	if n.Set != o.Set {
		return false
	}
	if !n.Set {
		return true
	}
	if n.Value == nil || o.Value == nil {
		return n.Value == o.Value
	}
	return *n.Value == *o.Value
}

// Rectangle is an inclusive, non-degenerate cell range.
type Rectangle struct {
	StartRow, EndRow, StartCol, EndCol int
}

func (r Rectangle) degenerate() bool {
	return r.StartRow == r.EndRow && r.StartCol == r.EndCol
}

// Overlaps reports whether r and o share any cell.
func (r Rectangle) Overlaps(o Rectangle) bool {
	return r.StartRow <= o.EndRow && o.StartRow <= r.EndRow &&
		r.StartCol <= o.EndCol && o.StartCol <= r.EndCol
}

// Less orders rectangles lexicographically by (startRow, startCol, endRow, endCol).
func (r Rectangle) Less(o Rectangle) bool {
	if r.StartRow != o.StartRow {
		return r.StartRow < o.StartRow
	}
	if r.StartCol != o.StartCol {
		return r.StartCol < o.StartCol
	}
	if r.EndRow != o.EndRow {
		return r.EndRow < o.EndRow
	}
	return r.EndCol < o.EndCol
}

// Drawing is a floating object anchored to a sheet. Payload is the drawing's
// own JSON projection (spec §4.1's "convert to plain JSON via the item's
// JSON projection"); ID and ZOrder are lifted out for sort/merge purposes.
type Drawing struct {
	ID      string
	ZOrder  int
	Payload JSONValue
}

// FormatRun is a half-open row interval within one column carrying a shared
// format ("range run" in the glossary).
type FormatRun struct {
	StartRow        int
	EndRowExclusive int
	Format          JSONValue
}

// SheetView holds per-sheet UI state (spec §3).
type SheetView struct {
	FrozenRows, FrozenCols int
	BackgroundImageID      NullableString
	ColWidths              map[string]float64
	RowHeights             map[string]float64
	MergedRanges           []Rectangle
	Drawings               []Drawing
	DefaultFormat          JSONValue
	RowFormats             map[string]JSONValue
	ColFormats             map[string]JSONValue
	FormatRunsByCol        map[string][]FormatRun
}

// CloneView deep-copies a SheetView.
func CloneView(v SheetView) SheetView {
	out := v
	out.ColWidths = cloneFloatMap(v.ColWidths)
	out.RowHeights = cloneFloatMap(v.RowHeights)
	if v.MergedRanges != nil {
		out.MergedRanges = append([]Rectangle(nil), v.MergedRanges...)
	}
	if v.Drawings != nil {
		out.Drawings = make([]Drawing, len(v.Drawings))
		for i, d := range v.Drawings {
			out.Drawings[i] = Drawing{ID: d.ID, ZOrder: d.ZOrder, Payload: CloneJSON(d.Payload)}
		}
	}
	out.DefaultFormat = CloneJSON(v.DefaultFormat)
	out.RowFormats = cloneFormatMap(v.RowFormats)
	out.ColFormats = cloneFormatMap(v.ColFormats)
	if v.FormatRunsByCol != nil {
		out.FormatRunsByCol = make(map[string][]FormatRun, len(v.FormatRunsByCol))
		for k, runs := range v.FormatRunsByCol {
			cloned := make([]FormatRun, len(runs))
			for i, r := range runs {
				cloned[i] = FormatRun{StartRow: r.StartRow, EndRowExclusive: r.EndRowExclusive, Format: CloneJSON(r.Format)}
			}
			out.FormatRunsByCol[k] = cloned
		}
	}
	return out
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneFormatMap(m map[string]JSONValue) map[string]JSONValue {
	if m == nil {
		return nil
	}
	out := make(map[string]JSONValue, len(m))
	for k, v := range m {
		out[k] = CloneJSON(v)
	}
	return out
}

// NormalizeView sanitizes a raw, possibly malformed, decoded-JSON view
// object into a canonical SheetView. It never fails: invalid sub-fields are
// dropped rather than rejected, per spec §4.1.
func NormalizeView(raw interface{}) SheetView {
	m, _ := raw.(map[string]interface{})

	out := SheetView{}
	out.FrozenRows = nonNegativeInt(m["frozenRows"])
	out.FrozenCols = nonNegativeInt(m["frozenCols"])
	out.BackgroundImageID = sanitizeNullableString(rawField(m, "backgroundImageId"))
	out.ColWidths = sanitizeSparsePositive(rawField(m, "colWidths"))
	out.RowHeights = sanitizeSparsePositive(rawField(m, "rowHeights"))
	out.MergedRanges = sanitizeMergedRanges(m)
	out.Drawings = sanitizeDrawings(rawField(m, "drawings"))
	out.DefaultFormat = sanitizeFormatField(rawField(m, "defaultFormat"))
	out.RowFormats = sanitizeFormatMap(rawField(m, "rowFormats"))
	out.ColFormats = sanitizeFormatMap(rawField(m, "colFormats"))
	out.FormatRunsByCol = sanitizeFormatRuns(rawField(m, "formatRunsByCol"))
	return out
}

type rawOpt struct {
	present bool
	value   interface{}
}

func rawField(m map[string]interface{}, key string) rawOpt {
	if m == nil {
		return rawOpt{}
	}
	v, ok := m[key]
	return rawOpt{present: ok, value: v}
}

func nonNegativeInt(v interface{}) int {
	f, ok := asFiniteFloat(v)
	if !ok || f < 0 {
		return 0
	}
	return int(f)
}

func asFiniteFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func sanitizeNullableString(o rawOpt) NullableString {
	if !o.present {
		return NullableString{}
	}
	if o.value == nil {
		return NullableString{Set: true, Value: nil}
	}
	s, ok := o.value.(string)
	s = strings.TrimSpace(s)
	if !ok || s == "" {
		return NullableString{}
	}
	return NullableString{Set: true, Value: &s}
}

// sanitizeSparsePositive accepts a map keyed by index, an array of
// [index, size] pairs, or an array of {index, size} objects, and returns a
// map keyed by stringified index containing only positive finite sizes.
func sanitizeSparsePositive(o rawOpt) map[string]float64 {
	if !o.present {
		return nil
	}
	out := map[string]float64{}
	addEntry := func(idx interface{}, size interface{}) {
		f, ok := asFiniteFloat(size)
		if !ok || f <= 0 {
			return
		}
		key := indexKey(idx)
		if key == "" {
			return
		}
		out[key] = f
	}
	switch v := o.value.(type) {
	case map[string]interface{}:
		for k, val := range v {
			addEntry(k, val)
		}
	case []interface{}:
		for _, entry := range v {
			switch e := entry.(type) {
			case []interface{}:
				if len(e) == 2 {
					addEntry(e[0], e[1])
				}
			case map[string]interface{}:
				addEntry(e["index"], e["size"])
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func indexKey(idx interface{}) string {
	switch v := idx.(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return ""
		}
		return strconv.Itoa(n)
	default:
		f, ok := asFiniteFloat(idx)
		if !ok || f < 0 {
			return ""
		}
		return strconv.Itoa(int(f))
	}
}

func sanitizeMergedRanges(m map[string]interface{}) []Rectangle {
	var raw interface{}
	found := false
	for _, alias := range []string{"mergedRanges", "mergedCells", "merged_cells", "mergedRegions"} {
		if v, ok := m[alias]; ok {
			raw, found = v, true
			break
		}
	}
	if !found {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	var rects []Rectangle
	for _, entry := range list {
		r, ok := parseRectangle(entry)
		if !ok || r.degenerate() {
			continue
		}
		rects = append(rects, r)
	}
	if rects == nil {
		return nil
	}

	// Later entries win on overlap: drop any earlier-accepted rectangle
	// that a later one overlaps, matching spec §4.1's "later wins".
	var accepted []Rectangle
	for _, r := range rects {
		kept := accepted[:0:0]
		for _, a := range accepted {
			if !a.Overlaps(r) {
				kept = append(kept, a)
			}
		}
		accepted = append(kept, r)
	}
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Less(accepted[j]) })
	accepted = dedupeRectangles(accepted)
	if len(accepted) == 0 {
		return nil
	}
	return accepted
}

func dedupeRectangles(rects []Rectangle) []Rectangle {
	out := rects[:0:0]
	for i, r := range rects {
		if i > 0 && r == rects[i-1] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func parseRectangle(entry interface{}) (Rectangle, bool) {
	m, ok := entry.(map[string]interface{})
	if !ok {
		return Rectangle{}, false
	}
	get := func(keys ...string) (int, bool) {
		for _, k := range keys {
			if v, ok := m[k]; ok {
				if f, ok := asFiniteFloat(v); ok {
					return int(f), true
				}
			}
		}
		return 0, false
	}
	sr, ok1 := get("startRow", "row1", "r1")
	sc, ok2 := get("startCol", "col1", "c1")
	er, ok3 := get("endRow", "row2", "r2")
	ec, ok4 := get("endCol", "col2", "c2")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Rectangle{}, false
	}
	if sr > er {
		sr, er = er, sr
	}
	if sc > ec {
		sc, ec = ec, sc
	}
	return Rectangle{StartRow: sr, EndRow: er, StartCol: sc, EndCol: ec}, true
}

// TextHandle abstracts a collaborative shared-type text node, per
// SPEC_FULL.md / spec §9's re-architecting note: only integrated,
// size-bounded handles are accepted as drawing ids or drawing text.
type TextHandle interface {
	Integrated() bool
	Len() int
	AsString() (string, bool)
}

const maxDrawingIDLen = 4096

func sanitizeDrawings(o rawOpt) []Drawing {
	if !o.present {
		return nil
	}
	list, ok := o.value.([]interface{})
	if !ok {
		return nil
	}
	var out []Drawing
	for _, entry := range list {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		id, ok := sanitizeDrawingID(m["id"])
		if !ok {
			continue
		}
		zOrder := 0
		if f, ok := asFiniteFloat(m["zOrder"]); ok {
			zOrder = int(f)
		}
		out = append(out, Drawing{ID: id, ZOrder: zOrder, Payload: CloneJSON(entry)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ZOrder != out[j].ZOrder {
			return out[i].ZOrder < out[j].ZOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sanitizeDrawingID(v interface{}) (string, bool) {
	switch id := v.(type) {
	case string:
		s := strings.TrimSpace(id)
		if s == "" || len(s) > maxDrawingIDLen {
			return "", false
		}
		return s, true
	case float64:
		if math.IsNaN(id) || math.IsInf(id, 0) || id != math.Trunc(id) {
			return "", false
		}
		if math.Abs(id) > (1<<53 - 1) {
			return "", false
		}
		return strconv.FormatInt(int64(id), 10), true
	case TextHandle:
		if !id.Integrated() || id.Len() > maxDrawingIDLen {
			return "", false
		}
		s, ok := id.AsString()
		s = strings.TrimSpace(s)
		if !ok || s == "" {
			return "", false
		}
		return s, true
	default:
		return "", false
	}
}

func sanitizeFormatField(o rawOpt) JSONValue {
	if !o.present {
		return nil
	}
	if JSONIsEmpty(o.value) {
		return nil
	}
	return CloneJSON(o.value)
}

func sanitizeFormatMap(o rawOpt) map[string]JSONValue {
	if !o.present {
		return nil
	}
	m, ok := o.value.(map[string]interface{})
	if !ok {
		return nil
	}
	out := map[string]JSONValue{}
	for k, v := range m {
		key := indexKey(k)
		if key == "" || JSONIsEmpty(v) {
			continue
		}
		out[key] = CloneJSON(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sanitizeFormatRuns(o rawOpt) map[string][]FormatRun {
	if !o.present {
		return nil
	}
	out := map[string][]FormatRun{}
	addCol := func(col interface{}, rawRuns interface{}) {
		key := indexKey(col)
		if key == "" {
			return
		}
		list, ok := rawRuns.([]interface{})
		if !ok {
			return
		}
		runs := sanitizeRunList(list)
		out[key] = runs // preserve explicit empty lists
	}
	switch v := o.value.(type) {
	case map[string]interface{}:
		for k, val := range v {
			addCol(k, val)
		}
	case []interface{}:
		for _, entry := range v {
			switch e := entry.(type) {
			case map[string]interface{}:
				addCol(e["col"], e["runs"])
			case []interface{}:
				if len(e) == 2 {
					addCol(e[0], e[1])
				}
			}
		}
	}
	return out
}

func sanitizeRunList(list []interface{}) []FormatRun {
	runs := []FormatRun{}
	for _, entry := range list {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		start, ok1 := asFiniteFloat(m["startRow"])
		end, ok2 := asFiniteFloat(m["endRowExclusive"])
		if !ok1 || !ok2 || start != math.Trunc(start) || end != math.Trunc(end) {
			continue
		}
		if int(start) >= int(end) {
			continue
		}
		if JSONIsEmpty(m["format"]) {
			continue
		}
		runs = append(runs, FormatRun{StartRow: int(start), EndRowExclusive: int(end), Format: CloneJSON(m["format"])})
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartRow < runs[j].StartRow })
	return runs
}

func sanitizeVisibility(o rawOpt) *Visibility {
	if !o.present {
		return nil
	}
	s, ok := o.value.(string)
	if !ok || !validVisibility(s) {
		return nil
	}
	v := Visibility(s)
	return &v
}

var hexDigits = "0123456789ABCDEFabcdef"

func sanitizeTabColor(o rawOpt) NullableString {
	if !o.present {
		return NullableString{}
	}
	if o.value == nil {
		return NullableString{Set: true, Value: nil}
	}
	s, ok := o.value.(string)
	if !ok || len(s) != 8 || !isHex(s) {
		return NullableString{}
	}
	upper := strings.ToUpper(s)
	return NullableString{Set: true, Value: &upper}
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(hexDigits, r) {
			return false
		}
	}
	return true
}
