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
	"strings"

	"golang.org/x/text/cases"
)

// Kind discriminates the Cell variant described in spec §3.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindValue
	KindFormula
	KindEncrypted
)

// EncryptedPayload is an opaque encrypted cell body. The core never
// interprets Blob; it is treated like any other opaque byte string, per
// spec §1's "encrypted-cell cryptography" out-of-scope boundary.
type EncryptedPayload struct {
	Marker string
	Blob   []byte
}

func (e *EncryptedPayload) equal(o *EncryptedPayload) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.Marker == o.Marker && string(e.Blob) == string(o.Blob)
}

func (e *EncryptedPayload) clone() *EncryptedPayload {
	if e == nil {
		return nil
	}
	blob := make([]byte, len(e.Blob))
	copy(blob, e.Blob)
	return &EncryptedPayload{Marker: e.Marker, Blob: blob}
}

// Cell is a single addressed value, as described in spec §3. Value holds a
// float64, string, or bool when Kind == KindValue; Formula holds the
// canonical formula text (leading '=', trimmed) when Kind == KindFormula;
// Encrypted holds the opaque payload when Kind == KindEncrypted. Format is
// always optional regardless of Kind.
type Cell struct {
	Kind      Kind
	Value     interface{}
	Formula   string
	Encrypted *EncryptedPayload
	Format    JSONValue
}

// IsAbsent reports whether c is equivalent to an empty cell: no value, no
// formula, no format, and no encryption marker.
func (c Cell) IsAbsent() bool {
	return c.Kind == KindEmpty && JSONIsEmpty(c.Format)
}

// NormalizeCell enforces mutual exclusion (encryption > formula > value,
// per spec §4.2) and drops empty components, returning the canonical form
// of c. It never fails.
func NormalizeCell(c Cell) Cell {
	out := Cell{Format: normalizeFormat(c.Format)}

	switch {
	case c.Kind == KindEncrypted && c.Encrypted != nil && c.Encrypted.Marker != "":
		out.Kind = KindEncrypted
		out.Encrypted = c.Encrypted.clone()
	case c.Kind == KindFormula && strings.TrimSpace(c.Formula) != "":
		out.Kind = KindFormula
		out.Formula = CanonicalFormula(c.Formula)
	case c.Kind == KindValue && c.Value != nil:
		out.Kind = KindValue
		out.Value = c.Value
	}
	return out
}

func normalizeFormat(f JSONValue) JSONValue {
	if JSONIsEmpty(f) {
		return nil
	}
	return CloneJSON(f)
}

// CanonicalFormula trims a formula and ensures it carries a leading '='.
func CanonicalFormula(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "=") {
		trimmed = "=" + trimmed
	}
	return trimmed
}

var foldCaser = cases.Fold()

// semanticFormula produces a whitespace- and case-insensitive minimal
// canonical form of a formula, used only to decide "is this the same edit"
// during merge. It is intentionally cheap: full AST-equivalence checking is
// left to a pluggable formula engine, not this core (spec §4.2).
func semanticFormula(formula string) string {
	canon := CanonicalFormula(formula)
	if canon == "" {
		return ""
	}
	folded := foldCaser.String(canon)
	fields := strings.Fields(folded)
	return strings.Join(fields, "")
}

// EqualFull is structural deep-equality over the normalized cell: value,
// formula, format, and encryption must all match.
func EqualFull(a, b Cell) bool {
	na, nb := NormalizeCell(a), NormalizeCell(b)
	if na.Kind != nb.Kind {
		return false
	}
	if !JSONEqual(na.Format, nb.Format) {
		return false
	}
	switch na.Kind {
	case KindEmpty:
		return true
	case KindValue:
		return na.Value == nb.Value
	case KindFormula:
		return na.Formula == nb.Formula
	case KindEncrypted:
		return na.Encrypted.equal(nb.Encrypted)
	}
	return false
}

// EqualContent ignores format: it compares the encryption marker, else the
// formula text, else the literal value.
func EqualContent(a, b Cell) bool {
	na, nb := NormalizeCell(a), NormalizeCell(b)
	if na.Kind != nb.Kind {
		return false
	}
	switch na.Kind {
	case KindEmpty:
		return true
	case KindValue:
		return na.Value == nb.Value
	case KindFormula:
		return na.Formula == nb.Formula
	case KindEncrypted:
		return na.Encrypted.equal(nb.Encrypted)
	}
	return false
}

// EqualSemanticContent is like EqualContent but compares formulas using
// semanticFormula's (whitespace/case-insensitive) normalization,
// so "=SUM(A1:A2)" and "= sum( A1:A2 )" are the same edit for merge
// purposes (spec §4.2, required to resolve same-edit-on-both-sides without
// a false conflict).
func EqualSemanticContent(a, b Cell) bool {
	na, nb := NormalizeCell(a), NormalizeCell(b)
	if na.Kind != nb.Kind {
		return false
	}
	switch na.Kind {
	case KindEmpty:
		return true
	case KindValue:
		return na.Value == nb.Value
	case KindFormula:
		return semanticFormula(na.Formula) == semanticFormula(nb.Formula)
	case KindEncrypted:
		return na.Encrypted.equal(nb.Encrypted)
	}
	return false
}

// CloneCell deep-copies a normalized cell.
func CloneCell(c Cell) Cell {
	out := NormalizeCell(c)
	out.Format = CloneJSON(out.Format)
	out.Encrypted = out.Encrypted.clone()
	return out
}
