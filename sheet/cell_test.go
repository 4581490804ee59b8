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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeCellMutualExclusion(t *testing.T) {
	c := NormalizeCell(Cell{
		Kind:      KindEncrypted,
		Encrypted: &EncryptedPayload{Marker: "aes-gcm", Blob: []byte("x")},
		Formula:   "=SUM(A1)",
		Value:     1.0,
	})
	require.Equal(t, KindEncrypted, c.Kind)
	require.Empty(t, c.Formula)
	require.Nil(t, c.Value)
}

func TestNormalizeCellFormulaCanonicalization(t *testing.T) {
	c := NormalizeCell(Cell{Kind: KindFormula, Formula: "  SUM(A1:A2)  "})
	require.Equal(t, "=SUM(A1:A2)", c.Formula)
}

func TestNormalizeCellEmptyFormulaDropsToEmpty(t *testing.T) {
	c := NormalizeCell(Cell{Kind: KindFormula, Formula: "   "})
	require.Equal(t, KindEmpty, c.Kind)
	require.True(t, c.IsAbsent())
}

func TestIsAbsentConsidersFormat(t *testing.T) {
	empty := Cell{}
	require.True(t, empty.IsAbsent())

	formatted := Cell{Format: map[string]interface{}{"bold": true}}
	require.False(t, formatted.IsAbsent())
}

func TestEqualContentIgnoresFormat(t *testing.T) {
	a := Cell{Kind: KindValue, Value: "x", Format: map[string]interface{}{"bold": true}}
	b := Cell{Kind: KindValue, Value: "x", Format: map[string]interface{}{"bold": false}}
	require.True(t, EqualContent(a, b))
	require.False(t, EqualFull(a, b))
}

func TestEqualSemanticContentIgnoresWhitespaceAndCase(t *testing.T) {
	a := Cell{Kind: KindFormula, Formula: "=SUM(A1:A2)"}
	b := Cell{Kind: KindFormula, Formula: "= sum( A1:A2 )"}
	require.False(t, EqualContent(a, b))
	require.True(t, EqualSemanticContent(a, b))
}

func TestCloneCellIsIndependent(t *testing.T) {
	orig := Cell{Kind: KindEncrypted, Encrypted: &EncryptedPayload{Marker: "m", Blob: []byte{1, 2, 3}}}
	clone := CloneCell(orig)
	clone.Encrypted.Blob[0] = 9
	require.Equal(t, byte(1), orig.Encrypted.Blob[0])
}
