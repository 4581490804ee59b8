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

func TestDetectMovesSimpleRelocation(t *testing.T) {
	base := CellMap{"A1": {Kind: KindValue, Value: "x"}}
	next := CellMap{"B2": {Kind: KindValue, Value: "x"}}

	moves := DetectMoves(base, next)
	require.Equal(t, map[string]string{"A1": "B2"}, moves)
}

func TestDetectMovesIgnoresEditedCells(t *testing.T) {
	base := CellMap{"A1": {Kind: KindValue, Value: "x"}}
	next := CellMap{"A1": {Kind: KindValue, Value: "y"}}

	moves := DetectMoves(base, next)
	require.Empty(t, moves)
}

func TestDetectMovesResolvesCollisionsLexicographically(t *testing.T) {
	base := CellMap{
		"A1": {Kind: KindValue, Value: "x"},
		"A2": {Kind: KindValue, Value: "x"},
	}
	next := CellMap{
		"C3": {Kind: KindValue, Value: "x"},
		"B2": {Kind: KindValue, Value: "x"},
	}

	moves := DetectMoves(base, next)
	require.Equal(t, map[string]string{"A1": "B2", "A2": "C3"}, moves)
}

func TestDetectMovesNoSpuriousPairingWhenContentDiffers(t *testing.T) {
	base := CellMap{"A1": {Kind: KindValue, Value: "x"}}
	next := CellMap{"B2": {Kind: KindValue, Value: "different"}}

	moves := DetectMoves(base, next)
	require.Empty(t, moves)
}
