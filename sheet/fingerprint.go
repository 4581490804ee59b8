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
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is a stable, content-addressed digest of a cell's content
// (value/formula/encryption, not format). It is the basis of move
// detection (spec §4.3): two cells with the same fingerprint are
// candidates for a delete+insert being really a relocation.
type Fingerprint uint64

// CellFingerprint hashes the content-equality-relevant fields of a
// normalized cell with xxhash, dolt's own content-addressing hash
// (go.mod direct dependency), so fingerprints are cheap to compute over an
// entire sheet.
func CellFingerprint(c Cell) Fingerprint {
	nc := NormalizeCell(c)
	h := xxhash.New()
	switch nc.Kind {
	case KindEmpty:
		h.WriteString("E")
	case KindValue:
		h.WriteString("V")
		h.WriteString(fmt.Sprintf("%T:%v", nc.Value, nc.Value))
	case KindFormula:
		h.WriteString("F")
		h.WriteString(nc.Formula)
	case KindEncrypted:
		h.WriteString("X")
		h.WriteString(nc.Encrypted.Marker)
		h.WriteString(strconv.Itoa(len(nc.Encrypted.Blob)))
		h.Write(nc.Encrypted.Blob)
	}
	return Fingerprint(h.Sum64())
}
