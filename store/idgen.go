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

package store

import "github.com/google/uuid"

// IDGenerator mints commit and branch-head identifiers. Injected rather than
// hardcoded so tests can supply a deterministic sequence (spec §8 property
// 3, commit determinism, needs identical inputs to produce identical
// patches; the id itself is allowed to vary run to run but a fixed generator
// makes test assertions on commit ids possible).
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator mints RFC 4122 v4 ids via github.com/google/uuid, the
// default used outside of tests.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }
