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

// SnapshotPolicy decides when a commit should carry a full-state snapshot
// rather than just its patch relative to its first parent (spec §4.8).
type SnapshotPolicy struct {
	// DistanceThreshold: take a snapshot once a commit is this many steps
	// (along the first-parent chain) past the nearest ancestor snapshot.
	DistanceThreshold int
	// SizeThresholdBytes: take a snapshot when the commit's serialized patch
	// exceeds this many bytes, regardless of distance.
	SizeThresholdBytes int
}

// DefaultSnapshotPolicy matches the "e.g. 50 commits" example in spec §4.8.
var DefaultSnapshotPolicy = SnapshotPolicy{
	DistanceThreshold:  50,
	SizeThresholdBytes: 256 * 1024,
}

// ShouldSnapshot reports whether a new commit at distanceFromSnapshot steps
// past the nearest snapshot, with a patch serialized to patchSizeBytes,
// should itself carry a snapshot.
func (p SnapshotPolicy) ShouldSnapshot(distanceFromSnapshot, patchSizeBytes int) bool {
	if p.DistanceThreshold > 0 && distanceFromSnapshot >= p.DistanceThreshold {
		return true
	}
	if p.SizeThresholdBytes > 0 && patchSizeBytes > p.SizeThresholdBytes {
		return true
	}
	return false
}
