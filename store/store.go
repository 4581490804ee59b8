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

// Package store defines the abstract commit/branch storage contract (spec
// §4.7) and ships an in-memory reference implementation. A real backend
// (embedded KV store, SQL table, object storage) is a collaborator; this
// package only fixes the interface and its invariants.
package store

import (
	"context"
	"time"

	"github.com/wilson-anysphere/cellvc/patch"
	"github.com/wilson-anysphere/cellvc/sheet"
)

// Role ranks an actor's permission level (spec §4.9, resolved open question
// on commenter/viewer ordering: owner > admin > editor > commenter >
// viewer, everything below editor gated out of every mutating operation).
type Role int

const (
	RoleViewer Role = iota
	RoleCommenter
	RoleEditor
	RoleAdmin
	RoleOwner
)

// AtLeast reports whether r meets or exceeds min in the role ranking.
func (r Role) AtLeast(min Role) bool { return r >= min }

func (r Role) String() string {
	switch r {
	case RoleViewer:
		return "viewer"
	case RoleCommenter:
		return "commenter"
	case RoleEditor:
		return "editor"
	case RoleAdmin:
		return "admin"
	case RoleOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// Actor identifies who performed an operation, for permission checks and
// commit attribution.
type Actor struct {
	ID   string
	Role Role
}

// Branch is a named pointer at a commit (spec §3/§4.7).
type Branch struct {
	Name         string
	Description  string
	HeadCommitID string
}

// Commit is one node in the document's commit graph (spec §3). ParentCommitID
// is empty only for the root commit. MergeParentCommitID is non-empty only
// for a two-parent merge commit. Snapshot is non-nil only on commits the
// snapshot policy (spec §4.8) chose to carry a full state on; it is a
// reconstruction shortcut, returned as part of the Commit by GetCommit.
type Commit struct {
	ID                   string
	DocID                string
	ParentCommitID       string
	MergeParentCommitID  string
	CreatedBy            Actor
	CreatedAt            time.Time
	Message              string
	Patch                patch.Patch
	Snapshot             *sheet.DocumentState
}

// CreateCommitInput is the payload for Store.CreateCommit (spec §4.7).
// NextState is the full resulting document state; the store uses it as a
// snapshot candidate under its snapshot policy, never as the thing actually
// diffed (the caller already computed Patch).
type CreateCommitInput struct {
	DocID                string
	ParentCommitID       string
	MergeParentCommitID  string
	CreatedBy            Actor
	CreatedAt            time.Time
	Message              string
	Patch                patch.Patch
	NextState            sheet.DocumentState
}

// Store is the abstract persistence contract (spec §4.7). Implementations
// must uphold:
//   - the root commit's parent chain terminates (ParentCommitID == "");
//   - GetDocumentStateAtCommit(root) == patch.Apply(sheet.Empty(), rootPatch);
//   - GetDocumentStateAtCommit is a deterministic, pure function of the
//     commit graph;
//   - UpdateBranchHead is atomic with respect to concurrent GetBranch reads
//     of the same branch.
type Store interface {
	EnsureDocument(ctx context.Context, docID string, actor Actor, initialState sheet.DocumentState) error
	HasDocument(ctx context.Context, docID string) (bool, error)

	GetBranch(ctx context.Context, docID, name string) (Branch, error)
	ListBranches(ctx context.Context, docID string) ([]Branch, error)
	CreateBranch(ctx context.Context, docID, name, description, headCommitID string) (Branch, error)
	RenameBranch(ctx context.Context, docID, oldName, newName string) error
	DeleteBranch(ctx context.Context, docID, name string) error
	UpdateBranchHead(ctx context.Context, docID, name, newHeadCommitID string) error

	GetCurrentBranchName(ctx context.Context, docID string) (string, error)
	SetCurrentBranchName(ctx context.Context, docID, name string) error

	CreateCommit(ctx context.Context, input CreateCommitInput) (Commit, error)
	GetCommit(ctx context.Context, docID, commitID string) (Commit, error)
	GetDocumentStateAtCommit(ctx context.Context, docID, commitID string) (sheet.DocumentState, error)
}
