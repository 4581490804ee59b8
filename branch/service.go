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

// Package branch implements the orchestration layer (spec §4.9): permission
// gating, the commit path (with legacy-client overlay), common-ancestor
// discovery, and the preview/merge flow. It is the one layer above the store
// that performs synchronous I/O; every function here but the store calls it
// makes is a pure computation over the sheet/patch/merge packages.
package branch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wilson-anysphere/cellvc/branchref"
	"github.com/wilson-anysphere/cellvc/internal/cvcerr"
	"github.com/wilson-anysphere/cellvc/sheet"
	"github.com/wilson-anysphere/cellvc/store"
)

// Config configures a Service (ambient-stack convention: explicit config
// object, not package globals). Zero-value fields default to time.Now and a
// no-op logger.
type Config struct {
	Clock  func() time.Time
	Logger *zap.Logger
}

// Service is the per-document orchestration façade over a Store (spec §4.9).
// It is not safe for concurrent calls against the same DocID beyond what the
// underlying Store itself serializes (spec §5: the branch service is the
// logical single-threaded boundary, not an additional lock).
type Service struct {
	Store  store.Store
	DocID  string
	clock  func() time.Time
	logger *zap.Logger
}

// NewService builds a Service bound to one document in st.
func NewService(st store.Store, docID string, cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{Store: st, DocID: docID, clock: cfg.Clock, logger: cfg.Logger}
}

func requireRole(actor store.Actor, min store.Role) error {
	if actor.Role.AtLeast(min) {
		return nil
	}
	return cvcerr.Newf(cvcerr.PermissionDenied, actor.ID, "role %s does not meet the required %s", actor.Role, min)
}

// Init creates the document's root commit and main branch on first call; a
// no-op on an already-initialized document (spec §4.9's permission rule:
// owner/admin required only on the fresh-document path).
func (s *Service) Init(ctx context.Context, actor store.Actor, initialState interface{}) error {
	exists, err := s.Store.HasDocument(ctx, s.DocID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := requireRole(actor, store.RoleAdmin); err != nil {
		return err
	}
	return s.Store.EnsureDocument(ctx, s.DocID, actor, normalizeInput(initialState))
}

// ListBranches is an ungated read.
func (s *Service) ListBranches(ctx context.Context) ([]store.Branch, error) {
	return s.Store.ListBranches(ctx, s.DocID)
}

// GetCurrentBranch is an ungated read.
func (s *Service) GetCurrentBranch(ctx context.Context) (store.Branch, error) {
	name, err := s.Store.GetCurrentBranchName(ctx, s.DocID)
	if err != nil {
		return store.Branch{}, err
	}
	return s.Store.GetBranch(ctx, s.DocID, name)
}

// GetCurrentState is an ungated read.
func (s *Service) GetCurrentState(ctx context.Context) (sheet.DocumentState, error) {
	b, err := s.GetCurrentBranch(ctx)
	if err != nil {
		return sheet.DocumentState{}, err
	}
	return s.Store.GetDocumentStateAtCommit(ctx, s.DocID, b.HeadCommitID)
}

// CreateBranch requires owner/admin.
func (s *Service) CreateBranch(ctx context.Context, actor store.Actor, name, description string) (store.Branch, error) {
	if err := requireRole(actor, store.RoleAdmin); err != nil {
		return store.Branch{}, err
	}
	if err := branchref.Validate(name); err != nil {
		return store.Branch{}, cvcerr.Wrap(cvcerr.InvalidInput, name, err)
	}
	cur, err := s.GetCurrentBranch(ctx)
	if err != nil {
		return store.Branch{}, err
	}
	b, err := s.Store.CreateBranch(ctx, s.DocID, name, description, cur.HeadCommitID)
	if err == nil {
		s.logger.Info("branch created", zap.String("docId", s.DocID), zap.String("branch", name))
	}
	return b, err
}

// RenameBranch requires owner/admin.
func (s *Service) RenameBranch(ctx context.Context, actor store.Actor, oldName, newName string) error {
	if err := requireRole(actor, store.RoleAdmin); err != nil {
		return err
	}
	if err := branchref.Validate(newName); err != nil {
		return cvcerr.Wrap(cvcerr.InvalidInput, newName, err)
	}
	if err := s.Store.RenameBranch(ctx, s.DocID, oldName, newName); err != nil {
		return err
	}
	cur, err := s.Store.GetCurrentBranchName(ctx, s.DocID)
	if err == nil && cur == oldName {
		_ = s.Store.SetCurrentBranchName(ctx, s.DocID, newName)
	}
	return nil
}

// DeleteBranch requires owner/admin and refuses to delete main or the
// currently checked-out branch (spec §6's deleteBranch error table).
func (s *Service) DeleteBranch(ctx context.Context, actor store.Actor, name string) error {
	if err := requireRole(actor, store.RoleAdmin); err != nil {
		return err
	}
	if name == branchref.Main {
		return cvcerr.Newf(cvcerr.BranchIsMain, name, "the %q branch cannot be deleted", name)
	}
	cur, err := s.Store.GetCurrentBranchName(ctx, s.DocID)
	if err != nil {
		return err
	}
	if cur == name {
		return cvcerr.Newf(cvcerr.BranchIsCurrent, name, "branch %q is checked out and cannot be deleted", name)
	}
	return s.Store.DeleteBranch(ctx, s.DocID, name)
}

// CheckoutBranch requires owner/admin and returns the branch's current
// state.
func (s *Service) CheckoutBranch(ctx context.Context, actor store.Actor, name string) (sheet.DocumentState, error) {
	if err := requireRole(actor, store.RoleAdmin); err != nil {
		return sheet.DocumentState{}, err
	}
	b, err := s.Store.GetBranch(ctx, s.DocID, name)
	if err != nil {
		return sheet.DocumentState{}, err
	}
	if err := s.Store.SetCurrentBranchName(ctx, s.DocID, name); err != nil {
		return sheet.DocumentState{}, err
	}
	return s.Store.GetDocumentStateAtCommit(ctx, s.DocID, b.HeadCommitID)
}
