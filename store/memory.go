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

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wilson-anysphere/cellvc/internal/cvcerr"
	"github.com/wilson-anysphere/cellvc/patch"
	"github.com/wilson-anysphere/cellvc/sheet"
)

type commitRecord struct {
	commit               Commit
	distanceFromSnapshot int // 0 when commit.Snapshot != nil
}

type document struct {
	branches      map[string]*Branch
	currentBranch string
	commits       map[string]*commitRecord
}

// MemoryStore is the in-memory reference implementation of Store (spec
// §4.7/§4.8). It is safe for concurrent use; every method takes a single
// mutex for the duration of the call, matching the "serialize at the
// updateBranchHead boundary" model in spec §5 (a single process-wide lock is
// a stricter serialization than the spec requires, which this reference
// implementation accepts in exchange for trivial correctness).
type MemoryStore struct {
	mu     sync.Mutex
	docs   map[string]*document
	clock  func() time.Time
	ids    IDGenerator
	policy SnapshotPolicy
	logger *zap.Logger
}

// Config configures a MemoryStore. Zero-value fields fall back to
// time.Now, UUIDGenerator, DefaultSnapshotPolicy, and zap.NewNop()
// respectively (ambient-stack convention: explicit config object injected at
// construction, never package-level globals).
type Config struct {
	Clock          func() time.Time
	IDs            IDGenerator
	SnapshotPolicy SnapshotPolicy
	Logger         *zap.Logger
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore(cfg Config) *MemoryStore {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.IDs == nil {
		cfg.IDs = UUIDGenerator{}
	}
	if cfg.SnapshotPolicy == (SnapshotPolicy{}) {
		cfg.SnapshotPolicy = DefaultSnapshotPolicy
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &MemoryStore{
		docs:   map[string]*document{},
		clock:  cfg.Clock,
		ids:    cfg.IDs,
		policy: cfg.SnapshotPolicy,
		logger: cfg.Logger,
	}
}

func (s *MemoryStore) doc(docID string) (*document, error) {
	d, ok := s.docs[docID]
	if !ok {
		return nil, cvcerr.Newf(cvcerr.InvalidInput, docID, "document %q does not exist", docID)
	}
	return d, nil
}

func (s *MemoryStore) EnsureDocument(ctx context.Context, docID string, actor Actor, initialState sheet.DocumentState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[docID]; ok {
		return nil // idempotent
	}

	normalized := sheet.Normalize(initialState)
	rootPatch := patch.Diff(sheet.Empty(), normalized)
	snap := sheet.CloneState(normalized)
	root := &commitRecord{
		commit: Commit{
			ID:        s.ids.NewID(),
			DocID:     docID,
			CreatedBy: actor,
			CreatedAt: s.clock(),
			Message:   "root",
			Patch:     rootPatch,
			Snapshot:  &snap,
		},
	}

	d := &document{
		branches:      map[string]*Branch{},
		currentBranch: "main",
		commits:       map[string]*commitRecord{root.commit.ID: root},
	}
	d.branches["main"] = &Branch{Name: "main", HeadCommitID: root.commit.ID}
	s.docs[docID] = d

	s.logger.Info("document initialized", zap.String("docId", docID), zap.String("rootCommit", root.commit.ID))
	return nil
}

func (s *MemoryStore) HasDocument(ctx context.Context, docID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[docID]
	return ok, nil
}

func (s *MemoryStore) GetBranch(ctx context.Context, docID, name string) (Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc(docID)
	if err != nil {
		return Branch{}, err
	}
	b, ok := d.branches[name]
	if !ok {
		return Branch{}, cvcerr.Newf(cvcerr.BranchNotFound, name, "branch %q not found", name)
	}
	return *b, nil
}

func (s *MemoryStore) ListBranches(ctx context.Context, docID string) ([]Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc(docID)
	if err != nil {
		return nil, err
	}
	out := make([]Branch, 0, len(d.branches))
	for _, b := range d.branches {
		out = append(out, *b)
	}
	return out, nil
}

func (s *MemoryStore) CreateBranch(ctx context.Context, docID, name, description, headCommitID string) (Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc(docID)
	if err != nil {
		return Branch{}, err
	}
	if _, ok := d.branches[name]; ok {
		return Branch{}, cvcerr.Newf(cvcerr.BranchNameConflict, name, "branch %q already exists", name)
	}
	if _, ok := d.commits[headCommitID]; !ok {
		return Branch{}, cvcerr.Newf(cvcerr.CommitNotFound, headCommitID, "commit %q not found", headCommitID)
	}
	b := &Branch{Name: name, Description: description, HeadCommitID: headCommitID}
	d.branches[name] = b
	s.logger.Info("branch created", zap.String("docId", docID), zap.String("branch", name))
	return *b, nil
}

func (s *MemoryStore) RenameBranch(ctx context.Context, docID, oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc(docID)
	if err != nil {
		return err
	}
	b, ok := d.branches[oldName]
	if !ok {
		return cvcerr.Newf(cvcerr.BranchNotFound, oldName, "branch %q not found", oldName)
	}
	if _, taken := d.branches[newName]; taken {
		return cvcerr.Newf(cvcerr.BranchNameConflict, newName, "branch %q already exists", newName)
	}
	delete(d.branches, oldName)
	b.Name = newName
	d.branches[newName] = b
	if d.currentBranch == oldName {
		d.currentBranch = newName
	}
	return nil
}

func (s *MemoryStore) DeleteBranch(ctx context.Context, docID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc(docID)
	if err != nil {
		return err
	}
	if _, ok := d.branches[name]; !ok {
		return cvcerr.Newf(cvcerr.BranchNotFound, name, "branch %q not found", name)
	}
	delete(d.branches, name)
	return nil
}

func (s *MemoryStore) UpdateBranchHead(ctx context.Context, docID, name, newHeadCommitID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc(docID)
	if err != nil {
		return err
	}
	b, ok := d.branches[name]
	if !ok {
		return cvcerr.Newf(cvcerr.BranchNotFound, name, "branch %q not found", name)
	}
	if _, ok := d.commits[newHeadCommitID]; !ok {
		return cvcerr.Newf(cvcerr.CommitNotFound, newHeadCommitID, "commit %q not found", newHeadCommitID)
	}
	b.HeadCommitID = newHeadCommitID
	s.logger.Info("branch head advanced", zap.String("docId", docID), zap.String("branch", name), zap.String("commit", newHeadCommitID))
	return nil
}

func (s *MemoryStore) GetCurrentBranchName(ctx context.Context, docID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc(docID)
	if err != nil {
		return "", err
	}
	return d.currentBranch, nil
}

func (s *MemoryStore) SetCurrentBranchName(ctx context.Context, docID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc(docID)
	if err != nil {
		return err
	}
	if _, ok := d.branches[name]; !ok {
		return cvcerr.Newf(cvcerr.BranchNotFound, name, "branch %q not found", name)
	}
	d.currentBranch = name
	return nil
}

func (s *MemoryStore) CreateCommit(ctx context.Context, input CreateCommitInput) (Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc(input.DocID)
	if err != nil {
		return Commit{}, err
	}

	var distance int
	if input.ParentCommitID != "" {
		parent, ok := d.commits[input.ParentCommitID]
		if !ok {
			return Commit{}, cvcerr.Newf(cvcerr.CommitNotFound, input.ParentCommitID, "parent commit %q not found", input.ParentCommitID)
		}
		distance = parent.distanceFromSnapshot + 1
	}
	if input.MergeParentCommitID != "" {
		if _, ok := d.commits[input.MergeParentCommitID]; !ok {
			return Commit{}, cvcerr.Newf(cvcerr.CommitNotFound, input.MergeParentCommitID, "merge parent commit %q not found", input.MergeParentCommitID)
		}
	}

	patchBytes, _ := json.Marshal(input.Patch)
	rec := &commitRecord{
		commit: Commit{
			ID:                   s.ids.NewID(),
			DocID:                input.DocID,
			ParentCommitID:       input.ParentCommitID,
			MergeParentCommitID:  input.MergeParentCommitID,
			CreatedBy:            input.CreatedBy,
			CreatedAt:            input.CreatedAt,
			Message:              input.Message,
			Patch:                input.Patch,
		},
	}

	if input.ParentCommitID == "" || s.policy.ShouldSnapshot(distance, len(patchBytes)) {
		snap := sheet.CloneState(input.NextState)
		rec.commit.Snapshot = &snap
		rec.distanceFromSnapshot = 0
		s.logger.Debug("commit snapshotted", zap.String("docId", input.DocID), zap.Int("distance", distance), zap.Int("patchBytes", len(patchBytes)))
	} else {
		rec.distanceFromSnapshot = distance
	}

	d.commits[rec.commit.ID] = rec
	s.logger.Info("commit created", zap.String("docId", input.DocID), zap.String("commit", rec.commit.ID), zap.String("parent", input.ParentCommitID))
	return rec.commit, nil
}

func (s *MemoryStore) GetCommit(ctx context.Context, docID, commitID string) (Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc(docID)
	if err != nil {
		return Commit{}, err
	}
	rec, ok := d.commits[commitID]
	if !ok {
		return Commit{}, cvcerr.Newf(cvcerr.CommitNotFound, commitID, "commit %q not found", commitID)
	}
	return rec.commit, nil
}

// GetDocumentStateAtCommit walks the first-parent chain back to the nearest
// snapshot (spec §4.8) and replays patches forward. Deterministic: it is a
// pure function of the stored commit graph.
func (s *MemoryStore) GetDocumentStateAtCommit(ctx context.Context, docID, commitID string) (sheet.DocumentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.doc(docID)
	if err != nil {
		return sheet.DocumentState{}, err
	}

	var chain []*commitRecord
	cur := commitID
	for {
		rec, ok := d.commits[cur]
		if !ok {
			return sheet.DocumentState{}, cvcerr.Newf(cvcerr.CorruptHistory, cur, "commit %q referenced but not found", cur)
		}
		chain = append(chain, rec)
		if rec.commit.Snapshot != nil {
			break
		}
		if rec.commit.ParentCommitID == "" {
			break
		}
		cur = rec.commit.ParentCommitID
	}

	state := sheet.Empty()
	last := chain[len(chain)-1]
	if last.commit.Snapshot != nil {
		state = sheet.CloneState(*last.commit.Snapshot)
		chain = chain[:len(chain)-1]
	}
	for i := len(chain) - 1; i >= 0; i-- {
		state = patch.Apply(state, chain[i].commit.Patch)
	}
	return state, nil
}
