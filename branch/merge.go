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

package branch

import (
	"context"

	"go.uber.org/zap"

	"github.com/wilson-anysphere/cellvc/internal/cvcerr"
	"github.com/wilson-anysphere/cellvc/merge"
	"github.com/wilson-anysphere/cellvc/patch"
	"github.com/wilson-anysphere/cellvc/sheet"
	"github.com/wilson-anysphere/cellvc/store"
)

// PreviewResult is what PreviewMerge hands back: the three-way merge's
// output plus the three commit ids it was computed from, so a caller can
// pass the same base/ours/theirs straight through to Merge without
// recomputing the common ancestor.
type PreviewResult struct {
	MergeResult merge.Result
	BaseCommit  string
	OursCommit  string
	TheirsCommit string
}

// commonAncestor finds the best-common-ancestor commit of ours and theirs
// by a two-phase breadth walk along first-parent and merge-parent links
// (spec §4.9): phase one records the minimum depth of every ancestor of
// ours; phase two walks theirs's ancestors computing depth_ours+depth_theirs
// for every commit seen in phase one, keeping the lowest-scoring commit,
// first one seen breaking ties. This is a best-common-ancestor search, not
// a strict lowest-common-ancestor one, matching dolt's own history-walking
// merge-base code for a DAG with only two parents per node.
func (s *Service) commonAncestor(ctx context.Context, oursCommit, theirsCommit string) (string, error) {
	oursDepth := make(map[string]int)

	type frame struct {
		id    string
		depth int
	}
	queue := []frame{{oursCommit, 0}}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if d, seen := oursDepth[f.id]; seen && d <= f.depth {
			continue
		}
		oursDepth[f.id] = f.depth
		c, err := s.Store.GetCommit(ctx, s.DocID, f.id)
		if err != nil {
			return "", cvcerr.Wrap(cvcerr.CorruptHistory, f.id, err)
		}
		if c.ParentCommitID != "" {
			queue = append(queue, frame{c.ParentCommitID, f.depth + 1})
		}
		if c.MergeParentCommitID != "" {
			queue = append(queue, frame{c.MergeParentCommitID, f.depth + 1})
		}
	}

	var best string
	bestScore := -1
	theirsSeen := make(map[string]bool)
	queue = []frame{{theirsCommit, 0}}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if theirsSeen[f.id] {
			continue
		}
		theirsSeen[f.id] = true
		if od, ok := oursDepth[f.id]; ok {
			score := od + f.depth
			if bestScore == -1 || score < bestScore {
				bestScore = score
				best = f.id
			}
		}
		c, err := s.Store.GetCommit(ctx, s.DocID, f.id)
		if err != nil {
			return "", cvcerr.Wrap(cvcerr.CorruptHistory, f.id, err)
		}
		if c.ParentCommitID != "" {
			queue = append(queue, frame{c.ParentCommitID, f.depth + 1})
		}
		if c.MergeParentCommitID != "" {
			queue = append(queue, frame{c.MergeParentCommitID, f.depth + 1})
		}
	}

	if best == "" {
		return "", cvcerr.Newf(cvcerr.CorruptHistory, oursCommit, "no common ancestor between %q and %q", oursCommit, theirsCommit)
	}
	return best, nil
}

// PreviewMerge computes, but does not apply, the three-way merge of
// sourceBranch into the currently checked-out branch. An ungated read: it
// mutates nothing.
func (s *Service) PreviewMerge(ctx context.Context, sourceBranch string) (PreviewResult, error) {
	destBranchName, err := s.Store.GetCurrentBranchName(ctx, s.DocID)
	if err != nil {
		return PreviewResult{}, err
	}
	dest, err := s.Store.GetBranch(ctx, s.DocID, destBranchName)
	if err != nil {
		return PreviewResult{}, err
	}
	src, err := s.Store.GetBranch(ctx, s.DocID, sourceBranch)
	if err != nil {
		return PreviewResult{}, err
	}

	baseCommit, err := s.commonAncestor(ctx, dest.HeadCommitID, src.HeadCommitID)
	if err != nil {
		return PreviewResult{}, err
	}

	baseState, err := s.Store.GetDocumentStateAtCommit(ctx, s.DocID, baseCommit)
	if err != nil {
		return PreviewResult{}, err
	}
	oursState, err := s.Store.GetDocumentStateAtCommit(ctx, s.DocID, dest.HeadCommitID)
	if err != nil {
		return PreviewResult{}, err
	}
	theirsState, err := s.Store.GetDocumentStateAtCommit(ctx, s.DocID, src.HeadCommitID)
	if err != nil {
		return PreviewResult{}, err
	}

	return PreviewResult{
		MergeResult:  merge.Merge(baseState, oursState, theirsState),
		BaseCommit:   baseCommit,
		OursCommit:   dest.HeadCommitID,
		TheirsCommit: src.HeadCommitID,
	}, nil
}

// Merge requires owner/admin (same gate as CheckoutBranch/CreateBranch: it
// advances the checked-out branch's head). preview must be the result of a
// prior PreviewMerge call against the same two branches; resolutions must
// cover every one of preview.MergeResult.Conflicts, or Merge fails rather
// than silently committing an unresolved divergence (spec §4.9 and §4.6 —
// merge.ApplyResolutions itself tolerates a partial resolution list, so
// this completeness check has to live here).
func (s *Service) Merge(ctx context.Context, actor store.Actor, preview PreviewResult, resolutions []merge.Resolution, message string) (store.Commit, sheet.DocumentState, error) {
	if err := requireRole(actor, store.RoleAdmin); err != nil {
		return store.Commit{}, sheet.DocumentState{}, err
	}

	resolved := make(map[int]bool, len(resolutions))
	for _, r := range resolutions {
		resolved[r.ConflictIndex] = true
	}
	for i := range preview.MergeResult.Conflicts {
		if !resolved[i] {
			return store.Commit{}, sheet.DocumentState{}, cvcerr.Newf(cvcerr.MergeUnresolvedConflicts, "", "conflict %d has no resolution", i)
		}
	}

	finalState, err := merge.ApplyResolutions(preview.MergeResult, resolutions)
	if err != nil {
		return store.Commit{}, sheet.DocumentState{}, err
	}

	branchName, err := s.Store.GetCurrentBranchName(ctx, s.DocID)
	if err != nil {
		return store.Commit{}, sheet.DocumentState{}, err
	}
	oursState, err := s.Store.GetDocumentStateAtCommit(ctx, s.DocID, preview.OursCommit)
	if err != nil {
		return store.Commit{}, sheet.DocumentState{}, err
	}

	p := patch.Diff(oursState, finalState)
	commit, err := s.Store.CreateCommit(ctx, store.CreateCommitInput{
		DocID:               s.DocID,
		ParentCommitID:      preview.OursCommit,
		MergeParentCommitID: preview.TheirsCommit,
		CreatedBy:           actor,
		CreatedAt:           s.clock(),
		Message:             message,
		Patch:               p,
		NextState:           finalState,
	})
	if err != nil {
		return store.Commit{}, sheet.DocumentState{}, err
	}
	if err := s.Store.UpdateBranchHead(ctx, s.DocID, branchName, commit.ID); err != nil {
		return store.Commit{}, sheet.DocumentState{}, err
	}
	s.logger.Info("merge", zap.String("docId", s.DocID), zap.String("branch", branchName), zap.String("commit", commit.ID))
	return commit, finalState, nil
}
