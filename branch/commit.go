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

	"github.com/wilson-anysphere/cellvc/patch"
	"github.com/wilson-anysphere/cellvc/sheet"
	"github.com/wilson-anysphere/cellvc/store"
)

func normalizeInput(raw interface{}) sheet.DocumentState {
	if s, ok := raw.(sheet.DocumentState); ok {
		return sheet.Normalize(s)
	}
	return sheet.Normalize(raw)
}

// Commit requires owner/admin/editor. nextState may be a raw, possibly
// legacy or partial, client payload (anything sheet.Normalize accepts), not
// necessarily an already-normalized sheet.DocumentState.
func (s *Service) Commit(ctx context.Context, actor store.Actor, nextState interface{}, message string) (store.Commit, error) {
	if err := requireRole(actor, store.RoleEditor); err != nil {
		return store.Commit{}, err
	}

	branchName, err := s.Store.GetCurrentBranchName(ctx, s.DocID)
	if err != nil {
		return store.Commit{}, err
	}
	head, err := s.Store.GetBranch(ctx, s.DocID, branchName)
	if err != nil {
		return store.Commit{}, err
	}
	headState, err := s.Store.GetDocumentStateAtCommit(ctx, s.DocID, head.HeadCommitID)
	if err != nil {
		return store.Commit{}, err
	}

	normalizedNext := normalizeInput(nextState)
	effectiveNext := normalizedNext
	if isLegacyOrPartial(nextState) {
		effectiveNext = sheet.Normalize(overlayMissingFields(headState, normalizedNext, nextState))
		s.logger.Debug("legacy-or-partial commit payload overlaid with head state",
			zap.String("docId", s.DocID), zap.String("branch", branchName))
	}

	p := patch.Diff(headState, effectiveNext)
	commit, err := s.Store.CreateCommit(ctx, store.CreateCommitInput{
		DocID:          s.DocID,
		ParentCommitID: head.HeadCommitID,
		CreatedBy:      actor,
		CreatedAt:      s.clock(),
		Message:        message,
		Patch:          p,
		NextState:      effectiveNext,
	})
	if err != nil {
		return store.Commit{}, err
	}
	if err := s.Store.UpdateBranchHead(ctx, s.DocID, branchName, commit.ID); err != nil {
		return store.Commit{}, err
	}
	s.logger.Info("commit", zap.String("docId", s.DocID), zap.String("branch", branchName), zap.String("commit", commit.ID))
	return commit, nil
}

// isLegacyOrPartial reports whether raw looks like a legacy or partial
// payload missing a top-level section a current client always sends (spec
// §4.9's commit-path overlay rule). An already-typed sheet.DocumentState is
// never legacy: it's an internally produced, already-complete value.
func isLegacyOrPartial(raw interface{}) bool {
	if _, ok := raw.(sheet.DocumentState); ok {
		return false
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return true
	}
	if _, ok := m["cells"]; !ok {
		return true
	}
	sheetsRaw, ok := m["sheets"].(map[string]interface{})
	if !ok {
		return true
	}
	if _, ok := sheetsRaw["order"]; !ok {
		return true
	}
	if _, ok := sheetsRaw["metaById"]; !ok {
		return true
	}
	for _, key := range []string{"metadata", "namedRanges", "comments"} {
		if _, ok := m[key]; !ok {
			return true
		}
	}
	return false
}

// overlayMissingFields fills in, from base, whichever of next's top-level
// sections were entirely absent from raw (spec §4.9: "a key that is present
// but invalid is treated as omitted"  is already handled one level down, by
// sheet.Normalize's own tolerant decoding; this only restores sections a
// legacy client never knew to send at all). A present-but-null section other
// than sheets is left as next's own (already normalized) empty value,
// honoring an explicit clear; a sheets value that is not an object is taken
// from base like an absent one.
func overlayMissingFields(base, next sheet.DocumentState, raw interface{}) sheet.DocumentState {
	m, _ := raw.(map[string]interface{})
	baseClone := sheet.CloneState(base)
	out := next

	if _, ok := m["cells"]; !ok {
		out.Cells = baseClone.Cells
	}
	sheetsRaw, hasSheets := m["sheets"].(map[string]interface{})
	if !hasSheets {
		out.Sheets = baseClone.Sheets
	} else {
		if _, ok := sheetsRaw["order"]; !ok {
			out.Sheets.Order = append([]string(nil), baseClone.Sheets.Order...)
		}
		if _, ok := sheetsRaw["metaById"]; !ok {
			out.Sheets.MetaByID = baseClone.Sheets.MetaByID
		}
	}
	if _, ok := m["metadata"]; !ok {
		out.Metadata = baseClone.Metadata
	}
	if _, ok := m["namedRanges"]; !ok {
		out.NamedRanges = baseClone.NamedRanges
	}
	if _, ok := m["comments"]; !ok {
		out.Comments = baseClone.Comments
	}
	return out
}
