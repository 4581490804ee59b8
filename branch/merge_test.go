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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wilson-anysphere/cellvc/internal/cvcerr"
	"github.com/wilson-anysphere/cellvc/merge"
	"github.com/wilson-anysphere/cellvc/sheet"
)

func sheetValueCell(v string) sheet.Cell {
	return sheet.Cell{Kind: sheet.KindValue, Value: v}
}

func TestPreviewMergeAndMergeCleanTwoParentMerge(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, owner, oneCellDocState("A1", "base")))

	_, err := s.CreateBranch(ctx, owner, "feature", "")
	require.NoError(t, err)

	_, err = s.Commit(ctx, editor, oneCellDocState("A1", "on-main"), "main edit")
	require.NoError(t, err)

	_, err = s.CheckoutBranch(ctx, owner, "feature")
	require.NoError(t, err)
	featureState, err := s.GetCurrentState(ctx)
	require.NoError(t, err)
	featureState.Cells["s1"]["B1"] = sheetValueCell("on-feature")
	_, err = s.Commit(ctx, editor, featureState, "feature edit")
	require.NoError(t, err)

	_, err = s.CheckoutBranch(ctx, owner, "main")
	require.NoError(t, err)

	preview, err := s.PreviewMerge(ctx, "feature")
	require.NoError(t, err)
	require.Empty(t, preview.MergeResult.Conflicts)

	commit, finalState, err := s.Merge(ctx, owner, preview, nil, "merge feature")
	require.NoError(t, err)
	require.NotEmpty(t, commit.MergeParentCommitID)
	require.Equal(t, "on-main", finalState.Cells["s1"]["A1"].Value)
	require.Equal(t, "on-feature", finalState.Cells["s1"]["B1"].Value)
}

func TestMergeRequiresResolutionForEveryConflict(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, owner, oneCellDocState("A1", "base")))

	_, err := s.CreateBranch(ctx, owner, "feature", "")
	require.NoError(t, err)

	_, err = s.Commit(ctx, editor, oneCellDocState("A1", "main-edit"), "main edit")
	require.NoError(t, err)

	_, err = s.CheckoutBranch(ctx, owner, "feature")
	require.NoError(t, err)
	_, err = s.Commit(ctx, editor, oneCellDocState("A1", "feature-edit"), "feature edit")
	require.NoError(t, err)

	_, err = s.CheckoutBranch(ctx, owner, "main")
	require.NoError(t, err)

	preview, err := s.PreviewMerge(ctx, "feature")
	require.NoError(t, err)
	require.Len(t, preview.MergeResult.Conflicts, 1)

	_, _, err = s.Merge(ctx, owner, preview, nil, "merge feature")
	require.Error(t, err)
	kind, ok := cvcerr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, cvcerr.MergeUnresolvedConflicts, kind)

	commit, finalState, err := s.Merge(ctx, owner, preview, []merge.Resolution{
		{ConflictIndex: 0, Choice: merge.ChoiceTheirs},
	}, "merge feature, take theirs")
	require.NoError(t, err)
	require.NotEmpty(t, commit.ID)
	require.Equal(t, "feature-edit", finalState.Cells["s1"]["A1"].Value)
}

func TestMergeRequiresAdmin(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, owner, oneCellDocState("A1", "base")))
	_, err := s.CreateBranch(ctx, owner, "feature", "")
	require.NoError(t, err)

	preview, err := s.PreviewMerge(ctx, "feature")
	require.NoError(t, err)

	_, _, err = s.Merge(ctx, editor, preview, nil, "attempt")
	require.Error(t, err)
	kind, ok := cvcerr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, cvcerr.PermissionDenied, kind)
}
