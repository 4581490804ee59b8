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
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wilson-anysphere/cellvc/branchref"
	"github.com/wilson-anysphere/cellvc/internal/cvcerr"
	"github.com/wilson-anysphere/cellvc/sheet"
	"github.com/wilson-anysphere/cellvc/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st := store.NewMemoryStore(store.Config{Clock: func() time.Time { return time.Unix(0, 0) }})
	return NewService(st, "doc1", Config{Clock: func() time.Time { return time.Unix(0, 0) }})
}

var owner = store.Actor{ID: "owner", Role: store.RoleOwner}
var editor = store.Actor{ID: "editor", Role: store.RoleEditor}
var viewer = store.Actor{ID: "viewer", Role: store.RoleViewer}

func TestInitRequiresAdminOnFreshDocument(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	err := s.Init(ctx, viewer, sheet.Empty())
	require.Error(t, err)
	kind, ok := cvcerr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, cvcerr.PermissionDenied, kind)

	require.NoError(t, s.Init(ctx, owner, sheet.Empty()))
}

func TestInitIsIdempotentAndUngatedAfterFirstCall(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, owner, sheet.Empty()))
	// A second call against an existing document does not require admin.
	require.NoError(t, s.Init(ctx, viewer, sheet.Empty()))
}

func TestCreateBranchRequiresAdmin(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, owner, sheet.Empty()))

	_, err := s.CreateBranch(ctx, editor, "feature", "")
	require.Error(t, err)

	b, err := s.CreateBranch(ctx, owner, "feature", "")
	require.NoError(t, err)
	require.Equal(t, "feature", b.Name)
}

func TestDeleteBranchRefusesMainAndCurrent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, owner, sheet.Empty()))

	err := s.DeleteBranch(ctx, owner, branchref.Main)
	require.Error(t, err)
	kind, _ := cvcerr.KindOf(err)
	require.Equal(t, cvcerr.BranchIsMain, kind)

	_, err = s.CreateBranch(ctx, owner, "feature", "")
	require.NoError(t, err)
	_, err = s.CheckoutBranch(ctx, owner, "feature")
	require.NoError(t, err)

	err = s.DeleteBranch(ctx, owner, "feature")
	require.Error(t, err)
	kind, _ = cvcerr.KindOf(err)
	require.Equal(t, cvcerr.BranchIsCurrent, kind)
}

func TestCommitRequiresEditor(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, owner, sheet.Empty()))

	_, err := s.Commit(ctx, viewer, sheet.Empty(), "no-op")
	require.Error(t, err)
	kind, _ := cvcerr.KindOf(err)
	require.Equal(t, cvcerr.PermissionDenied, kind)
}

func TestCommitAdvancesCurrentBranchHead(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, owner, sheet.Empty()))

	before, err := s.GetCurrentBranch(ctx)
	require.NoError(t, err)

	next := oneCellDocState("A1", "hello")
	commit, err := s.Commit(ctx, editor, next, "add A1")
	require.NoError(t, err)

	after, err := s.GetCurrentBranch(ctx)
	require.NoError(t, err)
	require.Equal(t, commit.ID, after.HeadCommitID)
	require.NotEqual(t, before.HeadCommitID, after.HeadCommitID)

	state, err := s.GetCurrentState(ctx)
	require.NoError(t, err)
	require.Equal(t, "hello", state.Cells["s1"]["A1"].Value)
}

func TestCommitOverlaysLegacyPartialPayload(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, owner, sheet.Empty()))

	_, err := s.Commit(ctx, editor, oneCellDocState("A1", "v1"), "seed")
	require.NoError(t, err)

	// A legacy payload carrying only "cells", omitting sheets/metadata/etc
	// entirely, must not wipe out the sheet metadata or keyed maps that a
	// current client always sends.
	legacy := map[string]interface{}{
		"cells": map[string]interface{}{
			"s1": map[string]interface{}{"A1": map[string]interface{}{"value": "v2"}},
		},
	}
	_, err = s.Commit(ctx, editor, legacy, "legacy client edit")
	require.NoError(t, err)

	state, err := s.GetCurrentState(ctx)
	require.NoError(t, err)
	require.Equal(t, "v2", state.Cells["s1"]["A1"].Value)
	_, hasMeta := state.Sheets.MetaByID["s1"]
	require.True(t, hasMeta, "legacy payload must not have dropped sheet metadata it never mentioned")
}

func oneCellDocState(addr, v string) sheet.DocumentState {
	name := "s1"
	return sheet.Normalize(sheet.DocumentState{
		SchemaVersion: 1,
		Sheets: sheet.SheetsCollection{
			Order:    []string{"s1"},
			MetaByID: map[string]sheet.SheetMeta{"s1": {ID: "s1", DisplayName: &name}},
		},
		Cells: map[string]sheet.CellMap{"s1": {addr: {Kind: sheet.KindValue, Value: v}}},
	})
}
