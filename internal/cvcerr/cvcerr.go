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

// Package cvcerr defines the error-kind catalog shared by the branch
// service and conflict resolver. Every error the core returns to a caller
// wraps one of these kinds so callers can switch on Kind() instead of
// string-matching messages.
package cvcerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies a class of failure. See SPEC_FULL.md's error kind catalog.
type Kind string

const (
	PermissionDenied          Kind = "permission-denied"
	BranchNotFound             Kind = "branch-not-found"
	BranchNameConflict         Kind = "branch-name-conflict"
	BranchIsMain               Kind = "branch-is-main"
	BranchIsCurrent            Kind = "branch-is-current"
	CommitNotFound             Kind = "commit-not-found"
	CorruptHistory             Kind = "corrupt-history"
	MergeUnresolvedConflicts   Kind = "merge-unresolved-conflicts"
	MergeUnknownConflictIndex Kind = "merge-unknown-conflict-index"
	MergeMissingDestination    Kind = "merge-missing-destination"
	MergeInvalidManualPayload  Kind = "merge-invalid-manual-payload"
	InvalidInput               Kind = "invalid-input"
)

// Error is a cvcerr-kinded error. It wraps an underlying cause (if any) and
// carries the offending subject (a branch name, commit id, conflict index,
// and so on) for display.
type Error struct {
	kind    Kind
	subject string
	cause   error
}

// New builds a cvcerr.Error with no subject.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, cause: errors.New(message)}
}

// Newf builds a cvcerr.Error with a subject formatted into the message.
func Newf(kind Kind, subject string, format string, args ...interface{}) *Error {
	return &Error{kind: kind, subject: subject, cause: errors.Errorf(format, args...)}
}

// Wrap attaches a kind to an existing error without losing its cause chain.
func Wrap(kind Kind, subject string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{kind: kind, subject: subject, cause: cause}
}

func (e *Error) Error() string {
	if e.subject == "" {
		return e.cause.Error()
	}
	return fmt.Sprintf("%s: %s", e.subject, e.cause.Error())
}

// Unwrap lets errors.Is / errors.As see through to the cause.
func (e *Error) Unwrap() error { return e.cause }

// Kind returns the error's class.
func (e *Error) Kind() Kind { return e.kind }

// Subject returns the offending identifier, if any (branch name, commit id,
// conflict index as a string, etc).
func (e *Error) Subject() string { return e.subject }

// KindOf extracts the Kind from err if it (or something it wraps) is a
// *Error, and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.kind, true
	}
	return "", false
}
