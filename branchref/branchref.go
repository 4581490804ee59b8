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

// Package branchref validates and canonicalizes branch names. It is
// deliberately narrow: the core has exactly one kind of ref (a branch), not
// the branches/remotes/tags/workspaces sum type a full version-control
// system would need.
package branchref

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Main is the name of the branch that always exists and cannot be deleted.
const Main = "main"

// headsPrefix mirrors the refs/heads/<name> convention without exposing any
// ref kind other than branch.
const headsPrefix = "refs/heads/"

// Validate reports whether name is usable as a branch name: non-empty,
// no leading/trailing whitespace, no internal slashes, and no control
// characters.
func Validate(name string) error {
	if name == "" {
		return errors.New("branch name must not be empty")
	}
	if strings.TrimSpace(name) != name {
		return errors.New("branch name must not have leading or trailing whitespace")
	}
	if strings.ContainsAny(name, "/\\") || strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return errors.New("branch name must not contain a slash or control character")
	}
	return nil
}

// Path returns the canonical refs/heads/<name> path form; the core never
// persists or parses this form.
func Path(name string) string {
	return headsPrefix + name
}
