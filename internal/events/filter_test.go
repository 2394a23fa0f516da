// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/towns-protocol/github-bot/internal/events"
)

func strPtr(s string) *string {
	return &s
}

func TestMatchEventTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		subscribed []string
		shortName  string
		want       bool
	}{
		{
			name:       "exact match",
			subscribed: []string{"pr", "issues"},
			shortName:  "pr",
			want:       true,
		},
		{
			name:       "no match",
			subscribed: []string{"pr", "issues"},
			shortName:  "commits",
			want:       false,
		},
		{
			name:       "wildcard matches everything",
			subscribed: []string{"all"},
			shortName:  "stars",
			want:       true,
		},
		{
			name:       "empty list matches nothing",
			subscribed: nil,
			shortName:  "pr",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, events.MatchEventTypes(tt.subscribed, tt.shortName))
		})
	}
}

func TestMatchBranch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		filter        *string
		branch        string
		defaultBranch string
		want          bool
	}{
		{
			name:          "nil filter matches default branch",
			filter:        nil,
			branch:        "main",
			defaultBranch: "main",
			want:          true,
		},
		{
			name:          "nil filter rejects non-default branch",
			filter:        nil,
			branch:        "feature/x",
			defaultBranch: "main",
			want:          false,
		},
		{
			name:          "nil filter with unknown default branch rejects",
			filter:        nil,
			branch:        "main",
			defaultBranch: "",
			want:          false,
		},
		{
			name:   "all keyword matches anything",
			filter: strPtr("all"),
			branch: "whatever",
			want:   true,
		},
		{
			name:   "lone star matches anything",
			filter: strPtr("*"),
			branch: "release/v1",
			want:   true,
		},
		{
			name:   "exact name matches",
			filter: strPtr("main"),
			branch: "main",
			want:   true,
		},
		{
			name:   "exact name is not a prefix match",
			filter: strPtr("main"),
			branch: "main-backup",
			want:   false,
		},
		{
			name:   "comma list matches any entry",
			filter: strPtr("main, develop"),
			branch: "develop",
			want:   true,
		},
		{
			name:   "glob matches full name",
			filter: strPtr("release/*"),
			branch: "release/v1.2",
			want:   true,
		},
		{
			name:   "glob crosses slashes",
			filter: strPtr("release/*"),
			branch: "release/v1/hotfix",
			want:   true,
		},
		{
			name:   "glob anchored at both ends",
			filter: strPtr("*-stable"),
			branch: "v2-stable-old",
			want:   false,
		},
		{
			name:   "glob in the middle",
			filter: strPtr("feature/*/done"),
			branch: "feature/login/done",
			want:   true,
		},
		{
			name:   "mixed literals and globs",
			filter: strPtr("main,release/*"),
			branch: "release/v3",
			want:   true,
		},
		{
			name:   "empty entries in list ignored",
			filter: strPtr("main,,develop"),
			branch: "develop",
			want:   true,
		},
		{
			name:   "no entry matches",
			filter: strPtr("main,release/*"),
			branch: "feature/x",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, events.MatchBranch(tt.filter, tt.branch, tt.defaultBranch))
		})
	}
}

func TestShortNameForKind(t *testing.T) {
	t.Parallel()

	name, ok := events.ShortNameForKind("pull_request")
	assert.True(t, ok)
	assert.Equal(t, "pr", name)

	name, ok = events.ShortNameForKind("push")
	assert.True(t, ok)
	assert.Equal(t, "commits", name)

	// create and delete both fold into branches
	name, ok = events.ShortNameForKind("create")
	assert.True(t, ok)
	assert.Equal(t, "branches", name)
	name, ok = events.ShortNameForKind("delete")
	assert.True(t, ok)
	assert.Equal(t, "branches", name)

	_, ok = events.ShortNameForKind("gollum")
	assert.False(t, ok)
}

func TestKnownEventTypes(t *testing.T) {
	t.Parallel()

	types := events.KnownEventTypes()
	assert.Contains(t, types, "pr")
	assert.Contains(t, types, "commits")
	assert.Contains(t, types, "branches")
	assert.NotContains(t, types, "all")

	// sorted and deduplicated
	seen := map[string]bool{}
	for i, typ := range types {
		assert.False(t, seen[typ], "duplicate %q", typ)
		seen[typ] = true
		if i > 0 {
			assert.Less(t, types[i-1], typ)
		}
	}
}

func TestIsValidEventType(t *testing.T) {
	t.Parallel()

	assert.True(t, events.IsValidEventType("all"))
	assert.True(t, events.IsValidEventType("reviews"))
	assert.True(t, events.IsValidEventType("review_comments"))
	assert.False(t, events.IsValidEventType("pushes"))
	assert.False(t, events.IsValidEventType(""))
}
