// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package events turns validated GitHub events into chat messages and
// fans them out to subscribed channels.
package events

import "sort"

// Event is a normalized GitHub event ready for delivery. Both webhook
// payloads and polling feed entries reduce to this shape.
type Event struct {
	// RepoFullName is the canonical "owner/repo" the event belongs to.
	RepoFullName string
	// Kind is the upstream event kind, e.g. "push" or "pull_request".
	Kind string
	// ShortName is the user-facing event type, e.g. "commits" or "pr".
	ShortName string
	// Branch is the affected branch for branch-bearing events, empty
	// otherwise.
	Branch string
	// DefaultBranch is the repository default branch when the payload
	// carried it, empty otherwise.
	DefaultBranch string
	// Message is the rendered chat message.
	Message string
}

// EventTypeAll is the wildcard event type standing for the full set.
const EventTypeAll = "all"

// shortNameByKind maps upstream webhook event kinds to the user-facing
// short names used in subscription filters.
var shortNameByKind = map[string]string{
	"pull_request":                "pr",
	"issues":                      "issues",
	"push":                        "commits",
	"release":                     "releases",
	"workflow_run":                "ci",
	"issue_comment":               "comments",
	"pull_request_review":         "reviews",
	"create":                      "branches",
	"delete":                      "branches",
	"pull_request_review_comment": "review_comments",
	"watch":                       "stars",
	"fork":                        "forks",
}

// ShortNameForKind maps an upstream event kind to its user-facing short
// name. The second return is false for kinds the bot does not deliver.
func ShortNameForKind(kind string) (string, bool) {
	name, ok := shortNameByKind[kind]
	return name, ok
}

// KnownEventTypes returns the sorted set of valid user-facing event
// types, not including the "all" wildcard.
func KnownEventTypes() []string {
	seen := map[string]bool{}
	for _, name := range shortNameByKind {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsValidEventType reports whether s is a recognized user-facing event
// type or the "all" wildcard.
func IsValidEventType(s string) bool {
	if s == EventTypeAll {
		return true
	}
	for _, name := range shortNameByKind {
		if s == name {
			return true
		}
	}
	return false
}
