// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"regexp"
	"strings"
)

// MatchEventTypes reports whether a subscription's event type list covers
// the given short name.
func MatchEventTypes(subscribed []string, shortName string) bool {
	for _, s := range subscribed {
		if s == EventTypeAll || s == shortName {
			return true
		}
	}
	return false
}

// MatchBranch applies a subscription's branch filter to a branch name.
// A nil filter matches only the repository default branch. "all" (or a
// lone "*") matches anything. Otherwise the filter is a comma-separated
// list where each entry is an exact branch name or a glob with `*`
// matching any run of characters.
//
// Events without a branch bypass this filter entirely; callers must not
// invoke it with an empty branch.
func MatchBranch(filter *string, branch, defaultBranch string) bool {
	if filter == nil {
		return defaultBranch != "" && branch == defaultBranch
	}
	f := strings.TrimSpace(*filter)
	if f == "all" || f == "*" {
		return true
	}
	for _, part := range strings.Split(f, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "*") {
			if matchGlob(part, branch) {
				return true
			}
		} else if part == branch {
			return true
		}
	}
	return false
}

// matchGlob matches pattern against the full branch name, with `*`
// standing for any run of characters including `/`.
func matchGlob(pattern, name string) bool {
	var sb strings.Builder
	sb.WriteString("^")
	for i, chunk := range strings.Split(pattern, "*") {
		if i > 0 {
			sb.WriteString(".*")
		}
		sb.WriteString(regexp.QuoteMeta(chunk))
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return false
	}
	return re.MatchString(name)
}
