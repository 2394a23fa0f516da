// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"errors"
	"net/http"

	"github.com/google/go-github/v63/github"
)

// IsNotFound reports whether err is a GitHub API 404.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsForbidden reports whether err is a GitHub API 403 that is not a rate
// limit rejection.
func IsForbidden(err error) bool {
	if IsRateLimited(err) {
		return false
	}
	return hasStatus(err, http.StatusForbidden)
}

// IsUnauthorized reports whether err is a GitHub API 401, which for user
// tokens means the token was revoked or expired.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsRateLimited reports whether err is a primary or secondary rate limit
// rejection.
func IsRateLimited(err error) bool {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var abuseErr *github.AbuseRateLimitError
	return errors.As(err, &abuseErr)
}

func hasStatus(err error, status int) bool {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode == status
	}
	return false
}
