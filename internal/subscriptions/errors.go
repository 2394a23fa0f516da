// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package subscriptions

import "errors"

var (
	// ErrInvalidRepoFormat means the repo identifier is not "owner/repo".
	ErrInvalidRepoFormat = errors.New(`repository must be given as "owner/repo"`)
	// ErrInvalidEventType means a requested event type is not in the
	// recognized vocabulary.
	ErrInvalidEventType = errors.New("unknown event type")
	// ErrNoToken means the caller has no linked GitHub account. Callers
	// are expected to gate on credential validity before invoking the
	// subscription service, so hitting this is a programming error in the
	// caller, not a user-facing condition.
	ErrNoToken = errors.New("caller has no GitHub credentials")
	// ErrNotSubscribed means no subscription exists for the channel/repo
	// pair being modified.
	ErrNotSubscribed = errors.New("no subscription for this repository in this channel")
	// ErrRateLimited means GitHub rejected the validation call due to
	// rate limiting; the user should retry later, the bot does not retry.
	ErrRateLimited = errors.New("GitHub rate limit exceeded, try again later")
)
