// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	gogithub "github.com/google/go-github/v63/github"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/towns-protocol/github-bot/internal/chat"
	"github.com/towns-protocol/github-bot/internal/db"
)

// maxConcurrentSends bounds the fan-out to chat channels for one event.
const maxConcurrentSends = 8

// RepoFetcher fetches repository metadata, used to resolve the default
// branch when a subscription has no explicit branch filter.
type RepoFetcher interface {
	GetRepository(ctx context.Context, owner, repo string) (*gogithub.Repository, error)
}

// Processor fans a normalized event out to every matching subscription.
// The source delivery mode is part of the query so a repo covered by
// webhooks is never also served by polling.
type Processor struct {
	store     db.Store
	transport chat.Transport
	repos     RepoFetcher
}

// NewProcessor creates a Processor. repos may be nil, in which case
// default-branch resolution falls back to treating unknown defaults as
// non-matching.
func NewProcessor(store db.Store, transport chat.Transport, repos RepoFetcher) *Processor {
	return &Processor{
		store:     store,
		transport: transport,
		repos:     repos,
	}
}

// Deliver sends the event to all enabled subscriptions for the repo with
// the given delivery mode. Per-channel send failures are logged and
// never surfaced: a chat outage must not make an otherwise processed
// delivery look failed. The error return is reserved for subscriber
// lookup failures.
func (p *Processor) Deliver(ctx context.Context, source db.DeliveryMode, evt Event) error {
	subs, err := p.store.ListSubscriptionsForRepo(ctx, db.ListSubscriptionsForRepoParams{
		RepoFullName: evt.RepoFullName,
		DeliveryMode: source,
	})
	if err != nil {
		return fmt.Errorf("cannot list subscriptions: %w", err)
	}

	matched := make([]db.Subscription, 0, len(subs))
	for _, sub := range subs {
		if !MatchEventTypes(sub.EventTypes, evt.ShortName) {
			continue
		}
		if evt.Branch != "" {
			var filter *string
			if sub.BranchFilter.Valid {
				filter = &sub.BranchFilter.String
			}
			defaultBranch := evt.DefaultBranch
			if filter == nil && defaultBranch == "" {
				defaultBranch = p.resolveDefaultBranch(ctx, evt.RepoFullName)
			}
			if !MatchBranch(filter, evt.Branch, defaultBranch) {
				continue
			}
		}
		matched = append(matched, sub)
	}
	if len(matched) == 0 {
		return nil
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentSends)
	for _, sub := range matched {
		sub := sub
		g.Go(func() error {
			_, err := p.transport.SendMessage(ctx, sub.SpaceID, sub.ChannelID, evt.Message)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).
					Str("repo", evt.RepoFullName).
					Str("channel_id", sub.ChannelID).
					Str("event_type", evt.ShortName).
					Msg("chat send failed")
			}
			return nil
		})
	}
	_ = g.Wait()
	return nil
}

// resolveDefaultBranch returns the repo's default branch, preferring the
// cached value in the polling cursor and caching a fresh lookup there.
func (p *Processor) resolveDefaultBranch(ctx context.Context, repoFullName string) string {
	cursor, err := p.store.GetPollingCursor(ctx, repoFullName)
	if err == nil && cursor.DefaultBranch.Valid {
		return cursor.DefaultBranch.String
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("repo", repoFullName).Msg("cursor lookup failed")
	}

	if p.repos == nil {
		return ""
	}
	owner, name, ok := strings.Cut(repoFullName, "/")
	if !ok {
		return ""
	}
	repo, err := p.repos.GetRepository(ctx, owner, name)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("repo", repoFullName).Msg("default branch lookup failed")
		return ""
	}
	branch := repo.GetDefaultBranch()
	if branch != "" {
		err := p.store.SetCursorDefaultBranch(ctx, db.SetCursorDefaultBranchParams{
			RepoFullName:  repoFullName,
			DefaultBranch: sql.NullString{String: branch, Valid: true},
		})
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("repo", repoFullName).Msg("cannot cache default branch")
		}
	}
	return branch
}
