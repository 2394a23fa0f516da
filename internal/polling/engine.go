// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package polling periodically pulls the public events feed for every
// repository that has at least one polling-mode subscription, cursoring
// with ETags and last seen event IDs so work is only done when something
// changed.
package polling

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gogithub "github.com/google/go-github/v63/github"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	serverconfig "github.com/towns-protocol/github-bot/internal/config/server"
	"github.com/towns-protocol/github-bot/internal/db"
	"github.com/towns-protocol/github-bot/internal/events"
	"github.com/towns-protocol/github-bot/internal/events/render"
	"github.com/towns-protocol/github-bot/internal/github"
)

// prefetchConcurrency bounds parallel PR detail fetches per repo.
const prefetchConcurrency = 4

// FeedClient is the slice of the GitHub API the polling engine uses. The
// engine talks to GitHub unauthenticated; only public repositories are
// ever in polling mode.
type FeedClient interface {
	ListRepositoryEvents(ctx context.Context, owner, repo, etag string, perPage int) (*github.EventsPage, error)
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*gogithub.PullRequest, error)
}

// EventProcessor delivers a normalized event to subscribed channels.
type EventProcessor interface {
	Deliver(ctx context.Context, source db.DeliveryMode, evt events.Event) error
}

// Engine runs the polling sweep.
type Engine struct {
	store     db.Store
	processor EventProcessor
	client    FeedClient
	cfg       *serverconfig.PollingConfig

	// inFlight prevents overlapping sweeps; a tick that fires while a
	// sweep is still running is skipped.
	inFlight atomic.Bool
}

// NewEngine creates a polling engine.
func NewEngine(store db.Store, processor EventProcessor, client FeedClient, cfg *serverconfig.PollingConfig) *Engine {
	return &Engine{
		store:     store,
		processor: processor,
		client:    client,
		cfg:       cfg,
	}
}

// Run sweeps on the configured interval until the context is cancelled.
// The timer stops immediately on shutdown; an in-flight sweep finishes
// its current repo and observes cancellation on the next call.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	zerolog.Ctx(ctx).Info().Dur("interval", e.cfg.Interval).Msg("polling engine started")
	for {
		select {
		case <-ctx.Done():
			zerolog.Ctx(ctx).Info().Msg("polling engine stopped")
			return
		case <-ticker.C:
			if err := e.Sweep(ctx); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("polling sweep failed")
			}
		}
	}
}

// Sweep polls every repository with polling-mode subscriptions once.
// Per-repo failures are logged and do not abort the sweep.
func (e *Engine) Sweep(ctx context.Context) error {
	if !e.inFlight.CompareAndSwap(false, true) {
		zerolog.Ctx(ctx).Warn().Msg("previous polling sweep still running, skipping tick")
		return nil
	}
	defer e.inFlight.Store(false)

	repos, err := e.store.ListPollingRepos(ctx)
	if err != nil {
		return fmt.Errorf("cannot list polling repos: %w", err)
	}

	for _, repo := range repos {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// One slow repo must not starve the rest of the sweep.
		repoCtx, cancel := context.WithTimeout(ctx, e.cfg.RepoBudget)
		if err := e.pollRepo(repoCtx, repo); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("repo", repo).Msg("repo poll failed")
		}
		cancel()
	}
	return nil
}

func (e *Engine) pollRepo(ctx context.Context, repoFullName string) error {
	owner, name, ok := strings.Cut(repoFullName, "/")
	if !ok {
		return fmt.Errorf("malformed repo name %q", repoFullName)
	}

	cursor, err := e.store.GetPollingCursor(ctx, repoFullName)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("cannot load cursor: %w", err)
	}
	etag := cursor.Etag.String

	page, err := e.client.ListRepositoryEvents(ctx, owner, name, etag, e.cfg.PageSize)
	if err != nil {
		return fmt.Errorf("events feed fetch failed: %w", err)
	}
	if page.NotModified {
		return e.store.TouchPollingCursor(ctx, db.TouchPollingCursorParams{
			RepoFullName: repoFullName,
			LastPolledAt: time.Now(),
		})
	}

	fresh := truncateSeen(page.Events, cursor.LastEventID.String)
	if len(fresh) > 0 {
		prefetched := e.prefetchPullRequests(ctx, owner, name, fresh)
		e.deliverChronological(ctx, repoFullName, fresh, prefetched)
	}

	params := db.UpsertPollingCursorParams{
		RepoFullName: repoFullName,
		LastPolledAt: time.Now(),
	}
	if page.ETag != "" {
		params.Etag = sql.NullString{String: page.ETag, Valid: true}
	}
	if len(page.Events) > 0 {
		params.LastEventID = sql.NullString{String: page.Events[0].GetID(), Valid: true}
	} else {
		params.LastEventID = cursor.LastEventID
	}
	if _, err := e.store.UpsertPollingCursor(ctx, params); err != nil {
		return fmt.Errorf("cannot update cursor: %w", err)
	}
	return nil
}

// truncateSeen cuts a newest-first page down to the entries strictly
// newer than lastEventID. When the marker is not in the page (lost
// cursor, or more than a page of activity since the last sweep) the whole
// page counts as new; the bounded duplication is accepted.
func truncateSeen(page []*gogithub.Event, lastEventID string) []*gogithub.Event {
	if lastEventID == "" {
		return page
	}
	for i, evt := range page {
		if evt.GetID() == lastEventID {
			return page[:i]
		}
	}
	return page
}

// prefetchPullRequests fetches full PR details for every distinct PR
// number referenced by pull request events in the page. Failures leave
// gaps; the renderer degrades instead of dropping the event.
func (e *Engine) prefetchPullRequests(
	ctx context.Context, owner, name string, fresh []*gogithub.Event,
) map[int]*gogithub.PullRequest {
	numbers := map[int]bool{}
	for _, evt := range fresh {
		if evt.GetType() != "PullRequestEvent" {
			continue
		}
		payload, err := evt.ParsePayload()
		if err != nil {
			continue
		}
		if p, ok := payload.(*gogithub.PullRequestEvent); ok {
			if n := p.GetPullRequest().GetNumber(); n > 0 {
				numbers[n] = true
			}
		}
	}
	if len(numbers) == 0 {
		return nil
	}

	var (
		mu      sync.Mutex
		details = make(map[int]*gogithub.PullRequest, len(numbers))
		g       errgroup.Group
	)
	g.SetLimit(prefetchConcurrency)
	for n := range numbers {
		n := n
		g.Go(func() error {
			pr, err := e.client.GetPullRequest(ctx, owner, name, n)
			if err != nil {
				zerolog.Ctx(ctx).Debug().Err(err).Int("pr", n).Msg("PR prefetch failed")
				return nil
			}
			mu.Lock()
			details[n] = pr
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return details
}

// deliverChronological processes the fresh slice oldest first. Malformed
// entries are skipped with a log line; delivery failures do not stop the
// page.
func (e *Engine) deliverChronological(
	ctx context.Context, repoFullName string,
	fresh []*gogithub.Event, prefetched map[int]*gogithub.PullRequest,
) {
	for i := len(fresh) - 1; i >= 0; i-- {
		feedEvt := fresh[i]
		rendered, ok := render.FeedEvent(feedEvt, prefetched)
		if !ok {
			zerolog.Ctx(ctx).Debug().
				Str("repo", repoFullName).
				Str("feed_type", feedEvt.GetType()).
				Str("event_id", feedEvt.GetID()).
				Msg("skipping feed entry")
			continue
		}
		rendered.RepoFullName = repoFullName
		if err := e.processor.Deliver(ctx, db.DeliveryModePolling, rendered); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).
				Str("repo", repoFullName).
				Str("event_id", feedEvt.GetID()).
				Msg("polling delivery failed")
		}
	}
}
