// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package subscriptions is the decision point for how a repository's
// events reach a channel: it owns subscription creation, filter updates,
// the webhook/polling mode choice, and the upgrade/downgrade transitions
// driven by App installation lifecycle.
package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	gogithub "github.com/google/go-github/v63/github"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/towns-protocol/github-bot/internal/chat"
	"github.com/towns-protocol/github-bot/internal/credentials"
	"github.com/towns-protocol/github-bot/internal/db"
	"github.com/towns-protocol/github-bot/internal/events"
	"github.com/towns-protocol/github-bot/internal/github"
)

// GitHubClient is the slice of the GitHub API the subscription service
// needs, always called with the acting user's token.
type GitHubClient interface {
	GetRepository(ctx context.Context, owner, repo string) (*gogithub.Repository, error)
	GetUser(ctx context.Context, login string) (*gogithub.User, error)
}

// ClientFactory builds a user-authenticated GitHub client.
type ClientFactory func(ctx context.Context, accessToken string) GitHubClient

// CredentialSource supplies live user tokens.
type CredentialSource interface {
	AccessToken(ctx context.Context, townsUserID string) (string, error)
	Validate(ctx context.Context, townsUserID string) (credentials.ValidationStatus, error)
}

// Outcome classifies the result of a create attempt.
type Outcome string

const (
	// OutcomeCreated means a subscription row was inserted.
	OutcomeCreated Outcome = "created"
	// OutcomeAlreadySubscribed means the channel already subscribes to the
	// repo.
	OutcomeAlreadySubscribed Outcome = "already_subscribed"
	// OutcomeRequiresInstallation means the repo needs the GitHub App
	// installed first; a pending subscription was stored and the user
	// should visit InstallURL.
	OutcomeRequiresInstallation Outcome = "requires_installation"
	// OutcomeForbidden means GitHub denied access to the repo for the
	// acting user; Hint carries a user-facing explanation.
	OutcomeForbidden Outcome = "forbidden"
)

// CreateRequest are the inputs to CreateSubscription.
type CreateRequest struct {
	TownsUserID    string
	SpaceID        string
	ChannelID      string
	RepoIdentifier string
	EventTypes     []string
	BranchFilter   *string
}

// CreateResult reports what CreateSubscription did.
type CreateResult struct {
	Outcome      Outcome
	RepoFullName string
	DeliveryMode db.DeliveryMode
	// InstallURL is set for polling-mode results (as an upgrade hint) and
	// for RequiresInstallation outcomes.
	InstallURL string
	// Hint is a user-facing explanation for non-created outcomes.
	Hint         string
	Subscription *db.Subscription
}

// Service implements the subscription operations.
type Service struct {
	store      db.Store
	creds      CredentialSource
	transport  chat.Transport
	tracker    *PendingMessageTracker
	newClient  ClientFactory
	appSlug    string
	pendingTTL time.Duration
}

// NewService creates the subscription service.
func NewService(
	store db.Store,
	creds CredentialSource,
	transport chat.Transport,
	tracker *PendingMessageTracker,
	appSlug string,
	pendingTTL time.Duration,
) *Service {
	return &Service{
		store:      store,
		creds:      creds,
		transport:  transport,
		tracker:    tracker,
		newClient:  func(ctx context.Context, tok string) GitHubClient { return github.NewUserClient(ctx, tok) },
		appSlug:    appSlug,
		pendingTTL: pendingTTL,
	}
}

// Tracker exposes the pending message tracker so callers can record
// provisional messages.
func (s *Service) Tracker() *PendingMessageTracker {
	return s.tracker
}

// parseRepo splits an "owner/repo" identifier.
func parseRepo(identifier string) (string, string, error) {
	identifier = strings.TrimSpace(identifier)
	owner, name, ok := strings.Cut(identifier, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepoFormat, identifier)
	}
	return owner, name, nil
}

// normalizeEventTypes lowercases, deduplicates and validates the
// requested event types. An empty request means everything.
func normalizeEventTypes(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return []string{events.EventTypeAll}, nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(requested))
	for _, t := range requested {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if !events.IsValidEventType(t) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidEventType, t)
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	if seen[events.EventTypeAll] {
		return []string{events.EventTypeAll}, nil
	}
	sort.Strings(out)
	return out, nil
}

// installURL builds the App installation link, suggesting the repo owner
// as the target when the owner's account ID can be resolved.
func (s *Service) installURL(ctx context.Context, client GitHubClient, owner string) string {
	base := fmt.Sprintf("https://github.com/apps/%s/installations/new", s.appSlug)
	if client == nil {
		return base
	}
	user, err := client.GetUser(ctx, owner)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("owner", owner).Msg("owner lookup for install URL failed")
		return base
	}
	return fmt.Sprintf("%s/permissions?suggested_target_id=%d", base, user.GetID())
}

// CreateSubscription subscribes a channel to a repository, deciding the
// delivery mode from the repo's visibility and the installation index.
func (s *Service) CreateSubscription(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	owner, name, err := parseRepo(req.RepoIdentifier)
	if err != nil {
		return nil, err
	}
	eventTypes, err := normalizeEventTypes(req.EventTypes)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.creds.AccessToken(ctx, req.TownsUserID)
	if err != nil {
		if errors.Is(err, credentials.ErrNotLinked) {
			return nil, fmt.Errorf("%w: %s", ErrNoToken, req.TownsUserID)
		}
		return nil, err
	}
	tokenRow, err := s.store.GetToken(ctx, req.TownsUserID)
	if err != nil {
		return nil, fmt.Errorf("cannot load caller identity: %w", err)
	}

	client := s.newClient(ctx, accessToken)
	requestedFullName := owner + "/" + name

	installation, err := s.store.GetInstallationForRepo(ctx, requestedFullName)
	hasInstallation := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cannot check installation index: %w", err)
	}

	repo, err := client.GetRepository(ctx, owner, name)
	if err != nil {
		switch {
		case github.IsNotFound(err) && !hasInstallation:
			// The repo may be private and invisible to the caller until
			// the App is installed. Remember the intent, unless the
			// channel already holds a subscription for it.
			if res, subErr := s.alreadySubscribed(ctx, req, requestedFullName); res != nil || subErr != nil {
				return res, subErr
			}
			return s.storePending(ctx, req, client, owner, requestedFullName, eventTypes)
		case github.IsNotFound(err):
			return nil, fmt.Errorf("repository %s not found", requestedFullName)
		case github.IsForbidden(err) && !strings.EqualFold(owner, tokenRow.GithubLogin):
			return &CreateResult{
				Outcome:      OutcomeForbidden,
				RepoFullName: requestedFullName,
				Hint:         "access denied; if this is an organization repository, the App installation may need approval by an org owner",
			}, nil
		case github.IsRateLimited(err):
			return nil, ErrRateLimited
		default:
			return nil, fmt.Errorf("cannot validate repository %s: %w", requestedFullName, err)
		}
	}

	fullName := repo.GetFullName()
	if fullName == "" {
		fullName = requestedFullName
	}

	if res, err := s.alreadySubscribed(ctx, req, fullName); res != nil || err != nil {
		return res, err
	}

	if repo.GetPrivate() && !hasInstallation {
		return s.storePending(ctx, req, client, owner, fullName, eventTypes)
	}

	mode := db.DeliveryModePolling
	var installationID sql.NullInt64
	if hasInstallation {
		mode = db.DeliveryModeWebhook
		installationID = sql.NullInt64{Int64: installation.InstallationID, Valid: true}
	}

	sub, err := s.store.CreateSubscription(ctx, db.CreateSubscriptionParams{
		SpaceID:              req.SpaceID,
		ChannelID:            req.ChannelID,
		RepoFullName:         fullName,
		DeliveryMode:         mode,
		IsPrivate:            repo.GetPrivate(),
		CreatedByUserID:      req.TownsUserID,
		CreatedByGithubLogin: tokenRow.GithubLogin,
		InstallationID:       installationID,
		EventTypes:           eventTypes,
		BranchFilter:         nullString(req.BranchFilter),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create subscription: %w", err)
	}

	result := &CreateResult{
		Outcome:      OutcomeCreated,
		RepoFullName: fullName,
		DeliveryMode: mode,
		Subscription: &sub,
	}
	if mode == db.DeliveryModePolling {
		result.InstallURL = s.installURL(ctx, client, owner)
	}
	return result, nil
}

// alreadySubscribed returns the AlreadySubscribed result when the
// channel already has a subscription for the repo, nil otherwise.
func (s *Service) alreadySubscribed(ctx context.Context, req CreateRequest, fullName string) (*CreateResult, error) {
	existing, err := s.store.GetSubscription(ctx, db.GetSubscriptionParams{
		SpaceID:      req.SpaceID,
		ChannelID:    req.ChannelID,
		RepoFullName: fullName,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot check existing subscription: %w", err)
	}
	return &CreateResult{
		Outcome:      OutcomeAlreadySubscribed,
		RepoFullName: existing.RepoFullName,
		DeliveryMode: existing.DeliveryMode,
		Subscription: &existing,
	}, nil
}

func (s *Service) storePending(
	ctx context.Context, req CreateRequest, client GitHubClient,
	owner, fullName string, eventTypes []string,
) (*CreateResult, error) {
	_, err := s.store.UpsertPendingSubscription(ctx, db.UpsertPendingSubscriptionParams{
		SpaceID:      req.SpaceID,
		ChannelID:    req.ChannelID,
		RepoFullName: fullName,
		TownsUserID:  req.TownsUserID,
		EventTypes:   eventTypes,
		BranchFilter: nullString(req.BranchFilter),
		ExpiresAt:    time.Now().Add(s.pendingTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot store pending subscription: %w", err)
	}
	return &CreateResult{
		Outcome:      OutcomeRequiresInstallation,
		RepoFullName: fullName,
		InstallURL:   s.installURL(ctx, client, owner),
	}, nil
}

// UpdateSubscription adds event types to an existing subscription and
// optionally replaces its branch filter. Access to the repository is
// re-validated with the caller's current token.
func (s *Service) UpdateSubscription(
	ctx context.Context, townsUserID, spaceID, channelID, repoIdentifier string,
	addEventTypes []string, branchFilter *string,
) (*db.Subscription, error) {
	sub, _, err := s.validateForModification(ctx, townsUserID, spaceID, channelID, repoIdentifier)
	if err != nil {
		return nil, err
	}

	added, err := normalizeEventTypes(addEventTypes)
	if err != nil {
		return nil, err
	}
	merged := mergeEventTypes(sub.EventTypes, added)

	filter := sub.BranchFilter
	if branchFilter != nil {
		filter = nullString(branchFilter)
	}

	updated, err := s.store.UpdateSubscriptionFilters(ctx, db.UpdateSubscriptionFiltersParams{
		ID:           sub.ID,
		EventTypes:   merged,
		BranchFilter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot update subscription: %w", err)
	}
	return &updated, nil
}

// RemoveEventTypesResult reports the outcome of an event type removal.
type RemoveEventTypesResult struct {
	Deleted    bool
	EventTypes []string
}

// RemoveEventTypes removes event types from a subscription, deleting the
// subscription entirely when nothing remains.
func (s *Service) RemoveEventTypes(
	ctx context.Context, townsUserID, spaceID, channelID, repoIdentifier string,
	removeEventTypes []string,
) (*RemoveEventTypesResult, error) {
	sub, _, err := s.validateForModification(ctx, townsUserID, spaceID, channelID, repoIdentifier)
	if err != nil {
		return nil, err
	}

	removed, err := normalizeEventTypes(removeEventTypes)
	if err != nil {
		return nil, err
	}
	remaining := subtractEventTypes(sub.EventTypes, removed)

	if len(remaining) == 0 {
		if err := s.store.DeleteSubscription(ctx, sub.ID); err != nil {
			return nil, fmt.Errorf("cannot delete subscription: %w", err)
		}
		return &RemoveEventTypesResult{Deleted: true}, nil
	}

	updated, err := s.store.UpdateSubscriptionFilters(ctx, db.UpdateSubscriptionFiltersParams{
		ID:           sub.ID,
		EventTypes:   remaining,
		BranchFilter: sub.BranchFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot update subscription: %w", err)
	}
	return &RemoveEventTypesResult{EventTypes: updated.EventTypes}, nil
}

// Unsubscribe removes a channel's subscription to a repository.
func (s *Service) Unsubscribe(
	ctx context.Context, townsUserID, spaceID, channelID, repoIdentifier string,
) (*RemoveEventTypesResult, error) {
	return s.RemoveEventTypes(ctx, townsUserID, spaceID, channelID, repoIdentifier,
		[]string{events.EventTypeAll})
}

// validateForModification loads the subscription and re-checks that the
// caller can still access the repository.
func (s *Service) validateForModification(
	ctx context.Context, townsUserID, spaceID, channelID, repoIdentifier string,
) (*db.Subscription, GitHubClient, error) {
	owner, name, err := parseRepo(repoIdentifier)
	if err != nil {
		return nil, nil, err
	}

	accessToken, err := s.creds.AccessToken(ctx, townsUserID)
	if err != nil {
		if errors.Is(err, credentials.ErrNotLinked) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNoToken, townsUserID)
		}
		return nil, nil, err
	}
	client := s.newClient(ctx, accessToken)

	sub, err := s.store.GetSubscription(ctx, db.GetSubscriptionParams{
		SpaceID:      spaceID,
		ChannelID:    channelID,
		RepoFullName: owner + "/" + name,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotSubscribed
		}
		return nil, nil, fmt.Errorf("cannot load subscription: %w", err)
	}

	if _, err := client.GetRepository(ctx, owner, name); err != nil {
		switch {
		case github.IsRateLimited(err):
			return nil, nil, ErrRateLimited
		default:
			return nil, nil, fmt.Errorf("cannot verify access to %s: %w", sub.RepoFullName, err)
		}
	}
	return &sub, client, nil
}

func mergeEventTypes(current, added []string) []string {
	seen := map[string]bool{}
	for _, t := range current {
		seen[t] = true
	}
	for _, t := range added {
		seen[t] = true
	}
	if seen[events.EventTypeAll] {
		return []string{events.EventTypeAll}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func subtractEventTypes(current, removed []string) []string {
	drop := map[string]bool{}
	for _, t := range removed {
		drop[t] = true
	}
	if drop[events.EventTypeAll] {
		return nil
	}
	out := make([]string, 0, len(current))
	for _, t := range current {
		if t == events.EventTypeAll {
			// Removing specific types from "all" expands it first.
			for _, known := range events.KnownEventTypes() {
				if !drop[known] {
					out = append(out, known)
				}
			}
			continue
		}
		if !drop[t] {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return dedupe(out)
}

func dedupe(in []string) []string {
	out := in[:0]
	var prev string
	for i, s := range in {
		if i == 0 || s != prev {
			out = append(out, s)
		}
		prev = s
	}
	return out
}

// UpgradeToWebhook flips every polling subscription for the repo to
// webhook mode in one statement and edits any provisional messages the
// tracker still holds.
func (s *Service) UpgradeToWebhook(ctx context.Context, repoFullName string, installationID int64) (int64, error) {
	count, err := s.store.UpgradeSubscriptionsToWebhook(ctx, db.UpgradeSubscriptionsToWebhookParams{
		RepoFullName:   repoFullName,
		InstallationID: sql.NullInt64{Int64: installationID, Valid: true},
	})
	if err != nil {
		return 0, fmt.Errorf("cannot upgrade subscriptions: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	subs, err := s.store.ListSubscriptionsByInstallation(ctx, sql.NullInt64{Int64: installationID, Valid: true})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("cannot list upgraded subscriptions for message edits")
		return count, nil
	}
	for _, sub := range subs {
		if !strings.EqualFold(sub.RepoFullName, repoFullName) {
			continue
		}
		eventID, ok := s.tracker.Consume(sub.ChannelID, repoFullName)
		if !ok {
			continue
		}
		msg := fmt.Sprintf("✅ Subscribed to **%s** with real-time delivery.", sub.RepoFullName)
		if err := s.transport.EditMessage(ctx, sub.SpaceID, sub.ChannelID, eventID, msg); err != nil {
			// No retry loop: the entry is gone and the provisional
			// message simply stays as posted.
			zerolog.Ctx(ctx).Warn().Err(err).
				Str("channel_id", sub.ChannelID).
				Msg("cannot edit provisional message after upgrade")
		}
	}
	return count, nil
}

// DowngradeResult reports what DowngradeSubscriptions changed.
type DowngradeResult struct {
	Downgraded int64
	Removed    int64
}

// DowngradeSubscriptions handles the loss of an installation (deleted, or
// repositories removed from it). Public subscriptions fall back to
// polling; private ones cannot exist without the installation and are
// deleted. The split update is one transaction; channel notifications
// happen afterwards and a failed send never rolls anything back.
func (s *Service) DowngradeSubscriptions(
	ctx context.Context, installationID int64, repos []string,
) (*DowngradeResult, error) {
	affected, err := s.store.ListSubscriptionsByInstallation(ctx, sql.NullInt64{Int64: installationID, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("cannot list affected subscriptions: %w", err)
	}
	if len(repos) > 0 {
		wanted := map[string]bool{}
		for _, r := range repos {
			wanted[strings.ToLower(r)] = true
		}
		filtered := affected[:0]
		for _, sub := range affected {
			if wanted[strings.ToLower(sub.RepoFullName)] {
				filtered = append(filtered, sub)
			}
		}
		affected = filtered
	}
	if len(affected) == 0 {
		return &DowngradeResult{}, nil
	}

	var publicIDs, privateIDs []uuid.UUID
	for _, sub := range affected {
		if sub.IsPrivate {
			privateIDs = append(privateIDs, sub.ID)
		} else {
			publicIDs = append(publicIDs, sub.ID)
		}
	}

	result, err := db.WithTransaction(s.store, func(qtx db.Querier) (*DowngradeResult, error) {
		res := &DowngradeResult{}
		if len(publicIDs) > 0 {
			n, err := qtx.DowngradeSubscriptionsToPolling(ctx, publicIDs)
			if err != nil {
				return nil, err
			}
			res.Downgraded = n
		}
		if len(privateIDs) > 0 {
			n, err := qtx.DeleteSubscriptionsByIDs(ctx, privateIDs)
			if err != nil {
				return nil, err
			}
			res.Removed = n
		}
		return res, nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot downgrade subscriptions: %w", err)
	}

	s.notifyDowngraded(ctx, affected)
	return result, nil
}

// notifyDowngraded tells each affected channel what happened. Sends run
// concurrently and failures only get logged.
func (s *Service) notifyDowngraded(ctx context.Context, affected []db.Subscription) {
	var wg sync.WaitGroup
	for _, sub := range affected {
		sub := sub
		wg.Add(1)
		go func() {
			defer wg.Done()
			var msg string
			if sub.IsPrivate {
				msg = fmt.Sprintf("⚠️ The GitHub App was removed from **%s**. The subscription was cancelled because private repositories require the App.", sub.RepoFullName)
			} else {
				msg = fmt.Sprintf("⚠️ The GitHub App was removed from **%s**. Updates will continue with periodic polling.", sub.RepoFullName)
			}
			if _, err := s.transport.SendMessage(ctx, sub.SpaceID, sub.ChannelID, msg); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).
					Str("channel_id", sub.ChannelID).
					Str("repo", sub.RepoFullName).
					Msg("cannot notify channel about downgrade")
			}
		}()
	}
	wg.Wait()
}

// CompletePendingSubscriptions turns stored intents for a repo into real
// subscriptions now that its installation exists. Rows are deleted
// regardless of per-row success; they are either fulfilled or stale.
func (s *Service) CompletePendingSubscriptions(ctx context.Context, repoFullName string) error {
	pending, err := s.store.ListPendingSubscriptionsForRepo(ctx, repoFullName)
	if err != nil {
		return fmt.Errorf("cannot list pending subscriptions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	var g errgroup.Group
	g.SetLimit(4)
	for _, p := range pending {
		p := p
		g.Go(func() error {
			s.completeOne(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	if _, err := s.store.DeletePendingSubscriptionsForRepo(ctx, repoFullName); err != nil {
		return fmt.Errorf("cannot clear pending subscriptions: %w", err)
	}
	return nil
}

func (s *Service) completeOne(ctx context.Context, p db.PendingSubscription) {
	log := zerolog.Ctx(ctx).With().
		Str("repo", p.RepoFullName).
		Str("channel_id", p.ChannelID).
		Logger()

	status, err := s.creds.Validate(ctx, p.TownsUserID)
	if err != nil || status != credentials.StatusValid {
		log.Info().Err(err).Str("status", string(status)).Msg("skipping pending subscription, token not valid")
		return
	}

	var filter *string
	if p.BranchFilter.Valid {
		filter = &p.BranchFilter.String
	}
	result, err := s.CreateSubscription(ctx, CreateRequest{
		TownsUserID:    p.TownsUserID,
		SpaceID:        p.SpaceID,
		ChannelID:      p.ChannelID,
		RepoIdentifier: p.RepoFullName,
		EventTypes:     p.EventTypes,
		BranchFilter:   filter,
	})
	if err != nil {
		log.Warn().Err(err).Msg("cannot complete pending subscription")
		return
	}
	if result.Outcome != OutcomeCreated {
		log.Info().Str("outcome", string(result.Outcome)).Msg("pending subscription not completed")
		return
	}

	msg := fmt.Sprintf("✅ Subscribed to **%s** now that the GitHub App is installed.", result.RepoFullName)
	if _, err := s.transport.SendMessage(ctx, p.SpaceID, p.ChannelID, msg); err != nil {
		log.Warn().Err(err).Msg("cannot send pending subscription confirmation")
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
