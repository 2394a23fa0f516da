// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package installations tracks GitHub App installations and drives the
// subscription upgrade/downgrade transitions that follow their lifecycle.
package installations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	gogithub "github.com/google/go-github/v63/github"
	"github.com/rs/zerolog"

	"github.com/towns-protocol/github-bot/internal/db"
	"github.com/towns-protocol/github-bot/internal/subscriptions"
)

// SubscriptionService is the slice of the subscription service the
// installation manager drives.
type SubscriptionService interface {
	UpgradeToWebhook(ctx context.Context, repoFullName string, installationID int64) (int64, error)
	DowngradeSubscriptions(ctx context.Context, installationID int64, repos []string) (*subscriptions.DowngradeResult, error)
	CompletePendingSubscriptions(ctx context.Context, repoFullName string) error
}

// AppClient fetches installation metadata with App-level authentication.
type AppClient interface {
	GetAppInstallation(ctx context.Context, installationID int64) (*gogithub.Installation, error)
}

// Manager applies installation lifecycle events to the local index.
type Manager struct {
	store db.Store
	subs  SubscriptionService
	// app is nil when the GitHub App is not configured; only the
	// out-of-order recovery path needs it.
	app AppClient
}

// NewManager creates an installation manager.
func NewManager(store db.Store, subs SubscriptionService, app AppClient) *Manager {
	return &Manager{store: store, subs: subs, app: app}
}

// HandleInstallation processes an `installation` webhook event.
func (m *Manager) HandleInstallation(ctx context.Context, evt *gogithub.InstallationEvent) error {
	inst := evt.GetInstallation()
	if inst.GetID() == 0 {
		return fmt.Errorf("installation event without installation ID")
	}

	switch evt.GetAction() {
	case "created":
		return m.handleCreated(ctx, inst, evt.Repositories)
	case "deleted":
		return m.handleDeleted(ctx, inst.GetID())
	case "suspend":
		return m.setSuspended(ctx, inst.GetID(), true)
	case "unsuspend":
		return m.setSuspended(ctx, inst.GetID(), false)
	default:
		zerolog.Ctx(ctx).Debug().
			Str("action", evt.GetAction()).
			Int64("installation_id", inst.GetID()).
			Msg("ignoring installation action")
		return nil
	}
}

// HandleInstallationRepositories processes an `installation_repositories`
// webhook event.
func (m *Manager) HandleInstallationRepositories(ctx context.Context, evt *gogithub.InstallationRepositoriesEvent) error {
	inst := evt.GetInstallation()
	if inst.GetID() == 0 {
		return fmt.Errorf("installation_repositories event without installation ID")
	}

	switch evt.GetAction() {
	case "added":
		return m.handleRepositoriesAdded(ctx, inst, evt.RepositoriesAdded)
	case "removed":
		return m.handleRepositoriesRemoved(ctx, inst.GetID(), evt.RepositoriesRemoved)
	default:
		zerolog.Ctx(ctx).Debug().
			Str("action", evt.GetAction()).
			Int64("installation_id", inst.GetID()).
			Msg("ignoring installation_repositories action")
		return nil
	}
}

func (m *Manager) handleCreated(ctx context.Context, inst *gogithub.Installation, repos []*gogithub.Repository) error {
	if err := m.upsertFromPayload(ctx, inst); err != nil {
		return err
	}
	return m.coverRepositories(ctx, inst.GetID(), repoNames(repos))
}

func (m *Manager) handleDeleted(ctx context.Context, installationID int64) error {
	result, err := m.subs.DowngradeSubscriptions(ctx, installationID, nil)
	if err != nil {
		return fmt.Errorf("downgrade for installation %d failed: %w", installationID, err)
	}
	zerolog.Ctx(ctx).Info().
		Int64("installation_id", installationID).
		Int64("downgraded", result.Downgraded).
		Int64("removed", result.Removed).
		Msg("installation deleted")

	// Repository rows cascade with the installation row.
	if err := m.store.DeleteInstallation(ctx, installationID); err != nil {
		return fmt.Errorf("cannot delete installation %d: %w", installationID, err)
	}
	return nil
}

// setSuspended records the suspension state. Suspension does not
// downgrade subscriptions; GitHub stops delivering events for suspended
// installations and resumes on unsuspend, so the subscription rows stay
// as they are.
func (m *Manager) setSuspended(ctx context.Context, installationID int64, suspended bool) error {
	var at sql.NullTime
	if suspended {
		at = sql.NullTime{Time: time.Now(), Valid: true}
	}
	err := m.store.SetInstallationSuspended(ctx, db.SetInstallationSuspendedParams{
		InstallationID: installationID,
		SuspendedAt:    at,
	})
	if err != nil {
		return fmt.Errorf("cannot record suspension state: %w", err)
	}
	return nil
}

func (m *Manager) handleRepositoriesAdded(ctx context.Context, inst *gogithub.Installation, repos []*gogithub.Repository) error {
	if err := m.ensureInstallation(ctx, inst); err != nil {
		return err
	}
	return m.coverRepositories(ctx, inst.GetID(), repoNames(repos))
}

func (m *Manager) handleRepositoriesRemoved(ctx context.Context, installationID int64, repos []*gogithub.Repository) error {
	names := repoNames(repos)
	for _, name := range names {
		err := m.store.DeleteInstallationRepository(ctx, db.DeleteInstallationRepositoryParams{
			InstallationID: installationID,
			RepoFullName:   name,
		})
		if err != nil {
			return fmt.Errorf("cannot remove repository %s from installation %d: %w", name, installationID, err)
		}
	}
	if len(names) == 0 {
		return nil
	}
	result, err := m.subs.DowngradeSubscriptions(ctx, installationID, names)
	if err != nil {
		return fmt.Errorf("downgrade for removed repositories failed: %w", err)
	}
	zerolog.Ctx(ctx).Info().
		Int64("installation_id", installationID).
		Strs("repos", names).
		Int64("downgraded", result.Downgraded).
		Int64("removed", result.Removed).
		Msg("repositories removed from installation")
	return nil
}

// coverRepositories records the repos as covered by the installation,
// upgrades their polling subscriptions to webhook mode, and completes
// pending subscriptions waiting on the installation.
func (m *Manager) coverRepositories(ctx context.Context, installationID int64, names []string) error {
	log := zerolog.Ctx(ctx)
	for _, name := range names {
		err := m.store.AddInstallationRepository(ctx, db.AddInstallationRepositoryParams{
			InstallationID: installationID,
			RepoFullName:   name,
		})
		if err != nil {
			return fmt.Errorf("cannot record repository %s for installation %d: %w", name, installationID, err)
		}

		upgraded, err := m.subs.UpgradeToWebhook(ctx, name, installationID)
		if err != nil {
			return fmt.Errorf("upgrade for %s failed: %w", name, err)
		}
		if upgraded > 0 {
			log.Info().Str("repo", name).Int64("upgraded", upgraded).Msg("subscriptions upgraded to webhook delivery")
		}

		if err := m.subs.CompletePendingSubscriptions(ctx, name); err != nil {
			// Pending completion is best effort; the sweep will clear
			// stale rows.
			log.Warn().Err(err).Str("repo", name).Msg("pending subscription completion failed")
		}
	}
	return nil
}

// ensureInstallation makes sure the Installation row exists before
// repositories are attached to it. A repositories_added event can arrive
// before the installation created event; in that case the metadata is
// fetched from GitHub.
func (m *Manager) ensureInstallation(ctx context.Context, inst *gogithub.Installation) error {
	if inst.GetAccount().GetLogin() != "" {
		return m.upsertFromPayload(ctx, inst)
	}

	_, err := m.store.GetInstallation(ctx, inst.GetID())
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("cannot look up installation %d: %w", inst.GetID(), err)
	}

	if m.app == nil {
		return fmt.Errorf("unknown installation %d and no app credentials to fetch it", inst.GetID())
	}

	zerolog.Ctx(ctx).Info().
		Int64("installation_id", inst.GetID()).
		Msg("repositories event arrived before installation event, fetching metadata")

	fetched, err := m.fetchInstallation(ctx, inst.GetID())
	if err != nil {
		return fmt.Errorf("cannot fetch installation %d: %w", inst.GetID(), err)
	}
	return m.upsertFromPayload(ctx, fetched)
}

// fetchInstallation retrieves installation metadata from the app API with
// a short retry, since the webhook may beat GitHub's own read path.
func (m *Manager) fetchInstallation(ctx context.Context, installationID int64) (*gogithub.Installation, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 15 * time.Second
	return backoff.RetryWithData(func() (*gogithub.Installation, error) {
		return m.app.GetAppInstallation(ctx, installationID)
	}, backoff.WithContext(b, ctx))
}

func (m *Manager) upsertFromPayload(ctx context.Context, inst *gogithub.Installation) error {
	_, err := m.store.UpsertInstallation(ctx, db.UpsertInstallationParams{
		InstallationID: inst.GetID(),
		AccountLogin:   inst.GetAccount().GetLogin(),
		AccountType:    inst.GetAccount().GetType(),
		AppSlug:        inst.GetAppSlug(),
	})
	if err != nil {
		return fmt.Errorf("cannot upsert installation %d: %w", inst.GetID(), err)
	}
	return nil
}

func repoNames(repos []*gogithub.Repository) []string {
	names := make([]string, 0, len(repos))
	for _, r := range repos {
		if name := r.GetFullName(); name != "" {
			names = append(names, name)
		}
	}
	return names
}
