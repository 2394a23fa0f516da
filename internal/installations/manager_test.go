// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package installations_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	gogithub "github.com/google/go-github/v63/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/towns-protocol/github-bot/internal/db"
	"github.com/towns-protocol/github-bot/internal/installations"
	"github.com/towns-protocol/github-bot/internal/subscriptions"
)

type installStore struct {
	db.Store

	mu            sync.Mutex
	installations map[int64]db.Installation
	repos         map[int64][]string
	deleted       []int64
	suspensions   []db.SetInstallationSuspendedParams
}

func newInstallStore() *installStore {
	return &installStore{
		installations: map[int64]db.Installation{},
		repos:         map[int64][]string{},
	}
}

func (s *installStore) UpsertInstallation(_ context.Context, arg db.UpsertInstallationParams) (db.Installation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst := db.Installation{
		InstallationID: arg.InstallationID,
		AccountLogin:   arg.AccountLogin,
		AccountType:    arg.AccountType,
		AppSlug:        arg.AppSlug,
	}
	s.installations[arg.InstallationID] = inst
	return inst, nil
}

func (s *installStore) GetInstallation(_ context.Context, installationID int64) (db.Installation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.installations[installationID]
	if !ok {
		return db.Installation{}, sql.ErrNoRows
	}
	return inst, nil
}

func (s *installStore) DeleteInstallation(_ context.Context, installationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, installationID)
	delete(s.installations, installationID)
	delete(s.repos, installationID)
	return nil
}

func (s *installStore) AddInstallationRepository(_ context.Context, arg db.AddInstallationRepositoryParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repos[arg.InstallationID] = append(s.repos[arg.InstallationID], arg.RepoFullName)
	return nil
}

func (s *installStore) DeleteInstallationRepository(_ context.Context, arg db.DeleteInstallationRepositoryParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.repos[arg.InstallationID][:0]
	for _, name := range s.repos[arg.InstallationID] {
		if name != arg.RepoFullName {
			kept = append(kept, name)
		}
	}
	s.repos[arg.InstallationID] = kept
	return nil
}

func (s *installStore) SetInstallationSuspended(_ context.Context, arg db.SetInstallationSuspendedParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspensions = append(s.suspensions, arg)
	if inst, ok := s.installations[arg.InstallationID]; ok {
		inst.SuspendedAt = arg.SuspendedAt
		s.installations[arg.InstallationID] = inst
	}
	return nil
}

type upgradeCall struct {
	repo           string
	installationID int64
}

type downgradeCall struct {
	installationID int64
	repos          []string
}

type fakeSubs struct {
	mu         sync.Mutex
	upgrades   []upgradeCall
	downgrades []downgradeCall
	completed  []string
}

func (f *fakeSubs) UpgradeToWebhook(_ context.Context, repoFullName string, installationID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upgrades = append(f.upgrades, upgradeCall{repoFullName, installationID})
	return 1, nil
}

func (f *fakeSubs) DowngradeSubscriptions(_ context.Context, installationID int64, repos []string) (*subscriptions.DowngradeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downgrades = append(f.downgrades, downgradeCall{installationID, repos})
	return &subscriptions.DowngradeResult{Downgraded: 1}, nil
}

func (f *fakeSubs) CompletePendingSubscriptions(_ context.Context, repoFullName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, repoFullName)
	return nil
}

type fakeApp struct {
	mu           sync.Mutex
	calls        int
	installation *gogithub.Installation
	failures     int
}

func (f *fakeApp) GetAppInstallation(_ context.Context, _ int64) (*gogithub.Installation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("installation not visible yet")
	}
	return f.installation, nil
}

func installationPayload(id int64, login string) *gogithub.Installation {
	inst := &gogithub.Installation{
		ID:      gogithub.Int64(id),
		AppSlug: gogithub.String("towns-github-bot"),
	}
	if login != "" {
		inst.Account = &gogithub.User{
			Login: gogithub.String(login),
			Type:  gogithub.String("Organization"),
		}
	}
	return inst
}

func repo(fullName string) *gogithub.Repository {
	return &gogithub.Repository{FullName: gogithub.String(fullName)}
}

func TestHandleInstallationCreated(t *testing.T) {
	t.Parallel()

	store := newInstallStore()
	subs := &fakeSubs{}
	mgr := installations.NewManager(store, subs, nil)

	err := mgr.HandleInstallation(context.Background(), &gogithub.InstallationEvent{
		Action:       gogithub.String("created"),
		Installation: installationPayload(1234, "octo"),
		Repositories: []*gogithub.Repository{repo("octo/hello"), repo("octo/world")},
	})
	require.NoError(t, err)

	inst, err := store.GetInstallation(context.Background(), 1234)
	require.NoError(t, err)
	assert.Equal(t, "octo", inst.AccountLogin)
	assert.Equal(t, []string{"octo/hello", "octo/world"}, store.repos[1234])

	assert.Equal(t, []upgradeCall{
		{"octo/hello", 1234},
		{"octo/world", 1234},
	}, subs.upgrades, "existing polling subscriptions upgrade per covered repo")
	assert.Equal(t, []string{"octo/hello", "octo/world"}, subs.completed)
}

func TestHandleInstallationDeleted(t *testing.T) {
	t.Parallel()

	store := newInstallStore()
	store.installations[1234] = db.Installation{InstallationID: 1234, AccountLogin: "octo"}
	store.repos[1234] = []string{"octo/hello"}
	subs := &fakeSubs{}
	mgr := installations.NewManager(store, subs, nil)

	err := mgr.HandleInstallation(context.Background(), &gogithub.InstallationEvent{
		Action:       gogithub.String("deleted"),
		Installation: installationPayload(1234, "octo"),
	})
	require.NoError(t, err)

	require.Len(t, subs.downgrades, 1)
	assert.Equal(t, int64(1234), subs.downgrades[0].installationID)
	assert.Nil(t, subs.downgrades[0].repos, "deletion downgrades every covered repo")
	assert.Equal(t, []int64{1234}, store.deleted)
}

func TestHandleInstallationSuspendCycle(t *testing.T) {
	t.Parallel()

	store := newInstallStore()
	store.installations[1234] = db.Installation{InstallationID: 1234}
	subs := &fakeSubs{}
	mgr := installations.NewManager(store, subs, nil)

	err := mgr.HandleInstallation(context.Background(), &gogithub.InstallationEvent{
		Action:       gogithub.String("suspend"),
		Installation: installationPayload(1234, "octo"),
	})
	require.NoError(t, err)
	require.Len(t, store.suspensions, 1)
	assert.True(t, store.suspensions[0].SuspendedAt.Valid)
	assert.Empty(t, subs.downgrades, "suspension keeps subscriptions in place")

	err = mgr.HandleInstallation(context.Background(), &gogithub.InstallationEvent{
		Action:       gogithub.String("unsuspend"),
		Installation: installationPayload(1234, "octo"),
	})
	require.NoError(t, err)
	require.Len(t, store.suspensions, 2)
	assert.False(t, store.suspensions[1].SuspendedAt.Valid)
}

func TestHandleInstallationMissingID(t *testing.T) {
	t.Parallel()

	mgr := installations.NewManager(newInstallStore(), &fakeSubs{}, nil)
	err := mgr.HandleInstallation(context.Background(), &gogithub.InstallationEvent{
		Action:       gogithub.String("created"),
		Installation: &gogithub.Installation{},
	})
	assert.Error(t, err)
}

func TestHandleInstallationIgnoresOtherActions(t *testing.T) {
	t.Parallel()

	store := newInstallStore()
	subs := &fakeSubs{}
	mgr := installations.NewManager(store, subs, nil)

	err := mgr.HandleInstallation(context.Background(), &gogithub.InstallationEvent{
		Action:       gogithub.String("new_permissions_accepted"),
		Installation: installationPayload(1234, "octo"),
	})
	require.NoError(t, err)
	assert.Empty(t, store.installations)
	assert.Empty(t, subs.upgrades)
}

func TestHandleRepositoriesAdded(t *testing.T) {
	t.Parallel()

	store := newInstallStore()
	subs := &fakeSubs{}
	mgr := installations.NewManager(store, subs, nil)

	err := mgr.HandleInstallationRepositories(context.Background(), &gogithub.InstallationRepositoriesEvent{
		Action:            gogithub.String("added"),
		Installation:      installationPayload(1234, "octo"),
		RepositoriesAdded: []*gogithub.Repository{repo("octo/new")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"octo/new"}, store.repos[1234])
	assert.Equal(t, []upgradeCall{{"octo/new", 1234}}, subs.upgrades)
	assert.Equal(t, []string{"octo/new"}, subs.completed)
}

func TestHandleRepositoriesAddedBeforeInstallationEvent(t *testing.T) {
	t.Parallel()

	// The payload carries no account data and the installation row does
	// not exist yet: metadata is recovered through the app API.
	store := newInstallStore()
	subs := &fakeSubs{}
	app := &fakeApp{
		installation: installationPayload(1234, "octo"),
		failures:     1,
	}
	mgr := installations.NewManager(store, subs, app)

	err := mgr.HandleInstallationRepositories(context.Background(), &gogithub.InstallationRepositoriesEvent{
		Action:            gogithub.String("added"),
		Installation:      installationPayload(1234, ""),
		RepositoriesAdded: []*gogithub.Repository{repo("octo/new")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, app.calls, "first fetch fails, retry succeeds")
	inst, err := store.GetInstallation(context.Background(), 1234)
	require.NoError(t, err)
	assert.Equal(t, "octo", inst.AccountLogin)
	assert.Equal(t, []string{"octo/new"}, store.repos[1234])
}

func TestHandleRepositoriesAddedKnownInstallationSkipsFetch(t *testing.T) {
	t.Parallel()

	store := newInstallStore()
	store.installations[1234] = db.Installation{InstallationID: 1234, AccountLogin: "octo"}
	subs := &fakeSubs{}
	app := &fakeApp{installation: installationPayload(1234, "octo")}
	mgr := installations.NewManager(store, subs, app)

	err := mgr.HandleInstallationRepositories(context.Background(), &gogithub.InstallationRepositoriesEvent{
		Action:            gogithub.String("added"),
		Installation:      installationPayload(1234, ""),
		RepositoriesAdded: []*gogithub.Repository{repo("octo/new")},
	})
	require.NoError(t, err)
	assert.Zero(t, app.calls, "known installations need no app API round trip")
}

func TestHandleRepositoriesAddedUnknownWithoutAppClient(t *testing.T) {
	t.Parallel()

	mgr := installations.NewManager(newInstallStore(), &fakeSubs{}, nil)
	err := mgr.HandleInstallationRepositories(context.Background(), &gogithub.InstallationRepositoriesEvent{
		Action:            gogithub.String("added"),
		Installation:      installationPayload(1234, ""),
		RepositoriesAdded: []*gogithub.Repository{repo("octo/new")},
	})
	assert.Error(t, err)
}

func TestHandleRepositoriesRemoved(t *testing.T) {
	t.Parallel()

	store := newInstallStore()
	store.installations[1234] = db.Installation{InstallationID: 1234, AccountLogin: "octo"}
	store.repos[1234] = []string{"octo/kept", "octo/gone"}
	subs := &fakeSubs{}
	mgr := installations.NewManager(store, subs, nil)

	err := mgr.HandleInstallationRepositories(context.Background(), &gogithub.InstallationRepositoriesEvent{
		Action:              gogithub.String("removed"),
		Installation:        installationPayload(1234, "octo"),
		RepositoriesRemoved: []*gogithub.Repository{repo("octo/gone")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"octo/kept"}, store.repos[1234])
	require.Len(t, subs.downgrades, 1)
	assert.Equal(t, []string{"octo/gone"}, subs.downgrades[0].repos,
		"only the removed repos are downgraded")
}
