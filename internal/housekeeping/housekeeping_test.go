// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package housekeeping_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serverconfig "github.com/towns-protocol/github-bot/internal/config/server"
	"github.com/towns-protocol/github-bot/internal/db"
	"github.com/towns-protocol/github-bot/internal/housekeeping"
)

type sweepStore struct {
	db.Store

	mu              sync.Mutex
	stateSweeps     []time.Time
	pendingSweeps   []time.Time
	deliveryCutoffs []time.Time
	err             error
}

func (s *sweepStore) DeleteExpiredOAuthStates(_ context.Context, expiresAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateSweeps = append(s.stateSweeps, expiresAt)
	return 2, s.err
}

func (s *sweepStore) DeleteExpiredPendingSubscriptions(_ context.Context, expiresAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingSweeps = append(s.pendingSweeps, expiresAt)
	return 1, s.err
}

func (s *sweepStore) DeleteDeliveryRecordsBefore(_ context.Context, deliveredAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveryCutoffs = append(s.deliveryCutoffs, deliveredAt)
	return 5, s.err
}

func testTasks(store db.Store) *housekeeping.Tasks {
	return housekeeping.New(store, &serverconfig.HousekeepingConfig{
		SweepInterval:         time.Hour,
		DeliveryRetentionDays: 7,
	})
}

func TestSweeps(t *testing.T) {
	t.Parallel()

	store := &sweepStore{}
	tasks := testTasks(store)
	ctx := context.Background()

	tasks.SweepOAuthStates(ctx)
	tasks.SweepPendingSubscriptions(ctx)
	tasks.SweepDeliveryRecords(ctx)

	require.Len(t, store.stateSweeps, 1)
	assert.WithinDuration(t, time.Now(), store.stateSweeps[0], time.Minute)
	require.Len(t, store.pendingSweeps, 1)

	// Delivery records are pruned with a cutoff in the past, not now.
	require.Len(t, store.deliveryCutoffs, 1)
	expected := time.Now().AddDate(0, 0, -7)
	assert.WithinDuration(t, expected, store.deliveryCutoffs[0], time.Minute)
}

func TestSweepErrorsAreNonFatal(t *testing.T) {
	t.Parallel()

	store := &sweepStore{err: errors.New("db down")}
	tasks := testTasks(store)
	ctx := context.Background()

	// Sweeps log and swallow store errors so one failed run does not
	// take down the scheduler.
	tasks.SweepOAuthStates(ctx)
	tasks.SweepPendingSubscriptions(ctx)
	tasks.SweepDeliveryRecords(ctx)

	assert.Len(t, store.stateSweeps, 1)
	assert.Len(t, store.pendingSweeps, 1)
	assert.Len(t, store.deliveryCutoffs, 1)
}

func TestStartAndStop(t *testing.T) {
	t.Parallel()

	store := &sweepStore{}
	tasks := testTasks(store)

	require.NoError(t, tasks.Start(context.Background()))
	tasks.Stop()
}
