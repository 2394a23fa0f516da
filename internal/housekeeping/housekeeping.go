// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package housekeeping runs the periodic cleanup tasks: expired OAuth
// states, expired pending subscriptions, and old delivery records. All
// tasks are idempotent and safe to run at any time.
package housekeeping

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	serverconfig "github.com/towns-protocol/github-bot/internal/config/server"
	"github.com/towns-protocol/github-bot/internal/db"
)

// Tasks owns the cleanup schedule.
type Tasks struct {
	store db.Store
	cfg   *serverconfig.HousekeepingConfig
	cron  *cron.Cron
}

// New creates the housekeeping tasks.
func New(store db.Store, cfg *serverconfig.HousekeepingConfig) *Tasks {
	return &Tasks{
		store: store,
		cfg:   cfg,
	}
}

// Start schedules the sweeps and starts the scheduler. The given context
// is attached to every run for logging and cancellation.
func (t *Tasks) Start(ctx context.Context) error {
	t.cron = cron.New()
	spec := fmt.Sprintf("@every %s", t.cfg.SweepInterval)

	if _, err := t.cron.AddFunc(spec, func() { t.SweepOAuthStates(ctx) }); err != nil {
		return fmt.Errorf("cannot schedule OAuth state sweep: %w", err)
	}
	if _, err := t.cron.AddFunc(spec, func() { t.SweepPendingSubscriptions(ctx) }); err != nil {
		return fmt.Errorf("cannot schedule pending subscription sweep: %w", err)
	}
	// Delivery records only need daily attention; the retention window is
	// measured in days.
	if _, err := t.cron.AddFunc("@daily", func() { t.SweepDeliveryRecords(ctx) }); err != nil {
		return fmt.Errorf("cannot schedule delivery record sweep: %w", err)
	}

	t.cron.Start()
	zerolog.Ctx(ctx).Info().
		Dur("sweep_interval", t.cfg.SweepInterval).
		Int("delivery_retention_days", t.cfg.DeliveryRetentionDays).
		Msg("housekeeping started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (t *Tasks) Stop() {
	if t.cron != nil {
		<-t.cron.Stop().Done()
	}
}

// SweepOAuthStates deletes expired OAuth state nonces.
func (t *Tasks) SweepOAuthStates(ctx context.Context) {
	n, err := t.store.DeleteExpiredOAuthStates(ctx, time.Now())
	logSweep(ctx, "oauth_states", n, err)
}

// SweepPendingSubscriptions deletes expired pending subscriptions.
func (t *Tasks) SweepPendingSubscriptions(ctx context.Context) {
	n, err := t.store.DeleteExpiredPendingSubscriptions(ctx, time.Now())
	logSweep(ctx, "pending_subscriptions", n, err)
}

// SweepDeliveryRecords deletes delivery records older than the retention
// window.
func (t *Tasks) SweepDeliveryRecords(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -t.cfg.DeliveryRetentionDays)
	n, err := t.store.DeleteDeliveryRecordsBefore(ctx, cutoff)
	logSweep(ctx, "delivery_records", n, err)
}

func logSweep(ctx context.Context, table string, removed int64, err error) {
	log := zerolog.Ctx(ctx)
	if err != nil {
		log.Error().Err(err).Str("table", table).Msg("housekeeping sweep failed")
		return
	}
	if removed > 0 {
		log.Info().Str("table", table).Int64("removed", removed).Msg("housekeeping sweep")
	}
}
