// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package server

import "time"

// PollingConfig is the configuration for the repository polling engine
type PollingConfig struct {
	// Interval is how often the sweep over polling-mode repositories runs.
	Interval time.Duration `mapstructure:"interval" default:"5m"`
	// RepoBudget bounds how long a single repository may take during a
	// sweep so one slow repo cannot starve the rest.
	RepoBudget time.Duration `mapstructure:"repo_budget" default:"30s"`
	// PageSize is the number of events requested per poll.
	PageSize int `mapstructure:"page_size" default:"100"`
}

// HousekeepingConfig is the configuration for the periodic cleanup tasks
type HousekeepingConfig struct {
	// SweepInterval is how often expired OAuth states and pending
	// subscriptions are removed.
	SweepInterval time.Duration `mapstructure:"sweep_interval" default:"1h"`
	// PendingSubscriptionTTL is the lifetime of a pending subscription.
	PendingSubscriptionTTL time.Duration `mapstructure:"pending_subscription_ttl" default:"1h"`
	// DeliveryRetentionDays is how many days webhook delivery records are
	// retained for idempotency checks.
	DeliveryRetentionDays int `mapstructure:"delivery_retention_days" default:"7"`
}
