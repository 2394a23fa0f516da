// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics defines the primitives available for the controlplane metrics
package metrics

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/towns-protocol/github-bot/internal/db"
)

// WebhookEventState represents the state of a webhook event
type WebhookEventState struct {
	// Typ is the type of the event, e.g. push, installation, workflow_run, ...
	Typ string
	// Accepted is whether the event was dispatched to a handler or
	// acknowledged and ignored
	Accepted bool
	// Error is whether there was an error processing the event
	Error bool
}

// Metrics implements metrics management for the control plane
type Metrics interface {
	// Init initializes the metrics engine
	Init(db.Store) error

	// AddWebhookEventTypeCount adds a count to the webhook event type counter
	AddWebhookEventTypeCount(context.Context, *WebhookEventState)

	// AddWebhookStatusCodeCount adds a count to the webhook status code counter
	AddWebhookStatusCodeCount(context.Context, int)
}

type metricsImpl struct {
	meter           metric.Meter
	instrumentsOnce sync.Once

	// webhook http codes
	webhookStatusCodeCounter metric.Int64Counter
	// webhook event type counter
	webhookEventTypeCounter metric.Int64Counter
}

// NewMetrics creates a new controlplane metrics instance.
func NewMetrics() Metrics {
	return &metricsImpl{
		meter: otel.Meter("controlplane"),
	}
}

// Init initializes the metrics engine
func (m *metricsImpl) Init(store db.Store) error {
	var err error
	m.instrumentsOnce.Do(func() {
		err = m.initInstrumentsOnce(store)
	})
	return err
}

func (m *metricsImpl) initInstrumentsOnce(store db.Store) error {
	_, err := m.meter.Int64ObservableGauge("linked_user.count",
		metric.WithDescription("Number of users with a linked GitHub account"),
		metric.WithUnit("users"),
		metric.WithInt64Callback(func(ctx context.Context, observer metric.Int64Observer) error {
			c, err := store.CountTokens(ctx)
			if err != nil {
				return err
			}
			observer.Observe(c)
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create linked user count gauge: %w", err)
	}

	_, err = m.meter.Int64ObservableGauge("subscription.count",
		metric.WithDescription("Number of subscriptions in the database, labeled by delivery mode"),
		metric.WithUnit("subscriptions"),
		metric.WithInt64Callback(func(ctx context.Context, observer metric.Int64Observer) error {
			rows, err := store.CountSubscriptionsByMode(ctx)
			if err != nil {
				return err
			}
			for _, row := range rows {
				labels := []attribute.KeyValue{
					attribute.String("delivery_mode", string(row.DeliveryMode)),
				}
				observer.Observe(row.NumSubscriptions, metric.WithAttributes(labels...))
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription count gauge: %w", err)
	}

	m.webhookStatusCodeCounter, err = m.meter.Int64Counter("webhook.status_code",
		metric.WithDescription("Number of webhook requests by status code"),
		metric.WithUnit("requests"))
	if err != nil {
		return fmt.Errorf("failed to create webhook status code counter: %w", err)
	}

	m.webhookEventTypeCounter, err = m.meter.Int64Counter("webhook.event_type",
		metric.WithDescription("Number of webhook events by type"),
		metric.WithUnit("events"))
	if err != nil {
		return fmt.Errorf("failed to create webhook event type counter: %w", err)
	}

	return nil
}

// AddWebhookEventTypeCount adds a count to the webhook event type counter
func (m *metricsImpl) AddWebhookEventTypeCount(ctx context.Context, state *WebhookEventState) {
	if m.webhookEventTypeCounter == nil {
		return
	}
	labels := []attribute.KeyValue{
		attribute.String("webhook_event.type", state.Typ),
		attribute.Bool("webhook_event.accepted", state.Accepted),
		attribute.Bool("webhook_event.error", state.Error),
	}
	m.webhookEventTypeCounter.Add(ctx, 1, metric.WithAttributes(labels...))
}

// AddWebhookStatusCodeCount adds a count to the webhook status code counter
func (m *metricsImpl) AddWebhookStatusCodeCount(ctx context.Context, code int) {
	if m.webhookStatusCodeCounter == nil {
		return
	}
	m.webhookStatusCodeCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("status_code", code),
	))
}

// NewNoopMetrics returns a metrics implementation that does nothing, for
// use in tests.
func NewNoopMetrics() Metrics {
	return &noopMetrics{}
}

type noopMetrics struct{}

func (*noopMetrics) Init(db.Store) error                                          { return nil }
func (*noopMetrics) AddWebhookEventTypeCount(context.Context, *WebhookEventState) {}
func (*noopMetrics) AddWebhookStatusCodeCount(context.Context, int)               {}
