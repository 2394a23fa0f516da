// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package webhook implements the GitHub webhook receiver: signature
// verification, delivery idempotency, and dispatch to the installation
// manager and event processor.
package webhook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	gogithub "github.com/google/go-github/v63/github"
	"github.com/rs/zerolog"

	serverconfig "github.com/towns-protocol/github-bot/internal/config/server"
	"github.com/towns-protocol/github-bot/internal/controlplane/metrics"
	"github.com/towns-protocol/github-bot/internal/db"
	"github.com/towns-protocol/github-bot/internal/events"
	"github.com/towns-protocol/github-bot/internal/events/render"
)

// EventProcessor delivers a normalized event to subscribed channels.
type EventProcessor interface {
	Deliver(ctx context.Context, source db.DeliveryMode, evt events.Event) error
}

// InstallationManager handles installation lifecycle payloads.
type InstallationManager interface {
	HandleInstallation(ctx context.Context, evt *gogithub.InstallationEvent) error
	HandleInstallationRepositories(ctx context.Context, evt *gogithub.InstallationRepositoriesEvent) error
}

// Receiver handles POST /github-webhook.
type Receiver struct {
	store     db.Store
	cfg       *serverconfig.WebhookConfig
	enabled   bool
	installs  InstallationManager
	processor EventProcessor
	mt        metrics.Metrics
}

// NewReceiver creates a webhook receiver. enabled mirrors whether the
// GitHub App is configured; a disabled receiver answers 503 to
// everything.
func NewReceiver(
	store db.Store,
	cfg *serverconfig.WebhookConfig,
	enabled bool,
	installs InstallationManager,
	processor EventProcessor,
	mt metrics.Metrics,
) *Receiver {
	return &Receiver{
		store:     store,
		cfg:       cfg,
		enabled:   enabled,
		installs:  installs,
		processor: processor,
		mt:        mt,
	}
}

// HandleWebhook handles incoming GitHub webhooks
// See https://docs.github.com/en/developers/webhooks-and-events/webhooks/about-webhooks
// for more information.
func (rec *Receiver) HandleWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		wes := &metrics.WebhookEventState{
			Typ:      "unknown",
			Accepted: false,
			Error:    true,
		}
		status := http.StatusOK
		defer func() {
			rec.mt.AddWebhookEventTypeCount(ctx, wes)
			rec.mt.AddWebhookStatusCodeCount(ctx, status)
		}()

		deliveryID := gogithub.DeliveryID(r)
		eventType := gogithub.WebHookType(r)
		signature := r.Header.Get(gogithub.SHA256SignatureHeader)
		if deliveryID == "" || eventType == "" || signature == "" {
			status = http.StatusBadRequest
			http.Error(w, "missing webhook headers", status)
			return
		}
		wes.Typ = eventType

		if !rec.enabled {
			status = http.StatusServiceUnavailable
			http.Error(w, "GitHub App not configured", status)
			return
		}

		secret, err := rec.cfg.GetWebhookSecret()
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("cannot read webhook secret")
			status = http.StatusServiceUnavailable
			http.Error(w, "GitHub App not configured", status)
			return
		}

		// HMAC-SHA256 over the raw body, constant-time compare.
		payload, err := gogithub.ValidatePayload(r, []byte(secret))
		if err != nil {
			status = http.StatusUnauthorized
			http.Error(w, "signature verification failed", status)
			return
		}

		l := zerolog.Ctx(ctx).With().
			Str("webhook-event-type", eventType).
			Str("upstream-delivery-id", deliveryID).
			Logger()
		ctx = l.WithContext(ctx)

		if _, err := rec.store.GetDeliveryRecord(ctx, deliveryID); err == nil {
			l.Debug().Msg("delivery already processed")
			fmt.Fprintln(w, "already processed")
			return
		} else if !errors.Is(err, sql.ErrNoRows) {
			l.Error().Err(err).Msg("delivery record lookup failed")
			status = http.StatusInternalServerError
			http.Error(w, "internal error", status)
			return
		}

		accepted, installationID, handleErr := rec.dispatch(ctx, eventType, payload)
		wes.Accepted = accepted
		wes.Error = handleErr != nil

		recordStatus := db.DeliveryStatusSuccess
		var recordError sql.NullString
		if handleErr != nil {
			l.Error().Err(handleErr).Msg("webhook handler failed")
			recordStatus = db.DeliveryStatusFailed
			recordError = sql.NullString{String: handleErr.Error(), Valid: true}
		}

		// First writer wins: a concurrent duplicate that lost the race is
		// treated the same as an already-processed delivery.
		if _, err := rec.store.InsertDeliveryRecord(ctx, db.InsertDeliveryRecordParams{
			DeliveryID:     deliveryID,
			InstallationID: installationID,
			EventType:      eventType,
			Status:         recordStatus,
			Error:          recordError,
		}); err != nil {
			l.Error().Err(err).Msg("cannot insert delivery record")
			status = http.StatusInternalServerError
			http.Error(w, "internal error", status)
			return
		}

		if handleErr != nil {
			status = http.StatusInternalServerError
			http.Error(w, "processing failed", status)
			return
		}
		fmt.Fprintln(w, "ok")
	}
}

// dispatch routes a verified payload. The bool reports whether the event
// type had a handler at all; unhandled types are acknowledged and
// ignored.
func (rec *Receiver) dispatch(ctx context.Context, eventType string, payload []byte) (bool, sql.NullInt64, error) {
	parsed, err := gogithub.ParseWebHook(eventType, payload)
	if err != nil {
		return false, sql.NullInt64{}, fmt.Errorf("cannot parse %s payload: %w", eventType, err)
	}

	switch evt := parsed.(type) {
	case *gogithub.PingEvent:
		zerolog.Ctx(ctx).Info().Str("zen", evt.GetZen()).Msg("webhook ping")
		return true, sql.NullInt64{}, nil
	case *gogithub.InstallationEvent:
		id := nullInstallationID(evt.GetInstallation())
		return true, id, rec.installs.HandleInstallation(ctx, evt)
	case *gogithub.InstallationRepositoriesEvent:
		id := nullInstallationID(evt.GetInstallation())
		return true, id, rec.installs.HandleInstallationRepositories(ctx, evt)
	default:
		rendered, ok := render.WebhookEvent(parsed)
		if !ok {
			zerolog.Ctx(ctx).Debug().Str("event_type", eventType).Msg("acknowledged unhandled event")
			return false, sql.NullInt64{}, nil
		}
		return true, sql.NullInt64{}, rec.processor.Deliver(ctx, db.DeliveryModeWebhook, rendered)
	}
}

func nullInstallationID(inst *gogithub.Installation) sql.NullInt64 {
	if inst.GetID() == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: inst.GetID(), Valid: true}
}
