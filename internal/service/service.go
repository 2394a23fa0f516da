// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package service wires the whole bridge together: storage, credential
// handling, the webhook receiver, the polling engine, housekeeping and
// the HTTP control plane.
package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/towns-protocol/github-bot/internal/chat"
	serverconfig "github.com/towns-protocol/github-bot/internal/config/server"
	"github.com/towns-protocol/github-bot/internal/controlplane"
	"github.com/towns-protocol/github-bot/internal/controlplane/metrics"
	"github.com/towns-protocol/github-bot/internal/credentials"
	"github.com/towns-protocol/github-bot/internal/crypto"
	"github.com/towns-protocol/github-bot/internal/db"
	"github.com/towns-protocol/github-bot/internal/events"
	"github.com/towns-protocol/github-bot/internal/github"
	"github.com/towns-protocol/github-bot/internal/housekeeping"
	"github.com/towns-protocol/github-bot/internal/installations"
	"github.com/towns-protocol/github-bot/internal/polling"
	"github.com/towns-protocol/github-bot/internal/subscriptions"
	"github.com/towns-protocol/github-bot/internal/webhook"
)

// Service is the assembled bridge.
type Service struct {
	cfg     *serverconfig.Config
	store   db.Store
	creds   *credentials.Manager
	subs    *subscriptions.Service
	tracker *subscriptions.PendingMessageTracker
	poller  *polling.Engine
	keeper  *housekeeping.Tasks
	server  *controlplane.Server
}

// New builds the service from configuration. transport may be nil, in
// which case messages are written to the log; the hosting bot framework
// passes its real transport here.
func New(ctx context.Context, cfg *serverconfig.Config, store db.Store, transport chat.Transport) (*Service, error) {
	tokenKey, err := cfg.Auth.GetTokenKey()
	if err != nil {
		return nil, fmt.Errorf("cannot read token key: %w", err)
	}
	engine := crypto.NewEngine(tokenKey)

	if transport == nil {
		transport = chat.NewLogTransport()
	}

	creds := credentials.NewManager(store, engine, &cfg.OAuth, &cfg.Auth)

	tracker := subscriptions.NewPendingMessageTracker()
	subs := subscriptions.NewService(
		store, creds, transport, tracker,
		cfg.GitHubApp.AppSlug, cfg.Housekeeping.PendingSubscriptionTTL,
	)

	appEnabled := cfg.GitHubApp.Enabled()
	var appClient installations.AppClient
	if appEnabled {
		privateKey, err := cfg.GitHubApp.GetPrivateKey()
		if err != nil {
			return nil, fmt.Errorf("cannot load GitHub App key: %w", err)
		}
		appClient = github.NewAppClient(cfg.GitHubApp.AppID, privateKey)
	}
	installMgr := installations.NewManager(store, subs, appClient)

	anon := github.NewAnonymousClient()
	processor := events.NewProcessor(store, transport, anon)

	mt := metrics.NewMetrics()
	if err := mt.Init(store); err != nil {
		return nil, fmt.Errorf("cannot initialize metrics: %w", err)
	}

	receiver := webhook.NewReceiver(store, &cfg.Webhook, appEnabled, installMgr, processor, mt)

	return &Service{
		cfg:     cfg,
		store:   store,
		creds:   creds,
		subs:    subs,
		tracker: tracker,
		poller:  polling.NewEngine(store, processor, anon, &cfg.Polling),
		keeper:  housekeeping.New(store, &cfg.Housekeeping),
		server:  controlplane.NewServer(cfg, store, receiver, creds, mt),
	}, nil
}

// Credentials exposes the credential manager to the hosting bot.
func (s *Service) Credentials() *credentials.Manager {
	return s.creds
}

// Subscriptions exposes the subscription service to the hosting bot.
func (s *Service) Subscriptions() *subscriptions.Service {
	return s.subs
}

// Run starts all background workers and the HTTP server, and blocks
// until the context is cancelled or a component fails.
func (s *Service) Run(ctx context.Context) error {
	if err := s.keeper.Start(ctx); err != nil {
		return err
	}
	defer s.keeper.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.server.Run(ctx)
	})
	g.Go(func() error {
		s.poller.Run(ctx)
		return nil
	})
	g.Go(func() error {
		s.tracker.Run(ctx)
		return nil
	})
	return g.Wait()
}
