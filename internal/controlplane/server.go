// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package controlplane implements the HTTP surface of the service: the
// GitHub webhook endpoint, the OAuth callback, and liveness.
package controlplane

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	serverconfig "github.com/towns-protocol/github-bot/internal/config/server"
	"github.com/towns-protocol/github-bot/internal/controlplane/metrics"
	"github.com/towns-protocol/github-bot/internal/credentials"
	"github.com/towns-protocol/github-bot/internal/db"
	"github.com/towns-protocol/github-bot/internal/webhook"
)

// CredentialCompleter finishes the OAuth flow for a callback request.
type CredentialCompleter interface {
	CompleteAuthorization(ctx context.Context, state, code string) (*credentials.LinkResult, error)
}

// Server is the control plane HTTP server.
type Server struct {
	cfg      *serverconfig.Config
	store    db.Store
	receiver *webhook.Receiver
	creds    CredentialCompleter
	mt       metrics.Metrics
}

// NewServer creates the control plane server.
func NewServer(
	cfg *serverconfig.Config,
	store db.Store,
	receiver *webhook.Receiver,
	creds CredentialCompleter,
	mt metrics.Metrics,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		receiver: receiver,
		creds:    creds,
		mt:       mt,
	}
}

// Routes returns the HTTP routing table.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/github-webhook", s.receiver.HandleWebhook())
	mux.HandleFunc("/oauth/callback", s.handleOAuthCallback)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Run serves HTTP until the context is cancelled, then drains in-flight
// handlers for a bounded period.
func (s *Server) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	srv := &http.Server{
		Addr:              s.cfg.HTTPServer.GetAddress(),
		Handler:           s.withRequestLogger(ctx, s.Routes()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", srv.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTPServer.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown incomplete: %w", err)
	}
	logger.Info().Msg("HTTP server stopped")
	return nil
}

// withRequestLogger attaches the base logger to every request context so
// handlers can use zerolog.Ctx.
func (*Server) withRequestLogger(base context.Context, next http.Handler) http.Handler {
	logger := zerolog.Ctx(base)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithContext(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.CheckHealth(); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		renderCallbackPage(w, http.StatusBadRequest, "Missing code or state parameter.")
		return
	}

	result, err := s.creds.CompleteAuthorization(ctx, state, code)
	switch {
	case err == nil:
		zerolog.Ctx(ctx).Info().
			Str("towns_user_id", result.TownsUserID).
			Str("github_login", result.GithubLogin).
			Msg("GitHub account linked")
		renderCallbackPage(w, http.StatusOK,
			fmt.Sprintf("GitHub account %s linked. You can close this window and return to Towns.", result.GithubLogin))
	case errors.Is(err, credentials.ErrInvalidState):
		renderCallbackPage(w, http.StatusBadRequest, "This link is invalid or was already used. Please restart the flow from Towns.")
	case errors.Is(err, credentials.ErrStateExpired):
		renderCallbackPage(w, http.StatusBadRequest, "This link has expired. Please restart the flow from Towns.")
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("OAuth callback failed")
		renderCallbackPage(w, http.StatusInternalServerError, "Something went wrong while linking your account. Please try again.")
	}
}
