// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package controlplane_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serverconfig "github.com/towns-protocol/github-bot/internal/config/server"
	"github.com/towns-protocol/github-bot/internal/controlplane"
	"github.com/towns-protocol/github-bot/internal/controlplane/metrics"
	"github.com/towns-protocol/github-bot/internal/credentials"
	"github.com/towns-protocol/github-bot/internal/db"
	"github.com/towns-protocol/github-bot/internal/webhook"
)

type healthStore struct {
	db.Store

	healthErr error
}

func (s *healthStore) CheckHealth() error {
	return s.healthErr
}

type fakeCompleter struct {
	result *credentials.LinkResult
	err    error

	gotState string
	gotCode  string
}

func (f *fakeCompleter) CompleteAuthorization(_ context.Context, state, code string) (*credentials.LinkResult, error) {
	f.gotState = state
	f.gotCode = code
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestServer(store db.Store, creds *fakeCompleter) *controlplane.Server {
	cfg := serverconfig.DefaultConfigForTest()
	receiver := webhook.NewReceiver(store, &cfg.Webhook, false, nil, nil, metrics.NewNoopMetrics())
	return controlplane.NewServer(cfg, store, receiver, creds, metrics.NewNoopMetrics())
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&healthStore{}, &fakeCompleter{})
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestHealthEndpointUnhealthy(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&healthStore{healthErr: errors.New("db gone")}, &fakeCompleter{})
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOAuthCallbackSuccess(t *testing.T) {
	t.Parallel()

	creds := &fakeCompleter{result: &credentials.LinkResult{
		TownsUserID: "towns-user-1",
		GithubLogin: "octocat",
	}}
	srv := newTestServer(&healthStore{}, creds)

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/oauth/callback?code=auth-code&state=state-nonce", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "state-nonce", creds.gotState)
	assert.Equal(t, "auth-code", creds.gotCode)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "octocat linked")
}

func TestOAuthCallbackMissingParams(t *testing.T) {
	t.Parallel()

	creds := &fakeCompleter{}
	srv := newTestServer(&healthStore{}, creds)

	for _, target := range []string{
		"/oauth/callback",
		"/oauth/callback?code=auth-code",
		"/oauth/callback?state=state-nonce",
	} {
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
	assert.Empty(t, creds.gotState, "incomplete requests never reach the flow")
}

func TestOAuthCallbackErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "invalid state",
			err:        credentials.ErrInvalidState,
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid or was already used",
		},
		{
			name:       "expired state",
			err:        credentials.ErrStateExpired,
			wantStatus: http.StatusBadRequest,
			wantBody:   "expired",
		},
		{
			name:       "exchange failure",
			err:        errors.New("github unreachable"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Something went wrong",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(&healthStore{}, &fakeCompleter{err: tc.err})
			rec := httptest.NewRecorder()
			srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
				"/oauth/callback?code=c&state=s", nil))

			require.Equal(t, tc.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
		})
	}
}

func TestWebhookRouteWired(t *testing.T) {
	t.Parallel()

	// The receiver is constructed disabled, so the route answering 503
	// proves the webhook endpoint is wired through the mux.
	srv := newTestServer(&healthStore{}, &fakeCompleter{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/github-webhook", nil)
	req.Header.Set("X-GitHub-Delivery", "d-1")
	req.Header.Set("X-GitHub-Event", "push")
	req.Header.Set("X-Hub-Signature-256", "sha256=bad")
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
