// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package credentials manages the link between Towns users and their
// GitHub identity: the OAuth authorization flow, encrypted token storage,
// transparent refresh, and revocation.
package credentials

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	gogithub "github.com/google/go-github/v63/github"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	oauth2github "golang.org/x/oauth2/github"
	"golang.org/x/sync/singleflight"

	serverconfig "github.com/towns-protocol/github-bot/internal/config/server"
	"github.com/towns-protocol/github-bot/internal/crypto"
	"github.com/towns-protocol/github-bot/internal/db"
	"github.com/towns-protocol/github-bot/internal/github"
)

var (
	// ErrNotLinked means the Towns user has no stored GitHub credential.
	ErrNotLinked = errors.New("user has not linked a GitHub account")
	// ErrInvalidState means the OAuth callback carried an unknown state value.
	ErrInvalidState = errors.New("invalid OAuth state")
	// ErrStateExpired means the OAuth state was found but past its TTL.
	ErrStateExpired = errors.New("OAuth state expired")
)

// ValidationStatus is the outcome of checking a stored credential against
// the GitHub API.
type ValidationStatus string

const (
	// StatusValid means the token was accepted by GitHub.
	StatusValid ValidationStatus = "valid"
	// StatusInvalid means GitHub rejected the token; the stored credential
	// has been removed.
	StatusInvalid ValidationStatus = "invalid"
	// StatusNotLinked means there is no stored credential for the user.
	StatusNotLinked ValidationStatus = "not_linked"
	// StatusUnknown means the check could not be completed, e.g. a network
	// failure; the stored credential is kept.
	StatusUnknown ValidationStatus = "unknown"
)

// LinkResult is returned after a successful OAuth callback.
type LinkResult struct {
	TownsUserID    string
	GithubUserID   int64
	GithubLogin    string
	SpaceID        string
	ChannelID      string
	RedirectAction string
	RedirectData   string
}

// identityClient is the slice of the GitHub API the manager needs to
// resolve who a token belongs to.
type identityClient interface {
	GetAuthenticatedUser(ctx context.Context) (*gogithub.User, error)
}

// userClientFactory builds a GitHub client for an access token. Tests
// override this to avoid network calls.
type userClientFactory func(ctx context.Context, accessToken string) identityClient

// Manager implements the credential lifecycle.
type Manager struct {
	store      db.Store
	engine     crypto.Engine
	oauthCfg   *serverconfig.OAuthClientConfig
	authCfg    *serverconfig.AuthConfig
	newClient  userClientFactory
	refreshGrp singleflight.Group
}

// NewManager creates a credential manager.
func NewManager(
	store db.Store,
	engine crypto.Engine,
	oauthCfg *serverconfig.OAuthClientConfig,
	authCfg *serverconfig.AuthConfig,
) *Manager {
	return &Manager{
		store:    store,
		engine:   engine,
		oauthCfg: oauthCfg,
		authCfg:  authCfg,
		newClient: func(ctx context.Context, accessToken string) identityClient {
			return github.NewUserClient(ctx, accessToken)
		},
	}
}

func (m *Manager) oauth2Config() (*oauth2.Config, error) {
	clientID, err := m.oauthCfg.GetClientID()
	if err != nil {
		return nil, fmt.Errorf("cannot read OAuth client ID: %w", err)
	}
	clientSecret, err := m.oauthCfg.GetClientSecret()
	if err != nil {
		return nil, fmt.Errorf("cannot read OAuth client secret: %w", err)
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     oauth2github.Endpoint,
		RedirectURL:  m.oauthCfg.GetRedirectURL(),
	}, nil
}

// BeginAuthorization starts the OAuth flow for a Towns user. It stores a
// single-use state nonce and returns the GitHub authorization URL the user
// should visit.
func (m *Manager) BeginAuthorization(
	ctx context.Context, townsUserID, spaceID, channelID, action, data string,
) (string, error) {
	cfg, err := m.oauth2Config()
	if err != nil {
		return "", err
	}

	stateBytes := make([]byte, 32)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", fmt.Errorf("cannot generate state: %w", err)
	}
	state := hex.EncodeToString(stateBytes)

	_, err = m.store.CreateOAuthState(ctx, db.CreateOAuthStateParams{
		State:          state,
		TownsUserID:    townsUserID,
		SpaceID:        spaceID,
		ChannelID:      channelID,
		RedirectAction: action,
		RedirectData:   data,
		ExpiresAt:      time.Now().Add(m.authCfg.StateTTL),
	})
	if err != nil {
		return "", fmt.Errorf("cannot store OAuth state: %w", err)
	}

	return cfg.AuthCodeURL(state), nil
}

// CompleteAuthorization handles the OAuth callback. The state is consumed
// whether or not the exchange succeeds. If the GitHub account was
// previously linked to a different Towns user, the old link is removed so
// one GitHub identity maps to at most one Towns user.
func (m *Manager) CompleteAuthorization(ctx context.Context, state, code string) (*LinkResult, error) {
	row, err := m.store.GetOAuthState(ctx, state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("cannot look up OAuth state: %w", err)
	}
	// Single use: consume the state before anything can fail.
	if err := m.store.DeleteOAuthState(ctx, state); err != nil {
		return nil, fmt.Errorf("cannot consume OAuth state: %w", err)
	}
	if time.Now().After(row.ExpiresAt) {
		return nil, ErrStateExpired
	}

	cfg, err := m.oauth2Config()
	if err != nil {
		return nil, err
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("OAuth code exchange failed: %w", err)
	}

	user, err := m.newClient(ctx, tok.AccessToken).GetAuthenticatedUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch GitHub user: %w", err)
	}

	params, err := m.tokenParams(row.TownsUserID, user.GetID(), user.GetLogin(), tok)
	if err != nil {
		return nil, err
	}

	err = m.store.WithTransactionErr(func(qtx db.Querier) error {
		// A GitHub account maps to at most one Towns user. Linking moves
		// the mapping rather than failing.
		moved, err := qtx.DeleteTokenByGithubUserID(ctx, db.DeleteTokenByGithubUserIDParams{
			GithubUserID: user.GetID(),
			TownsUserID:  row.TownsUserID,
		})
		if err != nil {
			return err
		}
		if moved > 0 {
			zerolog.Ctx(ctx).Info().
				Int64("github_user_id", user.GetID()).
				Str("towns_user_id", row.TownsUserID).
				Msg("GitHub account relinked to a different user")
		}
		_, err = qtx.UpsertToken(ctx, params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("cannot store credentials: %w", err)
	}

	return &LinkResult{
		TownsUserID:    row.TownsUserID,
		GithubUserID:   user.GetID(),
		GithubLogin:    user.GetLogin(),
		SpaceID:        row.SpaceID,
		ChannelID:      row.ChannelID,
		RedirectAction: row.RedirectAction,
		RedirectData:   row.RedirectData,
	}, nil
}

func (m *Manager) tokenParams(
	townsUserID string, githubUserID int64, githubLogin string, tok *oauth2.Token,
) (db.UpsertTokenParams, error) {
	encAccess, err := m.engine.EncryptString(tok.AccessToken)
	if err != nil {
		return db.UpsertTokenParams{}, fmt.Errorf("cannot encrypt access token: %w", err)
	}

	params := db.UpsertTokenParams{
		TownsUserID:  townsUserID,
		GithubUserID: githubUserID,
		GithubLogin:  githubLogin,
		AccessToken:  encAccess,
		TokenType:    tok.TokenType,
	}
	if params.TokenType == "" {
		params.TokenType = "bearer"
	}
	if !tok.Expiry.IsZero() {
		params.ExpiresAt = sql.NullTime{Time: tok.Expiry, Valid: true}
	}
	if tok.RefreshToken != "" {
		encRefresh, err := m.engine.EncryptString(tok.RefreshToken)
		if err != nil {
			return db.UpsertTokenParams{}, fmt.Errorf("cannot encrypt refresh token: %w", err)
		}
		params.RefreshToken = sql.NullString{String: encRefresh, Valid: true}
		if rtExpiry, ok := refreshExpiry(tok); ok {
			params.RefreshTokenExpiresAt = sql.NullTime{Time: rtExpiry, Valid: true}
		}
	}
	return params, nil
}

// refreshExpiry extracts the refresh_token_expires_in extra field GitHub
// returns when token expiration is enabled for the App.
func refreshExpiry(tok *oauth2.Token) (time.Time, bool) {
	switch v := tok.Extra("refresh_token_expires_in").(type) {
	case float64:
		if v > 0 {
			return time.Now().Add(time.Duration(v) * time.Second), true
		}
	case int64:
		if v > 0 {
			return time.Now().Add(time.Duration(v) * time.Second), true
		}
	}
	return time.Time{}, false
}

// AccessToken returns a live access token for the user, refreshing it
// first when it is within the refresh lookahead of expiry. Concurrent
// callers for the same user share one refresh.
func (m *Manager) AccessToken(ctx context.Context, townsUserID string) (string, error) {
	row, err := m.store.GetToken(ctx, townsUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotLinked
		}
		return "", fmt.Errorf("cannot load credentials: %w", err)
	}

	if !m.tokenExpiring(row) {
		return m.engine.DecryptString(row.AccessToken)
	}
	if !refreshUsable(row) {
		return "", fmt.Errorf("%w: access token expired", ErrNotLinked)
	}

	tokAny, err, _ := m.refreshGrp.Do(townsUserID, func() (any, error) {
		return m.refresh(ctx, row)
	})
	if err != nil {
		return "", err
	}
	return tokAny.(string), nil
}

// Client returns a GitHub client authenticated as the user, refreshing
// the token first if needed.
func (m *Manager) Client(ctx context.Context, townsUserID string) (*github.Client, error) {
	token, err := m.AccessToken(ctx, townsUserID)
	if err != nil {
		return nil, err
	}
	return github.NewUserClient(ctx, token), nil
}

// tokenExpiring reports whether the stored access token is expired or
// inside the refresh lookahead window. Tokens without an expiry never
// expire.
func (m *Manager) tokenExpiring(row db.Token) bool {
	return row.ExpiresAt.Valid &&
		time.Now().Add(m.authCfg.RefreshLookahead).After(row.ExpiresAt.Time)
}

// refreshUsable reports whether a refresh token is stored and has not
// itself expired.
func refreshUsable(row db.Token) bool {
	if !row.RefreshToken.Valid {
		return false
	}
	return !row.RefreshTokenExpiresAt.Valid || time.Now().Before(row.RefreshTokenExpiresAt.Time)
}

// refresh exchanges the stored refresh token for a new token pair. A
// failed refresh means the grant is gone, so the stored credential is
// removed and the user must relink.
func (m *Manager) refresh(ctx context.Context, row db.Token) (string, error) {
	refreshToken, err := m.engine.DecryptString(row.RefreshToken.String)
	if err != nil {
		return "", fmt.Errorf("cannot decrypt refresh token: %w", err)
	}

	cfg, err := m.oauth2Config()
	if err != nil {
		return "", err
	}
	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("towns_user_id", row.TownsUserID).
			Msg("token refresh failed, unlinking user")
		if delErr := m.store.DeleteToken(ctx, row.TownsUserID); delErr != nil {
			return "", fmt.Errorf("cannot remove stale credentials: %w", delErr)
		}
		return "", fmt.Errorf("%w: token refresh rejected", ErrNotLinked)
	}

	params, err := m.updateParams(row.TownsUserID, tok)
	if err != nil {
		return "", err
	}
	if _, err := m.store.UpdateTokenCredentials(ctx, params); err != nil {
		return "", fmt.Errorf("cannot store refreshed credentials: %w", err)
	}
	return tok.AccessToken, nil
}

func (m *Manager) updateParams(townsUserID string, tok *oauth2.Token) (db.UpdateTokenCredentialsParams, error) {
	encAccess, err := m.engine.EncryptString(tok.AccessToken)
	if err != nil {
		return db.UpdateTokenCredentialsParams{}, fmt.Errorf("cannot encrypt access token: %w", err)
	}
	params := db.UpdateTokenCredentialsParams{
		TownsUserID: townsUserID,
		AccessToken: encAccess,
	}
	if !tok.Expiry.IsZero() {
		params.ExpiresAt = sql.NullTime{Time: tok.Expiry, Valid: true}
	}
	if tok.RefreshToken != "" {
		encRefresh, err := m.engine.EncryptString(tok.RefreshToken)
		if err != nil {
			return db.UpdateTokenCredentialsParams{}, fmt.Errorf("cannot encrypt refresh token: %w", err)
		}
		params.RefreshToken = sql.NullString{String: encRefresh, Valid: true}
		if rtExpiry, ok := refreshExpiry(tok); ok {
			params.RefreshTokenExpiresAt = sql.NullTime{Time: rtExpiry, Valid: true}
		}
	}
	return params, nil
}

// Validate checks the stored credential against the GitHub API. A token
// GitHub rejects with 401 is deleted so later calls report NotLinked.
func (m *Manager) Validate(ctx context.Context, townsUserID string) (ValidationStatus, error) {
	accessToken, err := m.AccessToken(ctx, townsUserID)
	if err != nil {
		if errors.Is(err, ErrNotLinked) {
			return StatusNotLinked, nil
		}
		return StatusUnknown, err
	}

	_, err = m.newClient(ctx, accessToken).GetAuthenticatedUser(ctx)
	switch {
	case err == nil:
		return StatusValid, nil
	case github.IsUnauthorized(err):
		if delErr := m.store.DeleteToken(ctx, townsUserID); delErr != nil {
			return StatusInvalid, fmt.Errorf("cannot remove invalid credentials: %w", delErr)
		}
		return StatusInvalid, nil
	default:
		return StatusUnknown, err
	}
}

// Disconnect removes the stored credential, revoking the OAuth grant on a
// best effort basis first. Revocation failures are logged, not returned;
// the local deletion is what matters.
func (m *Manager) Disconnect(ctx context.Context, townsUserID string) error {
	row, err := m.store.GetToken(ctx, townsUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotLinked
		}
		return fmt.Errorf("cannot load credentials: %w", err)
	}

	if accessToken, err := m.engine.DecryptString(row.AccessToken); err == nil {
		clientID, idErr := m.oauthCfg.GetClientID()
		clientSecret, secErr := m.oauthCfg.GetClientSecret()
		if idErr == nil && secErr == nil {
			if err := github.RevokeOAuthGrant(ctx, clientID, clientSecret, accessToken); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).
					Str("towns_user_id", townsUserID).
					Msg("grant revocation failed")
			}
		}
	}

	return m.store.DeleteToken(ctx, townsUserID)
}
