// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gogithub "github.com/google/go-github/v63/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	serverconfig "github.com/towns-protocol/github-bot/internal/config/server"
	"github.com/towns-protocol/github-bot/internal/crypto"
	"github.com/towns-protocol/github-bot/internal/db"
)

const testTokenKey = "0123456789abcdef0123456789abcdef"

type credStore struct {
	db.Store

	mu      sync.Mutex
	states  map[string]db.OauthState
	tokens  map[string]db.Token
	deleted []string
}

func newCredStore() *credStore {
	return &credStore{
		states: map[string]db.OauthState{},
		tokens: map[string]db.Token{},
	}
}

func (s *credStore) CreateOAuthState(_ context.Context, arg db.CreateOAuthStateParams) (db.OauthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := db.OauthState{
		State:          arg.State,
		TownsUserID:    arg.TownsUserID,
		SpaceID:        arg.SpaceID,
		ChannelID:      arg.ChannelID,
		RedirectAction: arg.RedirectAction,
		RedirectData:   arg.RedirectData,
		ExpiresAt:      arg.ExpiresAt,
	}
	s.states[arg.State] = row
	return row, nil
}

func (s *credStore) GetOAuthState(_ context.Context, state string) (db.OauthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.states[state]
	if !ok {
		return db.OauthState{}, sql.ErrNoRows
	}
	return row, nil
}

func (s *credStore) DeleteOAuthState(_ context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, state)
	return nil
}

func (s *credStore) GetToken(_ context.Context, townsUserID string) (db.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[townsUserID]
	if !ok {
		return db.Token{}, sql.ErrNoRows
	}
	return tok, nil
}

func (s *credStore) UpsertToken(_ context.Context, arg db.UpsertTokenParams) (db.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := db.Token{
		TownsUserID:           arg.TownsUserID,
		GithubUserID:          arg.GithubUserID,
		GithubLogin:           arg.GithubLogin,
		AccessToken:           arg.AccessToken,
		TokenType:             arg.TokenType,
		ExpiresAt:             arg.ExpiresAt,
		RefreshToken:          arg.RefreshToken,
		RefreshTokenExpiresAt: arg.RefreshTokenExpiresAt,
	}
	s.tokens[arg.TownsUserID] = tok
	return tok, nil
}

func (s *credStore) UpdateTokenCredentials(_ context.Context, arg db.UpdateTokenCredentialsParams) (db.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[arg.TownsUserID]
	if !ok {
		return db.Token{}, sql.ErrNoRows
	}
	tok.AccessToken = arg.AccessToken
	tok.ExpiresAt = arg.ExpiresAt
	if arg.RefreshToken.Valid {
		tok.RefreshToken = arg.RefreshToken
	}
	if arg.RefreshTokenExpiresAt.Valid {
		tok.RefreshTokenExpiresAt = arg.RefreshTokenExpiresAt
	}
	s.tokens[arg.TownsUserID] = tok
	return tok, nil
}

func (s *credStore) DeleteToken(_ context.Context, townsUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, townsUserID)
	delete(s.tokens, townsUserID)
	return nil
}

func (s *credStore) DeleteTokenByGithubUserID(_ context.Context, arg db.DeleteTokenByGithubUserIDParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, tok := range s.tokens {
		if tok.GithubUserID == arg.GithubUserID && id != arg.TownsUserID {
			delete(s.tokens, id)
			n++
		}
	}
	return n, nil
}

func (s *credStore) WithTransactionErr(fn func(querier db.Querier) error) error {
	return fn(s)
}

type fakeIdentity struct {
	user *gogithub.User
	err  error
}

func (f *fakeIdentity) GetAuthenticatedUser(_ context.Context) (*gogithub.User, error) {
	return f.user, f.err
}

// tokenTransport answers the OAuth token endpoint with a canned response
// and counts how many exchanges happened.
type tokenTransport struct {
	calls  atomic.Int64
	body   string
	status int
	delay  time.Duration
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls.Add(1)
	if t.delay > 0 {
		time.Sleep(t.delay)
	}
	status := t.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(t.body))),
		Request:    req,
	}, nil
}

func oauthContext(transport http.RoundTripper) context.Context {
	return context.WithValue(context.Background(),
		oauth2.HTTPClient, &http.Client{Transport: transport})
}

func testManager(store db.Store) *Manager {
	return NewManager(
		store,
		crypto.NewEngine(testTokenKey),
		&serverconfig.OAuthClientConfig{
			ClientID:      "test-client-id",
			ClientSecret:  "test-client-secret",
			PublicBaseURL: "https://bot.example.com",
		},
		&serverconfig.AuthConfig{
			RefreshLookahead: 5 * time.Minute,
			StateTTL:         15 * time.Minute,
		},
	)
}

func TestBeginAuthorization(t *testing.T) {
	t.Parallel()

	store := newCredStore()
	m := testManager(store)

	authURL, err := m.BeginAuthorization(context.Background(),
		"user-1", "space-1", "chan-1", "subscribe", "octo/hello")
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "test-client-id", u.Query().Get("client_id"))
	assert.Equal(t, "https://bot.example.com/oauth/callback", u.Query().Get("redirect_uri"))

	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	assert.Len(t, state, 64, "32 random bytes, hex encoded")

	row, err := store.GetOAuthState(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "user-1", row.TownsUserID)
	assert.Equal(t, "subscribe", row.RedirectAction)
	assert.Equal(t, "octo/hello", row.RedirectData)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), row.ExpiresAt, time.Minute)

	// Every flow gets its own nonce.
	secondURL, err := m.BeginAuthorization(context.Background(),
		"user-1", "space-1", "chan-1", "subscribe", "octo/hello")
	require.NoError(t, err)
	u2, err := url.Parse(secondURL)
	require.NoError(t, err)
	assert.NotEqual(t, state, u2.Query().Get("state"))
}

func TestCompleteAuthorizationStoresEncryptedTokens(t *testing.T) {
	t.Parallel()

	store := newCredStore()
	m := testManager(store)
	m.newClient = func(_ context.Context, accessToken string) identityClient {
		assert.Equal(t, "gho_fresh", accessToken)
		return &fakeIdentity{user: &gogithub.User{
			ID:    gogithub.Int64(42),
			Login: gogithub.String("octocat"),
		}}
	}

	authURL, err := m.BeginAuthorization(context.Background(),
		"user-1", "space-1", "chan-1", "subscribe", "octo/hello")
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	state := u.Query().Get("state")

	transport := &tokenTransport{
		body: `{"access_token":"gho_fresh","token_type":"bearer","expires_in":28800,` +
			`"refresh_token":"ghr_fresh","refresh_token_expires_in":15897600}`,
	}
	result, err := m.CompleteAuthorization(oauthContext(transport), state, "auth-code")
	require.NoError(t, err)

	assert.Equal(t, "user-1", result.TownsUserID)
	assert.Equal(t, int64(42), result.GithubUserID)
	assert.Equal(t, "octocat", result.GithubLogin)
	assert.Equal(t, "subscribe", result.RedirectAction)

	row, err := store.GetToken(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, "gho_fresh", row.AccessToken, "tokens are stored encrypted")
	assert.NotContains(t, row.AccessToken, "gho_fresh")
	assert.True(t, row.ExpiresAt.Valid)
	assert.True(t, row.RefreshToken.Valid)
	assert.True(t, row.RefreshTokenExpiresAt.Valid)

	plain, err := m.engine.DecryptString(row.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "gho_fresh", plain)

	// The state is single use.
	_, err = m.CompleteAuthorization(oauthContext(transport), state, "auth-code")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteAuthorizationRelinksGithubAccount(t *testing.T) {
	t.Parallel()

	store := newCredStore()
	store.tokens["old-user"] = db.Token{
		TownsUserID:  "old-user",
		GithubUserID: 42,
		GithubLogin:  "octocat",
	}
	m := testManager(store)
	m.newClient = func(context.Context, string) identityClient {
		return &fakeIdentity{user: &gogithub.User{
			ID:    gogithub.Int64(42),
			Login: gogithub.String("octocat"),
		}}
	}

	authURL, err := m.BeginAuthorization(context.Background(),
		"new-user", "space-1", "chan-1", "", "")
	require.NoError(t, err)
	u, _ := url.Parse(authURL)
	state := u.Query().Get("state")

	transport := &tokenTransport{body: `{"access_token":"gho_fresh","token_type":"bearer"}`}
	_, err = m.CompleteAuthorization(oauthContext(transport), state, "auth-code")
	require.NoError(t, err)

	_, err = store.GetToken(context.Background(), "old-user")
	assert.ErrorIs(t, err, sql.ErrNoRows, "a GitHub account maps to at most one Towns user")
	_, err = store.GetToken(context.Background(), "new-user")
	assert.NoError(t, err)
}

func TestCompleteAuthorizationUnknownState(t *testing.T) {
	t.Parallel()

	m := testManager(newCredStore())
	_, err := m.CompleteAuthorization(context.Background(), "bogus-state", "auth-code")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteAuthorizationExpiredState(t *testing.T) {
	t.Parallel()

	store := newCredStore()
	store.states["stale"] = db.OauthState{
		State:       "stale",
		TownsUserID: "user-1",
		ExpiresAt:   time.Now().Add(-time.Minute),
	}
	m := testManager(store)

	_, err := m.CompleteAuthorization(context.Background(), "stale", "auth-code")
	assert.ErrorIs(t, err, ErrStateExpired)

	// Consumed even though it failed.
	_, err = m.CompleteAuthorization(context.Background(), "stale", "auth-code")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func (s *credStore) putEncryptedToken(t *testing.T, m *Manager, townsUserID, access, refresh string, expiresAt time.Time) {
	t.Helper()
	encAccess, err := m.engine.EncryptString(access)
	require.NoError(t, err)
	tok := db.Token{
		TownsUserID:  townsUserID,
		GithubUserID: 42,
		GithubLogin:  "octocat",
		AccessToken:  encAccess,
	}
	if !expiresAt.IsZero() {
		tok.ExpiresAt = sql.NullTime{Time: expiresAt, Valid: true}
	}
	if refresh != "" {
		encRefresh, err := m.engine.EncryptString(refresh)
		require.NoError(t, err)
		tok.RefreshToken = sql.NullString{String: encRefresh, Valid: true}
	}
	s.mu.Lock()
	s.tokens[townsUserID] = tok
	s.mu.Unlock()
}

func TestAccessTokenNotLinked(t *testing.T) {
	t.Parallel()

	m := testManager(newCredStore())
	_, err := m.AccessToken(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestAccessTokenDecryptsWithoutRefresh(t *testing.T) {
	t.Parallel()

	store := newCredStore()
	m := testManager(store)
	store.putEncryptedToken(t, m, "user-1", "gho_live", "ghr_live", time.Now().Add(time.Hour))

	tok, err := m.AccessToken(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "gho_live", tok)
}

func TestAccessTokenExpiredWithoutRefreshToken(t *testing.T) {
	t.Parallel()

	store := newCredStore()
	m := testManager(store)
	store.putEncryptedToken(t, m, "user-1", "gho_dead", "", time.Now().Add(-time.Hour))

	_, err := m.AccessToken(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNotLinked,
		"an expired token with no refresh token is not returned as live")
}

func TestAccessTokenExpiredRefreshToken(t *testing.T) {
	t.Parallel()

	store := newCredStore()
	m := testManager(store)
	store.putEncryptedToken(t, m, "user-1", "gho_dead", "ghr_dead", time.Now().Add(-time.Hour))
	store.mu.Lock()
	tok := store.tokens["user-1"]
	tok.RefreshTokenExpiresAt = sql.NullTime{Time: time.Now().Add(-time.Minute), Valid: true}
	store.tokens["user-1"] = tok
	store.mu.Unlock()

	transport := &tokenTransport{body: `{"access_token":"gho_new","token_type":"bearer"}`}
	_, err := m.AccessToken(oauthContext(transport), "user-1")
	assert.ErrorIs(t, err, ErrNotLinked)
	assert.Zero(t, transport.calls.Load(),
		"an expired refresh token is never sent upstream")
}

func TestAccessTokenRefreshesExpiringToken(t *testing.T) {
	t.Parallel()

	store := newCredStore()
	m := testManager(store)
	store.putEncryptedToken(t, m, "user-1", "gho_old", "ghr_old", time.Now().Add(time.Minute))

	transport := &tokenTransport{
		body: `{"access_token":"gho_new","token_type":"bearer","expires_in":28800,` +
			`"refresh_token":"ghr_new","refresh_token_expires_in":15897600}`,
	}
	tok, err := m.AccessToken(oauthContext(transport), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "gho_new", tok)
	assert.Equal(t, int64(1), transport.calls.Load())

	row, err := store.GetToken(context.Background(), "user-1")
	require.NoError(t, err)
	access, err := m.engine.DecryptString(row.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "gho_new", access)
	refresh, err := m.engine.DecryptString(row.RefreshToken.String)
	require.NoError(t, err)
	assert.Equal(t, "ghr_new", refresh, "rotated refresh token replaces the old one")
}

func TestAccessTokenConcurrentRefreshRunsOnce(t *testing.T) {
	t.Parallel()

	store := newCredStore()
	m := testManager(store)
	store.putEncryptedToken(t, m, "user-1", "gho_old", "ghr_old", time.Now().Add(time.Minute))

	transport := &tokenTransport{
		body:  `{"access_token":"gho_new","token_type":"bearer","expires_in":28800}`,
		delay: 100 * time.Millisecond,
	}
	ctx := oauthContext(transport)

	const callers = 10
	var (
		start sync.WaitGroup
		done  sync.WaitGroup
	)
	start.Add(1)
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		i := i
		done.Add(1)
		go func() {
			defer done.Done()
			start.Wait()
			results[i], errs[i] = m.AccessToken(ctx, "user-1")
		}()
	}
	start.Done()
	done.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "gho_new", results[i])
	}
	assert.Equal(t, int64(1), transport.calls.Load(), "concurrent callers share one refresh")
}

func TestAccessTokenRefreshFailureUnlinks(t *testing.T) {
	t.Parallel()

	store := newCredStore()
	m := testManager(store)
	store.putEncryptedToken(t, m, "user-1", "gho_old", "ghr_revoked", time.Now().Add(time.Minute))

	transport := &tokenTransport{
		status: http.StatusBadRequest,
		body:   `{"error":"bad_refresh_token"}`,
	}
	_, err := m.AccessToken(oauthContext(transport), "user-1")
	assert.ErrorIs(t, err, ErrNotLinked)
	assert.Contains(t, store.deleted, "user-1", "a rejected refresh removes the stored credential")

	_, err = m.AccessToken(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNotLinked)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("not linked", func(t *testing.T) {
		t.Parallel()
		m := testManager(newCredStore())
		status, err := m.Validate(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, StatusNotLinked, status)
	})

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		store := newCredStore()
		m := testManager(store)
		store.putEncryptedToken(t, m, "user-1", "gho_live", "", time.Time{})
		m.newClient = func(context.Context, string) identityClient {
			return &fakeIdentity{user: &gogithub.User{Login: gogithub.String("octocat")}}
		}

		status, err := m.Validate(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, StatusValid, status)
	})

	t.Run("revoked token is removed", func(t *testing.T) {
		t.Parallel()
		store := newCredStore()
		m := testManager(store)
		store.putEncryptedToken(t, m, "user-1", "gho_revoked", "", time.Time{})
		m.newClient = func(context.Context, string) identityClient {
			return &fakeIdentity{err: &gogithub.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusUnauthorized, Request: &http.Request{}},
			}}
		}

		status, err := m.Validate(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, StatusInvalid, status)
		assert.Contains(t, store.deleted, "user-1")
	})

	t.Run("transient failure keeps the credential", func(t *testing.T) {
		t.Parallel()
		store := newCredStore()
		m := testManager(store)
		store.putEncryptedToken(t, m, "user-1", "gho_live", "", time.Time{})
		m.newClient = func(context.Context, string) identityClient {
			return &fakeIdentity{err: io.ErrUnexpectedEOF}
		}

		status, err := m.Validate(context.Background(), "user-1")
		assert.Error(t, err)
		assert.Equal(t, StatusUnknown, status)
		assert.Empty(t, store.deleted)
	})
}

func TestDisconnect(t *testing.T) {
	t.Parallel()

	t.Run("not linked", func(t *testing.T) {
		t.Parallel()
		m := testManager(newCredStore())
		assert.ErrorIs(t, m.Disconnect(context.Background(), "user-1"), ErrNotLinked)
	})

	t.Run("removes the stored credential", func(t *testing.T) {
		t.Parallel()
		store := newCredStore()
		m := testManager(store)
		// No client secret configured: revocation is skipped, deletion
		// still happens.
		m.oauthCfg = &serverconfig.OAuthClientConfig{}
		store.putEncryptedToken(t, m, "user-1", "gho_live", "", time.Time{})

		require.NoError(t, m.Disconnect(context.Background(), "user-1"))
		assert.Contains(t, store.deleted, "user-1")
	})
}

func TestTokenExpiring(t *testing.T) {
	t.Parallel()

	m := testManager(newCredStore())

	assert.False(t, m.tokenExpiring(db.Token{}),
		"tokens without expiry never expire")
	assert.False(t, m.tokenExpiring(db.Token{
		ExpiresAt: sql.NullTime{Time: time.Now().Add(time.Hour), Valid: true},
	}))
	assert.True(t, m.tokenExpiring(db.Token{
		ExpiresAt: sql.NullTime{Time: time.Now().Add(time.Minute), Valid: true},
	}), "inside the lookahead window")
	assert.True(t, m.tokenExpiring(db.Token{
		ExpiresAt: sql.NullTime{Time: time.Now().Add(-time.Minute), Valid: true},
	}))
}

func TestRefreshUsable(t *testing.T) {
	t.Parallel()

	assert.False(t, refreshUsable(db.Token{}),
		"no refresh token means nothing to refresh with")
	assert.True(t, refreshUsable(db.Token{
		RefreshToken: sql.NullString{String: "enc", Valid: true},
	}), "without a recorded expiry the refresh token is assumed live")
	assert.True(t, refreshUsable(db.Token{
		RefreshToken:          sql.NullString{String: "enc", Valid: true},
		RefreshTokenExpiresAt: sql.NullTime{Time: time.Now().Add(time.Hour), Valid: true},
	}))
	assert.False(t, refreshUsable(db.Token{
		RefreshToken:          sql.NullString{String: "enc", Valid: true},
		RefreshTokenExpiresAt: sql.NullTime{Time: time.Now().Add(-time.Minute), Valid: true},
	}))
}
