// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package github wraps the go-github client with the narrow set of
// operations the bot needs: user identity, repository metadata, the public
// events feed with conditional requests, and App installation lookups.
package github

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"

	"github.com/google/go-github/v63/github"
	"golang.org/x/oauth2"
)

// Client is a thin facade over the go-github client.
type Client struct {
	gh *github.Client
}

// NewUserClient returns a client authenticated with a user's OAuth access
// token.
func NewUserClient(ctx context.Context, accessToken string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	return &Client{gh: github.NewClient(oauth2.NewClient(ctx, ts))}
}

// NewAnonymousClient returns an unauthenticated client. It is used for
// polling public repositories, where the per-IP rate limit is acceptable
// and no credential can leak.
func NewAnonymousClient() *Client {
	return &Client{gh: github.NewClient(nil)}
}

// NewAppClient returns a client that authenticates as the GitHub App
// itself, signing a fresh App JWT for every request.
func NewAppClient(appID int64, privateKey *rsa.PrivateKey) *Client {
	tr := &appJWTTransport{
		appID:      appID,
		privateKey: privateKey,
		base:       http.DefaultTransport,
	}
	return &Client{gh: github.NewClient(&http.Client{Transport: tr})}
}

type appJWTTransport struct {
	appID      int64
	privateKey *rsa.PrivateKey
	base       http.RoundTripper
}

func (t *appJWTTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := CreateAppJWT(t.appID, t.privateKey)
	if err != nil {
		return nil, fmt.Errorf("cannot create app JWT: %w", err)
	}
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(req)
}

// GetAuthenticatedUser returns the user the client's token belongs to.
func (c *Client) GetAuthenticatedUser(ctx context.Context) (*github.User, error) {
	user, _, err := c.gh.Users.Get(ctx, "")
	return user, err
}

// GetUser fetches a user or organization account by login.
func (c *Client) GetUser(ctx context.Context, login string) (*github.User, error) {
	user, _, err := c.gh.Users.Get(ctx, login)
	return user, err
}

// GetRepository fetches repository metadata.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*github.Repository, error) {
	r, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	return r, err
}

// GetPullRequest fetches a single pull request.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	return pr, err
}

// GetAppInstallation fetches an App installation by ID. Requires an App
// client.
func (c *Client) GetAppInstallation(ctx context.Context, installationID int64) (*github.Installation, error) {
	inst, _, err := c.gh.Apps.GetInstallation(ctx, installationID)
	return inst, err
}

// EventsPage is one page of a repository's events feed plus the caching
// metadata needed to resume the next poll.
type EventsPage struct {
	Events      []*github.Event
	ETag        string
	NotModified bool
	// PollInterval is GitHub's requested minimum seconds between polls,
	// zero when the header is absent.
	PollInterval int
}

// ListRepositoryEvents fetches the repository events feed as a conditional
// request. When etag is non-empty it is sent as If-None-Match; a 304
// response yields NotModified with no events and does not count against the
// rate limit.
func (c *Client) ListRepositoryEvents(ctx context.Context, owner, repo, etag string, perPage int) (*EventsPage, error) {
	u := fmt.Sprintf("repos/%s/%s/events?per_page=%d", owner, repo, perPage)
	req, err := c.gh.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	var events []*github.Event
	resp, err := c.gh.Do(ctx, req, &events)
	if resp != nil && resp.StatusCode == http.StatusNotModified {
		return &EventsPage{ETag: etag, NotModified: true, PollInterval: pollInterval(resp)}, nil
	}
	if err != nil {
		return nil, err
	}

	return &EventsPage{
		Events:       events,
		ETag:         resp.Header.Get("ETag"),
		PollInterval: pollInterval(resp),
	}, nil
}

func pollInterval(resp *github.Response) int {
	var secs int
	_, _ = fmt.Sscanf(resp.Header.Get("X-Poll-Interval"), "%d", &secs)
	return secs
}

// RevokeOAuthGrant revokes the app authorization that issued the given
// access token. This invalidates the token and all refresh tokens derived
// from it.
func RevokeOAuthGrant(ctx context.Context, clientID, clientSecret, accessToken string) error {
	tr := &github.BasicAuthTransport{
		Username: clientID,
		Password: clientSecret,
	}
	client := github.NewClient(tr.Client())
	_, err := client.Authorizations.DeleteGrant(ctx, clientID, accessToken)
	return err
}
