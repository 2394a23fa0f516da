// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"strings"

	"github.com/towns-protocol/github-bot/internal/config"
)

// OAuthClientConfig is the configuration for the GitHub OAuth client used
// to link end users. User auth is enabled only when a client ID is set.
type OAuthClientConfig struct {
	// ClientID is the OAuth client ID
	ClientID string `mapstructure:"client_id" default:""`
	// ClientIDFile is the location of the file containing the OAuth client ID
	ClientIDFile string `mapstructure:"client_id_file" default:""`
	// ClientSecret is the OAuth client secret
	ClientSecret string `mapstructure:"client_secret" default:""`
	// ClientSecretFile is the location of the file containing the OAuth client secret
	ClientSecretFile string `mapstructure:"client_secret_file" default:""`
	// PublicBaseURL is the externally reachable base URL of this service,
	// used to derive the redirect URL when RedirectURL is not set.
	PublicBaseURL string `mapstructure:"public_base_url" default:""`
	// RedirectURL overrides the derived OAuth redirect URL
	RedirectURL string `mapstructure:"redirect_url" default:""`
}

// Enabled reports whether user OAuth is configured.
func (cfg *OAuthClientConfig) Enabled() bool {
	return cfg.ClientID != "" || cfg.ClientIDFile != ""
}

// GetClientID returns the OAuth client ID from either the file or the argument
func (cfg *OAuthClientConfig) GetClientID() (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("OAuthClientConfig is nil")
	}
	return config.FileOrArg(cfg.ClientIDFile, cfg.ClientID, "client ID")
}

// GetClientSecret returns the OAuth client secret from either the file or the argument
func (cfg *OAuthClientConfig) GetClientSecret() (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("OAuthClientConfig is nil")
	}
	return config.FileOrArg(cfg.ClientSecretFile, cfg.ClientSecret, "client secret")
}

// GetRedirectURL returns the OAuth redirect URL, deriving it from the public
// base URL when no explicit override is configured.
func (cfg *OAuthClientConfig) GetRedirectURL() string {
	if cfg.RedirectURL != "" {
		return cfg.RedirectURL
	}
	if cfg.PublicBaseURL == "" {
		return ""
	}
	return strings.TrimSuffix(cfg.PublicBaseURL, "/") + "/oauth/callback"
}
