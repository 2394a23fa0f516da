// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"time"

	"github.com/towns-protocol/github-bot/internal/config"
)

// AuthConfig is the configuration for user credential handling
type AuthConfig struct {
	// TokenKey is the secret from which the AES-256-GCM token encryption
	// key is derived. Must carry at least 32 bytes of entropy.
	TokenKey string `mapstructure:"token_key" default:""`
	// TokenKeyFile is the location of the file containing the token key
	TokenKeyFile string `mapstructure:"token_key_file" default:""`
	// RefreshLookahead is how long before expiry an access token is
	// treated as expiring and proactively refreshed.
	RefreshLookahead time.Duration `mapstructure:"refresh_lookahead" default:"5m"`
	// StateTTL is the lifetime of an OAuth state nonce.
	StateTTL time.Duration `mapstructure:"state_ttl" default:"15m"`
}

// GetTokenKey returns the raw token encryption secret
func (acfg *AuthConfig) GetTokenKey() (string, error) {
	return config.FileOrArg(acfg.TokenKeyFile, acfg.TokenKey, "token key")
}

// ValidateTokenKey checks that the configured secret carries enough entropy
// to derive the encryption key from.
func (acfg *AuthConfig) ValidateTokenKey() error {
	key, err := acfg.GetTokenKey()
	if err != nil {
		return err
	}
	if len(key) < 32 {
		return fmt.Errorf("auth.token_key must be at least 32 bytes, got %d", len(key))
	}
	return nil
}
