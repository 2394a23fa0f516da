// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"github.com/towns-protocol/github-bot/internal/config"
)

// GitHubAppConfig is the configuration for the GitHub App integration.
// Webhook-mode delivery is enabled only when AppID and a private key are set.
type GitHubAppConfig struct {
	// AppID is the ID of the GitHub App
	AppID int64 `mapstructure:"app_id" default:"0"`
	// AppSlug is the URL slug of the GitHub App, used to build install links
	AppSlug string `mapstructure:"app_slug" default:"towns-github-bot"`
	// PrivateKey is the GitHub App's private key in PEM format
	PrivateKey string `mapstructure:"private_key" default:""`
	// PrivateKeyFile is the location of the file containing the private key
	PrivateKeyFile string `mapstructure:"private_key_file" default:""`
}

// Enabled reports whether the GitHub App integration is configured.
func (acfg *GitHubAppConfig) Enabled() bool {
	return acfg.AppID != 0 && (acfg.PrivateKey != "" || acfg.PrivateKeyFile != "")
}

// GetPrivateKey returns the GitHub App's parsed RSA private key
func (acfg *GitHubAppConfig) GetPrivateKey() (*rsa.PrivateKey, error) {
	pem, err := config.FileOrArg(acfg.PrivateKeyFile, acfg.PrivateKey, "private key")
	if err != nil {
		return nil, err
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("failed to parse GitHub App private key: %w", err)
	}
	return key, nil
}
