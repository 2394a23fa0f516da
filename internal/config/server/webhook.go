// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"github.com/towns-protocol/github-bot/internal/config"
)

// WebhookConfig is the configuration for the GitHub webhook receiver
type WebhookConfig struct {
	// WebhookSecret is the secret GitHub signs deliveries with
	WebhookSecret string `mapstructure:"webhook_secret" default:""`
	// WebhookSecretFile is the location of the file containing the webhook secret
	WebhookSecretFile string `mapstructure:"webhook_secret_file" default:""`
}

// GetWebhookSecret returns the webhook signing secret
func (wc *WebhookConfig) GetWebhookSecret() (string, error) {
	return config.FileOrArg(wc.WebhookSecretFile, wc.WebhookSecret, "webhook secret")
}
