// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package server contains a centralized structure for all configuration
// options of the bridge service.
package server

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/towns-protocol/github-bot/internal/config"
)

// Config is the top-level configuration structure.
type Config struct {
	HTTPServer   HTTPServerConfig   `mapstructure:"http_server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Auth         AuthConfig         `mapstructure:"auth"`
	GitHubApp    GitHubAppConfig    `mapstructure:"github_app"`
	OAuth        OAuthClientConfig  `mapstructure:"oauth"`
	Webhook      WebhookConfig      `mapstructure:"webhook"`
	Polling      PollingConfig      `mapstructure:"polling"`
	Housekeeping HousekeepingConfig `mapstructure:"housekeeping"`
}

// Validate checks the parts of the configuration without which the service
// cannot start at all. Optional subsystems (GitHub App, OAuth) validate
// lazily when used.
func (c *Config) Validate() error {
	if c.Database.Name == "" || c.Database.Host == "" {
		return fmt.Errorf("database configuration is incomplete")
	}
	if err := c.Auth.ValidateTokenKey(); err != nil {
		return err
	}
	return nil
}

// DefaultConfigForTest returns a configuration with all the struct defaults set,
// but no other changes.
func DefaultConfigForTest() *Config {
	v := viper.New()
	SetViperDefaults(v)
	c, err := config.ReadConfigFromViper[Config](v)
	if err != nil {
		panic(fmt.Sprintf("Failed to read default config: %v", err))
	}
	return c
}

// SetViperDefaults sets the default values for the configuration to be picked
// up by viper
func SetViperDefaults(v *viper.Viper) {
	v.SetEnvPrefix("townsbot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	config.SetViperStructDefaults(v, "", Config{})
}
