// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package server

// Text is the constant for the text format
const Text = "text"

// LoggingConfig is the configuration for the logging package
type LoggingConfig struct {
	Level   string `mapstructure:"level" default:"info"`
	Format  string `mapstructure:"format" default:"json"`
	LogFile string `mapstructure:"logfile" default:""`
}
