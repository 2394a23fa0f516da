// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"time"
)

// HTTPServerConfig is the configuration for the HTTP server
type HTTPServerConfig struct {
	// Host is the host to bind to
	Host string `mapstructure:"host" default:""`
	// Port is the port to bind to
	Port int `mapstructure:"port" default:"8080"`
	// ShutdownTimeout bounds how long in-flight handlers are drained on
	// shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" default:"10s"`
}

// GetAddress returns the address to bind to
func (s *HTTPServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
