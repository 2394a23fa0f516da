// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// DatabaseConfig is the configuration for the database
type DatabaseConfig struct {
	Host string `mapstructure:"dbhost" default:"localhost"`
	Port int    `mapstructure:"dbport" default:"5432"`
	User string `mapstructure:"dbuser" default:"postgres"`
	//nolint:gosec // Deprecated; prefer to load password via environment
	Password string `mapstructure:"dbpass" default:"postgres"`
	Name     string `mapstructure:"dbname" default:"townsbot"`
	SSLMode  string `mapstructure:"sslmode" default:"disable"`
	// SSLRootCert is an optional CA bundle used to verify the database
	// server certificate when SSLMode requires it.
	SSLRootCert     string `mapstructure:"sslrootcert" default:""`
	MaxConnections  int    `mapstructure:"max_connections" default:"10"`
	IdleConnections int    `mapstructure:"idle_connections" default:"0"`
}

// GetDBURI returns the database URI built from the configuration.
func (c *DatabaseConfig) GetDBURI() string {
	uri := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, url.QueryEscape(c.Password), c.Host, c.Port, c.Name, c.SSLMode)
	if c.SSLRootCert != "" {
		uri += "&sslrootcert=" + url.QueryEscape(c.SSLRootCert)
	}
	return uri
}

// GetDBConnection returns a connection to the database
func (c *DatabaseConfig) GetDBConnection(ctx context.Context) (*sql.DB, string, error) {
	uri := c.GetDBURI()
	zerolog.Ctx(ctx).Info().Str("host", c.Host).Int("port", c.Port).Str("user", c.User).
		Str("dbname", c.Name).Msg("Connecting to DB")

	conn, err := sql.Open("postgres", uri)
	if err != nil {
		return nil, "", err
	}

	if c.MaxConnections != 0 {
		conn.SetMaxOpenConns(c.MaxConnections)
	}
	if c.IdleConnections != 0 {
		conn.SetMaxIdleConns(c.IdleConnections)
	}

	for i := 0; i < 8; i++ {
		// we don't defer canceling the context because we want to cancel it as
		// soon as we're done and we might overwrite the context in the loop
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)

		err = conn.PingContext(pingCtx)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msgf("Unable to initialize connection to DB, retry %d", i)
			time.Sleep(1 * time.Second)
		} else {
			zerolog.Ctx(ctx).Info().Msg("Connected to DB")
			cancel()
			return conn, uri, nil
		}

		cancel()
	}

	if closeErr := conn.Close(); closeErr != nil {
		zerolog.Ctx(ctx).Error().Err(closeErr).Msg("Failed to close DB connection")
	}
	return nil, "", err
}
