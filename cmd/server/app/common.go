// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/towns-protocol/github-bot/internal/config"
	serverconfig "github.com/towns-protocol/github-bot/internal/config/server"
	"github.com/towns-protocol/github-bot/internal/db"
	"github.com/towns-protocol/github-bot/internal/logger"
)

// This file contains logic shared between different commands.

func readConfig() (*serverconfig.Config, error) {
	cfg, err := config.ReadConfigFromViper[serverconfig.Config](viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("unable to read config: %w", err)
	}
	return cfg, nil
}

func loggingContext(cfg *serverconfig.Config) context.Context {
	return logger.FromFlags(cfg.Logging).WithContext(context.Background())
}

func wireUpDB(ctx context.Context, cfg *serverconfig.Config) (db.Store, func(), error) {
	zerolog.Ctx(ctx).Debug().
		Str("name", cfg.Database.Name).
		Str("host", cfg.Database.Host).
		Str("user", cfg.Database.User).
		Str("ssl_mode", cfg.Database.SSLMode).
		Int("port", cfg.Database.Port).
		Msg("connecting to database")

	dbConn, _, err := cfg.Database.GetDBConnection(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	closer := func() {
		if err := dbConn.Close(); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("error closing database connection")
		}
	}

	return db.NewStore(dbConn), closer, nil
}
