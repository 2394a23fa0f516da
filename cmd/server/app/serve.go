// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/towns-protocol/github-bot/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bridge service",
	Long:  "Starts the webhook receiver, polling engine, housekeeping tasks and the HTTP control plane.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx := loggingContext(cfg)
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, closer, err := wireUpDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer closer()

		svc, err := service.New(ctx, cfg, store, nil)
		if err != nil {
			return err
		}

		zerolog.Ctx(ctx).Info().
			Bool("github_app", cfg.GitHubApp.Enabled()).
			Bool("oauth", cfg.OAuth.Enabled()).
			Msg("starting bridge service")
		return svc.Run(ctx)
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
