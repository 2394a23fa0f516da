// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"github.com/spf13/cobra"
)

// versionCmd shows the current migration version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current migration version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		m, closer, err := openMigrator(cmd, cfg)
		if err != nil {
			return err
		}
		defer closer()

		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		cmd.Printf("Version=%v dirty=%v\n", version, dirty)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(versionCmd)
}
