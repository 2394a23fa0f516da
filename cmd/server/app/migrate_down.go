// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"github.com/spf13/cobra"
)

// downCmd represents the down command
var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		ok, err := confirmOrAbort(cmd)
		if err != nil {
			return err
		}
		if !ok {
			cmd.Println("Exiting...")
			return nil
		}

		m, closer, err := openMigrator(cmd, cfg)
		if err != nil {
			return err
		}
		defer closer()

		if err := m.Down(); err != nil {
			return err
		}
		cmd.Println("Database migration down done with success. All tables dropped")
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(downCmd)
}
