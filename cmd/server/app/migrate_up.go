// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

// upCmd represents the up command
var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Migrate the database to the latest version",
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

		usteps, err := cmd.Flags().GetUint("num-steps")
		if err != nil {
			cmd.Printf("Error while getting num-steps flag: %v", err)
		}

		if usteps == 0 {
			err = m.Up()
		} else {
			err = m.Steps(int(usteps))
		}
		if err != nil {
			if !errors.Is(err, migrate.ErrNoChange) {
				return err
			}
			cmd.Println("Database already up-to-date")
		} else {
			cmd.Println("Database migration completed successfully")
		}

		version, dirty, err := m.Version()
		if err != nil {
			cmd.Printf("Error while getting migration version: %v\n", err)
			// not fatal
		} else {
			cmd.Printf("Version=%v dirty=%v\n", version, dirty)
		}
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(upCmd)
	upCmd.Flags().Uint("num-steps", 0, "Number of steps to migrate (0 means all)")
}
