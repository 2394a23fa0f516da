// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/towns-protocol/github-bot/database"
	serverconfig "github.com/towns-protocol/github-bot/internal/config/server"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tool",
	Long:  `Use with a combination of up and down to migrate the database schema.`,
	Run: func(_ *cobra.Command, _ []string) {
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
	migrateCmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
}

// confirmOrAbort asks the operator for confirmation unless --yes was given.
func confirmOrAbort(cmd *cobra.Command) (bool, error) {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return false, fmt.Errorf("error while getting yes flag: %w", err)
	}
	if yes {
		return true, nil
	}

	cmd.Print("WARNING: Running this command will change the database structure. Do you want to continue? (y/n): ")
	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false, fmt.Errorf("error while reading user input: %w", err)
	}
	return response == "y", nil
}

// openMigrator connects to the configured database and returns a migrator
// over the embedded migration scripts.
func openMigrator(cmd *cobra.Command, cfg *serverconfig.Config) (database.Migrator, func(), error) {
	ctx := loggingContext(cfg)

	dbConn, connString, err := cfg.Database.GetDBConnection(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	closer := func() {
		if err := dbConn.Close(); err != nil {
			cmd.Printf("Error while closing database connection: %v\n", err)
		}
	}

	m, err := database.NewFromConnectionString(connString)
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("error while creating migration instance: %w", err)
	}
	return m, closer, nil
}
