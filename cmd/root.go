package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"stockatelier/internal/database/migration"
	"stockatelier/internal/logger"

	"github.com/spf13/cobra"
)

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbURL := os.Getenv("DATABASE_URL")
		migrationDir, _ := cmd.Flags().GetString("dir")
		down, _ := cmd.Flags().GetBool("down")

		run := migration.Migrate
		if down {
			run = migration.Rollback
		}

		err := run(
			dbURL,
			fmt.Sprintf("file://%s", migrationDir),
			true,
			logger.NewLogger(),
		)
		if err != nil {
			log.Println(err.Error())
			return fmt.Errorf("migrate database: %w", err)
		}

		return nil
	},
}

func Execute(ctx context.Context) {
	rootCmd := &cobra.Command{
		Use:   "stockatelier",
		Short: "Workshop stock and work tracking service",
	}
	MigrateCmd.Flags().String("dir", "./migrations", "Directory containing the migration files")
	MigrateCmd.Flags().Bool("down", false, "Revert the most recent migration instead of applying")
	rootCmd.AddCommand(MigrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
