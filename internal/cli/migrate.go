package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/storage/postgres"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long:  `Bring the schema of the store selected by DATA_BACKEND up to date.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rootOpts.config()
			formatter := rootOpts.formatter(cmd)

			var err error
			switch cfg.DataBackend {
			case config.BackendSQLite:
				formatter.VerboseLog("Migrating %s", cfg.DBPath)
				err = sqlite.RunMigrations(cfg.DBPath)
			case config.BackendPostgres:
				if cfg.DatabaseURL == "" {
					return NewExitError(ExitCommandError, "DATABASE_URL is not set")
				}
				err = postgres.RunMigrations(cfg.DatabaseURL)
			case config.BackendMemory:
				return NewExitError(ExitCommandError, "the memory backend has no schema")
			default:
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown data backend %q", cfg.DataBackend))
			}
			if err != nil {
				return WrapExitError(ExitFailure, "migration failed", err)
			}
			return formatter.Success(fmt.Sprintf("Schema up to date (%s)", cfg.DataBackend))
		},
	}
}
