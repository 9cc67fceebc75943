package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"userapi/internal/database"
)

var migrateSteps int

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *gorm.DB) error {
			if err := database.MigrateUp(db); err != nil {
				return err
			}
			return logVersion(db)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert migrations (all of them unless --steps is set)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *gorm.DB) error {
			if err := database.MigrateDown(db, migrateSteps); err != nil {
				return err
			}
			return logVersion(db)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied migration version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *gorm.DB) error {
			version, dirty, ok, err := database.MigrationVersion(db)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				_, err = fmt.Fprintln(out, "no migrations applied")
				return err
			}
			_, err = fmt.Fprintf(out, "version %d (dirty: %t)\n", version, dirty)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 0, "number of migrations to revert (0 reverts all)")
}

// withDatabase runs fn against the selected profile's database.
func withDatabase(fn func(db *gorm.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	return fn(db)
}

func logVersion(db *gorm.DB) error {
	version, dirty, ok, err := database.MigrationVersion(db)
	if err != nil {
		return err
	}
	if !ok {
		log.Info().Msg("no migrations applied")
		return nil
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations applied")
	return nil
}
