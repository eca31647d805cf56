package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	storex "github.com/tanpawarit/erp-insight-agent/agent/store"
	"github.com/tanpawarit/erp-insight-agent/pkg/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			if s.DB.Driver == database.DriverMemory {
				fmt.Fprintln(cmd.OutOrStdout(), "memory driver has no schema to migrate")
				return nil
			}

			db, err := database.Open(cmd.Context(), s.DB)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := storex.Migrate(cmd.Context(), db.DB, s.DB.Driver); err != nil {
				return err
			}
			version, err := storex.MigrationVersion(cmd.Context(), db.DB, s.DB.Driver)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}
