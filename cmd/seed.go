package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	storex "github.com/tanpawarit/erp-insight-agent/agent/store"
	"github.com/tanpawarit/erp-insight-agent/pkg/database"
)

func newSeedCmd() *cobra.Command {
	var fixturePath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML fixture into an empty database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fx := storex.DemoFixture()
			if fixturePath != "" {
				loaded, err := storex.LoadFixtureFile(fixturePath)
				if err != nil {
					return err
				}
				fx = loaded
			}

			s, err := loadSettings()
			if err != nil {
				return err
			}
			if s.DB.Driver == database.DriverMemory {
				return fmt.Errorf("seed needs a database driver, got %q", s.DB.Driver)
			}

			db, err := database.Open(cmd.Context(), s.DB)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := storex.Migrate(cmd.Context(), db.DB, s.DB.Driver); err != nil {
				return err
			}
			var seeder storex.Seeder = storex.NewBunStore(db)
			if err := seeder.Seed(cmd.Context(), fx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products, %d opportunities, %d quotations\n",
				len(fx.Products), len(fx.Opportunities), len(fx.Quotations))
			return nil
		},
	}

	cmd.Flags().StringVar(&fixturePath, "fixture", "", "YAML fixture file (default: built-in demo data)")
	return cmd
}
