package main

import (
	"github.com/spf13/cobra"

	"github.com/yukikurage/worktime-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(_ *cobra.Command, _ []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.close()

		return database.Migrate(a.db, a.log)
	},
}
