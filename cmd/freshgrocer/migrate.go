package main

import (
	"github.com/spf13/cobra"

	applog "freshgrocer/internal/log"
)

var noSeed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema and load demo data",
	Long: `Create every table if missing. Demo categories, users and listings are
loaded too unless --no-seed is given; seeding is idempotent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(!noSeed)
		if err != nil {
			return err
		}
		defer db.Close()
		applog.L().Info("migrate.done")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&noSeed, "no-seed", false, "skip demo data")
	rootCmd.AddCommand(migrateCmd)
}
