package main

import (
	"fmt"

	database "spectrum-academy/pkg"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить SQL-миграции",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.NewPostgres(app.cfg.Database, app.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := database.RunMigrations(app.ctx, db, app.logger)
			if err != nil {
				return err
			}

			fmt.Printf("✅ Применено миграций: %d\n", n)
			return nil
		},
	}
}
