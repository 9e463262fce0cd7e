package main

import (
	"fmt"
	"strings"

	user_repo "spectrum-academy/internal/repository/user"
	user_service "spectrum-academy/internal/service/user"
	database "spectrum-academy/pkg"

	"github.com/spf13/cobra"
)

func genCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-code <role>",
		Short: "Сгенерировать свободный код входа для роли",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.NewPostgres(app.cfg.Database, app.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			users := user_service.NewUserService(user_repo.NewUserRepository(db))
			code, err := users.GenerateCode(app.ctx, strings.ToLower(args[0]))
			if err != nil {
				return fmt.Errorf("не удалось сгенерировать код: %w", err)
			}

			fmt.Println(code)
			return nil
		},
	}
}
