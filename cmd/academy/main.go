package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"spectrum-academy/internal/logging"
	"spectrum-academy/internal/models/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App: то, что нужно всем командам
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	ctx    context.Context
}

var app *App

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "academy",
		Short:         "Spectrum Academy: посещаемость, объяснительные и бот",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(ctx)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.logger != nil {
				app.logger.Sync()
			}
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(genCodeCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// initApp загружает конфигурацию и логгер
func initApp(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	logger, err := logging.InitLogger(cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("🚀 Запуск", zap.String("environment", cfg.Environment))
	app = &App{cfg: cfg, logger: logger, ctx: ctx}
	return nil
}
