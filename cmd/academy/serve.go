package main

import (
	"context"
	"fmt"
	"time"

	"spectrum-academy/internal/bot"
	"spectrum-academy/internal/models/config"
	attendance_repo "spectrum-academy/internal/repository/attendance"
	excuse_repo "spectrum-academy/internal/repository/excuse"
	notification_repo "spectrum-academy/internal/repository/notification"
	setting_repo "spectrum-academy/internal/repository/setting"
	user_repo "spectrum-academy/internal/repository/user"
	"spectrum-academy/internal/service"
	attendance_service "spectrum-academy/internal/service/attendance"
	auth_service "spectrum-academy/internal/service/auth"
	dashboard_service "spectrum-academy/internal/service/dashboard"
	excuse_service "spectrum-academy/internal/service/excuse"
	notification_service "spectrum-academy/internal/service/notification"
	setting_service "spectrum-academy/internal/service/setting"
	user_service "spectrum-academy/internal/service/user"
	"spectrum-academy/internal/web"
	database "spectrum-academy/pkg"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

const lifecycleTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API, бота и опрос настроек",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(app, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Применить миграции перед запуском")
	return cmd
}

func runServer(a *App, migrate bool) error {
	fxApp := fx.New(serverOptions(a, migrate))
	if err := fxApp.Err(); err != nil {
		return fmt.Errorf("ошибка сборки приложения: %w", err)
	}

	startCtx, cancel := context.WithTimeout(a.ctx, lifecycleTimeout)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		return fmt.Errorf("ошибка запуска: %w", err)
	}

	select {
	case <-a.ctx.Done():
		a.logger.Info("🛑 Получен сигнал завершения...")
	case sig := <-fxApp.Done():
		a.logger.Info("🛑 Получен сигнал завершения...", zap.String("signal", sig.String()))
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer cancelStop()
	if err := fxApp.Stop(stopCtx); err != nil {
		return fmt.Errorf("ошибка остановки: %w", err)
	}

	a.logger.Info("👋 Корректное завершение работы")
	return nil
}

func serverOptions(a *App, migrate bool) fx.Option {
	options := []fx.Option{
		fx.Supply(a.cfg, a.logger),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Provide(
			func(c *config.Config) config.DatabaseConfig { return c.Database },
			func(c *config.Config) config.HTTPConfig { return c.HTTP },
			func(c *config.Config) config.AuthConfig { return c.Auth },
			func(c *config.Config) config.BotConfig { return c.Bot },
			func(c *config.Config) config.SettingsConfig { return c.Settings },

			newDatabase,

			user_repo.NewUserRepository,
			attendance_repo.NewAttendanceRepository,
			excuse_repo.NewExcuseRepository,
			setting_repo.NewSettingRepository,
			notification_repo.NewNotificationRepository,

			user_service.NewUserService,
			attendance_service.NewAttendanceService,
			notification_service.NewNotificationService,
			excuse_service.NewExcuseService,
			setting_service.NewSettingService,
			dashboard_service.NewDashboardService,
			auth_service.NewAuthService,

			web.NewHandler,
			web.NewApp,
		),
	}

	if migrate {
		options = append(options, fx.Invoke(applyMigrations))
	}
	options = append(options, fx.Invoke(startSettingsPoller, startHTTPServer))

	if a.cfg.Bot.Enabled {
		options = append(options,
			fx.Provide(bot.NewBot),
			fx.Invoke(startBot),
		)
	} else {
		a.logger.Info("🤖 Бот выключен (BOT_ENABLED=false)")
	}

	return fx.Options(options...)
}

func newDatabase(lc fx.Lifecycle, cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := database.NewPostgres(cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

func applyMigrations(lc fx.Lifecycle, db *sqlx.DB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			n, err := database.RunMigrations(ctx, db, logger)
			if err != nil {
				return err
			}
			logger.Info("✅ Миграции применены", zap.Int("count", n))
			return nil
		},
	})
}

// startSettingsPoller загружает настройки и держит кэш свежим до остановки
func startSettingsPoller(lc fx.Lifecycle, settings service.SettingService, cfg config.SettingsConfig, logger *zap.Logger) {
	pollCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := settings.Refresh(ctx); err != nil {
				logger.Warn("Не удалось загрузить настройки, повторим при следующем опросе", zap.Error(err))
			}
			go func() {
				defer close(done)
				settings.Run(pollCtx, cfg.PollInterval)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}

func startHTTPServer(lc fx.Lifecycle, httpApp *fiber.App, cfg config.HTTPConfig, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("🌐 HTTP сервер запущен", zap.String("port", cfg.Port))
				if err := httpApp.Listen(":" + cfg.Port); err != nil {
					logger.Error("❌ Ошибка HTTP сервера", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return httpApp.ShutdownWithContext(ctx)
		},
	})
}

// startBot подключает бота к доставке уведомлений и читает обновления до остановки
func startBot(lc fx.Lifecycle, b *bot.Bot, notifications service.NotificationService, logger *zap.Logger) {
	notifications.SetDeliverer(b)

	botCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := b.Start(botCtx); err != nil {
					logger.Error("❌ Ошибка запуска бота", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return nil
		},
	})
}
