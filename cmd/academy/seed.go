package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"spectrum-academy/internal/models"
	setting_repo "spectrum-academy/internal/repository/setting"
	user_repo "spectrum-academy/internal/repository/user"
	"spectrum-academy/internal/service"
	setting_service "spectrum-academy/internal/service/setting"
	user_service "spectrum-academy/internal/service/user"
	database "spectrum-academy/pkg"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// seedFile: начальные данные академии
type seedFile struct {
	AdminCode string            `yaml:"adminCode" validate:"omitempty,min=4"`
	Settings  map[string]string `yaml:"settings"`
	Users     []seedUser        `yaml:"users" validate:"dive"`
}

type seedUser struct {
	Code              string   `yaml:"code"`
	Role              string   `yaml:"role" validate:"required,oneof=student player trainer admin employee"`
	FullName          string   `yaml:"fullName" validate:"required"`
	Phone             string   `yaml:"phone"`
	TrainerCode       string   `yaml:"trainerCode"`
	SubscriptionStart string   `yaml:"subscriptionStart" validate:"omitempty,datetime=2006-01-02"`
	SubscriptionEnd   string   `yaml:"subscriptionEnd" validate:"omitempty,datetime=2006-01-02"`
	Salary            *float64 `yaml:"salary" validate:"omitempty,gte=0"`
}

func parseSeed(data []byte) (*seedFile, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if err := validator.New().Struct(&seed); err != nil {
		return nil, fmt.Errorf("seed validation failed: %w", err)
	}
	return &seed, nil
}

// toModel переводит запись в пользователя; тренер подставляется по коду из уже созданных
func (u seedUser) toModel(trainers map[string]int64) (*models.User, error) {
	user := &models.User{
		Code:     strings.ToUpper(strings.TrimSpace(u.Code)),
		Role:     u.Role,
		FullName: u.FullName,
		Phone:    u.Phone,
		Salary:   u.Salary,
	}

	if u.TrainerCode != "" {
		id, ok := trainers[strings.ToUpper(u.TrainerCode)]
		if !ok {
			return nil, fmt.Errorf("тренер %s не найден среди ранее созданных", u.TrainerCode)
		}
		user.TrainerID = &id
	}

	for _, d := range []struct {
		raw string
		dst **time.Time
	}{
		{u.SubscriptionStart, &user.SubscriptionStart},
		{u.SubscriptionEnd, &user.SubscriptionEnd},
	} {
		if d.raw == "" {
			continue
		}
		t, err := time.Parse(models.DateLayout, d.raw)
		if err != nil {
			return nil, err
		}
		*d.dst = &t
	}
	return user, nil
}

type seedResult struct {
	Created int
	Skipped int
}

// applySeed создаёт пользователей (занятые коды пропускаются) и записывает настройки
func applySeed(ctx context.Context, seed *seedFile, users service.UserService, settings service.SettingService, logger *zap.Logger) (seedResult, error) {
	var result seedResult

	if seed.AdminCode != "" {
		if err := settings.SetAdminCode(ctx, seed.AdminCode); err != nil {
			return result, fmt.Errorf("не удалось сохранить код администратора: %w", err)
		}
	}
	for key, value := range seed.Settings {
		if err := settings.Set(ctx, key, value); err != nil {
			return result, fmt.Errorf("настройка %s: %w", key, err)
		}
	}

	trainers := make(map[string]int64)
	for i, u := range seed.Users {
		user, err := u.toModel(trainers)
		if err != nil {
			return result, fmt.Errorf("пользователь #%d: %w", i+1, err)
		}

		created, err := users.Create(ctx, user)
		if errors.Is(err, service.ErrCodeTaken) {
			logger.Info("Код уже занят, пропускаем", zap.String("code", user.Code))
			result.Skipped++
			if existing, getErr := users.GetByCode(ctx, user.Code); getErr == nil && existing.Role == models.RoleTrainer {
				trainers[existing.Code] = existing.ID
			}
			continue
		}
		if err != nil {
			return result, fmt.Errorf("пользователь #%d (%s): %w", i+1, u.FullName, err)
		}

		if created.Role == models.RoleTrainer {
			trainers[created.Code] = created.ID
		}
		logger.Info("Пользователь создан",
			zap.Int64("user_id", created.ID),
			zap.String("code", created.Code),
			zap.String("role", created.Role))
		result.Created++
	}
	return result, nil
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Загрузить пользователей и настройки из YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read seed file: %w", err)
			}
			seed, err := parseSeed(data)
			if err != nil {
				return err
			}

			db, err := database.NewPostgres(app.cfg.Database, app.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			users := user_service.NewUserService(user_repo.NewUserRepository(db))
			settings := setting_service.NewSettingService(setting_repo.NewSettingRepository(db), app.logger)

			result, err := applySeed(app.ctx, seed, users, settings, app.logger)
			if err != nil {
				return err
			}

			fmt.Printf("✅ Создано: %d, пропущено: %d\n", result.Created, result.Skipped)
			return nil
		},
	}
}
