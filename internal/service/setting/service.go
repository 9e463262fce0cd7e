package setting_service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"
	"spectrum-academy/internal/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minAdminCodeLength = 4

// settingService отдаёт настройки из кэша, который периодически
// перечитывается из таблицы (Run) и обновляется сразу при записи
type settingService struct {
	settingRepo repository.SettingRepository
	logger      *zap.Logger
	hashCost    int

	mu     sync.RWMutex
	cache  map[string]string
	loaded bool
	// version растёт с каждой записью; written хранит версию последней записи по ключу,
	// чтобы Refresh не затирал записи, сделанные после чтения снимка
	version int64
	written map[string]int64
}

func NewSettingService(settingRepo repository.SettingRepository, logger *zap.Logger) service.SettingService {
	return &settingService{
		settingRepo: settingRepo,
		logger:      logger,
		hashCost:    bcrypt.DefaultCost,
		cache:       make(map[string]string),
		written:     make(map[string]int64),
	}
}

func (s *settingService) Refresh(ctx context.Context) error {
	s.mu.RLock()
	snapshotVersion := s.version
	s.mu.RUnlock()

	settings, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("ошибка чтения настроек: %w", err)
	}

	fresh := make(map[string]string, len(settings))
	for _, st := range settings {
		fresh[st.Key] = st.Value
	}

	s.mu.Lock()
	for key, v := range s.written {
		if v > snapshotVersion {
			fresh[key] = s.cache[key]
		}
	}
	prev := s.cache[models.SettingMaintenanceMode]
	s.cache = fresh
	s.loaded = true
	s.mu.Unlock()

	if next := fresh[models.SettingMaintenanceMode]; prev != next {
		s.logger.Info("🛠 Режим обслуживания изменён", zap.String("maintenance_mode", next))
	}
	return nil
}

// Run перечитывает настройки каждые interval до отмены ctx
func (s *settingService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Опрос настроек остановлен")
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("Не удалось обновить настройки", zap.Error(err))
			}
		}
	}
}

func (s *settingService) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Refresh(ctx)
}

func (s *settingService) lookup(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cache[key]
	return v, ok
}

func (s *settingService) Get(ctx context.Context, key string) (string, error) {
	if key == models.SettingAdminCode {
		return "", service.ErrProtectedSetting
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return "", err
	}
	v, ok := s.lookup(key)
	if !ok {
		return "", service.ErrNotFound
	}
	return v, nil
}

// All возвращает все настройки, кроме хэша кода администратора
func (s *settingService) All(ctx context.Context) (map[string]string, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]string, len(s.cache))
	for k, v := range s.cache {
		if k == models.SettingAdminCode {
			continue
		}
		result[k] = v
	}
	return result, nil
}

func (s *settingService) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	switch key {
	case "":
		return fmt.Errorf("%w: key is required", service.ErrInvalidInput)
	case models.SettingAdminCode:
		return service.ErrProtectedSetting
	case models.SettingMaintenanceMode:
		enabled, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: maintenance_mode must be true or false", service.ErrInvalidInput)
		}
		value = strconv.FormatBool(enabled)
	}
	return s.store(ctx, key, value)
}

func (s *settingService) store(ctx context.Context, key, value string) error {
	if err := s.settingRepo.Upsert(ctx, key, value); err != nil {
		return fmt.Errorf("ошибка сохранения настройки %s: %w", key, err)
	}
	s.mu.Lock()
	s.cache[key] = value
	s.version++
	s.written[key] = s.version
	s.mu.Unlock()
	return nil
}

// Maintenance читает только кэш; до первой загрузки режим выключен
func (s *settingService) Maintenance() models.Maintenance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enabled, _ := strconv.ParseBool(s.cache[models.SettingMaintenanceMode])
	return models.Maintenance{
		Enabled: enabled,
		Message: s.cache[models.SettingMaintenanceMessage],
	}
}

func (s *settingService) SetAdminCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if len(code) < minAdminCodeLength {
		return fmt.Errorf("%w: admin code must be at least %d characters", service.ErrInvalidInput, minAdminCodeLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return fmt.Errorf("ошибка хэширования кода: %w", err)
	}
	return s.store(ctx, models.SettingAdminCode, string(hash))
}

func (s *settingService) VerifyAdminCode(ctx context.Context, code string) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	hash, ok := s.lookup(models.SettingAdminCode)
	if !ok || hash == "" {
		return service.ErrAdminCodeNotSet
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(code))) != nil {
		return service.ErrInvalidCredentials
	}
	return nil
}
