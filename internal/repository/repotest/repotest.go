// Package repotest содержит in-memory реализации репозиториев для тестов сервисов.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"spectrum-academy/internal/models"
	"spectrum-academy/internal/repository"
)

type UserRepo struct {
	mu     sync.Mutex
	nextID int64
	Users  map[int64]*models.User

	Err error
}

func NewUserRepo(users ...*models.User) *UserRepo {
	r := &UserRepo{Users: make(map[int64]*models.User)}
	for _, u := range users {
		r.put(u)
	}
	return r
}

func (r *UserRepo) put(u *models.User) {
	if u.ID == 0 {
		r.nextID++
		u.ID = r.nextID
	} else if u.ID > r.nextID {
		r.nextID = u.ID
	}
	cp := *u
	r.Users[u.ID] = &cp
}

func (r *UserRepo) codeTaken(code string, except int64) bool {
	for id, u := range r.Users {
		if u.Code == code && id != except {
			return true
		}
	}
	return false
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if r.codeTaken(user.Code, 0) {
		return repository.ErrDuplicate
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.put(user)
	return nil
}

func (r *UserRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.Users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *UserRepo) GetByCode(ctx context.Context, code string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Code == code })
}

func (r *UserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.TelegramID != nil && *u.TelegramID == telegramID })
}

func (r *UserRepo) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var users []*models.User
	for _, u := range r.Users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.Users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.codeTaken(user.Code, user.ID) {
		return repository.ErrDuplicate
	}
	user.UpdatedAt = time.Now()
	r.put(user)
	return nil
}

func (r *UserRepo) UpdateCodeAndStatus(ctx context.Context, id int64, code, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	u, ok := r.Users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if r.codeTaken(code, id) {
		return repository.ErrDuplicate
	}
	u.Code = code
	u.Status = status
	return nil
}

func (r *UserRepo) LinkTelegram(ctx context.Context, id int64, telegramID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	u, ok := r.Users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, other := range r.Users {
		if other.TelegramID != nil && *other.TelegramID == telegramID {
			other.TelegramID = nil
		}
	}
	tg := telegramID
	u.TelegramID = &tg
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.Users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.Users, id)
	return nil
}

func (r *UserRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	return r.codeTaken(code, 0), nil
}

func (r *UserRepo) CountByRole(ctx context.Context) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	counts := make(map[string]int)
	for _, u := range r.Users {
		counts[u.Role]++
	}
	return counts, nil
}

func (r *UserRepo) GetSubscriptionsEndingBetween(ctx context.Context, from, to time.Time) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var users []*models.User
	for _, u := range r.Users {
		if u.Status != models.StatusActive || u.SubscriptionEnd == nil {
			continue
		}
		if !u.SubscriptionEnd.Before(from) && u.SubscriptionEnd.Before(to) {
			cp := *u
			users = append(users, &cp)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].SubscriptionEnd.Before(*users[j].SubscriptionEnd) })
	return users, nil
}

type AttendanceRepo struct {
	mu      sync.Mutex
	nextID  int64
	Records map[int64]*models.AttendanceRecord

	Err       error
	UpdateErr error // ошибка только для UpdateStatusByPlayerAndDate
}

func NewAttendanceRepo(records ...models.AttendanceRecord) *AttendanceRepo {
	r := &AttendanceRepo{Records: make(map[int64]*models.AttendanceRecord)}
	for i := range records {
		rec := records[i]
		r.nextID++
		if rec.ID == 0 {
			rec.ID = r.nextID
		}
		r.Records[rec.ID] = &rec
	}
	return r
}

func (r *AttendanceRepo) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, existing := range r.Records {
		if existing.PlayerID == record.PlayerID && existing.Date.Equal(record.Date) {
			record.ID = existing.ID
			record.CreatedAt = existing.CreatedAt
			record.UpdatedAt = time.Now()
			cp := *record
			r.Records[record.ID] = &cp
			return nil
		}
	}
	r.nextID++
	record.ID = r.nextID
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	cp := *record
	r.Records[record.ID] = &cp
	return nil
}

func (r *AttendanceRepo) GetByID(ctx context.Context, id int64) (*models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	rec, ok := r.Records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *AttendanceRepo) GetByPlayerAndDate(ctx context.Context, playerID int64, date time.Time) (*models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, rec := range r.Records {
		if rec.PlayerID == playerID && rec.Date.Equal(date) {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var records []models.AttendanceRecord
	for _, rec := range r.Records {
		if filter.PlayerID != 0 && rec.PlayerID != filter.PlayerID {
			continue
		}
		if filter.TrainerID != 0 && (rec.TrainerID == nil || *rec.TrainerID != filter.TrainerID) {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && rec.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !rec.Date.Before(filter.To) {
			continue
		}
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date.Equal(records[j].Date) {
			return records[i].PlayerID < records[j].PlayerID
		}
		return records[i].Date.After(records[j].Date)
	})
	return records, nil
}

func (r *AttendanceRepo) Update(ctx context.Context, record *models.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.Records[record.ID]; !ok {
		return repository.ErrNotFound
	}
	record.UpdatedAt = time.Now()
	cp := *record
	r.Records[record.ID] = &cp
	return nil
}

func (r *AttendanceRepo) UpdateStatusByPlayerAndDate(ctx context.Context, playerID int64, date time.Time, status string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	if r.UpdateErr != nil {
		return 0, r.UpdateErr
	}
	var n int64
	for _, rec := range r.Records {
		if rec.PlayerID == playerID && rec.Date.Equal(date) {
			rec.Status = status
			n++
		}
	}
	return n, nil
}

func (r *AttendanceRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.Records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.Records, id)
	return nil
}

type ExcuseRepo struct {
	mu      sync.Mutex
	nextID  int64
	Excuses map[int64]*models.ExcuseSubmission

	Err error
}

func NewExcuseRepo(excuses ...models.ExcuseSubmission) *ExcuseRepo {
	r := &ExcuseRepo{Excuses: make(map[int64]*models.ExcuseSubmission)}
	for i := range excuses {
		e := excuses[i]
		r.nextID++
		if e.ID == 0 {
			e.ID = r.nextID
		}
		r.Excuses[e.ID] = &e
	}
	return r
}

func (r *ExcuseRepo) Create(ctx context.Context, excuse *models.ExcuseSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, e := range r.Excuses {
		if e.PlayerID == excuse.PlayerID && e.AbsenceDate.Equal(excuse.AbsenceDate) {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	excuse.ID = r.nextID
	excuse.CreatedAt = time.Now()
	excuse.UpdatedAt = excuse.CreatedAt
	cp := *excuse
	r.Excuses[excuse.ID] = &cp
	return nil
}

func (r *ExcuseRepo) GetByID(ctx context.Context, id int64) (*models.ExcuseSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	e, ok := r.Excuses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *ExcuseRepo) GetByPlayerAndDate(ctx context.Context, playerID int64, date time.Time) (*models.ExcuseSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, e := range r.Excuses {
		if e.PlayerID == playerID && e.AbsenceDate.Equal(date) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ExcuseRepo) List(ctx context.Context, filter models.ExcuseFilter) ([]models.ExcuseSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var excuses []models.ExcuseSubmission
	for _, e := range r.Excuses {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.PlayerID != 0 && e.PlayerID != filter.PlayerID {
			continue
		}
		excuses = append(excuses, *e)
	}
	sort.Slice(excuses, func(i, j int) bool { return excuses[i].ID > excuses[j].ID })
	return excuses, nil
}

func (r *ExcuseRepo) UpdateReview(ctx context.Context, excuse *models.ExcuseSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.Excuses[excuse.ID]; !ok {
		return repository.ErrNotFound
	}
	excuse.UpdatedAt = time.Now()
	cp := *excuse
	r.Excuses[excuse.ID] = &cp
	return nil
}

func (r *ExcuseRepo) CountByStatus(ctx context.Context, status string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	n := 0
	for _, e := range r.Excuses {
		if e.Status == status {
			n++
		}
	}
	return n, nil
}

type SettingRepo struct {
	mu     sync.Mutex
	Values map[string]string
	Reads  int

	Err error
}

func NewSettingRepo(values map[string]string) *SettingRepo {
	r := &SettingRepo{Values: make(map[string]string)}
	for k, v := range values {
		r.Values[k] = v
	}
	return r
}

func (r *SettingRepo) Get(ctx context.Context, key string) (*models.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reads++
	if r.Err != nil {
		return nil, r.Err
	}
	v, ok := r.Values[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.Setting{Key: key, Value: v}, nil
}

func (r *SettingRepo) GetAll(ctx context.Context) ([]models.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reads++
	if r.Err != nil {
		return nil, r.Err
	}
	var settings []models.Setting
	for k, v := range r.Values {
		settings = append(settings, models.Setting{Key: k, Value: v})
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings, nil
}

func (r *SettingRepo) Upsert(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Values[key] = value
	return nil
}

// Set меняет значение в обход сервиса (имитация записи другим процессом)
func (r *SettingRepo) Set(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Values[key] = value
}

func (r *SettingRepo) ReadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Reads
}

type NotificationRepo struct {
	mu            sync.Mutex
	nextID        int64
	Notifications []models.Notification

	Err error
}

func NewNotificationRepo() *NotificationRepo {
	return &NotificationRepo{}
}

func (r *NotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = time.Now()
	r.Notifications = append(r.Notifications, *n)
	return nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var result []models.Notification
	for i := len(r.Notifications) - 1; i >= 0 && len(result) < limit; i-- {
		n := r.Notifications[i]
		if n.UserID != nil && *n.UserID == userID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (r *NotificationRepo) All() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.Notifications...)
}

var (
	_ repository.UserRepository         = (*UserRepo)(nil)
	_ repository.AttendanceRepository   = (*AttendanceRepo)(nil)
	_ repository.ExcuseRepository       = (*ExcuseRepo)(nil)
	_ repository.SettingRepository      = (*SettingRepo)(nil)
	_ repository.NotificationRepository = (*NotificationRepo)(nil)
)
