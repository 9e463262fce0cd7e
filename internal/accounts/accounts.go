// Package accounts хранит сохранённые аккаунты и сегодняшний вход для каждого чата.
package accounts

import (
	"sync"
	"time"
)

// MaxSaved: сколько аккаунтов помнит один чат
const MaxSaved = 5

type SavedAccount struct {
	Code     string
	Name     string
	Role     string
	LastUsed time.Time
}

// Remember кладёт аккаунт в начало списка, убирая прежнюю запись с тем же кодом,
// и обрезает список до MaxSaved
func Remember(list []SavedAccount, acc SavedAccount) []SavedAccount {
	result := make([]SavedAccount, 0, MaxSaved)
	result = append(result, acc)
	for _, a := range list {
		if len(result) == MaxSaved {
			break
		}
		if a.Code == acc.Code {
			continue
		}
		result = append(result, a)
	}
	return result
}

// Forget убирает аккаунт из списка
func Forget(list []SavedAccount, code string) []SavedAccount {
	result := make([]SavedAccount, 0, len(list))
	for _, a := range list {
		if a.Code != code {
			result = append(result, a)
		}
	}
	return result
}

// TodayLogin: код, под которым вошли в этот календарный день
type TodayLogin struct {
	Code string
	Day  time.Time
}

func (l TodayLogin) ValidOn(t time.Time) bool {
	if l.Code == "" {
		return false
	}
	y1, m1, d1 := l.Day.Date()
	y2, m2, d2 := t.In(l.Day.Location()).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

type chatState struct {
	saved []SavedAccount
	today TodayLogin
}

// Store хранит состояние по чатам, живёт в памяти процесса бота
type Store struct {
	mu    sync.RWMutex
	chats map[int64]*chatState
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		chats: make(map[int64]*chatState),
		now:   time.Now,
	}
}

func (s *Store) state(chatID int64) *chatState {
	st, ok := s.chats[chatID]
	if !ok {
		st = &chatState{}
		s.chats[chatID] = st
	}
	return st
}

// Login запоминает аккаунт и отмечает вход на сегодня
func (s *Store) Login(chatID int64, acc SavedAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	acc.LastUsed = now
	st := s.state(chatID)
	st.saved = Remember(st.saved, acc)
	st.today = TodayLogin{Code: acc.Code, Day: now}
}

func (s *Store) Saved(chatID int64) []SavedAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.chats[chatID]
	if !ok {
		return nil
	}
	return append([]SavedAccount(nil), st.saved...)
}

// Today возвращает код сегодняшнего входа; на следующий день он истекает
func (s *Store) Today(chatID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.chats[chatID]
	if !ok || !st.today.ValidOn(s.now()) {
		return "", false
	}
	return st.today.Code, true
}

func (s *Store) Forget(chatID int64, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.chats[chatID]
	if !ok {
		return
	}
	st.saved = Forget(st.saved, code)
	if st.today.Code == code {
		st.today = TodayLogin{}
	}
}

// Logout сбрасывает сегодняшний вход, сохранённые аккаунты остаются
func (s *Store) Logout(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.chats[chatID]; ok {
		st.today = TodayLogin{}
	}
}
