package accounts

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(list []SavedAccount) []string {
	var out []string
	for _, a := range list {
		out = append(out, a.Code)
	}
	return out
}

func TestRemember_MostRecentFirstAndDeduplicated(t *testing.T) {
	var list []SavedAccount
	list = Remember(list, SavedAccount{Code: "A"})
	list = Remember(list, SavedAccount{Code: "B"})
	list = Remember(list, SavedAccount{Code: "A", Name: "renamed"})

	assert.Equal(t, []string{"A", "B"}, codes(list))
	assert.Equal(t, "renamed", list[0].Name)
}

func TestRemember_NeverMoreThanMax(t *testing.T) {
	var list []SavedAccount
	for i := 0; i < 12; i++ {
		list = Remember(list, SavedAccount{Code: fmt.Sprintf("C%d", i%7)})
		require.LessOrEqual(t, len(list), MaxSaved)

		seen := map[string]bool{}
		for _, a := range list {
			require.False(t, seen[a.Code], "duplicate %s", a.Code)
			seen[a.Code] = true
		}
	}
	assert.Equal(t, []string{"C4", "C3", "C2", "C1", "C0"}, codes(list))
}

func TestRemember_DoesNotMutateInput(t *testing.T) {
	list := []SavedAccount{{Code: "A"}, {Code: "B"}}
	_ = Remember(list, SavedAccount{Code: "B"})
	assert.Equal(t, []string{"A", "B"}, codes(list))
}

func TestForget(t *testing.T) {
	list := []SavedAccount{{Code: "A"}, {Code: "B"}, {Code: "C"}}
	assert.Equal(t, []string{"A", "C"}, codes(Forget(list, "B")))
	assert.Equal(t, []string{"A", "B", "C"}, codes(Forget(list, "Z")))
}

func TestTodayLogin_ExpiresNextDay(t *testing.T) {
	day := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	l := TodayLogin{Code: "PLY1", Day: day}

	assert.True(t, l.ValidOn(day.Add(14*time.Hour)))
	assert.False(t, l.ValidOn(day.Add(15*time.Hour)))
	assert.False(t, TodayLogin{}.ValidOn(day))
}

func TestStore(t *testing.T) {
	now := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	s := NewStore()
	s.now = func() time.Time { return now }

	s.Login(1, SavedAccount{Code: "PLY1", Name: "Игрок"})
	s.Login(1, SavedAccount{Code: "TRN2", Name: "Тренер"})
	s.Login(2, SavedAccount{Code: "STU3"})

	assert.Equal(t, []string{"TRN2", "PLY1"}, codes(s.Saved(1)))
	assert.Equal(t, now, s.Saved(1)[0].LastUsed)

	code, ok := s.Today(1)
	assert.True(t, ok)
	assert.Equal(t, "TRN2", code)

	now = now.AddDate(0, 0, 1)
	_, ok = s.Today(1)
	assert.False(t, ok)
	assert.Len(t, s.Saved(1), 2)

	s.Login(1, SavedAccount{Code: "PLY1"})
	s.Logout(1)
	_, ok = s.Today(1)
	assert.False(t, ok)

	s.Forget(1, "PLY1")
	assert.Equal(t, []string{"TRN2"}, codes(s.Saved(1)))
	assert.Nil(t, s.Saved(42))
}
