package store

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"journal-backend/internal/database"
	"journal-backend/internal/datekey"
	"journal-backend/internal/model"
)

// newSQLiteStore opens a private in-memory database with the production
// schema. One connection keeps the database alive for the whole test.
func newSQLiteStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return NewGormStore(db)
}

func TestGormUpsertCheckKeepsOneRowPerDay(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	day := datekey.MustParse("2024-03-10")

	first := &model.HabitCheck{UserID: "u1", HabitID: "h1", Date: day, Completed: true}
	require.NoError(t, s.UpsertCheck(ctx, first))

	second := &model.HabitCheck{UserID: "u1", HabitID: "h1", Date: day, Completed: false}
	require.NoError(t, s.UpsertCheck(ctx, second))
	require.Equal(t, first.ID, second.ID)
	require.False(t, second.Completed)

	// 다른 습관, 같은 날짜는 별도 행
	other := &model.HabitCheck{UserID: "u1", HabitID: "h2", Date: day, Completed: true}
	require.NoError(t, s.UpsertCheck(ctx, other))
	require.NotEqual(t, first.ID, other.ID)

	checks, err := s.ChecksForHabit(ctx, "u1", "h1", nil)
	require.NoError(t, err)
	require.Len(t, checks, 1)
	require.Equal(t, day, checks[0].Date)
	require.False(t, checks[0].Completed)
}

func TestGormToggleCheck(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	day := datekey.MustParse("2024-03-10")

	// 없는 행은 완료로 생성
	c, err := s.ToggleCheck(ctx, "u1", "h1", day)
	require.NoError(t, err)
	require.True(t, c.Completed)
	id := c.ID

	c, err = s.ToggleCheck(ctx, "u1", "h1", day)
	require.NoError(t, err)
	require.False(t, c.Completed)
	require.Equal(t, id, c.ID)

	require.NoError(t, s.UpsertCheck(ctx, &model.HabitCheck{UserID: "u1", HabitID: "h1", Date: day, Completed: true}))
	c, err = s.ToggleCheck(ctx, "u1", "h1", day)
	require.NoError(t, err)
	require.False(t, c.Completed)

	checks, err := s.ChecksForHabit(ctx, "u1", "h1", nil)
	require.NoError(t, err)
	require.Len(t, checks, 1)
}

func TestGormChecksForRange(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	for _, d := range []string{"2024-03-01", "2024-03-05", "2024-03-09"} {
		require.NoError(t, s.UpsertCheck(ctx, &model.HabitCheck{UserID: "u1", HabitID: "h1", Date: datekey.MustParse(d), Completed: true}))
	}
	require.NoError(t, s.UpsertCheck(ctx, &model.HabitCheck{UserID: "u2", HabitID: "h9", Date: datekey.MustParse("2024-03-05"), Completed: true}))

	span, err := datekey.NewSpan(datekey.MustParse("2024-03-02"), datekey.MustParse("2024-03-09"))
	require.NoError(t, err)
	checks, err := s.ChecksForRange(ctx, "u1", span)
	require.NoError(t, err)
	require.Len(t, checks, 2)
	require.Equal(t, "2024-03-05", checks[0].Date.String())
	require.Equal(t, "2024-03-09", checks[1].Date.String())
}

func TestGormEntryConflictAndSave(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	day := datekey.MustParse("2024-03-10")
	text := "first"

	entry := &model.JournalEntry{UserID: "u1", Date: day, Text: &text, Layers: model.Layers{}}
	require.NoError(t, s.CreateEntry(ctx, entry))

	dup := &model.JournalEntry{UserID: "u1", Date: day, Layers: model.Layers{}}
	require.ErrorIs(t, s.CreateEntry(ctx, dup), ErrConflict)

	replaced := "second"
	saved := &model.JournalEntry{UserID: "u1", Date: day, Text: &replaced, Layers: model.Layers{
		{ID: "l1", Type: model.LayerTypeText, Scale: 1},
	}}
	require.NoError(t, s.SaveEntry(ctx, saved))
	require.Equal(t, entry.ID, saved.ID)
	require.Equal(t, "second", *saved.Text)
	require.Len(t, saved.Layers, 1)

	got, err := s.GetEntry(ctx, "u1", day)
	require.NoError(t, err)
	require.Equal(t, entry.ID, got.ID)
	require.Equal(t, "l1", got.Layers[0].ID)

	_, err = s.GetEntry(ctx, "u2", day)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGormModifyEntry(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	day := datekey.MustParse("2024-03-10")

	_, err := s.ModifyEntry(ctx, "u1", day, func(*model.JournalEntry) error { return nil })
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.CreateEntry(ctx, &model.JournalEntry{UserID: "u1", Date: day, Layers: model.Layers{}}))
	updated, err := s.ModifyEntry(ctx, "u1", day, func(e *model.JournalEntry) error {
		e.Layers = append(e.Layers, model.CanvasLayer{ID: "l1", Type: model.LayerTypeSticker, Scale: 1})
		return nil
	})
	require.NoError(t, err)
	require.Len(t, updated.Layers, 1)

	got, err := s.GetEntry(ctx, "u1", day)
	require.NoError(t, err)
	require.Len(t, got.Layers, 1)
	require.Equal(t, model.LayerTypeSticker, got.Layers[0].Type)
}

func TestGormDeleteHabitCascades(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	day := datekey.MustParse("2024-03-10")

	h := &model.Habit{UserID: "u1", Name: "read", Color: model.DefaultColor, IsActive: true}
	require.NoError(t, s.CreateHabit(ctx, h))
	require.NoError(t, s.UpsertCheck(ctx, &model.HabitCheck{UserID: "u1", HabitID: h.ID, Date: day, Completed: true}))
	require.NoError(t, s.SaveStreak(ctx, &model.HabitStreak{HabitID: h.ID, UserID: "u1", CurrentStreak: 1, LongestStreak: 1, LastCompletedDate: &day}))

	st, err := s.GetStreak(ctx, "u1", h.ID)
	require.NoError(t, err)
	require.Equal(t, day, *st.LastCompletedDate)

	// 다른 사용자는 삭제 불가
	require.ErrorIs(t, s.DeleteHabit(ctx, "u2", h.ID), ErrNotFound)

	require.NoError(t, s.DeleteHabit(ctx, "u1", h.ID))
	_, err = s.GetHabit(ctx, "u1", h.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetStreak(ctx, "u1", h.ID)
	require.ErrorIs(t, err, ErrNotFound)
	checks, err := s.ChecksForHabit(ctx, "u1", h.ID, nil)
	require.NoError(t, err)
	require.Empty(t, checks)
}

func TestGormUpdateUserUsernameConflict(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)

	alice := &model.User{Email: "alice@example.com", Username: "alice", IsActive: true}
	bob := &model.User{Email: "bob@example.com", Username: "bob", IsActive: true}
	require.NoError(t, s.CreateUser(ctx, alice))
	require.NoError(t, s.CreateUser(ctx, bob))

	bob.Username = "alice"
	require.ErrorIs(t, s.UpdateUser(ctx, bob), ErrConflict)

	bob.Username = "robert"
	require.NoError(t, s.UpdateUser(ctx, bob))
	got, err := s.GetUserByUsername(ctx, "robert")
	require.NoError(t, err)
	require.Equal(t, bob.ID, got.ID)
}
