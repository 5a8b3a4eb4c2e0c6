package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"journal-backend/internal/datekey"
	"journal-backend/internal/model"
)

func TestMemoryCheckUpsertIsUniquePerDay(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	day := datekey.MustParse("2024-03-10")

	first := &model.HabitCheck{UserID: "u1", HabitID: "h1", Date: day, Completed: true}
	if err := s.UpsertCheck(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := &model.HabitCheck{UserID: "u1", HabitID: "h1", Date: day, Completed: false}
	if err := s.UpsertCheck(ctx, second); err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created a second row: %s vs %s", second.ID, first.ID)
	}

	checks, _ := s.ChecksForHabit(ctx, "u1", "h1", nil)
	if len(checks) != 1 || checks[0].Completed {
		t.Fatalf("checks = %+v, want one incomplete", checks)
	}
}

func TestMemoryToggleCheck(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	day := datekey.MustParse("2024-03-10")

	want := []bool{true, false, true}
	for i, w := range want {
		c, err := s.ToggleCheck(ctx, "u1", "h1", day)
		if err != nil {
			t.Fatal(err)
		}
		if c.Completed != w {
			t.Fatalf("toggle %d: completed = %v, want %v", i, c.Completed, w)
		}
	}
}

func TestMemoryChecksForRange(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, d := range []string{"2024-03-01", "2024-03-05", "2024-03-09"} {
		_ = s.UpsertCheck(ctx, &model.HabitCheck{UserID: "u1", HabitID: "h1", Date: datekey.MustParse(d), Completed: true})
	}
	_ = s.UpsertCheck(ctx, &model.HabitCheck{UserID: "u2", HabitID: "h9", Date: datekey.MustParse("2024-03-05"), Completed: true})

	span, _ := datekey.NewSpan(datekey.MustParse("2024-03-02"), datekey.MustParse("2024-03-09"))
	checks, err := s.ChecksForRange(ctx, "u1", span)
	if err != nil {
		t.Fatal(err)
	}
	if len(checks) != 2 || checks[0].Date.String() != "2024-03-05" {
		t.Errorf("checks = %+v", checks)
	}
}

func TestMemoryDeleteHabitCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	h := &model.Habit{UserID: "u1", Name: "read", IsActive: true}
	if err := s.CreateHabit(ctx, h); err != nil {
		t.Fatal(err)
	}
	_ = s.UpsertCheck(ctx, &model.HabitCheck{UserID: "u1", HabitID: h.ID, Date: datekey.MustParse("2024-03-10"), Completed: true})
	_ = s.SaveStreak(ctx, &model.HabitStreak{HabitID: h.ID, UserID: "u1", CurrentStreak: 1, LongestStreak: 1})

	if err := s.DeleteHabit(ctx, "u2", h.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other user deleted habit: %v", err)
	}
	if err := s.DeleteHabit(ctx, "u1", h.ID); err != nil {
		t.Fatal(err)
	}
	if checks, _ := s.ChecksForHabit(ctx, "u1", h.ID, nil); len(checks) != 0 {
		t.Errorf("checks survived delete: %+v", checks)
	}
	if _, err := s.GetStreak(ctx, "u1", h.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("streak survived delete: %v", err)
	}
}

func TestMemoryListHabitsActiveOnly(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.CreateHabit(ctx, &model.Habit{UserID: "u1", Name: "a", IsActive: true})
	_ = s.CreateHabit(ctx, &model.Habit{UserID: "u1", Name: "b", IsActive: false})
	_ = s.CreateHabit(ctx, &model.Habit{UserID: "u2", Name: "c", IsActive: true})

	all, _ := s.ListHabits(ctx, "u1", false)
	active, _ := s.ListHabits(ctx, "u1", true)
	if len(all) != 2 || len(active) != 1 || active[0].Name != "a" {
		t.Errorf("all = %d, active = %+v", len(all), active)
	}
}

func TestMemoryEntryLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	day := datekey.MustParse("2024-03-10")
	text := "hello"

	if err := s.CreateEntry(ctx, &model.JournalEntry{UserID: "u1", Date: day, Text: &text}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateEntry(ctx, &model.JournalEntry{UserID: "u1", Date: day}); !errors.Is(err, ErrConflict) {
		t.Fatalf("second create: %v, want conflict", err)
	}

	updated, err := s.ModifyEntry(ctx, "u1", day, func(e *model.JournalEntry) error {
		e.Layers = append(e.Layers, model.CanvasLayer{ID: "l1", Type: model.LayerTypeText})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.Layers) != 1 {
		t.Fatalf("layers = %d", len(updated.Layers))
	}

	// 반환값을 수정해도 저장본은 그대로
	updated.Layers[0].ID = "mutated"
	got, _ := s.GetEntry(ctx, "u1", day)
	if got.Layers[0].ID != "l1" {
		t.Error("stored entry shares memory with caller")
	}

	if _, err := s.ModifyEntry(ctx, "u1", day.AddDays(1), func(*model.JournalEntry) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("modify missing: %v", err)
	}

	saved := &model.JournalEntry{UserID: "u1", Date: day}
	if err := s.SaveEntry(ctx, saved); err != nil {
		t.Fatal(err)
	}
	if saved.ID != got.ID {
		t.Error("save replaced entry id")
	}

	if err := s.DeleteEntry(ctx, "u1", day); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetEntry(ctx, "u1", day); !errors.Is(err, ErrNotFound) {
		t.Errorf("entry survived delete: %v", err)
	}
}

func TestMemoryListEventsHalfOpen(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	day := datekey.MustParse("2024-03-10")
	from, to := day.Start(time.UTC), day.End(time.UTC)

	_ = s.CreateEvent(ctx, &model.Event{UserID: "u1", Title: "start", Date: from})
	_ = s.CreateEvent(ctx, &model.Event{UserID: "u1", Title: "next", Date: to})
	_ = s.CreateEvent(ctx, &model.Event{UserID: "u1", Title: "noon", Date: from.Add(12 * time.Hour)})

	events, err := s.ListEvents(ctx, "u1", from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].Title != "start" || events[1].Title != "noon" {
		t.Errorf("events = %+v", events)
	}
}

func TestMemoryUserUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.CreateUser(ctx, &model.User{Email: "a@x.io", Username: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateUser(ctx, &model.User{Email: "a@x.io", Username: "b"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate email: %v", err)
	}
	if u, err := s.GetUserByUsername(ctx, "a"); err != nil || u.Email != "a@x.io" {
		t.Errorf("lookup by username: %v %v", u, err)
	}
}
