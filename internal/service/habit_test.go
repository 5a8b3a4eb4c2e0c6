package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"journal-backend/internal/datekey"
	"journal-backend/internal/model"
	"journal-backend/internal/store"
	"journal-backend/internal/streak"
)

// recorder collects published change events.
type recorder struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (r *recorder) Publish(_ string, ev ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newHabitFixture(t *testing.T) (*HabitService, *store.MemoryStore, *recorder, *model.Habit) {
	t.Helper()
	st := store.NewMemoryStore()
	rec := &recorder{}
	svc := NewHabitService(st, streak.NewMemoryCache(), rec)
	h, err := svc.CreateHabit(context.Background(), "u1", HabitInput{Name: " read "})
	if err != nil {
		t.Fatal(err)
	}
	return svc, st, rec, h
}

func TestCreateHabitDefaults(t *testing.T) {
	_, _, rec, h := newHabitFixture(t)
	if h.Name != "read" || h.Color != model.DefaultColor || !h.IsActive {
		t.Errorf("habit = %+v", h)
	}
	if rec.count() != 1 {
		t.Errorf("published %d events, want 1", rec.count())
	}
}

func TestCreateHabitRequiresName(t *testing.T) {
	svc, _, _, _ := newHabitFixture(t)
	if _, err := svc.CreateHabit(context.Background(), "u1", HabitInput{Name: "  "}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
}

func TestUpdateHabitPatch(t *testing.T) {
	svc, _, _, h := newHabitFixture(t)
	ctx := context.Background()
	inactive := false
	color := "#ff0000"

	updated, err := svc.UpdateHabit(ctx, "u1", h.ID, HabitPatch{IsActive: &inactive, Color: &color})
	if err != nil {
		t.Fatal(err)
	}
	if updated.IsActive || updated.Color != color || updated.Name != "read" {
		t.Errorf("updated = %+v", updated)
	}

	active, _ := svc.ListHabits(ctx, "u1", true)
	if len(active) != 0 {
		t.Errorf("inactive habit listed as active")
	}
	if _, err := svc.UpdateHabit(ctx, "u2", h.ID, HabitPatch{}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("other user's habit: %v", err)
	}
}

func TestSaveCheckRecomputesStreak(t *testing.T) {
	svc, _, _, h := newHabitFixture(t)
	ctx := context.Background()
	loc := time.UTC
	today := datekey.Today(loc)

	for _, off := range []int{2, 1, 0} {
		if _, err := svc.SaveCheck(ctx, "u1", h.ID, today.AddDays(-off), true, loc); err != nil {
			t.Fatal(err)
		}
	}
	res, err := svc.SaveCheck(ctx, "u1", h.ID, today.AddDays(-4), true, loc)
	if err != nil {
		t.Fatal(err)
	}
	if res.Streak.CurrentStreak != 3 || res.Streak.LongestStreak != 3 {
		t.Errorf("streak = %+v, want 3/3", res.Streak)
	}

	// 오늘 체크를 해제하면 현재 스트릭은 0
	res, err = svc.SaveCheck(ctx, "u1", h.ID, today, false, loc)
	if err != nil {
		t.Fatal(err)
	}
	if res.Streak.CurrentStreak != 0 || res.Streak.LongestStreak != 3 {
		t.Errorf("after uncheck: %+v, want 0/3", res.Streak)
	}
}

func TestToggleCheckFlipsServerState(t *testing.T) {
	svc, _, _, h := newHabitFixture(t)
	ctx := context.Background()
	today := datekey.Today(time.UTC)

	first, err := svc.ToggleCheck(ctx, "u1", h.ID, today, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Check.Completed || first.Streak.CurrentStreak != 1 {
		t.Fatalf("first toggle = %+v", first)
	}

	second, err := svc.ToggleCheck(ctx, "u1", h.ID, today, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if second.Check.Completed || second.Streak.CurrentStreak != 0 {
		t.Errorf("second toggle = %+v", second)
	}

	checks, _ := svc.ChecksForDate(ctx, "u1", today)
	if len(checks) != 1 {
		t.Errorf("checks for today = %d, want 1", len(checks))
	}
}

func TestCheckUnknownHabit(t *testing.T) {
	svc, _, _, _ := newHabitFixture(t)
	_, err := svc.SaveCheck(context.Background(), "u1", "missing", datekey.Today(time.UTC), true, time.UTC)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestStreakServedFromCacheAndRecomputed(t *testing.T) {
	svc, st, _, h := newHabitFixture(t)
	ctx := context.Background()
	today := datekey.Today(time.UTC)

	if _, err := svc.SaveCheck(ctx, "u1", h.ID, today, true, time.UTC); err != nil {
		t.Fatal(err)
	}

	// 저장소에 직접 써서 캐시를 우회한 변경은 캐시가 유효한 동안 보이지 않음
	_ = st.UpsertCheck(ctx, &model.HabitCheck{UserID: "u1", HabitID: h.ID, Date: today.AddDays(-1), Completed: true})
	cached, err := svc.Streak(ctx, "u1", h.ID, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if cached.CurrentStreak != 1 {
		t.Errorf("cached streak = %d, want 1", cached.CurrentStreak)
	}

	// 캐시가 비면 전체 이력에서 다시 계산
	svc.cache = nil
	fresh, err := svc.Streak(ctx, "u1", h.ID, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.CurrentStreak != 2 {
		t.Errorf("recomputed streak = %d, want 2", fresh.CurrentStreak)
	}
}

func TestStreakCacheValidity(t *testing.T) {
	today := datekey.MustParse("2024-03-10")
	yesterday := today.AddDays(-1)
	tomorrow := today.AddDays(1)

	tests := []struct {
		name string
		s    *model.HabitStreak
		want bool
	}{
		{name: "nil", s: nil, want: false},
		{name: "running today", s: &model.HabitStreak{CurrentStreak: 2, LastCompletedDate: &today}, want: true},
		{name: "running from yesterday", s: &model.HabitStreak{CurrentStreak: 2, LastCompletedDate: &yesterday}, want: false},
		{name: "zero no history", s: &model.HabitStreak{}, want: true},
		{name: "zero older history", s: &model.HabitStreak{LastCompletedDate: &yesterday}, want: true},
		{name: "zero with future completion", s: &model.HabitStreak{LastCompletedDate: &tomorrow}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validFor(tt.s, today); got != tt.want {
				t.Errorf("validFor = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStreaksForAllHabits(t *testing.T) {
	svc, _, _, h := newHabitFixture(t)
	ctx := context.Background()
	other, _ := svc.CreateHabit(ctx, "u1", HabitInput{Name: "run"})
	_, _ = svc.SaveCheck(ctx, "u1", h.ID, datekey.Today(time.UTC), true, time.UTC)

	streaks, err := svc.Streaks(ctx, "u1", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(streaks) != 2 {
		t.Fatalf("streaks = %d, want 2", len(streaks))
	}
	for _, s := range streaks {
		switch s.HabitID {
		case h.ID:
			if s.CurrentStreak != 1 {
				t.Errorf("%s current = %d", s.HabitID, s.CurrentStreak)
			}
		case other.ID:
			if s.CurrentStreak != 0 {
				t.Errorf("%s current = %d", s.HabitID, s.CurrentStreak)
			}
		}
	}
}

func TestDeleteHabitClearsChecks(t *testing.T) {
	svc, st, rec, h := newHabitFixture(t)
	ctx := context.Background()
	_, _ = svc.SaveCheck(ctx, "u1", h.ID, datekey.Today(time.UTC), true, time.UTC)
	before := rec.count()

	if err := svc.DeleteHabit(ctx, "u1", h.ID); err != nil {
		t.Fatal(err)
	}
	if checks, _ := st.ChecksForHabit(ctx, "u1", h.ID, nil); len(checks) != 0 {
		t.Errorf("checks remain: %d", len(checks))
	}
	if rec.count() != before+1 {
		t.Errorf("delete not published")
	}
	if err := svc.DeleteHabit(ctx, "u1", h.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}
