package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"journal-backend/internal/datekey"
	"journal-backend/internal/model"
	"journal-backend/internal/store"
	"journal-backend/internal/streak"
)

// HabitInput 습관 생성 요청
type HabitInput struct {
	Name     string  `json:"name"`
	Color    string  `json:"color"`
	Icon     *string `json:"icon"`
	Category *string `json:"category"`
}

// HabitPatch 습관 부분 수정 (nil 필드는 유지)
type HabitPatch struct {
	Name     *string `json:"name"`
	Color    *string `json:"color"`
	Icon     *string `json:"icon"`
	Category *string `json:"category"`
	IsActive *bool   `json:"is_active"`
}

// CheckResult is a stored check together with the streak recomputed after it.
type CheckResult struct {
	Check  model.HabitCheck  `json:"check"`
	Streak model.HabitStreak `json:"streak"`
}

// HabitService 습관/체크/스트릭
type HabitService struct {
	store    store.Store
	cache    streak.Cache
	notifier Notifier
}

// NewHabitService HabitService 생성. cache may be nil.
func NewHabitService(st store.Store, cache streak.Cache, n Notifier) *HabitService {
	return &HabitService{store: st, cache: cache, notifier: orNop(n)}
}

func (s *HabitService) ListHabits(ctx context.Context, userID string, activeOnly bool) ([]model.Habit, error) {
	return s.store.ListHabits(ctx, userID, activeOnly)
}

func (s *HabitService) GetHabit(ctx context.Context, userID, id string) (*model.Habit, error) {
	return s.store.GetHabit(ctx, userID, id)
}

func (s *HabitService) CreateHabit(ctx context.Context, userID string, in HabitInput) (*model.Habit, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	h := &model.Habit{
		UserID:   userID,
		Name:     name,
		Color:    colorOrDefault(in.Color, model.DefaultColor),
		Icon:     trimmed(in.Icon),
		Category: trimmed(in.Category),
		IsActive: true,
	}
	if err := s.store.CreateHabit(ctx, h); err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}

	publish(s.notifier, userID, ChangeCreated, ResourceHabit, h.ID, "")
	return h, nil
}

func (s *HabitService) UpdateHabit(ctx context.Context, userID, id string, patch HabitPatch) (*model.Habit, error) {
	h, err := s.store.GetHabit(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		h.Name = name
	}
	if patch.Color != nil {
		h.Color = colorOrDefault(*patch.Color, h.Color)
	}
	if patch.Icon != nil {
		h.Icon = trimmed(patch.Icon)
	}
	if patch.Category != nil {
		h.Category = trimmed(patch.Category)
	}
	if patch.IsActive != nil {
		h.IsActive = *patch.IsActive
	}
	h.UpdatedAt = time.Now()

	if err := s.store.UpdateHabit(ctx, h); err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}

	publish(s.notifier, userID, ChangeUpdated, ResourceHabit, h.ID, "")
	return h, nil
}

func (s *HabitService) DeleteHabit(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteHabit(ctx, userID, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, userID, id); err != nil {
			log.Printf("⚠️ [Streak] cache delete failed for %s: %v", id, err)
		}
	}

	publish(s.notifier, userID, ChangeDeleted, ResourceHabit, id, "")
	return nil
}

// SaveCheck upserts the check for (habit, date) and recomputes the habit's
// streak from the full history.
func (s *HabitService) SaveCheck(ctx context.Context, userID, habitID string, date datekey.Key, completed bool, loc *time.Location) (*CheckResult, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if _, err := s.store.GetHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}

	check := &model.HabitCheck{UserID: userID, HabitID: habitID, Date: date, Completed: completed}
	if err := s.store.UpsertCheck(ctx, check); err != nil {
		return nil, fmt.Errorf("save check: %w", err)
	}
	return s.afterCheck(ctx, userID, *check, loc)
}

// ToggleCheck flips the stored completion state. The new state is decided
// by the server, not the client.
func (s *HabitService) ToggleCheck(ctx context.Context, userID, habitID string, date datekey.Key, loc *time.Location) (*CheckResult, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if _, err := s.store.GetHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}

	check, err := s.store.ToggleCheck(ctx, userID, habitID, date)
	if err != nil {
		return nil, fmt.Errorf("toggle check: %w", err)
	}
	return s.afterCheck(ctx, userID, *check, loc)
}

func (s *HabitService) afterCheck(ctx context.Context, userID string, check model.HabitCheck, loc *time.Location) (*CheckResult, error) {
	st, err := s.recompute(ctx, userID, check.HabitID, datekey.Today(loc))
	if err != nil {
		return nil, err
	}

	publish(s.notifier, userID, ChangeUpdated, ResourceCheck, check.HabitID, check.Date.String())
	return &CheckResult{Check: check, Streak: *st}, nil
}

func (s *HabitService) ChecksForHabit(ctx context.Context, userID, habitID string, span *datekey.Span) ([]model.HabitCheck, error) {
	if _, err := s.store.GetHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}
	return s.store.ChecksForHabit(ctx, userID, habitID, span)
}

func (s *HabitService) ChecksForDate(ctx context.Context, userID string, date datekey.Key) ([]model.HabitCheck, error) {
	return s.store.ChecksForRange(ctx, userID, datekey.Span{Start: date, End: date})
}

// Streak returns the habit's streak as of today in loc, served from the cache
// when the cached value is still valid for today.
func (s *HabitService) Streak(ctx context.Context, userID, habitID string, loc *time.Location) (*model.HabitStreak, error) {
	if _, err := s.store.GetHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}
	today := datekey.Today(loc)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID, habitID)
		switch {
		case err == nil && validFor(cached, today):
			return cached, nil
		case err != nil && !errors.Is(err, streak.ErrCacheMiss):
			log.Printf("⚠️ [Streak] cache read failed for %s: %v", habitID, err)
		}
	}
	return s.recompute(ctx, userID, habitID, today)
}

// Streaks returns the streak of every habit of the user.
func (s *HabitService) Streaks(ctx context.Context, userID string, loc *time.Location) ([]model.HabitStreak, error) {
	habits, err := s.store.ListHabits(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	result := make([]model.HabitStreak, 0, len(habits))
	for _, h := range habits {
		st, err := s.Streak(ctx, userID, h.ID, loc)
		if err != nil {
			return nil, err
		}
		result = append(result, *st)
	}
	return result, nil
}

// recompute derives the streak from the stored history, persists the
// projection and refreshes the cache.
func (s *HabitService) recompute(ctx context.Context, userID, habitID string, today datekey.Key) (*model.HabitStreak, error) {
	checks, err := s.store.ChecksForHabit(ctx, userID, habitID, nil)
	if err != nil {
		return nil, fmt.Errorf("load checks: %w", err)
	}

	previous := 0
	prior, err := s.store.GetStreak(ctx, userID, habitID)
	switch {
	case err == nil:
		previous = prior.LongestStreak
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("load streak: %w", err)
	}

	st := streak.Compute(habitID, checks, today, previous)
	st.UserID = userID
	if err := s.store.SaveStreak(ctx, &st); err != nil {
		return nil, fmt.Errorf("save streak: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, st); err != nil {
			log.Printf("⚠️ [Streak] cache write failed for %s: %v", habitID, err)
		}
	}
	return &st, nil
}

// validFor reports whether a cached streak still holds on today. A running
// streak is only valid on the day it was last extended; a zero streak stays
// valid until a completion on or after today appears.
func validFor(s *model.HabitStreak, today datekey.Key) bool {
	if s == nil {
		return false
	}
	if s.CurrentStreak > 0 {
		return s.LastCompletedDate != nil && *s.LastCompletedDate == today
	}
	return s.LastCompletedDate == nil || s.LastCompletedDate.Before(today)
}
