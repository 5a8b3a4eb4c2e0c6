// Package store persists users, habits, checks, events and journal entries.
package store

import (
	"context"
	"errors"
	"time"

	"journal-backend/internal/datekey"
	"journal-backend/internal/model"
)

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// Store 영속성 계층 인터페이스
//
// Every read and write is scoped to a user; a record owned by another user
// is reported as ErrNotFound.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error

	// Habits
	ListHabits(ctx context.Context, userID string, activeOnly bool) ([]model.Habit, error)
	GetHabit(ctx context.Context, userID, id string) (*model.Habit, error)
	CreateHabit(ctx context.Context, h *model.Habit) error
	UpdateHabit(ctx context.Context, h *model.Habit) error
	// DeleteHabit removes the habit together with its checks and streak.
	DeleteHabit(ctx context.Context, userID, id string) error

	// Habit checks
	UpsertCheck(ctx context.Context, c *model.HabitCheck) error
	// ToggleCheck flips the stored completion for (habit, date) under a row
	// lock. A missing check becomes completed.
	ToggleCheck(ctx context.Context, userID, habitID string, date datekey.Key) (*model.HabitCheck, error)
	// ChecksForHabit lists checks for one habit, optionally within span.
	ChecksForHabit(ctx context.Context, userID, habitID string, span *datekey.Span) ([]model.HabitCheck, error)
	ChecksForRange(ctx context.Context, userID string, span datekey.Span) ([]model.HabitCheck, error)

	// Streak projections
	GetStreak(ctx context.Context, userID, habitID string) (*model.HabitStreak, error)
	SaveStreak(ctx context.Context, s *model.HabitStreak) error

	// Events
	// ListEvents returns events with from <= date < to.
	ListEvents(ctx context.Context, userID string, from, to time.Time) ([]model.Event, error)
	GetEvent(ctx context.Context, userID, id string) (*model.Event, error)
	CreateEvent(ctx context.Context, e *model.Event) error
	UpdateEvent(ctx context.Context, e *model.Event) error
	DeleteEvent(ctx context.Context, userID, id string) error

	// Journal entries
	ListEntries(ctx context.Context, userID string, span *datekey.Span) ([]model.JournalEntry, error)
	GetEntry(ctx context.Context, userID string, date datekey.Key) (*model.JournalEntry, error)
	// CreateEntry fails with ErrConflict when the day already has an entry.
	CreateEntry(ctx context.Context, e *model.JournalEntry) error
	// SaveEntry inserts or replaces the entry for its day.
	SaveEntry(ctx context.Context, e *model.JournalEntry) error
	// ModifyEntry loads the entry for date under a lock, applies fn and
	// stores the result.
	ModifyEntry(ctx context.Context, userID string, date datekey.Key, fn func(*model.JournalEntry) error) (*model.JournalEntry, error)
	DeleteEntry(ctx context.Context, userID string, date datekey.Key) error

	Ping(ctx context.Context) error
}
