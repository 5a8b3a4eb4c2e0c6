package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"journal-backend/internal/datekey"
	"journal-backend/internal/model"
)

type checkKey struct {
	userID  string
	habitID string
	date    datekey.Key
}

type entryKey struct {
	userID string
	date   datekey.Key
}

// MemoryStore 프로세스 메모리 저장소 (개발/테스트용)
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]model.User
	habits  map[string]model.Habit
	checks  map[checkKey]model.HabitCheck
	streaks map[string]model.HabitStreak
	events  map[string]model.Event
	entries map[entryKey]model.JournalEntry
	now     func() time.Time
}

// NewMemoryStore MemoryStore 생성
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]model.User),
		habits:  make(map[string]model.Habit),
		checks:  make(map[checkKey]model.HabitCheck),
		streaks: make(map[string]model.HabitStreak),
		events:  make(map[string]model.Event),
		entries: make(map[entryKey]model.JournalEntry),
		now:     time.Now,
	}
}

func cloneEntry(e model.JournalEntry) model.JournalEntry {
	if e.Layers != nil {
		layers := make(model.Layers, len(e.Layers))
		for i, l := range e.Layers {
			l.Data = maps.Clone(l.Data)
			layers[i] = l
		}
		e.Layers = layers
	}
	return e
}

// ========== Users ==========

func (m *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.now()
	}
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) findUser(match func(model.User) bool) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return m.findUser(func(u model.User) bool { return u.Email == email })
}

func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return m.findUser(func(u model.User) bool { return u.Username == username })
}

func (m *MemoryStore) UpdateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range m.users {
		if id != u.ID && other.Username == u.Username {
			return ErrConflict
		}
	}
	existing.Username = u.Username
	existing.FullName = u.FullName
	existing.PasswordHash = u.PasswordHash
	existing.Provider = u.Provider
	existing.ProviderID = u.ProviderID
	existing.IsActive = u.IsActive
	m.users[u.ID] = existing
	return nil
}

// ========== Habits ==========

func (m *MemoryStore) ListHabits(_ context.Context, userID string, activeOnly bool) ([]model.Habit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	habits := []model.Habit{}
	for _, h := range m.habits {
		if h.UserID != userID || (activeOnly && !h.IsActive) {
			continue
		}
		habits = append(habits, h)
	}
	slices.SortFunc(habits, func(a, b model.Habit) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return habits, nil
}

func (m *MemoryStore) GetHabit(_ context.Context, userID, id string) (*model.Habit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.habits[id]
	if !ok || h.UserID != userID {
		return nil, ErrNotFound
	}
	return &h, nil
}

func (m *MemoryStore) CreateHabit(_ context.Context, h *model.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if _, exists := m.habits[h.ID]; exists {
		return ErrConflict
	}
	now := m.now()
	h.CreatedAt, h.UpdatedAt = now, now
	m.habits[h.ID] = *h
	return nil
}

func (m *MemoryStore) UpdateHabit(_ context.Context, h *model.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.habits[h.ID]
	if !ok || existing.UserID != h.UserID {
		return ErrNotFound
	}
	h.CreatedAt = existing.CreatedAt
	h.UpdatedAt = m.now()
	m.habits[h.ID] = *h
	return nil
}

func (m *MemoryStore) DeleteHabit(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.habits[id]
	if !ok || h.UserID != userID {
		return ErrNotFound
	}
	delete(m.habits, id)
	delete(m.streaks, id)
	maps.DeleteFunc(m.checks, func(k checkKey, _ model.HabitCheck) bool {
		return k.habitID == id
	})
	return nil
}

// ========== Habit checks ==========

func (m *MemoryStore) UpsertCheck(_ context.Context, c *model.HabitCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := checkKey{c.UserID, c.HabitID, c.Date}
	now := m.now()
	if existing, ok := m.checks[key]; ok {
		existing.Completed = c.Completed
		existing.UpdatedAt = now
		m.checks[key] = existing
		*c = existing
		return nil
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt, c.UpdatedAt = now, now
	m.checks[key] = *c
	return nil
}

func (m *MemoryStore) ToggleCheck(_ context.Context, userID, habitID string, date datekey.Key) (*model.HabitCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := checkKey{userID, habitID, date}
	now := m.now()
	c, ok := m.checks[key]
	if !ok {
		c = model.HabitCheck{ID: uuid.NewString(), UserID: userID, HabitID: habitID, Date: date, CreatedAt: now}
	}
	c.Completed = !c.Completed
	c.UpdatedAt = now
	m.checks[key] = c
	return &c, nil
}

func (m *MemoryStore) ChecksForHabit(_ context.Context, userID, habitID string, span *datekey.Span) ([]model.HabitCheck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	checks := []model.HabitCheck{}
	for k, c := range m.checks {
		if k.userID != userID || k.habitID != habitID {
			continue
		}
		if span != nil && !span.Contains(k.date) {
			continue
		}
		checks = append(checks, c)
	}
	slices.SortFunc(checks, func(a, b model.HabitCheck) int {
		return b.Date.Compare(a.Date)
	})
	return checks, nil
}

func (m *MemoryStore) ChecksForRange(_ context.Context, userID string, span datekey.Span) ([]model.HabitCheck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	checks := []model.HabitCheck{}
	for k, c := range m.checks {
		if k.userID == userID && span.Contains(k.date) {
			checks = append(checks, c)
		}
	}
	slices.SortFunc(checks, func(a, b model.HabitCheck) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.HabitID, b.HabitID)
	})
	return checks, nil
}

// ========== Streak projections ==========

func (m *MemoryStore) GetStreak(_ context.Context, userID, habitID string) (*model.HabitStreak, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.streaks[habitID]
	if !ok || s.UserID != userID {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) SaveStreak(_ context.Context, s *model.HabitStreak) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = m.now()
	m.streaks[s.HabitID] = *s
	return nil
}

// ========== Events ==========

func (m *MemoryStore) ListEvents(_ context.Context, userID string, from, to time.Time) ([]model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := []model.Event{}
	for _, e := range m.events {
		if e.UserID == userID && !e.Date.Before(from) && e.Date.Before(to) {
			events = append(events, e)
		}
	}
	slices.SortFunc(events, func(a, b model.Event) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return events, nil
}

func (m *MemoryStore) GetEvent(_ context.Context, userID, id string) (*model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok || e.UserID != userID {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *MemoryStore) CreateEvent(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, exists := m.events[e.ID]; exists {
		return ErrConflict
	}
	now := m.now()
	e.CreatedAt, e.UpdatedAt = now, now
	m.events[e.ID] = *e
	return nil
}

func (m *MemoryStore) UpdateEvent(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.events[e.ID]
	if !ok || existing.UserID != e.UserID {
		return ErrNotFound
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = m.now()
	m.events[e.ID] = *e
	return nil
}

func (m *MemoryStore) DeleteEvent(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.UserID != userID {
		return ErrNotFound
	}
	delete(m.events, id)
	return nil
}

// ========== Journal entries ==========

func (m *MemoryStore) ListEntries(_ context.Context, userID string, span *datekey.Span) ([]model.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := []model.JournalEntry{}
	for k, e := range m.entries {
		if k.userID != userID || (span != nil && !span.Contains(k.date)) {
			continue
		}
		entries = append(entries, cloneEntry(e))
	}
	slices.SortFunc(entries, func(a, b model.JournalEntry) int {
		return a.Date.Compare(b.Date)
	})
	return entries, nil
}

func (m *MemoryStore) GetEntry(_ context.Context, userID string, date datekey.Key) (*model.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[entryKey{userID, date}]
	if !ok {
		return nil, ErrNotFound
	}
	e = cloneEntry(e)
	return &e, nil
}

func (m *MemoryStore) CreateEntry(_ context.Context, e *model.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := entryKey{e.UserID, e.Date}
	if _, exists := m.entries[key]; exists {
		return ErrConflict
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := m.now()
	e.CreatedAt, e.UpdatedAt = now, now
	m.entries[key] = cloneEntry(*e)
	return nil
}

func (m *MemoryStore) SaveEntry(_ context.Context, e *model.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := entryKey{e.UserID, e.Date}
	now := m.now()
	if existing, ok := m.entries[key]; ok {
		e.ID, e.CreatedAt = existing.ID, existing.CreatedAt
	} else {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	m.entries[key] = cloneEntry(*e)
	return nil
}

func (m *MemoryStore) ModifyEntry(_ context.Context, userID string, date datekey.Key, fn func(*model.JournalEntry) error) (*model.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := entryKey{userID, date}
	existing, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}

	entry := cloneEntry(existing)
	if err := fn(&entry); err != nil {
		return nil, err
	}
	entry.ID, entry.UserID, entry.Date, entry.CreatedAt = existing.ID, userID, date, existing.CreatedAt
	entry.UpdatedAt = m.now()
	m.entries[key] = cloneEntry(entry)
	return &entry, nil
}

func (m *MemoryStore) DeleteEntry(_ context.Context, userID string, date datekey.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := entryKey{userID, date}
	if _, ok := m.entries[key]; !ok {
		return ErrNotFound
	}
	delete(m.entries, key)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}
