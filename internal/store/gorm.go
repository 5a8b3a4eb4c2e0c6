package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"journal-backend/internal/datekey"
	"journal-backend/internal/model"
)

// GormStore PostgreSQL 저장소
type GormStore struct {
	db *gorm.DB
}

// NewGormStore GormStore 생성
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// translate maps gorm errors onto the store sentinels. The connection must
// be opened with TranslateError so unique violations surface as
// gorm.ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ========== Users ==========

func (s *GormStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, u *model.User) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", u.ID).
		Select("username", "full_name", "password_hash", "provider", "provider_id", "is_active").
		Updates(u)
	return affected(res)
}

// ========== Habits ==========

func (s *GormStore) ListHabits(ctx context.Context, userID string, activeOnly bool) ([]model.Habit, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var habits []model.Habit
	if err := query.Order("created_at ASC").Find(&habits).Error; err != nil {
		return nil, err
	}
	return habits, nil
}

func (s *GormStore) GetHabit(ctx context.Context, userID, id string) (*model.Habit, error) {
	var h model.Habit
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&h).Error; err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

func (s *GormStore) CreateHabit(ctx context.Context, h *model.Habit) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(h).Error)
}

func (s *GormStore) UpdateHabit(ctx context.Context, h *model.Habit) error {
	res := s.db.WithContext(ctx).Model(&model.Habit{}).
		Where("id = ? AND user_id = ?", h.ID, h.UserID).
		Select("name", "color", "icon", "category", "is_active", "updated_at").
		Updates(h)
	return affected(res)
}

func (s *GormStore) DeleteHabit(ctx context.Context, userID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("habit_id = ? AND user_id = ?", id, userID).Delete(&model.HabitCheck{}).Error; err != nil {
			return err
		}
		if err := tx.Where("habit_id = ? AND user_id = ?", id, userID).Delete(&model.HabitStreak{}).Error; err != nil {
			return err
		}
		return affected(tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Habit{}))
	})
}

// ========== Habit checks ==========

var checkConflictColumns = []clause.Column{{Name: "user_id"}, {Name: "habit_id"}, {Name: "date"}}

func (s *GormStore) UpsertCheck(ctx context.Context, c *model.HabitCheck) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	db := s.db.WithContext(ctx)

	err := db.Clauses(clause.OnConflict{
		Columns:   checkConflictColumns,
		DoUpdates: clause.AssignmentColumns([]string{"completed", "updated_at"}),
	}).Create(c).Error
	if err != nil {
		return translate(err)
	}

	// 기존 행과 충돌했으면 저장된 행을 다시 읽음
	var stored model.HabitCheck
	if err := db.Where("user_id = ? AND habit_id = ? AND date = ?", c.UserID, c.HabitID, c.Date).First(&stored).Error; err != nil {
		return translate(err)
	}
	*c = stored
	return nil
}

func (s *GormStore) ToggleCheck(ctx context.Context, userID, habitID string, date datekey.Key) (*model.HabitCheck, error) {
	var check model.HabitCheck
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 행이 없으면 미완료 상태로 먼저 만들고 잠금
		seed := model.HabitCheck{ID: uuid.NewString(), UserID: userID, HabitID: habitID, Date: date}
		if err := tx.Clauses(clause.OnConflict{Columns: checkConflictColumns, DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND habit_id = ? AND date = ?", userID, habitID, date).
			First(&check).Error
		if err != nil {
			return err
		}

		check.Completed = !check.Completed
		return tx.Model(&check).Update("completed", check.Completed).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &check, nil
}

func (s *GormStore) ChecksForHabit(ctx context.Context, userID, habitID string, span *datekey.Span) ([]model.HabitCheck, error) {
	query := s.db.WithContext(ctx).Where("user_id = ? AND habit_id = ?", userID, habitID)
	if span != nil {
		query = query.Where("date >= ? AND date <= ?", span.Start, span.End)
	}

	var checks []model.HabitCheck
	if err := query.Order("date DESC").Find(&checks).Error; err != nil {
		return nil, err
	}
	return checks, nil
}

func (s *GormStore) ChecksForRange(ctx context.Context, userID string, span datekey.Span) ([]model.HabitCheck, error) {
	var checks []model.HabitCheck
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, span.Start, span.End).
		Order("date ASC, habit_id ASC").
		Find(&checks).Error
	if err != nil {
		return nil, err
	}
	return checks, nil
}

// ========== Streak projections ==========

func (s *GormStore) GetStreak(ctx context.Context, userID, habitID string) (*model.HabitStreak, error) {
	var st model.HabitStreak
	if err := s.db.WithContext(ctx).Where("habit_id = ? AND user_id = ?", habitID, userID).First(&st).Error; err != nil {
		return nil, translate(err)
	}
	return &st, nil
}

func (s *GormStore) SaveStreak(ctx context.Context, st *model.HabitStreak) error {
	return translate(s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"current_streak", "longest_streak", "last_completed_date", "updated_at"}),
	}).Create(st).Error)
}

// ========== Events ==========

func (s *GormStore) ListEvents(ctx context.Context, userID string, from, to time.Time) ([]model.Event, error) {
	var events []model.Event
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Order("date ASC, start_time ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *GormStore) GetEvent(ctx context.Context, userID, id string) (*model.Event, error) {
	var e model.Event
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *GormStore) CreateEvent(ctx context.Context, e *model.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(e).Error)
}

func (s *GormStore) UpdateEvent(ctx context.Context, e *model.Event) error {
	res := s.db.WithContext(ctx).Model(&model.Event{}).
		Where("id = ? AND user_id = ?", e.ID, e.UserID).
		Select("title", "description", "date", "start_time", "end_time", "color", "synced_calendars", "notion_page_id", "updated_at").
		Updates(e)
	return affected(res)
}

func (s *GormStore) DeleteEvent(ctx context.Context, userID, id string) error {
	return affected(s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Event{}))
}

// ========== Journal entries ==========

func (s *GormStore) ListEntries(ctx context.Context, userID string, span *datekey.Span) ([]model.JournalEntry, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if span != nil {
		query = query.Where("date >= ? AND date <= ?", span.Start, span.End)
	}

	var entries []model.JournalEntry
	if err := query.Order("date ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *GormStore) GetEntry(ctx context.Context, userID string, date datekey.Key) (*model.JournalEntry, error) {
	var e model.JournalEntry
	if err := s.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).First(&e).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *GormStore) CreateEntry(ctx context.Context, e *model.JournalEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(e).Error)
}

func (s *GormStore) SaveEntry(ctx context.Context, e *model.JournalEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	db := s.db.WithContext(ctx)

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "layers", "background", "updated_at"}),
	}).Create(e).Error
	if err != nil {
		return translate(err)
	}
	var stored model.JournalEntry
	if err := db.Where("user_id = ? AND date = ?", e.UserID, e.Date).First(&stored).Error; err != nil {
		return translate(err)
	}
	*e = stored
	return nil
}

func (s *GormStore) ModifyEntry(ctx context.Context, userID string, date datekey.Key, fn func(*model.JournalEntry) error) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND date = ?", userID, date).
			First(&entry).Error
		if err != nil {
			return err
		}

		if err := fn(&entry); err != nil {
			return err
		}
		entry.UserID, entry.Date = userID, date
		entry.UpdatedAt = time.Now()

		return tx.Model(&model.JournalEntry{}).
			Where("id = ?", entry.ID).
			Select("text", "layers", "background", "updated_at").
			Updates(&entry).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

func (s *GormStore) DeleteEntry(ctx context.Context, userID string, date datekey.Key) error {
	return affected(s.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).Delete(&model.JournalEntry{}))
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
