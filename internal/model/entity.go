package model

import (
	"time"

	"journal-backend/internal/datekey"
)

// User 사용자
type User struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	FullName     *string   `gorm:"type:varchar(200)" json:"full_name,omitempty"`
	PasswordHash *string   `gorm:"type:varchar(255)" json:"-"` // Google 계정은 비어 있음
	Provider     *string   `gorm:"type:varchar(50)" json:"provider,omitempty"`
	ProviderID   *string   `gorm:"type:varchar(255)" json:"-"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// Habit 습관
type Habit struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"-"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Color     string    `gorm:"type:varchar(20);default:'#6366f1'" json:"color"`
	Icon      *string   `gorm:"type:varchar(50)" json:"icon,omitempty"`
	Category  *string   `gorm:"type:varchar(50)" json:"category,omitempty"`
	IsActive  bool      `gorm:"not null;index" json:"isActive"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Habit) TableName() string {
	return "habits"
}

// HabitCheck 날짜별 습관 체크 (habit, date 당 최대 1개)
type HabitCheck struct {
	ID        string      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string      `gorm:"type:uuid;not null;uniqueIndex:idx_habit_checks_user_habit_date,priority:1" json:"-"`
	HabitID   string      `gorm:"type:uuid;not null;uniqueIndex:idx_habit_checks_user_habit_date,priority:2;index" json:"habitId"`
	Date      datekey.Key `gorm:"type:date;not null;uniqueIndex:idx_habit_checks_user_habit_date,priority:3;index" json:"date"`
	Completed bool        `gorm:"not null" json:"completed"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime" json:"-"`
}

func (HabitCheck) TableName() string {
	return "habit_checks"
}

// HabitStreak 체크 이력에서 계산된 스트릭 투영 (캐시 성격)
type HabitStreak struct {
	HabitID           string       `gorm:"type:uuid;primaryKey" json:"habitId"`
	UserID            string       `gorm:"type:uuid;not null;index" json:"-"`
	CurrentStreak     int          `gorm:"not null;default:0" json:"currentStreak"`
	LongestStreak     int          `gorm:"not null;default:0" json:"longestStreak"`
	LastCompletedDate *datekey.Key `gorm:"type:date" json:"lastCompletedDate,omitempty"`
	UpdatedAt         time.Time    `gorm:"autoUpdateTime" json:"-"`
}

func (HabitStreak) TableName() string {
	return "habit_streaks"
}

// Event 캘린더 이벤트
type Event struct {
	ID              string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          string     `gorm:"type:uuid;not null;index:idx_events_user_date,priority:1" json:"-"`
	Title           string     `gorm:"type:varchar(255);not null" json:"title"`
	Description     *string    `gorm:"type:text" json:"description,omitempty"`
	Date            time.Time  `gorm:"not null;index:idx_events_user_date,priority:2" json:"date"`
	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	Color           string     `gorm:"type:varchar(20);default:'#6366f1'" json:"color"`
	SyncedCalendars StringList `gorm:"type:jsonb" json:"syncedCalendars,omitempty"`
	NotionPageID    *string    `gorm:"type:varchar(255)" json:"notionPageId,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"-"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"-"`
}

func (Event) TableName() string {
	return "events"
}

// CanvasLayer 크리에이티브 저널 캔버스의 레이어
type CanvasLayer struct {
	ID       string         `json:"id"`
	Type     LayerType      `json:"type"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Rotation float64        `json:"rotation"`
	Scale    float64        `json:"scale"`
	ZIndex   int            `json:"zIndex"`
	Data     map[string]any `json:"data"` // uri, stickerId, path, text 등 타입별 데이터
}

// JournalEntry 날짜별 저널 (사용자당 하루 1개)
type JournalEntry struct {
	ID         string      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string      `gorm:"type:uuid;not null;uniqueIndex:idx_journal_entries_user_date,priority:1" json:"-"`
	Date       datekey.Key `gorm:"type:date;not null;uniqueIndex:idx_journal_entries_user_date,priority:2" json:"date"`
	Text       *string     `gorm:"type:text" json:"text,omitempty"`
	Layers     Layers      `gorm:"type:jsonb;not null" json:"layers"`
	Background *string     `gorm:"type:varchar(255)" json:"background,omitempty"`
	CreatedAt  time.Time   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time   `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (JournalEntry) TableName() string {
	return "journal_entries"
}

// DayData 캘린더 뷰용 하루 요약 (저장되지 않음)
type DayData struct {
	Date         datekey.Key   `json:"date"`
	Events       []Event       `json:"events"`
	JournalEntry *JournalEntry `json:"journalEntry"`
	HabitChecks  []HabitCheck  `json:"habitChecks"`
	EventCount   int           `json:"eventCount"`
}
