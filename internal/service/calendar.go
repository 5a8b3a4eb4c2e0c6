package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"journal-backend/internal/aggregate"
	"journal-backend/internal/datekey"
	"journal-backend/internal/model"
	"journal-backend/internal/store"
)

// EventInput 이벤트 생성 요청
type EventInput struct {
	Title           string     `json:"title"`
	Description     *string    `json:"description"`
	Date            time.Time  `json:"date"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	Color           string     `json:"color"`
	SyncedCalendars []string   `json:"synced_calendars"`
	NotionPageID    *string    `json:"notion_page_id"`
}

// EventPatch 이벤트 부분 수정
type EventPatch struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Date            *time.Time `json:"date"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	Color           *string    `json:"color"`
	SyncedCalendars *[]string  `json:"synced_calendars"`
	NotionPageID    *string    `json:"notion_page_id"`
}

// CalendarService 이벤트 CRUD와 날짜별 집계
type CalendarService struct {
	store    store.Store
	notifier Notifier
}

// NewCalendarService CalendarService 생성
func NewCalendarService(st store.Store, n Notifier) *CalendarService {
	return &CalendarService{store: st, notifier: orNop(n)}
}

func validateEventTimes(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: end_time is before start_time", ErrInvalidInput)
	}
	return nil
}

// ListEvents returns events whose date falls on a day of span in loc.
func (s *CalendarService) ListEvents(ctx context.Context, userID string, span datekey.Span, loc *time.Location) ([]model.Event, error) {
	return s.store.ListEvents(ctx, userID, span.Start.Start(loc), span.End.End(loc))
}

func (s *CalendarService) EventsForDate(ctx context.Context, userID string, date datekey.Key, loc *time.Location) ([]model.Event, error) {
	return s.store.ListEvents(ctx, userID, date.Start(loc), date.End(loc))
}

func (s *CalendarService) GetEvent(ctx context.Context, userID, id string) (*model.Event, error) {
	return s.store.GetEvent(ctx, userID, id)
}

func (s *CalendarService) CreateEvent(ctx context.Context, userID string, in EventInput) (*model.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if err := validateEventTimes(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}

	e := &model.Event{
		UserID:          userID,
		Title:           title,
		Description:     in.Description,
		Date:            in.Date,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		Color:           colorOrDefault(in.Color, model.DefaultColor),
		SyncedCalendars: model.StringList(in.SyncedCalendars),
		NotionPageID:    trimmed(in.NotionPageID),
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	publish(s.notifier, userID, ChangeCreated, ResourceEvent, e.ID, "")
	return e, nil
}

func (s *CalendarService) UpdateEvent(ctx context.Context, userID, id string, patch EventPatch) (*model.Event, error) {
	e, err := s.store.GetEvent(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		e.Title = title
	}
	if patch.Description != nil {
		e.Description = patch.Description
	}
	if patch.Date != nil && !patch.Date.IsZero() {
		e.Date = *patch.Date
	}
	if patch.StartTime != nil {
		e.StartTime = patch.StartTime
	}
	if patch.EndTime != nil {
		e.EndTime = patch.EndTime
	}
	if patch.Color != nil {
		e.Color = colorOrDefault(*patch.Color, e.Color)
	}
	if patch.SyncedCalendars != nil {
		e.SyncedCalendars = model.StringList(*patch.SyncedCalendars)
	}
	if patch.NotionPageID != nil {
		e.NotionPageID = trimmed(patch.NotionPageID)
	}
	if err := validateEventTimes(e.StartTime, e.EndTime); err != nil {
		return nil, err
	}
	e.UpdatedAt = time.Now()

	if err := s.store.UpdateEvent(ctx, e); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	publish(s.notifier, userID, ChangeUpdated, ResourceEvent, e.ID, "")
	return e, nil
}

func (s *CalendarService) DeleteEvent(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteEvent(ctx, userID, id); err != nil {
		return err
	}
	publish(s.notifier, userID, ChangeDeleted, ResourceEvent, id, "")
	return nil
}

// ========== Aggregation ==========

type dayInputs struct {
	events  []model.Event
	entries []model.JournalEntry
	checks  []model.HabitCheck
}

// fetch loads the three collections for span in parallel. A failed fetch is
// logged and leaves its collection empty so the caller can still aggregate.
func (s *CalendarService) fetch(ctx context.Context, userID string, span datekey.Span, loc *time.Location) dayInputs {
	var (
		in dayInputs
		g  errgroup.Group
	)

	g.Go(func() error {
		events, err := s.store.ListEvents(ctx, userID, span.Start.Start(loc), span.End.End(loc))
		if err != nil {
			log.Printf("⚠️ [Calendar] events fetch failed for %s..%s: %v", span.Start, span.End, err)
			return nil
		}
		in.events = events
		return nil
	})
	g.Go(func() error {
		entries, err := s.store.ListEntries(ctx, userID, &span)
		if err != nil {
			log.Printf("⚠️ [Calendar] entries fetch failed for %s..%s: %v", span.Start, span.End, err)
			return nil
		}
		in.entries = entries
		return nil
	})
	g.Go(func() error {
		checks, err := s.store.ChecksForRange(ctx, userID, span)
		if err != nil {
			log.Printf("⚠️ [Calendar] checks fetch failed for %s..%s: %v", span.Start, span.End, err)
			return nil
		}
		in.checks = checks
		return nil
	})

	_ = g.Wait()
	return in
}

// Day 하루 요약
func (s *CalendarService) Day(ctx context.Context, userID string, day datekey.Key, loc *time.Location) model.DayData {
	in := s.fetch(ctx, userID, datekey.Span{Start: day, End: day}, loc)
	return aggregate.Day(day, in.events, in.entries, in.checks, loc)
}

// Range returns one summary per day of span; spans longer than
// aggregate.MaxRangeDays are rejected.
func (s *CalendarService) Range(ctx context.Context, userID string, span datekey.Span, loc *time.Location) ([]model.DayData, error) {
	if span.Len() <= 0 {
		return nil, fmt.Errorf("%w: end_date is before start_date", ErrInvalidInput)
	}
	if span.Len() > aggregate.MaxRangeDays {
		return nil, fmt.Errorf("%w: range exceeds %d days", ErrInvalidInput, aggregate.MaxRangeDays)
	}
	in := s.fetch(ctx, userID, span, loc)
	return aggregate.Range(span, in.events, in.entries, in.checks, loc), nil
}

func (s *CalendarService) Week(ctx context.Context, userID string, day datekey.Key, weekStart time.Weekday, loc *time.Location) []model.DayData {
	span := datekey.Week(day, weekStart)
	in := s.fetch(ctx, userID, span, loc)
	return aggregate.Range(span, in.events, in.entries, in.checks, loc)
}

// Month aggregates the whole-week grid around the month.
func (s *CalendarService) Month(ctx context.Context, userID string, year int, month time.Month, weekStart time.Weekday, loc *time.Location) []model.DayData {
	span := datekey.MonthGrid(year, month, weekStart)
	in := s.fetch(ctx, userID, span, loc)
	return aggregate.Range(span, in.events, in.entries, in.checks, loc)
}
