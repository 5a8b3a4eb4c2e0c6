// Package aggregate builds per-day calendar summaries from independently
// fetched events, journal entries and habit checks.
package aggregate

import (
	"cmp"
	"slices"
	"time"

	"journal-backend/internal/datekey"
	"journal-backend/internal/model"
)

// MaxRangeDays 한 번에 집계할 수 있는 최대 일 수
const MaxRangeDays = 366

// Day filters each collection to day and assembles its summary. Collections
// are not cross-validated: any combination of events, entry and checks is a
// valid day. Event days are computed in loc.
func Day(day datekey.Key, events []model.Event, entries []model.JournalEntry, checks []model.HabitCheck, loc *time.Location) model.DayData {
	data := model.DayData{
		Date:        day,
		Events:      []model.Event{},
		HabitChecks: []model.HabitCheck{},
	}

	for _, e := range events {
		if datekey.Of(e.Date, loc) == day {
			data.Events = append(data.Events, e)
		}
	}
	for i := range entries {
		if entries[i].Date == day {
			entry := entries[i]
			data.JournalEntry = &entry
			break
		}
	}
	for _, c := range checks {
		if c.Date == day {
			data.HabitChecks = append(data.HabitChecks, c)
		}
	}

	sortDay(&data)
	data.EventCount = len(data.Events)
	return data
}

// Range returns one DayData per day of span in ascending order. The result
// matches calling Day for every day; collections are bucketed once instead.
func Range(span datekey.Span, events []model.Event, entries []model.JournalEntry, checks []model.HabitCheck, loc *time.Location) []model.DayData {
	days := span.Days()
	if len(days) == 0 {
		return []model.DayData{}
	}

	eventsByDay := make(map[datekey.Key][]model.Event)
	for _, e := range events {
		k := datekey.Of(e.Date, loc)
		if span.Contains(k) {
			eventsByDay[k] = append(eventsByDay[k], e)
		}
	}
	entryByDay := make(map[datekey.Key]*model.JournalEntry)
	for i := range entries {
		k := entries[i].Date
		if _, dup := entryByDay[k]; dup || !span.Contains(k) {
			continue
		}
		entry := entries[i]
		entryByDay[k] = &entry
	}
	checksByDay := make(map[datekey.Key][]model.HabitCheck)
	for _, c := range checks {
		if span.Contains(c.Date) {
			checksByDay[c.Date] = append(checksByDay[c.Date], c)
		}
	}

	result := make([]model.DayData, 0, len(days))
	for _, d := range days {
		data := model.DayData{
			Date:         d,
			Events:       orEmpty(eventsByDay[d]),
			JournalEntry: entryByDay[d],
			HabitChecks:  orEmpty(checksByDay[d]),
		}
		sortDay(&data)
		data.EventCount = len(data.Events)
		result = append(result, data)
	}
	return result
}

// Week 기준일이 포함된 7일 집계
func Week(day datekey.Key, weekStart time.Weekday, events []model.Event, entries []model.JournalEntry, checks []model.HabitCheck, loc *time.Location) []model.DayData {
	return Range(datekey.Week(day, weekStart), events, entries, checks, loc)
}

// Month aggregates the padded month grid. Padding days carry their own
// events, entries and checks.
func Month(year int, month time.Month, weekStart time.Weekday, events []model.Event, entries []model.JournalEntry, checks []model.HabitCheck, loc *time.Location) []model.DayData {
	return Range(datekey.MonthGrid(year, month, weekStart), events, entries, checks, loc)
}

func sortDay(d *model.DayData) {
	slices.SortStableFunc(d.Events, func(a, b model.Event) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return compareOptionalTime(a.StartTime, b.StartTime)
	})
	slices.SortStableFunc(d.HabitChecks, func(a, b model.HabitCheck) int {
		return cmp.Compare(a.HabitID, b.HabitID)
	})
}

func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
