package aggregate

import (
	"testing"
	"time"

	"journal-backend/internal/datekey"
	"journal-backend/internal/model"
)

func at(loc *time.Location, y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, loc)
}

func TestDayExample(t *testing.T) {
	loc := time.UTC
	day := datekey.MustParse("2024-03-10")

	events := []model.Event{
		{ID: "e1", Title: "standup", Date: at(loc, 2024, 3, 10, 9, 0)},
		{ID: "e2", Title: "lunch", Date: at(loc, 2024, 3, 10, 12, 0)},
		{ID: "e3", Title: "gym", Date: at(loc, 2024, 3, 10, 18, 30)},
		{ID: "e4", Title: "tomorrow", Date: at(loc, 2024, 3, 11, 9, 0)},
	}
	entries := []model.JournalEntry{
		{ID: "j0", Date: datekey.MustParse("2024-03-09")},
		{ID: "j1", Date: day, Layers: model.Layers{
			{ID: "l1", Type: model.LayerTypeText, ZIndex: 0},
			{ID: "l2", Type: model.LayerTypeSticker, ZIndex: 1},
		}},
	}

	got := Day(day, events, entries, nil, loc)

	if got.EventCount != 3 || len(got.Events) != 3 {
		t.Fatalf("EventCount = %d, events = %d, want 3", got.EventCount, len(got.Events))
	}
	if got.JournalEntry == nil || got.JournalEntry.ID != "j1" {
		t.Fatalf("JournalEntry = %+v, want j1", got.JournalEntry)
	}
	if len(got.JournalEntry.Layers) != 2 {
		t.Errorf("layers = %d, want 2", len(got.JournalEntry.Layers))
	}
	if got.HabitChecks == nil || len(got.HabitChecks) != 0 {
		t.Errorf("HabitChecks = %v, want empty non-nil", got.HabitChecks)
	}
}

func TestDayUsesLocalCalendar(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Skip("Asia/Seoul unavailable")
	}
	day := datekey.MustParse("2024-03-10")
	// 00:30 KST on the 10th is still the 9th in UTC
	events := []model.Event{{ID: "e1", Date: time.Date(2024, 3, 9, 15, 30, 0, 0, time.UTC)}}

	if got := Day(day, events, nil, nil, loc); got.EventCount != 1 {
		t.Errorf("KST day: EventCount = %d, want 1", got.EventCount)
	}
	if got := Day(day, events, nil, nil, time.UTC); got.EventCount != 0 {
		t.Errorf("UTC day: EventCount = %d, want 0", got.EventCount)
	}
}

func TestDayCombinationsAreValid(t *testing.T) {
	day := datekey.MustParse("2024-03-10")
	checks := []model.HabitCheck{
		{HabitID: "b", Date: day, Completed: true},
		{HabitID: "a", Date: day, Completed: false},
		{HabitID: "a", Date: day.AddDays(1), Completed: true},
	}

	got := Day(day, nil, nil, checks, time.UTC)
	if got.EventCount != 0 || got.JournalEntry != nil {
		t.Errorf("unexpected data %+v", got)
	}
	if len(got.HabitChecks) != 2 {
		t.Fatalf("HabitChecks = %d, want 2", len(got.HabitChecks))
	}
	if got.HabitChecks[0].HabitID != "a" {
		t.Errorf("checks not ordered by habit: %+v", got.HabitChecks)
	}
}

func TestDayOrdersEvents(t *testing.T) {
	loc := time.UTC
	day := datekey.MustParse("2024-03-10")
	events := []model.Event{
		{ID: "late", Date: at(loc, 2024, 3, 10, 20, 0)},
		{ID: "early", Date: at(loc, 2024, 3, 10, 7, 0)},
	}
	got := Day(day, events, nil, nil, loc)
	if got.Events[0].ID != "early" || got.Events[1].ID != "late" {
		t.Errorf("events out of order: %s, %s", got.Events[0].ID, got.Events[1].ID)
	}
}

func TestRangeMatchesDay(t *testing.T) {
	loc := time.UTC
	span, _ := datekey.NewSpan(datekey.MustParse("2024-03-08"), datekey.MustParse("2024-03-12"))

	events := []model.Event{
		{ID: "e1", Date: at(loc, 2024, 3, 8, 9, 0)},
		{ID: "e2", Date: at(loc, 2024, 3, 10, 9, 0)},
		{ID: "e3", Date: at(loc, 2024, 3, 10, 11, 0)},
		{ID: "out", Date: at(loc, 2024, 3, 20, 9, 0)},
	}
	entries := []model.JournalEntry{{ID: "j1", Date: datekey.MustParse("2024-03-12")}}
	checks := []model.HabitCheck{{HabitID: "h", Date: datekey.MustParse("2024-03-09"), Completed: true}}

	days := Range(span, events, entries, checks, loc)
	if len(days) != 5 {
		t.Fatalf("got %d days, want 5", len(days))
	}
	for i, d := range days {
		want := Day(d.Date, events, entries, checks, loc)
		if d.Date != span.Start.AddDays(i) {
			t.Errorf("day %d = %s, not ascending", i, d.Date)
		}
		if d.EventCount != want.EventCount || len(d.HabitChecks) != len(want.HabitChecks) || (d.JournalEntry == nil) != (want.JournalEntry == nil) {
			t.Errorf("%s: range %+v differs from day %+v", d.Date, d, want)
		}
		if d.EventCount != len(d.Events) {
			t.Errorf("%s: EventCount %d != len(events) %d", d.Date, d.EventCount, len(d.Events))
		}
	}
	if days[2].EventCount != 2 {
		t.Errorf("2024-03-10 EventCount = %d, want 2", days[2].EventCount)
	}
}

func TestMonthIsMultipleOfSeven(t *testing.T) {
	loc := time.UTC
	for month := time.January; month <= time.December; month++ {
		for _, ws := range []time.Weekday{time.Sunday, time.Monday} {
			days := Month(2024, month, ws, nil, nil, nil, loc)
			if len(days)%7 != 0 {
				t.Fatalf("2024-%02d (%s): %d days", month, ws, len(days))
			}
		}
	}
}

func TestMonthPaddingKeepsOwnData(t *testing.T) {
	loc := time.UTC
	// March 2024 grid (sunday start) begins on 2024-02-25
	events := []model.Event{{ID: "feb", Date: at(loc, 2024, 2, 26, 10, 0)}}

	days := Month(2024, time.March, time.Sunday, events, nil, nil, loc)
	if days[0].Date.String() != "2024-02-25" {
		t.Fatalf("grid starts %s", days[0].Date)
	}
	if days[1].Date.String() != "2024-02-26" || days[1].EventCount != 1 {
		t.Errorf("padding day lost its event: %+v", days[1])
	}
	for _, d := range days {
		if d.Date.Month != time.February && d.EventCount != 0 {
			t.Errorf("event leaked onto %s", d.Date)
		}
	}
}

func TestWeek(t *testing.T) {
	days := Week(datekey.MustParse("2024-03-13"), time.Monday, nil, nil, nil, time.UTC)
	if len(days) != 7 {
		t.Fatalf("got %d days", len(days))
	}
	if days[0].Date.String() != "2024-03-11" || days[6].Date.String() != "2024-03-17" {
		t.Errorf("week = %s..%s", days[0].Date, days[6].Date)
	}
}
