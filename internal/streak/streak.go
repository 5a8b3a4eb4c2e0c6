// Package streak computes habit streaks from the full check history.
//
// Compute is a pure function; the projection it returns may be cached, but
// the check history is always the source of truth.
package streak

import (
	"slices"

	"journal-backend/internal/datekey"
	"journal-backend/internal/model"
)

// Compute derives the streak projection for habitID.
//
// currentStreak counts consecutive completed days ending today and is 0 when
// today has no completed check. longestStreak is the longest run found
// anywhere in the history, never lower than previousLongest.
func Compute(habitID string, checks []model.HabitCheck, today datekey.Key, previousLongest int) model.HabitStreak {
	result := model.HabitStreak{
		HabitID:       habitID,
		LongestStreak: max(previousLongest, 0),
	}

	days := completedDays(habitID, checks)
	if len(days) == 0 {
		return result
	}

	last := days[0]
	result.LastCompletedDate = &last

	// 오늘부터 하루씩 거슬러 올라가며 연속 완료일 계산
	expected := today
	for _, d := range days {
		if d.After(today) {
			continue
		}
		if d != expected {
			break
		}
		result.CurrentStreak++
		expected = expected.AddDays(-1)
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].AddDays(1) == days[i-1] {
			run++
			longest = max(longest, run)
		} else {
			run = 1
		}
	}
	result.LongestStreak = max(result.LongestStreak, longest)

	return result
}

// completedDays returns unique completed days, most recent first. Checks for
// other habits are ignored so callers may pass a mixed slice.
func completedDays(habitID string, checks []model.HabitCheck) []datekey.Key {
	seen := make(map[datekey.Key]struct{}, len(checks))
	days := make([]datekey.Key, 0, len(checks))
	for _, c := range checks {
		if !c.Completed || c.Date.IsZero() {
			continue
		}
		if habitID != "" && c.HabitID != "" && c.HabitID != habitID {
			continue
		}
		if _, ok := seen[c.Date]; ok {
			continue
		}
		seen[c.Date] = struct{}{}
		days = append(days, c.Date)
	}
	slices.SortFunc(days, func(a, b datekey.Key) int {
		return b.Compare(a)
	})
	return days
}
