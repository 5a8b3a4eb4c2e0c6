package datekey

import (
	"fmt"
	"strings"
	"time"
)

// Span 양 끝을 포함하는 날짜 구간
type Span struct {
	Start Key
	End   Key
}

// NewSpan rejects end < start.
func NewSpan(start, end Key) (Span, error) {
	if end.Before(start) {
		return Span{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidKey, end, start)
	}
	return Span{Start: start, End: end}, nil
}

// Len 구간에 포함된 일 수
func (s Span) Len() int {
	return s.Start.DaysUntil(s.End) + 1
}

func (s Span) Contains(k Key) bool {
	return !k.Before(s.Start) && !k.After(s.End)
}

// Days lists every key in the span, ascending.
func (s Span) Days() []Key {
	n := s.Len()
	if n <= 0 {
		return nil
	}
	days := make([]Key, 0, n)
	for d := s.Start; !d.After(s.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Week returns the 7-day span containing day that starts on weekStart.
func Week(day Key, weekStart time.Weekday) Span {
	offset := (int(day.Weekday()) - int(weekStart) + 7) % 7
	start := day.AddDays(-offset)
	return Span{Start: start, End: start.AddDays(6)}
}

// MonthGrid covers the month padded with leading/trailing days so the span
// is a whole number of weeks.
func MonthGrid(year int, month time.Month, weekStart time.Weekday) Span {
	first := New(year, month, 1)
	last := New(year, month+1, 0)
	start := Week(first, weekStart).Start
	end := Week(last, weekStart).End
	return Span{Start: start, End: end}
}

// Month 패딩 없는 한 달 구간
func Month(year int, month time.Month) Span {
	return Span{Start: New(year, month, 1), End: New(year, month+1, 0)}
}

// ParseWeekday accepts english weekday names and their 3-letter forms.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

// LoadLocation treats "" and "Local" as the server's local zone.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
