package datekey

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout 캘린더 날짜 직렬화 포맷
const Layout = "2006-01-02"

var ErrInvalidKey = errors.New("invalid date key")

// Key 로컬 캘린더 날짜 (시각 정보 없음)
//
// Keys compare by their year/month/day tuple. Arithmetic goes through
// time.Date normalization so a 23h or 25h DST day still advances by exactly
// one calendar day.
type Key struct {
	Year  int
	Month time.Month
	Day   int
}

// Of returns the calendar day t falls on in loc. A nil loc means time.Local.
func Of(t time.Time, loc *time.Location) Key {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return Key{Year: y, Month: m, Day: d}
}

// Today 해당 타임존의 오늘 날짜
func Today(loc *time.Location) Key {
	return Of(time.Now(), loc)
}

// New normalizes out-of-range components (e.g. day 0 is the last day of the
// previous month).
func New(year int, month time.Month, day int) Key {
	t := time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	y, m, d := t.Date()
	return Key{Year: y, Month: m, Day: d}
}

// Parse "YYYY-MM-DD" 문자열 파싱
func Parse(s string) (Key, error) {
	s = strings.TrimSpace(s)
	// RFC3339 타임스탬프가 들어오면 날짜 부분만 사용
	if len(s) > len(Layout) && s[len(Layout)] == 'T' {
		s = s[:len(Layout)]
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return Of(t, time.UTC), nil
}

// MustParse panics on malformed input. Intended for tests and constants.
func MustParse(s string) Key {
	k, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Key) IsZero() bool {
	return k.Year == 0 && k.Month == 0 && k.Day == 0
}

func (k Key) String() string {
	if k.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

// AddDays 달력 기준으로 n일 이동
func (k Key) AddDays(n int) Key {
	return New(k.Year, k.Month, k.Day+n)
}

// Compare returns -1, 0 or 1.
func (k Key) Compare(other Key) int {
	switch {
	case k.Year != other.Year:
		return cmpInt(k.Year, other.Year)
	case k.Month != other.Month:
		return cmpInt(int(k.Month), int(other.Month))
	default:
		return cmpInt(k.Day, other.Day)
	}
}

func (k Key) Before(other Key) bool { return k.Compare(other) < 0 }
func (k Key) After(other Key) bool  { return k.Compare(other) > 0 }
func (k Key) Equal(other Key) bool  { return k == other }

// DaysUntil counts calendar days from k to other (negative if other is
// earlier). Computed on UTC noon so offsets never leak in.
func (k Key) DaysUntil(other Key) int {
	a := time.Date(k.Year, k.Month, k.Day, 12, 0, 0, 0, time.UTC)
	b := time.Date(other.Year, other.Month, other.Day, 12, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// Weekday 요일
func (k Key) Weekday() time.Weekday {
	return time.Date(k.Year, k.Month, k.Day, 12, 0, 0, 0, time.UTC).Weekday()
}

// Start is the first instant of the day in loc. Usually local midnight, but
// where a DST jump skips midnight it is the first wall-clock time that exists.
func (k Key) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	midnight := time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, loc)
	if Of(midnight, loc) == k && Of(midnight.Add(-time.Second), loc).Before(k) {
		return midnight
	}

	// 자정이 없는 날: 정오 이전 36시간 안에서 날짜가 바뀌는 초를 이분 탐색
	noon := time.Date(k.Year, k.Month, k.Day, 12, 0, 0, 0, loc)
	lo, hi := noon.Add(-36*time.Hour).Unix(), noon.Unix()
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if Of(time.Unix(mid, 0), loc).Before(k) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return time.Unix(hi, 0).In(loc)
}

// End is the exclusive upper bound: midnight of the following day.
func (k Key) End(loc *time.Location) time.Time {
	return k.AddDays(1).Start(loc)
}

func (k Key) MarshalJSON() ([]byte, error) {
	if k.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(k.String())
}

func (k *Key) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*k = Key{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidKey, data)
	}
	if s == "" {
		*k = Key{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Value stores the key in a PostgreSQL date column.
func (k Key) Value() (driver.Value, error) {
	if k.IsZero() {
		return nil, nil
	}
	return k.String(), nil
}

// Scan accepts what drivers return for date columns.
func (k *Key) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*k = Key{}
		return nil
	case time.Time:
		// date 컬럼은 UTC 자정으로 스캔됨
		y, m, d := v.Date()
		*k = Key{Year: y, Month: m, Day: d}
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*k = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*k = parsed
		return nil
	default:
		return fmt.Errorf("%w: unsupported scan type %T", ErrInvalidKey, src)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
