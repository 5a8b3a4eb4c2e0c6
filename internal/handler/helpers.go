package handler

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gofiber/fiber/v2"

	"journal-backend/internal/datekey"
	"journal-backend/internal/service"
	"journal-backend/internal/store"
)

const maxTextLength = 500

var (
	errInvalidTimezone  = errors.New("invalid timezone")
	errInvalidWeekStart = errors.New("invalid week_start")
)

// Calendar 요청별 날짜 계산 기본값
type Calendar struct {
	Location  *time.Location
	WeekStart time.Weekday
}

// location resolves the request time zone from ?tz= or X-Timezone, falling
// back to the configured zone.
func (d Calendar) location(c *fiber.Ctx) (*time.Location, error) {
	name := c.Query("tz")
	if name == "" {
		name = c.Get("X-Timezone")
	}
	if name == "" {
		if d.Location == nil {
			return time.Local, nil
		}
		return d.Location, nil
	}
	return datekey.LoadLocation(name)
}

func (d Calendar) weekStart(c *fiber.Ctx) (time.Weekday, error) {
	if s := c.Query("week_start"); s != "" {
		return datekey.ParseWeekday(s)
	}
	return d.WeekStart, nil
}

func userIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

// respondError maps service and store errors to status codes. notFound is
// the message used for store.ErrNotFound.
func respondError(c *fiber.Ctx, err error, notFound string) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return badRequest(c, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": notFound,
		})
	case errors.Is(err, store.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "already exists",
		})
	default:
		log.Printf("❌ [API] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}

func dateParam(c *fiber.Ctx, name string) (datekey.Key, error) {
	return datekey.Parse(c.Params(name))
}

var (
	minKey = datekey.New(1970, time.January, 1)
	maxKey = datekey.New(9999, time.December, 31)
)

// optionalSpan reads start_date/end_date. Nil when both are absent; a
// missing side is open-ended.
func optionalSpan(c *fiber.Ctx) (*datekey.Span, error) {
	start, end := c.Query("start_date"), c.Query("end_date")
	if start == "" && end == "" {
		return nil, nil
	}

	span := datekey.Span{Start: minKey, End: maxKey}
	var err error
	if start != "" {
		if span.Start, err = datekey.Parse(start); err != nil {
			return nil, err
		}
	}
	if end != "" {
		if span.End, err = datekey.Parse(end); err != nil {
			return nil, err
		}
	}
	if span, err = datekey.NewSpan(span.Start, span.End); err != nil {
		return nil, err
	}
	return &span, nil
}

// requiredSpan reads start_date and end_date, both mandatory.
func requiredSpan(c *fiber.Ctx) (datekey.Span, error) {
	start, err := datekey.Parse(c.Query("start_date"))
	if err != nil {
		return datekey.Span{}, err
	}
	end, err := datekey.Parse(c.Query("end_date"))
	if err != nil {
		return datekey.Span{}, err
	}
	return datekey.NewSpan(start, end)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// parseTimestamp accepts RFC3339, zone-less ISO timestamps (read in loc) and
// bare dates (local midnight in loc).
func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range timestampLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	k, err := datekey.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return k.Start(loc), nil
}

func parseOptionalTimestamp(s *string, loc *time.Location) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := parseTimestamp(*s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryBool(c *fiber.Ctx, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

// sanitizeString trims, drops control characters and caps the length.
func sanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if runes := []rune(s); len(runes) > maxTextLength {
		s = string(runes[:maxTextLength])
	}
	return s
}

func sanitizePtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := sanitizeString(*p)
	return &s
}
