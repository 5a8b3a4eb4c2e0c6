package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"journal-backend/internal/datekey"
	"journal-backend/internal/service"
)

// CalendarHandler 캘린더 핸들러 (이벤트 CRUD + 일/주/월 집계)
type CalendarHandler struct {
	calendar *service.CalendarService
	defaults Calendar
}

// NewCalendarHandler CalendarHandler 생성
func NewCalendarHandler(calendar *service.CalendarService, defaults Calendar) *CalendarHandler {
	return &CalendarHandler{calendar: calendar, defaults: defaults}
}

// CreateEventRequest 이벤트 생성 요청
//
// date/start_time/end_time accept RFC3339, a zone-less timestamp or a bare
// date, read in the request time zone.
type CreateEventRequest struct {
	Title           string   `json:"title"`
	Description     *string  `json:"description"`
	Date            string   `json:"date"`
	StartTime       *string  `json:"start_time"`
	EndTime         *string  `json:"end_time"`
	Color           string   `json:"color"`
	SyncedCalendars []string `json:"synced_calendars"`
	NotionPageID    *string  `json:"notion_page_id"`
}

// UpdateEventRequest 이벤트 수정 요청 (생략된 필드는 유지)
type UpdateEventRequest struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Date            *string   `json:"date"`
	StartTime       *string   `json:"start_time"`
	EndTime         *string   `json:"end_time"`
	Color           *string   `json:"color"`
	SyncedCalendars *[]string `json:"synced_calendars"`
	NotionPageID    *string   `json:"notion_page_id"`
}

// ListEvents 이벤트 목록 (?start_date&end_date)
func (h *CalendarHandler) ListEvents(c *fiber.Ctx) error {
	loc, err := h.defaults.location(c)
	if err != nil {
		return badRequest(c, "invalid timezone")
	}
	span, err := optionalSpan(c)
	if err != nil {
		return badRequest(c, "invalid date range")
	}
	if span == nil {
		span = &datekey.Span{Start: minKey, End: maxKey}
	}

	events, err := h.calendar.ListEvents(c.UserContext(), userIDFrom(c), *span, loc)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(fiber.Map{
		"events": events,
		"total":  len(events),
	})
}

// EventsForDate 특정 날짜의 이벤트
func (h *CalendarHandler) EventsForDate(c *fiber.Ctx) error {
	loc, err := h.defaults.location(c)
	if err != nil {
		return badRequest(c, "invalid timezone")
	}
	date, err := dateParam(c, "date")
	if err != nil {
		return badRequest(c, "invalid date")
	}

	events, err := h.calendar.EventsForDate(c.UserContext(), userIDFrom(c), date, loc)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(fiber.Map{"events": events})
}

// CreateEvent 이벤트 생성
func (h *CalendarHandler) CreateEvent(c *fiber.Ctx) error {
	loc, err := h.defaults.location(c)
	if err != nil {
		return badRequest(c, "invalid timezone")
	}

	var req CreateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	in := service.EventInput{
		Title:           sanitizeString(req.Title),
		Description:     req.Description,
		Color:           req.Color,
		SyncedCalendars: req.SyncedCalendars,
		NotionPageID:    req.NotionPageID,
	}
	if req.Date != "" {
		if in.Date, err = parseTimestamp(req.Date, loc); err != nil {
			return badRequest(c, "invalid date format")
		}
	}
	if in.StartTime, err = parseOptionalTimestamp(req.StartTime, loc); err != nil {
		return badRequest(c, "invalid start_time format")
	}
	if in.EndTime, err = parseOptionalTimestamp(req.EndTime, loc); err != nil {
		return badRequest(c, "invalid end_time format")
	}

	event, err := h.calendar.CreateEvent(c.UserContext(), userIDFrom(c), in)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"event": event})
}

func (h *CalendarHandler) GetEvent(c *fiber.Ctx) error {
	event, err := h.calendar.GetEvent(c.UserContext(), userIDFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "event not found")
	}
	return c.JSON(fiber.Map{"event": event})
}

// UpdateEvent 이벤트 수정
func (h *CalendarHandler) UpdateEvent(c *fiber.Ctx) error {
	loc, err := h.defaults.location(c)
	if err != nil {
		return badRequest(c, "invalid timezone")
	}

	var req UpdateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	patch := service.EventPatch{
		Title:           sanitizePtr(req.Title),
		Description:     req.Description,
		Color:           req.Color,
		SyncedCalendars: req.SyncedCalendars,
		NotionPageID:    req.NotionPageID,
	}
	if patch.Date, err = parseOptionalTimestamp(req.Date, loc); err != nil {
		return badRequest(c, "invalid date format")
	}
	if patch.StartTime, err = parseOptionalTimestamp(req.StartTime, loc); err != nil {
		return badRequest(c, "invalid start_time format")
	}
	if patch.EndTime, err = parseOptionalTimestamp(req.EndTime, loc); err != nil {
		return badRequest(c, "invalid end_time format")
	}

	event, err := h.calendar.UpdateEvent(c.UserContext(), userIDFrom(c), c.Params("id"), patch)
	if err != nil {
		return respondError(c, err, "event not found")
	}
	return c.JSON(fiber.Map{"event": event})
}

// DeleteEvent 이벤트 삭제
func (h *CalendarHandler) DeleteEvent(c *fiber.Ctx) error {
	if err := h.calendar.DeleteEvent(c.UserContext(), userIDFrom(c), c.Params("id")); err != nil {
		return respondError(c, err, "event not found")
	}
	return c.JSON(fiber.Map{"message": "Event deleted successfully"})
}

// ========== Views ==========

// GetDay 하루 요약
func (h *CalendarHandler) GetDay(c *fiber.Ctx) error {
	loc, err := h.defaults.location(c)
	if err != nil {
		return badRequest(c, "invalid timezone")
	}
	date, err := dateParam(c, "date")
	if err != nil {
		return badRequest(c, "invalid date")
	}

	return c.JSON(h.calendar.Day(c.UserContext(), userIDFrom(c), date, loc))
}

// GetWeek date가 속한 주의 요약
func (h *CalendarHandler) GetWeek(c *fiber.Ctx) error {
	loc, weekStart, err := h.view(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	date, err := dateParam(c, "date")
	if err != nil {
		return badRequest(c, "invalid date")
	}

	days := h.calendar.Week(c.UserContext(), userIDFrom(c), date, weekStart, loc)
	return c.JSON(fiber.Map{"days": days})
}

// GetMonth 월 그리드 (앞뒤 주 포함)
func (h *CalendarHandler) GetMonth(c *fiber.Ctx) error {
	loc, weekStart, err := h.view(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil || year < 1 || year > 9999 {
		return badRequest(c, "invalid year")
	}
	month, err := strconv.Atoi(c.Params("month"))
	if err != nil || month < 1 || month > 12 {
		return badRequest(c, "invalid month")
	}

	days := h.calendar.Month(c.UserContext(), userIDFrom(c), year, time.Month(month), weekStart, loc)
	return c.JSON(fiber.Map{"days": days})
}

// GetRange 임의 구간 요약 (?start_date&end_date)
func (h *CalendarHandler) GetRange(c *fiber.Ctx) error {
	loc, err := h.defaults.location(c)
	if err != nil {
		return badRequest(c, "invalid timezone")
	}
	span, err := requiredSpan(c)
	if err != nil {
		return badRequest(c, "start_date and end_date are required (YYYY-MM-DD, end >= start)")
	}

	days, err := h.calendar.Range(c.UserContext(), userIDFrom(c), span, loc)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(fiber.Map{"days": days})
}

func (h *CalendarHandler) view(c *fiber.Ctx) (*time.Location, time.Weekday, error) {
	loc, err := h.defaults.location(c)
	if err != nil {
		return nil, 0, errInvalidTimezone
	}
	weekStart, err := h.defaults.weekStart(c)
	if err != nil {
		return nil, 0, errInvalidWeekStart
	}
	return loc, weekStart, nil
}
