package handler

import (
	"github.com/gofiber/fiber/v2"

	"journal-backend/internal/datekey"
	"journal-backend/internal/service"
)

// HabitHandler 습관 핸들러
type HabitHandler struct {
	habits   *service.HabitService
	calendar Calendar
}

// NewHabitHandler HabitHandler 생성
func NewHabitHandler(habits *service.HabitService, calendar Calendar) *HabitHandler {
	return &HabitHandler{habits: habits, calendar: calendar}
}

// CheckRequest 체크 저장 요청. completed 생략 시 true
type CheckRequest struct {
	HabitID   string `json:"habit_id"`
	Date      string `json:"date"`
	Completed *bool  `json:"completed"`
}

// ListHabits 습관 목록 (?active_only=true)
func (h *HabitHandler) ListHabits(c *fiber.Ctx) error {
	habits, err := h.habits.ListHabits(c.UserContext(), userIDFrom(c), queryBool(c, "active_only"))
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(fiber.Map{"habits": habits})
}

// CreateHabit 습관 생성
func (h *HabitHandler) CreateHabit(c *fiber.Ctx) error {
	var req service.HabitInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Name = sanitizeString(req.Name)

	habit, err := h.habits.CreateHabit(c.UserContext(), userIDFrom(c), req)
	if err != nil {
		return respondError(c, err, "habit not found")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"habit": habit})
}

func (h *HabitHandler) GetHabit(c *fiber.Ctx) error {
	habit, err := h.habits.GetHabit(c.UserContext(), userIDFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "habit not found")
	}
	return c.JSON(fiber.Map{"habit": habit})
}

func (h *HabitHandler) UpdateHabit(c *fiber.Ctx) error {
	var req service.HabitPatch
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Name = sanitizePtr(req.Name)

	habit, err := h.habits.UpdateHabit(c.UserContext(), userIDFrom(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, err, "habit not found")
	}
	return c.JSON(fiber.Map{"habit": habit})
}

func (h *HabitHandler) DeleteHabit(c *fiber.Ctx) error {
	if err := h.habits.DeleteHabit(c.UserContext(), userIDFrom(c), c.Params("id")); err != nil {
		return respondError(c, err, "habit not found")
	}
	return c.JSON(fiber.Map{"message": "Habit deleted successfully"})
}

// SaveCheck 날짜별 체크 저장 (upsert)
func (h *HabitHandler) SaveCheck(c *fiber.Ctx) error {
	var req CheckRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.HabitID == "" {
		return badRequest(c, "habit_id is required")
	}
	date, err := datekey.Parse(req.Date)
	if err != nil {
		return badRequest(c, "invalid date")
	}
	loc, err := h.calendar.location(c)
	if err != nil {
		return badRequest(c, "invalid timezone")
	}

	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	result, err := h.habits.SaveCheck(c.UserContext(), userIDFrom(c), req.HabitID, date, completed, loc)
	if err != nil {
		return respondError(c, err, "habit not found")
	}
	return c.JSON(result)
}

// ToggleCheck 체크 상태 반전 (서버 상태 기준)
func (h *HabitHandler) ToggleCheck(c *fiber.Ctx) error {
	var req CheckRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.HabitID == "" {
		return badRequest(c, "habit_id is required")
	}
	date, err := datekey.Parse(req.Date)
	if err != nil {
		return badRequest(c, "invalid date")
	}
	loc, err := h.calendar.location(c)
	if err != nil {
		return badRequest(c, "invalid timezone")
	}

	result, err := h.habits.ToggleCheck(c.UserContext(), userIDFrom(c), req.HabitID, date, loc)
	if err != nil {
		return respondError(c, err, "habit not found")
	}
	return c.JSON(result)
}

// ChecksForHabit 습관별 체크 (?start_date&end_date)
func (h *HabitHandler) ChecksForHabit(c *fiber.Ctx) error {
	span, err := optionalSpan(c)
	if err != nil {
		return badRequest(c, "invalid date range")
	}

	checks, err := h.habits.ChecksForHabit(c.UserContext(), userIDFrom(c), c.Params("id"), span)
	if err != nil {
		return respondError(c, err, "habit not found")
	}
	return c.JSON(fiber.Map{"checks": checks})
}

// ChecksForDate 특정 날짜의 모든 체크
func (h *HabitHandler) ChecksForDate(c *fiber.Ctx) error {
	date, err := dateParam(c, "date")
	if err != nil {
		return badRequest(c, "invalid date")
	}

	checks, err := h.habits.ChecksForDate(c.UserContext(), userIDFrom(c), date)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(fiber.Map{"checks": checks})
}

func (h *HabitHandler) GetStreak(c *fiber.Ctx) error {
	loc, err := h.calendar.location(c)
	if err != nil {
		return badRequest(c, "invalid timezone")
	}

	st, err := h.habits.Streak(c.UserContext(), userIDFrom(c), c.Params("id"), loc)
	if err != nil {
		return respondError(c, err, "habit not found")
	}
	return c.JSON(st)
}

func (h *HabitHandler) ListStreaks(c *fiber.Ctx) error {
	loc, err := h.calendar.location(c)
	if err != nil {
		return badRequest(c, "invalid timezone")
	}

	streaks, err := h.habits.Streaks(c.UserContext(), userIDFrom(c), loc)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(fiber.Map{"streaks": streaks})
}
