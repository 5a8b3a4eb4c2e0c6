package handler

import "github.com/gofiber/fiber/v2"

// SyncHandler 외부 캘린더 동기화 (미구현 자리표시자)
type SyncHandler struct{}

func NewSyncHandler() *SyncHandler {
	return &SyncHandler{}
}

// SyncStatus 연동 상태
type SyncStatus struct {
	Enabled  bool    `json:"enabled"`
	LastSync *string `json:"last_sync"`
}

// Status 모든 연동 서비스 상태
func (h *SyncHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"notion":          SyncStatus{},
		"google_calendar": SyncStatus{},
		"apple_calendar":  SyncStatus{},
	})
}

// NotImplemented POST /sync/notion, /sync/google-calendar, /sync/apple-calendar
func (h *SyncHandler) NotImplemented(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
		"message": "Endpoint not yet implemented",
	})
}
