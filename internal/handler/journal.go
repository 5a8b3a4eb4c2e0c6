package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"journal-backend/internal/canvas"
	"journal-backend/internal/datekey"
	"journal-backend/internal/model"
	"journal-backend/internal/service"
	"journal-backend/internal/store"
)

// JournalHandler 저널/캔버스 핸들러
type JournalHandler struct {
	journal *service.JournalService
}

// NewJournalHandler JournalHandler 생성
func NewJournalHandler(journal *service.JournalService) *JournalHandler {
	return &JournalHandler{journal: journal}
}

// CreateEntryRequest 저널 생성 요청
type CreateEntryRequest struct {
	Date       string              `json:"date"`
	Text       *string             `json:"text"`
	Layers     []model.CanvasLayer `json:"layers"`
	Background *string             `json:"background"`
}

// SaveEntryRequest 저널 전체 저장 요청
type SaveEntryRequest struct {
	Text       *string             `json:"text"`
	Layers     []model.CanvasLayer `json:"layers"`
	Background *string             `json:"background"`
}

// DailyLogRequest 데일리 로그 요청
type DailyLogRequest struct {
	Text *string `json:"text"`
}

// ReorderRequest 레이어 순서 변경 요청 (아래 → 위)
type ReorderRequest struct {
	LayerIDs []string `json:"layer_ids"`
}

func entryResponse(c *fiber.Ctx, status int, entry *model.JournalEntry) error {
	return c.Status(status).JSON(fiber.Map{"entry": entry})
}

// ListEntries 저널 목록 (?start_date&end_date)
func (h *JournalHandler) ListEntries(c *fiber.Ctx) error {
	span, err := optionalSpan(c)
	if err != nil {
		return badRequest(c, "invalid date range")
	}

	entries, err := h.journal.ListEntries(c.UserContext(), userIDFrom(c), span)
	if err != nil {
		return respondError(c, err, "")
	}
	return c.JSON(fiber.Map{"entries": entries})
}

// GetEntry 날짜별 저널. 없으면 {"entry": null}
func (h *JournalHandler) GetEntry(c *fiber.Ctx) error {
	date, err := dateParam(c, "date")
	if err != nil {
		return badRequest(c, "invalid date")
	}

	entry, err := h.journal.GetEntry(c.UserContext(), userIDFrom(c), date)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(fiber.Map{"entry": nil})
	}
	if err != nil {
		return respondError(c, err, "")
	}
	return entryResponse(c, fiber.StatusOK, entry)
}

// CreateEntry 저널 생성 (같은 날짜가 있으면 409)
func (h *JournalHandler) CreateEntry(c *fiber.Ctx) error {
	var req CreateEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	date, err := datekey.Parse(req.Date)
	if err != nil {
		return badRequest(c, "invalid date")
	}

	entry, err := h.journal.CreateEntry(c.UserContext(), userIDFrom(c), service.EntryInput{
		Date:       date,
		Text:       req.Text,
		Layers:     req.Layers,
		Background: req.Background,
	})
	if errors.Is(err, store.ErrConflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Entry already exists for this date",
		})
	}
	if err != nil {
		return respondError(c, err, "")
	}
	return entryResponse(c, fiber.StatusCreated, entry)
}

// UpdateEntry 부분 수정 (없으면 404)
func (h *JournalHandler) UpdateEntry(c *fiber.Ctx) error {
	date, err := dateParam(c, "date")
	if err != nil {
		return badRequest(c, "invalid date")
	}
	var req service.EntryPatch
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	entry, err := h.journal.UpdateEntry(c.UserContext(), userIDFrom(c), date, req)
	if err != nil {
		return respondError(c, err, "Entry not found")
	}
	return entryResponse(c, fiber.StatusOK, entry)
}

// SaveEntry 전체 저장 (없으면 생성)
func (h *JournalHandler) SaveEntry(c *fiber.Ctx) error {
	date, err := dateParam(c, "date")
	if err != nil {
		return badRequest(c, "invalid date")
	}
	var req SaveEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	entry, err := h.journal.SaveEntry(c.UserContext(), userIDFrom(c), date, service.EntryInput{
		Date:       date,
		Text:       req.Text,
		Layers:     req.Layers,
		Background: req.Background,
	})
	if err != nil {
		return respondError(c, err, "")
	}
	return entryResponse(c, fiber.StatusOK, entry)
}

func (h *JournalHandler) DeleteEntry(c *fiber.Ctx) error {
	date, err := dateParam(c, "date")
	if err != nil {
		return badRequest(c, "invalid date")
	}

	if err := h.journal.DeleteEntry(c.UserContext(), userIDFrom(c), date); err != nil {
		return respondError(c, err, "Entry not found")
	}
	return c.JSON(fiber.Map{"message": "Entry deleted successfully"})
}

// UpdateDailyLog 데일리 로그 텍스트 저장 (없으면 엔트리 생성)
func (h *JournalHandler) UpdateDailyLog(c *fiber.Ctx) error {
	date, err := dateParam(c, "date")
	if err != nil {
		return badRequest(c, "invalid date")
	}
	var req DailyLogRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Text == nil {
		return badRequest(c, "text is required")
	}

	entry, err := h.journal.UpdateDailyLog(c.UserContext(), userIDFrom(c), date, *req.Text)
	if err != nil {
		return respondError(c, err, "")
	}
	return entryResponse(c, fiber.StatusOK, entry)
}

// ========== Canvas layers ==========

// AddLayer 레이어 추가 (최상단)
func (h *JournalHandler) AddLayer(c *fiber.Ctx) error {
	date, err := dateParam(c, "date")
	if err != nil {
		return badRequest(c, "invalid date")
	}
	var layer model.CanvasLayer
	if err := c.BodyParser(&layer); err != nil {
		return badRequest(c, "invalid request body")
	}

	entry, err := h.journal.AddLayer(c.UserContext(), userIDFrom(c), date, layer)
	if err != nil {
		return respondError(c, err, "")
	}
	return entryResponse(c, fiber.StatusCreated, entry)
}

func (h *JournalHandler) UpdateLayer(c *fiber.Ctx) error {
	date, err := dateParam(c, "date")
	if err != nil {
		return badRequest(c, "invalid date")
	}
	var patch canvas.LayerPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "invalid request body")
	}

	entry, err := h.journal.UpdateLayer(c.UserContext(), userIDFrom(c), date, c.Params("layerId"), patch)
	if err != nil {
		return respondError(c, err, layerNotFound(err))
	}
	return entryResponse(c, fiber.StatusOK, entry)
}

func (h *JournalHandler) DeleteLayer(c *fiber.Ctx) error {
	date, err := dateParam(c, "date")
	if err != nil {
		return badRequest(c, "invalid date")
	}

	entry, err := h.journal.DeleteLayer(c.UserContext(), userIDFrom(c), date, c.Params("layerId"))
	if err != nil {
		return respondError(c, err, layerNotFound(err))
	}
	return entryResponse(c, fiber.StatusOK, entry)
}

// ReorderLayers layer_ids 순서대로 zIndex 재배정
func (h *JournalHandler) ReorderLayers(c *fiber.Ctx) error {
	date, err := dateParam(c, "date")
	if err != nil {
		return badRequest(c, "invalid date")
	}
	var req ReorderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	entry, err := h.journal.ReorderLayers(c.UserContext(), userIDFrom(c), date, req.LayerIDs)
	if err != nil {
		return respondError(c, err, "Entry not found")
	}
	return entryResponse(c, fiber.StatusOK, entry)
}

// ClearCanvas 모든 레이어 삭제
func (h *JournalHandler) ClearCanvas(c *fiber.Ctx) error {
	date, err := dateParam(c, "date")
	if err != nil {
		return badRequest(c, "invalid date")
	}

	entry, err := h.journal.ClearCanvas(c.UserContext(), userIDFrom(c), date)
	if err != nil {
		return respondError(c, err, "Entry not found")
	}
	return entryResponse(c, fiber.StatusOK, entry)
}

func layerNotFound(err error) string {
	if errors.Is(err, canvas.ErrLayerNotFound) {
		return "Layer not found"
	}
	return "Entry not found"
}
