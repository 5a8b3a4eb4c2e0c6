package handler

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"journal-backend/internal/datekey"
	"journal-backend/internal/media"
)

// Uploader is the object storage used for image layers.
type Uploader interface {
	GenerateUploadURL(ctx context.Context, userID string, date datekey.Key, contentType string) (*media.PresignedURL, error)
	GetFileURL(ctx context.Context, userID, key string) (string, error)
	DeleteFile(ctx context.Context, userID, key string) error
}

// UploadHandler 이미지 업로드 핸들러 (S3 Presigned URL)
type UploadHandler struct {
	uploader Uploader
}

// NewUploadHandler UploadHandler 생성. uploader가 nil이면 503 응답
func NewUploadHandler(uploader Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// PresignRequest 업로드 URL 요청
type PresignRequest struct {
	ContentType string `json:"content_type"`
	Date        string `json:"date"`
}

func (h *UploadHandler) unavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "file storage is not configured",
	})
}

// Presign 업로드용 Presigned PUT URL 발급
func (h *UploadHandler) Presign(c *fiber.Ctx) error {
	if h.uploader == nil {
		return h.unavailable(c)
	}

	var req PresignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	date, err := datekey.Parse(req.Date)
	if err != nil {
		return badRequest(c, "invalid date")
	}

	url, err := h.uploader.GenerateUploadURL(c.UserContext(), userIDFrom(c), date, req.ContentType)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedType) {
			return badRequest(c, "unsupported content_type (jpeg, png, gif, webp, heic)")
		}
		log.Printf("❌ [Upload] presign failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to generate upload url",
		})
	}
	return c.JSON(url)
}

// GetFileURL 다운로드용 Presigned GET URL (?key=)
func (h *UploadHandler) GetFileURL(c *fiber.Ctx) error {
	if h.uploader == nil {
		return h.unavailable(c)
	}
	key := c.Query("key")
	if key == "" {
		return badRequest(c, "key is required")
	}

	url, err := h.uploader.GetFileURL(c.UserContext(), userIDFrom(c), key)
	if err != nil {
		return h.keyError(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// DeleteFile 업로드된 이미지 삭제 (?key=)
func (h *UploadHandler) DeleteFile(c *fiber.Ctx) error {
	if h.uploader == nil {
		return h.unavailable(c)
	}
	key := c.Query("key")
	if key == "" {
		return badRequest(c, "key is required")
	}

	if err := h.uploader.DeleteFile(c.UserContext(), userIDFrom(c), key); err != nil {
		return h.keyError(c, err)
	}
	return c.JSON(fiber.Map{"message": "File deleted successfully"})
}

func (h *UploadHandler) keyError(c *fiber.Ctx, err error) error {
	if errors.Is(err, media.ErrForeignKey) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "access denied",
		})
	}
	log.Printf("❌ [Upload] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "storage request failed",
	})
}
