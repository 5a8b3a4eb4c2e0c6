package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"journal-backend/internal/store"
)

// UserHandler 유저 핸들러
type UserHandler struct {
	store store.Store
}

// NewUserHandler UserHandler 생성
func NewUserHandler(st store.Store) *UserHandler {
	return &UserHandler{store: st}
}

// UpdateUserRequest 프로필 수정 요청
type UpdateUserRequest struct {
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
}

// UpdateMe 내 프로필 수정
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	user, err := h.store.GetUser(c.UserContext(), userIDFrom(c))
	if err != nil {
		return respondError(c, err, "user not found")
	}

	if req.Username != nil {
		username := sanitizeString(*req.Username)
		if username == "" || len(username) > 100 {
			return badRequest(c, "username is required (max 100 characters)")
		}
		user.Username = username
	}
	if req.FullName != nil {
		user.FullName = sanitizePtr(req.FullName)
		if *user.FullName == "" {
			user.FullName = nil
		}
	}

	if err := h.store.UpdateUser(c.UserContext(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "username already taken",
			})
		}
		return respondError(c, err, "user not found")
	}
	return c.JSON(toUserResponse(user))
}
