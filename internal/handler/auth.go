package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"journal-backend/internal/auth"
	"journal-backend/internal/model"
	"journal-backend/internal/store"
)

// AuthHandler 인증 핸들러
type AuthHandler struct {
	store        store.Store
	jwtManager   *auth.JWTManager
	googleAuth   *auth.GoogleAuthenticator
	secureCookie bool
}

// NewAuthHandler AuthHandler 생성
func NewAuthHandler(st store.Store, jwtManager *auth.JWTManager, googleAuth *auth.GoogleAuthenticator, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		store:        st,
		jwtManager:   jwtManager,
		googleAuth:   googleAuth,
		secureCookie: secureCookie,
	}
}

// RegisterRequest 회원가입 요청
type RegisterRequest struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

// LoginRequest 로그인 요청 (username 자리에 이메일도 허용)
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// GoogleLoginRequest Google 로그인 요청
type GoogleLoginRequest struct {
	IDToken string `json:"id_token"`
}

// AuthResponse 인증 응답
type AuthResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
}

// UserResponse 사용자 응답
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  *string   `json:"full_name,omitempty"`
	Provider  *string   `json:"provider,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		Provider:  u.Provider,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// Register 이메일/비밀번호 회원가입
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = sanitizeString(req.Username)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return badRequest(c, "invalid email")
	}
	if req.Username == "" || len(req.Username) > 100 {
		return badRequest(c, "username is required (max 100 characters)")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return badRequest(c, err.Error())
		}
		return respondError(c, err, "")
	}

	provider := string(model.ProviderLocal)
	user := model.User{
		Email:        req.Email,
		Username:     req.Username,
		FullName:     sanitizePtr(req.FullName),
		PasswordHash: &hash,
		Provider:     &provider,
		IsActive:     true,
	}
	if err := h.store.CreateUser(c.UserContext(), &user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "email or username already registered",
			})
		}
		return respondError(c, err, "")
	}

	log.Printf("👤 [Auth] registered user %s", user.ID)
	return h.issueTokens(c, fiber.StatusCreated, &user)
}

// Login OAuth2 form 방식 로그인 (application/x-www-form-urlencoded)
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	return h.login(c, req)
}

// LoginJSON JSON 본문 로그인
func (h *AuthHandler) LoginJSON(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	return h.login(c, req)
}

func (h *AuthHandler) login(c *fiber.Ctx, req LoginRequest) error {
	if req.Username == "" || req.Password == "" {
		return badRequest(c, "username and password are required")
	}

	user, err := h.findAccount(c.UserContext(), strings.TrimSpace(req.Username))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return respondError(c, err, "")
	}
	// 계정 존재 여부를 노출하지 않음
	if user == nil || user.PasswordHash == nil || !auth.CheckPassword(*user.PasswordHash, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "incorrect username or password",
		})
	}
	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "inactive user",
		})
	}

	return h.issueTokens(c, fiber.StatusOK, user)
}

func (h *AuthHandler) findAccount(ctx context.Context, login string) (*model.User, error) {
	user, err := h.store.GetUserByUsername(ctx, login)
	if err == nil || !errors.Is(err, store.ErrNotFound) || !strings.Contains(login, "@") {
		return user, err
	}
	return h.store.GetUserByEmail(ctx, strings.ToLower(login))
}

// GoogleLogin Google OAuth 로그인
func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	if !h.googleAuth.Enabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "google login is not configured",
		})
	}

	var req GoogleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.IDToken == "" {
		return badRequest(c, "id_token is required")
	}

	// Google ID Token 검증
	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()

	googleUser, err := h.googleAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid google token",
		})
	}

	provider := string(model.ProviderGoogle)
	user, err := h.store.GetUserByEmail(ctx, strings.ToLower(googleUser.Email))
	switch {
	case errors.Is(err, store.ErrNotFound):
		// 신규 사용자 생성
		user = &model.User{
			Email:      strings.ToLower(googleUser.Email),
			Username:   usernameFromEmail(googleUser.Email),
			Provider:   &provider,
			ProviderID: &googleUser.ID,
			IsActive:   true,
		}
		if googleUser.Name != "" {
			user.FullName = &googleUser.Name
		}
		if err := h.store.CreateUser(ctx, user); err != nil {
			if !errors.Is(err, store.ErrConflict) {
				return respondError(c, err, "")
			}
			// username 충돌 시 접미사를 붙여 한 번 더 시도
			user.ID = ""
			user.Username = fmt.Sprintf("%s-%s", user.Username, uuid.NewString()[:6])
			if err := h.store.CreateUser(ctx, user); err != nil {
				return respondError(c, err, "")
			}
		}
	case err != nil:
		return respondError(c, err, "")
	default:
		// local → google 전환
		if user.ProviderID == nil || *user.ProviderID != googleUser.ID {
			user.Provider = &provider
			user.ProviderID = &googleUser.ID
			if err := h.store.UpdateUser(ctx, user); err != nil {
				log.Printf("⚠️ [Auth] failed to link google account for %s: %v", user.ID, err)
			}
		}
	}

	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "inactive user",
		})
	}
	return h.issueTokens(c, fiber.StatusOK, user)
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		local = "user"
	}
	if len(local) > 90 {
		local = local[:90]
	}
	return strings.ToLower(local)
}

// issueTokens 액세스/리프레시 토큰 발급 후 쿠키 설정
func (h *AuthHandler) issueTokens(c *fiber.Ctx, status int, user *model.User) error {
	accessToken, err := h.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to generate token",
		})
	}

	refreshToken, err := h.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to generate refresh token",
		})
	}

	h.setAccessCookie(c, accessToken)
	// HTTP-Only 쿠키로 리프레시 토큰 설정
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(h.jwtManager.RefreshExpiry().Seconds()),
		Secure:   h.secureCookie,
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.Status(status).JSON(AuthResponse{
		User:        toUserResponse(user),
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.jwtManager.AccessExpiry().Seconds()),
	})
}

func (h *AuthHandler) setAccessCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.jwtManager.AccessExpiry().Seconds()),
		Secure:   h.secureCookie,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func (h *AuthHandler) clearCookies(c *fiber.Ctx) {
	for _, name := range []string{"access_token", "refresh_token"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Secure:   h.secureCookie,
			HTTPOnly: true,
		})
	}
}

// RefreshToken 토큰 갱신
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := c.Cookies("refresh_token")
	if refreshToken == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "refresh token not found",
		})
	}

	// 리프레시 토큰 검증
	userID, err := h.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		h.clearCookies(c)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid or expired refresh token",
		})
	}

	user, err := h.store.GetUser(c.UserContext(), userID)
	if err != nil || !user.IsActive {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "user not found",
		})
	}

	// 새 액세스 토큰 발급
	accessToken, err := h.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to generate token",
		})
	}
	h.setAccessCookie(c, accessToken)

	return c.JSON(fiber.Map{
		"access_token": accessToken,
		"token_type":   "bearer",
		"expires_in":   int64(h.jwtManager.AccessExpiry().Seconds()),
	})
}

// Logout 로그아웃
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.clearCookies(c)
	return c.JSON(fiber.Map{
		"message": "logged out successfully",
	})
}

// GetMe 현재 사용자 정보
func (h *AuthHandler) GetMe(c *fiber.Ctx) error {
	claims, err := auth.GetClaimsFromContext(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized",
		})
	}

	user, err := h.store.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, err, "user not found")
	}
	return c.JSON(toUserResponse(user))
}
