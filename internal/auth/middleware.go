package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var ErrNoClaims = errors.New("no claims in context")

// tokenFromRequest reads a Bearer header, then the access_token cookie, then
// (for websocket upgrades) the token query parameter.
func tokenFromRequest(c *fiber.Ctx, allowQuery bool) (string, error) {
	if header := c.Get("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return "", errors.New("invalid authorization header format")
		}
		return parts[1], nil
	}
	if cookie := c.Cookies("access_token"); cookie != "" {
		return cookie, nil
	}
	if allowQuery {
		if q := c.Query("token"); q != "" {
			return q, nil
		}
	}
	return "", errors.New("missing authorization token")
}

func authenticate(jwtManager *JWTManager, allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := tokenFromRequest(c, allowQuery)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		// 토큰 검증
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "token expired",
					"code":  "TOKEN_EXPIRED",
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		// 사용자 정보를 컨텍스트에 저장
		c.Locals("userID", claims.UserID)
		c.Locals("claims", claims)

		return c.Next()
	}
}

// AuthMiddleware JWT 인증 미들웨어
func AuthMiddleware(jwtManager *JWTManager) fiber.Handler {
	return authenticate(jwtManager, false)
}

// WebSocketAuthMiddleware also accepts ?token= since browsers cannot set
// headers on websocket upgrades.
func WebSocketAuthMiddleware(jwtManager *JWTManager) fiber.Handler {
	return authenticate(jwtManager, true)
}

// GetClaimsFromContext 컨텍스트에서 클레임 조회
func GetClaimsFromContext(c *fiber.Ctx) (*Claims, error) {
	claims, ok := c.Locals("claims").(*Claims)
	if !ok || claims == nil {
		return nil, ErrNoClaims
	}
	return claims, nil
}
