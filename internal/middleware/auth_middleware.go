package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/unlisted-api/internal/models"
	"github.com/rajivgeraev/unlisted-api/internal/utils"
)

const (
	localUserID = "userID"
	localRole   = "role"
)

// AuthMiddleware создаёт middleware для проверки JWT
func AuthMiddleware(jwtService *utils.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		// Проверяем Bearer токен
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		// Проверяем, что userID является валидным UUID
		if _, err = uuid.Parse(claims.UserID); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid user ID",
			})
		}

		role := models.Role(claims.Role)
		if !models.ValidRole(role) {
			role = models.RoleUser
		}

		// Добавляем userID и роль в контекст
		c.Locals(localUserID, claims.UserID)
		c.Locals(localRole, string(role))

		return c.Next()
	}
}

// RequireRole пропускает только пользователей с указанной ролью.
// Должен стоять после AuthMiddleware.
func RequireRole(role models.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		current, _ := c.Locals(localRole).(string)
		if models.Role(current) != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		return c.Next()
	}
}

// CurrentUser возвращает ID и роль пользователя, установленные AuthMiddleware
func CurrentUser(c fiber.Ctx) (uuid.UUID, models.Role, bool) {
	raw, _ := c.Locals(localUserID).(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", false
	}
	role, _ := c.Locals(localRole).(string)
	return id, models.Role(role), true
}
