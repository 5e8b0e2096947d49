package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/unlisted-api/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(app *fiber.App) {
	app.Post("/api/auth/telegram", s.TelegramAuthHandler)
	app.Post("/api/auth/demo", s.DemoAuthHandler)

	// Защищенные маршруты
	profile := app.Group("/api/profile")
	profile.Use(middleware.AuthMiddleware(s.jwtService))
	profile.Get("/", s.ProfileHandler)
}
