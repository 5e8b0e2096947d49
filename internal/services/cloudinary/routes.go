package cloudinary

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/unlisted-api/internal/middleware"
	"github.com/rajivgeraev/unlisted-api/internal/models"
)

// SetupRoutes настраивает маршруты загрузки логотипов
func (s *CloudinaryService) SetupRoutes(app *fiber.App) {
	protected := app.Group("/api/admin/upload")
	protected.Use(middleware.AuthMiddleware(s.jwtService))
	protected.Use(middleware.RequireRole(models.RoleAdmin))

	// Маршрут для получения параметров загрузки
	protected.Get("/params", s.GenerateUploadParams)
}
