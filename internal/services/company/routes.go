package company

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/unlisted-api/internal/middleware"
	"github.com/rajivgeraev/unlisted-api/internal/models"
)

// SetupPublicRoutes настраивает публичные маршруты справочника
func (s *CompanyService) SetupPublicRoutes(app *fiber.App) {
	app.Get("/api/companies", s.Search)
	app.Get("/api/companies/:isin", s.Get)
}

// SetupRoutes настраивает маршруты администрирования справочника
func (s *CompanyService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/admin/companies")
	api.Use(middleware.AuthMiddleware(s.jwtService))
	api.Use(middleware.RequireRole(models.RoleAdmin))

	api.Put("/:isin", s.Upsert)
	api.Delete("/:isin", s.Delete)
}
