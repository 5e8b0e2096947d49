package admin

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/unlisted-api/internal/middleware"
	"github.com/rajivgeraev/unlisted-api/internal/models"
)

// SetupRoutes настраивает маршруты панели администратора
func (s *AdminService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/admin")
	api.Use(middleware.AuthMiddleware(s.jwtService))
	api.Use(middleware.RequireRole(models.RoleAdmin))

	api.Get("/listings", s.GetListings)
	api.Post("/listings/:id/approve", s.ApproveListing)
	api.Post("/listings/:id/close", s.CloseListing)
	api.Get("/listings/:id/history", s.GetHistory)
	api.Get("/trades", s.GetTrades)
}
