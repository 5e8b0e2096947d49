package trade

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/unlisted-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API сделок
func (s *TradeService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/trades")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/", s.GetMyTrades)
}
