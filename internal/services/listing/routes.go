package listing

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/unlisted-api/internal/middleware"
	"github.com/rajivgeraev/unlisted-api/internal/models"
)

// basePath возвращает префикс маршрутов для стороны рынка
func (s *ListingService) basePath() string {
	if s.kind == models.KindBuy {
		return "/api/requests"
	}
	return "/api/listings"
}

// bidSegments сегменты пути ставок. У запросов ставки называются предложениями.
func (s *ListingService) bidSegments() []string {
	if s.kind == models.KindBuy {
		return []string{"offers", "bids"}
	}
	return []string{"bids"}
}

// SetupPublicRoutes настраивает публичные маршруты.
// Должен вызываться до SetupRoutes.
func (s *ListingService) SetupPublicRoutes(app *fiber.App) {
	app.Get(s.basePath(), s.GetPublicListings)
}

// SetupRoutes настраивает маршруты для API объявлений
func (s *ListingService) SetupRoutes(app *fiber.App) {
	api := app.Group(s.basePath())

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/", s.CreateListing)
	api.Get("/my", s.GetMyListings)
	api.Get("/:id", s.GetListing)

	for _, seg := range s.bidSegments() {
		api.Post("/:id/"+seg, s.PlaceBid)
		api.Post("/:id/"+seg+"/:bidId/accept", s.AcceptBid)
		api.Post("/:id/"+seg+"/:bidId/counter", s.CounterOffer)
		api.Post("/:id/"+seg+"/:bidId/counter/accept", s.AcceptCounterOffer)
		api.Post("/:id/"+seg+"/:bidId/counter/reject", s.RejectCounterOffer)
	}
}
