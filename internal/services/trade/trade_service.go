package trade

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/db"
	"github.com/rajivgeraev/unlisted-api/internal/httperr"
	"github.com/rajivgeraev/unlisted-api/internal/market"
	"github.com/rajivgeraev/unlisted-api/internal/middleware"
	"github.com/rajivgeraev/unlisted-api/internal/models"
	"github.com/rajivgeraev/unlisted-api/internal/utils"
)

// TradeService представляет сервис для просмотра сделок
type TradeService struct {
	market     *market.Market
	jwtService *utils.JWTService
	log        *zap.Logger
}

// NewTradeService создает новый экземпляр TradeService
func NewTradeService(m *market.Market, jwtService *utils.JWTService, log *zap.Logger) *TradeService {
	return &TradeService{market: m, jwtService: jwtService, log: log}
}

// GetMyTrades возвращает сделки, в которых пользователь покупатель или продавец
func (s *TradeService) GetMyTrades(c fiber.Ctx) error {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	status := models.TradeStatus(c.Query("status"))

	ctx, cancel := db.GetContext()
	defer cancel()

	// Фильтр по пользователю применяется и для администратора
	trades, err := s.market.Trades(ctx, market.Actor{ID: userID, Role: models.RoleUser}, status)
	if err != nil {
		return httperr.Respond(c, s.log, err)
	}
	return c.JSON(fiber.Map{
		"trades": trades,
		"total":  len(trades),
	})
}
