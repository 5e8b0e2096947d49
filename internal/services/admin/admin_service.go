package admin

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/db"
	"github.com/rajivgeraev/unlisted-api/internal/httperr"
	"github.com/rajivgeraev/unlisted-api/internal/market"
	"github.com/rajivgeraev/unlisted-api/internal/middleware"
	"github.com/rajivgeraev/unlisted-api/internal/models"
	"github.com/rajivgeraev/unlisted-api/internal/services/listing"
	"github.com/rajivgeraev/unlisted-api/internal/store"
	"github.com/rajivgeraev/unlisted-api/internal/utils"
)

// AdminService панель администратора: очередь на одобрение, закрытие, журнал
type AdminService struct {
	market     *market.Market
	jwtService *utils.JWTService
	log        *zap.Logger
}

// NewAdminService создает новый экземпляр AdminService
func NewAdminService(m *market.Market, jwtService *utils.JWTService, log *zap.Logger) *AdminService {
	return &AdminService{market: m, jwtService: jwtService, log: log}
}

// GetListings возвращает объявления и запросы обеих сторон с фильтром по статусу и виду
func (s *AdminService) GetListings(c fiber.Ctx) error {
	status := models.ListingStatus(c.Query("status"))
	if status != "" && !models.ValidListingStatus(status) {
		return httperr.BadRequest(c, "Unknown status")
	}
	kind := models.ListingKind(c.Query("kind"))
	if kind != "" && !models.ValidListingKind(kind) {
		return httperr.BadRequest(c, "Unknown kind")
	}

	limit, offset := listing.Pagination(c)

	ctx, cancel := db.GetContext()
	defer cancel()

	items, total, err := s.market.List(ctx, store.ListingFilter{
		Kind:   kind,
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return httperr.Respond(c, s.log, err)
	}
	return c.JSON(fiber.Map{
		"listings": items,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// ApproveListing одобряет согласованную сделку
func (s *AdminService) ApproveListing(c fiber.Ctx) error {
	return s.transition(c, s.market.Approve)
}

// CloseListing закрывает объявление
func (s *AdminService) CloseListing(c fiber.Ctx) error {
	return s.transition(c, s.market.Close)
}

func (s *AdminService) transition(c fiber.Ctx, op func(ctx context.Context, actor market.Actor, id uuid.UUID) (*models.Listing, error)) error {
	actor, ok := listing.ActorFromContext(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	l, err := op(ctx, actor, id)
	if err != nil {
		return httperr.Respond(c, s.log, err)
	}

	s.log.Info("Статус объявления изменён администратором",
		zap.Stringer("listing_id", l.ID),
		zap.String("status", string(l.Status)),
		zap.Stringer("admin_id", actor.ID))
	return c.JSON(l)
}

// GetHistory возвращает журнал статусов объявления
func (s *AdminService) GetHistory(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	history, err := s.market.History(ctx, id)
	if err != nil {
		return httperr.Respond(c, s.log, err)
	}
	return c.JSON(fiber.Map{"history": history})
}

// GetTrades возвращает все сделки площадки
func (s *AdminService) GetTrades(c fiber.Ctx) error {
	userID, role, _ := middleware.CurrentUser(c)

	ctx, cancel := db.GetContext()
	defer cancel()

	trades, err := s.market.Trades(ctx, market.Actor{ID: userID, Role: role}, models.TradeStatus(c.Query("status")))
	if err != nil {
		return httperr.Respond(c, s.log, err)
	}
	return c.JSON(fiber.Map{
		"trades": trades,
		"total":  len(trades),
	})
}
