package listing

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
	"github.com/rajivgeraev/unlisted-api/internal/store"
	"github.com/rajivgeraev/unlisted-api/internal/utils"
)

// ListingService обслуживает одну сторону рынка: объявления о продаже
// (/api/listings) или запросы на покупку (/api/requests)
type ListingService struct {
	kind       models.ListingKind
	market     *market.Market
	jwtService *utils.JWTService
	log        *zap.Logger
}

// NewListingService создает новый экземпляр ListingService
func NewListingService(kind models.ListingKind, m *market.Market, jwtService *utils.JWTService, log *zap.Logger) *ListingService {
	return &ListingService{
		kind:       kind,
		market:     m,
		jwtService: jwtService,
		log:        log.With(zap.String("kind", string(kind))),
	}
}

// CreateListing обрабатывает создание нового объявления
func (s *ListingService) CreateListing(c fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return err
	}

	var req CreateListingRequest
	if err := c.Bind().Body(&req); err != nil {
		s.log.Debug("Ошибка декодирования тела запроса", zap.Error(err))
		return httperr.BadRequest(c, "Invalid request body")
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	l, err := s.market.CreateListing(ctx, actor, s.kind, market.ListingRequest{
		Company: req.Company,
		ISIN:    req.ISIN,
		Price:   req.Price,
		Shares:  req.Shares,
	})
	if err != nil {
		return httperr.Respond(c, s.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(l)
}

// GetPublicListings возвращает активные объявления с пагинацией
func (s *ListingService) GetPublicListings(c fiber.Ctx) error {
	limit, offset := Pagination(c)
	return s.list(c, store.ListingFilter{
		Kind:   s.kind,
		Status: models.ListingActive,
		Limit:  limit,
		Offset: offset,
	}, limit, offset)
}

// GetMyListings возвращает объявления пользователя.
// С involved=true также те, где пользователь сделал ставку.
func (s *ListingService) GetMyListings(c fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return err
	}

	status := models.ListingStatus(c.Query("status"))
	if status != "" && !models.ValidListingStatus(status) {
		return httperr.BadRequest(c, "Unknown status")
	}

	limit, offset := Pagination(c)
	f := store.ListingFilter{
		Kind:    s.kind,
		Status:  status,
		OwnerID: actor.ID,
		Limit:   limit,
		Offset:  offset,
	}
	if c.Query("involved") == "true" {
		f.OwnerID = uuid.Nil
		f.Participant = actor.ID
	}
	return s.list(c, f, limit, offset)
}

func (s *ListingService) list(c fiber.Ctx, f store.ListingFilter, limit, offset int) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	items, total, err := s.market.List(ctx, f)
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

// GetListing возвращает объявление по ID
func (s *ListingService) GetListing(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	l, err := s.market.Get(ctx, id)
	if err == nil && l.Kind != s.kind {
		err = store.ErrNotFound
	}
	if err != nil {
		return httperr.Respond(c, s.log, err)
	}
	return c.JSON(l)
}

// PlaceBid добавляет ставку к объявлению или предложение к запросу
func (s *ListingService) PlaceBid(c fiber.Ctx) error {
	var req PlaceBidRequest
	if err := c.Bind().Body(&req); err != nil {
		return httperr.BadRequest(c, "Invalid request body")
	}

	return s.mutate(c, false, func(ctx context.Context, actor market.Actor, listingID, _ uuid.UUID) (*models.Listing, error) {
		return s.market.PlaceBid(ctx, actor, listingID, market.BidRequest{Price: req.Price, Quantity: req.Quantity})
	})
}

// AcceptBid принимает ставку
func (s *ListingService) AcceptBid(c fiber.Ctx) error {
	return s.mutate(c, true, func(ctx context.Context, actor market.Actor, listingID, bidID uuid.UUID) (*models.Listing, error) {
		return s.market.AcceptBid(ctx, actor, listingID, bidID)
	})
}

// CounterOffer предлагает встречную цену
func (s *ListingService) CounterOffer(c fiber.Ctx) error {
	var req CounterOfferRequest
	if err := c.Bind().Body(&req); err != nil {
		return httperr.BadRequest(c, "Invalid request body")
	}

	return s.mutate(c, true, func(ctx context.Context, actor market.Actor, listingID, bidID uuid.UUID) (*models.Listing, error) {
		return s.market.CounterOffer(ctx, actor, listingID, bidID, req.Price)
	})
}

// AcceptCounterOffer подтверждает встречную цену
func (s *ListingService) AcceptCounterOffer(c fiber.Ctx) error {
	return s.mutate(c, true, func(ctx context.Context, actor market.Actor, listingID, bidID uuid.UUID) (*models.Listing, error) {
		return s.market.AcceptCounterOffer(ctx, actor, listingID, bidID)
	})
}

// RejectCounterOffer отклоняет встречную цену
func (s *ListingService) RejectCounterOffer(c fiber.Ctx) error {
	return s.mutate(c, true, func(ctx context.Context, actor market.Actor, listingID, bidID uuid.UUID) (*models.Listing, error) {
		return s.market.RejectCounterOffer(ctx, actor, listingID, bidID)
	})
}

type mutation func(ctx context.Context, actor market.Actor, listingID, bidID uuid.UUID) (*models.Listing, error)

// mutate разбирает параметры пути, проверяет сторону рынка и выполняет операцию
func (s *ListingService) mutate(c fiber.Ctx, withBid bool, fn mutation) error {
	actor, err := s.actor(c)
	if err != nil {
		return err
	}

	listingID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	bidID := uuid.Nil
	if withBid {
		if bidID, err = parseID(c, "bidId"); err != nil {
			return err
		}
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	current, err := s.market.Get(ctx, listingID)
	if err == nil && current.Kind != s.kind {
		err = store.ErrNotFound
	}
	if err != nil {
		return httperr.Respond(c, s.log, err)
	}

	l, err := fn(ctx, actor, listingID, bidID)
	if err != nil {
		return httperr.Respond(c, s.log, err)
	}
	return c.JSON(l)
}

func (s *ListingService) actor(c fiber.Ctx) (market.Actor, error) {
	id, role, ok := middleware.CurrentUser(c)
	if !ok {
		return market.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return market.Actor{ID: id, Role: role}, nil
}

// ActorFromContext возвращает вызывающего пользователя для обработчиков других сервисов
func ActorFromContext(c fiber.Ctx) (market.Actor, bool) {
	id, role, ok := middleware.CurrentUser(c)
	return market.Actor{ID: id, Role: role}, ok
}

func parseID(c fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+param)
	}
	return id, nil
}
