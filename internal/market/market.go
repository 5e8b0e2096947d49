// Package market связывает переговорный движок с хранилищем, журналом
// статусов, сделками и уведомлениями участников.
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/activity"
	"github.com/rajivgeraev/unlisted-api/internal/directory"
	"github.com/rajivgeraev/unlisted-api/internal/models"
	"github.com/rajivgeraev/unlisted-api/internal/negotiation"
	"github.com/rajivgeraev/unlisted-api/internal/store"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrOwnListing   = errors.New("cannot bid on your own listing")
	ErrInvalidInput = errors.New("invalid input")
)

// Actor пользователь, от имени которого выполняется операция
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

// IsAdmin проверяет роль администратора
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Notifier доставляет участникам обновлённое объявление
type Notifier interface {
	NotifyListing(userIDs []uuid.UUID, listingID uuid.UUID, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) NotifyListing([]uuid.UUID, uuid.UUID, interface{}) {}

// Market сервис объявлений и переговоров
type Market struct {
	store     store.Store
	history   activity.Recorder
	companies *directory.Directory
	notifier  Notifier
	log       *zap.Logger
	now       func() time.Time
}

// Option настраивает Market
type Option func(*Market)

// WithNotifier подключает доставку обновлений по WebSocket
func WithNotifier(n Notifier) Option {
	return func(m *Market) { m.notifier = n }
}

// WithClock подменяет источник времени
func WithClock(now func() time.Time) Option {
	return func(m *Market) { m.now = now }
}

// New создаёт сервис
func New(st store.Store, history activity.Recorder, companies *directory.Directory, log *zap.Logger, opts ...Option) *Market {
	m := &Market{
		store:     st,
		history:   history,
		companies: companies,
		notifier:  nopNotifier{},
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ListingRequest данные нового объявления или запроса
type ListingRequest struct {
	Company string
	ISIN    string
	Price   decimal.Decimal
	Shares  int64
}

// BidRequest данные ставки или предложения
type BidRequest struct {
	Price    decimal.Decimal
	Quantity int64
}

// CreateListing публикует объявление о продаже или запрос на покупку
func (m *Market) CreateListing(ctx context.Context, actor Actor, kind models.ListingKind, req ListingRequest) (*models.Listing, error) {
	if !models.ValidListingKind(kind) {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}

	in, err := m.listingInput(req)
	if err != nil {
		return nil, err
	}

	owner, err := m.store.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	l := negotiation.NewListing(kind, owner, in, m.now())
	if err := m.store.CreateListing(ctx, l); err != nil {
		return nil, err
	}

	m.record(ctx, actor, l, []negotiation.Change{{
		RelatedType: "listing",
		RelatedID:   l.ID,
		NewStatus:   string(l.Status),
	}})

	m.log.Info("Создано объявление",
		zap.Stringer("listing_id", l.ID),
		zap.String("kind", string(l.Kind)),
		zap.String("company", l.Company))
	return l, nil
}

func (m *Market) listingInput(req ListingRequest) (negotiation.ListingInput, error) {
	in := negotiation.ListingInput{
		Company: strings.TrimSpace(req.Company),
		ISIN:    directory.NormalizeISIN(req.ISIN),
		Price:   req.Price,
		Shares:  req.Shares,
	}

	if in.ISIN != "" && m.companies != nil {
		if c, err := m.companies.Get(in.ISIN); err == nil {
			in.Company = c.Name
		}
	}

	switch {
	case in.Company == "":
		return in, fmt.Errorf("%w: company is required", ErrInvalidInput)
	case !in.Price.IsPositive():
		return in, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	case in.Shares <= 0:
		return in, fmt.Errorf("%w: shares must be positive", ErrInvalidInput)
	}
	return in, nil
}

// PlaceBid добавляет ставку к объявлению (или предложение к запросу)
func (m *Market) PlaceBid(ctx context.Context, actor Actor, listingID uuid.UUID, req BidRequest) (*models.Listing, error) {
	if !req.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	bidder, err := m.store.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return m.mutate(ctx, actor, listingID, func(l *models.Listing) ([]negotiation.Change, error) {
		if l.OwnerID == actor.ID {
			return nil, ErrOwnListing
		}
		_, changes, err := negotiation.PlaceBid(l, negotiation.BidInput{
			BidderID:         actor.ID,
			CounterpartyName: bidder.DisplayName(),
			Price:            req.Price,
			Quantity:         req.Quantity,
		}, m.now())
		return changes, err
	})
}

// AcceptBid принимает ставку. Доступно только владельцу объявления.
func (m *Market) AcceptBid(ctx context.Context, actor Actor, listingID, bidID uuid.UUID) (*models.Listing, error) {
	return m.mutate(ctx, actor, listingID, func(l *models.Listing) ([]negotiation.Change, error) {
		if l.OwnerID != actor.ID {
			return nil, ErrForbidden
		}
		_, changes, err := negotiation.AcceptBid(l, bidID, m.now())
		return changes, err
	})
}

// CounterOffer предлагает встречную цену от имени стороны вызывающего
func (m *Market) CounterOffer(ctx context.Context, actor Actor, listingID, bidID uuid.UUID, price decimal.Decimal) (*models.Listing, error) {
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	return m.mutate(ctx, actor, listingID, func(l *models.Listing) ([]negotiation.Change, error) {
		party, err := partyOf(l, bidID, actor.ID)
		if err != nil {
			return nil, err
		}
		_, changes, err := negotiation.CounterOffer(l, bidID, price, party, m.now())
		return changes, err
	})
}

// AcceptCounterOffer фиксирует согласие стороны вызывающего со встречной ценой
func (m *Market) AcceptCounterOffer(ctx context.Context, actor Actor, listingID, bidID uuid.UUID) (*models.Listing, error) {
	return m.mutate(ctx, actor, listingID, func(l *models.Listing) ([]negotiation.Change, error) {
		party, err := partyOf(l, bidID, actor.ID)
		if err != nil {
			return nil, err
		}
		_, changes, _, err := negotiation.AcceptCounterOffer(l, bidID, party, m.now())
		return changes, err
	})
}

// RejectCounterOffer отклоняет встречное предложение
func (m *Market) RejectCounterOffer(ctx context.Context, actor Actor, listingID, bidID uuid.UUID) (*models.Listing, error) {
	return m.mutate(ctx, actor, listingID, func(l *models.Listing) ([]negotiation.Change, error) {
		party, err := partyOf(l, bidID, actor.ID)
		if err != nil {
			return nil, err
		}
		_, changes, err := negotiation.RejectCounterOffer(l, bidID, party, m.now())
		return changes, err
	})
}

// Approve одобряет согласованную сделку
func (m *Market) Approve(ctx context.Context, actor Actor, listingID uuid.UUID) (*models.Listing, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return m.mutate(ctx, actor, listingID, func(l *models.Listing) ([]negotiation.Change, error) {
		return negotiation.Approve(l, m.now())
	})
}

// Close закрывает объявление
func (m *Market) Close(ctx context.Context, actor Actor, listingID uuid.UUID) (*models.Listing, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return m.mutate(ctx, actor, listingID, func(l *models.Listing) ([]negotiation.Change, error) {
		return negotiation.Close(l, m.now()), nil
	})
}

// Get возвращает объявление по ID
func (m *Market) Get(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	return m.store.GetListing(ctx, listingID)
}

// List возвращает объявления по фильтру и общее количество
func (m *Market) List(ctx context.Context, f store.ListingFilter) ([]*models.Listing, int, error) {
	return m.store.ListListings(ctx, f)
}

// Trades возвращает сделки пользователя. Администратор видит все сделки.
func (m *Market) Trades(ctx context.Context, actor Actor, status models.TradeStatus) ([]*models.Trade, error) {
	f := store.TradeFilter{Status: status}
	if !actor.IsAdmin() {
		f.UserID = actor.ID
	}
	return m.store.ListTrades(ctx, f)
}

// History возвращает журнал изменений статусов объявления
func (m *Market) History(ctx context.Context, listingID uuid.UUID) ([]models.HistoryStatus, error) {
	if _, err := m.store.GetListing(ctx, listingID); err != nil {
		return nil, err
	}
	return m.history.ListByListing(ctx, listingID.String())
}

// mutate применяет переход к объявлению и выполняет побочные эффекты:
// журнал, синхронизацию сделки и уведомления участников.
// Сделка пересчитывается и сохраняется под той же блокировкой, что и объявление.
func (m *Market) mutate(ctx context.Context, actor Actor, listingID uuid.UUID, fn func(l *models.Listing) ([]negotiation.Change, error)) (*models.Listing, error) {
	var changes []negotiation.Change
	l, err := m.store.UpdateListing(ctx, listingID, func(l *models.Listing, current *models.Trade) (*models.Trade, error) {
		var err error
		changes, err = fn(l)
		if err != nil || len(changes) == 0 {
			return nil, err
		}
		trade, change := syncTrade(l, current, m.now())
		if change != nil {
			changes = append(changes, *change)
		}
		return trade, nil
	})
	if err != nil {
		return nil, err
	}

	if len(changes) == 0 {
		return l, nil
	}

	m.record(ctx, actor, l, changes)
	m.notifier.NotifyListing(l.Participants(), l.ID, l)
	return l, nil
}

// syncTrade приводит сделку в соответствие с объявлением. Возвращает
// сделку для сохранения и запись журнала, либо nil, если менять нечего.
func syncTrade(l *models.Listing, existing *models.Trade, now time.Time) (*models.Trade, *negotiation.Change) {
	var want models.TradeStatus
	switch l.Status {
	case models.ListingPendingAdminApproval:
		want = models.TradePendingAdminApproval
	case models.ListingApproved:
		want = models.TradeApproved
	case models.ListingClosed:
		if existing == nil {
			return nil, nil
		}
		want = models.TradeClosed
	default:
		return nil, nil
	}

	var trade *models.Trade
	if bid, ok := negotiation.AgreedTerms(l); ok {
		trade = newTrade(l, bid, now)
		if existing != nil && existing.BidID == bid.ID {
			trade.ID = existing.ID
			trade.CreatedAt = existing.CreatedAt
			trade.ClosedAt = existing.ClosedAt
		}
	} else if existing != nil {
		trade = existing.Clone()
	} else {
		return nil, nil
	}
	trade.Status = want
	if want == models.TradeClosed && trade.ClosedAt == nil {
		closedAt := now
		trade.ClosedAt = &closedAt
	}

	if existing != nil && sameTrade(existing, trade) {
		return nil, nil
	}
	trade.UpdatedAt = now

	old := ""
	if existing != nil && existing.ID == trade.ID {
		old = string(existing.Status)
	}
	return trade, &negotiation.Change{
		RelatedType: "trade",
		RelatedID:   trade.ID,
		OldStatus:   old,
		NewStatus:   string(trade.Status),
	}
}

func sameTrade(a, b *models.Trade) bool {
	return a.ID == b.ID &&
		a.BidID == b.BidID &&
		a.Status == b.Status &&
		a.Price.Equal(b.Price) &&
		a.Quantity == b.Quantity &&
		a.BuyerID == b.BuyerID &&
		a.SellerID == b.SellerID
}

func newTrade(l *models.Listing, bid *models.Bid, now time.Time) *models.Trade {
	buyer, seller := bid.BidderID, l.OwnerID
	if l.Kind == models.KindBuy {
		buyer, seller = l.OwnerID, bid.BidderID
	}
	return &models.Trade{
		ID:        uuid.New(),
		ListingID: l.ID,
		BidID:     bid.ID,
		Kind:      l.Kind,
		BuyerID:   buyer,
		SellerID:  seller,
		Company:   l.Company,
		ISIN:      l.ISIN,
		Price:     bid.AgreedPrice(),
		Quantity:  bid.Quantity,
		Status:    models.TradePendingAdminApproval,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// record пишет изменения в журнал. Ошибка журнала не отменяет операцию.
func (m *Market) record(ctx context.Context, actor Actor, l *models.Listing, changes []negotiation.Change) {
	now := m.now()
	entries := make([]models.HistoryStatus, 0, len(changes))
	for _, c := range changes {
		entries = append(entries, models.HistoryStatus{
			RelatedID:   c.RelatedID.String(),
			RelatedType: c.RelatedType,
			ListingID:   l.ID.String(),
			OldStatus:   c.OldStatus,
			NewStatus:   c.NewStatus,
			ChangedBy:   actor.ID.String(),
			Timestamp:   now,
		})
	}
	if err := m.history.Record(ctx, entries...); err != nil {
		m.log.Warn("Не удалось записать историю статусов",
			zap.Stringer("listing_id", l.ID), zap.Error(err))
	}
}

// partyOf определяет сторону вызывающего в переговорах по ставке
func partyOf(l *models.Listing, bidID uuid.UUID, userID uuid.UUID) (models.Party, error) {
	idx, ok := l.FindBid(bidID)
	if !ok {
		return "", negotiation.ErrBidNotFound
	}
	switch userID {
	case l.OwnerID:
		return l.OwnerParty(), nil
	case l.Bids[idx].BidderID:
		return l.BidderParty(), nil
	default:
		return "", ErrForbidden
	}
}
