// Package negotiation реализует переходы состояний объявлений, ставок
// и встречных предложений. Функции пакета не выполняют ввод-вывод и
// изменяют переданное объявление на месте.
package negotiation

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rajivgeraev/unlisted-api/internal/models"
)

var (
	ErrBidNotFound        = errors.New("bid not found")
	ErrListingClosed      = errors.New("listing is closed")
	ErrInvalidParty       = errors.New("invalid party")
	ErrNoCounterOffer     = errors.New("bid has no open counter offer")
	ErrNotPendingApproval = errors.New("listing is not pending admin approval")
	ErrNegotiationOver    = errors.New("listing is no longer open for negotiation")
	ErrBidNotOpen         = errors.New("bid is no longer open for negotiation")
)

// ListingInput данные для создания объявления или запроса
type ListingInput struct {
	Company string
	ISIN    string
	Price   decimal.Decimal
	Shares  int64
}

// BidInput данные ставки или предложения
type BidInput struct {
	BidderID         uuid.UUID
	CounterpartyName string
	Price            decimal.Decimal
	Quantity         int64
}

// Change описывает одно изменение статуса, произошедшее в ходе перехода
type Change struct {
	RelatedType string // listing, bid
	RelatedID   uuid.UUID
	OldStatus   string
	NewStatus   string
}

// NewListing создаёт объявление в статусе active
func NewListing(kind models.ListingKind, owner *models.User, in ListingInput, now time.Time) *models.Listing {
	return &models.Listing{
		ID:        uuid.New(),
		Kind:      kind,
		Company:   in.Company,
		ISIN:      in.ISIN,
		Price:     in.Price,
		Shares:    in.Shares,
		OwnerID:   owner.ID,
		OwnerName: owner.DisplayName(),
		Status:    models.ListingActive,
		Bids:      []models.Bid{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PlaceBid добавляет ставку (или предложение для запроса) в статусе pending
func PlaceBid(l *models.Listing, in BidInput, now time.Time) (*models.Bid, []Change, error) {
	if err := checkNegotiable(l); err != nil {
		return nil, nil, err
	}

	bid := models.Bid{
		ID:               uuid.New(),
		BidderID:         in.BidderID,
		CounterpartyName: in.CounterpartyName,
		Price:            in.Price,
		Quantity:         in.Quantity,
		Status:           models.BidPending,
		Timestamp:        now,
		UpdatedAt:        now,
	}
	l.Bids = append(l.Bids, bid)
	l.UpdatedAt = now

	changes := []Change{{RelatedType: "bid", RelatedID: bid.ID, NewStatus: string(models.BidPending)}}
	return &l.Bids[len(l.Bids)-1], changes, nil
}

// AcceptBid принимает ставку владельцем: остальные ставки отклоняются,
// объявление уходит на одобрение администратору
func AcceptBid(l *models.Listing, bidID uuid.UUID, now time.Time) (*models.Bid, []Change, error) {
	idx, err := openBid(l, bidID)
	if err != nil {
		return nil, nil, err
	}

	var changes []Change
	bid := &l.Bids[idx]
	changes = append(changes, setBidStatus(bid, models.BidAccepted, now))
	bid.BuyerAccepted = true
	bid.SellerAccepted = true

	changes = append(changes, settle(l, idx, now)...)
	return bid, changes, nil
}

// CounterOffer фиксирует встречную цену и сбрасывает согласие обеих сторон
func CounterOffer(l *models.Listing, bidID uuid.UUID, price decimal.Decimal, by models.Party, now time.Time) (*models.Bid, []Change, error) {
	if !models.ValidParty(by) {
		return nil, nil, ErrInvalidParty
	}
	idx, err := openBid(l, bidID)
	if err != nil {
		return nil, nil, err
	}

	bid := &l.Bids[idx]
	change := setBidStatus(bid, models.BidCounterOffered, now)
	counter := price
	bid.CounterPrice = &counter
	bid.CounterBy = by
	bid.BuyerAccepted = false
	bid.SellerAccepted = false
	l.UpdatedAt = now

	return bid, []Change{change}, nil
}

// AcceptCounterOffer отмечает согласие стороны со встречной ценой.
// Когда согласны обе стороны, ставка переходит в both_accepted и
// возвращается completed = true.
func AcceptCounterOffer(l *models.Listing, bidID uuid.UUID, by models.Party, now time.Time) (bid *models.Bid, changes []Change, completed bool, err error) {
	if !models.ValidParty(by) {
		return nil, nil, false, ErrInvalidParty
	}
	idx, err := openBid(l, bidID)
	if err != nil {
		return nil, nil, false, err
	}

	bid = &l.Bids[idx]
	if !hasOpenCounter(bid) {
		return nil, nil, false, ErrNoCounterOffer
	}

	if by == models.PartyBuyer {
		bid.BuyerAccepted = true
	} else {
		bid.SellerAccepted = true
	}

	if bid.BuyerAccepted && bid.SellerAccepted {
		changes = append(changes, setBidStatus(bid, models.BidBothAccepted, now))
		changes = append(changes, settle(l, idx, now)...)
		return bid, changes, true, nil
	}

	next := models.BidCounterAcceptedBySeller
	if by == models.PartyBuyer {
		next = models.BidCounterAcceptedByBuyer
	}
	if c := setBidStatus(bid, next, now); c.OldStatus != c.NewStatus {
		changes = append(changes, c)
	}
	l.UpdatedAt = now
	return bid, changes, false, nil
}

// RejectCounterOffer отклоняет встречное предложение, ставка завершается
func RejectCounterOffer(l *models.Listing, bidID uuid.UUID, by models.Party, now time.Time) (*models.Bid, []Change, error) {
	if !models.ValidParty(by) {
		return nil, nil, ErrInvalidParty
	}
	idx, err := openBid(l, bidID)
	if err != nil {
		return nil, nil, err
	}

	bid := &l.Bids[idx]
	if !hasOpenCounter(bid) {
		return nil, nil, ErrNoCounterOffer
	}

	change := setBidStatus(bid, models.BidRejected, now)
	bid.BuyerAccepted = false
	bid.SellerAccepted = false
	l.UpdatedAt = now
	return bid, []Change{change}, nil
}

// Approve одобряет сделку администратором. Повторный вызов ничего не меняет.
func Approve(l *models.Listing, now time.Time) ([]Change, error) {
	switch l.Status {
	case models.ListingApproved:
		return nil, nil
	case models.ListingClosed:
		return nil, ErrListingClosed
	case models.ListingPendingAdminApproval:
		change := setListingStatus(l, models.ListingApproved, now)
		return []Change{change}, nil
	default:
		return nil, ErrNotPendingApproval
	}
}

// Close закрывает объявление. ClosedAt выставляется только при первом закрытии.
func Close(l *models.Listing, now time.Time) []Change {
	if l.Status == models.ListingClosed {
		return nil
	}
	change := setListingStatus(l, models.ListingClosed, now)
	closedAt := now
	l.ClosedAt = &closedAt
	return []Change{change}
}

// AgreedTerms возвращает ставку, по которой достигнуто соглашение
func AgreedTerms(l *models.Listing) (*models.Bid, bool) {
	for i := range l.Bids {
		if l.Bids[i].IsSettled() {
			return &l.Bids[i], true
		}
	}
	return nil, false
}

// settle отклоняет все остальные ставки и отправляет объявление на одобрение
func settle(l *models.Listing, winner int, now time.Time) []Change {
	var changes []Change
	for i := range l.Bids {
		if i == winner || l.Bids[i].Status == models.BidRejected {
			continue
		}
		changes = append(changes, setBidStatus(&l.Bids[i], models.BidRejected, now))
	}
	if l.Status != models.ListingPendingAdminApproval {
		changes = append(changes, setListingStatus(l, models.ListingPendingAdminApproval, now))
	}
	l.UpdatedAt = now
	return changes
}

// checkNegotiable разрешает ставки и переговоры только по активному объявлению
func checkNegotiable(l *models.Listing) error {
	switch l.Status {
	case models.ListingActive:
		return nil
	case models.ListingClosed:
		return ErrListingClosed
	default:
		return ErrNegotiationOver
	}
}

// openBid находит ставку, по которой ещё можно договариваться.
// Отклонённые и согласованные ставки изменить нельзя.
func openBid(l *models.Listing, bidID uuid.UUID) (int, error) {
	if err := checkNegotiable(l); err != nil {
		return 0, err
	}
	idx, ok := l.FindBid(bidID)
	if !ok {
		return 0, ErrBidNotFound
	}
	if b := &l.Bids[idx]; b.Status == models.BidRejected || b.IsSettled() {
		return 0, ErrBidNotOpen
	}
	return idx, nil
}

func hasOpenCounter(b *models.Bid) bool {
	if b.CounterPrice == nil {
		return false
	}
	switch b.Status {
	case models.BidCounterOffered, models.BidCounterAcceptedByBuyer, models.BidCounterAcceptedBySeller:
		return true
	default:
		return false
	}
}

func setBidStatus(b *models.Bid, status models.BidStatus, now time.Time) Change {
	c := Change{RelatedType: "bid", RelatedID: b.ID, OldStatus: string(b.Status), NewStatus: string(status)}
	b.Status = status
	b.UpdatedAt = now
	return c
}

func setListingStatus(l *models.Listing, status models.ListingStatus, now time.Time) Change {
	c := Change{RelatedType: "listing", RelatedID: l.ID, OldStatus: string(l.Status), NewStatus: string(status)}
	l.Status = status
	l.UpdatedAt = now
	return c
}
