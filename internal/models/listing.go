package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingKind различает продажу (listing) и запрос на покупку (request)
type ListingKind string

const (
	KindSell ListingKind = "sell"
	KindBuy  ListingKind = "buy"
)

// ValidListingKind проверяет тип объявления
func ValidListingKind(k ListingKind) bool {
	switch k {
	case KindSell, KindBuy:
		return true
	default:
		return false
	}
}

// ListingStatus статус объявления или запроса
type ListingStatus string

const (
	ListingActive               ListingStatus = "active"
	ListingPendingAdminApproval ListingStatus = "pending_admin_approval"
	ListingApproved             ListingStatus = "approved"
	ListingClosed               ListingStatus = "closed"
)

// ValidListingStatus проверяет статус объявления
func ValidListingStatus(s ListingStatus) bool {
	switch s {
	case ListingActive, ListingPendingAdminApproval, ListingApproved, ListingClosed:
		return true
	default:
		return false
	}
}

// BidStatus статус ставки (bid) или предложения (offer)
type BidStatus string

const (
	BidPending                 BidStatus = "pending"
	BidAccepted                BidStatus = "accepted"
	BidRejected                BidStatus = "rejected"
	BidCounterOffered          BidStatus = "counter_offered"
	BidCounterAcceptedByBuyer  BidStatus = "counter_accepted_by_buyer"
	BidCounterAcceptedBySeller BidStatus = "counter_accepted_by_seller"
	BidBothAccepted            BidStatus = "both_accepted"
)

// Party сторона сделки
type Party string

const (
	PartyBuyer  Party = "buyer"
	PartySeller Party = "seller"
)

// ValidParty проверяет сторону сделки
func ValidParty(p Party) bool {
	return p == PartyBuyer || p == PartySeller
}

// Listing представляет объявление о продаже акций или запрос на покупку.
// Для запроса (KindBuy) Bids содержит встречные предложения продавцов.
type Listing struct {
	ID        uuid.UUID       `json:"id"`
	Kind      ListingKind     `json:"kind"`
	Company   string          `json:"company"`
	ISIN      string          `json:"isin"`
	Price     decimal.Decimal `json:"price"`
	Shares    int64           `json:"shares"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	OwnerName string          `json:"owner_name"`
	Status    ListingStatus   `json:"status"`
	Bids      []Bid           `json:"bids"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	ClosedAt  *time.Time      `json:"closed_at,omitempty"`
}

// Bid представляет ставку покупателя по объявлению или предложение продавца по запросу
type Bid struct {
	ID               uuid.UUID        `json:"id"`
	BidderID         uuid.UUID        `json:"bidder_id"`
	CounterpartyName string           `json:"counterparty_name"`
	Price            decimal.Decimal  `json:"price"`
	Quantity         int64            `json:"quantity"`
	Status           BidStatus        `json:"status"`
	CounterPrice     *decimal.Decimal `json:"counter_price,omitempty"`
	CounterBy        Party            `json:"counter_by,omitempty"`
	BuyerAccepted    bool             `json:"buyer_accepted"`
	SellerAccepted   bool             `json:"seller_accepted"`
	Timestamp        time.Time        `json:"timestamp"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// OwnerParty возвращает сторону владельца объявления
func (l *Listing) OwnerParty() Party {
	if l.Kind == KindBuy {
		return PartyBuyer
	}
	return PartySeller
}

// BidderParty возвращает сторону автора ставки
func (l *Listing) BidderParty() Party {
	if l.Kind == KindBuy {
		return PartySeller
	}
	return PartyBuyer
}

// FindBid ищет ставку по ID
func (l *Listing) FindBid(bidID uuid.UUID) (int, bool) {
	for i := range l.Bids {
		if l.Bids[i].ID == bidID {
			return i, true
		}
	}
	return -1, false
}

// Participants возвращает владельца и всех авторов ставок без повторов
func (l *Listing) Participants() []uuid.UUID {
	seen := map[uuid.UUID]bool{l.OwnerID: true}
	ids := []uuid.UUID{l.OwnerID}
	for _, b := range l.Bids {
		if !seen[b.BidderID] {
			seen[b.BidderID] = true
			ids = append(ids, b.BidderID)
		}
	}
	return ids
}

// HasParticipant проверяет, участвует ли пользователь в объявлении
func (l *Listing) HasParticipant(userID uuid.UUID) bool {
	for _, id := range l.Participants() {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone возвращает глубокую копию объявления
func (l *Listing) Clone() *Listing {
	cp := *l
	cp.Bids = make([]Bid, len(l.Bids))
	for i, b := range l.Bids {
		if b.CounterPrice != nil {
			price := *b.CounterPrice
			b.CounterPrice = &price
		}
		cp.Bids[i] = b
	}
	if l.ClosedAt != nil {
		closedAt := *l.ClosedAt
		cp.ClosedAt = &closedAt
	}
	return &cp
}

// IsSettled сообщает, что ставка завершила переговоры согласием обеих сторон
func (b *Bid) IsSettled() bool {
	return b.Status == BidAccepted || b.Status == BidBothAccepted
}

// AgreedPrice возвращает цену сделки: встречную цену, если она была согласована
func (b *Bid) AgreedPrice() decimal.Decimal {
	if b.Status == BidBothAccepted && b.CounterPrice != nil {
		return *b.CounterPrice
	}
	return b.Price
}
