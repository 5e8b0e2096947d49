package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeStatus статус сделки
type TradeStatus string

const (
	TradePendingAdminApproval TradeStatus = "pending_admin_approval"
	TradeApproved             TradeStatus = "approved"
	TradeClosed               TradeStatus = "closed"
)

// Trade представляет сделку, возникшую после согласия обеих сторон
type Trade struct {
	ID        uuid.UUID       `json:"id"`
	ListingID uuid.UUID       `json:"listing_id"`
	BidID     uuid.UUID       `json:"bid_id"`
	Kind      ListingKind     `json:"kind"`
	BuyerID   uuid.UUID       `json:"buyer_id"`
	SellerID  uuid.UUID       `json:"seller_id"`
	Company   string          `json:"company"`
	ISIN      string          `json:"isin"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	Status    TradeStatus     `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	ClosedAt  *time.Time      `json:"closed_at,omitempty"`
}

// Value возвращает сумму сделки
func (t *Trade) Value() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}

// InvolvesUser проверяет, является ли пользователь стороной сделки
func (t *Trade) InvolvesUser(userID uuid.UUID) bool {
	return t.BuyerID == userID || t.SellerID == userID
}

// Clone возвращает глубокую копию сделки
func (t *Trade) Clone() *Trade {
	cp := *t
	if t.ClosedAt != nil {
		closedAt := *t.ClosedAt
		cp.ClosedAt = &closedAt
	}
	return &cp
}
