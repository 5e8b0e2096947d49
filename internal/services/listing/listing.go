package listing

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// CreateListingRequest тело запроса на создание объявления или запроса на покупку
type CreateListingRequest struct {
	Company string          `json:"company"`
	ISIN    string          `json:"isin"`
	Price   decimal.Decimal `json:"price"`
	Shares  int64           `json:"shares"`
}

// PlaceBidRequest тело ставки или предложения
type PlaceBidRequest struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// CounterOfferRequest тело встречного предложения
type CounterOfferRequest struct {
	Price decimal.Decimal `json:"price"`
}

// Pagination читает limit и offset из query
func Pagination(c fiber.Ctx) (limit, offset int) {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err = strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
