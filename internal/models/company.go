package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company представляет компанию из справочника, акции которой торгуются на площадке
type Company struct {
	ISIN      string          `json:"isin" yaml:"isin"`
	Name      string          `json:"name" yaml:"name"`
	Sector    string          `json:"sector,omitempty" yaml:"sector"`
	Price     decimal.Decimal `json:"price" yaml:"price"`
	LogoURL   string          `json:"logo_url,omitempty" yaml:"logo_url"`
	UpdatedAt time.Time       `json:"updated_at" yaml:"-"`
}
