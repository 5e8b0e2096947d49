package directory

import (
	"github.com/shopspring/decimal"

	"github.com/rajivgeraev/unlisted-api/internal/models"
)

// DefaultCompanies начальный справочник, если COMPANIES_FILE не задан
func DefaultCompanies() []models.Company {
	return []models.Company{
		{ISIN: "INE721I01024", Name: "National Stock Exchange of India", Sector: "Financial Services", Price: decimal.RequireFromString("1850.00")},
		{ISIN: "INE976I01016", Name: "Tata Capital", Sector: "Financial Services", Price: decimal.RequireFromString("915.00")},
		{ISIN: "INE0BS701011", Name: "HDB Financial Services", Sector: "Financial Services", Price: decimal.RequireFromString("1120.00")},
		{ISIN: "INE01NB01019", Name: "Chennai Super Kings Cricket", Sector: "Sports", Price: decimal.RequireFromString("190.00")},
		{ISIN: "INE839M01018", Name: "Studds Accessories", Sector: "Automotive", Price: decimal.RequireFromString("1300.00")},
		{ISIN: "INE0DJ201029", Name: "Pharmeasy (API Holdings)", Sector: "Healthcare", Price: decimal.RequireFromString("8.50")},
		{ISIN: "INE018E01016", Name: "SBI Funds Management", Sector: "Asset Management", Price: decimal.RequireFromString("2350.00")},
		{ISIN: "INE0FDU01010", Name: "Orbis Financial Corporation", Sector: "Financial Services", Price: decimal.RequireFromString("450.00")},
	}
}
