package company

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/directory"
	"github.com/rajivgeraev/unlisted-api/internal/httperr"
	"github.com/rajivgeraev/unlisted-api/internal/models"
	"github.com/rajivgeraev/unlisted-api/internal/utils"
)

const searchLimit = 10

// CompanyService справочник компаний: автодополнение и администрирование
type CompanyService struct {
	directory  *directory.Directory
	jwtService *utils.JWTService
	log        *zap.Logger
}

// NewCompanyService создает новый экземпляр CompanyService
func NewCompanyService(dir *directory.Directory, jwtService *utils.JWTService, log *zap.Logger) *CompanyService {
	return &CompanyService{directory: dir, jwtService: jwtService, log: log}
}

// Search ищет компании по названию или ISIN
func (s *CompanyService) Search(c fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(searchLimit)))
	if err != nil || limit < 0 {
		limit = searchLimit
	}
	companies := s.directory.Search(c.Query("q"), limit)
	return c.JSON(fiber.Map{"companies": companies})
}

// Get возвращает компанию по ISIN
func (s *CompanyService) Get(c fiber.Ctx) error {
	company, err := s.directory.Get(c.Params("isin"))
	if err != nil {
		return httperr.Respond(c, s.log, err)
	}
	return c.JSON(company)
}

// Upsert добавляет или обновляет компанию
func (s *CompanyService) Upsert(c fiber.Ctx) error {
	var req struct {
		Name    string          `json:"name"`
		Sector  string          `json:"sector"`
		Price   decimal.Decimal `json:"price"`
		LogoURL string          `json:"logo_url"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return httperr.BadRequest(c, "Invalid request body")
	}

	company, err := s.directory.Upsert(models.Company{
		ISIN:    c.Params("isin"),
		Name:    req.Name,
		Sector:  req.Sector,
		Price:   req.Price,
		LogoURL: req.LogoURL,
	})
	if err != nil {
		return httperr.Respond(c, s.log, err)
	}

	s.log.Info("Компания обновлена", zap.String("isin", company.ISIN), zap.String("name", company.Name))
	return c.JSON(company)
}

// Delete удаляет компанию из справочника
func (s *CompanyService) Delete(c fiber.Ctx) error {
	if err := s.directory.Delete(c.Params("isin")); err != nil {
		return httperr.Respond(c, s.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
