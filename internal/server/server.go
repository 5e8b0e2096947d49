// Package server собирает HTTP API площадки из сервисов
package server

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/config"
	"github.com/rajivgeraev/unlisted-api/internal/directory"
	"github.com/rajivgeraev/unlisted-api/internal/httperr"
	"github.com/rajivgeraev/unlisted-api/internal/market"
	"github.com/rajivgeraev/unlisted-api/internal/models"
	"github.com/rajivgeraev/unlisted-api/internal/services/admin"
	"github.com/rajivgeraev/unlisted-api/internal/services/auth"
	"github.com/rajivgeraev/unlisted-api/internal/services/cloudinary"
	"github.com/rajivgeraev/unlisted-api/internal/services/company"
	"github.com/rajivgeraev/unlisted-api/internal/services/listing"
	"github.com/rajivgeraev/unlisted-api/internal/services/trade"
	"github.com/rajivgeraev/unlisted-api/internal/store"
	"github.com/rajivgeraev/unlisted-api/internal/utils"
)

// Deps зависимости HTTP API
type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     store.Store
	Market    *market.Market
	Directory *directory.Directory
	JWT       *utils.JWTService
	// AccessLog включает логирование запросов middleware Fiber
	AccessLog bool
}

// New создаёт приложение Fiber со всеми маршрутами
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Unlisted API",
		ErrorHandler: httperr.ErrorHandler(d.Logger),
	})

	// Добавляем middleware
	app.Use(recover.New())
	if d.AccessLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	started := time.Now()
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"storage":   d.Config.Storage,
			"demo_mode": d.Config.DemoMode,
			"uptime":    time.Since(started).Round(time.Second).String(),
		})
	})

	// Создаём сервисы
	authService := auth.NewAuthService(d.Config, d.Store, d.JWT, d.Logger)
	sellService := listing.NewListingService(models.KindSell, d.Market, d.JWT, d.Logger)
	buyService := listing.NewListingService(models.KindBuy, d.Market, d.JWT, d.Logger)
	tradeService := trade.NewTradeService(d.Market, d.JWT, d.Logger)
	adminService := admin.NewAdminService(d.Market, d.JWT, d.Logger)
	companyService := company.NewCompanyService(d.Directory, d.JWT, d.Logger)
	cloudinaryService := cloudinary.NewCloudinaryService(d.Config.CloudinaryConfig, d.JWT, d.Logger)

	// Публичные маршруты регистрируются раньше защищённых групп с тем же префиксом
	sellService.SetupPublicRoutes(app)
	buyService.SetupPublicRoutes(app)
	companyService.SetupPublicRoutes(app)

	authService.SetupRoutes(app)
	sellService.SetupRoutes(app)
	buyService.SetupRoutes(app)
	tradeService.SetupRoutes(app)
	companyService.SetupRoutes(app)
	cloudinaryService.SetupRoutes(app)
	adminService.SetupRoutes(app)

	return app
}
