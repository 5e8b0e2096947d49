package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	initdata "github.com/telegram-mini-apps/init-data-golang"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/config"
	"github.com/rajivgeraev/unlisted-api/internal/db"
	"github.com/rajivgeraev/unlisted-api/internal/httperr"
	"github.com/rajivgeraev/unlisted-api/internal/middleware"
	"github.com/rajivgeraev/unlisted-api/internal/models"
	"github.com/rajivgeraev/unlisted-api/internal/store"
	"github.com/rajivgeraev/unlisted-api/internal/utils"
)

// initDataTTL срок годности подписи initData от Telegram
const initDataTTL = 24 * time.Hour

// AuthService – структура для обработки авторизации
type AuthService struct {
	cfg        *config.Config
	users      store.UserStore
	jwtService *utils.JWTService
	log        *zap.Logger
	now        func() time.Time
}

// NewAuthService – конструктор AuthService
func NewAuthService(cfg *config.Config, users store.UserStore, jwtService *utils.JWTService, log *zap.Logger) *AuthService {
	return &AuthService{
		cfg:        cfg,
		users:      users,
		jwtService: jwtService,
		log:        log,
		now:        time.Now,
	}
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// TelegramAuthHandler проверяет initData, создает JWT и возвращает его
func (s *AuthService) TelegramAuthHandler(c fiber.Ctx) error {
	var payload struct {
		InitData string `json:"init_data"`
	}

	if err := c.Bind().Body(&payload); err != nil || payload.InitData == "" {
		return httperr.BadRequest(c, "Invalid request")
	}

	// Проверяем initData
	if err := initdata.Validate(payload.InitData, s.cfg.TelegramBotToken, initDataTTL); err != nil {
		s.log.Debug("Некорректные данные Telegram", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid Telegram data"})
	}

	// Парсим данные
	data, err := initdata.Parse(payload.InitData)
	if err != nil {
		return httperr.BadRequest(c, "Failed to parse initData")
	}

	role := models.RoleUser
	if s.cfg.IsAdminTelegramID(data.User.ID) {
		role = models.RoleAdmin
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := s.users.UpsertTelegramUser(ctx, &models.User{
		TelegramID:  data.User.ID,
		Username:    data.User.Username,
		FirstName:   data.User.FirstName,
		LastName:    data.User.LastName,
		PhotoURL:    data.User.PhotoURL,
		Role:        role,
		LastLoginAt: s.now(),
	})
	if err != nil {
		return httperr.Respond(c, s.log, err)
	}

	return s.issueSession(c, user)
}

// DemoAuthHandler создаёт демо-пользователя с запрошенной ролью.
// Доступен только при DEMO_MODE=true.
func (s *AuthService) DemoAuthHandler(c fiber.Ctx) error {
	if !s.cfg.DemoMode {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Demo mode is disabled"})
	}

	var payload struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return httperr.BadRequest(c, "Invalid request")
	}

	role := models.Role(strings.ToLower(payload.Role))
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return httperr.BadRequest(c, "Unknown role")
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		name = "Demo " + strings.ToUpper(string(role[:1])) + string(role[1:])
	}

	now := s.now()
	user := &models.User{
		ID:          uuid.New(),
		FirstName:   name,
		Role:        role,
		IsDemo:      true,
		CreatedAt:   now,
		LastLoginAt: now,
	}
	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.users.CreateUser(ctx, user); err != nil {
		return httperr.Respond(c, s.log, err)
	}

	s.log.Info("Создан демо-пользователь",
		zap.Stringer("user_id", user.ID), zap.String("role", string(role)))
	return s.issueSession(c, user)
}

// ProfileHandler возвращает профиль текущего пользователя
func (s *AuthService) ProfileHandler(c fiber.Ctx) error {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return httperr.Respond(c, s.log, err)
	}
	return c.JSON(user)
}

func (s *AuthService) issueSession(c fiber.Ctx, user *models.User) error {
	token, err := s.jwtService.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		s.log.Error("Ошибка генерации JWT", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate JWT"})
	}
	return c.JSON(sessionResponse{Token: token, User: user})
}
