package cloudinary

import (
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/config"
	"github.com/rajivgeraev/unlisted-api/internal/directory"
	"github.com/rajivgeraev/unlisted-api/internal/utils"
)

// CloudinaryService выдаёт подписанные параметры для загрузки логотипов компаний
type CloudinaryService struct {
	cfg        config.CloudinaryConfig
	jwtService *utils.JWTService
	log        *zap.Logger
	now        func() time.Time
}

// NewCloudinaryService создает новый экземпляр CloudinaryService
func NewCloudinaryService(cfg config.CloudinaryConfig, jwtService *utils.JWTService, log *zap.Logger) *CloudinaryService {
	return &CloudinaryService{
		cfg:        cfg,
		jwtService: jwtService,
		log:        log,
		now:        time.Now,
	}
}

// Configured сообщает, заданы ли ключи Cloudinary
func (s *CloudinaryService) Configured() bool {
	return s.cfg.CloudName != "" && s.cfg.APIKey != "" && s.cfg.APISecret != ""
}

// GenerateSignature создаёт подпись параметров загрузки
func (s *CloudinaryService) GenerateSignature(params url.Values) (string, error) {
	return api.SignParameters(params, s.cfg.APISecret)
}

// GenerateUploadParams создаёт параметры для загрузки логотипа.
// Логотип привязывается к ISIN компании через public_id.
func (s *CloudinaryService) GenerateUploadParams(c fiber.Ctx) error {
	if !s.Configured() {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Cloudinary is not configured")
	}

	isin := directory.NormalizeISIN(c.Query("isin"))
	if isin != "" && !directory.ValidISIN(isin) {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid ISIN")
	}

	timestamp := strconv.FormatInt(s.now().Unix(), 10)

	params := url.Values{}
	params.Set("timestamp", timestamp)
	params.Set("folder", s.cfg.UploadFolder)
	if s.cfg.UploadPreset != "" {
		params.Set("upload_preset", s.cfg.UploadPreset)
	}
	if isin != "" {
		params.Set("public_id", isin)
	}

	signature, err := s.GenerateSignature(params)
	if err != nil {
		s.log.Error("Ошибка подписи параметров Cloudinary", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to sign upload params")
	}

	return c.JSON(fiber.Map{
		"timestamp":     timestamp,
		"signature":     signature,
		"api_key":       s.cfg.APIKey,
		"cloud_name":    s.cfg.CloudName,
		"folder":        s.cfg.UploadFolder,
		"upload_preset": s.cfg.UploadPreset,
		"public_id":     isin,
		"upload_url":    "https://api.cloudinary.com/v1_1/" + s.cfg.CloudName + "/image/upload",
	})
}
