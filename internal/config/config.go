package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config структура конфигурации
type Config struct {
	Port             string
	WSPort           string
	TelegramBotToken string
	JWTSecret        string
	JWTTTL           time.Duration
	Storage          string
	DatabaseURL      string
	DatabaseConfig   DatabaseConfig
	MongoConfig      MongoConfig
	CloudinaryConfig CloudinaryConfig
	CompaniesFile    string
	DemoMode         bool
	AdminTelegramIDs []int64
	AppEnv           string
	LogLevel         string
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// MongoConfig содержит конфигурацию журнала статусов в MongoDB.
// Пустой URI означает журнал в памяти.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// CloudinaryConfig содержит конфигурацию для Cloudinary
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
	UploadFolder string
}

// LoadConfig загружает переменные из .env и окружения
func LoadConfig() (*Config, error) {
	// .env необязателен, переменные окружения имеют приоритет
	_ = godotenv.Load()

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "unlisted_user"),
		Password: getEnv("PGPASSWORD", "unlisted_pass"),
		Name:     getEnv("PGDATABASE", "unlisted"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
		MaxConns: int32(getEnvInt("PG_MAX_CONNS", 10)),
		MinConns: int32(getEnvInt("PG_MIN_CONNS", 2)),
	}

	// Формируем строку подключения, если DATABASE_URL не задан явно
	dbURL := getEnv("DATABASE_URL", fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode))

	adminIDs, err := parseIDs(getEnv("ADMIN_TELEGRAM_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_IDS: %w", err)
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL: %w", err)
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		WSPort:           getEnv("WS_PORT", "8081"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTTTL:           ttl,
		Storage:          strings.ToLower(getEnv("STORAGE", StorageMemory)),
		DatabaseURL:      dbURL,
		DatabaseConfig:   dbConfig,
		MongoConfig: MongoConfig{
			URI:        getEnv("MONGO_URI", ""),
			Database:   getEnv("MONGO_DATABASE", "unlisted"),
			Collection: getEnv("MONGO_HISTORY_COLLECTION", "history_status"),
		},
		CloudinaryConfig: CloudinaryConfig{
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
			UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "unlisted_logos"),
			UploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "company_logos"),
		},
		CompaniesFile:    getEnv("COMPANIES_FILE", ""),
		DemoMode:         getEnvBool("DEMO_MODE", false),
		AdminTelegramIDs: adminIDs,
		AppEnv:           getEnv("APP_ENV", "production"),
		LogLevel:         getEnv("LOG_LEVEL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("не задан JWT_SECRET"))
	}
	if c.Storage != StorageMemory && c.Storage != StoragePostgres {
		errs = append(errs, fmt.Errorf("неизвестное хранилище STORAGE=%q", c.Storage))
	}
	if c.Port == c.WSPort {
		errs = append(errs, errors.New("PORT и WS_PORT должны различаться"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL должен быть положительным"))
	}
	return errors.Join(errs...)
}

// IsAdminTelegramID проверяет, входит ли Telegram ID в список администраторов
func (c *Config) IsAdminTelegramID(id int64) bool {
	for _, adminID := range c.AdminTelegramIDs {
		if adminID == id {
			return true
		}
	}
	return false
}

// getEnv получает переменную окружения или использует дефолтное значение
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("неверный ID %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
