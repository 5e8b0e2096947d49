package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rajivgeraev/unlisted-api/internal/activity"
	"github.com/rajivgeraev/unlisted-api/internal/config"
	"github.com/rajivgeraev/unlisted-api/internal/db"
	"github.com/rajivgeraev/unlisted-api/internal/directory"
	"github.com/rajivgeraev/unlisted-api/internal/logger"
	"github.com/rajivgeraev/unlisted-api/internal/market"
	"github.com/rajivgeraev/unlisted-api/internal/server"
	"github.com/rajivgeraev/unlisted-api/internal/store"
	"github.com/rajivgeraev/unlisted-api/internal/utils"
	"github.com/rajivgeraev/unlisted-api/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Загружаем конфигурацию
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}

	zlog, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ Ошибка инициализации логгера: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("Сервер остановлен с ошибкой", zap.Error(err))
	}
}

// warnDemoMode предупреждает, что /api/auth/demo выдаёт сессии любой роли без проверки
func warnDemoMode(cfg *config.Config, zlog *zap.Logger) {
	if !cfg.DemoMode {
		return
	}
	zlog.Warn("⚠️ DEMO_MODE включён: /api/auth/demo выдаёт сессии администратора без проверки, не используйте в продакшене",
		zap.String("app_env", cfg.AppEnv))
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	warnDemoMode(cfg, zlog)

	st, err := openStore(cfg, zlog)
	if err != nil {
		return err
	}
	defer st.Close()

	history, closeHistory, err := openHistory(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer closeHistory()

	dir, err := openDirectory(cfg, zlog)
	if err != nil {
		return err
	}

	jwtService := utils.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	hub := websocket.NewManager(zlog.Named("ws"))

	app := server.New(server.Deps{
		Config:    cfg,
		Logger:    zlog,
		Store:     st,
		Market:    market.New(st, history, dir, zlog.Named("market"), market.WithNotifier(hub)),
		Directory: dir,
		JWT:       jwtService,
		AccessLog: cfg.AppEnv != "production",
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", hub.Handler(jwtService))
	wsServer := &http.Server{
		Addr:              ":" + cfg.WSPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zlog.Info("✅ Unlisted API запущен", zap.String("port", cfg.Port), zap.String("storage", cfg.Storage))
		return app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true})
	})

	g.Go(func() error {
		zlog.Info("✅ WebSocket сервер запущен", zap.String("port", cfg.WSPort))
		if err := wsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("Остановка серверов")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		hub.Shutdown()
		return errors.Join(
			app.ShutdownWithContext(shutdownCtx),
			wsServer.Shutdown(shutdownCtx),
		)
	})

	return g.Wait()
}

func openStore(cfg *config.Config, zlog *zap.Logger) (store.Store, error) {
	if cfg.Storage != config.StoragePostgres {
		zlog.Info("Используется хранилище в памяти")
		return store.NewMemoryStore(), nil
	}

	pool, err := db.InitDB(cfg, zlog)
	if err != nil {
		return nil, err
	}
	return store.NewPostgresStore(pool), nil
}

func openHistory(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (activity.Recorder, func(), error) {
	if cfg.MongoConfig.URI == "" {
		return activity.NewMemoryRecorder(), func() {}, nil
	}

	rec, err := activity.ConnectMongo(ctx, cfg.MongoConfig)
	if err != nil {
		return nil, nil, err
	}
	zlog.Info("Журнал статусов пишется в MongoDB", zap.String("database", cfg.MongoConfig.Database))

	return rec, func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rec.Disconnect(dctx); err != nil {
			zlog.Warn("Ошибка отключения от MongoDB", zap.Error(err))
		}
	}, nil
}

func openDirectory(cfg *config.Config, zlog *zap.Logger) (*directory.Directory, error) {
	seed := directory.DefaultCompanies()
	if cfg.CompaniesFile != "" {
		companies, err := directory.LoadFile(cfg.CompaniesFile)
		if err != nil {
			return nil, err
		}
		seed = companies
	}

	dir, err := directory.New(seed)
	if err != nil {
		return nil, err
	}
	zlog.Info("Справочник компаний загружен", zap.Int("companies", dir.Len()))
	return dir, nil
}
