package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/client"
	"github.com/rajivgeraev/unlisted-api/internal/console"
	"github.com/rajivgeraev/unlisted-api/internal/logger"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", envOr("API_URL", "http://localhost:8080"), "адрес Unlisted API")
	token := flag.String("token", os.Getenv("ADMIN_TOKEN"), "JWT администратора; пустой означает демо-вход")
	demo := flag.Bool("demo-fallback", true, "работать на локальных демо-данных, если API недоступен")
	flag.Parse()

	// Логи идут в stderr только на уровне ошибок, чтобы не ломать экран
	log, err := logger.New("production", "error")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := client.New(*apiURL, client.WithLogger(log))
	session, err := client.OpenAdminSession(ctx, c, client.Options{
		Token:        *token,
		DemoFallback: *demo,
		Logger:       log,
	})
	if err != nil {
		log.Error("Не удалось открыть сессию", zap.String("api", *apiURL), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Не удалось открыть сессию: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(console.NewModel(session), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
