package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/models"
)

var ErrNotAdmin = errors.New("session user is not an admin")

// Backend операции консоли администратора
type Backend interface {
	Listings(ctx context.Context, status models.ListingStatus) ([]*models.Listing, error)
	Approve(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	Close(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	History(ctx context.Context, id uuid.UUID) ([]models.HistoryStatus, error)
	Trades(ctx context.Context) ([]*models.Trade, error)
}

// AdminSession открытая сессия администратора
type AdminSession struct {
	Backend
	User *models.User
	// Demo true, если сервер недоступен и работа идёт на локальных данных
	Demo bool
}

// Options параметры открытия сессии
type Options struct {
	// Token существующий токен администратора. Пустой токен означает демо-вход.
	Token        string
	DemoFallback bool
	Logger       *zap.Logger
}

// OpenAdminSession подключается к серверу. Если сервер недоступен и
// разрешён DemoFallback, сессия работает на локальном демо-наборе.
func OpenAdminSession(ctx context.Context, c *Client, opts Options) (*AdminSession, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	user, err := login(ctx, c, opts.Token)
	if err == nil {
		if user.Role != models.RoleAdmin {
			return nil, ErrNotAdmin
		}
		return &AdminSession{Backend: c, User: user}, nil
	}

	var transportErr *TransportError
	if !opts.DemoFallback || !errors.As(err, &transportErr) {
		return nil, err
	}

	log.Warn("Сервер недоступен, включён демо-режим", zap.Error(err))
	demo, err := NewDemoBackend()
	if err != nil {
		return nil, fmt.Errorf("demo backend: %w", err)
	}
	return &AdminSession{Backend: demo, User: demo.Admin(), Demo: true}, nil
}

func login(ctx context.Context, c *Client, token string) (*models.User, error) {
	if token == "" {
		s, err := c.DemoLogin(ctx, "Admin Console", models.RoleAdmin)
		if err != nil {
			return nil, err
		}
		return s.User, nil
	}
	c.SetToken(token)
	return c.Profile(ctx)
}
