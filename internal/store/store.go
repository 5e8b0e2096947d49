// Package store хранит объявления, сделки и пользователей.
// MemoryStore используется по умолчанию, PostgresStore включается через STORAGE=postgres.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/rajivgeraev/unlisted-api/internal/models"
)

var ErrNotFound = errors.New("not found")

// ListingFilter параметры выборки объявлений. Пустые поля не фильтруют.
type ListingFilter struct {
	Kind        models.ListingKind
	Status      models.ListingStatus
	OwnerID     uuid.UUID
	Participant uuid.UUID // владелец или автор любой ставки
	Limit       int
	Offset      int
}

// Match проверяет объявление на соответствие фильтру
func (f ListingFilter) Match(l *models.Listing) bool {
	if f.Kind != "" && l.Kind != f.Kind {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.OwnerID != uuid.Nil && l.OwnerID != f.OwnerID {
		return false
	}
	if f.Participant != uuid.Nil && !l.HasParticipant(f.Participant) {
		return false
	}
	return true
}

// TradeFilter параметры выборки сделок
type TradeFilter struct {
	UserID uuid.UUID
	Status models.TradeStatus
}

// Match проверяет сделку на соответствие фильтру
func (f TradeFilter) Match(t *models.Trade) bool {
	if f.UserID != uuid.Nil && !t.InvolvesUser(f.UserID) {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}

// ListingUpdate изменяет объявление под блокировкой. trade содержит текущую
// сделку по объявлению или nil. Если функция вернула сделку, она сохраняется
// вместе с объявлением.
type ListingUpdate func(l *models.Listing, trade *models.Trade) (*models.Trade, error)

// ListingStore хранилище объявлений и запросов
type ListingStore interface {
	CreateListing(ctx context.Context, l *models.Listing) error
	GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListListings(ctx context.Context, f ListingFilter) ([]*models.Listing, int, error)
	// UpdateListing загружает объявление и его сделку, применяет fn и сохраняет
	// результат атомарно. Если fn вернула ошибку, ничего не сохраняется.
	UpdateListing(ctx context.Context, id uuid.UUID, fn ListingUpdate) (*models.Listing, error)
}

// TradeStore хранилище сделок, не более одной сделки на объявление
type TradeStore interface {
	UpsertTrade(ctx context.Context, t *models.Trade) error
	GetTradeByListing(ctx context.Context, listingID uuid.UUID) (*models.Trade, error)
	ListTrades(ctx context.Context, f TradeFilter) ([]*models.Trade, error)
}

// UserStore хранилище пользователей
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UpsertTelegramUser создаёт пользователя по telegram_id или обновляет профиль и время входа
	UpsertTelegramUser(ctx context.Context, u *models.User) (*models.User, error)
}

// Store объединяет все хранилища
type Store interface {
	ListingStore
	TradeStore
	UserStore
	Close()
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
