package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/unlisted-api/internal/models"
)

// MemoryStore хранит данные в памяти процесса
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[uuid.UUID]*models.Listing
	trades   map[uuid.UUID]*models.Trade // listingID -> trade
	users    map[uuid.UUID]*models.User
}

// NewMemoryStore создаёт пустое хранилище
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings: make(map[uuid.UUID]*models.Listing),
		trades:   make(map[uuid.UUID]*models.Trade),
		users:    make(map[uuid.UUID]*models.User),
	}
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) CreateListing(_ context.Context, l *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[l.ID] = l.Clone()
	return nil
}

func (s *MemoryStore) GetListing(_ context.Context, id uuid.UUID) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return l.Clone(), nil
}

// ListListings возвращает объявления по фильтру, новые первыми, и общее количество
func (s *MemoryStore) ListListings(_ context.Context, f ListingFilter) ([]*models.Listing, int, error) {
	s.mu.RLock()
	out := []*models.Listing{}
	for _, l := range s.listings {
		if f.Match(l) {
			out = append(out, l.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	total := len(out)
	return paginate(out, f.Limit, f.Offset), total, nil
}

func (s *MemoryStore) UpdateListing(_ context.Context, id uuid.UUID, fn ListingUpdate) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	var trade *models.Trade
	if t, ok := s.trades[id]; ok {
		trade = t.Clone()
	}

	working := current.Clone()
	updated, err := fn(working, trade)
	if err != nil {
		return nil, err
	}
	s.listings[id] = working
	if updated != nil {
		s.trades[id] = updated.Clone()
	}
	return working.Clone(), nil
}

func (s *MemoryStore) UpsertTrade(_ context.Context, t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades[t.ListingID] = t.Clone()
	return nil
}

func (s *MemoryStore) GetTradeByListing(_ context.Context, listingID uuid.UUID) (*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trades[listingID]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

func (s *MemoryStore) ListTrades(_ context.Context, f TradeFilter) ([]*models.Trade, error) {
	s.mu.RLock()
	out := []*models.Trade{}
	for _, t := range s.trades {
		if f.Match(t) {
			out = append(out, t.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) UpsertTelegramUser(_ context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, existing := range s.users {
		if existing.TelegramID != 0 && existing.TelegramID == u.TelegramID {
			existing.Username = u.Username
			existing.FirstName = u.FirstName
			existing.LastName = u.LastName
			existing.PhotoURL = u.PhotoURL
			existing.Role = u.Role
			existing.LastLoginAt = now
			cp := *existing
			return &cp, nil
		}
	}

	cp := *u
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	cp.CreatedAt = now
	cp.LastLoginAt = now
	s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}
