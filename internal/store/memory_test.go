package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/unlisted-api/internal/models"
)

func newListing(kind models.ListingKind, owner uuid.UUID, created time.Time) *models.Listing {
	return &models.Listing{
		ID:        uuid.New(),
		Kind:      kind,
		Company:   "Acme",
		Price:     decimal.NewFromInt(100),
		Shares:    10,
		OwnerID:   owner,
		Status:    models.ListingActive,
		Bids:      []models.Bid{},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestMemoryStore_CreateAndGetReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	l := newListing(models.KindSell, uuid.New(), time.Now())
	require.NoError(t, s.CreateListing(ctx, l))

	l.Company = "mutated"
	got, err := s.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Company)

	got.Bids = append(got.Bids, models.Bid{ID: uuid.New()})
	again, err := s.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Bids)

	_, err = s.GetListing(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListListings(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	owner := uuid.New()
	bidder := uuid.New()
	base := time.Now()

	a := newListing(models.KindSell, owner, base)
	b := newListing(models.KindSell, uuid.New(), base.Add(time.Minute))
	b.Bids = append(b.Bids, models.Bid{ID: uuid.New(), BidderID: bidder})
	c := newListing(models.KindBuy, owner, base.Add(2*time.Minute))
	c.Status = models.ListingClosed

	for _, l := range []*models.Listing{a, b, c} {
		require.NoError(t, s.CreateListing(ctx, l))
	}

	all, total, err := s.ListListings(ctx, ListingFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, c.ID, all[0].ID)

	sells, _, err := s.ListListings(ctx, ListingFilter{Kind: models.KindSell, Status: models.ListingActive})
	require.NoError(t, err)
	assert.Len(t, sells, 2)

	mine, _, err := s.ListListings(ctx, ListingFilter{OwnerID: owner})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	involved, _, err := s.ListListings(ctx, ListingFilter{Participant: bidder})
	require.NoError(t, err)
	require.Len(t, involved, 1)
	assert.Equal(t, b.ID, involved[0].ID)

	page, total, err := s.ListListings(ctx, ListingFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, b.ID, page[0].ID)

	empty, _, err := s.ListListings(ctx, ListingFilter{Offset: 10})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMemoryStore_UpdateListing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	l := newListing(models.KindSell, uuid.New(), time.Now())
	require.NoError(t, s.CreateListing(ctx, l))

	tradeID := uuid.New()
	updated, err := s.UpdateListing(ctx, l.ID, func(l *models.Listing, current *models.Trade) (*models.Trade, error) {
		assert.Nil(t, current)
		l.Status = models.ListingPendingAdminApproval
		return &models.Trade{ID: tradeID, ListingID: l.ID, Status: models.TradePendingAdminApproval}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.ListingPendingAdminApproval, updated.Status)

	trade, err := s.GetTradeByListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, tradeID, trade.ID)

	boom := errors.New("boom")
	_, err = s.UpdateListing(ctx, l.ID, func(l *models.Listing, current *models.Trade) (*models.Trade, error) {
		require.NotNil(t, current)
		assert.Equal(t, tradeID, current.ID)
		l.Status = models.ListingClosed
		current.Status = models.TradeClosed
		return current, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingPendingAdminApproval, got.Status)
	trade, err = s.GetTradeByListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TradePendingAdminApproval, trade.Status)

	_, err = s.UpdateListing(ctx, uuid.New(), func(*models.Listing, *models.Trade) (*models.Trade, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateListingSerializes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	l := newListing(models.KindSell, uuid.New(), time.Now())
	require.NoError(t, s.CreateListing(ctx, l))

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateListing(ctx, l.ID, func(l *models.Listing, _ *models.Trade) (*models.Trade, error) {
				l.Bids = append(l.Bids, models.Bid{ID: uuid.New()})
				return nil, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Len(t, got.Bids, workers)
}

func TestMemoryStore_Trades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	buyer, seller := uuid.New(), uuid.New()
	listingID := uuid.New()

	first := &models.Trade{ID: uuid.New(), ListingID: listingID, BuyerID: buyer, SellerID: seller, Status: models.TradePendingAdminApproval}
	require.NoError(t, s.UpsertTrade(ctx, first))

	second := &models.Trade{ID: uuid.New(), ListingID: listingID, BuyerID: uuid.New(), SellerID: seller, Status: models.TradePendingAdminApproval}
	require.NoError(t, s.UpsertTrade(ctx, second))

	got, err := s.GetTradeByListing(ctx, listingID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	byBuyer, err := s.ListTrades(ctx, TradeFilter{UserID: buyer})
	require.NoError(t, err)
	assert.Empty(t, byBuyer)

	bySeller, err := s.ListTrades(ctx, TradeFilter{UserID: seller, Status: models.TradePendingAdminApproval})
	require.NoError(t, err)
	assert.Len(t, bySeller, 1)

	_, err = s.GetTradeByListing(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TradesAreCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	closedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	listingID := uuid.New()
	trade := &models.Trade{ID: uuid.New(), ListingID: listingID, Status: models.TradeClosed, ClosedAt: &closedAt}
	require.NoError(t, s.UpsertTrade(ctx, trade))

	*trade.ClosedAt = closedAt.Add(time.Hour)
	got, err := s.GetTradeByListing(ctx, listingID)
	require.NoError(t, err)
	require.NotNil(t, got.ClosedAt)
	assert.Equal(t, closedAt, *got.ClosedAt)

	*got.ClosedAt = closedAt.Add(2 * time.Hour)
	listed, err := s.ListTrades(ctx, TradeFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, closedAt, *listed[0].ClosedAt)

	*listed[0].ClosedAt = closedAt.Add(3 * time.Hour)
	again, err := s.GetTradeByListing(ctx, listingID)
	require.NoError(t, err)
	assert.Equal(t, closedAt, *again.ClosedAt)
}

func TestMemoryStore_UpsertTelegramUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	created, err := s.UpsertTelegramUser(ctx, &models.User{TelegramID: 42, FirstName: "Ravi", Role: models.RoleUser})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	updated, err := s.UpsertTelegramUser(ctx, &models.User{TelegramID: 42, FirstName: "Ravi K", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Ravi K", updated.FirstName)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	got, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)

	_, err = s.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
