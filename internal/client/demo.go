package client

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/activity"
	"github.com/rajivgeraev/unlisted-api/internal/directory"
	"github.com/rajivgeraev/unlisted-api/internal/market"
	"github.com/rajivgeraev/unlisted-api/internal/models"
	"github.com/rajivgeraev/unlisted-api/internal/store"
)

// DemoBackend локальная площадка в памяти с заранее разыгранными переговорами
type DemoBackend struct {
	market *market.Market
	admin  *models.User
}

// NewDemoBackend создаёт демо-площадку
func NewDemoBackend() (*DemoBackend, error) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	dir, err := directory.New(directory.DefaultCompanies())
	if err != nil {
		return nil, err
	}

	d := &DemoBackend{
		market: market.New(st, activity.NewMemoryRecorder(), dir, zap.NewNop()),
	}

	users := map[string]*models.User{}
	for _, u := range []struct {
		name string
		role models.Role
	}{
		{"Asha Mehta", models.RoleUser},
		{"Vikram Rao", models.RoleUser},
		{"Meera Iyer", models.RoleUser},
		{"Demo Admin", models.RoleAdmin},
	} {
		now := time.Now()
		user := &models.User{ID: uuid.New(), FirstName: u.name, Role: u.role, IsDemo: true, CreatedAt: now, LastLoginAt: now}
		if err := st.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		users[u.name] = user
	}
	d.admin = users["Demo Admin"]

	if err := d.seed(ctx, users); err != nil {
		return nil, err
	}
	return d, nil
}

func actorOf(u *models.User) market.Actor {
	return market.Actor{ID: u.ID, Role: u.Role}
}

// seed разыгрывает несколько переговоров, чтобы в очереди были все статусы
func (d *DemoBackend) seed(ctx context.Context, users map[string]*models.User) error {
	asha := actorOf(users["Asha Mehta"])
	vikram := actorOf(users["Vikram Rao"])
	meera := actorOf(users["Meera Iyer"])
	admin := actorOf(d.admin)

	price := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

	// Принятая ставка: ждёт одобрения
	nse, err := d.market.CreateListing(ctx, asha, models.KindSell, market.ListingRequest{ISIN: "INE721I01024", Price: price(1850), Shares: 200})
	if err != nil {
		return err
	}
	l, err := d.market.PlaceBid(ctx, vikram, nse.ID, market.BidRequest{Price: price(1800), Quantity: 100})
	if err != nil {
		return err
	}
	if _, err := d.market.PlaceBid(ctx, meera, nse.ID, market.BidRequest{Price: price(1780), Quantity: 50}); err != nil {
		return err
	}
	if _, err := d.market.AcceptBid(ctx, asha, nse.ID, l.Bids[0].ID); err != nil {
		return err
	}

	// Запрос на покупку, согласованный через встречное предложение
	tata, err := d.market.CreateListing(ctx, vikram, models.KindBuy, market.ListingRequest{ISIN: "INE976I01016", Price: price(900), Shares: 500})
	if err != nil {
		return err
	}
	l, err = d.market.PlaceBid(ctx, asha, tata.ID, market.BidRequest{Price: price(950), Quantity: 500})
	if err != nil {
		return err
	}
	offer := l.Bids[0].ID
	if _, err := d.market.CounterOffer(ctx, vikram, tata.ID, offer, price(925)); err != nil {
		return err
	}
	if _, err := d.market.AcceptCounterOffer(ctx, asha, tata.ID, offer); err != nil {
		return err
	}
	if _, err := d.market.AcceptCounterOffer(ctx, vikram, tata.ID, offer); err != nil {
		return err
	}

	// Одобренная сделка
	hdb, err := d.market.CreateListing(ctx, meera, models.KindSell, market.ListingRequest{ISIN: "INE0BS701011", Price: price(1120), Shares: 80})
	if err != nil {
		return err
	}
	l, err = d.market.PlaceBid(ctx, vikram, hdb.ID, market.BidRequest{Price: price(1100), Quantity: 80})
	if err != nil {
		return err
	}
	if _, err := d.market.AcceptBid(ctx, meera, hdb.ID, l.Bids[0].ID); err != nil {
		return err
	}
	if _, err := d.market.Approve(ctx, admin, hdb.ID); err != nil {
		return err
	}

	// Активное объявление с открытым встречным предложением
	csk, err := d.market.CreateListing(ctx, meera, models.KindSell, market.ListingRequest{ISIN: "INE01NB01019", Price: price(190), Shares: 1000})
	if err != nil {
		return err
	}
	l, err = d.market.PlaceBid(ctx, asha, csk.ID, market.BidRequest{Price: price(175), Quantity: 400})
	if err != nil {
		return err
	}
	_, err = d.market.CounterOffer(ctx, meera, csk.ID, l.Bids[0].ID, price(185))
	return err
}

// Admin возвращает демо-администратора
func (d *DemoBackend) Admin() *models.User {
	return d.admin
}

func (d *DemoBackend) Listings(ctx context.Context, status models.ListingStatus) ([]*models.Listing, error) {
	items, _, err := d.market.List(ctx, store.ListingFilter{Status: status})
	return items, err
}

func (d *DemoBackend) Approve(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return d.market.Approve(ctx, actorOf(d.admin), id)
}

func (d *DemoBackend) Close(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return d.market.Close(ctx, actorOf(d.admin), id)
}

func (d *DemoBackend) History(ctx context.Context, id uuid.UUID) ([]models.HistoryStatus, error) {
	return d.market.History(ctx, id)
}

func (d *DemoBackend) Trades(ctx context.Context) ([]*models.Trade, error) {
	return d.market.Trades(ctx, actorOf(d.admin), "")
}
