package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/activity"
	"github.com/rajivgeraev/unlisted-api/internal/config"
	"github.com/rajivgeraev/unlisted-api/internal/directory"
	"github.com/rajivgeraev/unlisted-api/internal/market"
	"github.com/rajivgeraev/unlisted-api/internal/models"
	"github.com/rajivgeraev/unlisted-api/internal/store"
	"github.com/rajivgeraev/unlisted-api/internal/utils"
)

type apiClient struct {
	t   *testing.T
	app *fiber.App
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	log := zap.NewNop()
	cfg := &config.Config{JWTSecret: "secret", Storage: config.StorageMemory, DemoMode: true}

	st := store.NewMemoryStore()
	dir, err := directory.New(directory.DefaultCompanies())
	require.NoError(t, err)

	app := New(Deps{
		Config:    cfg,
		Logger:    log,
		Store:     st,
		Market:    market.New(st, activity.NewMemoryRecorder(), dir, log),
		Directory: dir,
		JWT:       utils.NewJWTService(cfg.JWTSecret, time.Hour),
	})
	return &apiClient{t: t, app: app}
}

func (a *apiClient) do(method, path, token string, body interface{}, out interface{}) int {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req)
	require.NoError(a.t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	if out != nil && resp.StatusCode < 300 && len(data) > 0 {
		require.NoError(a.t, json.Unmarshal(data, out), string(data))
	}
	return resp.StatusCode
}

func (a *apiClient) login(name, role string) (string, uuid.UUID) {
	a.t.Helper()
	var session struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	status := a.do(http.MethodPost, "/api/auth/demo", "", map[string]string{"name": name, "role": role}, &session)
	require.Equal(a.t, http.StatusOK, status)
	return session.Token, session.User.ID
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	var body map[string]interface{}
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/health", "", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSellListingNegotiation(t *testing.T) {
	api := newTestAPI(t)
	seller, _ := api.login("Asha", "user")
	buyer, buyerID := api.login("Vikram", "user")
	admin, _ := api.login("Ops", "admin")

	var l models.Listing
	status := api.do(http.MethodPost, "/api/listings", seller, map[string]interface{}{
		"isin": "INE721I01024", "price": "1800", "shares": 200,
	}, &l)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "National Stock Exchange of India", l.Company)
	assert.Equal(t, models.KindSell, l.Kind)

	var public struct {
		Listings []models.Listing `json:"listings"`
		Total    int              `json:"total"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/listings", "", nil, &public))
	assert.Equal(t, 1, public.Total)

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/requests", "", nil, &public))
	assert.Equal(t, 0, public.Total)

	base := "/api/listings/" + l.ID.String()
	assert.Equal(t, http.StatusForbidden,
		api.do(http.MethodPost, base+"/bids", seller, map[string]interface{}{"price": "1700", "quantity": 5}, nil))

	require.Equal(t, http.StatusOK,
		api.do(http.MethodPost, base+"/bids", buyer, map[string]interface{}{"price": "1700", "quantity": 5}, &l))
	require.Len(t, l.Bids, 1)
	bid := l.Bids[0]
	assert.Equal(t, buyerID, bid.BidderID)
	assert.Equal(t, "Vikram", bid.CounterpartyName)

	bidPath := base + "/bids/" + bid.ID.String()
	require.Equal(t, http.StatusOK,
		api.do(http.MethodPost, bidPath+"/counter", seller, map[string]string{"price": "1750"}, &l))
	assert.Equal(t, models.BidCounterOffered, l.Bids[0].Status)
	assert.Equal(t, models.PartySeller, l.Bids[0].CounterBy)

	require.Equal(t, http.StatusOK, api.do(http.MethodPost, bidPath+"/counter/accept", buyer, nil, &l))
	assert.Equal(t, models.BidCounterAcceptedByBuyer, l.Bids[0].Status)

	require.Equal(t, http.StatusOK, api.do(http.MethodPost, bidPath+"/counter/accept", seller, nil, &l))
	assert.Equal(t, models.BidBothAccepted, l.Bids[0].Status)
	assert.Equal(t, models.ListingPendingAdminApproval, l.Status)

	assert.Equal(t, http.StatusConflict,
		api.do(http.MethodPost, bidPath+"/counter", buyer, map[string]string{"price": "500"}, nil))

	var trades struct {
		Trades []models.Trade `json:"trades"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/trades", buyer, nil, &trades))
	require.Len(t, trades.Trades, 1)
	assert.Equal(t, "1750", trades.Trades[0].Price.String())

	adminPath := "/api/admin/listings/" + l.ID.String()
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, adminPath+"/approve", seller, nil, nil))

	require.Equal(t, http.StatusOK, api.do(http.MethodPost, adminPath+"/approve", admin, nil, &l))
	assert.Equal(t, models.ListingApproved, l.Status)

	require.Equal(t, http.StatusOK, api.do(http.MethodPost, adminPath+"/close", admin, nil, &l))
	assert.Equal(t, models.ListingClosed, l.Status)
	assert.NotNil(t, l.ClosedAt)

	assert.Equal(t, http.StatusConflict,
		api.do(http.MethodPost, base+"/bids", buyer, map[string]interface{}{"price": "1", "quantity": 1}, nil))

	var history struct {
		History []models.HistoryStatus `json:"history"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, adminPath+"/history", admin, nil, &history))
	assert.NotEmpty(t, history.History)

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/admin/trades?status=closed", admin, nil, &trades))
	assert.Len(t, trades.Trades, 1)
}

func TestBuyRequestOffers(t *testing.T) {
	api := newTestAPI(t)
	buyer, _ := api.login("Vikram", "user")
	seller, sellerID := api.login("Asha", "user")
	other, _ := api.login("Meera", "user")

	var r models.Listing
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/requests", buyer, map[string]interface{}{
		"company": "Chennai Super Kings", "price": "180", "shares": 1000,
	}, &r))
	assert.Equal(t, models.KindBuy, r.Kind)

	base := "/api/requests/" + r.ID.String()
	require.Equal(t, http.StatusOK,
		api.do(http.MethodPost, base+"/offers", seller, map[string]interface{}{"price": "190", "quantity": 500}, &r))
	require.Equal(t, http.StatusOK,
		api.do(http.MethodPost, base+"/offers", other, map[string]interface{}{"price": "200", "quantity": 100}, &r))
	require.Len(t, r.Bids, 2)

	offer := r.Bids[0]
	assert.Equal(t, sellerID, offer.BidderID)

	assert.Equal(t, http.StatusForbidden,
		api.do(http.MethodPost, base+"/offers/"+offer.ID.String()+"/accept", seller, nil, nil))

	require.Equal(t, http.StatusOK,
		api.do(http.MethodPost, base+"/offers/"+offer.ID.String()+"/accept", buyer, nil, &r))
	assert.Equal(t, models.BidAccepted, r.Bids[0].Status)
	assert.Equal(t, models.BidRejected, r.Bids[1].Status)
	assert.Equal(t, models.ListingPendingAdminApproval, r.Status)

	// Запрос не доступен через маршруты объявлений о продаже
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/listings/"+r.ID.String(), buyer, nil, nil))

	var mine struct {
		Listings []models.Listing `json:"listings"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/requests/my", buyer, nil, &mine))
	assert.Len(t, mine.Listings, 1)

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/requests/my?involved=true", other, nil, &mine))
	assert.Len(t, mine.Listings, 1)
}

func TestErrors(t *testing.T) {
	api := newTestAPI(t)
	user, _ := api.login("Asha", "user")

	assert.Equal(t, http.StatusUnauthorized,
		api.do(http.MethodPost, "/api/listings", "", map[string]interface{}{"company": "X"}, nil))
	assert.Equal(t, http.StatusBadRequest,
		api.do(http.MethodPost, "/api/listings", user, map[string]interface{}{"company": "X", "price": "0", "shares": 1}, nil))
	assert.Equal(t, http.StatusBadRequest,
		api.do(http.MethodGet, "/api/listings/not-a-uuid", user, nil, nil))
	assert.Equal(t, http.StatusNotFound,
		api.do(http.MethodGet, "/api/listings/"+uuid.NewString(), user, nil, nil))
	assert.Equal(t, http.StatusForbidden,
		api.do(http.MethodGet, "/api/admin/listings", user, nil, nil))

	var l models.Listing
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/listings", user,
		map[string]interface{}{"company": "X", "price": "10", "shares": 1}, &l))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost,
		"/api/listings/"+l.ID.String()+"/bids/"+uuid.NewString()+"/accept", user, nil, nil))
}

func TestCompanies(t *testing.T) {
	api := newTestAPI(t)
	admin, _ := api.login("Ops", "admin")
	user, _ := api.login("Asha", "user")

	var found struct {
		Companies []models.Company `json:"companies"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/companies?q=tata", "", nil, &found))
	require.Len(t, found.Companies, 1)
	assert.Equal(t, "INE976I01016", found.Companies[0].ISIN)

	body := map[string]string{"name": "Reliance Retail", "sector": "Retail", "price": "1400"}
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPut, "/api/admin/companies/INE01V301026", user, body, nil))

	var c models.Company
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/admin/companies/ine01v301026", admin, body, &c))
	assert.Equal(t, "INE01V301026", c.ISIN)

	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/companies/INE01V301026", "", nil, &c))
	assert.Equal(t, "Reliance Retail", c.Name)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, "/api/admin/companies/BAD", admin, body, nil))
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/admin/companies/INE01V301026", admin, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/companies/INE01V301026", "", nil, nil))
}
