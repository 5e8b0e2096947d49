// Package client REST-клиент API площадки для консоли администратора.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rajivgeraev/unlisted-api/internal/models"
)

// APIError ошибка, возвращённая сервером
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable сообщает, имеет ли смысл повторить запрос
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client клиент REST API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *zap.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// Option настраивает Client
type Option func(*Client)

// WithHTTPClient задаёт HTTP-клиент
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetries задаёт число повторов и начальную паузу
func WithRetries(max int, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger задаёт логгер
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New создаёт клиента
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		log:          zap.NewNop(),
		maxRetries:   2,
		retryBackoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken задаёт токен сессии
func (c *Client) SetToken(token string) {
	c.token = token
}

// Session ответ авторизации
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// DemoLogin открывает демо-сессию с указанной ролью
func (c *Client) DemoLogin(ctx context.Context, name string, role models.Role) (*Session, error) {
	var s Session
	body := map[string]string{"name": name, "role": string(role)}
	if err := c.do(ctx, http.MethodPost, "/api/auth/demo", nil, body, &s); err != nil {
		return nil, err
	}
	c.token = s.Token
	return &s, nil
}

// Profile возвращает текущего пользователя
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

type listingsResponse struct {
	Listings []*models.Listing `json:"listings"`
	Total    int               `json:"total"`
}

// Listings возвращает объявления для администратора
func (c *Client) Listings(ctx context.Context, status models.ListingStatus) ([]*models.Listing, error) {
	q := url.Values{}
	q.Set("limit", "100")
	if status != "" {
		q.Set("status", string(status))
	}
	var resp listingsResponse
	if err := c.do(ctx, http.MethodGet, "/api/admin/listings", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Listings, nil
}

// Approve одобряет сделку по объявлению
func (c *Client) Approve(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return c.transition(ctx, id, "approve")
}

// Close закрывает объявление
func (c *Client) Close(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return c.transition(ctx, id, "close")
}

func (c *Client) transition(ctx context.Context, id uuid.UUID, action string) (*models.Listing, error) {
	var l models.Listing
	if err := c.do(ctx, http.MethodPost, "/api/admin/listings/"+id.String()+"/"+action, nil, nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// History возвращает журнал статусов объявления
func (c *Client) History(ctx context.Context, id uuid.UUID) ([]models.HistoryStatus, error) {
	var resp struct {
		History []models.HistoryStatus `json:"history"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/admin/listings/"+id.String()+"/history", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

// Trades возвращает все сделки
func (c *Client) Trades(ctx context.Context) ([]*models.Trade, error) {
	var resp struct {
		Trades []*models.Trade `json:"trades"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/admin/trades", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Trades, nil
}

// do выполняет запрос. GET повторяется при временных ошибках сервера.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.maxRetries
	}

	backoff := c.retryBackoff
	var data []byte
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			c.log.Debug("Повтор запроса", zap.Int("attempt", attempt), zap.String("path", path))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		data, err = c.send(ctx, method, path, query, payload)
		if apiErr, ok := err.(*APIError); err == nil || !ok || !apiErr.IsRetryable() {
			break
		}
	}
	if err != nil {
		return err
	}

	if result == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return data, nil
}

// TransportError сервер недоступен
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "backend unreachable: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
