package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajivgeraev/unlisted-api/internal/models"
)

// PostgresStore хранит объявления и сделки как JSONB-документы в PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore создаёт хранилище поверх пула соединений
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) CreateListing(ctx context.Context, l *models.Listing) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("ошибка сериализации объявления: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO listings (id, kind, owner_id, status, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, l.ID, l.Kind, l.OwnerID, l.Status, data, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка вставки объявления: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM listings WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения объявления: %w", err)
	}
	return decodeListing(data)
}

func (s *PostgresStore) ListListings(ctx context.Context, f ListingFilter) ([]*models.Listing, int, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Kind != "" {
		conds = append(conds, "kind = "+arg(f.Kind))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if f.OwnerID != uuid.Nil {
		conds = append(conds, "owner_id = "+arg(f.OwnerID))
	}
	if f.Participant != uuid.Nil {
		p := arg(f.Participant)
		conds = append(conds, fmt.Sprintf(
			"(owner_id = %s OR data->'bids' @> jsonb_build_array(jsonb_build_object('bidder_id', %s::text)))", p, p))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM listings "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта объявлений: %w", err)
	}

	query := "SELECT data FROM listings " + where + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка запроса объявлений: %w", err)
	}
	defer rows.Close()

	listings := []*models.Listing{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования объявления: %w", err)
		}
		l, err := decodeListing(data)
		if err != nil {
			return nil, 0, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ошибка чтения объявлений: %w", err)
	}
	return listings, total, nil
}

// UpdateListing блокирует строку объявления на время применения fn.
// Сделка читается и сохраняется в той же транзакции.
func (s *PostgresStore) UpdateListing(ctx context.Context, id uuid.UUID, fn ListingUpdate) (*models.Listing, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var data []byte
	err = tx.QueryRow(ctx, `SELECT data FROM listings WHERE id = $1 FOR UPDATE`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения объявления: %w", err)
	}

	l, err := decodeListing(data)
	if err != nil {
		return nil, err
	}

	trade, err := getTrade(ctx, tx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	updated, err := fn(l, trade)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации объявления: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE listings SET status = $1, data = $2, updated_at = $3
		WHERE id = $4
	`, l.Status, data, l.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления объявления: %w", err)
	}

	if updated != nil {
		if err := upsertTrade(ctx, tx, updated); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return l, nil
}

// querier общий интерфейс пула и транзакции
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) UpsertTrade(ctx context.Context, t *models.Trade) error {
	return upsertTrade(ctx, s.pool, t)
}

func upsertTrade(ctx context.Context, q querier, t *models.Trade) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сделки: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO trades (id, listing_id, buyer_id, seller_id, status, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (listing_id) DO UPDATE
		SET id = EXCLUDED.id, buyer_id = EXCLUDED.buyer_id, seller_id = EXCLUDED.seller_id,
			status = EXCLUDED.status, data = EXCLUDED.data, created_at = EXCLUDED.created_at
	`, t.ID, t.ListingID, t.BuyerID, t.SellerID, t.Status, data, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения сделки: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTradeByListing(ctx context.Context, listingID uuid.UUID) (*models.Trade, error) {
	return getTrade(ctx, s.pool, listingID)
}

func getTrade(ctx context.Context, q querier, listingID uuid.UUID) (*models.Trade, error) {
	var data []byte
	err := q.QueryRow(ctx, `SELECT data FROM trades WHERE listing_id = $1`, listingID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения сделки: %w", err)
	}

	var t models.Trade
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("ошибка разбора сделки: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) ListTrades(ctx context.Context, f TradeFilter) ([]*models.Trade, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT data FROM trades
		WHERE ($1::uuid IS NULL OR buyer_id = $1 OR seller_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`, nullableUUID(f.UserID), string(f.Status))
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса сделок: %w", err)
	}
	defer rows.Close()

	trades := []*models.Trade{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("ошибка сканирования сделки: %w", err)
		}
		var t models.Trade
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("ошибка разбора сделки: %w", err)
		}
		trades = append(trades, &t)
	}
	return trades, rows.Err()
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, telegram_id, username, first_name, last_name, photo_url, role, is_demo, created_at, last_login_at)
		VALUES ($1, NULLIF($2, 0), $3, $4, $5, $6, $7, $8, $9, $10)
	`, u.ID, u.TelegramID, u.Username, u.FirstName, u.LastName, u.PhotoURL, u.Role, u.IsDemo, u.CreatedAt, u.LastLoginAt)
	if err != nil {
		return fmt.Errorf("ошибка при создании пользователя: %w", err)
	}
	return nil
}

const userColumns = `id, COALESCE(telegram_id, 0), username, first_name, last_name, photo_url, role, is_demo, created_at, last_login_at`

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UpsertTelegramUser(ctx context.Context, u *models.User) (*models.User, error) {
	id := u.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	out, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (id, telegram_id, username, first_name, last_name, photo_url, role, is_demo, created_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, NOW(), NOW())
		ON CONFLICT (telegram_id) DO UPDATE
		SET username = EXCLUDED.username, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			photo_url = EXCLUDED.photo_url, role = EXCLUDED.role, last_login_at = NOW()
		RETURNING `+userColumns,
		id, u.TelegramID, u.Username, u.FirstName, u.LastName, u.PhotoURL, u.Role))
	if err != nil {
		return nil, fmt.Errorf("ошибка при сохранении Telegram пользователя: %w", err)
	}
	return out, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
		&u.PhotoURL, &u.Role, &u.IsDemo, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func decodeListing(data []byte) (*models.Listing, error) {
	var l models.Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("ошибка разбора объявления: %w", err)
	}
	if l.Bids == nil {
		l.Bids = []models.Bid{}
	}
	return &l, nil
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
