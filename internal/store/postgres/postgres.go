package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"kelasku/backend/internal/domain"
	"kelasku/backend/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	price BIGINT NOT NULL,
	image TEXT NOT NULL DEFAULT '',
	short_description TEXT NOT NULL DEFAULT '',
	full_description TEXT NOT NULL DEFAULT '',
	rating DOUBLE PRECISION NOT NULL DEFAULT 0,
	reviews INTEGER NOT NULL DEFAULT 0,
	category TEXT NOT NULL,
	instructor TEXT NOT NULL DEFAULT '',
	duration TEXT NOT NULL DEFAULT '',
	level TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_products_position ON products(position);

CREATE TABLE IF NOT EXISTS user_state (
	user_id TEXT NOT NULL,
	state_key TEXT NOT NULL,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, state_key)
);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const productColumns = `id, name, price, image, short_description, full_description, rating, reviews, category, instructor, duration, level`

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) SeedProducts(ctx context.Context, products []domain.Product) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var offset int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) FROM products`).Scan(&offset); err != nil {
		return 0, err
	}

	added := 0
	for i, p := range products {
		if p.ID < 1 || strings.TrimSpace(p.Name) == "" {
			return 0, store.ErrInvalidInput
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, position, name, price, image, short_description, full_description, rating, reviews, category, instructor, duration, level)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			ON CONFLICT (id) DO NOTHING
		`, p.ID, offset+i+1, p.Name, p.Price, p.Image, p.ShortDescription, p.FullDescription, p.Rating, p.Reviews, p.Category, p.Instructor, p.Duration, p.Level)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

func (s *Store) GetBehavior(ctx context.Context, userID string) (*domain.BehaviorProfile, error) {
	payload, err := s.getState(ctx, userID, store.StateKeyBehavior)
	if err != nil {
		return nil, err
	}
	return store.DecodeBehavior(payload)
}

func (s *Store) PutBehavior(ctx context.Context, userID string, profile domain.BehaviorProfile) error {
	return s.putState(ctx, userID, store.StateKeyBehavior, profile)
}

func (s *Store) GetHistory(ctx context.Context, userID string) ([]domain.ViewHistoryEntry, error) {
	payload, err := s.getState(ctx, userID, store.StateKeyHistory)
	if err != nil {
		return nil, err
	}
	return store.DecodeHistory(payload)
}

func (s *Store) PutHistory(ctx context.Context, userID string, entries []domain.ViewHistoryEntry) error {
	return s.putState(ctx, userID, store.StateKeyHistory, entries)
}

func (s *Store) GetFavorites(ctx context.Context, userID string) ([]int, error) {
	payload, err := s.getState(ctx, userID, store.StateKeyFavorites)
	if err != nil {
		return nil, err
	}
	return store.DecodeFavorites(payload)
}

func (s *Store) PutFavorites(ctx context.Context, userID string, productIDs []int) error {
	return s.putState(ctx, userID, store.StateKeyFavorites, productIDs)
}

func (s *Store) GetCart(ctx context.Context, userID string) ([]domain.CartItem, error) {
	payload, err := s.getState(ctx, userID, store.StateKeyCart)
	if err != nil {
		return nil, err
	}
	return store.DecodeCart(payload)
}

func (s *Store) PutCart(ctx context.Context, userID string, items []domain.CartItem) error {
	return s.putState(ctx, userID, store.StateKeyCart, items)
}

func (s *Store) ClearUserState(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user_state WHERE user_id = $1`, userID)
	return err
}

func (s *Store) getState(ctx context.Context, userID string, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM user_state WHERE user_id = $1 AND state_key = $2
	`, userID, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payload, nil
}

func (s *Store) putState(ctx context.Context, userID string, key string, value any) error {
	if userID == "" {
		return store.ErrInvalidInput
	}
	payload, err := store.EncodeState(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_state (user_id, state_key, payload, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, state_key)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
	`, userID, key, string(payload))
	return err
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if email == "" || user.ID == "" || user.Password == "" {
		return store.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.ID, user.Name, email, user.Password, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))).Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users
		ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Image, &p.ShortDescription, &p.FullDescription,
		&p.Rating, &p.Reviews, &p.Category, &p.Instructor, &p.Duration, &p.Level)
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
