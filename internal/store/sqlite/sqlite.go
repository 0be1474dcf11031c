// Package sqlite provides on-disk persistence for the storefront using the
// pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"kelasku/backend/internal/domain"
	"kelasku/backend/internal/store"
)

// Store is safe for concurrent use. Writes are serialized through mu since
// SQLite allows a single writer.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates the database file if needed and ensures the schema exists.
// ":memory:" opens a shared in-memory database limited to one connection.
func Open(path string) (*Store, error) {
	connStr := path
	if path == ":memory:" {
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		price INTEGER NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		short_description TEXT NOT NULL DEFAULT '',
		full_description TEXT NOT NULL DEFAULT '',
		rating REAL NOT NULL DEFAULT 0,
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
		payload TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, state_key)
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

const productColumns = `id, name, price, image, short_description, full_description, rating, reviews, category, instructor, duration, level`

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Image, &p.ShortDescription, &p.FullDescription,
			&p.Rating, &p.Reviews, &p.Category, &p.Instructor, &p.Duration, &p.Level); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p domain.Product
	err := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id).Scan(
		&p.ID, &p.Name, &p.Price, &p.Image, &p.ShortDescription, &p.FullDescription,
		&p.Rating, &p.Reviews, &p.Category, &p.Instructor, &p.Duration, &p.Level)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// SeedProducts inserts products whose ids are not present yet. Duplicates are
// skipped via INSERT OR IGNORE.
func (s *Store) SeedProducts(ctx context.Context, products []domain.Product) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var offset int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) FROM products`).Scan(&offset); err != nil {
		return 0, fmt.Errorf("read position: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO products (id, position, name, price, image, short_description, full_description, rating, reviews, category, instructor, duration, level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	added := 0
	for i, p := range products {
		if p.ID < 1 || strings.TrimSpace(p.Name) == "" {
			return 0, store.ErrInvalidInput
		}
		res, err := stmt.ExecContext(ctx, p.ID, offset+i+1, p.Name, p.Price, p.Image, p.ShortDescription,
			p.FullDescription, p.Rating, p.Reviews, p.Category, p.Instructor, p.Duration, p.Level)
		if err != nil {
			return 0, fmt.Errorf("insert product %d: %w", p.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
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
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_state WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear user state: %w", err)
	}
	return nil
}

func (s *Store) getState(ctx context.Context, userID string, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM user_state WHERE user_id = ? AND state_key = ?
	`, userID, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(payload), nil
}

func (s *Store) putState(ctx context.Context, userID string, key string, value any) error {
	if userID == "" {
		return store.ErrInvalidInput
	}
	payload, err := store.EncodeState(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_state (user_id, state_key, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, state_key)
		DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, userID, key, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if email == "" || user.ID == "" || user.Password == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO users (id, name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID, user.Name, email, user.Password, user.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrConflict
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		user      domain.UserAccount
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?
	`, strings.ToLower(strings.TrimSpace(email))).Scan(&user.ID, &user.Name, &user.Email, &user.Password, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, created_at FROM users ORDER BY email
	`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var (
			user      domain.UserAccount
			createdAt string
		)
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Password, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		user.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		users = append(users, user)
	}
	return users, rows.Err()
}
