package userstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/layer-3/hyperdash/core"
	"github.com/layer-3/hyperdash/ports"

	// Register the sqlite3 driver with database/sql.
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore is a SQLite-backed UserStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dsn and applies pending migrations.
func NewSQLiteStore(dsn string) (ports.UserStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*core.User, error) {
	return s.getUser(ctx, "SELECT id, email, created_at, exchange_keys_count, copy_subscriptions_count FROM users WHERE id = ?", id)
}

func (s *SQLiteStore) GetByWallet(ctx context.Context, address string) (*core.User, error) {
	return s.getUser(ctx, `
		SELECT u.id, u.email, u.created_at, u.exchange_keys_count, u.copy_subscriptions_count
		FROM users u JOIN wallets w ON w.user_id = u.id
		WHERE w.address = ?`, strings.ToLower(address))
}

func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.getUser(ctx, "SELECT id, email, created_at, exchange_keys_count, copy_subscriptions_count FROM users WHERE email = ?", strings.ToLower(email))
}

func (s *SQLiteStore) getUser(ctx context.Context, query string, arg string) (*core.User, error) {
	var (
		user  core.User
		email sql.NullString
	)

	row := s.db.QueryRowContext(ctx, query, arg)
	err := row.Scan(&user.ID, &email, &user.CreatedAt, &user.ExchangeKeysCount, &user.CopySubscriptionsCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	user.Email = email.String

	wallets, err := s.walletsFor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Wallets = wallets

	return &user, nil
}

func (s *SQLiteStore) walletsFor(ctx context.Context, userID string) ([]core.Wallet, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT address, chain, created_at FROM wallets WHERE user_id = ? ORDER BY created_at", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallets: %w", err)
	}
	defer rows.Close()

	var wallets []core.Wallet
	for rows.Next() {
		var w core.Wallet
		if err := rows.Scan(&w.Address, &w.Chain, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}

	return wallets, rows.Err()
}

func (s *SQLiteStore) Create(ctx context.Context, user *core.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var email interface{}
	if user.Email != "" {
		email = strings.ToLower(user.Email)
	}

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)",
		user.ID, email, createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	for _, w := range user.Wallets {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO wallets (address, chain, user_id, created_at) VALUES (?, ?, ?, ?)",
			strings.ToLower(w.Address), w.Chain, user.ID, w.CreatedAt); err != nil {
			if isUniqueViolation(err) {
				return core.ErrWalletLinked
			}
			return fmt.Errorf("failed to insert wallet: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LinkWallet(ctx context.Context, userID string, wallet core.Wallet) error {
	var owner string
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id FROM wallets WHERE address = ?", strings.ToLower(wallet.Address)).Scan(&owner)
	switch {
	case err == nil:
		if owner == userID {
			return nil
		}
		return core.ErrWalletLinked
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to query wallet owner: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO wallets (address, chain, user_id, created_at) VALUES (?, ?, ?, ?)",
		strings.ToLower(wallet.Address), wallet.Chain, userID, wallet.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to link wallet: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
