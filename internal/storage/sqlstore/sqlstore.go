package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/username/shift-calendar/migrator/mysql"
	"github.com/username/shift-calendar/migrator/sqlite"
)

// Supported drivers
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

type dialect struct {
	migrate func(*sql.DB) error
	upsert  string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		migrate: sqlite.Migrate,
		upsert: `INSERT INTO kv_store (store_key, store_value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(store_key) DO UPDATE SET store_value = excluded.store_value, updated_at = CURRENT_TIMESTAMP`,
	},
	DriverMySQL: {
		migrate: mysql.Migrate,
		upsert: `INSERT INTO kv_store (store_key, store_value) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE store_value = VALUES(store_value)`,
	},
}

// Store is a storage.Store over a single kv_store table
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

// Open connects to the database and applies the embedded migrations
func Open(driver, dsn string, logger *zap.Logger) (*Store, error) {
	const op = "sqlstore.Open"

	if _, ok := dialects[driver]; !ok {
		return nil, fmt.Errorf("%s: unsupported driver %q", op, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database: %w", op, err)
	}

	if driver == DriverSQLite {
		// every pooled connection to ":memory:" would be a separate database
		db.SetMaxOpenConns(1)
	}

	s, err := New(db, driver, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// New wraps an open database and applies the embedded migrations
func New(db *sql.DB, driver string, logger *zap.Logger) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	if err := d.migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database ready", zap.String("driver", driver))

	return &Store{db: db, dialect: d, logger: logger}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Get implements storage.Store
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "sqlstore.Get"

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT store_value FROM kv_store WHERE store_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return value, true, nil
}

// Set implements storage.Store
func (s *Store) Set(ctx context.Context, key, value string) error {
	const op = "sqlstore.Set"

	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete implements storage.Store
func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "sqlstore.Delete"

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE store_key = ?`, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Keys implements storage.Store
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	const op = "sqlstore.Keys"

	rows, err := s.db.QueryContext(ctx,
		`SELECT store_key FROM kv_store WHERE substr(store_key, 1, ?) = ? ORDER BY store_key`,
		len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return keys, nil
}
