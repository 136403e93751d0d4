package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const cacheEntriesTable = "cache_entries"

// SQLiteBackend stores values in a local SQLite file
type SQLiteBackend struct {
	db     *sqlx.DB
	logger ectologger.Logger
}

// NewSQLiteBackend opens (creating if needed) the database at path and
// applies the embedded schema migrations
func NewSQLiteBackend(path string, logger ectologger.Logger) (*SQLiteBackend, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite cache at %s: %w", path, err)
	}
	// one writer at a time; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)

	if err := migrateSQLite(db.DB, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Infof("Opened sqlite cache at %s", path)

	return &SQLiteBackend{db: db, logger: logger}, nil
}

func (b *SQLiteBackend) Name() string { return BackendSQLite }

func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("payload").From(cacheEntriesTable).Where(sb.Equal("cache_key", key))
	query, args := sb.Build()

	var value []byte
	if err := b.db.GetContext(ctx, &value, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return value, nil
}

func (b *SQLiteBackend) Set(ctx context.Context, key string, value []byte) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.ReplaceInto(cacheEntriesTable).Cols("cache_key", "payload").Values(key, value)
	query, args := ib.Build()

	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	db := sqlbuilder.SQLite.NewDeleteBuilder()
	db.DeleteFrom(cacheEntriesTable).Where(db.Equal("cache_key", key))
	query, args := db.Build()

	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
