// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package sqlstore contains an SQL-backed implementation of the interfaces in the store package.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.mau.fi/util/dbutil"
	_ "modernc.org/sqlite"

	"go.mau.fi/msgbackup/store"
	"go.mau.fi/msgbackup/store/sqlstore/upgrades"
	waLog "go.mau.fi/msgbackup/util/log"
)

var (
	ErrUnsupportedDialect = errors.New("unsupported database dialect")
	ErrNotFound           = errors.New("row not found")
)

// Container is a wrapper for a SQL database that implements every store interface.
type Container struct {
	db  *dbutil.Database
	log waLog.Logger
}

var (
	_ store.RecipientStore           = (*Container)(nil)
	_ store.GroupStore               = (*Container)(nil)
	_ store.ThreadStore              = (*Container)(nil)
	_ store.InteractionStore         = (*Container)(nil)
	_ store.CallRecordStore          = (*Container)(nil)
	_ store.CallLinkRecordStore      = (*Container)(nil)
	_ store.StickerPackStore         = (*Container)(nil)
	_ store.StickerPackDownloadStore = (*Container)(nil)
	_ store.AttachmentDownloadStore  = (*Container)(nil)
	_ store.KeyValueStore            = (*Container)(nil)
	_ store.Transactor               = (*Container)(nil)
)

// driverName maps a dialect to the database/sql driver registered for it.
func driverName(dialect string) (driver, normalizedDialect string, err error) {
	switch dialect {
	case "postgres", "pgx":
		return "pgx", "postgres", nil
	case "sqlite", "sqlite3":
		return "sqlite", "sqlite3", nil
	default:
		return "", "", fmt.Errorf("%w %q", ErrUnsupportedDialect, dialect)
	}
}

// New connects to the given SQL database and wraps it in a Container.
//
// Only PostgreSQL (dialect "postgres", using pgx) and SQLite (dialect "sqlite", using modernc.org/sqlite)
// are supported. When using SQLite, it's strongly recommended to enable foreign keys by adding
// `?_pragma=foreign_keys(1)` to the address.
//
//	container, err := sqlstore.New(ctx, "sqlite", "file:backup.db?_pragma=foreign_keys(1)", nil)
func New(ctx context.Context, dialect, address string, log waLog.Logger) (*Container, error) {
	driver, normalizedDialect, err := driverName(dialect)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, address)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	container, err := NewWithDB(db, normalizedDialect, log)
	if err != nil {
		return nil, err
	}
	err = container.Upgrade(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade database: %w", err)
	}
	return container, nil
}

// NewWithDB wraps an existing SQL database connection in a Container.
//
// The database will not be upgraded automatically, call Upgrade to do that.
func NewWithDB(db *sql.DB, dialect string, log waLog.Logger) (*Container, error) {
	wrapped, err := dbutil.NewWithDB(db, dialect)
	if err != nil {
		return nil, err
	}
	wrapped.UpgradeTable = upgrades.Table
	wrapped.VersionTable = "msgbackup_version"
	return NewWithWrappedDB(wrapped, log), nil
}

func NewWithWrappedDB(wrapped *dbutil.Database, log waLog.Logger) *Container {
	if log == nil {
		log = waLog.Noop
	}
	return &Container{
		db:  wrapped,
		log: log,
	}
}

// Upgrade upgrades the database from the current to the latest version available.
func (c *Container) Upgrade(ctx context.Context) error {
	if c.db.Dialect == dbutil.SQLite {
		var foreignKeysEnabled bool
		err := c.db.QueryRow(ctx, "PRAGMA foreign_keys").Scan(&foreignKeysEnabled)
		if err != nil {
			return fmt.Errorf("failed to check if foreign keys are enabled: %w", err)
		} else if !foreignKeysEnabled {
			c.log.Warnf("Foreign keys are not enabled in SQLite, deleting threads won't cascade")
		}
	}
	return c.db.Upgrade(ctx)
}

// DoTxn runs fn inside a transaction. Store methods called with the context passed to fn use the transaction.
func (c *Container) DoTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.db.DoTxn(ctx, nil, fn)
}

// Stores returns an AllStores where every store is backed by this container.
func (c *Container) Stores() store.AllStores {
	return store.AllStores{
		Recipients:           c,
		Groups:               c,
		Threads:              c,
		Interactions:         c,
		CallRecords:          c,
		CallLinks:            c,
		StickerPacks:         c,
		StickerPackDownloads: c,
		AttachmentDownloads:  c,
		KeyValue:             c,
		Transactor:           c,
	}
}

func (c *Container) Close() error {
	return c.db.Close()
}

type scannable interface {
	Scan(dest ...any) error
}

// enumerate reads all rows of the query before calling fn for each of them,
// so that fn can run other queries without holding the result set open.
func enumerate[T any](
	ctx context.Context, db *dbutil.Database, fn store.EnumerateFunc[T],
	scan func(row scannable) (*T, error), query string, args ...any,
) error {
	items, err := queryAll(ctx, db, scan, query, args...)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err = fn(item); err != nil {
			return err
		}
	}
	return nil
}

func queryAll[T any](ctx context.Context, db *dbutil.Database, scan func(row scannable) (*T, error), query string, args ...any) ([]*T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var items []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		items = append(items, item)
	}
	err = rows.Close()
	if err != nil {
		return nil, err
	}
	return items, rows.Err()
}

// queryOne returns nil without an error if the query returns no rows.
func queryOne[T any](ctx context.Context, db *dbutil.Database, scan func(row scannable) (*T, error), query string, args ...any) (*T, error) {
	item, err := scan(db.QueryRow(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

func nullableBytes(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	return data
}

func nullableString(str string) *string {
	if str == "" {
		return nil
	}
	return &str
}
