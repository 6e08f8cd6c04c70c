// Package sqlite opens a file-backed catalog store.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/corelens-ai/corelens/pkg/storage/sqlstore"
)

// New opens (or creates) the sqlite database at path and migrates the schema.
func New(path string) (*sqlstore.Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	store, err := sqlstore.New(db, sqlstore.DialectSQLite)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}
