// Package postgres opens a catalog store on a PostgreSQL database.
package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/corelens-ai/corelens/pkg/storage/sqlstore"
)

// New connects to the database described by dsn and migrates the schema.
func New(dsn string) (*sqlstore.Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres database: %w", err)
	}

	store, err := sqlstore.New(db, sqlstore.DialectPostgres)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}
