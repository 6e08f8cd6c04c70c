// Package libsql opens a catalog store on a remote or embedded libsql
// database (Turso).
package libsql

import (
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/corelens-ai/corelens/pkg/storage/sqlstore"
)

// New connects to the libsql database at url and migrates the schema. The
// url may be a remote libsql:// endpoint or a local file: path.
func New(url string) (*sqlstore.Store, error) {
	db, err := sql.Open("libsql", url)
	if err != nil {
		return nil, fmt.Errorf("opening libsql database: %w", err)
	}

	store, err := sqlstore.New(db, sqlstore.DialectSQLite)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}
