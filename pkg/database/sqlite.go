package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/onurcolak/unified-inbox-service/pkg/logger"
)

// NewSQLiteDB opens a SQLite database file. A path starting with "file:" is used as
// a raw DSN, which lets tests open shared in-memory databases.
func NewSQLiteDB(path string) (*sqlx.DB, error) {
	dsn := path
	if !strings.HasPrefix(path, "file:") {
		dsn = "file:" + path
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=busy_timeout(5000)&_time_format=sqlite"

	db, err := sqlx.Connect(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite serializes writers; a single connection keeps transactions simple.
	db.SetMaxOpenConns(1)

	logger.Infof("Opened SQLite database %s", path)
	return db, nil
}

func isSQLiteDuplicate(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// IsDuplicateKey reports whether err is a unique constraint violation on either dialect.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return isMySQLDuplicate(err) || isSQLiteDuplicate(err)
}
