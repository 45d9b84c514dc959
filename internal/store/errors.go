package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotPointer     = errors.New("entity must be a non-nil pointer to a struct")
	ErrNoPrimaryKey   = errors.New("entity has no primary key")
	ErrUnknownField   = errors.New("unknown field")
	ErrUnsupportedKey = errors.New("unsupported key type")
	ErrEmptySet       = errors.New("aggregate over an empty set")
	ErrNoRowsAffected = errors.New("no rows affected")
	ErrDuplicateKey   = errors.New("duplicate key")
)

// FlushError reports the entry that made a flush fail. The store error is kept
// as the wrapped cause.
type FlushError struct {
	Table string
	State EntityState
	Key   string
	Err   error
}

func (e *FlushError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("flush %s %s [%s]: %v", strings.ToLower(e.State.String()), e.Table, e.Key, e.Err)
	}
	return fmt.Sprintf("flush %s %s: %v", strings.ToLower(e.State.String()), e.Table, e.Err)
}

func (e *FlushError) Unwrap() error {
	return e.Err
}

// IsDuplicateKey reports whether err is a unique or primary key violation from
// any of the supported drivers.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateKey) {
		return true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	return false
}
