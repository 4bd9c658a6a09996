package session

import (
	"context"
	"errors"
	"fmt"
)

const (
	DriverPQ  = "pq"
	DriverPGX = "pgx"
)

var ErrUnknownStatement = errors.New("unknown prepared statement")

// Session is one database session with named prepared statements.
type Session interface {
	Prepare(ctx context.Context, name, query string) error
	Begin(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
	Close() error
}

// Tx is an open transaction on the session. Statements are addressed by the
// name they were prepared under.
type Tx interface {
	Query(ctx context.Context, name string, args ...any) (Rows, error)
	Exec(ctx context.Context, name string, args ...any) (Result, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type Result interface {
	RowsAffected() (int64, error)
}

// Open establishes a session with the named driver.
func Open(ctx context.Context, driver, dsn string) (Session, error) {
	switch driver {
	case "", DriverPQ:
		return OpenSQLX(ctx, dsn)
	case DriverPGX:
		return OpenPGX(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
