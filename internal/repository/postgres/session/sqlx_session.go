package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

// SQLXSession implements Session over a sqlx.DB restricted to one connection.
type SQLXSession struct {
	db *sqlx.DB

	mu    sync.Mutex
	stmts map[string]*sqlx.Stmt
}

// OpenSQLX connects through lib/pq and pins the pool to a single connection.
func OpenSQLX(ctx context.Context, dsn string) (*SQLXSession, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	s := NewSQLX(db)
	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLX wraps an existing handle. The pool is limited to one connection
// that never expires, so every statement and transaction shares a session.
func NewSQLX(db *sqlx.DB) *SQLXSession {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	return &SQLXSession{db: db, stmts: make(map[string]*sqlx.Stmt)}
}

func (s *SQLXSession) Prepare(ctx context.Context, name, query string) error {
	stmt, err := s.db.PreparexContext(ctx, query)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.stmts[name]; ok {
		old.Close()
	}
	s.stmts[name] = stmt
	return nil
}

func (s *SQLXSession) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlxTx{session: s, tx: tx}, nil
}

func (s *SQLXSession) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases every prepared statement, then the connection.
func (s *SQLXSession) Close() error {
	s.mu.Lock()
	var firstErr error
	for name, stmt := range s.stmts {
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing statement %s: %w", name, err)
		}
		delete(s.stmts, name)
	}
	s.mu.Unlock()

	if err := s.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *SQLXSession) stmt(name string) (*sqlx.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stmt, ok := s.stmts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStatement, name)
	}
	return stmt, nil
}

type sqlxTx struct {
	session *SQLXSession
	tx      *sqlx.Tx
}

func (t *sqlxTx) Query(ctx context.Context, name string, args ...any) (Rows, error) {
	stmt, err := t.session.stmt(name)
	if err != nil {
		return nil, err
	}
	rows, err := t.tx.StmtxContext(ctx, stmt).QueryxContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *sqlxTx) Exec(ctx context.Context, name string, args ...any) (Result, error) {
	stmt, err := t.session.stmt(name)
	if err != nil {
		return nil, err
	}
	return t.tx.StmtxContext(ctx, stmt).ExecContext(ctx, args...)
}

func (t *sqlxTx) Commit(_ context.Context) error {
	return t.tx.Commit()
}

func (t *sqlxTx) Rollback(_ context.Context) error {
	return t.tx.Rollback()
}
