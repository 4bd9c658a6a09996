package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PGXSession implements Session over a single native pgx connection.
type PGXSession struct {
	conn *pgx.Conn

	mu       sync.Mutex
	prepared map[string]struct{}
}

func OpenPGX(ctx context.Context, dsn string) (*PGXSession, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewPGX(conn), nil
}

func NewPGX(conn *pgx.Conn) *PGXSession {
	return &PGXSession{conn: conn, prepared: make(map[string]struct{})}
}

func (s *PGXSession) Prepare(ctx context.Context, name, query string) error {
	if _, err := s.conn.Prepare(ctx, name, query); err != nil {
		return err
	}
	s.mu.Lock()
	s.prepared[name] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *PGXSession) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxTx{session: s, tx: tx}, nil
}

func (s *PGXSession) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close deallocates the prepared statements and closes the connection.
func (s *PGXSession) Close() error {
	ctx := context.Background()

	s.mu.Lock()
	var firstErr error
	for name := range s.prepared {
		if err := s.conn.Deallocate(ctx, name); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("deallocating statement %s: %w", name, err)
		}
		delete(s.prepared, name)
	}
	s.mu.Unlock()

	if err := s.conn.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *PGXSession) known(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.prepared[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStatement, name)
	}
	return nil
}

type pgxTx struct {
	session *PGXSession
	tx      pgx.Tx
}

// Query runs the prepared statement; pgx resolves a statement name passed in
// place of SQL text.
func (t *pgxTx) Query(ctx context.Context, name string, args ...any) (Rows, error) {
	if err := t.session.known(name); err != nil {
		return nil, err
	}
	rows, err := t.tx.Query(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return &pgxRows{rows: rows}, nil
}

func (t *pgxTx) Exec(ctx context.Context, name string, args ...any) (Result, error) {
	if err := t.session.known(name); err != nil {
		return nil, err
	}
	tag, err := t.tx.Exec(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return &pgxResult{tag: tag}, nil
}

func (t *pgxTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgxTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// pgxRows adapts pgx.Rows, whose Close has no error, to Rows.
type pgxRows struct {
	rows pgx.Rows
}

func (p *pgxRows) Next() bool {
	return p.rows.Next()
}

func (p *pgxRows) Scan(dest ...any) error {
	return p.rows.Scan(dest...)
}

func (p *pgxRows) Err() error {
	return p.rows.Err()
}

func (p *pgxRows) Close() error {
	p.rows.Close()
	return nil
}

type pgxResult struct {
	tag pgconn.CommandTag
}

func (p *pgxResult) RowsAffected() (int64, error) {
	return p.tag.RowsAffected(), nil
}
