package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"soundgood-leasing/internal/domain"
	"soundgood-leasing/internal/logger"
	"soundgood-leasing/internal/repository"
	"soundgood-leasing/internal/repository/postgres/session"
)

const (
	failConnect           = "could not connect"
	failPrepare           = "could not prepare statements"
	failFetchItems        = "could not fetch items"
	failFetchClientLeases = "could not fetch client leases"
	failCheckItem         = "could not check item"
	failRent              = "could not rent item"
	failTerminate         = "could not terminate lease"
	failCommit            = "could not commit transaction"
	failPing              = "session unavailable"
	failClose             = "could not close session"
	closeResultSuffix     = ". Could not close result"
)

var (
	errTxFinished    = errors.New("transaction already finished")
	errArgumentCount = errors.New("wrong number of statement arguments")
)

// LeaseStore implements repository.LeaseStore on one database session.
// Operations are serialized on the session; a transaction opened by one
// call is finished before the next call starts.
type LeaseStore struct {
	mu      sync.Mutex
	session session.Session
	queries map[string]statement
}

var _ repository.LeaseStore = (*LeaseStore)(nil)

// Open connects with the given driver ("pq" or "pgx") and prepares the
// statements. Any failure is a ConnectionError and leaves nothing open.
func Open(ctx context.Context, driver, dsn string) (*LeaseStore, error) {
	sess, err := session.Open(ctx, driver, dsn)
	if err != nil {
		return nil, repository.NewConnectionError(failConnect, err)
	}
	store, err := NewLeaseStore(ctx, sess)
	if err != nil {
		if closeErr := sess.Close(); closeErr != nil {
			logger.Warn("Failed to close session after failed setup", "error", closeErr)
		}
		return nil, err
	}
	return store, nil
}

// NewLeaseStore prepares the statement set on an established session. The
// store takes ownership of the session and releases it on Close.
func NewLeaseStore(ctx context.Context, sess session.Session) (*LeaseStore, error) {
	stmts, err := buildStatements()
	if err != nil {
		return nil, repository.NewConnectionError(failPrepare, err)
	}

	queries := make(map[string]statement, len(stmts))
	for _, st := range stmts {
		logger.DatabaseCall("prepare", st.query, "statement", st.name)
		if err := sess.Prepare(ctx, st.name, st.query); err != nil {
			logger.DatabaseResult("prepare", 0, err, "statement", st.name)
			return nil, repository.NewConnectionError(failPrepare, fmt.Errorf("%s: %w", st.name, err))
		}
		queries[st.name] = st
	}

	return &LeaseStore{session: sess, queries: queries}, nil
}

func (s *LeaseStore) FindRentableItemsOfType(ctx context.Context, itemType string) ([]domain.Item, error) {
	logger.EnterMethod("LeaseStore.FindRentableItemsOfType", "type", itemType)

	var items []domain.Item
	err := s.inTx(ctx, repository.KindQuery, failFetchItems, func(tx *leaseTx) error {
		var err error
		items, err = tx.findRentableItems(ctx, itemType)
		return err
	})
	if err != nil && !repository.IsResourceOnly(err) {
		logger.ExitMethodWithError("LeaseStore.FindRentableItemsOfType", err, "type", itemType)
		return nil, err
	}

	logger.ExitMethod("LeaseStore.FindRentableItemsOfType", "type", itemType, "count", len(items))
	return items, err
}

func (s *LeaseStore) FindActiveLeasesForClient(ctx context.Context, clientID int32) ([]domain.Lease, error) {
	logger.EnterMethod("LeaseStore.FindActiveLeasesForClient", "clientID", clientID)

	var leases []domain.Lease
	err := s.inTx(ctx, repository.KindQuery, failFetchClientLeases, func(tx *leaseTx) error {
		var err error
		leases, err = tx.FindActiveLeasesForClient(ctx, clientID)
		return err
	})
	if err != nil && !repository.IsResourceOnly(err) {
		logger.ExitMethodWithError("LeaseStore.FindActiveLeasesForClient", err, "clientID", clientID)
		return nil, err
	}

	logger.ExitMethod("LeaseStore.FindActiveLeasesForClient", "clientID", clientID, "count", len(leases))
	return leases, err
}

// FindActiveLeaseForItem returns nil and no error when the item is rentable.
func (s *LeaseStore) FindActiveLeaseForItem(ctx context.Context, itemID int32) (*domain.Lease, error) {
	logger.EnterMethod("LeaseStore.FindActiveLeaseForItem", "itemID", itemID)

	var lease *domain.Lease
	err := s.inTx(ctx, repository.KindQuery, failCheckItem, func(tx *leaseTx) error {
		var err error
		lease, err = tx.FindActiveLeaseForItem(ctx, itemID)
		return err
	})
	if err != nil && !repository.IsResourceOnly(err) {
		logger.ExitMethodWithError("LeaseStore.FindActiveLeaseForItem", err, "itemID", itemID)
		return nil, err
	}

	logger.ExitMethod("LeaseStore.FindActiveLeaseForItem", "itemID", itemID, "leased", lease != nil)
	return lease, err
}

func (s *LeaseStore) CreateLease(ctx context.Context, itemID, clientID int32) error {
	logger.EnterMethod("LeaseStore.CreateLease", "itemID", itemID, "clientID", clientID)

	err := s.inTx(ctx, repository.KindMutation, failRent, func(tx *leaseTx) error {
		return tx.CreateLease(ctx, itemID, clientID)
	})
	if err != nil {
		logger.ExitMethodWithError("LeaseStore.CreateLease", err, "itemID", itemID, "clientID", clientID)
		return err
	}

	logger.ExitMethod("LeaseStore.CreateLease", "itemID", itemID, "clientID", clientID)
	return nil
}

func (s *LeaseStore) TerminateLease(ctx context.Context, itemID, clientID int32) error {
	logger.EnterMethod("LeaseStore.TerminateLease", "itemID", itemID, "clientID", clientID)

	err := s.inTx(ctx, repository.KindMutation, failTerminate, func(tx *leaseTx) error {
		return tx.TerminateLease(ctx, itemID, clientID)
	})
	if err != nil {
		logger.ExitMethodWithError("LeaseStore.TerminateLease", err, "itemID", itemID, "clientID", clientID)
		return err
	}

	logger.ExitMethod("LeaseStore.TerminateLease", "itemID", itemID, "clientID", clientID)
	return nil
}

func (s *LeaseStore) WithinTx(ctx context.Context, fn func(tx repository.LeaseTx) error) error {
	return s.inTx(ctx, repository.KindMutation, failCommit, func(tx *leaseTx) error {
		return fn(tx)
	})
}

func (s *LeaseStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.Ping(ctx); err != nil {
		return repository.NewConnectionError(failPing, err)
	}
	return nil
}

func (s *LeaseStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.Close(); err != nil {
		return repository.NewResourceError(failClose, err)
	}
	return nil
}

// inTx runs fn in a fresh transaction. An error from fn rolls back, unless
// it is only a ResourceError, in which case the work is committed and the
// ResourceError is still returned. kind and failMsg describe begin and
// commit failures.
func (s *LeaseStore) inTx(ctx context.Context, kind repository.Kind, failMsg string, fn func(tx *leaseTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txID := logger.NewTxID()
	sessTx, err := s.session.Begin(ctx)
	if err != nil {
		logger.TxEnd(ctx, txID, "begin", err)
		return &repository.Error{Kind: kind, Msg: failMsg, Err: err}
	}
	logger.TxBegin(ctx, txID)

	tx := &leaseTx{tx: sessTx, txID: txID, queries: s.queries}
	defer tx.finish()

	defer func() {
		if p := recover(); p != nil {
			rbErr := sessTx.Rollback(ctx)
			logger.TxEnd(ctx, txID, "rollback", rbErr, "panic", p)
			panic(p)
		}
	}()

	opErr := fn(tx)
	if opErr != nil && !repository.IsResourceOnly(opErr) {
		rbErr := sessTx.Rollback(ctx)
		logger.TxEnd(ctx, txID, "rollback", rbErr)
		return repository.WithRollbackFailure(opErr, rbErr)
	}

	// A failed commit ends the transaction on the server; there is nothing
	// left to roll back.
	if err := sessTx.Commit(ctx); err != nil {
		logger.TxEnd(ctx, txID, "commit", err)
		return &repository.Error{Kind: kind, Msg: failMsg, Err: err}
	}
	logger.TxEnd(ctx, txID, "commit", nil)

	return opErr
}

// leaseTx runs the prepared statements inside one open transaction.
type leaseTx struct {
	tx       session.Tx
	txID     string
	queries  map[string]statement
	finished bool
}

var _ repository.LeaseTx = (*leaseTx)(nil)

func (t *leaseTx) finish() {
	t.finished = true
}

func (t *leaseTx) findRentableItems(ctx context.Context, itemType string) ([]domain.Item, error) {
	return queryAll(ctx, t, stmtFindRentableItems, failFetchItems, func(rows session.Rows) (domain.Item, error) {
		var item domain.Item
		err := rows.Scan(&item.ID, &item.Brand, &item.Fee)
		return item, err
	}, itemType)
}

// FindActiveLeasesForClient locks the returned rows until the transaction ends.
func (t *leaseTx) FindActiveLeasesForClient(ctx context.Context, clientID int32) ([]domain.Lease, error) {
	return queryAll(ctx, t, stmtFindActiveLeasesForClient, failFetchClientLeases, scanLease, clientID)
}

// FindActiveLeaseForItem locks the returned row until the transaction ends.
func (t *leaseTx) FindActiveLeaseForItem(ctx context.Context, itemID int32) (*domain.Lease, error) {
	leases, err := queryAll(ctx, t, stmtFindActiveLeaseForItem, failCheckItem, scanLease, itemID)
	if len(leases) == 0 {
		return nil, err
	}
	return &leases[0], err
}

func (t *leaseTx) CreateLease(ctx context.Context, itemID, clientID int32) error {
	return t.execOne(ctx, stmtCreateLease, failRent, clientID, itemID)
}

func (t *leaseTx) TerminateLease(ctx context.Context, itemID, clientID int32) error {
	return t.execOne(ctx, stmtTerminateLease, failTerminate, clientID, itemID)
}

// execOne runs a mutation that must touch exactly one row.
func (t *leaseTx) execOne(ctx context.Context, name, failMsg string, args ...any) error {
	if t.finished {
		return repository.NewMutationError(failMsg, errTxFinished)
	}
	if err := t.checkArgs(name, args); err != nil {
		return repository.NewMutationError(failMsg, err)
	}

	logger.DatabaseCall(name, t.queries[name].query, "tx_id", t.txID)
	res, err := t.tx.Exec(ctx, name, args...)
	if err != nil {
		logger.DatabaseResult(name, 0, err, "tx_id", t.txID)
		return repository.NewMutationError(failMsg, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		logger.DatabaseResult(name, 0, err, "tx_id", t.txID)
		return repository.NewMutationError(failMsg, err)
	}
	logger.DatabaseResult(name, affected, nil, "tx_id", t.txID)

	if affected != 1 {
		return repository.NewMutationError(failMsg, fmt.Errorf("%w: %d", repository.ErrRowCount, affected))
	}
	return nil
}

// checkArgs rejects a call before it reaches the driver when the arguments
// do not fill the statement's placeholders.
func (t *leaseTx) checkArgs(name string, args []any) error {
	st, ok := t.queries[name]
	if !ok {
		return fmt.Errorf("%w: %s", session.ErrUnknownStatement, name)
	}
	if len(args) != st.args {
		return fmt.Errorf("%w: %s takes %d, got %d", errArgumentCount, name, st.args, len(args))
	}
	return nil
}

func scanLease(rows session.Rows) (domain.Lease, error) {
	var lease domain.Lease
	err := rows.Scan(&lease.ID, &lease.ItemID, &lease.ClientID, &lease.Start, &lease.End)
	return lease, err
}

// queryAll runs a prepared query and scans every row. The result is always
// closed; a close failure after a successful read comes back as a
// ResourceError together with the rows.
func queryAll[T any](ctx context.Context, t *leaseTx, name, failMsg string, scan func(session.Rows) (T, error), args ...any) ([]T, error) {
	if t.finished {
		return nil, repository.NewQueryError(failMsg, errTxFinished)
	}
	if err := t.checkArgs(name, args); err != nil {
		return nil, repository.NewQueryError(failMsg, err)
	}

	logger.DatabaseCall(name, t.queries[name].query, "tx_id", t.txID)
	rows, err := t.tx.Query(ctx, name, args...)
	if err != nil {
		logger.DatabaseResult(name, 0, err, "tx_id", t.txID)
		return nil, repository.NewQueryError(failMsg, err)
	}

	results := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, closeAfterFailure(rows, repository.NewQueryError(failMsg, err))
		}
		results = append(results, v)
	}
	if err := rows.Err(); err != nil {
		return nil, closeAfterFailure(rows, repository.NewQueryError(failMsg, err))
	}
	logger.DatabaseResult(name, int64(len(results)), nil, "tx_id", t.txID)

	if err := rows.Close(); err != nil {
		return results, repository.NewResourceError(failMsg+closeResultSuffix, err)
	}
	return results, nil
}

// closeAfterFailure closes rows after a failed read. The read failure stays
// primary; a close failure is attached to it.
func closeAfterFailure(rows session.Rows, failure *repository.Error) error {
	if err := rows.Close(); err != nil {
		failure.Msg += closeResultSuffix
		failure.Related = repository.NewResourceError("close result", err)
	}
	return failure
}
