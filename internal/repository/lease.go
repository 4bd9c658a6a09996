package repository

import (
	"context"

	"soundgood-leasing/internal/domain"
)

// LeaseStore is the transactional data-access layer for items and leases.
// Every standalone call runs in its own transaction and commits or rolls back
// before returning.
type LeaseStore interface {
	FindRentableItemsOfType(ctx context.Context, itemType string) ([]domain.Item, error)
	FindActiveLeasesForClient(ctx context.Context, clientID int32) ([]domain.Lease, error)
	FindActiveLeaseForItem(ctx context.Context, itemID int32) (*domain.Lease, error)
	CreateLease(ctx context.Context, itemID, clientID int32) error
	TerminateLease(ctx context.Context, itemID, clientID int32) error

	// WithinTx runs fn in a single transaction. Row locks taken by the
	// lookups on tx are held until fn returns. The transaction commits when
	// fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx LeaseTx) error) error

	Ping(ctx context.Context) error
	Close() error
}

// LeaseTx is the view of the store inside an open transaction. Nothing on it
// commits; the enclosing WithinTx decides.
type LeaseTx interface {
	FindActiveLeasesForClient(ctx context.Context, clientID int32) ([]domain.Lease, error)
	FindActiveLeaseForItem(ctx context.Context, itemID int32) (*domain.Lease, error)
	CreateLease(ctx context.Context, itemID, clientID int32) error
	TerminateLease(ctx context.Context, itemID, clientID int32) error
}
