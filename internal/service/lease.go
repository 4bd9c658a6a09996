package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"soundgood-leasing/internal/domain"
	"soundgood-leasing/internal/logger"
	"soundgood-leasing/internal/repository"
)

type leaseService struct {
	store     repository.LeaseStore
	maxActive int
}

// NewLeaseService builds the lease workflows on top of store. maxActive caps
// the open leases a client may hold; 0 means no cap.
func NewLeaseService(store repository.LeaseStore, maxActive int) LeaseService {
	return &leaseService{
		store:     store,
		maxActive: maxActive,
	}
}

func (s *leaseService) ListRentable(ctx context.Context, itemType string) ([]domain.Item, error) {
	itemType = strings.TrimSpace(itemType)
	if itemType == "" {
		return nil, ErrInvalidItemType
	}
	items, err := s.store.FindRentableItemsOfType(ctx, itemType)
	if err != nil && !tolerable(ctx, err) {
		return nil, err
	}
	return items, nil
}

func (s *leaseService) ListClientLeases(ctx context.Context, clientID string) ([]domain.Lease, error) {
	id, err := parseID("client", clientID)
	if err != nil {
		return nil, err
	}
	leases, err := s.store.FindActiveLeasesForClient(ctx, id)
	if err != nil && !tolerable(ctx, err) {
		return nil, err
	}
	return leases, nil
}

// Rent leases an item to a client. The client's open leases and the item's
// open lease are locked before the insert, all in one transaction.
func (s *leaseService) Rent(ctx context.Context, itemID, clientID string) error {
	item, err := parseID("item", itemID)
	if err != nil {
		return err
	}
	client, err := parseID("client", clientID)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Renting item", "itemID", item, "clientID", client)
	return s.store.WithinTx(ctx, func(tx repository.LeaseTx) error {
		if s.maxActive > 0 {
			leases, err := tx.FindActiveLeasesForClient(ctx, client)
			if err != nil && !tolerable(ctx, err) {
				return err
			}
			if len(leases) >= s.maxActive {
				return refused(ErrLeaseLimitReached, "client %d holds %d leases", client, len(leases))
			}
		}

		current, err := tx.FindActiveLeaseForItem(ctx, item)
		if err != nil && !tolerable(ctx, err) {
			return err
		}
		if current != nil {
			return refused(ErrItemAlreadyLeased, "item %d is leased to client %d", item, current.ClientID)
		}

		return tx.CreateLease(ctx, item, client)
	})
}

// Terminate closes the client's open lease on an item.
func (s *leaseService) Terminate(ctx context.Context, itemID, clientID string) error {
	item, err := parseID("item", itemID)
	if err != nil {
		return err
	}
	client, err := parseID("client", clientID)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Terminating lease", "itemID", item, "clientID", client)
	return s.store.WithinTx(ctx, func(tx repository.LeaseTx) error {
		current, err := tx.FindActiveLeaseForItem(ctx, item)
		if err != nil && !tolerable(ctx, err) {
			return err
		}
		if current == nil || current.ClientID != client {
			return refused(ErrLeaseNotFound, "item %d, client %d", item, client)
		}

		return tx.TerminateLease(ctx, item, client)
	})
}

func parseID(what, raw string) (int32, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, fmt.Errorf("%w: %s id %q: %v", ErrInvalidID, what, raw, err)
	}
	return int32(id), nil
}

// tolerable reports whether err is only a failure to release a result set.
// The data read is valid, so the failure is logged and the workflow goes on.
func tolerable(ctx context.Context, err error) bool {
	if !repository.IsResourceOnly(err) {
		return false
	}
	logger.WarnContext(ctx, "Result not released", "error", err)
	return true
}
