package service

import (
	"context"

	"soundgood-leasing/internal/domain"
)

type LeaseService interface {
	ListRentable(ctx context.Context, itemType string) ([]domain.Item, error)
	ListClientLeases(ctx context.Context, clientID string) ([]domain.Lease, error)
	Rent(ctx context.Context, itemID, clientID string) error
	Terminate(ctx context.Context, itemID, clientID string) error
}
