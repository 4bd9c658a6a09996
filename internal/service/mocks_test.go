package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"soundgood-leasing/internal/domain"
	"soundgood-leasing/internal/repository"
)

// MockLeaseStore
type MockLeaseStore struct {
	mock.Mock
	// Tx is handed to the WithinTx callback.
	Tx *MockLeaseTx
}

func (m *MockLeaseStore) FindRentableItemsOfType(ctx context.Context, itemType string) ([]domain.Item, error) {
	args := m.Called(ctx, itemType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Item), args.Error(1)
}
func (m *MockLeaseStore) FindActiveLeasesForClient(ctx context.Context, clientID int32) ([]domain.Lease, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Lease), args.Error(1)
}
func (m *MockLeaseStore) FindActiveLeaseForItem(ctx context.Context, itemID int32) (*domain.Lease, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lease), args.Error(1)
}
func (m *MockLeaseStore) CreateLease(ctx context.Context, itemID, clientID int32) error {
	args := m.Called(ctx, itemID, clientID)
	return args.Error(0)
}
func (m *MockLeaseStore) TerminateLease(ctx context.Context, itemID, clientID int32) error {
	args := m.Called(ctx, itemID, clientID)
	return args.Error(0)
}
func (m *MockLeaseStore) WithinTx(ctx context.Context, fn func(tx repository.LeaseTx) error) error {
	m.Called(ctx)
	return fn(m.Tx)
}
func (m *MockLeaseStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockLeaseStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockLeaseTx
type MockLeaseTx struct {
	mock.Mock
}

func (m *MockLeaseTx) FindActiveLeasesForClient(ctx context.Context, clientID int32) ([]domain.Lease, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Lease), args.Error(1)
}
func (m *MockLeaseTx) FindActiveLeaseForItem(ctx context.Context, itemID int32) (*domain.Lease, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lease), args.Error(1)
}
func (m *MockLeaseTx) CreateLease(ctx context.Context, itemID, clientID int32) error {
	args := m.Called(ctx, itemID, clientID)
	return args.Error(0)
}
func (m *MockLeaseTx) TerminateLease(ctx context.Context, itemID, clientID int32) error {
	args := m.Called(ctx, itemID, clientID)
	return args.Error(0)
}

func newMocks() (*MockLeaseStore, *MockLeaseTx) {
	tx := new(MockLeaseTx)
	return &MockLeaseStore{Tx: tx}, tx
}
