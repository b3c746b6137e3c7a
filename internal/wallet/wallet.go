// Package wallet manages the account balances behind the ledger's value
// transfers. It stands in for the execution environment's native value
// layer: donors fund an account, donations debit it, and payouts or
// refunds credit the recipient.
package wallet

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/fundhaus/fundhaus/internal/platform/errors"
	"github.com/fundhaus/fundhaus/internal/storage"
	"github.com/google/uuid"
)

// ErrInvalidAmount indicates a deposit amount that is not positive.
var ErrInvalidAmount = apperrors.New(apperrors.CodeAccountInvalidAmount, "deposit amount must be positive")

// Service exposes wallet account operations.
type Service struct {
	store       storage.Store
	clock       func() time.Time
	idGenerator func() string
}

// NewService creates a wallet service with default dependencies.
func NewService(store storage.Store) *Service {
	return &Service{
		store:       store,
		clock:       time.Now,
		idGenerator: NewAddress,
	}
}

// WithClock overrides the time source, used by tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// NewAddress returns a fresh account address.
func NewAddress() string {
	return "acct_" + uuid.NewString()
}

// CreateAccount registers a new account with a zero balance. When address
// is empty a fresh one is generated.
func (s *Service) CreateAccount(ctx context.Context, address string) (storage.AccountRecord, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		address = s.idGenerator()
	}
	now := s.clock().UTC()
	account := storage.AccountRecord{
		Address:   address,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.store.WithinTx(ctx, func(tx storage.Tx) error {
		return tx.CreateAccount(ctx, account)
	})
	if err != nil {
		return storage.AccountRecord{}, err
	}
	return account, nil
}

// Account returns the current state of one account.
func (s *Service) Account(ctx context.Context, address string) (storage.AccountRecord, error) {
	return s.store.Account(ctx, address)
}

// Deposit adds funds to an account. This is the faucet used to fund donors;
// a production deployment would replace it with a payment processor callback.
func (s *Service) Deposit(ctx context.Context, address string, amount int64) (storage.AccountRecord, error) {
	if amount <= 0 {
		return storage.AccountRecord{}, ErrInvalidAmount
	}
	err := s.store.WithinTx(ctx, func(tx storage.Tx) error {
		return tx.Credit(ctx, address, amount)
	})
	if err != nil {
		return storage.AccountRecord{}, err
	}
	return s.store.Account(ctx, address)
}
