package storage

import (
	"context"
	"time"

	"github.com/fundhaus/fundhaus/internal/escrow"
	"github.com/fundhaus/fundhaus/internal/escrow/event"
	apperrors "github.com/fundhaus/fundhaus/internal/platform/errors"
)

// ErrNotFound indicates a requested persistence record is missing. Callers
// use this to differentiate between legitimate "no such entity" states and
// transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrAccountNotFound indicates the addressed wallet account does not exist.
var ErrAccountNotFound = apperrors.New(apperrors.CodeAccountNotFound, "account not found")

// ErrAccountExists indicates an attempt to create an account over an
// existing address.
var ErrAccountExists = apperrors.New(apperrors.CodeAccountAlreadyExists, "account already exists")

// ErrInsufficientFunds indicates a debit larger than the account balance.
var ErrInsufficientFunds = apperrors.New(apperrors.CodeAccountInsufficientFunds, "insufficient account balance")

// AccountRecord captures one wallet account's balance state.
type AccountRecord struct {
	Address   string
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tx exposes the mutating operations available inside one ledger
// transaction. Every method observes the uncommitted writes of the methods
// called before it; nothing is visible outside the transaction until
// WithinTx commits.
type Tx interface {
	// Campaign loads a campaign aggregate with its donor entries.
	// Returns escrow.ErrCampaignNotFound when the id has no record.
	Campaign(ctx context.Context, id int64) (escrow.Campaign, error)
	// InsertCampaign persists a new campaign and assigns the next
	// monotonic id, starting at 0.
	InsertCampaign(ctx context.Context, campaign escrow.Campaign) (int64, error)
	// UpdateCampaign persists campaign balance/status fields.
	UpdateCampaign(ctx context.Context, campaign escrow.Campaign) error
	// AppendDonation persists one donor entry at the given index.
	AppendDonation(ctx context.Context, campaignID int64, index int, donator string, amount int64, at time.Time) error
	// ZeroDonation logically tombstones a refunded donor entry.
	ZeroDonation(ctx context.Context, campaignID int64, index int) error
	// AppendEvent journals an event, assigning its per-campaign sequence.
	AppendEvent(ctx context.Context, evt event.Event) error

	// CreateAccount inserts a wallet account. Returns ErrAccountExists on
	// address collision.
	CreateAccount(ctx context.Context, account AccountRecord) error
	// Credit adds amount to an account balance. Returns
	// ErrAccountNotFound for unknown addresses.
	Credit(ctx context.Context, address string, amount int64) error
	// Debit subtracts amount from an account balance. Returns
	// ErrInsufficientFunds when the balance is too small.
	Debit(ctx context.Context, address string, amount int64) error
}

// Store is the durable state of the ledger: campaign records, donor
// entries, the event journal, and wallet accounts. Mutations run through
// WithinTx so each public ledger operation is a single atomic unit.
type Store interface {
	// WithinTx runs fn inside one database transaction. Any error from fn
	// rolls the whole transaction back and is returned unchanged.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// Campaign loads a single campaign aggregate with its donor entries.
	Campaign(ctx context.Context, id int64) (escrow.Campaign, error)
	// Campaigns lists all campaigns in insertion order, including
	// resolved and deleted ones.
	Campaigns(ctx context.Context) ([]escrow.Campaign, error)
	// CampaignCount returns the number of campaigns ever created, which
	// is also the next id to assign.
	CampaignCount(ctx context.Context) (int64, error)
	// Events lists a campaign's journal in sequence order.
	Events(ctx context.Context, campaignID int64) ([]event.Event, error)
	// Account loads one wallet account.
	Account(ctx context.Context, address string) (AccountRecord, error)

	Close() error
}
