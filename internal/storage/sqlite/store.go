// Package sqlite provides a SQLite-backed ledger storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fundhaus/fundhaus/internal/escrow"
	"github.com/fundhaus/fundhaus/internal/escrow/event"
	"github.com/fundhaus/fundhaus/internal/platform/storage/sqlitemigrate"
	"github.com/fundhaus/fundhaus/internal/storage"
	"github.com/fundhaus/fundhaus/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists ledger state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite ledger store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// OpenInMemory opens a private in-memory ledger store, used by tests.
func OpenInMemory() (*Store, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory db: %w", err)
	}
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so reads share one code path.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithinTx runs fn inside one database transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&ledgerTx{q: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Campaign loads a single campaign aggregate with its donor entries.
func (s *Store) Campaign(ctx context.Context, id int64) (escrow.Campaign, error) {
	return loadCampaign(ctx, s.sqlDB, id)
}

// Campaigns lists all campaigns in insertion order.
func (s *Store) Campaigns(ctx context.Context) ([]escrow.Campaign, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, owner, title, description, image, goal, deadline,
		       current_amount, status, created_at, updated_at
		  FROM campaigns
		 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []escrow.Campaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}
	for i := range campaigns {
		entries, err := loadEntries(ctx, s.sqlDB, campaigns[i].ID)
		if err != nil {
			return nil, err
		}
		campaigns[i].Entries = entries
	}
	return campaigns, nil
}

// CampaignCount returns the number of campaigns ever created.
func (s *Store) CampaignCount(ctx context.Context) (int64, error) {
	var count int64
	row := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count campaigns: %w", err)
	}
	return count, nil
}

// Events lists a campaign's journal in sequence order.
func (s *Store) Events(ctx context.Context, campaignID int64) ([]event.Event, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT campaign_id, seq, event_type, actor, ts, payload
		  FROM campaign_events
		 WHERE campaign_id = ?
		 ORDER BY seq`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			evt     event.Event
			evtType string
			ts      int64
			payload string
		)
		if err := rows.Scan(&evt.CampaignID, &evt.Seq, &evtType, &evt.Actor, &ts, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Type = event.Type(evtType)
		evt.Timestamp = fromMillis(ts)
		evt.PayloadJSON = []byte(payload)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// Account loads one wallet account.
func (s *Store) Account(ctx context.Context, address string) (storage.AccountRecord, error) {
	return loadAccount(ctx, s.sqlDB, address)
}

func loadCampaign(ctx context.Context, q dbtx, id int64) (escrow.Campaign, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, owner, title, description, image, goal, deadline,
		       current_amount, status, created_at, updated_at
		  FROM campaigns
		 WHERE id = ?`, id)
	campaign, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return escrow.Campaign{}, escrow.ErrCampaignNotFound
		}
		return escrow.Campaign{}, err
	}
	entries, err := loadEntries(ctx, q, id)
	if err != nil {
		return escrow.Campaign{}, err
	}
	campaign.Entries = entries
	return campaign, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row scanner) (escrow.Campaign, error) {
	var (
		campaign  escrow.Campaign
		deadline  int64
		status    int
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(
		&campaign.ID,
		&campaign.Owner,
		&campaign.Title,
		&campaign.Description,
		&campaign.Image,
		&campaign.Goal,
		&deadline,
		&campaign.CurrentAmount,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return escrow.Campaign{}, err
		}
		return escrow.Campaign{}, fmt.Errorf("scan campaign: %w", err)
	}
	campaign.Deadline = fromMillis(deadline)
	campaign.Status = escrow.Status(status)
	campaign.CreatedAt = fromMillis(createdAt)
	campaign.UpdatedAt = fromMillis(updatedAt)
	return campaign, nil
}

func loadEntries(ctx context.Context, q dbtx, campaignID int64) ([]escrow.DonorEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT donator, amount
		  FROM donations
		 WHERE campaign_id = ?
		 ORDER BY idx`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var entries []escrow.DonorEntry
	for rows.Next() {
		var entry escrow.DonorEntry
		if err := rows.Scan(&entry.Donator, &entry.Amount); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donations: %w", err)
	}
	return entries, nil
}

func loadAccount(ctx context.Context, q dbtx, address string) (storage.AccountRecord, error) {
	var (
		account   storage.AccountRecord
		createdAt int64
		updatedAt int64
	)
	row := q.QueryRowContext(ctx, `
		SELECT address, balance, created_at, updated_at
		  FROM accounts
		 WHERE address = ?`, address)
	if err := row.Scan(&account.Address, &account.Balance, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AccountRecord{}, storage.ErrAccountNotFound
		}
		return storage.AccountRecord{}, fmt.Errorf("scan account: %w", err)
	}
	account.CreatedAt = fromMillis(createdAt)
	account.UpdatedAt = fromMillis(updatedAt)
	return account, nil
}
