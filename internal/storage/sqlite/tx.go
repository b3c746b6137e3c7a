package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fundhaus/fundhaus/internal/escrow"
	"github.com/fundhaus/fundhaus/internal/escrow/event"
	"github.com/fundhaus/fundhaus/internal/storage"
	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// ledgerTx implements storage.Tx over one *sql.Tx.
type ledgerTx struct {
	q dbtx
}

var _ storage.Tx = (*ledgerTx)(nil)

// Campaign loads a campaign aggregate, observing uncommitted writes.
func (t *ledgerTx) Campaign(ctx context.Context, id int64) (escrow.Campaign, error) {
	return loadCampaign(ctx, t.q, id)
}

// InsertCampaign persists a new campaign. The id is the count of campaigns
// ever created: rows are never deleted, so COUNT doubles as the monotonic
// counter and ids start at 0.
func (t *ledgerTx) InsertCampaign(ctx context.Context, campaign escrow.Campaign) (int64, error) {
	var id int64
	row := t.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("next campaign id: %w", err)
	}
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO campaigns (
		    id, owner, title, description, image, goal, deadline,
		    current_amount, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		campaign.Owner,
		campaign.Title,
		campaign.Description,
		campaign.Image,
		campaign.Goal,
		toMillis(campaign.Deadline),
		campaign.CurrentAmount,
		int(campaign.Status),
		toMillis(campaign.CreatedAt),
		toMillis(campaign.UpdatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert campaign: %w", err)
	}
	return id, nil
}

// UpdateCampaign persists campaign balance/status fields.
func (t *ledgerTx) UpdateCampaign(ctx context.Context, campaign escrow.Campaign) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE campaigns
		   SET current_amount = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		campaign.CurrentAmount,
		int(campaign.Status),
		toMillis(campaign.UpdatedAt),
		campaign.ID,
	)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update campaign rows: %w", err)
	}
	if affected == 0 {
		return escrow.ErrCampaignNotFound
	}
	return nil
}

// AppendDonation persists one donor entry at the given index.
func (t *ledgerTx) AppendDonation(ctx context.Context, campaignID int64, index int, donator string, amount int64, at time.Time) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO donations (campaign_id, idx, donator, amount, donated_at)
		VALUES (?, ?, ?, ?, ?)`,
		campaignID, index, donator, amount, toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("append donation: %w", err)
	}
	return nil
}

// ZeroDonation logically tombstones a refunded donor entry.
func (t *ledgerTx) ZeroDonation(ctx context.Context, campaignID int64, index int) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE donations SET amount = 0
		 WHERE campaign_id = ? AND idx = ?`,
		campaignID, index,
	)
	if err != nil {
		return fmt.Errorf("zero donation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("zero donation rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AppendEvent journals an event with the next per-campaign sequence number.
func (t *ledgerTx) AppendEvent(ctx context.Context, evt event.Event) error {
	var seq uint64
	row := t.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM campaign_events WHERE campaign_id = ?`,
		evt.CampaignID,
	)
	if err := row.Scan(&seq); err != nil {
		return fmt.Errorf("next event seq: %w", err)
	}
	payload := string(evt.PayloadJSON)
	if strings.TrimSpace(payload) == "" {
		payload = "{}"
	}
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO campaign_events (campaign_id, seq, event_type, actor, ts, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		evt.CampaignID, seq, string(evt.Type), evt.Actor, toMillis(evt.Timestamp), payload,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// CreateAccount inserts a wallet account.
func (t *ledgerTx) CreateAccount(ctx context.Context, account storage.AccountRecord) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO accounts (address, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		account.Address,
		account.Balance,
		toMillis(account.CreatedAt),
		toMillis(account.UpdatedAt),
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrAccountExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Credit adds amount to an account balance.
func (t *ledgerTx) Credit(ctx context.Context, address string, amount int64) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE accounts
		   SET balance = balance + ?, updated_at = ?
		 WHERE address = ?`,
		amount, toMillis(time.Now()), address,
	)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit account rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrAccountNotFound
	}
	return nil
}

// Debit subtracts amount from an account balance. The balance guard lives
// in the UPDATE itself so a concurrent writer can never push the balance
// negative.
func (t *ledgerTx) Debit(ctx context.Context, address string, amount int64) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE accounts
		   SET balance = balance - ?, updated_at = ?
		 WHERE address = ? AND balance >= ?`,
		amount, toMillis(time.Now()), address, amount,
	)
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit account rows: %w", err)
	}
	if affected == 0 {
		if _, lookupErr := loadAccount(ctx, t.q, address); lookupErr != nil {
			return lookupErr
		}
		return storage.ErrInsufficientFunds
	}
	return nil
}

func isConstraintError(err error) bool {
	var serr *sqlite3.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		return code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY ||
			code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
