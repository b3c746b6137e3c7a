// Package service implements the campaign escrow ledger's operations.
//
// Every mutating operation runs inside a single storage transaction:
// preconditions are validated against the freshly loaded aggregate, state
// changes and journal events are persisted, and value transfers run last so
// a transfer failure aborts the whole operation with zero state change.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fundhaus/fundhaus/internal/escrow"
	"github.com/fundhaus/fundhaus/internal/escrow/event"
	apperrors "github.com/fundhaus/fundhaus/internal/platform/errors"
	"github.com/fundhaus/fundhaus/internal/storage"
)

const tracerName = "github.com/fundhaus/fundhaus/internal/escrow/service"

// Ledger owns all campaign records and enforces the escrow invariants.
type Ledger struct {
	store  storage.Store
	clock  func() time.Time
	tracer trace.Tracer
}

// NewLedger creates a ledger with default dependencies.
func NewLedger(store storage.Store) *Ledger {
	return &Ledger{
		store:  store,
		clock:  time.Now,
		tracer: otel.Tracer(tracerName),
	}
}

// WithClock overrides the time source, used by tests.
func (l *Ledger) WithClock(clock func() time.Time) *Ledger {
	l.clock = clock
	return l
}

// CreateCampaign validates and persists a new Active campaign, returning it
// with its assigned id.
func (l *Ledger) CreateCampaign(ctx context.Context, in escrow.CreateCampaignInput) (escrow.Campaign, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.CreateCampaign")
	defer span.End()

	now := l.clock()
	campaign, err := escrow.NewCampaign(in, now)
	if err != nil {
		return escrow.Campaign{}, err
	}

	err = l.store.WithinTx(ctx, func(tx storage.Tx) error {
		id, err := tx.InsertCampaign(ctx, campaign)
		if err != nil {
			return err
		}
		campaign.ID = id

		evt, err := event.New(id, event.TypeCampaignCreated, campaign.Owner, now, event.CampaignCreatedPayload{
			Owner:    campaign.Owner,
			Title:    campaign.Title,
			Goal:     campaign.Goal,
			Deadline: campaign.Deadline.Unix(),
		})
		if err != nil {
			return err
		}
		return tx.AppendEvent(ctx, evt)
	})
	if err != nil {
		return escrow.Campaign{}, err
	}

	span.SetAttributes(attribute.Int64("campaign.id", campaign.ID))
	return campaign, nil
}

// Donate records a donation from caller and moves the attached amount into
// escrow. The donor's account is debited last; an insufficient balance
// aborts the donation atomically.
func (l *Ledger) Donate(ctx context.Context, caller string, campaignID int64, amount int64) (escrow.Campaign, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.Donate", trace.WithAttributes(
		attribute.Int64("campaign.id", campaignID),
		attribute.Int64("donation.amount", amount),
	))
	defer span.End()

	now := l.clock()
	var campaign escrow.Campaign
	err := l.store.WithinTx(ctx, func(tx storage.Tx) error {
		var err error
		campaign, err = tx.Campaign(ctx, campaignID)
		if err != nil {
			return err
		}

		index := len(campaign.Entries)
		if err := campaign.Donate(caller, amount, now); err != nil {
			return err
		}
		if err := tx.AppendDonation(ctx, campaignID, index, caller, amount, now); err != nil {
			return err
		}
		if err := tx.UpdateCampaign(ctx, campaign); err != nil {
			return err
		}

		evt, err := event.New(campaignID, event.TypeDonationReceived, caller, now, event.DonationReceivedPayload{
			CampaignID:    campaignID,
			Donator:       caller,
			Amount:        amount,
			CurrentAmount: campaign.CurrentAmount,
		})
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}

		// Interaction last: pull the attached value out of the donor's
		// account once the ledger state is already recorded.
		if err := tx.Debit(ctx, caller, amount); err != nil {
			return apperrors.Wrap(apperrors.CodeTransferFailed, "collect donation", err)
		}
		return nil
	})
	if err != nil {
		return escrow.Campaign{}, err
	}
	return campaign, nil
}

// WithdrawFunds pays the full escrowed balance to the campaign owner once
// the goal is met and marks the campaign PaidOut.
func (l *Ledger) WithdrawFunds(ctx context.Context, caller string, campaignID int64) (int64, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.WithdrawFunds", trace.WithAttributes(
		attribute.Int64("campaign.id", campaignID),
	))
	defer span.End()

	now := l.clock()
	var amount int64
	err := l.store.WithinTx(ctx, func(tx storage.Tx) error {
		campaign, err := tx.Campaign(ctx, campaignID)
		if err != nil {
			return err
		}

		payout, err := campaign.Withdraw(caller, now)
		if err != nil {
			return err
		}
		amount = payout.Amount

		// Effects commit before the transfer: the resolved status and
		// zeroed balance are already in the transaction's write set when
		// the payout happens, so a re-entrant call cannot double-claim.
		if err := tx.UpdateCampaign(ctx, campaign); err != nil {
			return err
		}
		evt, err := event.New(campaignID, event.TypeFundsWithdrawn, caller, now, event.FundsWithdrawnPayload{
			Owner:  campaign.Owner,
			Amount: payout.Amount,
		})
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		if err := tx.Credit(ctx, payout.Recipient, payout.Amount); err != nil {
			return apperrors.Wrap(apperrors.CodeTransferFailed, "pay campaign owner", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// ClaimRefund returns all of the caller's outstanding donations on an
// expired campaign that missed its goal. The zeroed entries stay in the
// history and the campaign status is unchanged.
func (l *Ledger) ClaimRefund(ctx context.Context, caller string, campaignID int64) (int64, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.ClaimRefund", trace.WithAttributes(
		attribute.Int64("campaign.id", campaignID),
	))
	defer span.End()

	now := l.clock()
	var refunded int64
	err := l.store.WithinTx(ctx, func(tx storage.Tx) error {
		campaign, err := tx.Campaign(ctx, campaignID)
		if err != nil {
			return err
		}

		payouts, err := campaign.Refund(caller, now)
		if err != nil {
			return err
		}

		refunded = 0
		for _, payout := range payouts {
			if err := tx.ZeroDonation(ctx, campaignID, payout.Index); err != nil {
				return err
			}
			refunded += payout.Amount
		}
		if err := tx.UpdateCampaign(ctx, campaign); err != nil {
			return err
		}
		evt, err := event.New(campaignID, event.TypeRefundClaimed, caller, now, event.RefundClaimedPayload{
			Donator: caller,
			Amount:  refunded,
			Entries: len(payouts),
		})
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		if err := tx.Credit(ctx, caller, refunded); err != nil {
			return apperrors.Wrap(apperrors.CodeTransferFailed, "refund donor", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return refunded, nil
}

// DeleteCampaign force-refunds every outstanding donation and marks the
// campaign Deleted. Either every donor is refunded and the terminal status
// commits, or the operation rolls back and the campaign stays Active.
func (l *Ledger) DeleteCampaign(ctx context.Context, caller string, campaignID int64) error {
	ctx, span := l.tracer.Start(ctx, "Ledger.DeleteCampaign", trace.WithAttributes(
		attribute.Int64("campaign.id", campaignID),
	))
	defer span.End()

	now := l.clock()
	return l.store.WithinTx(ctx, func(tx storage.Tx) error {
		campaign, err := tx.Campaign(ctx, campaignID)
		if err != nil {
			return err
		}

		payouts, err := campaign.Delete(caller, now)
		if err != nil {
			return err
		}

		var total int64
		for _, payout := range payouts {
			if err := tx.ZeroDonation(ctx, campaignID, payout.Index); err != nil {
				return err
			}
			total += payout.Amount
		}
		if err := tx.UpdateCampaign(ctx, campaign); err != nil {
			return err
		}
		evt, err := event.New(campaignID, event.TypeCampaignDeleted, caller, now, event.CampaignDeletedPayload{
			RefundedTotal:   total,
			RefundedEntries: len(payouts),
		})
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		for _, payout := range payouts {
			if err := tx.Credit(ctx, payout.Recipient, payout.Amount); err != nil {
				return apperrors.Wrap(apperrors.CodeTransferFailed, "refund donor on delete", err)
			}
		}
		return nil
	})
}

// Campaign returns one campaign with its donation history.
func (l *Ledger) Campaign(ctx context.Context, campaignID int64) (escrow.Campaign, error) {
	return l.store.Campaign(ctx, campaignID)
}

// Campaigns returns every campaign in insertion order, including resolved
// and deleted ones; callers filter by status themselves.
func (l *Ledger) Campaigns(ctx context.Context) ([]escrow.Campaign, error) {
	return l.store.Campaigns(ctx)
}

// CampaignCount returns the number of campaigns ever created.
func (l *Ledger) CampaignCount(ctx context.Context) (int64, error) {
	return l.store.CampaignCount(ctx)
}

// Donators returns the index-aligned donor and amount sequences for a
// campaign, including zeroed entries.
func (l *Ledger) Donators(ctx context.Context, campaignID int64) ([]string, []int64, error) {
	campaign, err := l.store.Campaign(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	donators, amounts := campaign.Donators()
	return donators, amounts, nil
}

// Events returns a campaign's journal in sequence order.
func (l *Ledger) Events(ctx context.Context, campaignID int64) ([]event.Event, error) {
	if _, err := l.store.Campaign(ctx, campaignID); err != nil {
		return nil, err
	}
	return l.store.Events(ctx, campaignID)
}
