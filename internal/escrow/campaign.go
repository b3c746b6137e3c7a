package escrow

import (
	"strconv"
	"strings"
	"time"

	apperrors "github.com/fundhaus/fundhaus/internal/platform/errors"
)

// Status describes the lifecycle of a campaign. Exactly one terminal status
// may ever be reached; none is reversible.
type Status int

const (
	// StatusActive indicates the campaign accepts donations and has not
	// been resolved.
	StatusActive Status = iota
	// StatusPaidOut indicates the owner withdrew the escrowed funds.
	StatusPaidOut
	// StatusRefunded indicates the campaign was resolved by refunding donors.
	StatusRefunded
	// StatusDeleted indicates the owner deleted the campaign and all
	// outstanding donations were returned.
	StatusDeleted
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusPaidOut:
		return "paid_out"
	case StatusRefunded:
		return "refunded"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status permits no further mutation.
func (s Status) IsTerminal() bool {
	return s == StatusPaidOut || s == StatusRefunded || s == StatusDeleted
}

var (
	// ErrInvalidDeadline indicates a campaign deadline that is not in the future.
	ErrInvalidDeadline = apperrors.New(apperrors.CodeCampaignInvalidDeadline, "campaign deadline must be in the future")
	// ErrCampaignNotFound indicates a campaign id with no record.
	ErrCampaignNotFound = apperrors.New(apperrors.CodeCampaignNotFound, "campaign not found")
	// ErrCampaignInactive indicates the campaign no longer accepts donations.
	ErrCampaignInactive = apperrors.New(apperrors.CodeCampaignInactive, "campaign is not accepting donations")
	// ErrUnauthorized indicates the caller is not the campaign owner.
	ErrUnauthorized = apperrors.New(apperrors.CodeCampaignUnauthorized, "caller is not the campaign owner")
	// ErrGoalNotReached indicates a withdrawal attempt before the goal was met.
	ErrGoalNotReached = apperrors.New(apperrors.CodeCampaignGoalNotReached, "campaign goal has not been reached")
	// ErrGoalWasReached indicates a refund attempt on a campaign that met its goal.
	ErrGoalWasReached = apperrors.New(apperrors.CodeCampaignGoalWasReached, "campaign goal was reached")
	// ErrDeadlineNotReached indicates a refund attempt before the deadline.
	ErrDeadlineNotReached = apperrors.New(apperrors.CodeCampaignDeadlineNotReached, "campaign deadline has not been reached")
	// ErrNothingToRefund indicates the caller has no outstanding donation entries.
	ErrNothingToRefund = apperrors.New(apperrors.CodeCampaignNothingToRefund, "caller has no outstanding donations")
	// ErrAlreadyResolved indicates the campaign already reached a terminal status.
	ErrAlreadyResolved = apperrors.New(apperrors.CodeCampaignAlreadyResolved, "campaign is already resolved")
	// ErrInvalidAmount indicates a donation amount that is not positive.
	ErrInvalidAmount = apperrors.New(apperrors.CodeDonationInvalidAmount, "donation amount must be positive")
	// ErrTransferFailed wraps a value transfer collaborator failure.
	ErrTransferFailed = apperrors.New(apperrors.CodeTransferFailed, "value transfer failed")
)

// DonorEntry is one recorded donation. Entries are zeroed on refund, never
// removed, so indices and history length stay stable for auditability.
type DonorEntry struct {
	Donator string
	Amount  int64
}

// Outstanding reports whether the entry still holds escrowed funds.
func (e DonorEntry) Outstanding() bool {
	return e.Amount > 0
}

// Payout instructs the caller to move value out of escrow to a recipient.
// It references the entry index so storage can zero the matching record.
type Payout struct {
	Index     int
	Recipient string
	Amount    int64
}

// Campaign is one fundraising effort with a goal, deadline, and escrowed
// balance. Campaigns are identified by a monotonically increasing integer id
// starting at 0; ids are never reused and records are never erased.
type Campaign struct {
	ID          int64
	Owner       string
	Title       string
	Description string
	Image       string
	// Goal is the target amount in the smallest value unit.
	Goal int64
	// Deadline is the absolute timestamp after which donations stop and
	// refund eligibility begins if the goal is unmet.
	Deadline time.Time
	// CurrentAmount is the sum of all outstanding donation entries.
	CurrentAmount int64
	Status        Status
	Entries       []DonorEntry
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateCampaignInput carries the fields for a new campaign. Title,
// description, and image are opaque to the ledger; well-formedness is a
// concern of the calling layer.
type CreateCampaignInput struct {
	Owner       string
	Title       string
	Description string
	Image       string
	Goal        int64
	Deadline    time.Time
}

// NewCampaign validates input and returns a new Active campaign with no
// donations. The id is assigned by storage on insert.
func NewCampaign(in CreateCampaignInput, now time.Time) (Campaign, error) {
	if !in.Deadline.After(now) {
		return Campaign{}, apperrors.WithMetadata(
			apperrors.CodeCampaignInvalidDeadline,
			"campaign deadline must be in the future",
			map[string]string{
				"deadline": in.Deadline.UTC().Format(time.RFC3339),
				"now":      now.UTC().Format(time.RFC3339),
			},
		)
	}
	return Campaign{
		Owner:         strings.TrimSpace(in.Owner),
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Image:         strings.TrimSpace(in.Image),
		Goal:          in.Goal,
		Deadline:      in.Deadline.UTC(),
		CurrentAmount: 0,
		Status:        StatusActive,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}, nil
}

// Donate appends a donor entry and adds the amount to escrow. Donations are
// accepted strictly before the deadline and only while the campaign is
// Active. Amounts beyond the goal are accepted; excess belongs to the owner
// on withdrawal.
func (c *Campaign) Donate(donor string, amount int64, now time.Time) error {
	if c.Status != StatusActive {
		return ErrCampaignInactive
	}
	if !now.Before(c.Deadline) {
		return ErrCampaignInactive
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	c.Entries = append(c.Entries, DonorEntry{Donator: donor, Amount: amount})
	c.CurrentAmount += amount
	c.UpdatedAt = now.UTC()
	return nil
}

// Withdraw releases the full escrowed balance to the owner once the goal is
// met. The status flips to PaidOut and the balance zeroes before the caller
// performs the outbound transfer, so a re-entrant attempt observes the
// resolved state.
func (c *Campaign) Withdraw(caller string, now time.Time) (Payout, error) {
	if caller != c.Owner {
		return Payout{}, ErrUnauthorized
	}
	if c.Status != StatusActive {
		return Payout{}, ErrAlreadyResolved
	}
	if c.CurrentAmount < c.Goal {
		return Payout{}, apperrors.WithMetadata(
			apperrors.CodeCampaignGoalNotReached,
			"campaign goal has not been reached",
			map[string]string{
				"goal":           strconv.FormatInt(c.Goal, 10),
				"current_amount": strconv.FormatInt(c.CurrentAmount, 10),
			},
		)
	}
	payout := Payout{Index: -1, Recipient: c.Owner, Amount: c.CurrentAmount}
	c.CurrentAmount = 0
	c.Status = StatusPaidOut
	c.UpdatedAt = now.UTC()
	return payout, nil
}

// Refund zeroes every outstanding entry belonging to caller and returns the
// payouts owed. Refunds open once the deadline passes with the goal missed.
// The campaign status stays Active; only deleteCampaign reaches a terminal
// refunded state.
func (c *Campaign) Refund(caller string, now time.Time) ([]Payout, error) {
	// A paid-out campaign met its goal; entries recorded before the payout
	// must never be refundable afterwards.
	if c.Status == StatusPaidOut {
		return nil, ErrGoalWasReached
	}
	if now.Before(c.Deadline) {
		return nil, ErrDeadlineNotReached
	}
	if c.CurrentAmount >= c.Goal {
		return nil, ErrGoalWasReached
	}
	var payouts []Payout
	for i := range c.Entries {
		entry := &c.Entries[i]
		if entry.Donator != caller || !entry.Outstanding() {
			continue
		}
		payouts = append(payouts, Payout{Index: i, Recipient: caller, Amount: entry.Amount})
		c.CurrentAmount -= entry.Amount
		entry.Amount = 0
	}
	if len(payouts) == 0 {
		return nil, ErrNothingToRefund
	}
	c.UpdatedAt = now.UTC()
	return payouts, nil
}

// Delete force-refunds every outstanding entry and marks the campaign
// Deleted. Only the owner may delete, and only while the campaign is Active.
// The caller must apply every returned payout or none; a partial delete must
// never commit.
func (c *Campaign) Delete(caller string, now time.Time) ([]Payout, error) {
	if caller != c.Owner {
		return nil, ErrUnauthorized
	}
	if c.Status != StatusActive {
		return nil, ErrAlreadyResolved
	}
	var payouts []Payout
	for i := range c.Entries {
		entry := &c.Entries[i]
		if !entry.Outstanding() {
			continue
		}
		payouts = append(payouts, Payout{Index: i, Recipient: entry.Donator, Amount: entry.Amount})
		entry.Amount = 0
	}
	c.CurrentAmount = 0
	c.Status = StatusDeleted
	c.UpdatedAt = now.UTC()
	return payouts, nil
}

// Donators returns the index-aligned donor and amount sequences, including
// zeroed entries.
func (c *Campaign) Donators() ([]string, []int64) {
	donators := make([]string, len(c.Entries))
	amounts := make([]int64, len(c.Entries))
	for i, entry := range c.Entries {
		donators[i] = entry.Donator
		amounts[i] = entry.Amount
	}
	return donators, amounts
}
