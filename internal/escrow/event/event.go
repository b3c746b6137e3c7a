// Package event defines the campaign ledger's append-only event journal.
//
// Events are appended in the same storage transaction as the state change
// they describe, so the journal never records an operation that rolled
// back. DonationReceived is the notification consumers subscribe to; the
// remaining types are audit records of terminal resolutions.
package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Type identifies the type of a campaign event.
type Type string

const (
	// TypeCampaignCreated records the creation of a campaign.
	TypeCampaignCreated Type = "campaign.created"
	// TypeDonationReceived records an accepted donation.
	TypeDonationReceived Type = "campaign.donation_received"
	// TypeFundsWithdrawn records the owner payout of a funded campaign.
	TypeFundsWithdrawn Type = "campaign.funds_withdrawn"
	// TypeRefundClaimed records a donor reclaiming outstanding donations.
	TypeRefundClaimed Type = "campaign.refund_claimed"
	// TypeCampaignDeleted records an owner deletion with bulk refund.
	TypeCampaignDeleted Type = "campaign.deleted"
)

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Event represents an immutable entry in the campaign journal.
type Event struct {
	// CampaignID is the campaign this event belongs to.
	CampaignID int64
	// Seq is the event sequence number within the campaign (starts at 1).
	// Assigned by storage on append.
	Seq uint64
	// Type identifies the kind of event.
	Type Type
	// Actor is the address that triggered the event.
	Actor string
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// PayloadJSON holds event-specific data as JSON.
	PayloadJSON []byte
}

// New builds an event with a marshaled payload.
func New(campaignID int64, eventType Type, actor string, at time.Time, payload any) (Event, error) {
	if !eventType.IsValid() {
		return Event{}, fmt.Errorf("event type is required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		CampaignID:  campaignID,
		Type:        eventType,
		Actor:       actor,
		Timestamp:   at.UTC(),
		PayloadJSON: data,
	}, nil
}
