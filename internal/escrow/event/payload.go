package event

// CampaignCreatedPayload captures the payload for campaign.created events.
type CampaignCreatedPayload struct {
	Owner    string `json:"owner"`
	Title    string `json:"title"`
	Goal     int64  `json:"goal"`
	Deadline int64  `json:"deadline_unix"`
}

// DonationReceivedPayload captures the payload for campaign.donation_received
// events. CurrentAmount is the escrow balance after the donation, so
// consumers can reconstruct running totals without re-reading campaign state.
type DonationReceivedPayload struct {
	CampaignID    int64  `json:"campaign_id"`
	Donator       string `json:"donator"`
	Amount        int64  `json:"amount"`
	CurrentAmount int64  `json:"current_amount"`
}

// FundsWithdrawnPayload captures the payload for campaign.funds_withdrawn events.
type FundsWithdrawnPayload struct {
	Owner  string `json:"owner"`
	Amount int64  `json:"amount"`
}

// RefundClaimedPayload captures the payload for campaign.refund_claimed events.
type RefundClaimedPayload struct {
	Donator string `json:"donator"`
	Amount  int64  `json:"amount"`
	Entries int    `json:"entries"`
}

// CampaignDeletedPayload captures the payload for campaign.deleted events.
type CampaignDeletedPayload struct {
	RefundedTotal   int64 `json:"refunded_total"`
	RefundedEntries int   `json:"refunded_entries"`
}
