package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Campaign errors
	CodeCampaignInvalidDeadline    Code = "CAMPAIGN_INVALID_DEADLINE"
	CodeCampaignNotFound           Code = "CAMPAIGN_NOT_FOUND"
	CodeCampaignInactive           Code = "CAMPAIGN_INACTIVE"
	CodeCampaignUnauthorized       Code = "CAMPAIGN_UNAUTHORIZED"
	CodeCampaignGoalNotReached     Code = "CAMPAIGN_GOAL_NOT_REACHED"
	CodeCampaignGoalWasReached     Code = "CAMPAIGN_GOAL_WAS_REACHED"
	CodeCampaignDeadlineNotReached Code = "CAMPAIGN_DEADLINE_NOT_REACHED"
	CodeCampaignNothingToRefund    Code = "CAMPAIGN_NOTHING_TO_REFUND"
	CodeCampaignAlreadyResolved    Code = "CAMPAIGN_ALREADY_RESOLVED"

	// Donation errors
	CodeDonationInvalidAmount Code = "DONATION_INVALID_AMOUNT"

	// Transfer errors
	CodeTransferFailed Code = "TRANSFER_FAILED"

	// Account errors
	CodeAccountNotFound          Code = "ACCOUNT_NOT_FOUND"
	CodeAccountAlreadyExists     Code = "ACCOUNT_ALREADY_EXISTS"
	CodeAccountInsufficientFunds Code = "ACCOUNT_INSUFFICIENT_FUNDS"
	CodeAccountInvalidAmount     Code = "ACCOUNT_INVALID_AMOUNT"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// UnprocessableEntity - the request was understood but violates a
	// validation rule.
	case CodeCampaignInvalidDeadline,
		CodeDonationInvalidAmount,
		CodeAccountInvalidAmount:
		return http.StatusUnprocessableEntity

	// NotFound - missing records.
	case CodeCampaignNotFound,
		CodeAccountNotFound,
		CodeNotFound:
		return http.StatusNotFound

	// Forbidden - caller is authenticated but not allowed to perform
	// the operation.
	case CodeCampaignUnauthorized:
		return http.StatusForbidden

	// Conflict - the operation is valid in general but not in the
	// ledger's current state.
	case CodeCampaignInactive,
		CodeCampaignGoalNotReached,
		CodeCampaignGoalWasReached,
		CodeCampaignDeadlineNotReached,
		CodeCampaignNothingToRefund,
		CodeCampaignAlreadyResolved,
		CodeAccountAlreadyExists:
		return http.StatusConflict

	// PaymentRequired - value transfer collaborator failures.
	case CodeTransferFailed,
		CodeAccountInsufficientFunds:
		return http.StatusPaymentRequired

	default:
		return http.StatusInternalServerError
	}
}
