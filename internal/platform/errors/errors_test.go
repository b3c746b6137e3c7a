package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	base := New(CodeCampaignNotFound, "campaign not found")
	wrapped := fmt.Errorf("load campaign: %w", Wrap(CodeCampaignNotFound, "campaign not found", stderrors.New("sql: no rows")))

	if !stderrors.Is(wrapped, base) {
		t.Fatalf("expected wrapped error to match by code")
	}
	if stderrors.Is(wrapped, New(CodeCampaignInactive, "campaign inactive")) {
		t.Fatalf("expected mismatched codes to not match")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{
			name: "domain error",
			err:  New(CodeCampaignGoalNotReached, "goal not reached"),
			want: CodeCampaignGoalNotReached,
		},
		{
			name: "wrapped domain error",
			err:  fmt.Errorf("withdraw: %w", New(CodeCampaignAlreadyResolved, "already resolved")),
			want: CodeCampaignAlreadyResolved,
		},
		{
			name: "plain error",
			err:  stderrors.New("boom"),
			want: CodeUnknown,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := GetCode(tc.err); got != tc.want {
				t.Fatalf("expected code %q, got %q", tc.want, got)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeCampaignInvalidDeadline, http.StatusUnprocessableEntity},
		{CodeCampaignNotFound, http.StatusNotFound},
		{CodeCampaignUnauthorized, http.StatusForbidden},
		{CodeCampaignAlreadyResolved, http.StatusConflict},
		{CodeTransferFailed, http.StatusPaymentRequired},
		{CodeUnknown, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.want, got)
		}
	}
}

func TestUnwrapReturnsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeTransferFailed, "transfer failed", cause)
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
}
