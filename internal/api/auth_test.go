package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestTokenSignerRoundTrip(t *testing.T) {
	signer := NewTokenSigner("test-secret", "fundhaus").WithClock(func() time.Time { return testNow })

	token, err := signer.Mint("acct_alice")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	address, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if address != "acct_alice" {
		t.Fatalf("expected acct_alice, got %q", address)
	}
}

func TestTokenSignerRejectsEmptyAddress(t *testing.T) {
	signer := NewTokenSigner("test-secret", "fundhaus")
	if _, err := signer.Mint("  "); err == nil {
		t.Fatal("expected error for blank address")
	}
}

func TestTokenSignerRejectsWrongSecret(t *testing.T) {
	signer := NewTokenSigner("test-secret", "fundhaus").WithClock(func() time.Time { return testNow })
	other := NewTokenSigner("other-secret", "fundhaus").WithClock(func() time.Time { return testNow })

	token, err := signer.Mint("acct_alice")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected verification to fail with a different secret")
	}
}

func TestTokenSignerRejectsWrongIssuer(t *testing.T) {
	signer := NewTokenSigner("test-secret", "fundhaus").WithClock(func() time.Time { return testNow })
	other := NewTokenSigner("test-secret", "elsewhere").WithClock(func() time.Time { return testNow })

	token, err := signer.Mint("acct_alice")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected verification to fail with a different issuer")
	}
}

func TestTokenSignerRejectsExpiredToken(t *testing.T) {
	now := testNow
	signer := NewTokenSigner("test-secret", "fundhaus").
		WithClock(func() time.Time { return now }).
		WithTTL(time.Minute)

	token, err := signer.Mint("acct_alice")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	now = testNow.Add(2 * time.Minute)
	if _, err := signer.Verify(token); err == nil {
		t.Fatal("expected verification to fail after expiry")
	}
}

func TestAuthenticateMiddleware(t *testing.T) {
	signer := NewTokenSigner("test-secret", "fundhaus").WithClock(func() time.Time { return testNow })
	token, err := signer.Mint("acct_alice")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	var caller string
	handler := signer.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCaller string
	}{
		{
			name:       "valid bearer token",
			header:     "Bearer " + token,
			wantStatus: http.StatusOK,
			wantCaller: "acct_alice",
		},
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic " + token,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			header:     "Bearer not-a-token",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			caller = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			if caller != tc.wantCaller {
				t.Fatalf("expected caller %q, got %q", tc.wantCaller, caller)
			}
		})
	}
}
