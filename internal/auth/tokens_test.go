package auth

import (
	"errors"
	"testing"
	"time"
)

const (
	testAccessSecret  = "access-secret-used-in-tests"
	testRefreshSecret = "refresh-secret-used-in-tests"
)

func newTestService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, 240*time.Hour)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return svc
}

func TestNewTokenServiceRejectsShortSecrets(t *testing.T) {
	if _, err := NewTokenService("short", testRefreshSecret, time.Minute, time.Hour); err == nil {
		t.Fatal("expected error for short access secret")
	}
	if _, err := NewTokenService(testAccessSecret, "short", time.Minute, time.Hour); err == nil {
		t.Fatal("expected error for short refresh secret")
	}
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestService(t)

	tokens, err := svc.Issue("user-1", "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", tokens)
	}

	userID, err := svc.ValidateAccess(tokens.AccessToken)
	if err != nil {
		t.Fatalf("validate access: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}

	userID, err = svc.ValidateRefresh(tokens.RefreshToken)
	if err != nil {
		t.Fatalf("validate refresh: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}
}

func TestTokensUseSeparateSecrets(t *testing.T) {
	svc := newTestService(t)

	tokens, err := svc.Issue("user-1", "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	if _, err := svc.ValidateAccess(tokens.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid validating refresh token as access, got %v", err)
	}
	if _, err := svc.ValidateRefresh(tokens.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid validating access token as refresh, got %v", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestService(t)

	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.NowFunc = func() time.Time { return issued }

	tokens, err := svc.Issue("user-1", "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	svc.NowFunc = func() time.Time { return issued.Add(16 * time.Minute) }
	if _, err := svc.ValidateAccess(tokens.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	// The refresh token outlives the access token.
	if _, err := svc.ValidateRefresh(tokens.RefreshToken); err != nil {
		t.Fatalf("refresh token should still be valid: %v", err)
	}
}

func TestValidateGarbageToken(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.ValidateAccess("not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
