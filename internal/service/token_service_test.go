package service

import (
	"errors"
	"testing"
	"time"

	"batchbook/internal/domain"
)

func TestTokenServiceIssueParse(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	user := domain.User{ID: "u1", Email: "user@example.com"}

	pair, err := svc.IssuePair(user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens")
	}
	if pair.ExpiresIn != 3600 {
		t.Fatalf("expected expiresIn 3600, got %d", pair.ExpiresIn)
	}

	claims, err := svc.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "u1" || claims.Subject != "u1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenServiceParse_WrongSecret(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	other := NewTokenService("other", time.Hour)

	pair, err := svc.IssuePair(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	if _, err := other.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenServiceParse_Malformed(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	for _, token := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		if _, err := svc.ParseAccessToken(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", token, err)
		}
	}
}

func TestTokenServiceParse_Expired(t *testing.T) {
	svc := NewTokenService("secret", time.Nanosecond)

	pair, err := svc.IssuePair(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := svc.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenServiceRefreshTokensAreUnique(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	first, err := svc.IssuePair(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	second, err := svc.IssuePair(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if first.RefreshToken == second.RefreshToken {
		t.Fatalf("expected distinct opaque refresh tokens")
	}
}
