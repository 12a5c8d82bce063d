package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	"receiptRelay/internal/models"
)

func TestManager_RoundTrip(t *testing.T) {
	m, err := NewManager("signing-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token, err := m.NewJWT("backend-1", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sub, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sub != "backend-1" {
		t.Errorf("subject mismatch: %q", sub)
	}
}

func TestManager_Rejects(t *testing.T) {
	m, _ := NewManager("signing-key")

	t.Run("expired", func(t *testing.T) {
		token, _ := m.NewJWT("backend-1", -time.Minute)
		if _, err := m.Parse(token); !errors.Is(err, models.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("other key", func(t *testing.T) {
		other, _ := NewManager("other-key")
		token, _ := other.NewJWT("backend-1", time.Minute)
		if _, err := m.Parse(token); !errors.Is(err, models.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("unsigned", func(t *testing.T) {
		token, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.StandardClaims{Subject: "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if _, err := m.Parse(token); !errors.Is(err, models.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := m.Parse("not-a-token"); !errors.Is(err, models.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestNewManager_EmptyKey(t *testing.T) {
	if _, err := NewManager(""); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
