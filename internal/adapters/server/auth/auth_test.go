package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/teknos/oncolly/internal/domain"
)

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a, err := New("test-secret", func() time.Time { return now })
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	token, err := a.Issue("p-1", domain.RolePatient)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	claims, err := a.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != "p-1" || claims.Role != domain.RolePatient {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := New("test-secret", func() time.Time { return now })
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	token, err := issuer.Issue("p-1", domain.RolePatient)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	later, err := New("test-secret", func() time.Time { return now.Add(25 * time.Hour) })
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := later.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a, err := New("secret-a", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b, err := New("secret-b", nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	token, err := a.Issue("p-1", domain.RolePatient)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := b.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := CheckPassword(hash, "hunter2"); err != nil {
		t.Fatalf("CheckPassword() error = %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
}
