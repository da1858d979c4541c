package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"taste-fit/internal/repository"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	users := repository.NewMemoryAdminUserRepository()
	svc := NewAuthService("test-secret", users)
	if err := svc.SeedAdmin(context.Background(), "admin@example.com", "admin123"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return svc
}

func TestAuthLoginAndVerify(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	token, user, err := svc.Login(ctx, "admin@example.com", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || user.Role != repository.RoleAdmin {
		t.Fatalf("unexpected login result token=%q role=%q", token, user.Role)
	}

	verified, err := svc.Verify(ctx, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.Email != "admin@example.com" {
		t.Fatalf("unexpected verified user %+v", verified)
	}
}

func TestAuthLoginBadPassword(t *testing.T) {
	svc := newAuthService(t)

	_, _, err := svc.Login(context.Background(), "admin@example.com", "wrong")
	var problem *Problem
	if !errors.As(err, &problem) || problem.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 problem, got %v", err)
	}
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc := newAuthService(t)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "admin123")
	var problem *Problem
	if !errors.As(err, &problem) || problem.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 problem, got %v", err)
	}
}

func TestAuthVerifyRejectsGarbage(t *testing.T) {
	svc := newAuthService(t)

	if _, err := svc.Verify(context.Background(), "not-a-token"); err == nil {
		t.Fatalf("expected error for garbage token")
	}
}

func TestAuthVerifyRejectsTokenFromOtherSecret(t *testing.T) {
	svc := newAuthService(t)
	other := NewAuthService("other-secret", repository.NewMemoryAdminUserRepository())
	if err := other.SeedAdmin(context.Background(), "admin@example.com", "admin123"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	token, _, err := other.Login(context.Background(), "admin@example.com", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.Verify(context.Background(), token); err == nil {
		t.Fatalf("expected error for token signed with another secret")
	}
}

func TestSeedAdminIdempotent(t *testing.T) {
	users := repository.NewMemoryAdminUserRepository()
	svc := NewAuthService("test-secret", users)
	ctx := context.Background()

	if err := svc.SeedAdmin(ctx, "admin@example.com", "first"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := svc.SeedAdmin(ctx, "admin@example.com", "second"); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	// El segundo seed no pisa la contrasena original.
	if _, _, err := svc.Login(ctx, "admin@example.com", "first"); err != nil {
		t.Fatalf("expected original password to keep working: %v", err)
	}
}
