package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/ademetov/messenger-server/internal/store/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := sqlite.NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(sqlite.Schema)
		return err
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return NewService(st, &JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "messenger-server",
		Audience: "messenger-client",
		TTL:      time.Hour,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("username = %q, want alice", claims.Username)
	}
	if claims.UserID == 0 {
		t.Error("user id should be set")
	}

	if _, err := svc.Login(ctx, "alice", "password123"); err != nil {
		t.Errorf("login with correct password: %v", err)
	}
	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ab", "password123"); !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("expected ErrInvalidUsername, got %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "short"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}

	if _, err := svc.Register(ctx, "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "password123"); !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.Register(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.ValidateToken(token + "x"); err == nil {
		t.Error("tampered token should fail validation")
	}
	if _, err := svc.ValidateToken(""); err == nil {
		t.Error("empty token should fail validation")
	}

	// A token signed with a different secret is rejected.
	other, err := GenerateToken(&JWTConfig{
		Secret:   []byte("other-secret"),
		Issuer:   "messenger-server",
		Audience: "messenger-client",
		TTL:      time.Hour,
	}, 1, "alice")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := svc.ValidateToken(other); err == nil {
		t.Error("token with wrong secret should fail validation")
	}
}
