package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Gather-Network/conference_layer/internal/app/domain/user"
	"github.com/Gather-Network/conference_layer/internal/app/storage/memory"
)

const testSecret = "test-secret"

func newService() *Service {
	return New(memory.New(), testSecret, time.Hour, nil)
}

func TestSignupAndLogin(t *testing.T) {
	s := newService()
	ctx := context.Background()

	created, err := s.Signup(ctx, "Dana@Example.com", "Dana", "correct horse")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if created.Email != "dana@example.com" {
		t.Fatalf("email not normalized: %q", created.Email)
	}
	if created.PasswordHash == "correct horse" {
		t.Fatal("password must be hashed")
	}

	token, u, err := s.Login(ctx, "dana@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.ID != created.ID {
		t.Fatalf("logged in as %q, want %q", u.ID, created.ID)
	}

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["user_id"] != created.ID {
		t.Fatalf("token user_id = %v", claims["user_id"])
	}
	if claims["role"] != string(user.RoleUser) {
		t.Fatalf("token role = %v", claims["role"])
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newService()
	ctx := context.Background()

	if _, err := s.Signup(ctx, "dana@example.com", "Dana", "correct horse"); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if _, _, err := s.Login(ctx, "dana@example.com", "wrong"); err == nil {
		t.Fatal("expected error for wrong password")
	}
	if _, _, err := s.Login(ctx, "nobody@example.com", "correct horse"); err == nil {
		t.Fatal("expected error for unknown email")
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	s := newService()
	ctx := context.Background()

	if _, err := s.Signup(ctx, "dana@example.com", "Dana", "correct horse"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, err := s.Signup(ctx, "dana@example.com", "Other", "another pass"); err == nil {
		t.Fatal("expected conflict for duplicate email")
	}
}

func TestTelegramLink(t *testing.T) {
	s := newService()
	ctx := context.Background()

	created, err := s.Signup(ctx, "dana@example.com", "Dana", "correct horse")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if link := s.TelegramLink(created); link != "" {
		t.Fatalf("expected no link without a handle, got %q", link)
	}

	updated, err := s.UpdateProfile(ctx, created.ID, "Dana", "@dana_tg")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if link := s.TelegramLink(updated); link != "https://t.me/dana_tg" {
		t.Fatalf("link = %q", link)
	}
}
