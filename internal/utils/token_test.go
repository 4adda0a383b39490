package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"
	at, err := NewAccessToken(secret, 42, "Mechanic", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if at.Token == "" {
		t.Fatal("empty token")
	}
	if remaining := time.Until(at.Exp); remaining < 14*time.Minute || remaining > 16*time.Minute {
		t.Fatalf("unexpected expiry %v", at.Exp)
	}

	parsed, err := jwt.Parse(at.Token, func(tok *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}
	if sub, _ := claims["sub"].(float64); uint64(sub) != 42 {
		t.Errorf("sub = %v, want 42", claims["sub"])
	}
	if role, _ := claims["role"].(string); role != "Mechanic" {
		t.Errorf("role = %q, want Mechanic", role)
	}
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	at, err := NewAccessToken("secret-a", 1, "Admin", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	_, err = jwt.Parse(at.Token, func(tok *jwt.Token) (any, error) {
		return []byte("secret-b"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err == nil {
		t.Fatal("token verified with wrong secret")
	}
}

func TestNewRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	b, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if len(a.Raw) != 96 {
		t.Errorf("raw length = %d, want 96", len(a.Raw))
	}
	if a.Raw == b.Raw {
		t.Error("two refresh tokens are identical")
	}
	if remaining := time.Until(a.Exp); remaining < 6*24*time.Hour {
		t.Errorf("expiry too soon: %v", a.Exp)
	}
}

func TestHashRefreshRaw(t *testing.T) {
	h1 := HashRefreshRaw("token-one")
	h2 := HashRefreshRaw("token-one")
	h3 := HashRefreshRaw("token-two")
	if h1 != h2 {
		t.Error("same input hashed differently")
	}
	if h1 == h3 {
		t.Error("different inputs collided")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "password" {
		t.Fatal("hash equals plaintext")
	}
	if !VerifyPassword(hash, "password") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "Password") {
		t.Error("wrong password accepted")
	}
	if VerifyPassword("not-a-bcrypt-hash", "password") {
		t.Error("garbage hash accepted")
	}
}
