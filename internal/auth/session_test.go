package auth

import (
	"context"
	"errors"
	"testing"

	"quiz-vault/internal/domain"
	"quiz-vault/internal/infra/memory"
)

func TestLoginResolvesFixedIdentities(t *testing.T) {
	ctx := context.Background()
	session := NewSession(memory.NewKV(), SessionKey)

	if session.IsAuthenticated() || session.IsAdmin() {
		t.Fatalf("expected anonymous session")
	}

	user, err := session.Login(ctx, "admin@example.com", "admin")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if user.ID != "admin-1" || !session.IsAdmin() {
		t.Fatalf("expected admin identity, got %+v", user)
	}

	user, err = session.Login(ctx, "user@example.com", "user")
	if err != nil {
		t.Fatalf("user login: %v", err)
	}
	if user.ID != "user-1" || session.IsAdmin() || !session.IsAuthenticated() {
		t.Fatalf("expected regular identity, got %+v", user)
	}
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name, identifier, secret string
		want                     error
	}{
		{"empty identifier", "", "admin", domain.ErrMissingField},
		{"empty secret", "admin@example.com", "", domain.ErrMissingField},
		{"wrong secret", "admin@example.com", "user", domain.ErrInvalidCredentials},
		{"unknown identifier", "root@example.com", "admin", domain.ErrInvalidCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kv := memory.NewKV()
			session := NewSession(kv, SessionKey)
			if _, err := session.Login(ctx, tc.identifier, tc.secret); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if session.IsAuthenticated() {
				t.Fatalf("failed login must not authenticate")
			}
			if _, ok, _ := kv.Get(ctx, SessionKey); ok {
				t.Fatalf("failed login must not persist a session")
			}
		})
	}
}

func TestSessionSurvivesRestore(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()

	first := NewSession(kv, KeyForProfile("tab-a"))
	if _, err := first.Login(ctx, "user@example.com", "user"); err != nil {
		t.Fatalf("login: %v", err)
	}

	reloaded := NewSession(kv, KeyForProfile("tab-a"))
	if err := reloaded.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	user, ok := reloaded.Current()
	if !ok || user.ID != "user-1" {
		t.Fatalf("expected restored user-1, got %+v ok=%v", user, ok)
	}

	other := NewSession(kv, KeyForProfile("tab-b"))
	if err := other.Restore(ctx); err != nil {
		t.Fatalf("restore other: %v", err)
	}
	if other.IsAuthenticated() {
		t.Fatalf("profiles must not share sessions")
	}
}

func TestRestoreIgnoresUnknownOrCorruptData(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	session := NewSession(kv, SessionKey)

	_ = kv.Set(ctx, SessionKey, `{"id":"intruder","role":"admin"}`)
	if err := session.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if session.IsAuthenticated() {
		t.Fatalf("unknown identities must not be restored")
	}

	_ = kv.Set(ctx, SessionKey, `not json`)
	if err := session.Restore(ctx); err != nil {
		t.Fatalf("restore corrupt: %v", err)
	}
	if session.IsAuthenticated() {
		t.Fatalf("corrupt data must leave the session anonymous")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	session := NewSession(kv, SessionKey)

	if _, err := session.Login(ctx, "admin@example.com", "admin"); err != nil {
		t.Fatalf("login: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := session.Logout(ctx); err != nil {
			t.Fatalf("logout %d: %v", i, err)
		}
	}
	if session.IsAuthenticated() {
		t.Fatalf("expected anonymous after logout")
	}
	if _, ok, _ := kv.Get(ctx, SessionKey); ok {
		t.Fatalf("expected persisted session cleared")
	}
}
