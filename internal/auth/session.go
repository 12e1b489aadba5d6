package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"quiz-vault/internal/domain"
	"quiz-vault/internal/storage"
)

// SessionKey is where the current identity is persisted.
const SessionKey = "quizUser"

// KeyForProfile namespaces the session key so several profiles can share a store.
func KeyForProfile(profile string) string {
	if profile == "" {
		return SessionKey
	}
	return SessionKey + ":" + profile
}

// Session holds the current identity of one tab/profile and persists it so
// it survives a restart. The zero identity means anonymous.
type Session struct {
	kv  storage.KV
	key string

	mu      sync.RWMutex
	current *domain.User
}

func NewSession(kv storage.KV, key string) *Session {
	return &Session{kv: kv, key: key}
}

// Restore loads the persisted identity. Unknown or unreadable data leaves the
// session anonymous.
func (s *Session) Restore(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	if !ok {
		return nil
	}
	var stored domain.User
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.Printf("auth: ignoring unreadable session %s: %v", s.key, err)
		return nil
	}
	user, known := domain.LookupUser(stored.ID)
	if !known {
		log.Printf("auth: ignoring session for unknown user %q", stored.ID)
		return nil
	}
	s.current = &user
	return nil
}

// Login resolves the credentials against the fixed identities and persists
// the result.
func (s *Session) Login(ctx context.Context, identifier, secret string) (domain.User, error) {
	user, err := domain.Authenticate(identifier, secret)
	if err != nil {
		return domain.User{}, err
	}
	data, err := json.Marshal(user)
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal session: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return domain.User{}, fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.current = &user
	s.mu.Unlock()
	return user, nil
}

// Logout clears the identity in memory and in the store. It is idempotent.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Current returns the logged-in identity, if any.
func (s *Session) Current() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.User{}, false
	}
	return *s.current, true
}

func (s *Session) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

func (s *Session) IsAdmin() bool {
	user, ok := s.Current()
	return ok && user.IsAdmin()
}
