// Package token issues short-lived numeric verification tokens. A token is
// handed out after a successful face match and exchanged by the caller to
// complete the entry flow.
package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// DefaultTTL is how long a token stays valid after issue.
const DefaultTTL = 10 * time.Minute

const tokenDigits = 6

type entry struct {
	userID    int64
	expiresAt time.Time
}

// Store keeps issued tokens in memory. Tokens are single-use and expire
// after the configured TTL.
type Store struct {
	mu     sync.Mutex
	tokens map[string]entry
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a token store with the given TTL. A zero TTL falls back
// to DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		tokens: make(map[string]entry),
		ttl:    ttl,
		now:    time.Now,
	}
}

// generate returns a random zero-padded numeric code.
func generate() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < tokenDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return fmt.Sprintf("%0*d", tokenDigits, n), nil
}

// Issue creates a new token bound to the given user.
func (s *Store) Issue(userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired()

	// Retry on the unlikely collision with a live token.
	for i := 0; i < 5; i++ {
		code, err := generate()
		if err != nil {
			return "", err
		}
		if _, exists := s.tokens[code]; exists {
			continue
		}
		s.tokens[code] = entry{userID: userID, expiresAt: s.now().Add(s.ttl)}
		return code, nil
	}
	return "", fmt.Errorf("failed to generate unique token")
}

// Redeem validates a token and consumes it. Returns the bound user ID and
// whether the token was valid.
func (s *Store) Redeem(code string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tokens[code]
	if !ok {
		return 0, false
	}
	delete(s.tokens, code)

	if s.now().After(e.expiresAt) {
		return 0, false
	}
	return e.userID, true
}

// Revoke discards a token without redeeming it.
func (s *Store) Revoke(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, code)
}

// Count returns the number of live tokens.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()
	return len(s.tokens)
}

// evictExpired removes expired tokens. Caller must hold the lock.
func (s *Store) evictExpired() {
	now := s.now()
	for code, e := range s.tokens {
		if now.After(e.expiresAt) {
			delete(s.tokens, code)
		}
	}
}
