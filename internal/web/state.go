package web

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

// stateTTL bounds how long an issued OAuth state stays redeemable.
const stateTTL = 10 * time.Minute

// stateStore maps pending OAuth states to the user who requested the
// connect flow. The callback arrives without a bearer token, so the
// state is the only link back to the account.
type stateStore struct {
	mu      sync.Mutex
	entries map[string]stateEntry
}

type stateEntry struct {
	userID  uuid.UUID
	expires time.Time
}

func newStateStore() *stateStore {
	return &stateStore{entries: make(map[string]stateEntry)}
}

// Issue creates a random state bound to the user.
func (s *stateStore) Issue(userID uuid.UUID) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := hex.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.entries[state] = stateEntry{userID: userID, expires: time.Now().Add(stateTTL)}
	return state, nil
}

// Redeem consumes a state, returning the bound user. A state can be
// redeemed once; unknown or expired states return false.
func (s *stateStore) Redeem(state string) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[state]
	if !ok {
		return uuid.Nil, false
	}
	delete(s.entries, state)
	if time.Now().After(entry.expires) {
		return uuid.Nil, false
	}
	return entry.userID, true
}

// prune drops expired entries. Caller holds the lock.
func (s *stateStore) prune() {
	now := time.Now()
	for state, entry := range s.entries {
		if now.After(entry.expires) {
			delete(s.entries, state)
		}
	}
}
