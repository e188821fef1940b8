package middlewares

import "sync"

// RevocationStore invalidates bearer tokens before their natural expiry.
// Logout adds the presented token; the user middleware consults it on every
// authenticated request.
type RevocationStore struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

var Revocations = NewRevocationStore()

func NewRevocationStore() *RevocationStore {
	return &RevocationStore{
		revoked: make(map[string]struct{}),
	}
}

func (s *RevocationStore) Revoke(token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = struct{}{}
}

func (s *RevocationStore) IsRevoked(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[token]
	return ok
}
