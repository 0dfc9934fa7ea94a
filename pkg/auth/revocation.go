package auth

import "sync"

// RevocationList records tokens invalidated by logout. Revoked tokens stay
// listed until they would have expired anyway, so a bounded in-memory list is
// enough for a single-process deployment; a shared store can be swapped in
// behind this interface.
type RevocationList interface {
	Revoke(token string)
	IsRevoked(token string) bool
}

// MemoryRevocationList keeps revoked tokens in process memory.
type MemoryRevocationList struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{tokens: make(map[string]struct{})}
}

func (l *MemoryRevocationList) Revoke(token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens[token] = struct{}{}
}

func (l *MemoryRevocationList) IsRevoked(token string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.tokens[token]
	return ok
}
