package models

import (
	"strings"
	"sync"
)

// WalletSession is a snapshot of who is connected.
type WalletSession struct {
	Address   string
	Connected bool
	Persisted bool
}

// Session holds the single wallet session of a client instance. It is
// created once at startup and shared by pointer; only the session manager
// calls Set, everyone else reads snapshots.
type Session struct {
	mu sync.RWMutex
	s  WalletSession
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Snapshot() WalletSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.s
}

// Address returns the connected address and whether a session is active.
func (s *Session) Address() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.s.Connected || s.s.Address == "" {
		return "", false
	}
	return s.s.Address, true
}

func (s *Session) Set(ws WalletSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s = ws
}

// NormalizeAddress returns the canonical form used for every address
// comparison: trimmed and lower-cased, so checksum and plain hex spellings
// of one account compare equal.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// SameAddress compares two addresses after normalization. Empty addresses
// never match anything.
func SameAddress(a, b string) bool {
	na, nb := NormalizeAddress(a), NormalizeAddress(b)
	return na != "" && na == nb
}
