// Package capture holds media captured ahead of a report submission. A capture
// is stashed once, addressed by a single-use token, and redeemed by exactly one
// submission before its TTL runs out.
package capture

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Item struct {
	FileName    string
	ContentType string
	Data        []byte
}

type entry struct {
	item      Item
	expiresAt time.Time
}

type Stash struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[uuid.UUID]entry
	now   func() time.Time
}

func NewStash(ttl time.Duration) *Stash {
	return &Stash{
		ttl:   ttl,
		items: make(map[uuid.UUID]entry),
		now:   time.Now,
	}
}

// Put stashes a capture and returns its token.
func (s *Stash) Put(item Item) uuid.UUID {
	token := uuid.New()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[token] = entry{item: item, expiresAt: s.now().Add(s.ttl)}
	return token
}

// Peek returns a capture without consuming it, so its media can be validated
// before the token is redeemed. Expired captures are dropped.
func (s *Stash) Peek(token uuid.UUID) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.items[token]
	if !ok {
		return Item{}, false
	}
	if s.now().After(stored.expiresAt) {
		delete(s.items, token)
		return Item{}, false
	}
	return stored.item, true
}

// Take redeems a token. The capture is removed whether or not it has expired,
// so a token never yields media twice.
func (s *Stash) Take(token uuid.UUID) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.items[token]
	if !ok {
		return Item{}, false
	}
	delete(s.items, token)
	if s.now().After(stored.expiresAt) {
		return Item{}, false
	}
	return stored.item, true
}

// Sweep drops expired captures. Intended to be called periodically.
func (s *Stash) Sweep() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, stored := range s.items {
		if now.After(stored.expiresAt) {
			delete(s.items, token)
		}
	}
}

// Run sweeps on an interval until stop is closed.
func (s *Stash) Run(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-stop:
			return
		}
	}
}
