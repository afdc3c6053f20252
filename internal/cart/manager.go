package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dukerupert/dokan/internal/session"
)

// SessionKey is the session entry holding the cart snapshot.
const SessionKey = "cart"

// Manager loads and saves carts in the session store. Mutations for one
// session run one at a time; different sessions do not block each other.
type Manager struct {
	store session.Store
	locks *keyedMutex
}

func NewManager(store session.Store) *Manager {
	return &Manager{store: store, locks: newKeyedMutex()}
}

// Load returns the session's carts without holding the lock afterwards.
func (m *Manager) Load(ctx context.Context, sessionID string) (*Coordinator, error) {
	unlock := m.locks.lock(sessionID)
	defer unlock()
	return m.load(ctx, sessionID)
}

// Update loads the session's carts, runs fn and saves the result when fn
// succeeds. The session stays locked for the whole call.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(*Coordinator) error) error {
	unlock := m.locks.lock(sessionID)
	defer unlock()

	c, err := m.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	return m.save(ctx, sessionID, c)
}

func (m *Manager) load(ctx context.Context, sessionID string) (*Coordinator, error) {
	data, err := m.store.Get(ctx, sessionID, SessionKey)
	if errors.Is(err, session.ErrNotFound) {
		return NewCoordinator(nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return Decode(data)
}

func (m *Manager) save(ctx context.Context, sessionID string, c *Coordinator) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}
	if err := m.store.Put(ctx, sessionID, SessionKey, data); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// keyedMutex hands out one mutex per key and forgets it once nobody holds
// or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
