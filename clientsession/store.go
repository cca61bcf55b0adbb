// Package clientsession keeps a browser-side view of the client API session: stored
// credentials, an API client that refreshes them transparently, an idle timeout and a route
// guard.
package clientsession

import (
	"sync"
)

// Keys under which credentials are held in a TokenStore
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// TokenStore holds credentials between page loads (local storage in a browser). Activity
// timestamps are never written to it.
type TokenStore interface {
	Get(key string) string
	Set(key, value string)
	// Clear removes the access token, refresh token and user together
	Clear()
}

// MemoryStore is a TokenStore held in process memory
type MemoryStore struct {
	lock   sync.RWMutex
	values map[string]string
}

var _ TokenStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.values[key]
}

func (m *MemoryStore) Set(key, value string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.values[key] = value
}

func (m *MemoryStore) Clear() {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.values, KeyAccessToken)
	delete(m.values, KeyRefreshToken)
	delete(m.values, KeyUser)
}
