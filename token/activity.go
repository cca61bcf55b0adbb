package token

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ActivityRegistry records the last time each bearer session (refresh family) was used.
// A session not touched within the idle budget is forgotten.
type ActivityRegistry struct {
	lastSeen *cache.Cache
}

func NewActivityRegistry(idle time.Duration) *ActivityRegistry {
	return &ActivityRegistry{lastSeen: cache.New(idle, idle)}
}

// Touch marks sessionID as active now and restarts its idle budget
func (a *ActivityRegistry) Touch(sessionID string) {
	a.lastSeen.SetDefault(sessionID, time.Now())
}

// Active reports whether sessionID was touched within the idle budget
func (a *ActivityRegistry) Active(sessionID string) bool {
	_, found := a.lastSeen.Get(sessionID)
	return found
}

// Forget ends a session immediately (logout)
func (a *ActivityRegistry) Forget(sessionID string) {
	a.lastSeen.Delete(sessionID)
}
