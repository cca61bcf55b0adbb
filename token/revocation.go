package token

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// RevokedTokenCache tracks access tokens that were revoked before their natural expiry
type RevokedTokenCache interface {
	Add(jti string, ttl time.Duration) error
	IsRevoked(jti string) bool
}

// InMemoryRevokedTokenCache keeps each revoked jti for ttl, the remaining lifetime of the token
type InMemoryRevokedTokenCache struct {
	revoked *cache.Cache
}

func NewInMemoryRevokedTokenCache() RevokedTokenCache {
	return &InMemoryRevokedTokenCache{
		revoked: cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

func (c *InMemoryRevokedTokenCache) Add(jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already unusable
	}
	c.revoked.Set(jti, struct{}{}, ttl)
	return nil
}

func (c *InMemoryRevokedTokenCache) IsRevoked(jti string) bool {
	_, found := c.revoked.Get(jti)
	return found
}
