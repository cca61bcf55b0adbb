package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const tokenLength = 32 // 32 bytes = 256 bits

// Manager handles refresh token creation, validation, and rotation
type Manager struct {
	repo   Repo
	expiry time.Duration
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, expiry time.Duration) *Manager {
	return &Manager{
		repo:   repo,
		expiry: expiry,
	}
}

// Create generates a new refresh token and stores it
func (m *Manager) Create(userID, familyID, accessJTI string, issuedAt, accessExpiresAt time.Time) (*StoredRefreshToken, error) {
	tokenBytes := make([]byte, tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rt := &StoredRefreshToken{
		Token:           hex.EncodeToString(tokenBytes),
		UserID:          userID,
		FamilyID:        familyID,
		AccessJTI:       accessJTI,
		AccessExpiresAt: accessExpiresAt,
		Iat:             issuedAt,
	}
	if err := m.repo.Upsert(rt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return rt, nil
}

// Redeem removes the token from storage and returns it; a second redeem of the same token fails
func (m *Manager) Redeem(token string) (*StoredRefreshToken, error) {
	return m.repo.Take(token)
}

func (m *Manager) Expiry() time.Duration {
	return m.expiry
}
