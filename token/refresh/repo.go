package refresh

import (
	"time"
)

// StoredRefreshToken represents the server-side storage of refresh token metadata.
// The client only receives the Token field (a random string). All other fields are
// server-side metadata used for validation and rotation.
type StoredRefreshToken struct {
	Token           string    // The actual random token string (sent to client)
	UserID          string    // Subject the token was issued to
	FamilyID        string    // Stable across rotations; the "sid" claim of access tokens
	AccessJTI       string    // jti of the access token issued alongside this refresh token
	AccessExpiresAt time.Time // expiry of that access token
	Iat             time.Time // issued at
}

// Repo manages server-side storage of refresh token metadata.
type Repo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	// Take atomically returns and removes a token so it can be redeemed only once
	Take(token string) (*StoredRefreshToken, error)
}
