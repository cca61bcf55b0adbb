package sessions

import "time"

// Session is the identity established by a provider-backed login. It travels to the browser
// as the session cookie and keeps the external shape {providerId,email,name,picture,exp}.
type Session struct {
	ProviderID       string `json:"providerId"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	Picture          string `json:"picture"`
	ExpiresAtEpochMs int64  `json:"exp"` // milliseconds since epoch
}

// New mints a session expiring lifetime after now
func New(providerID, email, name, picture string, now time.Time, lifetime time.Duration) Session {
	return Session{
		ProviderID:       providerID,
		Email:            email,
		Name:             name,
		Picture:          picture,
		ExpiresAtEpochMs: now.Add(lifetime).UnixMilli(),
	}
}

// Expired reports whether the session must be treated as absent at now
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAtEpochMs < now.UnixMilli()
}

// ExpiresAt returns the expiry as a time.Time
func (s Session) ExpiresAt() time.Time {
	return time.UnixMilli(s.ExpiresAtEpochMs)
}
