package sessions

import (
	"time"
)

const (
	ReasonNotAuthenticated = "Not authenticated"
	ReasonInvalidSession   = "Invalid session"
	ReasonSessionExpired   = "Session expired"
)

// Result is the outcome of verifying a session credential
type Result struct {
	Authenticated bool
	Session       Session
	Reason        string // set when Authenticated is false
}

// Verifier decides whether a session credential establishes an identity. It performs no
// side effects.
type Verifier struct {
	codec   *Codec
	nowFunc func() time.Time
}

type VerifierOption func(*Verifier)

func WithNowFunc(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.nowFunc = now
	}
}

func NewVerifier(codec *Codec, options ...VerifierOption) *Verifier {
	v := &Verifier{codec: codec, nowFunc: time.Now}
	for _, opt := range options {
		opt(v)
	}
	return v
}

// Verify checks a raw credential value; an empty value means no credential was presented
func (v *Verifier) Verify(value string) Result {
	if value == "" {
		return Result{Reason: ReasonNotAuthenticated}
	}
	s, err := v.codec.Decode(value)
	if err != nil {
		return Result{Reason: ReasonInvalidSession}
	}
	if s.Expired(v.nowFunc()) {
		return Result{Reason: ReasonSessionExpired}
	}
	return Result{Authenticated: true, Session: s}
}
