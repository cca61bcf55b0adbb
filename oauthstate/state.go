// Package oauthstate issues and checks the anti-forgery state value that ties an
// authorization request to its callback.
package oauthstate

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/portal-auth/internal/errors"
	"github.com/patrickmn/go-cache"
)

// StateBytes is the entropy of a state value (256 bits)
const StateBytes = 32

// Generate returns a new base64url state value drawn from crypto/rand
func Generate() (string, error) {
	b := make([]byte, StateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("[oauthstate Generate] failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Sealer binds a state value to the server secret so the cookie carrying it is tamper-evident
type Sealer struct {
	key []byte
}

func NewSealer(secret string) *Sealer {
	return &Sealer{key: []byte(secret)}
}

func (s *Sealer) mac(state string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(state))
	return h.Sum(nil)
}

// Seal returns "<state>.<hex mac>"
func (s *Sealer) Seal(state string) string {
	return state + "." + hex.EncodeToString(s.mac(state))
}

// Open returns the state inside a sealed value, or ErrInvalidState if it was altered
func (s *Sealer) Open(sealed string) (string, error) {
	idx := strings.LastIndexByte(sealed, '.')
	if idx <= 0 {
		return "", apperrors.ErrInvalidState
	}
	state, macHex := sealed[:idx], sealed[idx+1:]
	received, err := hex.DecodeString(macHex)
	if err != nil {
		return "", apperrors.ErrInvalidState
	}
	if !hmac.Equal(received, s.mac(state)) {
		return "", apperrors.ErrInvalidState
	}
	return state, nil
}

// Registry remembers state values that a callback has already consumed. Entries live as
// long as the state cookie could, after which the cookie itself has expired.
type Registry struct {
	consumed *cache.Cache
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{consumed: cache.New(ttl, ttl)}
}

// Consume marks state as used. It fails with ErrStateConsumed if state was consumed before.
func (r *Registry) Consume(state string) error {
	if err := r.consumed.Add(state, struct{}{}, cache.DefaultExpiration); err != nil {
		return apperrors.ErrStateConsumed
	}
	return nil
}
