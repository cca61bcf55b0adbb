package sessions

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/portal-auth/internal/errors"
)

// Codec turns a Session into a signed, transportable string and back.
// The payload is a compact HS256 JWT whose claims are exactly the Session fields.
// It is stateless and safe for concurrent use.
type Codec struct {
	secret []byte
}

// sessionClaims satisfies jwt.Claims without registered claims so the parser does not
// apply its own expiry rules; expiry is decided by the Verifier.
type sessionClaims struct {
	Session
}

func (sessionClaims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }
func (sessionClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return nil, nil }
func (sessionClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (sessionClaims) GetIssuer() (string, error)                   { return "", nil }
func (sessionClaims) GetSubject() (string, error)                  { return "", nil }
func (sessionClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("[sessions NewCodec] session secret: %w", apperrors.ErrNotConfigured)
	}
	return &Codec{secret: []byte(secret)}, nil
}

func (c *Codec) Encode(s Session) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{Session: s})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("[sessions Encode] failed to sign session: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and returns the embedded Session. It does not check expiry.
func (c *Codec) Decode(value string) (Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Session{}, apperrors.Wrapf(apperrors.ErrInvalidSession, "[sessions Decode] %v", err)
	}
	return claims.Session, nil
}
