package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by Inspect for tokens that are not three-part JWTs.
var ErrNotJWT = errors.New("token is not a JWT")

// Inspection is what Inspect could read from a token without verifying it.
type Inspection struct {
	Subject   string
	Email     string
	Role      string
	Issuer    string
	Algorithm string
	KeyID     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry that is before now.
func (i *Inspection) Expired(now time.Time) bool {
	return i != nil && !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Inspect decodes a token's header and claims without checking the signature. The
// result is for display only and must never decide whether a session is valid; the
// backend is the sole authority on that.
func Inspect(token string) (*Inspection, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return nil, ErrNotJWT
	}

	claims := &AccessClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}

	out := &Inspection{
		Subject:   claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		Issuer:    claims.Issuer,
		Algorithm: parsed.Method.Alg(),
	}
	if kid, ok := parsed.Header["kid"].(string); ok {
		out.KeyID = kid
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
