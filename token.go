package guauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenUsable decides whether a persisted token is worth restoring. The
// client holds no key material, so a JWT is inspected without signature
// verification: only a parseable JWT with a passed exp claim is rejected.
// Opaque tokens and JWTs without exp pass through; the backend is the
// authority either way.
func tokenUsable(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return now.Before(exp.Time)
}
