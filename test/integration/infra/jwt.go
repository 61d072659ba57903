package infra

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims mirrors the claims the service's auth middleware reads.
type AccessClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	Secret string
	Issuer string
}

// Token signs an HS256 access token for uid valid for ttl.
// A negative ttl yields an already expired token.
func (ti TokenIssuer) Token(uid, role string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := AccessClaims{
		UserID: uid,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.Issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now.Add(min(ttl, 0))),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(ti.Secret))
}
