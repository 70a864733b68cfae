package shared

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can learn from a bearer token without the signing secret.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time // Zero when the token carries no exp claim
}

// Expired reports whether the token's expiry has passed at now.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// InspectToken decodes a JWT's registered claims without verifying its signature.
//
// Only the backend can verify tokens; this is for reporting expiry before a request is made.
func InspectToken(token string) (TokenInfo, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: token is not a JWT: %v", ErrInvalidInput, err)
	}

	info := TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
