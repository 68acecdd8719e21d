package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims decodes the claims of a JWT bearer token without verifying its
// signature. Display use only (e.g. showing the logged-in username): the
// token stays opaque for every authorization decision and the backend
// remains the sole authority on validity.
func Claims(token string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("[session.Claims] failed to decode token: %w", err)
	}
	return claims, nil
}
