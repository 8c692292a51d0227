// Package auth issues and validates the short-lived signed tokens used by
// the password-reset flow. Session authentication uses opaque database
// tokens instead; see the authtokens package.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avolkovs/runbase/internal/common"
)

const purposePasswordReset = "password_reset"

// Claims carries the standard registered claims plus the user the token
// was issued for and the purpose it may be used for.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"uid"`
	Purpose string `json:"purpose"`
}

// GenerateResetToken creates an HS256 token authorizing a password reset
// for the given user.
func GenerateResetToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID:  userID,
		Purpose: purposePasswordReset,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromResetToken validates a reset token and returns the user it
// was issued for. Expired tokens map to common.ErrTokenExpired, anything
// else invalid to common.ErrInvalidToken.
func GetUserIDFromResetToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secretKey, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Purpose != purposePasswordReset {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
