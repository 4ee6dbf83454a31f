// Package auth validates the bearer tokens presented at the WebSocket
// handshake and on the REST surface. Token issuance lives elsewhere; this
// side only verifies and extracts the identity.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers missing, expired, malformed and wrongly signed
// tokens. Fatal to a handshake: the transport is closed and no registry
// entry is created.
var ErrInvalidToken = errors.New("invalid token")

// Verifier turns a bearer token into an authenticated identity.
type Verifier interface {
	Verify(token string) (string, error)
}

// HMACVerifier verifies HS256 tokens carrying a userId claim, the format
// the account service issues.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token and returns the userId claim.
func (v *HMACVerifier) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, _ := claims["userId"].(string)
	if userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// IssueToken signs a token for userID. Used by tests and local tooling;
// production tokens come from the account service.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID,
		"iat":    time.Now().Unix(),
	}
	// Zero means no expiry; a negative ttl produces an already-expired
	// token, which tests rely on.
	if ttl != 0 {
		claims["exp"] = time.Now().Add(ttl).Unix()
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(secret))
}
