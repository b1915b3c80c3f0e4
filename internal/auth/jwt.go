// Package auth issues and validates session cookies, hashes passwords and
// resolves the current identity for each request.
//
// SESSION FLOW:
//  1. POST /login or /signup succeeds → a session record is stored
//     (sessions table, or Redis when configured)
//  2. A JWT is signed with sub=userID and jti=sessionID and set as the
//     warbler_session HttpOnly cookie
//  3. On every request LoadIdentity validates the JWT signature and expiry,
//     then checks that the session record still exists
//  4. Logout and account deletion delete the record, so a copied cookie
//     stops working immediately even though its signature is still valid
//
// The JWT alone would be stateless; pairing it with a server-side record is
// what makes revocation possible.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "warbler"

// MinSecretLength is the shortest SECRET_KEY accepted outside production.
const MinSecretLength = 16

// ErrTokenExpired is returned by Validate for a well-signed but expired token.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService signs and verifies session tokens with an HMAC secret.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: secret key must be at least %d characters", MinSecretLength)
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Claims is what a valid session token carries.
type Claims struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}

// Issue signs a token binding userID to the server-side session sessionID.
// The token expires at expiresAt, which should match the session record.
func (s *TokenService) Issue(userID, sessionID string, expiresAt time.Time) (string, error) {
	if userID == "" || sessionID == "" {
		return "", errors.New("auth: token needs both a user and a session")
	}

	c := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		Issuer:    issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a session token.
//
// The jwt library checks the signature, the expiry and the issuer. Passing
// WithValidMethods rejects "alg":"none" and any non-HMAC algorithm, which
// closes the algorithm confusion hole.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	c := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		tokenStr,
		c,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}

	if c.Subject == "" || c.ID == "" {
		return nil, errors.New("auth: token is missing subject or session id")
	}

	return &Claims{
		UserID:    c.Subject,
		SessionID: c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
