package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionUser is the identity carried in a session token.
type SessionUser struct {
	ID string `json:"id"`
}

// SessionClaims keeps the {"user":{"id":...}} payload the SPA reads, plus
// the registered exp/iat/sub claims.
type SessionClaims struct {
	User SessionUser `json:"user"`
	jwt.RegisteredClaims
}

// SessionIssuer signs and verifies HS256 bearer tokens. Verification needs
// only the secret, never a store lookup.
type SessionIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewSessionIssuer(secret string, expiry time.Duration, now func() time.Time) *SessionIssuer {
	if now == nil {
		now = time.Now
	}
	return &SessionIssuer{
		secret: []byte(secret),
		expiry: expiry,
		now:    now,
	}
}

// Issue returns a signed token for userID and the instant it stops being valid.
func (s *SessionIssuer) Issue(userID string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("session signing secret not configured")
	}

	now := s.now()
	claims := SessionClaims{
		User: SessionUser{ID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, claims.ExpiresAt.Time, nil
}

// Verify checks signature and expiry and returns the account ID.
// Every failure is reported as ErrUnauthorized.
func (s *SessionIssuer) Verify(tokenString string) (string, error) {
	if len(s.secret) == 0 || tokenString == "" {
		return "", ErrUnauthorized
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	userID := claims.User.ID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", fmt.Errorf("%w: missing subject", ErrUnauthorized)
	}

	return userID, nil
}
