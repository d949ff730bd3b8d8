package fakeapi

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/edu-console/users"
	"github.com/pkg/errors"
)

const (
	issuer = "edu-sandbox"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// tokenClaims are the claims the sandbox puts in both token types.
type tokenClaims struct {
	Username   string `json:"username"`
	Role       string `json:"role"`
	Type       string `json:"typ"`
	Session    string `json:"sid"`
	Generation int    `json:"gen"`
	jwt.RegisteredClaims
}

// hmacSigner signs and verifies HS256 tokens with a shared secret.
type hmacSigner struct {
	secret []byte
}

func newHMACSigner(secret string) *hmacSigner {
	return &hmacSigner{
		secret: []byte(secret),
	}
}

func (h *hmacSigner) sign(claims *tokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signedToken, nil
}

func (h *hmacSigner) verificationKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

// verify parses raw, checking signature, issuer and expiry against now.
func (h *hmacSigner) verify(raw string, now func() time.Time) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, h.verificationKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return nil, errors.Wrap(err, "invalid token")
	}
	return claims, nil
}

func newClaims(u *users.User, tokenType, session string, generation int, now time.Time, ttl time.Duration) *tokenClaims {
	return &tokenClaims{
		Username:   u.Username,
		Role:       u.Role.String(),
		Type:       tokenType,
		Session:    session,
		Generation: generation,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
