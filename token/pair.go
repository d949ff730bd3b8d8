package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const bearerType = "Bearer"

// Pair holds the access and refresh tokens issued at login.
type Pair struct {
	Access  string
	Refresh string
}

// Empty reports whether neither token is present.
func (p Pair) Empty() bool {
	return p.Access == "" && p.Refresh == ""
}

// Valid reports whether the pair is complete.
func (p Pair) Valid() bool {
	return p.Access != "" && p.Refresh != ""
}

// BearerToken wraps an access token for use as an Authorization header.
func BearerToken(access string) *oauth2.Token {
	return &oauth2.Token{AccessToken: access, TokenType: bearerType}
}

// OAuth2 converts the pair to an oauth2 token carrying the Bearer type and, when
// the access token is a JWT with an exp claim, its expiry.
func (p Pair) OAuth2() *oauth2.Token {
	t := BearerToken(p.Access)
	t.RefreshToken = p.Refresh
	if exp, ok := ExpiryOf(p.Access); ok {
		t.Expiry = exp
	}
	return t
}

// ExpiryOf reads the exp claim of a JWT access token without verifying its
// signature. Opaque tokens report false.
func ExpiryOf(access string) (time.Time, bool) {
	if access == "" {
		return time.Time{}, false
	}
	tok, _, err := jwt.NewParser().ParseUnverified(access, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
