package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiringSoonWindow is how close to expiry a token may get before the
// client should proactively refresh.
const expiringSoonWindow = 300 * time.Second

// unverifiedParser decodes token payloads without signature verification.
// The client never holds the signing secret; it only inspects the exp
// claim locally, exactly like the gateways' browser clients do.
var unverifiedParser = jwt.NewParser()

// expiresAt extracts the exp claim from a token. Any decode failure or a
// missing claim is reported as an error; callers treat that as expired.
func expiresAt(tok string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := unverifiedParser.ParseUnverified(tok, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}
	return exp.Time, nil
}

// IsExpired reports whether the token's exp instant has been reached.
// Fail-closed: malformed or claimless tokens count as expired. Never panics.
func IsExpired(tok string) bool {
	exp, err := expiresAt(tok)
	if err != nil {
		return true
	}
	return !time.Now().Before(exp)
}

// IsExpiringSoon reports whether less than five minutes remain before
// expiry, for proactive-refresh decisions.
func IsExpiringSoon(tok string) bool {
	exp, err := expiresAt(tok)
	if err != nil {
		return true
	}
	return time.Until(exp) < expiringSoonWindow
}

// IsValid reports whether a token is present and not expired.
func IsValid(tok string) bool {
	return tok != "" && !IsExpired(tok)
}
