// Package session identifies returning visitors and keeps their page state
// (active review filter, page cursor and gallery) between requests.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName carries the signed visitor token.
const CookieName = "pp_visitor"

// DefaultTTL bounds how long a visitor token stays valid.
const DefaultTTL = 24 * time.Hour

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("invalid visitor token")

// Issuer signs and verifies visitor tokens. The token is an HS256 JWT whose
// subject is the visitor id.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewIssuer builds an Issuer. An empty secret is rejected.
func NewIssuer(secret []byte, ttl time.Duration, secure bool) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("visitor secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: secret, ttl: ttl, secure: secure, now: time.Now}, nil
}

// Sign issues a token for visitorID.
func (i *Issuer) Sign(visitorID string) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   visitorID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse verifies raw and returns the visitor id it carries.
func (i *Issuer) Parse(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", errors.Join(ErrInvalidToken, err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	return claims.Subject, nil
}

// Ensure returns the visitor id from the request cookie, issuing a new
// visitor and cookie when the cookie is missing or invalid. fresh reports
// whether a new id was issued.
func (i *Issuer) Ensure(w http.ResponseWriter, r *http.Request) (id string, fresh bool, err error) {
	if cookie, cerr := r.Cookie(CookieName); cerr == nil {
		if id, perr := i.Parse(cookie.Value); perr == nil {
			return id, false, nil
		}
	}
	id = uuid.NewString()
	token, err := i.Sign(id)
	if err != nil {
		return "", false, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(i.ttl / time.Second),
	})
	return id, true, nil
}
