// Package session carries the identity of the signed-in user explicitly through the services. Identity is issued by
// the external authentication provider as an HS256 JWT with the user id in "sub" and the address in "email".
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session identifies the user a request acts on behalf of.
type Session struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Errors returned when a session cannot be established.
var (
	ErrNoToken      = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSubject    = errors.New("token has no subject")
)

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens against a shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a Verifier for tokens signed with secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Parse validates the token and returns the session it carries.
func (v *Verifier) Parse(token string) (Session, error) {
	var c claims

	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err) //nolint:errorlint // keep sentinel for callers
	}

	if c.Subject == "" {
		return Session{}, ErrNoSubject
	}

	return Session{UserID: c.Subject, Email: c.Email}, nil
}

// FromRequest reads the Authorization header of r.
func (v *Verifier) FromRequest(r *http.Request) (Session, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return Session{}, ErrNoToken
	}

	return v.Parse(strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")))
}

// Issue signs a token for s valid for ttl. It is used by tests and local tooling; production tokens come from the
// authentication provider.
func (v *Verifier) Issue(s Session, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Email: s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)

	return s, ok
}
