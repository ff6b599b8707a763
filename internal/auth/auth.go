package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"os"
	"strings"
)

var (
	ErrMissingBearer = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
)

type Claims struct {
	Subject string
	Issuer  string
	Token   string
}

type Authenticator interface {
	Authenticate(r *http.Request) (Claims, error)
}

// TokenAuthenticator checks bearer tokens against a static token set. A
// dev token short-circuits everything for local runs.
type TokenAuthenticator struct {
	DevToken string
	Tokens   map[string]string // token -> subject
}

func NewAuthenticatorFromEnv() *TokenAuthenticator {
	return &TokenAuthenticator{
		DevToken: os.Getenv("PROVENANT_DEV_TOKEN"),
	}
}

func (a *TokenAuthenticator) Authenticate(r *http.Request) (Claims, error) {
	bearer, err := extractBearer(r)
	if err != nil {
		return Claims{}, err
	}

	if a.DevToken != "" && subtle.ConstantTimeCompare([]byte(bearer), []byte(a.DevToken)) == 1 {
		return Claims{Subject: "dev", Issuer: "provenant-dev", Token: bearer}, nil
	}

	for token, subject := range a.Tokens {
		if subtle.ConstantTimeCompare([]byte(bearer), []byte(token)) == 1 {
			return Claims{Subject: subject, Issuer: "provenant-static", Token: bearer}, nil
		}
	}

	return Claims{}, ErrInvalidToken
}

func extractBearer(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", ErrMissingBearer
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
