// Package auth issues and verifies the bearer tokens used by the bundled
// development API server.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/teknos/oncolly/internal/domain"
)

// defaultTokenTTL bounds how long an issued token stays valid.
const defaultTokenTTL = 24 * time.Hour

// ErrInvalidToken reports a token that failed signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// ErrBadCredentials reports a failed email/password check.
var ErrBadCredentials = errors.New("bad credentials")

// Claims is the verified identity carried by an accepted token.
type Claims struct {
	UserID string
	Role   domain.Role
}

// Authenticator signs and verifies HS256 tokens with a shared secret.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
}

// New constructs an authenticator. A nil clock defaults to time.Now.
func New(secret string, clock func() time.Time) (*Authenticator, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Authenticator{
		secret: []byte(secret),
		ttl:    defaultTokenTTL,
		clock:  clock,
	}, nil
}

// Issue signs a token for the given user.
func (a *Authenticator) Issue(userID string, role domain.Role) (string, error) {
	now := a.clock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(a.ttl).Unix(),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded identity.
func (a *Authenticator) Verify(raw string) (Claims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.clock), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Claims{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	return Claims{
		UserID: sub,
		Role:   domain.ParseRole(role),
	}, nil
}

// HashPassword derives a bcrypt hash for storage.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a stored bcrypt hash against a candidate password.
func CheckPassword(hash, candidate string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)); err != nil {
		return ErrBadCredentials
	}
	return nil
}
