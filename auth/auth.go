// Package auth implements the shared-password gate in front of the admin
// surface. One bcrypt-hashed password unlocks a signed session token; this
// is deliberately weak authentication for a lobby display, not an identity
// system.
package auth

import (
	"errors"
	"fmt"
	"time"

	"adboard/store"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Storage key for the bcrypt hash set via the set-password command. A hash
// in the config file acts as the fallback when none is stored.
const PasswordHashKey = "admin_password_hash"

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrNoPassword      = errors.New("no admin password configured")
)

// Gate validates the shared password and issues session tokens
type Gate struct {
	store        store.Store
	fallbackHash string
	secret       []byte
	tokenTTL     time.Duration
}

func NewGate(s store.Store, fallbackHash, jwtSecret string, tokenTTL time.Duration) *Gate {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Gate{
		store:        s,
		fallbackHash: fallbackHash,
		secret:       []byte(jwtSecret),
		tokenTTL:     tokenTTL,
	}
}

func (g *Gate) passwordHash() (string, error) {
	raw, found, err := g.store.Get(PasswordHashKey)
	if err == nil && found && len(raw) > 0 {
		return string(raw), nil
	}
	if g.fallbackHash != "" {
		return g.fallbackHash, nil
	}
	return "", ErrNoPassword
}

// Login compares the password against the stored hash and returns a signed
// token valid for the configured TTL
func (g *Gate) Login(password string) (string, error) {
	hash, err := g.passwordHash()
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", ErrInvalidPassword
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks a token's signature and expiry
func (g *Gate) Validate(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// SetPassword hashes and stores a new shared password
func (g *Gate) SetPassword(password string) error {
	if password == "" {
		return errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return g.store.Set(PasswordHashKey, hash)
}

// HashPassword returns a bcrypt hash for use in config files
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
