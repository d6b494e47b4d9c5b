package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	nanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/oauth2"
)

// DefaultAppJWTTTL is the lifetime of a GitHub App JWT. GitHub caps app
// JWTs at 10 minutes.
const DefaultAppJWTTTL = 10 * time.Minute

// StaticTokenSource wraps a personal access token as an oauth2 token
// source, for plugging directly into API client transports.
func StaticTokenSource(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
}

// AppTokenConfig holds what is needed to mint a GitHub App JWT.
type AppTokenConfig struct {
	// AppID is the GitHub App identifier (the iss claim).
	AppID string

	// PrivateKeyPEM is the app's RSA private key in PEM form.
	PrivateKeyPEM []byte

	// TTL is the JWT lifetime. Defaults to DefaultAppJWTTTL if zero.
	TTL time.Duration
}

func (c AppTokenConfig) ttl() time.Duration {
	if c.TTL == 0 {
		return DefaultAppJWTTTL
	}
	return c.TTL
}

// GenerateAppJWT mints a short-lived RS256 JWT for authenticating as a
// GitHub App. The issued-at claim is backdated slightly to absorb clock
// skew between us and the API.
func GenerateAppJWT(cfg AppTokenConfig) (string, error) {
	if cfg.AppID == "" {
		return "", ErrMissingAppID
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(cfg.PrivateKeyPEM)
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}

	tokenID, err := nanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    cfg.AppID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-30 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.ttl())),
		ID:        tokenID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(key)
}

// ValidateAppJWT parses an app JWT against the public half of the signing
// key and returns its claims.
func ValidateAppJWT(publicKeyPEM []byte, tokenString string) (*jwt.RegisteredClaims, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// NewRunID returns a short unique identifier for tagging a pipeline run in
// logs, history and notifications.
func NewRunID() string {
	id, err := nanoid.New()
	if err != nil {
		// nanoid only fails when the OS entropy source does.
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return id
}
