package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing_token")
	ErrInvalidToken = errors.New("invalid_token")
	ErrNoSecret     = errors.New("JWT_SECRET is not set")
)

type Config struct {
	Secret string
	Issuer string
}

// ConfigFromEnv reads JWT_SECRET and JWT_ISSUER.
func ConfigFromEnv() Config {
	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "streak-api"
	}
	return Config{Secret: os.Getenv("JWT_SECRET"), Issuer: issuer}
}

type Clock interface {
	Now() time.Time
}

// Service signs and verifies HS256 bearer tokens whose subject is the user ID.
type Service struct {
	secret []byte
	issuer string
	clock  Clock
}

func NewService(cfg Config, clock Clock) (*Service, error) {
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	return &Service{secret: []byte(cfg.Secret), issuer: cfg.Issuer, clock: clock}, nil
}

// Issue creates an access token for subject valid for ttl.
func (s *Service) Issue(subject string, ttl time.Duration) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// Verify checks signature, issuer and expiry and returns the subject.
func (s *Service) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
