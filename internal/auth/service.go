package auth

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the cost used to hash the shared admin secret at startup.
const bcryptCost = 10

var (
	// ErrInvalidCredentials is returned when the admin password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoSecret is returned when no admin secret is configured.
	ErrNoSecret = errors.New("admin secret is empty")
)

// Service guards the admin API with one shared secret. The secret is only
// kept as a bcrypt hash; sessions are JWTs signed with the configured key.
type Service struct {
	hash      []byte
	jwtConfig *JWTConfig
	now       func() time.Time
}

// NewService hashes secret and returns the admin auth service.
func NewService(secret string, jwtConfig *JWTConfig) (*Service, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin secret: %w", err)
	}
	return &Service{hash: hash, jwtConfig: jwtConfig, now: time.Now}, nil
}

// CheckPassword compares password against the shared secret.
func (s *Service) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login checks the password and returns a session token.
func (s *Service) Login(password string) (string, error) {
	if err := s.CheckPassword(password); err != nil {
		return "", err
	}
	token, err := GenerateToken(s.jwtConfig, RoleAdmin, s.now())
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}
