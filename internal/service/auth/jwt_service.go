package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkpress/inkpress-api/internal/config"
	"github.com/inkpress/inkpress-api/internal/service"
)

// Sentinel errors for token validation.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims are the JWT claims carried by admin tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService verifies the admin password and issues/validates admin tokens.
type JWTService struct {
	secret       []byte
	passwordHash string
	tokenExpiry  time.Duration
}

// NewJWTService creates a JWTService from auth configuration.
func NewJWTService(cfg config.AuthConfig) *JWTService {
	return &JWTService{
		secret:       []byte(cfg.JWTSecret),
		passwordHash: cfg.AdminPasswordHash,
		tokenExpiry:  time.Duration(cfg.TokenExpiryMinutes) * time.Minute,
	}
}

// Login verifies the admin password and returns a signed token. Returns
// service.ErrInvalidCredentials on mismatch.
func (s *JWTService) Login(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", service.ErrInvalidCredentials
	}
	return s.GenerateToken()
}

// GenerateToken issues a signed admin token.
func (s *JWTService) GenerateToken() (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, returning its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
