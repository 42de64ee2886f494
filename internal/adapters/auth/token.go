package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gatherapp/internal/domain"
)

type tokenClaims struct {
	jwt.RegisteredClaims
}

type tokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewTokenService returns a TokenService signing HS256 JWTs. Access and
// refresh tokens use separate secrets so one class of token can never be
// presented as the other.
func NewTokenService(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) domain.TokenService {
	return &tokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *tokenService) IssuePair(userID string) (domain.TokenPair, error) {
	access, err := s.IssueAccess(userID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := sign(userID, s.refreshSecret, s.refreshExpiry)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *tokenService) IssueAccess(userID string) (string, error) {
	access, err := sign(userID, s.accessSecret, s.accessExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return access, nil
}

func (s *tokenService) VerifyAccess(token string) (string, error) {
	userID, err := verify(token, s.accessSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrTokenExpired
		}
		return "", domain.ErrTokenInvalid
	}
	return userID, nil
}

func (s *tokenService) VerifyRefresh(token string) (string, error) {
	userID, err := verify(token, s.refreshSecret)
	if err != nil {
		return "", domain.ErrRefreshInvalid
	}
	return userID, nil
}

func sign(userID string, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func verify(tokenString string, secret []byte) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token claims")
	}
	return claims.Subject, nil
}
