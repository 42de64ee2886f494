package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gatherapp/internal/domain"
)

const minPasswordLen = 8

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	userRepo domain.UserRepository
	hasher   domain.PasswordHasher
	tokens   domain.TokenService
}

// NewAuthService creates an AuthService with the given repository and auth ports.
func NewAuthService(userRepo domain.UserRepository, hasher domain.PasswordHasher, tokens domain.TokenService) domain.AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.User, domain.TokenPair, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" {
		return nil, domain.TokenPair{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !emailRegexp.MatchString(email) {
		return nil, domain.TokenPair{}, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return nil, domain.TokenPair{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, domain.TokenPair{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, domain.TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := domain.NewUser(name, email, hash, salt, now, now)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.TokenPair{}, domain.ErrDuplicateEmail
		}
		return nil, domain.TokenPair{}, fmt.Errorf("failed to create user: %w", err)
	}

	pair, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}
	return user, pair, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, domain.TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.TokenPair{}, domain.ErrInvalidCredentials
		}
		return nil, domain.TokenPair{}, fmt.Errorf("failed to get user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return nil, domain.TokenPair{}, domain.ErrInvalidCredentials
	}

	pair, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}
	return user, pair, nil
}

// issueSession mints a token pair and stores the refresh token in the
// user's list, adding one concurrent session.
func (s *authService) issueSession(ctx context.Context, userID string) (domain.TokenPair, error) {
	pair, err := s.tokens.IssuePair(userID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}
	if err := s.userRepo.AddRefreshToken(ctx, userID, pair.RefreshToken); err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return pair, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.userRepo.RemoveRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("failed to remove refresh token: %w", err)
	}
	return nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	userID, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", "", domain.ErrRefreshInvalid
	}
	// The token must still be in the stored list: logout revokes it
	// server-side even though the JWT itself remains valid.
	ok, err := s.userRepo.HasRefreshToken(ctx, userID, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("failed to check refresh token: %w", err)
	}
	if !ok {
		return "", "", domain.ErrRefreshInvalid
	}
	access, err := s.tokens.IssueAccess(userID)
	if err != nil {
		return "", "", fmt.Errorf("failed to issue access token: %w", err)
	}
	return userID, access, nil
}

func (s *authService) Verify(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
