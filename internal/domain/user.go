package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// User represents a registered user. Password material and the stored
// refresh-token list are never serialized out.
// swagger:model User
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Salt          string    `json:"-"`
	RefreshTokens []string  `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(name, email, passwordHash, salt string, createdAt, updatedAt time.Time) *User {
	return &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Salt:         salt,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// UserSummary is the public projection of a user embedded in event payloads.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenPair bundles a short-lived access token with a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues and verifies the access/refresh JWT pair.
// Verify errors are ErrTokenExpired, ErrTokenInvalid, or ErrRefreshInvalid.
// Server-side revocation (membership in the user's stored refresh-token
// list) is the caller's responsibility.
type TokenService interface {
	IssuePair(userID string) (TokenPair, error)
	IssueAccess(userID string) (string, error)
	VerifyAccess(token string) (userID string, err error)
	VerifyRefresh(token string) (userID string, err error)
}

// UserRepository defines the interface for user storage.
// A user's refresh-token list supports multiple concurrent sessions.
// RemoveRefreshToken is idempotent.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	AddRefreshToken(ctx context.Context, userID, token string) error
	RemoveRefreshToken(ctx context.Context, token string) error
	HasRefreshToken(ctx context.Context, userID, token string) (bool, error)
}

// AuthService defines registration, login, and session lifecycle.
type AuthService interface {
	// Register creates the user and issues a token pair, storing the refresh
	// token server-side. Fails with ErrDuplicateEmail on an existing email.
	Register(ctx context.Context, name, email, password string) (*User, TokenPair, error)
	// Login verifies credentials and issues a token pair, storing the refresh
	// token server-side. Fails with ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*User, TokenPair, error)
	// Logout removes the presented refresh token from its user's stored list.
	// Removing an absent token is not an error.
	Logout(ctx context.Context, refreshToken string) error
	// Refresh mints a new access token when the refresh token is
	// cryptographically valid AND present in the user's stored list.
	// The refresh token itself is not rotated.
	Refresh(ctx context.Context, refreshToken string) (userID, accessToken string, err error)
	// Verify returns the user for an already-resolved identity.
	Verify(ctx context.Context, userID string) (*User, error)
}
