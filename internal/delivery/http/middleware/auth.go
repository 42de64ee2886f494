package middleware

import (
	"context"
	"errors"
	"net/http"

	"gatherapp/internal/delivery/http/helpers"
	"gatherapp/internal/domain"
)

type contextKey string

const userIDKey contextKey = "userID"

// SetUserID returns a context with the user ID set. Used by auth middleware.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID from the context, if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// Authenticator resolves the user identity from the auth cookies, refreshing
// the access token transparently when it can.
type Authenticator struct {
	Tokens   domain.TokenService
	Sessions domain.AuthService
	Secure   bool
}

func NewAuthenticator(tokens domain.TokenService, sessions domain.AuthService, secure bool) *Authenticator {
	return &Authenticator{
		Tokens:   tokens,
		Sessions: sessions,
		Secure:   secure,
	}
}

// RequireAuth wraps a handler with cookie authentication. On success the user
// ID is stored in the request context and, when the access token was
// refreshed, the new access cookie is set before the handler runs. On any
// failure both auth cookies are cleared and the request ends with 401.
func (a *Authenticator) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, newAccess, err := a.authenticate(r)
		if err != nil {
			helpers.ClearAuthCookies(w, a.Secure)
			helpers.WriteError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if newAccess != "" {
			helpers.SetAccessCookie(w, newAccess, a.Secure)
		}
		r = r.WithContext(SetUserID(r.Context(), userID))
		next(w, r)
	}
}

// authenticate walks the cookie states:
//
//  1. no access cookie: unauthenticated, regardless of any refresh cookie.
//  2. valid access token: done.
//  3. expired access token: fall through to refresh.
//  4. refresh token valid and still stored for the user: mint a new access
//     token and proceed.
//  5. access token malformed or tampered: unauthenticated, no refresh attempt.
//
// The refresh token itself is never rotated here.
func (a *Authenticator) authenticate(r *http.Request) (string, string, error) {
	access, err := r.Cookie(helpers.AccessCookieName)
	if err != nil || access.Value == "" {
		return "", "", domain.ErrTokenInvalid
	}
	userID, err := a.Tokens.VerifyAccess(access.Value)
	if err == nil {
		return userID, "", nil
	}
	if !errors.Is(err, domain.ErrTokenExpired) {
		return "", "", domain.ErrTokenInvalid
	}

	refresh, err := r.Cookie(helpers.RefreshCookieName)
	if err != nil || refresh.Value == "" {
		return "", "", domain.ErrTokenExpired
	}
	userID, newAccess, err := a.Sessions.Refresh(r.Context(), refresh.Value)
	if err != nil {
		return "", "", domain.ErrRefreshInvalid
	}
	return userID, newAccess, nil
}
