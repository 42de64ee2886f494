package helpers

import (
	"net/http"

	"gatherapp/config"
)

// Auth cookie names. Both are HttpOnly with SameSite=Strict; the browser
// never exposes the tokens to scripts.
const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

func authCookie(name, value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// SetAccessCookie sets the access token cookie with a Max-Age matching the
// access token lifetime.
func SetAccessCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, authCookie(AccessCookieName, token, int(config.AccessTokenExpiry.Seconds()), secure))
}

// SetRefreshCookie sets the refresh token cookie with a Max-Age matching the
// refresh token lifetime.
func SetRefreshCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, authCookie(RefreshCookieName, token, int(config.RefreshTokenExpiry.Seconds()), secure))
}

// ClearAuthCookies expires both auth cookies.
func ClearAuthCookies(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, authCookie(AccessCookieName, "", -1, secure))
	http.SetCookie(w, authCookie(RefreshCookieName, "", -1, secure))
}
