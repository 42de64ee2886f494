package controllers

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"gatherapp/internal/delivery/http/helpers"
	"gatherapp/internal/delivery/http/middleware"
	"gatherapp/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// RegisterRequest is the request body for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (s RegisterRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, "name is required")
	}
	email := strings.TrimSpace(strings.ToLower(s.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if s.Password == "" {
		errs = append(errs, "password is required")
	} else if len(s.Password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	return errs
}

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (l LoginRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(l.Email) == "" {
		errs = append(errs, "email is required")
	}
	if l.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// AuthResponse is the success envelope carrying the authenticated user.
// Tokens travel only in HttpOnly cookies, never in the body.
type AuthResponse struct {
	Status string       `json:"status"`
	User   *domain.User `json:"user"`
}

// MessageResponse is the success envelope for message-only endpoints.
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
	Secure  bool
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService, secure bool) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
		Secure:  secure,
	}
}

// Register godoc
// @Summary Register a new user
// @Description Create a user with name, email, and password, and start a session. Both auth tokens are set as HttpOnly cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} controllers.AuthResponse "user contains the created account"
// @Failure 400 {object} helpers.ErrorResponse
// @Failure 409 {object} helpers.ErrorResponse "email already registered"
// @Failure 500 {object} helpers.ErrorResponse
// @Router /auth/register [post]
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, pair, err := c.Service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.SetAccessCookie(w, pair.AccessToken, c.Secure)
	helpers.SetRefreshCookie(w, pair.RefreshToken, c.Secure)
	helpers.WriteJSON(w, http.StatusCreated, AuthResponse{Status: helpers.StatusSuccess, User: user})
}

// Login godoc
// @Summary Log in
// @Description Authenticate with email and password. Both auth tokens are set as HttpOnly cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} controllers.AuthResponse "user contains the account"
// @Failure 400 {object} helpers.ErrorResponse
// @Failure 401 {object} helpers.ErrorResponse "invalid credentials"
// @Failure 500 {object} helpers.ErrorResponse
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, pair, err := c.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.SetAccessCookie(w, pair.AccessToken, c.Secure)
	helpers.SetRefreshCookie(w, pair.RefreshToken, c.Secure)
	helpers.WriteJSON(w, http.StatusOK, AuthResponse{Status: helpers.StatusSuccess, User: user})
}

// Logout godoc
// @Summary Log out
// @Description Revokes the presented refresh token server-side and clears both auth cookies. Succeeds even without a session.
// @Tags auth
// @Produce json
// @Success 200 {object} controllers.MessageResponse
// @Failure 500 {object} helpers.ErrorResponse
// @Router /auth/logout [post]
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	refresh := ""
	if cookie, err := r.Cookie(helpers.RefreshCookieName); err == nil {
		refresh = cookie.Value
	}
	if err := c.Service.Logout(r.Context(), refresh); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.ClearAuthCookies(w, c.Secure)
	helpers.WriteJSON(w, http.StatusOK, MessageResponse{Status: helpers.StatusSuccess, Message: "logged out"})
}

// Verify godoc
// @Summary Get the current user
// @Description Returns the account of the authenticated user.
// @Tags auth
// @Produce json
// @Success 200 {object} controllers.AuthResponse
// @Failure 401 {object} helpers.ErrorResponse
// @Failure 500 {object} helpers.ErrorResponse
// @Router /auth/verify [get]
func (c *AuthController) Verify(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	user, err := c.Service.Verify(r.Context(), userID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, AuthResponse{Status: helpers.StatusSuccess, User: user})
}
