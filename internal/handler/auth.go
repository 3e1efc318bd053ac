package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hopon-app/hopon-backend/internal/config"
	"github.com/hopon-app/hopon-backend/internal/repository"
	"github.com/hopon-app/hopon-backend/internal/utils"
)

// AuthHandler bundles the dependencies of the authentication endpoints.
type AuthHandler struct {
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	Sports *repository.SportRepo
	Cfg    *config.Config
}

// NewAuthHandler wires the auth endpoints to their repositories.
func NewAuthHandler(users *repository.UserRepo, tokens *repository.TokenRepo, sports *repository.SportRepo, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Users: users, Tokens: tokens, Sports: sports, Cfg: cfg}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register creates a new account.  Email uniqueness is enforced by the
// database; the handler maps the duplicate-key error to 409.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid JSON body")
	}

	details := map[string]string{}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		details["email"] = "valid email is required"
	}
	if len(req.Name) < 2 || len(req.Name) > 100 {
		details["name"] = "name must be 2-100 characters"
	}
	if len(req.Password) < 8 {
		details["password"] = "password must be at least 8 characters"
	}
	if len(details) > 0 {
		return failValidation(c, details)
	}

	id, err := h.Users.Create(c.Request().Context(), req.Email, req.Name, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return fail(c, http.StatusConflict, codeConflict, "email already registered")
		}
		return failInternal(c)
	}

	return c.JSON(http.StatusCreated, echo.Map{"id": id, "email": strings.ToLower(req.Email), "name": req.Name})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues an access/refresh token pair.
// The refresh token is stored hashed; the raw value goes to the client
// exactly once.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid JSON body")
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "email and password are required")
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		// Same answer whether the account exists or not.
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "invalid credentials")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "invalid credentials")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return failInternal(c)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return failInternal(c)
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return failInternal(c)
	}
	_ = h.Users.TouchLastLogin(ctx, u.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":       access.Token,
		"access_expires_at":  access.Exp.Format(time.RFC3339),
		"refresh_token":      refresh.Raw,
		"refresh_expires_at": refresh.Exp.Format(time.RFC3339),
		"user":               toUserResponse(u, true),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a refresh token: the presented token is revoked and
// a fresh pair is issued, so each raw token is usable once.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "refresh_token is required")
	}

	ctx := c.Request().Context()
	hash := utils.HashRefreshRaw(req.RefreshToken)
	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "invalid or expired refresh token")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, h.Cfg.AccessTTLMin)
	if err != nil {
		return failInternal(c)
	}
	next, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return failInternal(c)
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return failInternal(c)
	}
	if err := h.Tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(next.Raw), next.Exp); err != nil {
		return failInternal(c)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":       access.Token,
		"access_expires_at":  access.Exp.Format(time.RFC3339),
		"refresh_token":      next.Raw,
		"refresh_expires_at": next.Exp.Format(time.RFC3339),
	})
}

// Logout revokes every active refresh token of the caller.
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	}
	if err := h.Tokens.RevokeAllForUser(c.Request().Context(), userID); err != nil {
		return failInternal(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the caller's own profile, private fields included.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	}
	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return notFoundOrInternal(c, err, "user not found")
	}
	resp := toUserResponse(u, true)
	if sports, err := h.Sports.ListForUser(ctx, u.ID); err == nil {
		resp.Sports = toSportResponses(sports)
	}
	return c.JSON(http.StatusOK, resp)
}
