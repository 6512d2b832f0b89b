package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/totargaming/stockinfo/internal/constants"
	"github.com/totargaming/stockinfo/internal/dto"
	apierrors "github.com/totargaming/stockinfo/internal/errors"
	"github.com/totargaming/stockinfo/internal/middleware"
	"github.com/totargaming/stockinfo/internal/services"
)

const sessionKeyOAuthState = "oauth_state"

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService  *services.AuthService
	oauthService *services.GoogleOAuthService
}

// NewAuthHandler creates a new AuthHandler. oauthService may be nil when
// Google login is not configured.
func NewAuthHandler(authService *services.AuthService, oauthService *services.GoogleOAuthService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		oauthService: oauthService,
	}
}

// Register creates a new account and initializes the session.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
		Password string `json:"password" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		FullName string `json:"full_name" binding:"required"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Register(services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	if err := h.saveSession(c, user.ID); err != nil {
		apierrors.InternalError(c, "Failed to save session", err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login authenticates a user and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Login(services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	if err := h.saveSession(c, user.ID); err != nil {
		apierrors.InternalError(c, "Failed to save session", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user's profile.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateProfile applies a partial update to the authenticated user's own
// profile; fields absent from the body are left unchanged. Supplying both
// password fields changes the password after verifying the current one.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateProfileRequest struct {
		Email           *string `json:"email" binding:"omitempty,email"`
		FullName        *string `json:"full_name"`
		Avatar          *string `json:"avatar"`
		Address         *string `json:"address"`
		DarkMode        *bool   `json:"dark_mode"`
		CurrentPassword *string `json:"current_password"`
		NewPassword     *string `json:"new_password"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.NewPassword != nil {
		if req.CurrentPassword == nil {
			apierrors.BadRequest(c, "Current password is required to change password")
			return
		}
		if err := h.authService.ChangePassword(userID, *req.CurrentPassword, *req.NewPassword); err != nil {
			respondAuthError(c, err)
			return
		}
	}

	user, err := h.authService.UpdateProfile(userID, services.UpdateProfileInput{
		Email:    req.Email,
		FullName: req.FullName,
		Avatar:   req.Avatar,
		Address:  req.Address,
		DarkMode: req.DarkMode,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// GoogleLogin starts the OAuth handshake.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.oauthService == nil {
		apierrors.ServiceUnavailable(c, "Google login is not configured", nil)
		return
	}

	state := uuid.NewString()
	session := sessions.Default(c)
	session.Set(sessionKeyOAuthState, state)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session", err)
		return
	}

	c.Redirect(http.StatusFound, h.oauthService.AuthURL(state))
}

// GoogleCallback completes the OAuth handshake and initializes the session.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.oauthService == nil {
		apierrors.ServiceUnavailable(c, "Google login is not configured", nil)
		return
	}

	session := sessions.Default(c)
	expectedState, _ := session.Get(sessionKeyOAuthState).(string)
	session.Delete(sessionKeyOAuthState)

	if expectedState == "" || c.Query("state") != expectedState {
		apierrors.BadRequest(c, "Invalid OAuth state")
		return
	}

	code := c.Query("code")
	if code == "" {
		apierrors.BadRequest(c, "Missing OAuth code")
		return
	}

	profile, err := h.oauthService.ExchangeProfile(c.Request.Context(), code)
	if err != nil {
		apierrors.InternalError(c, "OAuth exchange failed", err)
		return
	}

	user, err := h.authService.LoginWithGoogle(*profile)
	if err != nil {
		apierrors.InternalError(c, "Failed to resolve OAuth identity", err)
		return
	}

	if err := h.saveSession(c, user.ID); err != nil {
		apierrors.InternalError(c, "Failed to save session", err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) saveSession(c *gin.Context, userID uint64) error {
	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, userID)
	return session.Save()
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmailTaken):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrIncorrectUsername),
		errors.Is(err, services.ErrIncorrectPassword):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "", err)
	}
}
