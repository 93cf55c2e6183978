package api

import (
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	errorResponder
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService, debug bool) *AuthHandler {
	return &AuthHandler{errorResponder: errorResponder{debug: debug}, authService: authService}
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new account (user or trainer)
// @Description Creates a new account and returns a JWT token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body domain.RegisterInput true "Registration details"
// @Success 201 {object} SuccessResponse "User registered successfully"
// @Failure 409 {object} ErrorResponse "Conflict (email already exists)"
// @Failure 422 {object} ErrorResponse "Validation failed"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req domain.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "User registered successfully", result)
}

// Login godoc
// @Summary Log in
// @Description Authenticates an account and returns a JWT token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body domain.LoginInput true "Login credentials"
// @Success 200 {object} SuccessResponse "Login successful"
// @Failure 401 {object} ErrorResponse "Invalid email or password"
// @Failure 403 {object} ErrorResponse "Account is deactivated"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Login successful", result)
}

// GetProfile godoc
// @Summary Current account
// @Tags Auth
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", user)
}

// UpdateProfile updates the caller's own profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	role, _ := getUserRoleFromContext(c)

	var req domain.ProfileUpdate
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), userID, role, userID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Profile updated successfully", user)
}

// ChangePassword verifies the current password and stores the new one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req domain.PasswordChange
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), userID, req); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Password changed successfully", nil)
}
