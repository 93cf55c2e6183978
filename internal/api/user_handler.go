package api

import (
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserHandler serves public profiles, the trainer directory and the follow graph.
type UserHandler struct {
	errorResponder
	socialService service.SocialService
	authService   service.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(socialService service.SocialService, authService service.AuthService, debug bool) *UserHandler {
	return &UserHandler{
		errorResponder: errorResponder{debug: debug},
		socialService:  socialService,
		authService:    authService,
	}
}

// ListTrainers godoc
// @Summary Browse active trainers
// @Tags Users
// @Produce json
// @Param search query string false "Matches name, certification and specialization"
// @Param specialization query string false "Specialization substring"
// @Param sort query string false "rating, followers, subscribers, experience or newest"
// @Param order query string false "asc or desc"
// @Success 200 {object} SuccessResponse
// @Router /users/trainers [get]
func (h *UserHandler) ListTrainers(c *gin.Context) {
	filter := domain.TrainerFilter{
		Search:         c.Query("search"),
		Specialization: c.Query("specialization"),
	}

	page, err := h.socialService.ListTrainers(c.Request.Context(), filter, c.DefaultQuery("sort", "rating"), c.DefaultQuery("order", "desc"), pageRequest(c), viewerFromContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, "", page)
}

// GetUser returns a public profile annotated with the caller's follow state.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathObjectID(c, "id", "user")
	if !ok {
		return
	}

	profile, err := h.socialService.GetProfile(c.Request.Context(), id, viewerFromContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", profile)
}

// UpdateUser updates a profile. Only the owner or an admin may do so.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	actorRole, _ := getUserRoleFromContext(c)
	targetID, ok := pathObjectID(c, "id", "user")
	if !ok {
		return
	}

	var req domain.ProfileUpdate
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), actorID, actorRole, targetID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Profile updated successfully", user)
}

// Follow godoc
// @Summary Follow a trainer
// @Tags Users
// @Produce json
// @Param trainerId path string true "Trainer ID"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse "You cannot follow yourself"
// @Failure 404 {object} ErrorResponse "Trainer not found"
// @Failure 409 {object} ErrorResponse "You are already following this trainer"
// @Router /users/follow/{trainerId} [post]
func (h *UserHandler) Follow(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	trainerID, ok := pathObjectID(c, "trainerId", "trainer")
	if !ok {
		return
	}

	follow, trainer, err := h.socialService.Follow(c.Request.Context(), userID, trainerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, fmt.Sprintf("You are now following %s", trainer.Name), gin.H{"follow": follow})
}

// Unfollow removes the caller's edge to a trainer.
func (h *UserHandler) Unfollow(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	trainerID, ok := pathObjectID(c, "trainerId", "trainer")
	if !ok {
		return
	}

	if err := h.socialService.Unfollow(c.Request.Context(), userID, trainerID); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Unfollowed trainer successfully", nil)
}

// ListFollowing lists the accounts the caller follows.
func (h *UserHandler) ListFollowing(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	page, err := h.socialService.ListFollowing(c.Request.Context(), userID, pageRequest(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, "", page)
}

// ListFollowers lists the caller's followers.
func (h *UserHandler) ListFollowers(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	page, err := h.socialService.ListFollowers(c.Request.Context(), userID, pageRequest(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, "", page)
}
