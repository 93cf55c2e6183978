package api

import (
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PlanHandler serves the plan catalog, cover uploads and reviews.
type PlanHandler struct {
	errorResponder
	planService   service.PlanService
	feedService   service.FeedService
	reviewService service.ReviewService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService, feedService service.FeedService, reviewService service.ReviewService, debug bool) *PlanHandler {
	return &PlanHandler{
		errorResponder: errorResponder{debug: debug},
		planService:    planService,
		feedService:    feedService,
		reviewService:  reviewService,
	}
}

// ListPlans godoc
// @Summary Browse published plans
// @Tags Plans
// @Produce json
// @Param category query string false "Category or 'all'"
// @Param difficulty query string false "Difficulty or 'all'"
// @Param trainerId query string false "Owning trainer"
// @Param search query string false "Matches title, description and tags"
// @Param minPrice query number false "Lower price bound"
// @Param maxPrice query number false "Upper price bound"
// @Param sort query string false "createdAt, price, rating, subscribers or popularity"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number, from 1"
// @Param limit query int false "Page size, 1 to 100"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse "Unparseable query parameter"
// @Failure 422 {object} ErrorResponse "Invalid filter, sort or page bounds"
// @Router /plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	var query domain.PlanQuery
	if !bindQuery(c, &query) {
		return
	}

	page, err := h.feedService.ListPlans(c.Request.Context(), query, viewerFromContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, "", page)
}

// GetPlan godoc
// @Summary Plan details with related plans and recent reviews
// @Tags Plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse "Plan not found or not available"
// @Router /plans/{id} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, ok := pathObjectID(c, "id", "plan")
	if !ok {
		return
	}

	details, err := h.planService.GetPlan(c.Request.Context(), planID, viewerFromContext(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", details)
}

// ListTrainerPlans lists the published plans of one trainer.
func (h *PlanHandler) ListTrainerPlans(c *gin.Context) {
	trainerID, ok := pathObjectID(c, "trainerId", "trainer")
	if !ok {
		return
	}

	page, err := h.planService.ListTrainerPlans(c.Request.Context(), trainerID, pageRequest(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, "", page)
}

// CreatePlan godoc
// @Summary Create a plan (trainer only)
// @Tags Plans
// @Accept json
// @Produce json
// @Param plan body domain.PlanInput true "Plan content"
// @Success 201 {object} SuccessResponse "Plan created successfully"
// @Failure 403 {object} ErrorResponse "Only trainers can perform this action"
// @Failure 422 {object} ErrorResponse "Validation failed"
// @Router /plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req domain.PlanInput
	if !bindJSON(c, &req) {
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), trainerID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Plan created successfully", plan)
}

// UpdatePlan applies a partial update to an owned plan.
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id", "plan")
	if !ok {
		return
	}

	var req domain.PlanPatch
	if !bindJSON(c, &req) {
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), trainerID, planID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Plan updated successfully", plan)
}

// DeletePlan removes or unpublishes an owned plan.
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id", "plan")
	if !ok {
		return
	}

	if err := h.planService.DeletePlan(c.Request.Context(), trainerID, planID); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Plan deleted successfully", nil)
}

// --- Cover Images ---

// RequestCoverUpload godoc
// @Summary Get a presigned URL for uploading a plan cover image
// @Tags Plans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param request body domain.CoverUploadRequest true "Image content type"
// @Success 200 {object} SuccessResponse
// @Failure 503 {object} ErrorResponse "Media storage is not configured"
// @Router /plans/{id}/cover [post]
func (h *PlanHandler) RequestCoverUpload(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id", "plan")
	if !ok {
		return
	}

	var req domain.CoverUploadRequest
	if !bindJSON(c, &req) {
		return
	}

	upload, err := h.planService.RequestCoverUpload(c.Request.Context(), trainerID, planID, req.ContentType)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Upload URL generated", upload)
}

// ConfirmCoverUpload attaches an uploaded object as the plan's cover.
func (h *PlanHandler) ConfirmCoverUpload(c *gin.Context) {
	trainerID, ok := requireUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id", "plan")
	if !ok {
		return
	}

	var req domain.CoverConfirmRequest
	if !bindJSON(c, &req) {
		return
	}

	plan, err := h.planService.ConfirmCoverUpload(c.Request.Context(), trainerID, planID, req.ObjectKey)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Cover image updated", plan)
}

// --- Reviews ---

// ListReviews lists approved reviews of a plan, newest first.
func (h *PlanHandler) ListReviews(c *gin.Context) {
	planID, ok := pathObjectID(c, "id", "plan")
	if !ok {
		return
	}

	page, err := h.reviewService.ListPlanReviews(c.Request.Context(), planID, pageRequest(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, "", page)
}

// SubmitReview godoc
// @Summary Review a plan (one review per user and plan)
// @Tags Plans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param review body domain.ReviewInput true "Rating and comment"
// @Success 201 {object} SuccessResponse "Review submitted successfully"
// @Failure 409 {object} ErrorResponse "You have already reviewed this plan"
// @Router /plans/{id}/reviews [post]
func (h *PlanHandler) SubmitReview(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "id", "plan")
	if !ok {
		return
	}

	var req domain.ReviewInput
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.SubmitReview(c.Request.Context(), userID, planID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Review submitted successfully", review)
}
