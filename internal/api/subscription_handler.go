package api

import (
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionHandler serves the subscribe/progress workflow and payment history.
type SubscriptionHandler struct {
	errorResponder
	subscriptionService service.SubscriptionService
	authService         service.AuthService // Loads the trainer account for subscriber listings
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService service.SubscriptionService, authService service.AuthService, debug bool) *SubscriptionHandler {
	return &SubscriptionHandler{
		errorResponder:      errorResponder{debug: debug},
		subscriptionService: subscriptionService,
		authService:         authService,
	}
}

// Subscribe godoc
// @Summary Subscribe to a published plan
// @Description Records a simulated completed payment and an active subscription.
// @Tags Subscriptions
// @Produce json
// @Param planId path string true "Plan ID"
// @Success 201 {object} SuccessResponse "Successfully subscribed to plan"
// @Failure 404 {object} ErrorResponse "Plan not found or not available"
// @Failure 409 {object} ErrorResponse "You are already subscribed to this plan"
// @Router /subscriptions/subscribe/{planId} [post]
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	planID, ok := pathObjectID(c, "planId", "plan")
	if !ok {
		return
	}

	view, err := h.subscriptionService.Subscribe(c.Request.Context(), userID, planID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Successfully subscribed to plan", view)
}

// ListMine lists the caller's subscriptions. ?status= defaults to active, "all" lists every status.
func (h *SubscriptionHandler) ListMine(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	page, err := h.subscriptionService.ListMine(c.Request.Context(), userID, c.Query("status"), pageRequest(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, "", page)
}

// ListTrainerSubscribers lists active subscribers across the caller's plans.
func (h *SubscriptionHandler) ListTrainerSubscribers(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var planID *primitive.ObjectID
	if raw := c.Query("planId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid plan ID format in query.")
			return
		}
		planID = &id
	}

	trainer, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	page, err := h.subscriptionService.ListTrainerSubscribers(c.Request.Context(), trainer, planID, pageRequest(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, "", page)
}

// Get returns one of the caller's subscriptions.
func (h *SubscriptionHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	subscriptionID, ok := pathObjectID(c, "subscriptionId", "subscription")
	if !ok {
		return
	}

	view, err := h.subscriptionService.Get(c.Request.Context(), userID, subscriptionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", view)
}

// UpdateProgress godoc
// @Summary Record progress on an active subscription
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param subscriptionId path string true "Subscription ID"
// @Param progress body domain.ProgressUpdate true "Current day and/or completed workout"
// @Success 200 {object} SuccessResponse "Progress updated successfully"
// @Failure 404 {object} ErrorResponse "Active subscription not found"
// @Router /subscriptions/{subscriptionId}/progress [put]
func (h *SubscriptionHandler) UpdateProgress(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	subscriptionID, ok := pathObjectID(c, "subscriptionId", "subscription")
	if !ok {
		return
	}

	var req domain.ProgressUpdate
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.UpdateProgress(c.Request.Context(), userID, subscriptionID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Progress updated successfully", sub)
}

// Unsubscribe cancels one of the caller's subscriptions.
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	subscriptionID, ok := pathObjectID(c, "subscriptionId", "subscription")
	if !ok {
		return
	}

	sub, err := h.subscriptionService.Unsubscribe(c.Request.Context(), userID, subscriptionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Successfully unsubscribed from plan", sub)
}

// ListMyPayments lists the caller's payments, newest first.
func (h *SubscriptionHandler) ListMyPayments(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	page, err := h.subscriptionService.ListMyPayments(c.Request.Context(), userID, pageRequest(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, "", page)
}
