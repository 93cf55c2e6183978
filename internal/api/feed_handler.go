package api

import (
	"fitplanhub/backend/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// FeedResponse is the list envelope plus the kind of feed served.
type FeedResponse struct {
	SuccessResponse
	FeedType string `json:"feedType"`
}

// FeedHandler serves the personalized feed, recommendations and dashboards.
type FeedHandler struct {
	errorResponder
	feedService service.FeedService
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(feedService service.FeedService, debug bool) *FeedHandler {
	return &FeedHandler{errorResponder: errorResponder{debug: debug}, feedService: feedService}
}

// GetFeed godoc
// @Summary Personalized plan feed
// @Description Plans from followed trainers, newest first. Falls back to popular plans when the caller follows nobody.
// @Tags Feed
// @Produce json
// @Success 200 {object} FeedResponse
// @Router /feed [get]
func (h *FeedHandler) GetFeed(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	feed, err := h.feedService.GetFeed(c.Request.Context(), userID, pageRequest(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, FeedResponse{
		SuccessResponse: SuccessResponse{
			Success:    true,
			Message:    defaultSuccessMessage,
			Data:       feed.Items,
			Pagination: &feed.Pagination,
		},
		FeedType: feed.FeedType,
	})
}

// Recommended lists top plans in the categories the caller is subscribed to.
func (h *FeedHandler) Recommended(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	page, err := h.feedService.Recommended(c.Request.Context(), userID, pageRequest(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondPage(c, "", page)
}

// DashboardStats returns role-specific aggregates for the caller.
func (h *FeedHandler) DashboardStats(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.feedService.DashboardStats(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"stats": stats})
}
