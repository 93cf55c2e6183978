package api

import (
	"errors"
	"fitplanhub/backend/internal/domain"
	apperrors "fitplanhub/backend/internal/pkg/errors"
	"fitplanhub/backend/internal/pkg/validator"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Response Envelopes ---

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Data       interface{}        `json:"data"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
}

// ErrorResponse wraps every failure.
type ErrorResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Errors  []validator.FieldError `json:"errors,omitempty"`
	Debug   string                 `json:"debug,omitempty"` // Internal error text, never set in production
}

const defaultSuccessMessage = "Request successful"

// respond writes a success envelope.
func respond(c *gin.Context, status int, message string, data interface{}) {
	if message == "" {
		message = defaultSuccessMessage
	}
	c.JSON(status, SuccessResponse{Success: true, Message: message, Data: data})
}

// respondPage writes a list envelope with its pagination block.
func respondPage[T any](c *gin.Context, message string, page *domain.Page[T]) {
	if message == "" {
		message = defaultSuccessMessage
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Success:    true,
		Message:    message,
		Data:       page.Items,
		Pagination: &page.Pagination,
	})
}

// abortWithError writes an error envelope with a fixed status and stops the chain.
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Success: false, Message: message})
}

// errorResponder maps service errors onto HTTP responses.
type errorResponder struct {
	debug bool // Attach internal error text to responses
}

// fail maps err onto the error envelope. AppErrors keep their status and
// field list; anything else is reported as a 500.
func (r errorResponder) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal("Internal server error", err)
	}

	resp := ErrorResponse{Success: false, Message: appErr.Message}
	if fields, ok := appErr.Details.([]validator.FieldError); ok {
		resp.Errors = fields
	}
	if r.debug && appErr.StatusCode >= http.StatusInternalServerError {
		resp.Debug = err.Error()
	}
	c.AbortWithStatusJSON(appErr.StatusCode, resp)
}

// --- Request Parsing Helpers ---

// pathObjectID reads an ObjectID path parameter, writing a 400 when malformed.
func pathObjectID(c *gin.Context, name, label string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+label+" ID format in URL path.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// bindJSON decodes the request body, writing a 400 on malformed JSON.
// Field rules are enforced by the services.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// pageRequest reads ?page=&limit= with the domain defaults.
func pageRequest(c *gin.Context) domain.PageRequest {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return domain.NewPageRequest(page, limit)
}

// bindQuery decodes the query string into dst, writing a 400 when a value
// cannot be parsed into its field type. Field rules are enforced by the services.
func bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid query parameters: "+err.Error())
		return false
	}
	return true
}
