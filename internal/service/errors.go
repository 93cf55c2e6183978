package service

import (
	"net/http"

	apperrors "fitplanhub/backend/internal/pkg/errors"
)

// --- Error Definitions ---
// Sentinels are compared with errors.Is; the API layer maps them to HTTP.
var (
	// Accounts
	ErrUserAlreadyExists    = apperrors.Conflict("User already exists with this email")
	ErrAuthenticationFailed = apperrors.Unauthorized("Invalid email or password")
	ErrAccountInactive      = apperrors.Forbidden("Account is deactivated")
	ErrWrongPassword        = apperrors.Unauthorized("Current password is incorrect")
	ErrInvalidRole          = apperrors.BadRequest("Role must be either user or trainer")
	ErrUserNotFound         = apperrors.NotFound("User")
	ErrNotProfileOwner      = apperrors.Forbidden("Not authorized to update this profile")
	ErrTokenGeneration      = apperrors.Internal("Failed to generate authentication token", nil)

	// Catalog
	ErrPlanNotFound             = apperrors.New(apperrors.ErrCodeNotFound, "Plan not found or not available", http.StatusNotFound)
	ErrTrainerOnly              = apperrors.Forbidden("Only trainers can perform this action")
	ErrNotPlanOwner             = apperrors.Forbidden("Not authorized to modify this plan")
	ErrPlanHasActiveSubscribers = apperrors.Conflict("Cannot delete plan with active subscriptions")
	ErrUnsupportedContentType   = apperrors.BadRequest("Cover image must be an image content type")
	ErrInvalidCoverKey          = apperrors.BadRequest("Object key does not belong to this plan")
	ErrStorageUnavailable       = apperrors.ServiceUnavailable("Media storage is not configured")
	ErrInvalidPriceRange        = apperrors.BadRequest("minPrice cannot be greater than maxPrice")

	// Subscriptions
	ErrSubscriptionNotFound       = apperrors.NotFound("Subscription")
	ErrActiveSubscriptionNotFound = apperrors.NotFound("Active subscription")
	ErrAlreadySubscribed          = apperrors.Conflict("You are already subscribed to this plan")
	ErrInvalidStatus              = apperrors.BadRequest("Unknown subscription status")

	// Social graph
	ErrTrainerNotFound  = apperrors.NotFound("Trainer")
	ErrSelfFollow       = apperrors.BadRequest("You cannot follow yourself")
	ErrAlreadyFollowing = apperrors.Conflict("You are already following this trainer")
	ErrNotFollowing     = apperrors.New(apperrors.ErrCodeNotFound, "You are not following this trainer", http.StatusNotFound)

	// Reviews
	ErrAlreadyReviewed = apperrors.Conflict("You have already reviewed this plan")
)
