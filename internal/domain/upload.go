package domain

import "time"

// CoverUpload is a presigned upload ticket for a plan cover image.
// The client PUTs the file to UploadURL with the same Content-Type, then
// confirms ObjectKey so the plan's coverImage is switched over.
type CoverUpload struct {
	UploadURL   string    `json:"uploadUrl"`
	ObjectKey   string    `json:"objectKey"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// CoverUploadRequest is the payload asking for a cover upload ticket.
type CoverUploadRequest struct {
	ContentType string `json:"contentType" validate:"required"`
}

// CoverConfirmRequest is the payload confirming an uploaded cover.
type CoverConfirmRequest struct {
	ObjectKey string `json:"objectKey" validate:"required"`
}
