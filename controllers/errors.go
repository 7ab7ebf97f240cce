package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"minisocial-api/services"
	"minisocial-api/utils"
)

// respondError maps a service error onto the standard error envelope.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNoSession),
		errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrAlreadyLiked):
		status = http.StatusConflict
	case errors.Is(err, services.ErrPostNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, services.ErrInvalidLikeCount),
		errors.Is(err, services.ErrEmptyComment),
		errors.Is(err, services.ErrEmptyDescription),
		errors.Is(err, services.ErrNoImage),
		errors.Is(err, services.ErrEncodeImage):
		utils.SendValidationError(c, err.Error())
		return
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		utils.SendErrorMessage(c, status, "Internal server error", "An unexpected error occurred")
		return
	}
	utils.SendError(c, status, err.Error())
}
