package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/accounts"
	"storefront/internal/catalog"
	"storefront/internal/media"
)

// respondError maps service errors to status codes. Validation failures echo
// the submitted input so the client can correct the form.
func respondError(c *gin.Context, err error, input any) {
	var ve *catalog.ValidationError
	switch {
	case errors.As(err, &ve):
		body := gin.H{"error": ve.Error(), "field": ve.Field, "reason": ve.Reason}
		if ve.Word != "" {
			body["word"] = ve.Word
		}
		if input != nil {
			body["input"] = input
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, accounts.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, catalog.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, media.ErrUnsupportedFormat),
		errors.Is(err, accounts.ErrInvalidEmail),
		errors.Is(err, accounts.ErrWeakPassword),
		errors.Is(err, accounts.ErrLongPassword),
		errors.Is(err, accounts.ErrInvalidToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, accounts.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, accounts.ErrInactiveUser):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, accounts.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, field, reason string, input any) {
	respondError(c, &catalog.ValidationError{Field: field, Reason: reason}, input)
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return uint(id), true
}
