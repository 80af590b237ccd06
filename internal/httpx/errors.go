package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
)

// ErrorBody is the shape of every error response.
// swagger:model
type ErrorBody struct {
	Error string `json:"error" example:"order not found: 42"`
}

// StatusOf maps an application error to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrPaymentReferenceNotFound), errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInsufficientStock), errors.Is(err, apperr.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WriteError answers with {"error": msg}. Storage and unexpected errors are logged and
// replaced by a generic message.
func WriteError(c *gin.Context, log *zap.Logger, err error) {
	status := StatusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.String("rid", RID(c)), zap.Error(err))
		msg = "internal error"
	}
	c.JSON(status, ErrorBody{Error: msg})
}

// BadRequest answers 400 with msg.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: msg})
}

// Page reads limit/offset query params; limit defaults to 20 and is capped at 100.
func Page(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
