package httpserver

import (
	"net/http"

	"esim-storefront/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Error: msg})
}

// writeError maps domain errors onto HTTP statuses. Unknown errors are
// logged and reported without detail.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var pnf *domain.PackageNotFoundError
	switch {
	case errors.As(err, &pnf):
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody{Error: err.Error(), Code: pnf.Code})
	case errors.Is(err, domain.ErrNotFound):
		abortError(c, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrEmptyCart):
		abortError(c, http.StatusBadRequest, domain.ErrEmptyCart.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		abortError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		abortError(c, http.StatusConflict, domain.ErrAlreadyExists.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		abortError(c, http.StatusConflict, err.Error())
	default:
		logger.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
		abortError(c, http.StatusInternalServerError, "internal error")
	}
}

// bindJSON decodes and validates the body, answering 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortError(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
