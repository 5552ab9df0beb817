package controllers

import (
	"errors"
	"net/http"

	"github.com/osvaldoandrade/placebench/internal/middleware"
	"github.com/osvaldoandrade/placebench/pkg/domain"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNoAlgorithmsSelected),
		errors.Is(err, domain.ErrNoCapabilitiesSelected),
		errors.Is(err, domain.ErrMalformedImport),
		errors.Is(err, domain.ErrInvalidScenario),
		errors.Is(err, domain.ErrUnknownPattern):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBatchInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error("request failed", "path", c.FullPath(), "err", err)
		msg = "internal error"
	}
	c.JSON(code, gin.H{"error": msg})
}
