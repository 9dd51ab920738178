package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RimaChaieb/tuniguard-api/internal/classifier"
	"github.com/RimaChaieb/tuniguard-api/internal/scan"
)

// writeScanError maps scan pipeline errors onto HTTP responses.
func writeScanError(c *gin.Context, logger *zap.Logger, err error) {
	var valErr *scan.ValidationError
	switch {
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Error(), "field": valErr.Field})
	case errors.Is(err, scan.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, scan.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
	case errors.Is(err, classifier.ErrUnavailable):
		logger.Warn("classifier unavailable", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "threat classifier unavailable, try again later"})
	case errors.Is(err, scan.ErrTransient):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scan could not be committed, try again"})
	default:
		logger.Error("scan failed", zap.Error(err), zap.String("request_id", c.GetString(ctxRequestID)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
	}
}

// bindError reports a malformed JSON body.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}
