package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RimaChaieb/tuniguard-api/internal/analytics"
	"github.com/RimaChaieb/tuniguard-api/internal/identity"
)

type analyticsSvc interface {
	UserStats(ctx context.Context, userID int64, days int) (*analytics.UserStats, error)
	National(ctx context.Context, days int) (*analytics.NationalStats, error)
	Performance(ctx context.Context, hours int) (*analytics.Performance, error)
}

// AnalyticsHandler serves aggregate scan statistics.
type AnalyticsHandler struct {
	svc        analyticsSvc
	userTokens *identity.UserTokenIssuer
	logger     *zap.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(svc analyticsSvc, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, logger: logger}
}

// SetUserTokenIssuer protects per-user statistics with session tokens.
func (h *AnalyticsHandler) SetUserTokenIssuer(ut *identity.UserTokenIssuer) {
	h.userTokens = ut
}

// Register registers AnalyticsHandler routes on the given router group.
func (h *AnalyticsHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/analytics")
	g.GET("/user/:id", identity.OptionalUserToken(h.userTokens), h.User)
	g.GET("/national", h.National)
	g.GET("/performance", h.Performance)
}

// User handles GET /analytics/user/:id?days=.
func (h *AnalyticsHandler) User(c *gin.Context) {
	id, ok := pathID(c, "user")
	if !ok {
		return
	}
	if !identity.ActingAs(c, id) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot read another user's statistics"})
		return
	}
	stats, err := h.svc.UserStats(c.Request.Context(), id, queryInt(c, "days", analytics.DefaultUserDays))
	if err != nil {
		if errors.Is(err, analytics.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.internalError(c, "user stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// National handles GET /analytics/national?days=.
func (h *AnalyticsHandler) National(c *gin.Context) {
	stats, err := h.svc.National(c.Request.Context(), queryInt(c, "days", analytics.DefaultNationalDays))
	if err != nil {
		h.internalError(c, "national stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Performance handles GET /analytics/performance?hours=.
func (h *AnalyticsHandler) Performance(c *gin.Context) {
	perf, err := h.svc.Performance(c.Request.Context(), queryInt(c, "hours", analytics.DefaultPerfHours))
	if err != nil {
		h.internalError(c, "performance stats", err)
		return
	}
	c.JSON(http.StatusOK, perf)
}

func (h *AnalyticsHandler) internalError(c *gin.Context, op string, err error) {
	h.logger.Error(op, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute statistics"})
}
