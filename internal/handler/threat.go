package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RimaChaieb/tuniguard-api/internal/analytics"
	"github.com/RimaChaieb/tuniguard-api/internal/catalog"
)

type catalogSvc interface {
	List(ctx context.Context, f catalog.Filter) ([]catalog.Entry, error)
	Detail(ctx context.Context, id int64) (*catalog.Detail, error)
}

type trendingSvc interface {
	Trending(ctx context.Context, days int, region string) (*analytics.Trending, error)
}

// ThreatHandler serves the threat catalog and trending threats.
type ThreatHandler struct {
	catalog  catalogSvc
	trending trendingSvc
	logger   *zap.Logger
}

// NewThreatHandler creates a new ThreatHandler.
func NewThreatHandler(cat catalogSvc, trending trendingSvc, logger *zap.Logger) *ThreatHandler {
	return &ThreatHandler{catalog: cat, trending: trending, logger: logger}
}

// Register registers ThreatHandler routes on the given router group.
func (h *ThreatHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/threats", h.List)
	rg.GET("/threats/trending", h.Trending)
	rg.GET("/threats/:id", h.Get)
}

// List handles GET /threats?category=&severity=.
func (h *ThreatHandler) List(c *gin.Context) {
	var f catalog.Filter
	if v := c.Query("category"); v != "" {
		if !catalog.ValidCategory(v) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "category must be one of SMS, Call, App Message"})
			return
		}
		f.Category = catalog.Category(v)
	}
	if v := c.Query("severity"); v != "" {
		if !catalog.ValidSeverity(v) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "severity must be one of Low, Medium, High, Critical"})
			return
		}
		f.Severity = catalog.Severity(v)
	}

	entries, err := h.catalog.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list threats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list threats"})
		return
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"threats": entries, "count": len(entries)})
}

// Get handles GET /threats/:id.
func (h *ThreatHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "threat")
	if !ok {
		return
	}
	d, err := h.catalog.Detail(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "threat not found"})
			return
		}
		h.logger.Error("get threat", zap.Error(err), zap.Int64("threat_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get threat"})
		return
	}
	if d.RecentDetections == nil {
		d.RecentDetections = []catalog.Detection{}
	}
	c.JSON(http.StatusOK, d)
}

// Trending handles GET /threats/trending?days=&region=.
func (h *ThreatHandler) Trending(c *gin.Context) {
	days := queryInt(c, "days", analytics.DefaultTrendingDays)
	t, err := h.trending.Trending(c.Request.Context(), days, c.Query("region"))
	if err != nil {
		h.logger.Error("trending threats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load trending threats"})
		return
	}
	c.JSON(http.StatusOK, t)
}
