package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RimaChaieb/tuniguard-api/internal/intel"
)

const (
	defaultIntelLimit = 50
	maxIntelLimit     = 500
)

type intelRepo interface {
	List(ctx context.Context, f intel.Filter) ([]*intel.Record, error)
	GetByID(ctx context.Context, id int64) (*intel.Record, error)
}

// IntelHandler exposes the aggregated threat intelligence records.
type IntelHandler struct {
	repo   intelRepo
	logger *zap.Logger
}

// NewIntelHandler creates a new IntelHandler.
func NewIntelHandler(repo intelRepo, logger *zap.Logger) *IntelHandler {
	return &IntelHandler{repo: repo, logger: logger}
}

// Register registers IntelHandler routes on the given router group.
func (h *IntelHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/intel", h.List)
	rg.GET("/intel/:id", h.Get)
}

// List handles GET /intel?region=&day=YYYY-MM-DD&escalation=&limit=.
func (h *IntelHandler) List(c *gin.Context) {
	f := intel.Filter{
		Region: c.Query("region"),
		Limit:  queryInt(c, "limit", defaultIntelLimit),
	}
	if f.Limit <= 0 || f.Limit > maxIntelLimit {
		f.Limit = defaultIntelLimit
	}
	if v := c.Query("day"); v != "" {
		day, err := time.Parse(time.DateOnly, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "day must be formatted YYYY-MM-DD"})
			return
		}
		f.Day = &day
	}
	if v := c.Query("escalation"); v != "" {
		switch lvl := intel.EscalationLevel(v); lvl {
		case intel.EscalationStable, intel.EscalationMonitoring, intel.EscalationEscalating:
			f.Escalation = lvl
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "escalation must be one of stable, monitoring, escalating"})
			return
		}
	}

	recs, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list intel", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list intel"})
		return
	}
	if recs == nil {
		recs = []*intel.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"intel": recs, "count": len(recs)})
}

// Get handles GET /intel/:id.
func (h *IntelHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "intel")
	if !ok {
		return
	}
	rec, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, intel.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "intel record not found"})
			return
		}
		h.logger.Error("get intel", zap.Error(err), zap.Int64("intel_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get intel record"})
		return
	}
	c.JSON(http.StatusOK, rec)
}
